package models

import (
	"time"

	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/pose"
	"github.com/google/uuid"
)

// Result sources.
const (
	SourceLive   = "live"
	SourceReplay = "replay"
)

// SessionResult is a row of the session_results table: the outcome of one
// exercise session.
type SessionResult struct {
	ID                   uuid.UUID `json:"id"`
	UserID               int       `json:"-"`
	ExerciseID           int       `json:"exercise_id"`
	ExerciseKey          string    `json:"exercise_key"`
	ExerciseName         string    `json:"exercise_name"`
	Side                 pose.Side `json:"side"`
	TotalRepetitions     int       `json:"total_repetitions"`
	TotalSets            int       `json:"total_sets"`
	CompletedRepetitions int       `json:"completed_repetitions"`
	CompletedSets        int       `json:"completed_sets"`
	GiveUps              int       `json:"give_ups"`
	Completed            bool      `json:"completed"`
	StartedAt            time.Time `json:"started_at"`
	EndedAt              time.Time `json:"ended_at"`
	Source               string    `json:"source"`
}

// NewSessionResult builds a row from an engine summary.
func NewSessionResult(id uuid.UUID, sum exercise.Summary, started, ended time.Time, source string) SessionResult {
	return SessionResult{
		ID:                   id,
		ExerciseID:           sum.ExerciseID,
		ExerciseKey:          sum.ExerciseKey,
		ExerciseName:         sum.ExerciseName,
		Side:                 sum.Side,
		TotalRepetitions:     sum.TotalRepetitions,
		TotalSets:            sum.TotalSets,
		CompletedRepetitions: sum.CompletedRepetitions,
		CompletedSets:        sum.CompletedSets,
		GiveUps:              sum.GiveUps,
		Completed:            sum.Completed,
		StartedAt:            started,
		EndedAt:              ended,
		Source:               source,
	}
}

// Summary converts the row back to the engine's summary form.
func (r SessionResult) Summary() exercise.Summary {
	return exercise.Summary{
		ExerciseID:           r.ExerciseID,
		ExerciseKey:          r.ExerciseKey,
		ExerciseName:         r.ExerciseName,
		Side:                 r.Side,
		SideCode:             r.Side.Code(),
		TotalRepetitions:     r.TotalRepetitions,
		TotalSets:            r.TotalSets,
		CompletedRepetitions: r.CompletedRepetitions,
		CompletedSets:        r.CompletedSets,
		GiveUps:              r.GiveUps,
		Completed:            r.Completed,
	}
}

// Duration is the wall-clock length of the session.
func (r SessionResult) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
