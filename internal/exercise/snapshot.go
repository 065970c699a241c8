package exercise

import (
	"time"

	"github.com/claude/movecoach/internal/pose"
)

// Snapshot is the state exposed to the feedback and UI layer.
type Snapshot struct {
	Exercise             string    `json:"exercise"`
	State                State     `json:"state"`
	Description          string    `json:"description"`
	Side                 pose.Side `json:"side"`
	CurrentSide          pose.Side `json:"current_side"`
	RemainingRepetitions int       `json:"remaining_repetitions"`
	RemainingSets        int       `json:"remaining_sets"`
	CompletedRepetitions int       `json:"completed_repetitions"`
	CompletedSets        int       `json:"completed_sets"`
	RepetitionIsGood     bool      `json:"repetition_is_good"`
	IsGiveUp             bool      `json:"is_give_up"`
	ExerciseCompleted    bool      `json:"exercise_completed"`
	// Countdown is the seconds left on the timer owned by the current state.
	Countdown   float64 `json:"countdown"`
	Instruction string  `json:"instruction,omitempty"`
	Frames      int     `json:"frames"`
	Clock       float64 `json:"clock"`
}

// Snapshot returns a copy of the externally visible state.
func (e *Engine) Snapshot() Snapshot {
	s := e.session
	return Snapshot{
		Exercise:             e.def.Key,
		State:                e.state,
		Description:          e.Description(),
		Side:                 s.Side,
		CurrentSide:          s.CurrentSide,
		RemainingRepetitions: s.RemainingRepetitions,
		RemainingSets:        s.RemainingSets,
		CompletedRepetitions: s.CompletedRepetitions,
		CompletedSets:        s.CompletedSets,
		RepetitionIsGood:     s.RepetitionIsGood,
		IsGiveUp:             s.IsGiveUp,
		ExerciseCompleted:    s.ExerciseCompleted,
		Countdown:            e.countdown().Seconds(),
		Instruction:          e.lastSpoken,
		Frames:               e.frames,
		Clock:                e.now.Seconds(),
	}
}

func (e *Engine) countdown() time.Duration {
	s := e.session
	for _, c := range []*countdown{&s.startDelay, &s.repetition, &s.buffer} {
		if c.active && c.ownedBy(e.state) {
			return max(c.remaining, 0)
		}
	}
	return 0
}

// Summary is the outcome of a session, as stored with results.
type Summary struct {
	ExerciseID           int       `json:"exercise_id"`
	ExerciseKey          string    `json:"exercise_key"`
	ExerciseName         string    `json:"exercise_name"`
	Side                 pose.Side `json:"side"`
	SideCode             int       `json:"side_code"`
	TotalRepetitions     int       `json:"total_repetitions"`
	TotalSets            int       `json:"total_sets"`
	CompletedRepetitions int       `json:"completed_repetitions"`
	CompletedSets        int       `json:"completed_sets"`
	GiveUps              int       `json:"give_ups"`
	Completed            bool      `json:"completed"`
}

// CompletionRatio is completed over target repetitions, in [0,1].
func (s Summary) CompletionRatio() float64 {
	if s.TotalRepetitions == 0 {
		return 0
	}
	return min(float64(s.CompletedRepetitions)/float64(s.TotalRepetitions), 1)
}

// Summary reports the session's targets and progress. Targets double for
// two-sided exercises.
func (e *Engine) Summary() Summary {
	s := e.session
	reps := e.def.Repetitions * e.def.Sets
	sets := e.def.Sets
	if s.Side == pose.SideBoth {
		reps *= 2
		sets *= 2
	}
	return Summary{
		ExerciseID:           e.def.ID,
		ExerciseKey:          e.def.Key,
		ExerciseName:         e.def.Name,
		Side:                 s.Side,
		SideCode:             s.Side.Code(),
		TotalRepetitions:     reps,
		TotalSets:            sets,
		CompletedRepetitions: s.CompletedRepetitions,
		CompletedSets:        s.CompletedSets,
		GiveUps:              s.GiveUps,
		Completed:            s.ExerciseCompleted,
	}
}
