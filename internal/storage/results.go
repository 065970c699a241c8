package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/pose"
)

// InsertSessionResult stores a session result. Returns true if inserted,
// false if a result with the same ID already exists.
func (db *DB) InsertSessionResult(ctx context.Context, row models.SessionResult) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO session_results (id, user_id, exercise_id, exercise_key, exercise_name, side,
		 total_repetitions, total_sets, completed_repetitions, completed_sets, give_ups, completed,
		 started_at, ended_at, source)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		 ON CONFLICT DO NOTHING`,
		row.ID, row.UserID, row.ExerciseID, row.ExerciseKey, row.ExerciseName, row.Side.Code(),
		row.TotalRepetitions, row.TotalSets, row.CompletedRepetitions, row.CompletedSets,
		row.GiveUps, row.Completed, row.StartedAt, row.EndedAt, row.Source)
	if err != nil {
		return false, fmt.Errorf("inserting session result: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QuerySessionResults returns a user's results that started within the
// time range, newest first, optionally filtered by exercise key.
func (db *DB) QuerySessionResults(ctx context.Context, userID int, start, end time.Time, exerciseKey string) ([]models.SessionResult, error) {
	query := `SELECT id, user_id, exercise_id, exercise_key, exercise_name, side,
		total_repetitions, total_sets, completed_repetitions, completed_sets, give_ups, completed,
		started_at, ended_at, source
		FROM session_results
		WHERE user_id = $1 AND started_at >= $2 AND started_at < $3`
	args := []any{userID, start, end}
	if exerciseKey != "" {
		query += ` AND exercise_key = $4`
		args = append(args, exerciseKey)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying session results: %w", err)
	}
	defer rows.Close()

	var results []models.SessionResult
	for rows.Next() {
		var r models.SessionResult
		var sideCode int
		if err := rows.Scan(&r.ID, &r.UserID, &r.ExerciseID, &r.ExerciseKey, &r.ExerciseName, &sideCode,
			&r.TotalRepetitions, &r.TotalSets, &r.CompletedRepetitions, &r.CompletedSets,
			&r.GiveUps, &r.Completed, &r.StartedAt, &r.EndedAt, &r.Source); err != nil {
			return nil, fmt.Errorf("scanning session result: %w", err)
		}
		r.Side = sideFromCode(sideCode)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ExerciseStat holds summary stats for a single exercise.
type ExerciseStat struct {
	ExerciseKey          string     `json:"exercise_key"`
	ExerciseName         string     `json:"exercise_name"`
	Sessions             int64      `json:"sessions"`
	CompletedSessions    int64      `json:"completed_sessions"`
	TotalRepetitions     int64      `json:"total_repetitions"`
	CompletedRepetitions int64      `json:"completed_repetitions"`
	GiveUps              int64      `json:"give_ups"`
	CompletionRate       float64    `json:"completion_rate"`
	LastSession          *time.Time `json:"last_session"`
}

// GetExerciseStats aggregates a user's results per exercise within the time
// range.
func (db *DB) GetExerciseStats(ctx context.Context, userID int, start, end time.Time) ([]ExerciseStat, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_key, MAX(exercise_name), COUNT(*),
		        COUNT(*) FILTER (WHERE completed),
		        COALESCE(SUM(total_repetitions), 0),
		        COALESCE(SUM(LEAST(completed_repetitions, total_repetitions)), 0),
		        COALESCE(SUM(give_ups), 0),
		        MAX(started_at)
		 FROM session_results
		 WHERE user_id = $1 AND started_at >= $2 AND started_at < $3
		 GROUP BY exercise_key
		 ORDER BY exercise_key`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying exercise stats: %w", err)
	}
	defer rows.Close()

	var stats []ExerciseStat
	for rows.Next() {
		var s ExerciseStat
		if err := rows.Scan(&s.ExerciseKey, &s.ExerciseName, &s.Sessions, &s.CompletedSessions,
			&s.TotalRepetitions, &s.CompletedRepetitions, &s.GiveUps, &s.LastSession); err != nil {
			return nil, fmt.Errorf("scanning exercise stats: %w", err)
		}
		if s.TotalRepetitions > 0 {
			s.CompletionRate = float64(s.CompletedRepetitions) / float64(s.TotalRepetitions)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func sideFromCode(code int) pose.Side {
	switch code {
	case 0:
		return pose.SideLeft
	case 1:
		return pose.SideRight
	default:
		return pose.SideBoth
	}
}
