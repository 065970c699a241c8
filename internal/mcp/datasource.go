package mcp

import (
	"context"
	"time"

	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/storage"
)

// DataSource abstracts the result store for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	QuerySessionResults(ctx context.Context, userID int, start, end time.Time, exerciseKey string) ([]models.SessionResult, error)
	GetExerciseStats(ctx context.Context, userID int, start, end time.Time) ([]storage.ExerciseStat, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
