package upload

import (
	"context"
	"fmt"
	"log/slog"
)

// Stats tracks upload progress.
type Stats struct {
	ResultsPending  int
	ResultsUploaded int
	ResultsErrored  int
}

// Uploader drains the local results log to the server.
type Uploader struct {
	client *Client
	state  *StateDB
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Uploader.
func New(client *Client, state *StateDB, dryRun bool, log *slog.Logger) *Uploader {
	return &Uploader{
		client: client,
		state:  state,
		dryRun: dryRun,
		log:    log,
	}
}

// Run sends every pending result once. Failed results stay pending for the
// next run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	pending, err := u.state.PendingResults(ctx, 0)
	if err != nil {
		return &u.stats, fmt.Errorf("loading pending results: %w", err)
	}
	u.stats.ResultsPending = len(pending)
	u.log.Info("pending results", "count", len(pending))

	for _, row := range pending {
		if err := ctx.Err(); err != nil {
			return &u.stats, err
		}
		if u.dryRun {
			u.log.Info("would upload", "id", row.ID, "exercise", row.ExerciseKey,
				"completed", row.CompletedRepetitions, "total", row.TotalRepetitions)
			continue
		}
		if err := u.client.SendResult(ctx, row); err != nil {
			u.log.Warn("upload failed", "id", row.ID, "error", err)
			u.stats.ResultsErrored++
			continue
		}
		if err := u.state.MarkUploaded(ctx, row.ID); err != nil {
			return &u.stats, fmt.Errorf("marking %s uploaded: %w", row.ID, err)
		}
		u.stats.ResultsUploaded++
	}

	return &u.stats, nil
}
