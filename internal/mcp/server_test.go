package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/movecoach/internal/catalog"
	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

// TestDefaultTimeRange verifies time range defaults (last 7 days) and parsing.
func TestDefaultTimeRange(t *testing.T) {
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	diff := end.Sub(start)
	if diff.Hours() < 167 || diff.Hours() > 169 {
		t.Errorf("default range = %.0f hours, want ~168", diff.Hours())
	}

	start, end, err = defaultTimeRange("2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2024 || start.Month() != 1 || start.Day() != 1 {
		t.Errorf("start = %v, want 2024-01-01", start)
	}
	if end.Year() != 2024 || end.Month() != 1 || end.Day() != 31 {
		t.Errorf("end = %v, want 2024-01-31", end)
	}

	start, _, err = defaultTimeRange("2024-06-15T10:30:00Z", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 {
		t.Errorf("start = %v, want 10:30", start)
	}

	_, _, err = defaultTimeRange("not-a-date", "")
	if err == nil {
		t.Error("expected error for invalid date")
	}
}

// fakeSource records the last query and returns canned results.
type fakeSource struct {
	results []models.SessionResult
	err     error

	userID int
	key    string
	starts []time.Time
}

func (f *fakeSource) QuerySessionResults(_ context.Context, userID int, start, _ time.Time, key string) ([]models.SessionResult, error) {
	f.userID, f.key = userID, key
	f.starts = append(f.starts, start)
	var out []models.SessionResult
	for _, r := range f.results {
		if !r.StartedAt.Before(start) {
			out = append(out, r)
		}
	}
	return out, f.err
}

func (f *fakeSource) GetExerciseStats(_ context.Context, userID int, _, _ time.Time) ([]storage.ExerciseStat, error) {
	f.userID = userID
	return []storage.ExerciseStat{{ExerciseKey: "biceps_flexion", Sessions: 2}}, f.err
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{ds: ds, catalog: catalog.Default(), log: slog.New(slog.DiscardHandler)}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

// resultText returns the text payload of a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("content is %T, want text", res.Content[0])
	}
	return text.Text
}

func TestListExercises(t *testing.T) {
	h := newHandlers(&fakeSource{})
	res, err := h.listExercises(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	var infos []catalog.Info
	if err := json.Unmarshal([]byte(resultText(t, res)), &infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 12 {
		t.Errorf("got %d exercises, want 12", len(infos))
	}
}

// TestQueryResultsScopesUser verifies the user from context and the exercise
// filter reach the data source.
func TestQueryResultsScopesUser(t *testing.T) {
	src := &fakeSource{}
	h := newHandlers(src)
	ctx := WithUserID(context.Background(), 9)

	res, err := h.queryResults(ctx, callRequest(map[string]any{"exercise": "shoulder_flexion"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if src.userID != 9 || src.key != "shoulder_flexion" {
		t.Errorf("query user=%d key=%q, want 9 shoulder_flexion", src.userID, src.key)
	}
	if got := resultText(t, res); got != "[]" {
		t.Errorf("empty result = %s, want []", got)
	}

	res, _ = h.queryResults(ctx, callRequest(map[string]any{"exercise": "cartwheel"}))
	if !res.IsError {
		t.Error("unknown exercise should be a tool error")
	}
	res, _ = h.queryResults(ctx, callRequest(map[string]any{"start": "yesterday"}))
	if !res.IsError {
		t.Error("invalid date should be a tool error")
	}
}

func TestGetExerciseStatsError(t *testing.T) {
	h := newHandlers(&fakeSource{err: errors.New("db down")})
	res, err := h.getExerciseStats(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("data source failure should be a tool error")
	}
}

func TestProgressReport(t *testing.T) {
	now := time.Now()
	src := &fakeSource{results: []models.SessionResult{
		{ID: uuid.New(), ExerciseKey: "biceps_flexion", TotalRepetitions: 6, CompletedRepetitions: 6, StartedAt: now.Add(-time.Hour)},
		{ID: uuid.New(), ExerciseKey: "shoulder_flexion", TotalRepetitions: 4, CompletedRepetitions: 3, StartedAt: now.Add(-2 * time.Hour)},
	}}
	h := newHandlers(src)

	res, err := h.getProgressReport(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Completed int    `json:"completed_repetitions"`
		Total     int    `json:"total_repetitions"`
		Category  string `json:"category"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Completed != 9 || got.Total != 10 || got.Category != "laugh" {
		t.Errorf("report = %+v, want 9/10 laugh", got)
	}
}

func TestComparePeriods(t *testing.T) {
	src := &fakeSource{results: []models.SessionResult{
		{ID: uuid.New(), ExerciseKey: "biceps_flexion", TotalRepetitions: 6, CompletedRepetitions: 3,
			StartedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
		{ID: uuid.New(), ExerciseKey: "biceps_flexion", TotalRepetitions: 6, CompletedRepetitions: 6,
			StartedAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)},
	}}
	h := newHandlers(src)

	res, err := h.comparePeriods(context.Background(), callRequest(map[string]any{
		"period_a_start": "2026-03-01",
		"period_a_end":   "2026-03-08",
		"period_b_start": "2026-03-08",
		"period_b_end":   "2026-03-15",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if len(src.starts) != 2 || !src.starts[1].Equal(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("query starts = %v", src.starts)
	}

	res, _ = h.comparePeriods(context.Background(), callRequest(map[string]any{"period_a_start": "2026-03-01"}))
	if !res.IsError {
		t.Error("missing periods should be a tool error")
	}
}
