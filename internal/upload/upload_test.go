package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/pose"
	"github.com/google/uuid"
)

func testResult(key string) models.SessionResult {
	start := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return models.SessionResult{
		ID:                   uuid.New(),
		ExerciseID:           6,
		ExerciseKey:          key,
		ExerciseName:         "Shoulder Abduction with Resistance Band",
		Side:                 pose.SideLeft,
		TotalRepetitions:     1,
		TotalSets:            1,
		CompletedRepetitions: 1,
		CompletedSets:        1,
		Completed:            true,
		StartedAt:            start,
		EndedAt:              start.Add(2 * time.Minute),
		Source:               models.SourceReplay,
	}
}

func openState(t *testing.T) *StateDB {
	t.Helper()
	st, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func fastClient(url string) *Client {
	c := NewClient(url, "secret")
	c.backoff = time.Millisecond
	return c
}

// TestStateDBResults verifies recorded results stay pending until marked.
func TestStateDBResults(t *testing.T) {
	ctx := context.Background()
	st := openState(t)
	r := testResult("shoulder_abduction")

	if err := st.RecordResult(ctx, r); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
	if err := st.RecordResult(ctx, r); err != nil {
		t.Fatalf("RecordResult twice: %v", err)
	}
	pending, err := st.PendingResults(ctx, 0)
	if err != nil {
		t.Fatalf("PendingResults: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("len(pending) = %d, want 1", len(pending))
	}
	if pending[0].ID != r.ID || pending[0].Side != pose.SideLeft || !pending[0].StartedAt.Equal(r.StartedAt) {
		t.Errorf("pending[0] = %+v", pending[0])
	}

	if err := st.MarkUploaded(ctx, r.ID); err != nil {
		t.Fatalf("MarkUploaded: %v", err)
	}
	p, u, err := st.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if p != 0 || u != 1 {
		t.Errorf("Counts = %d pending, %d uploaded, want 0, 1", p, u)
	}
}

// TestStateDBReplayedFiles verifies recordings are matched on path, size and hash.
func TestStateDBReplayedFiles(t *testing.T) {
	st := openState(t)
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte("{\"t\":0}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	hash, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if ok, _ := st.IsReplayed("session.jsonl", 8, hash); ok {
		t.Fatal("IsReplayed before MarkReplayed")
	}
	if err := st.MarkReplayed("session.jsonl", 8, hash); err != nil {
		t.Fatalf("MarkReplayed: %v", err)
	}
	if ok, _ := st.IsReplayed("session.jsonl", 8, hash); !ok {
		t.Error("IsReplayed = false after MarkReplayed")
	}
	if ok, _ := st.IsReplayed("session.jsonl", 9, hash); ok {
		t.Error("IsReplayed matched a different size")
	}
}

// TestSendResultRetries verifies 5xx responses are retried and the API key sent.
func TestSendResultRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("X-API-Key = %q", r.Header.Get("X-API-Key"))
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var row models.SessionResult
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &row); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	if err := fastClient(srv.URL).SendResult(context.Background(), testResult("shoulder_abduction")); err != nil {
		t.Fatalf("SendResult: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

// TestSendResultPermanentFailure verifies client errors are not retried.
func TestSendResultPermanentFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := fastClient(srv.URL).SendResult(context.Background(), testResult("shoulder_abduction"))
	if !errors.Is(err, errPermanent) {
		t.Fatalf("error = %v, want permanent failure", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

// TestUploaderRun verifies successful uploads are marked and failures stay pending.
func TestUploaderRun(t *testing.T) {
	ctx := context.Background()
	st := openState(t)
	good := testResult("shoulder_abduction")
	bad := testResult("biceps_flexion")
	for _, r := range []models.SessionResult{good, bad} {
		if err := st.RecordResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var row models.SessionResult
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if row.ExerciseKey == "biceps_flexion" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	u := New(fastClient(srv.URL), st, false, slog.New(slog.DiscardHandler))
	stats, err := u.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.ResultsPending != 2 || stats.ResultsUploaded != 1 || stats.ResultsErrored != 1 {
		t.Errorf("stats = %+v", stats)
	}
	pending, err := st.PendingResults(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != bad.ID {
		t.Errorf("pending = %+v, want only the rejected result", pending)
	}
}

// TestUploaderDryRun verifies a dry run sends nothing.
func TestUploaderDryRun(t *testing.T) {
	ctx := context.Background()
	st := openState(t)
	if err := st.RecordResult(ctx, testResult("shoulder_abduction")); err != nil {
		t.Fatal(err)
	}
	u := New(fastClient("http://127.0.0.1:1"), st, true, slog.New(slog.DiscardHandler))
	stats, err := u.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.ResultsUploaded != 0 || stats.ResultsPending != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
