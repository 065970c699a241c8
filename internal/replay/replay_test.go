package replay

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/claude/movecoach/internal/catalog"
	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/ingest"
	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/pose"
	"github.com/claude/movecoach/internal/program"
)

type memRecorder struct {
	rows []models.SessionResult
}

func (m *memRecorder) RecordResult(_ context.Context, row models.SessionResult) error {
	m.rows = append(m.rows, row)
	return nil
}

const fps = 30

// legFrame places the right leg with the given knee angle, thigh horizontal.
func legFrame(t float64, angle float64) ingest.Frame {
	rad := angle * math.Pi / 180
	return ingest.Frame{T: t, Joints: map[string]pose.Keypoint{
		"right_hip":   {X: 0.3, Y: 0.4, Confidence: 0.9},
		"right_knee":  {X: 0.5, Y: 0.4, Confidence: 0.9},
		"right_ankle": {X: 0.5 - 0.2*math.Cos(rad), Y: 0.4 - 0.2*math.Sin(rad), Confidence: 0.9},
	}}
}

// kneeExtensionRecording holds the leg at 90 degrees while calibrating,
// extends to 100 degrees at 9s and lowers it again at 14s.
func kneeExtensionRecording(t *testing.T, seconds float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("# assisted knee extension, right\n")
	for i := 0; float64(i)/fps < seconds; i++ {
		ts := float64(i) / fps
		angle := 90.0
		if ts >= 9 && ts < 14 {
			angle = 100
		}
		line, err := json.Marshal(legFrame(ts, angle))
		if err != nil {
			t.Fatal(err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func newProgram(t *testing.T, keys ...string) *program.Program {
	t.Helper()
	items := make([]program.Item, len(keys))
	for i, k := range keys {
		items[i] = program.Item{Exercise: k, Side: pose.SideRight}
	}
	p, err := program.New(catalog.Default(), items, exercise.Options{AutoInstruct: true})
	if err != nil {
		t.Fatalf("program.New: %v", err)
	}
	return p
}

// TestReplayCompletesExercise verifies a recording drives the exercise to
// its end and records one result.
func TestReplayCompletesExercise(t *testing.T) {
	prog := newProgram(t, "assisted_knee_extension")
	rec := &memRecorder{}
	base := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	rp := New(prog, rec, base, slog.New(slog.DiscardHandler))

	stats, err := rp.Replay(context.Background(), strings.NewReader(kneeExtensionRecording(t, 30)))
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !prog.Done() {
		t.Fatal("program not done after replay")
	}
	if stats.ExercisesEnded != 1 || stats.ResultsRecorded != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.FramesIgnored != 1 {
		t.Errorf("FramesIgnored = %d, want 1 (reading stops after the program ends)", stats.FramesIgnored)
	}
	if len(rec.rows) != 1 {
		t.Fatalf("recorded %d rows, want 1", len(rec.rows))
	}
	row := rec.rows[0]
	if row.ExerciseKey != "assisted_knee_extension" || row.CompletedRepetitions != 1 || !row.Completed {
		t.Errorf("row = %+v", row)
	}
	if row.Source != models.SourceReplay || !row.StartedAt.Equal(base) || !row.EndedAt.After(base.Add(20*time.Second)) {
		t.Errorf("row timing = %v..%v source %q", row.StartedAt, row.EndedAt, row.Source)
	}
	if r := prog.Report(); r.Category != program.Laugh {
		t.Errorf("report category = %v, want laugh", r.Category)
	}
}

// TestReplayRejectsBadFrames verifies unknown joints and out-of-order frames
// are skipped without stopping the replay.
func TestReplayRejectsBadFrames(t *testing.T) {
	prog := newProgram(t, "assisted_knee_extension")
	rp := New(prog, nil, time.Now(), slog.New(slog.DiscardHandler))

	input := strings.Join([]string{
		`{"t":1,"joints":{}}`,
		`{"t":0.5,"joints":{}}`,
		`{"t":2,"joints":{"tail":{"x":0,"y":0,"c":1}}}`,
		`{"t":3,"joints":{}}`,
	}, "\n")
	stats, err := rp.Replay(context.Background(), strings.NewReader(input))
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if stats.FramesRead != 4 || stats.FramesProcessed != 2 || stats.FramesRejected != 2 {
		t.Errorf("stats = %+v", stats)
	}
	e, _ := prog.Current()
	if e.Now() != 3*time.Second {
		t.Errorf("engine clock = %v, want 3s", e.Now())
	}
}

// TestReplayCancelled verifies a cancelled context stops the replay.
func TestReplayCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rp := New(newProgram(t, "biceps_flexion"), nil, time.Now(), slog.New(slog.DiscardHandler))
	if _, err := rp.Replay(ctx, strings.NewReader(`{"t":0,"joints":{}}`)); err == nil {
		t.Fatal("expected context error")
	}
}
