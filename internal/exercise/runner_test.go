package exercise

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claude/movecoach/internal/pose"
	"go.uber.org/goleak"
)

// TestMain checks that no runner goroutine outlives the tests.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// TestRunnerSerializesFrames drives an engine through its runner and checks
// the published snapshot follows the frames.
func TestRunnerSerializesFrames(t *testing.T) {
	def, _ := testDefinition(1, 1, 5)
	e, err := NewEngine(def, Options{AutoInstruct: true})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	r := NewRunner(e, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- r.Run(ctx) }()

	for range 2 {
		if err := r.Submit(ctx, pose.Observation{}); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if got := r.Snapshot().State; got != StateStart {
		t.Errorf("snapshot state = %v, want Start", got)
	}

	var desc string
	if err := r.Do(ctx, func(e *Engine) { desc = e.Description() }); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if desc != "TestRaiseStart" {
		t.Errorf("Description = %q, want %q", desc, "TestRaiseStart")
	}

	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
	if err := r.Submit(context.Background(), pose.Observation{}); !errors.Is(err, ErrRunnerStopped) {
		t.Errorf("Submit after stop = %v, want ErrRunnerStopped", err)
	}
}
