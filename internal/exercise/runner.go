package exercise

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/movecoach/internal/pose"
)

// ErrRunnerStopped is returned when submitting to a runner that has exited.
var ErrRunnerStopped = errors.New("runner stopped")

type request struct {
	obs  *pose.Observation
	fn   func(*Engine)
	done chan struct{}
}

// Runner owns an Engine on a single goroutine. Frames, commands and clock
// ticks are applied one at a time in arrival order.
type Runner struct {
	engine *Engine
	tick   time.Duration
	reqs   chan request
	done   chan struct{}
	log    *slog.Logger

	mu   sync.RWMutex
	snap Snapshot
}

// NewRunner wraps e. The clock advances by tick on every wall-clock tick;
// zero selects FineTick.
func NewRunner(e *Engine, tick time.Duration, log *slog.Logger) *Runner {
	if tick <= 0 {
		tick = FineTick
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		engine: e,
		tick:   tick,
		reqs:   make(chan request),
		done:   make(chan struct{}),
		log:    log,
		snap:   e.Snapshot(),
	}
}

// Run processes requests and ticks until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Debug("runner stopping", "exercise", r.engine.def.Key)
			return ctx.Err()
		case <-ticker.C:
			r.engine.Advance(r.tick)
			r.publish()
		case req := <-r.reqs:
			if req.obs != nil {
				r.engine.ProcessFrame(*req.obs)
			}
			if req.fn != nil {
				req.fn(r.engine)
			}
			// Publish before releasing the caller so it reads its own write.
			r.publish()
			close(req.done)
		}
	}
}

func (r *Runner) publish() {
	snap := r.engine.Snapshot()
	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()
}

// Submit hands a frame to the runner and waits until it is processed.
func (r *Runner) Submit(ctx context.Context, obs pose.Observation) error {
	return r.send(ctx, request{obs: &obs, done: make(chan struct{})})
}

// Do runs fn on the runner goroutine and waits for it to finish.
func (r *Runner) Do(ctx context.Context, fn func(*Engine)) error {
	return r.send(ctx, request{fn: fn, done: make(chan struct{})})
}

func (r *Runner) send(ctx context.Context, req request) error {
	select {
	case r.reqs <- req:
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-r.done:
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the state published after the last processed event.
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}
