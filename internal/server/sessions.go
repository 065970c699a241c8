package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/claude/movecoach/internal/exercise"
	"github.com/google/uuid"
)

var (
	errSessionNotFound = errors.New("session not found")
	errTooManySessions = errors.New("too many live sessions")
)

// maxFeedback is the number of events kept per session.
const maxFeedback = 256

// feedbackLog buffers engine events for clients polling with a cursor.
// Emit is called from the runner goroutine, Since from handlers.
type feedbackLog struct {
	mu     sync.Mutex
	events []exercise.Event
	first  int // cursor of events[0]
}

func (f *feedbackLog) Emit(ev exercise.Event) {
	if ev.Kind != exercise.EventSpeak && ev.Kind != exercise.EventChime {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	if over := len(f.events) - maxFeedback; over > 0 {
		f.events = append(f.events[:0:0], f.events[over:]...)
		f.first += over
	}
}

// Since returns events from cursor on and the cursor to pass next time.
// Cursors older than the buffer start from the oldest kept event.
func (f *feedbackLog) Since(cursor int) ([]exercise.Event, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.first + len(f.events)
	start := max(cursor-f.first, 0)
	if start >= len(f.events) {
		return []exercise.Event{}, next
	}
	out := make([]exercise.Event, len(f.events)-start)
	copy(out, f.events[start:])
	return out, next
}

// liveSession is one exercise run driven by HTTP clients.
type liveSession struct {
	id       uuid.UUID
	userID   int
	exercise string
	started  time.Time
	runner   *exercise.Runner
	feedback *feedbackLog
	cancel   context.CancelFunc
	done     chan struct{}
	lastSeen atomic.Int64 // unix nanoseconds of the last request
}

func (ls *liveSession) touch(now time.Time) {
	ls.lastSeen.Store(now.UnixNano())
}

func (ls *liveSession) idleSince(cutoff time.Time) bool {
	return ls.lastSeen.Load() < cutoff.UnixNano()
}

// stop ends the runner and waits for its goroutine.
func (ls *liveSession) stop() {
	ls.cancel()
	<-ls.done
}

// registry tracks live sessions by ID.
type registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*liveSession
	limit    int
}

func newRegistry(limit int) *registry {
	return &registry{sessions: make(map[uuid.UUID]*liveSession), limit: limit}
}

func (r *registry) add(ls *liveSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit > 0 && len(r.sessions) >= r.limit {
		return errTooManySessions
	}
	r.sessions[ls.id] = ls
	return nil
}

// get returns the session if it belongs to userID and marks it as used.
func (r *registry) get(id uuid.UUID, userID int) (*liveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.sessions[id]
	if !ok || ls.userID != userID {
		return nil, errSessionNotFound
	}
	ls.touch(time.Now())
	return ls, nil
}

// remove detaches the session if it belongs to userID.
func (r *registry) remove(id uuid.UUID, userID int) (*liveSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ls, ok := r.sessions[id]
	if !ok || ls.userID != userID {
		return nil, errSessionNotFound
	}
	delete(r.sessions, id)
	return ls, nil
}

// expire detaches sessions whose last request is older than cutoff.
func (r *registry) expire(cutoff time.Time) []*liveSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*liveSession
	for id, ls := range r.sessions {
		if ls.idleSince(cutoff) {
			out = append(out, ls)
			delete(r.sessions, id)
		}
	}
	return out
}

// drain detaches every session.
func (r *registry) drain() []*liveSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*liveSession, 0, len(r.sessions))
	for id, ls := range r.sessions {
		out = append(out, ls)
		delete(r.sessions, id)
	}
	return out
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
