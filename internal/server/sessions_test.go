package server

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/claude/movecoach/internal/exercise"
	"github.com/google/uuid"
)

// TestFeedbackLogCap verifies only speak and chime events are kept and the
// oldest are dropped beyond the cap without breaking cursors.
func TestFeedbackLogCap(t *testing.T) {
	var fb feedbackLog
	fb.Emit(exercise.Event{Kind: exercise.EventTransition})
	fb.Emit(exercise.Event{Kind: exercise.EventRepetition})
	for i := range maxFeedback + 44 {
		fb.Emit(exercise.Event{Kind: exercise.EventSpeak, Text: fmt.Sprint(i)})
	}

	events, next := fb.Since(0)
	if next != maxFeedback+44 {
		t.Errorf("next = %d, want %d", next, maxFeedback+44)
	}
	if len(events) != maxFeedback || events[0].Text != "44" {
		t.Fatalf("Since(0) = %d events starting %q, want %d starting 44", len(events), events[0].Text, maxFeedback)
	}

	events, _ = fb.Since(next - 2)
	if len(events) != 2 || events[1].Text != fmt.Sprint(maxFeedback+43) {
		t.Errorf("Since(next-2) = %+v", events)
	}
	if events, _ := fb.Since(next); len(events) != 0 {
		t.Errorf("Since(next) = %d events, want 0", len(events))
	}

	fb.Emit(exercise.Event{Kind: exercise.EventChime, Cue: exercise.CueGoalReached})
	if events, _ := fb.Since(next); len(events) != 1 || events[0].Cue != exercise.CueGoalReached {
		t.Errorf("chime not buffered: %+v", events)
	}
}

// TestRegistry verifies the session limit and per-user scoping.
func TestRegistry(t *testing.T) {
	r := newRegistry(2)
	a := &liveSession{id: uuid.New(), userID: 1}
	b := &liveSession{id: uuid.New(), userID: 2}
	if err := r.add(a); err != nil {
		t.Fatal(err)
	}
	if err := r.add(b); err != nil {
		t.Fatal(err)
	}
	if err := r.add(&liveSession{id: uuid.New(), userID: 1}); !errors.Is(err, errTooManySessions) {
		t.Errorf("add over limit = %v, want errTooManySessions", err)
	}

	if _, err := r.get(a.id, 2); !errors.Is(err, errSessionNotFound) {
		t.Errorf("get by other user = %v, want errSessionNotFound", err)
	}
	if _, err := r.remove(a.id, 2); !errors.Is(err, errSessionNotFound) {
		t.Errorf("remove by other user = %v, want errSessionNotFound", err)
	}
	if got, err := r.remove(a.id, 1); err != nil || got != a {
		t.Errorf("remove = %v, %v", got, err)
	}
	if n := len(r.drain()); n != 1 || r.len() != 0 {
		t.Errorf("drain = %d sessions, %d left", n, r.len())
	}
}

// TestRegistryExpire verifies only sessions idle past the cutoff are
// detached.
func TestRegistryExpire(t *testing.T) {
	r := newRegistry(0)
	t0 := time.Date(2020, 3, 1, 9, 0, 0, 0, time.UTC)
	idle := &liveSession{id: uuid.New(), userID: 1}
	idle.touch(t0)
	active := &liveSession{id: uuid.New(), userID: 1}
	active.touch(t0.Add(5 * time.Minute))
	for _, ls := range []*liveSession{idle, active} {
		if err := r.add(ls); err != nil {
			t.Fatal(err)
		}
	}

	got := r.expire(t0.Add(time.Minute))
	if len(got) != 1 || got[0] != idle {
		t.Fatalf("expire = %v, want only the idle session", got)
	}
	if _, err := r.get(active.id, 1); err != nil {
		t.Errorf("active session: %v", err)
	}
	if _, err := r.get(idle.id, 1); !errors.Is(err, errSessionNotFound) {
		t.Errorf("idle session still registered: %v", err)
	}
	// get marks the session as used.
	if got := r.expire(t0.Add(time.Hour)); len(got) != 0 {
		t.Errorf("expire after get = %d sessions, want 0", len(got))
	}
}
