package exercise

import "time"

// EventKind classifies feedback events.
type EventKind string

const (
	EventTransition EventKind = "transition"
	EventSpeak      EventKind = "speak"
	EventChime      EventKind = "chime"
	EventRepetition EventKind = "repetition"
)

// Cue names an audio cue.
type Cue string

const (
	CueGoalReached      Cue = "goal_reached"
	CueExerciseComplete Cue = "exercise_complete"
)

// Event is emitted by the engine towards audio and on-screen feedback.
type Event struct {
	Kind        EventKind     `json:"kind"`
	Exercise    string        `json:"exercise"`
	State       State         `json:"state"`
	Description string        `json:"description"`
	Text        string        `json:"text,omitempty"`
	Cue         Cue           `json:"cue,omitempty"`
	GiveUp      bool          `json:"give_up,omitempty"`
	At          time.Duration `json:"at"`
}

// Sink receives feedback events. Emit is called from the engine's goroutine
// and must not block.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// MultiSink fans events out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ev)
		}
	}
}

type discard struct{}

func (discard) Emit(Event) {}
