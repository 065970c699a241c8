package exercise

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/movecoach/internal/pose"
)

// ErrInvalidDefinition is returned when a Definition cannot drive an engine.
var ErrInvalidDefinition = errors.New("invalid exercise definition")

// Classifier tests whether an observation satisfies one phase of an
// exercise. It may update the session's reference values and counters but
// must not otherwise depend on hidden state.
type Classifier interface {
	Check(obs pose.Observation, s *Session) bool
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(obs pose.Observation, s *Session) bool

func (f ClassifierFunc) Check(obs pose.Observation, s *Session) bool {
	return f(obs, s)
}

// Classifiers holds the per-phase predicates of an exercise.
type Classifiers struct {
	Calibration     Classifier // Calibration -> Start
	InPosition      Classifier // Start -> InPosition / RepetitionInitial
	RepetitionStart Classifier // RepetitionInitial -> RepetitionInProgress
	InProgress      Classifier // evaluated every frame of RepetitionInProgress
}

// Scoring selects how a repetition is judged.
type Scoring int

const (
	// ScoreHold completes a repetition once the position is held for
	// HoldFrames consecutive frames.
	ScoreHold Scoring = iota
	// ScoreTimed runs every repetition for the full duration and grades it
	// by good versus bad frames.
	ScoreTimed
)

func (s Scoring) String() string {
	if s == ScoreTimed {
		return "timed"
	}
	return "hold"
}

// Leeway is a two-tier tolerance band. Tight applies while the hold is at
// most Threshold frames long, Loose afterwards.
type Leeway struct {
	Tight     float64
	Loose     float64
	Threshold int
}

// At returns the tolerance for a hold of the given length.
func (l Leeway) At(frames int) float64 {
	if frames > l.Threshold {
		return l.Loose
	}
	return l.Tight
}

// SideText holds side-dependent variants of one instruction.
type SideText struct {
	Left  string
	Right string
	// SwitchToLeft is spoken once when a two-sided exercise moves to the
	// left side. Falls back to Left when empty.
	SwitchToLeft string
}

// Plain returns a SideText with the same text for every branch.
func Plain(text string) SideText {
	return SideText{Left: text, Right: text}
}

// Select picks the variant for the configured side, the side currently being
// exercised and whether the first left repetition is still pending.
func (t SideText) Select(side, current pose.Side, firstLeft bool) string {
	switch {
	case side == pose.SideLeft:
		return t.Left
	case side == pose.SideRight:
		return t.Right
	case current == pose.SideLeft && firstLeft && t.SwitchToLeft != "":
		return t.SwitchToLeft
	case current == pose.SideLeft:
		return t.Left
	default:
		return t.Right
	}
}

// Instructions is the spoken text of an exercise.
type Instructions struct {
	Calibration   SideText
	Start         SideText
	Motion        SideText
	Encouragement string
	Success       string
}

// Definition is the static description of one exercise type.
type Definition struct {
	ID   int
	Key  string // stable identifier, e.g. "shoulder_abduction"
	Code string // description prefix, e.g. "ShoulderAbduction"
	Name string

	Repetitions          int
	Sets                 int
	RepetitionDuration   time.Duration
	BufferInterval       time.Duration
	SetCompletedInterval time.Duration

	Scoring    Scoring
	HoldFrames int
	Leeway     Leeway

	DefaultSide pose.Side
	// Bilateral exercises move both limbs at once and ignore the side.
	Bilateral bool

	Classifiers Classifiers
	Text        Instructions
}

// Validate reports configuration errors that would make the engine
// misbehave.
func (d *Definition) Validate() error {
	switch {
	case d.Key == "":
		return fmt.Errorf("%w: key is required", ErrInvalidDefinition)
	case d.Repetitions <= 0:
		return fmt.Errorf("%w: %s: repetitions must be positive", ErrInvalidDefinition, d.Key)
	case d.Sets <= 0:
		return fmt.Errorf("%w: %s: sets must be positive", ErrInvalidDefinition, d.Key)
	case d.RepetitionDuration <= 0:
		return fmt.Errorf("%w: %s: repetition duration must be positive", ErrInvalidDefinition, d.Key)
	case d.BufferInterval < 0 || d.SetCompletedInterval < 0:
		return fmt.Errorf("%w: %s: rest intervals must not be negative", ErrInvalidDefinition, d.Key)
	case d.Scoring == ScoreHold && d.HoldFrames <= 0:
		return fmt.Errorf("%w: %s: hold frames must be positive", ErrInvalidDefinition, d.Key)
	case d.Leeway.Loose < d.Leeway.Tight:
		return fmt.Errorf("%w: %s: loose leeway %v is tighter than %v", ErrInvalidDefinition, d.Key, d.Leeway.Loose, d.Leeway.Tight)
	}
	c := d.Classifiers
	if c.Calibration == nil || c.InPosition == nil || c.RepetitionStart == nil || c.InProgress == nil {
		return fmt.Errorf("%w: %s: all four classifiers are required", ErrInvalidDefinition, d.Key)
	}
	return nil
}

// Describe returns the description of state s for this exercise.
func (d *Definition) Describe(s State) string {
	return d.Code + s.Phase()
}
