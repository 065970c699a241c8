package exercise

import (
	"math"
	"time"

	"github.com/claude/movecoach/internal/pose"
)

// DefaultConfidenceThreshold is used when no threshold is configured.
const DefaultConfidenceThreshold = 0.2

// Direction is the way a tracked metric moves during a correct repetition.
type Direction int

const (
	Increasing Direction = iota
	Decreasing
)

// Session is the mutable state of one exercise run. It is owned by a single
// Engine and must only be touched from the goroutine driving that engine.
type Session struct {
	def *Definition

	Side        pose.Side
	CurrentSide pose.Side
	Threshold   float64

	RemainingRepetitions int
	RemainingSets        int
	CompletedRepetitions int
	CompletedSets        int
	GiveUps              int

	FirstRepetition     bool
	FirstLeftRepetition bool
	Instructed          bool
	Activated           bool
	RepetitionIsGood    bool
	IsGiveUp            bool
	SetCompleted        bool
	ExerciseCompleted   bool

	Leeway      float64
	AngleFrames int
	// Reference holds the last accepted metric values (angles, ratios or
	// distances) that the next frame is compared against.
	Reference         []float64
	CalibrationFrames int

	GoodFrames int
	BadFrames  int

	// BufferTime is the rest chosen when the last repetition was consumed.
	BufferTime time.Duration

	startDelay countdown
	repetition countdown
	buffer     countdown
}

func newSession(def *Definition, side pose.Side, threshold float64) *Session {
	if def.Bilateral {
		side = pose.SideRight
	}
	current := side
	if side == pose.SideBoth {
		current = pose.SideRight
	}
	return &Session{
		def:                  def,
		Side:                 side,
		CurrentSide:          current,
		Threshold:            threshold,
		RemainingRepetitions: def.Repetitions,
		RemainingSets:        def.Sets,
		FirstRepetition:      true,
		FirstLeftRepetition:  true,
		Leeway:               def.Leeway.Tight,
	}
}

// Definition returns the exercise being run.
func (s *Session) Definition() *Definition {
	return s.def
}

// Limb returns the joints of the side currently being exercised.
func (s *Session) Limb() pose.Limb {
	return pose.LimbFor(s.CurrentSide)
}

// Joints returns the trusted positions of joints and whether all of them
// passed the confidence threshold.
func (s *Session) Joints(obs pose.Observation, joints ...pose.Joint) (pose.Points, bool) {
	pts := obs.Confident(s.Threshold, joints...)
	return pts, len(pts) == len(joints)
}

// Ref returns reference value i, or 0 when none has been recorded.
func (s *Session) Ref(i int) float64 {
	if i < len(s.Reference) {
		return s.Reference[i]
	}
	return 0
}

// SetReference records the values subsequent frames are compared against.
func (s *Session) SetReference(values ...float64) {
	s.Reference = append(s.Reference[:0], values...)
}

// Settle counts frames spent in a valid position and reports true once more
// than n have passed, restarting the count.
func (s *Session) Settle(n int) bool {
	if s.CalibrationFrames > n {
		s.CalibrationFrames = 0
		return true
	}
	s.CalibrationFrames++
	return false
}

// TrackHold compares values with the reference. Values within the current
// leeway extend the hold. Otherwise the hold restarts, and a move against dir
// by more than tolerance fails the frame. Accepted values become the new
// reference.
func (s *Session) TrackHold(values []float64, dir Direction, tolerance float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			s.AngleFrames = 0
			return false
		}
	}
	if len(s.Reference) != len(values) {
		s.SetReference(values...)
		s.AngleFrames++
		return true
	}

	within := true
	for i, v := range values {
		if math.Abs(v-s.Reference[i]) > s.Leeway {
			within = false
			break
		}
	}
	if within {
		s.AngleFrames++
		return true
	}

	s.AngleFrames = 0
	for i, v := range values {
		ref := s.Reference[i]
		if dir == Increasing && v < ref-tolerance {
			return false
		}
		if dir == Decreasing && v > ref+tolerance {
			return false
		}
	}
	s.SetReference(values...)
	return true
}

// consume records one repetition as done and chooses the rest interval.
func (s *Session) consume() {
	s.AngleFrames = 0
	if s.RemainingRepetitions > 0 {
		s.RemainingRepetitions--
	}
	s.CompletedRepetitions++
	if s.RemainingRepetitions <= 0 {
		s.SetCompleted = true
	}
	if s.SetCompleted {
		s.BufferTime = s.def.SetCompletedInterval
	} else {
		s.BufferTime = s.def.BufferInterval
	}
}

// finishRest applies the bookkeeping done when the rest after a repetition
// ends.
func (s *Session) finishRest() {
	if s.SetCompleted {
		if s.RemainingSets > 0 {
			s.RemainingSets--
		}
		s.CompletedSets++
		s.RemainingRepetitions = s.def.Repetitions
		s.SetCompleted = false
	}
	s.FirstRepetition = false
	if s.CurrentSide == pose.SideLeft {
		s.FirstLeftRepetition = false
	}
	s.Activated = false
	s.IsGiveUp = false
}

// switchPending reports whether a two-sided exercise still has its left side
// to run.
func (s *Session) switchPending() bool {
	return s.Side == pose.SideBoth && s.CurrentSide == pose.SideRight
}

// switchToLeft moves a two-sided exercise to its left side with fresh
// targets.
func (s *Session) switchToLeft() {
	s.CurrentSide = pose.SideLeft
	s.RemainingSets = s.def.Sets
	s.RemainingRepetitions = s.def.Repetitions
	s.SetCompleted = false
	s.Activated = false
	s.IsGiveUp = false
	s.Reference = s.Reference[:0]
	s.CalibrationFrames = 0
}

// beginRepetition clears the per-repetition fields.
func (s *Session) beginRepetition() {
	s.IsGiveUp = false
	s.RepetitionIsGood = false
	s.GoodFrames = 0
	s.BadFrames = 0
	s.AngleFrames = 0
	s.Leeway = s.def.Leeway.Tight
}

func (s *Session) stopTimers() {
	s.startDelay.stop()
	s.repetition.stop()
	s.buffer.stop()
}
