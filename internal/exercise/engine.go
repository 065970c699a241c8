package exercise

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/movecoach/internal/pose"
)

const (
	textStandby     = "Please standby, exercise starting"
	textGiveUp      = "Don't give up. Try your best."
	textGoodFrames  = "Good job! Now relax."
	textBadFrames   = "Do better next time! Now relax."
	textExerciseEnd = "Good job on completing the exercise"
)

// Options configures an Engine.
type Options struct {
	Side                 pose.Side
	ConfidenceThreshold  float64
	StartDelay           time.Duration
	NotificationInterval time.Duration
	// AutoInstruct skips waiting for MarkInstructed in the Initial state.
	AutoInstruct bool
	Sink         Sink
	Logger       *slog.Logger
}

// Engine runs one exercise session: it dispatches frames to classifiers,
// advances countdowns on its logical clock and applies state transitions.
// An Engine is not safe for concurrent use; Runner serializes access.
type Engine struct {
	def     *Definition
	opts    Options
	session *Session
	state   State
	now     time.Duration
	frames  int

	lastChime  time.Duration
	chimed     bool
	lastSpoken string
	sink       Sink
	log        *slog.Logger
}

// NewEngine validates def and returns an engine in the Initial state.
func NewEngine(def Definition, opts Options) (*Engine, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if opts.StartDelay <= 0 {
		opts.StartDelay = 3 * time.Second
	}
	if opts.NotificationInterval <= 0 {
		opts.NotificationInterval = time.Second
	}
	if opts.Sink == nil {
		opts.Sink = discard{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		def:  &def,
		opts: opts,
		sink: opts.Sink,
		log:  opts.Logger.With("exercise", def.Key),
	}
	e.session = newSession(e.def, opts.Side, opts.ConfidenceThreshold)
	e.session.Instructed = opts.AutoInstruct
	return e, nil
}

// Definition returns the exercise definition.
func (e *Engine) Definition() *Definition { return e.def }

// Session returns the live session. Callers must not retain it across
// Reset.
func (e *Engine) Session() *Session { return e.session }

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Description returns the machine-readable description of the current state.
func (e *Engine) Description() string { return e.def.Describe(e.state) }

// Now returns the logical clock.
func (e *Engine) Now() time.Duration { return e.now }

// Transition moves to the target state if it is a declared successor of the
// current state, firing its entry action. It reports whether the move was
// granted; rejected requests change nothing.
func (e *Engine) Transition(to State) bool {
	from := e.state
	if !CanTransition(from, to) {
		e.log.Debug("transition rejected", "from", from, "to", to)
		return false
	}
	e.state = to
	e.log.Debug("state transition", "from", from, "to", to)
	e.emit(Event{Kind: EventTransition})
	entryActions[to](e)
	return true
}

// MarkInstructed records that the pre-exercise instructions were given.
func (e *Engine) MarkInstructed() {
	e.session.Instructed = true
}

// Reset cancels all timers and starts a fresh session in the Initial state.
func (e *Engine) Reset() {
	e.session.stopTimers()
	instructed := e.session.Instructed
	side := e.session.Side
	if e.state != StateInitial {
		e.Transition(StateInitial)
	}
	e.session = newSession(e.def, side, e.opts.ConfidenceThreshold)
	e.session.Instructed = instructed || e.opts.AutoInstruct
	e.log.Info("session reset")
}

// ProcessFrame evaluates one observation against the classifier of the
// current state and applies the resulting transition. Frames must be
// delivered in arrival order.
func (e *Engine) ProcessFrame(obs pose.Observation) {
	e.frames++
	s := e.session
	c := e.def.Classifiers

	switch e.state {
	case StateInitial:
		if s.Instructed {
			e.Transition(StateCalibration)
		}
	case StateCalibration:
		if c.Calibration.Check(obs, s) {
			e.Transition(StateStart)
		}
	case StateStart:
		if !c.InPosition.Check(obs, s) {
			return
		}
		if s.FirstRepetition {
			e.Transition(StateInPosition)
		} else {
			e.Transition(StateRepetitionInitial)
		}
	case StateRepetition:
		e.decideNext()
	case StateRepetitionInitial:
		if c.RepetitionStart.Check(obs, s) {
			e.Transition(StateRepetitionInProgress)
		}
	case StateRepetitionInProgress:
		ok := c.InProgress.Check(obs, s)
		s.RepetitionIsGood = ok
		if ok {
			s.GoodFrames++
		} else {
			s.BadFrames++
		}
		s.Leeway = e.def.Leeway.At(s.AngleFrames)
		if e.def.Scoring == ScoreHold && s.AngleFrames >= e.def.HoldFrames {
			e.consume()
		}
	}
}

// decideNext runs the Repetition decision: start the first repetition, end
// or switch sides once all sets are done, or return to Start.
func (e *Engine) decideNext() {
	s := e.session
	switch {
	case s.FirstRepetition:
		e.Transition(StateRepetitionInitial)
	case s.RemainingSets <= 0 && s.switchPending():
		e.switchSide()
	case s.RemainingSets <= 0:
		s.ExerciseCompleted = true
		s.stopTimers()
		e.Transition(StateExerciseEnd)
	default:
		e.Transition(StateStart)
	}
}

func (e *Engine) switchSide() {
	s := e.session
	s.stopTimers()
	s.switchToLeft()
	e.log.Info("switching side", "side", s.CurrentSide)
	e.Transition(StateStart)
}

// consume counts the current repetition and moves to the rest period.
func (e *Engine) consume() {
	s := e.session
	s.repetition.stop()
	s.consume()
	e.log.Info("repetition completed",
		"completed", s.CompletedRepetitions,
		"remaining", s.RemainingRepetitions,
		"sets_remaining", s.RemainingSets,
		"give_up", s.IsGiveUp,
	)
	e.emit(Event{Kind: EventRepetition, GiveUp: s.IsGiveUp})
	e.Transition(StateRepetitionCompleted)
}

// Advance moves the logical clock forward by d, stepping every active
// countdown at most one fine tick at a time.
func (e *Engine) Advance(d time.Duration) {
	for d > 0 {
		step := min(d, FineTick)
		d -= step
		e.now += step
		s := e.session
		timers := [...]*countdown{&s.startDelay, &s.repetition, &s.buffer}
		// Timers started by a firing timer begin counting on the next step.
		var active [len(timers)]bool
		for i, c := range timers {
			active[i] = c.active
		}
		for i, c := range timers {
			if active[i] {
				e.step(c, step)
			}
		}
	}
}

func (e *Engine) step(c *countdown, elapsed time.Duration) {
	if !c.active {
		return
	}
	for n := c.pending(elapsed); n > 0 && c.active; n-- {
		if e.session.ExerciseCompleted || !c.ownedBy(e.state) {
			e.log.Debug("timer invalidated", "timer", c.kind, "state", e.state)
			c.stop()
			return
		}
		if c.remaining <= 0 {
			c.stop()
			e.fire(c.kind)
			return
		}
		c.remaining -= c.step
	}
}

func (e *Engine) fire(kind timerKind) {
	s := e.session
	switch kind {
	case timerStartDelay:
		e.Transition(StateRepetition)
	case timerRepetition:
		if !s.RepetitionIsGood {
			s.IsGiveUp = true
			s.GiveUps++
		}
		e.consume()
	case timerBuffer:
		s.finishRest()
		if s.RemainingSets <= 0 && s.switchPending() {
			e.switchSide()
			return
		}
		e.Transition(StateRepetition)
	}
}

// entryActions maps each state to the work done when it is entered.
var entryActions = [numStates]func(*Engine){
	StateInitial:              (*Engine).enterInitial,
	StateCalibration:          (*Engine).enterCalibration,
	StateStart:                (*Engine).enterStart,
	StateInPosition:           (*Engine).enterInPosition,
	StateRepetition:           func(*Engine) {},
	StateRepetitionInitial:    (*Engine).enterRepetitionInitial,
	StateRepetitionInProgress: (*Engine).enterInProgress,
	StateRepetitionCompleted:  (*Engine).enterCompleted,
	StateExerciseEnd:          (*Engine).enterEnd,
}

func (e *Engine) enterInitial() {
	e.session.stopTimers()
}

func (e *Engine) enterCalibration() {
	s := e.session
	s.stopTimers()
	e.speak(e.def.Text.Calibration.Select(s.Side, s.CurrentSide, s.FirstLeftRepetition))
}

func (e *Engine) enterStart() {
	s := e.session
	s.IsGiveUp = false
	e.speak(e.def.Text.Start.Select(s.Side, s.CurrentSide, s.FirstLeftRepetition))
}

func (e *Engine) enterInPosition() {
	s := e.session
	if s.FirstRepetition {
		e.speak(textStandby)
	}
	s.startDelay.start(timerStartDelay, e.opts.StartDelay, CoarseTick, StateInPosition)
}

func (e *Engine) enterRepetitionInitial() {
	s := e.session
	s.beginRepetition()
	e.speak(e.def.Text.Motion.Select(s.Side, s.CurrentSide, s.FirstLeftRepetition))
	if !s.Activated {
		s.Activated = true
		s.repetition.start(timerRepetition, e.def.RepetitionDuration, FineTick,
			StateRepetition, StateRepetitionInitial, StateRepetitionInProgress)
	}
}

func (e *Engine) enterInProgress() {
	s := e.session
	s.AngleFrames = 0
	s.Leeway = e.def.Leeway.At(0)
	if e.def.Text.Encouragement != "" {
		e.speak(e.def.Text.Encouragement)
	}
}

func (e *Engine) enterCompleted() {
	s := e.session
	e.chime(CueGoalReached)
	e.speak(e.completionText())
	s.buffer.start(timerBuffer, s.BufferTime, FineTick, StateRepetitionCompleted)
}

func (e *Engine) enterEnd() {
	e.session.stopTimers()
	e.emit(Event{Kind: EventChime, Cue: CueExerciseComplete})
	e.speak(textExerciseEnd)
	e.log.Info("exercise completed",
		"repetitions", e.session.CompletedRepetitions,
		"sets", e.session.CompletedSets,
		"give_ups", e.session.GiveUps,
	)
}

// completionText picks the message spoken after a repetition.
func (e *Engine) completionText() string {
	s := e.session
	switch {
	case s.SetCompleted:
		return fmt.Sprintf("Set %d completed.", e.def.Sets-s.RemainingSets+1)
	case s.IsGiveUp:
		return textGiveUp
	case e.def.Scoring == ScoreTimed && s.GoodFrames >= s.BadFrames:
		return textGoodFrames
	case e.def.Scoring == ScoreTimed:
		return textBadFrames
	default:
		return e.def.Text.Success
	}
}

// chime plays a cue unless one played within the notification interval.
func (e *Engine) chime(cue Cue) {
	if e.chimed && e.now-e.lastChime <= e.opts.NotificationInterval {
		return
	}
	e.chimed = true
	e.lastChime = e.now
	e.emit(Event{Kind: EventChime, Cue: cue})
}

func (e *Engine) speak(text string) {
	if text == "" {
		return
	}
	e.lastSpoken = text
	e.emit(Event{Kind: EventSpeak, Text: text})
}

func (e *Engine) emit(ev Event) {
	ev.Exercise = e.def.Key
	ev.State = e.state
	ev.Description = e.Description()
	ev.At = e.now
	e.sink.Emit(ev)
}
