package exercise

import "time"

const (
	// CoarseTick drives the pre-repetition countdown.
	CoarseTick = time.Second
	// FineTick drives the repetition and rest countdowns.
	FineTick = 100 * time.Millisecond
)

type timerKind int

const (
	timerStartDelay timerKind = iota
	timerRepetition
	timerBuffer
)

func (k timerKind) String() string {
	switch k {
	case timerStartDelay:
		return "start_delay"
	case timerRepetition:
		return "repetition"
	default:
		return "buffer"
	}
}

// countdown is a cancelable repeating countdown advanced by the engine's
// logical clock. On each step it fires if nothing remains, otherwise it
// decrements by one step. It only survives while the engine is in one of its
// owner states.
type countdown struct {
	kind      timerKind
	active    bool
	step      time.Duration
	remaining time.Duration
	acc       time.Duration
	owners    []State
}

func (c *countdown) start(kind timerKind, total, step time.Duration, owners ...State) {
	*c = countdown{
		kind:      kind,
		active:    true,
		step:      step,
		remaining: total,
		owners:    owners,
	}
}

func (c *countdown) stop() {
	c.active = false
	c.acc = 0
}

func (c *countdown) ownedBy(s State) bool {
	for _, o := range c.owners {
		if o == s {
			return true
		}
	}
	return false
}

// pending returns the number of whole steps due after adding elapsed.
func (c *countdown) pending(elapsed time.Duration) int {
	c.acc += elapsed
	n := int(c.acc / c.step)
	c.acc -= time.Duration(n) * c.step
	return n
}
