// Package program runs an ordered list of exercises and rates the outcome
// on a five-step visual analogue scale.
package program

import (
	"errors"
	"fmt"
	"strings"

	"github.com/claude/movecoach/internal/catalog"
	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/pose"
)

// ErrEmptyPlan is returned when a program has no exercises.
var ErrEmptyPlan = errors.New("program has no exercises")

// Item is one exercise of a program.
type Item struct {
	Exercise string    `json:"exercise" yaml:"exercise"`
	Side     pose.Side `json:"side" yaml:"side"`
}

// ParseItems reads a comma-separated list of key[:side] entries, e.g.
// "shoulder_abduction:left,biceps_flexion".
func ParseItems(s string) ([]Item, error) {
	var items []Item
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, sideName, _ := strings.Cut(part, ":")
		side, err := pose.ParseSide(sideName)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", part, err)
		}
		items = append(items, Item{Exercise: key, Side: side})
	}
	if len(items) == 0 {
		return nil, ErrEmptyPlan
	}
	return items, nil
}

// Program holds one engine per item and tracks which one is running.
type Program struct {
	items   []Item
	engines []*exercise.Engine
	current int
}

// New builds an engine for every item up front so unknown exercises fail
// before anything runs. opts is shared by all engines with Side taken from
// each item.
func New(cat *catalog.Catalog, items []Item, opts exercise.Options) (*Program, error) {
	if len(items) == 0 {
		return nil, ErrEmptyPlan
	}
	p := &Program{items: items, engines: make([]*exercise.Engine, len(items))}
	for i, it := range items {
		def, err := cat.Get(it.Exercise)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		o := opts
		o.Side = it.Side
		e, err := exercise.NewEngine(def, o)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		p.engines[i] = e
	}
	return p, nil
}

// Items returns the program's exercises in order.
func (p *Program) Items() []Item { return p.items }

// Current returns the running engine and its index, or nil once the
// program is done.
func (p *Program) Current() (*exercise.Engine, int) {
	if p.Done() {
		return nil, len(p.engines)
	}
	return p.engines[p.current], p.current
}

// Next moves past the running exercise once it has ended. It reports
// whether it moved.
func (p *Program) Next() bool {
	if p.Done() || p.engines[p.current].State() != exercise.StateExerciseEnd {
		return false
	}
	p.current++
	return true
}

// Skip abandons the running exercise regardless of its state.
func (p *Program) Skip() {
	if !p.Done() {
		p.current++
	}
}

// Done reports whether every exercise has been run or skipped.
func (p *Program) Done() bool {
	return p.current >= len(p.engines)
}

// Summaries returns the summary of every item, including ones not started.
func (p *Program) Summaries() []exercise.Summary {
	out := make([]exercise.Summary, len(p.engines))
	for i, e := range p.engines {
		out[i] = e.Summary()
	}
	return out
}

// Report rates the program so far.
func (p *Program) Report() Report {
	return Evaluate(p.Summaries())
}
