// Package catalog defines the supported exercises: their targets, timing,
// spoken instructions and the pose classifiers for each phase.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/claude/movecoach/internal/exercise"
)

// ErrUnknownExercise is returned for keys not in the catalog.
var ErrUnknownExercise = errors.New("unknown exercise")

var builders = []func() exercise.Definition{
	bicepsFlexion,
	bandedRotation,
	posteriorCapsuleStretch,
	externalRotation,
	internalRotation,
	shoulderAbduction,
	shoulderExtension,
	shoulderFlexion,
	shoulderHorizontalAbduction,
	standingKneeBend,
	assistedKneeExtension,
	assistedKneeFlexion,
}

// Overrides replaces the targets of a definition. Zero fields keep the
// catalog value.
type Overrides struct {
	Repetitions        int
	Sets               int
	RepetitionDuration time.Duration
}

// Catalog is a set of exercise definitions with optional per-exercise
// overrides.
type Catalog struct {
	defs map[string]exercise.Definition
}

// New builds the catalog and applies overrides keyed by exercise key. It
// fails on overrides for unknown exercises and on definitions that do not
// validate.
func New(overrides map[string]Overrides) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]exercise.Definition, len(builders))}
	for _, build := range builders {
		def := build()
		c.defs[def.Key] = def
	}
	for key, o := range overrides {
		def, ok := c.defs[key]
		if !ok {
			return nil, fmt.Errorf("override for %q: %w", key, ErrUnknownExercise)
		}
		if o.Repetitions > 0 {
			def.Repetitions = o.Repetitions
		}
		if o.Sets > 0 {
			def.Sets = o.Sets
		}
		if o.RepetitionDuration > 0 {
			def.RepetitionDuration = o.RepetitionDuration
		}
		c.defs[key] = def
	}
	for _, def := range c.defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Default returns the catalog without overrides.
func Default() *Catalog {
	c, err := New(nil)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the definition for key.
func (c *Catalog) Get(key string) (exercise.Definition, error) {
	def, ok := c.defs[key]
	if !ok {
		return exercise.Definition{}, fmt.Errorf("%q: %w", key, ErrUnknownExercise)
	}
	return def, nil
}

// All returns every definition ordered by ID.
func (c *Catalog) All() []exercise.Definition {
	out := make([]exercise.Definition, 0, len(c.defs))
	for _, def := range c.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Info is the public description of an exercise.
type Info struct {
	ID                 int     `json:"id"`
	Key                string  `json:"key"`
	Name               string  `json:"name"`
	Repetitions        int     `json:"repetitions"`
	Sets               int     `json:"sets"`
	RepetitionDuration float64 `json:"repetition_duration_seconds"`
	Scoring            string  `json:"scoring"`
	Bilateral          bool    `json:"bilateral"`
}

// Infos lists the catalog for APIs.
func (c *Catalog) Infos() []Info {
	defs := c.All()
	out := make([]Info, len(defs))
	for i, d := range defs {
		out[i] = Info{
			ID:                 d.ID,
			Key:                d.Key,
			Name:               d.Name,
			Repetitions:        d.Repetitions,
			Sets:               d.Sets,
			RepetitionDuration: d.RepetitionDuration.Seconds(),
			Scoring:            d.Scoring.String(),
			Bilateral:          d.Bilateral,
		}
	}
	return out
}
