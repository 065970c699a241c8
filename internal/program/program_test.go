package program

import (
	"errors"
	"testing"

	"github.com/claude/movecoach/internal/catalog"
	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/pose"
	"github.com/google/go-cmp/cmp"
)

func TestRate(t *testing.T) {
	tests := []struct {
		fraction float64
		want     Category
	}{
		{1, Laugh},
		{0.81, Laugh},
		{0.8, Smile},
		{0.61, Smile},
		{0.6, Meh},
		{0.41, Meh},
		{0.4, Frown},
		{0.21, Frown},
		{0.2, OpenFrown},
		{0, OpenFrown},
	}
	for _, tt := range tests {
		if got := Rate(tt.fraction); got != tt.want {
			t.Errorf("Rate(%v) = %v, want %v", tt.fraction, got, tt.want)
		}
	}
}

// TestEvaluate verifies totals are summed across exercises and capped per
// exercise.
func TestEvaluate(t *testing.T) {
	r := Evaluate([]exercise.Summary{
		{TotalRepetitions: 6, CompletedRepetitions: 6},
		{TotalRepetitions: 2, CompletedRepetitions: 5},
		{TotalRepetitions: 2, CompletedRepetitions: 0},
	})
	if r.TotalRepetitions != 10 || r.CompletedRepetitions != 8 {
		t.Fatalf("totals = %d/%d, want 8/10", r.CompletedRepetitions, r.TotalRepetitions)
	}
	if r.Category != Smile {
		t.Errorf("Category = %v, want smile", r.Category)
	}
	if r.Feedback != "Good job! You have over 60% completed repetitions!" {
		t.Errorf("Feedback = %q", r.Feedback)
	}

	empty := Evaluate(nil)
	if empty.Fraction != 0 || empty.Category != OpenFrown {
		t.Errorf("Evaluate(nil) = %+v, want zero fraction and open_frown", empty)
	}
}

func TestParseItems(t *testing.T) {
	got, err := ParseItems("shoulder_abduction:left, biceps_flexion ,banded_rotation:both")
	if err != nil {
		t.Fatalf("ParseItems: %v", err)
	}
	want := []Item{
		{Exercise: "shoulder_abduction", Side: pose.SideLeft},
		{Exercise: "biceps_flexion", Side: pose.SideRight},
		{Exercise: "banded_rotation", Side: pose.SideBoth},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseItems mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseItems(" , "); !errors.Is(err, ErrEmptyPlan) {
		t.Errorf("ParseItems(blank) error = %v, want ErrEmptyPlan", err)
	}
	if _, err := ParseItems("biceps_flexion:up"); err == nil {
		t.Error("ParseItems with bad side: expected error")
	}
}

func TestNewRejectsUnknownExercise(t *testing.T) {
	_, err := New(catalog.Default(), []Item{{Exercise: "biceps_flexion"}, {Exercise: "cartwheel"}}, exercise.Options{})
	if !errors.Is(err, catalog.ErrUnknownExercise) {
		t.Errorf("New error = %v, want ErrUnknownExercise", err)
	}
	if _, err := New(catalog.Default(), nil, exercise.Options{}); !errors.Is(err, ErrEmptyPlan) {
		t.Errorf("New(nil) error = %v, want ErrEmptyPlan", err)
	}
}

// TestProgressAndReport walks a program by skipping and checks the report
// covers every item.
func TestProgressAndReport(t *testing.T) {
	p, err := New(catalog.Default(), []Item{
		{Exercise: "biceps_flexion", Side: pose.SideBoth},
		{Exercise: "shoulder_abduction", Side: pose.SideLeft},
	}, exercise.Options{AutoInstruct: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e, idx := p.Current()
	if idx != 0 || e.Definition().Key != "biceps_flexion" {
		t.Fatalf("Current = %s #%d, want biceps_flexion #0", e.Definition().Key, idx)
	}
	if e.Session().Side != pose.SideBoth {
		t.Errorf("first item side = %v, want both", e.Session().Side)
	}
	if p.Next() {
		t.Error("Next moved before the exercise ended")
	}

	p.Skip()
	e, idx = p.Current()
	if idx != 1 || e.Session().Side != pose.SideLeft {
		t.Fatalf("after Skip: #%d side %v, want #1 left", idx, e.Session().Side)
	}
	p.Skip()
	if !p.Done() {
		t.Fatal("Done = false after skipping every item")
	}
	if e, _ := p.Current(); e != nil {
		t.Error("Current returned an engine after the program ended")
	}

	r := p.Report()
	// biceps: 3 reps x 2 sets on both sides; abduction: 1 x 1.
	if r.TotalRepetitions != 13 {
		t.Errorf("TotalRepetitions = %d, want 13", r.TotalRepetitions)
	}
	if r.Category != OpenFrown || len(r.Exercises) != 2 {
		t.Errorf("report = %+v", r)
	}
}
