package catalog

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/pose"
	"github.com/google/go-cmp/cmp"
)

func obs(points map[pose.Joint][2]float64, confidence float64) pose.Observation {
	o := pose.Observation{Joints: make(map[pose.Joint]pose.Keypoint, len(points))}
	for j, p := range points {
		o.Joints[j] = pose.Keypoint{X: p[0], Y: p[1], Confidence: confidence}
	}
	return o
}

// legFrame places the right leg with the given knee angle, thigh horizontal.
func legFrame(angle float64) pose.Observation {
	rad := angle * math.Pi / 180
	return obs(map[pose.Joint][2]float64{
		pose.RightHip:   {0.3, 0.4},
		pose.RightKnee:  {0.5, 0.4},
		pose.RightAnkle: {0.5 - 0.2*math.Cos(rad), 0.4 - 0.2*math.Sin(rad)},
	}, 0.9)
}

func newEngine(t *testing.T, key string, side pose.Side) *exercise.Engine {
	t.Helper()
	def, err := Default().Get(key)
	if err != nil {
		t.Fatalf("Get(%q): %v", key, err)
	}
	e, err := exercise.NewEngine(def, exercise.Options{Side: side, AutoInstruct: true})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// TestCatalogDefinitions verifies every exercise is present, unique and
// valid, and that leeway never tightens.
func TestCatalogDefinitions(t *testing.T) {
	defs := Default().All()
	if len(defs) != 12 {
		t.Fatalf("len(All()) = %d, want 12", len(defs))
	}
	seen := map[string]bool{}
	for i, d := range defs {
		if d.ID != i+1 {
			t.Errorf("defs[%d].ID = %d, want %d", i, d.ID, i+1)
		}
		if seen[d.Key] {
			t.Errorf("duplicate key %q", d.Key)
		}
		seen[d.Key] = true
		if err := d.Validate(); err != nil {
			t.Errorf("%s: %v", d.Key, err)
		}
		if d.Leeway.At(d.Leeway.Threshold+1) < d.Leeway.At(0) {
			t.Errorf("%s: leeway tightens", d.Key)
		}
	}
}

// TestOverrides verifies configured targets replace catalog values.
func TestOverrides(t *testing.T) {
	c, err := New(map[string]Overrides{
		"shoulder_abduction": {Repetitions: 5, Sets: 2, RepetitionDuration: 20 * time.Second},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	def, err := c.Get("shoulder_abduction")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got := [3]any{def.Repetitions, def.Sets, def.RepetitionDuration}
	want := [3]any{5, 2, 20 * time.Second}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("override mismatch (-want +got):\n%s", diff)
	}

	if _, err := New(map[string]Overrides{"cartwheel": {Sets: 1}}); !errors.Is(err, ErrUnknownExercise) {
		t.Errorf("New with unknown key error = %v, want ErrUnknownExercise", err)
	}
	if _, err := c.Get("cartwheel"); !errors.Is(err, ErrUnknownExercise) {
		t.Errorf("Get(cartwheel) error = %v, want ErrUnknownExercise", err)
	}
}

// TestShoulderAbductionClassifiers exercises the phase predicates with a
// hanging and a raised arm.
func TestShoulderAbductionClassifiers(t *testing.T) {
	e := newEngine(t, "shoulder_abduction", pose.SideRight)
	s := e.Session()
	c := e.Definition().Classifiers

	hanging := obs(map[pose.Joint][2]float64{
		pose.RightShoulder: {0.5, 0.7},
		pose.RightElbow:    {0.52, 0.55},
		pose.RightWrist:    {0.53, 0.4},
		pose.RightHip:      {0.5, 0.4},
	}, 0.9)
	raised := obs(map[pose.Joint][2]float64{
		pose.RightShoulder: {0.5, 0.7},
		pose.RightElbow:    {0.65, 0.65},
		pose.RightWrist:    {0.8, 0.6},
		pose.RightHip:      {0.5, 0.4},
	}, 0.9)

	for i := range 21 {
		if c.InPosition.Check(hanging, s) {
			t.Fatalf("InPosition passed on frame %d before settling", i+1)
		}
	}
	if !c.InPosition.Check(hanging, s) {
		t.Fatal("InPosition failed after settling")
	}
	start := s.Ref(0)
	if start > 30 {
		t.Fatalf("reference angle = %v, want <= 30", start)
	}

	if c.RepetitionStart.Check(hanging, s) {
		t.Error("RepetitionStart passed without raising the arm")
	}
	if !c.RepetitionStart.Check(raised, s) {
		t.Fatal("RepetitionStart failed with raised arm")
	}
	if s.Ref(0) < start+20 {
		t.Errorf("reference = %v, want >= %v", s.Ref(0), start+20)
	}

	s.AngleFrames = 0
	if !c.InProgress.Check(raised, s) || s.AngleFrames != 1 {
		t.Errorf("holding raised arm: frames = %d, want 1", s.AngleFrames)
	}
	if c.InProgress.Check(hanging, s) {
		t.Error("InProgress passed when the arm dropped")
	}
}

// TestClassifierFailsClosedOnLowConfidence verifies joints below threshold
// are treated as absent.
func TestClassifierFailsClosedOnLowConfidence(t *testing.T) {
	e := newEngine(t, "assisted_knee_extension", pose.SideRight)
	c := e.Definition().Classifiers
	low := legFrame(90)
	for j, kp := range low.Joints {
		kp.Confidence = 0.05
		low.Joints[j] = kp
	}
	for name, cl := range map[string]exercise.Classifier{
		"calibration": c.Calibration,
		"in position": c.InPosition,
		"start":       c.RepetitionStart,
		"in progress": c.InProgress,
	} {
		if cl.Check(low, e.Session()) {
			t.Errorf("%s passed with low-confidence joints", name)
		}
	}
}

// TestClassifierDeterminism verifies equal sessions give equal verdicts.
func TestClassifierDeterminism(t *testing.T) {
	a := newEngine(t, "assisted_knee_flexion", pose.SideRight)
	b := newEngine(t, "assisted_knee_flexion", pose.SideRight)
	a.Session().SetReference(90)
	b.Session().SetReference(90)
	frame := legFrame(80)
	for i := range 5 {
		ga := a.Definition().Classifiers.RepetitionStart.Check(frame, a.Session())
		gb := b.Definition().Classifiers.RepetitionStart.Check(frame, b.Session())
		if ga != gb {
			t.Fatalf("frame %d: verdicts differ %v vs %v", i, ga, gb)
		}
	}
}

// TestAssistedKneeExtensionEndToEnd runs the whole exercise from synthetic
// leg frames.
func TestAssistedKneeExtensionEndToEnd(t *testing.T) {
	e := newEngine(t, "assisted_knee_extension", pose.SideRight)

	until := func(state exercise.State, frame pose.Observation, limit int) {
		t.Helper()
		for range limit {
			if e.State() == state {
				return
			}
			e.ProcessFrame(frame)
		}
		if e.State() != state {
			t.Fatalf("state = %v, want %v", e.State(), state)
		}
	}

	until(exercise.StateStart, legFrame(90), 200)
	until(exercise.StateInPosition, legFrame(90), 100)
	e.Advance(4 * time.Second)
	until(exercise.StateRepetitionInitial, legFrame(90), 2)
	until(exercise.StateRepetitionInProgress, legFrame(100), 2)

	for i := 0; i < 119; i++ {
		e.ProcessFrame(legFrame(100))
	}
	if e.State() != exercise.StateRepetitionInProgress {
		t.Fatalf("state after 119 held frames = %v, want RepetitionInProgress", e.State())
	}
	e.ProcessFrame(legFrame(100.5))
	if e.State() != exercise.StateRepetitionCompleted {
		t.Fatalf("state = %v, want RepetitionCompleted", e.State())
	}

	e.Advance(10100 * time.Millisecond)
	until(exercise.StateExerciseEnd, legFrame(90), 2)

	sum := e.Summary()
	if sum.CompletedRepetitions != 1 || sum.CompletedSets != 1 || !sum.Completed {
		t.Errorf("summary = %+v", sum)
	}
	if got := e.Description(); got != "AssistedKneeExtensionEnd" {
		t.Errorf("Description = %q, want AssistedKneeExtensionEnd", got)
	}
}
