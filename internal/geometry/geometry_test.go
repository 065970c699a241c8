package geometry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

const eps = 1e-9

// TestDistance verifies Euclidean and per-axis distances.
func TestDistance(t *testing.T) {
	a := r2.Vec{X: 0.1, Y: 0.2}
	b := r2.Vec{X: 0.4, Y: 0.6}

	if got := Distance(a, b); math.Abs(got-0.5) > eps {
		t.Errorf("Distance = %v, want 0.5", got)
	}
	if got := HorizontalDistance(a, b); math.Abs(got-0.3) > eps {
		t.Errorf("HorizontalDistance = %v, want 0.3", got)
	}
	if got := VerticalDistance(b, a); math.Abs(got-0.4) > eps {
		t.Errorf("VerticalDistance = %v, want 0.4", got)
	}
}

// TestAngle checks the vertex angle for common configurations.
func TestAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c r2.Vec
		want    float64
	}{
		{"right angle", r2.Vec{X: 1, Y: 0}, r2.Vec{}, r2.Vec{X: 0, Y: 1}, 90},
		{"straight", r2.Vec{X: -1, Y: 0}, r2.Vec{}, r2.Vec{X: 1, Y: 0}, 180},
		{"forty five", r2.Vec{X: 1, Y: 0}, r2.Vec{}, r2.Vec{X: 1, Y: 1}, 45},
		{"obtuse", r2.Vec{X: 1, Y: 0}, r2.Vec{}, r2.Vec{X: -1, Y: 1}, 135},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(tt.a, tt.b, tt.c)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Angle = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestAngleDegenerate verifies coincident points produce NaN and that NaN
// fails ordinary range checks.
func TestAngleDegenerate(t *testing.T) {
	p := r2.Vec{X: 0.5, Y: 0.5}
	got := Angle(p, p, r2.Vec{X: 1, Y: 1})
	if !math.IsNaN(got) {
		t.Fatalf("Angle with coincident points = %v, want NaN", got)
	}
	if got >= 0 || got <= 180 {
		t.Error("NaN angle passed a range comparison")
	}
}

// TestSortedAscending covers empty input, ties, and decreases.
func TestSortedAscending(t *testing.T) {
	tests := []struct {
		name   string
		points []r2.Vec
		wantX  bool
		wantY  bool
	}{
		{"empty", nil, false, false},
		{"single", []r2.Vec{{X: 0.3, Y: 0.3}}, true, true},
		{"ascending", []r2.Vec{{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.5}, {X: 0.3, Y: 0.9}}, true, true},
		{"ties pass", []r2.Vec{{X: 0.2, Y: 0.4}, {X: 0.2, Y: 0.4}}, true, true},
		{"x decreases", []r2.Vec{{X: 0.5, Y: 0.1}, {X: 0.4, Y: 0.2}}, false, true},
		{"y decreases", []r2.Vec{{X: 0.1, Y: 0.6}, {X: 0.2, Y: 0.2}}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HorizontallySortedAscending(tt.points...); got != tt.wantX {
				t.Errorf("HorizontallySortedAscending = %v, want %v", got, tt.wantX)
			}
			if got := VerticallySortedAscending(tt.points...); got != tt.wantY {
				t.Errorf("VerticallySortedAscending = %v, want %v", got, tt.wantY)
			}
		})
	}
}
