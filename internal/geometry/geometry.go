// Package geometry provides the planar measurements pose classifiers are
// built from. Points are normalized image coordinates held in r2.Vec.
//
// Degenerate input is not guarded: Angle returns NaN when two of its points
// coincide, and NaN compares false against every threshold, so a classifier
// fed a degenerate triple fails closed.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Distance returns the Euclidean distance between a and b.
func Distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// VerticalDistance returns |a.Y - b.Y|.
func VerticalDistance(a, b r2.Vec) float64 {
	return math.Abs(a.Y - b.Y)
}

// HorizontalDistance returns |a.X - b.X|.
func HorizontalDistance(a, b r2.Vec) float64 {
	return math.Abs(a.X - b.X)
}

// Angle returns the angle in degrees at vertex b formed by the rays b->a and
// b->c, using the law of cosines.
func Angle(a, b, c r2.Vec) float64 {
	ab := Distance(a, b)
	bc := Distance(b, c)
	ac := Distance(a, c)
	cos := (ab*ab + bc*bc - ac*ac) / (2 * ab * bc)
	return math.Acos(cos) * 180 / math.Pi
}

// VerticallySortedAscending reports whether the Y coordinates of points never
// decrease. An empty slice is not sorted.
func VerticallySortedAscending(points ...r2.Vec) bool {
	return sortedBy(points, func(p r2.Vec) float64 { return p.Y })
}

// HorizontallySortedAscending reports whether the X coordinates of points
// never decrease. An empty slice is not sorted.
func HorizontallySortedAscending(points ...r2.Vec) bool {
	return sortedBy(points, func(p r2.Vec) float64 { return p.X })
}

func sortedBy(points []r2.Vec, coord func(r2.Vec) float64) bool {
	if len(points) == 0 {
		return false
	}
	prev := coord(points[0])
	for _, p := range points[1:] {
		v := coord(p)
		if v < prev {
			return false
		}
		prev = v
	}
	return true
}
