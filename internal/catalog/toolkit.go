package catalog

import (
	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/geometry"
	"github.com/claude/movecoach/internal/pose"
	"gonum.org/v1/gonum/spatial/r2"
)

// jointSet picks the joints a classifier needs for the session's current
// side.
type jointSet func(s *exercise.Session) []pose.Joint

// check is a predicate over trusted joint positions.
type check func(pts pose.Points, s *exercise.Session) bool

// classify builds a classifier that fails closed unless every joint in js is
// trusted, then applies fn.
func classify(js jointSet, fn check) exercise.Classifier {
	return exercise.ClassifierFunc(func(obs pose.Observation, s *exercise.Session) bool {
		pts, ok := s.Joints(obs, js(s)...)
		if !ok {
			return false
		}
		return fn(pts, s)
	})
}

// present passes once all joints are visible, optionally after the position
// has been kept for more than delay frames.
func present(js jointSet, delay int) exercise.Classifier {
	return classify(js, func(_ pose.Points, s *exercise.Session) bool {
		if delay <= 0 {
			return true
		}
		return s.Settle(delay)
	})
}

// always passes every frame that has the joints.
func always(pose.Points, *exercise.Session) bool { return true }

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// limbJoints returns the named parts of the current limb.
func limbJoints(parts ...func(pose.Limb) pose.Joint) jointSet {
	return func(s *exercise.Session) []pose.Joint {
		l := s.Limb()
		out := make([]pose.Joint, len(parts))
		for i, p := range parts {
			out[i] = p(l)
		}
		return out
	}
}

// with appends joints that do not depend on the side.
func (js jointSet) with(extra ...func(s *exercise.Session) pose.Joint) jointSet {
	return func(s *exercise.Session) []pose.Joint {
		out := js(s)
		for _, e := range extra {
			out = append(out, e(s))
		}
		return out
	}
}

func shoulder(l pose.Limb) pose.Joint { return l.Shoulder }
func elbow(l pose.Limb) pose.Joint    { return l.Elbow }
func wrist(l pose.Limb) pose.Joint    { return l.Wrist }
func hip(l pose.Limb) pose.Joint      { return l.Hip }
func knee(l pose.Limb) pose.Joint     { return l.Knee }
func ankle(l pose.Limb) pose.Joint    { return l.Ankle }

// opposite returns a joint of the other limb.
func opposite(part func(pose.Limb) pose.Joint) func(s *exercise.Session) pose.Joint {
	return func(s *exercise.Session) pose.Joint {
		return part(pose.LimbFor(s.CurrentSide.Opposite()))
	}
}

// fixed returns joints independent of the session side.
func fixed(joints ...pose.Joint) jointSet {
	return func(*exercise.Session) []pose.Joint { return joints }
}

// bothArms lists shoulders, elbows and wrists of both sides.
var bothArms = fixed(
	pose.RightShoulder, pose.RightElbow, pose.RightWrist,
	pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist,
)

// sideOrdered checks horizontal ordering as seen for the current side: the
// points ascend in X on the left side and descend on the right.
func sideOrdered(s *exercise.Session, points ...r2.Vec) bool {
	return orderedFor(s.CurrentSide, points...)
}

// orderedFor is sideOrdered for a fixed side.
func orderedFor(side pose.Side, points ...r2.Vec) bool {
	if side == pose.SideLeft {
		return geometry.HorizontallySortedAscending(points...)
	}
	reversed := make([]r2.Vec, len(points))
	for i, p := range points {
		reversed[len(points)-1-i] = p
	}
	return geometry.HorizontallySortedAscending(reversed...)
}

// limbAngle measures the angle at the middle joint of the current limb.
func limbAngle(pts pose.Points, l pose.Limb, a, b, c func(pose.Limb) pose.Joint) float64 {
	return geometry.Angle(pts[a(l)], pts[b(l)], pts[c(l)])
}

// turnedAway reports whether the user stands side-on to the camera: the
// ear of the far side is not visible.
func turnedAway(obs pose.Observation, s *exercise.Session) bool {
	far := pose.LimbFor(s.CurrentSide.Opposite()).Ear
	_, visible := s.Joints(obs, far)
	return !visible
}

// sideOn is classify for side-on exercises: the far ear must be hidden.
func sideOn(js jointSet, fn check) exercise.Classifier {
	inner := classify(js, fn)
	return exercise.ClassifierFunc(func(obs pose.Observation, s *exercise.Session) bool {
		if !turnedAway(obs, s) {
			return false
		}
		return inner.Check(obs, s)
	})
}
