// Package pose holds the per-frame body landmark data consumed by classifiers.
//
// Coordinates are normalized to [0,1] with the origin at the bottom-left of
// the image: Y increases upward.
package pose

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Joint identifies a body landmark. Values are the snake_case wire names.
type Joint string

const (
	Nose          Joint = "nose"
	LeftEye       Joint = "left_eye"
	RightEye      Joint = "right_eye"
	LeftEar       Joint = "left_ear"
	RightEar      Joint = "right_ear"
	Neck          Joint = "neck"
	LeftShoulder  Joint = "left_shoulder"
	RightShoulder Joint = "right_shoulder"
	LeftElbow     Joint = "left_elbow"
	RightElbow    Joint = "right_elbow"
	LeftWrist     Joint = "left_wrist"
	RightWrist    Joint = "right_wrist"
	Root          Joint = "root"
	LeftHip       Joint = "left_hip"
	RightHip      Joint = "right_hip"
	LeftKnee      Joint = "left_knee"
	RightKnee     Joint = "right_knee"
	LeftAnkle     Joint = "left_ankle"
	RightAnkle    Joint = "right_ankle"
)

// AllJoints lists every known joint in head-to-toe order.
var AllJoints = []Joint{
	Nose, LeftEye, RightEye, LeftEar, RightEar, Neck,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist,
	Root, LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

var knownJoints = func() map[Joint]bool {
	m := make(map[Joint]bool, len(AllJoints))
	for _, j := range AllJoints {
		m[j] = true
	}
	return m
}()

// ParseJoint validates a wire name.
func ParseJoint(s string) (Joint, error) {
	j := Joint(s)
	if !knownJoints[j] {
		return "", fmt.Errorf("unknown joint %q", s)
	}
	return j, nil
}

// Keypoint is a normalized [0,1] position with a detection confidence.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"c"`
}

// Vec returns the keypoint position.
func (k Keypoint) Vec() r2.Vec {
	return r2.Vec{X: k.X, Y: k.Y}
}

// Observation is one frame of detected joints. It is not modified after
// capture.
type Observation struct {
	Time   time.Time
	Joints map[Joint]Keypoint
}

// Points is the subset of an observation a classifier trusts.
type Points map[Joint]r2.Vec

// Has reports whether all joints are present.
func (p Points) Has(joints ...Joint) bool {
	for _, j := range joints {
		if _, ok := p[j]; !ok {
			return false
		}
	}
	return true
}

// Confident returns the requested joints whose confidence is strictly above
// threshold. Joints at or below threshold are treated as absent.
func (o Observation) Confident(threshold float64, joints ...Joint) Points {
	pts := make(Points, len(joints))
	for _, j := range joints {
		kp, ok := o.Joints[j]
		if !ok || kp.Confidence <= threshold {
			continue
		}
		pts[j] = kp.Vec()
	}
	return pts
}
