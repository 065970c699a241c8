package pose

import "fmt"

// Side is the limb an exercise targets.
type Side int

const (
	SideRight Side = iota
	SideLeft
	SideBoth
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideBoth:
		return "both"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Code is the numeric side code stored with results: left 0, right 1, both 2.
func (s Side) Code() int {
	switch s {
	case SideLeft:
		return 0
	case SideRight:
		return 1
	default:
		return 2
	}
}

// Opposite returns the other limb. Both maps to itself.
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return s
	}
}

// ParseSide accepts "left", "right" or "both". Empty defaults to right.
func ParseSide(s string) (Side, error) {
	switch s {
	case "left":
		return SideLeft, nil
	case "", "right":
		return SideRight, nil
	case "both":
		return SideBoth, nil
	}
	return SideRight, fmt.Errorf("unknown side %q", s)
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	v, err := ParseSide(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Limb names the joints of one body side.
type Limb struct {
	Ear      Joint
	Shoulder Joint
	Elbow    Joint
	Wrist    Joint
	Hip      Joint
	Knee     Joint
	Ankle    Joint
}

var (
	leftLimb = Limb{
		Ear: LeftEar, Shoulder: LeftShoulder, Elbow: LeftElbow, Wrist: LeftWrist,
		Hip: LeftHip, Knee: LeftKnee, Ankle: LeftAnkle,
	}
	rightLimb = Limb{
		Ear: RightEar, Shoulder: RightShoulder, Elbow: RightElbow, Wrist: RightWrist,
		Hip: RightHip, Knee: RightKnee, Ankle: RightAnkle,
	}
)

// LimbFor returns the joints of the given side. Both resolves to right; use
// the session's current side for two-sided exercises.
func LimbFor(s Side) Limb {
	if s == SideLeft {
		return leftLimb
	}
	return rightLimb
}
