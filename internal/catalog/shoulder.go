package catalog

import (
	"time"

	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/geometry"
	"github.com/claude/movecoach/internal/pose"
)

var armAndHip = limbJoints(shoulder, elbow, wrist, hip)

// armToHip is the angle at the shoulder between wrist and hip.
func armToHip(pts pose.Points, l pose.Limb) float64 {
	return limbAngle(pts, l, wrist, shoulder, hip)
}

// elbowToHip is the angle at the shoulder between elbow and hip.
func elbowToHip(pts pose.Points, l pose.Limb) float64 {
	return limbAngle(pts, l, elbow, shoulder, hip)
}

// armStraightness is the angle at the elbow.
func armStraightness(pts pose.Points, l pose.Limb) float64 {
	return limbAngle(pts, l, wrist, elbow, shoulder)
}

// armHanging reports whether wrist, elbow and shoulder rise in that order.
func armHanging(pts pose.Points, l pose.Limb) bool {
	return geometry.VerticallySortedAscending(pts[l.Wrist], pts[l.Elbow], pts[l.Shoulder])
}

// armOutward reports whether the arm points away from the body: wrist,
// elbow and shoulder run from the outside in.
func armOutward(pts pose.Points, s *exercise.Session) bool {
	l := s.Limb()
	return sideOrdered(s, pts[l.Wrist], pts[l.Elbow], pts[l.Shoulder])
}

func shoulderAbduction() exercise.Definition {
	return exercise.Definition{
		ID:                   6,
		Key:                  "shoulder_abduction",
		Code:                 "ShoulderAbduction",
		Name:                 "Shoulder Abduction with Resistance Band",
		Repetitions:          1,
		Sets:                 1,
		RepetitionDuration:   10 * time.Second,
		BufferInterval:       12 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		HoldFrames:           50,
		Leeway:               exercise.Leeway{Tight: 1, Loose: 3, Threshold: 20},
		Classifiers: exercise.Classifiers{
			Calibration: present(limbJoints(shoulder, elbow, wrist, hip, ankle), 0),
			InPosition: classify(armAndHip, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				if !armHanging(pts, l) || !armOutward(pts, s) {
					return false
				}
				angle := armToHip(pts, l)
				if !inRange(angle, 0, 30) {
					return false
				}
				s.SetReference(angle)
				return s.Settle(20)
			}),
			RepetitionStart: classify(armAndHip, func(pts pose.Points, s *exercise.Session) bool {
				if !armOutward(pts, s) {
					return false
				}
				angle := armToHip(pts, s.Limb())
				if angle < s.Ref(0)+20 {
					return false
				}
				s.SetReference(angle)
				return true
			}),
			InProgress: classify(armAndHip, func(pts pose.Points, s *exercise.Session) bool {
				if !armOutward(pts, s) {
					s.AngleFrames = 0
					return false
				}
				return s.TrackHold([]float64{armToHip(pts, s.Limb())}, exercise.Increasing, 3)
			}),
		},
		Text: exercise.Instructions{
			Calibration: exercise.SideText{
				Left:  "Adjust your position such that your whole body can be seen. Loop resistance band around your left foot and hold the other end of the resistance band securely by your left arm.",
				Right: "Adjust your position such that your whole body can be seen. Loop resistance band around your right foot and hold the other end of the resistance band securely by your right arm.",
			},
			Start: exercise.SideText{
				Left:         "Keep your left arm straight at the elbow.",
				Right:        "Keep your right arm straight at the elbow.",
				SwitchToLeft: "Now re-adjust your position and keep your left arm straight at the elbow.",
			},
			Motion:        exercise.Plain("Slowly raise the arm out to the side."),
			Encouragement: "Raise the arm as much as possible and hold your position once you can't raise your arm anymore.",
			Success:       "Good job. Now bring your arm back down slowly and with control.",
		},
	}
}

func shoulderExtension() exercise.Definition {
	essentials := armAndHip
	return exercise.Definition{
		ID:                   7,
		Key:                  "shoulder_extension",
		Code:                 "ShoulderExtension",
		Name:                 "Shoulder Extension with Resistance Band",
		Repetitions:          3,
		Sets:                 2,
		RepetitionDuration:   10 * time.Second,
		BufferInterval:       12 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		HoldFrames:           50,
		Leeway:               exercise.Leeway{Tight: 1.5, Loose: 3, Threshold: 30},
		Classifiers: exercise.Classifiers{
			Calibration: present(essentials, 200),
			InPosition: sideOn(essentials, func(pts pose.Points, s *exercise.Session) bool {
				angle := armToHip(pts, s.Limb())
				if !inRange(angle, 70, 110) {
					return false
				}
				s.SetReference(angle)
				return true
			}),
			RepetitionStart: sideOn(essentials, func(pts pose.Points, s *exercise.Session) bool {
				angle := armToHip(pts, s.Limb())
				if angle+10 > s.Ref(0) {
					return false
				}
				s.SetReference(angle)
				return true
			}),
			InProgress: sideOn(essentials, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				angle := armToHip(pts, l)
				// Past the hip line the arm is behind the body.
				behind := pts[l.Wrist].X - pts[l.Shoulder].X
				if s.CurrentSide == pose.SideLeft {
					behind = -behind
				}
				if behind > 0 {
					angle = -angle
				}
				return s.TrackHold([]float64{angle}, exercise.Decreasing, 2)
			}),
		},
		Text: exercise.Instructions{
			Calibration: exercise.Plain("Tie resistance band higher up onto secure structure, and adjust your position such that your affected shoulder and arm can be seen."),
			Start: exercise.SideText{
				Left:         "While facing 90 degrees to the right, hold the other end of the band in left arm and raise your arm to shoulder height.",
				Right:        "While facing 90 degrees to the left, hold the other end of the band in right arm and raise your arm to shoulder height.",
				SwitchToLeft: "Now face the other side, hold the other end of the band in left arm and raise your arm to shoulder height.",
			},
			Motion:        exercise.Plain("Slowly pull arm down and backwards."),
			Encouragement: "Hold this position!",
			Success:       "Good job! Now bring your arm back up slowly and with control.",
		},
	}
}

func shoulderFlexion() exercise.Definition {
	essentials := armAndHip
	return exercise.Definition{
		ID:                   8,
		Key:                  "shoulder_flexion",
		Code:                 "ShoulderFlexion",
		Name:                 "Shoulder Flexion with Resistance Band",
		Repetitions:          3,
		Sets:                 2,
		RepetitionDuration:   10 * time.Second,
		BufferInterval:       10 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		HoldFrames:           60,
		Leeway:               exercise.Leeway{Tight: 1.5, Loose: 3, Threshold: 40},
		Classifiers: exercise.Classifiers{
			Calibration: present(essentials, 80),
			InPosition: sideOn(essentials, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				if !armHanging(pts, l) {
					return false
				}
				s.SetReference(elbowToHip(pts, l))
				return true
			}),
			RepetitionStart: classify(essentials, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				if armStraightness(pts, l) < 140 {
					return false
				}
				angle := elbowToHip(pts, l)
				// An upper bound filters jumps caused by keypoint jitter.
				if !inRange(angle, s.Ref(0)+10, s.Ref(0)+20) {
					return false
				}
				if !sideOrdered(s, pts[l.Shoulder], pts[l.Elbow], pts[l.Wrist]) {
					return false
				}
				s.SetReference(angle)
				return true
			}),
			InProgress: classify(essentials, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				if armStraightness(pts, l) < 150 {
					return false
				}
				if !sideOrdered(s, pts[l.Shoulder], pts[l.Elbow], pts[l.Wrist]) {
					return false
				}
				return s.TrackHold([]float64{elbowToHip(pts, l)}, exercise.Increasing, 2)
			}),
		},
		Text: exercise.Instructions{
			Calibration: exercise.Plain("Adjust your position such that your affected shoulder and arm can be seen."),
			Start: exercise.SideText{
				Left:         "While facing 90 degrees to the right, step on a resistance band with your left foot and hold the other end of the band in your arm",
				Right:        "While facing 90 degrees to the left, step on a resistance band with your right foot and hold the other end of the band in your arm",
				SwitchToLeft: "Now face the other side, step on a resistance band with your left foot and hold the other end of the band in your arm",
			},
			Motion:        exercise.Plain("While keeping your arm straight, slowly raise the arm forward."),
			Encouragement: "You should feel the muscles at the side and back of the shoulder tighten. Ensure that your neck muscles do not tighten.",
			Success:       "Good job. Now bring your arm back down slowly and with control.",
		},
	}
}

// xReach is the horizontal distance between shoulder and wrist of each arm,
// right first.
func xReach(pts pose.Points) []float64 {
	return []float64{
		geometry.HorizontalDistance(pts[pose.RightShoulder], pts[pose.RightWrist]),
		geometry.HorizontalDistance(pts[pose.LeftShoulder], pts[pose.LeftWrist]),
	}
}

func shoulderHorizontalAbduction() exercise.Definition {
	withHips := bothArms.with(
		func(*exercise.Session) pose.Joint { return pose.RightHip },
		func(*exercise.Session) pose.Joint { return pose.LeftHip },
	)
	return exercise.Definition{
		ID:                   9,
		Key:                  "shoulder_horizontal_abduction",
		Code:                 "ShoulderHorizontalAbduction",
		Name:                 "Shoulder Horizontal Abduction",
		Repetitions:          1,
		Sets:                 1,
		RepetitionDuration:   10 * time.Second,
		BufferInterval:       12 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		HoldFrames:           80,
		Leeway:               exercise.Leeway{Tight: 0.02, Loose: 0.05, Threshold: 40},
		Bilateral:            true,
		Classifiers: exercise.Classifiers{
			Calibration: present(bothArms, 80),
			InPosition: classify(withHips, func(pts pose.Points, s *exercise.Session) bool {
				right := geometry.Angle(pts[pose.RightElbow], pts[pose.RightShoulder], pts[pose.RightHip])
				left := geometry.Angle(pts[pose.LeftElbow], pts[pose.LeftShoulder], pts[pose.LeftHip])
				if !inRange(right, 50, 130) || !inRange(left, 50, 130) {
					return false
				}
				reach := xReach(pts)
				if reach[0] > 0.1 || reach[1] > 0.1 {
					return false
				}
				s.SetReference(reach...)
				return s.Settle(20)
			}),
			RepetitionStart: classify(bothArms, func(pts pose.Points, s *exercise.Session) bool {
				reach := xReach(pts)
				if reach[0] < s.Ref(0)+0.15 || reach[1] < s.Ref(1)+0.15 {
					return false
				}
				s.SetReference(reach...)
				return true
			}),
			InProgress: classify(bothArms, func(pts pose.Points, s *exercise.Session) bool {
				return s.TrackHold(xReach(pts), exercise.Increasing, 0.03)
			}),
		},
		Text: exercise.Instructions{
			Calibration:   exercise.Plain("Face the camera with your shoulders and arms visible."),
			Start:         exercise.Plain("Hold the resistance band with both hands in front of you at shoulder height."),
			Motion:        exercise.Plain("Slowly rotate both your arms outwards."),
			Encouragement: "Rotate out as much as possible!",
			Success:       "Good job! Now bring your arms back to the middle slowly and with control.",
		},
	}
}

func posteriorCapsuleStretch() exercise.Definition {
	joints := armAndHip.with(opposite(elbow), opposite(wrist))
	return exercise.Definition{
		ID:                   3,
		Key:                  "posterior_capsule_stretch",
		Code:                 "PosteriorCapsuleStretch",
		Name:                 "Posterior Capsule Stretch",
		Repetitions:          3,
		Sets:                 2,
		RepetitionDuration:   15 * time.Second,
		BufferInterval:       7 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		Scoring:              exercise.ScoreTimed,
		Leeway:               exercise.Leeway{Tight: 3, Loose: 3},
		Classifiers: exercise.Classifiers{
			Calibration: present(joints, 80),
			InPosition: classify(joints, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				far := pose.LimbFor(s.CurrentSide.Opposite())
				if !sideOrdered(s, pts[l.Shoulder], pts[l.Elbow], pts[l.Wrist]) {
					return false
				}
				// The supporting hand rests on the stretched forearm.
				if !geometry.VerticallySortedAscending(pts[far.Elbow], pts[far.Wrist]) {
					return false
				}
				angle := armToHip(pts, l)
				if !inRange(angle, 60, 110) {
					return false
				}
				s.SetReference(angle)
				return true
			}),
			RepetitionStart: classify(armAndHip, always),
			InProgress: classify(joints, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				if !sideOrdered(s, pts[l.Shoulder], pts[l.Elbow], pts[l.Wrist]) {
					return false
				}
				return inRange(armToHip(pts, l), 75, 110)
			}),
		},
		Text: exercise.Instructions{
			Calibration: exercise.Plain("Face the camera with your arms and hips visible."),
			Start: exercise.SideText{
				Left:  "Lift your left arm across your body and place your right arm at your left forearm",
				Right: "Lift your right arm across your body and place your left arm at your right forearm",
			},
			Motion: exercise.SideText{
				Left:  "Use your right arm to pull your left arm towards your body.",
				Right: "Use your left arm to pull your right arm towards your body.",
			},
			Encouragement: "Hold this position!",
		},
	}
}
