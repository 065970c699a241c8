package catalog

import (
	"time"

	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/geometry"
	"github.com/claude/movecoach/internal/pose"
)

// rotationRatio is the forearm's horizontal reach relative to the upper
// arm's vertical length, right then left.
func rotationRatio(pts pose.Points) []float64 {
	ratio := func(l pose.Limb) float64 {
		return geometry.HorizontalDistance(pts[l.Elbow], pts[l.Wrist]) /
			geometry.VerticalDistance(pts[l.Elbow], pts[l.Shoulder])
	}
	return []float64{ratio(pose.LimbFor(pose.SideRight)), ratio(pose.LimbFor(pose.SideLeft))}
}

// forearmsOutward reports whether each wrist is outside its elbow.
func forearmsOutward(pts pose.Points) bool {
	for _, side := range []pose.Side{pose.SideRight, pose.SideLeft} {
		l := pose.LimbFor(side)
		if !orderedFor(side, pts[l.Wrist], pts[l.Elbow]) {
			return false
		}
	}
	return true
}

func forearmsLevel(pts pose.Points, tolerance float64) bool {
	for _, side := range []pose.Side{pose.SideRight, pose.SideLeft} {
		l := pose.LimbFor(side)
		if geometry.VerticalDistance(pts[l.Elbow], pts[l.Wrist]) > tolerance {
			return false
		}
	}
	return true
}

func bandedRotation() exercise.Definition {
	return exercise.Definition{
		ID:                   2,
		Key:                  "banded_rotation",
		Code:                 "BandedRotation",
		Name:                 "Banded Rotation with Scapular Retraction",
		Repetitions:          3,
		Sets:                 3,
		RepetitionDuration:   10 * time.Second,
		BufferInterval:       15 * time.Second,
		SetCompletedInterval: 15 * time.Second,
		HoldFrames:           70,
		Leeway:               exercise.Leeway{Tight: 0.1, Loose: 0.3, Threshold: 40},
		Bilateral:            true,
		Classifiers: exercise.Classifiers{
			Calibration: present(bothArms, 80),
			InPosition: classify(bothArms, func(pts pose.Points, s *exercise.Session) bool {
				for _, side := range []pose.Side{pose.SideRight, pose.SideLeft} {
					l := pose.LimbFor(side)
					if geometry.HorizontalDistance(pts[l.Shoulder], pts[l.Wrist]) > 0.1 {
						return false
					}
					bend := geometry.VerticalDistance(pts[l.Wrist], pts[l.Elbow]) /
						geometry.VerticalDistance(pts[l.Wrist], pts[l.Shoulder])
					if !inRange(bend, 0, 0.2) {
						return false
					}
				}
				s.SetReference(rotationRatio(pts)...)
				return true
			}),
			RepetitionStart: classify(bothArms, func(pts pose.Points, s *exercise.Session) bool {
				if !forearmsOutward(pts) {
					return false
				}
				ratios := rotationRatio(pts)
				if ratios[0] < 0.15 || ratios[1] < 0.15 {
					return false
				}
				if !forearmsLevel(pts, 0.1) {
					return false
				}
				s.SetReference(ratios...)
				return true
			}),
			InProgress: classify(bothArms, func(pts pose.Points, s *exercise.Session) bool {
				if !forearmsOutward(pts) || !forearmsLevel(pts, 0.2) {
					s.AngleFrames = 0
					return false
				}
				return s.TrackHold(rotationRatio(pts), exercise.Increasing, 0.2)
			}),
		},
		Text: exercise.Instructions{
			Calibration:   exercise.Plain("Face the camera with your shoulders and arms visible."),
			Start:         exercise.Plain("Hold the band with both hands, elbows bent at 90 degrees and tucked to your sides."),
			Motion:        exercise.Plain("Squeeze your shoulder blades together and rotate your forearms outwards."),
			Encouragement: "Rotate out as much as possible!",
			Success:       "Good job! Now bring your arms back to the middle slowly and with control.",
		},
	}
}

var rotationJoints = limbJoints(shoulder, elbow, wrist).with(opposite(shoulder))

// crossBodyAngle is the angle at the shoulder between the other shoulder and
// the wrist.
func crossBodyAngle(pts pose.Points, s *exercise.Session) float64 {
	l := s.Limb()
	far := pose.LimbFor(s.CurrentSide.Opposite())
	return geometry.Angle(pts[far.Shoulder], pts[l.Shoulder], pts[l.Wrist])
}

func elbowAngle(pts pose.Points, l pose.Limb) float64 {
	return limbAngle(pts, l, shoulder, elbow, wrist)
}

func externalRotation() exercise.Definition {
	return exercise.Definition{
		ID:                   4,
		Key:                  "external_rotation",
		Code:                 "ExternalRotation",
		Name:                 "External Rotation with Resistance Band",
		Repetitions:          1,
		Sets:                 1,
		RepetitionDuration:   10 * time.Second,
		BufferInterval:       10 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		HoldFrames:           60,
		Leeway:               exercise.Leeway{Tight: 1.5, Loose: 3, Threshold: 40},
		Classifiers: exercise.Classifiers{
			Calibration: present(rotationJoints, 180),
			InPosition: classify(rotationJoints, func(pts pose.Points, s *exercise.Session) bool {
				if !inRange(elbowAngle(pts, s.Limb()), 50, 160) {
					return false
				}
				angle := crossBodyAngle(pts, s)
				if !inRange(angle, 70, 105) {
					return false
				}
				s.SetReference(angle)
				return s.Settle(20)
			}),
			RepetitionStart: classify(rotationJoints, func(pts pose.Points, s *exercise.Session) bool {
				angle := crossBodyAngle(pts, s)
				if angle < s.Ref(0)+20 {
					return false
				}
				s.SetReference(angle)
				return true
			}),
			InProgress: classify(rotationJoints, func(pts pose.Points, s *exercise.Session) bool {
				return s.TrackHold([]float64{crossBodyAngle(pts, s)}, exercise.Increasing, 3)
			}),
		},
		Text: exercise.Instructions{
			Calibration: exercise.Plain("Tie resistance band higher up onto secure structure, place a towel between elbow and body, and adjust your position such that your shoulders and arms can be seen."),
			Start: exercise.SideText{
				Left:         "Hold the other end of the band in your left arm, and keep your elbow in contact with your body at all times.",
				Right:        "Hold the other end of the band in your right arm, and keep your elbow in contact with your body at all times.",
				SwitchToLeft: "Now hold the other end of the band in your left arm, and keep your elbow in contact with your body at all times.",
			},
			Motion:        exercise.Plain("Slowly rotate your arm outwards."),
			Encouragement: "Try to rotate your arm outwards as much as possible.",
			Success:       "Good job! Now bring your arm back to the middle slowly and with control.",
		},
	}
}

func internalRotation() exercise.Definition {
	return exercise.Definition{
		ID:                   5,
		Key:                  "internal_rotation",
		Code:                 "InternalRotation",
		Name:                 "Internal Rotation with Resistance Band",
		Repetitions:          1,
		Sets:                 1,
		RepetitionDuration:   10 * time.Second,
		BufferInterval:       10 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		HoldFrames:           50,
		Leeway:               exercise.Leeway{Tight: 1.5, Loose: 3, Threshold: 30},
		Classifiers: exercise.Classifiers{
			Calibration: present(rotationJoints, 180),
			InPosition: classify(rotationJoints, func(pts pose.Points, s *exercise.Session) bool {
				if !inRange(elbowAngle(pts, s.Limb()), 50, 160) {
					return false
				}
				angle := crossBodyAngle(pts, s)
				if !inRange(angle, 120, 180) {
					return false
				}
				s.SetReference(angle)
				return s.Settle(20)
			}),
			RepetitionStart: classify(rotationJoints, func(pts pose.Points, s *exercise.Session) bool {
				angle := crossBodyAngle(pts, s)
				if angle > s.Ref(0)-20 {
					return false
				}
				s.SetReference(angle)
				return true
			}),
			InProgress: classify(rotationJoints, func(pts pose.Points, s *exercise.Session) bool {
				return s.TrackHold([]float64{crossBodyAngle(pts, s)}, exercise.Decreasing, 3)
			}),
		},
		Text: exercise.Instructions{
			Calibration: exercise.Plain("Tie resistance band onto a secure structure at elbow height, place a towel between elbow and body, and adjust your position such that your shoulders and arms can be seen."),
			Start: exercise.SideText{
				Left:         "Hold the other end of the band in your left arm, and keep your elbow in contact with your body at all times.",
				Right:        "Hold the other end of the band in your right arm, and keep your elbow in contact with your body at all times.",
				SwitchToLeft: "Now hold the other end of the band in your left arm, and keep your elbow in contact with your body at all times.",
			},
			Motion:        exercise.Plain("Slowly rotate your arm inwards across your body."),
			Encouragement: "Try to rotate your arm inwards as much as possible.",
			Success:       "Good job! Now bring your arm back out slowly and with control.",
		},
	}
}

var bicepsJoints = limbJoints(shoulder, elbow, wrist, hip, knee, ankle)

func bicepsFlexion() exercise.Definition {
	return exercise.Definition{
		ID:                   1,
		Key:                  "biceps_flexion",
		Code:                 "BicepsFlexion",
		Name:                 "Biceps Flexion with Resistance Band",
		Repetitions:          3,
		Sets:                 2,
		RepetitionDuration:   10 * time.Second,
		BufferInterval:       15 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		HoldFrames:           70,
		Leeway:               exercise.Leeway{Tight: 1.5, Loose: 3, Threshold: 40},
		Classifiers: exercise.Classifiers{
			Calibration: present(bicepsJoints, 0),
			InPosition: classify(bicepsJoints, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				if !sideOrdered(s, pts[l.Hip], pts[l.Knee]) {
					return false
				}
				if !armHanging(pts, l) {
					return false
				}
				if !inRange(limbAngle(pts, l, hip, knee, ankle), 70, 105) {
					return false
				}
				if !geometry.VerticallySortedAscending(pts[l.Wrist], pts[l.Knee]) {
					return false
				}
				arm := armStraightness(pts, l)
				if arm < 140 {
					return false
				}
				s.SetReference(arm)
				return s.Settle(30)
			}),
			RepetitionStart: classify(bicepsJoints, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				if !sideOrdered(s, pts[l.Hip], pts[l.Ankle]) {
					return false
				}
				arm := armStraightness(pts, l)
				if arm > s.Ref(0)-5 {
					return false
				}
				s.SetReference(arm)
				return true
			}),
			InProgress: classify(bicepsJoints, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				if !sideOrdered(s, pts[l.Hip], pts[l.Ankle]) {
					return false
				}
				return s.TrackHold([]float64{armStraightness(pts, l)}, exercise.Decreasing, 2)
			}),
		},
		Text: exercise.Instructions{
			Calibration: exercise.Plain("Adjust your position such that your affected arm and corresponding leg and hip are clearly visible."),
			Start: exercise.SideText{
				Left:         "While facing 90 degrees to the right, use your left leg to step on the resistance band and hold the band securely in your left hand.",
				Right:        "While facing 90 degrees to the left, use your right leg to step on the resistance band and hold the band securely in your right hand.",
				SwitchToLeft: "Now turn to the other side, use your left leg to step on the resistance band and hold the band securely in your left hand.",
			},
			Motion:        exercise.Plain("Slowly bend your arm upwards around the elbow joint"),
			Encouragement: "Move slowly and focus on the tightening of the muscle at the front of your arm.",
			Success:       "Good job! Now lower your arm slowly and with control.",
		},
	}
}
