package catalog

import (
	"time"

	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/pose"
)

var legJoints = limbJoints(hip, knee, ankle)

// legAngle is the angle at the knee.
func legAngle(pts pose.Points, l pose.Limb) float64 {
	return limbAngle(pts, l, hip, knee, ankle)
}

func standingKneeBend() exercise.Definition {
	return exercise.Definition{
		ID:                   10,
		Key:                  "standing_knee_bend",
		Code:                 "StandingKneeBend",
		Name:                 "Standing Knee Bend",
		Repetitions:          1,
		Sets:                 1,
		RepetitionDuration:   5 * time.Second,
		BufferInterval:       10 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		Scoring:              exercise.ScoreTimed,
		Leeway:               exercise.Leeway{Tight: 3, Loose: 3},
		Classifiers: exercise.Classifiers{
			Calibration: present(legJoints, 80),
			InPosition: classify(legJoints, func(pts pose.Points, s *exercise.Session) bool {
				return inRange(legAngle(pts, s.Limb()), 150, 180)
			}),
			RepetitionStart: classify(legJoints, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				if !sideOrdered(s, pts[l.Knee], pts[l.Ankle]) {
					return false
				}
				return inRange(legAngle(pts, l), 0, 90)
			}),
			InProgress: classify(legJoints, func(pts pose.Points, s *exercise.Session) bool {
				l := s.Limb()
				if !sideOrdered(s, pts[l.Knee], pts[l.Ankle]) {
					return false
				}
				return inRange(legAngle(pts, l), 0, 100)
			}),
		},
		Text: exercise.Instructions{
			Calibration: exercise.Plain("Ensure that your entire leg can be seen in the frame."),
			Start: exercise.SideText{
				Left:         "Turn 90 degrees such that your left leg is facing the camera and hold onto a support infront of you.",
				Right:        "Turn 90 degrees such that your right leg is facing the camera and hold onto a support infront of you.",
				SwitchToLeft: "Now turn to the other side, ensuring that your left leg is facing the camera.",
			},
			Motion: exercise.SideText{
				Left:  "Bend your left knee to about 90 degrees.",
				Right: "Bend your right knee to about 90 degrees.",
			},
			Encouragement: "Hold this position!",
		},
	}
}

// seatedKnee builds the shared shape of the assisted knee exercises. dir is
// the direction the knee angle moves during the repetition.
func seatedKnee(dir exercise.Direction) exercise.Classifiers {
	return exercise.Classifiers{
		Calibration: present(legJoints, 80),
		InPosition: classify(legJoints, func(pts pose.Points, s *exercise.Session) bool {
			angle := legAngle(pts, s.Limb())
			if !inRange(angle, 75, 105) {
				return false
			}
			s.SetReference(angle)
			return s.Settle(50)
		}),
		RepetitionStart: classify(legJoints, func(pts pose.Points, s *exercise.Session) bool {
			angle := legAngle(pts, s.Limb())
			if dir == exercise.Increasing && angle < s.Ref(0)+5 {
				return false
			}
			if dir == exercise.Decreasing && angle > s.Ref(0)-5 {
				return false
			}
			s.SetReference(angle)
			return true
		}),
		InProgress: classify(legJoints, func(pts pose.Points, s *exercise.Session) bool {
			return s.TrackHold([]float64{legAngle(pts, s.Limb())}, dir, 3)
		}),
	}
}

func assistedKneeExtension() exercise.Definition {
	return exercise.Definition{
		ID:                   11,
		Key:                  "assisted_knee_extension",
		Code:                 "AssistedKneeExtension",
		Name:                 "Assisted Knee Extension",
		Repetitions:          1,
		Sets:                 1,
		RepetitionDuration:   10 * time.Second,
		BufferInterval:       10 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		HoldFrames:           120,
		Leeway:               exercise.Leeway{Tight: 1.5, Loose: 3, Threshold: 40},
		Classifiers:          seatedKnee(exercise.Increasing),
		Text: exercise.Instructions{
			Calibration: exercise.Plain("While seated, ensure that your entire injured leg can be seen in the frame."),
			Start: exercise.SideText{
				Left:         "Turn 90 degrees such that your left leg is facing the camera and bent at 90 degrees. Place your right leg behind your left leg.",
				Right:        "Turn 90 degrees such that your right leg is facing the camera and bent at 90 degrees. Place your left leg behind your right leg.",
				SwitchToLeft: "Now turn to the other side such that your left leg is facing the camera and bent at 90 degrees. Place your right leg behind your left leg.",
			},
			Motion: exercise.SideText{
				Left:  "Use your right leg to push your left leg upwards.",
				Right: "Use your left leg to push your right leg upwards.",
			},
			Encouragement: "Once your legs are pushed to the limit, hold it at the position!",
			Success:       "Good job! Now slowly lower your leg.",
		},
	}
}

func assistedKneeFlexion() exercise.Definition {
	return exercise.Definition{
		ID:                   12,
		Key:                  "assisted_knee_flexion",
		Code:                 "AssistedKneeFlexion",
		Name:                 "Assisted Knee Flexion",
		Repetitions:          1,
		Sets:                 1,
		RepetitionDuration:   5 * time.Second,
		BufferInterval:       10 * time.Second,
		SetCompletedInterval: 10 * time.Second,
		HoldFrames:           120,
		Leeway:               exercise.Leeway{Tight: 1.5, Loose: 3, Threshold: 40},
		Classifiers:          seatedKnee(exercise.Decreasing),
		Text: exercise.Instructions{
			Calibration: exercise.Plain("While seated, ensure that your entire injured leg can be seen in the frame."),
			Start: exercise.SideText{
				Left:         "Turn 90 degrees such that your left leg is facing the camera and bent at 90 degrees. Place your right leg infront of your left leg.",
				Right:        "Turn 90 degrees such that your right leg is facing the camera and bent at 90 degrees. Place your left leg infront of your right leg.",
				SwitchToLeft: "Now turn to the other side such that your left leg is facing the camera and bent at 90 degrees. Place your right leg infront of your left leg.",
			},
			Motion: exercise.SideText{
				Left:  "Use your right leg to push your left leg inwards.",
				Right: "Use your left leg to push your right leg inwards.",
			},
			Encouragement: "Once your legs are pushed to the limit, hold it at the position!",
			Success:       "Good job! Now slowly release your leg.",
		},
	}
}
