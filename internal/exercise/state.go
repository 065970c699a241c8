package exercise

import "fmt"

// State is a phase of an exercise.
type State int

const (
	StateInitial State = iota
	StateCalibration
	StateStart
	StateInPosition
	StateRepetition
	StateRepetitionInitial
	StateRepetitionInProgress
	StateRepetitionCompleted
	StateExerciseEnd
	numStates
)

var stateNames = [numStates]string{
	StateInitial:              "Initial",
	StateCalibration:          "Calibration",
	StateStart:                "Start",
	StateInPosition:           "InPosition",
	StateRepetition:           "Repetition",
	StateRepetitionInitial:    "RepetitionInitial",
	StateRepetitionInProgress: "RepetitionInProgress",
	StateRepetitionCompleted:  "RepetitionCompleted",
	StateExerciseEnd:          "ExerciseEnd",
}

// phaseNames are the suffixes used in state descriptions, e.g.
// "ShoulderAbductionInProgress".
var phaseNames = [numStates]string{
	StateInitial:              "Initial",
	StateCalibration:          "Calibration",
	StateStart:                "Start",
	StateInPosition:           "InPosition",
	StateRepetition:           "Repetition",
	StateRepetitionInitial:    "RepetitionInitial",
	StateRepetitionInProgress: "InProgress",
	StateRepetitionCompleted:  "Completed",
	StateExerciseEnd:          "End",
}

func (s State) String() string {
	if s < 0 || s >= numStates {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Phase returns the short phase name used in descriptions.
func (s State) Phase() string {
	if s < 0 || s >= numStates {
		return s.String()
	}
	return phaseNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// transitions lists the permitted successors of each state. Every exercise
// shares this graph.
var transitions = [numStates][]State{
	StateInitial:              {StateCalibration},
	StateCalibration:          {StateInitial, StateStart},
	StateStart:                {StateInitial, StateInPosition, StateRepetitionInitial},
	StateInPosition:           {StateInitial, StateRepetition},
	StateRepetition:           {StateInitial, StateStart, StateRepetitionInitial, StateRepetitionCompleted, StateExerciseEnd},
	StateRepetitionInitial:    {StateInitial, StateRepetitionInProgress, StateRepetitionCompleted, StateExerciseEnd},
	StateRepetitionInProgress: {StateInitial, StateRepetitionCompleted},
	StateRepetitionCompleted:  {StateInitial, StateRepetition, StateStart},
	StateExerciseEnd:          {StateInitial},
}

// CanTransition reports whether to is a declared successor of from.
func CanTransition(from, to State) bool {
	if from < 0 || from >= numStates {
		return false
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Successors returns a copy of the successor set of s.
func Successors(s State) []State {
	if s < 0 || s >= numStates {
		return nil
	}
	return append([]State(nil), transitions[s]...)
}
