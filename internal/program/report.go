package program

import "github.com/claude/movecoach/internal/exercise"

// Category is a step of the visual analogue scale, from Laugh (best) to
// OpenFrown (worst).
type Category int

const (
	Laugh Category = iota + 1
	Smile
	Meh
	Frown
	OpenFrown
)

func (c Category) String() string {
	switch c {
	case Laugh:
		return "laugh"
	case Smile:
		return "smile"
	case Meh:
		return "meh"
	case Frown:
		return "frown"
	default:
		return "open_frown"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

var feedback = map[Category]string{
	Laugh:     "Great job! You have over 80% completed repetitions!",
	Smile:     "Good job! You have over 60% completed repetitions!",
	Meh:       "You have over 40% completed repetitions!",
	Frown:     "You have less than 40% completed repetitions, try harder next time!",
	OpenFrown: "You have less than 20% completed repetitions, try harder next time!",
}

// Rate maps a completed fraction to its category. Bounds are exclusive:
// exactly 0.8 is Smile.
func Rate(fraction float64) Category {
	switch {
	case fraction > 0.8:
		return Laugh
	case fraction > 0.6:
		return Smile
	case fraction > 0.4:
		return Meh
	case fraction > 0.2:
		return Frown
	default:
		return OpenFrown
	}
}

// Report is the end-of-program feedback.
type Report struct {
	CompletedRepetitions int                `json:"completed_repetitions"`
	TotalRepetitions     int                `json:"total_repetitions"`
	Fraction             float64            `json:"fraction"`
	Category             Category           `json:"category"`
	Feedback             string             `json:"feedback"`
	Exercises            []exercise.Summary `json:"exercises"`
}

// Evaluate totals repetitions across summaries and rates the result.
// Completed repetitions count at most up to each exercise's target.
func Evaluate(summaries []exercise.Summary) Report {
	r := Report{Exercises: summaries}
	for _, s := range summaries {
		r.TotalRepetitions += s.TotalRepetitions
		r.CompletedRepetitions += min(s.CompletedRepetitions, s.TotalRepetitions)
	}
	if r.TotalRepetitions > 0 {
		r.Fraction = float64(r.CompletedRepetitions) / float64(r.TotalRepetitions)
	}
	r.Category = Rate(r.Fraction)
	r.Feedback = feedback[r.Category]
	return r
}
