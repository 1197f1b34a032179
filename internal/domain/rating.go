package domain

import (
	"fmt"
	"time"
)

// AnonymousUser is recorded when a sample is submitted without a user id.
const AnonymousUser = "anonymous"

// Score bounds for a single dimension.
const (
	MinScore = 1
	MaxScore = 5
)

// Dimension identifies one of the four rated aspects of a lecture.
type Dimension int

// Rating dimensions.
const (
	Difficulty Dimension = iota
	Importance
	Clarity
	Usefulness
)

// Dimensions lists every dimension in canonical order.
var Dimensions = [...]Dimension{Difficulty, Importance, Clarity, Usefulness}

func (d Dimension) String() string {
	switch d {
	case Difficulty:
		return "difficulty"
	case Importance:
		return "importance"
	case Clarity:
		return "clarity"
	case Usefulness:
		return "usefulness"
	default:
		return fmt.Sprintf("dimension(%d)", int(d))
	}
}

// ParseDimension maps a dimension name to its value.
func ParseDimension(s string) (Dimension, bool) {
	for _, d := range Dimensions {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

// Scores is one viewer's integer score per dimension, each in [1,5].
type Scores struct {
	Difficulty int `json:"difficulty" validate:"score"`
	Importance int `json:"importance" validate:"score"`
	Clarity    int `json:"clarity" validate:"score"`
	Usefulness int `json:"usefulness" validate:"score"`
}

// Get returns the score for d.
func (s Scores) Get(d Dimension) int {
	switch d {
	case Difficulty:
		return s.Difficulty
	case Importance:
		return s.Importance
	case Clarity:
		return s.Clarity
	default:
		return s.Usefulness
	}
}

// InRange reports whether every score lies in [MinScore, MaxScore].
func (s Scores) InRange() bool {
	for _, d := range Dimensions {
		if v := s.Get(d); v < MinScore || v > MaxScore {
			return false
		}
	}
	return true
}

// RatingSample is one immutable rating submission.
type RatingSample struct {
	ID        string    `json:"id"`
	LectureID string    `json:"lecture_id"`
	UserID    string    `json:"user_id"`
	Scores    Scores    `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AggregateRating is the per-dimension mean over every sample of a lecture.
// All fields are zero while the lecture is unrated.
type AggregateRating struct {
	Difficulty float64 `json:"difficulty"`
	Importance float64 `json:"importance"`
	Clarity    float64 `json:"clarity"`
	Usefulness float64 `json:"usefulness"`
}

// Get returns the mean for d.
func (a AggregateRating) Get(d Dimension) float64 {
	switch d {
	case Difficulty:
		return a.Difficulty
	case Importance:
		return a.Importance
	case Clarity:
		return a.Clarity
	default:
		return a.Usefulness
	}
}

// Mean returns the unweighted mean of the four dimensions.
func (a AggregateRating) Mean() float64 {
	return (a.Difficulty + a.Importance + a.Clarity + a.Usefulness) / 4
}

// IsZero reports whether a is the unrated state.
func (a AggregateRating) IsZero() bool {
	return a == AggregateRating{}
}

// ComputeAggregate recomputes the aggregate from scratch over samples and
// returns it with the sample count.
func ComputeAggregate(samples []*RatingSample) (AggregateRating, int64) {
	var sums ScoreSums
	for _, s := range samples {
		sums.Add(s.Scores)
	}
	return sums.Aggregate(), sums.Count
}

// ScoreSums accumulates integer per-dimension totals. Integer sums keep the
// resulting mean exact regardless of sample order.
type ScoreSums struct {
	Count      int64
	Difficulty int64
	Importance int64
	Clarity    int64
	Usefulness int64
}

// Add folds one sample into the sums.
func (s *ScoreSums) Add(sc Scores) {
	s.Count++
	s.Difficulty += int64(sc.Difficulty)
	s.Importance += int64(sc.Importance)
	s.Clarity += int64(sc.Clarity)
	s.Usefulness += int64(sc.Usefulness)
}

// Aggregate returns the means, or the zero aggregate when Count is 0.
func (s ScoreSums) Aggregate() AggregateRating {
	if s.Count == 0 {
		return AggregateRating{}
	}
	n := float64(s.Count)
	return AggregateRating{
		Difficulty: float64(s.Difficulty) / n,
		Importance: float64(s.Importance) / n,
		Clarity:    float64(s.Clarity) / n,
		Usefulness: float64(s.Usefulness) / n,
	}
}
