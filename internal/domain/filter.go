package domain

import (
	"fmt"
	"strings"
)

// ScoreKind names a derived score. It is a closed set.
type ScoreKind int

// Derived scores.
const (
	ScoreSpice ScoreKind = iota + 1
	ScoreRecommended
)

func (k ScoreKind) String() string {
	switch k {
	case ScoreSpice:
		return "spice"
	case ScoreRecommended:
		return "recommended"
	default:
		return fmt.Sprintf("score(%d)", int(k))
	}
}

// Valid reports whether k is a known score kind.
func (k ScoreKind) Valid() bool {
	return k == ScoreSpice || k == ScoreRecommended
}

// Of returns the value of this score in r.
func (k ScoreKind) Of(r ScoreResult) float64 {
	if k == ScoreRecommended {
		return r.Recommended
	}
	return r.Spice
}

// ParseScoreKind maps "spice" or "recommended" to a ScoreKind.
func ParseScoreKind(s string) (ScoreKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spice":
		return ScoreSpice, nil
	case "recommended":
		return ScoreRecommended, nil
	default:
		return 0, fmt.Errorf("unknown score kind %q", s)
	}
}

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// ScoreRange restricts a derived score to a Range.
type ScoreRange struct {
	Kind ScoreKind
	Range
}

// FilterSpec is a structured, per-request filter. A zero FilterSpec matches
// everything.
//
// Categories combine with AND. Within a category the semantics differ on
// purpose: Tags requires every listed tag, while Lecturers and Courses accept
// any listed value.
type FilterSpec struct {
	Query     string
	Courses   []string
	Lecturers []string
	Tags      []string
	Ranges    map[Dimension]Range
	Score     *ScoreRange
}

// IsEmpty reports whether s places no constraint at all.
func (s FilterSpec) IsEmpty() bool {
	return strings.TrimSpace(s.Query) == "" &&
		len(s.Courses) == 0 &&
		len(s.Lecturers) == 0 &&
		len(s.Tags) == 0 &&
		len(s.Ranges) == 0 &&
		s.Score == nil
}

// Validate rejects inverted ranges and unknown score kinds.
func (s FilterSpec) Validate() error {
	for d, r := range s.Ranges {
		if r.Min > r.Max {
			return fmt.Errorf("%s range min %v exceeds max %v", d, r.Min, r.Max)
		}
	}
	if s.Score != nil {
		if !s.Score.Kind.Valid() {
			return fmt.Errorf("invalid score kind %s", s.Score.Kind)
		}
		if s.Score.Min > s.Score.Max {
			return fmt.Errorf("%s range min %v exceeds max %v", s.Score.Kind, s.Score.Min, s.Score.Max)
		}
	}
	return nil
}
