// Package filter narrows and orders in-memory lecture sets.
//
// Apply composes a FilterSpec into a single predicate. Search is the naive
// full-scan fallback used when no index is available. Both preserve input
// order and never mutate their input.
package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/spiceapp/spice-server/internal/domain"
)

// matcher folds case once per call; cases.Caser is not safe for concurrent use.
type matcher struct {
	fold cases.Caser
}

func newMatcher() *matcher {
	return &matcher{fold: cases.Fold()}
}

func (m *matcher) key(s string) string {
	return m.fold.String(strings.TrimSpace(s))
}

// contains reports a case-insensitive substring match. needle is pre-folded.
func (m *matcher) contains(haystack, needle string) bool {
	return strings.Contains(m.fold.String(haystack), needle)
}

// matchesText reports whether the folded needle occurs in any searchable field.
func (m *matcher) matchesText(l *domain.Lecture, needle string) bool {
	if m.contains(l.Title, needle) ||
		m.contains(l.Description, needle) ||
		m.contains(l.Lecturer, needle) ||
		m.contains(l.Course, needle) {
		return true
	}
	for _, tag := range l.Tags {
		if m.contains(tag, needle) {
			return true
		}
	}
	return false
}

// Apply returns the lectures that satisfy every category present in spec.
// An empty spec returns the input unchanged.
func Apply(items []domain.ScoredLecture, spec domain.FilterSpec) []domain.ScoredLecture {
	if spec.IsEmpty() {
		return items
	}
	pred := Compile(spec)
	out := make([]domain.ScoredLecture, 0, len(items))
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}

// Predicate reports whether a scored lecture passes a filter.
type Predicate func(domain.ScoredLecture) bool

// Compile builds the predicate for spec. Categories are ANDed; an absent or
// empty category is skipped.
func Compile(spec domain.FilterSpec) Predicate {
	m := newMatcher()
	var checks []Predicate

	if q := m.key(spec.Query); q != "" {
		checks = append(checks, func(it domain.ScoredLecture) bool {
			return m.matchesText(it.Lecture, q)
		})
	}

	if len(spec.Tags) > 0 {
		// Every requested tag must be present.
		want := make([]string, 0, len(spec.Tags))
		for _, t := range spec.Tags {
			if k := m.key(t); k != "" {
				want = append(want, k)
			}
		}
		if len(want) > 0 {
			checks = append(checks, func(it domain.ScoredLecture) bool {
				have := make(map[string]struct{}, len(it.Lecture.Tags))
				for _, t := range it.Lecture.Tags {
					have[m.key(t)] = struct{}{}
				}
				for _, t := range want {
					if _, ok := have[t]; !ok {
						return false
					}
				}
				return true
			})
		}
	}

	if set := oneOf(spec.Lecturers); set != nil {
		checks = append(checks, func(it domain.ScoredLecture) bool {
			_, ok := set[it.Lecture.Lecturer]
			return ok
		})
	}

	if set := oneOf(spec.Courses); set != nil {
		checks = append(checks, func(it domain.ScoredLecture) bool {
			_, ok := set[it.Lecture.Course]
			return ok
		})
	}

	for _, d := range domain.Dimensions {
		r, ok := spec.Ranges[d]
		if !ok {
			continue
		}
		checks = append(checks, func(it domain.ScoredLecture) bool {
			return r.Contains(it.Lecture.Rating.Get(d))
		})
	}

	if sr := spec.Score; sr != nil {
		kind, rng := sr.Kind, sr.Range
		checks = append(checks, func(it domain.ScoredLecture) bool {
			return rng.Contains(kind.Of(it.Scores))
		})
	}

	return func(it domain.ScoredLecture) bool {
		for _, c := range checks {
			if !c(it) {
				return false
			}
		}
		return true
	}
}

// oneOf builds an exact-match set, or nil when values holds nothing usable.
func oneOf(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// Search returns the lectures whose title, lecturer, course, description or
// any tag contains query, ignoring case. A blank query returns the input.
func Search(items []domain.ScoredLecture, query string) []domain.ScoredLecture {
	m := newMatcher()
	q := m.key(query)
	if q == "" {
		return items
	}
	out := make([]domain.ScoredLecture, 0, len(items))
	for _, it := range items {
		if m.matchesText(it.Lecture, q) {
			out = append(out, it)
		}
	}
	return out
}
