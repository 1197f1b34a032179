package filter

import (
	"cmp"
	"slices"

	"github.com/spiceapp/spice-server/internal/domain"
)

// Sort returns a copy of items ordered by kind. Ties, and unknown kinds, fall
// back to catalog order (newest upload, then id descending). For score sorts
// unrated lectures come last.
func Sort(items []domain.ScoredLecture, kind domain.SortKind) []domain.ScoredLecture {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b domain.ScoredLecture) int {
		if c := compareBy(kind, a, b); c != 0 {
			return c
		}
		return catalogOrder(a.Lecture, b.Lecture)
	})
	return out
}

func compareBy(kind domain.SortKind, a, b domain.ScoredLecture) int {
	switch kind {
	case domain.SortPopular:
		return cmp.Compare(b.Lecture.ViewCount, a.Lecture.ViewCount)
	case domain.SortMostRated:
		return cmp.Compare(b.Lecture.TotalRatings, a.Lecture.TotalRatings)
	case domain.SortSpice, domain.SortRecommended:
		if a.Scores.Rated != b.Scores.Rated {
			if a.Scores.Rated {
				return -1
			}
			return 1
		}
		sk := domain.ScoreSpice
		if kind == domain.SortRecommended {
			sk = domain.ScoreRecommended
		}
		return cmp.Compare(sk.Of(b.Scores), sk.Of(a.Scores))
	default:
		return 0
	}
}

func catalogOrder(a, b *domain.Lecture) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	default:
		return 0
	}
}

// HighlyRated keeps rated lectures whose four-dimension mean is at least minMean.
func HighlyRated(items []domain.ScoredLecture, minMean float64) []domain.ScoredLecture {
	out := make([]domain.ScoredLecture, 0, len(items))
	for _, it := range items {
		if it.Lecture.Rated() && it.Lecture.Rating.Mean() >= minMean {
			out = append(out, it)
		}
	}
	return out
}
