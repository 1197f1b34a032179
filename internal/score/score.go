// Package score derives ranking scores from a lecture's aggregate rating.
//
// Both formulas are fixed weighted blends whose weights sum to 1:
//
//	spice       = 0.7 * mean(difficulty, importance, clarity, usefulness) + 0.3 * quality
//	recommended = 0.4 * importance + 0.3 * usefulness + 0.2 * clarity + 0.1 * difficulty
//
// The quality input comes from a QualityProvider collaborator.
package score

import (
	"context"

	"github.com/spiceapp/spice-server/internal/domain"
)

// Spice weights.
const (
	WeightViewerMean = 0.7
	WeightQuality    = 0.3
)

// Recommended weights.
const (
	WeightImportance = 0.4
	WeightUsefulness = 0.3
	WeightClarity    = 0.2
	WeightDifficulty = 0.1
)

// DefaultQuality is the neutral midpoint used when no provider is configured
// or the provider cannot answer.
const DefaultQuality = 3.5

// QualityProvider supplies an external quality signal in [1,5] per lecture.
type QualityProvider interface {
	Quality(ctx context.Context, lectureID string) (float64, error)
}

// Fixed is a QualityProvider that returns the same value for every lecture.
type Fixed float64

// Quality returns f.
func (f Fixed) Quality(context.Context, string) (float64, error) {
	return float64(f), nil
}

// Spice returns the spice score for agg and quality.
func Spice(agg domain.AggregateRating, quality float64) float64 {
	return WeightViewerMean*agg.Mean() + WeightQuality*quality
}

// Recommended returns the recommended score for agg.
func Recommended(agg domain.AggregateRating) float64 {
	return WeightImportance*agg.Importance +
		WeightUsefulness*agg.Usefulness +
		WeightClarity*agg.Clarity +
		WeightDifficulty*agg.Difficulty
}

// Compute scores a lecture. An unrated lecture scores 0 on both with
// Rated=false.
func Compute(l *domain.Lecture, quality float64) domain.ScoreResult {
	if !l.Rated() || l.Rating.IsZero() {
		return domain.ScoreResult{Quality: quality}
	}
	return domain.ScoreResult{
		Spice:       Spice(l.Rating, quality),
		Recommended: Recommended(l.Rating),
		Quality:     quality,
		Rated:       true,
	}
}

// clampQuality pins q to [MinScore, MaxScore].
func clampQuality(q float64) float64 {
	return min(max(q, domain.MinScore), domain.MaxScore)
}
