package score

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/spiceapp/spice-server/internal/domain"
)

// annotateConcurrency bounds in-flight provider calls during Annotate.
const annotateConcurrency = 8

// Engine scores lectures using an injected QualityProvider.
type Engine struct {
	provider QualityProvider
	fallback float64
	logger   *slog.Logger
}

// NewEngine creates an Engine. A nil provider means Fixed(DefaultQuality).
func NewEngine(provider QualityProvider, logger *slog.Logger) *Engine {
	if provider == nil {
		provider = Fixed(DefaultQuality)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{provider: provider, fallback: DefaultQuality, logger: logger}
}

// Quality asks the provider for a lecture's quality signal. Provider errors
// and non-finite values fall back to DefaultQuality; out-of-range values are
// clamped.
func (e *Engine) Quality(ctx context.Context, lectureID string) float64 {
	q, err := e.provider.Quality(ctx, lectureID)
	if err != nil {
		e.logger.Warn("quality signal unavailable, using default",
			"lecture_id", lectureID,
			"default", e.fallback,
			"error", err,
		)
		return e.fallback
	}
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return e.fallback
	}
	return clampQuality(q)
}

// Score returns the ScoreResult for l.
func (e *Engine) Score(ctx context.Context, l *domain.Lecture) domain.ScoreResult {
	return Compute(l, e.Quality(ctx, l.ID))
}

// Annotate scores every lecture, preserving order. Provider lookups run
// concurrently unless the provider is Fixed. It only fails if ctx is done.
func (e *Engine) Annotate(ctx context.Context, lectures []*domain.Lecture) ([]domain.ScoredLecture, error) {
	out := make([]domain.ScoredLecture, len(lectures))

	if f, ok := e.provider.(Fixed); ok {
		q := clampQuality(float64(f))
		for i, l := range lectures {
			out[i] = domain.ScoredLecture{Lecture: l, Scores: Compute(l, q)}
		}
		return out, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(annotateConcurrency)
	for i, l := range lectures {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = domain.ScoredLecture{Lecture: l, Scores: e.Score(gctx, l)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
