package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/spiceapp/spice-server/internal/domain"
	domainerrors "github.com/spiceapp/spice-server/internal/errors"
	"github.com/spiceapp/spice-server/internal/id"
	"github.com/spiceapp/spice-server/internal/metrics"
	"github.com/spiceapp/spice-server/internal/store"
	"github.com/spiceapp/spice-server/internal/validation"
)

// Limiter decides whether a client may submit another rating now.
type Limiter interface {
	Allow(key string) bool
}

// Reindexer refreshes a lecture's search document.
type Reindexer interface {
	Reindex(l *domain.Lecture)
}

// SubmitRatingRequest is one viewer rating.
type SubmitRatingRequest struct {
	LectureID string        `json:"lecture_id" validate:"required,max=64"`
	UserID    string        `json:"user_id" validate:"omitempty,max=128"`
	Scores    domain.Scores `json:"rating"`
	Comment   string        `json:"comment" validate:"max=2000"`

	// ClientKey identifies the caller for rate limiting, e.g. a remote
	// address. Empty disables limiting for the call.
	ClientKey string `json:"-"`
}

// RatingService records rating samples.
//
// Submissions for the same lecture are serialized in-process, and every
// backend applies the append and the aggregate rewrite atomically, so two
// concurrent raters cannot overwrite each other's aggregate.
type RatingService struct {
	store     store.Store
	locks     *keyedMutex
	limiter   Limiter
	reindexer Reindexer
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewRatingService creates a rating service. limiter and reindexer may be nil.
func NewRatingService(s store.Store, limiter Limiter, reindexer Reindexer, logger *slog.Logger) *RatingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RatingService{
		store:     s,
		locks:     newKeyedMutex(),
		limiter:   limiter,
		reindexer: reindexer,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// SubmitRating validates req, appends the sample and returns the lecture
// with its recomputed aggregate. Invalid scores are rejected before any
// write. On error nothing was applied.
func (s *RatingService) SubmitRating(ctx context.Context, req SubmitRatingRequest) (*domain.Lecture, error) {
	start := s.now()

	if err := s.validator.Validate(req); err != nil {
		metrics.RecordRating(metrics.ResultValidation, 0)
		return nil, err
	}
	if req.ClientKey != "" && s.limiter != nil && !s.limiter.Allow(req.ClientKey) {
		metrics.RecordRating(metrics.ResultRateLimited, 0)
		return nil, domainerrors.RateLimited("too many ratings, try again shortly")
	}

	ratingID, err := id.Generate(id.PrefixRating)
	if err != nil {
		metrics.RecordRating(metrics.ResultError, 0)
		return nil, domainerrors.Internal("failed to generate rating id").WithCause(err)
	}
	userID := req.UserID
	if userID == "" {
		userID = domain.AnonymousUser
	}
	sample := &domain.RatingSample{
		ID:        ratingID,
		LectureID: req.LectureID,
		UserID:    userID,
		Scores:    req.Scores,
		Comment:   req.Comment,
		CreatedAt: s.now().UTC(),
	}

	unlock, err := s.locks.Lock(ctx, req.LectureID)
	if err != nil {
		metrics.RecordRating(metrics.ResultError, 0)
		return nil, err
	}
	updated, err := s.store.RecordRating(ctx, sample)
	unlock()
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			metrics.RecordRating(metrics.ResultNotFound, 0)
		} else {
			metrics.RecordRating(metrics.ResultError, 0)
			s.logger.Error("failed to record rating", "lecture_id", req.LectureID, "error", err)
		}
		return nil, err
	}

	metrics.RecordRating(metrics.ResultOK, s.now().Sub(start))
	if s.reindexer != nil {
		s.reindexer.Reindex(updated)
	}

	s.logger.Info("rating submitted",
		"lecture_id", updated.ID,
		"rating_id", sample.ID,
		"total_ratings", updated.TotalRatings,
	)
	return updated, nil
}

// ListRatings returns a lecture's samples, oldest first.
func (s *RatingService) ListRatings(ctx context.Context, lectureID string) ([]*domain.RatingSample, error) {
	return s.store.ListRatings(ctx, lectureID)
}
