package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/spiceapp/spice-server/internal/domain"
	domainerrors "github.com/spiceapp/spice-server/internal/errors"
	"github.com/spiceapp/spice-server/internal/filter"
	"github.com/spiceapp/spice-server/internal/id"
	"github.com/spiceapp/spice-server/internal/metrics"
	"github.com/spiceapp/spice-server/internal/score"
	"github.com/spiceapp/spice-server/internal/store"
	"github.com/spiceapp/spice-server/internal/validation"
)

// Limits for RecentRatings.
const (
	DefaultRecentRatings = 50
	MaxRecentRatings     = 500
)

// lectureIDPattern keeps ids safe inside store keys and URL paths.
var lectureIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// CatalogOptions configures CatalogService.
type CatalogOptions struct {
	HighlyRatedMin     float64
	RecentRatingsLimit int
}

// CreateLectureRequest contains fields for cataloging a lecture.
type CreateLectureRequest struct {
	// ID is optional; one is generated when empty.
	ID              string     `json:"id" validate:"omitempty,max=64"`
	Title           string     `json:"title" validate:"required,max=300"`
	Description     string     `json:"description" validate:"max=5000"`
	Lecturer        string     `json:"lecturer" validate:"required,max=200"`
	Course          string     `json:"course" validate:"max=100"`
	Tags            []string   `json:"tags" validate:"max=32,dive,required,max=64"`
	DurationSeconds int64      `json:"duration_seconds" validate:"gte=0"`
	UploadedAt      *time.Time `json:"uploaded_at"`
	ThumbnailURL    string     `json:"thumbnail_url" validate:"omitempty,url"`
	Prerequisites   []string   `json:"prerequisites" validate:"max=32,dive,required,max=64"`
}

// ScoredPage is a catalog page with derived scores attached.
type ScoredPage = store.PaginatedResult[domain.ScoredLecture]

// CatalogService orchestrates lecture reads and writes outside of rating.
type CatalogService struct {
	store     store.Store
	pager     *Pager
	engine    *score.Engine
	reindexer Reindexer
	validator *validation.Validator
	opts      CatalogOptions
	logger    *slog.Logger
	now       func() time.Time
}

// NewCatalogService creates a catalog service. reindexer may be nil.
func NewCatalogService(s store.Store, pager *Pager, engine *score.Engine, reindexer Reindexer, opts CatalogOptions, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.HighlyRatedMin <= 0 {
		opts.HighlyRatedMin = filter.DefaultHighlyRatedMin
	}
	if opts.RecentRatingsLimit <= 0 {
		opts.RecentRatingsLimit = DefaultRecentRatings
	}
	return &CatalogService{
		store:     s,
		pager:     pager,
		engine:    engine,
		reindexer: reindexer,
		validator: validation.New(),
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateLecture validates req and stores a new lecture with zeroed stats.
func (s *CatalogService) CreateLecture(ctx context.Context, req CreateLectureRequest) (*domain.Lecture, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Lecturer = strings.TrimSpace(req.Lecturer)
	req.Course = strings.TrimSpace(req.Course)
	req.Tags = normalizeList(req.Tags)
	req.Prerequisites = normalizeList(req.Prerequisites)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lectureID := strings.TrimSpace(req.ID)
	if lectureID == "" {
		var err error
		if lectureID, err = id.Generate(id.PrefixLecture); err != nil {
			return nil, domainerrors.Internal("failed to generate lecture id").WithCause(err)
		}
	} else if !lectureIDPattern.MatchString(lectureID) {
		return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"id": "may only contain letters, digits, '-' and '_'",
		})
	}

	l := &domain.Lecture{
		Title:           req.Title,
		Description:     req.Description,
		Lecturer:        req.Lecturer,
		Course:          req.Course,
		Tags:            req.Tags,
		DurationSeconds: req.DurationSeconds,
		ThumbnailURL:    req.ThumbnailURL,
		Prerequisites:   req.Prerequisites,
	}
	l.ID = lectureID
	l.InitTimestamps()
	if req.UploadedAt != nil {
		l.UploadedAt = req.UploadedAt.UTC()
	} else {
		l.UploadedAt = l.CreatedAt
	}

	if err := s.store.CreateLecture(ctx, l); err != nil {
		return nil, err
	}
	if s.reindexer != nil {
		s.reindexer.Reindex(l)
	}

	s.logger.Info("lecture created", "lecture_id", l.ID, "course", l.Course)
	return l, nil
}

// normalizeList trims entries and drops blanks and duplicates, keeping order.
func normalizeList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// GetLecture returns a lecture with its scores and counts the view. A failed
// view increment is logged and does not fail the read.
func (s *CatalogService) GetLecture(ctx context.Context, lectureID string) (*domain.ScoredLecture, error) {
	l, err := s.store.GetLecture(ctx, lectureID)
	if err != nil {
		return nil, err
	}

	if views, err := s.store.IncrementViewCount(ctx, lectureID); err != nil {
		metrics.ViewIncrementFailures.Inc()
		s.logger.Warn("failed to increment view count", "lecture_id", lectureID, "error", err)
	} else {
		l.ViewCount = views
	}

	return &domain.ScoredLecture{Lecture: l, Scores: s.engine.Score(ctx, l)}, nil
}

// Score returns the derived scores for l.
func (s *CatalogService) Score(ctx context.Context, l *domain.Lecture) domain.ScoreResult {
	return s.engine.Score(ctx, l)
}

// Page returns one scored catalog page.
func (s *CatalogService) Page(ctx context.Context, pageSize int, cursor string) (*ScoredPage, error) {
	page, err := s.pager.GetPage(ctx, pageSize, cursor)
	if err != nil {
		return nil, err
	}
	items, err := s.engine.Annotate(ctx, page.Items)
	if err != nil {
		return nil, err
	}
	return &ScoredPage{Items: items, NextCursor: page.NextCursor, HasMore: page.HasMore}, nil
}

// CountLectures returns the catalog size.
func (s *CatalogService) CountLectures(ctx context.Context) (int, error) {
	return s.store.CountLectures(ctx)
}

// RecentRatings returns the newest samples across the catalog. A
// non-positive limit uses the configured default.
func (s *CatalogService) RecentRatings(ctx context.Context, limit int) ([]*domain.RatingSample, error) {
	if limit <= 0 {
		limit = s.opts.RecentRatingsLimit
	}
	limit = min(limit, MaxRecentRatings)
	return s.store.RecentRatings(ctx, limit)
}

// Categories builds the browse categories from the first catalog page and
// the full catalog.
func (s *CatalogService) Categories(ctx context.Context) (*filter.Categories, error) {
	page, err := s.Page(ctx, 0, "")
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListLectures(ctx, nil, 0)
	if err != nil {
		return nil, err
	}
	working, err := s.engine.Annotate(ctx, all)
	if err != nil {
		return nil, err
	}
	c := filter.Categorize(page.Items, working, s.opts.HighlyRatedMin)
	return &c, nil
}

// HighlyRatedMin returns the configured highly-rated threshold.
func (s *CatalogService) HighlyRatedMin() float64 {
	return s.opts.HighlyRatedMin
}
