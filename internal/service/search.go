package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/spiceapp/spice-server/internal/domain"
	"github.com/spiceapp/spice-server/internal/filter"
	"github.com/spiceapp/spice-server/internal/metrics"
	"github.com/spiceapp/spice-server/internal/search"
	"github.com/spiceapp/spice-server/internal/store"
)

const searchBreakerName = "search-index"

// SearchOptions tunes the circuit breaker around the search index.
type SearchOptions struct {
	// FailureThreshold consecutive index failures open the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// SearchService narrows a lecture set by free text. It asks the Bleve index
// when one is configured and healthy, and always includes plain substring
// matches, so results are a superset of the substring scan. While the
// breaker is open only the scan runs.
type SearchService struct {
	index   *search.Index
	breaker *gobreaker.CircuitBreaker[[]search.Hit]
	logger  *slog.Logger
}

// NewSearchService creates a search service. index may be nil, in which case
// every search is a substring scan.
func NewSearchService(index *search.Index, opts SearchOptions, logger *slog.Logger) *SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	metrics.CircuitBreakerState.WithLabelValues(searchBreakerName).Set(0)

	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[[]search.Hit](gobreaker.Settings{
		Name:        searchBreakerName,
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A caller giving up is not an index failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("search breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &SearchService{index: index, breaker: breaker, logger: logger}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Search returns the items matching query, in input order. A blank query
// returns items unchanged.
func (s *SearchService) Search(ctx context.Context, items []domain.ScoredLecture, query string) []domain.ScoredLecture {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}

	scanned := filter.Search(items, query)
	if s.index == nil || len(items) == 0 {
		metrics.RecordSearch("scan", nil)
		return scanned
	}

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.Lecture.ID
	}
	hits, err := s.breaker.Execute(func() ([]search.Hit, error) {
		return s.index.Search(ctx, query, ids)
	})
	metrics.RecordSearch("index", err)
	if err != nil {
		s.logger.Warn("search index unavailable, using substring scan", "error", err)
		metrics.RecordSearch("scan", nil)
		return scanned
	}

	keep := make(map[string]struct{}, len(hits)+len(scanned))
	for _, h := range hits {
		keep[h.ID] = struct{}{}
	}
	for _, it := range scanned {
		keep[it.Lecture.ID] = struct{}{}
	}
	out := make([]domain.ScoredLecture, 0, len(keep))
	for _, it := range items {
		if _, ok := keep[it.Lecture.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// Reindex refreshes one lecture in the index. Failures are logged only.
func (s *SearchService) Reindex(l *domain.Lecture) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexLecture(l); err != nil {
		s.logger.Warn("failed to index lecture", "lecture_id", l.ID, "error", err)
	}
}

// Bootstrap fills an empty index from the store.
func (s *SearchService) Bootstrap(ctx context.Context, st store.Store) error {
	if s.index == nil {
		return nil
	}
	n, err := s.index.DocumentCount()
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("search index ready", "documents", n)
		return nil
	}

	lectures, err := st.ListLectures(ctx, nil, 0)
	if err != nil {
		return err
	}
	if err := s.index.IndexLectures(lectures); err != nil {
		return err
	}
	s.logger.Info("search index built", "documents", len(lectures))
	return nil
}

// Rebuild drops every indexed document and refills the index from the
// store. It returns the number of lectures indexed.
func (s *SearchService) Rebuild(ctx context.Context, st store.Store) (int, error) {
	if s.index == nil {
		return 0, errors.New("search index disabled")
	}
	if err := s.index.Rebuild(); err != nil {
		return 0, err
	}
	lectures, err := st.ListLectures(ctx, nil, 0)
	if err != nil {
		return 0, err
	}
	if err := s.index.IndexLectures(lectures); err != nil {
		return 0, err
	}
	s.logger.Info("search index rebuilt", "documents", len(lectures))
	return len(lectures), nil
}

// State reports the breaker state, for health output.
func (s *SearchService) State() string {
	if s.index == nil {
		return "disabled"
	}
	return s.breaker.State().String()
}
