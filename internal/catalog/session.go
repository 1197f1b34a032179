// Package catalog holds per-caller browsing sessions over the lecture
// catalog. A Session pages lectures in, scores them and narrows the result
// by filters, search text and sort order. Failed stages leave the session in
// a retryable state instead of returning an error to the caller.
package catalog

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/spiceapp/spice-server/internal/domain"
	domainerrors "github.com/spiceapp/spice-server/internal/errors"
	"github.com/spiceapp/spice-server/internal/filter"
	"github.com/spiceapp/spice-server/internal/service"
)

// ErrSessionClosed is returned by every call on a disposed session.
var ErrSessionClosed = &domainerrors.Error{Code: domainerrors.CodeClosed, Message: "session closed"}

// Stage names recorded in State.Op.
const (
	OpLoadInitial = "load_initial"
	OpLoadMore    = "load_more"
)

// PageSource fetches catalog pages.
type PageSource interface {
	GetPage(ctx context.Context, pageSize int, cursor string) (*service.Page, error)
}

// Scorer attaches derived scores to lectures, preserving order.
type Scorer interface {
	Annotate(ctx context.Context, lectures []*domain.Lecture) ([]domain.ScoredLecture, error)
}

// Searcher narrows items by free text, preserving order.
type Searcher interface {
	Search(ctx context.Context, items []domain.ScoredLecture, query string) []domain.ScoredLecture
}

type scanSearcher struct{}

func (scanSearcher) Search(_ context.Context, items []domain.ScoredLecture, query string) []domain.ScoredLecture {
	return filter.Search(items, query)
}

// State reports whether the last stage failed. A failed session shows an
// empty view until Retry succeeds.
type State struct {
	Failed    bool
	Retryable bool
	Op        string
	Err       error
}

// Snapshot is a copy of what the session currently displays.
type Snapshot struct {
	Items    []domain.ScoredLecture
	HasMore  bool
	Loaded   int
	Filtered bool
	Query    string
	Sort     domain.SortKind
	State    State
}

// Options configures a Session.
type Options struct {
	HighlyRatedMin float64
}

// Session is one caller's view of the catalog.
//
// The working set holds every lecture paged in so far, in catalog order. The
// view is the working set after filters, search and sort. While no filter or
// search is active and the sort is by recency, the view is the whole working
// set and new pages are appended to it directly; otherwise the view is
// re-derived from the working set.
//
// A Session belongs to one logical caller. Calls are serialized by an
// internal mutex.
type Session struct {
	mu sync.Mutex

	pages          PageSource
	scorer         Scorer
	searcher       Searcher
	highlyRatedMin float64
	logger         *slog.Logger

	working []domain.ScoredLecture
	view    []domain.ScoredLecture
	cursor  string
	hasMore bool
	loaded  bool

	spec  domain.FilterSpec
	query string
	sort  domain.SortKind

	state  State
	retry  func(context.Context) error
	closed bool
}

// NewSession creates an empty session. searcher may be nil, in which case
// search is a substring scan.
func NewSession(pages PageSource, scorer Scorer, searcher Searcher, opts Options, logger *slog.Logger) *Session {
	if searcher == nil {
		searcher = scanSearcher{}
	}
	if opts.HighlyRatedMin <= 0 {
		opts.HighlyRatedMin = filter.DefaultHighlyRatedMin
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		pages:          pages,
		scorer:         scorer,
		searcher:       searcher,
		highlyRatedMin: opts.HighlyRatedMin,
		logger:         logger,
		view:           []domain.ScoredLecture{},
		sort:           domain.SortRecent,
	}
}

// LoadInitialPage discards everything paged in so far and loads the first
// page. Active filters, search text and sort are kept.
func (s *Session) LoadInitialPage(ctx context.Context, pageSize int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}

	s.run(ctx, OpLoadInitial, func(ctx context.Context) error {
		return s.loadInitial(ctx, pageSize)
	})
	return s.snapshot(), nil
}

// LoadMore loads the page after the last one. It loads the first page if
// nothing has been loaded yet and does nothing once the catalog is
// exhausted.
func (s *Session) LoadMore(ctx context.Context, pageSize int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}

	if !s.loaded {
		s.run(ctx, OpLoadInitial, func(ctx context.Context) error {
			return s.loadInitial(ctx, pageSize)
		})
	} else {
		s.run(ctx, OpLoadMore, func(ctx context.Context) error {
			return s.loadMore(ctx, pageSize)
		})
	}
	return s.snapshot(), nil
}

// ApplyFilters replaces the structured filter. An invalid spec is rejected
// and leaves the session unchanged.
func (s *Session) ApplyFilters(ctx context.Context, spec domain.FilterSpec) (Snapshot, error) {
	if err := spec.Validate(); err != nil {
		return Snapshot{}, domainerrors.Validation(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}

	s.spec = spec
	s.refresh(ctx)
	return s.snapshot(), nil
}

// Search replaces the search text. Blank text clears the search.
func (s *Session) Search(ctx context.Context, query string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}

	s.query = strings.TrimSpace(query)
	s.refresh(ctx)
	return s.snapshot(), nil
}

// SetSort changes the view order.
func (s *Session) SetSort(ctx context.Context, kind domain.SortKind) (Snapshot, error) {
	if !kind.Valid() {
		return Snapshot{}, domainerrors.Validationf("invalid sort %s", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}

	s.sort = kind
	s.refresh(ctx)
	return s.snapshot(), nil
}

// Retry re-runs the stage that failed. It is a no-op when nothing failed.
func (s *Session) Retry(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}

	if s.state.Failed && s.retry != nil {
		s.run(ctx, s.state.Op, s.retry)
	}
	return s.snapshot(), nil
}

// Reset returns the session to its freshly created state.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	s.working = nil
	s.view = []domain.ScoredLecture{}
	s.cursor = ""
	s.hasMore = false
	s.loaded = false
	s.spec = domain.FilterSpec{}
	s.query = ""
	s.sort = domain.SortRecent
	s.state = State{}
	s.retry = nil
	return nil
}

// Dispose releases the session. Later calls fail with ErrSessionClosed.
// Disposing twice is harmless.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.working = nil
	s.view = nil
	s.retry = nil
}

// View returns the current snapshot.
func (s *Session) View() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Snapshot{}, ErrSessionClosed
	}
	return s.snapshot(), nil
}

// Categories groups the session's lectures for browsing. Recent and Highly
// Rated follow the current view; Popular ranks the whole working set.
func (s *Session) Categories() (filter.Categories, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return filter.Categories{}, ErrSessionClosed
	}
	return filter.Categorize(slices.Clone(s.view), s.working, s.highlyRatedMin), nil
}

func (s *Session) run(ctx context.Context, op string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		s.state = State{Failed: true, Retryable: true, Op: op, Err: err}
		s.retry = fn
		s.view = []domain.ScoredLecture{}
		s.logger.Warn("catalog session stage failed", "op", op, "error", err)
		return
	}
	s.state = State{}
	s.retry = nil
}

func (s *Session) loadInitial(ctx context.Context, pageSize int) error {
	page, err := s.pages.GetPage(ctx, pageSize, "")
	if err != nil {
		return err
	}
	scored, err := s.scorer.Annotate(ctx, page.Items)
	if err != nil {
		return err
	}

	s.working = scored
	s.cursor = page.NextCursor
	s.hasMore = page.HasMore
	s.loaded = true
	s.derive(ctx)
	return nil
}

func (s *Session) loadMore(ctx context.Context, pageSize int) error {
	if !s.hasMore {
		if s.state.Failed {
			s.derive(ctx)
		}
		return nil
	}

	page, err := s.pages.GetPage(ctx, pageSize, s.cursor)
	if err != nil {
		return err
	}
	scored, err := s.scorer.Annotate(ctx, page.Items)
	if err != nil {
		return err
	}

	s.working = append(s.working, scored...)
	if page.NextCursor != "" {
		s.cursor = page.NextCursor
	}
	s.hasMore = page.HasMore

	if s.superset() && !s.state.Failed {
		s.view = append(s.view, scored...)
	} else {
		s.derive(ctx)
	}
	return nil
}

// refresh re-derives the view unless a failed stage is waiting for Retry.
func (s *Session) refresh(ctx context.Context) {
	if !s.state.Failed {
		s.derive(ctx)
	}
}

func (s *Session) derive(ctx context.Context) {
	items := filter.Apply(s.working, s.spec)
	if s.query != "" {
		items = s.searcher.Search(ctx, items, s.query)
	}
	s.view = filter.Sort(items, s.sort)
	if s.view == nil {
		s.view = []domain.ScoredLecture{}
	}
}

// superset reports whether the view is the unfiltered working set in
// catalog order.
func (s *Session) superset() bool {
	return s.spec.IsEmpty() && s.query == "" && s.sort == domain.SortRecent
}

func (s *Session) snapshot() Snapshot {
	items := slices.Clone(s.view)
	if items == nil {
		items = []domain.ScoredLecture{}
	}
	return Snapshot{
		Items:    items,
		HasMore:  s.hasMore,
		Loaded:   len(s.working),
		Filtered: !s.superset(),
		Query:    s.query,
		Sort:     s.sort,
		State:    s.state,
	}
}
