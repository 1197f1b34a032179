package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/spiceapp/spice-server/internal/catalog"
	"github.com/spiceapp/spice-server/internal/domain"
	domainerrors "github.com/spiceapp/spice-server/internal/errors"
)

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createSession",
		Method:        http.MethodPost,
		Path:          "/api/v1/sessions",
		Summary:       "Create browsing session",
		Description:   "Opens a session and loads the first catalog page",
		Tags:          []string{"Sessions"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}",
		Summary:     "Get session view",
		Description: "Returns the lectures the session currently displays",
		Tags:        []string{"Sessions"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "loadMore",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/more",
		Summary:     "Load next page",
		Description: "Pages the next lectures into the session",
		Tags:        []string{"Sessions"},
	}, s.handleLoadMore)

	huma.Register(s.api, huma.Operation{
		OperationID: "applyFilters",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/filters",
		Summary:     "Apply filters",
		Description: "Replaces the session's structured filter and sort order",
		Tags:        []string{"Sessions"},
	}, s.handleApplyFilters)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/search",
		Summary:     "Search",
		Description: "Replaces the session's search text; blank clears it",
		Tags:        []string{"Sessions"},
	}, s.handleSearchSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "retrySession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/retry",
		Summary:     "Retry failed stage",
		Description: "Re-runs the stage that left the session in a failed state",
		Tags:        []string{"Sessions"},
	}, s.handleRetrySession)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions/{id}/reset",
		Summary:     "Reset session",
		Description: "Clears loaded pages, filters, search and sort",
		Tags:        []string{"Sessions"},
	}, s.handleResetSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSessionCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/{id}/categories",
		Summary:     "Session categories",
		Description: "Groups the session's lectures into Recent, Highly Rated and Popular",
		Tags:        []string{"Sessions"},
	}, s.handleSessionCategories)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteSession",
		Method:        http.MethodDelete,
		Path:          "/api/v1/sessions/{id}",
		Summary:       "Dispose session",
		Description:   "Releases the session; its handle stops working",
		Tags:          []string{"Sessions"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteSession)
}

// === DTOs ===

// PageRequest asks for a page size.
type PageRequest struct {
	PageSize int `json:"page_size,omitempty" doc:"Page size; non-positive uses the default"`
}

// CreateSessionInput opens a session.
type CreateSessionInput struct {
	Body PageRequest `required:"false"`
}

// SessionInput identifies a session.
type SessionInput struct {
	ID string `path:"id" doc:"Session handle"`
}

// LoadMoreInput pages in more lectures.
type LoadMoreInput struct {
	ID   string      `path:"id" doc:"Session handle"`
	Body PageRequest `required:"false"`
}

// RangeRequest is an inclusive interval.
type RangeRequest struct {
	Min float64 `json:"min" doc:"Lower bound, inclusive"`
	Max float64 `json:"max" doc:"Upper bound, inclusive"`
}

// ScoreRangeRequest restricts a derived score.
type ScoreRangeRequest struct {
	Kind string  `json:"kind" enum:"spice,recommended" doc:"Derived score to restrict"`
	Min  float64 `json:"min" doc:"Lower bound, inclusive"`
	Max  float64 `json:"max" doc:"Upper bound, inclusive"`
}

// FilterRequest is a structured filter. Omitted categories match everything.
type FilterRequest struct {
	Courses   []string                `json:"courses,omitempty" doc:"Match any of these courses"`
	Lecturers []string                `json:"lecturers,omitempty" doc:"Match any of these lecturers"`
	Tags      []string                `json:"tags,omitempty" doc:"Require every one of these tags"`
	Ranges    map[string]RangeRequest `json:"ranges,omitempty" doc:"Per-dimension mean ranges keyed by difficulty, importance, clarity or usefulness"`
	Score     *ScoreRangeRequest      `json:"score,omitempty" doc:"Derived score range"`
	Sort      string                  `json:"sort,omitempty" doc:"recent, popular, spice, recommended or most_rated"`
}

// ApplyFiltersInput replaces a session's filter.
type ApplyFiltersInput struct {
	ID   string `path:"id" doc:"Session handle"`
	Body FilterRequest
}

// SearchRequest carries search text.
type SearchRequest struct {
	Query string `json:"query" doc:"Search text"`
}

// SearchSessionInput replaces a session's search text.
type SearchSessionInput struct {
	ID   string `path:"id" doc:"Session handle"`
	Body SearchRequest
}

// SessionOutput wraps a session view for Huma.
type SessionOutput struct {
	Body SessionResponse
}

// toFilterSpec converts a request into a domain filter.
func (f FilterRequest) toFilterSpec() (domain.FilterSpec, error) {
	spec := domain.FilterSpec{
		Courses:   f.Courses,
		Lecturers: f.Lecturers,
		Tags:      f.Tags,
	}
	if len(f.Ranges) > 0 {
		spec.Ranges = make(map[domain.Dimension]domain.Range, len(f.Ranges))
		for name, r := range f.Ranges {
			d, ok := domain.ParseDimension(name)
			if !ok {
				return domain.FilterSpec{}, domainerrors.Validationf("unknown rating dimension %q", name)
			}
			spec.Ranges[d] = domain.Range{Min: r.Min, Max: r.Max}
		}
	}
	if f.Score != nil {
		kind, err := domain.ParseScoreKind(f.Score.Kind)
		if err != nil {
			return domain.FilterSpec{}, domainerrors.Validation(err.Error())
		}
		spec.Score = &domain.ScoreRange{Kind: kind, Range: domain.Range{Min: f.Score.Min, Max: f.Score.Max}}
	}
	return spec, nil
}

// === Handlers ===

func (s *Server) handleCreateSession(ctx context.Context, input *CreateSessionInput) (*SessionOutput, error) {
	handle, sess := s.services.Sessions.Create()
	snap, err := sess.LoadInitialPage(ctx, input.Body.PageSize)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: newSessionResponse(handle, snap)}, nil
}

func (s *Server) handleGetSession(_ context.Context, input *SessionInput) (*SessionOutput, error) {
	return s.withSession(input.ID, func(sess *catalog.Session) (catalog.Snapshot, error) {
		return sess.View()
	})
}

func (s *Server) handleLoadMore(ctx context.Context, input *LoadMoreInput) (*SessionOutput, error) {
	return s.withSession(input.ID, func(sess *catalog.Session) (catalog.Snapshot, error) {
		return sess.LoadMore(ctx, input.Body.PageSize)
	})
}

func (s *Server) handleApplyFilters(ctx context.Context, input *ApplyFiltersInput) (*SessionOutput, error) {
	spec, err := input.Body.toFilterSpec()
	if err != nil {
		return nil, err
	}
	kind, err := domain.ParseSortKind(input.Body.Sort)
	if err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	return s.withSession(input.ID, func(sess *catalog.Session) (catalog.Snapshot, error) {
		if _, err := sess.ApplyFilters(ctx, spec); err != nil {
			return catalog.Snapshot{}, err
		}
		return sess.SetSort(ctx, kind)
	})
}

func (s *Server) handleSearchSession(ctx context.Context, input *SearchSessionInput) (*SessionOutput, error) {
	return s.withSession(input.ID, func(sess *catalog.Session) (catalog.Snapshot, error) {
		return sess.Search(ctx, input.Body.Query)
	})
}

func (s *Server) handleRetrySession(ctx context.Context, input *SessionInput) (*SessionOutput, error) {
	return s.withSession(input.ID, func(sess *catalog.Session) (catalog.Snapshot, error) {
		return sess.Retry(ctx)
	})
}

func (s *Server) handleResetSession(_ context.Context, input *SessionInput) (*SessionOutput, error) {
	return s.withSession(input.ID, func(sess *catalog.Session) (catalog.Snapshot, error) {
		if err := sess.Reset(); err != nil {
			return catalog.Snapshot{}, err
		}
		return sess.View()
	})
}

func (s *Server) handleSessionCategories(_ context.Context, input *SessionInput) (*CategoriesOutput, error) {
	sess, err := s.services.Sessions.Get(input.ID)
	if err != nil {
		return nil, err
	}
	c, err := sess.Categories()
	if err != nil {
		return nil, err
	}
	return &CategoriesOutput{Body: newCategoriesResponse(c)}, nil
}

func (s *Server) handleDeleteSession(_ context.Context, input *SessionInput) (*struct{}, error) {
	if err := s.services.Sessions.Remove(input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

// withSession looks up a session, runs fn and renders the snapshot.
func (s *Server) withSession(handle string, fn func(*catalog.Session) (catalog.Snapshot, error)) (*SessionOutput, error) {
	sess, err := s.services.Sessions.Get(handle)
	if err != nil {
		return nil, err
	}
	snap, err := fn(sess)
	if err != nil {
		return nil, err
	}
	return &SessionOutput{Body: newSessionResponse(handle, snap)}, nil
}
