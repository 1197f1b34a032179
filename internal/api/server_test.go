package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiceapp/spice-server/internal/catalog"
	"github.com/spiceapp/spice-server/internal/score"
	"github.com/spiceapp/spice-server/internal/search"
	"github.com/spiceapp/spice-server/internal/service"
	"github.com/spiceapp/spice-server/internal/store"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api   humatest.TestAPI
	store store.Store
}

type serverOpts struct {
	limiter    service.Limiter
	trustProxy bool
}

// setupTestServer builds the full stack over an in-memory Badger store and
// an in-memory search index.
func setupTestServer(t *testing.T, opts ...func(*serverOpts)) *testServer {
	t.Helper()
	var o serverOpts
	for _, fn := range opts {
		fn(&o)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx, err := search.New(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	engine := score.NewEngine(score.Fixed(score.DefaultQuality), logger)
	pager := service.NewPager(st, 2, 50, logger)
	searchSvc := service.NewSearchService(idx, service.SearchOptions{}, logger)
	catalogSvc := service.NewCatalogService(st, pager, engine, searchSvc, service.CatalogOptions{}, logger)
	ratingSvc := service.NewRatingService(st, o.limiter, searchSvc, logger)
	registry := catalog.NewRegistry(func() *catalog.Session {
		return catalog.NewSession(pager, engine, searchSvc, catalog.Options{}, logger)
	}, catalog.RegistryOptions{}, logger)
	t.Cleanup(registry.Close)

	s := NewServer(&Services{
		Store:    st,
		Catalog:  catalogSvc,
		Ratings:  ratingSvc,
		Search:   searchSvc,
		Sessions: registry,
	}, Options{Name: "Spice API Test", CORSOrigins: []string{"*"}, TrustProxyHeaders: o.trustProxy}, logger)

	return &testServer{Server: s, api: humatest.Wrap(t, s.api), store: st}
}

// envelope mirrors Envelope with a typed payload.
type envelope[T any] struct {
	V       int               `json:"v"`
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	assert.Equal(t, EnvelopeVersion, env.V)
	return env
}

func (ts *testServer) createLecture(t *testing.T, id, title string, uploaded time.Time, tags ...string) LectureResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/lectures", map[string]any{
		"id":          id,
		"title":       title,
		"lecturer":    "Dr. Curie",
		"course":      "CHEM100",
		"tags":        tags,
		"uploaded_at": uploaded,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[LectureResponse](t, resp).Data
}

var t0 = time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["store"].Status)
	assert.Equal(t, "0 lectures", env.Data.Components["store"].Message)
	assert.Contains(t, env.Data.Components, "search")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	ts.api.Get("/health")

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "spice_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/lectures", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
