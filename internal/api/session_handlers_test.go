package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ts *testServer) seedSessionCatalog(t *testing.T) {
	t.Helper()
	titles := []string{"Algebra", "Botany", "Calculus", "Dynamics", "Entropy"}
	for i, title := range titles {
		id := fmt.Sprintf("lec-%d", i)
		tags := []string{"intro"}
		if i%2 == 0 {
			tags = []string{"math"}
		}
		ts.createLecture(t, id, title, t0.Add(time.Duration(i)*time.Hour), tags...)
	}
}

func openSession(t *testing.T, ts *testServer, body any) SessionResponse {
	t.Helper()
	resp := ts.api.Post("/api/v1/sessions", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	sess := decode[SessionResponse](t, resp).Data
	require.NotEmpty(t, sess.ID)
	return sess
}

func TestSessionFlow(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedSessionCatalog(t)

	sess := openSession(t, ts, map[string]any{"page_size": 2})
	assert.Equal(t, []string{"lec-4", "lec-3"}, responseIDs(sess.Items))
	assert.True(t, sess.HasMore)
	assert.Equal(t, "recent", sess.Sort)
	base := "/api/v1/sessions/" + sess.ID

	resp := ts.api.Post(base+"/more", map[string]any{"page_size": 2})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	sess = decode[SessionResponse](t, resp).Data
	assert.Equal(t, []string{"lec-4", "lec-3", "lec-2", "lec-1"}, responseIDs(sess.Items))
	assert.Equal(t, 4, sess.Loaded)

	resp = ts.api.Post(base+"/filters", map[string]any{"tags": []string{"math"}})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	sess = decode[SessionResponse](t, resp).Data
	assert.Equal(t, []string{"lec-4", "lec-2"}, responseIDs(sess.Items))
	assert.True(t, sess.Filtered)

	// The rest of the catalog is filtered as it pages in.
	resp = ts.api.Post(base+"/more", map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)
	sess = decode[SessionResponse](t, resp).Data
	assert.Equal(t, []string{"lec-4", "lec-2", "lec-0"}, responseIDs(sess.Items))
	assert.False(t, sess.HasMore)

	resp = ts.api.Post(base+"/search", map[string]any{"query": "calculus"})
	require.Equal(t, http.StatusOK, resp.Code)
	sess = decode[SessionResponse](t, resp).Data
	assert.Equal(t, []string{"lec-2"}, responseIDs(sess.Items))
	assert.Equal(t, "calculus", sess.Query)

	resp = ts.api.Get(base)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"lec-2"}, responseIDs(decode[SessionResponse](t, resp).Data.Items))

	resp = ts.api.Get(base + "/categories")
	require.Equal(t, http.StatusOK, resp.Code)
	c := decode[CategoriesResponse](t, resp).Data
	assert.Equal(t, []string{"lec-2"}, responseIDs(c.Recent))
	assert.Len(t, c.Popular, 5)

	resp = ts.api.Post(base + "/reset")
	require.Equal(t, http.StatusOK, resp.Code)
	sess = decode[SessionResponse](t, resp).Data
	assert.Empty(t, sess.Items)
	assert.Zero(t, sess.Loaded)
	assert.False(t, sess.Filtered)

	resp = ts.api.Delete(base)
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get(base)
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[any](t, resp).Code)
}

func TestSession_DefaultPageSizeWithoutBody(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedSessionCatalog(t)

	resp := ts.api.Post("/api/v1/sessions")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Len(t, decode[SessionResponse](t, resp).Data.Items, 2)
}

func TestSession_SortByPopular(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedSessionCatalog(t)
	for range 3 {
		ts.api.Get("/api/v1/lectures/lec-0")
	}
	ts.api.Get("/api/v1/lectures/lec-3")

	sess := openSession(t, ts, map[string]any{"page_size": 10})
	resp := ts.api.Post("/api/v1/sessions/"+sess.ID+"/filters", map[string]any{"sort": "popular"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	sess = decode[SessionResponse](t, resp).Data
	assert.Equal(t, "popular", sess.Sort)
	assert.Equal(t, []string{"lec-0", "lec-3"}, responseIDs(sess.Items)[:2])
}

func TestSession_FilterErrors(t *testing.T) {
	ts := setupTestServer(t)
	sess := openSession(t, ts, map[string]any{})
	path := "/api/v1/sessions/" + sess.ID + "/filters"

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"unknown dimension", map[string]any{"ranges": map[string]any{"spiciness": map[string]float64{"min": 1, "max": 2}}}, http.StatusBadRequest},
		{"inverted range", map[string]any{"ranges": map[string]any{"clarity": map[string]float64{"min": 4, "max": 2}}}, http.StatusBadRequest},
		{"unknown sort", map[string]any{"sort": "alphabetical"}, http.StatusBadRequest},
		{"unknown score kind", map[string]any{"score": map[string]any{"kind": "hotness", "min": 0, "max": 1}}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post(path, tt.body)
			require.Equal(t, tt.status, resp.Code, resp.Body.String())
			assert.Equal(t, "VALIDATION", decode[any](t, resp).Code)
		})
	}
}

func TestSession_Unknown(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/api/v1/sessions/nope", "/api/v1/sessions/nope/categories"} {
		resp := ts.api.Get(path)
		assert.Equal(t, http.StatusNotFound, resp.Code, path)
	}
	resp := ts.api.Post("/api/v1/sessions/nope/retry")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	resp = ts.api.Delete("/api/v1/sessions/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
