package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiceapp/spice-server/internal/domain"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()
	index, err := New(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func lecture(id, title, lecturer, course string, tags ...string) *domain.Lecture {
	l := &domain.Lecture{
		Title:      title,
		Lecturer:   lecturer,
		Course:     course,
		Tags:       tags,
		UploadedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	l.ID = id
	return l
}

func fixtures() []*domain.Lecture {
	return []*domain.Lecture{
		lecture("lec-1", "Quantum Entanglement", "Dr. Bell", "PHYS301", "quantum", "advanced"),
		lecture("lec-2", "Intro to Thermodynamics", "Dr. Carnot", "PHYS101", "heat"),
		lecture("lec-3", "Linear Algebra Review", "Prof. Noether", "MATH201", "vectors"),
		lecture("lec-4", "Measuring Things", "Dr. Bell", "PHYS102", "lab", "Quantum"),
	}
}

func hitIDs(hits []Hit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func TestNew_InMemoryStartsEmpty(t *testing.T) {
	index := setupTestIndex(t)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIndex_IndexLectures(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexLectures(fixtures()))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	// Re-indexing replaces rather than duplicates.
	require.NoError(t, index.IndexLecture(fixtures()[0]))
	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestIndex_Search(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexLectures(fixtures()))
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"title word", "thermodynamics", []string{"lec-2"}},
		{"tag case-insensitive", "QUANTUM", []string{"lec-1", "lec-4"}},
		{"lecturer", "noether", []string{"lec-3"}},
		{"course", "math201", []string{"lec-3"}},
		{"typo in title", "algebre", []string{"lec-3"}},
		{"title prefix", "thermo", []string{"lec-2"}},
		{"no match", "chemistry", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := index.Search(ctx, tt.query, nil)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, hitIDs(hits))
		})
	}
}

func TestIndex_Search_TitleRanksFirst(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexLectures(fixtures()))

	hits, err := index.Search(context.Background(), "quantum", nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "lec-1", hits[0].ID)
}

func TestIndex_Search_Within(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexLectures(fixtures()))

	hits, err := index.Search(context.Background(), "bell", []string{"lec-4", "lec-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"lec-4"}, hitIDs(hits))
}

func TestIndex_Search_BlankQuery(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexLectures(fixtures()))

	hits, err := index.Search(context.Background(), "   ", nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_Rebuild(t *testing.T) {
	index := setupTestIndex(t)
	require.NoError(t, index.IndexLectures(fixtures()))
	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIndex_Persistence(t *testing.T) {
	dir := t.TempDir()

	index, err := New(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexLectures(fixtures()))
	require.NoError(t, index.Close())

	reopened, err := New(Options{DataPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)
}

func TestFromLecture(t *testing.T) {
	l := lecture("lec-1", "Quantum Entanglement", "Dr. Bell", "PHYS301", "quantum")
	l.Description = "Spooky action"

	doc := FromLecture(l)
	m := doc.ToMap()
	assert.Equal(t, "lec-1", m["id"])
	assert.Equal(t, "Quantum Entanglement", m["title"])
	assert.Equal(t, "Spooky action", m["description"])
	assert.Equal(t, []string{"quantum"}, m["tags"])
	assert.Equal(t, l.UploadedAt.UnixMilli(), m["uploaded_at"])

	l.Tags = nil
	l.Description = ""
	m = FromLecture(l).ToMap()
	assert.NotContains(t, m, "tags")
	assert.NotContains(t, m, "description")
}
