package service

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spiceapp/spice-server/internal/domain"
	"github.com/spiceapp/spice-server/internal/store"
	"github.com/spiceapp/spice-server/internal/store/storetest"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seed stores n lectures, one minute apart, with every third sharing the
// previous upload time to exercise tie-breaking. It returns them in catalog
// order.
func seed(t *testing.T, s store.Store, n int) []*domain.Lecture {
	t.Helper()
	ctx := context.Background()
	var out []*domain.Lecture
	offset := time.Duration(0)
	for i := range n {
		if i%3 != 2 {
			offset += time.Minute
		}
		l := storetest.Lecture(fmt.Sprintf("lec-%02d", i), offset)
		require.NoError(t, s.CreateLecture(ctx, l))
		out = append(out, l)
	}
	// Newest first, ties by id descending.
	slices.SortFunc(out, func(a, b *domain.Lecture) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		default:
			return 0
		}
	})
	return out
}

type recordingReindexer struct {
	ids []string
}

func (r *recordingReindexer) Reindex(l *domain.Lecture) {
	r.ids = append(r.ids, l.ID)
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func seedOne(t *testing.T, s store.Store, lectureID string, uploaded time.Time) *domain.Lecture {
	t.Helper()
	l := storetest.Lecture(lectureID, 0)
	l.UploadedAt = uploaded
	require.NoError(t, s.CreateLecture(context.Background(), l))
	return l
}
