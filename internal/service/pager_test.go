package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiceapp/spice-server/internal/domain"
	domainerrors "github.com/spiceapp/spice-server/internal/errors"
)

func lectureIDs(ls []*domain.Lecture) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestPager_ConcatenatedPagesCoverCatalogOnce(t *testing.T) {
	s := newTestStore(t)
	want := lectureIDs(seed(t, s, 13))
	pager := NewPager(s, 20, 100, nil)
	ctx := context.Background()

	for size := 1; size <= 14; size++ {
		var got []string
		cursor := ""
		for pages := 0; ; pages++ {
			require.Less(t, pages, 20, "pager did not terminate")
			page, err := pager.GetPage(ctx, size, cursor)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(page.Items), size)
			got = append(got, lectureIDs(page.Items)...)
			if !page.HasMore {
				break
			}
			cursor = page.NextCursor
		}
		assert.Equal(t, want, got, "page size %d", size)
	}
}

func TestPager_EmptyCatalog(t *testing.T) {
	pager := NewPager(newTestStore(t), 20, 100, nil)

	page, err := pager.GetPage(context.Background(), 5, "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.False(t, page.HasMore)
	assert.Empty(t, page.NextCursor)
}

func TestPager_ExactFitHasNoMore(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 4)
	pager := NewPager(s, 20, 100, nil)

	page, err := pager.GetPage(context.Background(), 4, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 4)
	assert.False(t, page.HasMore)
}

func TestPager_CursorPointsAtLastReturnedItem(t *testing.T) {
	s := newTestStore(t)
	all := seed(t, s, 5)
	pager := NewPager(s, 20, 100, nil)
	ctx := context.Background()

	first, err := pager.GetPage(ctx, 2, "")
	require.NoError(t, err)
	require.True(t, first.HasMore)

	second, err := pager.GetPage(ctx, 2, first.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, all[2].ID, second.Items[0].ID, "lookahead item must not be skipped")
}

func TestPager_ClampsPageSize(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 12)
	pager := NewPager(s, 3, 10, nil)
	ctx := context.Background()

	page, err := pager.GetPage(ctx, 0, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 3, "non-positive size uses the default")

	page, err = pager.GetPage(ctx, 500, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 10, "size is capped")
	assert.True(t, page.HasMore)
}

func TestPager_InvalidCursor(t *testing.T) {
	pager := NewPager(newTestStore(t), 20, 100, nil)

	_, err := pager.GetPage(context.Background(), 5, "%%%")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestPager_NewUploadsDoNotShiftLaterPages(t *testing.T) {
	s := newTestStore(t)
	all := seed(t, s, 6)
	pager := NewPager(s, 20, 100, nil)
	ctx := context.Background()

	first, err := pager.GetPage(ctx, 3, "")
	require.NoError(t, err)

	// A newer upload lands at the head of the catalog, not inside page two.
	seedOne(t, s, "lec-new", all[0].UploadedAt.Add(1))

	second, err := pager.GetPage(ctx, 3, first.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, lectureIDs(all[3:]), lectureIDs(second.Items))
}
