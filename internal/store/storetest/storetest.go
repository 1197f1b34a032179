// Package storetest is a conformance suite every store.Store backend runs
// from its own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiceapp/spice-server/internal/domain"
	domainerrors "github.com/spiceapp/spice-server/internal/errors"
	"github.com/spiceapp/spice-server/internal/store"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Options tunes the suite for backend limitations.
type Options struct {
	// SkipConcurrent skips the concurrent RecordRating case for backends
	// that rely on the service layer for per-lecture serialization.
	SkipConcurrent bool
}

// Epoch is the base upload time used by fixtures.
var Epoch = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

// Lecture builds a fixture lecture uploaded offset after Epoch.
func Lecture(id string, offset time.Duration) *domain.Lecture {
	l := &domain.Lecture{
		Title:           "Lecture " + id,
		Description:     "About " + id,
		Lecturer:        "Dr. Noether",
		Course:          "PHYS101",
		Tags:            []string{"physics", "lab"},
		DurationSeconds: 3000,
		UploadedAt:      Epoch.Add(offset),
	}
	l.ID = id
	l.InitTimestamps()
	return l
}

// Sample builds a fixture rating sample.
func Sample(id, lectureID string, created time.Time, d, i, c, u int) *domain.RatingSample {
	return &domain.RatingSample{
		ID:        id,
		LectureID: lectureID,
		UserID:    domain.AnonymousUser,
		Scores:    domain.Scores{Difficulty: d, Importance: i, Clarity: c, Usefulness: u},
		CreatedAt: created,
	}
}

func open(t *testing.T, newStore Factory) store.Store {
	t.Helper()
	s := newStore(t)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Run executes the suite.
func Run(t *testing.T, newStore Factory, opts Options) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		s := open(t, newStore)
		l := Lecture("lec-a", 0)
		l.ViewCount = 99 // store-owned, must be reset
		l.TotalRatings = 4
		l.Prerequisites = []string{"lec-0"}
		l.ThumbnailURL = "https://img.test/a.jpg"
		require.NoError(t, s.CreateLecture(ctx, l))

		got, err := s.GetLecture(ctx, "lec-a")
		require.NoError(t, err)
		assert.Equal(t, "Lecture lec-a", got.Title)
		assert.Equal(t, []string{"physics", "lab"}, got.Tags)
		assert.Equal(t, []string{"lec-0"}, got.Prerequisites)
		assert.Equal(t, "https://img.test/a.jpg", got.ThumbnailURL)
		assert.True(t, got.UploadedAt.Equal(Epoch))
		assert.Zero(t, got.ViewCount)
		assert.Zero(t, got.TotalRatings)
		assert.True(t, got.Rating.IsZero())
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		s := open(t, newStore)
		require.NoError(t, s.CreateLecture(ctx, Lecture("lec-a", 0)))
		err := s.CreateLecture(ctx, Lecture("lec-a", time.Hour))
		assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := open(t, newStore)
		_, err := s.GetLecture(ctx, "lec-missing")
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("ListLecturesOrder", func(t *testing.T) {
		s := open(t, newStore)
		// Two ties on upload time to exercise the id tiebreak.
		fixtures := []*domain.Lecture{
			Lecture("lec-1", 0),
			Lecture("lec-2", time.Minute),
			Lecture("lec-3", time.Minute),
			Lecture("lec-4", 2*time.Minute),
			Lecture("lec-5", -time.Minute),
		}
		for _, l := range fixtures {
			require.NoError(t, s.CreateLecture(ctx, l))
		}

		all, err := s.ListLectures(ctx, nil, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"lec-4", "lec-3", "lec-2", "lec-1", "lec-5"}, lectureIDs(all))

		first, err := s.ListLectures(ctx, nil, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"lec-4", "lec-3"}, lectureIDs(first))

		key := store.KeyOf(first[1])
		rest, err := s.ListLectures(ctx, &key, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"lec-2", "lec-1", "lec-5"}, lectureIDs(rest))

		n, err := s.CountLectures(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	})

	t.Run("ListLecturesEmpty", func(t *testing.T) {
		s := open(t, newStore)
		got, err := s.ListLectures(ctx, nil, 3)
		require.NoError(t, err)
		assert.Empty(t, got)

		n, err := s.CountLectures(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("RecordRatingRecomputesMean", func(t *testing.T) {
		s := open(t, newStore)
		require.NoError(t, s.CreateLecture(ctx, Lecture("lec-r", 0)))

		inputs := []*domain.RatingSample{
			Sample("rat-1", "lec-r", Epoch.Add(time.Second), 4, 5, 4, 5),
			Sample("rat-2", "lec-r", Epoch.Add(2*time.Second), 1, 2, 3, 4),
			Sample("rat-3", "lec-r", Epoch.Add(3*time.Second), 5, 5, 5, 1),
		}
		var last *domain.Lecture
		for _, r := range inputs {
			var err error
			last, err = s.RecordRating(ctx, r)
			require.NoError(t, err)
		}

		want, n := domain.ComputeAggregate(inputs)
		assert.EqualValues(t, n, last.TotalRatings)
		assertAggregate(t, want, last.Rating)

		stored, err := s.GetLecture(ctx, "lec-r")
		require.NoError(t, err)
		assert.EqualValues(t, 3, stored.TotalRatings)
		assertAggregate(t, want, stored.Rating)

		samples, err := s.ListRatings(ctx, "lec-r")
		require.NoError(t, err)
		assert.Equal(t, []string{"rat-1", "rat-2", "rat-3"}, sampleIDs(samples))
		assert.Equal(t, inputs[1].Scores, samples[1].Scores)
	})

	t.Run("RecordRatingUnknownLecture", func(t *testing.T) {
		s := open(t, newStore)
		_, err := s.RecordRating(ctx, Sample("rat-x", "lec-none", Epoch, 3, 3, 3, 3))
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)

		recent, err := s.RecentRatings(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, recent, "no sample may be left behind")
	})

	t.Run("ListRatingsUnknownLecture", func(t *testing.T) {
		s := open(t, newStore)
		_, err := s.ListRatings(ctx, "lec-none")
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("RecentRatings", func(t *testing.T) {
		s := open(t, newStore)
		require.NoError(t, s.CreateLecture(ctx, Lecture("lec-a", 0)))
		require.NoError(t, s.CreateLecture(ctx, Lecture("lec-b", time.Hour)))
		for i := range 5 {
			lec := "lec-a"
			if i%2 == 1 {
				lec = "lec-b"
			}
			r := Sample(fmt.Sprintf("rat-%d", i), lec, Epoch.Add(time.Duration(i)*time.Minute), 3, 3, 3, 3)
			_, err := s.RecordRating(ctx, r)
			require.NoError(t, err)
		}

		got, err := s.RecentRatings(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"rat-4", "rat-3", "rat-2"}, sampleIDs(got))
	})

	t.Run("IncrementViewCount", func(t *testing.T) {
		s := open(t, newStore)
		require.NoError(t, s.CreateLecture(ctx, Lecture("lec-v", 0)))

		for want := int64(1); want <= 3; want++ {
			got, err := s.IncrementViewCount(ctx, "lec-v")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}

		l, err := s.GetLecture(ctx, "lec-v")
		require.NoError(t, err)
		assert.EqualValues(t, 3, l.ViewCount)

		_, err = s.IncrementViewCount(ctx, "lec-none")
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("ConcurrentRecordRating", func(t *testing.T) {
		if opts.SkipConcurrent {
			t.Skip("backend relies on service-level serialization")
		}
		s := open(t, newStore)
		require.NoError(t, s.CreateLecture(ctx, Lecture("lec-c", 0)))

		const writers = 8
		samples := make([]*domain.RatingSample, writers)
		var wg sync.WaitGroup
		errs := make([]error, writers)
		for i := range writers {
			samples[i] = Sample(fmt.Sprintf("rat-%02d", i), "lec-c", Epoch.Add(time.Duration(i)*time.Millisecond), i%5+1, 5-i%5, 3, (i*3)%5+1)
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = s.RecordRating(ctx, samples[i])
			}()
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		l, err := s.GetLecture(ctx, "lec-c")
		require.NoError(t, err)
		want, n := domain.ComputeAggregate(samples)
		assert.Equal(t, n, l.TotalRatings)
		assertAggregate(t, want, l.Rating)
	})
}

func assertAggregate(t *testing.T, want, got domain.AggregateRating) {
	t.Helper()
	for _, d := range domain.Dimensions {
		assert.InDelta(t, want.Get(d), got.Get(d), 1e-12, d.String())
	}
}

func lectureIDs(ls []*domain.Lecture) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func sampleIDs(rs []*domain.RatingSample) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
