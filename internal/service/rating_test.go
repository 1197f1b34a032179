package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiceapp/spice-server/internal/domain"
	domainerrors "github.com/spiceapp/spice-server/internal/errors"
	"github.com/spiceapp/spice-server/internal/store/storetest"
)

func ratingReq(lectureID string, d, i, c, u int) SubmitRatingRequest {
	return SubmitRatingRequest{
		LectureID: lectureID,
		Scores:    domain.Scores{Difficulty: d, Importance: i, Clarity: c, Usefulness: u},
	}
}

func TestSubmitRating_AggregateIsExactMeanInAnyOrder(t *testing.T) {
	inputs := []domain.Scores{
		{Difficulty: 1, Importance: 5, Clarity: 2, Usefulness: 4},
		{Difficulty: 3, Importance: 3, Clarity: 3, Usefulness: 3},
		{Difficulty: 5, Importance: 1, Clarity: 4, Usefulness: 2},
	}
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}}
	want := domain.AggregateRating{Difficulty: 3, Importance: 3, Clarity: 3, Usefulness: 3}

	for _, order := range orders {
		s := newTestStore(t)
		seed(t, s, 1)
		svc := NewRatingService(s, nil, nil, nil)

		var last *domain.Lecture
		for _, idx := range order {
			var err error
			last, err = svc.SubmitRating(context.Background(), SubmitRatingRequest{LectureID: "lec-00", Scores: inputs[idx]})
			require.NoError(t, err)
		}
		assert.Equal(t, want, last.Rating, "order %v", order)
		assert.EqualValues(t, 3, last.TotalRatings)
	}
}

func TestSubmitRating_RejectsOutOfRangeScores(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 1)
	svc := NewRatingService(s, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.SubmitRating(ctx, ratingReq("lec-00", 4, 4, 4, 4))
	require.NoError(t, err)

	tests := []struct {
		name string
		req  SubmitRatingRequest
	}{
		{"zero", ratingReq("lec-00", 0, 3, 3, 3)},
		{"six", ratingReq("lec-00", 3, 3, 6, 3)},
		{"negative", ratingReq("lec-00", 3, 3, 3, -1)},
		{"missing lecture id", ratingReq("", 3, 3, 3, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitRating(ctx, tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}

	l, err := s.GetLecture(ctx, "lec-00")
	require.NoError(t, err)
	assert.EqualValues(t, 1, l.TotalRatings)
	assert.Equal(t, domain.AggregateRating{Difficulty: 4, Importance: 4, Clarity: 4, Usefulness: 4}, l.Rating)
}

func TestSubmitRating_UnknownLecture(t *testing.T) {
	svc := NewRatingService(newTestStore(t), nil, nil, nil)

	_, err := svc.SubmitRating(context.Background(), ratingReq("lec-missing", 3, 3, 3, 3))
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSubmitRating_ConcurrentSubmissionsAreAllCounted(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 1)
	svc := NewRatingService(s, nil, nil, nil)

	const raters = 20
	var wg sync.WaitGroup
	for i := range raters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SubmitRating(context.Background(), ratingReq("lec-00", i%5+1, 5-i%5, 3, 2))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	samples, err := s.ListRatings(context.Background(), "lec-00")
	require.NoError(t, err)
	want, n := domain.ComputeAggregate(samples)

	l, err := s.GetLecture(context.Background(), "lec-00")
	require.NoError(t, err)
	assert.EqualValues(t, raters, n)
	assert.Equal(t, n, l.TotalRatings)
	assert.InDelta(t, want.Difficulty, l.Rating.Difficulty, 1e-12)
	assert.InDelta(t, want.Importance, l.Rating.Importance, 1e-12)
	assert.Equal(t, 0, svc.locks.size(), "per-lecture locks are released")
}

func TestSubmitRating_RateLimited(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 1)
	svc := NewRatingService(s, denyAll{}, nil, nil)

	req := ratingReq("lec-00", 3, 3, 3, 3)
	req.ClientKey = "10.0.0.1"
	_, err := svc.SubmitRating(context.Background(), req)
	assert.ErrorIs(t, err, domainerrors.ErrRateLimited)

	req.ClientKey = ""
	_, err = svc.SubmitRating(context.Background(), req)
	assert.NoError(t, err, "no client key, no limiting")
}

func TestSubmitRating_ReindexesAndDefaultsUser(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, 1)
	idx := &recordingReindexer{}
	svc := NewRatingService(s, nil, idx, nil)

	req := ratingReq("lec-00", 2, 2, 2, 2)
	req.Comment = "dense but good"
	_, err := svc.SubmitRating(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"lec-00"}, idx.ids)

	samples, err := svc.ListRatings(context.Background(), "lec-00")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, domain.AnonymousUser, samples[0].UserID)
	assert.Equal(t, "dense but good", samples[0].Comment)
	assert.NotEmpty(t, samples[0].ID)
}

func TestSubmitRating_CancelledWhileWaitingForLock(t *testing.T) {
	s := newTestStore(t)
	l := storetest.Lecture("lec-x", 0)
	require.NoError(t, s.CreateLecture(context.Background(), l))
	svc := NewRatingService(s, nil, nil, nil)

	unlock, err := svc.locks.Lock(context.Background(), "lec-x")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.SubmitRating(ctx, ratingReq("lec-x", 3, 3, 3, 3))
	assert.ErrorIs(t, err, context.Canceled)
}
