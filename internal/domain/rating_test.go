package domain

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(d, i, c, u int) *RatingSample {
	return &RatingSample{Scores: Scores{Difficulty: d, Importance: i, Clarity: c, Usefulness: u}}
}

func TestComputeAggregate_Empty(t *testing.T) {
	agg, n := ComputeAggregate(nil)
	assert.Zero(t, n)
	assert.True(t, agg.IsZero())
}

func TestComputeAggregate_ExactMean(t *testing.T) {
	samples := []*RatingSample{
		sample(1, 5, 3, 2),
		sample(2, 4, 3, 2),
		sample(5, 5, 4, 1),
	}
	agg, n := ComputeAggregate(samples)

	require.EqualValues(t, 3, n)
	assert.InDelta(t, 8.0/3, agg.Difficulty, 1e-12)
	assert.InDelta(t, 14.0/3, agg.Importance, 1e-12)
	assert.InDelta(t, 10.0/3, agg.Clarity, 1e-12)
	assert.InDelta(t, 5.0/3, agg.Usefulness, 1e-12)
}

func TestComputeAggregate_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	samples := make([]*RatingSample, 97)
	for i := range samples {
		samples[i] = sample(rng.IntN(5)+1, rng.IntN(5)+1, rng.IntN(5)+1, rng.IntN(5)+1)
	}

	want, _ := ComputeAggregate(samples)
	for range 10 {
		rng.Shuffle(len(samples), func(i, j int) { samples[i], samples[j] = samples[j], samples[i] })
		got, _ := ComputeAggregate(samples)
		assert.Equal(t, want, got)
	}
}

func TestScores_InRange(t *testing.T) {
	tests := []struct {
		name string
		s    Scores
		want bool
	}{
		{"all valid", Scores{1, 5, 3, 4}, true},
		{"zero", Scores{0, 5, 3, 4}, false},
		{"six", Scores{1, 5, 6, 4}, false},
		{"negative", Scores{1, 5, 3, -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.InRange())
		})
	}
}

func TestDimension_RoundTrip(t *testing.T) {
	for _, d := range Dimensions {
		got, ok := ParseDimension(d.String())
		require.True(t, ok)
		assert.Equal(t, d, got)
	}
	_, ok := ParseDimension("spiciness")
	assert.False(t, ok)
}

func TestLecture_BeforeAndClone(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := &Lecture{Record: Record{ID: "b"}, UploadedAt: t0, Tags: []string{"x"}}
	b := &Lecture{Record: Record{ID: "a"}, UploadedAt: t0}
	c := &Lecture{Record: Record{ID: "z"}, UploadedAt: t0.Add(-time.Second)}

	assert.True(t, a.Before(b), "same time: larger id first")
	assert.True(t, b.Before(c), "newer first")
	assert.False(t, c.Before(a))

	cp := a.Clone()
	cp.Tags[0] = "y"
	assert.Equal(t, "x", a.Tags[0])
}

func TestFilterSpec_EmptyAndValidate(t *testing.T) {
	assert.True(t, FilterSpec{}.IsEmpty())
	assert.True(t, FilterSpec{Query: "   "}.IsEmpty())
	assert.False(t, FilterSpec{Tags: []string{"lab"}}.IsEmpty())

	require.NoError(t, FilterSpec{Ranges: map[Dimension]Range{Clarity: {Min: 2, Max: 4}}}.Validate())
	assert.Error(t, FilterSpec{Ranges: map[Dimension]Range{Clarity: {Min: 4, Max: 2}}}.Validate())
	assert.Error(t, FilterSpec{Score: &ScoreRange{Kind: 9, Range: Range{Min: 1, Max: 2}}}.Validate())
}

func TestParseKinds(t *testing.T) {
	k, err := ParseSortKind("")
	require.NoError(t, err)
	assert.Equal(t, SortRecent, k)

	for _, name := range SortNames() {
		k, err := ParseSortKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.String())
	}
	assert.Equal(t, []string{"recent", "popular", "spice", "recommended", "most_rated"}, SortNames())
	_, err = ParseSortKind("hot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "most_rated")

	sk, err := ParseScoreKind(" Recommended ")
	require.NoError(t, err)
	assert.Equal(t, ScoreRecommended, sk)
	assert.InDelta(t, 4.7, sk.Of(ScoreResult{Spice: 4.2, Recommended: 4.7}), 0)
}
