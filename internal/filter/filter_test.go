package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiceapp/spice-server/internal/domain"
	"github.com/spiceapp/spice-server/internal/score"
)

var base = time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

type lectureOpt func(*domain.Lecture)

func withTags(tags ...string) lectureOpt {
	return func(l *domain.Lecture) { l.Tags = tags }
}

func withLecturer(name string) lectureOpt {
	return func(l *domain.Lecture) { l.Lecturer = name }
}

func withCourse(c string) lectureOpt {
	return func(l *domain.Lecture) { l.Course = c }
}

func withRating(d, i, c, u float64) lectureOpt {
	return func(l *domain.Lecture) {
		l.TotalRatings = 1
		l.Rating = domain.AggregateRating{Difficulty: d, Importance: i, Clarity: c, Usefulness: u}
	}
}

func lecture(id string, ageHours int, opts ...lectureOpt) domain.ScoredLecture {
	l := &domain.Lecture{
		Record:     domain.Record{ID: id},
		Title:      "Lecture " + id,
		UploadedAt: base.Add(-time.Duration(ageHours) * time.Hour),
	}
	for _, o := range opts {
		o(l)
	}
	return domain.ScoredLecture{Lecture: l, Scores: score.Compute(l, score.DefaultQuality)}
}

func ids(items []domain.ScoredLecture) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Lecture.ID
	}
	return out
}

func TestApply_EmptySpecIsIdentity(t *testing.T) {
	items := []domain.ScoredLecture{lecture("a", 0), lecture("b", 1, withTags("x"))}
	assert.Equal(t, items, Apply(items, domain.FilterSpec{}))
	assert.Equal(t, items, Apply(items, domain.FilterSpec{Tags: []string{}, Lecturers: nil, Ranges: map[domain.Dimension]domain.Range{}}))
}

func TestApply_TagsRequireEveryTag(t *testing.T) {
	items := []domain.ScoredLecture{
		lecture("physics-only", 0, withTags("physics")),
		lecture("physics-lab", 1, withTags("physics", "lab", "advanced")),
		lecture("lab-only", 2, withTags("Lab")),
	}
	got := Apply(items, domain.FilterSpec{Tags: []string{"physics", "lab"}})
	assert.Equal(t, []string{"physics-lab"}, ids(got))
}

func TestApply_LecturersAndCoursesAcceptAny(t *testing.T) {
	items := []domain.ScoredLecture{
		lecture("by-a", 0, withLecturer("A"), withCourse("PHYS101")),
		lecture("by-b", 1, withLecturer("B"), withCourse("MATH200")),
		lecture("by-c", 2, withLecturer("C"), withCourse("PHYS101")),
	}

	got := Apply(items, domain.FilterSpec{Lecturers: []string{"A", "B"}})
	assert.Equal(t, []string{"by-a", "by-b"}, ids(got))

	got = Apply(items, domain.FilterSpec{Courses: []string{"PHYS101", "CHEM1"}})
	assert.Equal(t, []string{"by-a", "by-c"}, ids(got))

	// Categories combine with AND.
	got = Apply(items, domain.FilterSpec{Lecturers: []string{"A", "B"}, Courses: []string{"PHYS101"}})
	assert.Equal(t, []string{"by-a"}, ids(got))
}

func TestApply_LecturerIsExactMatch(t *testing.T) {
	items := []domain.ScoredLecture{lecture("x", 0, withLecturer("Dr. Ada Byron"))}
	assert.Empty(t, Apply(items, domain.FilterSpec{Lecturers: []string{"Ada"}}))
}

func TestApply_QueryMatchesAnyField(t *testing.T) {
	desc := lecture("desc", 0)
	desc.Lecture.Description = "An intro to Entanglement"
	items := []domain.ScoredLecture{
		desc,
		lecture("course", 1, withCourse("ENTANGLE-1")),
		lecture("tag", 2, withTags("entanglement")),
		lecture("none", 3, withTags("optics")),
	}
	got := Apply(items, domain.FilterSpec{Query: "entangle"})
	assert.Equal(t, []string{"desc", "course", "tag"}, ids(got))
}

func TestApply_DimensionRangesInclusive(t *testing.T) {
	items := []domain.ScoredLecture{
		lecture("easy", 0, withRating(2, 4, 4, 4)),
		lecture("edge", 1, withRating(3, 4, 4, 4)),
		lecture("hard", 2, withRating(4.5, 4, 4, 4)),
		lecture("unrated", 3),
	}
	spec := domain.FilterSpec{Ranges: map[domain.Dimension]domain.Range{
		domain.Difficulty: {Min: 2, Max: 3},
	}}
	assert.Equal(t, []string{"easy", "edge"}, ids(Apply(items, spec)))
}

func TestApply_ScoreRange(t *testing.T) {
	items := []domain.ScoredLecture{
		lecture("top", 0, withRating(4, 5, 4, 5)), // recommended 4.7
		lecture("mid", 1, withRating(3, 3, 3, 3)), // recommended 3.0
		lecture("unrated", 2),
	}
	spec := domain.FilterSpec{Score: &domain.ScoreRange{
		Kind:  domain.ScoreRecommended,
		Range: domain.Range{Min: 4.5, Max: 5},
	}}
	assert.Equal(t, []string{"top"}, ids(Apply(items, spec)))

	spec.Score = &domain.ScoreRange{Kind: domain.ScoreSpice, Range: domain.Range{Min: 0, Max: 3.5}}
	assert.Equal(t, []string{"mid", "unrated"}, ids(Apply(items, spec)))
}

func TestSearch(t *testing.T) {
	items := []domain.ScoredLecture{
		lecture("q", 0, withTags("quantum")),
		lecture("l", 1, withLecturer("Quantum Quinn")),
		lecture("o", 2, withTags("optics")),
	}

	assert.Equal(t, items, Search(items, ""))
	assert.Equal(t, items, Search(items, "   "))
	assert.Equal(t, []string{"q", "l"}, ids(Search(items, "QUANTUM")))
	assert.Empty(t, Search(items, "relativity"))
}

func TestSort(t *testing.T) {
	a := lecture("a", 3, withRating(5, 5, 5, 5))
	a.Lecture.ViewCount = 10
	b := lecture("b", 1, withRating(2, 2, 2, 2))
	b.Lecture.ViewCount = 30
	b.Lecture.TotalRatings = 7
	c := lecture("c", 2)
	c.Lecture.ViewCount = 30
	items := []domain.ScoredLecture{a, b, c}

	tests := []struct {
		kind domain.SortKind
		want []string
	}{
		{domain.SortRecent, []string{"b", "c", "a"}},
		{domain.SortPopular, []string{"b", "c", "a"}},
		{domain.SortSpice, []string{"a", "b", "c"}},
		{domain.SortRecommended, []string{"a", "b", "c"}},
		{domain.SortMostRated, []string{"b", "a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Sort(items, tt.kind)))
		})
	}
	require.Equal(t, []string{"a", "b", "c"}, ids(items), "input untouched")
}

func TestHighlyRated(t *testing.T) {
	items := []domain.ScoredLecture{
		lecture("great", 0, withRating(3, 4, 4, 3)), // mean 3.5
		lecture("meh", 1, withRating(3, 3, 4, 3)),
		lecture("unrated", 2),
	}
	assert.Equal(t, []string{"great"}, ids(HighlyRated(items, 3.5)))
}

func TestCategorize(t *testing.T) {
	a := lecture("a", 1, withRating(4, 4, 4, 4))
	b := lecture("b", 2, withRating(2, 2, 2, 2))
	c := lecture("c", 3)
	a.Lecture.ViewCount = 5
	b.Lecture.ViewCount = 50
	c.Lecture.ViewCount = 10

	view := []domain.ScoredLecture{a, b}
	working := []domain.ScoredLecture{a, b, c}

	got := Categorize(view, working, DefaultHighlyRatedMin)
	assert.Equal(t, []string{"a", "b"}, ids(got.Recent))
	assert.Equal(t, []string{"a"}, ids(got.HighlyRated))
	assert.Equal(t, []string{"b", "c", "a"}, ids(got.Popular))
}
