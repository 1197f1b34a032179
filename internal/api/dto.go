package api

import (
	"time"

	"github.com/spiceapp/spice-server/internal/catalog"
	"github.com/spiceapp/spice-server/internal/domain"
	"github.com/spiceapp/spice-server/internal/filter"
)

// LectureResponse is a lecture with its derived scores.
type LectureResponse struct {
	ID              string                 `json:"id" doc:"Lecture ID"`
	Title           string                 `json:"title" doc:"Title"`
	Description     string                 `json:"description,omitempty" doc:"Description"`
	Lecturer        string                 `json:"lecturer" doc:"Lecturer name"`
	Course          string                 `json:"course,omitempty" doc:"Course identifier"`
	Tags            []string               `json:"tags" doc:"Free-text tags"`
	DurationSeconds int64                  `json:"duration_seconds" doc:"Duration in seconds"`
	UploadedAt      time.Time              `json:"uploaded_at" doc:"Upload time"`
	ViewCount       int64                  `json:"view_count" doc:"Number of views"`
	TotalRatings    int64                  `json:"total_ratings" doc:"Number of rating samples"`
	AverageRating   domain.AggregateRating `json:"average_rating" doc:"Per-dimension mean of all samples"`
	Scores          domain.ScoreResult     `json:"scores" doc:"Derived ranking scores"`
	ThumbnailURL    string                 `json:"thumbnail_url,omitempty" doc:"Thumbnail image URL"`
	Prerequisites   []string               `json:"prerequisites,omitempty" doc:"IDs of prerequisite lectures"`
}

func newLectureResponse(sl domain.ScoredLecture) LectureResponse {
	l := sl.Lecture
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return LectureResponse{
		ID:              l.ID,
		Title:           l.Title,
		Description:     l.Description,
		Lecturer:        l.Lecturer,
		Course:          l.Course,
		Tags:            tags,
		DurationSeconds: l.DurationSeconds,
		UploadedAt:      l.UploadedAt,
		ViewCount:       l.ViewCount,
		TotalRatings:    l.TotalRatings,
		AverageRating:   l.Rating,
		Scores:          sl.Scores,
		ThumbnailURL:    l.ThumbnailURL,
		Prerequisites:   l.Prerequisites,
	}
}

func newLectureResponses(items []domain.ScoredLecture) []LectureResponse {
	out := make([]LectureResponse, len(items))
	for i, it := range items {
		out[i] = newLectureResponse(it)
	}
	return out
}

// RatingResponse is one stored rating sample.
type RatingResponse struct {
	ID        string        `json:"id" doc:"Rating ID"`
	LectureID string        `json:"lecture_id" doc:"Rated lecture"`
	UserID    string        `json:"user_id" doc:"Submitting user, or anonymous"`
	Rating    domain.Scores `json:"rating" doc:"Scores per dimension"`
	Comment   string        `json:"comment,omitempty" doc:"Free-text comment"`
	CreatedAt time.Time     `json:"created_at" doc:"Submission time"`
}

func newRatingResponses(samples []*domain.RatingSample) []RatingResponse {
	out := make([]RatingResponse, len(samples))
	for i, r := range samples {
		out[i] = RatingResponse{
			ID:        r.ID,
			LectureID: r.LectureID,
			UserID:    r.UserID,
			Rating:    r.Scores,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		}
	}
	return out
}

// CategoriesResponse groups lectures for browsing.
type CategoriesResponse struct {
	Recent      []LectureResponse `json:"recent" doc:"Currently displayed lectures"`
	HighlyRated []LectureResponse `json:"highly_rated" doc:"Rated lectures whose mean meets the threshold"`
	Popular     []LectureResponse `json:"popular" doc:"All loaded lectures by view count"`
}

func newCategoriesResponse(c filter.Categories) CategoriesResponse {
	return CategoriesResponse{
		Recent:      newLectureResponses(c.Recent),
		HighlyRated: newLectureResponses(c.HighlyRated),
		Popular:     newLectureResponses(c.Popular),
	}
}

// SessionStateResponse reports a failed stage.
type SessionStateResponse struct {
	Failed    bool   `json:"failed" doc:"The last stage failed; items are empty"`
	Retryable bool   `json:"retryable" doc:"POST .../retry may recover"`
	Op        string `json:"op,omitempty" doc:"Failed stage"`
	Error     string `json:"error,omitempty" doc:"Failure message"`
}

// SessionResponse is a session's current view.
type SessionResponse struct {
	ID       string               `json:"id" doc:"Session handle"`
	Items    []LectureResponse    `json:"items" doc:"Displayed lectures"`
	HasMore  bool                 `json:"has_more" doc:"More pages can be loaded"`
	Loaded   int                  `json:"loaded" doc:"Lectures paged in so far, before filtering"`
	Filtered bool                 `json:"filtered" doc:"A filter, search or non-default sort is active"`
	Query    string               `json:"query,omitempty" doc:"Active search text"`
	Sort     string               `json:"sort" doc:"Active sort order"`
	State    SessionStateResponse `json:"state" doc:"Failure state"`
}

func newSessionResponse(id string, snap catalog.Snapshot) SessionResponse {
	state := SessionStateResponse{
		Failed:    snap.State.Failed,
		Retryable: snap.State.Retryable,
		Op:        snap.State.Op,
	}
	if snap.State.Err != nil {
		state.Error = snap.State.Err.Error()
	}
	return SessionResponse{
		ID:       id,
		Items:    newLectureResponses(snap.Items),
		HasMore:  snap.HasMore,
		Loaded:   snap.Loaded,
		Filtered: snap.Filtered,
		Query:    snap.Query,
		Sort:     snap.Sort.String(),
		State:    state,
	}
}
