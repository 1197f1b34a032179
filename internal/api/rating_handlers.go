package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/spiceapp/spice-server/internal/domain"
	"github.com/spiceapp/spice-server/internal/service"
)

func (s *Server) registerRatingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLectureRatings",
		Method:      http.MethodGet,
		Path:        "/api/v1/lectures/{id}/ratings",
		Summary:     "List lecture ratings",
		Description: "Returns every rating sample of a lecture, oldest first",
		Tags:        []string{"Ratings"},
	}, s.handleListLectureRatings)

	huma.Register(s.api, huma.Operation{
		OperationID:   "submitRating",
		Method:        http.MethodPost,
		Path:          "/api/v1/lectures/{id}/ratings",
		Summary:       "Submit rating",
		Description:   "Records one rating and returns the lecture with its recomputed aggregate",
		Tags:          []string{"Ratings"},
		DefaultStatus: http.StatusCreated,
	}, s.handleSubmitRating)

	huma.Register(s.api, huma.Operation{
		OperationID: "recentRatings",
		Method:      http.MethodGet,
		Path:        "/api/v1/ratings/recent",
		Summary:     "Recent ratings",
		Description: "Returns the newest rating samples across the catalog",
		Tags:        []string{"Ratings"},
	}, s.handleRecentRatings)
}

// === DTOs ===

// ListLectureRatingsInput identifies a lecture.
type ListLectureRatingsInput struct {
	ID string `path:"id" doc:"Lecture ID"`
}

// RatingsResponse is a list of samples.
type RatingsResponse struct {
	Ratings []RatingResponse `json:"ratings" doc:"Rating samples"`
}

// RatingsOutput wraps samples for Huma.
type RatingsOutput struct {
	Body RatingsResponse
}

// SubmitRatingRequest is the request body for a rating.
type SubmitRatingRequest struct {
	UserID  string        `json:"user_id,omitempty" doc:"Submitting user; anonymous when omitted"`
	Rating  domain.Scores `json:"rating" doc:"Integer score from 1 to 5 per dimension"`
	Comment string        `json:"comment,omitempty" doc:"Free-text comment"`
}

// SubmitRatingInput wraps a rating for Huma.
type SubmitRatingInput struct {
	ID   string `path:"id" doc:"Lecture ID"`
	Body SubmitRatingRequest
}

// RecentRatingsInput bounds the recent list.
type RecentRatingsInput struct {
	Limit int `query:"limit" doc:"Maximum samples; non-positive uses the default"`
}

// === Handlers ===

func (s *Server) handleListLectureRatings(ctx context.Context, input *ListLectureRatingsInput) (*RatingsOutput, error) {
	samples, err := s.services.Ratings.ListRatings(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &RatingsOutput{Body: RatingsResponse{Ratings: newRatingResponses(samples)}}, nil
}

func (s *Server) handleSubmitRating(ctx context.Context, input *SubmitRatingInput) (*LectureOutput, error) {
	l, err := s.services.Ratings.SubmitRating(ctx, service.SubmitRatingRequest{
		LectureID: input.ID,
		UserID:    input.Body.UserID,
		Scores:    input.Body.Rating,
		Comment:   input.Body.Comment,
		ClientKey: getClientIP(ctx),
	})
	if err != nil {
		return nil, err
	}
	return &LectureOutput{Body: s.scored(ctx, l)}, nil
}

func (s *Server) handleRecentRatings(ctx context.Context, input *RecentRatingsInput) (*RatingsOutput, error) {
	samples, err := s.services.Catalog.RecentRatings(ctx, input.Limit)
	if err != nil {
		return nil, err
	}
	return &RatingsOutput{Body: RatingsResponse{Ratings: newRatingResponses(samples)}}, nil
}
