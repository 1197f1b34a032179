package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/spiceapp/spice-server/internal/service"
)

func (s *Server) registerLectureRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLectures",
		Method:      http.MethodGet,
		Path:        "/api/v1/lectures",
		Summary:     "List lectures",
		Description: "Returns one page of the catalog, newest upload first",
		Tags:        []string{"Lectures"},
	}, s.handleListLectures)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createLecture",
		Method:        http.MethodPost,
		Path:          "/api/v1/lectures",
		Summary:       "Create lecture",
		Description:   "Catalogs a lecture with zeroed view and rating statistics",
		Tags:          []string{"Lectures"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateLecture)

	huma.Register(s.api, huma.Operation{
		OperationID: "countLectures",
		Method:      http.MethodGet,
		Path:        "/api/v1/lectures/count",
		Summary:     "Count lectures",
		Description: "Returns the number of cataloged lectures",
		Tags:        []string{"Lectures"},
	}, s.handleCountLectures)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLecture",
		Method:      http.MethodGet,
		Path:        "/api/v1/lectures/{id}",
		Summary:     "Get lecture",
		Description: "Returns a lecture with its scores and counts one view",
		Tags:        []string{"Lectures"},
	}, s.handleGetLecture)
}

// === DTOs ===

// ListLecturesInput contains pagination parameters.
type ListLecturesInput struct {
	Limit  int    `query:"limit" doc:"Page size; non-positive uses the default, large values are clamped"`
	Cursor string `query:"cursor" doc:"next_cursor from the previous page"`
}

// LecturePageResponse is one catalog page.
type LecturePageResponse struct {
	Items      []LectureResponse `json:"items" doc:"Lectures on this page"`
	NextCursor string            `json:"next_cursor,omitempty" doc:"Cursor for the following page"`
	HasMore    bool              `json:"has_more" doc:"Whether another page exists"`
}

// LecturePageOutput wraps a page for Huma.
type LecturePageOutput struct {
	Body LecturePageResponse
}

// CreateLectureRequest is the request body for cataloging a lecture.
type CreateLectureRequest struct {
	ID              string     `json:"id,omitempty" doc:"Lecture ID; generated when omitted"`
	Title           string     `json:"title" doc:"Title"`
	Description     string     `json:"description,omitempty" doc:"Description"`
	Lecturer        string     `json:"lecturer" doc:"Lecturer name"`
	Course          string     `json:"course,omitempty" doc:"Course identifier"`
	Tags            []string   `json:"tags,omitempty" doc:"Free-text tags"`
	DurationSeconds int64      `json:"duration_seconds,omitempty" doc:"Duration in seconds"`
	UploadedAt      *time.Time `json:"uploaded_at,omitempty" doc:"Upload time; defaults to now"`
	ThumbnailURL    string     `json:"thumbnail_url,omitempty" doc:"Thumbnail image URL"`
	Prerequisites   []string   `json:"prerequisites,omitempty" doc:"IDs of prerequisite lectures"`
}

// CreateLectureInput wraps the create request for Huma.
type CreateLectureInput struct {
	Body CreateLectureRequest
}

// LectureOutput wraps a lecture for Huma.
type LectureOutput struct {
	Body LectureResponse
}

// GetLectureInput identifies a lecture.
type GetLectureInput struct {
	ID string `path:"id" doc:"Lecture ID"`
}

// CountResponse carries a count.
type CountResponse struct {
	Count int `json:"count" doc:"Number of lectures"`
}

// CountOutput wraps a count for Huma.
type CountOutput struct {
	Body CountResponse
}

// === Handlers ===

func (s *Server) handleListLectures(ctx context.Context, input *ListLecturesInput) (*LecturePageOutput, error) {
	page, err := s.services.Catalog.Page(ctx, input.Limit, input.Cursor)
	if err != nil {
		return nil, err
	}
	return &LecturePageOutput{
		Body: LecturePageResponse{
			Items:      newLectureResponses(page.Items),
			NextCursor: page.NextCursor,
			HasMore:    page.HasMore,
		},
	}, nil
}

func (s *Server) handleCreateLecture(ctx context.Context, input *CreateLectureInput) (*LectureOutput, error) {
	b := input.Body
	l, err := s.services.Catalog.CreateLecture(ctx, service.CreateLectureRequest{
		ID:              b.ID,
		Title:           b.Title,
		Description:     b.Description,
		Lecturer:        b.Lecturer,
		Course:          b.Course,
		Tags:            b.Tags,
		DurationSeconds: b.DurationSeconds,
		UploadedAt:      b.UploadedAt,
		ThumbnailURL:    b.ThumbnailURL,
		Prerequisites:   b.Prerequisites,
	})
	if err != nil {
		return nil, err
	}
	return &LectureOutput{Body: s.scored(ctx, l)}, nil
}

func (s *Server) handleCountLectures(ctx context.Context, _ *struct{}) (*CountOutput, error) {
	n, err := s.services.Catalog.CountLectures(ctx)
	if err != nil {
		return nil, err
	}
	return &CountOutput{Body: CountResponse{Count: n}}, nil
}

func (s *Server) handleGetLecture(ctx context.Context, input *GetLectureInput) (*LectureOutput, error) {
	sl, err := s.services.Catalog.GetLecture(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &LectureOutput{Body: newLectureResponse(*sl)}, nil
}
