package api

import (
	"context"

	"github.com/spiceapp/spice-server/internal/domain"
)

// scored attaches current scores to l.
func (s *Server) scored(ctx context.Context, l *domain.Lecture) LectureResponse {
	return newLectureResponse(domain.ScoredLecture{Lecture: l, Scores: s.services.Catalog.Score(ctx, l)})
}
