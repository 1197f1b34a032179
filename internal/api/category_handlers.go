package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerCategoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCategories",
		Method:      http.MethodGet,
		Path:        "/api/v1/categories",
		Summary:     "Browse categories",
		Description: "Returns Recent (first page), Highly Rated and Popular lecture lists",
		Tags:        []string{"Lectures"},
	}, s.handleGetCategories)
}

// CategoriesOutput wraps categories for Huma.
type CategoriesOutput struct {
	Body CategoriesResponse
}

func (s *Server) handleGetCategories(ctx context.Context, _ *struct{}) (*CategoriesOutput, error) {
	c, err := s.services.Catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return &CategoriesOutput{Body: newCategoriesResponse(*c)}, nil
}
