package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/spiceapp/spice-server/internal/errors"
	"github.com/spiceapp/spice-server/internal/validation"
)

type ratingRequest struct {
	Difficulty int    `json:"difficulty" validate:"score"`
	Clarity    int    `json:"clarity" validate:"score"`
	Comment    string `json:"comment,omitempty" validate:"max=10"`
	Title      string `json:"title" validate:"required"`
	Duration   int    `json:"duration" validate:"gte=0"`
}

func valid() ratingRequest {
	return ratingRequest{Difficulty: 3, Clarity: 5, Title: "Quantum I"}
}

func TestValidator_Valid(t *testing.T) {
	assert.NoError(t, validation.New().Validate(valid()))
}

func TestValidator_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ratingRequest)
		field   string
		message string
	}{
		{"score below range", func(r *ratingRequest) { r.Difficulty = 0 }, "difficulty", "must be an integer between 1 and 5"},
		{"score above range", func(r *ratingRequest) { r.Clarity = 6 }, "clarity", "must be an integer between 1 and 5"},
		{"missing title", func(r *ratingRequest) { r.Title = "" }, "title", "is required"},
		{"long comment", func(r *ratingRequest) { r.Comment = "far too long comment" }, "comment", "must not exceed 10 characters"},
		{"negative duration", func(r *ratingRequest) { r.Duration = -1 }, "duration", "must be greater than or equal to 0"},
	}

	v := validation.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)

			err := v.Validate(req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var derr *domainerrors.Error
			require.ErrorAs(t, err, &derr)
			details, ok := derr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.message, details[tt.field])
		})
	}
}
