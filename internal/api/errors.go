package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/spiceapp/spice-server/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
// Details is always keyed by field so clients decode one shape.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string            `json:"code" doc:"Machine-readable error code"`
	Message string            `json:"message" doc:"Human-readable error message"`
	Details map[string]string `json:"details,omitempty" doc:"Problems keyed by field"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainDetails(domainErr.Details),
				}
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
			Details: schemaDetails(errs),
		}
	}
}

func domainDetails(d any) map[string]string {
	switch v := d.(type) {
	case nil:
		return nil
	case map[string]string:
		return v
	default:
		return map[string]string{"detail": fmt.Sprint(v)}
	}
}

// schemaDetails keys huma's validation errors by location, with the "body."
// prefix dropped. Messages for the same location are joined.
func schemaDetails(errs []error) map[string]string {
	var out map[string]string
	for _, err := range errs {
		if err == nil {
			continue
		}
		key, msg := "request", err.Error()
		var detailer huma.ErrorDetailer
		if errors.As(err, &detailer) {
			if d := detailer.ErrorDetail(); d != nil {
				msg = d.Message
				if d.Location != "" {
					key = strings.TrimPrefix(d.Location, "body.")
				}
			}
		}
		if out == nil {
			out = make(map[string]string)
		}
		if prev, ok := out[key]; ok {
			msg = prev + "; " + msg
		}
		out[key] = msg
	}
	return out
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeAlreadyExists)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodePersistence)
	case http.StatusGone:
		return string(domainerrors.CodeClosed)
	default:
		return string(domainerrors.CodeInternal)
	}
}
