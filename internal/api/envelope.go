package api

import "github.com/danielgtaylor/huma/v2"

// EnvelopeVersion is the "v" field of every response body.
const EnvelopeVersion = 1

// Envelope is the JSON shape of every huma response.
// Errors repeat the message in Error so simple clients need only one field.
type Envelope struct {
	V       int               `json:"v"`
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// EnvelopeTransformer wraps response bodies in an Envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *Envelope:
		return body, nil
	case *APIError:
		return &Envelope{
			V:       EnvelopeVersion,
			Error:   body.Message,
			Code:    body.Code,
			Message: body.Message,
			Details: body.Details,
		}, nil
	default:
		return &Envelope{V: EnvelopeVersion, Success: true, Data: v}, nil
	}
}
