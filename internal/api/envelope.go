package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// EnvelopeVersion is the wire version of the response envelope. Bump it
// when the envelope structure changes so clients can detect a mismatch.
const EnvelopeVersion = 1

// Envelope is the consistent JSON wrapper around every API response.
type Envelope struct {
	V       int       `json:"v" doc:"Envelope version"`
	Success bool      `json:"success" doc:"Whether the request succeeded"`
	Data    any       `json:"data,omitempty" doc:"Response payload"`
	Error   *APIError `json:"error,omitempty" doc:"Error details when success is false"`
}

// EnvelopeTransformer wraps every huma response body in the envelope.
// Registered on the huma config so handlers stay envelope-free.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if isErrorStatus(status) {
		return Envelope{
			V:       EnvelopeVersion,
			Success: false,
			Error:   asAPIError(v, status),
		}, nil
	}

	return Envelope{
		V:       EnvelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}

// isErrorStatus reports whether a status string like "404" is an error.
func isErrorStatus(status string) bool {
	return len(status) > 0 && status[0] >= '4'
}

func asAPIError(v any, status string) *APIError {
	if apiErr, ok := v.(*APIError); ok {
		return apiErr
	}

	code := statusCodeFromString(status)
	if err, ok := v.(error); ok {
		return &APIError{Code: code, Message: err.Error()}
	}
	return &APIError{Code: code, Message: "request failed"}
}

func statusCodeFromString(status string) string {
	switch status {
	case "400":
		return statusToCode(400)
	case "401":
		return statusToCode(401)
	case "403":
		return statusToCode(403)
	case "404":
		return statusToCode(404)
	case "409":
		return statusToCode(409)
	default:
		return statusToCode(500)
	}
}
