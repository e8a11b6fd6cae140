package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrSessionExpired marks an unrecoverable authentication failure: the 401
// could not be repaired by a token refresh and a forced logout was triggered
var ErrSessionExpired = errors.New("session expired")

// APIError is the normalized v2 error shape. Callers branch on Code and never
// on backend-specific payloads.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	TraceID string         `json:"traceId,omitempty"`
	Status  int            `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s (status %d): %s", e.Code, e.Status, e.Message)
}

// HTTPError is a v1 error passed through unmodified: status plus raw body
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}

// v2ErrorEnvelope covers the shapes the v2 backend emits. Some endpoints nest
// the error object, some return it flat, legacy-ish ones only carry a string
// field.
type v2ErrorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
	TraceID string         `json:"traceId"`
	Err     string         `json:"error"`
	Nested  *v2ErrorEnvelope `json:"error_detail"`
}

// normalizeV2Error converts a v2 error response body into an APIError,
// falling back to "unknown_error" / "An error occurred" when fields are
// missing. A missing trace id is replaced with a client-generated one so
// every surfaced error is correlatable.
func normalizeV2Error(status int, body []byte) *APIError {
	apiErr := &APIError{
		Code:    "unknown_error",
		Message: "An error occurred",
		Status:  status,
	}

	var envelope v2ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Nested != nil {
			envelope = *envelope.Nested
		}
		if envelope.Code != "" {
			apiErr.Code = envelope.Code
		}
		switch {
		case envelope.Message != "":
			apiErr.Message = envelope.Message
		case envelope.Err != "":
			apiErr.Message = envelope.Err
		}
		apiErr.Details = envelope.Details
		apiErr.TraceID = envelope.TraceID
	}

	if apiErr.TraceID == "" {
		apiErr.TraceID = "client-" + uuid.NewString()
	}
	return apiErr
}

// MessageFromError extracts a user-facing message with the documented
// precedence: server message field, then server error field, then a generic
// fallback
func MessageFromError(err error) string {
	const fallback = "An error occurred"
	if err == nil {
		return fallback
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		var payload struct {
			Message string `json:"message"`
			Err     string `json:"error"`
		}
		if jsonErr := json.Unmarshal([]byte(httpErr.Body), &payload); jsonErr == nil {
			if payload.Message != "" {
				return payload.Message
			}
			if payload.Err != "" {
				return payload.Err
			}
		}
		return fallback
	}

	return fallback
}

// StatusFromError returns the HTTP status carried by an error, or 0 when the
// error did not come from an HTTP response
func StatusFromError(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return 0
}
