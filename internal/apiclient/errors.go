package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError is a non-success HTTP response
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return e.Message
}

// TransportError means the request never received a response
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an
// API-reported failure
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsTransport reports whether err is a network-level failure
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// errorBody covers the error envelopes seen in practice: {"message": ...},
// FastAPI's {"detail": ...} and {"error": ...}
type errorBody struct {
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
	Error   string          `json:"error"`
}

func newAPIError(endpoint string, status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Endpoint:   endpoint,
		Message:    fmt.Sprintf("HTTP error! status: %d", status),
	}

	var parsed errorBody
	if len(body) == 0 || json.Unmarshal(body, &parsed) != nil {
		return apiErr
	}

	var detail string
	if len(parsed.Detail) > 0 {
		_ = json.Unmarshal(parsed.Detail, &detail)
	}

	switch {
	case parsed.Message != "":
		apiErr.Message = parsed.Message
	case detail != "":
		apiErr.Message = detail
	case parsed.Error != "":
		apiErr.Message = parsed.Error
	}
	return apiErr
}
