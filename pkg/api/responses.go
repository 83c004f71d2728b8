package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error types used in the OpenAI compatible error envelope.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeAPI            = "api_error"
	ErrorTypeRateLimit      = "rate_limit_error"
)

// Error codes.
const (
	CodeModelNotFound      = "model_not_found"
	CodeBackendUnavailable = "backend_unavailable"
	CodeRateLimitExceeded  = "rate_limit_exceeded"
)

// Error is the body of an OpenAI compatible error response. It doubles as a
// Go error so handlers can hand it to c.Error and let the error middleware
// render it.
type Error struct {
	Message string  `json:"message"`
	Type    string  `json:"type"`
	Param   *string `json:"param"`
	Code    *string `json:"code"`

	// Fields carries per-field validation messages.
	Fields map[string]string `json:"fields,omitempty"`

	// HTTP status to respond with
	Status int `json:"-"`
	// Original error for internal logging
	Log error `json:"-"`
}

func (e *Error) Error() string {
	if e.Log != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Status, e.Message, e.Log)
	}
	return fmt.Sprintf("[%d] %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Log
}

// ErrorResponse is the envelope written to the wire: {"error": {...}}.
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// Envelope wraps the error for serialization.
func (e *Error) Envelope() ErrorResponse {
	return ErrorResponse{Error: e}
}

func ptr(s string) *string { return &s }

// ModelNotFound is returned when the requested model is not installed.
func ModelNotFound(model string) *Error {
	return &Error{
		Message: fmt.Sprintf("The model %s does not exist", model),
		Type:    ErrorTypeInvalidRequest,
		Code:    ptr(CodeModelNotFound),
		Status:  http.StatusNotFound,
	}
}

// ValidationError creates a 400 from a field -> message map.
func ValidationError(fields map[string]string) *Error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fields[k]))
	}

	e := &Error{
		Message: strings.Join(parts, "; "),
		Type:    ErrorTypeInvalidRequest,
		Fields:  fields,
		Status:  http.StatusBadRequest,
	}
	if len(keys) > 0 {
		e.Param = ptr(keys[0])
	}
	return e
}

// BadRequestError creates a plain 400.
func BadRequestError(msg string) *Error {
	return &Error{Message: msg, Type: ErrorTypeInvalidRequest, Status: http.StatusBadRequest}
}

// BackendUnavailable is a 502 for a local inference runtime that could not
// be reached.
func BackendUnavailable(err error) *Error {
	return &Error{
		Message: "The local inference runtime is unavailable",
		Type:    ErrorTypeAPI,
		Code:    ptr(CodeBackendUnavailable),
		Status:  http.StatusBadGateway,
		Log:     err,
	}
}

// RateLimitError creates standard 429 rate limit error
func RateLimitError(msg string) *Error {
	return &Error{
		Message: msg,
		Type:    ErrorTypeRateLimit,
		Code:    ptr(CodeRateLimitExceeded),
		Status:  http.StatusTooManyRequests,
	}
}

// InternalError creates a standard error for any internal server error
func InternalError(msg string, err error) *Error {
	return &Error{Message: msg, Type: ErrorTypeAPI, Status: http.StatusInternalServerError, Log: err}
}

// ServiceUnavailable is a 503 for optional features that are switched off.
func ServiceUnavailable(msg string) *Error {
	return &Error{Message: msg, Type: ErrorTypeAPI, Status: http.StatusServiceUnavailable}
}
