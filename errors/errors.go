// Package errors provides the error handling system for the permit agent server.
// It includes structured error types, JSON response formatting, request ID tracking,
// and integrated logging with Uber's zap logger.
//
// Every error reaches the client as a JSON object whose "detail" field carries
// the human-readable message:
//
//	{"detail": "Server misconfigured: OPENAI_API_KEY not set.", "type": "config_error", "request_id": "..."}
//
// Basic usage:
//
//	// Simple error response
//	errors.Error(w, "Something went wrong", http.StatusInternalServerError)
//
//	// Type-specific error
//	errors.ErrorWithType(w, "Not Found", errors.NotFoundError, http.StatusNotFound)
//
// For request-scoped errors use the constructors in types.go:
//
//	errors.WriteError(w, errors.NewProviderError(requestID, err))
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// DefaultLogger is the default zap logger instance used throughout the package.
// It is initialized to a production configuration but can be overridden using SetLogger.
var DefaultLogger *zap.Logger

func init() {
	var err error
	DefaultLogger, err = zap.NewProduction()
	if err != nil {
		DefaultLogger = zap.NewNop()
	}
}

// SetLogger allows setting a custom zap logger instance.
// A nil logger is ignored so logging cannot be disabled by accident.
func SetLogger(logger *zap.Logger) {
	if logger != nil {
		DefaultLogger = logger
	}
}

// ErrorType represents the category of an error. It is reported to the
// client in the "type" field.
type ErrorType string

const (
	// ValidationError represents request bodies that fail schema validation
	ValidationError ErrorType = "validation_error"

	// ConfigError represents server misconfiguration, such as a missing credential
	ConfigError ErrorType = "config_error"

	// ProviderError represents failures of the upstream completion API
	ProviderError ErrorType = "provider_error"

	// InternalError represents unexpected internal server errors
	InternalError ErrorType = "internal_error"

	// NotFoundError represents unknown routes
	NotFoundError ErrorType = "not_found"

	// MethodNotAllowedError represents known routes called with the wrong method
	MethodNotAllowedError ErrorType = "method_not_allowed"

	// CORSError represents preflight requests the CORS policy rejects
	CORSError ErrorType = "cors_error"
)

// FieldError describes one schema violation. Loc is the path to the offending
// value, starting with "body".
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// APIError is our custom error type that implements the error interface
// and carries what the client sees next to the internal cause, which is
// logged but never serialized.
type APIError struct {
	// Detail is the human-readable error description
	Detail string `json:"detail"`

	// Type categorizes the error for client handling
	Type ErrorType `json:"type"`

	// RequestID links the error to a specific request
	RequestID string `json:"request_id,omitempty"`

	// Errors lists individual validation failures
	Errors []FieldError `json:"errors,omitempty"`

	// Code is the HTTP status code (not exposed in JSON)
	Code int `json:"-"`

	// err is the underlying error (not exposed in JSON)
	err error
}

// Error implements the error interface. It returns a string that
// combines the error type, detail, and underlying error (if any).
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Detail, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Detail)
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.err
}

// Is matches on error type only, so errors.Is(err, &APIError{Type: ConfigError})
// works regardless of detail or request ID.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WriteError formats and writes an APIError to an http.ResponseWriter.
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	if encErr := json.NewEncoder(w).Encode(err); encErr != nil {
		DefaultLogger.Error("failed to encode error response",
			zap.Error(encErr),
			zap.String("request_id", err.RequestID),
		)
	}
}

// Error is a drop-in replacement for http.Error that writes an APIError with
// the InternalError type. The request ID is taken from the response headers.
func Error(w http.ResponseWriter, detail string, code int) {
	ErrorWithType(w, detail, InternalError, code)
}

// ErrorWithType is like Error but allows specifying the error type.
func ErrorWithType(w http.ResponseWriter, detail string, errType ErrorType, code int) {
	WriteError(w, &APIError{
		Type:      errType,
		Detail:    detail,
		Code:      code,
		RequestID: w.Header().Get(RequestIDHeader),
	})
}
