package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// MisconfiguredDetail is reported when /ask is called without a credential.
const MisconfiguredDetail = "Server misconfigured: OPENAI_API_KEY not set."

// NewError creates a new APIError with the given parameters.
// For most cases, use one of the specialized constructors below.
func NewError(errType ErrorType, detail string, code int, requestID string, err error) *APIError {
	return &APIError{
		Type:      errType,
		Detail:    detail,
		Code:      code,
		RequestID: requestID,
		err:       err,
	}
}

// NewConfigError reports a server-side configuration problem. The request
// never reaches the upstream API.
//
// Example:
//
//	err := NewConfigError("req_123", MisconfiguredDetail, completion.ErrMisconfigured)
func NewConfigError(requestID, detail string, err error) *APIError {
	return NewError(ConfigError, detail, http.StatusInternalServerError, requestID, err)
}

// NewValidationError creates a validation error for a request body that does
// not match the expected schema.
//
// Example:
//
//	err := NewValidationError("req_123", []FieldError{{
//	    Loc:  []string{"body", "question"},
//	    Msg:  "Field required",
//	    Type: "missing",
//	}})
func NewValidationError(requestID string, fieldErrors []FieldError) *APIError {
	return &APIError{
		Type:      ValidationError,
		Detail:    "Request validation failed",
		Code:      http.StatusUnprocessableEntity,
		RequestID: requestID,
		Errors:    fieldErrors,
	}
}

// NewProviderError wraps a failure of the upstream completion call. Only the
// error's kind and message reach the client; the full error stays in the logs.
//
// Example:
//
//	err := NewProviderError("req_123", apiErr)
//	// err.Detail == "AI error: openai.APIError: ..."
func NewProviderError(requestID string, err error) *APIError {
	return NewError(
		ProviderError,
		fmt.Sprintf("AI error: %s: %v", Kind(err), err),
		http.StatusInternalServerError,
		requestID,
		err,
	)
}

// NewInternalError creates an internal server error for failures not
// covered by other types, such as recovered panics.
func NewInternalError(requestID string, err error) *APIError {
	return NewError(InternalError, "Internal Server Error", http.StatusInternalServerError, requestID, err)
}

// Kind names the dynamic type of err without the pointer marker, for example
// "openai.APIError" or "url.Error". A nil error has kind "nil".
func Kind(err error) string {
	if err == nil {
		return "nil"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
