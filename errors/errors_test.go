package errors

import (
	"errors"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "basic error without wrapped error",
			err: &APIError{
				Type:   ValidationError,
				Detail: "invalid input",
			},
			want: "validation_error: invalid input",
		},
		{
			name: "error with wrapped error",
			err: &APIError{
				Type:   ProviderError,
				Detail: "AI error: errors.errorString: connection refused",
				err:    errors.New("connection refused"),
			},
			want: "provider_error: AI error: errors.errorString: connection refused: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("APIError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	err1 := &APIError{Type: ConfigError, Detail: "test1"}
	err2 := &APIError{Type: ConfigError, Detail: "test2"}
	err3 := &APIError{Type: ValidationError, Detail: "test3"}

	if !err1.Is(err2) {
		t.Error("Expected err1.Is(err2) to be true for same error type")
	}

	if err1.Is(err3) {
		t.Error("Expected err1.Is(err3) to be false for different error types")
	}

	if !Is(NewConfigError("id", MisconfiguredDetail, nil), &APIError{Type: ConfigError}) {
		t.Error("Expected Is to match on type through the package wrapper")
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	innerErr := errors.New("inner error")
	err := &APIError{
		Type:   InternalError,
		Detail: "outer error",
		err:    innerErr,
	}

	if unwrapped := err.Unwrap(); unwrapped != innerErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, innerErr)
	}
	if !errors.Is(err, innerErr) {
		t.Error("Expected errors.Is to reach the wrapped error")
	}
}
