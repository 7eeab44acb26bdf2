package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// ErrorHandler recovers panics raised by the wrapped handler, logs them with
// their stack and answers with a 500 APIError.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					requestID := w.Header().Get(RequestIDHeader)
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.ByteString("stacktrace", debug.Stack()),
						zap.String("request_id", requestID),
						zap.String("path", r.URL.Path),
					)

					WriteError(w, NewInternalError(requestID, fmt.Errorf("panic: %v", rec)))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// LogError logs an error with its context. APIErrors are logged with their
// type, detail and status code next to the wrapped cause.
func LogError(logger *zap.Logger, err error, requestID string) {
	var apiErr *APIError
	if As(err, &apiErr) {
		logger.Error("request error",
			zap.String("error_type", string(apiErr.Type)),
			zap.String("detail", apiErr.Detail),
			zap.Int("code", apiErr.Code),
			zap.String("request_id", requestID),
			zap.NamedError("cause", apiErr.Unwrap()),
		)
		return
	}

	logger.Error("unexpected error",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
}
