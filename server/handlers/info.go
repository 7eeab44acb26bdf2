package handlers

import (
	"net/http"

	"github.com/permitagent/permitagent/errors"
	"go.uber.org/zap"
)

// UsageMessage is returned by GET / to tell callers how to use the service.
const UsageMessage = `Permit Agent service is running. POST /ask with JSON {"question":"..."} to get an answer.`

// Root serves GET / with the usage message.
func Root(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": UsageMessage}, logger)
	}
}

// Health serves GET /health. It reports the process as up whether or not
// the upstream credential is configured.
func Health(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true}, logger)
	}
}

// NotFound answers unknown routes with a JSON error.
func NotFound(w http.ResponseWriter, r *http.Request) {
	errors.ErrorWithType(w, "Not Found", errors.NotFoundError, http.StatusNotFound)
}

// MethodNotAllowed answers known routes called with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	errors.ErrorWithType(w, "Method Not Allowed", errors.MethodNotAllowedError, http.StatusMethodNotAllowed)
}
