// Package handlers provides the HTTP handlers of the permit agent server.
//
// Every response is JSON. Failures are written through the errors package so
// clients always receive the same error shape, and every log line carries
// the request ID.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/permitagent/permitagent/errors"
	"github.com/permitagent/permitagent/server/completion"
	"github.com/permitagent/permitagent/server/metrics"
	"github.com/permitagent/permitagent/server/middleware"
	"github.com/permitagent/permitagent/server/validation"
	"go.uber.org/zap"
)

// AskRequest is the body of POST /ask. Question is a pointer so a missing
// field can be told apart from an empty string, which is accepted.
type AskRequest struct {
	Question *string `json:"question" validate:"required"`
}

// AskResponse is the body of a successful POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// Asker answers a single question. *completion.Invoker implements it.
type Asker interface {
	Ask(ctx context.Context, question string) (completion.Result, error)
}

// AskHandler serves POST /ask.
type AskHandler struct {
	asker   Asker
	metrics *metrics.Metrics
	backend string
	logger  *zap.Logger
}

// NewAskHandler creates the /ask handler. backend labels the upstream
// latency histogram.
func NewAskHandler(asker Asker, m *metrics.Metrics, backend string, logger *zap.Logger) *AskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AskHandler{
		asker:   asker,
		metrics: m,
		backend: backend,
		logger:  logger,
	}
}

// ServeHTTP validates the body, forwards the question upstream and relays
// the answer.
//
// Error Handling:
//   - invalid body: 422 validation_error, no upstream call
//   - missing credential: 500 config_error, no upstream call
//   - any upstream failure: 500 provider_error with the error's kind and message
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	logger := h.logger.With(zap.String("request_id", requestID))

	var req AskRequest
	if fieldErrs := validation.DecodeJSON(r.Body, &req); len(fieldErrs) > 0 {
		logger.Debug("Rejected ask request", zap.Any("errors", fieldErrs))
		errors.WriteError(w, errors.NewValidationError(requestID, fieldErrs))
		return
	}

	start := time.Now()
	result, err := h.asker.Ask(r.Context(), *req.Question)
	if err != nil {
		if errors.Is(err, completion.ErrMisconfigured) {
			h.record(metrics.OutcomeMisconfigured)
			logger.Warn("Ask request without upstream credential")
			errors.WriteError(w, errors.NewConfigError(requestID, errors.MisconfiguredDetail, err))
			return
		}

		h.observeUpstream(start)
		h.record(metrics.OutcomeFailed)
		apiErr := errors.NewProviderError(requestID, err)
		errors.LogError(logger, apiErr, requestID)
		errors.WriteError(w, apiErr)
		return
	}

	h.observeUpstream(start)
	if result.Degraded {
		h.record(metrics.OutcomeDegraded)
	} else {
		h.record(metrics.OutcomeAnswered)
	}

	logger.Debug("Answered question",
		zap.Int("question_length", len(*req.Question)),
		zap.Int("answer_length", len(result.Text)),
		zap.Bool("degraded", result.Degraded),
	)
	writeJSON(w, http.StatusOK, AskResponse{Answer: result.Text}, logger)
}

func (h *AskHandler) record(outcome string) {
	if h.metrics != nil {
		h.metrics.CompletionsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *AskHandler) observeUpstream(start time.Time) {
	if h.metrics != nil {
		h.metrics.UpstreamDuration.WithLabelValues(h.backend).Observe(time.Since(start).Seconds())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}
