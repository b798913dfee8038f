// Package handler exposes the public certificate verification endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pintcert/internal/platform/metrics"
	"pintcert/internal/platform/middleware"
	"pintcert/internal/transport/http/shared"
	"pintcert/internal/validation"
	dErrors "pintcert/pkg/domain-errors"
	"pintcert/pkg/requestcontext"
)

// Verifier resolves a presented signature to an outcome.
type Verifier interface {
	Verify(ctx context.Context, signature string) (validation.Result, error)
}

// Handler handles verification requests.
type Handler struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	verifier Verifier
}

func New(verifier Verifier, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, metrics: m, verifier: verifier}
}

// Register mounts the verify route. Public by design: anyone holding a
// certificate link can check it.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(10 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics))
	router.Get("/", h.handleVerify)

	r.Mount("/verify", router)
}

// handleVerify always answers 200 with a three-way outcome. A mismatch is
// a result the caller must see, not an HTTP error.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.verifier.Verify(ctx, r.URL.Query().Get("signature"))
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "verification failed"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, result)
}
