// Package handler exposes the public certificate download endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pintcert/internal/certificate"
	"pintcert/internal/event"
	"pintcert/internal/participant/models"
	"pintcert/internal/platform/metrics"
	"pintcert/internal/platform/middleware"
	"pintcert/internal/transport/http/shared"
	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
	"pintcert/pkg/requestcontext"
)

// Finder locates the validated participant for a download request.
type Finder interface {
	FindForCertificate(ctx context.Context, eventID id.EventID, email string) (*models.Participant, error)
}

// Signer guarantees the participant carries a validation signature.
type Signer interface {
	EnsureSignature(ctx context.Context, participantID id.ParticipantID) (string, error)
}

// ReferenceData resolves the names printed on the certificate.
type ReferenceData interface {
	FindEvent(ctx context.Context, eventID id.EventID) (*event.Event, error)
	FindCity(ctx context.Context, cityID id.CityID) (*event.City, error)
	FindRole(ctx context.Context, roleID id.RoleID) (*event.Role, error)
}

// Handler handles certificate downloads.
type Handler struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	finder   Finder
	signer   Signer
	refs     ReferenceData
	composer *certificate.Composer
}

func New(finder Finder, signer Signer, refs ReferenceData, composer *certificate.Composer, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		metrics:  m,
		finder:   finder,
		signer:   signer,
		refs:     refs,
		composer: composer,
	}
}

// Register mounts the certificate routes. The endpoint is public: knowing
// the registered email is the access credential, matching the original
// download-by-email flow.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics))
	router.Get("/", h.handleDownload)

	r.Mount("/certificates", router)
}

// pageResponse is the wire form of a composed page. Draw ops carry an
// explicit type tag so renderers can dispatch without reflection.
type pageResponse struct {
	Width     float64  `json:"width"`
	Height    float64  `json:"height"`
	VerifyURL string   `json:"verify_url"`
	Ops       []drawOp `json:"ops"`
}

type drawOp struct {
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w,omitempty"`
	H     float64 `json:"h,omitempty"`
	Color string  `json:"color,omitempty"`
	Path  string  `json:"path,omitempty"`
	Text  string  `json:"text,omitempty"`
	Bold  bool    `json:"bold,omitempty"`
	Size  float64 `json:"size,omitempty"`
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := id.ParseEventID(r.URL.Query().Get("event_id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	email := r.URL.Query().Get("email")

	p, err := h.finder.FindForCertificate(ctx, eventID, email)
	if err != nil {
		h.logWarnOrError(ctx, "certificate lookup failed", err)
		shared.WriteError(w, err)
		return
	}

	signature, err := h.signer.EnsureSignature(ctx, p.ID)
	if err != nil {
		h.logWarnOrError(ctx, "signature generation failed", err)
		shared.WriteError(w, err)
		return
	}

	page, err := h.composePage(ctx, p, signature)
	if err != nil {
		h.logWarnOrError(ctx, "certificate composition failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) composePage(ctx context.Context, p *models.Participant, signature string) (pageResponse, error) {
	ev, err := h.refs.FindEvent(ctx, p.EventID)
	if err != nil {
		return pageResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}

	input := certificate.Input{
		ParticipantID:      p.ID,
		EventID:            p.EventID,
		EncryptedName:      p.EncryptedName,
		EncryptedEmail:     p.EncryptedEmail,
		Signature:          signature,
		EventName:          ev.Name,
		Year:               ev.Year,
		CalendarDates:      ev.CalendarDates,
		RoleID:             p.RoleID,
		ParticipationDates: p.ParticipationDates,
	}
	if role, err := h.refs.FindRole(ctx, p.RoleID); err == nil {
		input.RoleName = role.Name
	}
	if city, err := h.refs.FindCity(ctx, p.CityID); err == nil {
		input.CityName = city.DisplayName()
	}

	page, err := h.composer.Compose(ctx, input)
	if err != nil {
		return pageResponse{}, err
	}

	resp := pageResponse{
		Width:     page.Size.Width,
		Height:    page.Size.Height,
		VerifyURL: page.VerifyURL,
		Ops:       make([]drawOp, 0, len(page.Ops)),
	}
	for _, op := range page.Ops {
		switch v := op.(type) {
		case certificate.RectOp:
			resp.Ops = append(resp.Ops, drawOp{Type: "rect", X: v.X, Y: v.Y, W: v.W, H: v.H, Color: v.Color})
		case certificate.ImageOp:
			resp.Ops = append(resp.Ops, drawOp{Type: "image", X: v.X, Y: v.Y, W: v.W, H: v.H, Path: v.Path})
		case certificate.TextOp:
			resp.Ops = append(resp.Ops, drawOp{Type: "text", X: v.X, Y: v.Y, Text: v.Text, Bold: v.Bold, Color: v.Color, Size: v.Size})
		}
	}
	return resp, nil
}

func (h *Handler) logWarnOrError(ctx context.Context, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	}
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	h.logger.WarnContext(ctx, msg, attrs...)
}
