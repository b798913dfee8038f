// Package handler exposes the participant endpoints: public registration
// and the staff management surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pintcert/internal/participant/models"
	"pintcert/internal/participant/service"
	"pintcert/internal/platform/metrics"
	"pintcert/internal/platform/middleware"
	"pintcert/internal/transport/http/shared"
	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
	"pintcert/pkg/requestcontext"
)

// Service is the slice of the participant service the handler uses.
type Service interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.Participant, error)
	List(ctx context.Context, eventID id.EventID) ([]service.View, error)
	Get(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error)
	ViewOf(ctx context.Context, p *models.Participant) (service.View, error)
	EditIdentity(ctx context.Context, participantID id.ParticipantID, newName, newEmail string) (*models.Participant, error)
	SetValidated(ctx context.Context, participantID id.ParticipantID, validated bool) (*models.Participant, error)
}

// Handler handles participant endpoints.
type Handler struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	svc     Service
	auth    middleware.Authenticator
}

func New(svc Service, auth middleware.Authenticator, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{logger: logger, metrics: m, svc: svc, auth: auth}
}

// Register mounts the participant routes. Registration is public; every
// management route requires a staff token.
func (h *Handler) Register(r chi.Router) {
	public := chi.NewRouter()
	public.Use(middleware.Recovery(h.logger))
	public.Use(middleware.RequestID)
	public.Use(middleware.RequestTime)
	public.Use(middleware.ClientMetadata)
	public.Use(middleware.Logger(h.logger))
	public.Use(middleware.Timeout(30 * time.Second))
	public.Use(middleware.ContentTypeJSON)
	public.Use(middleware.Latency(h.metrics))
	public.Post("/", h.handleRegister)

	staff := chi.NewRouter()
	staff.Use(middleware.Recovery(h.logger))
	staff.Use(middleware.RequestID)
	staff.Use(middleware.RequestTime)
	staff.Use(middleware.ClientMetadata)
	staff.Use(middleware.Logger(h.logger))
	staff.Use(middleware.Timeout(30 * time.Second))
	staff.Use(middleware.ContentTypeJSON)
	staff.Use(middleware.Latency(h.metrics))
	staff.Use(middleware.RequireStaff(h.auth, h.logger))
	staff.Get("/events/{eventID}/participants", h.handleList)
	staff.Patch("/participants/{participantID}", h.handleEditIdentity)
	staff.Post("/participants/{participantID}/validation", h.handleSetValidated)

	r.Mount("/participants", public)
	r.Mount("/staff", staff)
}

type registerRequest struct {
	EventID            id.EventID `json:"event_id"`
	CityID             id.CityID  `json:"city_id"`
	RoleID             id.RoleID  `json:"role_id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	ParticipationDates []string   `json:"participation_dates"`
	PresentationTitle  string     `json:"presentation_title"`
}

type registerResponse struct {
	ID id.ParticipantID `json:"id"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	p, err := h.svc.Register(ctx, service.RegisterInput{
		EventID:            req.EventID,
		CityID:             req.CityID,
		RoleID:             req.RoleID,
		Name:               req.Name,
		Email:              req.Email,
		ParticipationDates: req.ParticipationDates,
		PresentationTitle:  req.PresentationTitle,
	})
	if err != nil {
		h.logWarnOrError(ctx, "registration failed", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, registerResponse{ID: p.ID})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	eventID, err := id.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	views, err := h.svc.List(ctx, eventID)
	if err != nil {
		h.logWarnOrError(ctx, "list participants failed", err)
		shared.WriteError(w, err)
		return
	}

	// Coordinators only see the cities they manage.
	account := middleware.GetStaff(ctx)
	if account != nil && !account.Superadmin {
		scoped := make([]service.View, 0, len(views))
		for _, v := range views {
			if account.CanManageCity(v.CityID) {
				scoped = append(scoped, v)
			}
		}
		views = scoped
	}

	shared.WriteJSON(w, http.StatusOK, views)
}

type editIdentityRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handler) handleEditIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	participantID, err := id.ParseParticipantID(chi.URLParam(r, "participantID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req editIdentityRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.requireCityAccess(ctx, participantID); err != nil {
		shared.WriteError(w, err)
		return
	}

	p, err := h.svc.EditIdentity(ctx, participantID, req.Name, req.Email)
	if err != nil {
		h.logWarnOrError(ctx, "identity edit failed", err)
		shared.WriteError(w, err)
		return
	}

	view, err := h.svc.ViewOf(ctx, p)
	if err != nil {
		h.logWarnOrError(ctx, "view build failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

type setValidatedRequest struct {
	Validated bool `json:"validated"`
}

func (h *Handler) handleSetValidated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	participantID, err := id.ParseParticipantID(chi.URLParam(r, "participantID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req setValidatedRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.requireCityAccess(ctx, participantID); err != nil {
		shared.WriteError(w, err)
		return
	}

	p, err := h.svc.SetValidated(ctx, participantID, req.Validated)
	if err != nil {
		h.logWarnOrError(ctx, "validation toggle failed", err)
		shared.WriteError(w, err)
		return
	}

	view, err := h.svc.ViewOf(ctx, p)
	if err != nil {
		h.logWarnOrError(ctx, "view build failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

// requireCityAccess enforces that the authenticated staff member manages
// the participant's city.
func (h *Handler) requireCityAccess(ctx context.Context, participantID id.ParticipantID) error {
	account := middleware.GetStaff(ctx)
	if account == nil {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	p, err := h.svc.Get(ctx, participantID)
	if err != nil {
		return err
	}
	if !account.CanManageCity(p.CityID) {
		return dErrors.New(dErrors.CodeForbidden, "you do not manage this participant's city")
	}
	return nil
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
