// Package service orchestrates participant registration, staff management
// operations, and the read views that recompute hours on every access.
package service

import (
	"context"
	"log/slog"

	"pintcert/internal/audit"
	"pintcert/internal/event"
	"pintcert/internal/hours"
	"pintcert/internal/participant/models"
	"pintcert/internal/privacy"
	id "pintcert/pkg/domain"
)

// Store is the participant persistence contract. Implementations return
// sentinel errors (pkg/platform/sentinel) for factual store states.
type Store interface {
	// Create persists a new participant. Returns sentinel.ErrAlreadyUsed
	// when the (event, email lookup hash) pair is already taken.
	Create(ctx context.Context, p *models.Participant) error
	FindByID(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error)
	FindByLookupHash(ctx context.Context, eventID id.EventID, lookupHash string) (*models.Participant, error)
	ListByEvent(ctx context.Context, eventID id.EventID) ([]*models.Participant, error)
	// Execute atomically validates then mutates one participant under the
	// store's per-record lock (mutex or row lock). Returns
	// sentinel.ErrAlreadyUsed when the mutation moves the email lookup
	// hash onto another participant of the same event.
	Execute(ctx context.Context, participantID id.ParticipantID,
		validate func(*models.Participant) error,
		mutate func(*models.Participant)) (*models.Participant, error)
}

// ReferenceData resolves events, cities, and roles.
type ReferenceData interface {
	FindEvent(ctx context.Context, eventID id.EventID) (*event.Event, error)
	FindCity(ctx context.Context, cityID id.CityID) (*event.City, error)
	FindRole(ctx context.Context, roleID id.RoleID) (*event.Role, error)
}

// AuditPublisher records audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Notifier sends participant-facing email. Dispatch is external; the
// service only declares what it needs.
type Notifier interface {
	CertificateAvailable(ctx context.Context, email, name string) error
}

// Service is the participant application service.
type Service struct {
	participants Store
	refs         ReferenceData
	privacy      *privacy.Service
	hours        *hours.Calculator

	logger   *slog.Logger
	auditPub AuditPublisher
	notifier Notifier
}

// Option configures optional collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(pub AuditPublisher) Option {
	return func(s *Service) { s.auditPub = pub }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// New constructs the participant service.
func New(participants Store, refs ReferenceData, privacySvc *privacy.Service, calc *hours.Calculator, opts ...Option) *Service {
	s := &Service{
		participants: participants,
		refs:         refs,
		privacy:      privacySvc,
		hours:        calc,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPub == nil {
		return
	}
	if err := s.auditPub.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			slog.String("action", string(event.Action)),
			slog.String("error", err.Error()))
	}
}
