// Package validation owns the certificate authenticity lifecycle: lazy
// signature generation, regeneration after identity edits, and the public
// three-way verification check.
package validation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pintcert/internal/audit"
	"pintcert/internal/event"
	"pintcert/internal/hours"
	"pintcert/internal/participant/models"
	"pintcert/internal/privacy"
	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
	"pintcert/pkg/platform/sentinel"
)

var (
	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pintcert_verifications_total",
		Help: "Certificate verifications by outcome",
	}, []string{"outcome"})

	signaturesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pintcert_signatures_generated_total",
		Help: "Validation signatures generated and stored",
	})
)

// Outcome is the three-way verification result. A mismatch is a result,
// not an error.
type Outcome string

const (
	// OutcomeNotFound means no record matches the presented signature.
	OutcomeNotFound Outcome = "NOT_FOUND"
	// OutcomeInvalid means a record was found but its current identity
	// does not reproduce the signature. Signals tampering or drift and is
	// never silently accepted.
	OutcomeInvalid Outcome = "INVALID"
	// OutcomeAuthentic means the signature reproduces exactly.
	OutcomeAuthentic Outcome = "AUTHENTIC"
)

// Result carries the outcome and, when authentic, the public certificate
// fields. Hours are recomputed at verification time, never read from
// storage.
type Result struct {
	Outcome Outcome `json:"outcome"`

	Name               string   `json:"name,omitempty"`
	RoleName           string   `json:"role,omitempty"`
	CityName           string   `json:"city,omitempty"`
	ParticipationDates []string `json:"participation_dates,omitempty"`
	// Hours and Validated are always serialized: a revoked certificate
	// must answer validated=false, not omit the field.
	Hours     int  `json:"hours"`
	Validated bool `json:"validated"`
}

// Store is the slice of participant persistence the workflow needs.
type Store interface {
	FindByID(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error)
	FindBySignature(ctx context.Context, signature string) (*models.Participant, error)
	// SetSignatureIfAbsent stores the signature only when none exists and
	// returns the durably stored value; the store serializes this per
	// participant.
	SetSignatureIfAbsent(ctx context.Context, participantID id.ParticipantID, signature string) (string, error)
	Execute(ctx context.Context, participantID id.ParticipantID,
		validate func(*models.Participant) error,
		mutate func(*models.Participant)) (*models.Participant, error)
}

// ReferenceData resolves the event, city, and role shown on an authentic
// certificate.
type ReferenceData interface {
	FindEvent(ctx context.Context, eventID id.EventID) (*event.Event, error)
	FindCity(ctx context.Context, cityID id.CityID) (*event.City, error)
	FindRole(ctx context.Context, roleID id.RoleID) (*event.Role, error)
}

// AuditPublisher records security-relevant events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Workflow implements the signature lifecycle.
type Workflow struct {
	participants Store
	refs         ReferenceData
	privacy      *privacy.Service
	hours        *hours.Calculator

	logger   *slog.Logger
	auditPub AuditPublisher
}

// Option configures optional collaborators.
type Option func(*Workflow)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) { w.logger = logger }
}

func WithAuditPublisher(pub AuditPublisher) Option {
	return func(w *Workflow) { w.auditPub = pub }
}

// New constructs the validation workflow.
func New(participants Store, refs ReferenceData, privacySvc *privacy.Service, calc *hours.Calculator, opts ...Option) *Workflow {
	w := &Workflow{
		participants: participants,
		refs:         refs,
		privacy:      privacySvc,
		hours:        calc,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) emit(ctx context.Context, event audit.Event) {
	if w.auditPub == nil {
		return
	}
	if err := w.auditPub.Emit(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "audit emit failed",
			slog.String("action", string(event.Action)),
			slog.String("error", err.Error()))
	}
}

// EnsureSignature returns the participant's signature, generating and
// persisting it on first use. Calling it again without an identity edit
// returns the same value; when two renders race, the store keeps whichever
// signature landed first and both callers receive it (the values are equal
// anyway, both are HMACs of the same tuple).
func (w *Workflow) EnsureSignature(ctx context.Context, participantID id.ParticipantID) (string, error) {
	p, err := w.participants.FindByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "participant not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participant")
	}
	if p.Signed() {
		return p.Signature, nil
	}

	signature, err := w.computeSignature(p)
	if err != nil {
		return "", err
	}

	stored, err := w.participants.SetSignatureIfAbsent(ctx, participantID, signature)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store signature")
	}
	if stored == signature {
		signaturesTotal.Inc()
		w.emit(ctx, audit.Event{
			Action:    audit.ActionCertificateSigned,
			SubjectID: participantID,
		})
	}
	return stored, nil
}

// Resign regenerates and persists the signature of an already-signed
// participant from its current identity fields. Used by the administrative
// regeneration tool after a signing-key rotation; routine identity edits
// re-sign atomically inside the participant service. An unsigned
// participant is left unsigned.
func (w *Workflow) Resign(ctx context.Context, participantID id.ParticipantID) error {
	var signature string
	_, err := w.participants.Execute(ctx, participantID,
		func(p *models.Participant) error {
			if !p.Signed() {
				return nil
			}
			sig, err := w.computeSignature(p)
			if err != nil {
				return err
			}
			signature = sig
			return nil
		},
		func(p *models.Participant) {
			if signature != "" {
				p.Signature = signature
			}
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "participant not found")
		}
		return wrapInternal(err, "failed to regenerate signature")
	}
	return nil
}

// Verify resolves a presented signature to a three-way outcome. Malformed
// input and unknown signatures are NOT_FOUND; a record whose current
// identity no longer reproduces its stored signature is INVALID. The
// input is lowercased first so a case-mangled link still verifies.
func (w *Workflow) Verify(ctx context.Context, signature string) (Result, error) {
	signature = strings.ToLower(strings.TrimSpace(signature))
	if !models.ValidSignatureFormat(signature) {
		verificationsTotal.WithLabelValues(string(OutcomeNotFound)).Inc()
		return Result{Outcome: OutcomeNotFound}, nil
	}

	p, err := w.participants.FindBySignature(ctx, signature)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			verificationsTotal.WithLabelValues(string(OutcomeNotFound)).Inc()
			w.emit(ctx, audit.Event{
				Action: audit.ActionCertificateVerifyFailed,
				Detail: "signature not found",
			})
			return Result{Outcome: OutcomeNotFound}, nil
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up signature")
	}

	email, name, err := w.decryptIdentity(p)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "cannot decrypt participant record")
	}

	if !w.privacy.Verify(signature, p.ID, p.EventID, email, name) {
		verificationsTotal.WithLabelValues(string(OutcomeInvalid)).Inc()
		w.emit(ctx, audit.Event{
			Action:    audit.ActionCertificateVerifyFailed,
			SubjectID: p.ID,
			Detail:    "stored signature does not match current identity",
		})
		return Result{Outcome: OutcomeInvalid}, nil
	}

	ev, err := w.refs.FindEvent(ctx, p.EventID)
	if err != nil {
		return Result{}, wrapInternal(err, "failed to load event")
	}
	credited, _ := w.hours.Credit(ctx, p.ParticipationDates, ev.CalendarDates, ev.Year, p.RoleID)

	result := Result{
		Outcome:            OutcomeAuthentic,
		Name:               name,
		ParticipationDates: p.ParticipationDates,
		Hours:              credited,
		Validated:          p.Validated,
	}
	if role, err := w.refs.FindRole(ctx, p.RoleID); err == nil {
		result.RoleName = role.Name
	}
	if city, err := w.refs.FindCity(ctx, p.CityID); err == nil {
		result.CityName = city.DisplayName()
	}

	verificationsTotal.WithLabelValues(string(OutcomeAuthentic)).Inc()
	return result, nil
}

func (w *Workflow) computeSignature(p *models.Participant) (string, error) {
	email, name, err := w.decryptIdentity(p)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "cannot decrypt participant record")
	}
	return w.privacy.Sign(p.ID, p.EventID, email, name), nil
}

func (w *Workflow) decryptIdentity(p *models.Participant) (email, name string, err error) {
	name, err = w.privacy.Decrypt(p.EncryptedName)
	if err != nil {
		return "", "", err
	}
	email, err = w.privacy.Decrypt(p.EncryptedEmail)
	if err != nil {
		return "", "", err
	}
	return email, name, nil
}

func wrapInternal(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
