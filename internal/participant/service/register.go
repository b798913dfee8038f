package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"pintcert/internal/audit"
	"pintcert/internal/participant/models"
	"pintcert/internal/privacy"
	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
	"pintcert/pkg/platform/sentinel"
	"pintcert/pkg/requestcontext"
)

// RegisterInput is the public registration request.
type RegisterInput struct {
	EventID            id.EventID
	CityID             id.CityID
	RoleID             id.RoleID
	Name               string
	Email              string
	ParticipationDates []string
	PresentationTitle  string
}

// Register creates a participant. The email must not already be registered
// for the event, and the participation dates must credit at least one hour
// under the event's rules; a registration that would produce an empty
// certificate is rejected up front.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Participant, error) {
	name := privacy.NormalizeName(in.Name)
	email := privacy.NormalizeEmail(in.Email)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}

	ev, err := s.refs.FindEvent(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	if _, err := s.refs.FindCity(ctx, in.CityID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "city not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load city")
	}
	if _, err := s.refs.FindRole(ctx, in.RoleID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "role not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load role")
	}

	credited, _ := s.hours.Credit(ctx, in.ParticipationDates, ev.CalendarDates, ev.Year, in.RoleID)
	if credited == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "participation dates credit no hours for this event")
	}

	encryptedName, err := s.privacy.Encrypt(name)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to protect participant name")
	}
	encryptedEmail, err := s.privacy.Encrypt(email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to protect participant email")
	}

	p, err := models.NewParticipant(
		id.ParticipantID(uuid.New()),
		in.EventID, in.CityID, in.RoleID,
		encryptedName, encryptedEmail,
		s.privacy.LookupHash(email),
		in.ParticipationDates,
		strings.TrimSpace(in.PresentationTitle),
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.participants.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "this email is already registered for the event")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register participant")
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionParticipantRegistered,
		SubjectID: p.ID,
		Detail:    "event " + in.EventID.String(),
	})
	return p, nil
}
