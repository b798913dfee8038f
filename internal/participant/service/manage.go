package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"pintcert/internal/audit"
	"pintcert/internal/participant/models"
	"pintcert/internal/privacy"
	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
	"pintcert/pkg/platform/sentinel"
	"pintcert/pkg/requestcontext"
)

// EditIdentity updates a participant's name and email on behalf of staff.
// The fields are re-encrypted, the lookup hash is refreshed, and an
// existing signature is regenerated in the same atomic mutation: a stale
// signature after an edit is a correctness bug, not a tolerated state.
func (s *Service) EditIdentity(ctx context.Context, participantID id.ParticipantID, newName, newEmail string) (*models.Participant, error) {
	name := privacy.NormalizeName(newName)
	email := privacy.NormalizeEmail(newEmail)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}

	encryptedName, err := s.privacy.Encrypt(name)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to protect participant name")
	}
	encryptedEmail, err := s.privacy.Encrypt(email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to protect participant email")
	}
	lookupHash := s.privacy.LookupHash(email)
	now := requestcontext.Now(ctx)

	p, err := s.participants.Execute(ctx, participantID,
		func(p *models.Participant) error { return nil },
		func(p *models.Participant) {
			newSignature := s.privacy.Sign(p.ID, p.EventID, email, name)
			p.ApplyIdentityChange(encryptedName, encryptedEmail, lookupHash, newSignature, now)
		},
	)
	if err != nil {
		return nil, wrapParticipantErr(err)
	}

	s.emit(ctx, audit.Event{
		Action:    audit.ActionParticipantIdentityChanged,
		SubjectID: participantID,
	})
	return p, nil
}

// SetValidated toggles a participant's validated flag. Validation is what
// makes the certificate downloadable; invalidation is how a certificate is
// effectively revoked.
func (s *Service) SetValidated(ctx context.Context, participantID id.ParticipantID, validated bool) (*models.Participant, error) {
	now := requestcontext.Now(ctx)

	p, err := s.participants.Execute(ctx, participantID,
		func(p *models.Participant) error {
			if p.Validated == validated {
				return dErrors.New(dErrors.CodeConflict, "participant validation state is unchanged")
			}
			return nil
		},
		func(p *models.Participant) {
			p.ApplyValidation(validated, now)
		},
	)
	if err != nil {
		return nil, wrapParticipantErr(err)
	}

	action := audit.ActionParticipantValidated
	if !validated {
		action = audit.ActionParticipantInvalidated
	}
	s.emit(ctx, audit.Event{Action: action, SubjectID: participantID})

	if validated && s.notifier != nil {
		email, name, err := s.decryptIdentity(p)
		if err != nil {
			s.logger.ErrorContext(ctx, "cannot notify participant, record unreadable",
				slog.String("participant_id", participantID.String()),
				slog.String("error", err.Error()))
		} else if err := s.notifier.CertificateAvailable(ctx, email, name); err != nil {
			s.logger.ErrorContext(ctx, "certificate notification failed",
				slog.String("participant_id", participantID.String()),
				slog.String("error", err.Error()))
		}
	}
	return p, nil
}

// FindForCertificate locates a validated participant by event and email.
// Used by the public certificate download flow.
func (s *Service) FindForCertificate(ctx context.Context, eventID id.EventID, email string) (*models.Participant, error) {
	normalized := privacy.NormalizeEmail(email)
	if normalized == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email is required")
	}

	p, err := s.participants.FindByLookupHash(ctx, eventID, s.privacy.LookupHash(normalized))
	if err != nil {
		return nil, wrapParticipantErr(err)
	}
	if !p.Validated {
		return nil, dErrors.New(dErrors.CodeForbidden, "registration has not been validated yet")
	}
	return p, nil
}

// Get returns one participant by ID.
func (s *Service) Get(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	p, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		return nil, wrapParticipantErr(err)
	}
	return p, nil
}

func (s *Service) decryptIdentity(p *models.Participant) (email, name string, err error) {
	name, err = s.privacy.Decrypt(p.EncryptedName)
	if err != nil {
		return "", "", err
	}
	email, err = s.privacy.Decrypt(p.EncryptedEmail)
	if err != nil {
		return "", "", err
	}
	return email, name, nil
}

func wrapParticipantErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "participant not found")
	}
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return dErrors.New(dErrors.CodeConflict, "this email is already registered for the event")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "participant store failed")
}
