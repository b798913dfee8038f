// Package models defines the participant aggregate.
package models

import (
	"time"

	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
)

// Participant is a registered attendee of one event edition in one city.
//
// Invariants:
//   - Name and email are stored encrypted only; plaintext never touches
//     the store.
//   - EmailLookupHash is the deterministic digest of the normalized email,
//     unique per event. It is how duplicates and certificate requests are
//     found without decrypting the table.
//   - Signature is empty until the first certificate render, then exactly
//     64 hex characters. At most one signature is durably stored at a
//     time; it changes only when name or email is edited.
//   - At least one participation date is present.
type Participant struct {
	ID      id.ParticipantID `json:"id"`
	EventID id.EventID       `json:"event_id"`
	CityID  id.CityID        `json:"city_id"`
	RoleID  id.RoleID        `json:"role_id"`

	EncryptedName   []byte `json:"-"`
	EncryptedEmail  []byte `json:"-"`
	EmailLookupHash string `json:"-"`
	Signature       string `json:"-"`

	ParticipationDates []string `json:"participation_dates"`
	PresentationTitle  string   `json:"presentation_title,omitempty"`
	Validated          bool     `json:"validated"`

	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewParticipant validates and constructs a Participant. The caller
// supplies already-encrypted fields and the lookup hash; the aggregate
// never sees plaintext PII.
func NewParticipant(
	participantID id.ParticipantID,
	eventID id.EventID,
	cityID id.CityID,
	roleID id.RoleID,
	encryptedName, encryptedEmail []byte,
	emailLookupHash string,
	dates []string,
	presentationTitle string,
	now time.Time,
) (*Participant, error) {
	switch {
	case participantID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvalidInput, "participant id is required")
	case eventID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvalidInput, "event id is required")
	case cityID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvalidInput, "city id is required")
	case roleID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvalidInput, "role id is required")
	case len(encryptedName) == 0:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "encrypted name is required")
	case len(encryptedEmail) == 0:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "encrypted email is required")
	case emailLookupHash == "":
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email lookup hash is required")
	case len(dates) == 0:
		return nil, dErrors.New(dErrors.CodeValidation, "at least one participation date is required")
	}

	return &Participant{
		ID:                 participantID,
		EventID:            eventID,
		CityID:             cityID,
		RoleID:             roleID,
		EncryptedName:      encryptedName,
		EncryptedEmail:     encryptedEmail,
		EmailLookupHash:    emailLookupHash,
		ParticipationDates: dates,
		PresentationTitle:  presentationTitle,
		RegisteredAt:       now,
		UpdatedAt:          now,
	}, nil
}

// Signed reports whether a validation signature has been generated.
func (p *Participant) Signed() bool {
	return p.Signature != ""
}

// ApplyIdentityChange replaces the encrypted identity fields and, when a
// signature exists, the regenerated signature. An unsigned participant
// stays unsigned; the signature is generated lazily on first render.
func (p *Participant) ApplyIdentityChange(encryptedName, encryptedEmail []byte, lookupHash, newSignature string, now time.Time) {
	p.EncryptedName = encryptedName
	p.EncryptedEmail = encryptedEmail
	p.EmailLookupHash = lookupHash
	if p.Signed() {
		p.Signature = newSignature
	}
	p.UpdatedAt = now
}

// ApplyValidation sets the validated flag.
func (p *Participant) ApplyValidation(validated bool, now time.Time) {
	p.Validated = validated
	p.UpdatedAt = now
}

// ValidSignatureFormat reports whether s is exactly 64 lowercase hex
// characters, the only shape a stored signature may have. Presented
// input is lowercased by the caller before this check.
func ValidSignatureFormat(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
