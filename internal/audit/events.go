// Package audit records who did what to which participant record. Events
// are buffered in-process and drained by a worker so request handlers never
// block on the audit path.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "pintcert/pkg/domain"
)

// Action identifies the kind of audited operation.
type Action string

const (
	ActionParticipantRegistered      Action = "participant.registered"
	ActionParticipantValidated       Action = "participant.validated"
	ActionParticipantInvalidated     Action = "participant.invalidated"
	ActionParticipantIdentityChanged Action = "participant.identity_changed"
	ActionCertificateSigned          Action = "certificate.signed"
	ActionCertificateVerifyFailed    Action = "certificate.verify_failed"
)

// Event is one audit record. ActorID is the zero value for public actions
// (self-registration, certificate verification).
type Event struct {
	ID        uuid.UUID        `json:"id"`
	Action    Action           `json:"action"`
	ActorID   id.StaffID       `json:"actor_id,omitempty"`
	SubjectID id.ParticipantID `json:"subject_id,omitempty"`
	Detail    string           `json:"detail,omitempty"`
	// Device is a short client summary ("Chrome 120 / Windows") parsed
	// from the request User-Agent.
	Device string    `json:"device,omitempty"`
	IP     string    `json:"ip,omitempty"`
	At     time.Time `json:"at"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subjectID id.ParticipantID) ([]Event, error)
}
