// Package domain holds typed identifiers shared across the service.
//
// Each entity gets its own UUID-backed type so the compiler rejects mixups
// like passing an EventID where a ParticipantID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "pintcert/pkg/domain-errors"
)

type (
	// ParticipantID identifies a registered participant.
	ParticipantID uuid.UUID
	// EventID identifies an event edition (one festival year).
	EventID uuid.UUID
	// CityID identifies a host city.
	CityID uuid.UUID
	// RoleID identifies a participation role (speaker, coordinator, ...).
	RoleID uuid.UUID
	// StaffID identifies a staff member (coordinator or superadmin).
	StaffID uuid.UUID
)

func (id ParticipantID) String() string { return uuid.UUID(id).String() }
func (id EventID) String() string       { return uuid.UUID(id).String() }
func (id CityID) String() string        { return uuid.UUID(id).String() }
func (id RoleID) String() string        { return uuid.UUID(id).String() }
func (id StaffID) String() string       { return uuid.UUID(id).String() }

// MarshalText renders IDs as canonical UUID strings in JSON. Defined
// explicitly because named types do not inherit uuid.UUID's methods.
func (id ParticipantID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id CityID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id RoleID) MarshalText() ([]byte, error)        { return []byte(id.String()), nil }
func (id StaffID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

func (id *ParticipantID) UnmarshalText(b []byte) error {
	parsed, err := ParseParticipantID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *EventID) UnmarshalText(b []byte) error {
	parsed, err := ParseEventID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CityID) UnmarshalText(b []byte) error {
	parsed, err := ParseCityID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RoleID) UnmarshalText(b []byte) error {
	parsed, err := ParseRoleID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *StaffID) UnmarshalText(b []byte) error {
	parsed, err := ParseStaffID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ParticipantID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id CityID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id RoleID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id StaffID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Used at trust boundaries (HTTP, config, storage rows).
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id cannot be the nil uuid")
	}
	return u, nil
}

// ParseParticipantID validates and converts a string into a ParticipantID.
func ParseParticipantID(s string) (ParticipantID, error) {
	u, err := parseUUID(s, "participant")
	return ParticipantID(u), err
}

// ParseEventID validates and converts a string into an EventID.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event")
	return EventID(u), err
}

// ParseCityID validates and converts a string into a CityID.
func ParseCityID(s string) (CityID, error) {
	u, err := parseUUID(s, "city")
	return CityID(u), err
}

// ParseRoleID validates and converts a string into a RoleID.
func ParseRoleID(s string) (RoleID, error) {
	u, err := parseUUID(s, "role")
	return RoleID(u), err
}

// ParseStaffID validates and converts a string into a StaffID.
func ParseStaffID(s string) (StaffID, error) {
	u, err := parseUUID(s, "staff")
	return StaffID(u), err
}
