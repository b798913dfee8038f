// Package staff covers organizer access: credentials, bearer tokens, and
// the city-scoped management capability.
package staff

import (
	"time"

	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
)

// Staff is an organizer account. Coordinators manage specific cities;
// superadmins manage everything.
type Staff struct {
	ID           id.StaffID `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Superadmin   bool       `json:"superadmin"`
	// CityIDs are the cities a coordinator may manage. Ignored for
	// superadmins.
	CityIDs   []id.CityID `json:"city_ids,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewStaff validates and constructs a Staff account.
func NewStaff(staffID id.StaffID, name, email, passwordHash string, superadmin bool, cities []id.CityID, now time.Time) (*Staff, error) {
	switch {
	case staffID.IsNil():
		return nil, dErrors.New(dErrors.CodeInvalidInput, "staff id is required")
	case name == "":
		return nil, dErrors.New(dErrors.CodeValidation, "staff name is required")
	case email == "":
		return nil, dErrors.New(dErrors.CodeValidation, "staff email is required")
	case passwordHash == "":
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "password hash is required")
	}
	return &Staff{
		ID:           staffID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Superadmin:   superadmin,
		CityIDs:      cities,
		CreatedAt:    now,
	}, nil
}

// CanManageCity is the single capability check for city-scoped operations.
// Handlers and services call this instead of comparing role strings.
func (s *Staff) CanManageCity(cityID id.CityID) bool {
	if s.Superadmin {
		return true
	}
	for _, c := range s.CityIDs {
		if c == cityID {
			return true
		}
	}
	return false
}
