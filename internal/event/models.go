// Package event holds the reference data certificates are issued against:
// event editions, host cities, and participation roles. This data is
// written by organizers ahead of the festival and read-only during
// registration and certificate generation.
package event

import (
	"time"

	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
)

// Event is one festival edition.
type Event struct {
	ID   id.EventID `json:"id"`
	Name string     `json:"name"`
	Year int        `json:"year"`
	// CalendarDates are the official event days as YYYY-MM-DD strings.
	// Participation dates outside this calendar credit no hours.
	CalendarDates []string  `json:"calendar_dates"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewEvent validates and constructs an Event.
func NewEvent(eventID id.EventID, name string, year int, calendar []string, now time.Time) (*Event, error) {
	if eventID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "event id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "event name is required")
	}
	if year < 2000 || year > 2100 {
		return nil, dErrors.New(dErrors.CodeValidation, "event year is out of range")
	}
	if len(calendar) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "event calendar is required")
	}
	return &Event{
		ID:            eventID,
		Name:          name,
		Year:          year,
		CalendarDates: calendar,
		CreatedAt:     now,
	}, nil
}

// City is a host city, e.g. "São Paulo" / "SP".
type City struct {
	ID    id.CityID `json:"id"`
	Name  string    `json:"name"`
	State string    `json:"state"`
}

// DisplayName is the form printed on certificates, "Name-State".
func (c City) DisplayName() string {
	if c.State == "" {
		return c.Name
	}
	return c.Name + "-" + c.State
}

// Role is a participation role, e.g. speaker or local coordinator.
type Role struct {
	ID   id.RoleID `json:"id"`
	Name string    `json:"name"`
}
