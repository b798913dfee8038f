// Package eventconfig resolves the per-year certificate configuration:
// theme colors, optional image assets, and the hour-credit rules.
//
// Configuration is a document keyed by year string, with a reserved
// "_default" entry used when a year has no entry of its own. When neither
// exists, built-in constants keep certificate generation working.
package eventconfig

import (
	"fmt"

	id "pintcert/pkg/domain"
)

// DefaultKey is the reserved document key consulted when a year has no
// entry of its own.
const DefaultKey = "_default"

// Built-in hour rules, used when the document has neither a year entry nor
// a default entry.
const (
	builtinHoursPerDay   = 4
	builtinHoursPerEvent = 40
)

// Images holds the optional certificate image assets. Empty paths mean the
// asset is skipped during composition, not an error.
type Images struct {
	Logo      string `json:"logo,omitempty"`
	Signature string `json:"signature,omitempty"`
	Sponsor   string `json:"sponsor,omitempty"`
}

// HourRules governs hour crediting for one year.
type HourRules struct {
	HoursPerDay   int `json:"hours_per_day"`
	HoursPerEvent int `json:"hours_per_event"`
	// FullCreditRoles lists role IDs credited with HoursPerEvent
	// regardless of attendance.
	FullCreditRoles []string `json:"full_credit_roles,omitempty"`
}

// FullCredit reports whether the role is credited independently of
// attendance.
func (r HourRules) FullCredit(roleID id.RoleID) bool {
	for _, candidate := range r.FullCreditRoles {
		if candidate == roleID.String() {
			return true
		}
	}
	return false
}

// YearConfig is the resolved configuration for one event year.
type YearConfig struct {
	// Colors holds the four theme colors as hex strings:
	// primary, secondary, text, and accent, in that order.
	Colors    [4]string `json:"colors"`
	Images    Images    `json:"images"`
	HourRules HourRules `json:"hour_rules"`
}

// Validate checks the parts of a YearConfig that would break certificate
// generation if wrong.
func (c YearConfig) Validate() error {
	for i, color := range c.Colors {
		if color == "" {
			return fmt.Errorf("color %d is empty", i)
		}
	}
	if c.HourRules.HoursPerDay <= 0 {
		return fmt.Errorf("hours_per_day must be positive, got %d", c.HourRules.HoursPerDay)
	}
	if c.HourRules.HoursPerEvent <= 0 {
		return fmt.Errorf("hours_per_event must be positive, got %d", c.HourRules.HoursPerEvent)
	}
	return nil
}

// Builtin returns the hardcoded last-resort configuration.
func Builtin() YearConfig {
	return YearConfig{
		Colors: [4]string{"#1c1c3c", "#e8b74a", "#1c1c3c", "#b03a5b"},
		HourRules: HourRules{
			HoursPerDay:   builtinHoursPerDay,
			HoursPerEvent: builtinHoursPerEvent,
		},
	}
}
