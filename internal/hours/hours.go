// Package hours computes the credited workload printed on certificates.
//
// Hours are never stored; every read path (listing, verification,
// certificate composition) recomputes them from the participation dates and
// the current year rules, so a rule change is reflected everywhere at once.
package hours

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"pintcert/internal/eventconfig"
	id "pintcert/pkg/domain"
)

// Calculator resolves year rules and credits hours.
type Calculator struct {
	resolver *eventconfig.Resolver
}

// NewCalculator builds a Calculator over a year-config resolver.
func NewCalculator(resolver *eventconfig.Resolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// Credit computes the credited hours for one participation and a breakdown
// string for display and audit. The breakdown is documentation output only.
//
// Full-credit roles receive the per-event total regardless of attendance.
// Everyone else is credited per unique participation date that appears in
// the event calendar; dates outside the calendar contribute nothing and are
// not an error. An empty intersection yields zero hours.
func (c *Calculator) Credit(ctx context.Context, participationDates, calendarDates []string, year int, roleID id.RoleID) (int, string) {
	cfg, _ := c.resolver.Resolve(ctx, year)
	rules := cfg.HourRules

	if rules.FullCredit(roleID) {
		return rules.HoursPerEvent, fmt.Sprintf("full-credit role: %d hours for the whole event", rules.HoursPerEvent)
	}

	counted := intersect(participationDates, calendarDates)
	total := len(counted) * rules.HoursPerDay

	if len(counted) == 0 {
		return 0, "no participation dates within the event calendar"
	}
	return total, fmt.Sprintf("%d day(s) x %d hours/day = %d hours (%s)",
		len(counted), rules.HoursPerDay, total, strings.Join(counted, ", "))
}

// intersect returns the unique dates present in both lists, sorted.
// Dates are compared as calendar-date strings (YYYY-MM-DD); a malformed
// date simply never matches.
func intersect(dates, calendar []string) []string {
	inCalendar := make(map[string]struct{}, len(calendar))
	for _, d := range calendar {
		inCalendar[d] = struct{}{}
	}

	seen := make(map[string]struct{}, len(dates))
	var counted []string
	for _, d := range dates {
		if _, ok := inCalendar[d]; !ok {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		counted = append(counted, d)
	}
	sort.Strings(counted)
	return counted
}
