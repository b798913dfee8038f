package service

import (
	"context"
	"log/slog"

	"pintcert/internal/participant/models"
	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
)

// View is the decrypted, staff-facing projection of a participant. Hours
// are recomputed from current rules at read time; no stored hour value
// exists anywhere.
type View struct {
	ID                 id.ParticipantID `json:"id"`
	Name               string           `json:"name"`
	Email              string           `json:"email"`
	RoleName           string           `json:"role"`
	CityID             id.CityID        `json:"city_id"`
	CityName           string           `json:"city"`
	ParticipationDates []string         `json:"participation_dates"`
	PresentationTitle  string           `json:"presentation_title,omitempty"`
	Validated          bool             `json:"validated"`
	Signed             bool             `json:"signed"`
	Hours              int              `json:"hours"`
	HoursBreakdown     string           `json:"hours_breakdown"`
}

// List returns decrypted views for every participant of an event. A record
// whose ciphertext cannot be opened is logged and skipped so one bad row
// never hides the rest of the list.
func (s *Service) List(ctx context.Context, eventID id.EventID) ([]View, error) {
	ev, err := s.refs.FindEvent(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}

	records, err := s.participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list participants")
	}

	roleNames := make(map[id.RoleID]string)
	cityNames := make(map[id.CityID]string)

	views := make([]View, 0, len(records))
	for _, p := range records {
		email, name, err := s.decryptIdentity(p)
		if err != nil {
			s.logger.ErrorContext(ctx, "skipping unreadable participant record",
				slog.String("participant_id", p.ID.String()),
				slog.String("error", err.Error()))
			continue
		}

		roleName, ok := roleNames[p.RoleID]
		if !ok {
			if role, err := s.refs.FindRole(ctx, p.RoleID); err == nil {
				roleName = role.Name
			}
			roleNames[p.RoleID] = roleName
		}
		cityName, ok := cityNames[p.CityID]
		if !ok {
			if city, err := s.refs.FindCity(ctx, p.CityID); err == nil {
				cityName = city.DisplayName()
			}
			cityNames[p.CityID] = cityName
		}

		credited, breakdown := s.hours.Credit(ctx, p.ParticipationDates, ev.CalendarDates, ev.Year, p.RoleID)
		views = append(views, View{
			ID:                 p.ID,
			Name:               name,
			Email:              email,
			RoleName:           roleName,
			CityID:             p.CityID,
			CityName:           cityName,
			ParticipationDates: p.ParticipationDates,
			PresentationTitle:  p.PresentationTitle,
			Validated:          p.Validated,
			Signed:             p.Signed(),
			Hours:              credited,
			HoursBreakdown:     breakdown,
		})
	}
	return views, nil
}

// ViewOf builds the decrypted view for a single participant.
func (s *Service) ViewOf(ctx context.Context, p *models.Participant) (View, error) {
	ev, err := s.refs.FindEvent(ctx, p.EventID)
	if err != nil {
		return View{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	email, name, err := s.decryptIdentity(p)
	if err != nil {
		return View{}, dErrors.Wrap(err, dErrors.CodeInternal, "cannot decrypt participant record")
	}

	var roleName, cityName string
	if role, err := s.refs.FindRole(ctx, p.RoleID); err == nil {
		roleName = role.Name
	}
	if city, err := s.refs.FindCity(ctx, p.CityID); err == nil {
		cityName = city.DisplayName()
	}

	credited, breakdown := s.hours.Credit(ctx, p.ParticipationDates, ev.CalendarDates, ev.Year, p.RoleID)
	return View{
		ID:                 p.ID,
		Name:               name,
		Email:              email,
		RoleName:           roleName,
		CityID:             p.CityID,
		CityName:           cityName,
		ParticipationDates: p.ParticipationDates,
		PresentationTitle:  p.PresentationTitle,
		Validated:          p.Validated,
		Signed:             p.Signed(),
		Hours:              credited,
		HoursBreakdown:     breakdown,
	}, nil
}
