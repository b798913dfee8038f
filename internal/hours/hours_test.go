package hours_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pintcert/internal/eventconfig"
	"pintcert/internal/hours"
	id "pintcert/pkg/domain"
)

type CalculatorSuite struct {
	suite.Suite

	coordinator id.RoleID
	speaker     id.RoleID
	calendar    []string
	calc        *hours.Calculator
}

func TestCalculatorSuite(t *testing.T) {
	suite.Run(t, new(CalculatorSuite))
}

func (s *CalculatorSuite) SetupTest() {
	s.coordinator = id.RoleID(uuid.New())
	s.speaker = id.RoleID(uuid.New())
	s.calendar = []string{"2024-05-20", "2024-05-21", "2024-05-22"}

	resolver := eventconfig.NewResolver(eventconfig.StaticSource{
		"2024": {
			Colors: [4]string{"#111111", "#222222", "#333333", "#444444"},
			HourRules: eventconfig.HourRules{
				HoursPerDay:     4,
				HoursPerEvent:   40,
				FullCreditRoles: []string{s.coordinator.String()},
			},
		},
	}, nil)
	s.calc = hours.NewCalculator(resolver)
}

func (s *CalculatorSuite) TestCredit_PerDay() {
	ctx := context.Background()

	s.Run("all dates in calendar", func() {
		total, breakdown := s.calc.Credit(ctx, []string{"2024-05-20", "2024-05-21"}, s.calendar, 2024, s.speaker)
		s.Equal(8, total)
		s.Contains(breakdown, "2 day(s)")
		s.Contains(breakdown, "2024-05-20")
	})

	s.Run("dates outside calendar contribute nothing", func() {
		total, _ := s.calc.Credit(ctx, []string{"2024-05-20", "2024-06-01"}, s.calendar, 2024, s.speaker)
		s.Equal(4, total)
	})

	s.Run("duplicate dates count once", func() {
		total, _ := s.calc.Credit(ctx, []string{"2024-05-20", "2024-05-20"}, s.calendar, 2024, s.speaker)
		s.Equal(4, total)
	})

	s.Run("empty date list yields zero, not an error", func() {
		total, breakdown := s.calc.Credit(ctx, nil, s.calendar, 2024, s.speaker)
		s.Equal(0, total)
		s.Contains(breakdown, "no participation dates")
	})

	s.Run("malformed dates never match", func() {
		total, _ := s.calc.Credit(ctx, []string{"20/05/2024", "yesterday"}, s.calendar, 2024, s.speaker)
		s.Equal(0, total)
	})
}

func (s *CalculatorSuite) TestCredit_FullCreditRole() {
	ctx := context.Background()

	// Attendance is irrelevant for a full-credit role.
	total, breakdown := s.calc.Credit(ctx, nil, s.calendar, 2024, s.coordinator)
	s.Equal(40, total)
	s.Contains(breakdown, "full-credit role")
}

func (s *CalculatorSuite) TestCredit_UnconfiguredYearUsesBuiltin() {
	ctx := context.Background()

	// 2019 has no entry and the document has no default: builtin 4 h/day.
	total, _ := s.calc.Credit(ctx, []string{"2024-05-20"}, s.calendar, 2019, s.speaker)
	s.Equal(4, total)

	// Full-credit set is empty under builtin rules.
	total, _ = s.calc.Credit(ctx, nil, s.calendar, 2019, s.coordinator)
	s.Equal(0, total)
}
