package staff_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pintcert/internal/staff"
	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
)

type StaffSuite struct {
	suite.Suite

	store  *staff.InMemoryStore
	tokens *staff.TokenService
	svc    *staff.Service

	saoPaulo id.CityID
	curitiba id.CityID
}

func TestStaffSuite(t *testing.T) {
	suite.Run(t, new(StaffSuite))
}

func (s *StaffSuite) SetupTest() {
	s.store = staff.NewInMemoryStore()
	s.tokens = staff.NewTokenService("test-signing-key", "pintcert", "pintcert-staff")
	s.svc = staff.NewService(s.store, s.tokens)
	s.saoPaulo = id.CityID(uuid.New())
	s.curitiba = id.CityID(uuid.New())
}

func (s *StaffSuite) seedCoordinator(email, password string, cities ...id.CityID) *staff.Staff {
	hash, err := staff.HashPassword(password)
	s.Require().NoError(err)
	account, err := staff.NewStaff(id.StaffID(uuid.New()), "Carla Dias", email, hash, false, cities, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), account))
	return account
}

func (s *StaffSuite) TestCanManageCity() {
	coordinator := s.seedCoordinator("carla@pint.br", "s3cret", s.saoPaulo)

	s.True(coordinator.CanManageCity(s.saoPaulo))
	s.False(coordinator.CanManageCity(s.curitiba))

	admin := &staff.Staff{ID: id.StaffID(uuid.New()), Superadmin: true}
	s.True(admin.CanManageCity(s.saoPaulo))
	s.True(admin.CanManageCity(s.curitiba))
}

func (s *StaffSuite) TestLoginAndAuthenticate() {
	ctx := context.Background()
	account := s.seedCoordinator("carla@pint.br", "s3cret", s.saoPaulo)

	s.Run("valid credentials issue a working token", func() {
		token, err := s.svc.Login(ctx, "carla@pint.br", "s3cret")
		s.Require().NoError(err)

		identity, err := s.svc.Authenticate(ctx, token)
		s.Require().NoError(err)
		s.Equal(account.ID, identity.ID)
		s.False(identity.Superadmin)
		s.Equal([]id.CityID{s.saoPaulo}, identity.CityIDs)
	})

	s.Run("wrong password and unknown email look the same", func() {
		_, errWrong := s.svc.Login(ctx, "carla@pint.br", "nope")
		_, errUnknown := s.svc.Login(ctx, "ghost@pint.br", "nope")

		s.True(dErrors.HasCode(errWrong, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(errUnknown, dErrors.CodeUnauthorized))
		s.Equal(errWrong.Error(), errUnknown.Error())
	})

	s.Run("garbage token is rejected", func() {
		_, err := s.svc.Authenticate(ctx, "not-a-token")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("token signed with another key is rejected", func() {
		otherTokens := staff.NewTokenService("other-key", "pintcert", "pintcert-staff")
		forged, err := otherTokens.Generate(account, time.Hour)
		s.Require().NoError(err)

		_, err = s.svc.Authenticate(ctx, forged)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
