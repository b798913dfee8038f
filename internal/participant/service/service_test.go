package service_test

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pintcert/internal/event"
	"pintcert/internal/eventconfig"
	"pintcert/internal/hours"
	"pintcert/internal/participant/service"
	"pintcert/internal/participant/store"
	"pintcert/internal/privacy"
	id "pintcert/pkg/domain"
	dErrors "pintcert/pkg/domain-errors"
	"pintcert/pkg/requestcontext"
)

type notifierSpy struct {
	emails []string
}

func (n *notifierSpy) CertificateAvailable(_ context.Context, email, _ string) error {
	n.emails = append(n.emails, email)
	return nil
}

type ServiceSuite struct {
	suite.Suite

	ctx      context.Context
	privacy  *privacy.Service
	store    *store.Memory
	refs     *event.InMemoryStore
	notifier *notifierSpy
	svc      *service.Service

	eventID id.EventID
	cityID  id.CityID
	speaker id.RoleID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	s.Require().NoError(err)
	s.privacy, err = privacy.New(key, []byte("lookup"), []byte("signing"))
	s.Require().NoError(err)

	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))

	s.eventID = id.EventID(uuid.New())
	s.cityID = id.CityID(uuid.New())
	s.speaker = id.RoleID(uuid.New())

	s.refs = event.NewInMemoryStore()
	ev, err := event.NewEvent(s.eventID, "Pint of Science Brasil 2025", 2025,
		[]string{"2025-05-19", "2025-05-20", "2025-05-21"}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.refs.CreateEvent(s.ctx, ev))
	s.Require().NoError(s.refs.SaveCity(s.ctx, &event.City{ID: s.cityID, Name: "São Paulo", State: "SP"}))
	s.Require().NoError(s.refs.SaveRole(s.ctx, &event.Role{ID: s.speaker, Name: "Palestrante"}))

	resolver := eventconfig.NewResolver(eventconfig.StaticSource{
		"2025": {
			Colors:    [4]string{"#111111", "#222222", "#333333", "#444444"},
			HourRules: eventconfig.HourRules{HoursPerDay: 4, HoursPerEvent: 40},
		},
	}, nil)

	s.store = store.NewMemory()
	s.notifier = &notifierSpy{}
	s.svc = service.New(s.store, s.refs, s.privacy, hours.NewCalculator(resolver),
		service.WithNotifier(s.notifier))
}

func (s *ServiceSuite) register(email string) *service.RegisterInput {
	return &service.RegisterInput{
		EventID:            s.eventID,
		CityID:             s.cityID,
		RoleID:             s.speaker,
		Name:               "Ana Silva",
		Email:              email,
		ParticipationDates: []string{"2025-05-19", "2025-05-21"},
	}
}

func (s *ServiceSuite) TestRegister() {
	s.Run("happy path stores encrypted PII only", func() {
		p, err := s.svc.Register(s.ctx, *s.register("Ana@Ex.com "))
		s.Require().NoError(err)

		s.NotContains(string(p.EncryptedName), "Ana Silva")
		s.NotContains(string(p.EncryptedEmail), "ana@ex.com")
		s.Equal(s.privacy.LookupHash("ana@ex.com"), p.EmailLookupHash)
		s.False(p.Signed())
		s.False(p.Validated)
	})

	s.Run("duplicate email for the same event conflicts", func() {
		_, err := s.svc.Register(s.ctx, *s.register("dup@ex.com"))
		s.Require().NoError(err)

		_, err = s.svc.Register(s.ctx, *s.register(" DUP@ex.com"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("dates outside the calendar are rejected", func() {
		in := s.register("zero@ex.com")
		in.ParticipationDates = []string{"2025-06-01"}

		_, err := s.svc.Register(s.ctx, *in)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown event", func() {
		in := s.register("ghost@ex.com")
		in.EventID = id.EventID(uuid.New())

		_, err := s.svc.Register(s.ctx, *in)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestList_RecomputesHours() {
	_, err := s.svc.Register(s.ctx, *s.register("ana@ex.com"))
	s.Require().NoError(err)

	views, err := s.svc.List(s.ctx, s.eventID)
	s.Require().NoError(err)
	s.Require().Len(views, 1)

	v := views[0]
	s.Equal("Ana Silva", v.Name)
	s.Equal("ana@ex.com", v.Email)
	s.Equal("Palestrante", v.RoleName)
	s.Equal("São Paulo-SP", v.CityName)
	s.Equal(8, v.Hours)
	s.Contains(v.HoursBreakdown, "2 day(s)")
}

func (s *ServiceSuite) TestEditIdentity_CascadesSignature() {
	p, err := s.svc.Register(s.ctx, *s.register("ana@ex.com"))
	s.Require().NoError(err)

	oldSig, err := s.store.SetSignatureIfAbsent(s.ctx, p.ID, s.privacy.Sign(p.ID, p.EventID, "ana@ex.com", "Ana Silva"))
	s.Require().NoError(err)

	edited, err := s.svc.EditIdentity(s.ctx, p.ID, "Ana Maria Silva", "ana.maria@ex.com")
	s.Require().NoError(err)

	s.Run("lookup hash follows the new email", func() {
		s.Equal(s.privacy.LookupHash("ana.maria@ex.com"), edited.EmailLookupHash)
		_, err := s.store.FindByLookupHash(s.ctx, s.eventID, s.privacy.LookupHash("ana@ex.com"))
		s.Error(err)
	})

	s.Run("signature regenerated for the new identity", func() {
		s.NotEqual(oldSig, edited.Signature)
		s.True(s.privacy.Verify(edited.Signature, p.ID, p.EventID, "ana.maria@ex.com", "Ana Maria Silva"))
		s.False(s.privacy.Verify(oldSig, p.ID, p.EventID, "ana.maria@ex.com", "Ana Maria Silva"))
	})

	s.Run("unsigned participant stays unsigned after edit", func() {
		p2, err := s.svc.Register(s.ctx, *s.register("bea@ex.com"))
		s.Require().NoError(err)

		edited2, err := s.svc.EditIdentity(s.ctx, p2.ID, "Beatriz Costa", "bea@ex.com")
		s.Require().NoError(err)
		s.False(edited2.Signed())
	})
}

func (s *ServiceSuite) TestEditIdentity_DuplicateEmailConflicts() {
	ana, err := s.svc.Register(s.ctx, *s.register("ana@ex.com"))
	s.Require().NoError(err)
	bia, err := s.svc.Register(s.ctx, *s.register("bia@ex.com"))
	s.Require().NoError(err)

	_, err = s.svc.EditIdentity(s.ctx, bia.ID, "Bia Souza", "ana@ex.com")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	s.Run("the other participant keeps their lookup entry", func() {
		found, err := s.store.FindByLookupHash(s.ctx, s.eventID, s.privacy.LookupHash("ana@ex.com"))
		s.Require().NoError(err)
		s.Equal(ana.ID, found.ID)
	})

	s.Run("the rejected edit left the record untouched", func() {
		found, err := s.store.FindByLookupHash(s.ctx, s.eventID, s.privacy.LookupHash("bia@ex.com"))
		s.Require().NoError(err)
		s.Equal(bia.ID, found.ID)
	})
}

func (s *ServiceSuite) TestSetValidated() {
	p, err := s.svc.Register(s.ctx, *s.register("ana@ex.com"))
	s.Require().NoError(err)

	s.Run("validate notifies the participant", func() {
		updated, err := s.svc.SetValidated(s.ctx, p.ID, true)
		s.Require().NoError(err)
		s.True(updated.Validated)
		s.Equal([]string{"ana@ex.com"}, s.notifier.emails)
	})

	s.Run("repeating the same state conflicts", func() {
		_, err := s.svc.SetValidated(s.ctx, p.ID, true)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("invalidate flips back without notification", func() {
		updated, err := s.svc.SetValidated(s.ctx, p.ID, false)
		s.Require().NoError(err)
		s.False(updated.Validated)
		s.Len(s.notifier.emails, 1)
	})
}

func (s *ServiceSuite) TestFindForCertificate() {
	p, err := s.svc.Register(s.ctx, *s.register("ana@ex.com"))
	s.Require().NoError(err)

	s.Run("unvalidated registration is refused", func() {
		_, err := s.svc.FindForCertificate(s.ctx, s.eventID, "ana@ex.com")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("validated registration is found by normalized email", func() {
		_, err := s.svc.SetValidated(s.ctx, p.ID, true)
		s.Require().NoError(err)

		found, err := s.svc.FindForCertificate(s.ctx, s.eventID, "  ANA@ex.com ")
		s.Require().NoError(err)
		s.Equal(p.ID, found.ID)
	})

	s.Run("unknown email is not found", func() {
		_, err := s.svc.FindForCertificate(s.ctx, s.eventID, "nobody@ex.com")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
