package validation_test

import (
	"context"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pintcert/internal/event"
	"pintcert/internal/eventconfig"
	"pintcert/internal/hours"
	"pintcert/internal/participant/models"
	"pintcert/internal/participant/store"
	"pintcert/internal/privacy"
	"pintcert/internal/validation"
	id "pintcert/pkg/domain"
)

type WorkflowSuite struct {
	suite.Suite

	ctx      context.Context
	privacy  *privacy.Service
	store    *store.Memory
	refs     *event.InMemoryStore
	workflow *validation.Workflow

	eventID id.EventID
	cityID  id.CityID
	speaker id.RoleID
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	s.Require().NoError(err)
	s.privacy, err = privacy.New(key, []byte("lookup"), []byte("signing"))
	s.Require().NoError(err)

	s.ctx = context.Background()
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
	s.workflow = validation.New(s.store, s.refs, s.privacy, hours.NewCalculator(resolver))
}

func (s *WorkflowSuite) seedParticipant(name, email string) *models.Participant {
	encryptedName, err := s.privacy.Encrypt(name)
	s.Require().NoError(err)
	encryptedEmail, err := s.privacy.Encrypt(email)
	s.Require().NoError(err)

	p, err := models.NewParticipant(
		id.ParticipantID(uuid.New()),
		s.eventID, s.cityID, s.speaker,
		encryptedName, encryptedEmail,
		s.privacy.LookupHash(email),
		[]string{"2025-05-19", "2025-05-21"},
		"", time.Now(),
	)
	s.Require().NoError(err)
	p.Validated = true
	s.Require().NoError(s.store.Create(s.ctx, p))
	return p
}

func (s *WorkflowSuite) TestEnsureSignature_Idempotent() {
	p := s.seedParticipant("Ana Silva", "ana@ex.com")

	first, err := s.workflow.EnsureSignature(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Len(first, 64)

	second, err := s.workflow.EnsureSignature(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(first, second)

	s.True(s.privacy.Verify(first, p.ID, s.eventID, "ana@ex.com", "Ana Silva"))
}

func (s *WorkflowSuite) TestVerify_Authentic() {
	p := s.seedParticipant("Ana Silva", "ana@ex.com")
	sig, err := s.workflow.EnsureSignature(s.ctx, p.ID)
	s.Require().NoError(err)

	result, err := s.workflow.Verify(s.ctx, sig)
	s.Require().NoError(err)

	s.Equal(validation.OutcomeAuthentic, result.Outcome)
	s.Equal("Ana Silva", result.Name)
	s.Equal("Palestrante", result.RoleName)
	s.Equal("São Paulo-SP", result.CityName)
	s.Equal([]string{"2025-05-19", "2025-05-21"}, result.ParticipationDates)
	s.Equal(8, result.Hours, "hours are recomputed at verification time")
	s.True(result.Validated)
}

func (s *WorkflowSuite) TestVerify_NotFound() {
	s.Run("unknown signature", func() {
		result, err := s.workflow.Verify(s.ctx, strings.Repeat("ab", 32))
		s.Require().NoError(err)
		s.Equal(validation.OutcomeNotFound, result.Outcome)
		s.Empty(result.Name)
	})

	s.Run("malformed signature", func() {
		for _, sig := range []string{"", "zz", strings.Repeat("g", 64)} {
			result, err := s.workflow.Verify(s.ctx, sig)
			s.Require().NoError(err)
			s.Equal(validation.OutcomeNotFound, result.Outcome)
		}
	})
}

func (s *WorkflowSuite) TestVerify_CaseMangledInput() {
	p := s.seedParticipant("Ana Silva", "ana@ex.com")
	sig, err := s.workflow.EnsureSignature(s.ctx, p.ID)
	s.Require().NoError(err)

	result, err := s.workflow.Verify(s.ctx, " "+strings.ToUpper(sig)+" ")
	s.Require().NoError(err)
	s.Equal(validation.OutcomeAuthentic, result.Outcome,
		"an uppercased link must still resolve the certificate")
}

func (s *WorkflowSuite) TestVerify_InvalidAfterDrift() {
	p := s.seedParticipant("Ana Silva", "ana@ex.com")
	sig, err := s.workflow.EnsureSignature(s.ctx, p.ID)
	s.Require().NoError(err)

	// Change the stored identity without re-signing, as a direct database
	// edit would. The stored signature no longer reproduces.
	tampered, err := s.privacy.Encrypt("Eve Adams")
	s.Require().NoError(err)
	_, err = s.store.Execute(s.ctx, p.ID,
		func(*models.Participant) error { return nil },
		func(rec *models.Participant) { rec.EncryptedName = tampered },
	)
	s.Require().NoError(err)

	result, err := s.workflow.Verify(s.ctx, sig)
	s.Require().NoError(err)
	s.Equal(validation.OutcomeInvalid, result.Outcome)
	s.Empty(result.Name, "an invalid certificate exposes no fields")
}

func (s *WorkflowSuite) TestResign() {
	p := s.seedParticipant("Ana Silva", "ana@ex.com")
	oldSig, err := s.workflow.EnsureSignature(s.ctx, p.ID)
	s.Require().NoError(err)

	// Rotate identity under the signature, then regenerate.
	newName, err := s.privacy.Encrypt("Ana Maria Silva")
	s.Require().NoError(err)
	_, err = s.store.Execute(s.ctx, p.ID,
		func(*models.Participant) error { return nil },
		func(rec *models.Participant) { rec.EncryptedName = newName },
	)
	s.Require().NoError(err)

	s.Require().NoError(s.workflow.Resign(s.ctx, p.ID))

	stored, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.NotEqual(oldSig, stored.Signature)
	s.True(s.privacy.Verify(stored.Signature, p.ID, s.eventID, "ana@ex.com", "Ana Maria Silva"))

	s.Run("old signature now verifies as invalid", func() {
		result, err := s.workflow.Verify(s.ctx, oldSig)
		s.Require().NoError(err)
		s.Equal(validation.OutcomeNotFound, result.Outcome)
	})

	s.Run("unsigned participant is left unsigned", func() {
		unsigned := s.seedParticipant("Beatriz Costa", "bea@ex.com")
		s.Require().NoError(s.workflow.Resign(s.ctx, unsigned.ID))

		stored, err := s.store.FindByID(s.ctx, unsigned.ID)
		s.Require().NoError(err)
		s.False(stored.Signed())
	})
}
