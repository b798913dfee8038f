//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"pintcert/internal/participant/models"
	"pintcert/internal/participant/store"
	id "pintcert/pkg/domain"
	"pintcert/pkg/platform/sentinel"
	"pintcert/pkg/testutil/containers"
)

type PostgresSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *store.Postgres
}

func TestPostgresSuite(t *testing.T) {
	pg := containers.NewPostgresContainer(t)

	schema, err := os.ReadFile("../../../migrations/0001_init.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	pg.Exec(t, string(schema))

	suite.Run(t, &PostgresSuite{pg: pg, store: store.NewPostgres(pg.Pool)})
}

func (s *PostgresSuite) SetupTest() {
	s.pg.Exec(s.T(), `TRUNCATE participants`)
}

func (s *PostgresSuite) newParticipant(eventID id.EventID, hash string) *models.Participant {
	p, err := models.NewParticipant(
		id.ParticipantID(uuid.New()),
		eventID,
		id.CityID(uuid.New()),
		id.RoleID(uuid.New()),
		[]byte("encrypted-name"),
		[]byte("encrypted-email"),
		hash,
		[]string{"2025-05-19", "2025-05-21"},
		"A talk",
		time.Now().UTC().Truncate(time.Microsecond),
	)
	s.Require().NoError(err)
	return p
}

func (s *PostgresSuite) TestCreateAndFind() {
	ctx := context.Background()
	eventID := id.EventID(uuid.New())
	p := s.newParticipant(eventID, "hash-1")

	s.Require().NoError(s.store.Create(ctx, p))

	s.Run("by id", func() {
		got, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)
		s.Equal(p.ParticipationDates, got.ParticipationDates)
		s.Equal(p.EncryptedName, got.EncryptedName)
	})

	s.Run("by lookup hash", func() {
		got, err := s.store.FindByLookupHash(ctx, eventID, "hash-1")
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)
	})

	s.Run("unknown id", func() {
		_, err := s.store.FindByID(ctx, id.ParticipantID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresSuite) TestCreate_DuplicateEmailForEvent() {
	ctx := context.Background()
	eventID := id.EventID(uuid.New())

	s.Require().NoError(s.store.Create(ctx, s.newParticipant(eventID, "same-hash")))

	err := s.store.Create(ctx, s.newParticipant(eventID, "same-hash"))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	s.Require().NoError(s.store.Create(ctx, s.newParticipant(id.EventID(uuid.New()), "same-hash")),
		"same email in another event must be fine")
}

func (s *PostgresSuite) TestExecute_ValidateThenMutate() {
	ctx := context.Background()
	p := s.newParticipant(id.EventID(uuid.New()), "hash-exec")
	s.Require().NoError(s.store.Create(ctx, p))

	got, err := s.store.Execute(ctx, p.ID,
		func(p *models.Participant) error { return nil },
		func(p *models.Participant) { p.Validated = true },
	)
	s.Require().NoError(err)
	s.True(got.Validated)

	reread, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.True(reread.Validated)
}

func (s *PostgresSuite) TestExecute_DuplicateLookupHash() {
	ctx := context.Background()
	eventID := id.EventID(uuid.New())
	ana := s.newParticipant(eventID, "hash-ana")
	bia := s.newParticipant(eventID, "hash-bia")
	s.Require().NoError(s.store.Create(ctx, ana))
	s.Require().NoError(s.store.Create(ctx, bia))

	_, err := s.store.Execute(ctx, bia.ID,
		func(p *models.Participant) error { return nil },
		func(p *models.Participant) { p.EmailLookupHash = "hash-ana" },
	)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	got, err := s.store.FindByLookupHash(ctx, eventID, "hash-ana")
	s.Require().NoError(err)
	s.Equal(ana.ID, got.ID, "the colliding edit must not steal the lookup entry")
}

func (s *PostgresSuite) TestSetSignatureIfAbsent() {
	ctx := context.Background()
	p := s.newParticipant(id.EventID(uuid.New()), "hash-sig")
	s.Require().NoError(s.store.Create(ctx, p))

	first, err := s.store.SetSignatureIfAbsent(ctx, p.ID, "aaaa")
	s.Require().NoError(err)
	s.Equal("aaaa", first)

	second, err := s.store.SetSignatureIfAbsent(ctx, p.ID, "bbbb")
	s.Require().NoError(err)
	s.Equal("aaaa", second, "a stored signature must never be overwritten")

	got, err := s.store.FindBySignature(ctx, "aaaa")
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
}
