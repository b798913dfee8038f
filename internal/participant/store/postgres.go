package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pintcert/internal/participant/models"
	id "pintcert/pkg/domain"
	"pintcert/pkg/platform/sentinel"
)

// Postgres persists participants. A unique index on
// (event_id, email_lookup_hash) backs the duplicate-registration check, and
// Execute runs under SELECT ... FOR UPDATE so validate-then-mutate is
// atomic per row.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

const pgUniqueViolation = "23505"

const participantColumns = `
id, event_id, city_id, role_id,
encrypted_name, encrypted_email, email_lookup_hash, signature,
participation_dates, presentation_title, validated,
registered_at, updated_at`

func (s *Postgres) Create(ctx context.Context, p *models.Participant) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO participants (`+participantColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		uuid.UUID(p.ID), uuid.UUID(p.EventID), uuid.UUID(p.CityID), uuid.UUID(p.RoleID),
		p.EncryptedName, p.EncryptedEmail, p.EmailLookupHash, p.Signature,
		p.ParticipationDates, p.PresentationTitle, p.Validated,
		p.RegisteredAt, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	return s.findOne(ctx, `WHERE id = $1`, uuid.UUID(participantID))
}

func (s *Postgres) FindByLookupHash(ctx context.Context, eventID id.EventID, hash string) (*models.Participant, error) {
	return s.findOne(ctx, `WHERE event_id = $1 AND email_lookup_hash = $2`, uuid.UUID(eventID), hash)
}

func (s *Postgres) FindBySignature(ctx context.Context, signature string) (*models.Participant, error) {
	return s.findOne(ctx, `WHERE signature = $1`, signature)
}

func (s *Postgres) findOne(ctx context.Context, where string, args ...any) (*models.Participant, error) {
	row := s.db.QueryRow(ctx, `SELECT `+participantColumns+` FROM participants `+where, args...)
	p, err := scanParticipant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find participant: %w", err)
	}
	return p, nil
}

func (s *Postgres) ListByEvent(ctx context.Context, eventID id.EventID) ([]*models.Participant, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+participantColumns+` FROM participants
WHERE event_id = $1 ORDER BY registered_at`, uuid.UUID(eventID))
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []*models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) Execute(ctx context.Context, participantID id.ParticipantID,
	validate func(*models.Participant) error,
	mutate func(*models.Participant)) (*models.Participant, error) {

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
SELECT `+participantColumns+` FROM participants WHERE id = $1 FOR UPDATE`,
		uuid.UUID(participantID))
	p, err := scanParticipant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock participant: %w", err)
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)

	_, err = tx.Exec(ctx, `
UPDATE participants SET
	encrypted_name = $2, encrypted_email = $3, email_lookup_hash = $4,
	signature = $5, participation_dates = $6, presentation_title = $7,
	validated = $8, updated_at = $9
WHERE id = $1`,
		uuid.UUID(p.ID),
		p.EncryptedName, p.EncryptedEmail, p.EmailLookupHash,
		p.Signature, p.ParticipationDates, p.PresentationTitle,
		p.Validated, p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, sentinel.ErrAlreadyUsed
		}
		return nil, fmt.Errorf("update participant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// SetSignatureIfAbsent writes the signature only when the row has none,
// then reads back whatever is stored. The single UPDATE with the empty
// guard is what enforces "at most one durable signature per participant".
func (s *Postgres) SetSignatureIfAbsent(ctx context.Context, participantID id.ParticipantID, signature string) (string, error) {
	_, err := s.db.Exec(ctx, `
UPDATE participants SET signature = $2, updated_at = now()
WHERE id = $1 AND signature = ''`,
		uuid.UUID(participantID), signature)
	if err != nil {
		return "", fmt.Errorf("set signature: %w", err)
	}

	var stored string
	err = s.db.QueryRow(ctx, `SELECT signature FROM participants WHERE id = $1`,
		uuid.UUID(participantID)).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("read signature: %w", err)
	}
	return stored, nil
}

func scanParticipant(row pgx.Row) (*models.Participant, error) {
	var (
		p                            models.Participant
		pid, eventID, cityID, roleID uuid.UUID
	)
	err := row.Scan(
		&pid, &eventID, &cityID, &roleID,
		&p.EncryptedName, &p.EncryptedEmail, &p.EmailLookupHash, &p.Signature,
		&p.ParticipationDates, &p.PresentationTitle, &p.Validated,
		&p.RegisteredAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ID = id.ParticipantID(pid)
	p.EventID = id.EventID(eventID)
	p.CityID = id.CityID(cityID)
	p.RoleID = id.RoleID(roleID)
	return &p, nil
}
