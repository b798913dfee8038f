package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "pintcert/pkg/domain"
	"pintcert/pkg/platform/sentinel"
)

// PostgresStore persists reference data in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (s *PostgresStore) CreateEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO events (id, name, year, calendar_dates, created_at)
VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(e.ID), e.Name, e.Year, e.CalendarDates, e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindEvent(ctx context.Context, eventID id.EventID) (*Event, error) {
	var e Event
	var rawID uuid.UUID
	err := s.db.QueryRow(ctx, `
SELECT id, name, year, calendar_dates, created_at
FROM events WHERE id = $1`, uuid.UUID(eventID)).
		Scan(&rawID, &e.Name, &e.Year, &e.CalendarDates, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	e.ID = id.EventID(rawID)
	return &e, nil
}

func (s *PostgresStore) SaveCity(ctx context.Context, c *City) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO cities (id, name, state)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, state = EXCLUDED.state`,
		uuid.UUID(c.ID), c.Name, c.State)
	if err != nil {
		return fmt.Errorf("save city: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCity(ctx context.Context, cityID id.CityID) (*City, error) {
	var c City
	var rawID uuid.UUID
	err := s.db.QueryRow(ctx, `
SELECT id, name, state FROM cities WHERE id = $1`, uuid.UUID(cityID)).
		Scan(&rawID, &c.Name, &c.State)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find city: %w", err)
	}
	c.ID = id.CityID(rawID)
	return &c, nil
}

func (s *PostgresStore) SaveRole(ctx context.Context, r *Role) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO roles (id, name)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		uuid.UUID(r.ID), r.Name)
	if err != nil {
		return fmt.Errorf("save role: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindRole(ctx context.Context, roleID id.RoleID) (*Role, error) {
	var r Role
	var rawID uuid.UUID
	err := s.db.QueryRow(ctx, `
SELECT id, name FROM roles WHERE id = $1`, uuid.UUID(roleID)).
		Scan(&rawID, &r.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	r.ID = id.RoleID(rawID)
	return &r, nil
}
