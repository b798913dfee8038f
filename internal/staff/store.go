package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "pintcert/pkg/domain"
	"pintcert/pkg/platform/sentinel"
)

// Store persists staff accounts.
type Store interface {
	Create(ctx context.Context, staff *Staff) error
	FindByEmail(ctx context.Context, email string) (*Staff, error)
}

// InMemoryStore holds staff accounts for tests and local development.
type InMemoryStore struct {
	mu      sync.RWMutex
	byEmail map[string]*Staff
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byEmail: make(map[string]*Staff)}
}

func (s *InMemoryStore) Create(_ context.Context, staff *Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(staff.Email)
	if _, ok := s.byEmail[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *staff
	s.byEmail[key] = &cp
	return nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	staff, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *staff
	return &cp, nil
}

// PostgresStore persists staff accounts in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, staff *Staff) error {
	cities := make([]uuid.UUID, 0, len(staff.CityIDs))
	for _, c := range staff.CityIDs {
		cities = append(cities, uuid.UUID(c))
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO staff (id, name, email, password_hash, superadmin, city_ids, created_at)
VALUES ($1, $2, lower($3), $4, $5, $6, $7)`,
		uuid.UUID(staff.ID), staff.Name, staff.Email, staff.PasswordHash,
		staff.Superadmin, cities, staff.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Staff, error) {
	var (
		staff  Staff
		rawID  uuid.UUID
		cities []uuid.UUID
	)
	err := s.db.QueryRow(ctx, `
SELECT id, name, email, password_hash, superadmin, city_ids, created_at
FROM staff WHERE email = lower($1)`, email).
		Scan(&rawID, &staff.Name, &staff.Email, &staff.PasswordHash,
			&staff.Superadmin, &cities, &staff.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find staff: %w", err)
	}
	staff.ID = id.StaffID(rawID)
	staff.CityIDs = make([]id.CityID, 0, len(cities))
	for _, c := range cities {
		staff.CityIDs = append(staff.CityIDs, id.CityID(c))
	}
	return &staff, nil
}
