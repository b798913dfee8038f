package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	id "pintcert/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL, append-only.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var actor any
	if !event.ActorID.IsNil() {
		actor = uuid.UUID(event.ActorID)
	}
	var subject any
	if !event.SubjectID.IsNil() {
		subject = uuid.UUID(event.SubjectID)
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO audit_events (id, action, actor_id, subject_id, detail, device, ip, at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, string(event.Action), actor, subject, event.Detail, event.Device, event.IP, event.At)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBySubject(ctx context.Context, subjectID id.ParticipantID) ([]Event, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, action, actor_id, subject_id, detail, device, ip, at
FROM audit_events WHERE subject_id = $1 ORDER BY at`, uuid.UUID(subjectID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			action  string
			actor   *uuid.UUID
			subject *uuid.UUID
		)
		if err := rows.Scan(&e.ID, &action, &actor, &subject, &e.Detail, &e.Device, &e.IP, &e.At); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		if actor != nil {
			e.ActorID = id.StaffID(*actor)
		}
		if subject != nil {
			e.SubjectID = id.ParticipantID(*subject)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
