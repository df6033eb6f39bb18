package attendees

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/event-horizon/backend/internal/models"
	"github.com/event-horizon/backend/internal/persona"
)

const attendeeColumns = "id, full_name, email, role, ticket_type, status, ai_persona, check_in_time, created_at"

// PostgresStore is the table-backed attendee collection shared across
// server instances.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the attendees table.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Insert stores a new attendee row.
func (s *PostgresStore) Insert(ctx context.Context, a *models.Attendee) error {
	const q = `INSERT INTO attendees (id, full_name, email, role, ticket_type, status, ai_persona)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`
	err := s.pool.QueryRow(ctx, q, a.ID, a.FullName, a.Email, a.Role, a.TicketType, a.Status, a.AIPersona).
		Scan(&a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert attendee: %w", err)
	}
	return nil
}

// Get returns the attendee by exact id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Attendee, error) {
	q := fmt.Sprintf(`SELECT %s FROM attendees WHERE id = $1`, attendeeColumns)
	a, err := scanAttendee(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	return a, nil
}

// List returns attendees in insertion order, optionally filtered by status.
func (s *PostgresStore) List(ctx context.Context, status models.CheckInStatus) ([]models.Attendee, error) {
	q := fmt.Sprintf(`SELECT %s FROM attendees ORDER BY created_at, id`, attendeeColumns)
	args := []any{}
	if status != "" {
		q = fmt.Sprintf(`SELECT %s FROM attendees WHERE status = $1 ORDER BY created_at, id`, attendeeColumns)
		args = append(args, status)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()
	var list []models.Attendee
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendee: %w", err)
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

// CheckIn flips status with a single guarded UPDATE, so two concurrent
// calls for the same id cannot both observe Registered. The loser falls
// through to a plain read to distinguish unknown id from double check-in.
func (s *PostgresStore) CheckIn(ctx context.Context, id string, at time.Time) (*models.Attendee, error) {
	q := fmt.Sprintf(`UPDATE attendees SET status = $2, check_in_time = $3
		WHERE id = $1 AND status = $4
		RETURNING %s`, attendeeColumns)
	a, err := scanAttendee(s.pool.QueryRow(ctx, q, id, models.StatusCheckedIn, at, models.StatusRegistered))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check in attendee: %w", err)
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err // ErrNotFound or storage failure
	}
	return existing, ErrAlreadyCheckedIn
}

// UpdatePersona upgrades the fallback persona of a still-registered
// attendee. The eligibility check is part of the UPDATE itself, so a
// check-in landing between the worker's read and this write leaves the
// printed badge untouched.
func (s *PostgresStore) UpdatePersona(ctx context.Context, id, personaText string) error {
	const q = `UPDATE attendees SET ai_persona = $2
		WHERE id = $1 AND ai_persona = $3 AND status = $4`
	if _, err := s.pool.Exec(ctx, q, id, personaText, persona.FallbackPersona, models.StatusRegistered); err != nil {
		return fmt.Errorf("update persona: %w", err)
	}
	return nil
}

func scanAttendee(row pgx.Row) (*models.Attendee, error) {
	var a models.Attendee
	err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Role, &a.TicketType, &a.Status, &a.AIPersona, &a.CheckInTime, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
