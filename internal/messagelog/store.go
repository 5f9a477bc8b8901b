package messagelog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists the message log in Postgres.
type Store struct {
	pool PgxPool
}

// NewStore initializes a store backed by pgxpool.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("messagelog: pgx pool required")
	}
	return &Store{pool: pool}
}

const entryColumns = `
	id, phone, patient_name, direction, text, linked_appointment_id,
	classified_intent, confidence, tag, pending_fields, created_at`

// Append durably logs a message. Every write is safe to retry: the id is
// generated up front so a retried insert conflicts instead of duplicating.
func (s *Store) Append(ctx context.Context, entry *Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	query := `
		INSERT INTO message_log (
			id, phone, patient_name, direction, text,
			linked_appointment_id, classified_intent, confidence,
			tag, pending_fields
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING
		RETURNING created_at
	`
	err := s.pool.QueryRow(ctx, query,
		entry.ID,
		entry.Phone,
		entry.PatientName,
		entry.Direction,
		entry.Text,
		entry.LinkedAppointmentID,
		entry.ClassifiedIntent,
		entry.Confidence,
		entry.Tag,
		entry.PendingFields,
	).Scan(&entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict on retry; the original insert already holds the row.
		return nil
	}
	if err != nil {
		return fmt.Errorf("messagelog: append failed: %w", err)
	}
	return nil
}

// LatestOutbound returns the most recent outbound entry for any variant of
// the phone number. This is how conversational state is reconstructed; there
// is no session table.
func (s *Store) LatestOutbound(ctx context.Context, phoneVariants []string) (*Entry, error) {
	if len(phoneVariants) == 0 {
		return nil, ErrNotFound
	}
	query := `SELECT` + entryColumns + `
		FROM message_log
		WHERE regexp_replace(phone, '\D', '', 'g') = ANY($1)
		  AND direction = 'outbound'
		ORDER BY created_at DESC
		LIMIT 1`
	return s.scanOne(s.pool.QueryRow(ctx, query, phoneVariants))
}

// LatestByTag returns the most recent entry with the given direction and tag
// for the phone number. Used to locate a booking_conflict_ask prompt and the
// original tagged inbound booking it refers to.
func (s *Store) LatestByTag(ctx context.Context, phoneVariants []string, direction, tag string) (*Entry, error) {
	if len(phoneVariants) == 0 {
		return nil, ErrNotFound
	}
	query := `SELECT` + entryColumns + `
		FROM message_log
		WHERE regexp_replace(phone, '\D', '', 'g') = ANY($1)
		  AND direction = $2
		  AND tag = $3
		ORDER BY created_at DESC
		LIMIT 1`
	return s.scanOne(s.pool.QueryRow(ctx, query, phoneVariants, direction, tag))
}

// RecentByPhone lists the latest entries for a phone, newest first. Serves
// the admin conversation view.
func (s *Store) RecentByPhone(ctx context.Context, phoneVariants []string, limit int) ([]*Entry, error) {
	if len(phoneVariants) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT` + entryColumns + `
		FROM message_log
		WHERE regexp_replace(phone, '\D', '', 'g') = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, query, phoneVariants, limit)
	if err != nil {
		return nil, fmt.Errorf("messagelog: recent by phone: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("messagelog: iterate: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanOne(row pgx.Row) (*Entry, error) {
	entry, err := s.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *Store) scanRow(row rowScanner) (*Entry, error) {
	var entry Entry
	if err := row.Scan(
		&entry.ID,
		&entry.Phone,
		&entry.PatientName,
		&entry.Direction,
		&entry.Text,
		&entry.LinkedAppointmentID,
		&entry.ClassifiedIntent,
		&entry.Confidence,
		&entry.Tag,
		&entry.PendingFields,
		&entry.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("messagelog: scan: %w", err)
	}
	return &entry, nil
}
