package followup

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the store needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store manages no-show follow-up sequences. The webhook only ever stops
// them: any inbound reply means the patient is reachable.
type Store struct {
	pool PgxPool
}

// NewStore initializes a store backed by pgxpool.
func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("followup: pgx pool required")
	}
	return &Store{pool: pool}
}

// StopForPhone marks every in-progress follow-up sequence for the phone as
// stopped. Returns the number of sequences affected; zero is not an error.
func (s *Store) StopForPhone(ctx context.Context, phoneVariants []string) (int64, error) {
	if len(phoneVariants) == 0 {
		return 0, nil
	}
	query := `
		UPDATE followup_sequences
		SET status = 'stopped', stopped_reason = 'patient_replied', updated_at = now()
		WHERE regexp_replace(phone, '\D', '', 'g') = ANY($1)
		  AND status = 'in_progress'
	`
	tag, err := s.pool.Exec(ctx, query, phoneVariants)
	if err != nil {
		return 0, fmt.Errorf("followup: stop for phone: %w", err)
	}
	return tag.RowsAffected(), nil
}
