package staff

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads the staff directory from Postgres.
type Repository struct {
	pool PgxPool
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("staff: pgx pool required")
	}
	return &Repository{pool: pool}
}

// BookingCapableNames returns the full names of active staff whose role may
// be recorded as the booker (reception and admin).
func (r *Repository) BookingCapableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT full_name
		FROM staff_members
		WHERE status = 'active' AND role IN ('reception', 'admin')
		ORDER BY full_name
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("staff: query directory: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("staff: scan directory row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staff: iterate directory: %w", err)
	}
	return names, nil
}
