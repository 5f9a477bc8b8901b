package pending

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Request types mirror the intents that need a human.
const (
	TypeReschedule   = "reschedule"
	TypeCancellation = "cancellation"
	TypeInquiry      = "inquiry"
	TypeUnclear      = "unclear"
)

// Request is a message the webhook could not safely auto-act on; a staff
// member resolves it out-of-band.
type Request struct {
	ID               uuid.UUID  `json:"id"`
	AppointmentID    *uuid.UUID `json:"appointment_id,omitempty"`
	Phone            string     `json:"phone"`
	PatientName      string     `json:"patient_name"`
	RequestType      string     `json:"request_type"`
	OriginalMessage  string     `json:"original_message"`
	ClassifierOutput string     `json:"classifier_output,omitempty"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
}

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores pending requests in Postgres.
type Repository struct {
	pool PgxPool
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("pending: pgx pool required")
	}
	return &Repository{pool: pool}
}

// Create inserts a new pending request with status "pending".
func (r *Repository) Create(ctx context.Context, req *Request) (*Request, error) {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.Status = "pending"
	query := `
		INSERT INTO pending_requests (
			id, appointment_id, phone, patient_name, request_type,
			original_message, classifier_output, status
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		req.ID,
		req.AppointmentID,
		req.Phone,
		req.PatientName,
		req.RequestType,
		req.OriginalMessage,
		req.ClassifierOutput,
		req.Status,
	).Scan(&req.CreatedAt); err != nil {
		return nil, fmt.Errorf("pending: insert failed: %w", err)
	}
	return req, nil
}

// ListOpen returns unhandled requests, oldest first, for the admin surface.
func (r *Repository) ListOpen(ctx context.Context, limit int) ([]*Request, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, appointment_id, phone, patient_name, request_type,
		       original_message, classifier_output, status, created_at
		FROM pending_requests
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pending: list open: %w", err)
	}
	defer rows.Close()

	var requests []*Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(
			&req.ID,
			&req.AppointmentID,
			&req.Phone,
			&req.PatientName,
			&req.RequestType,
			&req.OriginalMessage,
			&req.ClassifierOutput,
			&req.Status,
			&req.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("pending: scan: %w", err)
		}
		requests = append(requests, &req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pending: iterate: %w", err)
	}
	return requests, nil
}
