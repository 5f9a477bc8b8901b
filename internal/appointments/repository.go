package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores appointments in Postgres.
type Repository struct {
	pool PgxPool
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool PgxPool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{pool: pool}
}

const appointmentColumns = `
	id, patient_name, phone, appointment_date, appointment_time, service,
	booked_by, status, confirmation_status, special_instructions,
	followup_status, no_show_count, is_new_patient, rescheduled_from,
	created_at, updated_at`

// Insert persists a new appointment and returns it with generated fields.
func (r *Repository) Insert(ctx context.Context, appt *Appointment) (*Appointment, error) {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.Status == "" {
		appt.Status = StatusUpcoming
	}
	if appt.ConfirmationStatus == "" {
		appt.ConfirmationStatus = ConfirmUnconfirmed
	}
	query := `
		INSERT INTO appointments (
			id, patient_name, phone, appointment_date, appointment_time,
			service, booked_by, status, confirmation_status,
			special_instructions, followup_status, no_show_count,
			is_new_patient, rescheduled_from
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		appt.ID,
		appt.PatientName,
		appt.Phone,
		appt.Date,
		appt.Time,
		appt.Service,
		appt.BookedBy,
		appt.Status,
		appt.ConfirmationStatus,
		appt.SpecialInstructions,
		appt.FollowupStatus,
		appt.NoShowCount,
		appt.IsNewPatient,
		appt.RescheduledFrom,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt); err != nil {
		return nil, fmt.Errorf("appointments: insert failed: %w", err)
	}
	return appt, nil
}

// GetByID fetches a single appointment.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT` + appointmentColumns + `FROM appointments WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// FieldUpdates carries the partial amendments a conversation turn may apply.
// Nil pointers leave the stored value untouched.
type FieldUpdates struct {
	Date     *string
	Time     *string
	Phone    *string
	Service  *string
	BookedBy *string
}

// UpdateFields applies a partial update, touching updated_at. A no-op update
// returns without issuing SQL.
func (r *Repository) UpdateFields(ctx context.Context, id uuid.UUID, updates FieldUpdates) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	argNum := 1
	appendSet := func(column string, value *string) {
		if value == nil {
			return
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argNum))
		args = append(args, *value)
		argNum++
	}
	appendSet("appointment_date", updates.Date)
	appendSet("appointment_time", updates.Time)
	appendSet("phone", updates.Phone)
	appendSet("service", updates.Service)
	appendSet("booked_by", updates.BookedBy)
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf("UPDATE appointments SET %s WHERE id = $%d", strings.Join(sets, ", "), argNum)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("appointments: update fields: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetConfirmation updates the confirmation status.
func (r *Repository) SetConfirmation(ctx context.Context, id uuid.UUID, confirmation string) error {
	query := `UPDATE appointments SET confirmation_status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, confirmation)
	if err != nil {
		return fmt.Errorf("appointments: set confirmation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasRecentDuplicate reports whether an appointment with the same patient
// name, date and time was created within the window. This is the re-delivery
// suppression check; it is a heuristic, not a strong idempotency key.
func (r *Repository) HasRecentDuplicate(ctx context.Context, patientName, date, timeStr string, window time.Duration) (bool, error) {
	query := `
		SELECT 1
		FROM appointments
		WHERE lower(patient_name) = lower($1)
		  AND appointment_date = $2
		  AND appointment_time = $3
		  AND created_at > now() - $4::interval
		LIMIT 1
	`
	interval := fmt.Sprintf("%d seconds", int(window.Seconds()))
	var one int
	err := r.pool.QueryRow(ctx, query, patientName, date, timeStr, interval).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("appointments: duplicate check: %w", err)
	}
	return true, nil
}

// FindActiveByPhone returns the phone's appointment in an active status
// (upcoming or checked in) dated today or later, if one exists. The caller
// supplies every digit-encoding variant of the number.
func (r *Repository) FindActiveByPhone(ctx context.Context, phoneVariants []string, todayISO string) (*Appointment, error) {
	if len(phoneVariants) == 0 {
		return nil, ErrNotFound
	}
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE regexp_replace(phone, '\D', '', 'g') = ANY($1)
		  AND status IN ('upcoming', 'checked_in')
		  AND appointment_date >= $2
		ORDER BY appointment_date, appointment_time
		LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, phoneVariants, todayISO))
}

// FindNearestUpcoming returns the phone's nearest future non-cancelled
// appointment, used to give the intent classifier its context.
func (r *Repository) FindNearestUpcoming(ctx context.Context, phoneVariants []string, todayISO string) (*Appointment, error) {
	if len(phoneVariants) == 0 {
		return nil, ErrNotFound
	}
	query := `SELECT` + appointmentColumns + `
		FROM appointments
		WHERE regexp_replace(phone, '\D', '', 'g') = ANY($1)
		  AND status NOT IN ('cancelled', 'rescheduled')
		  AND appointment_date >= $2
		ORDER BY appointment_date, appointment_time
		LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, phoneVariants, todayISO))
}

// ReplaceActive atomically cancels the old appointment and inserts its
// replacement, recording the predecessor for audit. Used when the sender
// answers "yes" to a booking-conflict prompt.
func (r *Repository) ReplaceActive(ctx context.Context, oldID uuid.UUID, replacement *Appointment) (*Appointment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments: begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cancel := `
		UPDATE appointments
		SET status = 'cancelled', confirmation_status = 'cancelled', updated_at = now()
		WHERE id = $1
	`
	tag, err := tx.Exec(ctx, cancel, oldID)
	if err != nil {
		return nil, fmt.Errorf("appointments: cancel old: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if replacement.ID == uuid.Nil {
		replacement.ID = uuid.New()
	}
	if replacement.Status == "" {
		replacement.Status = StatusUpcoming
	}
	if replacement.ConfirmationStatus == "" {
		replacement.ConfirmationStatus = ConfirmUnconfirmed
	}
	replacement.RescheduledFrom = &oldID

	insert := `
		INSERT INTO appointments (
			id, patient_name, phone, appointment_date, appointment_time,
			service, booked_by, status, confirmation_status,
			special_instructions, followup_status, no_show_count,
			is_new_patient, rescheduled_from
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at
	`
	if err := tx.QueryRow(ctx, insert,
		replacement.ID,
		replacement.PatientName,
		replacement.Phone,
		replacement.Date,
		replacement.Time,
		replacement.Service,
		replacement.BookedBy,
		replacement.Status,
		replacement.ConfirmationStatus,
		replacement.SpecialInstructions,
		replacement.FollowupStatus,
		replacement.NoShowCount,
		replacement.IsNewPatient,
		replacement.RescheduledFrom,
	).Scan(&replacement.CreatedAt, &replacement.UpdatedAt); err != nil {
		return nil, fmt.Errorf("appointments: insert replacement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("appointments: commit replace: %w", err)
	}
	return replacement, nil
}

func (r *Repository) scanOne(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	if err := row.Scan(
		&appt.ID,
		&appt.PatientName,
		&appt.Phone,
		&appt.Date,
		&appt.Time,
		&appt.Service,
		&appt.BookedBy,
		&appt.Status,
		&appt.ConfirmationStatus,
		&appt.SpecialInstructions,
		&appt.FollowupStatus,
		&appt.NoShowCount,
		&appt.IsNewPatient,
		&appt.RescheduledFrom,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: scan: %w", err)
	}
	return &appt, nil
}
