package messagelog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestAppend(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO message_log").
		WithArgs(pgxmock.AnyArg(), "+60123456789", "Sarah Tan", DirectionOutbound,
			"please reply with a valid time", (*uuid.UUID)(nil), "", (*float64)(nil),
			TagValidationAsk, []string{"time"}).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	store := &Store{pool: mock}
	entry := &Entry{
		Phone:         "+60123456789",
		PatientName:   "Sarah Tan",
		Direction:     DirectionOutbound,
		Text:          "please reply with a valid time",
		Tag:           TagValidationAsk,
		PendingFields: []string{"time"},
	}
	if err := store.Append(context.Background(), entry); err != nil {
		t.Fatalf("append: %v", err)
	}
	if entry.ID == uuid.Nil {
		t.Error("expected generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAppendRetryAfterConflictIsNoop(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	// ON CONFLICT DO NOTHING returns no rows for a replayed id.
	mock.ExpectQuery("INSERT INTO message_log").
		WithArgs(id, "+60123456789", "", DirectionInbound, "yes",
			(*uuid.UUID)(nil), "", (*float64)(nil), "", []string(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}))

	store := &Store{pool: mock}
	entry := &Entry{ID: id, Phone: "+60123456789", Direction: DirectionInbound, Text: "yes"}
	if err := store.Append(context.Background(), entry); err != nil {
		t.Fatalf("replayed append should succeed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func entryRows(id uuid.UUID, direction, tag string, pending []string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "phone", "patient_name", "direction", "text",
		"linked_appointment_id", "classified_intent", "confidence",
		"tag", "pending_fields", "created_at",
	}).AddRow(id, "+60123456789", "Sarah Tan", direction, "body",
		(*uuid.UUID)(nil), "", (*float64)(nil), tag, pending, time.Now())
}

func TestLatestOutbound(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	variants := []string{"60123456789", "0123456789"}
	mock.ExpectQuery("SELECT(.|\n)+FROM message_log").
		WithArgs(variants).
		WillReturnRows(entryRows(id, DirectionOutbound, TagValidationAsk, []string{"time", "booked_by"}))

	store := &Store{pool: mock}
	entry, err := store.LatestOutbound(context.Background(), variants)
	if err != nil {
		t.Fatalf("latest outbound: %v", err)
	}
	if entry.ID != id || entry.Tag != TagValidationAsk {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if len(entry.PendingFields) != 2 {
		t.Errorf("pending fields: %v", entry.PendingFields)
	}
}

func TestLatestOutboundEmptyVariants(t *testing.T) {
	store := &Store{pool: newMock(t)}
	if _, err := store.LatestOutbound(context.Background(), nil); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLatestByTag(t *testing.T) {
	mock := newMock(t)
	id := uuid.New()
	variants := []string{"60123456789"}
	mock.ExpectQuery("SELECT(.|\n)+FROM message_log").
		WithArgs(variants, DirectionInbound, TagBookingConflict).
		WillReturnRows(entryRows(id, DirectionInbound, TagBookingConflict, nil))

	store := &Store{pool: mock}
	entry, err := store.LatestByTag(context.Background(), variants, DirectionInbound, TagBookingConflict)
	if err != nil {
		t.Fatalf("latest by tag: %v", err)
	}
	if entry.ID != id {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestRecentByPhone(t *testing.T) {
	mock := newMock(t)
	variants := []string{"60123456789"}
	rows := entryRows(uuid.New(), DirectionInbound, "", nil)
	rows.AddRow(uuid.New(), "+60123456789", "Sarah Tan", DirectionOutbound, "reply",
		(*uuid.UUID)(nil), "", (*float64)(nil), "", []string(nil), time.Now())
	mock.ExpectQuery("SELECT(.|\n)+FROM message_log").
		WithArgs(variants, 20).
		WillReturnRows(rows)

	store := &Store{pool: mock}
	entries, err := store.RecentByPhone(context.Background(), variants, 20)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}
