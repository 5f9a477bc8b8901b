package followup

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestStopForPhone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	variants := []string{"60123456789", "0123456789"}
	// Pin the status filter: it must match the schema default for new
	// sequences or patient replies would never stop them.
	mock.ExpectExec(`UPDATE followup_sequences(.|\n)+SET status = 'stopped'(.|\n)+AND status = 'in_progress'`).
		WithArgs(variants).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	store := &Store{pool: mock}
	stopped, err := store.StopForPhone(context.Background(), variants)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped != 1 {
		t.Errorf("stopped = %d", stopped)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestStopForPhoneNoVariants(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	stopped, err := store.StopForPhone(context.Background(), nil)
	if err != nil || stopped != 0 {
		t.Fatalf("expected noop, got %d, %v", stopped, err)
	}
}
