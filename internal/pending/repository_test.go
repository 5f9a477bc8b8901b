package pending

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO pending_requests").
		WithArgs(pgxmock.AnyArg(), (*uuid.UUID)(nil), "+60123456789", "Sarah Tan",
			TypeCancellation, "I need to cancel", `{"intent":"cancel"}`, "pending").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	repo := &Repository{pool: mock}
	req, err := repo.Create(context.Background(), &Request{
		Phone:            "+60123456789",
		PatientName:      "Sarah Tan",
		RequestType:      TypeCancellation,
		OriginalMessage:  "I need to cancel",
		ClassifierOutput: `{"intent":"cancel"}`,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != "pending" {
		t.Errorf("status = %q", req.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestListOpen(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT(.|\n)+FROM pending_requests").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "appointment_id", "phone", "patient_name", "request_type",
			"original_message", "classifier_output", "status", "created_at",
		}).AddRow(uuid.New(), (*uuid.UUID)(nil), "+60123456789", "Sarah Tan",
			TypeInquiry, "do you open on sunday?", "", "pending", time.Now()))

	repo := &Repository{pool: mock}
	requests, err := repo.ListOpen(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(requests) != 1 || requests[0].RequestType != TypeInquiry {
		t.Errorf("unexpected requests: %v", requests)
	}
}
