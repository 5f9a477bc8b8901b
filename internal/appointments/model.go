package appointments

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Appointment lifecycle statuses.
const (
	StatusUpcoming    = "upcoming"
	StatusCheckedIn   = "checked_in"
	StatusInTreatment = "in_treatment"
	StatusCompleted   = "completed"
	StatusNoShow      = "no_show"
	StatusRescheduled = "rescheduled"
	StatusCancelled   = "cancelled"
)

// Confirmation statuses.
const (
	ConfirmUnconfirmed      = "unconfirmed"
	ConfirmMessageSent      = "message_sent"
	ConfirmWhatsapp         = "confirmed_whatsapp"
	ConfirmCall             = "confirmed_call"
	ConfirmDouble           = "double_confirmed"
	ConfirmCalledNoAnswer   = "called_no_answer"
	ConfirmCalledReschedule = "called_reschedule"
	ConfirmCancelled        = "cancelled"
)

// Appointment is a stored booking. Date and Time are kept canonical
// (YYYY-MM-DD and 24-hour HH:MM) so conversation-state inference can compare
// them as plain strings.
type Appointment struct {
	ID                  uuid.UUID  `json:"id"`
	PatientName         string     `json:"patient_name"`
	Phone               string     `json:"phone"`
	Date                string     `json:"date"`
	Time                string     `json:"time"`
	Service             string     `json:"service"`
	BookedBy            string     `json:"booked_by"`
	Status              string     `json:"status"`
	ConfirmationStatus  string     `json:"confirmation_status"`
	SpecialInstructions string     `json:"special_instructions,omitempty"`
	FollowupStatus      string     `json:"followup_status,omitempty"`
	NoShowCount         int        `json:"no_show_count"`
	IsNewPatient        bool       `json:"is_new_patient"`
	RescheduledFrom     *uuid.UUID `json:"rescheduled_from,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsActive reports whether the appointment still occupies its slot.
func (a *Appointment) IsActive() bool {
	return a.Status == StatusUpcoming || a.Status == StatusCheckedIn
}

// ErrNotFound is returned when no appointment matches a lookup.
var ErrNotFound = errors.New("appointments: not found")
