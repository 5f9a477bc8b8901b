package messagelog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message directions.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Sentinel tags attached to logged messages. The log is the only place
// conversational state lives; tags let a later webhook call recognize what
// question an outbound message represents without sniffing its wording.
const (
	TagValidationAsk      = "validation_ask"
	TagBookingConflict    = "booking_conflict"
	TagBookingConflictAsk = "booking_conflict_ask"
)

// Entry is one logged message. Append-only; never mutated.
type Entry struct {
	ID                  uuid.UUID  `json:"id"`
	Phone               string     `json:"phone"`
	PatientName         string     `json:"patient_name,omitempty"`
	Direction           string     `json:"direction"`
	Text                string     `json:"text"`
	LinkedAppointmentID *uuid.UUID `json:"linked_appointment_id,omitempty"`
	ClassifiedIntent    string     `json:"classified_intent,omitempty"`
	Confidence          *float64   `json:"confidence,omitempty"`
	Tag                 string     `json:"tag,omitempty"`
	PendingFields       []string   `json:"pending_fields,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ErrNotFound is returned when no log entry matches a lookup.
var ErrNotFound = errors.New("messagelog: not found")
