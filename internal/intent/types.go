package intent

import "context"

// Intent labels for non-booking inbound messages.
const (
	IntentConfirm    = "confirm"
	IntentReschedule = "reschedule"
	IntentCancel     = "cancel"
	IntentInquiry    = "inquiry"
	IntentUnclear    = "unclear"
)

// AppointmentContext is what the classifier is told about the sender's
// nearest upcoming appointment.
type AppointmentContext struct {
	PatientName string `json:"patient_name,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Service     string `json:"service,omitempty"`
}

// Result is the classifier output.
type Result struct {
	Intent         string  `json:"intent"`
	Confidence     float64 `json:"confidence"`
	SuggestedReply string  `json:"suggested_reply,omitempty"`
	NeedsHuman     bool    `json:"needs_human,omitempty"`
	Summary        string  `json:"summary,omitempty"`
	Source         string  `json:"source,omitempty"`
}

// Classifier maps free text onto an intent label.
type Classifier interface {
	Classify(ctx context.Context, message string, appt AppointmentContext) (Result, error)
}

func validIntent(label string) bool {
	switch label {
	case IntentConfirm, IntentReschedule, IntentCancel, IntentInquiry, IntentUnclear:
		return true
	}
	return false
}
