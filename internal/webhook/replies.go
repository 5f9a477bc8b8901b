package webhook

import (
	"fmt"
	"strings"

	"github.com/dermaline/clinic-platform/internal/appointments"
	"github.com/dermaline/clinic-platform/internal/parse"
)

// Outbound message wording. The validation asks deliberately repeat the
// issue phrasings that fieldsFromText falls back on.

func validationAsk(patientName string, issues []parse.Issue) string {
	var b strings.Builder
	if patientName != "" {
		fmt.Fprintf(&b, "Thanks %s! ", firstWord(patientName))
	}
	b.WriteString("The appointment is saved, but a few details still need fixing. Please reply with:\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %s\n", issue.Message)
	}
	return b.String()
}

func followupAsk(rejections []string, remaining []parse.Issue) string {
	var b strings.Builder
	for _, rejection := range rejections {
		fmt.Fprintf(&b, "%s.\n", rejection)
	}
	if len(remaining) > 0 {
		b.WriteString("Please reply with:\n")
		for _, issue := range remaining {
			fmt.Fprintf(&b, "- %s\n", issue.Message)
		}
	}
	return b.String()
}

func bookingConfirmed(clinicName string, appt *appointments.Appointment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Appointment booked at %s:\n", clinicName)
	fmt.Fprintf(&b, "%s — %s on %s at %s", appt.PatientName, appt.Service, appt.Date, appt.Time)
	if appt.BookedBy != "" {
		fmt.Fprintf(&b, " (booked by %s)", appt.BookedBy)
	}
	return b.String()
}

func bookingComplete(appt *appointments.Appointment) string {
	return fmt.Sprintf("All set! %s — %s on %s at %s, booked by %s.",
		appt.PatientName, appt.Service, appt.Date, appt.Time, appt.BookedBy)
}

func conflictPrompt(existing *appointments.Appointment, draft parse.Draft) string {
	var b strings.Builder
	b.WriteString("This number already has an existing appointment:\n")
	fmt.Fprintf(&b, "%s — %s on %s at %s\n\n", existing.PatientName, existing.Service, existing.Date, existing.Time)
	b.WriteString("The new request:\n")
	fmt.Fprintf(&b, "%s — %s on %s at %s\n\n", draft.PatientName, draft.Service, displayOr(draft.Date, "(no date)"), displayOr(draft.Time, "(no time)"))
	b.WriteString("Reply YES to replace the existing appointment, or NO to keep it.")
	return b.String()
}

func displayOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func firstWord(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[0]
}
