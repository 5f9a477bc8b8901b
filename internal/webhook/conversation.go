package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dermaline/clinic-platform/internal/appointments"
	"github.com/dermaline/clinic-platform/internal/messagelog"
	"github.com/dermaline/clinic-platform/internal/parse"
)

// Issue-phrasing fallbacks for outbound rows logged before tags existed.
// The phrases mirror the wording in the validation messages.
var issuePhrases = []struct {
	phrase string
	field  string
}{
	{"valid time", parse.FieldTime},
	{"valid date", parse.FieldDate},
	{"phone number", parse.FieldPhone},
	{"staff member", parse.FieldBookedBy},
	{"service", parse.FieldService},
}

// pendingFields derives what the given outbound message was waiting for.
// The explicit tag plus pending_fields column is authoritative; text
// sniffing is only a fallback.
func pendingFields(entry *messagelog.Entry) []string {
	if entry.Tag == messagelog.TagValidationAsk {
		if len(entry.PendingFields) > 0 {
			return entry.PendingFields
		}
		return fieldsFromText(entry.Text)
	}
	if entry.Tag != "" {
		return nil
	}
	lower := strings.ToLower(entry.Text)
	if !strings.Contains(lower, "please reply") && !strings.Contains(lower, "issues found") {
		return nil
	}
	return fieldsFromText(entry.Text)
}

func fieldsFromText(text string) []string {
	lower := strings.ToLower(text)
	var fields []string
	for _, candidate := range issuePhrases {
		if strings.Contains(lower, candidate.phrase) {
			fields = append(fields, candidate.field)
		}
	}
	return fields
}

// resolvePendingAnswer maps the inbound message onto answers for the fields
// the previous outbound question asked about, re-validates each answer with
// the same rules as a fresh booking, applies the valid ones as a partial
// update and replies with what is still missing or a completion note.
func (o *Orchestrator) resolvePendingAnswer(ctx context.Context, in Inbound, variants []string, ask *messagelog.Entry, fields []string) (*Result, error) {
	appt, err := o.pendingAppointment(ctx, variants, ask)
	if errors.Is(err, appointments.ErrNotFound) {
		// The appointment was cancelled or completed between turns (staff
		// UI, concurrent delivery). Treat the message as a fresh one.
		if parse.IsBookingMessage(in.Text) {
			return o.handleBooking(ctx, in, variants)
		}
		return o.handleIntent(ctx, in, variants)
	}
	if err != nil {
		return nil, err
	}

	rules, err := o.bookingRules(ctx)
	if err != nil {
		return nil, err
	}

	answers, rejections := mapAnswers(in.Text, fields, rules)

	if err := o.appendInbound(ctx, in, appt.PatientName, &appt.ID, "", nil); err != nil {
		return nil, err
	}

	if len(answers) > 0 {
		updates := appointments.FieldUpdates{}
		for field, value := range answers {
			v := value
			switch field {
			case parse.FieldDate:
				updates.Date = &v
				appt.Date = value
			case parse.FieldTime:
				updates.Time = &v
				appt.Time = value
			case parse.FieldPhone:
				updates.Phone = &v
				appt.Phone = value
			case parse.FieldService:
				updates.Service = &v
				appt.Service = value
			case parse.FieldBookedBy:
				updates.BookedBy = &v
				appt.BookedBy = value
			}
		}
		if err := o.appts.UpdateFields(ctx, appt.ID, updates); err != nil {
			return nil, fmt.Errorf("webhook: apply answers: %w", err)
		}
		o.logger.Info("pending answers applied", "appointment_id", appt.ID, "fields", len(answers))
	}

	remaining := parse.ValidateDraft(draftFromAppointment(appt), rules)

	if len(remaining) == 0 && len(rejections) == 0 {
		reply := bookingComplete(appt)
		if err := o.sendAndLog(ctx, in.Phone, appt.PatientName, reply, &appt.ID, "", nil, "booking_complete"); err != nil {
			return nil, err
		}
		return &Result{Outcome: OutcomeBookingComplete, AppointmentID: &appt.ID}, nil
	}

	body := followupAsk(rejections, remaining)
	if err := o.sendAndLog(ctx, in.Phone, appt.PatientName, body, &appt.ID,
		messagelog.TagValidationAsk, issueFields(remaining), "validation_ask"); err != nil {
		return nil, err
	}

	outcome := OutcomeAnswerApplied
	if len(answers) == 0 {
		outcome = OutcomeAnswerRejected
	}
	return &Result{
		Outcome:       outcome,
		AppointmentID: &appt.ID,
		Issues:        issueMessages(remaining),
	}, nil
}

func (o *Orchestrator) pendingAppointment(ctx context.Context, variants []string, ask *messagelog.Entry) (*appointments.Appointment, error) {
	if ask.LinkedAppointmentID != nil {
		appt, err := o.appts.GetByID(ctx, *ask.LinkedAppointmentID)
		if err != nil && !errors.Is(err, appointments.ErrNotFound) {
			return nil, fmt.Errorf("webhook: load pending appointment: %w", err)
		}
		if err == nil {
			return appt, nil
		}
	}
	appt, err := o.appts.FindActiveByPhone(ctx, variants, o.today())
	if err != nil && !errors.Is(err, appointments.ErrNotFound) {
		return nil, fmt.Errorf("webhook: load pending appointment: %w", err)
	}
	return appt, err
}

func draftFromAppointment(a *appointments.Appointment) parse.Draft {
	return parse.Draft{
		PatientName: a.PatientName,
		Phone:       a.Phone,
		Date:        a.Date,
		Time:        a.Time,
		Service:     a.Service,
		BookedBy:    a.BookedBy,
	}
}

var fieldAliases = map[string][]string{
	parse.FieldTime:     parse.TimeAliases,
	parse.FieldDate:     parse.DateAliases,
	parse.FieldPhone:    parse.PhoneAliases,
	parse.FieldService:  parse.ServiceAliases,
	parse.FieldBookedBy: parse.BookedByAliases,
}

// mapAnswers assigns the reply's content to pending fields. A single-line
// reply to a single pending question is taken whole; otherwise labeled
// lines are read first and the rest are matched by shape (time, date,
// phone, staff name, service).
func mapAnswers(text string, fields []string, rules parse.Rules) (map[string]string, []string) {
	answers := map[string]string{}
	var rejections []string

	lines := nonEmptyLines(text)
	remaining := map[string]bool{}
	for _, field := range fields {
		remaining[field] = true
	}

	accept := func(field, raw string) {
		value, reason := validateAnswer(field, raw, rules)
		if reason != "" {
			rejections = append(rejections, reason)
			return
		}
		answers[field] = value
		delete(remaining, field)
	}

	if len(fields) == 1 && len(lines) == 1 {
		raw := parse.CleanLine(lines[0])
		if extracted := parse.ExtractFields(text); len(extracted) > 0 {
			if labeled, ok := extracted.First(fieldAliases[fields[0]]...); ok {
				raw = labeled
			}
		}
		accept(fields[0], raw)
		return answers, rejections
	}

	extracted := parse.ExtractFields(text)
	for _, field := range fields {
		if raw, ok := extracted.First(fieldAliases[field]...); ok {
			accept(field, raw)
		}
	}

	for _, line := range lines {
		if len(remaining) == 0 {
			break
		}
		if parse.LooksLikeLabeledLine(line) {
			continue
		}
		raw := parse.CleanLine(line)
		if raw == "" {
			continue
		}
		if field, ok := guessField(raw, remaining, rules); ok {
			accept(field, raw)
		}
	}

	return answers, rejections
}

// guessField decides which pending field an unlabeled line answers, most
// specific shape first.
func guessField(raw string, remaining map[string]bool, rules parse.Rules) (string, bool) {
	if remaining[parse.FieldTime] {
		if _, err := parse.NormalizeTime(raw); err == nil {
			return parse.FieldTime, true
		}
	}
	if remaining[parse.FieldDate] {
		if _, err := parse.NormalizeDate(raw, rules.Now, rules.Location); err == nil {
			return parse.FieldDate, true
		}
	}
	if remaining[parse.FieldPhone] {
		if parse.PlausiblePhone(raw) && !containsLetter(raw) {
			return parse.FieldPhone, true
		}
	}
	if remaining[parse.FieldBookedBy] && rules.Staff != nil {
		if matchStaffFromLine(raw, rules.Staff) != "" {
			return parse.FieldBookedBy, true
		}
	}
	if remaining[parse.FieldService] {
		return parse.FieldService, true
	}
	return "", false
}

// validateAnswer re-runs the booking rules on a single candidate answer,
// returning either the canonical value or a rejection reason. An invalid
// answer never mutates the appointment.
func validateAnswer(field, raw string, rules parse.Rules) (string, string) {
	switch field {
	case parse.FieldTime:
		canonical, err := parse.NormalizeTime(raw)
		if err != nil {
			return "", fmt.Sprintf("%q is not a time we could read", raw)
		}
		if issue, bad := parse.ValidateClinicTime(canonical, rules); bad {
			return "", fmt.Sprintf("%q is not %s", raw, issue.Message)
		}
		return canonical, ""
	case parse.FieldDate:
		canonical, err := parse.NormalizeDate(raw, rules.Now, rules.Location)
		if err != nil {
			return "", fmt.Sprintf("%q is not a date we could read", raw)
		}
		if issue, bad := parse.ValidateDate(canonical, rules); bad {
			return "", fmt.Sprintf("%q is not %s", raw, issue.Message)
		}
		return canonical, ""
	case parse.FieldPhone:
		if !parse.PlausiblePhone(raw) {
			return "", fmt.Sprintf("%q is not a valid phone number with at least 7 digits", raw)
		}
		return strings.TrimSpace(raw), ""
	case parse.FieldBookedBy:
		if rules.Staff == nil {
			return "", fmt.Sprintf("%q does not match any staff member", raw)
		}
		if matched := matchStaffFromLine(raw, rules.Staff); matched != "" {
			return matched, ""
		}
		return "", fmt.Sprintf("%q does not match any staff member", raw)
	case parse.FieldService:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.EqualFold(trimmed, parse.DefaultService) {
			return "", "the service was left empty"
		}
		return trimmed, ""
	}
	return "", fmt.Sprintf("%q could not be understood", raw)
}

func matchStaffFromLine(raw string, staff *parse.StaffMatcher) string {
	if matched, ok := staff.Match(strings.TrimSpace(raw)); ok {
		return matched
	}
	for _, token := range strings.Fields(raw) {
		token = strings.Trim(token, ".,!?()")
		if len(token) < 3 {
			continue
		}
		if matched, ok := staff.Match(token); ok {
			return matched
		}
	}
	return ""
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func containsLetter(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
