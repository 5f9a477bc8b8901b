package parse

import (
	"fmt"
	"strings"
	"time"
)

// DefaultService is assumed when a booking omits the service entirely. It is
// still flagged as an issue: a defaulted service signals an incomplete
// submission, not a genuine choice.
const DefaultService = "Consultation"

// Issue field names, stable identifiers attached to outbound questions so a
// later reply can be mapped back to the field it answers.
const (
	FieldTime     = "time"
	FieldDate     = "date"
	FieldPhone    = "phone"
	FieldBookedBy = "booked_by"
	FieldService  = "service"
)

// Issue is a single validation problem on a parsed booking.
type Issue struct {
	Field   string
	Message string
}

// Rules carries the per-request validation context: the clock, the clinic
// timezone and hours, and the staff directory snapshot loaded by the
// orchestrator. Everything here is a value; parsing has no side effects.
type Rules struct {
	Now       time.Time
	Location  *time.Location
	OpenHour  int
	CloseHour int
	Staff     *StaffMatcher
}

// Draft is a candidate appointment parsed out of a booking message.
type Draft struct {
	PatientName string
	Phone       string
	Date        string // YYYY-MM-DD, empty if unparsable
	Time        string // HH:MM 24h, empty if unparsable
	Service     string
	BookedBy    string
}

// IsBookingMessage reports whether the text looks like a new-booking
// submission rather than a reply or a question.
func IsBookingMessage(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "appointment") || strings.Contains(lower, "booking")
}

// ParseBooking turns a raw staff message into an appointment draft plus the
// list of validation issues. The draft is returned even when issues exist;
// later conversation turns amend it rather than re-creating it.
func ParseBooking(text, senderPhone, senderName string, rules Rules) (Draft, []Issue) {
	fields := ExtractFields(text)

	draft := Draft{Service: DefaultService}

	if name, ok := fields.First(NameAliases...); ok {
		draft.PatientName = name
	} else {
		draft.PatientName = strings.TrimSpace(senderName)
	}

	if rawPhone, ok := fields.First(PhoneAliases...); ok {
		draft.Phone = rawPhone
	} else {
		draft.Phone = senderPhone
	}

	if rawDate, ok := fields.First(DateAliases...); ok {
		normalized, err := NormalizeDate(rawDate, rules.Now, rules.Location)
		if err == nil {
			draft.Date = normalized
		}
	}

	if rawTime, ok := fields.First(TimeAliases...); ok {
		normalized, err := NormalizeTime(rawTime)
		if err == nil {
			draft.Time = normalized
		}
	}

	if service, ok := fields.First(ServiceAliases...); ok {
		draft.Service = service
	}

	draft.BookedBy = resolveBookedBy(text, fields, rules.Staff)

	return draft, ValidateDraft(draft, rules)
}

// ValidateDraft enumerates every issue on a draft. Each check is
// independently true or false; callers re-run this after a conversation turn
// amends a stored appointment.
func ValidateDraft(draft Draft, rules Rules) []Issue {
	var issues []Issue
	if !PlausiblePhone(draft.Phone) {
		issues = append(issues, Issue{Field: FieldPhone, Message: "a valid phone number with at least 7 digits"})
	}
	if issue, ok := ValidateDate(draft.Date, rules); ok {
		issues = append(issues, issue)
	}
	if issue, ok := ValidateClinicTime(draft.Time, rules); ok {
		issues = append(issues, issue)
	}
	if draft.Service == "" || strings.EqualFold(draft.Service, DefaultService) {
		issues = append(issues, Issue{Field: FieldService, Message: "the service to book (defaulted to Consultation)"})
	}
	if draft.BookedBy == "" {
		issues = append(issues, Issue{Field: FieldBookedBy, Message: bookedByIssueMessage(rules.Staff)})
	}
	return issues
}

// ValidateClinicTime checks a canonical HH:MM against clinic hours. An empty
// value is reported as the same issue; there is no default time.
func ValidateClinicTime(canonical string, rules Rules) (Issue, bool) {
	issue := Issue{
		Field:   FieldTime,
		Message: fmt.Sprintf("a valid time between %02d:00 and %02d:00", rules.OpenHour, rules.CloseHour),
	}
	if canonical == "" {
		return issue, true
	}
	t, err := time.Parse("15:04", canonical)
	if err != nil {
		return issue, true
	}
	minutes := t.Hour()*60 + t.Minute()
	if minutes < rules.OpenHour*60 || minutes > rules.CloseHour*60 {
		return issue, true
	}
	return Issue{}, false
}

// ValidateDate checks a canonical YYYY-MM-DD is today or later in the clinic
// timezone. Empty means unparsable and is reported the same way.
func ValidateDate(canonical string, rules Rules) (Issue, bool) {
	issue := Issue{Field: FieldDate, Message: "a valid date that is not in the past"}
	if canonical == "" {
		return issue, true
	}
	loc := rules.Location
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation("2006-01-02", canonical, loc)
	if err != nil {
		return issue, true
	}
	today := rules.Now.In(loc)
	startOfToday := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	if d.Before(startOfToday) {
		return issue, true
	}
	return Issue{}, false
}

// PlausiblePhone requires at least 7 digits after stripping separators.
func PlausiblePhone(raw string) bool {
	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

func bookedByIssueMessage(staff *StaffMatcher) string {
	if staff == nil || len(staff.Directory()) == 0 {
		return "the staff member who booked this appointment"
	}
	return "the staff member who booked this appointment (valid: " + strings.Join(staff.Directory(), ", ") + ")"
}

// resolveBookedBy prefers an explicit "booked by"/"agent" label; when absent
// it scans every non-labeled line for a token that fuzzy-matches a staff
// name. Labeled lines are skipped so a patient named like a staff member does
// not get recorded as the booker.
func resolveBookedBy(text string, fields Fields, staff *StaffMatcher) string {
	if staff == nil {
		return ""
	}
	if raw, ok := fields.First(BookedByAliases...); ok {
		if matched, ok := staff.Match(raw); ok {
			return matched
		}
		return ""
	}
	for _, line := range strings.Split(text, "\n") {
		if LooksLikeLabeledLine(line) {
			continue
		}
		for _, token := range strings.Fields(CleanLine(line)) {
			token = strings.Trim(token, ".,!?()")
			if len(token) < 3 {
				continue
			}
			if matched, ok := staff.Match(token); ok {
				return matched
			}
		}
	}
	return ""
}
