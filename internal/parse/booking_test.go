package parse

import (
	"testing"
	"time"
)

func testRules() Rules {
	return Rules{
		Now:       time.Date(2026, 1, 10, 12, 0, 0, 0, kualaLumpur),
		Location:  kualaLumpur,
		OpenHour:  10,
		CloseHour: 22,
		Staff:     NewStaffMatcher(testDirectory),
	}
}

func hasIssue(issues []Issue, field string) bool {
	for _, issue := range issues {
		if issue.Field == field {
			return true
		}
	}
	return false
}

func TestIsBookingMessage(t *testing.T) {
	if !IsBookingMessage("New appointment please") {
		t.Error("expected appointment keyword to match")
	}
	if !IsBookingMessage("BOOKING for tomorrow") {
		t.Error("expected booking keyword to match")
	}
	if IsBookingMessage("yes") {
		t.Error("bare confirmation is not a booking")
	}
}

func TestParseBookingCleanSubmission(t *testing.T) {
	text := "New appointment\n" +
		"Name: Sarah Tan\n" +
		"Phone: 012-345 6789\n" +
		"Date: 18th February 2026\n" +
		"Time: 3pm\n" +
		"Service: HydraFacial\n" +
		"Booked by: Farah"
	draft, issues := ParseBooking(text, "+60123456789", "", testRules())

	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
	if draft.PatientName != "Sarah Tan" {
		t.Errorf("name = %q", draft.PatientName)
	}
	if draft.Date != "2026-02-18" {
		t.Errorf("date = %q", draft.Date)
	}
	if draft.Time != "15:00" {
		t.Errorf("time = %q", draft.Time)
	}
	if draft.Service != "HydraFacial" {
		t.Errorf("service = %q", draft.Service)
	}
	if draft.BookedBy != "Farah Aziz" {
		t.Errorf("bookedBy = %q", draft.BookedBy)
	}
}

func TestParseBookingCollectsEveryIssue(t *testing.T) {
	text := "appointment\n" +
		"Name: X\n" +
		"Phone: 123\n" +
		"Date: 01/01/2020\n" +
		"Time: 9am"
	draft, issues := ParseBooking(text, "", "", testRules())

	for _, field := range []string{FieldPhone, FieldDate, FieldTime, FieldBookedBy, FieldService} {
		if !hasIssue(issues, field) {
			t.Errorf("expected issue for %s, got %v", field, issues)
		}
	}
	// The draft is still produced; later turns amend it in place.
	if draft.Date != "2020-01-01" {
		t.Errorf("date = %q", draft.Date)
	}
	if draft.Service != DefaultService {
		t.Errorf("service = %q", draft.Service)
	}
}

func TestParseBookingFallsBackToSender(t *testing.T) {
	text := "appointment\nDate: 2026-03-01\nTime: 11am\nService: Facial\nBooked by: Amir"
	draft, issues := ParseBooking(text, "+60123456789", "Sarah", testRules())

	if draft.Phone != "+60123456789" {
		t.Errorf("phone = %q", draft.Phone)
	}
	if draft.PatientName != "Sarah" {
		t.Errorf("name = %q", draft.PatientName)
	}
	if hasIssue(issues, FieldPhone) {
		t.Errorf("sender phone should be plausible, issues: %v", issues)
	}
}

func TestParseBookingScansLooseLinesForBooker(t *testing.T) {
	text := "appointment\nName: Sarah\nPhone: 0123456789\nDate: 2026-03-01\nTime: 2pm\nService: Peel\nbooked through farah today"
	draft, issues := ParseBooking(text, "", "", testRules())

	if draft.BookedBy != "Farah Aziz" {
		t.Errorf("bookedBy = %q", draft.BookedBy)
	}
	if hasIssue(issues, FieldBookedBy) {
		t.Errorf("unexpected booked-by issue: %v", issues)
	}
}

func TestParseBookingSkipsLabeledLinesWhenScanning(t *testing.T) {
	// The patient shares a name with a staff member; the labeled name line
	// must not be mistaken for the booker.
	text := "appointment\nName: Farah Binti\nPhone: 0123456789\nDate: 2026-03-01\nTime: 2pm\nService: Peel"
	draft, issues := ParseBooking(text, "", "", testRules())

	if draft.BookedBy != "" {
		t.Errorf("bookedBy = %q, want empty", draft.BookedBy)
	}
	if !hasIssue(issues, FieldBookedBy) {
		t.Error("expected booked-by issue")
	}
}

func TestParseBookingExplicitBookerMustMatchDirectory(t *testing.T) {
	text := "appointment\nName: Sarah\nPhone: 0123456789\nDate: 2026-03-01\nTime: 2pm\nService: Peel\nAgent: Zorro"
	draft, issues := ParseBooking(text, "", "", testRules())

	if draft.BookedBy != "" {
		t.Errorf("bookedBy = %q, want empty", draft.BookedBy)
	}
	if !hasIssue(issues, FieldBookedBy) {
		t.Error("expected booked-by issue")
	}
}

func TestValidateClinicTimeBounds(t *testing.T) {
	rules := testRules()
	for _, tc := range []struct {
		value string
		bad   bool
	}{
		{"10:00", false},
		{"22:00", false},
		{"09:59", true},
		{"22:01", true},
		{"", true},
	} {
		_, got := ValidateClinicTime(tc.value, rules)
		if got != tc.bad {
			t.Errorf("ValidateClinicTime(%q) bad=%v, want %v", tc.value, got, tc.bad)
		}
	}
}

func TestValidateDateTodayIsAllowed(t *testing.T) {
	rules := testRules()
	if _, bad := ValidateDate("2026-01-10", rules); bad {
		t.Error("today must be allowed")
	}
	if _, bad := ValidateDate("2026-01-09", rules); !bad {
		t.Error("yesterday must be rejected")
	}
}

func TestPlausiblePhone(t *testing.T) {
	if !PlausiblePhone("012-345 67") {
		t.Error("expected 7 digits to pass")
	}
	if PlausiblePhone("12345") {
		t.Error("expected short number to fail")
	}
}
