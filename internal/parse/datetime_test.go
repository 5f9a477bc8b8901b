package parse

import (
	"testing"
	"time"
)

var kualaLumpur = time.FixedZone("MYT", 8*3600)

func TestNormalizeDateRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, kualaLumpur)
	for _, input := range []string{"18th February 2026", "February 18, 2026", "18/02/2026", "2026-02-18", "Wednesday, 18th February 2026"} {
		got, err := NormalizeDate(input, now, kualaLumpur)
		if err != nil {
			t.Errorf("NormalizeDate(%q) error: %v", input, err)
			continue
		}
		if got != "2026-02-18" {
			t.Errorf("NormalizeDate(%q) = %q, want 2026-02-18", input, got)
		}
	}
}

func TestNormalizeDateYearInference(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, kualaLumpur)

	// A future month stays in the current year.
	got, err := NormalizeDate("20 August", now, kualaLumpur)
	if err != nil || got != "2026-08-20" {
		t.Errorf("got %q, %v", got, err)
	}

	// A passed month rolls forward to next year.
	got, err = NormalizeDate("3rd March", now, kualaLumpur)
	if err != nil || got != "2027-03-03" {
		t.Errorf("got %q, %v", got, err)
	}

	// Today does not roll forward.
	got, err = NormalizeDate("June 15", now, kualaLumpur)
	if err != nil || got != "2026-06-15" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestNormalizeDateRejectsGarbage(t *testing.T) {
	now := time.Now()
	for _, input := range []string{"", "soon", "32/01/2026", "2026-13-01", "30 February 2026", "next tuesday ish"} {
		if got, err := NormalizeDate(input, now, time.UTC); err == nil {
			t.Errorf("NormalizeDate(%q) = %q, expected error", input, got)
		}
	}
}

func TestNormalizeTimeRoundTrip(t *testing.T) {
	for _, input := range []string{"3pm", "3 PM", "3:00 PM", "15:00"} {
		got, err := NormalizeTime(input)
		if err != nil {
			t.Errorf("NormalizeTime(%q) error: %v", input, err)
			continue
		}
		if got != "15:00" {
			t.Errorf("NormalizeTime(%q) = %q, want 15:00", input, got)
		}
	}
}

func TestNormalizeTimeEdges(t *testing.T) {
	cases := map[string]string{
		"12pm":     "12:00",
		"12am":     "00:00",
		"12:30 am": "00:30",
		"9:05am":   "09:05",
		"10.15pm":  "22:15",
		"00:00":    "00:00",
		"23:59":    "23:59",
	}
	for input, want := range cases {
		got, err := NormalizeTime(input)
		if err != nil {
			t.Errorf("NormalizeTime(%q) error: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeTimeHardFailures(t *testing.T) {
	for _, input := range []string{"", "noonish", "25:00", "13pm", "3", "9:75am"} {
		if got, err := NormalizeTime(input); err == nil {
			t.Errorf("NormalizeTime(%q) = %q, expected error", input, got)
		}
	}
}
