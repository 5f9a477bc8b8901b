package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dayOfWeekPrefix = regexp.MustCompile(`(?i)^(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)[,.]?\s+`)
	ordinalSuffix   = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	slashedDate     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoDate         = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	clockTime       = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// NormalizeDate converts heterogeneous date text into canonical YYYY-MM-DD.
// Accepted: ISO, DD/MM/YYYY, and natural language ("18th February 2026",
// "February 18, 2026", "18 Feb"), with or without a day-of-week prefix. When
// the year is omitted the current year in loc is assumed, rolling forward one
// year if that date has already passed.
func NormalizeDate(raw string, now time.Time, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("parse: empty date")
	}
	text = dayOfWeekPrefix.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if m := isoDate.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return formatValidated(year, month, day)
	}
	if m := slashedDate.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return formatValidated(year, month, day)
	}

	return normalizeNaturalDate(text, now, loc)
}

func normalizeNaturalDate(text string, now time.Time, loc *time.Location) (string, error) {
	text = ordinalSuffix.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, ",", " ")
	text = strings.Join(strings.Fields(text), " ")

	var day, year int
	var month time.Month
	for _, token := range strings.Fields(text) {
		if m, ok := monthByName(token); ok {
			month = m
			continue
		}
		n, err := strconv.Atoi(token)
		if err != nil {
			return "", fmt.Errorf("parse: unrecognized date token %q", token)
		}
		switch {
		case n >= 1000:
			year = n
		case day == 0:
			day = n
		default:
			return "", fmt.Errorf("parse: ambiguous date %q", text)
		}
	}
	if day == 0 || month == 0 {
		return "", fmt.Errorf("parse: incomplete date %q", text)
	}
	if year == 0 {
		year = now.In(loc).Year()
		candidate := time.Date(year, month, day, 23, 59, 59, 0, loc)
		if candidate.Before(now.In(loc)) {
			year++
		}
	}
	return formatValidated(year, int(month), day)
}

// NormalizeTime converts "HH:MM", "H:MM AM/PM" and bare "H AM/PM" into
// 24-hour "HH:MM". Unparsable input is an error; the caller decides what a
// missing time means, there is no default.
func NormalizeTime(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("parse: empty time")
	}
	// "3.30pm" and "3pm" both show up in staff shorthand.
	text = strings.ReplaceAll(text, ".", ":")
	m := clockTime.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("parse: unrecognized time %q", raw)
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	meridiem := strings.ToLower(m[3])
	switch meridiem {
	case "pm":
		if hour < 1 || hour > 12 {
			return "", fmt.Errorf("parse: invalid hour %q", raw)
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return "", fmt.Errorf("parse: invalid hour %q", raw)
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if m[2] == "" {
			// A bare number without AM/PM is too ambiguous to accept.
			return "", fmt.Errorf("parse: ambiguous time %q", raw)
		}
		if hour > 23 {
			return "", fmt.Errorf("parse: invalid hour %q", raw)
		}
	}
	if minute > 59 {
		return "", fmt.Errorf("parse: invalid minute %q", raw)
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

func formatValidated(year, month, day int) (string, error) {
	if month < 1 || month > 12 {
		return "", fmt.Errorf("parse: invalid month %d", month)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return "", fmt.Errorf("parse: invalid day %d for month %d", day, month)
	}
	return t.Format("2006-01-02"), nil
}

func monthByName(token string) (time.Month, bool) {
	switch strings.ToLower(token) {
	case "january", "jan":
		return time.January, true
	case "february", "feb":
		return time.February, true
	case "march", "mar":
		return time.March, true
	case "april", "apr":
		return time.April, true
	case "may":
		return time.May, true
	case "june", "jun":
		return time.June, true
	case "july", "jul":
		return time.July, true
	case "august", "aug":
		return time.August, true
	case "september", "sep", "sept":
		return time.September, true
	case "october", "oct":
		return time.October, true
	case "november", "nov":
		return time.November, true
	case "december", "dec":
		return time.December, true
	}
	return 0, false
}
