package parse

import "strings"

// Fields holds labeled values extracted from a free-text message, keyed by
// the lower-cased label as written by the sender.
type Fields map[string]string

// Alias sets for the labels staff actually type. Matching is case-insensitive
// and tolerant of trailing noise on the label side.
var (
	NameAliases     = []string{"name", "patient", "patient name", "client", "client name"}
	PhoneAliases    = []string{"phone", "number", "phone number", "mobile", "contact", "contact number", "hp", "tel"}
	DateAliases     = []string{"date", "appointment date", "day"}
	TimeAliases     = []string{"time", "appointment time", "slot"}
	ServiceAliases  = []string{"service", "treatment", "procedure", "package"}
	BookedByAliases = []string{"booked by", "bookedby", "agent", "staff", "consultant"}
)

// ExtractFields parses every line of text as an optional "Label: value" pair.
// Both ASCII ":" and full-width "：" separators are accepted; bullet markers
// and bold markup are stripped before the label is read. The first occurrence
// of a label wins.
func ExtractFields(text string) Fields {
	fields := make(Fields)
	for _, line := range strings.Split(text, "\n") {
		label, value, ok := splitLabeledLine(line)
		if !ok {
			continue
		}
		if _, exists := fields[label]; !exists {
			fields[label] = value
		}
	}
	return fields
}

// First returns the value of the first alias present in the field map.
func (f Fields) First(aliases ...string) (string, bool) {
	for _, alias := range aliases {
		if value, ok := f[alias]; ok && value != "" {
			return value, true
		}
	}
	return "", false
}

// CleanLine removes bullet markers and markdown bold noise from a line.
func CleanLine(line string) string {
	line = strings.TrimSpace(line)
	for _, marker := range []string{"•", "-", "–", "*"} {
		for strings.HasPrefix(line, marker) {
			line = strings.TrimSpace(strings.TrimPrefix(line, marker))
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(line, "*", ""))
}

// LooksLikeLabeledLine reports whether the line carries any label at all,
// which the booked-by line scan uses to skip other fields.
func LooksLikeLabeledLine(line string) bool {
	_, _, ok := splitLabeledLine(line)
	return ok
}

func splitLabeledLine(line string) (label, value string, ok bool) {
	cleaned := CleanLine(line)
	if cleaned == "" {
		return "", "", false
	}
	idx := strings.IndexAny(cleaned, ":：")
	if idx <= 0 {
		return "", "", false
	}
	label = strings.ToLower(strings.TrimSpace(cleaned[:idx]))
	// Skip the separator rune itself; "：" is multi-byte.
	rest := cleaned[idx:]
	if strings.HasPrefix(rest, "：") {
		rest = strings.TrimPrefix(rest, "：")
	} else {
		rest = strings.TrimPrefix(rest, ":")
	}
	value = strings.TrimSpace(rest)
	if label == "" {
		return "", "", false
	}
	// Labels are short words; anything longer is prose with a colon in it.
	if len(strings.Fields(label)) > 3 {
		return "", "", false
	}
	return label, value, true
}
