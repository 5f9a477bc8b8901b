package phone

import "strings"

// SanitizeDigits strips every non-digit character from raw.
func SanitizeDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// NormalizeE164 ensures the value begins with + and only contains digits afterward.
func NormalizeE164(raw string) string {
	digits := SanitizeDigits(strings.TrimSpace(raw))
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// Variants returns the digit-only encodings a stored record might use for the
// same number: as received, with the country code, local with and without the
// leading zero. Lookups compare against the full set so formatting drift
// between the channel and stored rows does not hide a match.
func Variants(raw, countryCode string) []string {
	digits := SanitizeDigits(raw)
	if digits == "" {
		return nil
	}
	countryCode = SanitizeDigits(countryCode)

	candidates := []string{digits}
	switch {
	case countryCode != "" && strings.HasPrefix(digits, countryCode):
		local := digits[len(countryCode):]
		if local != "" {
			candidates = append(candidates, local, "0"+local)
		}
	case strings.HasPrefix(digits, "0"):
		trimmed := strings.TrimPrefix(digits, "0")
		candidates = append(candidates, trimmed)
		if countryCode != "" {
			candidates = append(candidates, countryCode+trimmed)
		}
	default:
		if countryCode != "" {
			candidates = append(candidates, countryCode+digits)
		}
	}
	return uniqueStrings(candidates)
}

func uniqueStrings(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
