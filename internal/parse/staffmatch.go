package parse

import "strings"

// StaffMatcher resolves free-text names against the staff directory snapshot
// using three tiers: exact full-name match, substring/first-name match, then
// Levenshtein distance against each directory first name. The first match in
// directory order wins within each tier.
type StaffMatcher struct {
	directory []string
}

// NewStaffMatcher builds a matcher over a directory snapshot of full names.
func NewStaffMatcher(directory []string) *StaffMatcher {
	return &StaffMatcher{directory: directory}
}

// Directory returns the snapshot the matcher was built over.
func (m *StaffMatcher) Directory() []string {
	return m.directory
}

// Match returns the directory full name for candidate, if any tier matches.
func (m *StaffMatcher) Match(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || m == nil {
		return "", false
	}
	lower := strings.ToLower(candidate)

	for _, full := range m.directory {
		if strings.EqualFold(full, candidate) {
			return full, true
		}
	}
	for _, full := range m.directory {
		fullLower := strings.ToLower(full)
		if strings.Contains(fullLower, lower) || strings.EqualFold(firstName(full), candidate) {
			return full, true
		}
	}
	for _, full := range m.directory {
		first := strings.ToLower(firstName(full))
		threshold := 2
		if len(first) <= 3 {
			threshold = 1
		}
		if levenshtein(first, lower) <= threshold {
			return full, true
		}
	}
	return "", false
}

func firstName(full string) string {
	if fields := strings.Fields(full); len(fields) > 0 {
		return fields[0]
	}
	return full
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
