package model

import (
	"regexp"
	"sort"

	"github.com/rotisserie/eris"
)

// periodPattern matches reporting periods of the form "2026-Q1".
var periodPattern = regexp.MustCompile(`^\d{4}-Q[1-4]$`)

// ValidPeriod reports whether s is a well-formed reporting period.
func ValidPeriod(s string) bool {
	return periodPattern.MatchString(s)
}

// CheckPeriod returns an error for malformed periods.
func CheckPeriod(s string) error {
	if !ValidPeriod(s) {
		return eris.Errorf("model: invalid period %q, want YYYY-Qn", s)
	}
	return nil
}

// SortPeriods orders periods descending by recency, the convention for
// period selectors. "YYYY-Qn" sorts correctly as plain strings.
func SortPeriods(periods []string) {
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
}

// PreviousPeriod returns the latest period in known that sorts strictly
// before current, or "" when none exists.
func PreviousPeriod(current string, known []string) string {
	prev := ""
	for _, p := range known {
		if p < current && p > prev {
			prev = p
		}
	}
	return prev
}
