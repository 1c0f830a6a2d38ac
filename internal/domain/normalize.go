package domain

import "strings"

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
// It is used for first/last/full name normalization.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FoldKey is the case-insensitive comparison key for handles and emails.
func FoldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ContainsFold reports whether needle occurs in hay, ignoring case.
func ContainsFold(hay, needle string) bool {
	return strings.Contains(strings.ToLower(hay), strings.ToLower(needle))
}
