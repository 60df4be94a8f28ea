package person

import (
	"regexp"
	"strings"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// separatorRegex matches email local-part separators
var separatorRegex = regexp.MustCompile(`[._\-+]+`)

// lower normalizes a string for matching and dedup keys:
// trimmed, lowercased, internal whitespace collapsed to single spaces.
func lower(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// SplitName splits a free-form name on whitespace into a first name
// (first token) and last name (remaining tokens joined, or empty).
func SplitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	if len(fields) == 1 {
		return fields[0], ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// LocalPart returns the part of an email address before the '@',
// or the whole string when no '@' is present.
func LocalPart(email string) string {
	if at := strings.Index(email, "@"); at >= 0 {
		return email[:at]
	}
	return email
}

// DisplayNameFromEmail derives a human-readable name from an email
// address by taking the local part and replacing separators with spaces:
// "priya.shah@x.com" becomes "priya shah".
func DisplayNameFromEmail(email string) string {
	local := LocalPart(email)
	return lower(separatorRegex.ReplaceAllString(local, " "))
}

// NameMatches reports whether a display name matches a first-name query:
// a case-insensitive starts-with or substring match.
func NameMatches(display, first string) bool {
	display = lower(display)
	first = lower(first)
	if display == "" || first == "" {
		return false
	}
	return strings.Contains(display, first)
}

// EmailMatches reports whether an email address matches a first-name
// query via its local part.
func EmailMatches(email, first string) bool {
	if email == "" {
		return false
	}
	return NameMatches(DisplayNameFromEmail(email), first)
}
