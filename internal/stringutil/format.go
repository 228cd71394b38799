// Package stringutil checks the string formats the validator can assert.
package stringutil

import (
	"net/url"
	"regexp"
	"time"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	uuidRegex     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	dateRegex     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[Tt]\d{2}:\d{2}:\d{2}`)
)

// IsValidEmail checks if s looks like a plain addr-spec email address.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsValidUUID checks if s is a hyphenated hex UUID.
func IsValidUUID(s string) bool {
	return uuidRegex.MatchString(s)
}

// IsValidDate checks if s is a calendar date in YYYY-MM-DD form.
func IsValidDate(s string) bool {
	if !dateRegex.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// IsValidDateTime checks if s is an RFC 3339 timestamp.
func IsValidDateTime(s string) bool {
	if !dateTimeRegex.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

// IsValidURI checks if s is an absolute URI with a scheme.
func IsValidURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}

// CheckFormat reports whether s satisfies the named format. Unknown formats
// always pass; known reports whether the format was recognized.
func CheckFormat(format, s string) (ok, known bool) {
	switch format {
	case "email":
		return IsValidEmail(s), true
	case "uri":
		return IsValidURI(s), true
	case "date":
		return IsValidDate(s), true
	case "date-time":
		return IsValidDateTime(s), true
	case "uuid":
		return IsValidUUID(s), true
	}
	return true, false
}
