package avro

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsValidName reports whether s is a valid Avro name or enum symbol.
func IsValidName(s string) bool {
	return namePattern.MatchString(s)
}

func splitNamespace(ns string) []string {
	if ns == "" {
		return nil
	}
	return strings.Split(ns, ".")
}

// sanitize replaces characters not allowed in Avro names with '_' and
// prefixes a leading digit.
func sanitize(s string) string {
	if s == "" {
		return "_"
	}
	var sb strings.Builder
	sb.Grow(len(s) + 1)
	for i, r := range s {
		if i == 0 && r >= '0' && r <= '9' {
			sb.WriteByte('_')
		}
		if r < unicode.MaxASCII && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// typeName turns a hint such as a field name into a PascalCase type name.
// Separators trigger capitalization.
//
//	"photo_urls" -> "PhotoUrls"
//	"owner-info" -> "OwnerInfo"
func typeName(s string) string {
	titleCaser := cases.Title(language.English, cases.NoLower)
	var sb strings.Builder
	sb.Grow(len(s))
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == '/' || r == ' '
	}) {
		sb.WriteString(titleCaser.String(part))
	}
	return sanitize(sb.String())
}

// names hands out unique type names.
type names struct {
	used map[string]bool
}

func newNames() *names {
	return &names{used: make(map[string]bool)}
}

// claim returns base, or base with the smallest numeric suffix not yet used.
func (n *names) claim(base string) string {
	name := base
	for i := 2; n.used[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	n.used[name] = true
	return name
}
