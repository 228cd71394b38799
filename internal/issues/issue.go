// Package issues provides the non-fatal issue type shared by the schema
// builder and the Avro transformer.
package issues

import (
	"fmt"
	"strings"

	"github.com/erraggy/aptos/internal/severity"
)

// Issue represents a single note produced while building or transforming a schema.
type Issue struct {
	// Path is the JSON pointer of the schema the issue concerns ("" for the root)
	Path string `json:"path" yaml:"path"`
	// Message is a human-readable description of the issue
	Message string `json:"message" yaml:"message"`
	// Severity indicates the severity level of the issue
	Severity severity.Severity `json:"severity" yaml:"severity"`
	// Keyword is the schema keyword involved (optional)
	Keyword string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	// Value is the problematic value (optional)
	Value any `json:"value,omitempty" yaml:"value,omitempty"`
	// Context provides additional information about the issue (optional)
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
	// Doc is the source document key, empty for the main document
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// String returns a formatted string representation of the issue.
// Uses different symbols based on severity level:
// - "✗" for Error or Critical severity
// - "⚠" for Warning severity
// - "ℹ" for Info severity
func (i Issue) String() string {
	var symbol string
	switch i.Severity {
	case severity.SeverityError, severity.SeverityCritical:
		symbol = "✗"
	case severity.SeverityWarning:
		symbol = "⚠"
	case severity.SeverityInfo:
		symbol = "ℹ"
	default:
		symbol = "?"
	}

	result := fmt.Sprintf("%s %s: %s", symbol, i.Location(), i.Message)
	if i.Context != "" {
		result += fmt.Sprintf("\n    Context: %s", i.Context)
	}
	return result
}

// Location returns "doc#pointer" when the issue belongs to an external
// document, and "#pointer" otherwise.
func (i Issue) Location() string {
	return i.Doc + "#" + i.Path
}

// Count returns the number of issues at or above the given severity.
// Critical counts as the most severe level.
func Count(list []Issue, min severity.Severity) int {
	n := 0
	for _, is := range list {
		if rank(is.Severity) >= rank(min) {
			n++
		}
	}
	return n
}

// rank orders severities from least to most severe.
func rank(s severity.Severity) int {
	switch s {
	case severity.SeverityInfo:
		return 0
	case severity.SeverityWarning:
		return 1
	case severity.SeverityError:
		return 2
	case severity.SeverityCritical:
		return 3
	}
	return -1
}

// Join renders a list of issues, one per line.
func Join(list []Issue) string {
	var sb strings.Builder
	for n, is := range list {
		if n > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(is.String())
	}
	return sb.String()
}
