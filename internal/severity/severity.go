// Package severity provides severity level constants for the non-fatal
// issues reported while building schemas and emitting Avro.
//
// The severity levels are ordered from least to most severe:
// Info < Warning < Error < Critical
package severity

// Severity indicates how much an issue matters to the caller.
type Severity int

const (
	// SeverityError indicates a problem that makes the result unusable.
	SeverityError Severity = iota

	// SeverityWarning indicates a lossy mapping, such as a tuple array
	// flattened into an Avro union.
	SeverityWarning

	// SeverityInfo indicates a processing choice, such as an unknown
	// "type" value treated as an object.
	SeverityInfo

	// SeverityCritical indicates a construct that could not be processed at all.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity as its lowercase name so JSON and YAML
// output stay readable.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
