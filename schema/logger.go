package schema

import "log/slog"

// Logger receives the diagnostics of compiling, resolving and emitting
// schemas. Attributes are alternating key-value pairs, as with log/slog:
//
//	logger.Debug("building reference target", "ref", "#/definitions/Pet", "location", loc)
//
// A Location attribute renders as a doc/pointer group when the logger is
// backed by slog. Wrap a *slog.Logger with [NewSlogAdapter].
type Logger interface {
	Debug(msg string, attrs ...any)
	Info(msg string, attrs ...any)
	Warn(msg string, attrs ...any)
	Error(msg string, attrs ...any)
	With(attrs ...any) Logger
}

// NopLogger discards everything. It is the default.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// With returns the NopLogger itself.
func (n NopLogger) With(...any) Logger { return n }

// SlogAdapter is a Logger backed by a *slog.Logger. The level methods are
// those of the embedded logger.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter wraps l, or slog.Default() when l is nil.
func NewSlogAdapter(l *slog.Logger) *SlogAdapter {
	if l == nil {
		l = slog.Default()
	}
	return &SlogAdapter{Logger: l}
}

// With returns an adapter whose records carry attrs.
func (s *SlogAdapter) With(attrs ...any) Logger {
	return &SlogAdapter{Logger: s.Logger.With(attrs...)}
}

var (
	_ Logger         = NopLogger{}
	_ Logger         = (*SlogAdapter)(nil)
	_ slog.LogValuer = Location{}
)

// LogValue renders l as a group of its document and pointer. The document
// is omitted for the main document.
func (l Location) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 2)
	if l.Doc != "" {
		attrs = append(attrs, slog.String("doc", l.Doc))
	}
	attrs = append(attrs, slog.String("pointer", l.Pointer))
	return slog.GroupValue(attrs...)
}
