package analyzer

import (
	"context"
	"fmt"
	"log/slog"
)

// Diagnostic describes one failed line.
type Diagnostic struct {
	Kind    FailureKind
	LineNum int
	Line    string
	FrameID uint32 // unset for FailureInvalidSyntax
	Err     error
}

// Message renders the diagnostic as one human-readable line. Frame ids are
// given in decimal and hexadecimal.
func (d Diagnostic) Message() string {
	switch d.Kind {
	case FailureInvalidSyntax:
		return fmt.Sprintf("failed to parse line: %q", d.Line)
	case FailureUnknownFrame:
		return fmt.Sprintf("unknown frame id %d (0x%x)", d.FrameID, d.FrameID)
	case FailureInvalidData:
		return fmt.Sprintf("failed to parse data of frame id %d (0x%x): %v", d.FrameID, d.FrameID, d.Err)
	default:
		return fmt.Sprintf("line %d: %v", d.LineNum, d.Err)
	}
}

// Diagnostics receives one report per failed line.
type Diagnostics interface {
	Report(d Diagnostic)
}

// DiagnosticsFunc adapts a function to Diagnostics.
type DiagnosticsFunc func(d Diagnostic)

// Report calls f(d).
func (f DiagnosticsFunc) Report(d Diagnostic) {
	f(d)
}

// DiscardDiagnostics drops every report.
var DiscardDiagnostics Diagnostics = DiagnosticsFunc(func(Diagnostic) {})

// LogDiagnostics writes reports to a slog.Logger at warn level.
type LogDiagnostics struct {
	logger *slog.Logger
}

// NewLogDiagnostics creates a Diagnostics that logs through logger.
func NewLogDiagnostics(logger *slog.Logger) *LogDiagnostics {
	return &LogDiagnostics{logger: logger}
}

// Report logs the diagnostic message with the line number and category.
func (l *LogDiagnostics) Report(d Diagnostic) {
	attrs := []slog.Attr{
		slog.Int("line", d.LineNum),
		slog.String("kind", string(d.Kind)),
	}
	if d.Kind != FailureInvalidSyntax {
		attrs = append(attrs, slog.String("frame_id", fmt.Sprintf("0x%x", d.FrameID)))
	}
	l.logger.LogAttrs(context.Background(), slog.LevelWarn, d.Message(), attrs...)
}
