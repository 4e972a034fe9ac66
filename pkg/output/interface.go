package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders a report in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json, chart).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose lists every marker line and the run duration.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool

	// Width is the number of chart columns. Zero selects DefaultChartWidth.
	Width int
}

// Formats lists the names accepted by NewFormatter.
var Formats = []string{"text", "json", "chart"}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "text", "":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "chart":
		return NewChartFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (must be one of %v)", name, Formats)
	}
}
