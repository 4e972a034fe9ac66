package output

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ccollicutt/canplot/pkg/signals"
)

// maxMarkerLines bounds the marker lines listed without Verbose.
const maxMarkerLines = 10

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "canplot: %s lines, %s failed, %d series, %s points\n",
		humanize.Comma(int64(report.Summary.LinesProcessed)),
		humanize.Comma(int64(report.Summary.LinesFailed)),
		report.Summary.SeriesCount,
		humanize.Comma(int64(report.Summary.Points)))
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== canplot Report ===")
	fmt.Fprintln(w)

	if len(report.Series) == 0 {
		fmt.Fprintln(w, "No signals decoded")
		fmt.Fprintln(w)
	}
	for _, s := range report.Series {
		f.formatSeries(s, w)
	}

	f.formatMarkers("Invalid syntax", report.Markers.InvalidSyntax, w)
	f.formatMarkers("Unknown frames", report.Markers.UnknownFrames, w)
	f.formatMarkers("Invalid data", report.Markers.InvalidData, w)

	sum := report.Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %s lines processed, %s failed (%s invalid syntax, %s unknown frames, %s invalid data)\n",
		humanize.Comma(int64(sum.LinesProcessed)),
		humanize.Comma(int64(sum.LinesFailed)),
		humanize.Comma(int64(sum.InvalidSyntax)),
		humanize.Comma(int64(sum.UnknownFrames)),
		humanize.Comma(int64(sum.InvalidData)))
	_, err := fmt.Fprintf(w, "%d series, %s points from %s frames\n",
		sum.SeriesCount,
		humanize.Comma(int64(sum.Points)),
		humanize.Comma(int64(sum.FramesDecoded)))

	if f.opts.Verbose {
		fmt.Fprintf(w, "Format: %s\n", sum.Format)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return err
}

func (f *TextFormatter) formatSeries(s *signals.Series, w io.Writer) {
	fmt.Fprintf(w, "[SIGNAL] %s\n", s.Name)
	if s.Len() == 0 {
		fmt.Fprintln(w, "  No points")
		fmt.Fprintln(w)
		return
	}

	lo, hi := s.Values[0].Number, s.Values[0].Number
	for _, v := range s.Values[1:] {
		lo = min(lo, v.Number)
		hi = max(hi, v.Number)
	}

	fmt.Fprintf(w, "  Points: %s (lines %d to %d)\n",
		humanize.Comma(int64(s.Len())), s.Indices[0], s.Indices[s.Len()-1])
	fmt.Fprintf(w, "  Range: %s .. %s\n", formatNumber(lo), formatNumber(hi))
	fmt.Fprintf(w, "  Last: %s\n", s.Values[s.Len()-1])
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatMarkers(title string, lines []int, w io.Writer) {
	if len(lines) == 0 {
		return
	}

	shown := lines
	if !f.opts.Verbose && len(shown) > maxMarkerLines {
		shown = shown[:maxMarkerLines]
	}
	parts := make([]string, len(shown))
	for i, n := range shown {
		parts[i] = strconv.Itoa(n)
	}

	fmt.Fprintf(w, "[MARKERS] %s: %s line(s)\n", title, humanize.Comma(int64(len(lines))))
	fmt.Fprintf(w, "  Lines: %s", strings.Join(parts, ", "))
	if rest := len(lines) - len(shown); rest > 0 {
		fmt.Fprintf(w, " ... and %s more", humanize.Comma(int64(rest)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
