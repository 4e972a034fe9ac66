package output

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ccollicutt/canplot/pkg/signals"
)

// DefaultChartWidth is the number of chart columns when none is configured.
const DefaultChartWidth = 60

// minChartWidth keeps very narrow terminals readable.
const minChartWidth = 10

// sparks are the bar glyphs from lowest to highest.
var sparks = []rune("▁▂▃▄▅▆▇█")

// markerGlyph marks a column holding at least one failed line.
const markerGlyph = '|'

// ChartFormatter draws every series as a sparkline on a shared line-number
// axis, with one row per non-empty marker list underneath.
type ChartFormatter struct {
	opts FormatOptions
}

// NewChartFormatter creates a new chart formatter with the given options.
func NewChartFormatter(opts FormatOptions) *ChartFormatter {
	return &ChartFormatter{opts: opts}
}

// Name returns the format name.
func (f *ChartFormatter) Name() string {
	return "chart"
}

// axis maps line numbers onto chart columns.
type axis struct {
	first, last int
	width       int
}

func (a axis) column(line int) int {
	if a.last == a.first {
		return 0
	}
	col := (line - a.first) * (a.width - 1) / (a.last - a.first)
	return max(0, min(col, a.width-1))
}

// Format renders the report as a terminal chart.
func (f *ChartFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	rows := []chartRow{}
	for _, s := range report.Series {
		rows = append(rows, chartRow{label: s.Name, series: s})
	}
	for _, m := range []struct {
		label string
		lines []int
	}{
		{"! invalid syntax", report.Markers.InvalidSyntax},
		{"! unknown frames", report.Markers.UnknownFrames},
		{"! invalid data", report.Markers.InvalidData},
	} {
		if len(m.lines) > 0 {
			rows = append(rows, chartRow{label: m.label, markers: m.lines})
		}
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No signals decoded")
		return err
	}

	ax, ok := chartAxis(rows)
	if !ok {
		_, err := fmt.Fprintln(w, "No points to chart")
		return err
	}

	labelWidth := 0
	for _, r := range rows {
		labelWidth = max(labelWidth, utf8.RuneCountInString(r.label))
	}

	ax.width = f.opts.Width
	if ax.width == 0 {
		ax.width = DefaultChartWidth
	}
	ax.width = max(ax.width, minChartWidth)

	for _, r := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := r.render(ax)
		if r.series != nil && !f.opts.Quiet {
			line += "  " + seriesRange(r.series)
		}
		if _, err := fmt.Fprintf(w, "%-*s %s\n", labelWidth, r.label, line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%-*s %-*d%d\n", labelWidth, "line", ax.width-countDigits(ax.last), ax.first, ax.last)
	return err
}

type chartRow struct {
	label   string
	series  *signals.Series
	markers []int
}

func (r chartRow) lines() []int {
	if r.series != nil {
		return r.series.Indices
	}
	return r.markers
}

func chartAxis(rows []chartRow) (axis, bool) {
	ax := axis{first: math.MaxInt, last: math.MinInt}
	for _, r := range rows {
		for _, n := range r.lines() {
			ax.first = min(ax.first, n)
			ax.last = max(ax.last, n)
		}
	}
	return ax, ax.first <= ax.last
}

// render draws one row. Series columns average the points that fall into
// them; empty columns stay blank.
func (r chartRow) render(ax axis) string {
	cells := []rune(strings.Repeat(" ", ax.width))

	if r.series == nil {
		for _, n := range r.markers {
			cells[ax.column(n)] = markerGlyph
		}
		return string(cells)
	}

	sums := make([]float64, ax.width)
	counts := make([]int, ax.width)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, n := range r.series.Indices {
		v := r.series.Values[i].Number
		col := ax.column(n)
		sums[col] += v
		counts[col]++
		lo = min(lo, v)
		hi = max(hi, v)
	}

	for col := range cells {
		if counts[col] == 0 {
			continue
		}
		avg := sums[col] / float64(counts[col])
		level := 0
		if hi > lo {
			level = int((avg - lo) / (hi - lo) * float64(len(sparks)-1))
		}
		cells[col] = sparks[max(0, min(level, len(sparks)-1))]
	}
	return string(cells)
}

func seriesRange(s *signals.Series) string {
	if s.Len() == 0 {
		return ""
	}
	lo, hi := s.Values[0].Number, s.Values[0].Number
	for _, v := range s.Values[1:] {
		lo = min(lo, v.Number)
		hi = max(hi, v.Number)
	}
	return fmt.Sprintf("[%s .. %s]", formatNumber(lo), formatNumber(hi))
}

func countDigits(n int) int {
	return len(fmt.Sprint(n))
}
