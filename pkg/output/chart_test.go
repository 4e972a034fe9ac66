package output

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ccollicutt/canplot/pkg/can"
	"github.com/ccollicutt/canplot/pkg/signals"
)

func TestAxis_Column(t *testing.T) {
	ax := axis{first: 1, last: 11, width: 11}
	tests := []struct {
		line int
		want int
	}{
		{1, 0},
		{6, 5},
		{11, 10},
		{0, 0},
		{20, 10},
	}
	for _, tt := range tests {
		if got := ax.column(tt.line); got != tt.want {
			t.Errorf("column(%d) = %d, want %d", tt.line, got, tt.want)
		}
	}

	single := axis{first: 5, last: 5, width: 10}
	if got := single.column(5); got != 0 {
		t.Errorf("single point column = %d, want 0", got)
	}
}

func TestChartFormatter_Format(t *testing.T) {
	report := &Report{
		Series: []*signals.Series{{
			Name:    "Engine.Speed",
			Indices: []int{1, 10},
			Values:  []can.Value{can.NumberValue(0), can.NumberValue(100)},
		}},
	}
	report.Markers.InvalidData = []int{5}

	f := NewChartFormatter(FormatOptions{Width: 10})
	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Got %d lines, want 3:\n%s", len(lines), buf.String())
	}

	label := "! invalid data"
	speed := strings.TrimPrefix(lines[0], "Engine.Speed")
	cells := []rune(speed)[len(label)-len("Engine.Speed")+1:]
	if cells[0] != '▁' || cells[9] != '█' {
		t.Errorf("sparkline = %q, want low start and high end", string(cells))
	}
	if !strings.HasSuffix(lines[0], "[0 .. 100]") {
		t.Errorf("series row missing range: %q", lines[0])
	}

	if !strings.HasPrefix(lines[1], label) {
		t.Errorf("marker row = %q", lines[1])
	}
	markerCells := []rune(strings.TrimPrefix(lines[1], label+" "))
	if utf8.RuneCountInString(string(markerCells)) != 10 || markerCells[4] != '|' {
		t.Errorf("marker row cells = %q, want | in column 4", string(markerCells))
	}

	if !strings.HasPrefix(lines[2], "line") || !strings.HasSuffix(lines[2], "10") {
		t.Errorf("axis row = %q", lines[2])
	}
}

func TestChartFormatter_Format_Empty(t *testing.T) {
	f := NewChartFormatter(FormatOptions{})
	var buf bytes.Buffer
	if err := f.Format(context.Background(), &Report{}, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No signals decoded") {
		t.Errorf("Format() = %q", buf.String())
	}
}

func TestChartFormatter_Format_MinimumWidth(t *testing.T) {
	report := &Report{
		Series: []*signals.Series{{
			Name:    "A.B",
			Indices: []int{1, 2},
			Values:  []can.Value{can.NumberValue(1), can.NumberValue(2)},
		}},
	}

	f := NewChartFormatter(FormatOptions{Width: 3, Quiet: true})
	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	row := strings.Split(buf.String(), "\n")[0]
	if got := utf8.RuneCountInString(strings.TrimPrefix(row, "A.B ")); got != minChartWidth {
		t.Errorf("row width = %d, want %d", got, minChartWidth)
	}
}
