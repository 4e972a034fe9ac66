package output

import (
	"testing"
	"time"

	"github.com/ccollicutt/canplot/pkg/analyzer"
	"github.com/ccollicutt/canplot/pkg/can"
	"github.com/ccollicutt/canplot/pkg/detector"
	"github.com/ccollicutt/canplot/pkg/signals"
)

func createTestResult() *analyzer.AnalysisResult {
	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return &analyzer.AnalysisResult{
		Series: []*signals.Series{
			{
				Name:    "Engine.Speed",
				Indices: []int{1, 2, 4},
				Values:  []can.Value{can.NumberValue(10), can.NumberValue(2500), can.NumberValue(40)},
			},
			{
				Name:    "Engine.Status",
				Indices: []int{1, 2, 4},
				Values:  []can.Value{can.LabelValue(1, "On"), can.NumberValue(0), can.LabelValue(1, "On")},
			},
		},
		Markers: analyzer.Markers{
			InvalidSyntax: []int{3},
			UnknownFrames: []int{5},
		},
		Stats: analyzer.Stats{
			LinesProcessed: 1234,
			LinesFailed:    3,
			Failures: map[analyzer.FailureKind]int{
				analyzer.FailureInvalidSyntax: 1,
				analyzer.FailureUnknownFrame:  1,
				analyzer.FailureInvalidData:   1,
			},
			FramesDecoded: 3,
			PointsAdded:   6,
			Format:        detector.FormatCandump,
		},
		Metadata: analyzer.AnalysisMetadata{
			Sources:   []string{"-"},
			Patterns:  []string{"*"},
			StartTime: start,
			EndTime:   start.Add(250 * time.Millisecond),
		},
	}
}

func createTestReport() *Report {
	return NewReport(createTestResult(), "engine.yaml")
}

func TestNewReport(t *testing.T) {
	report := createTestReport()

	want := Summary{
		LinesProcessed: 1234,
		LinesFailed:    3,
		InvalidSyntax:  1,
		UnknownFrames:  1,
		InvalidData:    1,
		FramesDecoded:  3,
		SeriesCount:    2,
		Points:         6,
		Format:         "candump",
	}
	if report.Summary != want {
		t.Errorf("Summary = %+v, want %+v", report.Summary, want)
	}
	if report.Metadata.Duration != 250*time.Millisecond {
		t.Errorf("Duration = %v, want 250ms", report.Metadata.Duration)
	}
	if report.Metadata.Database != "engine.yaml" {
		t.Errorf("Database = %q", report.Metadata.Database)
	}
	if !report.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
}

func TestNewFormatter(t *testing.T) {
	for _, name := range Formats {
		f, err := NewFormatter(name, FormatOptions{})
		if err != nil {
			t.Fatalf("NewFormatter(%q) error = %v", name, err)
		}
		if f.Name() != name {
			t.Errorf("Name() = %q, want %q", f.Name(), name)
		}
	}

	if _, err := NewFormatter("png", FormatOptions{}); err == nil {
		t.Error("NewFormatter(png) expected error")
	}
}
