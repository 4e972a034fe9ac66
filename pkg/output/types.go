// Package output renders decoded signal series and failure markers.
package output

import (
	"time"

	"github.com/ccollicutt/canplot/pkg/analyzer"
	"github.com/ccollicutt/canplot/pkg/signals"
)

// Report is the complete output of a run.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Series holds the decoded values of every tracked signal.
	Series []*signals.Series `json:"series"`

	// Markers holds the line numbers of enabled failure categories.
	Markers analyzer.Markers `json:"markers"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Summary provides aggregate statistics.
type Summary struct {
	LinesProcessed int    `json:"lines_processed"`
	LinesFailed    int    `json:"lines_failed"`
	InvalidSyntax  int    `json:"invalid_syntax"`
	UnknownFrames  int    `json:"unknown_frames"`
	InvalidData    int    `json:"invalid_data"`
	FramesDecoded  int    `json:"frames_decoded"`
	SeriesCount    int    `json:"series"`
	Points         int    `json:"points"`
	Format         string `json:"format"`
}

// Metadata provides context about the run.
type Metadata struct {
	// Database is the path of the frame database.
	Database string `json:"database"`

	// Sources lists the inputs that were read.
	Sources []string `json:"sources"`

	// Patterns are the effective signal patterns.
	Patterns []string `json:"patterns"`

	// AnalyzedAt is when the run finished.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
}

// NewReport creates a Report from analysis results.
func NewReport(result *analyzer.AnalysisResult, database string) *Report {
	stats := result.Stats
	return &Report{
		Series:  result.Series,
		Markers: result.Markers,
		Metadata: Metadata{
			Database:   database,
			Sources:    result.Metadata.Sources,
			Patterns:   result.Metadata.Patterns,
			AnalyzedAt: result.Metadata.EndTime,
			Duration:   result.Metadata.EndTime.Sub(result.Metadata.StartTime),
		},
		Summary: Summary{
			LinesProcessed: stats.LinesProcessed,
			LinesFailed:    stats.LinesFailed,
			InvalidSyntax:  stats.Failures[analyzer.FailureInvalidSyntax],
			UnknownFrames:  stats.Failures[analyzer.FailureUnknownFrame],
			InvalidData:    stats.Failures[analyzer.FailureInvalidData],
			FramesDecoded:  stats.FramesDecoded,
			SeriesCount:    len(result.Series),
			Points:         result.TotalPoints(),
			Format:         stats.Format.String(),
		},
	}
}

// HasFailures returns true if any line failed to decode.
func (r *Report) HasFailures() bool {
	return r.Summary.LinesFailed > 0
}
