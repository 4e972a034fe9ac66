// Package analyzer drives CAN log lines through parsing, frame database
// decoding and signal routing, classifying every line that fails.
package analyzer

import (
	"time"

	"github.com/ccollicutt/canplot/pkg/detector"
	"github.com/ccollicutt/canplot/pkg/signals"
)

// FailureKind categorizes a line that produced no signal values.
type FailureKind string

const (
	// FailureNone means the line decoded.
	FailureNone FailureKind = ""

	// FailureInvalidSyntax is a line matching no grammar or holding bad hex.
	FailureInvalidSyntax FailureKind = "invalid_syntax"

	// FailureUnknownFrame is a frame id missing from the database.
	FailureUnknownFrame FailureKind = "unknown_frame"

	// FailureInvalidData is a payload its message could not decode.
	FailureInvalidData FailureKind = "invalid_data"
)

// FailureKinds lists every failure category in display order.
func FailureKinds() []FailureKind {
	return []FailureKind{FailureInvalidSyntax, FailureUnknownFrame, FailureInvalidData}
}

// Markers holds, per failure category, the line numbers where it occurred.
// A list stays empty unless its category was enabled with WithMarkers.
type Markers struct {
	InvalidSyntax []int `json:"invalid_syntax"`
	UnknownFrames []int `json:"unknown_frames"`
	InvalidData   []int `json:"invalid_data"`
}

// For returns the marker list of a failure category.
func (m *Markers) For(kind FailureKind) []int {
	switch kind {
	case FailureInvalidSyntax:
		return m.InvalidSyntax
	case FailureUnknownFrame:
		return m.UnknownFrames
	case FailureInvalidData:
		return m.InvalidData
	default:
		return nil
	}
}

func (m *Markers) add(kind FailureKind, lineNum int) {
	switch kind {
	case FailureInvalidSyntax:
		m.InvalidSyntax = append(m.InvalidSyntax, lineNum)
	case FailureUnknownFrame:
		m.UnknownFrames = append(m.UnknownFrames, lineNum)
	case FailureInvalidData:
		m.InvalidData = append(m.InvalidData, lineNum)
	}
}

// Stats counts what happened to the lines of a run. Failure counts are kept
// whether or not the matching marker list is enabled.
type Stats struct {
	// LinesProcessed is the total number of lines read.
	LinesProcessed int

	// LinesFailed is the number of lines in any failure category.
	LinesFailed int

	// Failures counts lines per failure category.
	Failures map[FailureKind]int

	// FramesDecoded is the number of frames whose payload decoded.
	FramesDecoded int

	// PointsAdded is the number of values appended to series.
	PointsAdded int

	// Format is the line grammar the stream locked to.
	Format detector.LineFormat
}

// AnalysisResult is everything a render sink needs from a run.
type AnalysisResult struct {
	// Series holds one entry per tracked signal, in order of creation.
	Series []*signals.Series

	// Markers holds the line numbers of enabled failure categories.
	Markers Markers

	// Stats counts lines, failures and decoded frames.
	Stats Stats

	// Metadata provides context about the run.
	Metadata AnalysisMetadata
}

// AnalysisMetadata provides context about the analysis run.
type AnalysisMetadata struct {
	// Sources lists the inputs that were read.
	Sources []string

	// Patterns are the effective signal patterns.
	Patterns []string

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time
}

// TotalPoints returns the number of points across all series.
func (r *AnalysisResult) TotalPoints() int {
	total := 0
	for _, s := range r.Series {
		total += s.Len()
	}
	return total
}
