// Package parser reads CAN log lines and unpacks frame records from them.
package parser

// LogLine is a raw log line before frame parsing.
type LogLine struct {
	// Content is the line text without trailing line terminators.
	Content string

	// Source is the file path this line came from ("-" for stdin).
	Source string

	// LineNum is the 1-based position of the line in the whole input,
	// counted across all sources. It is the time axis of every series.
	LineNum int
}
