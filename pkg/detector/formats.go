package detector

import "regexp"

// LineFormat identifies one of the supported CAN log line grammars.
type LineFormat int

const (
	// FormatUnset means no line has matched either grammar yet.
	FormatUnset LineFormat = iota
	// FormatCandump is candump's default output, e.g.
	// "vcan0  1F0   [8]  00 00 00 00 00 00 1B C1".
	FormatCandump
	// FormatCandumpLog is candump -l/-L output, e.g.
	// "(1594172461.968006) vcan0 1F0#0000000000001BC1".
	FormatCandumpLog
)

// String returns the format name.
func (f LineFormat) String() string {
	switch f {
	case FormatCandump:
		return "candump"
	case FormatCandumpLog:
		return "candump-log"
	default:
		return "unset"
	}
}

// MarshalText lets the format appear by name in JSON and YAML output.
func (f LineFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Format is a line grammar. The pattern captures the hex frame id in group 1
// and the hex payload in group 2.
type Format struct {
	Kind       LineFormat
	Name       string         // Human-readable name
	Pattern    *regexp.Regexp // Compiled regex (set during init)
	PatternStr string         // Pattern source
	Examples   []string       // Example lines
}

// DefaultFormats returns the supported grammars in detection priority order.
func DefaultFormats() []*Format {
	formats := []*Format{
		{
			Kind:       FormatCandump,
			Name:       "candump",
			PatternStr: `^\s*(?:\(.*?\))?\s*\S+\s+([0-9A-F]+)\s*\[\d+\]\s*([0-9A-F ]*)$`,
			Examples: []string{
				"vcan0  1F0   [8]  00 00 00 00 00 00 1B C1",
				"(1594172461.968006)  vcan0  0C8   [2]  11 22",
			},
		},
		{
			Kind:       FormatCandumpLog,
			Name:       "candump-log",
			PatternStr: `^\(\d+\.\d+\)\s+\S+\s+([\dA-F]+)#([\dA-F]*)$`,
			Examples: []string{
				"(1594172461.968006) vcan0 1F0#0000000000001BC1",
				"(1594172462.000000) can1 12345678#",
			},
		},
	}

	for _, f := range formats {
		f.Pattern = regexp.MustCompile(f.PatternStr)
	}

	return formats
}
