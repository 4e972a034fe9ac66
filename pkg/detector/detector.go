// Package detector recognises the CAN log line grammars and locks a stream
// onto the first one that matches.
package detector

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
)

// ErrNoMatch is returned when a line matches no grammar that is still
// eligible for the stream.
var ErrNoMatch = errors.New("line matches no known CAN log format")

// Match is the result of matching a line against a grammar.
type Match struct {
	Format *Format
	ID     string // hex frame id text
	Data   string // hex payload text, possibly space separated
}

// Detector matches log lines and remembers the grammar of the stream.
// Once a line matched, every later line is tried against that grammar only.
// A Detector is not safe for concurrent use.
type Detector struct {
	formats    []*Format
	locked     *Format
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines DetectFromFile samples (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a Detector with the default grammars and no locked format.
func New(opts ...Option) *Detector {
	d := &Detector{
		formats:    DefaultFormats(),
		sampleSize: 100,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Match parses a line with the locked grammar, or probes the grammars in
// priority order while no format is locked yet.
func (d *Detector) Match(line string) (*Match, error) {
	if d.locked != nil {
		return match(d.locked, line)
	}

	for _, f := range d.formats {
		if m, err := match(f, line); err == nil {
			d.locked = f
			return m, nil
		}
	}
	return nil, ErrNoMatch
}

// Locked returns the format the stream is locked to, or FormatUnset.
func (d *Detector) Locked() LineFormat {
	if d.locked == nil {
		return FormatUnset
	}
	return d.locked.Kind
}

func match(f *Format, line string) (*Match, error) {
	groups := f.Pattern.FindStringSubmatch(line)
	if len(groups) < 3 {
		return nil, ErrNoMatch
	}
	return &Match{Format: f, ID: groups[1], Data: groups[2]}, nil
}

// DetectionResult holds the result of sampling a log.
type DetectionResult struct {
	Matches      []FormatMatch // Formats that matched, in priority order
	SampledLines int           // Number of lines sampled
	ParsedLines  int           // Lines matched by the selected format
	Selected     LineFormat    // Format a stream over these lines would lock to
	FirstMatch   int           // 1-based sample line that locks the format, 0 if none
}

// FormatMatch counts how many sampled lines a grammar accepts.
type FormatMatch struct {
	Format     *Format
	Confidence float64 // 0.0 to 1.0 (share of sampled lines matched)
	MatchCount int
	SampleLine string
}

// DetectFromLines reports how each grammar fares on the given lines. It does
// not change the locked format of d.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{
		SampledLines: len(lines),
	}

	if len(lines) == 0 {
		return result
	}

	stream := &Detector{formats: d.formats}
	for i, line := range lines {
		if _, err := stream.Match(line); err == nil && result.FirstMatch == 0 {
			result.FirstMatch = i + 1
		}
	}
	result.Selected = stream.Locked()

	for _, f := range d.formats {
		fm := FormatMatch{Format: f}
		for _, line := range lines {
			if _, err := match(f, line); err != nil {
				continue
			}
			if fm.MatchCount == 0 {
				fm.SampleLine = line
			}
			fm.MatchCount++
		}
		if fm.MatchCount == 0 {
			continue
		}
		fm.Confidence = float64(fm.MatchCount) / float64(len(lines))
		result.Matches = append(result.Matches, fm)

		if f.Kind == result.Selected {
			result.ParsedLines = fm.MatchCount
		}
	}

	return result
}

// DetectFromFile samples the head of a log file and reports detected formats.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// sampleFile reads up to sampleSize non-empty lines from a file.
func (d *Detector) sampleFile(ctx context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	reader := bufio.NewReader(file)

	for len(lines) < d.sampleSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := reader.ReadString('\n')
		line := strings.TrimRight(text, "\r\n")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return lines, nil
}

// BestMatch returns the format match a stream would lock to, or nil.
func (r *DetectionResult) BestMatch() *FormatMatch {
	for i := range r.Matches {
		if r.Matches[i].Format.Kind == r.Selected {
			return &r.Matches[i]
		}
	}
	return nil
}

// HasMatch returns true if at least one format matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
