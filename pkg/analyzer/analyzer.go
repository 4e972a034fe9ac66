package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ccollicutt/canplot/pkg/database"
	"github.com/ccollicutt/canplot/pkg/detector"
	"github.com/ccollicutt/canplot/pkg/parser"
	"github.com/ccollicutt/canplot/pkg/signals"
)

// Analyzer runs every line of a CAN log through detection, frame parsing,
// database lookup, payload decoding and signal routing. An Analyzer owns its
// format lock and series, so it serves one stream.
type Analyzer struct {
	db         database.Resolver
	detector   *detector.Detector
	router     *signals.Router
	aggregator *signals.Aggregator

	// Options
	patterns      []string
	decodeChoices bool
	enabled       map[FailureKind]bool
	diagnostics   Diagnostics

	markers Markers
	stats   Stats
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithSignals sets the signal patterns to track. No patterns tracks every
// signal.
func WithSignals(patterns []string) AnalyzerOption {
	return func(a *Analyzer) {
		a.patterns = patterns
	}
}

// WithDecodeChoices selects whether enumerated signals decode to their
// choice labels (the default) or stay numeric.
func WithDecodeChoices(v bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.decodeChoices = v
	}
}

// WithMarkers enables recording of line numbers for the given failure kinds.
// Kinds not enabled are still counted but their line numbers are discarded.
func WithMarkers(kinds ...FailureKind) AnalyzerOption {
	return func(a *Analyzer) {
		for _, k := range kinds {
			a.enabled[k] = true
		}
	}
}

// WithDiagnostics sets where per-line failures are reported.
func WithDiagnostics(d Diagnostics) AnalyzerOption {
	return func(a *Analyzer) {
		if d != nil {
			a.diagnostics = d
		}
	}
}

// NewAnalyzer creates an analyzer that decodes frames through db.
func NewAnalyzer(db database.Resolver, opts ...AnalyzerOption) (*Analyzer, error) {
	if db == nil {
		return nil, errors.New("frame database is required")
	}

	a := &Analyzer{
		db:            db,
		detector:      detector.New(),
		decodeChoices: true,
		enabled:       make(map[FailureKind]bool),
		diagnostics:   DiscardDiagnostics,
		stats:         Stats{Failures: make(map[FailureKind]int)},
	}

	for _, opt := range opts {
		opt(a)
	}

	router, err := signals.Compile(a.patterns)
	if err != nil {
		return nil, fmt.Errorf("compiling signal patterns: %w", err)
	}
	a.router = router
	a.aggregator = signals.NewAggregator(router)

	return a, nil
}

// ProcessLine handles one input line and returns its failure category, or
// FailureNone when the frame decoded. Failures never stop the stream.
func (a *Analyzer) ProcessLine(lineNum int, line string) FailureKind {
	a.stats.LinesProcessed++

	m, err := a.detector.Match(line)
	if err != nil {
		return a.fail(Diagnostic{Kind: FailureInvalidSyntax, LineNum: lineNum, Line: line, Err: err})
	}

	frame, err := parser.ParseFrame(m.ID, m.Data)
	if err != nil {
		return a.fail(Diagnostic{Kind: FailureInvalidSyntax, LineNum: lineNum, Line: line, Err: err})
	}

	msg, err := a.db.MessageByFrameID(frame.ID)
	if err != nil {
		return a.fail(Diagnostic{Kind: FailureUnknownFrame, LineNum: lineNum, Line: line, FrameID: frame.ID, Err: err})
	}

	decoded, err := msg.Decode(frame.Data, a.decodeChoices)
	if err != nil {
		return a.fail(Diagnostic{Kind: FailureInvalidData, LineNum: lineNum, Line: line, FrameID: frame.ID, Err: err})
	}
	a.stats.FramesDecoded++

	names := make([]string, 0, len(decoded))
	for name := range decoded {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if a.aggregator.Add(msg.Name()+"."+name, lineNum, decoded[name]) {
			a.stats.PointsAdded++
		}
	}

	return FailureNone
}

func (a *Analyzer) fail(d Diagnostic) FailureKind {
	a.stats.LinesFailed++
	a.stats.Failures[d.Kind]++
	if a.enabled[d.Kind] {
		a.markers.add(d.Kind, d.LineNum)
	}
	a.diagnostics.Report(d)
	return d.Kind
}

// Analyze processes every line of source and returns the accumulated series,
// markers and counters.
func (a *Analyzer) Analyze(ctx context.Context, source parser.LineSource) (*AnalysisResult, error) {
	start := time.Now()
	sourcesMap := make(map[string]bool)
	var sources []string

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		line, err := source.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading log source: %w", err)
		}

		if !sourcesMap[line.Source] {
			sourcesMap[line.Source] = true
			sources = append(sources, line.Source)
		}

		a.ProcessLine(line.LineNum, line.Content)
	}

	result := a.Result()
	result.Metadata.Sources = sources
	result.Metadata.StartTime = start
	result.Metadata.EndTime = time.Now()
	return result, nil
}

// Result returns a snapshot of what has been accumulated so far.
func (a *Analyzer) Result() *AnalysisResult {
	stats := a.stats
	stats.Failures = make(map[FailureKind]int, len(a.stats.Failures))
	for k, v := range a.stats.Failures {
		stats.Failures[k] = v
	}
	stats.Format = a.detector.Locked()

	return &AnalysisResult{
		Series: a.aggregator.Series(),
		Markers: Markers{
			InvalidSyntax: append([]int(nil), a.markers.InvalidSyntax...),
			UnknownFrames: append([]int(nil), a.markers.UnknownFrames...),
			InvalidData:   append([]int(nil), a.markers.InvalidData...),
		},
		Stats: stats,
		Metadata: AnalysisMetadata{
			Patterns: a.router.Patterns(),
		},
	}
}
