package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ccollicutt/canplot/pkg/analyzer"
	"github.com/ccollicutt/canplot/pkg/config"
	"github.com/ccollicutt/canplot/pkg/database"
	"github.com/ccollicutt/canplot/pkg/output"
	"github.com/ccollicutt/canplot/pkg/parser"
	"github.com/ccollicutt/canplot/pkg/webhook"
)

// PlotOptions holds command-line options for the plot command.
type PlotOptions struct {
	ConfigFile string

	NoDecodeChoices bool
	Encoding        string
	NoStrict        bool
	FrameIDMask     string

	ShowInvalidSyntax bool
	ShowUnknownFrames bool
	ShowInvalidData   bool

	Inputs  []string
	Output  string
	Width   int
	Verbose bool
	Quiet   bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewPlotCommand creates the plot command.
func NewPlotCommand() *cobra.Command {
	opts := &PlotOptions{}

	cmd := &cobra.Command{
		Use:   "plot [flags] <database> [signals...]",
		Short: "Decode a CAN log and plot signal values",
		Long: `Decode a candump log with a frame database and plot the values of the
selected signals against the input line number.

The log is read from standard input unless --input is given. Its format
(candump or candump -l) is detected from the first line that matches either.

Signals are selected with patterns: '*' matches any text, '?' one character,
and a pattern without a '.' matches that signal in any message. Without
patterns every signal is plotted.

Lines that cannot be decoded are reported on stderr and counted. With the
--show-* flags their line numbers are kept as markers in the output.

Examples:
  candump -l vcan0 | canplot plot engine.yaml
  canplot plot -i candump.log -o chart engine.yaml 'Engine.*' Speed
  canplot plot -m 0x7FF --show-unknown-frames -i candump.log engine.yaml`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigFile, "config", "", "Run configuration file (YAML)")
	cmd.Flags().BoolVarP(&opts.NoDecodeChoices, "no-decode-choices", "c", false, "Do not convert scaled values to choice strings")
	cmd.Flags().StringVarP(&opts.Encoding, "encoding", "e", config.DefaultEncoding, "Frame database file encoding")
	cmd.Flags().BoolVar(&opts.NoStrict, "no-strict", false, "Skip database consistency checks")
	cmd.Flags().StringVarP(&opts.FrameIDMask, "frame-id-mask", "m", "", "Only compare selected frame id bits (e.g. 0x7FF)")
	cmd.Flags().BoolVar(&opts.ShowInvalidSyntax, "show-invalid-syntax", false, "Mark lines with invalid syntax")
	cmd.Flags().BoolVar(&opts.ShowUnknownFrames, "show-unknown-frames", false, "Mark lines with unknown frame ids")
	cmd.Flags().BoolVar(&opts.ShowInvalidData, "show-invalid-data", false, "Mark lines with undecodable payloads")
	cmd.Flags().StringSliceVarP(&opts.Inputs, "input", "i", nil, "Log file(s) to read instead of stdin (can be repeated)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", config.DefaultOutputFormat, "Output format (text|json|chart)")
	cmd.Flags().IntVar(&opts.Width, "width", 0, "Chart width in columns (default: terminal width)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show debug logs and every marker line")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, hide per-line diagnostics")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnFailures), "When to fire webhook (on_failures|always|never)")

	return cmd
}

func runPlot(cmd *cobra.Command, args []string, opts *PlotOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := resolveConfig(ctx, cmd, args, opts)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), opts)

	db, err := database.Load(ctx, cfg.Database.Path,
		database.WithEncoding(cfg.Database.Encoding),
		database.WithFrameIDMask(cfg.Database.FrameIDMask),
		database.WithStrict(cfg.Database.Strict),
	)
	if err != nil {
		return fmt.Errorf("loading database: %w", err)
	}
	logger.Debug("database loaded",
		slog.String("path", cfg.Database.Path),
		slog.Int("messages", len(db.Messages())),
		slog.String("frame_id_mask", fmt.Sprintf("0x%x", db.FrameIDMask())),
		slog.Bool("strict", db.Strict()),
	)

	a, err := analyzer.NewAnalyzer(db,
		analyzer.WithSignals(cfg.Signals),
		analyzer.WithDecodeChoices(cfg.DecodeChoices),
		analyzer.WithMarkers(markerKinds(cfg.Markers)...),
		analyzer.WithDiagnostics(analyzer.NewLogDiagnostics(logger)),
	)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	var source parser.LineSource
	if len(cfg.Inputs) == 0 {
		source = parser.NewReaderSource(cmd.InOrStdin(), parser.StdinName)
	} else {
		source = parser.NewFileSource(cfg.Inputs).WithStdin(cmd.InOrStdin())
	}
	defer source.Close()

	result, err := a.Analyze(ctx, source)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	logger.Debug("analysis complete",
		slog.Int("lines", result.Stats.LinesProcessed),
		slog.Int("failed", result.Stats.LinesFailed),
		slog.String("format", result.Stats.Format.String()),
	)

	report := output.NewReport(result, cfg.Database.Path)

	stdout := cmd.OutOrStdout()
	formatter, err := output.NewFormatter(cfg.Output.Format, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
		Width:   chartWidth(cfg.Output.Width, stdout, report),
	})
	if err != nil {
		return err
	}

	if err := formatter.Format(ctx, report, stdout); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Send webhooks (errors logged but don't fail the run)
	sendWebhooks(ctx, cmd.ErrOrStderr(), cfg.Webhooks, report)

	return nil
}

// resolveConfig layers the configuration file (or defaults), then positional
// arguments, then flags that were explicitly set.
func resolveConfig(ctx context.Context, cmd *cobra.Command, args []string, opts *PlotOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.ConfigFile != "" {
		cfg, err = config.Load(ctx, opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg, err = config.FromEnvironment()
		if err != nil {
			return nil, err
		}
	}

	if len(args) > 0 {
		cfg.Database.Path = args[0]
	}
	if len(args) > 1 {
		cfg.Signals = args[1:]
	}
	if cfg.Database.Path == "" {
		return nil, errors.New("frame database is required (positional argument or database.path)")
	}

	flags := cmd.Flags()
	if flags.Changed("no-decode-choices") {
		cfg.DecodeChoices = !opts.NoDecodeChoices
	}
	if flags.Changed("encoding") {
		cfg.Database.Encoding = opts.Encoding
	}
	if flags.Changed("no-strict") {
		cfg.Database.Strict = !opts.NoStrict
	}
	if flags.Changed("frame-id-mask") {
		mask, err := parseFrameIDMask(opts.FrameIDMask)
		if err != nil {
			return nil, err
		}
		cfg.Database.FrameIDMask = mask
	}
	if flags.Changed("show-invalid-syntax") {
		cfg.Markers.InvalidSyntax = opts.ShowInvalidSyntax
	}
	if flags.Changed("show-unknown-frames") {
		cfg.Markers.UnknownFrames = opts.ShowUnknownFrames
	}
	if flags.Changed("show-invalid-data") {
		cfg.Markers.InvalidData = opts.ShowInvalidData
	}
	if flags.Changed("input") {
		cfg.Inputs = opts.Inputs
	}
	if flags.Changed("output") {
		cfg.Output.Format = opts.Output
	}
	if flags.Changed("width") {
		cfg.Output.Width = opts.Width
	}

	// The CLI webhook is validated like the ones from the config file.
	cfg.Webhooks = collectWebhooks(cfg, opts)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return cfg, nil
}

// parseFrameIDMask accepts decimal and 0x, 0o or 0b prefixed masks.
func parseFrameIDMask(s string) (uint32, error) {
	mask, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid frame-id-mask %q: %w", s, err)
	}
	if mask == 0 {
		return 0, fmt.Errorf("invalid frame-id-mask %q: must not be zero", s)
	}
	return uint32(mask), nil
}

func markerKinds(m config.MarkersConfig) []analyzer.FailureKind {
	var kinds []analyzer.FailureKind
	if m.InvalidSyntax {
		kinds = append(kinds, analyzer.FailureInvalidSyntax)
	}
	if m.UnknownFrames {
		kinds = append(kinds, analyzer.FailureUnknownFrame)
	}
	if m.InvalidData {
		kinds = append(kinds, analyzer.FailureInvalidData)
	}
	return kinds
}

// newLogger writes warnings to w; -q keeps only errors, -v adds debug.
func newLogger(w io.Writer, opts *PlotOptions) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case opts.Quiet:
		level = slog.LevelError
	case opts.Verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// chartReserve is the space a chart row needs besides its columns: the
// separator and the value range suffix.
const chartReserve = 28

// chartWidth returns the configured width, or fits the chart to the
// terminal when stdout is one.
func chartWidth(configured int, w io.Writer, report *output.Report) int {
	if configured > 0 {
		return configured
	}

	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}

	label := len("! unknown frames")
	for _, s := range report.Series {
		label = max(label, len(s.Name))
	}
	return max(cols-label-chartReserve, 0)
}

// sendWebhooks sends the report to all configured webhooks.
// Errors are logged but don't fail the run.
func sendWebhooks(ctx context.Context, w io.Writer, webhooks []config.WebhookConfig, report *output.Report) {
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient(webhook.WithUserAgent("canplot/" + Version))

	for _, wh := range webhooks {
		if !wh.ShouldFire(report.HasFailures()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			fmt.Fprintf(w, "Webhook %s: sent (%d, %s)\n", name, resp.StatusCode, resp.Duration)
		} else {
			fmt.Fprintf(w, "Webhook %s: failed (%v)\n", name, resp.Error)
		}
	}
}

// collectWebhooks merges config file webhooks with the CLI webhook.
func collectWebhooks(cfg *config.Config, opts *PlotOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: config.WebhookTrigger(opts.WebhookTrigger),
		})
	}

	return webhooks
}
