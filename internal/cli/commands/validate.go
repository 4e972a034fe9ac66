package commands

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/canplot/pkg/config"
	"github.com/ccollicutt/canplot/pkg/database"
)

// ValidateOptions holds command-line options for the validate command.
type ValidateOptions struct {
	Encoding    string
	NoStrict    bool
	FrameIDMask string
	Verbose     bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <database>",
		Short: "Validate a frame database",
		Long: `Validate a frame database file without decoding a log.

Checks:
  - File encoding and YAML syntax
  - Required message and signal fields
  - Signals fit the message payload (strict mode)
  - No overlapping signals, duplicate frame ids or names (strict mode)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Encoding, "encoding", "e", config.DefaultEncoding, "Frame database file encoding")
	cmd.Flags().BoolVar(&opts.NoStrict, "no-strict", false, "Skip database consistency checks")
	cmd.Flags().StringVarP(&opts.FrameIDMask, "frame-id-mask", "m", "", "Only compare selected frame id bits (e.g. 0x7FF)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "List the signals of every message")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string, opts *ValidateOptions) error {
	path := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	loadOpts := []database.LoadOption{
		database.WithEncoding(opts.Encoding),
		database.WithStrict(!opts.NoStrict),
	}
	if opts.FrameIDMask != "" {
		mask, err := parseFrameIDMask(opts.FrameIDMask)
		if err != nil {
			return err
		}
		loadOpts = append(loadOpts, database.WithFrameIDMask(mask))
	}

	fmt.Fprintf(w, "Validating %s...\n", path)

	db, err := database.Load(ctx, path, loadOpts...)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	messages := db.Messages()
	signals := 0
	for _, m := range messages {
		signals += len(m.Signals())
	}

	fmt.Fprintf(w, "\nDatabase valid!\n")
	fmt.Fprintf(w, "  Messages:      %d\n", len(messages))
	fmt.Fprintf(w, "  Signals:       %d\n", signals)
	fmt.Fprintf(w, "  Frame id mask: 0x%X\n", db.FrameIDMask())
	fmt.Fprintf(w, "  Strict:        %t\n", db.Strict())

	fmt.Fprintf(w, "\nMessages:\n")
	for i, m := range messages {
		fmt.Fprintf(w, "  %d. [0x%03X] %s (%d bytes, %d signals)\n",
			i+1, m.FrameID(), m.Name(), m.Length(), len(m.Signals()))
		if m.Comment() != "" {
			fmt.Fprintf(w, "     %s\n", m.Comment())
		}
		if !opts.Verbose {
			continue
		}
		for _, s := range m.Signals() {
			fmt.Fprintf(w, "     - %s: %s\n", s.Name, describeSignal(s))
		}
	}

	return nil
}

func describeSignal(s *database.Signal) string {
	parts := []string{
		fmt.Sprintf("start %d", s.Start),
		fmt.Sprintf("length %d", s.Length),
		string(s.ByteOrder),
	}
	if s.Signed {
		parts = append(parts, "signed")
	}
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	if scale != 1 || s.Offset != 0 {
		parts = append(parts, fmt.Sprintf("raw*%g%+g", scale, s.Offset))
	}
	if s.Minimum != nil || s.Maximum != nil {
		parts = append(parts, "range "+bound(s.Minimum)+".."+bound(s.Maximum))
	}
	if s.Unit != "" {
		parts = append(parts, "unit "+s.Unit)
	}
	if len(s.Choices) > 0 {
		keys := make([]int64, 0, len(s.Choices))
		for k := range s.Choices {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		choices := make([]string, len(keys))
		for i, k := range keys {
			choices[i] = fmt.Sprintf("%d=%s", k, s.Choices[k])
		}
		parts = append(parts, "choices "+strings.Join(choices, ","))
	}
	return strings.Join(parts, ", ")
}

func bound(v *float64) string {
	if v == nil {
		return "?"
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
