package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/attune/internal/trend"
)

// TrendOptions holds flags for the trend command.
type TrendOptions struct {
	*RootOptions
	Window int
	AsOf   string
}

// NewTrendCommand creates the trend command.
func NewTrendCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TrendOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trend <profile-id>",
		Short: "Summarize the last 7 or 30 days",
		Long: `Summarize the readings of the window ending on --as-of.

Stored readings are reused; missing days are computed and stored.

Examples:
  attune trend ada
  attune trend ada --window 30 --as-of 2024-03-31`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrend(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Window, "window", "w", trend.WeekWindow, "window in days (7|30)")
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "last day of the window YYYY-MM-DD (default today)")

	return cmd
}

func runTrend(opts *TrendOptions, profileID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	asOf, err := parseDateFlag(opts.RootOptions, "as_of", opts.AsOf)
	if err != nil {
		return f.ReportError(err)
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer s.Close()

	summary, err := s.engine.GetTrend(ctx, profileID, opts.Window, asOf)
	if err != nil {
		return f.ReportError(err)
	}

	if opts.Format == "json" {
		return f.Success(summary)
	}
	renderSummary(cmd.OutOrStdout(), summary)
	return nil
}
