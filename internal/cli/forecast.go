package cli

import (
	"github.com/spf13/cobra"
)

// ForecastOptions holds flags for the forecast command.
type ForecastOptions struct {
	*RootOptions
	From string
	Days int
}

// NewForecastCommand creates the forecast command.
func NewForecastCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ForecastOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "forecast <profile-id>",
		Short: "Project readings forward",
		Long: `Compute readings for the coming days with the current personalization
and summarize them. Forecast readings are not stored.

Examples:
  attune forecast ada
  attune forecast ada --from 2024-03-11 --days 14`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForecast(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first forecast day YYYY-MM-DD (default today)")
	cmd.Flags().IntVarP(&opts.Days, "days", "d", 0, "number of days (default from config)")

	return cmd
}

func runForecast(opts *ForecastOptions, profileID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	from, err := parseDateFlag(opts.RootOptions, "from", opts.From)
	if err != nil {
		return f.ReportError(err)
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer s.Close()

	fc, err := s.engine.GetForecast(ctx, profileID, from, opts.Days)
	if err != nil {
		return f.ReportError(err)
	}

	if opts.Format == "json" {
		return f.Success(fc)
	}
	renderForecast(cmd.OutOrStdout(), fc)
	return nil
}
