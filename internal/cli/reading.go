package cli

import (
	"github.com/spf13/cobra"
)

// ReadingOptions holds flags for the reading command.
type ReadingOptions struct {
	*RootOptions
	Date string
	env  envFlags
}

// NewReadingCommand creates the reading command.
func NewReadingCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReadingOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reading <profile-id>",
		Short: "Compute the daily energy reading",
		Long: `Compute the composite daily energy reading for a profile.

Models that cannot compute are skipped and listed. The environment model
only runs when weather is supplied with --condition and --temp.

Examples:
  attune reading ada
  attune reading ada --date 2024-03-10 --condition sunny --temp 21
  attune reading ada --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReading(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "date YYYY-MM-DD (default today)")
	opts.env.register(cmd)

	return cmd
}

func runReading(opts *ReadingOptions, profileID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	date, err := parseDateFlag(opts.RootOptions, "date", opts.Date)
	if err != nil {
		return f.ReportError(err)
	}
	env, err := opts.env.environment(cmd)
	if err != nil {
		return f.ReportError(err)
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer s.Close()

	r, err := s.engine.GetReading(ctx, profileID, date, env)
	if err != nil {
		return f.ReportError(err)
	}
	f.VerboseLog("reading %s id %s", r.Date, r.ID)

	if opts.Format == "json" {
		return f.Success(r)
	}
	renderReading(cmd.OutOrStdout(), r)
	return nil
}
