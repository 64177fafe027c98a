package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/attune/internal/domain"
)

// InsightsOptions holds flags for the insights command.
type InsightsOptions struct {
	*RootOptions
	Refresh   bool
	Recompute bool
	Strict    bool
}

// InsightsResult is the JSON payload of the insights command.
type InsightsResult struct {
	domain.PersonalizationProfile
	Insufficient bool `json:"insufficient"`
	Refreshed    bool `json:"refreshed"`
}

// NewInsightsCommand creates the insights command.
func NewInsightsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InsightsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "insights <profile-id>",
		Short: "Show learned personalization",
		Long: `Show the adjustment factors learned from logged outcomes.

--refresh recomputes when the stored result is older than the configured
refresh interval; --recompute always recomputes. With --strict the command
fails when fewer than 3 outcomes back the result.

Exit codes:
  0 - Success
  1 - Insufficient data (with --strict) or storage error
  2 - Unknown profile

Examples:
  attune insights ada
  attune insights ada --refresh
  attune insights ada --recompute --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsights(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute if stale")
	cmd.Flags().BoolVar(&opts.Recompute, "recompute", false, "recompute now")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when there are too few outcomes")
	cmd.MarkFlagsMutuallyExclusive("refresh", "recompute")

	return cmd
}

func runInsights(opts *InsightsOptions, profileID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		p         domain.PersonalizationProfile
		refreshed bool
	)
	switch {
	case opts.Recompute:
		p, err = s.engine.Recompute(ctx, profileID)
		refreshed = err == nil
	case opts.Refresh:
		p, refreshed, err = s.engine.RefreshIfStale(ctx, profileID)
	default:
		p, err = s.engine.GetPersonalization(ctx, profileID)
	}
	if err != nil {
		return f.ReportError(err)
	}
	if opts.Strict && p.Insufficient() {
		return f.ReportError(domain.NewInsufficientDataError(profileID, p.TotalOutcomesConsidered))
	}

	if opts.Format == "json" {
		return f.Success(InsightsResult{
			PersonalizationProfile: p,
			Insufficient:           p.Insufficient(),
			Refreshed:              refreshed,
		})
	}
	renderPersonalization(cmd.OutOrStdout(), p, refreshed)
	return nil
}
