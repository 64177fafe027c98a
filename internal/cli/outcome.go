package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/attune/internal/domain"
)

// OutcomeRecordOptions holds flags for the outcome record command.
type OutcomeRecordOptions struct {
	*RootOptions
	Date           string
	Activity       string
	Score          int
	Result         string
	FollowedAdvice bool
	Signals        []string
}

// NewOutcomeCommand creates the outcome command group.
func NewOutcomeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outcome",
		Short: "Log, delete and list outcomes",
	}
	cmd.AddCommand(newOutcomeRecordCommand(rootOpts))
	cmd.AddCommand(newOutcomeDeleteCommand(rootOpts))
	cmd.AddCommand(newOutcomeListCommand(rootOpts))
	return cmd
}

func newOutcomeRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OutcomeRecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <profile-id>",
		Short: "Log how an activity went",
		Long: `Log an outcome for a day.

Without --score the composite of that day's reading is used.

Examples:
  attune outcome record ada --activity interview --result success
  attune outcome record ada --date 2024-03-09 --activity run --result failure --signal sleep_hours=5.5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOutcomeRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Activity, "activity", "", "activity type (required)")
	cmd.Flags().IntVar(&opts.Score, "score", 0, "composite score when the outcome was logged")
	cmd.Flags().StringVar(&opts.Result, "result", "", "success|neutral|failure (required)")
	cmd.Flags().BoolVar(&opts.FollowedAdvice, "followed-advice", false, "whether the day's advice was followed")
	cmd.Flags().StringArrayVar(&opts.Signals, "signal", nil, "lifestyle signal name=value (repeatable)")
	_ = cmd.MarkFlagRequired("activity")
	_ = cmd.MarkFlagRequired("result")

	return cmd
}

func runOutcomeRecord(opts *OutcomeRecordOptions, profileID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	date, err := parseDateFlag(opts.RootOptions, "date", opts.Date)
	if err != nil {
		return f.ReportError(err)
	}
	signals, err := parseSignals(opts.Signals)
	if err != nil {
		return f.ReportError(err)
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer s.Close()

	score := opts.Score
	if !cmd.Flags().Changed("score") {
		r, err := s.engine.GetReading(ctx, profileID, date, nil)
		if err != nil {
			return f.ReportError(err)
		}
		score = r.Composite
		f.VerboseLog("using composite %d from the %s reading", score, date)
	}

	rec, err := s.engine.RecordOutcome(ctx, domain.OutcomeInput{
		ProfileID:               profileID,
		Date:                    date,
		ActivityType:            opts.Activity,
		CompositeScoreAtLogging: score,
		Result:                  domain.OutcomeResult(opts.Result),
		FollowedAdvice:          opts.FollowedAdvice,
		Signals:                 signals,
	})
	if err != nil {
		return f.ReportError(err)
	}

	if opts.Format == "json" {
		return f.Success(rec)
	}
	fmt.Fprint(cmd.OutOrStdout(), "Recorded ")
	renderOutcome(cmd.OutOrStdout(), rec)
	return nil
}

func newOutcomeDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <profile-id> <outcome-id>",
		Short:         "Delete a logged outcome",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			ctx := commandContext(cmd)
			s, err := openSession(ctx, rootOpts, true)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.engine.DeleteOutcome(ctx, args[0], args[1]); err != nil {
				return f.ReportError(err)
			}
			if rootOpts.Format == "json" {
				return f.Success(map[string]string{"deleted": args[1]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[1])
			return nil
		},
	}
}

func newOutcomeListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list <profile-id>",
		Short:         "List logged outcomes",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			ctx := commandContext(cmd)
			s, err := openSession(ctx, rootOpts, true)
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := s.engine.ListOutcomes(ctx, args[0])
			if err != nil {
				return f.ReportError(err)
			}
			if rootOpts.Format == "json" {
				return f.Success(recs)
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No outcomes.")
				return nil
			}
			for _, rec := range recs {
				renderOutcome(cmd.OutOrStdout(), rec)
			}
			return nil
		},
	}
}
