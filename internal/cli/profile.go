package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/attune/internal/domain"
)

// ProfileSetOptions holds flags for the profile set command.
type ProfileSetOptions struct {
	*RootOptions
	Name      string
	BirthDate string
	Place     string
	Latitude  float64
	Longitude float64
}

// NewProfileCommand creates the profile command group.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage birth profiles",
	}
	cmd.AddCommand(newProfileSetCommand(rootOpts))
	cmd.AddCommand(newProfileShowCommand(rootOpts))
	cmd.AddCommand(newProfileListCommand(rootOpts))
	return cmd
}

func newProfileSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProfileSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <profile-id>",
		Short: "Create or replace a birth profile",
		Long: `Create or replace a birth profile.

The birth place is optional; without it the daylight model is skipped.

Examples:
  attune profile set ada --name Ada --birth-date 1990-06-15
  attune profile set ada --name Ada --birth-date 1990-06-15 --place Oslo --lat 59.91 --lon 10.75`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileSet(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.BirthDate, "birth-date", "", "birth date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.Place, "place", "", "birth place name")
	cmd.Flags().Float64Var(&opts.Latitude, "lat", 0, "birth place latitude")
	cmd.Flags().Float64Var(&opts.Longitude, "lon", 0, "birth place longitude")
	_ = cmd.MarkFlagRequired("birth-date")

	return cmd
}

func runProfileSet(opts *ProfileSetOptions, id string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	birth, err := domain.ParseDate(opts.BirthDate)
	if err != nil {
		return f.ReportError(domain.NewValidationError("birth_date", "expected YYYY-MM-DD, got %q", opts.BirthDate))
	}
	p := domain.BirthProfile{ID: id, Name: opts.Name, BirthDate: birth}

	flags := cmd.Flags()
	if flags.Changed("place") || flags.Changed("lat") || flags.Changed("lon") {
		if !flags.Changed("lat") || !flags.Changed("lon") {
			return f.ReportError(domain.NewValidationError("birth_place", "--lat and --lon are required with a birth place"))
		}
		p.BirthPlace = &domain.Place{Name: opts.Place, Latitude: opts.Latitude, Longitude: opts.Longitude}
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx, opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.engine.SaveProfile(ctx, p); err != nil {
		return f.ReportError(err)
	}
	saved, err := s.engine.Profile(ctx, id)
	if err != nil {
		return f.ReportError(err)
	}

	if opts.Format == "json" {
		return f.Success(saved)
	}
	fmt.Fprint(cmd.OutOrStdout(), "Saved ")
	renderProfile(cmd.OutOrStdout(), saved)
	return nil
}

func newProfileShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <profile-id>",
		Short:         "Show a birth profile",
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

			p, err := s.engine.Profile(ctx, args[0])
			if err != nil {
				return f.ReportError(err)
			}
			if rootOpts.Format == "json" {
				return f.Success(p)
			}
			renderProfile(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func newProfileListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List birth profiles",
		Args:          cobra.NoArgs,
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

			profiles, err := s.engine.ListProfiles(ctx)
			if err != nil {
				return f.ReportError(err)
			}
			if rootOpts.Format == "json" {
				return f.Success(profiles)
			}
			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No profiles.")
				return nil
			}
			for _, p := range profiles {
				renderProfile(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
