package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/attune/internal/models"
)

// NewModelsCommand creates the models command.
func NewModelsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "models",
		Short:         "List registered models in scoring order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := models.IDs()
			if rootOpts.Format == "json" {
				f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
				return f.Success(ids)
			}
			for i, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, id)
			}
			return nil
		},
	}
}
