package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/attune/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Path   string   `json:"path"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a config file",
		Long: `Validate a YAML config file against the config schema and rules.

ATTUNE_ environment overrides are applied before validation, exactly as
when the file is loaded by other commands.

Exit codes:
  0 - Config is valid
  1 - Config is invalid
  2 - File not found`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("config file not found: %s", path), nil)
		return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("config file not found: %s", path), Reported: true}
	}

	formatter.VerboseLog("Validating %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		var schemaErr *config.SchemaError
		if errors.As(err, &schemaErr) && len(schemaErr.Violations) > 0 {
			return outputValidationErrors(formatter, path, ErrCodeSchema, schemaErr.Violations)
		}
		return outputValidationErrors(formatter, path, ErrCodeConfig, []string{err.Error()})
	}
	formatter.VerboseLog("Cache backend %s, %d signal(s)", cfg.Cache.Backend, len(cfg.Signals))

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Path: path, Valid: true})
	}
	fmt.Fprintf(formatter.Writer, "✓ %s is valid\n", path)
	return nil
}

// outputValidationErrors outputs every violation and returns exit code 1.
func outputValidationErrors(formatter *OutputFormatter, path, code string, errs []string) error {
	exitErr := &ExitError{
		Code:     ExitFailure,
		Message:  fmt.Sprintf("validation failed with %d error(s)", len(errs)),
		Reported: true,
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Path: path, Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    code,
				Message: errs[0],
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintf(formatter.Writer, "✗ %s is invalid\n\n", path)
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, e)
	}
	return exitErr
}
