package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/metastore/internal/populate"
)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Sources []string `json:"sources,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "validate <config.yaml>",
		Short:         "Validate a population config without running it",
		Long:          "Check a population configuration against the schema: adapter names, source shapes, and field mapping paths. Nothing is fetched or written.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command, configPath string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := populate.LoadConfig(configPath)
	if err != nil {
		if formatter.Format == "json" {
			formatter.JSON(ValidationResult{Valid: false, Error: err.Error()})
		} else {
			formatter.Error("bad_config", err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "config is invalid", err)
	}

	names := make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	if formatter.Format == "json" {
		return formatter.JSON(ValidationResult{Valid: true, Sources: names})
	}
	fmt.Fprintf(formatter.Writer, "config valid: %d source(s)\n", len(names))
	for _, name := range names {
		fmt.Fprintf(formatter.Writer, "  %s\n", name)
	}
	return nil
}
