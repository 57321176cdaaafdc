package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/metastore/internal/populate"
)

// NewPopulateCommand creates the populate command.
func NewPopulateCommand(rootOpts *RootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "populate --config <config.yaml>",
		Short: "Pull metadata from all configured sources into the store",
		Long: `Pull metadata from every source in the configuration file and load
the normalized records into the store.

Sources are fetched concurrently. A failing source is skipped whole and
reported; remaining sources still load. The command fails only when no
source loaded anything.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPopulate(rootOpts, cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "population config file (required)")
	cmd.MarkFlagRequired("config")

	return cmd
}

func runPopulate(opts *RootOptions, cmd *cobra.Command, configPath string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := populate.LoadConfig(configPath)
	if err != nil {
		formatter.Error("bad_config", err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := populate.Run(cmd.Context(), cfg, st)
	if err != nil {
		return WrapExitError(ExitCommandError, "population run failed", err)
	}

	if formatter.Format == "json" {
		if err := formatter.JSON(result); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "run %s\n", result.RunID)
		names := make([]string, 0, len(result.Loaded))
		for name := range result.Loaded {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(formatter.Writer, "  %s: %d record(s)\n", name, result.Loaded[name])
		}
		for _, name := range result.Failed {
			fmt.Fprintf(formatter.Writer, "  %s: failed, skipped\n", name)
		}
	}

	if len(result.Loaded) == 0 && len(result.Failed) > 0 {
		return WrapExitError(ExitFailure, "all sources failed", nil)
	}
	return nil
}
