package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/metastore/internal/filterexpr"
	"github.com/roach88/metastore/internal/store"
)

// SearchResult is the payload emitted by the search command.
type SearchResult struct {
	GUIDs   []string                  `json:"guids,omitempty"`
	Records map[string]map[string]any `json:"records,omitempty"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		data    bool
		limit   int
		page    int
		queries []string
	)

	cmd := &cobra.Command{
		Use:   "search [filter-expression]",
		Short: "Query stored metadata",
		Long: `Query stored metadata records.

With a filter expression argument, runs the structured filter language:

  metastore search '(gen3_discovery.commons_name,:eq,"pdaps_commons")'
  metastore search '(and,(gen3_discovery.year,:gte,2015),(gen3_discovery.tags,:any,(,:like,"%opioid%")))'

With --query key=value pairs, runs simple equality matching instead:
values for the same key are OR-ed, distinct keys are AND-ed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			expression := ""
			if len(args) == 1 {
				expression = args[0]
			}
			if expression != "" && len(queries) > 0 {
				return WrapExitError(ExitCommandError, "a filter expression and --query cannot be combined", nil)
			}
			return runSearch(rootOpts, cmd, expression, queries, data, limit, page)
		},
	}

	cmd.Flags().BoolVar(&data, "data", false, "return full documents instead of GUIDs")
	cmd.Flags().IntVar(&limit, "limit", store.DefaultLimit, "maximum records per page")
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page number")
	cmd.Flags().StringArrayVarP(&queries, "query", "q", nil, "key=value equality match (repeatable)")

	return cmd
}

func runSearch(opts *RootOptions, cmd *cobra.Command, expression string, queries []string, data bool, limit, page int) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	var entries []store.Entry
	if len(queries) > 0 {
		kv, err := parseQueries(queries)
		if err != nil {
			return err
		}
		entries, err = st.SearchKeyValues(cmd.Context(), kv, data, limit, page*limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "search failed", err)
		}
	} else {
		entries, err = st.Search(cmd.Context(), expression, store.SearchOptions{
			Data:  data,
			Limit: limit,
			Page:  page,
		})
		var synErr *filterexpr.SyntaxError
		if errors.As(err, &synErr) {
			formatter.Error("bad_filter", synErr.Error(), expression)
			return WrapExitError(ExitCommandError, "invalid filter expression", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "search failed", err)
		}
	}

	formatter.VerboseLog("matched %d record(s)", len(entries))
	return outputEntries(formatter, entries, data)
}

// parseQueries converts repeated key=value flags into the simple-query
// shape: values grouped per key.
func parseQueries(pairs []string) (map[string][]string, error) {
	kv := make(map[string][]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("malformed query %q: want key=value", pair), nil)
		}
		kv[key] = append(kv[key], value)
	}
	return kv, nil
}

func outputEntries(f *OutputFormatter, entries []store.Entry, data bool) error {
	result := SearchResult{}
	if data {
		result.Records = make(map[string]map[string]any, len(entries))
		for _, e := range entries {
			result.Records[e.GUID] = e.Document
		}
	} else {
		result.GUIDs = make([]string, 0, len(entries))
		for _, e := range entries {
			result.GUIDs = append(result.GUIDs, e.GUID)
		}
	}

	if f.Format == "json" {
		return f.JSON(result)
	}

	if len(entries) == 0 {
		fmt.Fprintln(f.Writer, "no records matched")
		return nil
	}
	for _, e := range entries {
		if data {
			fmt.Fprintf(f.Writer, "%s\t%v\n", e.GUID, e.Document)
		} else {
			fmt.Fprintln(f.Writer, e.GUID)
		}
	}
	return nil
}
