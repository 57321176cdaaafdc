// Package populate pulls metadata from every configured source and loads
// the normalized records into the store.
//
// Sources are fetched concurrently and independently: a failing source is
// logged and skipped whole, it never aborts the run or leaves partial
// records behind. Loading happens per source as one transactional batch.
package populate

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/metastore/internal/adapters"
	"github.com/roach88/metastore/internal/metadata"
	"github.com/roach88/metastore/internal/store"
)

// Result summarizes a population run.
type Result struct {
	// RunID uniquely identifies the run in logs.
	RunID string

	// Loaded maps each successful source to the number of records loaded.
	Loaded map[string]int

	// Failed lists sources that were skipped after a fetch or normalize
	// error, sorted by name.
	Failed []string
}

// Run executes one population pass over every source in cfg, loading
// results into st. It returns an error only for store-level failures;
// per-source errors are reported through Result.Failed.
func Run(ctx context.Context, cfg *Config, st *store.Store) (*Result, error) {
	result := &Result{
		RunID:  uuid.NewString(),
		Loaded: make(map[string]int),
	}
	client := adapters.NewClient(nil, cfg.RequestsPerSecond)

	slog.Info("population run starting",
		"run_id", result.RunID,
		"sources", len(cfg.Sources))

	var mu sync.Mutex
	sets := make(map[string]metadata.RecordSet)

	g, gctx := errgroup.WithContext(ctx)
	for name, src := range cfg.Sources {
		name, src := name, src
		g.Go(func() error {
			set, err := pullSource(gctx, client, name, src)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("source failed, skipping",
					"run_id", result.RunID,
					"source", name,
					"error", err)
				result.Failed = append(result.Failed, name)
				return nil
			}
			sets[name] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(result.Failed)

	// Single writer: batches load sequentially after all fetches finish.
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		set := prepare(cfg.Sources[name], name, sets[name])
		if len(set) == 0 {
			slog.Warn("no records to load", "run_id", result.RunID, "source", name)
			result.Loaded[name] = 0
			continue
		}
		if err := st.UpsertBatch(ctx, set); err != nil {
			return nil, err
		}
		slog.Info("source loaded",
			"run_id", result.RunID,
			"source", name,
			"records", len(set))
		result.Loaded[name] = len(set)
	}

	return result, nil
}

// pullSource fetches and normalizes one source.
func pullSource(ctx context.Context, client *adapters.Client, name string, src Source) (metadata.RecordSet, error) {
	adapter, err := adapters.New(src.Adapter, src.URL, client)
	if err != nil {
		return nil, err
	}

	slog.Info("fetching source", "source", name, "adapter", src.Adapter)
	items, err := adapter.FetchRaw(ctx, src.Filters)
	if err != nil {
		return nil, err
	}

	return adapter.Normalize(items, adapters.NormalizeOptions{
		Mappings:           src.FieldMappings,
		KeepOriginalFields: src.KeepOriginalFields,
		PerItemValues:      src.PerItemValues,
	})
}

// prepare applies the source's select_field prefilter and stamps each
// record with the source name it came from.
func prepare(src Source, name string, set metadata.RecordSet) metadata.RecordSet {
	out := make(metadata.RecordSet, len(set))
	for guid, record := range set {
		if sel := src.SelectField; sel != nil {
			v, ok := record.Discovery[sel.FieldName]
			if !ok || v != sel.FieldValue {
				continue
			}
		}
		record.Discovery["commons_name"] = name
		out[guid] = record
	}
	return out
}
