package cli

import (
	"github.com/roach88/metastore/internal/store"
)

// openStore opens the database named by the global --db flag.
func openStore(opts *RootOptions) (*store.Store, error) {
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening database "+opts.DBPath, err)
	}
	return st, nil
}
