package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/roach88/metastore/internal/metadata"
)

// Upsert writes a document under guid, replacing any existing record.
func (s *Store) Upsert(ctx context.Context, guid string, doc map[string]any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("upsert %q: encode document: %w", guid, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metadata (guid, data)
		VALUES (?, ?)
		ON CONFLICT(guid) DO UPDATE SET data = excluded.data
	`, guid, string(raw))
	if err != nil {
		return fmt.Errorf("upsert %q: %w", guid, err)
	}

	return nil
}

// UpsertBatch writes a whole record set in one transaction. Either every
// record lands or none do; a failed batch never partially ingests.
func (s *Store) UpsertBatch(ctx context.Context, records metadata.RecordSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metadata (guid, data)
		VALUES (?, ?)
		ON CONFLICT(guid) DO UPDATE SET data = excluded.data
	`)
	if err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	defer stmt.Close()

	// Insert in GUID order for deterministic write patterns.
	guids := make([]string, 0, len(records))
	for guid := range records {
		guids = append(guids, guid)
	}
	sort.Strings(guids)

	for _, guid := range guids {
		raw, err := json.Marshal(records[guid].Document())
		if err != nil {
			return fmt.Errorf("upsert batch: encode %q: %w", guid, err)
		}
		if _, err := stmt.ExecContext(ctx, guid, string(raw)); err != nil {
			return fmt.Errorf("upsert batch: write %q: %w", guid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert batch: commit: %w", err)
	}
	return nil
}

// Delete removes the record stored under guid. Returns ErrNotFound if no
// such record exists.
func (s *Store) Delete(ctx context.Context, guid string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM metadata WHERE guid = ?`, guid)
	if err != nil {
		return fmt.Errorf("delete %q: %w", guid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", guid, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
