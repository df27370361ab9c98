package store

import (
	"context"
	"fmt"

	"repoql/internal/ir"
)

// QueryRecords executes a parameterized query and scans every row into a
// Record keyed by column name. BLOB/TEXT bytes are normalized to string.
//
// Returns an empty slice (not nil) when the query matches no rows. Rows
// are returned in storage order; the store imposes no ordering of its own.
func (s *Store) QueryRecords(ctx context.Context, query string, params ...any) ([]ir.Record, error) {
	rows, err := s.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query records: columns: %w", err)
	}

	records := []ir.Record{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("query records: scan: %w", err)
		}

		rec := make(ir.Record, len(cols))
		for i, col := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[col] = string(b)
			} else {
				rec[col] = vals[i]
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query records: iterate: %w", err)
	}

	return records, nil
}
