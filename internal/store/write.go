package store

import (
	"context"
	"fmt"
	"strings"

	"repoql/internal/ir"
)

// InsertRecord inserts one row into the record's backing table. Only
// fields present in row are written; the remaining columns take their
// defaults. Fields not declared on the record spec are rejected.
func (s *Store) InsertRecord(ctx context.Context, record ir.RecordSpec, row ir.Record) error {
	cols := make([]string, 0, len(row))
	params := make([]any, 0, len(row))
	// Iterate declared fields so column order is deterministic.
	for _, f := range record.Fields {
		if v, ok := row[f.Name]; ok {
			cols = append(cols, f.Name)
			params = append(params, v)
		}
	}
	if len(cols) != len(row) {
		for name := range row {
			if _, ok := record.Field(name); !ok {
				return fmt.Errorf("insert %s: unknown field %q", record.Table, name)
			}
		}
	}
	if len(cols) == 0 {
		return fmt.Errorf("insert %s: no fields to write", record.Table)
	}

	markers := strings.Repeat("?, ", len(cols)-1) + "?"
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		record.Table, strings.Join(cols, ", "), markers)
	if _, err := s.Exec(ctx, stmt, params...); err != nil {
		return fmt.Errorf("insert %s: %w", record.Table, err)
	}
	return nil
}

// UpdateRecord updates the row identified by the record's key field with
// the non-key fields present in row. Returns false when no row matched.
func (s *Store) UpdateRecord(ctx context.Context, record ir.RecordSpec, row ir.Record) (bool, error) {
	key, ok := record.KeyField()
	if !ok {
		return false, fmt.Errorf("update %s: record has no key field", record.Table)
	}
	id, ok := row[key.Name]
	if !ok {
		return false, fmt.Errorf("update %s: row has no %q value", record.Table, key.Name)
	}

	sets := make([]string, 0, len(row))
	params := make([]any, 0, len(row))
	for _, f := range record.Fields {
		if f.Name == key.Name {
			continue
		}
		if v, ok := row[f.Name]; ok {
			sets = append(sets, f.Name+" = ?")
			params = append(params, v)
		}
	}
	if len(sets) == 0 {
		return false, fmt.Errorf("update %s: no fields to write", record.Table)
	}
	params = append(params, id)

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		record.Table, strings.Join(sets, ", "), key.Name)
	res, err := s.Exec(ctx, stmt, params...)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", record.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update %s: rows affected: %w", record.Table, err)
	}
	return n > 0, nil
}

// DeleteByKey deletes the row with the given key value. Returns false when
// no row matched.
func (s *Store) DeleteByKey(ctx context.Context, record ir.RecordSpec, id any) (bool, error) {
	key, ok := record.KeyField()
	if !ok {
		return false, fmt.Errorf("delete %s: record has no key field", record.Table)
	}
	res, err := s.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", record.Table, key.Name), id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", record.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s: rows affected: %w", record.Table, err)
	}
	return n > 0, nil
}
