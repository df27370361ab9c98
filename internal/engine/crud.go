package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"repoql/internal/ir"
)

// The operations here are the plain persistence pass-throughs every
// repository carries regardless of its declared operations. They run in
// the store's transaction scope: callers composing several of them can
// wrap the calls in store.WithTx and get a single commit.

// FindByID returns the record with the given key value, or nil.
func (r *Repository) FindByID(ctx context.Context, id any) (ir.Record, error) {
	key, ok := r.record.KeyField()
	if !ok {
		return nil, fmt.Errorf("%s: record has no key field", r.spec.Name)
	}
	rows, err := r.store.QueryRecords(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		strings.Join(r.record.FieldNames(), ", "), r.record.Table, key.Name), id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FindAllByIDs returns the records whose key value is a member of ids, in
// storage-returned order. An empty id list yields an empty result.
func (r *Repository) FindAllByIDs(ctx context.Context, ids []any) ([]ir.Record, error) {
	if len(ids) == 0 {
		return []ir.Record{}, nil
	}
	key, ok := r.record.KeyField()
	if !ok {
		return nil, fmt.Errorf("%s: record has no key field", r.spec.Name)
	}
	markers := strings.Repeat("?, ", len(ids)-1) + "?"
	return r.store.QueryRecords(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IN (%s)",
		strings.Join(r.record.FieldNames(), ", "), r.record.Table, key.Name, markers), ids...)
}

// FindAll returns every record of the repository's table.
func (r *Repository) FindAll(ctx context.Context) ([]ir.Record, error) {
	return r.store.QueryRecords(ctx, fmt.Sprintf(
		"SELECT %s FROM %s",
		strings.Join(r.record.FieldNames(), ", "), r.record.Table))
}

// Save persists one record. A record without a key value gets one
// assigned (a fresh UUID for string keys) and is inserted; a record with a
// key value updates the existing row, inserting when no row exists yet.
// Returns the saved record including any assigned key.
func (r *Repository) Save(ctx context.Context, row ir.Record) (ir.Record, error) {
	key, ok := r.record.KeyField()
	if !ok {
		return nil, fmt.Errorf("%s: record has no key field", r.spec.Name)
	}

	saved := make(ir.Record, len(row))
	for k, v := range row {
		saved[k] = v
	}

	id, hasID := saved[key.Name]
	if !hasID || id == nil || id == "" {
		if key.Type != ir.TypeString {
			return nil, fmt.Errorf("%s: cannot assign a key of type %s; supply %q explicitly",
				r.spec.Name, key.Type, key.Name)
		}
		saved[key.Name] = uuid.NewString()
		if err := r.store.InsertRecord(ctx, r.record, saved); err != nil {
			return nil, err
		}
		return saved, nil
	}

	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		updated, err := r.store.UpdateRecord(ctx, r.record, saved)
		if err != nil {
			return err
		}
		if !updated {
			return r.store.InsertRecord(ctx, r.record, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// SaveAll persists records inside a single transaction scope: either all
// are saved or none.
func (r *Repository) SaveAll(ctx context.Context, rows []ir.Record) ([]ir.Record, error) {
	saved := make([]ir.Record, 0, len(rows))
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		for _, row := range rows {
			s, err := r.Save(ctx, row)
			if err != nil {
				return err
			}
			saved = append(saved, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// DeleteByID removes the record with the given key value. Returns false
// when no such record exists.
func (r *Repository) DeleteByID(ctx context.Context, id any) (bool, error) {
	return r.store.DeleteByKey(ctx, r.record, id)
}

// DeleteAllByIDs removes the records with the given key values inside one
// transaction scope. Returns the number of records removed.
func (r *Repository) DeleteAllByIDs(ctx context.Context, ids []any) (int, error) {
	deleted := 0
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			ok, err := r.store.DeleteByKey(ctx, r.record, id)
			if err != nil {
				return err
			}
			if ok {
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// Upsert inserts row, or updates the first existing record matching the
// queryBy equality filter. Every queryBy field must exist on the record
// schema. Returns the persisted record.
func (r *Repository) Upsert(ctx context.Context, row ir.Record, queryBy map[string]any) (ir.Record, error) {
	key, ok := r.record.KeyField()
	if !ok {
		return nil, fmt.Errorf("%s: record has no key field", r.spec.Name)
	}

	conds := make([]string, 0, len(queryBy))
	params := make([]any, 0, len(queryBy))
	for _, f := range r.record.Fields {
		if v, ok := queryBy[f.Name]; ok {
			conds = append(conds, f.Name+" = ?")
			params = append(params, v)
		}
	}
	if len(conds) != len(queryBy) {
		for name := range queryBy {
			if _, ok := r.record.Field(name); !ok {
				return nil, fmt.Errorf("%s: upsert filter references unknown field %q", r.spec.Name, name)
			}
		}
	}
	if len(conds) == 0 {
		return nil, fmt.Errorf("%s: upsert requires a non-empty filter", r.spec.Name)
	}

	var saved ir.Record
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		rows, err := r.store.QueryRecords(ctx, fmt.Sprintf(
			"SELECT %s FROM %s WHERE %s LIMIT 1",
			strings.Join(r.record.FieldNames(), ", "), r.record.Table,
			strings.Join(conds, " AND ")), params...)
		if err != nil {
			return err
		}

		merged := make(ir.Record, len(row))
		for k, v := range row {
			merged[k] = v
		}
		if len(rows) > 0 {
			// Update in place; the existing row's key wins.
			merged[key.Name] = rows[0][key.Name]
			if _, err := r.store.UpdateRecord(ctx, r.record, merged); err != nil {
				return err
			}
			saved = merged
			return nil
		}

		s, err := r.Save(ctx, merged)
		if err != nil {
			return err
		}
		saved = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}
