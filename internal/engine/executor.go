package engine

import (
	"context"
	"fmt"

	"repoql/internal/ir"
	"repoql/internal/queryir"
)

// Result is the shaped outcome of invoking a registered operation.
type Result struct {
	// Cardinality is the intent's resolved result shape.
	Cardinality queryir.Cardinality

	// Record is the single row for one-or-none intents. Nil when zero rows
	// matched - that is success, not an error.
	Record ir.Record

	// Records holds all rows for many intents, in storage-returned order.
	// Empty (not nil) when nothing matched.
	Records []ir.Record

	// RowsAffected counts rows written by a modifying intent. For a
	// RETURNING statement it equals the number of returned rows; zero
	// for read intents.
	RowsAffected int64
}

// Invoke executes a registered operation with concrete argument values.
//
// The plan materializes into a parameterized query, the store executes it,
// and the result is shaped by the intent's cardinality. A modifying intent
// with the None cardinality runs through the store's exec path - inside
// the ambient transaction when one is carried by ctx - and reports rows
// affected; a modifying intent with a cardinality executes like a read
// (RETURNING statements yield rows). Storage errors are surfaced
// unchanged; the engine performs no retry or suppression.
func (r *Repository) Invoke(ctx context.Context, operation string, args map[string]any) (*Result, error) {
	plan, ok := r.plans[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOperation, r.spec.Name, operation)
	}

	query, params, err := plan.Materialize(args)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("invoking", "operation", operation, "query", query)

	if plan.Intent.Cardinality == queryir.None {
		res, err := r.store.Exec(ctx, query, params...)
		if err != nil {
			return nil, fmt.Errorf("invoke %s.%s: %w", r.spec.Name, operation, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("invoke %s.%s: %w", r.spec.Name, operation, err)
		}
		return &Result{Cardinality: queryir.None, RowsAffected: affected}, nil
	}

	rows, err := r.store.QueryRecords(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("invoke %s.%s: %w", r.spec.Name, operation, err)
	}

	out := shape(plan.Intent.Cardinality, rows)
	if plan.Intent.Modifying {
		out.RowsAffected = int64(len(rows))
	}
	return out, nil
}

// shape applies the result cardinality to executed rows.
func shape(cardinality queryir.Cardinality, rows []ir.Record) *Result {
	res := &Result{Cardinality: cardinality}
	if cardinality == queryir.OneOrNone {
		if len(rows) > 0 {
			res.Record = rows[0]
		}
		return res
	}
	res.Records = rows
	return res
}
