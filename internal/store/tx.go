package store

import (
	"context"
	"database/sql"
	"fmt"
)

// txKey is the context key under which an active transaction is held.
type txKey struct{}

// txFrom returns the transaction held in ctx, or nil.
func txFrom(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// WithTx runs fn inside a transaction scope.
//
// The outermost scope begins the transaction, commits on normal return,
// and rolls back when fn returns an error or panics. A nested WithTx call
// joins the transaction already held in the context and performs no
// commit or rollback of its own - finishing is always the outermost
// scope's job.
//
// Store.Query and Store.Exec calls made with the context passed to fn run
// inside the transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Rollback on error and panic paths. A failed rollback after a
			// connection loss is not recoverable here.
			_ = tx.Rollback()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
