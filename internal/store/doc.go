// Package store is the storage collaborator: a SQLite-backed store that
// executes parameterized queries, creates and introspects record tables,
// and provides a scoped transaction primitive.
//
// The query core never touches this package directly - it produces plans;
// the engine hands them here for execution. The store performs no retries
// and surfaces driver errors unchanged.
//
// Transactions are nested-safe: the outermost WithTx scope begins,
// commits, and rolls back; nested scopes join the transaction held in the
// context and never finish it themselves. Release is guaranteed on all
// exit paths.
package store
