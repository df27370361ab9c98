// Package engine is the call-time side of repoql: it registers repository
// declarations (resolving and compiling every operation exactly once,
// fail-fast) and executes the resulting plans against the store.
//
// Registration is the only moment resolution errors can surface; a
// repository that registers successfully can only fail at call time
// through the storage collaborator. Compiled intents and plans are
// immutable after registration and shared by concurrent callers without
// locking.
//
// The package also carries the plain CRUD operations (save, find-by-id,
// delete, upsert) that need no resolution - simple pass-throughs over the
// store inside the same transaction scope the derived queries use.
package engine
