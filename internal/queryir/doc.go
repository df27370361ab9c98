// Package queryir provides the intermediate representation for resolved
// repository operations.
//
// The query IR is the abstraction boundary between the two declaration
// front ends (the operation-name grammar and literal templates, both in
// internal/compiler) and the SQL backend (internal/querysql). A resolved
// operation is a single immutable QueryIntent; the backend compiles it
// without knowing which front end produced it.
//
// PREDICATE SHAPE:
//
// The naming grammar has no parentheses, so a derived predicate is a flat
// chain of clauses joined by combinators, not a tree:
//
//	find_all_by_age_gt_and_status_in_or_name_like
//	→ (age > ?) and (status in ?) or (name like ?)
//
// Evaluation order is strictly left-to-right in declaration order. No
// precedence is inferred; a declaration mixing and/or reads as
// ((c1 ⊕ c2) ⊕ c3). This is a documented hazard of the grammar, pinned by
// conformance tests rather than "fixed" with standard operator precedence.
//
// SEALED SOURCE:
//
// Source is a sealed interface using the marker method pattern. Only
// DerivedSource and TemplateSource implement it, which keeps type switches
// in the backend exhaustive.
//
// IMMUTABILITY:
//
// A QueryIntent is built exactly once per declared operation at repository
// registration and never mutated afterwards. Concurrent callers share it
// without locking.
package queryir
