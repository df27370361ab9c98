package queryir

import "repoql/internal/ir"

// FieldOperation enumerates the comparison operators a clause can carry.
type FieldOperation string

const (
	OpEquals       FieldOperation = "eq"
	OpIn           FieldOperation = "in"
	OpNotIn        FieldOperation = "not_in"
	OpGreaterThan  FieldOperation = "gt"
	OpGreaterEqual FieldOperation = "gte"
	OpLessThan     FieldOperation = "lt"
	OpLessEqual    FieldOperation = "lte"
	OpLike         FieldOperation = "like"
	OpNotEquals    FieldOperation = "ne"
)

// ArgShape is the argument shape an operation expects: a single scalar or a
// finite collection of scalars.
type ArgShape int

const (
	ShapeScalar ArgShape = iota
	ShapeCollection
)

// String returns the shape name used in error messages.
func (s ArgShape) String() string {
	if s == ShapeCollection {
		return "collection"
	}
	return "scalar"
}

// Shape returns the argument shape the operation expects. IN and NOT IN
// take collections; everything else takes a scalar.
func (op FieldOperation) Shape() ArgShape {
	switch op {
	case OpIn, OpNotIn:
		return ShapeCollection
	default:
		return ShapeScalar
	}
}

// Combinator is the logical joiner between two adjacent clauses.
type Combinator string

const (
	CombAnd Combinator = "and"
	CombOr  Combinator = "or"
)

// Clause is one field/operation pair within a predicate. The field name is
// guaranteed by the parser to exist on the target record schema.
type Clause struct {
	Field string
	Op    FieldOperation
}

// PredicateExpr is an ordered flat chain of clauses and the combinators
// between them. Invariant: len(Combinators) == len(Clauses) - 1 (both zero
// for an empty predicate). Combinators appear in left-to-right textual
// order; evaluation follows that order with no precedence.
type PredicateExpr struct {
	Clauses     []Clause
	Combinators []Combinator
}

// Cardinality declares how many records an intent yields at call time.
type Cardinality string

const (
	// OneOrNone yields the first row or an absent value. Zero rows is
	// success.
	OneOrNone Cardinality = "one_or_none"
	// Many yields all rows in storage-returned order.
	Many Cardinality = "many"
	// None yields no rows. Modifying intents without a declared return
	// shape carry it; the outcome is a rows-affected count.
	None Cardinality = "none"
)

// CardinalityOf maps a declared return shape to a cardinality.
func CardinalityOf(s ir.ReturnShape) Cardinality {
	if s == ir.ReturnOne {
		return OneOrNone
	}
	return Many
}

// CompiledTemplate is a parsed literal query template. Literal fragments
// are preserved verbatim, including any quote characters the author wrote;
// the compiler adds no quoting of its own.
//
// Invariant: len(Fragments) == len(Occurrences) + 1. The rendered query is
// Fragments[0] + marker + Fragments[1] + marker + ... with one
// parameter-binding marker per occurrence - argument values are never
// spliced into the text.
type CompiledTemplate struct {
	// Raw is the template exactly as authored.
	Raw string
	// Fragments are the literal spans between placeholders.
	Fragments []string
	// Occurrences holds the placeholder name at each substitution point,
	// in textual order. A name may occur more than once.
	Occurrences []string
	// Placeholders holds the unique placeholder names in first-occurrence
	// order.
	Placeholders []string
}

// Source identifies where an intent's query comes from.
//
// Sealed interface: only DerivedSource and TemplateSource implement it,
// enabling exhaustive type switches in backend compilers.
type Source interface {
	sourceNode()
}

// DerivedSource is a predicate derived from the operation name.
type DerivedSource struct {
	Predicate PredicateExpr
}

func (DerivedSource) sourceNode() {}

// TemplateSource is a compiled literal template attached to the operation.
type TemplateSource struct {
	Template CompiledTemplate
}

func (TemplateSource) sourceNode() {}

// ParameterBinding maps clause or placeholder identity to resolved argument
// slots. Built once at registration from static argument names; call-time
// binding is a slice lookup, never a name search.
type ParameterBinding struct {
	// ClauseSlots[i] is the index into the declared argument list bound to
	// Clauses[i] of a derived predicate. Empty for template intents.
	ClauseSlots []int
	// PlaceholderSlots[i] is the argument index bound to Occurrences[i] of
	// a compiled template. Empty for derived intents.
	PlaceholderSlots []int
}

// QueryIntent is one declared operation resolved into an executable form.
// Created exactly once per operation at registration time; immutable from
// then on; destroyed with the repository registration. Safe for concurrent
// readers.
type QueryIntent struct {
	// Operation is the declared operation name.
	Operation string
	// Cardinality is the resolved result shape.
	Cardinality Cardinality
	// Source is the derived predicate or compiled template.
	Source Source
	// Modifying marks a template intent that writes. Execution goes
	// through the store's exec path when Cardinality is None; with a
	// cardinality the statement returns rows and is shaped normally.
	Modifying bool
	// Args are the declared arguments in declaration order.
	Args []ir.ArgSpec
	// Binding maps clauses/placeholders to argument slots.
	Binding ParameterBinding
}

// Arg returns the declared argument spec with the given name.
func (q QueryIntent) Arg(name string) (ir.ArgSpec, bool) {
	for _, a := range q.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ir.ArgSpec{}, false
}
