package compiler

import (
	"strings"

	"repoql/internal/ir"
	"repoql/internal/queryir"
)

// pluralOverrides lists irregular plurals the suffix rules below cannot
// produce.
var pluralOverrides = map[string]string{
	"person": "people",
	"child":  "children",
}

// pluralize returns the accepted plural argument name for a field.
// Irregular overrides first, then: -s/-x/-z/-ch/-sh append "es",
// consonant+y becomes "ies", everything else appends "s". This covers the
// conventional cases (status → statuses, category → categories) without
// attempting a full inflection engine.
func pluralize(field string) string {
	if p, ok := pluralOverrides[field]; ok {
		return p
	}
	switch {
	case strings.HasSuffix(field, "s"),
		strings.HasSuffix(field, "x"),
		strings.HasSuffix(field, "z"),
		strings.HasSuffix(field, "ch"),
		strings.HasSuffix(field, "sh"):
		return field + "es"
	case len(field) > 1 && strings.HasSuffix(field, "y") && !isVowel(field[len(field)-2]):
		return field[:len(field)-1] + "ies"
	default:
		return field + "s"
	}
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// bindParameters maps declared argument names to predicate clause slots.
//
// Per clause, in predicate order:
//  1. Exact match: an unconsumed argument named exactly like the field.
//  2. Plural match: an unconsumed argument named pluralize(field), taken
//     only when no declared argument carries the field's singular name at
//     all. When both singular and plural are declared, exact wins
//     deterministically and the plural is left to the unused-argument
//     check - no ambiguity error.
//  3. Neither: UnboundField naming both accepted forms.
//
// Each bound argument's shape must agree with the clause operation
// (IN / NOT IN take collections, everything else scalars). Every declared
// argument must end up consumed by exactly one clause.
func bindParameters(expr queryir.PredicateExpr, op ir.OperationDecl, repo string) (queryir.ParameterBinding, *ResolutionError) {
	consumed := make([]bool, len(op.Args))
	slots := make([]int, 0, len(expr.Clauses))

	for _, clause := range expr.Clauses {
		slot := -1

		for i, a := range op.Args {
			if !consumed[i] && a.Name == clause.Field {
				slot = i
				break
			}
		}

		if slot < 0 && !declaresArg(op, clause.Field) {
			plural := pluralize(clause.Field)
			for i, a := range op.Args {
				if !consumed[i] && a.Name == plural {
					slot = i
					break
				}
			}
		}

		if slot < 0 {
			return queryir.ParameterBinding{}, newUnboundField(repo, op.Name, clause.Field, pluralize(clause.Field), op.ArgNames())
		}

		arg := op.Args[slot]
		wantShape := clause.Op.Shape()
		haveShape := queryir.ShapeScalar
		if arg.Collection {
			haveShape = queryir.ShapeCollection
		}
		if wantShape != haveShape {
			return queryir.ParameterBinding{}, newArgumentShapeMismatch(repo, op.Name, clause.Field, arg.Name, wantShape.String())
		}

		consumed[slot] = true
		slots = append(slots, slot)
	}

	for i, used := range consumed {
		if !used {
			return queryir.ParameterBinding{}, newUnusedArgument(repo, op.Name, op.Args[i].Name, op.ArgNames())
		}
	}

	return queryir.ParameterBinding{ClauseSlots: slots}, nil
}

// declaresArg reports whether the operation declares an argument with the
// given name, consumed or not.
func declaresArg(op ir.OperationDecl, name string) bool {
	for _, a := range op.Args {
		if a.Name == name {
			return true
		}
	}
	return false
}
