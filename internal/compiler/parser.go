package compiler

import (
	"repoql/internal/ir"
	"repoql/internal/queryir"
)

// parsePredicate resolves raw clause tokens into an ordered predicate
// expression. Each token is split into (field, operation) through the
// suffix registry, then the field is checked against the record schema
// with a case-sensitive exact match. Argument types are not examined here;
// that is the binder's job.
func parsePredicate(lex lexed, record ir.RecordSpec, repo, op string) (queryir.PredicateExpr, *ResolutionError) {
	expr := queryir.PredicateExpr{
		Clauses:     make([]queryir.Clause, 0, len(lex.tokens)),
		Combinators: lex.combinators,
	}

	for _, token := range lex.tokens {
		field, fieldOp := queryir.SplitToken(token)
		if _, ok := record.Field(field); !ok {
			return queryir.PredicateExpr{}, newUnknownField(repo, op, field)
		}
		expr.Clauses = append(expr.Clauses, queryir.Clause{Field: field, Op: fieldOp})
	}

	return expr, nil
}
