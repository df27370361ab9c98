package querysql

import (
	"fmt"
	"strings"

	"repoql/internal/queryir"
)

// Preview renders the SQL shape of a plan without argument values,
// suitable for inspection and golden files. IN / NOT IN clauses expand at
// call time, so they render with a variadic marker.
func (p *Plan) Preview() string {
	switch src := p.Intent.Source.(type) {
	case queryir.DerivedSource:
		return p.previewDerived(src.Predicate)
	case queryir.TemplateSource:
		var sql strings.Builder
		sql.WriteString(src.Template.Fragments[0])
		for i := range src.Template.Occurrences {
			sql.WriteByte('?')
			sql.WriteString(src.Template.Fragments[i+1])
		}
		return sql.String()
	default:
		return fmt.Sprintf("<unsupported source %T>", p.Intent.Source)
	}
}

func (p *Plan) previewDerived(expr queryir.PredicateExpr) string {
	clause := func(i int) string {
		c := expr.Clauses[i]
		switch c.Op {
		case queryir.OpIn:
			return c.Field + " IN (?...)"
		case queryir.OpNotIn:
			return c.Field + " NOT IN (?...)"
		default:
			op, err := scalarOperator(c.Op)
			if err != nil {
				return fmt.Sprintf("<unsupported op %s>", c.Op)
			}
			return fmt.Sprintf("%s %s ?", c.Field, op)
		}
	}

	where := clause(0)
	for i, comb := range expr.Combinators {
		joiner := "AND"
		if comb == queryir.CombOr {
			joiner = "OR"
		}
		where = fmt.Sprintf("(%s %s %s)", where, joiner, clause(i+1))
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(p.Columns, ", "), p.Table, where)
	if p.Intent.Cardinality == queryir.OneOrNone {
		sql += " LIMIT 1"
	}
	return sql
}
