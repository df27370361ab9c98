// Package querysql compiles query intents to parameterized SQL for SQLite.
//
// Compilation happens once at repository registration; the resulting Plan
// is immutable and shared by concurrent callers. Materialization happens
// per call with concrete argument values and produces (sql, params): all
// values travel as ? parameters, never interpolated into the query text.
package querysql

import (
	"fmt"
	"strings"

	"repoql/internal/ir"
	"repoql/internal/queryir"
)

// Plan is the executable form of a resolved operation. Compile builds it
// once; Materialize turns it plus concrete arguments into a parameterized
// query. Plans are immutable and safe for concurrent use.
type Plan struct {
	Intent queryir.QueryIntent

	// Table and Columns drive the generated SELECT for derived intents.
	// Template intents execute their literal text and ignore both.
	Table   string
	Columns []string
}

// Compile builds a Plan for an intent resolved against the given record.
// The resolver has already validated fields and bindings; Compile only
// rejects source kinds it does not know.
func Compile(intent queryir.QueryIntent, record ir.RecordSpec) (*Plan, error) {
	switch intent.Source.(type) {
	case queryir.DerivedSource, queryir.TemplateSource:
		return &Plan{
			Intent:  intent,
			Table:   record.Table,
			Columns: record.FieldNames(),
		}, nil
	default:
		return nil, fmt.Errorf("compile %q: unsupported source type %T", intent.Operation, intent.Source)
	}
}

// Materialize binds concrete argument values and returns the final
// parameterized query. The SQL text can vary between calls only in the
// arity of IN / NOT IN expansions; values themselves always travel as
// parameters.
func (p *Plan) Materialize(args map[string]any) (string, []any, error) {
	values, err := p.argValues(args)
	if err != nil {
		return "", nil, err
	}

	switch src := p.Intent.Source.(type) {
	case queryir.DerivedSource:
		return p.materializeDerived(src.Predicate, values)
	case queryir.TemplateSource:
		return p.materializeTemplate(src.Template, values)
	default:
		return "", nil, fmt.Errorf("materialize %q: unsupported source type %T", p.Intent.Operation, p.Intent.Source)
	}
}

// argValues resolves declared arguments to concrete values, slot by slot.
// Every declared argument must be supplied; extras are rejected.
func (p *Plan) argValues(args map[string]any) ([]any, error) {
	values := make([]any, len(p.Intent.Args))
	for i, spec := range p.Intent.Args {
		v, ok := args[spec.Name]
		if !ok {
			return nil, fmt.Errorf("operation %q: missing argument %q", p.Intent.Operation, spec.Name)
		}
		values[i] = v
	}
	if len(args) > len(p.Intent.Args) {
		for name := range args {
			if _, ok := p.Intent.Arg(name); !ok {
				return nil, fmt.Errorf("operation %q: unexpected argument %q", p.Intent.Operation, name)
			}
		}
	}
	return values, nil
}

func (p *Plan) materializeDerived(expr queryir.PredicateExpr, values []any) (string, []any, error) {
	var params []any

	clauseSQL := func(i int) (string, error) {
		clause := expr.Clauses[i]
		value := values[p.Intent.Binding.ClauseSlots[i]]

		switch clause.Op {
		case queryir.OpIn, queryir.OpNotIn:
			members, ok := collectionValues(value)
			if !ok {
				return "", fmt.Errorf("operation %q: field %q requires a collection value, got %T",
					p.Intent.Operation, clause.Field, value)
			}
			if len(members) == 0 {
				// Empty IN matches nothing; empty NOT IN excludes nothing.
				if clause.Op == queryir.OpIn {
					return "1 = 0", nil
				}
				return "1 = 1", nil
			}
			params = append(params, members...)
			markers := strings.Repeat("?, ", len(members)-1) + "?"
			if clause.Op == queryir.OpIn {
				return fmt.Sprintf("%s IN (%s)", clause.Field, markers), nil
			}
			return fmt.Sprintf("%s NOT IN (%s)", clause.Field, markers), nil
		default:
			op, err := scalarOperator(clause.Op)
			if err != nil {
				return "", fmt.Errorf("operation %q: %w", p.Intent.Operation, err)
			}
			params = append(params, value)
			return fmt.Sprintf("%s %s ?", clause.Field, op), nil
		}
	}

	where, err := clauseSQL(0)
	if err != nil {
		return "", nil, err
	}
	// Combinators fold strictly left to right: ((c1 AND c2) OR c3). SQL's
	// native AND-over-OR precedence must not leak in, so every fold is
	// parenthesized.
	for i, comb := range expr.Combinators {
		next, err := clauseSQL(i + 1)
		if err != nil {
			return "", nil, err
		}
		joiner := "AND"
		if comb == queryir.CombOr {
			joiner = "OR"
		}
		where = fmt.Sprintf("(%s %s %s)", where, joiner, next)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(p.Columns, ", "), p.Table, where)
	if p.Intent.Cardinality == queryir.OneOrNone {
		// Fetch optimization only; the shaper takes the first row either way.
		sql += " LIMIT 1"
	}
	return sql, params, nil
}

// materializeTemplate joins literal fragments with ? markers and lays out
// parameters in placeholder-occurrence order. The authored text is
// preserved verbatim; no value is ever spliced in.
func (p *Plan) materializeTemplate(tmpl queryir.CompiledTemplate, values []any) (string, []any, error) {
	var sql strings.Builder
	params := make([]any, 0, len(tmpl.Occurrences))

	sql.WriteString(tmpl.Fragments[0])
	for i := range tmpl.Occurrences {
		sql.WriteByte('?')
		sql.WriteString(tmpl.Fragments[i+1])
		params = append(params, values[p.Intent.Binding.PlaceholderSlots[i]])
	}
	return sql.String(), params, nil
}

func scalarOperator(op queryir.FieldOperation) (string, error) {
	switch op {
	case queryir.OpEquals:
		return "=", nil
	case queryir.OpNotEquals:
		return "<>", nil
	case queryir.OpGreaterThan:
		return ">", nil
	case queryir.OpGreaterEqual:
		return ">=", nil
	case queryir.OpLessThan:
		return "<", nil
	case queryir.OpLessEqual:
		return "<=", nil
	case queryir.OpLike:
		return "LIKE", nil
	default:
		return "", fmt.Errorf("unsupported scalar operation %q", op)
	}
}

// collectionValues normalizes a collection argument to []any. Accepts the
// slice shapes that reach us from Go callers, JSON decoding, and YAML
// scenarios.
func collectionValues(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(val))
		for i, f := range val {
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
}
