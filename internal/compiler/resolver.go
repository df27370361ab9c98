package compiler

import (
	"fmt"

	"repoql/internal/ir"
	"repoql/internal/queryir"
)

// Resolved is the outcome of resolving one repository declaration: the
// intent per operation, in declaration order, plus the set of operations
// excluded from automatic resolution.
type Resolved struct {
	// Intents holds one immutable QueryIntent per resolved operation,
	// keyed by operation name.
	Intents map[string]queryir.QueryIntent

	// Order lists resolved operation names in declaration order.
	Order []string

	// Skipped lists operation names excluded by their skip marker. They
	// never produce an intent; the caller supplies the implementation.
	Skipped []string
}

// ResolveRepository resolves every declared operation of a repository
// against the record schema, fail-fast: the first malformed operation
// aborts with a ResolutionError and no partial result. A successful return
// means every non-skipped operation has exactly one compiled intent.
//
// Resolution is pure: it reads the specs, touches no storage, and holds no
// state between calls, so resolving the same declaration twice yields
// structurally identical intents (see queryir.Fingerprint).
func ResolveRepository(repo ir.RepositorySpec, record ir.RecordSpec) (*Resolved, error) {
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("resolve repository %q: %w", repo.Name, err)
	}
	if err := repo.Validate(); err != nil {
		return nil, fmt.Errorf("resolve repository %q: %w", repo.Name, err)
	}

	out := &Resolved{Intents: make(map[string]queryir.QueryIntent, len(repo.Operations))}
	for _, op := range repo.Operations {
		if op.Skip {
			out.Skipped = append(out.Skipped, op.Name)
			continue
		}
		intent, err := ResolveOperation(repo.Name, op, record)
		if err != nil {
			return nil, err
		}
		out.Intents[op.Name] = intent
		out.Order = append(out.Order, op.Name)
	}
	return out, nil
}

// ResolveOperation resolves a single non-skipped operation declaration into
// a QueryIntent.
//
// Template operations compile the attached template; cardinality comes from
// the declared return shape, independent of template content. A modifying
// template without a return shape resolves to the None cardinality and
// reports rows affected at call time. Derived
// operations run lexer → parser → binder; cardinality comes from the
// recognized prefix, and a declared return shape that contradicts it fails
// with PrefixCardinalityMismatch.
func ResolveOperation(repoName string, op ir.OperationDecl, record ir.RecordSpec) (queryir.QueryIntent, error) {
	if op.Skip {
		return queryir.QueryIntent{}, newInvalidDeclaration(repoName, op.Name, "operation is marked skip; resolution over it is a no-op")
	}

	if op.Modifying && op.Template == "" {
		return queryir.QueryIntent{}, newInvalidDeclaration(repoName, op.Name, "modifying requires a template; derived operations are read-only")
	}

	if op.Template != "" {
		if !op.Returns.Valid() && !op.Modifying {
			return queryir.QueryIntent{}, newInvalidDeclaration(repoName, op.Name, "template operation must declare a return shape")
		}
		tmpl, binding, rerr := compileTemplate(op, repoName)
		if rerr != nil {
			return queryir.QueryIntent{}, rerr
		}
		cardinality := queryir.CardinalityOf(op.Returns)
		if op.Modifying && op.Returns == "" {
			cardinality = queryir.None
		}
		return queryir.QueryIntent{
			Operation:   op.Name,
			Cardinality: cardinality,
			Source:      queryir.TemplateSource{Template: tmpl},
			Args:        op.Args,
			Modifying:   op.Modifying,
			Binding:     binding,
		}, nil
	}

	lex, rerr := lexOperationName(repoName, op.Name)
	if rerr != nil {
		return queryir.QueryIntent{}, rerr
	}
	if op.Returns != "" && queryir.CardinalityOf(op.Returns) != lex.cardinality {
		return queryir.QueryIntent{}, newPrefixCardinalityMismatch(
			repoName, op.Name, string(op.Returns), string(lex.cardinality))
	}

	expr, rerr := parsePredicate(lex, record, repoName, op.Name)
	if rerr != nil {
		return queryir.QueryIntent{}, rerr
	}

	binding, rerr := bindParameters(expr, op, repoName)
	if rerr != nil {
		return queryir.QueryIntent{}, rerr
	}

	return queryir.QueryIntent{
		Operation:   op.Name,
		Cardinality: lex.cardinality,
		Source:      queryir.DerivedSource{Predicate: expr},
		Args:        op.Args,
		Binding:     binding,
	}, nil
}
