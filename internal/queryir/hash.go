package queryir

import (
	"fmt"

	"repoql/internal/ir"
)

// Fingerprint computes a content-addressed identity for a resolved intent.
// Two intents resolved from the same declaration against the same schema
// produce the same fingerprint; this is the observable form of the
// idempotence guarantee.
func Fingerprint(intent QueryIntent) (string, error) {
	obj := map[string]any{
		"operation":   intent.Operation,
		"cardinality": string(intent.Cardinality),
		"modifying":   intent.Modifying,
		"args":        argsCanonical(intent.Args),
		"binding": map[string]any{
			"clause_slots":      intsCanonical(intent.Binding.ClauseSlots),
			"placeholder_slots": intsCanonical(intent.Binding.PlaceholderSlots),
		},
	}

	switch src := intent.Source.(type) {
	case DerivedSource:
		obj["source"] = map[string]any{
			"kind":        "derived",
			"clauses":     clausesCanonical(src.Predicate.Clauses),
			"combinators": combinatorsCanonical(src.Predicate.Combinators),
		}
	case TemplateSource:
		obj["source"] = map[string]any{
			"kind":        "template",
			"raw":         src.Template.Raw,
			"occurrences": src.Template.Occurrences,
		}
	default:
		return "", fmt.Errorf("fingerprint: unsupported source type %T", intent.Source)
	}

	canonical, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("fingerprint %q: %w", intent.Operation, err)
	}
	return ir.HashWithDomain(ir.DomainIntent, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error. Use only in
// tests or when the intent is known to be valid.
func MustFingerprint(intent QueryIntent) string {
	fp, err := Fingerprint(intent)
	if err != nil {
		panic(err)
	}
	return fp
}

func clausesCanonical(clauses []Clause) []any {
	out := make([]any, len(clauses))
	for i, c := range clauses {
		out[i] = map[string]any{"field": c.Field, "op": string(c.Op)}
	}
	return out
}

func combinatorsCanonical(combs []Combinator) []any {
	out := make([]any, len(combs))
	for i, c := range combs {
		out[i] = string(c)
	}
	return out
}

func argsCanonical(args []ir.ArgSpec) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = map[string]any{
			"name":       a.Name,
			"type":       string(a.Type),
			"collection": a.Collection,
		}
	}
	return out
}

func intsCanonical(vals []int) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
