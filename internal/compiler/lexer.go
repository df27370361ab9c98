package compiler

import (
	"strings"

	"repoql/internal/queryir"
)

// prefixEntry maps a recognized operation-name prefix to the cardinality it
// fixes.
type prefixEntry struct {
	prefix      string
	cardinality queryir.Cardinality
}

// The *_all_* forms are listed first so a name is always claimed by its
// longest matching prefix.
var prefixes = []prefixEntry{
	{"find_all_by_", queryir.Many},
	{"get_all_by_", queryir.Many},
	{"find_by_", queryir.OneOrNone},
	{"get_by_", queryir.OneOrNone},
}

// combinator separators in the identifier grammar.
const (
	sepAnd = "_and_"
	sepOr  = "_or_"
)

// lexed is the token stream produced from one operation name: the
// prefix-implied cardinality, raw clause tokens, and the combinators
// between them in textual order. Invariant:
// len(combinators) == len(tokens) - 1.
type lexed struct {
	cardinality queryir.Cardinality
	tokens      []string
	combinators []queryir.Combinator
}

// lexOperationName tokenizes a declared operation name. It strips the
// recognized prefix, then splits the remainder on _and_ / _or_, preserving
// combinator identity and position. Segments are not interpreted here; a
// clause token like "age_gt" is resolved by the parser.
func lexOperationName(repo, name string) (lexed, *ResolutionError) {
	var out lexed

	rest := ""
	matched := false
	for _, e := range prefixes {
		if strings.HasPrefix(name, e.prefix) {
			out.cardinality = e.cardinality
			rest = name[len(e.prefix):]
			matched = true
			break
		}
	}
	if !matched {
		return lexed{}, newUnrecognizedPrefix(repo, name)
	}

	for {
		andIdx := strings.Index(rest, sepAnd)
		orIdx := strings.Index(rest, sepOr)
		if andIdx < 0 && orIdx < 0 {
			out.tokens = append(out.tokens, rest)
			return out, nil
		}

		// Take whichever separator occurs first, left to right.
		if andIdx >= 0 && (orIdx < 0 || andIdx < orIdx) {
			out.tokens = append(out.tokens, rest[:andIdx])
			out.combinators = append(out.combinators, queryir.CombAnd)
			rest = rest[andIdx+len(sepAnd):]
		} else {
			out.tokens = append(out.tokens, rest[:orIdx])
			out.combinators = append(out.combinators, queryir.CombOr)
			rest = rest[orIdx+len(sepOr):]
		}
	}
}
