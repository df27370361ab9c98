package compiler

import (
	"strings"

	"repoql/internal/ir"
	"repoql/internal/queryir"
)

// compileTemplate parses an attached literal query template into a
// CompiledTemplate and binds its placeholders to declared arguments.
//
// Placeholder syntax is {identifier} where identifier is
// [A-Za-z_][A-Za-z0-9_]*. All other text, including braces that do not
// form a well-formed placeholder and any quote characters the author
// wrote, is preserved verbatim. The compiler never adds quoting and never
// splices argument values into the text: at execution time fragments are
// joined with parameter-binding markers.
//
// Binding is exact-match only - no pluralization, no suffix stripping.
// Every placeholder must name a declared argument (UnboundPlaceholder
// otherwise) and every declared argument must appear in at least one
// placeholder (UnusedArgument otherwise), symmetric with the derived-path
// binder.
func compileTemplate(op ir.OperationDecl, repo string) (queryir.CompiledTemplate, queryir.ParameterBinding, *ResolutionError) {
	tmpl := queryir.CompiledTemplate{Raw: op.Template}

	var frag strings.Builder
	raw := op.Template
	for i := 0; i < len(raw); {
		if raw[i] != '{' {
			frag.WriteByte(raw[i])
			i++
			continue
		}
		name, end := scanPlaceholder(raw, i)
		if name == "" {
			// Not a well-formed placeholder; the brace is literal text.
			frag.WriteByte(raw[i])
			i++
			continue
		}
		tmpl.Fragments = append(tmpl.Fragments, frag.String())
		frag.Reset()
		tmpl.Occurrences = append(tmpl.Occurrences, name)
		if !containsString(tmpl.Placeholders, name) {
			tmpl.Placeholders = append(tmpl.Placeholders, name)
		}
		i = end
	}
	tmpl.Fragments = append(tmpl.Fragments, frag.String())

	binding := queryir.ParameterBinding{
		PlaceholderSlots: make([]int, 0, len(tmpl.Occurrences)),
	}
	referenced := make([]bool, len(op.Args))
	for _, name := range tmpl.Occurrences {
		slot := -1
		for i, a := range op.Args {
			if a.Name == name {
				slot = i
				break
			}
		}
		if slot < 0 {
			return queryir.CompiledTemplate{}, queryir.ParameterBinding{}, newUnboundPlaceholder(repo, op.Name, name, op.ArgNames())
		}
		referenced[slot] = true
		binding.PlaceholderSlots = append(binding.PlaceholderSlots, slot)
	}

	for i, used := range referenced {
		if !used {
			return queryir.CompiledTemplate{}, queryir.ParameterBinding{}, newUnusedArgument(repo, op.Name, op.Args[i].Name, op.ArgNames())
		}
	}

	return tmpl, binding, nil
}

// scanPlaceholder scans a placeholder starting at the '{' at raw[start].
// Returns the identifier and the index just past the closing '}', or
// ("", start) when the braces do not form a well-formed placeholder.
func scanPlaceholder(raw string, start int) (string, int) {
	i := start + 1
	if i >= len(raw) || !isIdentStart(raw[i]) {
		return "", start
	}
	j := i + 1
	for j < len(raw) && isIdentPart(raw[j]) {
		j++
	}
	if j >= len(raw) || raw[j] != '}' {
		return "", start
	}
	return raw[i:j], j + 1
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
