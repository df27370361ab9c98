package queryir

// suffixEntry associates a clause-token suffix with its operation.
type suffixEntry struct {
	suffix string
	op     FieldOperation
}

// suffixTable is ordered longest-suffix-first so that, e.g., a token ending
// in "_not_in" is never claimed by "_in", and "_in" is never claimed by a
// shorter accidental match.
var suffixTable = []suffixEntry{
	{"_not_in", OpNotIn},
	{"_like", OpLike},
	{"_gte", OpGreaterEqual},
	{"_lte", OpLessEqual},
	{"_in", OpIn},
	{"_gt", OpGreaterThan},
	{"_lt", OpLessThan},
	{"_ne", OpNotEquals},
}

// SplitToken resolves a raw clause token into (field name, operation).
// Suffixes are tried longest-first; a match strips the suffix to obtain the
// field name. No suffix match means EQUALS on the whole token. A match that
// would leave an empty field name is ignored, so a token like "_in" falls
// through to EQUALS (and fails field validation downstream).
func SplitToken(token string) (string, FieldOperation) {
	for _, e := range suffixTable {
		if len(token) > len(e.suffix) && token[len(token)-len(e.suffix):] == e.suffix {
			return token[:len(token)-len(e.suffix)], e.op
		}
	}
	return token, OpEquals
}

// OperationForSuffix returns the operation recognized for a suffix token
// such as "_gt". The empty suffix maps to EQUALS. Returns false for an
// unknown suffix.
func OperationForSuffix(suffix string) (FieldOperation, bool) {
	if suffix == "" {
		return OpEquals, true
	}
	for _, e := range suffixTable {
		if e.suffix == suffix {
			return e.op, true
		}
	}
	return "", false
}

// Suffix returns the naming-convention suffix that selects op, or the empty
// string for EQUALS.
func (op FieldOperation) Suffix() string {
	for _, e := range suffixTable {
		if e.op == op {
			return e.suffix
		}
	}
	return ""
}
