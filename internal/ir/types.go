package ir

import "fmt"

// FieldType enumerates the scalar types a record field or argument can carry.
//
// Types map to SQLite storage classes in internal/store:
//
//	string → TEXT, int → INTEGER, float → REAL, bool → INTEGER (0/1),
//	time → TEXT (RFC 3339)
type FieldType string

const (
	TypeString FieldType = "string"
	TypeInt    FieldType = "int"
	TypeFloat  FieldType = "float"
	TypeBool   FieldType = "bool"
	TypeTime   FieldType = "time"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeTime:
		return true
	}
	return false
}

// FieldSpec describes one field of a record schema.
//
// The field set of a RecordSpec is the authority for name-derived queries:
// a clause referencing a field not present here is a resolution-time
// failure, never a call-time one.
type FieldSpec struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`

	// PrimaryKey marks the identifier field. At most one field per record
	// may set it; when none does, a field literally named "id" is treated
	// as the key.
	PrimaryKey bool `json:"primary_key,omitempty"`
}

// RecordSpec describes a record type and its backing table.
type RecordSpec struct {
	Name   string      `json:"name"`
	Table  string      `json:"table"`
	Fields []FieldSpec `json:"fields"`
}

// Field returns the field spec with the given name. Matching is
// case-sensitive and exact.
func (r RecordSpec) Field(name string) (FieldSpec, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames returns field names in declaration order.
func (r RecordSpec) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// KeyField returns the primary-key field. Falls back to a field named "id"
// when no field is marked. Returns false if neither exists.
func (r RecordSpec) KeyField() (FieldSpec, bool) {
	for _, f := range r.Fields {
		if f.PrimaryKey {
			return f, true
		}
	}
	return r.Field("id")
}

// Validate checks structural invariants of the record spec: non-empty name
// and table, at least one field, unique field names, known field types, and
// at most one primary key.
func (r RecordSpec) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("record spec: name is required")
	}
	if r.Table == "" {
		return fmt.Errorf("record %q: table is required", r.Name)
	}
	if len(r.Fields) == 0 {
		return fmt.Errorf("record %q: at least one field is required", r.Name)
	}
	seen := make(map[string]bool, len(r.Fields))
	keys := 0
	for _, f := range r.Fields {
		if f.Name == "" {
			return fmt.Errorf("record %q: field name is required", r.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("record %q: duplicate field %q", r.Name, f.Name)
		}
		seen[f.Name] = true
		if !f.Type.Valid() {
			return fmt.Errorf("record %q: field %q has unknown type %q", r.Name, f.Name, f.Type)
		}
		if f.PrimaryKey {
			keys++
		}
	}
	if keys > 1 {
		return fmt.Errorf("record %q: multiple primary key fields", r.Name)
	}
	return nil
}

// ArgSpec describes one declared argument of an operation, in declaration
// order. Collection marks arguments that carry a finite sequence of scalars
// (required by IN / NOT IN clauses).
type ArgSpec struct {
	Name       string    `json:"name"`
	Type       FieldType `json:"type"`
	Collection bool      `json:"collection,omitempty"`
}

// ReturnShape declares how many records an operation yields.
type ReturnShape string

const (
	// ReturnOne yields the first matching record or nothing. Zero rows is
	// success, not an error.
	ReturnOne ReturnShape = "one"
	// ReturnMany yields all matching records in storage-returned order.
	ReturnMany ReturnShape = "many"
)

// Valid reports whether s is a known return shape.
func (s ReturnShape) Valid() bool {
	return s == ReturnOne || s == ReturnMany
}

// OperationDecl is one declared repository operation.
//
// An operation is resolved in exactly one of three ways:
//   - Template != "": the template is compiled, name is not interpreted.
//   - Skip: no intent is produced; the caller supplies the implementation.
//   - otherwise: the name is parsed under the find_by/get_by convention.
type OperationDecl struct {
	Name string    `json:"name"`
	Args []ArgSpec `json:"args,omitempty"`

	// Returns declares the result cardinality. Required for template
	// operations; for derived operations it must agree with the prefix.
	Returns ReturnShape `json:"returns,omitempty"`

	// Template is a literal query with {placeholder} substitution points.
	Template string `json:"template,omitempty"`

	// Modifying marks a template whose statement writes rather than
	// reads. Valid only together with Template. Without a declared
	// return shape the operation reports rows affected; with one, the
	// statement is expected to yield rows (RETURNING) and is shaped
	// like a read.
	Modifying bool `json:"modifying,omitempty"`

	// Skip excludes the operation from automatic resolution entirely.
	Skip bool `json:"skip,omitempty"`
}

// ArgNames returns declared argument names in declaration order.
func (o OperationDecl) ArgNames() []string {
	names := make([]string, len(o.Args))
	for i, a := range o.Args {
		names[i] = a.Name
	}
	return names
}

// Arg returns the argument spec with the given name.
func (o OperationDecl) Arg(name string) (ArgSpec, bool) {
	for _, a := range o.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgSpec{}, false
}

// RepositorySpec declares a repository over one record type.
type RepositorySpec struct {
	Name       string          `json:"name"`
	Record     string          `json:"record"`
	Operations []OperationDecl `json:"operations,omitempty"`
}

// Validate checks structural invariants: non-empty names, unique operation
// names, unique argument names per operation, and known argument types.
func (r RepositorySpec) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("repository spec: name is required")
	}
	if r.Record == "" {
		return fmt.Errorf("repository %q: record is required", r.Name)
	}
	seen := make(map[string]bool, len(r.Operations))
	for _, op := range r.Operations {
		if op.Name == "" {
			return fmt.Errorf("repository %q: operation name is required", r.Name)
		}
		if seen[op.Name] {
			return fmt.Errorf("repository %q: duplicate operation %q", r.Name, op.Name)
		}
		seen[op.Name] = true
		argSeen := make(map[string]bool, len(op.Args))
		for _, a := range op.Args {
			if a.Name == "" {
				return fmt.Errorf("repository %q: operation %q: argument name is required", r.Name, op.Name)
			}
			if argSeen[a.Name] {
				return fmt.Errorf("repository %q: operation %q: duplicate argument %q", r.Name, op.Name, a.Name)
			}
			argSeen[a.Name] = true
			if !a.Type.Valid() {
				return fmt.Errorf("repository %q: operation %q: argument %q has unknown type %q", r.Name, op.Name, a.Name, a.Type)
			}
		}
		if op.Returns != "" && !op.Returns.Valid() {
			return fmt.Errorf("repository %q: operation %q: invalid return shape %q", r.Name, op.Name, op.Returns)
		}
	}
	return nil
}

// Record is one row of a record type, keyed by field name. Values are the
// Go natives produced by the store scanner (string, int64, float64, bool,
// nil).
type Record map[string]any
