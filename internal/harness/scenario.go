package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"repoql/internal/ir"
)

// Scenario defines one conformance scenario: a schema, a repository,
// seed rows, and invocation steps with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Record declares the record schema backing the repository.
	Record RecordDef `yaml:"record"`

	// Repository declares the repository and its operations.
	Repository RepositoryDef `yaml:"repository"`

	// Seed lists rows inserted before the steps run.
	Seed []map[string]interface{} `yaml:"seed,omitempty"`

	// Steps are executed in order against the registered repository.
	Steps []Step `yaml:"steps,omitempty"`

	// ResolveError, when set, asserts that registration fails with this
	// resolution error code instead of running any steps.
	ResolveError string `yaml:"resolve_error,omitempty"`
}

// RecordDef mirrors ir.RecordSpec with YAML field tags.
type RecordDef struct {
	Name   string     `yaml:"name"`
	Table  string     `yaml:"table"`
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef mirrors ir.FieldSpec with YAML field tags.
type FieldDef struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	PrimaryKey bool   `yaml:"primary_key,omitempty"`
}

// RepositoryDef mirrors ir.RepositorySpec with YAML field tags. The
// record reference is implicit: scenarios declare exactly one record.
type RepositoryDef struct {
	Name       string         `yaml:"name"`
	Operations []OperationDef `yaml:"operations"`
}

// OperationDef mirrors ir.OperationDecl with YAML field tags.
type OperationDef struct {
	Name      string   `yaml:"name"`
	Args      []ArgDef `yaml:"args,omitempty"`
	Returns   string   `yaml:"returns,omitempty"`
	Template  string   `yaml:"template,omitempty"`
	Modifying bool     `yaml:"modifying,omitempty"`
	Skip      bool     `yaml:"skip,omitempty"`
}

// ArgDef mirrors ir.ArgSpec with YAML field tags.
type ArgDef struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Collection bool   `yaml:"collection,omitempty"`
}

// Step invokes one operation and optionally validates the result.
type Step struct {
	// Invoke is the operation name to invoke.
	Invoke string `yaml:"invoke"`

	// Args contains the invocation arguments keyed by declared name.
	Args map[string]interface{} `yaml:"args,omitempty"`

	// Expect specifies the expected result. If nil the step only has to
	// succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Count is the expected number of returned records. For one-or-none
	// operations a present record counts as 1, an absent one as 0.
	Count *int `yaml:"count,omitempty"`

	// Records contains expected rows in order. Subset match: only the
	// listed fields are compared.
	Records []map[string]interface{} `yaml:"records,omitempty"`

	// Record contains expected fields of a one-or-none result.
	// Subset match.
	Record map[string]interface{} `yaml:"record,omitempty"`

	// RowsAffected is the expected write count of a modifying step.
	RowsAffected *int `yaml:"rows_affected,omitempty"`

	// Error, when set, asserts that the invocation fails and the error
	// message contains this substring.
	Error string `yaml:"error,omitempty"`
}

// RecordSpec converts the YAML record definition to its IR form.
func (s *Scenario) RecordSpec() ir.RecordSpec {
	fields := make([]ir.FieldSpec, len(s.Record.Fields))
	for i, f := range s.Record.Fields {
		fields[i] = ir.FieldSpec{Name: f.Name, Type: ir.FieldType(f.Type), PrimaryKey: f.PrimaryKey}
	}
	return ir.RecordSpec{Name: s.Record.Name, Table: s.Record.Table, Fields: fields}
}

// RepositorySpec converts the YAML repository definition to its IR form.
func (s *Scenario) RepositorySpec() ir.RepositorySpec {
	ops := make([]ir.OperationDecl, len(s.Repository.Operations))
	for i, op := range s.Repository.Operations {
		args := make([]ir.ArgSpec, len(op.Args))
		for j, a := range op.Args {
			args[j] = ir.ArgSpec{Name: a.Name, Type: ir.FieldType(a.Type), Collection: a.Collection}
		}
		ops[i] = ir.OperationDecl{
			Name:      op.Name,
			Args:      args,
			Returns:   ir.ReturnShape(op.Returns),
			Template:  op.Template,
			Modifying: op.Modifying,
			Skip:      op.Skip,
		}
	}
	return ir.RepositorySpec{Name: s.Repository.Name, Record: s.Record.Name, Operations: ops}
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Record.Name == "" || s.Record.Table == "" {
		return fmt.Errorf("record name and table are required")
	}
	if len(s.Record.Fields) == 0 {
		return fmt.Errorf("record fields list is required and must be non-empty")
	}
	if s.Repository.Name == "" {
		return fmt.Errorf("repository name is required")
	}
	if len(s.Repository.Operations) == 0 {
		return fmt.Errorf("repository operations list is required and must be non-empty")
	}

	if s.ResolveError != "" {
		if len(s.Steps) > 0 {
			return fmt.Errorf("resolve_error scenarios must not declare steps")
		}
		return nil
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.Invoke == "" {
			return fmt.Errorf("steps[%d]: invoke is required", i)
		}
	}
	return nil
}
