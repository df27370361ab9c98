package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"repoql/internal/compiler"
	"repoql/internal/engine"
	"repoql/internal/ir"
	"repoql/internal/store"
)

// Result holds the outcome of a scenario run.
type Result struct {
	ScenarioName string
	Pass         bool
	Failures     []string
	Steps        []StepResult
}

// StepResult captures what one step produced.
type StepResult struct {
	Operation    string
	Count        int
	RowsAffected int64
	Record       ir.Record
	Records      []ir.Record
	Err          string
}

// Run executes a scenario against a fresh in-memory database.
//
// A non-nil error means the harness itself could not run (bad scenario,
// database failure). Expectation mismatches are reported through
// Result.Failures with Pass set to false.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	result := &Result{ScenarioName: scenario.Name}

	st, err := store.Open(":memory:", hclog.NewNullLogger())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	record := scenario.RecordSpec()
	repoSpec := scenario.RepositorySpec()

	repo, regErr := engine.Register(ctx, st, repoSpec, record, hclog.NewNullLogger())

	if scenario.ResolveError != "" {
		if regErr == nil {
			result.Failures = append(result.Failures,
				fmt.Sprintf("expected resolution error %s, registration succeeded", scenario.ResolveError))
		} else if code := compiler.CodeOf(regErr); string(code) != scenario.ResolveError {
			result.Failures = append(result.Failures,
				fmt.Sprintf("expected resolution error %s, got %s: %v", scenario.ResolveError, code, regErr))
		}
		result.Pass = len(result.Failures) == 0
		return result, nil
	}
	if regErr != nil {
		return nil, fmt.Errorf("registering repository: %w", regErr)
	}

	for i, row := range scenario.Seed {
		if err := st.InsertRecord(ctx, record, ir.Record(row)); err != nil {
			return nil, fmt.Errorf("seed[%d]: %w", i, err)
		}
	}

	for i, step := range scenario.Steps {
		stepResult := runStep(ctx, repo, step)
		result.Steps = append(result.Steps, stepResult)
		for _, failure := range checkStep(i, step, stepResult) {
			result.Failures = append(result.Failures, failure)
		}
	}

	result.Pass = len(result.Failures) == 0
	return result, nil
}

func runStep(ctx context.Context, repo *engine.Repository, step Step) StepResult {
	out := StepResult{Operation: step.Invoke}

	res, err := repo.Invoke(ctx, step.Invoke, step.Args)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownOperation) {
			out.Err = "unknown operation"
		} else {
			out.Err = err.Error()
		}
		return out
	}

	out.RowsAffected = res.RowsAffected
	if res.Records != nil {
		out.Records = res.Records
		out.Count = len(res.Records)
	} else if res.Record != nil {
		out.Record = res.Record
		out.Count = 1
	}
	return out
}

func checkStep(index int, step Step, got StepResult) []string {
	var failures []string
	fail := func(format string, args ...interface{}) {
		failures = append(failures, fmt.Sprintf("steps[%d] %s: ", index, step.Invoke)+fmt.Sprintf(format, args...))
	}

	expect := step.Expect
	if expect == nil {
		if got.Err != "" {
			fail("unexpected error: %s", got.Err)
		}
		return failures
	}

	if expect.Error != "" {
		if got.Err == "" {
			fail("expected error containing %q, invocation succeeded", expect.Error)
		} else if !containsFold(got.Err, expect.Error) {
			fail("expected error containing %q, got %q", expect.Error, got.Err)
		}
		return failures
	}
	if got.Err != "" {
		fail("unexpected error: %s", got.Err)
		return failures
	}

	if expect.Count != nil && got.Count != *expect.Count {
		fail("expected %d record(s), got %d", *expect.Count, got.Count)
	}

	if expect.RowsAffected != nil && got.RowsAffected != int64(*expect.RowsAffected) {
		fail("expected %d row(s) affected, got %d", *expect.RowsAffected, got.RowsAffected)
	}

	if expect.Record != nil {
		if got.Record == nil {
			fail("expected a record, got none")
		} else if diff := subsetDiff(expect.Record, got.Record); diff != "" {
			fail("record mismatch: %s", diff)
		}
	}

	if expect.Records != nil {
		if len(got.Records) != len(expect.Records) {
			fail("expected %d record(s), got %d", len(expect.Records), len(got.Records))
		} else {
			for i, want := range expect.Records {
				if diff := subsetDiff(want, got.Records[i]); diff != "" {
					fail("records[%d] mismatch: %s", i, diff)
				}
			}
		}
	}

	return failures
}

// subsetDiff compares expected fields against a returned record. Only
// the expected keys are checked. Returns "" on match.
func subsetDiff(want map[string]interface{}, got ir.Record) string {
	for key, wantVal := range want {
		gotVal, ok := got[key]
		if !ok {
			return fmt.Sprintf("missing field %q", key)
		}
		if !looseEqual(wantVal, gotVal) {
			return fmt.Sprintf("field %q: expected %v, got %v", key, wantVal, gotVal)
		}
	}
	return ""
}

// looseEqual compares scenario values against store-scanned values.
// YAML produces int and float64 while the store yields int64 and
// float64, so numerics compare through float64.
func looseEqual(want, got interface{}) bool {
	if wf, ok := asFloat(want); ok {
		gf, ok := asFloat(got)
		return ok && wf == gf
	}
	if wb, ok := want.(bool); ok {
		switch gv := got.(type) {
		case bool:
			return wb == gv
		case int64:
			return wb == (gv != 0)
		}
		return false
	}
	return fmt.Sprint(want) == fmt.Sprint(got)
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
