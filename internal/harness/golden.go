package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"repoql/internal/ir"
)

// StepSnapshot is the serialized form of one step for golden comparison.
type StepSnapshot struct {
	Operation    string      `json:"operation"`
	Count        int         `json:"count"`
	RowsAffected int64       `json:"rows_affected,omitempty"`
	Record       ir.Record   `json:"record,omitempty"`
	Records      []ir.Record `json:"records,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// ResultSnapshot captures a full scenario run for golden comparison.
// Maps serialize with sorted keys, so the output is deterministic.
type ResultSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Pass         bool           `json:"pass"`
	Failures     []string       `json:"failures,omitempty"`
	Steps        []StepSnapshot `json:"steps,omitempty"`
}

func snapshotOf(result *Result) *ResultSnapshot {
	snapshot := &ResultSnapshot{
		ScenarioName: result.ScenarioName,
		Pass:         result.Pass,
		Failures:     result.Failures,
	}
	for _, step := range result.Steps {
		snapshot.Steps = append(snapshot.Steps, StepSnapshot{
			Operation:    step.Operation,
			Count:        step.Count,
			RowsAffected: step.RowsAffected,
			Record:       step.Record,
			Records:      step.Records,
			Error:        step.Err,
		})
	}
	return snapshot
}

// RunWithGolden executes a scenario and compares the run snapshot
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-obtained result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := json.MarshalIndent(snapshotOf(result), "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
