package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot captures the complete outcome of a scenario execution.
// Field order is fixed by the struct, so serialization is deterministic.
type Snapshot struct {
	ScenarioName string         `json:"scenario_name"`
	RequestToken string         `json:"request_token,omitempty"`
	Queries      []QueryOutcome `json:"queries,omitempty"`
	ErrorCode    string         `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// RunWithGolden executes a scenario and compares the outcome against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution fails. Expectation mismatches and
// golden file drift are reported through t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	for _, failure := range result.Failures {
		t.Errorf("%s: %s", scenario.Name, failure)
	}

	snapshot := Snapshot{
		ScenarioName: scenario.Name,
		RequestToken: scenario.RequestToken,
		Queries:      result.Queries,
		ErrorCode:    result.ErrorCode,
		ErrorMessage: result.ErrorMessage,
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return nil
}
