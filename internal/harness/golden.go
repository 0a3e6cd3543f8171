package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/worklens/internal/ir"
	"github.com/roach88/worklens/internal/report"
)

// Snapshot captures the responses of a scenario execution.
// Fingerprints are left out; the golden file pins rows and sums, not the
// hash function.
type Snapshot struct {
	ScenarioName string
	Responses    []Response
}

// Canonical converts the snapshot to an IR object for canonical JSON.
func (s *Snapshot) Canonical() ir.IRObject {
	responses := make(ir.IRArray, len(s.Responses))
	for i, r := range s.Responses {
		obj := ir.IRObject{
			"request": ir.IRString(r.Request),
			"op":      ir.IRString(r.Op),
		}
		if r.Error != "" {
			obj["error"] = ir.IRString(r.Error)
			responses[i] = obj
			continue
		}
		obj["keys"] = ir.Strings(r.Keys)
		obj["count"] = ir.IRInt(r.Count)
		obj["total"] = totalsObject(r.Total)
		if len(r.Groups) > 0 {
			groups := make(ir.IRArray, len(r.Groups))
			for j, g := range r.Groups {
				gobj := totalsObject(g.Totals)
				gobj["key"] = ir.IRString(g.Key)
				gobj["label"] = ir.IRString(g.Label)
				groups[j] = gobj
			}
			obj["groups"] = groups
		}
		responses[i] = obj
	}

	return ir.IRObject{
		"scenario":  ir.IRString(s.ScenarioName),
		"responses": responses,
	}
}

func totalsObject(t report.Totals) ir.IRObject {
	return ir.IRObject{
		"time_worked":        ir.IRInt(t.TimeWorked),
		"original_estimate":  ir.IRInt(t.OriginalEstimate),
		"remaining_estimate": ir.IRInt(t.RemainingEstimate),
	}
}

// MarshalSnapshot renders a result's responses as canonical JSON.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: scenarioName, Responses: result.Responses}
	return ir.MarshalCanonical(snapshot.Canonical())
}

// RunWithGolden executes a scenario and compares its responses against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the responses don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
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
