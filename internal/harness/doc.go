// Package harness runs report conformance scenarios.
//
// A scenario is a YAML file naming a dataset, a list of report requests and
// the responses they must produce. Each request either asks for a report
// page (worklogs, issues, projects, users) or an aggregate with a breakdown.
//
// # Scenario Format
//
//	name: unreleased_fix_versions
//	description: Worklogs on issues fixed in an unreleased version
//	requests:
//	  - name: unreleased
//	    report: worklogs
//	    filter:
//	      project_ids: [10, 20]
//	      fix_versions: {sentinels: [unreleased]}
//	    expect:
//	      count: 1
//	      keys: ["5003"]
//	assertions:
//	  - type: key_count
//	    request: unreleased
//	    count: 1
//
// A request whose filter is invalid records the invalid-filter code instead
// of rows; expect.error names the code a request must be rejected with.
//
// # Checks
//
// Besides the expect clauses and assertions a scenario declares, every run
// checks two properties of the engine:
//   - The count of a report agrees with the distinct keys of its unbounded list
//   - Breakdown groups sum to the aggregate total
//
// # Determinism
//
// Each scenario runs against its own freshly seeded SQLite database with a
// fixed request id, so the same scenario always produces the same responses.
// RunWithGolden compares them, as canonical JSON, against
// testdata/golden/{name}.golden.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/sentinels.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
