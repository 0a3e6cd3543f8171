package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/report"
	"github.com/roach88/worklens/internal/schema"
)

// Scenario defines a report conformance scenario.
// A scenario seeds a dataset, runs a list of report requests against it and
// asserts on what came back.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dataset is an optional path to a dataset YAML file, relative to the
	// scenario file. If empty, the built-in tracker dataset is used.
	Dataset string `yaml:"dataset,omitempty"`

	// Conventions override the epic link type and epic name field used to
	// seed and query the dataset.
	Conventions schema.Conventions `yaml:"conventions,omitempty"`

	// Requests run in order against the same store.
	Requests []Request `yaml:"requests"`

	// Assertions compare the responses of one or more requests.
	// Supported types: keys_contain, keys_order, key_count, same_population,
	// totals_equal
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RequestID is the fixed request id stamped on every response.
	// If empty, defaults to "test-request".
	RequestID string `yaml:"request_id,omitempty"`
}

// Request is one call into the report engine.
// Exactly one of Report and Aggregate must be set.
type Request struct {
	// Name identifies the request within the scenario.
	Name string `yaml:"name"`

	// Report is a report kind: worklogs, issues, projects or users.
	Report string `yaml:"report,omitempty"`

	// Aggregate is a breakdown: none, project, issue or user.
	Aggregate string `yaml:"aggregate,omitempty"`

	// Filter is the request's filter in file form.
	Filter filter.File `yaml:"filter"`

	// Expect specifies the expected response.
	// If nil, the request only has to succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// op names the request's engine operation, e.g. "report worklogs".
func (r Request) op() string {
	if r.Report != "" {
		return "report " + r.Report
	}
	b := r.Aggregate
	if b == "" {
		b = report.BreakdownNone.String()
	}
	return "aggregate " + b
}

// ExpectClause specifies the expected outcome of a request.
type ExpectClause struct {
	// Error is the expected invalid-filter code (e.g. "NO_PROJECT_SCOPE").
	// When set, the request must be rejected with that code.
	Error string `yaml:"error,omitempty"`

	// Count is the expected size of the unbounded list.
	Count *int64 `yaml:"count,omitempty"`

	// Keys are the expected primary keys, in order.
	Keys []string `yaml:"keys,omitempty"`

	// Total is the expected grand total. Omitted fields must be zero.
	Total *TotalsClause `yaml:"total,omitempty"`
}

// TotalsClause is the YAML form of report.Totals.
type TotalsClause struct {
	TimeWorked        int64 `yaml:"time_worked"`
	OriginalEstimate  int64 `yaml:"original_estimate"`
	RemainingEstimate int64 `yaml:"remaining_estimate"`
}

// Totals converts the clause to report totals.
func (c TotalsClause) Totals() report.Totals {
	return report.Totals{
		TimeWorked:        c.TimeWorked,
		OriginalEstimate:  c.OriginalEstimate,
		RemainingEstimate: c.RemainingEstimate,
	}
}

// Assertion compares responses.
type Assertion struct {
	// Type specifies the assertion type:
	// - "keys_contain": Request's keys include every key in Keys
	// - "keys_order": Keys appear in Request's keys in this relative order
	// - "key_count": Request returned exactly Count keys
	// - "same_population": Requests select the same population
	// - "totals_equal": Requests report the same grand total
	Type string `yaml:"type"`

	// Request names the request under test (keys_contain, keys_order, key_count).
	Request string `yaml:"request,omitempty"`

	// Requests names the requests to compare (same_population, totals_equal).
	Requests []string `yaml:"requests,omitempty"`

	// Keys are the expected keys (keys_contain, keys_order).
	Keys []string `yaml:"keys,omitempty"`

	// Count is the expected number of keys (key_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertKeysContain    = "keys_contain"
	AssertKeysOrder      = "keys_order"
	AssertKeyCount       = "key_count"
	AssertSamePopulation = "same_population"
	AssertTotalsEqual    = "totals_equal"
)

// LoadScenario reads and parses a scenario YAML file.
// A relative dataset path is resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Dataset != "" && !filepath.IsAbs(scenario.Dataset) {
		scenario.Dataset = filepath.Join(filepath.Dir(path), scenario.Dataset)
	}
	if scenario.Dataset != "" {
		if _, err := os.Stat(scenario.Dataset); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: dataset file not found: %s", scenario.Dataset)
		}
	}

	return scenario, nil
}

// ParseScenario decodes and validates scenario YAML.
// Dataset paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
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
// Filters themselves are not validated here; a request may expect its
// filter to be rejected.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Requests) == 0 {
		return fmt.Errorf("requests list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Requests))
	for i, req := range s.Requests {
		if req.Name == "" {
			return fmt.Errorf("requests[%d]: name is required", i)
		}
		if names[req.Name] {
			return fmt.Errorf("requests[%d]: duplicate name %q", i, req.Name)
		}
		names[req.Name] = true

		switch {
		case req.Report != "" && req.Aggregate != "":
			return fmt.Errorf("requests[%d]: report and aggregate are mutually exclusive", i)
		case req.Report != "":
			if _, err := report.ParseKind(req.Report); err != nil {
				return fmt.Errorf("requests[%d]: %w", i, err)
			}
		case req.Aggregate != "":
			if _, err := report.ParseBreakdown(req.Aggregate); err != nil {
				return fmt.Errorf("requests[%d]: %w", i, err)
			}
		default:
			return fmt.Errorf("requests[%d]: one of report or aggregate is required", i)
		}

		if req.Expect != nil && req.Expect.Error != "" {
			if req.Expect.Count != nil || req.Expect.Keys != nil || req.Expect.Total != nil {
				return fmt.Errorf("requests[%d].expect: error excludes count, keys and total", i)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, names); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, requests map[string]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertKeysContain, AssertKeysOrder, AssertKeyCount:
		if a.Request == "" {
			return fmt.Errorf("assertions[%d]: request is required for %s", index, a.Type)
		}
		if !requests[a.Request] {
			return fmt.Errorf("assertions[%d]: unknown request %q", index, a.Request)
		}
		if a.Type != AssertKeyCount && len(a.Keys) == 0 {
			return fmt.Errorf("assertions[%d]: keys list is required for %s", index, a.Type)
		}
		if a.Type == AssertKeyCount && a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for key_count", index)
		}
	case AssertSamePopulation, AssertTotalsEqual:
		if len(a.Requests) < 2 {
			return fmt.Errorf("assertions[%d]: at least two requests are required for %s", index, a.Type)
		}
		for _, name := range a.Requests {
			if !requests[name] {
				return fmt.Errorf("assertions[%d]: unknown request %q", index, name)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
