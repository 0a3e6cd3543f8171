package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NoScenariosError is returned when a suite directory holds no scenario
// matching the pattern.
type NoScenariosError struct {
	Dir     string
	Pattern string
}

// Error implements the error interface.
func (e *NoScenariosError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("no scenario files found in %s", e.Dir)
	}
	return fmt.Sprintf("no scenario files matching %q found in %s", e.Pattern, e.Dir)
}

// DiscoverScenarios lists the scenario files (*.yaml, *.yml) directly under
// dir, sorted by name. If pattern is non-empty, only files whose base name
// without extension matches the glob are returned.
func DiscoverScenarios(dir, pattern string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if pattern != "" {
			matched, err := filepath.Match(pattern, strings.TrimSuffix(name, ext))
			if err != nil {
				return nil, fmt.Errorf("invalid scenario pattern %q: %w", pattern, err)
			}
			if !matched {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, &NoScenariosError{Dir: dir, Pattern: pattern}
	}
	return paths, nil
}

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total     int              `json:"total"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Scenarios []ScenarioResult `json:"scenarios"`
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Path   string   `json:"path"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`

	// Result is nil when the scenario could not be loaded or run.
	Result *Result `json:"-"`
}

// RunSuite loads and runs every scenario in dir matching pattern.
//
// A scenario that fails to load or run counts as failed; the suite keeps
// going. The returned error only reports a directory that cannot be read or
// holds no matching scenario.
func RunSuite(ctx context.Context, dir, pattern string, opts ...RunOption) (*SuiteResult, error) {
	paths, err := DiscoverScenarios(dir, pattern)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{Scenarios: []ScenarioResult{}}
	for _, path := range paths {
		suite.Total++
		sr := runScenarioFile(ctx, path, opts)
		if sr.Pass {
			suite.Passed++
		} else {
			suite.Failed++
		}
		suite.Scenarios = append(suite.Scenarios, sr)
	}

	return suite, nil
}

func runScenarioFile(ctx context.Context, path string, opts []RunOption) ScenarioResult {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sr := ScenarioResult{Name: name, Path: path}

	scenario, err := LoadScenario(path)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := Run(ctx, scenario, opts...)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("scenario execution failed: %v", err)}
		return sr
	}

	sr.Result = result
	sr.Pass = result.Pass
	sr.Errors = result.Errors
	return sr
}
