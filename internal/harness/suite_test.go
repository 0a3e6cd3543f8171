package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverScenarios(t *testing.T) {
	paths, err := DiscoverScenarios("testdata/scenarios", "")
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{
		"custom_epic_conventions.yaml",
		"fix_version_sentinels.yaml",
		"invalid_filters.yaml",
		"paging.yaml",
		"project_breakdown.yaml",
	}, names)
}

func TestDiscoverScenarios_Pattern(t *testing.T) {
	paths, err := DiscoverScenarios("testdata/scenarios", "p*")
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	_, err = DiscoverScenarios("testdata/scenarios", "zzz*")
	var nse *NoScenariosError
	require.ErrorAs(t, err, &nse)
	assert.Contains(t, err.Error(), `matching "zzz*"`)

	_, err = DiscoverScenarios("testdata/scenarios", "[")
	assert.Error(t, err)
}

func TestDiscoverScenarios_SkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "notes.txt", "hello")

	_, err := DiscoverScenarios(dir, "")
	var nse *NoScenariosError
	assert.ErrorAs(t, err, &nse)

	_, err = DiscoverScenarios(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)
}

func TestRunSuite(t *testing.T) {
	suite, err := RunSuite(context.Background(), "testdata/scenarios", "")
	require.NoError(t, err)

	assert.Equal(t, 5, suite.Total)
	assert.Equal(t, 5, suite.Passed)
	assert.Equal(t, 0, suite.Failed)
	for _, sr := range suite.Scenarios {
		assert.True(t, sr.Pass, "%s: %v", sr.Name, sr.Errors)
		assert.NotNil(t, sr.Result)
	}
}

func TestRunSuite_CountsBrokenScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a_broken.yaml", "name: [")
	writeScenario(t, dir, "b_failing.yaml", `
name: failing
description: expects the wrong count
requests:
  - name: r
    report: projects
    filter: {project_ids: [10]}
    expect: {count: 5}
`)
	writeScenario(t, dir, "c_passing.yaml", `
name: passing
description: one project
requests:
  - name: r
    report: projects
    filter: {project_ids: [10]}
    expect: {count: 1, keys: [ALPHA]}
`)

	suite, err := RunSuite(context.Background(), dir, "")
	require.NoError(t, err)

	assert.Equal(t, 3, suite.Total)
	assert.Equal(t, 1, suite.Passed)
	assert.Equal(t, 2, suite.Failed)

	broken := suite.Scenarios[0]
	assert.Equal(t, "a_broken", broken.Name)
	assert.False(t, broken.Pass)
	assert.Contains(t, broken.Errors[0], "failed to load scenario")
	assert.Nil(t, broken.Result)

	failing := suite.Scenarios[1]
	assert.Equal(t, "failing", failing.Name)
	assert.Contains(t, failing.Errors[0], "expected count 5, got 1")

	assert.Equal(t, "passing", suite.Scenarios[2].Name)
	assert.True(t, suite.Scenarios[2].Pass)
}
