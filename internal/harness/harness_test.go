package harness

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/report"
)

func int64p(n int64) *int64 { return &n }

func TestRun_ScenarioFiles(t *testing.T) {
	for _, name := range []string{
		"fix_version_sentinels",
		"project_breakdown",
		"invalid_filters",
		"paging",
		"custom_epic_conventions",
	} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.Len(t, result.Responses, len(scenario.Requests))
		})
	}
}

func TestRun_ResponseContent(t *testing.T) {
	scenario := &Scenario{
		Name:        "content",
		Description: "d",
		RequestID:   "req-1",
		Requests: []Request{
			{Name: "issues", Report: "issues", Filter: filter.File{ProjectIDs: []int64{10}}},
			{Name: "users", Aggregate: "user", Filter: filter.File{ProjectIDs: []int64{20}}},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	issues := result.Responses[0]
	assert.Equal(t, "report issues", issues.Op)
	assert.Equal(t, "req-1", issues.RequestID)
	assert.Len(t, issues.Fingerprint, 64)
	assert.Equal(t, []string{"ALPHA-1", "ALPHA-2", "ALPHA-3"}, issues.Keys)
	assert.Equal(t, int64(3), issues.Count)
	assert.Equal(t, report.Totals{TimeWorked: 13500, OriginalEstimate: 46800, RemainingEstimate: 21600}, issues.Total)

	users := result.Responses[1]
	assert.Equal(t, "aggregate user", users.Op)
	assert.Empty(t, users.RequestID)
	assert.Equal(t, []string{"JIRAUSER2", "carol"}, users.Keys)
	assert.Equal(t, int64(2), users.Count)
	assert.Equal(t, int64(8700), users.Total.TimeWorked)
	require.Len(t, users.Groups, 2)
	assert.Equal(t, "Bob Baker", users.Groups[0].Label)
}

func TestRun_ExpectMismatchesFail(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "d",
		Requests: []Request{
			{
				Name:   "worklogs",
				Report: "worklogs",
				Filter: filter.File{ProjectIDs: []int64{30}},
				Expect: &ExpectClause{
					Count: int64p(2),
					Keys:  []string{"9999"},
					Total: &TotalsClause{TimeWorked: 1},
				},
			},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "expected count 2, got 1")
	assert.Contains(t, result.Errors[1], "expected keys [9999], got [5008]")
	assert.Contains(t, result.Errors[2], "expected total")
}

func TestRun_EmptyKeysExpectation(t *testing.T) {
	scenario := &Scenario{
		Name:        "empty",
		Description: "d",
		Requests: []Request{
			{
				Name:   "nothing",
				Report: "worklogs",
				Filter: filter.File{ProjectIDs: []int64{10}, Labels: []string{"none"}},
				Expect: &ExpectClause{Count: int64p(0), Keys: []string{}, Total: &TotalsClause{}},
			},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnexpectedRejectionFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "rejected",
		Description: "d",
		Requests: []Request{
			{Name: "no_scope", Report: "worklogs"},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "filter rejected with NO_PROJECT_SCOPE")
	assert.Equal(t, "NO_PROJECT_SCOPE", result.Responses[0].Error)
}

func TestRun_ExpectedErrorNotRaised(t *testing.T) {
	scenario := &Scenario{
		Name:        "accepted",
		Description: "d",
		Requests: []Request{
			{
				Name:   "fine",
				Report: "worklogs",
				Filter: filter.File{ProjectIDs: []int64{10}},
				Expect: &ExpectClause{Error: "NO_PROJECT_SCOPE"},
			},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error NO_PROJECT_SCOPE, got success")
}

func TestRun_AssertionsOnRejectedRequestFail(t *testing.T) {
	scenario := &Scenario{
		Name:        "assert rejected",
		Description: "d",
		Requests: []Request{
			{Name: "bad", Report: "worklogs", Expect: &ExpectClause{Error: "NO_PROJECT_SCOPE"}},
		},
		Assertions: []Assertion{{Type: AssertKeyCount, Request: "bad"}},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `request "bad" was rejected with NO_PROJECT_SCOPE`)
}

func TestRun_MissingDatasetIsAnError(t *testing.T) {
	scenario := &Scenario{
		Name:        "no dataset",
		Description: "d",
		Dataset:     "testdata/datasets/missing.yaml",
		Requests:    []Request{{Name: "r", Report: "worklogs"}},
	}

	_, err := Run(context.Background(), scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load dataset")
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scenario := &Scenario{
		Name:        "cancelled",
		Description: "d",
		Requests:    []Request{{Name: "r", Report: "worklogs", Filter: filter.File{ProjectIDs: []int64{10}}}},
	}

	_, err := Run(ctx, scenario)
	assert.Error(t, err)
}

func TestRun_IsDeterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/paging.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	second, err := Run(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Responses, second.Responses)
}

func TestRun_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	scenario := &Scenario{
		Name:        "logged",
		Description: "d",
		Requests:    []Request{{Name: "r", Report: "projects", Filter: filter.File{ProjectIDs: []int64{10}}}},
	}

	_, err := Run(context.Background(), scenario, WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"scenario":"logged"`)
	assert.Contains(t, out, `"request":"r"`)
	assert.Contains(t, out, `"request_id":"test-request"`)
}
