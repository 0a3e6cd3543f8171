package filter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RequiresProjectScope(t *testing.T) {
	err := Validate(Spec{})
	require.Error(t, err)
	assert.True(t, IsInvalidFilter(err))

	var fe *InvalidFilterError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ErrCodeNoProjectScope, fe.Code)
	assert.Equal(t, "project_ids", fe.Field)
}

func TestValidate_Sentinels(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr string
	}{
		{"released on fix versions", Spec{FixVersions: Only(Released | Unreleased | Missing)}, ""},
		{"missing on components", Spec{Components: Only(Missing)}, ""},
		{"released on components", Spec{Components: Only(Released)}, "components"},
		{"unreleased on affected versions", Spec{AffectedVersions: Only(Unreleased)}, "affected_versions"},
		{"released on assignees", Spec{Assignees: Only(Released)}, "assignees"},
		{"released on resolutions", Spec{Resolutions: Only(Released)}, "resolutions"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.spec.ProjectIDs = []int64{1}
			err := Validate(tt.spec)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var fe *InvalidFilterError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, ErrCodeUnknownSentinel, fe.Code)
			assert.Equal(t, tt.wantErr, fe.Field)
		})
	}
}

func TestValidate_MalformedValues(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		spec  Spec
		field string
	}{
		{"bad issue key", Spec{IssueKeys: []string{"P1"}}, "issue_keys"},
		{"inverted created range", Spec{IssueCreated: DateRange{From: day, To: day.AddDate(0, 0, -1)}}, "issue_created"},
		{"empty worklog range", Spec{Worklog: DateRange{From: day, To: day}}, "worklog"},
		{"negative offset", Spec{Page: Page{Offset: -1}}, "offset"},
		{"negative limit", Spec{Page: Page{Limit: -5}}, "limit"},
		{"unknown order", Spec{Order: Order{Column: "color"}}, "order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.spec.ProjectIDs = []int64{1}
			err := Validate(tt.spec)
			var fe *InvalidFilterError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, ErrCodeMalformedValue, fe.Code)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestValidate_OpenRangesAccepted(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	spec := Spec{
		ProjectIDs:   []int64{1},
		IssueCreated: DateRange{From: day},
		Worklog:      DateRange{To: day},
	}
	assert.NoError(t, Validate(spec))
}

func TestParseIssueKey(t *testing.T) {
	tests := []struct {
		key     string
		project string
		num     int64
		wantErr bool
	}{
		{"P1-12", "P1", 12, false},
		{"MY-PROJ-7", "MY-PROJ", 7, false},
		{"-7", "", 0, true},
		{"P1-", "", 0, true},
		{"P1-x", "", 0, true},
		{"P1-0", "", 0, true},
		{"P1", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			project, num, err := ParseIssueKey(tt.key)
			if tt.wantErr {
				assert.True(t, IsInvalidFilter(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.project, project)
			assert.Equal(t, tt.num, num)
		})
	}
}

func TestInvalidFilterErrorWrapped(t *testing.T) {
	err := fmt.Errorf("build report: %w", NewNoProjectScopeError())
	assert.True(t, IsInvalidFilter(err))
	assert.Contains(t, err.Error(), "NO_PROJECT_SCOPE")
	assert.False(t, IsInvalidFilter(errors.New("other")))
}
