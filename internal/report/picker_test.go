package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worklens/internal/filter"
)

func TestPickers_Projects(t *testing.T) {
	e := newTestEngine(t)

	got, err := e.Projects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ProjectOption{
		{ID: 10, Key: "ALPHA", Name: "Alpha"},
		{ID: 20, Key: "BETA", Name: "Beta"},
		{ID: 30, Key: "GAMMA", Name: "Gamma"},
	}, got)
}

func TestPickers_Components(t *testing.T) {
	e := newTestEngine(t)

	got, err := e.Components(context.Background(), []int64{alpha})
	require.NoError(t, err)
	assert.Equal(t, []PickerOption{
		{Label: "No component", Sentinel: filter.Missing},
		{Value: "API", Label: "API"},
		{Value: "UI", Label: "UI"},
	}, got)
}

func TestPickers_Versions(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	fix, err := e.Versions(ctx, LinkFixVersions, []int64{alpha, beta})
	require.NoError(t, err)
	assert.Equal(t, []PickerOption{
		{Label: "No version", Sentinel: filter.Missing},
		{Label: "Released versions", Sentinel: filter.Released},
		{Label: "Unreleased versions", Sentinel: filter.Unreleased},
		{Value: "1.0", Label: "1.0"},
		{Value: "2.0", Label: "2.0"},
		{Value: "b1", Label: "b1"},
	}, fix)

	affected, err := e.Versions(ctx, LinkAffectedVersions, []int64{beta})
	require.NoError(t, err)
	assert.Equal(t, []PickerOption{
		{Label: "No version", Sentinel: filter.Missing},
		{Value: "b1", Label: "b1"},
	}, affected)

	_, err = e.Versions(ctx, LinkComponents, []int64{alpha})
	assert.Error(t, err)
}

func TestPickers_Assignees(t *testing.T) {
	e := newTestEngine(t)

	got, err := e.Users(context.Background(), []int64{alpha, beta}, true)
	require.NoError(t, err)
	assert.Equal(t, []PickerOption{
		{Label: "Unassigned", Sentinel: filter.Missing},
		{Value: "JIRAUSER1", Label: "Alice Archer"},
		{Value: "JIRAUSER2", Label: "Bob Baker"},
		{Value: "carol", Label: "carol"},
	}, got)
}

func TestPickers_WorklogAuthorsOfferLogins(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	got, err := e.Users(ctx, []int64{alpha}, false)
	require.NoError(t, err)
	assert.Equal(t, []PickerOption{
		{Value: "alice", Label: "Alice Archer"},
		{Value: "bob", Label: "Bob Baker"},
	}, got)

	// Every offered login is accepted by the worklog author filter.
	spec := scope(alpha)
	for _, o := range got {
		spec.WorklogAuthors = append(spec.WorklogAuthors, o.Value)
	}
	rows, err := e.WorklogDetails(ctx, spec)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestPickers_EpicLinks(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	got, err := e.EpicLinks(ctx, []int64{alpha, beta})
	require.NoError(t, err)
	assert.Equal(t, []PickerOption{{Value: "1001", Label: "ALPHA-1 Login Revamp"}}, got)

	none, err := e.EpicLinks(ctx, []int64{gamma})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPickerOption_SentinelName(t *testing.T) {
	assert.Equal(t, "", PickerOption{Value: "UI"}.SentinelName())
	assert.Equal(t, "released", PickerOption{Sentinel: filter.Released}.SentinelName())
}
