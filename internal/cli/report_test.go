package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worklens/internal/report"
)

type pageResponse struct {
	Status    string      `json:"status"`
	RequestID string      `json:"request_id"`
	Data      report.Page `json:"data"`
}

func worklogIDs(rows []report.WorklogRow) []int64 {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.WorklogID
	}
	return ids
}

func TestList_WorklogsJSON(t *testing.T) {
	db := trackerDB(t)

	out, err := execute(t, "list", "worklogs", "--db", db, "-p", "10,20", "--limit", "2", "--format", "json")
	require.NoError(t, err)

	var resp pageResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, resp.Data.RequestID)
	assert.Equal(t, []int64{5004, 5001}, worklogIDs(resp.Data.Worklogs))
	assert.Equal(t, int64(7), resp.Data.Count)
	assert.Equal(t, report.Totals{TimeWorked: 22200, OriginalEstimate: 61200, RemainingEstimate: 28800}, resp.Data.Total)
}

func TestList_WorklogsText(t *testing.T) {
	db := trackerDB(t)

	out, err := execute(t, "list", "worklogs", "--db", db, "-p", "10,20", "--limit", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "ISSUE")
	assert.Contains(t, out, "ALPHA-1")
	assert.Contains(t, out, "2 of 7 worklogs")
	assert.Contains(t, out, "Total: worked 6h10m, original estimate 17h00m, remaining 8h00m")
}

func TestList_OrderAndOffset(t *testing.T) {
	db := trackerDB(t)

	out, err := execute(t, "list", "worklogs", "--db", db, "-p", "10,20",
		"--offset", "4", "--format", "json")
	require.NoError(t, err)

	var resp pageResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []int64{5005, 5006, 5007}, worklogIDs(resp.Data.Worklogs))
	assert.Equal(t, int64(7), resp.Data.Count)
}

func TestList_NoProjectMeansEveryProject(t *testing.T) {
	db := trackerDB(t)

	out, err := execute(t, "list", "projects", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp pageResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Data.Groups, 3)
	assert.Equal(t, int64(23400), resp.Data.Total.TimeWorked)
}

func TestList_Rejections(t *testing.T) {
	db := trackerDB(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"unknown kind", []string{"list", "teams"}, ExitCommandError, "unknown report kind"},
		{"project outside the store", []string{"list", "issues", "-p", "99"}, ExitFailure, "NO_PROJECT_SCOPE"},
		{"bad order column", []string{"list", "worklogs", "--order-by", "colour"}, ExitFailure, "MALFORMED_VALUE"},
		{"negative limit", []string{"list", "worklogs", "--limit", "-1"}, ExitFailure, "MALFORMED_VALUE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append(tt.args, "--db", db)...)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, GetExitCode(err))
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestList_FilterFile(t *testing.T) {
	db := trackerDB(t)
	f := writeTemp(t, "backend.yaml", "project_ids: [10, 20]\nlabels: [backend]\n")

	out, err := execute(t, "list", "issues", "--db", db, "-f", f, "--format", "json")
	require.NoError(t, err)

	var resp pageResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	keys := make([]string, len(resp.Data.Issues))
	for i, r := range resp.Data.Issues {
		keys[i] = r.IssueKey
	}
	assert.Equal(t, []string{"ALPHA-3", "BETA-1"}, keys)

	out, err = execute(t, "count", "issues", "--db", db, "-f", f, "-p", "20")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out, "--project replaces the file's projects")
}

func TestCount(t *testing.T) {
	db := trackerDB(t)

	out, err := execute(t, "count", "issues", "--db", db, "-p", "10")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	out, err = execute(t, "count", "users", "--db", db, "-p", "10,20", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data struct {
			Kind  string `json:"kind"`
			Count int64  `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "users", resp.Data.Kind)
	assert.Equal(t, int64(3), resp.Data.Count)
}

func TestTotal(t *testing.T) {
	db := trackerDB(t)

	out, err := execute(t, "total", "--db", db, "-p", "10,20")
	require.NoError(t, err)
	assert.Equal(t, "Total: worked 6h10m, original estimate 17h00m, remaining 8h00m\n", out)

	out, err = execute(t, "total", "--db", db, "-p", "10,20", "--by", "project", "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data report.AggregateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(22200), resp.Data.Total.TimeWorked)
	require.Len(t, resp.Data.Groups, 2)
	assert.Equal(t, resp.Data.Total, resp.Data.Groups[0].Totals.Add(resp.Data.Groups[1].Totals))

	out, err = execute(t, "total", "--db", db, "-p", "10", "--by", "user")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice Archer")

	_, err = execute(t, "total", "--db", db, "--by", "team")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSeconds(t *testing.T) {
	assert.Equal(t, "0m", seconds(0))
	assert.Equal(t, "15m", seconds(900))
	assert.Equal(t, "1h00m", seconds(3600))
	assert.Equal(t, "2h05m", seconds(7500))
}
