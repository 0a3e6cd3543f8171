package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/queryir"
	"github.com/roach88/worklens/internal/querysql"
	"github.com/roach88/worklens/internal/schema"
)

func compileSQLite(t *testing.T, sel queryir.Select) (string, []any) {
	t.Helper()
	sql, params, err := querysql.NewSQLCompiler(querysql.SQLite).Compile(sel)
	require.NoError(t, err)
	return sql, params
}

// busySpec constrains every many-valued dimension at once.
func busySpec() filter.Spec {
	return filter.Spec{
		ProjectIDs:       []int64{10, 20},
		Components:       filter.Selection{Values: []string{"UI"}, Sentinels: filter.Missing},
		AffectedVersions: filter.Members("1.0"),
		FixVersions:      filter.Only(filter.Released | filter.Unreleased),
		Labels:           []string{"backend"},
		EpicLinkIssueIDs: []int64{1001},
		EpicName:         "login",
	}
}

func TestBuilders_NeverJoinManyValuedTables(t *testing.T) {
	conv := schema.DefaultConventions()
	spec := busySpec()

	for _, kind := range []Kind{KindWorklogs, KindIssues, KindProjects, KindUsers} {
		t.Run("list "+kind.String(), func(t *testing.T) {
			sel, err := BuildListQuery(spec, kind, conv)
			require.NoError(t, err)
			res := queryir.Validate(sel, manyValuedTables...)
			assert.True(t, res.IsSafe, res.Warnings)
		})
		t.Run("count "+kind.String(), func(t *testing.T) {
			sel, err := BuildCountQuery(spec, kind, conv)
			require.NoError(t, err)
			res := queryir.Validate(sel, manyValuedTables...)
			assert.True(t, res.IsSafe, res.Warnings)
		})
	}
	for _, b := range []Breakdown{BreakdownNone, BreakdownProject, BreakdownIssue, BreakdownUser} {
		t.Run("aggregate "+b.String(), func(t *testing.T) {
			sel, err := BuildAggregateQuery(spec, b, conv)
			require.NoError(t, err)
			res := queryir.Validate(sel, manyValuedTables...)
			assert.True(t, res.IsSafe, res.Warnings)
		})
	}
}

func TestBuildListQuery_DefaultOrderWithoutPaging(t *testing.T) {
	sel, err := BuildListQuery(filter.Spec{ProjectIDs: []int64{10}}, KindWorklogs, schema.DefaultConventions())
	require.NoError(t, err)

	assert.Nil(t, sel.Limit)
	assert.Nil(t, sel.Offset)

	sql, _ := compileSQLite(t, sel)
	assert.True(t, strings.HasSuffix(sql, "ORDER BY p.pkey ASC, i.issuenum ASC, w.startdate ASC, w.id ASC"), sql)
}

func TestBuildListQuery_Paging(t *testing.T) {
	conv := schema.DefaultConventions()

	sel, err := BuildListQuery(filter.Spec{ProjectIDs: []int64{10}, Page: filter.Page{Limit: 25}}, KindWorklogs, conv)
	require.NoError(t, err)
	sql, params := compileSQLite(t, sel)
	assert.True(t, strings.HasSuffix(sql, "w.id ASC LIMIT ?"), sql)
	assert.Equal(t, int64(25), params[len(params)-1])

	sel, err = BuildListQuery(filter.Spec{ProjectIDs: []int64{10}, Page: filter.Page{Offset: 50, Limit: 25}}, KindWorklogs, conv)
	require.NoError(t, err)
	sql, params = compileSQLite(t, sel)
	assert.True(t, strings.HasSuffix(sql, "w.id ASC LIMIT ? OFFSET ?"), sql)
	assert.Equal(t, []any{int64(25), int64(50)}, params[len(params)-2:])
}

func TestBuildListQuery_OrderColumnLeads(t *testing.T) {
	sel, err := BuildListQuery(filter.Spec{
		ProjectIDs: []int64{10},
		Order:      filter.Order{Column: filter.ColumnTimeSpent, Desc: true},
	}, KindWorklogs, schema.DefaultConventions())
	require.NoError(t, err)

	sql, _ := compileSQLite(t, sel)
	assert.True(t, strings.HasSuffix(sql, "ORDER BY w.timeworked DESC, p.pkey ASC, i.issuenum ASC, w.startdate ASC, w.id ASC"), sql)
}

func TestBuildListQuery_EveryOrderColumnCompiles(t *testing.T) {
	for _, col := range filter.Columns() {
		t.Run(string(col), func(t *testing.T) {
			sel, err := BuildListQuery(filter.Spec{
				ProjectIDs: []int64{10},
				Order:      filter.Order{Column: col},
			}, KindWorklogs, schema.DefaultConventions())
			require.NoError(t, err)
			require.NotEmpty(t, orderExprs(col))
			assert.Len(t, sel.OrderBy, len(orderExprs(col))+4)
		})
	}
}

func TestBuildListQuery_IssueKeyExpression(t *testing.T) {
	sel, err := BuildListQuery(filter.Spec{ProjectIDs: []int64{10}}, KindIssues, schema.DefaultConventions())
	require.NoError(t, err)

	sql, _ := compileSQLite(t, sel)
	assert.Contains(t, sql, "(p.pkey || '-' || CAST(i.issuenum AS TEXT)) AS issue_key")
	assert.Contains(t, sql, "CAST(SUM(w.timeworked) AS BIGINT) AS time_worked")
	assert.Contains(t, sql, " GROUP BY i.id, ")
}

func TestBuildListQuery_UnknownKind(t *testing.T) {
	_, err := BuildListQuery(filter.Spec{ProjectIDs: []int64{10}}, Kind(42), schema.DefaultConventions())
	assert.Error(t, err)
}

func TestBuildListQuery_InvalidSpec(t *testing.T) {
	_, err := BuildListQuery(filter.Spec{}, KindWorklogs, schema.DefaultConventions())
	assert.True(t, filter.IsInvalidFilter(err))
}

func TestBuildCountQuery_Shape(t *testing.T) {
	sel, err := BuildCountQuery(filter.Spec{
		ProjectIDs: []int64{10},
		Page:       filter.Page{Offset: 10, Limit: 5},
	}, KindIssues, schema.DefaultConventions())
	require.NoError(t, err)

	sql, params := compileSQLite(t, sel)
	assert.True(t, strings.HasPrefix(sql, "SELECT COUNT(*) AS total FROM (SELECT i.id AS row_key FROM worklog w JOIN jiraissue i ON i.id = w.issueid"), sql)
	assert.True(t, strings.HasSuffix(sql, "WHERE i.project IN (?) GROUP BY i.id) grouped"), sql)
	assert.NotContains(t, sql, "OFFSET", "count ignores paging")
	assert.Contains(t, params, int64(10))
}

func TestBuildCountQuery_PrimaryKeys(t *testing.T) {
	tests := []struct {
		kind Kind
		key  string
	}{
		{KindWorklogs, "w.id AS row_key"},
		{KindIssues, "i.id AS row_key"},
		{KindProjects, "p.id AS row_key"},
		{KindUsers, "w.author AS row_key"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			sel, err := BuildCountQuery(filter.Spec{ProjectIDs: []int64{10}}, tt.kind, schema.DefaultConventions())
			require.NoError(t, err)
			sql, _ := compileSQLite(t, sel)
			assert.Contains(t, sql, tt.key)
		})
	}
}

func TestBuildAggregateQuery_EstimatesOncePerIssue(t *testing.T) {
	sel, err := BuildAggregateQuery(filter.Spec{ProjectIDs: []int64{10}}, BreakdownNone, schema.DefaultConventions())
	require.NoError(t, err)

	sql, _ := compileSQLite(t, sel)
	assert.True(t, strings.HasPrefix(sql,
		"SELECT COALESCE(CAST(SUM(per_issue.worked) AS BIGINT), ?) AS worked, "+
			"COALESCE(CAST(SUM(per_issue.original) AS BIGINT), ?) AS original, "+
			"COALESCE(CAST(SUM(per_issue.remaining) AS BIGINT), ?) AS remaining FROM (SELECT i.id AS issue_id, "+
			"CAST(SUM(w.timeworked) AS BIGINT) AS worked, MIN(i.timeoriginalestimate) AS original, MIN(i.timeestimate) AS remaining "+
			"FROM worklog w"), sql)
	assert.True(t, strings.HasSuffix(sql, "GROUP BY i.id) per_issue"), sql)
}

func TestBuildAggregateQuery_UserBreakdownGroupsByAuthor(t *testing.T) {
	sel, err := BuildAggregateQuery(filter.Spec{ProjectIDs: []int64{10}}, BreakdownUser, schema.DefaultConventions())
	require.NoError(t, err)

	sql, _ := compileSQLite(t, sel)
	assert.Contains(t, sql, "GROUP BY i.id, w.author) per_issue")
	assert.True(t, strings.HasSuffix(sql, "GROUP BY per_issue.author_key ORDER BY per_issue.author_key ASC"), sql)
}

func TestBuildAggregateQuery_UnknownBreakdown(t *testing.T) {
	_, err := BuildAggregateQuery(filter.Spec{ProjectIDs: []int64{10}}, Breakdown(9), schema.DefaultConventions())
	assert.Error(t, err)
}

func TestBaseRelation_IsFresh(t *testing.T) {
	a := BaseRelation()
	a.Joins = append(a.Joins[:1], queryir.Join{})
	b := BaseRelation()

	assert.Len(t, b.Joins, 8)
	assert.Equal(t, "project", b.Joins[1].Source.(queryir.Table).Name)
}
