package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/queryir"
	"github.com/roach88/worklens/internal/querysql"
	"github.com/roach88/worklens/internal/schema"
)

// where compiles a predicate on its own and returns the WHERE clause text.
func where(t *testing.T, pred queryir.Predicate) (string, []any) {
	t.Helper()
	sel := queryir.Select{
		Projections: []queryir.Projection{{Expr: queryir.C("i", "id")}},
		Relation:    queryir.Relation{From: queryir.Table{Name: "jiraissue", Alias: "i"}},
		Filter:      pred,
	}
	sql, params, err := querysql.NewSQLCompiler(querysql.SQLite).Compile(sel)
	require.NoError(t, err)

	const prefix = "SELECT i.id FROM jiraissue i WHERE "
	require.True(t, strings.HasPrefix(sql, prefix), sql)
	return strings.TrimPrefix(sql, prefix), params
}

func predicateSQL(t *testing.T, spec filter.Spec) (string, []any) {
	t.Helper()
	pred, err := BuildPredicate(spec, schema.DefaultConventions())
	require.NoError(t, err)
	return where(t, pred)
}

func TestBuildPredicate_ProjectScopeOnly(t *testing.T) {
	sql, params := predicateSQL(t, filter.Spec{ProjectIDs: []int64{20, 10, 20}})

	assert.Equal(t, "i.project IN (?, ?)", sql)
	assert.Equal(t, []any{int64(10), int64(20)}, params)
}

func TestBuildPredicate_RequiresProjectScope(t *testing.T) {
	_, err := BuildPredicate(filter.Spec{Labels: []string{"x"}}, schema.DefaultConventions())
	require.Error(t, err)

	var fe *filter.InvalidFilterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, filter.ErrCodeNoProjectScope, fe.Code)
}

func TestBuildPredicate_RejectsUnofferedSentinel(t *testing.T) {
	_, err := BuildPredicate(filter.Spec{
		ProjectIDs: []int64{10},
		Components: filter.Only(filter.Released),
	}, schema.DefaultConventions())

	var fe *filter.InvalidFilterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, filter.ErrCodeUnknownSentinel, fe.Code)
	assert.Equal(t, "components", fe.Field)
}

func TestBuildPredicate_EmptyDimensionsAreNeutral(t *testing.T) {
	base, baseParams := predicateSQL(t, filter.Spec{ProjectIDs: []int64{10}})

	empty, emptyParams := predicateSQL(t, filter.Spec{
		ProjectIDs:       []int64{10},
		IssueIDs:         []int64{},
		IssueKeys:        []string{},
		StatusIDs:        []string{},
		Resolutions:      filter.Selection{Values: []string{}},
		Assignees:        filter.Selection{},
		Components:       filter.Members(),
		FixVersions:      filter.Selection{Values: []string{}, Sentinels: 0},
		Labels:           []string{},
		EpicLinkIssueIDs: []int64{},
		EpicName:         "",
	})

	assert.Equal(t, base, empty)
	assert.Equal(t, baseParams, emptyParams)
}

func TestBuildPredicate_SentinelOrMembers(t *testing.T) {
	sql, params := predicateSQL(t, filter.Spec{
		ProjectIDs: []int64{10},
		Components: filter.Selection{Values: []string{"UI"}, Sentinels: filter.Missing},
	})

	links := "link.source_node_id = i.id AND link.source_node_entity = 'Issue' AND " +
		"link.sink_node_entity = 'Component' AND link.association_type = 'IssueComponent'"
	want := "i.project IN (?) AND (" +
		"EXISTS (SELECT link.sink_node_id FROM nodeassociation link JOIN component link_dim ON link_dim.id = link.sink_node_id WHERE " +
		links + " AND link_dim.cname IN (?)) OR " +
		"NOT EXISTS (SELECT link.sink_node_id FROM nodeassociation link JOIN component link_dim ON link_dim.id = link.sink_node_id WHERE " +
		links + "))"

	assert.Equal(t, want, sql)
	assert.Equal(t, []any{int64(10), "UI"}, params)
}

func TestBuildPredicate_NullableColumnSentinel(t *testing.T) {
	sql, params := predicateSQL(t, filter.Spec{
		ProjectIDs:  []int64{10},
		Resolutions: filter.Selection{Values: []string{"1"}, Sentinels: filter.Missing},
		Assignees:   filter.Only(filter.Missing),
	})

	assert.Equal(t, "i.project IN (?) AND i.assignee IS NULL AND (i.resolution IN (?) OR i.resolution IS NULL)", sql)
	assert.Equal(t, []any{int64(10), "1"}, params)
}

func TestBuildPredicate_FixVersionSentinels(t *testing.T) {
	sql, _ := predicateSQL(t, filter.Spec{
		ProjectIDs:  []int64{10},
		FixVersions: filter.Only(filter.Released | filter.Unreleased),
	})

	assert.Contains(t, sql, "link.association_type = 'IssueFixVersion'")
	assert.Contains(t, sql, "JOIN projectversion link_dim ON link_dim.id = link.sink_node_id")
	assert.Contains(t, sql, "LOWER(link_dim.released) = 'true'")
	assert.Contains(t, sql, "link_dim.released IS NULL")
	assert.NotContains(t, sql, "NOT EXISTS")
}

func TestBuildPredicate_IssueIDsOrKeys(t *testing.T) {
	sql, params := predicateSQL(t, filter.Spec{
		ProjectIDs: []int64{10},
		IssueIDs:   []int64{1003},
		IssueKeys:  []string{"ALPHA-2"},
	})

	want := "i.project IN (?) AND (i.id IN (?) OR i.id IN (" +
		"SELECT key_issue.id FROM jiraissue key_issue JOIN project key_project ON key_project.id = key_issue.project " +
		"WHERE key_project.pkey = ? AND key_issue.issuenum = ?))"
	assert.Equal(t, want, sql)
	assert.Equal(t, []any{int64(10), int64(1003), "ALPHA", int64(2)}, params)
}

func TestBuildPredicate_HyphenatedProjectKey(t *testing.T) {
	_, params := predicateSQL(t, filter.Spec{
		ProjectIDs: []int64{10},
		IssueKeys:  []string{"OPS-EU-12"},
	})
	assert.Equal(t, []any{int64(10), "OPS-EU", int64(12)}, params)
}

func TestBuildPredicate_EpicNameEscapesWildcards(t *testing.T) {
	sql, params := predicateSQL(t, filter.Spec{
		ProjectIDs: []int64{10},
		EpicName:   `50%_Off\`,
	})

	assert.Contains(t, sql, `LOWER(epic_value.stringvalue) LIKE ? ESCAPE '\'`)
	assert.Equal(t, []any{int64(10), schema.DefaultEpicNameField, `50\%\_off\\%`}, params)
}

func TestBuildPredicate_EpicConventions(t *testing.T) {
	conv := schema.Conventions{EpicLinkType: "Parent Link", EpicNameField: "Epic Title"}
	pred, err := BuildPredicate(filter.Spec{
		ProjectIDs:       []int64{10},
		EpicLinkIssueIDs: []int64{7, 3},
		EpicName:         "x",
	}, conv)
	require.NoError(t, err)

	sql, params := where(t, pred)
	assert.Contains(t, sql, "epic_link.destination = i.id AND epic_link.source IN (?, ?)")
	assert.Equal(t, []any{int64(10), int64(3), int64(7), "Parent Link", "Epic Title", "x%"}, params)
}

func TestBuildPredicate_WorklogAuthorsMatchLowercasedLogins(t *testing.T) {
	sql, params := predicateSQL(t, filter.Spec{
		ProjectIDs:     []int64{10},
		WorklogAuthors: []string{"Alice", "BOB"},
	})

	assert.Equal(t, "i.project IN (?) AND w.author IN (SELECT login.user_key FROM app_user login WHERE login.lower_user_name IN (?, ?))", sql)
	assert.Equal(t, []any{int64(10), "alice", "bob"}, params)
}

func TestBuildPredicate_DateRanges(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	sql, params := predicateSQL(t, filter.Spec{
		ProjectIDs:   []int64{10},
		IssueCreated: filter.DateRange{From: from},
		Worklog:      filter.DateRange{From: from, To: to},
	})

	assert.Equal(t, "i.project IN (?) AND i.created >= ? AND w.startdate >= ? AND w.startdate < ?", sql)
	require.Len(t, params, 4)
	assert.True(t, from.Equal(params[1].(time.Time)))
	assert.True(t, to.Equal(params[3].(time.Time)))
}

func TestBuildPredicate_FragmentOrder(t *testing.T) {
	sql, _ := predicateSQL(t, filter.Spec{
		ProjectIDs:       []int64{10},
		IssueTypeIDs:     []string{"1"},
		IssueIDs:         []int64{1},
		AffectedVersions: filter.Only(filter.Missing),
		FixVersions:      filter.Only(filter.Released),
		Assignees:        filter.Members("JIRAUSER1"),
		Components:       filter.Members("UI"),
		EpicLinkIssueIDs: []int64{1},
		EpicName:         "e",
		IssueCreated:     filter.DateRange{From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		ReporterKeys:     []string{"JIRAUSER2"},
		PriorityIDs:      []string{"2"},
		Resolutions:      filter.Members("1"),
		StatusIDs:        []string{"3"},
		Labels:           []string{"l"},
		WorklogAuthors:   []string{"alice"},
		Worklog:          filter.DateRange{To: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	})

	markers := []string{
		"i.project IN",
		"i.issuetype IN",
		"i.id IN",
		"'IssueVersion'",
		"'IssueFixVersion'",
		"i.assignee IN",
		"'IssueComponent'",
		"FROM issuelink epic_link",
		"FROM customfieldvalue epic_value",
		"i.created >=",
		"i.reporter IN",
		"i.priority IN",
		"i.resolution IN",
		"i.issuestatus IN",
		"FROM label lbl",
		"w.author IN",
		"w.startdate <",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(sql, m)
		require.GreaterOrEqual(t, idx, 0, "missing %q", m)
		assert.Greater(t, idx, last, "%q out of order", m)
		last = idx
	}
}

func TestBuildPredicate_SetOrderDoesNotMatter(t *testing.T) {
	a, aParams := predicateSQL(t, filter.Spec{
		ProjectIDs:  []int64{20, 10},
		Labels:      []string{"b", "a", "b"},
		FixVersions: filter.Selection{Values: []string{"2.0", "1.0"}, Sentinels: filter.Missing},
	})
	b, bParams := predicateSQL(t, filter.Spec{
		ProjectIDs:  []int64{10, 20},
		Labels:      []string{"a", "b"},
		FixVersions: filter.Selection{Values: []string{"1.0", "2.0"}, Sentinels: filter.Missing},
	})

	assert.Equal(t, a, b)
	assert.Equal(t, aParams, bParams)
}

func TestBuildPredicate_DoesNotMutateSpec(t *testing.T) {
	spec := filter.Spec{ProjectIDs: []int64{20, 10}, Labels: []string{"b", "a"}}
	_, err := BuildPredicate(spec, schema.DefaultConventions())
	require.NoError(t, err)

	assert.Equal(t, []int64{20, 10}, spec.ProjectIDs)
	assert.Equal(t, []string{"b", "a"}, spec.Labels)
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"a_b", `a\_b`},
		{`c:\tmp`, `c:\\tmp`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeLike(tt.in))
		})
	}
}
