package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/worklens/internal/querysql"
)

func TestLinkBatches_SortsAndDeduplicates(t *testing.T) {
	assert.Equal(t, [][]int64{{1, 2, 5}}, LinkBatches([]int64{5, 1, 2, 5, 1}))
}

func TestLinkBatches_Empty(t *testing.T) {
	assert.Empty(t, LinkBatches(nil))
	assert.Empty(t, LinkBatches([]int64{}))
}

func TestLinkBatches_SplitsAtBatchSize(t *testing.T) {
	ids := make([]int64, 2*LinkBatchSize+1)
	for i := range ids {
		ids[i] = int64(len(ids) - i)
	}

	batches := LinkBatches(ids)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], LinkBatchSize)
	assert.Len(t, batches[1], LinkBatchSize)
	assert.Equal(t, []int64{int64(len(ids))}, batches[2])
	assert.Equal(t, int64(1), batches[0][0])
}

func TestLinkBatches_DoesNotAliasInput(t *testing.T) {
	ids := []int64{3, 2, 1}
	LinkBatches(ids)
	assert.Equal(t, []int64{3, 2, 1}, ids)
}

func TestBuildLinkQuery_SQL(t *testing.T) {
	sel, err := BuildLinkQuery(LinkComponents, []int64{1, 2})
	require.NoError(t, err)

	sql, params, err := querysql.NewSQLCompiler(querysql.SQLite).Compile(sel)
	require.NoError(t, err)

	want := "SELECT link.source_node_id AS issue_id, link_dim.cname AS name " +
		"FROM nodeassociation link JOIN component link_dim ON link_dim.id = link.sink_node_id " +
		"WHERE link.source_node_id IN (?, ?) AND link.source_node_entity = 'Issue' AND " +
		"link.sink_node_entity = 'Component' AND link.association_type = 'IssueComponent' " +
		"ORDER BY link.source_node_id ASC, link.sequence ASC, link.sink_node_id ASC"
	assert.Equal(t, want, sql)
	assert.Equal(t, []any{int64(1), int64(2)}, params)
}

func TestBuildLinkQuery_VersionKinds(t *testing.T) {
	compiler := querysql.NewSQLCompiler(querysql.SQLite)

	sel, err := BuildLinkQuery(LinkAffectedVersions, []int64{1})
	require.NoError(t, err)
	sql, _, err := compiler.Compile(sel)
	require.NoError(t, err)
	assert.Contains(t, sql, "link_dim.vname AS name")
	assert.Contains(t, sql, "'IssueVersion'")

	sel, err = BuildLinkQuery(LinkFixVersions, []int64{1})
	require.NoError(t, err)
	sql, _, err = compiler.Compile(sel)
	require.NoError(t, err)
	assert.Contains(t, sql, "'IssueFixVersion'")
}

func TestBuildLinkQuery_UnknownKind(t *testing.T) {
	_, err := BuildLinkQuery(LinkKind(42), []int64{1})
	assert.Error(t, err)
}

func TestMergeLinks_AttachesCopiesInRowOrder(t *testing.T) {
	rows := []IssueRow{{IssueID: 2}, {IssueID: 1}, {IssueID: 2}}
	links := Links{
		LinkComponents: {2: {"UI", "API"}},
		LinkFixVersions: {
			1: {"1.0"},
		},
	}

	out := MergeLinks(rows, links, func(r IssueRow) int64 { return r.IssueID }, attachIssue)

	require.Len(t, out, 3)
	assert.Equal(t, []int64{2, 1, 2}, []int64{out[0].IssueID, out[1].IssueID, out[2].IssueID})
	assert.Equal(t, []string{"UI", "API"}, out[0].Components)
	assert.Equal(t, []string{}, out[1].Components)
	assert.Equal(t, []string{"1.0"}, out[1].FixVersions)
	assert.NotNil(t, out[0].AffectedVersions)
	assert.Empty(t, out[0].AffectedVersions)

	out[0].Components[0] = "changed"
	assert.Equal(t, "UI", out[2].Components[0], "rows must not share lists")
	assert.Equal(t, "UI", links[LinkComponents][2][0], "resolved map must stay untouched")
	assert.Nil(t, rows[0].Components, "input rows must stay untouched")
}

func TestLinks_Names(t *testing.T) {
	var l Links
	assert.Equal(t, []string{}, l.Names(LinkComponents, 1))

	l = Links{LinkComponents: {1: {"UI"}}}
	assert.Equal(t, []string{"UI"}, l.Names(LinkComponents, 1))
	assert.Equal(t, []string{}, l.Names(LinkFixVersions, 1))
}
