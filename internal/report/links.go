package report

import (
	"slices"

	"github.com/roach88/worklens/internal/ir"
	"github.com/roach88/worklens/internal/queryir"
	"github.com/roach88/worklens/internal/schema"
)

// LinkBatchSize caps the issue ids bound into one link query.
const LinkBatchSize = 500

// Links holds resolved attribute names per kind, then per issue id.
type Links map[LinkKind]map[int64][]string

// Names returns the names of one issue, or an empty list.
func (l Links) Names(kind LinkKind, issueID int64) []string {
	names := l[kind][issueID]
	if names == nil {
		return []string{}
	}
	return names
}

// BuildLinkQuery builds the side query resolving one link kind for a batch
// of issues:
//
//	SELECT link.source_node_id AS issue_id, link_dim.<name> AS name
//	FROM nodeassociation link JOIN <dimension> link_dim ON link_dim.id = link.sink_node_id
//	WHERE link.source_node_id IN (...) AND <kind and entity constants>
//	ORDER BY link.source_node_id, link.sequence, link.sink_node_id
//
// Rows of one issue are adjacent and keep association order. Ids are bound
// as given; callers batch them with LinkBatches.
func BuildLinkQuery(kind LinkKind, issueIDs []int64) (queryir.Select, error) {
	d, err := kind.dim()
	if err != nil {
		return queryir.Select{}, err
	}
	c := queryir.C
	return queryir.Select{
		Projections: []queryir.Projection{
			proj(c("link", "source_node_id"), "issue_id"),
			proj(c("link_dim", d.nameCol), "name"),
		},
		Relation: queryir.Relation{
			From: queryir.Table{Name: "nodeassociation", Alias: "link"},
			Joins: []queryir.Join{
				innerJoin(d.table, "link_dim", queryir.Equals(c("link_dim", "id"), c("link", "sink_node_id"))),
			},
		},
		Filter: queryir.AllOf(
			queryir.In{Left: c("link", "source_node_id"), Values: ir.Ints(issueIDs)},
			queryir.Equals(c("link", "source_node_entity"), queryir.Const{Value: schema.EntityIssue}),
			queryir.Equals(c("link", "sink_node_entity"), queryir.Const{Value: d.sink}),
			queryir.Equals(c("link", "association_type"), queryir.Const{Value: d.assoc}),
		),
		OrderBy: []queryir.OrderTerm{
			{Expr: c("link", "source_node_id")},
			{Expr: c("link", "sequence")},
			{Expr: c("link", "sink_node_id")},
		},
	}, nil
}

// LinkBatches sorts and de-duplicates ids and splits them into batches of
// at most LinkBatchSize. No ids yields no batches.
func LinkBatches(issueIDs []int64) [][]int64 {
	ids := slices.Clone(issueIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	var batches [][]int64
	for len(ids) > 0 {
		n := min(len(ids), LinkBatchSize)
		batches = append(batches, ids[:n:n])
		ids = ids[n:]
	}
	return batches
}

// MergeLinks attaches the resolved lists to rows and returns the rows in
// their original order. Issues absent from a kind's map get an empty list.
// Each row receives its own copy of every list.
func MergeLinks[R any](rows []R, links Links, issueID func(R) int64, attach func(*R, LinkKind, []string)) []R {
	out := slices.Clone(rows)
	for i := range out {
		id := issueID(out[i])
		for _, kind := range LinkKinds() {
			attach(&out[i], kind, append([]string{}, links.Names(kind, id)...))
		}
	}
	return out
}

func attachWorklog(r *WorklogRow, kind LinkKind, names []string) {
	switch kind {
	case LinkComponents:
		r.Components = names
	case LinkAffectedVersions:
		r.AffectedVersions = names
	case LinkFixVersions:
		r.FixVersions = names
	}
}

func attachIssue(r *IssueRow, kind LinkKind, names []string) {
	switch kind {
	case LinkComponents:
		r.Components = names
	case LinkAffectedVersions:
		r.AffectedVersions = names
	case LinkFixVersions:
		r.FixVersions = names
	}
}
