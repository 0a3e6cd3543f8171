package report

import (
	"fmt"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/ir"
	"github.com/roach88/worklens/internal/queryir"
	"github.com/roach88/worklens/internal/schema"
)

// Totals are summed seconds.
type Totals struct {
	TimeWorked        int64 `json:"time_worked"`
	OriginalEstimate  int64 `json:"original_estimate"`
	RemainingEstimate int64 `json:"remaining_estimate"`
}

// Add returns the element-wise sum.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		TimeWorked:        t.TimeWorked + o.TimeWorked,
		OriginalEstimate:  t.OriginalEstimate + o.OriginalEstimate,
		RemainingEstimate: t.RemainingEstimate + o.RemainingEstimate,
	}
}

// GroupTotals are the totals of one breakdown group.
//
// Key is the project key, the issue key or the author's user key.
// Label is the project name, the issue summary or the author's display name.
type GroupTotals struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Totals
}

// AggregateResult is the answer to an aggregate query.
// Groups is empty for BreakdownNone; otherwise Total is the sum of Groups.
type AggregateResult struct {
	Breakdown Breakdown     `json:"breakdown"`
	Total     Totals        `json:"total"`
	Groups    []GroupTotals `json:"groups"`
}

// BuildAggregateQuery builds the time sums of a report.
//
// The inner query sums worked time per issue (per issue and author for
// BreakdownUser) and takes each issue's estimates once. The outer query then
// either sums the per-issue rows into a single total row or re-joins them to
// project or issue and groups by the breakdown key:
//
//	SELECT ... FROM (
//	  SELECT i.id AS issue_id, SUM(w.timeworked) AS worked,
//	         MIN(i.timeoriginalestimate) AS original, MIN(i.timeestimate) AS remaining
//	  FROM <base relation> WHERE <predicate> GROUP BY i.id
//	) per_issue ...
//
// Estimates therefore count once per issue however many worklogs match.
// Under BreakdownUser an issue's estimates count once for every author who
// logged time on it.
func BuildAggregateQuery(spec filter.Spec, breakdown Breakdown, conv schema.Conventions) (queryir.Select, error) {
	pred, err := BuildPredicate(spec, conv)
	if err != nil {
		return queryir.Select{}, err
	}
	switch breakdown {
	case BreakdownNone, BreakdownProject, BreakdownIssue, BreakdownUser:
	default:
		return queryir.Select{}, fmt.Errorf("unknown breakdown %d", int(breakdown))
	}
	return aggregateSelect(pred, breakdown), nil
}

func perIssue(pred queryir.Predicate, byAuthor bool) queryir.Select {
	c := queryir.C
	sel := queryir.Select{
		Projections: []queryir.Projection{
			proj(c(aliasIssue, "id"), "issue_id"),
		},
		Relation: BaseRelation(),
		Filter:   pred,
		GroupBy:  []queryir.Expr{c(aliasIssue, "id")},
	}
	if byAuthor {
		sel.Projections = append(sel.Projections, proj(c(aliasWorklog, "author"), "author_key"))
		sel.GroupBy = append(sel.GroupBy, c(aliasWorklog, "author"))
	}
	sel.Projections = append(sel.Projections,
		proj(sumBigInt(c(aliasWorklog, "timeworked")), "worked"),
		proj(queryir.Agg{Func: queryir.AggMin, Arg: c(aliasIssue, "timeoriginalestimate")}, "original"),
		proj(queryir.Agg{Func: queryir.AggMin, Arg: c(aliasIssue, "timeestimate")}, "remaining"),
	)
	return sel
}

var zero ir.IRValue = ir.IRInt(0)

// totalsProjections sums the per-issue columns, treating NULL as zero.
func totalsProjections() []queryir.Projection {
	c := queryir.C
	sum := func(col string) queryir.Expr {
		return queryir.Coalesce{Args: []queryir.Expr{
			sumBigInt(c("per_issue", col)),
			queryir.Lit{Value: zero},
		}}
	}
	return []queryir.Projection{
		proj(sum("worked"), "worked"),
		proj(sum("original"), "original"),
		proj(sum("remaining"), "remaining"),
	}
}

func aggregateSelect(pred queryir.Predicate, breakdown Breakdown) queryir.Select {
	c := queryir.C
	inner := queryir.Derived{Query: perIssue(pred, breakdown == BreakdownUser), Alias: "per_issue"}

	switch breakdown {
	case BreakdownProject:
		return queryir.Select{
			Projections: append([]queryir.Projection{
				proj(c("group_project", "pkey"), "group_key"),
				proj(c("group_project", "pname"), "group_label"),
			}, totalsProjections()...),
			Relation: queryir.Relation{
				From: inner,
				Joins: []queryir.Join{
					innerJoin("jiraissue", "group_issue", queryir.Equals(c("group_issue", "id"), c("per_issue", "issue_id"))),
					innerJoin("project", "group_project", queryir.Equals(c("group_project", "id"), c("group_issue", "project"))),
				},
			},
			GroupBy: []queryir.Expr{c("group_project", "id"), c("group_project", "pkey"), c("group_project", "pname")},
			OrderBy: []queryir.OrderTerm{{Expr: c("group_project", "pkey")}},
		}

	case BreakdownIssue:
		return queryir.Select{
			Projections: append([]queryir.Projection{
				proj(issueKey("group_project", "group_issue"), "group_key"),
				proj(c("group_issue", "summary"), "group_label"),
			}, totalsProjections()...),
			Relation: queryir.Relation{
				From: inner,
				Joins: []queryir.Join{
					innerJoin("jiraissue", "group_issue", queryir.Equals(c("group_issue", "id"), c("per_issue", "issue_id"))),
					innerJoin("project", "group_project", queryir.Equals(c("group_project", "id"), c("group_issue", "project"))),
				},
			},
			GroupBy: []queryir.Expr{
				c("group_issue", "id"), c("group_project", "pkey"),
				c("group_issue", "issuenum"), c("group_issue", "summary"),
			},
			OrderBy: []queryir.OrderTerm{
				{Expr: c("group_project", "pkey")},
				{Expr: c("group_issue", "issuenum")},
			},
		}

	case BreakdownUser:
		return queryir.Select{
			Projections: append([]queryir.Projection{
				proj(c("per_issue", "author_key"), "group_key"),
				proj(DisplayName(c("per_issue", "author_key")), "group_label"),
			}, totalsProjections()...),
			Relation: queryir.Relation{From: inner},
			GroupBy:  []queryir.Expr{c("per_issue", "author_key")},
			OrderBy:  []queryir.OrderTerm{{Expr: c("per_issue", "author_key")}},
		}

	default:
		return queryir.Select{
			Projections: totalsProjections(),
			Relation:    queryir.Relation{From: inner},
		}
	}
}
