package report

import (
	"fmt"
	"time"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/queryir"
	"github.com/roach88/worklens/internal/schema"
)

// WorklogRow is one line of the worklog detail report.
//
// User columns hold display names; AuthorKey keeps the raw key.
// The link lists are filled by MergeLinks and are never nil after it.
type WorklogRow struct {
	WorklogID         int64     `json:"worklog_id"`
	IssueID           int64     `json:"issue_id"`
	IssueKey          string    `json:"issue_key"`
	ProjectID         int64     `json:"project_id"`
	ProjectKey        string    `json:"project_key"`
	ProjectName       string    `json:"project_name"`
	Summary           string    `json:"summary"`
	IssueType         string    `json:"issue_type"`
	Status            string    `json:"status"`
	Priority          string    `json:"priority"`
	Resolution        string    `json:"resolution,omitempty"`
	Assignee          string    `json:"assignee,omitempty"`
	Reporter          string    `json:"reporter,omitempty"`
	Created           time.Time `json:"created"`
	Updated           time.Time `json:"updated"`
	OriginalEstimate  *int64    `json:"original_estimate,omitempty"`
	RemainingEstimate *int64    `json:"remaining_estimate,omitempty"`
	AuthorKey         string    `json:"author_key"`
	Author            string    `json:"author"`
	Body              string    `json:"body,omitempty"`
	Start             time.Time `json:"start"`
	WorklogCreated    time.Time `json:"worklog_created"`
	WorklogUpdated    time.Time `json:"worklog_updated"`
	TimeWorked        int64     `json:"time_worked"`
	Components        []string  `json:"components"`
	AffectedVersions  []string  `json:"affected_versions"`
	FixVersions       []string  `json:"fix_versions"`
}

// IssueRow is one line of the issue summary report.
type IssueRow struct {
	IssueID           int64     `json:"issue_id"`
	IssueKey          string    `json:"issue_key"`
	ProjectID         int64     `json:"project_id"`
	ProjectKey        string    `json:"project_key"`
	Summary           string    `json:"summary"`
	IssueType         string    `json:"issue_type"`
	Status            string    `json:"status"`
	Priority          string    `json:"priority"`
	Resolution        string    `json:"resolution,omitempty"`
	Assignee          string    `json:"assignee,omitempty"`
	Created           time.Time `json:"created"`
	OriginalEstimate  *int64    `json:"original_estimate,omitempty"`
	RemainingEstimate *int64    `json:"remaining_estimate,omitempty"`
	Worklogs          int64     `json:"worklogs"`
	TimeWorked        int64     `json:"time_worked"`
	Components        []string  `json:"components"`
	AffectedVersions  []string  `json:"affected_versions"`
	FixVersions       []string  `json:"fix_versions"`
}

// BuildListQuery builds the row query of a report.
//
// Worklog rows are ordered by the filter's order column, if any, then by
// issue key, worklog start and worklog id, so equal filters page stably.
// Issue rows are ordered by issue key. Project and user rows take the shape
// of the matching aggregate breakdown, ordered by group key.
//
// LIMIT and OFFSET are emitted only when the filter pages.
func BuildListQuery(spec filter.Spec, kind Kind, conv schema.Conventions) (queryir.Select, error) {
	pred, err := BuildPredicate(spec, conv)
	if err != nil {
		return queryir.Select{}, err
	}

	var sel queryir.Select
	switch kind {
	case KindWorklogs:
		sel = worklogList(pred, spec.Order)
	case KindIssues:
		sel = issueList(pred)
	case KindProjects:
		sel = aggregateSelect(pred, BreakdownProject)
	case KindUsers:
		sel = aggregateSelect(pred, BreakdownUser)
	default:
		return queryir.Select{}, fmt.Errorf("unknown report kind %d", int(kind))
	}

	if spec.Page.Bounded() {
		sel.Limit = queryir.Int64(spec.Page.Limit)
	}
	if spec.Page.Offset > 0 {
		sel.Offset = queryir.Int64(spec.Page.Offset)
	}
	return sel, nil
}

func proj(e queryir.Expr, alias string) queryir.Projection {
	return queryir.Projection{Expr: e, Alias: alias}
}

func authorName() queryir.Expr {
	c := queryir.C
	return queryir.Coalesce{Args: []queryir.Expr{c(aliasAuthorCwd, "display_name"), c(aliasWorklog, "author")}}
}

func worklogList(pred queryir.Predicate, order filter.Order) queryir.Select {
	c := queryir.C
	return queryir.Select{
		Projections: []queryir.Projection{
			proj(c(aliasWorklog, "id"), "worklog_id"),
			proj(c(aliasIssue, "id"), "issue_id"),
			proj(issueKey(aliasProject, aliasIssue), "issue_key"),
			proj(c(aliasProject, "id"), "project_id"),
			proj(c(aliasProject, "pkey"), "project_key"),
			proj(c(aliasProject, "pname"), "project_name"),
			proj(c(aliasIssue, "summary"), "summary"),
			proj(c(aliasIssueType, "pname"), "issue_type"),
			proj(c(aliasStatus, "pname"), "status"),
			proj(c(aliasPriority, "pname"), "priority"),
			proj(c(aliasResolution, "pname"), "resolution"),
			proj(DisplayName(c(aliasIssue, "assignee")), "assignee"),
			proj(DisplayName(c(aliasIssue, "reporter")), "reporter"),
			proj(c(aliasIssue, "created"), "created"),
			proj(c(aliasIssue, "updated"), "updated"),
			proj(c(aliasIssue, "timeoriginalestimate"), "original_estimate"),
			proj(c(aliasIssue, "timeestimate"), "remaining_estimate"),
			proj(c(aliasWorklog, "author"), "author_key"),
			proj(authorName(), "author"),
			proj(c(aliasWorklog, "worklogbody"), "body"),
			proj(c(aliasWorklog, "startdate"), "start_date"),
			proj(c(aliasWorklog, "created"), "worklog_created"),
			proj(c(aliasWorklog, "updated"), "worklog_updated"),
			proj(c(aliasWorklog, "timeworked"), "time_worked"),
		},
		Relation: BaseRelation(),
		Filter:   pred,
		OrderBy:  worklogOrder(order),
	}
}

// worklogOrder puts the requested column first and always ends with the
// full tie-break, which is unique per worklog.
func worklogOrder(order filter.Order) []queryir.OrderTerm {
	c := queryir.C
	var terms []queryir.OrderTerm
	for _, e := range orderExprs(order.Column) {
		terms = append(terms, queryir.OrderTerm{Expr: e, Desc: order.Desc})
	}
	return append(terms,
		queryir.OrderTerm{Expr: c(aliasProject, "pkey")},
		queryir.OrderTerm{Expr: c(aliasIssue, "issuenum")},
		queryir.OrderTerm{Expr: c(aliasWorklog, "startdate")},
		queryir.OrderTerm{Expr: c(aliasWorklog, "id")},
	)
}

func orderExprs(col filter.Column) []queryir.Expr {
	c := queryir.C
	switch col {
	case filter.ColumnIssueKey:
		return []queryir.Expr{c(aliasProject, "pkey"), c(aliasIssue, "issuenum")}
	case filter.ColumnProject:
		return []queryir.Expr{c(aliasProject, "pname")}
	case filter.ColumnSummary:
		return []queryir.Expr{c(aliasIssue, "summary")}
	case filter.ColumnType:
		return []queryir.Expr{c(aliasIssueType, "pname")}
	case filter.ColumnStatus:
		return []queryir.Expr{c(aliasStatus, "pname")}
	case filter.ColumnPriority:
		return []queryir.Expr{c(aliasPriority, "sequence")}
	case filter.ColumnResolution:
		return []queryir.Expr{c(aliasResolution, "pname")}
	case filter.ColumnAssignee:
		return []queryir.Expr{DisplayName(c(aliasIssue, "assignee"))}
	case filter.ColumnReporter:
		return []queryir.Expr{DisplayName(c(aliasIssue, "reporter"))}
	case filter.ColumnCreated:
		return []queryir.Expr{c(aliasIssue, "created")}
	case filter.ColumnUpdated:
		return []queryir.Expr{c(aliasIssue, "updated")}
	case filter.ColumnEstimated:
		return []queryir.Expr{c(aliasIssue, "timeoriginalestimate")}
	case filter.ColumnRemaining:
		return []queryir.Expr{c(aliasIssue, "timeestimate")}
	case filter.ColumnStartTime:
		return []queryir.Expr{c(aliasWorklog, "startdate")}
	case filter.ColumnTimeSpent:
		return []queryir.Expr{c(aliasWorklog, "timeworked")}
	case filter.ColumnUser:
		return []queryir.Expr{authorName()}
	case filter.ColumnWorklogCreated:
		return []queryir.Expr{c(aliasWorklog, "created")}
	case filter.ColumnWorklogUpdated:
		return []queryir.Expr{c(aliasWorklog, "updated")}
	default:
		return nil
	}
}

func issueList(pred queryir.Predicate) queryir.Select {
	c := queryir.C
	grouped := []queryir.Expr{
		c(aliasIssue, "id"),
		c(aliasProject, "pkey"),
		c(aliasIssue, "issuenum"),
		c(aliasProject, "id"),
		c(aliasIssue, "summary"),
		c(aliasIssueType, "pname"),
		c(aliasStatus, "pname"),
		c(aliasPriority, "pname"),
		c(aliasResolution, "pname"),
		c(aliasIssue, "assignee"),
		c(aliasIssue, "created"),
		c(aliasIssue, "timeoriginalestimate"),
		c(aliasIssue, "timeestimate"),
	}
	return queryir.Select{
		Projections: []queryir.Projection{
			proj(c(aliasIssue, "id"), "issue_id"),
			proj(issueKey(aliasProject, aliasIssue), "issue_key"),
			proj(c(aliasProject, "id"), "project_id"),
			proj(c(aliasProject, "pkey"), "project_key"),
			proj(c(aliasIssue, "summary"), "summary"),
			proj(c(aliasIssueType, "pname"), "issue_type"),
			proj(c(aliasStatus, "pname"), "status"),
			proj(c(aliasPriority, "pname"), "priority"),
			proj(c(aliasResolution, "pname"), "resolution"),
			proj(DisplayName(c(aliasIssue, "assignee")), "assignee"),
			proj(c(aliasIssue, "created"), "created"),
			proj(c(aliasIssue, "timeoriginalestimate"), "original_estimate"),
			proj(c(aliasIssue, "timeestimate"), "remaining_estimate"),
			proj(queryir.Agg{Func: queryir.AggCount, Arg: c(aliasWorklog, "id")}, "worklogs"),
			proj(sumBigInt(c(aliasWorklog, "timeworked")), "time_worked"),
		},
		Relation: BaseRelation(),
		Filter:   pred,
		GroupBy:  grouped,
		OrderBy: []queryir.OrderTerm{
			{Expr: c(aliasProject, "pkey")},
			{Expr: c(aliasIssue, "issuenum")},
		},
	}
}

// sumBigInt is SUM cast back to BIGINT; PostgreSQL widens SUM(bigint) to numeric.
func sumBigInt(arg queryir.Expr) queryir.Expr {
	return queryir.Cast{Arg: queryir.Agg{Func: queryir.AggSum, Arg: arg}, Type: queryir.CastBigInt}
}
