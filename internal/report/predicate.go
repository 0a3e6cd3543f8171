package report

import (
	"strings"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/ir"
	"github.com/roach88/worklens/internal/queryir"
	"github.com/roach88/worklens/internal/schema"
)

// BuildPredicate composes the filter predicate for a spec.
//
// The filter is validated first; an invalid filter yields an
// *filter.InvalidFilterError and no predicate. Value sets are normalized, so
// specs differing only in set order produce identical predicates.
//
// Dimensions contribute fragments in a fixed order and are AND'ed. Within a
// dimension the accepted values and the enabled sentinels are OR'ed, and a
// dimension with nothing enabled contributes nothing. A spec that constrains
// nothing but the project scope still yields a single IN fragment; the
// composed predicate is True only when every fragment is absent.
//
// Many-valued attributes are tested with EXISTS against the issue and never
// joined, so a matching issue appears once however many of its links match.
func BuildPredicate(spec filter.Spec, conv schema.Conventions) (queryir.Predicate, error) {
	if err := filter.Validate(spec); err != nil {
		return nil, err
	}
	spec = filter.Normalize(spec)
	conv = conv.WithDefaults()

	c := queryir.C
	issueID := c(aliasIssue, "id")

	fragments := []queryir.Predicate{
		intsIn(c(aliasIssue, "project"), spec.ProjectIDs),
		stringsIn(c(aliasIssue, "issuetype"), spec.IssueTypeIDs),
		queryir.AnyOf(
			intsIn(issueID, spec.IssueIDs),
			issueKeysIn(issueID, spec.IssueKeys),
		),
		affectsVersionDim.selection(spec.AffectedVersions),
		fixVersionDim.selection(spec.FixVersions),
		sentinelOrMembers(c(aliasIssue, "assignee"), spec.Assignees),
		componentDim.selection(spec.Components),
		epicLinked(spec.EpicLinkIssueIDs, conv.EpicLinkType),
		epicNamed(spec.EpicName, conv.EpicNameField),
		within(c(aliasIssue, "created"), spec.IssueCreated),
		stringsIn(c(aliasIssue, "reporter"), spec.ReporterKeys),
		stringsIn(c(aliasIssue, "priority"), spec.PriorityIDs),
		sentinelOrMembers(c(aliasIssue, "resolution"), spec.Resolutions),
		stringsIn(c(aliasIssue, "issuestatus"), spec.StatusIDs),
		labelled(spec.Labels),
		loggedBy(spec.WorklogAuthors),
		within(c(aliasWorklog, "startdate"), spec.Worklog),
	}

	return queryir.AllOf(fragments...), nil
}

func intsIn(col queryir.Expr, vals []int64) queryir.Predicate {
	if len(vals) == 0 {
		return nil
	}
	return queryir.In{Left: col, Values: ir.Ints(vals)}
}

func stringsIn(col queryir.Expr, vals []string) queryir.Predicate {
	if len(vals) == 0 {
		return nil
	}
	return queryir.In{Left: col, Values: ir.Strings(vals)}
}

// sentinelOrMembers handles single-valued columns where Missing means NULL.
func sentinelOrMembers(col queryir.Expr, sel filter.Selection) queryir.Predicate {
	var missing queryir.Predicate
	if sel.Sentinels.Has(filter.Missing) {
		missing = queryir.IsNull{Expr: col}
	}
	return queryir.AnyOf(stringsIn(col, sel.Values), missing)
}

// issueKeysIn matches issues by (project key, number) pairs.
func issueKeysIn(issueID queryir.Expr, keys []string) queryir.Predicate {
	if len(keys) == 0 {
		return nil
	}
	c := queryir.C
	pairs := make([]queryir.Predicate, 0, len(keys))
	for _, key := range keys {
		// Keys were validated by filter.Validate.
		pkey, num, _ := filter.ParseIssueKey(key)
		pairs = append(pairs, queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals(c("key_project", "pkey"), queryir.Lit{Value: ir.IRString(pkey)}),
			queryir.Equals(c("key_issue", "issuenum"), queryir.Lit{Value: ir.IRInt(num)}),
		}})
	}
	return queryir.InQuery{
		Left: issueID,
		Query: queryir.Select{
			Projections: []queryir.Projection{{Expr: c("key_issue", "id")}},
			Relation: queryir.Relation{
				From: queryir.Table{Name: "jiraissue", Alias: "key_issue"},
				Joins: []queryir.Join{
					innerJoin("project", "key_project", queryir.Equals(c("key_project", "id"), c("key_issue", "project"))),
				},
			},
			Filter: queryir.AnyOf(pairs...),
		},
	}
}

// linkDim describes a many-valued attribute stored in nodeassociation.
type linkDim struct {
	assoc     string // association_type
	sink      string // sink_node_entity
	table     string // dimension table
	nameCol   string // display column of the dimension table
	sentinels filter.Sentinel
}

var (
	componentDim = linkDim{
		assoc:     schema.AssocComponent,
		sink:      schema.EntityComponent,
		table:     "component",
		nameCol:   "cname",
		sentinels: filter.Missing,
	}
	affectsVersionDim = linkDim{
		assoc:     schema.AssocAffectsVersion,
		sink:      schema.EntityVersion,
		table:     "projectversion",
		nameCol:   "vname",
		sentinels: filter.Missing,
	}
	fixVersionDim = linkDim{
		assoc:     schema.AssocFixVersion,
		sink:      schema.EntityVersion,
		table:     "projectversion",
		nameCol:   "vname",
		sentinels: filter.Missing | filter.Released | filter.Unreleased,
	}
)

// selection ORs the enabled branches: names, then Missing, Released, Unreleased.
func (d linkDim) selection(sel filter.Selection) queryir.Predicate {
	c := queryir.C
	var names, missing, released, unreleased queryir.Predicate

	if len(sel.Values) > 0 {
		names = d.exists(queryir.In{Left: c("link_dim", d.nameCol), Values: ir.Strings(sel.Values)})
	}
	if sel.Sentinels.Has(filter.Missing) {
		missing = d.absent()
	}
	if sel.Sentinels.Has(filter.Released) {
		released = d.exists(queryir.Equals(
			queryir.Lower{Arg: c("link_dim", "released")},
			queryir.Const{Value: schema.Released},
		))
	}
	if sel.Sentinels.Has(filter.Unreleased) {
		unreleased = d.exists(queryir.IsNull{Expr: c("link_dim", "released")})
	}

	return queryir.AnyOf(names, missing, released, unreleased)
}

// links selects the issue's associations of this kind.
func (d linkDim) links() queryir.Predicate {
	c := queryir.C
	return queryir.AllOf(
		queryir.Equals(c("link", "source_node_id"), c(aliasIssue, "id")),
		queryir.Equals(c("link", "source_node_entity"), queryir.Const{Value: schema.EntityIssue}),
		queryir.Equals(c("link", "sink_node_entity"), queryir.Const{Value: d.sink}),
		queryir.Equals(c("link", "association_type"), queryir.Const{Value: d.assoc}),
	)
}

// exists tests for a link whose dimension row satisfies cond.
func (d linkDim) exists(cond queryir.Predicate) queryir.Predicate {
	c := queryir.C
	return queryir.Exists{Query: queryir.Select{
		Projections: []queryir.Projection{{Expr: c("link", "sink_node_id")}},
		Relation: queryir.Relation{
			From: queryir.Table{Name: "nodeassociation", Alias: "link"},
			Joins: []queryir.Join{
				innerJoin(d.table, "link_dim", queryir.Equals(c("link_dim", "id"), c("link", "sink_node_id"))),
			},
		},
		Filter: queryir.AllOf(d.links(), cond),
	}}
}

// absent tests for an issue with no resolvable link of this kind. A link
// whose dimension row is gone counts as no link, as in the resolved lists.
func (d linkDim) absent() queryir.Predicate {
	e := d.exists(nil).(queryir.Exists)
	e.Negate = true
	return e
}

// epicLinked matches stories linked from any of the epics.
// The epic is the link source and the story its destination.
func epicLinked(epicIDs []int64, linkType string) queryir.Predicate {
	if len(epicIDs) == 0 {
		return nil
	}
	c := queryir.C
	return queryir.Exists{Query: queryir.Select{
		Projections: []queryir.Projection{{Expr: c("epic_link", "id")}},
		Relation: queryir.Relation{
			From: queryir.Table{Name: "issuelink", Alias: "epic_link"},
			Joins: []queryir.Join{
				innerJoin("issuelinktype", "epic_link_type", queryir.Equals(c("epic_link_type", "id"), c("epic_link", "linktype"))),
			},
		},
		Filter: queryir.AllOf(
			queryir.Equals(c("epic_link", "destination"), c(aliasIssue, "id")),
			queryir.In{Left: c("epic_link", "source"), Values: ir.Ints(epicIDs)},
			queryir.Equals(c("epic_link_type", "linkname"), queryir.Lit{Value: ir.IRString(linkType)}),
		),
	}}
}

// epicNamed matches issues whose epic-name field starts with prefix, ignoring case.
func epicNamed(prefix, field string) queryir.Predicate {
	if prefix == "" {
		return nil
	}
	c := queryir.C
	pattern := escapeLike(strings.ToLower(prefix)) + "%"
	return queryir.Exists{Query: queryir.Select{
		Projections: []queryir.Projection{{Expr: c("epic_value", "id")}},
		Relation: queryir.Relation{
			From: queryir.Table{Name: "customfieldvalue", Alias: "epic_value"},
			Joins: []queryir.Join{
				innerJoin("customfield", "epic_field", queryir.Equals(c("epic_field", "id"), c("epic_value", "customfield"))),
			},
		},
		Filter: queryir.AllOf(
			queryir.Equals(c("epic_value", "issue"), c(aliasIssue, "id")),
			queryir.Equals(c("epic_field", "cfname"), queryir.Lit{Value: ir.IRString(field)}),
			queryir.Like{
				Left:    queryir.Lower{Arg: c("epic_value", "stringvalue")},
				Pattern: queryir.Lit{Value: ir.IRString(pattern)},
			},
		),
	}}
}

// escapeLike escapes LIKE wildcards with backslash.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// labelled matches issues carrying any of the labels.
func labelled(labels []string) queryir.Predicate {
	if len(labels) == 0 {
		return nil
	}
	c := queryir.C
	return queryir.Exists{Query: queryir.Select{
		Projections: []queryir.Projection{{Expr: c("lbl", "id")}},
		Relation:    queryir.Relation{From: queryir.Table{Name: "label", Alias: "lbl"}},
		Filter: queryir.AllOf(
			queryir.Equals(c("lbl", "issue"), c(aliasIssue, "id")),
			queryir.In{Left: c("lbl", "label"), Values: ir.Strings(labels)},
		),
	}}
}

// loggedBy matches worklogs whose author key belongs to one of the logins.
func loggedBy(logins []string) queryir.Predicate {
	if len(logins) == 0 {
		return nil
	}
	lowered := make([]string, len(logins))
	for i, l := range logins {
		lowered[i] = strings.ToLower(l)
	}
	c := queryir.C
	return queryir.InQuery{
		Left: c(aliasWorklog, "author"),
		Query: queryir.Select{
			Projections: []queryir.Projection{{Expr: c("login", "user_key")}},
			Relation:    queryir.Relation{From: queryir.Table{Name: "app_user", Alias: "login"}},
			Filter:      queryir.In{Left: c("login", "lower_user_name"), Values: ir.Strings(lowered)},
		},
	}
}

// within bounds col by a half-open range; absent bounds are unconstrained.
func within(col queryir.Expr, r filter.DateRange) queryir.Predicate {
	var from, to queryir.Predicate
	if !r.From.IsZero() {
		from = queryir.Compare{Left: col, Op: queryir.OpGe, Right: queryir.Lit{Value: ir.NewIRTime(r.From)}}
	}
	if !r.To.IsZero() {
		to = queryir.Compare{Left: col, Op: queryir.OpLt, Right: queryir.Lit{Value: ir.NewIRTime(r.To)}}
	}
	if from == nil && to == nil {
		return nil
	}
	return queryir.AllOf(from, to)
}
