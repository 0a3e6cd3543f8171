package report

import (
	"fmt"
	"strconv"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/ir"
	"github.com/roach88/worklens/internal/queryir"
)

// PickerOption is one choice offered by a filter picker.
//
// Value options carry the filter value in Value. Sentinel options carry a
// Sentinel and no Value; they come first, in the dimension's sentinel order.
type PickerOption struct {
	Value    string          `json:"value,omitempty"`
	Label    string          `json:"label"`
	Sentinel filter.Sentinel `json:"sentinel,omitempty"`
}

// SentinelName is the file name of the option's sentinel, or "".
func (o PickerOption) SentinelName() string {
	if o.Sentinel == 0 {
		return ""
	}
	return o.Sentinel.String()
}

// ProjectOption is a browsable project.
type ProjectOption struct {
	ID   int64  `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

var sentinelLabels = map[filter.Sentinel]string{
	filter.Missing:    "None",
	filter.Released:   "Released versions",
	filter.Unreleased: "Unreleased versions",
}

func sentinelOptions(label string, offered filter.Sentinel) []PickerOption {
	var opts []PickerOption
	for _, s := range []filter.Sentinel{filter.Missing, filter.Released, filter.Unreleased} {
		if offered.Has(s) {
			l := sentinelLabels[s]
			if s == filter.Missing {
				l = label
			}
			opts = append(opts, PickerOption{Label: l, Sentinel: s})
		}
	}
	return opts
}

func projectsQuery() queryir.Select {
	c := queryir.C
	return queryir.Select{
		Projections: []queryir.Projection{
			proj(c("p", "id"), "id"),
			proj(c("p", "pkey"), "pkey"),
			proj(c("p", "pname"), "pname"),
		},
		Relation: queryir.Relation{From: queryir.Table{Name: "project", Alias: "p"}},
		OrderBy:  []queryir.OrderTerm{{Expr: c("p", "pkey")}},
	}
}

// nameQuery lists the distinct names of a project-owned dimension table.
func nameQuery(table, nameCol string, projectIDs []int64) queryir.Select {
	c := queryir.C
	return queryir.Select{
		Distinct:    true,
		Projections: []queryir.Projection{proj(c("d", nameCol), "value")},
		Relation:    queryir.Relation{From: queryir.Table{Name: table, Alias: "d"}},
		Filter:      queryir.In{Left: c("d", "project"), Values: ir.Ints(projectIDs)},
		OrderBy:     []queryir.OrderTerm{{Expr: c("d", nameCol)}},
	}
}

// assigneeQuery lists the assignee keys of issues in the projects.
func assigneeQuery(projectIDs []int64) queryir.Select {
	c := queryir.C
	inner := queryir.Select{
		Distinct:    true,
		Projections: []queryir.Projection{proj(c("i", "assignee"), "user_key")},
		Relation:    queryir.Relation{From: queryir.Table{Name: "jiraissue", Alias: "i"}},
		Filter: queryir.AllOf(
			queryir.In{Left: c("i", "project"), Values: ir.Ints(projectIDs)},
			queryir.IsNull{Expr: c("i", "assignee"), Negate: true},
		),
	}
	return queryir.Select{
		Projections: []queryir.Projection{
			proj(c("a", "user_key"), "value"),
			proj(DisplayName(c("a", "user_key")), "label"),
		},
		Relation: queryir.Relation{From: queryir.Derived{Query: inner, Alias: "a"}},
		OrderBy:  []queryir.OrderTerm{{Expr: c("a", "user_key")}},
	}
}

// authorQuery lists the logins of worklog authors in the projects.
// Logins are what the worklog author filter accepts.
func authorQuery(projectIDs []int64) queryir.Select {
	c := queryir.C
	inner := queryir.Select{
		Distinct: true,
		Projections: []queryir.Projection{
			proj(c("u", "lower_user_name"), "login"),
			proj(c("u", "user_key"), "user_key"),
		},
		Relation: queryir.Relation{
			From: queryir.Table{Name: "worklog", Alias: "w"},
			Joins: []queryir.Join{
				innerJoin("jiraissue", "i", queryir.Equals(c("i", "id"), c("w", "issueid"))),
				innerJoin("app_user", "u", queryir.Equals(c("u", "user_key"), c("w", "author"))),
			},
		},
		Filter: queryir.In{Left: c("i", "project"), Values: ir.Ints(projectIDs)},
	}
	return queryir.Select{
		Projections: []queryir.Projection{
			proj(c("a", "login"), "value"),
			proj(DisplayName(c("a", "user_key")), "label"),
		},
		Relation: queryir.Relation{From: queryir.Derived{Query: inner, Alias: "a"}},
		OrderBy:  []queryir.OrderTerm{{Expr: c("a", "login")}},
	}
}

// epicQuery lists the issues of the projects that carry an epic name.
func epicQuery(projectIDs []int64, epicNameField string) queryir.Select {
	c := queryir.C
	return queryir.Select{
		Projections: []queryir.Projection{
			proj(c("i", "id"), "value"),
			proj(issueKey("p", "i"), "issue_key"),
			proj(c("v", "stringvalue"), "label"),
		},
		Relation: queryir.Relation{
			From: queryir.Table{Name: "jiraissue", Alias: "i"},
			Joins: []queryir.Join{
				innerJoin("project", "p", queryir.Equals(c("p", "id"), c("i", "project"))),
				innerJoin("customfieldvalue", "v", queryir.Equals(c("v", "issue"), c("i", "id"))),
				innerJoin("customfield", "f", queryir.Equals(c("f", "id"), c("v", "customfield"))),
			},
		},
		Filter: queryir.AllOf(
			queryir.In{Left: c("i", "project"), Values: ir.Ints(projectIDs)},
			queryir.Equals(c("f", "cfname"), queryir.Lit{Value: ir.IRString(epicNameField)}),
		),
		OrderBy: []queryir.OrderTerm{
			{Expr: c("p", "pkey")},
			{Expr: c("i", "issuenum")},
		},
	}
}

func versionSentinels(kind LinkKind) (filter.Sentinel, error) {
	switch kind {
	case LinkAffectedVersions:
		return affectsVersionDim.sentinels, nil
	case LinkFixVersions:
		return fixVersionDim.sentinels, nil
	default:
		return 0, fmt.Errorf("%s is not a version kind", kind)
	}
}

func epicLabel(key, name string) string {
	return key + " " + name
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
