package report

import (
	"github.com/roach88/worklens/internal/queryir"
)

// Aliases of the base relation. Predicates and projections refer to them.
const (
	aliasWorklog    = "w"
	aliasIssue      = "i"
	aliasProject    = "p"
	aliasIssueType  = "it"
	aliasStatus     = "st"
	aliasPriority   = "pr"
	aliasResolution = "r"
	aliasAuthorApp  = "author_app"
	aliasAuthorCwd  = "author_cwd"
)

// manyValuedTables may never be joined into a primary relation.
var manyValuedTables = []string{"nodeassociation", "label", "issuelink", "customfieldvalue"}

// BaseRelation returns the join skeleton shared by every report variant:
//
//	worklog w
//	  JOIN jiraissue i     ON i.id = w.issueid
//	  JOIN project p       ON p.id = i.project
//	  JOIN issuetype it    ON it.id = i.issuetype
//	  JOIN issuestatus st  ON st.id = i.issuestatus
//	  JOIN priority pr     ON pr.id = i.priority
//	  LEFT JOIN resolution r          ON r.id = i.resolution
//	  LEFT JOIN app_user author_app   ON author_app.user_key = w.author
//	  LEFT JOIN cwd_user author_cwd   ON author_cwd.id = (first directory entry of the login)
//
// Every join is to-one. A login present in several directories matches only
// the entry of the highest-priority directory, so the author joins can never
// multiply worklog rows.
//
// The relation carries no filter and no projection. Each call returns a fresh
// value.
func BaseRelation() queryir.Relation {
	c := queryir.C
	return queryir.Relation{
		From: queryir.Table{Name: "worklog", Alias: aliasWorklog},
		Joins: []queryir.Join{
			innerJoin("jiraissue", aliasIssue, queryir.Equals(c(aliasIssue, "id"), c(aliasWorklog, "issueid"))),
			innerJoin("project", aliasProject, queryir.Equals(c(aliasProject, "id"), c(aliasIssue, "project"))),
			innerJoin("issuetype", aliasIssueType, queryir.Equals(c(aliasIssueType, "id"), c(aliasIssue, "issuetype"))),
			innerJoin("issuestatus", aliasStatus, queryir.Equals(c(aliasStatus, "id"), c(aliasIssue, "issuestatus"))),
			innerJoin("priority", aliasPriority, queryir.Equals(c(aliasPriority, "id"), c(aliasIssue, "priority"))),
			leftJoin("resolution", aliasResolution, queryir.Equals(c(aliasResolution, "id"), c(aliasIssue, "resolution"))),
			leftJoin("app_user", aliasAuthorApp, queryir.Equals(c(aliasAuthorApp, "user_key"), c(aliasWorklog, "author"))),
			leftJoin("cwd_user", aliasAuthorCwd, queryir.Equals(
				c(aliasAuthorCwd, "id"),
				queryir.Subquery{Query: directoryEntry(c(aliasAuthorApp, "lower_user_name"), "id")},
			)),
		},
	}
}

func innerJoin(table, alias string, on queryir.Predicate) queryir.Join {
	return queryir.Join{Kind: queryir.InnerJoin, Source: queryir.Table{Name: table, Alias: alias}, On: on}
}

func leftJoin(table, alias string, on queryir.Predicate) queryir.Join {
	return queryir.Join{Kind: queryir.LeftJoin, Source: queryir.Table{Name: table, Alias: alias}, On: on}
}

// directoryEntry selects one column of the highest-priority directory entry
// for a lower-cased login.
func directoryEntry(login queryir.Expr, column string) queryir.Select {
	c := queryir.C
	return queryir.Select{
		Projections: []queryir.Projection{{Expr: c("dir_user", column)}},
		Relation: queryir.Relation{
			From: queryir.Table{Name: "cwd_user", Alias: "dir_user"},
			Joins: []queryir.Join{
				innerJoin("cwd_directory", "dir", queryir.Equals(c("dir", "id"), c("dir_user", "directory_id"))),
			},
		},
		Filter: queryir.Equals(c("dir_user", "lower_user_name"), login),
		OrderBy: []queryir.OrderTerm{
			{Expr: c("dir", "directory_position")},
			{Expr: c("dir_user", "id")},
		},
		Limit: queryir.Int64(1),
	}
}

// DisplayName resolves a user key expression to the user's display name,
// falling back to the key itself for users without a directory entry.
// NULL keys stay NULL.
//
// It is a projection helper; predicates always compare raw keys.
func DisplayName(userKey queryir.Expr) queryir.Expr {
	c := queryir.C
	lookup := queryir.Select{
		Projections: []queryir.Projection{{Expr: c("dn_user", "display_name")}},
		Relation: queryir.Relation{
			From: queryir.Table{Name: "app_user", Alias: "dn_app"},
			Joins: []queryir.Join{
				innerJoin("cwd_user", "dn_user", queryir.Equals(c("dn_user", "lower_user_name"), c("dn_app", "lower_user_name"))),
				innerJoin("cwd_directory", "dn_dir", queryir.Equals(c("dn_dir", "id"), c("dn_user", "directory_id"))),
			},
		},
		Filter: queryir.Equals(c("dn_app", "user_key"), userKey),
		OrderBy: []queryir.OrderTerm{
			{Expr: c("dn_dir", "directory_position")},
			{Expr: c("dn_user", "id")},
		},
		Limit: queryir.Int64(1),
	}
	return queryir.Coalesce{Args: []queryir.Expr{queryir.Subquery{Query: lookup}, userKey}}
}

// issueKey renders "PKEY-123" from a project and an issue alias.
func issueKey(project, issue string) queryir.Expr {
	return queryir.Concat{Parts: []queryir.Expr{
		queryir.C(project, "pkey"),
		queryir.Const{Value: "-"},
		queryir.Cast{Arg: queryir.C(issue, "issuenum"), Type: queryir.CastText},
	}}
}
