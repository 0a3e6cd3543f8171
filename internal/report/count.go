package report

import (
	"fmt"

	"github.com/roach88/worklens/internal/filter"
	"github.com/roach88/worklens/internal/queryir"
	"github.com/roach88/worklens/internal/schema"
)

// primaryKey is the column that identifies one row of a report kind.
func primaryKey(kind Kind) (queryir.Expr, error) {
	c := queryir.C
	switch kind {
	case KindWorklogs:
		return c(aliasWorklog, "id"), nil
	case KindIssues:
		return c(aliasIssue, "id"), nil
	case KindProjects:
		return c(aliasProject, "id"), nil
	case KindUsers:
		return c(aliasWorklog, "author"), nil
	default:
		return nil, fmt.Errorf("unknown report kind %d", int(kind))
	}
}

// BuildCountQuery builds the row count of a report:
//
//	SELECT COUNT(*) AS total FROM (
//	  SELECT <key> AS row_key FROM <base relation> WHERE <predicate> GROUP BY <key>
//	) grouped
//
// The inner grouping collapses the worklog rows of one primary entity, so
// the count equals the number of distinct keys the unbounded list returns.
// Paging is ignored.
func BuildCountQuery(spec filter.Spec, kind Kind, conv schema.Conventions) (queryir.Select, error) {
	pred, err := BuildPredicate(spec, conv)
	if err != nil {
		return queryir.Select{}, err
	}
	key, err := primaryKey(kind)
	if err != nil {
		return queryir.Select{}, err
	}

	inner := queryir.Select{
		Projections: []queryir.Projection{proj(key, "row_key")},
		Relation:    BaseRelation(),
		Filter:      pred,
		GroupBy:     []queryir.Expr{key},
	}

	return queryir.Select{
		Projections: []queryir.Projection{proj(queryir.Agg{Func: queryir.AggCount}, "total")},
		Relation:    queryir.Relation{From: queryir.Derived{Query: inner, Alias: "grouped"}},
	}, nil
}
