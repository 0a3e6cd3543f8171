package queryir

import (
	"fmt"
	"slices"
)

// ValidationResult contains the structural analysis of a query.
type ValidationResult struct {
	// IsSafe indicates the query has no structural defects and no
	// many-valued joins in its primary relations.
	IsSafe bool

	// Warnings lists every defect found, in traversal order.
	// Empty when IsSafe is true.
	Warnings []string
}

// Validate checks a query for structural defects.
//
// Rules:
//  1. Every query node, source and join condition is present (no cross joins)
//  2. Every source has a unique, non-empty alias within its relation
//  3. Every Select projects at least one column
//  4. Limit and Offset are not negative
//  5. Primary relations never join a table named in manyValued
//
// Rule 5 applies to the top-level relation and to derived sources nested in
// it, because their rows are what get counted and summed. Sub-selects inside
// EXISTS, IN and scalar positions are exempt: they test or pick values and
// cannot multiply outer rows.
//
// Validate is a pure function with no side effects.
func Validate(query Query, manyValued ...string) ValidationResult {
	v := &validator{
		warnings:   []string{},
		manyValued: manyValued,
	}
	v.validateQuery(query, true)

	return ValidationResult{
		IsSafe:   len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings   []string
	manyValued []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// validateQuery recursively validates a query node.
func (v *validator) validateQuery(q Query, primary bool) {
	switch query := q.(type) {
	case nil:
		v.addWarning("nil query")
	case Select:
		v.validateSelect(query, primary)
	case *Select:
		if query == nil {
			v.addWarning("nil query")
			return
		}
		v.validateSelect(*query, primary)
	default:
		v.addWarning("unknown query type: %T", q)
	}
}

// validateSelect validates a Select and everything nested in it.
func (v *validator) validateSelect(sel Select, primary bool) {
	if len(sel.Projections) == 0 {
		v.addWarning("select has no projections")
	}
	for _, p := range sel.Projections {
		v.validateExpr(p.Expr)
	}

	v.validateRelation(sel.Relation, primary)

	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
	for _, g := range sel.GroupBy {
		v.validateExpr(g)
	}
	for _, o := range sel.OrderBy {
		v.validateExpr(o.Expr)
	}

	if sel.Limit != nil && *sel.Limit < 0 {
		v.addWarning("negative limit %d", *sel.Limit)
	}
	if sel.Offset != nil && *sel.Offset < 0 {
		v.addWarning("negative offset %d", *sel.Offset)
	}
}

// validateRelation checks sources, aliases and join conditions.
func (v *validator) validateRelation(rel Relation, primary bool) {
	seen := map[string]bool{}

	v.validateSource(rel.From, primary, seen, false)
	for i, j := range rel.Joins {
		if j.On == nil {
			v.addWarning("join %d has no ON condition (cross join)", i)
		} else {
			v.validatePredicate(j.On)
		}
		v.validateSource(j.Source, primary, seen, true)
	}
}

func (v *validator) validateSource(src Source, primary bool, seen map[string]bool, joined bool) {
	var alias string
	switch s := src.(type) {
	case nil:
		v.addWarning("nil source")
		return
	case Table:
		alias = s.Alias
		if s.Name == "" {
			v.addWarning("table with empty name")
		}
		if primary && joined && slices.Contains(v.manyValued, s.Name) {
			v.addWarning("primary relation joins many-valued table %q (alias %s); use EXISTS or a side query", s.Name, s.Alias)
		}
	case Derived:
		alias = s.Alias
		v.validateSelect(s.Query, primary)
	default:
		v.addWarning("unknown source type: %T", src)
		return
	}

	if alias == "" {
		v.addWarning("source without alias")
		return
	}
	if seen[alias] {
		v.addWarning("duplicate alias %q", alias)
	}
	seen[alias] = true
}

// validatePredicate recursively validates a predicate node.
func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addWarning("nil predicate")
	case True:
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Compare:
		v.validateExpr(pred.Left)
		v.validateExpr(pred.Right)
	case In:
		v.validateExpr(pred.Left)
	case InQuery:
		v.validateExpr(pred.Left)
		v.validateSelect(pred.Query, false)
	case IsNull:
		v.validateExpr(pred.Expr)
	case Exists:
		v.validateSelect(pred.Query, false)
	case Like:
		v.validateExpr(pred.Left)
		v.validateExpr(pred.Pattern)
	default:
		v.addWarning("unknown predicate type: %T", p)
	}
}

// validateExpr recursively validates an expression node.
func (v *validator) validateExpr(e Expr) {
	switch expr := e.(type) {
	case nil:
		v.addWarning("nil expression")
	case Col:
		if expr.Name == "" {
			v.addWarning("column with empty name")
		}
	case Lit:
		if expr.Value == nil {
			v.addWarning("literal without value")
		}
	case Const:
	case Concat:
		for _, part := range expr.Parts {
			v.validateExpr(part)
		}
	case Lower:
		v.validateExpr(expr.Arg)
	case Coalesce:
		for _, arg := range expr.Args {
			v.validateExpr(arg)
		}
	case Cast:
		v.validateExpr(expr.Arg)
	case Agg:
		if expr.Arg == nil && expr.Func != AggCount {
			v.addWarning("%s without argument", expr.Func)
		}
		if expr.Arg != nil {
			v.validateExpr(expr.Arg)
		}
	case Subquery:
		v.validateSelect(expr.Query, false)
	default:
		v.addWarning("unknown expression type: %T", e)
	}
}
