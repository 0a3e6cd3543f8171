package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/worklens/internal/ir"
	"github.com/roach88/worklens/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL.
//
// CRITICAL: All caller values are parameterized (never interpolated).
// Only queryir.Const fragments are written inline, single-quote escaped.
//
// Output is deterministic: the same query always yields byte-identical SQL
// and the same parameter order.
type SQLCompiler struct {
	// Dialect selects placeholder style and paging syntax.
	Dialect Dialect
}

// NewSQLCompiler creates a new SQLCompiler for the dialect.
func NewSQLCompiler(d Dialect) *SQLCompiler {
	return &SQLCompiler{Dialect: d}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	st := &state{dialect: c.Dialect}

	switch query := q.(type) {
	case queryir.Select:
		if err := st.writeSelect(query); err != nil {
			return "", nil, err
		}
	case *queryir.Select:
		if query == nil {
			return "", nil, fmt.Errorf("cannot compile nil query")
		}
		if err := st.writeSelect(*query); err != nil {
			return "", nil, err
		}
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}

	return st.sb.String(), st.params, nil
}

// state accumulates SQL text and parameters in lockstep.
// Parameters are appended in the order their placeholders are written.
type state struct {
	dialect Dialect
	sb      strings.Builder
	params  []any
}

func (st *state) write(parts ...string) {
	for _, p := range parts {
		st.sb.WriteString(p)
	}
}

// bind appends a parameter and writes its placeholder.
func (st *state) bind(v any) {
	st.params = append(st.params, v)
	st.write(st.dialect.Placeholder(len(st.params)))
}

func (st *state) writeSelect(sel queryir.Select) error {
	if len(sel.Projections) == 0 {
		return fmt.Errorf("select has no projections")
	}

	st.write("SELECT ")
	if sel.Distinct {
		st.write("DISTINCT ")
	}
	for i, p := range sel.Projections {
		if i > 0 {
			st.write(", ")
		}
		if err := st.writeExpr(p.Expr); err != nil {
			return fmt.Errorf("compile projection %q: %w", p.Alias, err)
		}
		if p.Alias != "" {
			st.write(" AS ", p.Alias)
		}
	}

	st.write(" FROM ")
	if err := st.writeRelation(sel.Relation); err != nil {
		return err
	}

	if sel.Filter != nil {
		st.write(" WHERE ")
		if err := st.writePredicate(sel.Filter); err != nil {
			return fmt.Errorf("compile filter: %w", err)
		}
	}

	if len(sel.GroupBy) > 0 {
		st.write(" GROUP BY ")
		for i, g := range sel.GroupBy {
			if i > 0 {
				st.write(", ")
			}
			if err := st.writeExpr(g); err != nil {
				return fmt.Errorf("compile group by: %w", err)
			}
		}
	}

	if len(sel.OrderBy) > 0 {
		st.write(" ORDER BY ")
		for i, o := range sel.OrderBy {
			if i > 0 {
				st.write(", ")
			}
			if err := st.writeExpr(o.Expr); err != nil {
				return fmt.Errorf("compile order by: %w", err)
			}
			if o.Desc {
				st.write(" DESC")
			} else {
				st.write(" ASC")
			}
		}
	}

	st.writePaging(sel.Limit, sel.Offset)
	return nil
}

// writePaging emits LIMIT/OFFSET only when set.
// SQLite cannot OFFSET without LIMIT, so an unbounded LIMIT -1 is written there.
func (st *state) writePaging(limit, offset *int64) {
	if limit != nil {
		st.write(" LIMIT ")
		st.bind(*limit)
	} else if offset != nil && st.dialect == SQLite {
		st.write(" LIMIT -1")
	}
	if offset != nil {
		st.write(" OFFSET ")
		st.bind(*offset)
	}
}

func (st *state) writeRelation(rel queryir.Relation) error {
	if err := st.writeSource(rel.From); err != nil {
		return err
	}
	for _, j := range rel.Joins {
		switch j.Kind {
		case queryir.InnerJoin:
			st.write(" JOIN ")
		case queryir.LeftJoin:
			st.write(" LEFT JOIN ")
		default:
			return fmt.Errorf("unsupported join kind: %d", j.Kind)
		}
		if err := st.writeSource(j.Source); err != nil {
			return err
		}
		if j.On == nil {
			return fmt.Errorf("join without ON condition")
		}
		st.write(" ON ")
		if err := st.writePredicate(j.On); err != nil {
			return fmt.Errorf("compile join ON: %w", err)
		}
	}
	return nil
}

func (st *state) writeSource(src queryir.Source) error {
	switch s := src.(type) {
	case queryir.Table:
		st.write(s.Name)
		if s.Alias != "" && s.Alias != s.Name {
			st.write(" ", s.Alias)
		}
		return nil
	case queryir.Derived:
		if s.Alias == "" {
			return fmt.Errorf("derived source requires an alias")
		}
		st.write("(")
		if err := st.writeSelect(s.Query); err != nil {
			return fmt.Errorf("compile derived %q: %w", s.Alias, err)
		}
		st.write(") ", s.Alias)
		return nil
	default:
		return fmt.Errorf("unsupported source type: %T", src)
	}
}

// writePredicate compiles a predicate.
// CRITICAL: Values NEVER interpolated - always placeholders.
func (st *state) writePredicate(p queryir.Predicate) error {
	switch pred := p.(type) {
	case nil:
		return fmt.Errorf("nil predicate")
	case queryir.True:
		st.write("1 = 1")
	case queryir.And:
		if len(pred.Predicates) == 0 {
			st.write("1 = 1") // vacuous truth
			return nil
		}
		for i, sub := range pred.Predicates {
			if i > 0 {
				st.write(" AND ")
			}
			if err := st.writePredicate(sub); err != nil {
				return err
			}
		}
	case queryir.Or:
		if len(pred.Predicates) == 0 {
			st.write("1 = 0")
			return nil
		}
		st.write("(")
		for i, sub := range pred.Predicates {
			if i > 0 {
				st.write(" OR ")
			}
			if err := st.writePredicate(sub); err != nil {
				return err
			}
		}
		st.write(")")
	case queryir.Compare:
		if err := st.writeExpr(pred.Left); err != nil {
			return err
		}
		st.write(" ", string(pred.Op), " ")
		return st.writeExpr(pred.Right)
	case queryir.In:
		if len(pred.Values) == 0 {
			st.write("1 = 0")
			return nil
		}
		if err := st.writeExpr(pred.Left); err != nil {
			return err
		}
		st.write(" IN (")
		for i, v := range pred.Values {
			if i > 0 {
				st.write(", ")
			}
			param, err := ir.ToParam(v)
			if err != nil {
				return fmt.Errorf("convert IN value %d: %w", i, err)
			}
			st.bind(param)
		}
		st.write(")")
	case queryir.InQuery:
		if err := st.writeExpr(pred.Left); err != nil {
			return err
		}
		st.write(" IN (")
		if err := st.writeSelect(pred.Query); err != nil {
			return err
		}
		st.write(")")
	case queryir.IsNull:
		if err := st.writeExpr(pred.Expr); err != nil {
			return err
		}
		if pred.Negate {
			st.write(" IS NOT NULL")
		} else {
			st.write(" IS NULL")
		}
	case queryir.Exists:
		if pred.Negate {
			st.write("NOT ")
		}
		st.write("EXISTS (")
		if err := st.writeSelect(pred.Query); err != nil {
			return err
		}
		st.write(")")
	case queryir.Like:
		if err := st.writeExpr(pred.Left); err != nil {
			return err
		}
		st.write(" LIKE ")
		if err := st.writeExpr(pred.Pattern); err != nil {
			return err
		}
		st.write(` ESCAPE '\'`)
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
	return nil
}

func (st *state) writeExpr(e queryir.Expr) error {
	switch expr := e.(type) {
	case nil:
		return fmt.Errorf("nil expression")
	case queryir.Col:
		if expr.Table != "" {
			st.write(expr.Table, ".")
		}
		st.write(expr.Name)
	case queryir.Lit:
		param, err := ir.ToParam(expr.Value)
		if err != nil {
			return fmt.Errorf("convert value: %w", err)
		}
		st.bind(param)
	case queryir.Const:
		st.write(quote(expr.Value))
	case queryir.Concat:
		st.write("(")
		for i, part := range expr.Parts {
			if i > 0 {
				st.write(" || ")
			}
			if err := st.writeExpr(part); err != nil {
				return err
			}
		}
		st.write(")")
	case queryir.Lower:
		return st.writeCall("LOWER", expr.Arg)
	case queryir.Coalesce:
		return st.writeCall("COALESCE", expr.Args...)
	case queryir.Cast:
		st.write("CAST(")
		if err := st.writeExpr(expr.Arg); err != nil {
			return err
		}
		st.write(" AS ", string(expr.Type), ")")
	case queryir.Agg:
		st.write(string(expr.Func), "(")
		if expr.Arg == nil {
			if expr.Func != queryir.AggCount {
				return fmt.Errorf("%s requires an argument", expr.Func)
			}
			st.write("*)")
			return nil
		}
		if expr.Distinct {
			st.write("DISTINCT ")
		}
		if err := st.writeExpr(expr.Arg); err != nil {
			return err
		}
		st.write(")")
	case queryir.Subquery:
		st.write("(")
		if err := st.writeSelect(expr.Query); err != nil {
			return err
		}
		st.write(")")
	default:
		return fmt.Errorf("unsupported expression type: %T", e)
	}
	return nil
}

func (st *state) writeCall(name string, args ...queryir.Expr) error {
	st.write(name, "(")
	for i, a := range args {
		if i > 0 {
			st.write(", ")
		}
		if err := st.writeExpr(a); err != nil {
			return err
		}
	}
	st.write(")")
	return nil
}

// quote writes a SQL string literal, doubling embedded single quotes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Placeholder returns the n-th (1-based) parameter marker for the dialect.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}
