package queryir

import "github.com/roach88/worklens/internal/ir"

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers.
//
// Query types:
//   - Select: projection over a relation with filter, grouping, order and paging
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a boolean condition in the QueryIR.
//
// Predicates are used in Select.Filter and Join.On.
//
// Predicate types:
//   - True: always holds
//   - And / Or: conjunction and disjunction
//   - Compare: <expr> <op> <expr>
//   - In: <expr> IN (literal, ...)
//   - InQuery: <expr> IN (SELECT ...)
//   - IsNull: <expr> IS [NOT] NULL
//   - Exists: [NOT] EXISTS (SELECT ...)
//   - Like: <expr> LIKE <pattern> ESCAPE '\'
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Expr represents a scalar expression in the QueryIR.
//
// Expr types:
//   - Col: qualified column reference
//   - Lit: parameterized literal
//   - Const: trusted SQL string constant written inline
//   - Concat, Lower, Coalesce, Cast: scalar functions
//   - Agg: SUM / MIN / MAX / COUNT
//   - Subquery: scalar sub-select
type Expr interface {
	exprNode() // Marker method - seals interface to this package
}

// Source represents something a relation reads rows from.
//
// Source types:
//   - Table: named table with alias
//   - Derived: parenthesized sub-select with alias
type Source interface {
	sourceNode() // Marker method - seals interface to this package
}

// Table is a named base table.
//
// Semantics:
//
//	<name> <alias>
type Table struct {
	Name  string
	Alias string
}

func (Table) sourceNode() {}

// Derived is a sub-select used as a row source.
//
// Semantics:
//
//	(<query>) <alias>
type Derived struct {
	Query Select
	Alias string
}

func (Derived) sourceNode() {}

// JoinKind selects inner or left outer join semantics.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
)

// Join attaches a source to a relation.
//
// Semantics:
//
//	[LEFT] JOIN <source> ON <on>
//
// Every join of a primary relation must be to-one. Joining a many-valued
// table multiplies rows and corrupts counts and sums; Validate reports it.
type Join struct {
	Kind   JoinKind
	Source Source
	On     Predicate
}

// Relation is the FROM clause: a root source and its joins, in order.
//
// Relations are plain values. Builders return fresh ones per request, so
// composing one never affects another.
type Relation struct {
	From  Source
	Joins []Join
}

// Projection is one output column.
//
// Semantics:
//
//	<expr> AS <alias>
type Projection struct {
	Expr  Expr
	Alias string
}

// OrderTerm is one ORDER BY key.
type OrderTerm struct {
	Expr Expr
	Desc bool
}

// Select represents a full query.
//
// Semantics:
//
//	SELECT [DISTINCT] <projections>
//	FROM <relation>
//	WHERE <filter>
//	GROUP BY <group by>
//	ORDER BY <order by>
//	LIMIT <limit> OFFSET <offset>
//
// Example:
//
//	Select{
//	  Projections: []Projection{{Expr: Col{Table: "p", Name: "pkey"}, Alias: "project_key"}},
//	  Relation:    Relation{From: Table{Name: "project", Alias: "p"}},
//	  Filter:      In{Left: Col{Table: "p", Name: "id"}, Values: ir.Ints([]int64{1, 2})},
//	  OrderBy:     []OrderTerm{{Expr: Col{Table: "p", Name: "pkey"}}},
//	}
//
// Translates to SQL:
//
//	SELECT p.pkey AS project_key FROM project p WHERE p.id IN (?, ?) ORDER BY p.pkey ASC
//
// Filter nil means no WHERE clause. Limit and Offset are emitted only when set.
type Select struct {
	Distinct    bool
	Projections []Projection
	Relation    Relation
	Filter      Predicate
	GroupBy     []Expr
	OrderBy     []OrderTerm
	Limit       *int64
	Offset      *int64
}

func (Select) queryNode() {}

// Col references a column of an aliased source.
//
// Semantics:
//
//	<table>.<name>
type Col struct {
	Table string
	Name  string
}

func (Col) exprNode() {}

// Lit is a literal bound as a query parameter, never interpolated.
type Lit struct {
	Value ir.IRValue
}

func (Lit) exprNode() {}

// Const is a string constant written inline as a quoted SQL literal.
// Only for compile-time constants of the query shape (e.g. the "-" of an issue key),
// never for caller-supplied values.
type Const struct {
	Value string
}

func (Const) exprNode() {}

// Concat joins string expressions.
//
// Semantics:
//
//	<a> || <b> || ...
type Concat struct {
	Parts []Expr
}

func (Concat) exprNode() {}

// Lower folds an expression to lower case.
type Lower struct {
	Arg Expr
}

func (Lower) exprNode() {}

// Coalesce returns the first non-NULL argument.
type Coalesce struct {
	Args []Expr
}

func (Coalesce) exprNode() {}

// CastType names a portable cast target.
type CastType string

const (
	CastText   CastType = "TEXT"
	CastBigInt CastType = "BIGINT"
)

// Cast converts an expression.
//
// Semantics:
//
//	CAST(<arg> AS <type>)
type Cast struct {
	Arg  Expr
	Type CastType
}

func (Cast) exprNode() {}

// AggFunc names an aggregate function.
type AggFunc string

const (
	AggSum   AggFunc = "SUM"
	AggMin   AggFunc = "MIN"
	AggMax   AggFunc = "MAX"
	AggCount AggFunc = "COUNT"
)

// Agg applies an aggregate. A nil Arg with AggCount means COUNT(*).
type Agg struct {
	Func     AggFunc
	Arg      Expr
	Distinct bool
}

func (Agg) exprNode() {}

// Subquery is a scalar sub-select yielding at most one value.
type Subquery struct {
	Query Select
}

func (Subquery) exprNode() {}

// True always holds.
//
// Semantics:
//
//	1 = 1
type True struct{}

func (True) predicateNode() {}

// And represents conjunction of predicates.
// An empty And holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents disjunction of predicates.
// An empty Or never holds.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "<>"
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Compare represents a binary comparison.
//
// Semantics:
//
//	<left> <op> <right>
type Compare struct {
	Left  Expr
	Op    CompareOp
	Right Expr
}

func (Compare) predicateNode() {}

// Equals is shorthand for Compare{left, OpEq, right}.
func Equals(left, right Expr) Compare {
	return Compare{Left: left, Op: OpEq, Right: right}
}

// In represents membership in a literal set.
//
// Semantics:
//
//	<left> IN (?, ?, ...)
//
// An empty set never holds.
type In struct {
	Left   Expr
	Values ir.IRArray
}

func (In) predicateNode() {}

// InQuery represents membership in a sub-select's single column.
//
// Semantics:
//
//	<left> IN (SELECT ...)
type InQuery struct {
	Left  Expr
	Query Select
}

func (InQuery) predicateNode() {}

// IsNull tests for NULL.
//
// Semantics:
//
//	<expr> IS NULL        (Negate false)
//	<expr> IS NOT NULL    (Negate true)
type IsNull struct {
	Expr   Expr
	Negate bool
}

func (IsNull) predicateNode() {}

// Exists tests whether a (usually correlated) sub-select yields a row.
//
// Semantics:
//
//	EXISTS (SELECT ...)        (Negate false)
//	NOT EXISTS (SELECT ...)    (Negate true)
//
// Exists is how many-valued attributes filter a primary relation without
// joining them into it.
type Exists struct {
	Query  Select
	Negate bool
}

func (Exists) predicateNode() {}

// Like matches a pattern with backslash as the escape character.
//
// Semantics:
//
//	<left> LIKE <pattern> ESCAPE '\'
type Like struct {
	Left    Expr
	Pattern Expr
}

func (Like) predicateNode() {}
