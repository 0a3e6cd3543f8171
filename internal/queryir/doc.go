// Package queryir provides the abstract query representation that report
// builders produce and SQL backends compile.
//
// ARCHITECTURE:
//
//	[filter.Spec] → [report builders] → [Query IR] → [querysql: SQLite | PostgreSQL]
//
// Builders never write SQL text. They assemble Select values from relations,
// predicates and expressions; the compiler owns quoting, placeholders and
// dialect differences.
//
// SEALED INTERFACES:
//
// Query, Predicate, Expr and Source are sealed with marker methods. Only types
// in this package implement them, so backends can switch exhaustively:
//
//	switch p := pred.(type) {
//	case And:
//	case Or:
//	case Exists:
//	...
//	}
//
// VALUE SEMANTICS:
//
// Every node is a plain value. A Relation or Select can be copied and extended
// without affecting the original, which is what lets one base relation serve
// the list, count and aggregate variants of the same request.
//
// MANY-VALUED ATTRIBUTES:
//
// Tables that hold several rows per issue (component and version links,
// labels, epic links) must only appear inside Exists, InQuery or side queries.
// Validate flags a primary relation that joins one.
//
// LITERALS:
//
// All caller-supplied values are ir.IRValue literals and are always bound as
// parameters. Const is reserved for fixed fragments of the query shape.
package queryir
