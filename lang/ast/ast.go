// Package ast defines the abstract syntax tree produced by lang/parser and
// consumed by lang/eval. It carries no behavior of its own beyond a source
// position on every node.
package ast

import "github.com/kestrel-lang/kestrel/lang/token"

// Node is implemented by every statement and expression node.
type Node interface {
	Pos() token.Pos
}

// Expr is any expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmt()
}

// Program is the root of a parsed script: an ordered sequence of statements.
type Program []Stmt

// ListItem is an element of a list literal or a call argument list, which
// may be prefixed with "...".
type ListItem struct {
	Expr     Expr
	IsSpread bool
}

// PropItem is an element of an object literal: either an explicit key:value
// pair, or a single expression (shorthand / spread / collect candidate).
type PropItem struct {
	// Name is non-nil for `name: value` and `[expr]: value` entries. For a
	// bare identifier key, Name is a *VarExpr whose lexeme is used literally
	// as the key string. Computed marks the `[expr]: value` form, where Name
	// is evaluated at run time to produce the key and need not be an
	// identifier.
	Name     Expr
	Value    Expr
	Computed bool

	// Single is set when this item has no explicit Name (shorthand, spread
	// or collect). Expr is the operand in that case and Name/Value are nil.
	Single   Expr
	IsSpread bool
	Collect  bool
}

func (p PropItem) IsPair() bool { return p.Name != nil }

// Branch is a single `cond { ... }` arm of an if statement.
type Branch struct {
	Cond  Expr
	Stmts []Stmt
}
