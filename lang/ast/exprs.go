package ast

import "github.com/kestrel-lang/kestrel/lang/token"

type (
	// NullExpr is the `null` literal.
	NullExpr struct {
		Start token.Pos
	}

	// BoolExpr is a `true`/`false` literal.
	BoolExpr struct {
		Start token.Pos
		Value bool
	}

	// IntExpr is an integer literal.
	IntExpr struct {
		Start token.Pos
		Value int64
	}

	// StrExpr is a string literal. InterpSlots is nil for a plain string;
	// otherwise it gives the byte offsets into Value of each ${...} slot
	// (including the delimiters), to be re-parsed and evaluated at run time.
	StrExpr struct {
		Start       token.Pos
		Value       string
		InterpSlots []Slot
	}

	// Slot is a single `${...}` interpolation slot, as a byte range into the
	// enclosing StrExpr.Value.
	Slot struct {
		Start, End int
	}

	// VarExpr is an identifier reference.
	VarExpr struct {
		Start token.Pos
		Name  string
	}

	// UnaryOpExpr is a unary operation, e.g. `!x`.
	UnaryOpExpr struct {
		OpPos token.Pos
		Op    token.Token
		X     Expr
	}

	// BinaryOpExpr is a binary operation, e.g. `x + y`.
	BinaryOpExpr struct {
		OpPos token.Pos
		Op    token.Token
		X, Y  Expr
	}

	// ListExpr is a list literal, or (reusing the same shape) a list
	// destructuring pattern. Collect is set by the parser only when this
	// node was parsed in pattern position and its last item is a `...rest`
	// capture; in that case the last item's IsSpread is false (it is a
	// plain binding target, not a splice).
	ListExpr struct {
		Start   token.Pos
		Items   []ListItem
		Collect bool
	}

	// IndexExpr is `x[k]`.
	IndexExpr struct {
		X     Expr
		Index Expr
		Start token.Pos
	}

	// RangeIndexExpr is `x[s..e]`, with either bound optional.
	RangeIndexExpr struct {
		X          Expr
		Start, End Expr // either may be nil
		Pos_       token.Pos
	}

	// RangeExpr is `s..e`, evaluating to a list of integers.
	RangeExpr struct {
		X, Y  Expr
		Start token.Pos
	}

	// ObjectExpr is an object literal.
	ObjectExpr struct {
		Start token.Pos
		Props []PropItem
	}

	// PropExpr is `x.name` or `x::name` (TypeProp set for the latter).
	PropExpr struct {
		X        Expr
		Name     string
		TypeProp bool
		Start    token.Pos
	}

	// FuncExpr is a function literal (anonymous or named; the statement form
	// wraps this with a name to declare).
	FuncExpr struct {
		Start       token.Pos
		Params      []Expr
		CollectArgs bool
		Body        []Stmt
	}

	// CallExpr is `f(a, b, ...)`.
	CallExpr struct {
		Func  Expr
		Args  []ListItem
		Start token.Pos
	}

	// CatchAsBoolExpr is `expr?`.
	CatchAsBoolExpr struct {
		X     Expr
		Start token.Pos
	}
)

func (n *NullExpr) Pos() token.Pos        { return n.Start }
func (n *BoolExpr) Pos() token.Pos        { return n.Start }
func (n *IntExpr) Pos() token.Pos         { return n.Start }
func (n *StrExpr) Pos() token.Pos         { return n.Start }
func (n *VarExpr) Pos() token.Pos         { return n.Start }
func (n *UnaryOpExpr) Pos() token.Pos     { return n.X.Pos() }
func (n *BinaryOpExpr) Pos() token.Pos    { return n.X.Pos() }
func (n *ListExpr) Pos() token.Pos        { return n.Start }
func (n *IndexExpr) Pos() token.Pos       { return n.Start }
func (n *RangeIndexExpr) Pos() token.Pos  { return n.Pos_ }
func (n *RangeExpr) Pos() token.Pos       { return n.Start }
func (n *ObjectExpr) Pos() token.Pos      { return n.Start }
func (n *PropExpr) Pos() token.Pos        { return n.Start }
func (n *FuncExpr) Pos() token.Pos        { return n.Start }
func (n *CallExpr) Pos() token.Pos        { return n.Start }
func (n *CatchAsBoolExpr) Pos() token.Pos { return n.Start }

func (*NullExpr) expr()        {}
func (*BoolExpr) expr()        {}
func (*IntExpr) expr()         {}
func (*StrExpr) expr()         {}
func (*VarExpr) expr()         {}
func (*UnaryOpExpr) expr()     {}
func (*BinaryOpExpr) expr()    {}
func (*ListExpr) expr()        {}
func (*IndexExpr) expr()       {}
func (*RangeIndexExpr) expr()  {}
func (*RangeExpr) expr()       {}
func (*ObjectExpr) expr()      {}
func (*PropExpr) expr()        {}
func (*FuncExpr) expr()        {}
func (*CallExpr) expr()        {}
func (*CatchAsBoolExpr) expr() {}
