package parser

import (
	"github.com/kestrel-lang/kestrel/lang/ast"
	"github.com/kestrel-lang/kestrel/lang/scanner"
	"github.com/kestrel-lang/kestrel/lang/token"
)

// binPrec gives the left-associative binding power of each binary operator
// token; higher binds tighter. Tokens absent from the map are not binary
// operators.
var binPrec = map[token.Token]int{
	token.OR: 1,

	token.AND: 2,

	token.EQEQ: 3, token.NEQ: 3, token.REFEQ: 3, token.REFNEQ: 3,

	token.GT: 4, token.GTE: 4, token.LT: 4, token.LTE: 4,

	token.PLUS: 5, token.MINUS: 5,

	token.STAR: 6, token.SLASH: 6, token.PERCENT: 6,
}

func (p *parser) parseExpr() (ast.Expr, error) {
	return p.parseBinary(0)
}

func (p *parser) parseBinary(minPrec int) (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		prec, ok := binPrec[p.tok.Token]
		if !ok || prec < minPrec {
			return lhs, nil
		}
		op := p.tok.Token
		opPos := p.tok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = &ast.BinaryOpExpr{OpPos: opPos, Op: op, X: lhs, Y: rhs}
	}
}

func (p *parser) parseUnary() (ast.Expr, error) {
	if p.tok.Token == token.BANG {
		opPos := p.tok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOpExpr{OpPos: opPos, Op: token.BANG, X: x}, nil
	}
	return p.parseRange()
}

// parseRange handles `x..y` range expressions, which sit just above postfix
// application so that `f()..g()` and index/prop chains bind first.
func (p *parser) parseRange() (ast.Expr, error) {
	x, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.tok.Token != token.DOTDOT {
		return x, nil
	}
	start := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	y, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	return &ast.RangeExpr{X: x, Y: y, Start: start}, nil
}

// parsePostfix parses a primary expression followed by any chain of index,
// range-index, property access, call and `?` catch suffixes, in any order.
func (p *parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.tok.Token {
		case token.LBRACK:
			start := p.tok.Pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			x, err = p.parseIndexOrRangeIndex(x, start)
			if err != nil {
				return nil, err
			}

		case token.DOT, token.COLONCOLON:
			typeProp := p.tok.Token == token.COLONCOLON
			start := p.tok.Pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			x = &ast.PropExpr{X: x, Name: name, TypeProp: typeProp, Start: start}

		case token.LPAREN:
			start := p.tok.Pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			x = &ast.CallExpr{Func: x, Args: args, Start: start}

		case token.QUESTION:
			start := p.tok.Pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			x = &ast.CatchAsBoolExpr{X: x, Start: start}

		default:
			return x, nil
		}
	}
}

// parseIndexOrRangeIndex parses the inside of `[...]` following an already
// consumed LBRACK: either `expr]` (Index) or `expr?..expr?]` (RangeIndex,
// either bound optional).
func (p *parser) parseIndexOrRangeIndex(x ast.Expr, start token.Pos) (ast.Expr, error) {
	if p.tok.Token == token.DOTDOT {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var end ast.Expr
		if p.tok.Token != token.RBRACK {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end = e
		}
		if _, err := p.expect(token.RBRACK); err != nil {
			return nil, err
		}
		return &ast.RangeIndexExpr{X: x, Start: nil, End: end, Pos_: start}, nil
	}

	sc, tok := *p.sc, p.tok
	idx, err := p.parseExpr()
	if err != nil {
		// `s..]` has no end bound for the range parser; reparse just `s`
		// and let the DOTDOT branch below take the `..`.
		*p.sc, p.tok = sc, tok
		s, err2 := p.parsePostfix()
		if err2 != nil || p.tok.Token != token.DOTDOT {
			return nil, err
		}
		idx = s
	}
	if r, ok := idx.(*ast.RangeExpr); ok && p.tok.Token == token.RBRACK {
		// `s..e]`: parseExpr has already read both bounds as a range.
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.RangeIndexExpr{X: x, Start: r.X, End: r.Y, Pos_: start}, nil
	}
	if p.tok.Token == token.DOTDOT {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var end ast.Expr
		if p.tok.Token != token.RBRACK {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			end = e
		}
		if _, err := p.expect(token.RBRACK); err != nil {
			return nil, err
		}
		return &ast.RangeIndexExpr{X: x, Start: idx, End: end, Pos_: start}, nil
	}
	if _, err := p.expect(token.RBRACK); err != nil {
		return nil, err
	}
	return &ast.IndexExpr{X: x, Index: idx, Start: start}, nil
}

// parseArgList parses a call's argument list, having consumed the opening
// paren. Supports `...expr` spread arguments.
func (p *parser) parseArgList() ([]ast.ListItem, error) {
	var items []ast.ListItem
	for p.tok.Token != token.RPAREN {
		if len(items) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
			if p.tok.Token == token.RPAREN {
				break
			}
		}
		spread := false
		if p.tok.Token == token.DOTDOT {
			if err := p.advance(); err != nil {
				return nil, err
			}
			spread = true
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, ast.ListItem{Expr: e, IsSpread: spread})
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	tok := p.tok
	switch tok.Token {
	case token.NULL:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.NullExpr{Start: tok.Pos}, nil

	case token.TRUE, token.FALSE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.BoolExpr{Start: tok.Pos, Value: tok.Token == token.TRUE}, nil

	case token.INT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.IntExpr{Start: tok.Pos, Value: tok.Int}, nil

	case token.STR:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.StrExpr{Start: tok.Pos, Value: tok.Lit}, nil

	case token.INTERPSTR:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.StrExpr{Start: tok.Pos, Value: tok.Lit, InterpSlots: convertSlots(tok.Slots)}, nil

	case token.IDENT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.VarExpr{Start: tok.Pos, Name: tok.Lit}, nil

	case token.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil

	case token.LBRACK:
		return p.parseListLiteral()

	case token.LBRACE:
		return p.parseObjectLiteral()

	case token.FN:
		return p.parseFuncLiteral()

	default:
		return nil, p.errorf("expected expression, found %s", tok.Token)
	}
}

func convertSlots(slots []scanner.Slot) []ast.Slot {
	if slots == nil {
		return nil
	}
	out := make([]ast.Slot, len(slots))
	for i, s := range slots {
		out[i] = ast.Slot{Start: s.Start, End: s.End}
	}
	return out
}

func (p *parser) parseListLiteral() (ast.Expr, error) {
	start := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	var items []ast.ListItem
	for p.tok.Token != token.RBRACK {
		if len(items) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
			if p.tok.Token == token.RBRACK {
				break
			}
		}
		spread := false
		if p.tok.Token == token.DOTDOT {
			if err := p.advance(); err != nil {
				return nil, err
			}
			spread = true
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, ast.ListItem{Expr: e, IsSpread: spread})
	}
	if _, err := p.expect(token.RBRACK); err != nil {
		return nil, err
	}
	return &ast.ListExpr{Start: start, Items: items}, nil
}

func (p *parser) parseObjectLiteral() (ast.Expr, error) {
	start := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	var props []ast.PropItem
	for p.tok.Token != token.RBRACE {
		if len(props) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
			if p.tok.Token == token.RBRACE {
				break
			}
		}
		item, err := p.parseObjectLiteralProp()
		if err != nil {
			return nil, err
		}
		props = append(props, item)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.ObjectExpr{Start: start, Props: props}, nil
}

func (p *parser) parseObjectLiteralProp() (ast.PropItem, error) {
	if p.tok.Token == token.DOTDOT {
		if err := p.advance(); err != nil {
			return ast.PropItem{}, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return ast.PropItem{}, err
		}
		return ast.PropItem{Single: e, IsSpread: true}, nil
	}

	if p.tok.Token == token.IDENT {
		name := p.tok.Lit
		namePos := p.tok.Pos
		if err := p.advance(); err != nil {
			return ast.PropItem{}, err
		}
		if p.tok.Token != token.COLON {
			// shorthand: `name` means `name: name`
			return ast.PropItem{Single: &ast.VarExpr{Start: namePos, Name: name}}, nil
		}
		if err := p.advance(); err != nil {
			return ast.PropItem{}, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return ast.PropItem{}, err
		}
		return ast.PropItem{Name: &ast.VarExpr{Start: namePos, Name: name}, Value: val}, nil
	}

	// `[expr]: value` computed key
	if p.tok.Token == token.LBRACK {
		if err := p.advance(); err != nil {
			return ast.PropItem{}, err
		}
		key, err := p.parseExpr()
		if err != nil {
			return ast.PropItem{}, err
		}
		if _, err := p.expect(token.RBRACK); err != nil {
			return ast.PropItem{}, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return ast.PropItem{}, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return ast.PropItem{}, err
		}
		return ast.PropItem{Name: key, Value: val, Computed: true}, nil
	}

	return ast.PropItem{}, p.errorf("expected property name, '...' or '[', found %s", p.tok.Token)
}

func (p *parser) parseFuncLiteral() (ast.Expr, error) {
	start := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	params, collect, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncExpr{Start: start, Params: params, CollectArgs: collect, Body: body}, nil
}

// parseParams parses a `(a, b, ...rest)` parameter list, having not yet
// consumed the opening paren.
func (p *parser) parseParams() ([]ast.Expr, bool, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, false, err
	}
	var params []ast.Expr
	collect := false
	for p.tok.Token != token.RPAREN {
		if len(params) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, false, err
			}
			if p.tok.Token == token.RPAREN {
				break
			}
		}
		if collect {
			return nil, false, p.errorf("'...' parameter must be last")
		}
		if p.tok.Token == token.DOTDOT {
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			collect = true
		}
		pat, err := p.parsePattern()
		if err != nil {
			return nil, false, err
		}
		params = append(params, pat)
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, false, err
	}
	return params, collect, nil
}
