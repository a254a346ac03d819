package parser

import (
	"github.com/kestrel-lang/kestrel/lang/ast"
	"github.com/kestrel-lang/kestrel/lang/token"
)

func (p *parser) parseStmt() (ast.Stmt, error) {
	switch p.tok.Token {
	case token.LBRACE:
		// `{name,`, `{name:` and `{..` open an object pattern such as
		// `{a, ...rest} := o` rather than a block; peek on a scanner copy.
		sc, tok := *p.sc, p.tok
		isPattern := false
		if p.advance() == nil {
			isPattern = p.tok.Token == token.DOTDOT
			if p.tok.Token == token.IDENT && p.advance() == nil {
				isPattern = p.tok.Token == token.COMMA || p.tok.Token == token.COLON
			}
		}
		*p.sc, p.tok = sc, tok
		if isPattern {
			return p.parseSimpleStmt()
		}
		start := p.tok.Pos
		stmts, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.BlockStmt{Start: start, Stmts: stmts}, nil

	case token.IF:
		return p.parseIf()

	case token.WHILE:
		return p.parseWhile()

	case token.FOR:
		return p.parseFor()

	case token.BREAK:
		pos := p.tok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.BreakStmt{Start: pos}, nil

	case token.CONTINUE:
		pos := p.tok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.ContinueStmt{Start: pos}, nil

	case token.FN:
		return p.parseFuncStmt()

	case token.RETURN:
		return p.parseReturn()

	default:
		return p.parseSimpleStmt()
	}
}

func (p *parser) parseIf() (ast.Stmt, error) {
	start := p.tok.Pos
	var branches []ast.Branch
	var elseStmts []ast.Stmt

	if err := p.advance(); err != nil { // consume 'if'
		return nil, err
	}
	for {
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.Branch{Cond: cond, Stmts: body})

		if p.tok.Token != token.ELSE {
			break
		}
		if err := p.advance(); err != nil { // consume 'else'
			return nil, err
		}
		if p.tok.Token != token.IF {
			elseStmts, err = p.parseBlock()
			if err != nil {
				return nil, err
			}
			break
		}
		if err := p.advance(); err != nil { // consume 'if' of 'else if'
			return nil, err
		}
	}

	return &ast.IfStmt{Start: start, Branches: branches, Else: elseStmts}, nil
}

func (p *parser) parseWhile() (ast.Stmt, error) {
	start := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Start: start, Cond: cond, Stmts: body}, nil
}

func (p *parser) parseFor() (ast.Stmt, error) {
	start := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	lhs, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Start: start, Lhs: lhs, Iter: iter, Stmts: body}, nil
}

func (p *parser) parseFuncStmt() (ast.Stmt, error) {
	start := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
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
	return &ast.FuncStmt{Start: start, Name: name, Params: params, CollectArgs: collect, Body: body}, nil
}

func (p *parser) parseReturn() (ast.Stmt, error) {
	start := p.tok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Token == token.RBRACE {
		return &ast.ReturnStmt{Start: start}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Start: start, Expr: e}, nil
}

// parseSimpleStmt parses a declare, assign, op-assign, or bare expression
// statement, distinguished by what follows the first parsed expression.
func (p *parser) parseSimpleStmt() (ast.Stmt, error) {
	start := p.tok.Pos
	lhs, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	switch p.tok.Token {
	case token.DECLARE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		pat, err := toPattern(lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.DeclareStmt{Start: start, Lhs: pat, Rhs: rhs}, nil

	case token.ASSIGN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		pat, err := toPattern(lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Start: start, Lhs: pat, Rhs: rhs}, nil

	default:
		if op, ok := p.tok.Token.CompoundOp(); ok {
			opPos := p.tok.Pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			rhs, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			return &ast.OpAssignStmt{OpPos: opPos, Op: op, Lhs: lhs, Rhs: rhs}, nil
		}
		return &ast.ExprStmt{X: lhs}, nil
	}
}
