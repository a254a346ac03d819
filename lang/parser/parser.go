// Package parser implements the recursive-descent parser that transforms a
// Kestrel source buffer into an ast.Program. Its advance/expect structure
// follows the teacher's lang/parser package; the expression grammar and
// binder-pattern shapes follow original_source/src/ast.rs's RawExpr/Stmt
// definitions.
package parser

import (
	"fmt"

	"github.com/kestrel-lang/kestrel/lang/ast"
	"github.com/kestrel-lang/kestrel/lang/scanner"
	"github.com/kestrel-lang/kestrel/lang/token"
)

// Error is a syntax error with the source position at which it occurred.
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	line, col := e.Pos.LineCol()
	return fmt.Sprintf("%d:%d: %s", line, col, e.Msg)
}

// Parse scans and parses src into a Program. Parsing stops at the first
// error encountered (either lexical or syntactic).
func Parse(src []byte) (ast.Program, error) {
	p := &parser{sc: scanner.New(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

// ParseExpr parses a single expression from src, consuming the whole
// buffer. Used by lang/eval to re-parse string interpolation slots.
func ParseExpr(src []byte) (ast.Expr, error) {
	p := &parser{sc: scanner.New(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.Token != token.EOF {
		return nil, p.errorf("unexpected trailing input after expression")
	}
	return e, nil
}

type parser struct {
	sc  *scanner.Scanner
	tok scanner.Tok
}

func (p *parser) advance() error {
	tok, err := p.sc.Scan()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &Error{Pos: p.tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(tok token.Token) (token.Pos, error) {
	if p.tok.Token != tok {
		return 0, p.errorf("expected %s, found %s", tok, p.tok.Token)
	}
	pos := p.tok.Pos
	return pos, p.advance()
}

func (p *parser) at(tok token.Token) bool { return p.tok.Token == tok }

func (p *parser) expectIdent() (string, error) {
	if p.tok.Token != token.IDENT {
		return "", p.errorf("expected identifier, found %s", p.tok.Token)
	}
	name := p.tok.Lit
	return name, p.advance()
}

func (p *parser) parseProgram() (ast.Program, error) {
	var prog ast.Program
	for p.tok.Token != token.EOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog = append(prog, stmt)
	}
	return prog, nil
}

// parseBlock parses a `{ stmt* }` block, having not yet consumed the
// opening brace.
func (p *parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.at(token.RBRACE) {
		if p.at(token.EOF) {
			return nil, p.errorf("expected '}', found eof")
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return stmts, nil
}
