package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrel/lang/token"
)

func scanAll(t *testing.T, src string) []Tok {
	t.Helper()
	s := New([]byte(src))
	var toks []Tok
	for {
		tok, err := s.Scan()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Token == token.EOF {
			return toks
		}
	}
}

func TestScanIdentsKeywordsPunct(t *testing.T) {
	toks := scanAll(t, `print(x, ...y)`)
	kinds := make([]token.Token, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Token
	}
	assert.Equal(t, []token.Token{
		token.IDENT, token.LPAREN, token.IDENT, token.COMMA,
		token.DOTDOT, token.IDENT, token.RPAREN, token.EOF,
	}, kinds)
	assert.Equal(t, "print", toks[0].Lit)
}

func TestScanKeywords(t *testing.T) {
	toks := scanAll(t, `null true false fn if else while for in break continue return`)
	want := []token.Token{
		token.NULL, token.TRUE, token.FALSE, token.FN, token.IF, token.ELSE,
		token.WHILE, token.FOR, token.IN, token.BREAK, token.CONTINUE, token.RETURN, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, tok := range toks {
		assert.Equal(t, want[i], tok.Token)
	}
}

func TestScanInt(t *testing.T) {
	toks := scanAll(t, `1234`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.INT, toks[0].Token)
	assert.Equal(t, int64(1234), toks[0].Int)
}

func TestScanOperators(t *testing.T) {
	toks := scanAll(t, `:= = += == === != !== && || <= >= :: ..`)
	want := []token.Token{
		token.DECLARE, token.ASSIGN, token.PLUSEQ, token.EQEQ, token.REFEQ,
		token.NEQ, token.REFNEQ, token.AND, token.OR, token.LTE, token.GTE,
		token.COLONCOLON, token.DOTDOT, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, tok := range toks {
		assert.Equal(t, want[i], tok.Token, "token %d", i)
	}
}

func TestScanPlainString(t *testing.T) {
	toks := scanAll(t, `"hello\nworld"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STR, toks[0].Token)
	assert.Equal(t, "hello\nworld", toks[0].Lit)
}

func TestScanHexEscape(t *testing.T) {
	toks := scanAll(t, `"\x41\x42"`)
	require.Len(t, toks, 2)
	assert.Equal(t, "AB", toks[0].Lit)
}

func TestScanUnescapedDollarIsError(t *testing.T) {
	s := New([]byte(`"a$b"`))
	_, err := s.Scan()
	assert.Error(t, err)
}

func TestScanInterpolatedString(t *testing.T) {
	toks := scanAll(t, `$"hi ${name}!"`)
	require.Len(t, toks, 2)
	tok := toks[0]
	assert.Equal(t, token.INTERPSTR, tok.Token)
	assert.Equal(t, "hi ${name}!", tok.Lit)
	require.Len(t, tok.Slots, 1)
	slot := tok.Slots[0]
	assert.Equal(t, "${name}", tok.Lit[slot.Start:slot.End])
}

func TestScanInterpolatedStringNestedBraces(t *testing.T) {
	toks := scanAll(t, `$"v = ${obj.m(f(1, {a: 1}))}"`)
	require.Len(t, toks, 2)
	tok := toks[0]
	require.Len(t, tok.Slots, 1)
	slot := tok.Slots[0]
	assert.Equal(t, `${obj.m(f(1, {a: 1}))}`, tok.Lit[slot.Start:slot.End])
}

func TestScanLineComment(t *testing.T) {
	toks := scanAll(t, "x // trailing comment\ny")
	kinds := make([]token.Token, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Token
	}
	assert.Equal(t, []token.Token{token.IDENT, token.IDENT, token.EOF}, kinds)
}

func TestScanPositionTracksLineAndCol(t *testing.T) {
	toks := scanAll(t, "a\nb")
	line, col := toks[0].Pos.LineCol()
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)
	line, col = toks[1].Pos.LineCol()
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)
}
