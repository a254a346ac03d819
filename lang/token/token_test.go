package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenString(t *testing.T) {
	assert.Equal(t, "+=", PLUSEQ.String())
	assert.Equal(t, "fn", FN.String())
	assert.Contains(t, Token(9999).String(), "token(")
}

func TestCompoundOp(t *testing.T) {
	op, ok := PLUSEQ.CompoundOp()
	assert.True(t, ok)
	assert.Equal(t, PLUS, op)

	_, ok = ASSIGN.CompoundOp()
	assert.False(t, ok)
}

func TestKeywords(t *testing.T) {
	for text, tok := range Keywords {
		assert.Equal(t, text, tok.String())
	}
}
