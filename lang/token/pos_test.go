package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakePosRoundTrip(t *testing.T) {
	cases := []struct {
		line, col int
	}{
		{1, 1},
		{1, 80},
		{42, 7},
		{MaxLines, MaxCols},
	}
	for _, c := range cases {
		p := MakePos(c.line, c.col)
		gotLine, gotCol := p.LineCol()
		assert.Equal(t, c.line, gotLine)
		assert.Equal(t, c.col, gotCol)
		assert.False(t, p.Unknown())
	}
}

func TestPosUnknown(t *testing.T) {
	assert.True(t, Pos(0).Unknown())
	assert.True(t, MakePos(0, 1).Unknown())
	assert.True(t, MakePos(1, 0).Unknown())
	assert.False(t, MakePos(1, 1).Unknown())
}
