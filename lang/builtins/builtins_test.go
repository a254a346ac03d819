package builtins_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrel/lang/builtins"
	"github.com/kestrel-lang/kestrel/lang/eval"
	"github.com/kestrel-lang/kestrel/lang/parser"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	require.NoError(t, err)

	var out bytes.Buffer
	reg := builtins.New(&out)
	ip := &eval.Interp{Path: "test.kes", Builtins: reg}
	scopes := eval.NewScopeStack([]*eval.Scope{eval.NewScope()})
	return out.String(), eval.EvalProgram(ip, scopes, reg.Globals(), prog)
}

func TestLenAcrossTypes(t *testing.T) {
	out, err := run(t, `
		print(len("hello"))
		print(len([1, 2, 3]))
		print(len({a: 1}))
	`)
	require.NoError(t, err)
	assert.Equal(t, "5\n3\n1\n", out)
}

func TestTypeBuiltin(t *testing.T) {
	out, err := run(t, `
		print(type(1))
		print(type("s"))
		print(type(true))
		print(type(null))
		print(type([1]))
		print(type({}))
	`)
	require.NoError(t, err)
	assert.Equal(t, "int\nstr\nbool\nnull\nlist\nobject\n", out)
}

func TestIntAbs(t *testing.T) {
	out, err := run(t, `
		print((0 - 5)::abs())
		print((5)::abs())
	`)
	require.NoError(t, err)
	assert.Equal(t, "5\n5\n", out)
}

func TestIntAbsOverflowOnMinInt(t *testing.T) {
	_, err := run(t, `
		min := (0 - 9223372036854775807) - 1
		a := min::abs()
	`)
	require.Error(t, err)
	assert.True(t, eval.IsRuntime(err))
	assert.Contains(t, err.Error(), "overflow")
}

func TestStrGraphemesCountsClusters(t *testing.T) {
	out, err := run(t, `print(len("hello"::graphemes()))`)
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestStrBytesLen(t *testing.T) {
	out, err := run(t, `print("hello"::bytes_len())`)
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestListReversed(t *testing.T) {
	out, err := run(t, `print([1, 2, 3]::reversed())`)
	require.NoError(t, err)
	assert.Equal(t, "[\n    3,\n    2,\n    1,\n]\n", out)
}

func TestObjectKeysSorted(t *testing.T) {
	out, err := run(t, `print({z: 1, a: 2}::keys())`)
	require.NoError(t, err)
	assert.Equal(t, "[\n    a,\n    z,\n]\n", out)
}

func TestFuncNameOnBuiltinAndUserFunc(t *testing.T) {
	out, err := run(t, `
		fn named() { return 1 }
		print(named::name())
		print(print::name())
	`)
	require.NoError(t, err)
	assert.Equal(t, "named\nprint\n", out)
}

func TestFuncNameOnAnonymousFuncIsNull(t *testing.T) {
	out, err := run(t, `
		f := fn(x) { return x }
		print(f::name())
	`)
	require.NoError(t, err)
	assert.Equal(t, "<null>\n", out)
}

func TestAssertTrueIsSilent(t *testing.T) {
	out, err := run(t, `assert(1 == 1)`)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestBuiltinArgCountMismatch(t *testing.T) {
	_, err := run(t, `len(1, 2)`)
	require.Error(t, err)
	assert.False(t, eval.IsRuntime(err))
	assert.Contains(t, err.Error(), "only takes")
}

func TestKeysRejectsNonObject(t *testing.T) {
	_, err := run(t, `keys([1, 2])`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects an object")
}
