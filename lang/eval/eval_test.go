package eval_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrel/lang/builtins"
	"github.com/kestrel-lang/kestrel/lang/eval"
	"github.com/kestrel-lang/kestrel/lang/parser"
)

// run parses and evaluates src, returning everything printed via `print`
// and the evaluation error, if any.
func run(t *testing.T, src string) (string, error) {
	t.Helper()
	prog, err := parser.Parse([]byte(src))
	require.NoError(t, err, "parse error")

	var out bytes.Buffer
	reg := builtins.New(&out)
	ip := &eval.Interp{Path: "test.kes", Builtins: reg}
	scopes := eval.NewScopeStack([]*eval.Scope{eval.NewScope()})
	err = eval.EvalProgram(ip, scopes, reg.Globals(), prog)
	return out.String(), err
}

func TestArithmetic(t *testing.T) {
	out, err := run(t, `
		a := 2 + 3 * 4
		print(a)
		b := (2 + 3) * 4
		print(b)
		print(7 / 2)
		print(7 % 2)
		print(0 - 5)
	`)
	require.NoError(t, err)
	assert.Equal(t, "14\n20\n3\n1\n-5\n", out)
}

func TestDivideByZeroDistinctFromModByZero(t *testing.T) {
	_, err := run(t, `a := 1 / 0`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
	assert.Contains(t, err.Error(), "'1 / 0'")

	_, err = run(t, `a := 1 % 0`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
	assert.Contains(t, err.Error(), "'1 % 0'")
}

func TestIntOverflow(t *testing.T) {
	_, err := run(t, `a := 9223372036854775807 + 1`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integer overflow")
	assert.Contains(t, err.Error(), "9,223,372,036,854,775,807")
}

func TestStringInterpolation(t *testing.T) {
	out, err := run(t, `
		name := "world"
		print($"hello, ${name}!")
		print($"concat: ${name + "?"}")
	`)
	require.NoError(t, err)
	assert.Equal(t, "hello, world!\nconcat: world?\n", out)
}

func TestListAndObjectLiterals(t *testing.T) {
	out, err := run(t, `
		xs := [1, 2, 3]
		print(xs)
		o := {a: 1, b: 2}
		print(keys(o))
	`)
	require.NoError(t, err)
	assert.Contains(t, out, "1,")
	assert.Contains(t, out, "a,")
	assert.Contains(t, out, "b,")
}

func TestDestructuring(t *testing.T) {
	out, err := run(t, `
		[a, b, ...rest] := [1, 2, 3, 4]
		print(a)
		print(b)
		print(rest)

		{x, ...others} := {x: 1, y: 2, z: 3}
		print(x)
		print(keys(others))
	`)
	require.NoError(t, err)
	assert.Contains(t, out, "1\n2\n")
}

func TestUnderscoreIsDiscarded(t *testing.T) {
	out, err := run(t, `
		[_, b] := [1, 2]
		print(b)
	`)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestForLoopOrderingOverListIsIndexOrder(t *testing.T) {
	out, err := run(t, `
		for [i, v] in [10, 20, 30] {
			print(i)
			print(v)
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n10\n1\n20\n2\n30\n", out)
}

func TestForLoopOverObjectIsSortedKeyOrder(t *testing.T) {
	out, err := run(t, `
		o := {z: 1, a: 2, m: 3}
		for [k, v] in o {
			print(k)
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "a\nm\nz\n", out)
}

func TestWhileBreakAndContinue(t *testing.T) {
	out, err := run(t, `
		i := 0
		while true {
			i = i + 1
			if i == 3 {
				continue
			}
			if i > 5 {
				break
			}
			print(i)
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n4\n5\n", out)
}

func TestBlockPropagatesBreak(t *testing.T) {
	out, err := run(t, `
		i := 0
		while true {
			i = i + 1
			{
				if i >= 3 {
					break
				}
			}
			print(i)
		}
		print("done")
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\ndone\n", out)
}

func TestFunctionsClosuresAndThis(t *testing.T) {
	out, err := run(t, `
		fn adder(n) {
			fn inner(x) {
				return x + n
			}
			return inner
		}
		add5 := adder(5)
		print(add5(10))

		o := {n: 7}
		fn getN() {
			return this.n
		}
		o.getN = getN
		print(o.getN())
	`)
	require.NoError(t, err)
	assert.Equal(t, "15\n7\n", out)
}

func TestCatchAsBoolRecoversRuntimeErrorOnly(t *testing.T) {
	out, err := run(t, `
		xs := [1, 2, 3]
		[v, ok] := xs[10]?
		print(ok)
		[v2, ok2] := xs[1]?
		print(v2)
		print(ok2)
	`)
	require.NoError(t, err)
	assert.Equal(t, "false\n2\ntrue\n", out)
}

func TestCatchAsBoolDoesNotRecoverNonRuntimeError(t *testing.T) {
	_, err := run(t, `
		a := true
		b := (a + 1)?
	`)
	require.Error(t, err)
	assert.False(t, eval.IsRuntime(err))
}

func TestReferenceVsStructuralEquality(t *testing.T) {
	out, err := run(t, `
		a := [1, 2]
		b := [1, 2]
		c := a
		print(a == b)
		print(a === b)
		print(a === c)
	`)
	require.NoError(t, err)
	assert.Equal(t, "true\nfalse\ntrue\n", out)
}

func TestRangeIndexAndRange(t *testing.T) {
	out, err := run(t, `
		xs := [10, 20, 30, 40, 50]
		print(xs[1..3])
		print(0..3)
	`)
	require.NoError(t, err)
	assert.Contains(t, out, "20,")
	assert.Contains(t, out, "0,")
}

func TestRangeIndexAssignmentFromString(t *testing.T) {
	out, err := run(t, `
		xs := [0, 0, 0, 0]
		xs[1..3] = "ab"
		print(xs[0])
		print(xs[1])
		print(xs[2])
		print(xs[3])
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\na\nb\n0\n", out)
}

func TestAssertBuiltin(t *testing.T) {
	_, err := run(t, `assert(1 == 2)`)
	require.Error(t, err)
	assert.True(t, eval.IsRuntime(err))
	assert.Contains(t, err.Error(), "assertion failed")
}

func TestStacktraceIncludesCallFrames(t *testing.T) {
	_, err := run(t, `
		fn fails() {
			return 1 / 0
		}
		fn caller() {
			return fails()
		}
		caller()
	`)
	require.Error(t, err)
	msg, frames := eval.Stacktrace("test.kes", err)
	assert.Contains(t, msg, "division by zero")
	assert.Contains(t, msg, "fails")
	require.Len(t, frames, 2)
	assert.Contains(t, frames[0], "caller")
	assert.Contains(t, frames[1], "<root>")
}

func TestDuplicateParamNameRejected(t *testing.T) {
	_, err := run(t, `
		fn f(a, a) {
			return a
		}
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already bound")
}

func TestBreakOutsideLoopIsAnError(t *testing.T) {
	_, err := run(t, `break`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside of a loop")
}

func TestReturnOutsideFunctionIsAnError(t *testing.T) {
	_, err := run(t, `return 1`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside of a function")
}

func TestMaxStepsBoundsRuntime(t *testing.T) {
	prog, err := parser.Parse([]byte(`
		i := 0
		while true {
			i = i + 1
		}
	`))
	require.NoError(t, err)

	var out bytes.Buffer
	reg := builtins.New(&out)
	ip := &eval.Interp{Path: "test.kes", Builtins: reg, MaxSteps: 1000}
	scopes := eval.NewScopeStack([]*eval.Scope{eval.NewScope()})
	err = eval.EvalProgram(ip, scopes, reg.Globals(), prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum")
	assert.True(t, eval.IsRuntime(err))
}
