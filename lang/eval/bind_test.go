package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrel-lang/kestrel/lang/ast"
	"github.com/kestrel-lang/kestrel/lang/eval"
	"github.com/kestrel-lang/kestrel/lang/token"
)

func rootKind(t *testing.T, err error) eval.ErrorKind {
	t.Helper()
	ee, ok := eval.RootError(err).(*eval.EvalError)
	require.True(t, ok, "not an *EvalError: %v", err)
	return ee.Kind
}

func newStack() *eval.ScopeStack {
	return eval.NewScopeStack([]*eval.Scope{eval.NewScope()})
}

func TestBindDeclareSimpleVar(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	err := eval.Bind(ip, scopes, &ast.VarExpr{Name: "x"}, eval.NoSource(eval.Int(1)), eval.BindDeclare)
	require.NoError(t, err)

	v, ok := scopes.Get("x")
	require.True(t, ok)
	assert.Equal(t, eval.Int(1), v.V)
}

func TestBindAssignUndefinedVarFails(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	err := eval.Bind(ip, scopes, &ast.VarExpr{Name: "x"}, eval.NoSource(eval.Int(1)), eval.BindAssign)
	require.Error(t, err)
	assert.Equal(t, eval.KindUndefined, rootKind(t, err))
}

func TestBindAssignToConstFails(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	scopes.Declare("x", 1, 1, eval.NoSource(eval.Int(1)), eval.Const)
	err := eval.Bind(ip, scopes, &ast.VarExpr{Name: "x"}, eval.NoSource(eval.Int(2)), eval.BindAssign)
	require.Error(t, err)
	assert.Equal(t, eval.KindAssignToConst, rootKind(t, err))
}

func TestBindNextWithOpCompoundAssign(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	scopes.Declare("x", 1, 1, eval.NoSource(eval.Int(5)), eval.Var)

	err := eval.BindNextWithOp(ip, scopes, &ast.VarExpr{Name: "x"}, eval.NoSource(eval.Int(3)), token.PLUS, 0, eval.BindAssign)
	require.NoError(t, err)

	v, _ := scopes.Get("x")
	assert.Equal(t, eval.Int(8), v.V)
}

func TestBindListDestructuringWithCollect(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	pattern := &ast.ListExpr{
		Collect: true,
		Items: []ast.ListItem{
			{Expr: &ast.VarExpr{Name: "a"}},
			{Expr: &ast.VarExpr{Name: "rest"}},
		},
	}
	rhs := eval.NewList([]eval.SourcedValue{
		eval.NoSource(eval.Int(1)), eval.NoSource(eval.Int(2)), eval.NoSource(eval.Int(3)),
	})
	err := eval.Bind(ip, scopes, pattern, eval.NoSource(rhs), eval.BindDeclare)
	require.NoError(t, err)

	a, _ := scopes.Get("a")
	assert.Equal(t, eval.Int(1), a.V)

	rest, _ := scopes.Get("rest")
	restList, ok := rest.V.(*eval.List)
	require.True(t, ok)
	assert.Equal(t, 2, restList.Len())
	assert.Equal(t, eval.Int(2), restList.At(0).V)
	assert.Equal(t, eval.Int(3), restList.At(1).V)
}

func TestBindListDestructureLengthMismatchFails(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	pattern := &ast.ListExpr{Items: []ast.ListItem{{Expr: &ast.VarExpr{Name: "a"}}}}
	rhs := eval.NewList([]eval.SourcedValue{eval.NoSource(eval.Int(1)), eval.NoSource(eval.Int(2))})
	err := eval.Bind(ip, scopes, pattern, eval.NoSource(rhs), eval.BindDeclare)
	require.Error(t, err)
	assert.Equal(t, eval.KindListDestructureItemMismatch, rootKind(t, err))
}

func TestBindObjectDestructuringWithCollect(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	pattern := &ast.ObjectExpr{
		Props: []ast.PropItem{
			{Name: &ast.VarExpr{Name: "x"}, Value: &ast.VarExpr{Name: "x"}},
			{Single: &ast.VarExpr{Name: "others"}, Collect: true},
		},
	}
	rhs := eval.NewObject(map[string]eval.SourcedValue{
		"x": eval.NoSource(eval.Int(1)),
		"y": eval.NoSource(eval.Int(2)),
		"z": eval.NoSource(eval.Int(3)),
	})
	err := eval.Bind(ip, scopes, pattern, eval.NoSource(rhs), eval.BindDeclare)
	require.NoError(t, err)

	x, _ := scopes.Get("x")
	assert.Equal(t, eval.Int(1), x.V)

	others, _ := scopes.Get("others")
	othersObj, ok := others.V.(*eval.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"y", "z"}, othersObj.SortedKeys())
}

// TestBindObjectPairFormUsesLiteralName verifies that a bare-identifier pair
// key (`x: pattern`) binds against the literal key "x", not a variable
// lookup — so it works even when no variable named "x" is in scope.
func TestBindObjectPairFormUsesLiteralName(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()

	pattern := &ast.ObjectExpr{
		Props: []ast.PropItem{
			{Name: &ast.VarExpr{Name: "x"}, Value: &ast.VarExpr{Name: "bound"}},
		},
	}
	rhs := eval.NewObject(map[string]eval.SourcedValue{"x": eval.NoSource(eval.Int(42))})
	err := eval.Bind(ip, scopes, pattern, eval.NoSource(rhs), eval.BindDeclare)
	require.NoError(t, err)

	bound, ok := scopes.Get("bound")
	require.True(t, ok)
	assert.Equal(t, eval.Int(42), bound.V)
}

// TestBindObjectComputedKeyEvaluatesExpr verifies that the `[expr]: pattern`
// computed form evaluates expr to a string to pick the key, unlike the bare
// identifier form.
func TestBindObjectComputedKeyEvaluatesExpr(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	scopes.Declare("keyVar", 1, 1, eval.NoSource(eval.Str("x")), eval.Var)

	pattern := &ast.ObjectExpr{
		Props: []ast.PropItem{
			{Name: &ast.VarExpr{Name: "keyVar"}, Value: &ast.VarExpr{Name: "bound"}, Computed: true},
		},
	}
	rhs := eval.NewObject(map[string]eval.SourcedValue{"x": eval.NoSource(eval.Int(42))})
	err := eval.Bind(ip, scopes, pattern, eval.NoSource(rhs), eval.BindDeclare)
	require.NoError(t, err)

	bound, ok := scopes.Get("bound")
	require.True(t, ok)
	assert.Equal(t, eval.Int(42), bound.V)
}

func TestBindObjectDestructureMissingKeyFails(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	pattern := &ast.ObjectExpr{
		Props: []ast.PropItem{{Single: &ast.VarExpr{Name: "missing"}}},
	}
	rhs := eval.NewObject(map[string]eval.SourcedValue{"present": eval.NoSource(eval.Int(1))})
	err := eval.Bind(ip, scopes, pattern, eval.NoSource(rhs), eval.BindDeclare)
	require.Error(t, err)
	assert.Equal(t, eval.KindRuntime, rootKind(t, err))
}

func TestBindDuplicateNameInPatternFails(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	pattern := &ast.ListExpr{Items: []ast.ListItem{
		{Expr: &ast.VarExpr{Name: "a"}},
		{Expr: &ast.VarExpr{Name: "a"}},
	}}
	rhs := eval.NewList([]eval.SourcedValue{eval.NoSource(eval.Int(1)), eval.NoSource(eval.Int(2))})
	err := eval.Bind(ip, scopes, pattern, eval.NoSource(rhs), eval.BindDeclare)
	require.Error(t, err)
	assert.Equal(t, eval.KindAlreadyInBinding, rootKind(t, err))
}

func TestBindIndexOutOfBoundsFails(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	list := eval.NewList([]eval.SourcedValue{eval.NoSource(eval.Int(1))})
	scopes.Declare("xs", 1, 1, eval.NoSource(list), eval.Var)

	target := &ast.IndexExpr{X: &ast.VarExpr{Name: "xs"}, Index: &ast.IntExpr{Value: 5}}
	err := eval.Bind(ip, scopes, target, eval.NoSource(eval.Int(9)), eval.BindAssign)
	require.Error(t, err)
	assert.Equal(t, eval.KindRuntime, rootKind(t, err))
}

func TestBindIndexCreatesObjectKey(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	obj := eval.NewObject(nil)
	scopes.Declare("o", 1, 1, eval.NoSource(obj), eval.Var)

	target := &ast.IndexExpr{X: &ast.VarExpr{Name: "o"}, Index: &ast.StrExpr{Value: "k"}}
	err := eval.Bind(ip, scopes, target, eval.NoSource(eval.Int(1)), eval.BindAssign)
	require.NoError(t, err)

	v, ok := obj.Get("k")
	require.True(t, ok)
	assert.Equal(t, eval.Int(1), v.V)
}

func TestBindPropCreatesOrUpdates(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	obj := eval.NewObject(map[string]eval.SourcedValue{"n": eval.NoSource(eval.Int(1))})
	scopes.Declare("o", 1, 1, eval.NoSource(obj), eval.Var)

	target := &ast.PropExpr{X: &ast.VarExpr{Name: "o"}, Name: "n"}
	err := eval.Bind(ip, scopes, target, eval.NoSource(eval.Int(2)), eval.BindAssign)
	require.NoError(t, err)

	v, _ := obj.Get("n")
	assert.Equal(t, eval.Int(2), v.V)
}

func TestBindPropOnNonObjectFails(t *testing.T) {
	ip := &eval.Interp{}
	scopes := newStack()
	scopes.Declare("o", 1, 1, eval.NoSource(eval.Int(1)), eval.Var)

	target := &ast.PropExpr{X: &ast.VarExpr{Name: "o"}, Name: "n"}
	err := eval.Bind(ip, scopes, target, eval.NoSource(eval.Int(2)), eval.BindAssign)
	require.Error(t, err)
	assert.Equal(t, eval.KindPropAccessOnNonObject, rootKind(t, err))
}
