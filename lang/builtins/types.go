package builtins

import (
	"fmt"
	"math"

	"github.com/rivo/uniseg"

	"github.com/kestrel-lang/kestrel/lang/eval"
)

// typeMethods is the per-type method table reached through
// eval.BuiltinLookup.TypeFunc for `value::name()` expressions.
var typeMethods = map[string]map[string]*eval.BuiltinFunc{
	"int": {
		"abs": eval.NewBuiltinFunc("int::abs", methodIntAbs),
	},
	"str": {
		"graphemes": eval.NewBuiltinFunc("str::graphemes", methodStrGraphemes),
		"bytes_len": eval.NewBuiltinFunc("str::bytes_len", methodStrBytesLen),
	},
	"list": {
		"reversed": eval.NewBuiltinFunc("list::reversed", methodListReversed),
	},
	"object": {
		"keys": eval.NewBuiltinFunc("object::keys", methodObjectKeys),
	},
	"func": {
		"name": eval.NewBuiltinFunc("func::name", methodFuncName),
	},
}

func assertThis(fnName string, this *eval.SourcedValue) (eval.Value, error) {
	if this == nil {
		return nil, &eval.EvalError{Kind: eval.KindRuntime, Msg: fmt.Sprintf(
			"'%s' requires a 'this' value", fnName)}
	}
	return this.V, nil
}

func methodIntAbs(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("int::abs", 0, args); err != nil {
		return eval.SourcedValue{}, err
	}
	v, err := assertThis("int::abs", this)
	if err != nil {
		return eval.SourcedValue{}, err
	}
	n := v.(eval.Int)
	if n == math.MinInt64 {
		return eval.SourcedValue{}, &eval.EvalError{Kind: eval.KindRuntime, Msg: fmt.Sprintf(
			"'%s::abs()' caused an integer overflow", n)}
	}
	if n < 0 {
		n = -n
	}
	return eval.NoSource(n), nil
}

func methodStrGraphemes(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("str::graphemes", 0, args); err != nil {
		return eval.SourcedValue{}, err
	}
	v, err := assertThis("str::graphemes", this)
	if err != nil {
		return eval.SourcedValue{}, err
	}
	s := v.(eval.Str)

	var items []eval.SourcedValue
	gr := uniseg.NewGraphemes(string(s))
	for gr.Next() {
		items = append(items, eval.NoSource(eval.Str(gr.Str())))
	}
	return eval.NoSource(eval.NewList(items)), nil
}

func methodStrBytesLen(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("str::bytes_len", 0, args); err != nil {
		return eval.SourcedValue{}, err
	}
	v, err := assertThis("str::bytes_len", this)
	if err != nil {
		return eval.SourcedValue{}, err
	}
	s := v.(eval.Str)
	return eval.NoSource(eval.Int(len(s))), nil
}

func methodListReversed(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("list::reversed", 0, args); err != nil {
		return eval.SourcedValue{}, err
	}
	v, err := assertThis("list::reversed", this)
	if err != nil {
		return eval.SourcedValue{}, err
	}
	list := v.(*eval.List)
	items := list.Snapshot()
	out := make([]eval.SourcedValue, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return eval.NoSource(eval.NewList(out)), nil
}

func methodObjectKeys(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("object::keys", 0, args); err != nil {
		return eval.SourcedValue{}, err
	}
	v, err := assertThis("object::keys", this)
	if err != nil {
		return eval.SourcedValue{}, err
	}
	obj := v.(*eval.Object)
	keys := obj.SortedKeys()
	items := make([]eval.SourcedValue, len(keys))
	for i, k := range keys {
		items[i] = eval.NoSource(eval.Str(k))
	}
	return eval.NoSource(eval.NewList(items)), nil
}

func methodFuncName(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("func::name", 0, args); err != nil {
		return eval.SourcedValue{}, err
	}
	v, err := assertThis("func::name", this)
	if err != nil {
		return eval.SourcedValue{}, err
	}
	switch f := v.(type) {
	case *eval.Func:
		if f.Name == "" {
			return eval.NullValue, nil
		}
		return eval.NoSource(eval.Str(f.Name)), nil
	case *eval.BuiltinFunc:
		return eval.NoSource(eval.Str(f.Name)), nil
	default:
		return eval.SourcedValue{}, &eval.EvalError{Kind: eval.KindIncorrectType, Msg: "'func::name' requires a function value"}
	}
}
