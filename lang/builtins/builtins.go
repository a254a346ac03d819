// Package builtins is the registry of free functions and per-type methods
// exposed to Kestrel scripts. lang/eval never imports this package; it
// consumes it only through the eval.BuiltinLookup interface, and the CLI
// driver declares Globals() into the top scope before running a script.
package builtins

import (
	"fmt"
	"io"

	"github.com/kestrel-lang/kestrel/lang/eval"
)

// Registry implements eval.BuiltinLookup and supplies the free-function
// globals every script starts with.
type Registry struct {
	Stdout io.Writer
}

// New returns a Registry that prints to stdout.
func New(stdout io.Writer) *Registry {
	return &Registry{Stdout: stdout}
}

func (r *Registry) TypeFunc(typeName, name string) (*eval.BuiltinFunc, bool) {
	methods, ok := typeMethods[typeName]
	if !ok {
		return nil, false
	}
	fn, ok := methods[name]
	return fn, ok
}

// Globals returns the free functions declared into every script's top
// scope: print, len, type, keys, assert.
func (r *Registry) Globals() map[string]eval.Value {
	return map[string]eval.Value{
		"print":  eval.NewBuiltinFunc("print", r.builtinPrint),
		"len":    eval.NewBuiltinFunc("len", builtinLen),
		"type":   eval.NewBuiltinFunc("type", builtinType),
		"keys":   eval.NewBuiltinFunc("keys", builtinKeys),
		"assert": eval.NewBuiltinFunc("assert", builtinAssert),
	}
}

func argErr(fnName string, want int, args []eval.SourcedValue) error {
	if len(args) == want {
		return nil
	}
	plural := "s"
	if want == 1 {
		plural = ""
	}
	return &eval.EvalError{Kind: eval.KindArgNumMismatch, Msg: fmt.Sprintf(
		"'%s' only takes %d argument%s (got %d)", fnName, want, plural, len(args))}
}

func noThisErr(fnName string, this *eval.SourcedValue) error {
	if this == nil {
		return nil
	}
	return &eval.EvalError{Kind: eval.KindRuntime, Msg: fmt.Sprintf(
		"'%s' is a free function and takes no 'this'", fnName)}
}

func (r *Registry) builtinPrint(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("print", 1, args); err != nil {
		return eval.SourcedValue{}, err
	}
	if err := noThisErr("print", this); err != nil {
		return eval.SourcedValue{}, err
	}
	s, err := eval.Render(args[0].V)
	if err != nil {
		return eval.SourcedValue{}, &eval.EvalError{Kind: eval.KindRuntime, Msg: fmt.Sprintf(
			"couldn't render value: %s", err)}
	}
	fmt.Fprintln(r.Stdout, s)
	return eval.NullValue, nil
}

func builtinLen(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("len", 1, args); err != nil {
		return eval.SourcedValue{}, err
	}
	if err := noThisErr("len", this); err != nil {
		return eval.SourcedValue{}, err
	}
	switch v := args[0].V.(type) {
	case eval.Str:
		return eval.NoSource(eval.Int(len(v))), nil
	case *eval.List:
		return eval.NoSource(eval.Int(v.Len())), nil
	case *eval.Object:
		return eval.NoSource(eval.Int(v.Len())), nil
	default:
		return eval.SourcedValue{}, &eval.EvalError{Kind: eval.KindIncorrectType, Msg: fmt.Sprintf(
			"'len' doesn't accept a value of type '%s'", v.Type())}
	}
}

func builtinType(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("type", 1, args); err != nil {
		return eval.SourcedValue{}, err
	}
	if err := noThisErr("type", this); err != nil {
		return eval.SourcedValue{}, err
	}
	return eval.NoSource(eval.Str(args[0].V.Type())), nil
}

func builtinKeys(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("keys", 1, args); err != nil {
		return eval.SourcedValue{}, err
	}
	if err := noThisErr("keys", this); err != nil {
		return eval.SourcedValue{}, err
	}
	obj, ok := args[0].V.(*eval.Object)
	if !ok {
		return eval.SourcedValue{}, &eval.EvalError{Kind: eval.KindIncorrectType, Msg: fmt.Sprintf(
			"'keys' expects an object, got a value of type '%s'", args[0].V.Type())}
	}
	keys := obj.SortedKeys()
	items := make([]eval.SourcedValue, len(keys))
	for i, k := range keys {
		items[i] = eval.NoSource(eval.Str(k))
	}
	return eval.NoSource(eval.NewList(items)), nil
}

func builtinAssert(this *eval.SourcedValue, args []eval.SourcedValue) (eval.SourcedValue, error) {
	if err := argErr("assert", 1, args); err != nil {
		return eval.SourcedValue{}, err
	}
	if err := noThisErr("assert", this); err != nil {
		return eval.SourcedValue{}, err
	}
	b, ok := args[0].V.(eval.Bool)
	if !ok {
		return eval.SourcedValue{}, &eval.EvalError{Kind: eval.KindIncorrectType, Msg: fmt.Sprintf(
			"'assert' expects a bool, got a value of type '%s'", args[0].V.Type())}
	}
	if !b {
		return eval.SourcedValue{}, &eval.EvalError{Kind: eval.KindRuntime, Msg: "assertion failed"}
	}
	return eval.NullValue, nil
}
