// Package eval implements the Kestrel evaluator: value representation,
// scope management, destructuring binds, and expression/statement
// evaluation over an ast.Program.
package eval

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"

	"github.com/kestrel-lang/kestrel/lang/ast"
)

// Value is implemented by every runtime value Kestrel can produce.
type Value interface {
	String() string
	Type() string
}

// Null is the singleton null value.
type Null struct{}

func (Null) String() string { return "<null>" }
func (Null) Type() string   { return "null" }

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Int is a signed 64-bit integer value.
type Int int64

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (Int) Type() string     { return "int" }

// Str is a byte string. It need not be valid UTF-8; validity is checked only
// at points of use (interpolation, object keys, rendering).
type Str []byte

func (s Str) String() string { return string(s) }
func (Str) Type() string     { return "str" }

// List is a shared, mutable, ordered sequence of values.
type List struct {
	mu    sync.Mutex
	Items []SourcedValue
}

// NewList constructs a List value from items, which it takes ownership of.
func NewList(items []SourcedValue) *List { return &List{Items: items} }

func (l *List) String() string {
	s, err := Render(l)
	if err != nil {
		return "<list>"
	}
	return s
}
func (*List) Type() string { return "list" }

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Items)
}

func (l *List) At(i int) SourcedValue {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.Items[i]
}

func (l *List) Set(i int, v SourcedValue) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Items[i] = v
}

func (l *List) Snapshot() []SourcedValue {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]SourcedValue, len(l.Items))
	copy(out, l.Items)
	return out
}

// Object is a shared, mutable, string-keyed mapping with lexicographically
// ordered iteration.
type Object struct {
	mu sync.Mutex
	m  *swiss.Map[string, SourcedValue]
}

// NewObject constructs an Object from the given key/value pairs.
func NewObject(pairs map[string]SourcedValue) *Object {
	m := swiss.NewMap[string, SourcedValue](uint32(len(pairs)))
	for k, v := range pairs {
		m.Put(k, v)
	}
	return &Object{m: m}
}

func (o *Object) String() string {
	s, err := Render(o)
	if err != nil {
		return "<object>"
	}
	return s
}
func (*Object) Type() string { return "object" }

func (o *Object) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.m.Count()
}

func (o *Object) Get(key string) (SourcedValue, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.m.Get(key)
}

func (o *Object) Set(key string, v SourcedValue) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.m.Put(key, v)
}

// SortedKeys returns the object's keys in ascending lexicographic order.
func (o *Object) SortedKeys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := make([]string, 0, o.m.Count())
	o.m.Iter(func(k string, _ SourcedValue) bool {
		keys = append(keys, k)
		return false
	})
	slices.Sort(keys)
	return keys
}

// BuiltinFn is the signature of a free or method-style builtin function.
// this is nil unless the call was method-style (a property/index read
// preceded the call).
type BuiltinFn func(this *SourcedValue, args []SourcedValue) (SourcedValue, error)

// BuiltinFunc is a named function implemented in Go.
type BuiltinFunc struct {
	Name string
	Fn   BuiltinFn
}

func NewBuiltinFunc(name string, fn BuiltinFn) *BuiltinFunc {
	return &BuiltinFunc{Name: name, Fn: fn}
}

func (f *BuiltinFunc) String() string { return fmt.Sprintf("<built-in function '%s'>", f.Name) }
func (*BuiltinFunc) Type() string     { return "func" }

// Func is a user-defined, closure-capturing function value.
type Func struct {
	mu          sync.Mutex
	Name        string
	Params      []ast.Expr
	CollectArgs bool
	Body        []ast.Stmt
	Closure     *ScopeStack
}

func (f *Func) String() string {
	if f.Name == "" {
		return "<function>"
	}
	return fmt.Sprintf("<function '%s'>", f.Name)
}
func (*Func) Type() string { return "func" }

// SourcedValue pairs a Value with the optional container it was read from,
// used to bind `this` on a subsequent method-style call.
type SourcedValue struct {
	V      Value
	Source Value
}

func NoSource(v Value) SourcedValue           { return SourcedValue{V: v} }
func WithSource(v Value, source Value) SourcedValue {
	return SourcedValue{V: v, Source: source}
}

var (
	NullValue = NoSource(Null{})
	TrueValue = NoSource(Bool(true))
	FalseValue = NoSource(Bool(false))
)

func BoolValue(b bool) SourcedValue {
	if b {
		return TrueValue
	}
	return FalseValue
}

// TypeName returns the type-name string used in error messages.
func TypeName(v Value) string { return v.Type() }

// RefEqual reports reference identity for list, object, and func values.
// ok is false if the pair isn't reference-comparable (not both the same one
// of those three kinds).
func RefEqual(a, b Value) (equal bool, ok bool) {
	switch x := a.(type) {
	case *List:
		y, isList := b.(*List)
		if !isList {
			return false, false
		}
		return x == y, true
	case *Object:
		y, isObj := b.(*Object)
		if !isObj {
			return false, false
		}
		return x == y, true
	case *Func:
		y, isFunc := b.(*Func)
		if !isFunc {
			return false, false
		}
		return x == y, true
	default:
		return false, false
	}
}

// EqualMismatch is returned by Equal when lhs and rhs have incompatible
// types somewhere in the comparison; Path points at the differing location
// (e.g. "[2].'name'").
type EqualMismatch struct {
	Path     string
	LhsType  string
	RhsType  string
}

func (m *EqualMismatch) Error() string {
	if m.Path == "" {
		return fmt.Sprintf("can't compare '%s' and '%s'", m.LhsType, m.RhsType)
	}
	return fmt.Sprintf("can't compare '%s' and '%s' at %s", m.LhsType, m.RhsType, m.Path)
}

// Equal performs deep structural equality, short-circuiting to true for
// reference-identical containers. It returns an *EqualMismatch when lhs and
// rhs have different types somewhere in the comparison.
func Equal(lhs, rhs Value) (bool, error) {
	switch a := lhs.(type) {
	case Null:
		if _, ok := rhs.(Null); ok {
			return true, nil
		}
		return false, &EqualMismatch{LhsType: a.Type(), RhsType: rhs.Type()}

	case Bool:
		b, ok := rhs.(Bool)
		if !ok {
			return false, &EqualMismatch{LhsType: a.Type(), RhsType: rhs.Type()}
		}
		return a == b, nil

	case Int:
		b, ok := rhs.(Int)
		if !ok {
			return false, &EqualMismatch{LhsType: a.Type(), RhsType: rhs.Type()}
		}
		return a == b, nil

	case Str:
		b, ok := rhs.(Str)
		if !ok {
			return false, &EqualMismatch{LhsType: a.Type(), RhsType: rhs.Type()}
		}
		return string(a) == string(b), nil

	case *List:
		b, ok := rhs.(*List)
		if !ok {
			return false, &EqualMismatch{LhsType: a.Type(), RhsType: rhs.Type()}
		}
		if a == b {
			return true, nil
		}
		xs := a.Snapshot()
		ys := b.Snapshot()
		if len(xs) != len(ys) {
			return false, nil
		}
		for i := range xs {
			eq, err := Equal(xs[i].V, ys[i].V)
			if err != nil {
				var mm *EqualMismatch
				if castErr(err, &mm) {
					return false, &EqualMismatch{
						Path:    fmt.Sprintf("[%d]%s", i, mm.Path),
						LhsType: mm.LhsType,
						RhsType: mm.RhsType,
					}
				}
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil

	case *Object:
		b, ok := rhs.(*Object)
		if !ok {
			return false, &EqualMismatch{LhsType: a.Type(), RhsType: rhs.Type()}
		}
		if a == b {
			return true, nil
		}
		if a.Len() != b.Len() {
			return false, nil
		}
		for _, k := range a.SortedKeys() {
			x, _ := a.Get(k)
			y, found := b.Get(k)
			if !found {
				return false, nil
			}
			eq, err := Equal(x.V, y.V)
			if err != nil {
				var mm *EqualMismatch
				if castErr(err, &mm) {
					return false, &EqualMismatch{
						Path:    fmt.Sprintf(".'%s'%s", k, mm.Path),
						LhsType: mm.LhsType,
						RhsType: mm.RhsType,
					}
				}
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil

	default:
		return false, &EqualMismatch{LhsType: lhs.Type(), RhsType: rhs.Type()}
	}
}

func castErr(err error, target **EqualMismatch) bool {
	mm, ok := err.(*EqualMismatch)
	if ok {
		*target = mm
	}
	return ok
}

// Render renders v the way the `print` builtin does: multi-line for lists
// and objects with 4-space nested indentation, failing if a Str isn't valid
// UTF-8.
func Render(v Value) (string, error) {
	switch x := v.(type) {
	case Null:
		return "<null>", nil
	case Bool:
		return x.String(), nil
	case Int:
		return x.String(), nil
	case Str:
		if !isValidUTF8(x) {
			return "", fmt.Errorf("value is not valid UTF-8")
		}
		return string(x), nil
	case *List:
		var b strings.Builder
		b.WriteString("[\n")
		for _, item := range x.Snapshot() {
			rendered, err := Render(item.V)
			if err != nil {
				return "", err
			}
			indented := strings.ReplaceAll(rendered, "\n", "\n    ")
			fmt.Fprintf(&b, "    %s,\n", indented)
		}
		b.WriteString("]")
		return b.String(), nil
	case *Object:
		var b strings.Builder
		b.WriteString("{\n")
		for _, k := range x.SortedKeys() {
			prop, _ := x.Get(k)
			rendered, err := Render(prop.V)
			if err != nil {
				return "", err
			}
			indented := strings.ReplaceAll(rendered, "\n", "\n    ")
			fmt.Fprintf(&b, "    %q: %s,\n", k, indented)
		}
		b.WriteString("}")
		return b.String(), nil
	case *BuiltinFunc:
		return x.String(), nil
	case *Func:
		return x.String(), nil
	default:
		return "", fmt.Errorf("unrenderable value of type %q", v.Type())
	}
}

func isValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}
