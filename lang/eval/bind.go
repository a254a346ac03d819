package eval

import (
	"golang.org/x/exp/maps"

	"github.com/kestrel-lang/kestrel/lang/ast"
	"github.com/kestrel-lang/kestrel/lang/token"
)

// BindType distinguishes a declaring bind (`:=`) from an assigning one (`=`).
type BindType int

const (
	BindDeclare BindType = iota
	BindAssign
)

// opInfo carries the compound operator of an op-assign (`+=`, etc.), if any.
type opInfo struct {
	Op  token.Token
	Pos token.Pos
}

// Bind associates rhs with the pattern lhs, declaring or assigning names as
// bindType dictates.
func Bind(ip *Interp, scopes *ScopeStack, lhs ast.Expr, rhs SourcedValue, bindType BindType) error {
	return bindNext(ip, scopes, map[string]bool{}, lhs, rhs, nil, bindType)
}

// BindName binds a single simple name, used to declare a function's own
// name after validating its parameter patterns.
func BindName(scopes *ScopeStack, name string, pos token.Pos, rhs SourcedValue, bindType BindType) error {
	return bindNextName(scopes, map[string]bool{}, name, pos, rhs, nil, bindType)
}

// BindNextWithOp performs a bind carrying a compound operator, used by
// op-assign statements (`x += e`, `xs[i] *= e`, ...).
func BindNextWithOp(ip *Interp, scopes *ScopeStack, lhs ast.Expr, rhs SourcedValue, op token.Token, opPos token.Pos, bindType BindType) error {
	return bindNext(ip, scopes, map[string]bool{}, lhs, rhs, &opInfo{Op: op, Pos: opPos}, bindType)
}

func bindNext(ip *Interp, scopes *ScopeStack, names map[string]bool, lhs ast.Expr, rhs SourcedValue, op *opInfo, bindType BindType) error {
	switch n := lhs.(type) {
	case *ast.VarExpr:
		return bindNextName(scopes, names, n.Name, n.Start, rhs, op, bindType)

	case *ast.IndexExpr:
		return bindIndex(ip, scopes, n, rhs, op)

	case *ast.RangeIndexExpr:
		if op != nil {
			return atLoc(n.Pos(), newErr(KindOpOnRangeIndex, "range-index assignment cannot use a compound operator"))
		}
		return bindRangeIndexTarget(ip, scopes, n, rhs)

	case *ast.PropExpr:
		return bindProp(ip, scopes, n, rhs, op)

	case *ast.ObjectExpr:
		if op != nil {
			return atLoc(n.Pos(), newErr(KindOpOnObjectDestructure, "object destructuring cannot use a compound operator"))
		}
		obj, ok := rhs.V.(*Object)
		if !ok {
			return atLoc(n.Pos(), newErr(KindObjectDestructureOnNonObject, "cannot destructure a value of type '%s' as an object", rhs.V.Type()))
		}
		return bindObject(ip, scopes, names, n.Props, obj, bindType)

	case *ast.ListExpr:
		if op != nil {
			return atLoc(n.Pos(), newErr(KindOpOnListDestructure, "list destructuring cannot use a compound operator"))
		}
		list, ok := rhs.V.(*List)
		if !ok {
			return atLoc(n.Pos(), newErr(KindListDestructureOnNonList, "cannot destructure a value of type '%s' as a list", rhs.V.Type()))
		}
		return bindList(ip, scopes, names, n, list, bindType)

	default:
		return atLoc(lhs.Pos(), newErr(KindInvalidBindTarget, "%s is not a valid assignment target", bindTargetDescr(lhs)))
	}
}

func bindTargetDescr(e ast.Expr) string {
	switch e.(type) {
	case *ast.NullExpr:
		return "`null`"
	case *ast.BoolExpr:
		return "a boolean literal"
	case *ast.IntExpr:
		return "an integer literal"
	case *ast.StrExpr:
		return "a string literal"
	case *ast.UnaryOpExpr:
		return "a unary operation"
	case *ast.BinaryOpExpr:
		return "a binary operation"
	case *ast.RangeExpr:
		return "a range operation"
	case *ast.FuncExpr:
		return "an anonymous function"
	case *ast.CallExpr:
		return "a function call"
	case *ast.CatchAsBoolExpr:
		return "a boolean catch"
	default:
		return "this expression"
	}
}

func bindNextName(scopes *ScopeStack, names map[string]bool, name string, pos token.Pos, rhs SourcedValue, op *opInfo, bindType BindType) error {
	if name == "_" {
		return nil
	}
	if names[name] {
		return atLoc(pos, newErr(KindAlreadyInBinding, "'%s' is already bound in this binding", name))
	}
	names[name] = true

	line, col := pos.LineCol()

	switch bindType {
	case BindDeclare:
		prevLine, prevCol, ok := scopes.Declare(name, line, col, rhs, Var)
		if !ok {
			return atLoc(pos, newErr(KindAlreadyInScope,
				"'%s' is already declared in this scope (previous declaration at %d:%d)",
				name, prevLine, prevCol))
		}
		return nil

	case BindAssign:
		rhsVal := rhs
		if op != nil {
			lhsVal, ok := scopes.Get(name)
			if !ok {
				return atLoc(pos, newErr(KindUndefined, "'%s' is not defined", name))
			}
			v, err := applyBinaryOperation(op.Op, op.Pos, lhsVal.V, rhs.V)
			if err != nil {
				return err
			}
			rhsVal = NoSource(v)
		}
		switch scopes.Assign(name, rhsVal) {
		case AssignUndefined:
			return atLoc(pos, newErr(KindUndefined, "'%s' is not defined", name))
		case AssignConst:
			return atLoc(pos, newErr(KindAssignToConst, "'%s' is declared as a constant", name))
		}
		return nil
	}
	panic("eval: unreachable bind type")
}

// binaryOperationAssign computes the value to store for a plain or
// compound-op assignment.
func binaryOperationAssign(cur SourcedValue, rhs SourcedValue, op *opInfo) (SourcedValue, error) {
	if op == nil {
		return rhs, nil
	}
	v, err := applyBinaryOperation(op.Op, op.Pos, cur.V, rhs.V)
	if err != nil {
		return SourcedValue{}, err
	}
	return NoSource(v), nil
}

func bindIndex(ip *Interp, scopes *ScopeStack, n *ast.IndexExpr, rhs SourcedValue, op *opInfo) error {
	target, err := evalExpr(ip, scopes, n.X)
	if err != nil {
		return err
	}

	switch container := target.V.(type) {
	case *List:
		idx, err := evalExprToIndex(ip, scopes, n.Index)
		if err != nil {
			return err
		}
		if idx >= container.Len() {
			return atLoc(n.Pos(), newErr(KindRuntime, "index '%d' is outside the list bounds", idx))
		}
		newVal, err := binaryOperationAssign(container.At(idx), rhs, op)
		if err != nil {
			return err
		}
		container.Set(idx, newVal)
		return nil

	case *Object:
		key, err := evalExprToStr(ip, scopes, "property", n.Index)
		if err != nil {
			return err
		}
		if cur, ok := container.Get(key); ok {
			newVal, err := binaryOperationAssign(cur, rhs, op)
			if err != nil {
				return err
			}
			container.Set(key, newVal)
			return nil
		}
		if op != nil {
			return atLoc(n.Pos(), newErr(KindOpOnUndefinedIndex, "compound assignment to undefined property '%s'", key))
		}
		container.Set(key, rhs)
		return nil

	default:
		return atLoc(n.Pos(), newErr(KindValueNotIndexAssignable, "value of type '%s' is not index-assignable", target.V.Type()))
	}
}

func bindRangeIndexTarget(ip *Interp, scopes *ScopeStack, n *ast.RangeIndexExpr, rhs SourcedValue) error {
	target, err := evalExpr(ip, scopes, n.X)
	if err != nil {
		return err
	}
	list, ok := target.V.(*List)
	if !ok {
		return atLoc(n.Pos(), newErr(KindValueNotRangeIndexAssignable, "value of type '%s' is not range-index-assignable", target.V.Type()))
	}

	switch rv := rhs.V.(type) {
	case *List:
		return bindRangeIndex(ip, scopes, list, n.Start, n.End, n.Pos(), rv.Snapshot())
	case Str:
		items := make([]SourcedValue, len(rv))
		for i, c := range rv {
			items[i] = NoSource(Str([]byte{c}))
		}
		return bindRangeIndex(ip, scopes, list, n.Start, n.End, n.Pos(), items)
	default:
		return atLoc(n.Pos(), newErr(KindValueNotRangeIndexable, "cannot assign a value of type '%s' into a range index", rhs.V.Type()))
	}
}

func bindRangeIndex(ip *Interp, scopes *ScopeStack, list *List, startExpr, endExpr ast.Expr, pos token.Pos, rhsItems []SourcedValue) error {
	start := 0
	if startExpr != nil {
		v, err := evalExprToIndex(ip, scopes, startExpr)
		if err != nil {
			return err
		}
		start = v
	}

	rhsLen := len(rhsItems)
	end := rhsLen
	if endExpr != nil {
		v, err := evalExprToIndex(ip, scopes, endExpr)
		if err != nil {
			return err
		}
		end = v
	}

	listLen := list.Len()
	switch {
	case start > listLen:
		return atLoc(pos, newErr(KindRuntime, "range start '%d' is outside the list bounds (length %d)", start, listLen))
	case start >= end:
		return atLoc(pos, newErr(KindRuntime, "range start '%d' is not before end '%d'", start, end))
	case end > listLen:
		return atLoc(pos, newErr(KindRuntime, "range end '%d' is outside the list bounds (length %d)", end, listLen))
	}

	rangeLen := end - start
	if rangeLen != rhsLen {
		return atLoc(pos, newErr(KindRuntime, "range of length %d doesn't match assigned value of length %d", rangeLen, rhsLen))
	}

	for i, v := range rhsItems {
		list.Set(start+i, v)
	}
	return nil
}

func bindProp(ip *Interp, scopes *ScopeStack, n *ast.PropExpr, rhs SourcedValue, op *opInfo) error {
	if n.TypeProp {
		return atLoc(n.Pos(), newErr(KindAssignToTypeProp, "type properties are not assignable"))
	}

	target, err := evalExpr(ip, scopes, n.X)
	if err != nil {
		return err
	}
	obj, ok := target.V.(*Object)
	if !ok {
		return atLoc(n.Pos(), newErr(KindPropAccessOnNonObject, "cannot access property '%s' of a value of type '%s'", n.Name, target.V.Type()))
	}

	if cur, ok := obj.Get(n.Name); ok {
		newVal, err := binaryOperationAssign(cur, rhs, op)
		if err != nil {
			return err
		}
		obj.Set(n.Name, newVal)
		return nil
	}
	if op != nil {
		return atLoc(n.Pos(), newErr(KindOpOnUndefinedProp, "compound assignment to undefined property '%s'", n.Name))
	}
	obj.Set(n.Name, rhs)
	return nil
}

// bindObject destructures rhs (an object) against the pattern props.
func bindObject(ip *Interp, scopes *ScopeStack, names map[string]bool, props []ast.PropItem, rhs *Object, bindType BindType) error {
	remaining := map[string]bool{}
	for _, k := range rhs.SortedKeys() {
		remaining[k] = true
	}

	for i, item := range props {
		if item.IsPair() {
			key, err := evalPropKey(ip, scopes, item)
			if err != nil {
				return err
			}
			if err := bindObjectProp(ip, scopes, names, item.Value, rhs, key, item.Name.Pos(), bindType); err != nil {
				return err
			}
			delete(remaining, key)
			continue
		}

		if item.IsSpread {
			return atLoc(item.Single.Pos(), newErr(KindSpreadOnObjectDestructure, "spread is not allowed in an object destructuring pattern"))
		}

		varExpr, ok := item.Single.(*ast.VarExpr)
		if !ok {
			return atLoc(item.Single.Pos(), newErr(KindObjectPropShorthandNotVar, "object destructuring shorthand must be a plain name"))
		}

		if item.Collect {
			if i != len(props)-1 {
				return atLoc(item.Single.Pos(), newErr(KindObjectCollectIsNotLast, "a rest element must be the last item in an object pattern"))
			}
			rest := map[string]SourcedValue{}
			for _, k := range maps.Keys(remaining) {
				v, _ := rhs.Get(k)
				rest[k] = v
			}
			if err := bindNextName(scopes, names, varExpr.Name, varExpr.Start, NoSource(NewObject(rest)), nil, bindType); err != nil {
				return err
			}
			continue
		}

		if err := bindObjectProp(ip, scopes, names, varExpr, rhs, varExpr.Name, varExpr.Start, bindType); err != nil {
			return err
		}
		delete(remaining, varExpr.Name)
	}

	return nil
}

func bindObjectProp(ip *Interp, scopes *ScopeStack, names map[string]bool, lhs ast.Expr, rhs *Object, key string, pos token.Pos, bindType BindType) error {
	if key == "_" {
		return nil
	}
	v, ok := rhs.Get(key)
	if !ok {
		return atLoc(pos, newErr(KindRuntime, "object doesn't contain property '%s'", key))
	}
	return bindNext(ip, scopes, names, lhs, v, nil, bindType)
}

// bindList destructures rhs (a list) against the pattern n.
func bindList(ip *Interp, scopes *ScopeStack, names map[string]bool, n *ast.ListExpr, rhs *List, bindType BindType) error {
	lhsLen := len(n.Items)
	rhsItems := rhs.Snapshot()
	rhsLen := len(rhsItems)

	if n.Collect {
		if lhsLen-1 > rhsLen {
			return atLoc(n.Pos(), newErr(KindListCollectTooFew, "pattern needs at least %d elements, got %d", lhsLen-1, rhsLen))
		}
	} else if lhsLen != rhsLen {
		return atLoc(n.Pos(), newErr(KindListDestructureItemMismatch, "pattern has %d elements, value has %d", lhsLen, rhsLen))
	}

	for i, item := range n.Items {
		if item.IsSpread {
			return atLoc(item.Expr.Pos(), newErr(KindSpreadInListDestructure, "spread is not allowed in a list destructuring pattern (item %d)", i))
		}

		var v SourcedValue
		if n.Collect && i == lhsLen-1 {
			v = NoSource(NewList(append([]SourcedValue(nil), rhsItems[lhsLen-1:]...)))
		} else {
			v = rhsItems[i]
		}

		if err := bindNext(ip, scopes, names, item.Expr, v, nil, bindType); err != nil {
			return err
		}
	}
	return nil
}
