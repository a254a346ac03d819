package eval

import (
	"fmt"
	"math"

	"github.com/kestrel-lang/kestrel/lang/ast"
	"github.com/kestrel-lang/kestrel/lang/token"
)

func evalExpr(ip *Interp, scopes *ScopeStack, e ast.Expr) (SourcedValue, error) {
	if err := ip.step(e.Pos()); err != nil {
		return SourcedValue{}, err
	}

	switch n := e.(type) {
	case *ast.NullExpr:
		return NullValue, nil

	case *ast.BoolExpr:
		return BoolValue(n.Value), nil

	case *ast.IntExpr:
		return NoSource(Int(n.Value)), nil

	case *ast.StrExpr:
		if n.InterpSlots == nil {
			return NoSource(Str(n.Value)), nil
		}
		s, err := interpolateString(ip, scopes, n)
		if err != nil {
			return SourcedValue{}, err
		}
		return NoSource(Str(s)), nil

	case *ast.VarExpr:
		v, ok := scopes.Get(n.Name)
		if !ok {
			return SourcedValue{}, atLoc(n.Start, newErr(KindUndefined, "'%s' is not defined", n.Name))
		}
		return v, nil

	case *ast.UnaryOpExpr:
		x, err := evalExpr(ip, scopes, n.X)
		if err != nil {
			return SourcedValue{}, err
		}
		v, err := applyUnaryOperation(n.Op, n.OpPos, x.V)
		if err != nil {
			return SourcedValue{}, err
		}
		return NoSource(v), nil

	case *ast.BinaryOpExpr:
		lhs, err := evalExpr(ip, scopes, n.X)
		if err != nil {
			return SourcedValue{}, err
		}
		rhs, err := evalExpr(ip, scopes, n.Y)
		if err != nil {
			return SourcedValue{}, err
		}
		v, err := applyBinaryOperation(n.Op, n.OpPos, lhs.V, rhs.V)
		if err != nil {
			return SourcedValue{}, err
		}
		return NoSource(v), nil

	case *ast.ListExpr:
		items, err := evalListItems(ip, scopes, n.Items)
		if err != nil {
			return SourcedValue{}, err
		}
		return NoSource(NewList(items)), nil

	case *ast.IndexExpr:
		return evalIndex(ip, scopes, n)

	case *ast.RangeIndexExpr:
		return evalRangeIndex(ip, scopes, n)

	case *ast.RangeExpr:
		return evalRange(ip, scopes, n)

	case *ast.ObjectExpr:
		return evalObjectLiteral(ip, scopes, n)

	case *ast.PropExpr:
		return evalProp(ip, scopes, n)

	case *ast.FuncExpr:
		return NoSource(&Func{
			Params:      n.Params,
			CollectArgs: n.CollectArgs,
			Body:        n.Body,
			Closure:     scopes.Snapshot(),
		}), nil

	case *ast.CallExpr:
		return evalCall(ip, scopes, n)

	case *ast.CatchAsBoolExpr:
		return evalCatchAsBool(ip, scopes, n)

	default:
		panic(fmt.Sprintf("eval: unhandled expression type %T", e))
	}
}

func applyUnaryOperation(op token.Token, opPos token.Pos, v Value) (Value, error) {
	switch op {
	case token.BANG:
		b, ok := v.(Bool)
		if !ok {
			return nil, atLoc(opPos, newErr(KindInvalidUnaryOpType, "cannot apply '!' to a value of type '%s'", v.Type()))
		}
		return Bool(!b), nil
	default:
		panic("eval: unhandled unary operator")
	}
}

func invalidBinOpTypes(op token.Token, pos token.Pos, lhs, rhs Value) error {
	return atLoc(pos, newErr(KindInvalidBinOpTypes, "cannot apply '%s' to '%s' and '%s'", op, lhs.Type(), rhs.Type()))
}

func applyBinaryOperation(op token.Token, opPos token.Pos, lhs, rhs Value) (Value, error) {
	switch op {
	case token.EQEQ, token.NEQ:
		eq, err := Equal(lhs, rhs)
		if err != nil {
			mm, ok := err.(*EqualMismatch)
			if !ok {
				return nil, err
			}
			msg := fmt.Sprintf("can't apply '%s' to '%s' and '%s'", op, mm.LhsType, mm.RhsType)
			if mm.Path != "" {
				msg += fmt.Sprintf(" (at %s)", mm.Path)
			}
			return nil, atLoc(opPos, newErr(KindRuntime, "%s", msg))
		}
		if op == token.NEQ {
			eq = !eq
		}
		return Bool(eq), nil

	case token.REFEQ, token.REFNEQ:
		eq, ok := RefEqual(lhs, rhs)
		if !ok {
			return nil, invalidBinOpTypes(op, opPos, lhs, rhs)
		}
		if op == token.REFNEQ {
			eq = !eq
		}
		return Bool(eq), nil

	case token.PLUS:
		switch a := lhs.(type) {
		case Int:
			b, ok := rhs.(Int)
			if !ok {
				return nil, invalidBinOpTypes(op, opPos, lhs, rhs)
			}
			sum, ok := checkedAdd(int64(a), int64(b))
			if !ok {
				return nil, atLoc(opPos, intOverflow(a, "+", b))
			}
			return Int(sum), nil
		case Str:
			b, ok := rhs.(Str)
			if !ok {
				return nil, invalidBinOpTypes(op, opPos, lhs, rhs)
			}
			out := make(Str, 0, len(a)+len(b))
			out = append(out, a...)
			out = append(out, b...)
			return out, nil
		case *List:
			b, ok := rhs.(*List)
			if !ok {
				return nil, invalidBinOpTypes(op, opPos, lhs, rhs)
			}
			out := make([]SourcedValue, 0, a.Len()+b.Len())
			out = append(out, a.Snapshot()...)
			out = append(out, b.Snapshot()...)
			return NewList(out), nil
		default:
			return nil, invalidBinOpTypes(op, opPos, lhs, rhs)
		}

	case token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		a, aok := lhs.(Int)
		b, bok := rhs.(Int)
		if !aok || !bok {
			return nil, invalidBinOpTypes(op, opPos, lhs, rhs)
		}
		switch op {
		case token.MINUS:
			v, ok := checkedSub(int64(a), int64(b))
			if !ok {
				return nil, atLoc(opPos, intOverflow(a, "-", b))
			}
			return Int(v), nil
		case token.STAR:
			v, ok := checkedMul(int64(a), int64(b))
			if !ok {
				return nil, atLoc(opPos, intOverflow(a, "*", b))
			}
			return Int(v), nil
		case token.SLASH:
			if b == 0 {
				return nil, atLoc(opPos, newErr(KindRuntime, "'%s / %s' is a division by zero", a, b))
			}
			v, ok := checkedDiv(int64(a), int64(b))
			if !ok {
				return nil, atLoc(opPos, intOverflow(a, "/", b))
			}
			return Int(v), nil
		default: // token.PERCENT
			if b == 0 {
				return nil, atLoc(opPos, newErr(KindRuntime, "'%s %% %s' is a division by zero", a, b))
			}
			return a % b, nil
		}

	case token.AND, token.OR:
		a, aok := lhs.(Bool)
		b, bok := rhs.(Bool)
		if !aok || !bok {
			return nil, invalidBinOpTypes(op, opPos, lhs, rhs)
		}
		if op == token.AND {
			return Bool(a && b), nil
		}
		return Bool(a || b), nil

	case token.GT, token.GTE, token.LT, token.LTE:
		a, aok := lhs.(Int)
		b, bok := rhs.(Int)
		if !aok || !bok {
			return nil, invalidBinOpTypes(op, opPos, lhs, rhs)
		}
		switch op {
		case token.GT:
			return Bool(a > b), nil
		case token.GTE:
			return Bool(a >= b), nil
		case token.LT:
			return Bool(a < b), nil
		default: // token.LTE
			return Bool(a <= b), nil
		}

	default:
		panic("eval: unhandled binary operator")
	}
}

func checkedAdd(a, b int64) (int64, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}

func checkedSub(a, b int64) (int64, bool) {
	c := a - b
	if (b < 0 && c < a) || (b > 0 && c > a) {
		return 0, false
	}
	return c, true
}

func checkedMul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
		return 0, false
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

func checkedDiv(a, b int64) (int64, bool) {
	if a == math.MinInt64 && b == -1 {
		return 0, false
	}
	return a / b, true
}

func evalExprToStr(ip *Interp, scopes *ScopeStack, descr string, e ast.Expr) (string, error) {
	v, err := evalExpr(ip, scopes, e)
	if err != nil {
		return "", err
	}
	s, ok := v.V.(Str)
	if !ok {
		return "", atLoc(e.Pos(), newErr(KindIncorrectType, "%s must be a string, got a value of type '%s'", descr, v.V.Type()))
	}
	if !isValidUTF8(s) {
		return "", atLoc(e.Pos(), newErr(KindRuntime, "%s is not valid UTF-8", descr))
	}
	return string(s), nil
}

// evalPropKey resolves the key of an object-literal or destructuring pair
// item. A bare identifier key (`name: ...`) contributes its own lexeme
// literally; only the computed `[expr]: ...` form evaluates an expression.
func evalPropKey(ip *Interp, scopes *ScopeStack, item ast.PropItem) (string, error) {
	if !item.Computed {
		return item.Name.(*ast.VarExpr).Name, nil
	}
	return evalExprToStr(ip, scopes, "property name", item.Name)
}

func evalExprToBool(ip *Interp, scopes *ScopeStack, descr string, e ast.Expr) (bool, error) {
	v, err := evalExpr(ip, scopes, e)
	if err != nil {
		return false, err
	}
	b, ok := v.V.(Bool)
	if !ok {
		return false, atLoc(e.Pos(), newErr(KindIncorrectType, "%s must be a bool, got a value of type '%s'", descr, v.V.Type()))
	}
	return bool(b), nil
}

func evalExprToI64(ip *Interp, scopes *ScopeStack, descr string, e ast.Expr) (int64, error) {
	v, err := evalExpr(ip, scopes, e)
	if err != nil {
		return 0, err
	}
	n, ok := v.V.(Int)
	if !ok {
		return 0, atLoc(e.Pos(), newErr(KindIncorrectType, "%s must be an int, got a value of type '%s'", descr, v.V.Type()))
	}
	return int64(n), nil
}

func evalExprToIndex(ip *Interp, scopes *ScopeStack, e ast.Expr) (int, error) {
	n, err := evalExprToI64(ip, scopes, "index", e)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, atLoc(e.Pos(), newErr(KindRuntime, "index '%d' is negative", n))
	}
	return int(n), nil
}

func evalIndex(ip *Interp, scopes *ScopeStack, n *ast.IndexExpr) (SourcedValue, error) {
	target, err := evalExpr(ip, scopes, n.X)
	if err != nil {
		return SourcedValue{}, err
	}
	switch c := target.V.(type) {
	case Str:
		idx, err := evalExprToIndex(ip, scopes, n.Index)
		if err != nil {
			return SourcedValue{}, err
		}
		if idx >= len(c) {
			return SourcedValue{}, atLoc(n.Pos(), newErr(KindRuntime, "index '%d' is outside the string bounds", idx))
		}
		return NoSource(Str([]byte{c[idx]})), nil

	case *List:
		idx, err := evalExprToIndex(ip, scopes, n.Index)
		if err != nil {
			return SourcedValue{}, err
		}
		if idx >= c.Len() {
			return SourcedValue{}, atLoc(n.Pos(), newErr(KindRuntime, "index '%d' is outside the list bounds", idx))
		}
		return c.At(idx), nil

	case *Object:
		key, err := evalExprToStr(ip, scopes, "property", n.Index)
		if err != nil {
			return SourcedValue{}, err
		}
		v, ok := c.Get(key)
		if !ok {
			return SourcedValue{}, atLoc(n.Pos(), newErr(KindRuntime, "object doesn't contain property '%s'", key))
		}
		return WithSource(v.V, target.V), nil

	default:
		return SourcedValue{}, atLoc(n.Pos(), newErr(KindValueNotIndexable, "value of type '%s' is not indexable", target.V.Type()))
	}
}

func evalRangeIndex(ip *Interp, scopes *ScopeStack, n *ast.RangeIndexExpr) (SourcedValue, error) {
	var startP, endP *int
	if n.Start != nil {
		s, err := evalExprToIndex(ip, scopes, n.Start)
		if err != nil {
			return SourcedValue{}, err
		}
		startP = &s
	}
	if n.End != nil {
		e, err := evalExprToIndex(ip, scopes, n.End)
		if err != nil {
			return SourcedValue{}, err
		}
		endP = &e
	}

	target, err := evalExpr(ip, scopes, n.X)
	if err != nil {
		return SourcedValue{}, err
	}

	switch c := target.V.(type) {
	case Str:
		start, end := 0, len(c)
		if startP != nil {
			start = *startP
		}
		if endP != nil {
			end = *endP
		}
		if !(start <= end && end <= len(c)) {
			return SourcedValue{}, atLoc(n.Pos(), newErr(KindRuntime, "range %d..%d is outside the string bounds (length %d)", start, end, len(c)))
		}
		return NoSource(append(Str(nil), c[start:end]...)), nil

	case *List:
		items := c.Snapshot()
		start, end := 0, len(items)
		if startP != nil {
			start = *startP
		}
		if endP != nil {
			end = *endP
		}
		if !(start <= end && end <= len(items)) {
			return SourcedValue{}, atLoc(n.Pos(), newErr(KindRuntime, "range %d..%d is outside the list bounds (length %d)", start, end, len(items)))
		}
		return NoSource(NewList(append([]SourcedValue(nil), items[start:end]...))), nil

	default:
		return SourcedValue{}, atLoc(n.Pos(), newErr(KindValueNotRangeIndexable, "value of type '%s' is not range-indexable", target.V.Type()))
	}
}

func evalRange(ip *Interp, scopes *ScopeStack, n *ast.RangeExpr) (SourcedValue, error) {
	start, err := evalExprToI64(ip, scopes, "range start", n.X)
	if err != nil {
		return SourcedValue{}, err
	}
	end, err := evalExprToI64(ip, scopes, "range end", n.Y)
	if err != nil {
		return SourcedValue{}, err
	}
	var items []SourcedValue
	for i := start; i < end; i++ {
		items = append(items, NoSource(Int(i)))
	}
	return NoSource(NewList(items)), nil
}

func evalObjectLiteral(ip *Interp, scopes *ScopeStack, n *ast.ObjectExpr) (SourcedValue, error) {
	vals := map[string]SourcedValue{}
	for _, item := range n.Props {
		if item.IsPair() {
			key, err := evalPropKey(ip, scopes, item)
			if err != nil {
				return SourcedValue{}, err
			}
			v, err := evalExpr(ip, scopes, item.Value)
			if err != nil {
				return SourcedValue{}, err
			}
			vals[key] = v
			continue
		}

		if item.IsSpread {
			src, err := evalExpr(ip, scopes, item.Single)
			if err != nil {
				return SourcedValue{}, err
			}
			obj, ok := src.V.(*Object)
			if !ok {
				return SourcedValue{}, atLoc(item.Single.Pos(), newErr(KindSpreadNonObjectInObject, "cannot spread a value of type '%s' into an object", src.V.Type()))
			}
			for _, k := range obj.SortedKeys() {
				v, _ := obj.Get(k)
				vals[k] = v
			}
			continue
		}

		varExpr, ok := item.Single.(*ast.VarExpr)
		if !ok {
			return SourcedValue{}, atLoc(item.Single.Pos(), newErr(KindObjectPropShorthandNotVar, "object literal shorthand must be a plain name"))
		}
		v, ok := scopes.Get(varExpr.Name)
		if !ok {
			return SourcedValue{}, atLoc(varExpr.Start, newErr(KindUndefined, "'%s' is not defined", varExpr.Name))
		}
		vals[varExpr.Name] = v
	}
	return NoSource(NewObject(vals)), nil
}

func evalProp(ip *Interp, scopes *ScopeStack, n *ast.PropExpr) (SourcedValue, error) {
	target, err := evalExpr(ip, scopes, n.X)
	if err != nil {
		return SourcedValue{}, err
	}

	if n.TypeProp {
		if _, isNull := target.V.(Null); isNull {
			return SourcedValue{}, atLoc(n.Pos(), newErr(KindTypeFunctionOnNull, "'null' has no type properties"))
		}
		fn, ok := ip.Builtins.TypeFunc(target.V.Type(), n.Name)
		if !ok {
			return SourcedValue{}, atLoc(n.Pos(), newErr(KindTypeFunctionNotFound, "type '%s' has no property '%s'", target.V.Type(), n.Name))
		}
		return WithSource(fn, target.V), nil
	}

	obj, ok := target.V.(*Object)
	if !ok {
		return SourcedValue{}, atLoc(n.Pos(), newErr(KindPropAccessOnNonObject, "cannot access property '%s' of a value of type '%s'", n.Name, target.V.Type()))
	}
	v, ok := obj.Get(n.Name)
	if !ok {
		return SourcedValue{}, atLoc(n.Pos(), newErr(KindRuntime, "object doesn't contain property '%s'", n.Name))
	}
	return WithSource(v.V, target.V), nil
}

func evalListItems(ip *Interp, scopes *ScopeStack, items []ast.ListItem) ([]SourcedValue, error) {
	var vals []SourcedValue
	for _, item := range items {
		v, err := evalExpr(ip, scopes, item.Expr)
		if err != nil {
			return nil, err
		}
		if !item.IsSpread {
			vals = append(vals, v)
			continue
		}
		list, ok := v.V.(*List)
		if !ok {
			return nil, atLoc(item.Expr.Pos(), newErr(KindSpreadNonListInList, "cannot spread a value of type '%s' into a list", v.V.Type()))
		}
		vals = append(vals, list.Snapshot()...)
	}
	return vals, nil
}

func evalCall(ip *Interp, scopes *ScopeStack, n *ast.CallExpr) (SourcedValue, error) {
	argVals, err := evalListItems(ip, scopes, n.Args)
	if err != nil {
		return SourcedValue{}, err
	}
	funcVal, err := evalExpr(ip, scopes, n.Func)
	if err != nil {
		return SourcedValue{}, err
	}

	switch f := funcVal.V.(type) {
	case *BuiltinFunc:
		var this *SourcedValue
		if funcVal.Source != nil {
			t := NoSource(funcVal.Source)
			this = &t
		}
		v, err := f.Fn(this, argVals)
		if err != nil {
			return SourcedValue{}, builtinCallFrame(f.Name, n.Pos(), err)
		}
		return v, nil

	case *Func:
		numParams := len(f.Params)
		got := len(argVals)
		if f.CollectArgs {
			minimum := numParams - 1
			if minimum > got {
				return SourcedValue{}, atLoc(n.Pos(), newErr(KindTooFewArgs, "expects at least %d argument(s), got %d", minimum, got))
			}
		} else if numParams != got {
			return SourcedValue{}, atLoc(n.Pos(), newErr(KindArgNumMismatch, "expects %d argument(s), got %d", numParams, got))
		}

		bindings := make([]paramBinding, 0, numParams+1)
		for i := 0; i < numParams; i++ {
			var argVal SourcedValue
			if f.CollectArgs && i == numParams-1 {
				argVal = NoSource(NewList(append([]SourcedValue(nil), argVals[numParams-1:]...)))
			} else {
				argVal = argVals[i]
			}
			bindings = append(bindings, paramBinding{Lhs: f.Params[i], Val: argVal})
		}
		if funcVal.Source != nil {
			bindings = append(bindings, paramBinding{Lhs: &ast.VarExpr{Name: "this"}, Val: NoSource(funcVal.Source)})
		}

		escape, err := evalStmtsDeclaring(ip, f.Closure, bindings, f.Body)
		if err != nil {
			return SourcedValue{}, funcCallFrame(f.Name, n.Pos(), err)
		}
		switch escape.Kind {
		case EscapeNone:
			return NullValue, nil
		case EscapeBreak:
			return SourcedValue{}, newErr(KindBreakOutsideLoop, "break outside of a loop")
		case EscapeContinue:
			return SourcedValue{}, newErr(KindContinueOutsideLoop, "continue outside of a loop")
		case EscapeReturn:
			return escape.Value, nil
		default:
			panic("eval: unhandled escape kind")
		}

	default:
		return SourcedValue{}, atLoc(n.Pos(), newErr(KindCannotCallNonFunc, "value of type '%s' is not callable", funcVal.V.Type()))
	}
}

func evalCatchAsBool(ip *Interp, scopes *ScopeStack, n *ast.CatchAsBoolExpr) (SourcedValue, error) {
	v, err := evalExpr(ip, scopes, n.X)
	if err == nil {
		return NoSource(NewList([]SourcedValue{v, TrueValue})), nil
	}
	if IsRuntime(err) {
		return NoSource(NewList([]SourcedValue{NullValue, FalseValue})), nil
	}
	return SourcedValue{}, err
}
