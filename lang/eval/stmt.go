package eval

import (
	"fmt"

	"github.com/kestrel-lang/kestrel/lang/ast"
	"github.com/kestrel-lang/kestrel/lang/token"
)

// EscapeKind classifies how a statement sequence stopped running short of
// its end: falling through normally, or breaking out via break/continue/
// return.
type EscapeKind int

const (
	EscapeNone EscapeKind = iota
	EscapeBreak
	EscapeContinue
	EscapeReturn
)

// Escape is the result of running a statement or statement list: either
// nothing unusual happened, or control is escaping to an enclosing loop,
// function, or (at the program root) nowhere at all.
type Escape struct {
	Kind  EscapeKind
	Value SourcedValue
	Pos   token.Pos
}

// paramBinding pairs a binder pattern with the value it destructures,
// applied together when a new scope is pushed (function parameters, a
// for-loop's per-iteration [key, value] pair).
type paramBinding struct {
	Lhs ast.Expr
	Val SourcedValue
}

func evalStmt(ip *Interp, scopes *ScopeStack, s ast.Stmt) (Escape, error) {
	if err := ip.step(s.Pos()); err != nil {
		return Escape{}, err
	}

	switch n := s.(type) {
	case *ast.BlockStmt:
		return evalStmtsInNewScope(ip, scopes, n.Stmts)

	case *ast.ExprStmt:
		if _, err := evalExpr(ip, scopes, n.X); err != nil {
			return Escape{}, err
		}
		return Escape{}, nil

	case *ast.DeclareStmt:
		v, err := evalExpr(ip, scopes, n.Rhs)
		if err != nil {
			return Escape{}, err
		}
		if err := Bind(ip, scopes, n.Lhs, v, BindDeclare); err != nil {
			return Escape{}, err
		}
		return Escape{}, nil

	case *ast.AssignStmt:
		v, err := evalExpr(ip, scopes, n.Rhs)
		if err != nil {
			return Escape{}, err
		}
		if err := Bind(ip, scopes, n.Lhs, v, BindAssign); err != nil {
			return Escape{}, err
		}
		return Escape{}, nil

	case *ast.OpAssignStmt:
		v, err := evalExpr(ip, scopes, n.Rhs)
		if err != nil {
			return Escape{}, err
		}
		if err := BindNextWithOp(ip, scopes, n.Lhs, v, n.Op, n.OpPos, BindAssign); err != nil {
			return Escape{}, err
		}
		return Escape{}, nil

	case *ast.IfStmt:
		for _, br := range n.Branches {
			cond, err := evalExprToBool(ip, scopes, "condition", br.Cond)
			if err != nil {
				return Escape{}, err
			}
			if cond {
				return evalStmtsInNewScope(ip, scopes, br.Stmts)
			}
		}
		if n.Else != nil {
			return evalStmtsInNewScope(ip, scopes, n.Else)
		}
		return Escape{}, nil

	case *ast.WhileStmt:
		for {
			cond, err := evalExprToBool(ip, scopes, "condition", n.Cond)
			if err != nil {
				return Escape{}, err
			}
			if !cond {
				return Escape{}, nil
			}
			escape, err := evalStmtsInNewScope(ip, scopes, n.Stmts)
			if err != nil {
				return Escape{}, err
			}
			switch escape.Kind {
			case EscapeBreak:
				return Escape{}, nil
			case EscapeReturn:
				return escape, nil
			}
		}

	case *ast.ForStmt:
		iterVal, err := evalExpr(ip, scopes, n.Iter)
		if err != nil {
			return Escape{}, err
		}
		pairs, err := valueToPairs(n.Iter.Pos(), iterVal.V)
		if err != nil {
			return Escape{}, err
		}
		for _, p := range pairs {
			pairVal := NoSource(NewList([]SourcedValue{p[0], p[1]}))
			escape, err := evalStmtsDeclaring(ip, scopes, []paramBinding{{Lhs: n.Lhs, Val: pairVal}}, n.Stmts)
			if err != nil {
				return Escape{}, err
			}
			switch escape.Kind {
			case EscapeBreak:
				return Escape{}, nil
			case EscapeReturn:
				return escape, nil
			}
		}
		return Escape{}, nil

	case *ast.BreakStmt:
		return Escape{Kind: EscapeBreak, Pos: n.Start}, nil

	case *ast.ContinueStmt:
		return Escape{Kind: EscapeContinue, Pos: n.Start}, nil

	case *ast.FuncStmt:
		if err := validateParams(n.Params); err != nil {
			return Escape{}, err
		}
		fn := &Func{
			Name:        n.Name,
			Params:      n.Params,
			CollectArgs: n.CollectArgs,
			Body:        n.Body,
			Closure:     scopes.Snapshot(),
		}
		if err := BindName(scopes, n.Name, n.Start, NoSource(fn), BindDeclare); err != nil {
			return Escape{}, err
		}
		return Escape{}, nil

	case *ast.ReturnStmt:
		if n.Expr == nil {
			return Escape{Kind: EscapeReturn, Value: NullValue, Pos: n.Start}, nil
		}
		v, err := evalExpr(ip, scopes, n.Expr)
		if err != nil {
			return Escape{}, err
		}
		return Escape{Kind: EscapeReturn, Value: v, Pos: n.Start}, nil

	default:
		panic(fmt.Sprintf("eval: unhandled statement type %T", s))
	}
}

// evalStmtsWithScopeStack runs stmts in order against the given (already
// pushed) scope stack, stopping at the first escape or error.
func evalStmtsWithScopeStack(ip *Interp, scopes *ScopeStack, stmts []ast.Stmt) (Escape, error) {
	for _, s := range stmts {
		escape, err := evalStmt(ip, scopes, s)
		if err != nil {
			return Escape{}, err
		}
		if escape.Kind != EscapeNone {
			return escape, nil
		}
	}
	return Escape{}, nil
}

// evalStmtsDeclaring pushes a fresh scope, declares each binding into it in
// order, then runs stmts against it. Used for function calls (parameters
// plus a synthetic `this`) and for-loop bodies (the per-iteration pair).
func evalStmtsDeclaring(ip *Interp, scopes *ScopeStack, bindings []paramBinding, stmts []ast.Stmt) (Escape, error) {
	next := scopes.Push(NewScope())
	for _, b := range bindings {
		if err := Bind(ip, next, b.Lhs, b.Val, BindDeclare); err != nil {
			return Escape{}, err
		}
	}
	return evalStmtsWithScopeStack(ip, next, stmts)
}

// evalStmtsInNewScope runs stmts in a fresh child scope with no bindings of
// its own: block, if/else, and while bodies.
func evalStmtsInNewScope(ip *Interp, scopes *ScopeStack, stmts []ast.Stmt) (Escape, error) {
	return evalStmtsDeclaring(ip, scopes, nil, stmts)
}

// EvalProgram runs prog as a whole script: globals (the builtins registry's
// free functions) are declared by name into a fresh top scope before the
// body runs. A break or continue that escapes every loop, or a return that
// escapes every function, is reported as an error rather than silently
// accepted.
func EvalProgram(ip *Interp, scopes *ScopeStack, globals map[string]Value, prog ast.Program) error {
	next := scopes.Push(NewScope())
	for name, v := range globals {
		next.Declare(name, 0, 0, NoSource(v), Const)
	}
	escape, err := evalStmtsWithScopeStack(ip, next, prog)
	if err != nil {
		return err
	}
	switch escape.Kind {
	case EscapeNone:
		return nil
	case EscapeBreak:
		return atLoc(escape.Pos, newErr(KindBreakOutsideLoop, "break outside of a loop"))
	case EscapeContinue:
		return atLoc(escape.Pos, newErr(KindContinueOutsideLoop, "continue outside of a loop"))
	case EscapeReturn:
		return atLoc(escape.Pos, newErr(KindReturnOutsideFunction, "return outside of a function"))
	default:
		panic("eval: unhandled escape kind")
	}
}

// valueToPairs expands v into the [key, value] pairs a for-loop iterates:
// byte index/one-byte-string pairs for a Str, index/element pairs for a
// List, and sorted key/value pairs for an Object.
func valueToPairs(pos token.Pos, v Value) ([][2]SourcedValue, error) {
	switch x := v.(type) {
	case Str:
		pairs := make([][2]SourcedValue, len(x))
		for i, c := range x {
			pairs[i] = [2]SourcedValue{NoSource(Int(i)), NoSource(Str([]byte{c}))}
		}
		return pairs, nil

	case *List:
		items := x.Snapshot()
		pairs := make([][2]SourcedValue, len(items))
		for i, item := range items {
			pairs[i] = [2]SourcedValue{NoSource(Int(i)), item}
		}
		return pairs, nil

	case *Object:
		keys := x.SortedKeys()
		pairs := make([][2]SourcedValue, len(keys))
		for i, k := range keys {
			v, _ := x.Get(k)
			pairs[i] = [2]SourcedValue{NoSource(Str(k)), v}
		}
		return pairs, nil

	default:
		return nil, atLoc(pos, newErr(KindForIterNotIterable, "value of type '%s' is not iterable", v.Type()))
	}
}

// validateParams walks a function's parameter patterns breadth-first,
// rejecting anything but nested Var/Object/List shapes and any name bound
// twice. `_` is a genuine placeholder: it is skipped, not a reason to stop
// validating the rest of the patterns.
func validateParams(params []ast.Expr) error {
	queue := append([]ast.Expr(nil), params...)
	seen := map[string]token.Pos{}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		switch n := p.(type) {
		case *ast.VarExpr:
			if n.Name == "_" {
				continue
			}
			if prevPos, ok := seen[n.Name]; ok {
				prevLine, prevCol := prevPos.LineCol()
				return atLoc(n.Start, newErr(KindDupParamName,
					"parameter '%s' is already bound (previous at %d:%d)", n.Name, prevLine, prevCol))
			}
			seen[n.Name] = n.Start

		case *ast.ObjectExpr:
			for _, item := range n.Props {
				if item.IsPair() {
					queue = append(queue, item.Value)
					continue
				}
				if item.IsSpread {
					return atLoc(item.Single.Pos(), newErr(KindInvalidBindTarget, "spread is not allowed in a parameter pattern"))
				}
				queue = append(queue, item.Single)
			}

		case *ast.ListExpr:
			for _, item := range n.Items {
				if item.IsSpread {
					return atLoc(item.Expr.Pos(), newErr(KindInvalidBindTarget, "spread is not allowed in a parameter pattern"))
				}
				queue = append(queue, item.Expr)
			}

		default:
			return atLoc(p.Pos(), newErr(KindInvalidBindTarget, "%s is not a valid parameter pattern", bindTargetDescr(p)))
		}
	}
	return nil
}
