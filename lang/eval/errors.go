package eval

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/kestrel-lang/kestrel/lang/token"
)

// ErrorKind identifies the shape of an *EvalError: either a leaf failure
// with a rendered message, or one of the three wrapper shapes that carry
// source-location or call-frame information for stack-trace assembly.
type ErrorKind int

const (
	// Wrapper kinds.
	KindAtLoc ErrorKind = iota
	KindFuncCall
	KindBuiltinFuncCall

	// Lookup / redeclaration.
	KindUndefined
	KindAlreadyInScope
	KindAlreadyInBinding

	// Pattern illegality.
	KindInvalidBindTarget
	KindObjectPropShorthandNotVar
	KindObjectCollectIsNotLast
	KindSpreadOnObjectDestructure
	KindSpreadInListDestructure
	KindListCollectTooFew
	KindListDestructureItemMismatch
	KindOpOnRangeIndex
	KindOpOnObjectDestructure
	KindOpOnListDestructure
	KindAssignToTypeProp
	KindOpOnUndefinedIndex
	KindOpOnUndefinedProp
	KindDupParamName
	KindAssignToConst

	// Type errors.
	KindInvalidUnaryOpType
	KindInvalidBinOpTypes
	KindIncorrectType
	KindValueNotIndexable
	KindValueNotIndexAssignable
	KindValueNotRangeIndexable
	KindValueNotRangeIndexAssignable
	KindPropAccessOnNonObject
	KindObjectDestructureOnNonObject
	KindListDestructureOnNonList
	KindSpreadNonListInList
	KindSpreadNonObjectInObject
	KindCannotCallNonFunc
	KindForIterNotIterable
	KindTypeFunctionOnNull
	KindTypeFunctionNotFound
	KindInterpolatedValueNotString

	// Runtime.
	KindRuntime

	// Control flow escaping its context.
	KindBreakOutsideLoop
	KindContinueOutsideLoop
	KindReturnOutsideFunction

	// Arity.
	KindArgNumMismatch
	KindTooFewArgs
)

// EvalError is the single concrete error type used throughout lang/eval. A
// leaf EvalError carries a rendered Msg; a wrapper EvalError (KindAtLoc,
// KindFuncCall, KindBuiltinFuncCall) carries a Cause and positional or
// call-frame metadata instead.
type EvalError struct {
	Kind ErrorKind
	Msg  string

	Cause error

	Line, Col int
	FuncName  string // set on KindFuncCall / KindBuiltinFuncCall
}

func (e *EvalError) Error() string {
	switch e.Kind {
	case KindAtLoc:
		line, col := e.Line, e.Col
		return fmt.Sprintf("%d:%d: %s", line, col, errString(e.Cause))
	case KindFuncCall, KindBuiltinFuncCall:
		return errString(e.Cause)
	default:
		return e.Msg
	}
}

func (e *EvalError) Unwrap() error { return e.Cause }

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func newErr(kind ErrorKind, format string, args ...any) error {
	return &EvalError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// atLoc wraps cause with the source position at which it was raised.
func atLoc(pos token.Pos, cause error) error {
	if cause == nil {
		return nil
	}
	line, col := pos.LineCol()
	return &EvalError{Kind: KindAtLoc, Cause: cause, Line: line, Col: col}
}

// funcCallFrame wraps cause raised while calling a user function, recording
// the call site and callee name for stack-trace assembly.
func funcCallFrame(name string, pos token.Pos, cause error) error {
	if cause == nil {
		return nil
	}
	line, col := pos.LineCol()
	return &EvalError{Kind: KindFuncCall, Cause: cause, Line: line, Col: col, FuncName: name}
}

// builtinCallFrame wraps cause raised while calling a builtin function.
func builtinCallFrame(name string, pos token.Pos, cause error) error {
	if cause == nil {
		return nil
	}
	line, col := pos.LineCol()
	return &EvalError{Kind: KindBuiltinFuncCall, Cause: cause, Line: line, Col: col, FuncName: name}
}

// RootError walks the Unwrap chain to the deepest *EvalError reachable,
// stopping as soon as the chain leaves our own error type (or ends).
func RootError(err error) error {
	cur := err
	for {
		ee, ok := cur.(*EvalError)
		if !ok {
			return cur
		}
		if ee.Cause == nil {
			return cur
		}
		if _, ok := ee.Cause.(*EvalError); !ok {
			return cur
		}
		cur = ee.Cause
	}
}

// IsRuntime reports whether err's root cause is a KindRuntime error — the
// only kind CatchAsBool recovers from.
func IsRuntime(err error) bool {
	ee, ok := RootError(err).(*EvalError)
	return ok && ee.Kind == KindRuntime
}

// intOverflow builds the overflow runtime error with both operands rendered
// using thousands separators, matching the original's message shape.
func intOverflow(lhs Int, opSymbol string, rhs Int) error {
	return newErr(KindRuntime, "'%s %s %s' caused an integer overflow",
		humanize.Comma(int64(lhs)), opSymbol, humanize.Comma(int64(rhs)))
}

// Stacktrace renders err as a "line:col: message" header (the caller adds
// the path prefix) plus a list of call-frame entries (deepest call first),
// mirroring the original's eval_err_to_stacktrace. path is the script path
// reported in frame entries.
func Stacktrace(path string, err error) (msg string, frames []string) {
	return stacktrace(path, "", err)
}

func stacktrace(path, funcName string, err error) (string, []string) {
	ee, ok := err.(*EvalError)
	if !ok {
		return err.Error(), nil
	}

	switch ee.Kind {
	case KindAtLoc:
		m, frames := stacktrace(path, funcName, ee.Cause)
		if funcName != "" {
			return fmt.Sprintf("%d:%d: in '%s': %s", ee.Line, ee.Col, funcName, m), frames
		}
		return fmt.Sprintf("%d:%d: %s", ee.Line, ee.Col, m), frames

	case KindBuiltinFuncCall:
		next := ee.FuncName
		if next == "" {
			next = "<unnamed function>"
		}
		m, frames := stacktrace(path, next, ee.Cause)
		sep := ""
		if funcName != "" {
			sep = fmt.Sprintf(" in '%s':", funcName)
		}
		return fmt.Sprintf("%d:%d:%s %s", ee.Line, ee.Col, sep, m), frames

	case KindFuncCall:
		next := ee.FuncName
		if next == "" {
			next = "<unnamed function>"
		}
		m, frames := stacktrace(path, next, ee.Cause)
		caller := funcName
		if caller == "" {
			caller = "<root>"
		}
		frames = append(frames, fmt.Sprintf("%s:%d:%d: in '%s'", path, ee.Line, ee.Col, caller))
		return m, frames

	default:
		return ee.Error(), nil
	}
}
