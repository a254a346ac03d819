package eval

import (
	"strings"

	"github.com/kestrel-lang/kestrel/lang/ast"
	"github.com/kestrel-lang/kestrel/lang/parser"
	"github.com/kestrel-lang/kestrel/lang/token"
)

// BuiltinLookup resolves a type property (`value::name`) to the builtin
// function implementing it. lang/eval only ever reaches the builtins
// registry through this interface, never by importing lang/builtins
// directly.
type BuiltinLookup interface {
	TypeFunc(typeName, name string) (*BuiltinFunc, bool)
}

// Interp carries the state threaded through one program evaluation: the
// script path (not read during evaluation; Stacktrace takes the path as its
// own argument), the registry of per-type builtin functions, and an
// optional step budget.
//
// MaxSteps, when non-zero, bounds the number of expressions and statements
// a single EvalProgram call may evaluate before it's aborted with a
// Runtime error — a CLI-configurable guard (KESTREL_MAX_STEPS) against a
// script that never terminates, not a language-level construct.
type Interp struct {
	Path     string
	Builtins BuiltinLookup
	MaxSteps int

	steps int
}

// step counts one unit of evaluation work, failing once MaxSteps is
// exceeded. A no-op when MaxSteps is 0 (the default, unbounded).
func (ip *Interp) step(pos token.Pos) error {
	if ip.MaxSteps <= 0 {
		return nil
	}
	ip.steps++
	if ip.steps > ip.MaxSteps {
		return atLoc(pos, newErr(KindRuntime, "exceeded the maximum of %d evaluation steps", ip.MaxSteps))
	}
	return nil
}

// interpolateString re-parses and evaluates every `${...}` slot in a string
// literal, substituting its value, and returns the combined result. Each
// slot must evaluate to a valid-UTF-8 Str; any other value is an error. Slot positions are reported at the column the slot's expression
// starts at within the original source line, so a failure inside one points
// at the right place rather than at the enclosing literal.
func interpolateString(ip *Interp, scopes *ScopeStack, n *ast.StrExpr) (string, error) {
	line, col := n.Start.LineCol()

	var b strings.Builder
	lastEnd := 0
	for _, slot := range n.InterpSlots {
		b.WriteString(n.Value[lastEnd:slot.Start])

		// slot.Start/.End include the `${` and `}` delimiters.
		directive := n.Value[slot.Start+2 : slot.End-1]
		slotPos := token.MakePos(line, col+slot.Start+4)

		expr, err := parser.ParseExpr([]byte(directive))
		if err != nil {
			return "", atLoc(slotPos, err)
		}
		v, err := evalExpr(ip, scopes, expr)
		if err != nil {
			return "", atLoc(slotPos, err)
		}
		s, ok := v.V.(Str)
		if !ok {
			return "", atLoc(slotPos, newErr(KindInterpolatedValueNotString,
				"interpolated value must be a string, got a value of type '%s'", v.V.Type()))
		}
		if !isValidUTF8(s) {
			return "", atLoc(slotPos, newErr(KindRuntime, "interpolated slot is not valid UTF-8"))
		}
		b.Write(s)

		lastEnd = slot.End
	}
	b.WriteString(n.Value[lastEnd:])
	return b.String(), nil
}
