package parser

import "github.com/kestrel-lang/kestrel/lang/ast"

// parsePattern parses a bind target: a postfix expression (Var, Index,
// RangeIndex, Prop, or a nested List/Object literal), then reinterprets any
// List/Object literal nodes in it as destructuring patterns via toPattern.
// Whether the resulting shape is actually legal at a given bind site (e.g. a
// literal isn't, a Prop is fine for assignment) is decided by the binder at
// evaluation time, not here.
func (p *parser) parsePattern() (ast.Expr, error) {
	e, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	return toPattern(e)
}

// toPattern rewrites a List/Object literal parsed by the general expression
// grammar into destructuring-pattern form: a trailing `...x` item (parsed as
// IsSpread) becomes the pattern's rest capture (Collect = true, IsSpread
// reset to false) instead of a splice. A non-trailing `...x` is left with
// IsSpread set, so the binder rejects it (spread is never legal except in
// the last position of a pattern).
func toPattern(e ast.Expr) (ast.Expr, error) {
	switch n := e.(type) {
	case *ast.ListExpr:
		for i := range n.Items {
			if n.Items[i].IsSpread && i == len(n.Items)-1 {
				n.Collect = true
				n.Items[i].IsSpread = false
			}
			sub, err := toPattern(n.Items[i].Expr)
			if err != nil {
				return nil, err
			}
			n.Items[i].Expr = sub
		}
		return n, nil

	case *ast.ObjectExpr:
		for i := range n.Props {
			pr := &n.Props[i]
			if pr.IsPair() {
				sub, err := toPattern(pr.Value)
				if err != nil {
					return nil, err
				}
				pr.Value = sub
				continue
			}
			if pr.IsSpread && i == len(n.Props)-1 {
				pr.Collect = true
				pr.IsSpread = false
			}
			sub, err := toPattern(pr.Single)
			if err != nil {
				return nil, err
			}
			pr.Single = sub
		}
		return n, nil

	default:
		return e, nil
	}
}
