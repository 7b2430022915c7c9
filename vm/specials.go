package vm

import (
	"fmt"
	"slices"

	"go.starlark.net/syntax"
)

// Special names are compiled to instructions rather than called.
type Special string

const (
	// delete(x.attr) and delete(x[k]) stand in for a del statement.
	Delete Special = "delete"
)

var allSpecials = []Special{
	Delete,
}

func (cc *compileContext) specialCall(call *syntax.CallExpr) (bool, error) {
	fn, ok := call.Fn.(*syntax.Ident)
	if !ok {
		return false, nil
	}
	if !slices.Contains(allSpecials, Special(fn.Name)) {
		return false, nil
	}
	switch Special(fn.Name) {
	case Delete:
		if len(call.Args) != 1 {
			return true, fmt.Errorf("%s takes exactly one target", fn.Name)
		}
		switch t := unparen(call.Args[0]).(type) {
		case *syntax.DotExpr:
			err := cc.expr(t.X)
			if err != nil {
				return true, err
			}
			cc.emitName(DELATTR, t.Name.Name)
		case *syntax.IndexExpr:
			err := cc.expr(t.X)
			if err != nil {
				return true, err
			}
			err = cc.expr(t.Y)
			if err != nil {
				return true, err
			}
			cc.emit(DELITEM)
		default:
			return true, fmt.Errorf("Argument to %s must be an attribute or an index expression", fn.Name)
		}
		// Every expression leaves a value behind
		cc.emitConst(None)
	default:
		return true, fmt.Errorf("Unhandled special: %s", fn.Name)
	}
	return true, nil
}
