package vm

import (
	"errors"
	"fmt"
)

var ErrNoNamespace = errors.New("no declaring namespace")

// Namespace returns the module a value is declared in. Callables and modules
// answer for themselves, native methods answer for their receiver and every
// other value answers for its type.
func Namespace(v Value) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", fmt.Errorf("%w: NULL", ErrNoNamespace)
	case *Module:
		return x.Name, nil
	case *Function:
		return x.Module, nil
	case *Builtin:
		return x.Module, nil
	case *Type:
		return x.Module, nil
	case *BoundMethod:
		return Namespace(x.Receiver)
	}
	t := TypeOf(v)
	if t == nil || t.Module == "" {
		return "", fmt.Errorf("%w: %T", ErrNoNamespace, v)
	}
	return t.Module, nil
}

// QualifiedName is "<namespace>.<name>" for anything that can be called.
func QualifiedName(v Value) (string, error) {
	switch x := v.(type) {
	case *Function:
		return x.Module + "." + x.Name, nil
	case *Builtin:
		return x.Module + "." + x.Name, nil
	case *Type:
		return x.Module + "." + x.Name, nil
	case *BoundMethod:
		return QualifiedName(x.Method)
	}
	return "", fmt.Errorf("%w: %s is not callable", ErrNoNamespace, TypeName(v))
}

// Signature returns the declared parameters of a callable, or false when the
// callable does not expose them.
func Signature(v Value) ([]FunctionParam, bool) {
	switch x := v.(type) {
	case *Function:
		return x.Params, true
	case *Builtin:
		return x.Params, x.Params != nil
	case *Type:
		return x.Params, x.Params != nil
	}
	return nil, false
}
