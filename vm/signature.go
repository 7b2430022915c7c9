package vm

import (
	"errors"
	"fmt"
)

var ErrUnbindable = errors.New("arguments do not match signature")

type Binding struct {
	Name  string
	Value Value
}

// Bind matches call arguments to declared parameters. The result holds only
// the parameters the call supplied, in declaration order; parameters left to
// their defaults are omitted. Extra positional arguments land in the *args
// parameter as a tuple and extra keywords in the **kwargs parameter as a dict,
// each only when non-empty.
func Bind(params []FunctionParam, args []Value, kwargs []Kwarg) ([]Binding, error) {
	bound := make([]Value, len(params))
	varArgs, varKw := -1, -1
	var positional []int
	for i, p := range params {
		switch {
		case p.ArgList:
			varArgs = i
		case p.ArgMap:
			varKw = i
		case !p.KeywordOnly:
			positional = append(positional, i)
		}
	}

	var extraArgs TupleValue
	for i, a := range args {
		if i < len(positional) {
			bound[positional[i]] = a
			continue
		}
		if varArgs < 0 {
			return nil, fmt.Errorf("%w: takes %d positional arguments but %d were given", ErrUnbindable, len(positional), len(args))
		}
		extraArgs = append(extraArgs, a)
	}

	var extraKw *DictValue
	for _, kw := range kwargs {
		idx := -1
		for i, p := range params {
			if p.Name == kw.Name && !p.ArgList && !p.ArgMap {
				idx = i
				break
			}
		}
		if idx < 0 {
			if varKw < 0 {
				return nil, fmt.Errorf("%w: unexpected keyword argument '%s'", ErrUnbindable, kw.Name)
			}
			if extraKw == nil {
				extraKw = NewDict()
			}
			if _, dup := extraKw.Get(StrValue(kw.Name)); dup {
				return nil, fmt.Errorf("%w: multiple values for argument '%s'", ErrUnbindable, kw.Name)
			}
			extraKw.Set(StrValue(kw.Name), kw.Value)
			continue
		}
		if bound[idx] != nil {
			return nil, fmt.Errorf("%w: multiple values for argument '%s'", ErrUnbindable, kw.Name)
		}
		bound[idx] = kw.Value
	}
	if varArgs >= 0 && len(extraArgs) != 0 {
		bound[varArgs] = extraArgs
	}
	if varKw >= 0 && extraKw != nil {
		bound[varKw] = extraKw
	}

	var out []Binding
	for i, p := range params {
		if bound[i] == nil {
			if p.Default == nil && !p.ArgList && !p.ArgMap {
				return nil, fmt.Errorf("%w: missing required argument '%s'", ErrUnbindable, p.Name)
			}
			continue
		}
		out = append(out, Binding{Name: p.Name, Value: bound[i]})
	}
	return out, nil
}

// BindAll is Bind with defaults applied: one value per parameter.
func BindAll(params []FunctionParam, args []Value, kwargs []Kwarg) ([]Value, error) {
	bindings, err := Bind(params, args, kwargs)
	if err != nil {
		return nil, err
	}
	values := make([]Value, len(params))
	j := 0
	for i, p := range params {
		if j < len(bindings) && bindings[j].Name == p.Name {
			values[i] = bindings[j].Value
			j++
			continue
		}
		switch {
		case p.ArgList:
			values[i] = TupleValue{}
		case p.ArgMap:
			values[i] = NewDict()
		default:
			values[i] = p.Default
		}
	}
	return values, nil
}

// Params is shorthand for declaring native signatures: "x", "y=", "*args",
// "**kw". A trailing "=" marks a parameter whose default is None; use
// WithDefault for other defaults.
func Params(names ...string) []FunctionParam {
	out := make([]FunctionParam, 0, len(names))
	kwOnly := false
	for _, n := range names {
		p := FunctionParam{}
		switch {
		case n == "*":
			kwOnly = true
			continue
		case len(n) > 2 && n[:2] == "**":
			p.Name, p.ArgMap = n[2:], true
		case len(n) > 1 && n[0] == '*':
			p.Name, p.ArgList = n[1:], true
			kwOnly = true
		case len(n) > 1 && n[len(n)-1] == '=':
			p.Name, p.Default = n[:len(n)-1], None
		default:
			p.Name = n
		}
		if !p.ArgList && !p.ArgMap {
			p.KeywordOnly = kwOnly
		}
		out = append(out, p)
	}
	return out
}

// WithDefault sets the default of the named parameter.
func WithDefault(params []FunctionParam, name string, v Value) []FunctionParam {
	for i := range params {
		if params[i].Name == name {
			params[i].Default = v
		}
	}
	return params
}
