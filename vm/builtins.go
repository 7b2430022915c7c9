package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Output receives everything print writes.
var Output io.Writer = os.Stdout

// Universe holds the names visible in every module without a load.
var Universe = map[string]Value{}

// Builtins that the tracer reports attribute access and iteration as. Their
// signatures are not exposed, so records carry positional index keys.
var (
	BuiltinGetattr = &Builtin{Module: "builtins", Name: "getattr", Fn: builtinGetattr}
	BuiltinSetattr = &Builtin{Module: "builtins", Name: "setattr", Fn: builtinSetattr}
	BuiltinDelattr = &Builtin{Module: "builtins", Name: "delattr", Fn: builtinDelattr}
	BuiltinIter    = &Builtin{Module: "builtins", Name: "iter", Fn: builtinIter}
)

func init() {
	ListType.New = func(args []Value, kwargs []Kwarg) (Value, error) {
		items, err := optionalIterable("list", args, kwargs)
		return NewList(items), err
	}
	TupleType.New = func(args []Value, kwargs []Kwarg) (Value, error) {
		items, err := optionalIterable("tuple", args, kwargs)
		return TupleValue(items), err
	}
	DictType.New = newDict
	StrType.New = func(args []Value, kwargs []Kwarg) (Value, error) {
		if len(args) == 0 {
			return StrValue(""), nil
		}
		return StrValue(Str(args[0])), nil
	}
	IntType.New = newInt
	FloatType.New = newFloat
	BoolType.New = func(args []Value, kwargs []Kwarg) (Value, error) {
		if len(args) == 0 {
			return BoolFalse, nil
		}
		return BoolValue(args[0].AsBool()), nil
	}

	for _, t := range []*Type{ListType, TupleType, DictType, StrType, IntType, FloatType, BoolType} {
		Universe[t.Name] = t
	}
	for _, b := range []*Builtin{
		BuiltinGetattr,
		BuiltinSetattr,
		BuiltinDelattr,
		BuiltinIter,
		{Name: "hasattr", Fn: builtinHasattr},
		{Name: "len", Params: Params("obj"), Fn: builtinLen},
		{Name: "range", Fn: builtinRange},
		{Name: "print", Fn: builtinPrint},
		{Name: "type", Params: Params("obj"), Fn: builtinType},
		{Name: "repr", Params: Params("obj"), Fn: builtinRepr},
		{Name: "sorted", Params: WithDefault(Params("iterable", "*", "reverse"), "reverse", BoolFalse), Fn: builtinSorted},
		{Name: "reversed", Params: Params("seq"), Fn: builtinReversed},
		{Name: "enumerate", Params: WithDefault(Params("iterable", "start"), "start", IntValue(0)), Fn: builtinEnumerate},
		{Name: "zip", Params: Params("*iterables"), Fn: builtinZip},
		{Name: "min", Fn: builtinMin},
		{Name: "max", Fn: builtinMax},
		{Name: "sum", Params: WithDefault(Params("iterable", "start"), "start", IntValue(0)), Fn: builtinSum},
		{Name: "abs", Params: Params("x"), Fn: builtinAbs},
		{Name: "fail", Fn: builtinFail},
	} {
		b.Module = "builtins"
		Universe[b.Name] = b
	}
}

func bindNative(name string, params []FunctionParam, args []Value, kwargs []Kwarg) ([]Value, error) {
	vals, err := BindAll(params, args, kwargs)
	if err != nil {
		return nil, fmt.Errorf("%s(): %w", name, err)
	}
	return vals, nil
}

func noKwargs(name string, kwargs []Kwarg) error {
	if len(kwargs) != 0 {
		return fmt.Errorf("%s() takes no keyword arguments", name)
	}
	return nil
}

func optionalIterable(name string, args []Value, kwargs []Kwarg) ([]Value, error) {
	if err := noKwargs(name, kwargs); err != nil {
		return nil, err
	}
	switch len(args) {
	case 0:
		return nil, nil
	case 1:
		items, ok := Elements(args[0])
		if !ok {
			return nil, fmt.Errorf("%s(): '%s' object is not iterable", name, TypeName(args[0]))
		}
		return items, nil
	}
	return nil, fmt.Errorf("%s() takes at most 1 argument, got %d", name, len(args))
}

func newDict(args []Value, kwargs []Kwarg) (Value, error) {
	d := NewDict()
	if len(args) > 1 {
		return nil, fmt.Errorf("dict() takes at most 1 argument, got %d", len(args))
	}
	if len(args) == 1 {
		switch src := args[0].(type) {
		case *DictValue:
			for k, v := range src.Entries {
				d.Set(k, v)
			}
		default:
			pairs, ok := Elements(src)
			if !ok {
				return nil, fmt.Errorf("dict(): '%s' object is not iterable", TypeName(src))
			}
			for _, p := range pairs {
				kv, ok := Elements(p)
				if !ok || len(kv) != 2 {
					return nil, errors.New("dict(): sequence elements must have length 2")
				}
				d.Set(kv[0], kv[1])
			}
		}
	}
	for _, kw := range kwargs {
		d.Set(StrValue(kw.Name), kw.Value)
	}
	return d, nil
}

func newInt(args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) == 0 {
		return IntValue(0), nil
	}
	switch v := args[0].(type) {
	case IntValue:
		return v, nil
	case FloatValue:
		return IntValue(int(v)), nil
	case BoolValue:
		return IntValue(v.asInt()), nil
	case StrValue:
		i, err := strconv.Atoi(strings.TrimSpace(string(v)))
		if err != nil {
			return nil, fmt.Errorf("int(): invalid literal %q", string(v))
		}
		return IntValue(i), nil
	}
	return nil, fmt.Errorf("int() argument must be a string or a number, not '%s'", TypeName(args[0]))
}

func newFloat(args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) == 0 {
		return FloatValue(0), nil
	}
	switch v := args[0].(type) {
	case IntValue:
		return FloatValue(v), nil
	case FloatValue:
		return v, nil
	case StrValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, fmt.Errorf("float(): invalid literal %q", string(v))
		}
		return FloatValue(f), nil
	}
	return nil, fmt.Errorf("float() argument must be a string or a number, not '%s'", TypeName(args[0]))
}

func attrName(fn string, v Value) (string, error) {
	s, ok := v.(StrValue)
	if !ok {
		return "", fmt.Errorf("%s(): attribute name must be string, not '%s'", fn, TypeName(v))
	}
	return string(s), nil
}

func builtinGetattr(args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("getattr expected 2 or 3 arguments, got %d", len(args))
	}
	name, err := attrName("getattr", args[1])
	if err != nil {
		return nil, err
	}
	v, err := GetAttr(args[0], name)
	if err != nil && len(args) == 3 {
		return args[2], nil
	}
	return v, err
}

func builtinSetattr(args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("setattr expected 3 arguments, got %d", len(args))
	}
	name, err := attrName("setattr", args[1])
	if err != nil {
		return nil, err
	}
	return None, SetAttr(args[0], name, args[2])
}

func builtinDelattr(args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("delattr expected 2 arguments, got %d", len(args))
	}
	name, err := attrName("delattr", args[1])
	if err != nil {
		return nil, err
	}
	return None, DelAttr(args[0], name)
}

func builtinHasattr(args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("hasattr expected 2 arguments, got %d", len(args))
	}
	name, err := attrName("hasattr", args[1])
	if err != nil {
		return nil, err
	}
	_, err = GetAttr(args[0], name)
	return BoolValue(err == nil), nil
}

func builtinIter(args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("iter expected 1 argument, got %d", len(args))
	}
	it, ok := Iter(args[0])
	if !ok {
		return nil, fmt.Errorf("'%s' object is not iterable", TypeName(args[0]))
	}
	return it, nil
}

// builtinLen returns the length of sequences, strings, dicts and sized objects
func builtinLen(args []Value, kwargs []Kwarg) (Value, error) {
	vals, err := bindNative("len", Params("obj"), args, kwargs)
	if err != nil {
		return nil, err
	}
	n, ok := Len(vals[0])
	if !ok {
		return nil, fmt.Errorf("object of type '%s' has no len()", TypeName(vals[0]))
	}
	return IntValue(n), nil
}

// builtinRange supports range(stop), range(start, stop) and
// range(start, stop, step), returning a list.
func builtinRange(args []Value, kwargs []Kwarg) (Value, error) {
	if err := noKwargs("range", kwargs); err != nil {
		return nil, err
	}
	ints := make([]int, len(args))
	for i, a := range args {
		v, ok := a.(IntValue)
		if !ok {
			return nil, fmt.Errorf("range() arguments must be integers, got %s", TypeName(a))
		}
		ints[i] = int(v)
	}
	var start, stop, step int
	switch len(ints) {
	case 1:
		start, stop, step = 0, ints[0], 1
	case 2:
		start, stop, step = ints[0], ints[1], 1
	case 3:
		start, stop, step = ints[0], ints[1], ints[2]
		if step == 0 {
			return nil, fmt.Errorf("range() step argument must not be zero")
		}
	default:
		return nil, fmt.Errorf("range() takes 1 to 3 arguments, got %d", len(args))
	}

	var result []Value
	if step > 0 {
		for i := start; i < stop; i += step {
			result = append(result, IntValue(i))
		}
	} else {
		for i := start; i > stop; i += step {
			result = append(result, IntValue(i))
		}
	}
	return NewList(result), nil
}

func builtinPrint(args []Value, kwargs []Kwarg) (Value, error) {
	sep := " "
	for _, kw := range kwargs {
		if kw.Name != "sep" {
			return nil, fmt.Errorf("print() got an unexpected keyword argument '%s'", kw.Name)
		}
		sep = Str(kw.Value)
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Str(a)
	}
	_, err := fmt.Fprintln(Output, strings.Join(parts, sep))
	return None, err
}

func builtinType(args []Value, kwargs []Kwarg) (Value, error) {
	vals, err := bindNative("type", Params("obj"), args, kwargs)
	if err != nil {
		return nil, err
	}
	t := TypeOf(vals[0])
	if t == nil {
		return nil, fmt.Errorf("type(): unknown value %T", vals[0])
	}
	return t, nil
}

func builtinRepr(args []Value, kwargs []Kwarg) (Value, error) {
	vals, err := bindNative("repr", Params("obj"), args, kwargs)
	if err != nil {
		return nil, err
	}
	return StrValue(Repr(vals[0])), nil
}

func builtinSorted(args []Value, kwargs []Kwarg) (Value, error) {
	vals, err := bindNative("sorted", WithDefault(Params("iterable", "*", "reverse"), "reverse", BoolFalse), args, kwargs)
	if err != nil {
		return nil, err
	}
	items, ok := Elements(vals[0])
	if !ok {
		return nil, fmt.Errorf("sorted(): '%s' object is not iterable", TypeName(vals[0]))
	}
	if err := sortValues(items, vals[1].AsBool()); err != nil {
		return nil, err
	}
	return NewList(items), nil
}

func sortValues(items []Value, reverse bool) error {
	var cmpErr error
	sort.SliceStable(items, func(i, j int) bool {
		c, ok := items[i].Cmp(items[j])
		if !ok {
			cmpErr = fmt.Errorf("'<' not supported between instances of '%s' and '%s'", TypeName(items[i]), TypeName(items[j]))
			return false
		}
		if reverse {
			return c > 0
		}
		return c < 0
	})
	return cmpErr
}

func builtinReversed(args []Value, kwargs []Kwarg) (Value, error) {
	vals, err := bindNative("reversed", Params("seq"), args, kwargs)
	if err != nil {
		return nil, err
	}
	items, ok := Elements(vals[0])
	if !ok {
		return nil, fmt.Errorf("reversed(): '%s' object is not reversible", TypeName(vals[0]))
	}
	out := make([]Value, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return &IteratorValue{Iter: NewSliceIterator(out)}, nil
}

func builtinEnumerate(args []Value, kwargs []Kwarg) (Value, error) {
	vals, err := bindNative("enumerate", WithDefault(Params("iterable", "start"), "start", IntValue(0)), args, kwargs)
	if err != nil {
		return nil, err
	}
	items, ok := Elements(vals[0])
	if !ok {
		return nil, fmt.Errorf("enumerate(): '%s' object is not iterable", TypeName(vals[0]))
	}
	start, ok := vals[1].(IntValue)
	if !ok {
		return nil, errors.New("enumerate(): start must be an integer")
	}
	out := make([]Value, len(items))
	for i, v := range items {
		out[i] = TupleValue{start + IntValue(i), v}
	}
	return NewList(out), nil
}

func builtinZip(args []Value, kwargs []Kwarg) (Value, error) {
	if err := noKwargs("zip", kwargs); err != nil {
		return nil, err
	}
	var lists [][]Value
	n := -1
	for _, a := range args {
		items, ok := Elements(a)
		if !ok {
			return nil, fmt.Errorf("zip(): '%s' object is not iterable", TypeName(a))
		}
		lists = append(lists, items)
		if n < 0 || len(items) < n {
			n = len(items)
		}
	}
	var out []Value
	for i := 0; i < n; i++ {
		row := make(TupleValue, len(lists))
		for j, l := range lists {
			row[j] = l[i]
		}
		out = append(out, row)
	}
	return NewList(out), nil
}

func extremum(name string, args []Value, kwargs []Kwarg, want int) (Value, error) {
	if err := noKwargs(name, kwargs); err != nil {
		return nil, err
	}
	items := args
	if len(args) == 1 {
		var ok bool
		items, ok = Elements(args[0])
		if !ok {
			return nil, fmt.Errorf("%s(): '%s' object is not iterable", name, TypeName(args[0]))
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s() arg is an empty sequence", name)
	}
	best := items[0]
	for _, v := range items[1:] {
		c, ok := v.Cmp(best)
		if !ok {
			return nil, fmt.Errorf("%s(): cannot compare %s and %s", name, TypeName(v), TypeName(best))
		}
		if c == want {
			best = v
		}
	}
	return best, nil
}

func builtinMin(args []Value, kwargs []Kwarg) (Value, error) {
	return extremum("min", args, kwargs, -1)
}

func builtinMax(args []Value, kwargs []Kwarg) (Value, error) {
	return extremum("max", args, kwargs, 1)
}

func builtinSum(args []Value, kwargs []Kwarg) (Value, error) {
	vals, err := bindNative("sum", WithDefault(Params("iterable", "start"), "start", IntValue(0)), args, kwargs)
	if err != nil {
		return nil, err
	}
	items, ok := Elements(vals[0])
	if !ok {
		return nil, fmt.Errorf("sum(): '%s' object is not iterable", TypeName(vals[0]))
	}
	total := vals[1]
	for _, v := range items {
		total, err = BinaryOp(ADD, total, v)
		if err != nil {
			return nil, err
		}
	}
	return total, nil
}

func builtinAbs(args []Value, kwargs []Kwarg) (Value, error) {
	vals, err := bindNative("abs", Params("x"), args, kwargs)
	if err != nil {
		return nil, err
	}
	switch v := vals[0].(type) {
	case IntValue:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case FloatValue:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	}
	return nil, fmt.Errorf("bad operand type for abs(): '%s'", TypeName(vals[0]))
}

func builtinFail(args []Value, kwargs []Kwarg) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Str(a)
	}
	return nil, fmt.Errorf("fail: %s", strings.Join(parts, " "))
}
