package vm

import (
	"errors"
	"fmt"
	"strings"
)

// method declares a native method. The receiver is always the first parameter.
func method(params []FunctionParam, fn func(args []Value) (Value, error)) *Builtin {
	b := &Builtin{Params: params}
	b.Fn = func(args []Value, kwargs []Kwarg) (Value, error) {
		vals, err := bindNative(b.Name, params, args, kwargs)
		if err != nil {
			return nil, err
		}
		return fn(vals)
	}
	return b
}

func init() {
	ListType.AddMethods(map[string]*Builtin{
		"append":  method(Params("self", "object"), listAppend),
		"extend":  method(Params("self", "iterable"), listExtend),
		"insert":  method(Params("self", "index", "object"), listInsert),
		"pop":     method(WithDefault(Params("self", "index"), "index", IntValue(-1)), listPop),
		"remove":  method(Params("self", "value"), listRemove),
		"index":   method(Params("self", "value"), listIndex),
		"count":   method(Params("self", "value"), listCount),
		"clear":   method(Params("self"), listClear),
		"copy":    method(Params("self"), listCopy),
		"reverse": method(Params("self"), listReverse),
		"sort":    method(WithDefault(Params("self", "*", "reverse"), "reverse", BoolFalse), listSort),
	})
	DictType.AddMethods(map[string]*Builtin{
		"get":        method(Params("self", "key", "default="), dictGet),
		"keys":       method(Params("self"), dictKeys),
		"values":     method(Params("self"), dictValues),
		"items":      method(Params("self"), dictItems),
		"pop":        method(Params("self", "key", "default="), dictPop),
		"setdefault": method(Params("self", "key", "default="), dictSetdefault),
		"update":     method(Params("self", "other"), dictUpdate),
		"clear":      method(Params("self"), dictClear),
		"copy":       method(Params("self"), dictCopy),
	})
	StrType.AddMethods(map[string]*Builtin{
		"upper":      method(Params("self"), strMap(strings.ToUpper)),
		"lower":      method(Params("self"), strMap(strings.ToLower)),
		"strip":      method(Params("self"), strMap(strings.TrimSpace)),
		"split":      method(Params("self", "sep="), strSplit),
		"join":       method(Params("self", "iterable"), strJoin),
		"startswith": method(Params("self", "prefix"), strStartswith),
		"endswith":   method(Params("self", "suffix"), strEndswith),
		"replace":    method(Params("self", "old", "new"), strReplace),
		"find":       method(Params("self", "sub"), strFind),
		"format":     {Fn: strFormat},
	})
}

func selfList(v Value) (*ListValue, error) {
	l, ok := v.(*ListValue)
	if !ok {
		return nil, fmt.Errorf("descriptor requires a 'list' object but received '%s'", TypeName(v))
	}
	return l, nil
}

func selfDict(v Value) (*DictValue, error) {
	d, ok := v.(*DictValue)
	if !ok {
		return nil, fmt.Errorf("descriptor requires a 'dict' object but received '%s'", TypeName(v))
	}
	return d, nil
}

func selfStr(v Value) (string, error) {
	s, ok := v.(StrValue)
	if !ok {
		return "", fmt.Errorf("descriptor requires a 'str' object but received '%s'", TypeName(v))
	}
	return string(s), nil
}

func listAppend(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	l.Items = append(l.Items, args[1])
	return None, nil
}

func listExtend(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	items, ok := Elements(args[1])
	if !ok {
		return nil, fmt.Errorf("'%s' object is not iterable", TypeName(args[1]))
	}
	l.Items = append(l.Items, items...)
	return None, nil
}

func listInsert(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	i, ok := args[1].(IntValue)
	if !ok {
		return nil, errors.New("list.insert(): index must be an integer")
	}
	n := len(l.Items)
	idx := int(i)
	if idx < 0 {
		idx += n
	}
	idx = max(0, min(idx, n))
	l.Items = append(l.Items, nil)
	copy(l.Items[idx+1:], l.Items[idx:])
	l.Items[idx] = args[2]
	return None, nil
}

func listPop(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	if len(l.Items) == 0 {
		return nil, errors.New("pop from empty list")
	}
	idx, err := seqIndex(args[1], len(l.Items))
	if err != nil {
		return nil, err
	}
	v := l.Items[idx]
	l.Items = append(l.Items[:idx], l.Items[idx+1:]...)
	return v, nil
}

func listRemove(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	for i, v := range l.Items {
		if Equal(v, args[1]) {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return None, nil
		}
	}
	return nil, errors.New("list.remove(x): x not in list")
}

func listIndex(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	for i, v := range l.Items {
		if Equal(v, args[1]) {
			return IntValue(i), nil
		}
	}
	return nil, fmt.Errorf("%s is not in list", Repr(args[1]))
}

func listCount(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	n := 0
	for _, v := range l.Items {
		if Equal(v, args[1]) {
			n++
		}
	}
	return IntValue(n), nil
}

func listClear(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	l.Items = nil
	return None, nil
}

func listCopy(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	return NewList(append([]Value(nil), l.Items...)), nil
}

func listReverse(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(l.Items)-1; i < j; i, j = i+1, j-1 {
		l.Items[i], l.Items[j] = l.Items[j], l.Items[i]
	}
	return None, nil
}

func listSort(args []Value) (Value, error) {
	l, err := selfList(args[0])
	if err != nil {
		return nil, err
	}
	return None, sortValues(l.Items, args[1].AsBool())
}

func dictGet(args []Value) (Value, error) {
	d, err := selfDict(args[0])
	if err != nil {
		return nil, err
	}
	if v, ok := d.Get(args[1]); ok {
		return v, nil
	}
	return args[2], nil
}

func dictKeys(args []Value) (Value, error) {
	d, err := selfDict(args[0])
	if err != nil {
		return nil, err
	}
	return NewList(d.Keys()), nil
}

func dictValues(args []Value) (Value, error) {
	d, err := selfDict(args[0])
	if err != nil {
		return nil, err
	}
	return NewList(d.Values()), nil
}

func dictItems(args []Value) (Value, error) {
	d, err := selfDict(args[0])
	if err != nil {
		return nil, err
	}
	var out []Value
	for k, v := range d.Entries {
		out = append(out, TupleValue{k, v})
	}
	return NewList(out), nil
}

func dictPop(args []Value) (Value, error) {
	d, err := selfDict(args[0])
	if err != nil {
		return nil, err
	}
	v, ok := d.Get(args[1])
	if !ok {
		if _, isNone := args[2].(NoneValue); isNone {
			return nil, fmt.Errorf("key %s not found", Repr(args[1]))
		}
		return args[2], nil
	}
	d.Delete(args[1])
	return v, nil
}

func dictSetdefault(args []Value) (Value, error) {
	d, err := selfDict(args[0])
	if err != nil {
		return nil, err
	}
	if v, ok := d.Get(args[1]); ok {
		return v, nil
	}
	d.Set(args[1], args[2])
	return args[2], nil
}

func dictUpdate(args []Value) (Value, error) {
	d, err := selfDict(args[0])
	if err != nil {
		return nil, err
	}
	src, err := newDict([]Value{args[1]}, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range src.(*DictValue).Entries {
		d.Set(k, v)
	}
	return None, nil
}

func dictClear(args []Value) (Value, error) {
	d, err := selfDict(args[0])
	if err != nil {
		return nil, err
	}
	d.keys, d.values = nil, nil
	return None, nil
}

func dictCopy(args []Value) (Value, error) {
	d, err := selfDict(args[0])
	if err != nil {
		return nil, err
	}
	out := NewDict()
	for k, v := range d.Entries {
		out.Set(k, v)
	}
	return out, nil
}

func strMap(f func(string) string) func(args []Value) (Value, error) {
	return func(args []Value) (Value, error) {
		s, err := selfStr(args[0])
		if err != nil {
			return nil, err
		}
		return StrValue(f(s)), nil
	}
}

func strSplit(args []Value) (Value, error) {
	s, err := selfStr(args[0])
	if err != nil {
		return nil, err
	}
	var parts []string
	switch sep := args[1].(type) {
	case NoneValue:
		parts = strings.Fields(s)
	case StrValue:
		if sep == "" {
			return nil, errors.New("empty separator")
		}
		parts = strings.Split(s, string(sep))
	default:
		return nil, fmt.Errorf("must be str or None, not %s", TypeName(sep))
	}
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = StrValue(p)
	}
	return NewList(out), nil
}

func strJoin(args []Value) (Value, error) {
	s, err := selfStr(args[0])
	if err != nil {
		return nil, err
	}
	items, ok := Elements(args[1])
	if !ok {
		return nil, fmt.Errorf("can only join an iterable, not %s", TypeName(args[1]))
	}
	parts := make([]string, len(items))
	for i, it := range items {
		str, ok := it.(StrValue)
		if !ok {
			return nil, fmt.Errorf("sequence item %d: expected str instance, %s found", i, TypeName(it))
		}
		parts[i] = string(str)
	}
	return StrValue(strings.Join(parts, s)), nil
}

func strStartswith(args []Value) (Value, error) {
	s, err := selfStr(args[0])
	if err != nil {
		return nil, err
	}
	p, err := selfStr(args[1])
	if err != nil {
		return nil, err
	}
	return BoolValue(strings.HasPrefix(s, p)), nil
}

func strEndswith(args []Value) (Value, error) {
	s, err := selfStr(args[0])
	if err != nil {
		return nil, err
	}
	p, err := selfStr(args[1])
	if err != nil {
		return nil, err
	}
	return BoolValue(strings.HasSuffix(s, p)), nil
}

func strReplace(args []Value) (Value, error) {
	s, err := selfStr(args[0])
	if err != nil {
		return nil, err
	}
	old, err := selfStr(args[1])
	if err != nil {
		return nil, err
	}
	repl, err := selfStr(args[2])
	if err != nil {
		return nil, err
	}
	return StrValue(strings.ReplaceAll(s, old, repl)), nil
}

func strFind(args []Value) (Value, error) {
	s, err := selfStr(args[0])
	if err != nil {
		return nil, err
	}
	sub, err := selfStr(args[1])
	if err != nil {
		return nil, err
	}
	return IntValue(strings.Index(s, sub)), nil
}

// strFormat fills "{}" and "{name}" fields. Its signature is not exposed.
func strFormat(args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) == 0 {
		return nil, errors.New("str.format(): missing receiver")
	}
	s, err := selfStr(args[0])
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	next := 1
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			b.WriteString(s)
			break
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			return nil, errors.New("str.format(): unmatched '{'")
		}
		b.WriteString(s[:open])
		field := s[open+1 : open+end]
		s = s[open+end+1:]
		if field == "" {
			if next >= len(args) {
				return nil, errors.New("str.format(): not enough arguments")
			}
			b.WriteString(Str(args[next]))
			next++
			continue
		}
		found := false
		for _, kw := range kwargs {
			if kw.Name == field {
				b.WriteString(Str(kw.Value))
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("str.format(): missing field %q", field)
		}
	}
	return StrValue(b.String()), nil
}
