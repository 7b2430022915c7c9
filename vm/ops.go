package vm

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

var ErrUnsupportedOp = errors.New("unsupported operand types")

// BinaryOp applies an arithmetic or bitwise opcode. In-place opcodes mutate
// lists; for every other type they behave like their plain counterpart.
func BinaryOp(op Opcode, a, b Value) (Value, error) {
	if o, ok := a.(BinaryOperand); ok {
		v, err := o.Binary(op, b, true)
		if !errors.Is(err, ErrUnsupportedOp) {
			return v, err
		}
	}
	if o, ok := b.(BinaryOperand); ok {
		v, err := o.Binary(op, a, false)
		if !errors.Is(err, ErrUnsupportedOp) {
			return v, err
		}
	}
	plain := op.Binary()
	if op == INPLACE_ADD {
		if l, ok := a.(*ListValue); ok {
			items, ok := Elements(b)
			if !ok {
				return nil, fmt.Errorf("'%s' object is not iterable", TypeName(b))
			}
			l.Items = append(l.Items, items...)
			return l, nil
		}
	}
	switch plain {
	case ADD:
		return add(a, b)
	case MULTIPLY:
		if v, ok := repeat(a, b); ok {
			return v, nil
		}
		if v, ok := repeat(b, a); ok {
			return v, nil
		}
	case MODULO:
		if s, ok := a.(StrValue); ok {
			return formatPercent(string(s), b)
		}
	case LSHIFT, RSHIFT, BIT_AND, BIT_OR, BIT_XOR:
		return bitOp(plain, a, b)
	}
	return numericOp(plain, a, b)
}

func add(a, b Value) (Value, error) {
	switch av := a.(type) {
	case IntValue, FloatValue:
		return numericOp(ADD, a, b)
	case StrValue:
		if bv, ok := b.(StrValue); ok {
			return av + bv, nil
		}
	case *ListValue:
		if bv, ok := b.(*ListValue); ok {
			items := make([]Value, 0, len(av.Items)+len(bv.Items))
			items = append(items, av.Items...)
			return NewList(append(items, bv.Items...)), nil
		}
	case TupleValue:
		if bv, ok := b.(TupleValue); ok {
			out := make(TupleValue, 0, len(av)+len(bv))
			out = append(out, av...)
			return append(out, bv...), nil
		}
	}
	return nil, fmt.Errorf("%w for +: '%s' and '%s'", ErrUnsupportedOp, TypeName(a), TypeName(b))
}

func repeat(seq, count Value) (Value, bool) {
	n, ok := count.(IntValue)
	if !ok {
		return nil, false
	}
	times := max(int(n), 0)
	switch s := seq.(type) {
	case StrValue:
		return StrValue(strings.Repeat(string(s), times)), true
	case *ListValue:
		var items []Value
		for range times {
			items = append(items, s.Items...)
		}
		return NewList(items), true
	case TupleValue:
		var out TupleValue
		for range times {
			out = append(out, s...)
		}
		return out, true
	}
	return nil, false
}

func numericOp(op Opcode, a, b Value) (Value, error) {
	if av, ok := a.(FloatValue); ok {
		if bv, ok := b.(FloatValue); ok {
			return floatOp(op, float64(av), float64(bv))
		} else if bv, ok := b.(IntValue); ok {
			return floatOp(op, float64(av), float64(bv))
		}
	}
	if av, ok := a.(IntValue); ok {
		if bv, ok := b.(FloatValue); ok {
			return floatOp(op, float64(av), float64(bv))
		} else if bv, ok := b.(IntValue); ok {
			return intOp(op, int(av), int(bv))
		}
	}
	return nil, fmt.Errorf("%w for %s: '%s' and '%s'", ErrUnsupportedOp, op, TypeName(a), TypeName(b))
}

func floatOp(op Opcode, a, b float64) (Value, error) {
	switch op {
	case ADD:
		return FloatValue(a + b), nil
	case SUBTRACT:
		return FloatValue(a - b), nil
	case MULTIPLY:
		return FloatValue(a * b), nil
	}
	if b == 0 {
		return nil, errors.New("float division by zero")
	}
	switch op {
	case DIVIDE:
		return FloatValue(a / b), nil
	case FLOOR_DIVIDE:
		return FloatValue(math.Floor(a / b)), nil
	case MODULO:
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return FloatValue(m), nil
	}
	return nil, fmt.Errorf("%w for %s: 'float'", ErrUnsupportedOp, op)
}

func intOp(op Opcode, a, b int) (Value, error) {
	switch op {
	case ADD:
		return IntValue(a + b), nil
	case SUBTRACT:
		return IntValue(a - b), nil
	case MULTIPLY:
		return IntValue(a * b), nil
	}
	if b == 0 {
		return nil, errors.New("integer division or modulo by zero")
	}
	switch op {
	case DIVIDE:
		return FloatValue(float64(a) / float64(b)), nil
	case FLOOR_DIVIDE:
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return IntValue(q), nil
	case MODULO:
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return IntValue(m), nil
	}
	return nil, fmt.Errorf("%w for %s: 'int'", ErrUnsupportedOp, op)
}

func bitOp(op Opcode, a, b Value) (Value, error) {
	av, aok := a.(IntValue)
	bv, bok := b.(IntValue)
	if !aok || !bok {
		return nil, fmt.Errorf("%w for %s: '%s' and '%s'", ErrUnsupportedOp, op, TypeName(a), TypeName(b))
	}
	switch op {
	case LSHIFT, RSHIFT:
		if bv < 0 {
			return nil, errors.New("negative shift count")
		}
		if op == LSHIFT {
			return av << uint(bv), nil
		}
		return av >> uint(bv), nil
	case BIT_AND:
		return av & bv, nil
	case BIT_OR:
		return av | bv, nil
	case BIT_XOR:
		return av ^ bv, nil
	}
	return nil, fmt.Errorf("%w for %s", ErrUnsupportedOp, op)
}

// formatPercent supports %s, %r, %d and %% with a single value or a tuple.
func formatPercent(format string, args Value) (Value, error) {
	var list []Value
	if t, ok := args.(TupleValue); ok {
		list = t
	} else {
		list = []Value{args}
	}
	var sb strings.Builder
	next := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return nil, errors.New("incomplete format")
		}
		if format[i] == '%' {
			sb.WriteByte('%')
			continue
		}
		if next >= len(list) {
			return nil, errors.New("not enough arguments for format string")
		}
		arg := list[next]
		next++
		switch format[i] {
		case 's':
			sb.WriteString(Str(arg))
		case 'r':
			sb.WriteString(Repr(arg))
		case 'd':
			n, ok := arg.(IntValue)
			if !ok {
				return nil, fmt.Errorf("%%d format: a number is required, not %s", TypeName(arg))
			}
			fmt.Fprintf(&sb, "%d", int(n))
		default:
			return nil, fmt.Errorf("unsupported format character '%c'", format[i])
		}
	}
	if next != len(list) {
		return nil, errors.New("not all arguments converted during string formatting")
	}
	return StrValue(sb.String()), nil
}

func UnaryOp(op Opcode, a Value) (Value, error) {
	if op == NOT {
		return BoolValue(!a.AsBool()), nil
	}
	if o, ok := a.(UnaryOperand); ok {
		return o.Unary(op)
	}
	switch op {
	case NEGATE:
		return Negate(a)
	case POSITIVE:
		switch a.(type) {
		case IntValue, FloatValue:
			return a, nil
		}
	case INVERT:
		if i, ok := a.(IntValue); ok {
			return ^i, nil
		}
	}
	return nil, fmt.Errorf("%w for unary %s: '%s'", ErrUnsupportedOp, op, TypeName(a))
}

func Negate(a Value) (Value, error) {
	switch v := a.(type) {
	case IntValue:
		return -v, nil
	case FloatValue:
		return -v, nil
	case UnaryOperand:
		return v.Unary(NEGATE)
	}
	return nil, fmt.Errorf("%w for unary -: '%s'", ErrUnsupportedOp, TypeName(a))
}

// CompareOp evaluates a COMPARE instruction. For the membership comparisons a
// is the item and b the container.
func CompareOp(cmp int, a, b Value) (Value, error) {
	switch cmp {
	case CmpIn, CmpNotIn:
		found, err := Contains(b, a)
		if err != nil {
			return nil, err
		}
		return BoolValue(found == (cmp == CmpIn)), nil
	}
	if o, ok := a.(Comparer); ok {
		v, err := o.Compare(cmp, b, true)
		if !errors.Is(err, ErrUnsupportedOp) {
			return v, err
		}
	}
	if o, ok := b.(Comparer); ok {
		v, err := o.Compare(cmp, a, false)
		if !errors.Is(err, ErrUnsupportedOp) {
			return v, err
		}
	}
	switch cmp {
	case CmpEQ:
		return BoolValue(Equal(a, b)), nil
	case CmpNE:
		return BoolValue(!Equal(a, b)), nil
	}
	c, ok := a.Cmp(b)
	if !ok {
		return nil, fmt.Errorf("Can't compare %s %s %s", TypeName(a), CompareNames[cmp], TypeName(b))
	}
	switch cmp {
	case CmpLT:
		return BoolValue(c < 0), nil
	case CmpLE:
		return BoolValue(c <= 0), nil
	case CmpGT:
		return BoolValue(c > 0), nil
	case CmpGE:
		return BoolValue(c >= 0), nil
	}
	return nil, fmt.Errorf("Unknown comparison %d", cmp)
}

func Contains(container, item Value) (bool, error) {
	switch c := container.(type) {
	case *ListValue:
		return containsValue(c.Items, item), nil
	case TupleValue:
		return containsValue(c, item), nil
	case StrValue:
		s, ok := item.(StrValue)
		if !ok {
			return false, fmt.Errorf("'in <string>' requires string as left operand, not %s", TypeName(item))
		}
		return strings.Contains(string(c), string(s)), nil
	case *DictValue:
		_, ok := c.Get(item)
		return ok, nil
	case Container:
		return c.Contains(item)
	}
	return false, fmt.Errorf("argument of type '%s' is not iterable", TypeName(container))
}

func containsValue(list []Value, item Value) bool {
	for _, el := range list {
		if Equal(el, item) {
			return true
		}
	}
	return false
}

// Indices resolves the slice against a sequence of length n.
func (s SliceValue) Indices(n int) (start, stop, step int, err error) {
	step = 1
	if s.Step != nil && s.Step != Value(None) {
		i, ok := s.Step.(IntValue)
		if !ok {
			return 0, 0, 0, fmt.Errorf("slice step must be an integer, got %s", TypeName(s.Step))
		}
		if i == 0 {
			return 0, 0, 0, errors.New("slice step cannot be zero")
		}
		step = int(i)
	}
	defStart, defStop := 0, n
	if step < 0 {
		defStart, defStop = n-1, -1
	}
	start, err = sliceBound(s.Start, n, defStart, step)
	if err != nil {
		return 0, 0, 0, err
	}
	stop, err = sliceBound(s.Stop, n, defStop, step)
	return start, stop, step, err
}

func sliceBound(v Value, n, def, step int) (int, error) {
	if v == nil || v == Value(None) {
		return def, nil
	}
	iv, ok := v.(IntValue)
	if !ok {
		return 0, fmt.Errorf("slice indices must be integers or None, got %s", TypeName(v))
	}
	i := int(iv)
	if i < 0 {
		i += n
		if i < 0 {
			if step < 0 {
				return -1, nil
			}
			return 0, nil
		}
	} else if i >= n {
		if step < 0 {
			return n - 1, nil
		}
		return n, nil
	}
	return i, nil
}

// SliceIndices lists the positions selected by the slice.
func SliceIndices(s SliceValue, n int) ([]int, error) {
	start, stop, step, err := s.Indices(n)
	if err != nil {
		return nil, err
	}
	var out []int
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		out = append(out, i)
	}
	return out, nil
}

func sliceOf(items []Value, s SliceValue) ([]Value, error) {
	idx, err := SliceIndices(s, len(items))
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, len(idx))
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out, nil
}

func seqIndex(key Value, n int) (int, error) {
	k, ok := key.(IntValue)
	if !ok {
		return 0, fmt.Errorf("indices must be integers, not %s", TypeName(key))
	}
	i := int(k)
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("Index %d out of bounds for sequence of length %d", int(k), n)
	}
	return i, nil
}

func GetItem(obj, key Value) (Value, error) {
	switch o := obj.(type) {
	case *ListValue:
		if s, ok := key.(SliceValue); ok {
			items, err := sliceOf(o.Items, s)
			if err != nil {
				return nil, err
			}
			return NewList(items), nil
		}
		i, err := seqIndex(key, len(o.Items))
		if err != nil {
			return nil, err
		}
		return o.Items[i], nil
	case TupleValue:
		if s, ok := key.(SliceValue); ok {
			items, err := sliceOf(o, s)
			if err != nil {
				return nil, err
			}
			return TupleValue(items), nil
		}
		i, err := seqIndex(key, len(o))
		if err != nil {
			return nil, err
		}
		return o[i], nil
	case StrValue:
		runes := []rune(string(o))
		chars := make([]Value, len(runes))
		for i, r := range runes {
			chars[i] = StrValue(string(r))
		}
		if s, ok := key.(SliceValue); ok {
			items, err := sliceOf(chars, s)
			if err != nil {
				return nil, err
			}
			var sb strings.Builder
			for _, c := range items {
				sb.WriteString(string(c.(StrValue)))
			}
			return StrValue(sb.String()), nil
		}
		i, err := seqIndex(key, len(chars))
		if err != nil {
			return nil, err
		}
		return chars[i], nil
	case *DictValue:
		if v, ok := o.Get(key); ok {
			return v, nil
		}
		return nil, fmt.Errorf("Key %s not found in dict", Repr(key))
	case Indexer:
		return o.Index(key)
	}
	return nil, fmt.Errorf("'%s' object is not subscriptable", TypeName(obj))
}

func SetItem(obj, key, val Value) error {
	switch o := obj.(type) {
	case *ListValue:
		i, err := seqIndex(key, len(o.Items))
		if err != nil {
			return err
		}
		o.Items[i] = val
		return nil
	case *DictValue:
		o.Set(key, val)
		return nil
	case IndexSetter:
		return o.SetIndex(key, val)
	}
	return fmt.Errorf("'%s' object does not support item assignment", TypeName(obj))
}

func DelItem(obj, key Value) error {
	switch o := obj.(type) {
	case *ListValue:
		i, err := seqIndex(key, len(o.Items))
		if err != nil {
			return err
		}
		o.Items = append(o.Items[:i], o.Items[i+1:]...)
		return nil
	case *DictValue:
		if !o.Delete(key) {
			return fmt.Errorf("Key %s not found in dict", Repr(key))
		}
		return nil
	case IndexDeleter:
		return o.DelIndex(key)
	}
	return fmt.Errorf("'%s' object does not support item deletion", TypeName(obj))
}

// GetAttr resolves obj.name. Native methods come back bound to obj; methods
// looked up on a type come back unbound.
func GetAttr(obj Value, name string) (Value, error) {
	switch o := obj.(type) {
	case *Module:
		if v, ok := o.Members[name]; ok {
			return v, nil
		}
		return nil, fmt.Errorf("module '%s' has no attribute '%s'", o.Name, name)
	case *Type:
		if m, ok := o.Method(name); ok {
			return m, nil
		}
		return nil, fmt.Errorf("type object '%s' has no attribute '%s'", o.Name, name)
	}
	if a, ok := obj.(Attributer); ok {
		v, err := a.Attr(name)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
	if m, ok := LookupMethod(obj, name); ok {
		return &BoundMethod{Receiver: obj, Method: m}, nil
	}
	return nil, fmt.Errorf("'%s' object has no attribute '%s'", TypeName(obj), name)
}

// LookupMethod finds a method defined on the type of obj. Modules and types
// have members rather than methods.
func LookupMethod(obj Value, name string) (*Builtin, bool) {
	switch obj.(type) {
	case *Module, *Type:
		return nil, false
	}
	return TypeOf(obj).Method(name)
}

func SetAttr(obj Value, name string, val Value) error {
	switch o := obj.(type) {
	case *Module:
		o.Members[name] = val
		return nil
	case AttrSetter:
		return o.SetAttr(name, val)
	}
	return fmt.Errorf("'%s' object has no settable attribute '%s'", TypeName(obj), name)
}

func DelAttr(obj Value, name string) error {
	switch o := obj.(type) {
	case *Module:
		if _, ok := o.Members[name]; !ok {
			return fmt.Errorf("module '%s' has no attribute '%s'", o.Name, name)
		}
		delete(o.Members, name)
		return nil
	case AttrDeleter:
		return o.DelAttr(name)
	}
	return fmt.Errorf("'%s' object has no deletable attribute '%s'", TypeName(obj), name)
}

// Elements flattens an iterable into its items.
func Elements(v Value) ([]Value, bool) {
	switch x := v.(type) {
	case *ListValue:
		return append([]Value(nil), x.Items...), true
	case TupleValue:
		return append([]Value(nil), x...), true
	case StrValue:
		var out []Value
		for _, r := range string(x) {
			out = append(out, StrValue(string(r)))
		}
		return out, true
	case *DictValue:
		return x.Keys(), true
	case *IteratorValue:
		return x.Drain(), true
	case Iterable:
		return x.Elements(), true
	}
	return nil, false
}

func Len(v Value) (int, bool) {
	switch x := v.(type) {
	case StrValue:
		return utf8.RuneCountInString(string(x)), true
	case Lengther:
		return x.Len(), true
	}
	return 0, false
}

func TypeName(v Value) string {
	if v == nil {
		return "NULL"
	}
	if t := TypeOf(v); t != nil {
		return t.Name
	}
	return fmt.Sprintf("%T", v)
}
