package vm

import (
	"strings"
)

type Value interface {
	AsBool() bool
	// Cmp orders two values. ok is false when the values are not comparable.
	Cmp(other Value) (int, bool)
}

// Object is implemented by native values that carry their own type, such as
// the arrays provided by the stdlib packages.
type Object interface {
	Value
	Type() *Type
}

// Optional protocols a native Object may implement. A nil Value with a nil
// error from Attr means the attribute does not exist and method lookup
// continues on the type.
type (
	Attributer interface {
		Attr(name string) (Value, error)
	}
	AttrSetter interface {
		SetAttr(name string, v Value) error
	}
	AttrDeleter interface {
		DelAttr(name string) error
	}
	Indexer interface {
		Index(key Value) (Value, error)
	}
	IndexSetter interface {
		SetIndex(key, v Value) error
	}
	IndexDeleter interface {
		DelIndex(key Value) error
	}
	// BinaryOperand handles arithmetic where the object is on either side.
	// Returning ErrUnsupportedOp lets the other operand or the defaults try.
	BinaryOperand interface {
		Binary(op Opcode, other Value, left bool) (Value, error)
	}
	UnaryOperand interface {
		Unary(op Opcode) (Value, error)
	}
	Comparer interface {
		Compare(cmp int, other Value, left bool) (Value, error)
	}
	Container interface {
		Contains(item Value) (bool, error)
	}
	Iterable interface {
		Elements() []Value
	}
	Lengther interface {
		Len() int
	}
)

type NoneValue struct{}

var None = NoneValue{}

func (NoneValue) AsBool() bool { return false }

func (NoneValue) Cmp(other Value) (int, bool) {
	if _, ok := other.(NoneValue); ok {
		return 0, true
	}
	return 0, false
}

type BoolValue bool

var (
	BoolTrue  = BoolValue(true)
	BoolFalse = BoolValue(false)
)

func (b BoolValue) AsBool() bool {
	return bool(b)
}

func (b BoolValue) Cmp(other Value) (int, bool) {
	switch o := other.(type) {
	case BoolValue:
		return cmpInt(b.asInt(), o.asInt()), true
	case IntValue:
		return cmpInt(b.asInt(), int(o)), true
	case FloatValue:
		return cmpFloat(float64(b.asInt()), float64(o)), true
	}
	return 0, false
}

func (b BoolValue) asInt() int {
	if b {
		return 1
	}
	return 0
}

type IntValue int

func (i IntValue) AsBool() bool {
	return i != 0
}

func (i IntValue) Cmp(other Value) (int, bool) {
	switch o := other.(type) {
	case IntValue:
		return cmpInt(int(i), int(o)), true
	case FloatValue:
		return cmpFloat(float64(i), float64(o)), true
	case BoolValue:
		return cmpInt(int(i), o.asInt()), true
	}
	return 0, false
}

type FloatValue float64

func (f FloatValue) AsBool() bool {
	return f != 0
}

func (f FloatValue) Cmp(other Value) (int, bool) {
	switch o := other.(type) {
	case FloatValue:
		return cmpFloat(float64(f), float64(o)), true
	case IntValue:
		return cmpFloat(float64(f), float64(o)), true
	case BoolValue:
		return cmpFloat(float64(f), float64(o.asInt())), true
	}
	return 0, false
}

type StrValue string

func (s StrValue) AsBool() bool {
	return s != ""
}

func (s StrValue) Cmp(other Value) (int, bool) {
	if o, ok := other.(StrValue); ok {
		return strings.Compare(string(s), string(o)), true
	}
	return 0, false
}

// ListValue is mutable and shared by reference.
type ListValue struct {
	Items []Value
}

func NewList(items []Value) *ListValue {
	return &ListValue{Items: items}
}

func (l *ListValue) AsBool() bool { return len(l.Items) != 0 }
func (l *ListValue) Len() int     { return len(l.Items) }

func (l *ListValue) Cmp(other Value) (int, bool) {
	if o, ok := other.(*ListValue); ok {
		return cmpSeq(l.Items, o.Items)
	}
	return 0, false
}

type TupleValue []Value

func (t TupleValue) AsBool() bool { return len(t) != 0 }
func (t TupleValue) Len() int     { return len(t) }

func (t TupleValue) Cmp(other Value) (int, bool) {
	if o, ok := other.(TupleValue); ok {
		return cmpSeq(t, o)
	}
	return 0, false
}

// DictValue keeps insertion order. Lookups are linear, which is fine for the
// small mappings scripts build.
type DictValue struct {
	keys   []Value
	values []Value
}

func NewDict() *DictValue {
	return &DictValue{}
}

func (d *DictValue) AsBool() bool { return len(d.keys) != 0 }
func (d *DictValue) Len() int     { return len(d.keys) }

func (d *DictValue) Cmp(other Value) (int, bool) {
	o, ok := other.(*DictValue)
	if !ok || o.Len() != d.Len() {
		return 0, false
	}
	for i, k := range d.keys {
		v, ok := o.Get(k)
		if !ok || !Equal(v, d.values[i]) {
			return 0, false
		}
	}
	return 0, true
}

func (d *DictValue) find(k Value) int {
	for i, key := range d.keys {
		if Equal(key, k) {
			return i
		}
	}
	return -1
}

func (d *DictValue) Get(k Value) (Value, bool) {
	if i := d.find(k); i >= 0 {
		return d.values[i], true
	}
	return nil, false
}

func (d *DictValue) Set(k, v Value) {
	if i := d.find(k); i >= 0 {
		d.values[i] = v
		return
	}
	d.keys = append(d.keys, k)
	d.values = append(d.values, v)
}

func (d *DictValue) Delete(k Value) bool {
	i := d.find(k)
	if i < 0 {
		return false
	}
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
	d.values = append(d.values[:i], d.values[i+1:]...)
	return true
}

func (d *DictValue) Keys() []Value {
	return append([]Value(nil), d.keys...)
}

func (d *DictValue) Values() []Value {
	return append([]Value(nil), d.values...)
}

func (d *DictValue) Entries(yield func(Value, Value) bool) {
	for i, k := range d.keys {
		if !yield(k, d.values[i]) {
			return
		}
	}
}

type SliceValue struct {
	Start Value
	Stop  Value
	Step  Value
}

func (SliceValue) AsBool() bool            { return true }
func (SliceValue) Cmp(Value) (int, bool) { return 0, false }

type Module struct {
	Name    string
	Members map[string]Value
}

func NewModule(name string) *Module {
	return &Module{Name: name, Members: make(map[string]Value)}
}

func (*Module) AsBool() bool { return true }

func (m *Module) Cmp(other Value) (int, bool) {
	return 0, other == Value(m)
}

// BoundMethod is a native method attached to its receiver by attribute access.
type BoundMethod struct {
	Receiver Value
	Method   *Builtin
}

func (*BoundMethod) AsBool() bool          { return true }
func (*BoundMethod) Cmp(Value) (int, bool) { return 0, false }

// Equal reports whether two values compare equal.
func Equal(a, b Value) bool {
	c, ok := a.Cmp(b)
	return ok && c == 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpSeq(a, b []Value) (int, bool) {
	for i := 0; i < len(a) && i < len(b); i++ {
		c, ok := a[i].Cmp(b[i])
		if !ok {
			return 0, false
		}
		if c != 0 {
			return c, true
		}
	}
	return cmpInt(len(a), len(b)), true
}
