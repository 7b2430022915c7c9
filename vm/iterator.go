package vm

// Iterator walks a sequence one value at a time.
type Iterator interface {
	Next() bool
	Value() Value
}

// SliceIterator iterates over a snapshot of a sequence's items.
type SliceIterator struct {
	Values []Value
	Index  int // -1 before the first Next
}

func NewSliceIterator(values []Value) *SliceIterator {
	return &SliceIterator{Values: values, Index: -1}
}

func (s *SliceIterator) Next() bool {
	s.Index++
	return s.Index < len(s.Values)
}

func (s *SliceIterator) Value() Value {
	return s.Values[s.Index]
}

// DictIterator yields the keys of a dict in insertion order.
type DictIterator struct {
	Keys  []Value
	Index int
}

func NewDictIterator(d *DictValue) *DictIterator {
	return &DictIterator{Keys: d.Keys(), Index: -1}
}

func (d *DictIterator) Next() bool {
	d.Index++
	return d.Index < len(d.Keys)
}

func (d *DictIterator) Value() Value {
	return d.Keys[d.Index]
}

// IteratorValue is what GET_ITER leaves on the stack for FOR_ITER.
type IteratorValue struct {
	Iter Iterator
}

func (*IteratorValue) AsBool() bool          { return true }
func (*IteratorValue) Cmp(Value) (int, bool) { return 0, false }

// Drain consumes and returns everything the iterator has left.
func (it *IteratorValue) Drain() []Value {
	var out []Value
	for it.Iter.Next() {
		out = append(out, it.Iter.Value())
	}
	return out
}

// Iter starts iterating over v.
func Iter(v Value) (*IteratorValue, bool) {
	switch x := v.(type) {
	case *IteratorValue:
		return x, true
	case *DictValue:
		return &IteratorValue{Iter: NewDictIterator(x)}, true
	}
	items, ok := Elements(v)
	if !ok {
		return nil, false
	}
	return &IteratorValue{Iter: NewSliceIterator(items)}, true
}
