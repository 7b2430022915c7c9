// Package stdlib provides the native modules scripts can load.
package stdlib

import (
	"errors"
	"fmt"
	"strings"

	"github.com/timewinder-dev/apirecord/vm"
)

// Element types an NDArray can hold.
const (
	Bool    = "bool"
	Int64   = "int64"
	Float64 = "float64"
)

var dtypeRank = map[string]int{Bool: 0, Int64: 1, Float64: 2}

func promote(a, b string) string {
	if dtypeRank[a] >= dtypeRank[b] {
		return a
	}
	return b
}

// NDArray is a dense n-dimensional array stored in row-major order.
type NDArray struct {
	shape []int
	data  []float64
	dtype string
}

var NDArrayType = &vm.Type{Module: "array", Name: "ndarray"}

func NewNDArray(shape []int, dtype string) *NDArray {
	return &NDArray{
		shape: append([]int(nil), shape...),
		data:  make([]float64, product(shape)),
		dtype: dtype,
	}
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func strides(shape []int) []int {
	out := make([]int, len(shape))
	n := 1
	for i := len(shape) - 1; i >= 0; i-- {
		out[i] = n
		n *= shape[i]
	}
	return out
}

func (a *NDArray) Shape() []int  { return append([]int(nil), a.shape...) }
func (a *NDArray) DType() string { return a.dtype }
func (a *NDArray) Size() int     { return len(a.data) }
func (a *NDArray) NDim() int     { return len(a.shape) }

func (a *NDArray) Type() *vm.Type { return NDArrayType }

func (a *NDArray) AsBool() bool {
	if len(a.data) == 1 {
		return a.data[0] != 0
	}
	return len(a.data) != 0
}

func (a *NDArray) Cmp(other vm.Value) (int, bool) {
	return 0, other == vm.Value(a)
}

func (a *NDArray) Len() int {
	if len(a.shape) == 0 {
		return 0
	}
	return a.shape[0]
}

// Item returns the flat element i as a script value.
func (a *NDArray) Item(i int) vm.Value {
	return scalarValue(a.data[i], a.dtype)
}

func scalarValue(x float64, dtype string) vm.Value {
	switch dtype {
	case Bool:
		return vm.BoolValue(x != 0)
	case Int64:
		return vm.IntValue(int(x))
	}
	return vm.FloatValue(x)
}

func fromScalar(v vm.Value) (float64, string, bool) {
	switch x := v.(type) {
	case vm.BoolValue:
		if x {
			return 1, Bool, true
		}
		return 0, Bool, true
	case vm.IntValue:
		return float64(x), Int64, true
	case vm.FloatValue:
		return float64(x), Float64, true
	}
	return 0, "", false
}

// AsArray converts arrays, scalars and nested sequences of numbers.
func AsArray(v vm.Value) (*NDArray, error) {
	if a, ok := v.(*NDArray); ok {
		return a, nil
	}
	if x, dt, ok := fromScalar(v); ok {
		return &NDArray{data: []float64{x}, dtype: dt}, nil
	}
	switch v.(type) {
	case *vm.ListValue, vm.TupleValue:
	default:
		return nil, fmt.Errorf("%w: cannot convert %s to an array", vm.ErrUnsupportedOp, vm.TypeName(v))
	}
	items, _ := vm.Elements(v)
	if len(items) == 0 {
		return NewNDArray([]int{0}, Float64), nil
	}
	var sub []int
	dtype := Bool
	var data []float64
	for i, it := range items {
		el, err := AsArray(it)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			sub = el.shape
		} else if !sameShape(sub, el.shape) {
			return nil, errors.New("setting an array element with a sequence: inhomogeneous shape")
		}
		dtype = promote(dtype, el.dtype)
		data = append(data, el.data...)
	}
	return &NDArray{shape: append([]int{len(items)}, sub...), data: data, dtype: dtype}, nil
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (a *NDArray) Copy() *NDArray {
	return &NDArray{
		shape: append([]int(nil), a.shape...),
		data:  append([]float64(nil), a.data...),
		dtype: a.dtype,
	}
}

// unwrap turns a zero-dimensional result back into a plain scalar.
func unwrap(a *NDArray) vm.Value {
	if len(a.shape) == 0 {
		return a.Item(0)
	}
	return a
}

// ToList converts to nested lists of scalars.
func (a *NDArray) ToList() vm.Value {
	if len(a.shape) == 0 {
		return a.Item(0)
	}
	rows := a.Elements()
	out := make([]vm.Value, len(rows))
	for i, r := range rows {
		if sub, ok := r.(*NDArray); ok {
			out[i] = sub.ToList()
		} else {
			out[i] = r
		}
	}
	return vm.NewList(out)
}

// Elements yields scalars for a 1-d array and rows otherwise.
func (a *NDArray) Elements() []vm.Value {
	if len(a.shape) == 0 {
		return nil
	}
	out := make([]vm.Value, a.shape[0])
	for i := range out {
		v, _ := a.Index(vm.IntValue(i))
		out[i] = v
	}
	return out
}

func (a *NDArray) Contains(item vm.Value) (bool, error) {
	x, _, ok := fromScalar(item)
	if !ok {
		return false, nil
	}
	for _, d := range a.data {
		if d == x {
			return true, nil
		}
	}
	return false, nil
}

func (a *NDArray) String() string {
	var b strings.Builder
	b.WriteString("array(")
	a.format(&b, 0, 0)
	b.WriteString(")")
	return b.String()
}

func (a *NDArray) format(b *strings.Builder, dim, off int) {
	if len(a.shape) == 0 {
		b.WriteString(vm.Repr(a.Item(0)))
		return
	}
	st := strides(a.shape)
	b.WriteString("[")
	for i := 0; i < a.shape[dim]; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		if dim == len(a.shape)-1 {
			b.WriteString(vm.Repr(a.Item(off + i)))
		} else {
			a.format(b, dim+1, off+i*st[dim])
		}
	}
	b.WriteString("]")
}

func (a *NDArray) Attr(name string) (vm.Value, error) {
	switch name {
	case "shape":
		return shapeTuple(a.shape), nil
	case "ndim":
		return vm.IntValue(len(a.shape)), nil
	case "size":
		return vm.IntValue(len(a.data)), nil
	case "dtype":
		return vm.StrValue(a.dtype), nil
	case "T":
		return a.Transpose(), nil
	}
	return nil, nil
}

func (a *NDArray) SetAttr(name string, v vm.Value) error {
	if name != "shape" {
		return fmt.Errorf("attribute '%s' of 'ndarray' objects is not writable", name)
	}
	shape, err := a.resolveShape(v)
	if err != nil {
		return err
	}
	a.shape = shape
	return nil
}

func shapeTuple(shape []int) vm.TupleValue {
	out := make(vm.TupleValue, len(shape))
	for i, s := range shape {
		out[i] = vm.IntValue(s)
	}
	return out
}

// ParseShape accepts an int or a sequence of ints.
func ParseShape(v vm.Value) ([]int, error) {
	if n, ok := v.(vm.IntValue); ok {
		return []int{int(n)}, nil
	}
	items, ok := vm.Elements(v)
	if !ok {
		return nil, fmt.Errorf("'%s' object cannot be interpreted as a shape", vm.TypeName(v))
	}
	shape := make([]int, len(items))
	for i, it := range items {
		n, ok := it.(vm.IntValue)
		if !ok {
			return nil, fmt.Errorf("'%s' object cannot be interpreted as an integer", vm.TypeName(it))
		}
		shape[i] = int(n)
	}
	return shape, nil
}

// resolveShape fills in a single -1 dimension and checks the size matches.
func (a *NDArray) resolveShape(v vm.Value) ([]int, error) {
	shape, err := ParseShape(v)
	if err != nil {
		return nil, err
	}
	unknown := -1
	known := 1
	for i, s := range shape {
		if s == -1 {
			if unknown >= 0 {
				return nil, errors.New("can only specify one unknown dimension")
			}
			unknown = i
			continue
		}
		known *= s
	}
	if unknown >= 0 && known != 0 {
		shape[unknown] = len(a.data) / known
	}
	if product(shape) != len(a.data) {
		return nil, fmt.Errorf("cannot reshape array of size %d into shape %s", len(a.data), vm.Repr(shapeTuple(shape)))
	}
	return shape, nil
}

func (a *NDArray) Transpose() *NDArray {
	if len(a.shape) < 2 {
		return a.Copy()
	}
	n := len(a.shape)
	outShape := make([]int, n)
	for i := range a.shape {
		outShape[i] = a.shape[n-1-i]
	}
	out := NewNDArray(outShape, a.dtype)
	inSt := strides(a.shape)
	outSt := strides(outShape)
	for k := range a.data {
		rem := k
		dst := 0
		for d := 0; d < n; d++ {
			idx := rem / inSt[d]
			rem %= inSt[d]
			dst += idx * outSt[n-1-d]
		}
		out.data[dst] = a.data[k]
	}
	return out
}

// selection resolves an index expression to flat positions and the shape of
// the selected block.
func (a *NDArray) selection(key vm.Value) ([]int, []int, error) {
	if len(a.shape) == 0 {
		return nil, nil, errors.New("too many indices for array: array is 0-dimensional")
	}
	st := strides(a.shape)
	rowSize := st[0]
	rows := func(idx []int) ([]int, []int) {
		var pos []int
		for _, r := range idx {
			for j := 0; j < rowSize; j++ {
				pos = append(pos, r*rowSize+j)
			}
		}
		return pos, append([]int{len(idx)}, a.shape[1:]...)
	}
	switch k := key.(type) {
	case vm.IntValue:
		r, err := axisIndex(int(k), a.shape[0])
		if err != nil {
			return nil, nil, err
		}
		pos, _ := rows([]int{r})
		return pos, append([]int(nil), a.shape[1:]...), nil
	case vm.SliceValue:
		idx, err := vm.SliceIndices(k, a.shape[0])
		if err != nil {
			return nil, nil, err
		}
		pos, shape := rows(idx)
		return pos, shape, nil
	case vm.TupleValue:
		if len(k) > len(a.shape) {
			return nil, nil, fmt.Errorf("too many indices for array: array is %d-dimensional, but %d were indexed", len(a.shape), len(k))
		}
		off := 0
		for d, x := range k {
			n, ok := x.(vm.IntValue)
			if !ok {
				return nil, nil, fmt.Errorf("only integers are supported in index tuples, got %s", vm.TypeName(x))
			}
			i, err := axisIndex(int(n), a.shape[d])
			if err != nil {
				return nil, nil, err
			}
			off += i * st[d]
		}
		block := 1
		if len(k) > 0 {
			block = st[len(k)-1]
		}
		pos := make([]int, block)
		for j := range pos {
			pos[j] = off + j
		}
		return pos, append([]int(nil), a.shape[len(k):]...), nil
	case *NDArray:
		if k.dtype == Bool {
			if !sameShape(k.shape, a.shape) {
				return nil, nil, errors.New("boolean index did not match indexed array")
			}
			var pos []int
			for i, m := range k.data {
				if m != 0 {
					pos = append(pos, i)
				}
			}
			return pos, []int{len(pos)}, nil
		}
		return a.take(k.ToList())
	case *vm.ListValue:
		return a.take(k)
	}
	return nil, nil, fmt.Errorf("only integers, slices, tuples and arrays are valid indices, got %s", vm.TypeName(key))
}

func (a *NDArray) take(list vm.Value) ([]int, []int, error) {
	items, _ := vm.Elements(list)
	idx := make([]int, len(items))
	for i, it := range items {
		n, ok := it.(vm.IntValue)
		if !ok {
			return nil, nil, fmt.Errorf("arrays used as indices must be of integer type, got %s", vm.TypeName(it))
		}
		r, err := axisIndex(int(n), a.shape[0])
		if err != nil {
			return nil, nil, err
		}
		idx[i] = r
	}
	rowSize := strides(a.shape)[0]
	var pos []int
	for _, r := range idx {
		for j := 0; j < rowSize; j++ {
			pos = append(pos, r*rowSize+j)
		}
	}
	return pos, append([]int{len(idx)}, a.shape[1:]...), nil
}

func axisIndex(i, n int) (int, error) {
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %d is out of bounds for axis with size %d", i, n)
	}
	return i, nil
}

func (a *NDArray) Index(key vm.Value) (vm.Value, error) {
	pos, shape, err := a.selection(key)
	if err != nil {
		return nil, err
	}
	out := NewNDArray(shape, a.dtype)
	for i, p := range pos {
		out.data[i] = a.data[p]
	}
	return unwrap(out), nil
}

func (a *NDArray) SetIndex(key, v vm.Value) error {
	pos, _, err := a.selection(key)
	if err != nil {
		return err
	}
	src, err := AsArray(v)
	if err != nil {
		return err
	}
	if dtypeRank[src.dtype] > dtypeRank[a.dtype] && a.dtype != Float64 {
		return fmt.Errorf("cannot assign %s values into a %s array", src.dtype, a.dtype)
	}
	switch len(src.data) {
	case 1:
		for _, p := range pos {
			a.data[p] = src.data[0]
		}
	case len(pos):
		for i, p := range pos {
			a.data[p] = src.data[i]
		}
	default:
		return fmt.Errorf("could not broadcast %d values into %d positions", len(src.data), len(pos))
	}
	return nil
}

func broadcastShapes(a, b []int) ([]int, error) {
	n := max(len(a), len(b))
	out := make([]int, n)
	for i := 0; i < n; i++ {
		da, db := 1, 1
		if ai := len(a) - n + i; ai >= 0 {
			da = a[ai]
		}
		if bi := len(b) - n + i; bi >= 0 {
			db = b[bi]
		}
		switch {
		case da == db, db == 1:
			out[i] = da
		case da == 1:
			out[i] = db
		default:
			return nil, fmt.Errorf("operands could not be broadcast together with shapes %s %s", vm.Repr(shapeTuple(a)), vm.Repr(shapeTuple(b)))
		}
	}
	return out, nil
}

// broadcastIndex maps flat index k of the broadcast result back into a.
func (a *NDArray) broadcastIndex(outShape, outStrides []int, k int) int {
	st := strides(a.shape)
	off := 0
	shift := len(outShape) - len(a.shape)
	for d := range outShape {
		idx := k / outStrides[d]
		k %= outStrides[d]
		ad := d - shift
		if ad < 0 || a.shape[ad] == 1 {
			continue
		}
		off += idx * st[ad]
	}
	return off
}

// elementwise applies f over the broadcast of x and y.
func elementwise(x, y *NDArray, dtype string, f func(a, b vm.Value) (vm.Value, error)) (*NDArray, error) {
	shape, err := broadcastShapes(x.shape, y.shape)
	if err != nil {
		return nil, err
	}
	out := NewNDArray(shape, dtype)
	st := strides(shape)
	for k := range out.data {
		av := arithValue(x.Item(x.broadcastIndex(shape, st, k)))
		bv := arithValue(y.Item(y.broadcastIndex(shape, st, k)))
		r, err := f(av, bv)
		if err != nil {
			return nil, err
		}
		out.data[k], _, _ = fromScalar(r)
	}
	return out, nil
}

// arithValue treats booleans as integers.
func arithValue(v vm.Value) vm.Value {
	if b, ok := v.(vm.BoolValue); ok {
		if b {
			return vm.IntValue(1)
		}
		return vm.IntValue(0)
	}
	return v
}

func binaryDType(op vm.Opcode, x, y string) (string, error) {
	dt := promote(x, y)
	switch op {
	case vm.DIVIDE:
		return Float64, nil
	case vm.LSHIFT, vm.RSHIFT, vm.BIT_AND, vm.BIT_OR, vm.BIT_XOR:
		if dt == Float64 {
			return "", fmt.Errorf("%w: bitwise %s not supported for float arrays", vm.ErrUnsupportedOp, op)
		}
		return dt, nil
	}
	if dt == Bool {
		return Int64, nil
	}
	return dt, nil
}

// BinaryArrays applies a plain arithmetic opcode elementwise.
func BinaryArrays(op vm.Opcode, x, y *NDArray) (*NDArray, error) {
	plain := op.Binary()
	dt, err := binaryDType(plain, x.dtype, y.dtype)
	if err != nil {
		return nil, err
	}
	return elementwise(x, y, dt, func(a, b vm.Value) (vm.Value, error) {
		return vm.BinaryOp(plain, a, b)
	})
}

func (a *NDArray) Binary(op vm.Opcode, other vm.Value, left bool) (vm.Value, error) {
	o, err := AsArray(other)
	if err != nil {
		return nil, err
	}
	x, y := a, o
	if !left {
		x, y = o, a
	}
	out, err := BinaryArrays(op, x, y)
	if err != nil {
		return nil, err
	}
	if op != op.Binary() && left {
		if !sameShape(out.shape, a.shape) {
			return nil, fmt.Errorf("non-broadcastable output operand with shape %s", vm.Repr(shapeTuple(a.shape)))
		}
		if dtypeRank[out.dtype] > dtypeRank[a.dtype] {
			return nil, fmt.Errorf("cannot cast %s output to %s in place", out.dtype, a.dtype)
		}
		copy(a.data, out.data)
		return a, nil
	}
	return unwrap(out), nil
}

func (a *NDArray) Unary(op vm.Opcode) (vm.Value, error) {
	out := a.Copy()
	for i, x := range out.data {
		switch op {
		case vm.NEGATE:
			if a.dtype == Bool {
				return nil, fmt.Errorf("%w: negative of a boolean array", vm.ErrUnsupportedOp)
			}
			out.data[i] = -x
		case vm.POSITIVE:
		case vm.INVERT:
			switch a.dtype {
			case Bool:
				out.data[i] = 1 - x
			case Int64:
				out.data[i] = float64(^int(x))
			default:
				return nil, fmt.Errorf("%w: invert of a float array", vm.ErrUnsupportedOp)
			}
		default:
			return nil, fmt.Errorf("%w: %s", vm.ErrUnsupportedOp, op)
		}
	}
	return out, nil
}

func (a *NDArray) Compare(cmp int, other vm.Value, left bool) (vm.Value, error) {
	if cmp == vm.CmpIn || cmp == vm.CmpNotIn {
		return nil, vm.ErrUnsupportedOp
	}
	o, err := AsArray(other)
	if err != nil {
		return nil, err
	}
	x, y := a, o
	if !left {
		x, y = o, a
	}
	out, err := elementwise(x, y, Bool, func(p, q vm.Value) (vm.Value, error) {
		return vm.CompareOp(cmp, p, q)
	})
	if err != nil {
		return nil, err
	}
	return unwrap(out), nil
}
