package tracer

import (
	"github.com/timewinder-dev/apirecord/vm"
)

type category int

const (
	unaryOp category = iota
	binaryOp
	subscript
	attribute
	comparison
	callSite
	unpackCall
)

func (c category) String() string {
	switch c {
	case unaryOp:
		return "unary"
	case binaryOp:
		return "binary"
	case subscript:
		return "subscript"
	case attribute:
		return "attribute"
	case comparison:
		return "comparison"
	case callSite:
		return "call"
	case unpackCall:
		return "unpack-call"
	}
	return "unknown"
}

// capture is one operation reconstructed from the stack of an instruction
// that has not run yet.
type capture struct {
	gate   []vm.Value
	fn     vm.Value
	args   []vm.Value
	kwargs []vm.Kwarg
	// call marks captures of call instructions, whose callee frame must be
	// suppressed
	call bool
}

// rule says how to turn one instruction into captures. Operator rules read
// their operands with Top: order lists stack depths in argument order and
// gate lists argument positions that decide tracing. Call rules pop the
// shadow stack in extract instead.
type rule struct {
	category category
	op       vm.Value
	order    []int
	gate     []int
	named    bool
	extract  func(st *shadowStack, in vm.Instr) []capture
}

var rules [vm.OpcodeMax]*rule

func init() {
	for _, code := range []vm.Opcode{vm.NEGATE, vm.POSITIVE, vm.INVERT, vm.NOT} {
		op, _ := vm.UnaryOperator(code)
		rules[code] = &rule{category: unaryOp, op: op, order: []int{0}, gate: []int{0}}
	}
	for _, code := range []vm.Opcode{vm.GET_ITER, vm.UNPACK_SEQUENCE} {
		rules[code] = &rule{category: unaryOp, op: vm.BuiltinIter, order: []int{0}, gate: []int{0}}
	}
	for code := vm.ADD; code <= vm.INPLACE_XOR; code++ {
		op, ok := vm.BinaryOperator(code)
		if !ok {
			continue
		}
		rules[code] = &rule{category: binaryOp, op: op, order: []int{1, 0}, gate: []int{0, 1}}
	}

	rules[vm.GETITEM] = &rule{category: subscript, op: vm.OperatorGetItem, order: []int{1, 0}, gate: []int{0}}
	rules[vm.DELITEM] = &rule{category: subscript, op: vm.OperatorDelItem, order: []int{1, 0}, gate: []int{0}}
	// V A K
	rules[vm.SETITEM] = &rule{category: subscript, op: vm.OperatorSetItem, order: []int{1, 0, 2}, gate: []int{0}}

	rules[vm.GETATTR] = &rule{category: attribute, op: vm.BuiltinGetattr, order: []int{0}, gate: []int{0}, named: true}
	rules[vm.DELATTR] = &rule{category: attribute, op: vm.BuiltinDelattr, order: []int{0}, gate: []int{0}, named: true}
	// V A
	rules[vm.SETATTR] = &rule{category: attribute, op: vm.BuiltinSetattr, order: []int{0, 1}, gate: []int{0}, named: true}

	rules[vm.COMPARE] = &rule{category: comparison, order: []int{1, 0}, gate: []int{0, 1}}

	rules[vm.CALL] = &rule{category: callSite, extract: popCall}
	rules[vm.CALL_KW] = &rule{category: callSite, extract: popCallKw}
	rules[vm.CALL_EX] = &rule{category: callSite, extract: popCallEx}
	rules[vm.CALL_METHOD] = &rule{category: callSite, extract: popCallMethod}
	rules[vm.BUILD_TUPLE_UNPACK_WITH_CALL] = &rule{category: unpackCall, extract: popUnpackWithCall}
}

// classify reconstructs the operations performed by the instruction in,
// about to run in fn. Instructions outside the table yield nothing.
func classify(fn *vm.Function, st *shadowStack, in vm.Instr) []capture {
	if !in.Code.Valid() {
		return nil
	}
	r := rules[in.Code]
	if r == nil {
		return nil
	}
	if r.extract != nil {
		return r.extract(st, in)
	}

	op, order := r.op, r.order
	if r.category == comparison {
		b, ok := vm.CompareOperator(in.Arg)
		if !ok || b == nil {
			return nil
		}
		op = b
		if in.Arg == vm.CmpIn || in.Arg == vm.CmpNotIn {
			// recorded as contains(container, item), the callable's own
			// argument order, not the stack order (item, container)
			order = []int{0, 1}
		}
	}

	args := make([]vm.Value, 0, len(order)+1)
	for _, depth := range order {
		args = append(args, st.Top(depth))
	}
	gate := make([]vm.Value, len(r.gate))
	for i, pos := range r.gate {
		gate[i] = args[pos]
	}
	if r.named {
		if in.Arg >= len(fn.Names) {
			return nil
		}
		args = append(args[:1], append([]vm.Value{vm.StrValue(fn.Names[in.Arg])}, args[1:]...)...)
	}
	return []capture{{gate: gate, fn: op, args: args}}
}

func popCall(st *shadowStack, in vm.Instr) []capture {
	args := st.PopN(in.Arg)
	fn := st.Pop()
	return []capture{{gate: []vm.Value{fn}, fn: fn, args: args, call: true}}
}

func popCallKw(st *shadowStack, in vm.Instr) []capture {
	names, ok := st.Pop().(vm.TupleValue)
	if !ok || len(names) > in.Arg {
		return nil
	}
	vals := st.PopN(in.Arg)
	fn := st.Pop()
	npos := in.Arg - len(names)
	c := capture{gate: []vm.Value{fn}, fn: fn, args: vals[:npos], call: true}
	for i, n := range names {
		name, ok := n.(vm.StrValue)
		if !ok {
			return nil
		}
		c.kwargs = append(c.kwargs, vm.Kwarg{Name: string(name), Value: vals[npos+i]})
	}
	return []capture{c}
}

func popCallEx(st *shadowStack, in vm.Instr) []capture {
	var kw vm.Value
	if in.Arg&vm.CallExHasKwargs != 0 {
		kw = st.Pop()
	}
	args := st.Pop()
	fn := st.Pop()
	if _, ok := args.(*vm.IteratorValue); ok {
		// reading it would consume it before the call does
		return nil
	}
	items, ok := vm.Elements(args)
	if !ok {
		return nil
	}
	c := capture{gate: []vm.Value{fn}, fn: fn, args: items, call: true}
	if kw != nil {
		d, ok := kw.(*vm.DictValue)
		if !ok {
			return nil
		}
		for k, v := range d.Entries {
			name, ok := k.(vm.StrValue)
			if !ok {
				return nil
			}
			c.kwargs = append(c.kwargs, vm.Kwarg{Name: string(name), Value: v})
		}
	}
	return []capture{c}
}

func popCallMethod(st *shadowStack, in vm.Instr) []capture {
	args := st.PopN(in.Arg)
	selfOrFn := st.Pop()
	method := st.Pop()
	if method == Null {
		return []capture{{gate: []vm.Value{selfOrFn}, fn: selfOrFn, args: args, call: true}}
	}
	return []capture{{
		gate: []vm.Value{selfOrFn},
		fn:   method,
		args: append([]vm.Value{selfOrFn}, args...),
		call: true,
	}}
}

// popUnpackWithCall reports iteration over each splatted argument. The call
// itself is captured by the CALL_EX that follows.
func popUnpackWithCall(st *shadowStack, in vm.Instr) []capture {
	var out []capture
	for _, it := range st.PopN(in.Arg) {
		if _, ok := it.(*vm.IteratorValue); ok {
			continue
		}
		out = append(out, capture{gate: []vm.Value{it}, fn: vm.BuiltinIter, args: []vm.Value{it}})
	}
	return out
}
