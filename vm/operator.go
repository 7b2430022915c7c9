package vm

// The operator module exposes every operation the interpreter performs on
// operands as a plain callable. The tracer reports instructions as calls to
// these, and scripts may load and call them directly.

var (
	binaryOperators  = map[Opcode]*Builtin{}
	unaryOperators   = map[Opcode]*Builtin{}
	compareOperators [CmpMax]*Builtin

	OperatorGetItem = operatorFunc("getitem", Params("a", "b"), func(v []Value) (Value, error) {
		return GetItem(v[0], v[1])
	})
	OperatorSetItem = operatorFunc("setitem", Params("a", "b", "c"), func(v []Value) (Value, error) {
		return None, SetItem(v[0], v[1], v[2])
	})
	OperatorDelItem = operatorFunc("delitem", Params("a", "b"), func(v []Value) (Value, error) {
		return None, DelItem(v[0], v[1])
	})
	OperatorContains = operatorFunc("contains", Params("a", "b"), func(v []Value) (Value, error) {
		found, err := Contains(v[0], v[1])
		return BoolValue(found), err
	})

	OperatorModule = &Module{Name: "operator", Members: map[string]Value{}}
)

var binaryOperatorNames = map[Opcode]string{
	ADD:                  "add",
	SUBTRACT:             "sub",
	MULTIPLY:             "mul",
	DIVIDE:               "truediv",
	FLOOR_DIVIDE:         "floordiv",
	MODULO:               "mod",
	LSHIFT:               "lshift",
	RSHIFT:               "rshift",
	BIT_AND:              "and_",
	BIT_OR:               "or_",
	BIT_XOR:              "xor",
	INPLACE_ADD:          "iadd",
	INPLACE_SUBTRACT:     "isub",
	INPLACE_MULTIPLY:     "imul",
	INPLACE_DIVIDE:       "itruediv",
	INPLACE_FLOOR_DIVIDE: "ifloordiv",
	INPLACE_MODULO:       "imod",
	INPLACE_LSHIFT:       "ilshift",
	INPLACE_RSHIFT:       "irshift",
	INPLACE_AND:          "iand",
	INPLACE_OR:           "ior",
	INPLACE_XOR:          "ixor",
}

var unaryOperatorNames = map[Opcode]string{
	NEGATE:   "neg",
	POSITIVE: "pos",
	INVERT:   "invert",
	NOT:      "not_",
}

var compareOperatorNames = [CmpMax]string{
	CmpLT: "lt",
	CmpLE: "le",
	CmpEQ: "eq",
	CmpNE: "ne",
	CmpGT: "gt",
	CmpGE: "ge",
}

func operatorFunc(name string, params []FunctionParam, fn func(args []Value) (Value, error)) *Builtin {
	return &Builtin{
		Module: "operator",
		Name:   name,
		Params: params,
		Fn: func(args []Value, kwargs []Kwarg) (Value, error) {
			vals, err := bindNative(name, params, args, kwargs)
			if err != nil {
				return nil, err
			}
			return fn(vals)
		},
	}
}

func init() {
	for op, name := range binaryOperatorNames {
		binaryOperators[op] = operatorFunc(name, Params("a", "b"), func(v []Value) (Value, error) {
			return BinaryOp(op, v[0], v[1])
		})
	}
	for op, name := range unaryOperatorNames {
		unaryOperators[op] = operatorFunc(name, Params("a"), func(v []Value) (Value, error) {
			return UnaryOp(op, v[0])
		})
	}
	for cmp, name := range compareOperatorNames {
		if name == "" {
			continue
		}
		compareOperators[cmp] = operatorFunc(name, Params("a", "b"), func(v []Value) (Value, error) {
			return CompareOp(cmp, v[0], v[1])
		})
	}
	compareOperators[CmpIn] = OperatorContains
	compareOperators[CmpNotIn] = OperatorContains

	for _, m := range []map[Opcode]*Builtin{binaryOperators, unaryOperators} {
		for _, b := range m {
			OperatorModule.Members[b.Name] = b
		}
	}
	for _, b := range compareOperators {
		OperatorModule.Members[b.Name] = b
	}
	for _, b := range []*Builtin{OperatorGetItem, OperatorSetItem, OperatorDelItem} {
		OperatorModule.Members[b.Name] = b
	}
}

// BinaryOperator returns the callable equivalent of a binary or in-place
// arithmetic opcode.
func BinaryOperator(op Opcode) (*Builtin, bool) {
	b, ok := binaryOperators[op]
	return b, ok
}

// UnaryOperator returns the callable equivalent of a unary opcode.
func UnaryOperator(op Opcode) (*Builtin, bool) {
	b, ok := unaryOperators[op]
	return b, ok
}

// CompareOperator returns the callable for a comparison code. Both membership
// tests map to contains.
func CompareOperator(cmp int) (*Builtin, bool) {
	if cmp < 0 || cmp >= CmpMax {
		return nil, false
	}
	return compareOperators[cmp], true
}
