package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinaryOp(t *testing.T) {
	cases := []struct {
		op   Opcode
		a, b Value
		want Value
	}{
		{ADD, IntValue(1), IntValue(2), IntValue(3)},
		{ADD, IntValue(1), FloatValue(0.5), FloatValue(1.5)},
		{ADD, StrValue("a"), StrValue("b"), StrValue("ab")},
		{DIVIDE, IntValue(3), IntValue(2), FloatValue(1.5)},
		{FLOOR_DIVIDE, IntValue(-7), IntValue(2), IntValue(-4)},
		{MODULO, IntValue(-7), IntValue(2), IntValue(1)},
		{MODULO, IntValue(7), IntValue(-2), IntValue(-1)},
		{LSHIFT, IntValue(1), IntValue(4), IntValue(16)},
		{BIT_XOR, IntValue(6), IntValue(3), IntValue(5)},
		{MULTIPLY, StrValue("ab"), IntValue(2), StrValue("abab")},
		{MODULO, StrValue("%s-%d"), TupleValue{StrValue("x"), IntValue(2)}, StrValue("x-2")},
	}
	for _, c := range cases {
		got, err := BinaryOp(c.op, c.a, c.b)
		require.NoError(t, err, "%s %s %s", Repr(c.a), c.op, Repr(c.b))
		require.Equal(t, c.want, got, "%s %s %s", Repr(c.a), c.op, Repr(c.b))
	}

	_, err := BinaryOp(SUBTRACT, StrValue("a"), IntValue(1))
	require.ErrorIs(t, err, ErrUnsupportedOp)
	_, err = BinaryOp(DIVIDE, IntValue(1), IntValue(0))
	require.Error(t, err)
}

func TestInplaceAddMutatesList(t *testing.T) {
	l := NewList([]Value{IntValue(1)})
	got, err := BinaryOp(INPLACE_ADD, l, TupleValue{IntValue(2)})
	require.NoError(t, err)
	require.Same(t, l, got)
	require.Equal(t, []Value{IntValue(1), IntValue(2)}, l.Items)

	got, err = BinaryOp(ADD, l, NewList([]Value{IntValue(3)}))
	require.NoError(t, err)
	require.NotSame(t, l, got)
	require.Len(t, l.Items, 2)
}

func TestCompareOp(t *testing.T) {
	v, err := CompareOp(CmpLT, IntValue(1), FloatValue(1.5))
	require.NoError(t, err)
	require.Equal(t, BoolTrue, v)

	v, err = CompareOp(CmpIn, IntValue(2), NewList([]Value{IntValue(1), IntValue(2)}))
	require.NoError(t, err)
	require.Equal(t, BoolTrue, v)

	v, err = CompareOp(CmpNotIn, StrValue("z"), StrValue("abc"))
	require.NoError(t, err)
	require.Equal(t, BoolTrue, v)

	v, err = CompareOp(CmpEQ, TupleValue{IntValue(1)}, TupleValue{IntValue(1)})
	require.NoError(t, err)
	require.Equal(t, BoolTrue, v)

	_, err = CompareOp(CmpLT, StrValue("a"), IntValue(1))
	require.Error(t, err)
}

func TestItems(t *testing.T) {
	l := NewList([]Value{IntValue(1), IntValue(2), IntValue(3)})
	v, err := GetItem(l, IntValue(-1))
	require.NoError(t, err)
	require.Equal(t, IntValue(3), v)

	v, err = GetItem(l, SliceValue{Start: IntValue(1), Stop: None, Step: None})
	require.NoError(t, err)
	require.Equal(t, []Value{IntValue(2), IntValue(3)}, v.(*ListValue).Items)

	require.NoError(t, SetItem(l, IntValue(0), IntValue(9)))
	require.NoError(t, DelItem(l, IntValue(1)))
	require.Equal(t, []Value{IntValue(9), IntValue(3)}, l.Items)

	_, err = GetItem(l, IntValue(5))
	require.Error(t, err)
	_, err = GetItem(IntValue(1), IntValue(0))
	require.Error(t, err)
}

func TestAttributes(t *testing.T) {
	m := NewModule("m")
	require.NoError(t, SetAttr(m, "x", IntValue(1)))
	v, err := GetAttr(m, "x")
	require.NoError(t, err)
	require.Equal(t, IntValue(1), v)
	require.NoError(t, DelAttr(m, "x"))
	_, err = GetAttr(m, "x")
	require.Error(t, err)

	bm, err := GetAttr(NewList(nil), "append")
	require.NoError(t, err)
	require.IsType(t, &BoundMethod{}, bm)

	um, err := GetAttr(ListType, "append")
	require.NoError(t, err)
	require.IsType(t, &Builtin{}, um)
}

func TestNamespaces(t *testing.T) {
	p, err := CompileLiteral("def f():\n    pass\n")
	require.NoError(t, err)
	f, _ := p.Resolve("f")

	cases := []struct {
		v    Value
		ns   string
		name string
	}{
		{f, MainModule, "__main__.f"},
		{Universe["len"], "builtins", "builtins.len"},
		{ListType, "builtins", "builtins.list"},
		{OperatorGetItem, "operator", "operator.getitem"},
		{&BoundMethod{Receiver: NewList(nil), Method: ListType.Methods["append"]}, "builtins", "builtins.list.append"},
	}
	for _, c := range cases {
		ns, err := Namespace(c.v)
		require.NoError(t, err)
		require.Equal(t, c.ns, ns)
		name, err := QualifiedName(c.v)
		require.NoError(t, err)
		require.Equal(t, c.name, name)
	}

	ns, err := Namespace(IntValue(1))
	require.NoError(t, err)
	require.Equal(t, "builtins", ns)

	_, err = Namespace(nil)
	require.ErrorIs(t, err, ErrNoNamespace)
	_, err = QualifiedName(IntValue(1))
	require.ErrorIs(t, err, ErrNoNamespace)
}

func TestSignature(t *testing.T) {
	params, ok := Signature(Universe["len"])
	require.True(t, ok)
	require.Equal(t, "obj", params[0].Name)

	_, ok = Signature(BuiltinGetattr)
	require.False(t, ok)
	_, ok = Signature(IntValue(1))
	require.False(t, ok)
}

func TestOperatorLookup(t *testing.T) {
	b, ok := BinaryOperator(INPLACE_ADD)
	require.True(t, ok)
	require.Equal(t, "iadd", b.Name)

	b, ok = UnaryOperator(NOT)
	require.True(t, ok)
	require.Equal(t, "not_", b.Name)

	b, ok = CompareOperator(CmpNotIn)
	require.True(t, ok)
	require.Same(t, OperatorContains, b)

	_, ok = BinaryOperator(GETITEM)
	require.False(t, ok)
	_, ok = CompareOperator(CmpMax)
	require.False(t, ok)

	v, err := OperatorContains.Call([]Value{NewList([]Value{IntValue(1)}), IntValue(1)}, nil)
	require.NoError(t, err)
	require.Equal(t, BoolTrue, v)

	for name, m := range OperatorModule.Members {
		require.Equal(t, name, m.(*Builtin).Name)
	}
}
