package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	params := WithDefault(Params("a", "b", "*args", "c=", "**kw"), "b", IntValue(2))

	b, err := Bind(params, []Value{IntValue(1)}, nil)
	require.NoError(t, err)
	require.Equal(t, []Binding{{Name: "a", Value: IntValue(1)}}, b)

	b, err = Bind(params, []Value{IntValue(1), IntValue(5), IntValue(6)}, []Kwarg{{Name: "z", Value: IntValue(7)}})
	require.NoError(t, err)
	require.Len(t, b, 4)
	require.Equal(t, "args", b[2].Name)
	require.Equal(t, TupleValue{IntValue(6)}, b[2].Value)
	require.Equal(t, "kw", b[3].Name)

	_, err = Bind(params, nil, nil)
	require.ErrorIs(t, err, ErrUnbindable)
	_, err = Bind(params, []Value{IntValue(1)}, []Kwarg{{Name: "a", Value: IntValue(1)}})
	require.ErrorIs(t, err, ErrUnbindable)
	_, err = Bind(Params("x"), []Value{IntValue(1), IntValue(2)}, nil)
	require.ErrorIs(t, err, ErrUnbindable)
	_, err = Bind(Params("x"), nil, []Kwarg{{Name: "y", Value: IntValue(1)}})
	require.ErrorIs(t, err, ErrUnbindable)
}

func TestBindAll(t *testing.T) {
	params := WithDefault(Params("a", "b", "*args", "c=", "**kw"), "b", IntValue(2))
	vals, err := BindAll(params, []Value{IntValue(1)}, nil)
	require.NoError(t, err)
	require.Equal(t, IntValue(1), vals[0])
	require.Equal(t, IntValue(2), vals[1])
	require.Equal(t, TupleValue{}, vals[2])
	require.Equal(t, None, vals[3])
	require.Equal(t, 0, vals[4].(*DictValue).Len())
}

func TestParamsKeywordOnly(t *testing.T) {
	p := Params("self", "*", "reverse")
	require.Len(t, p, 2)
	require.False(t, p[0].KeywordOnly)
	require.True(t, p[1].KeywordOnly)

	_, err := Bind(p, []Value{None, BoolTrue}, nil)
	require.ErrorIs(t, err, ErrUnbindable)
}
