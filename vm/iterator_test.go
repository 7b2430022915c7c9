package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSliceIterator(t *testing.T) {
	iter := NewSliceIterator(ints(1, 2, 3))
	require.Equal(t, -1, iter.Index)

	var got []Value
	for iter.Next() {
		got = append(got, iter.Value())
	}
	require.Equal(t, ints(1, 2, 3), got)
	require.False(t, iter.Next())
}

func TestDictIterator(t *testing.T) {
	d := NewDict()
	d.Set(StrValue("b"), IntValue(1))
	d.Set(StrValue("a"), IntValue(2))
	it, ok := Iter(d)
	require.True(t, ok)
	require.Equal(t, []Value{StrValue("b"), StrValue("a")}, it.Drain())
}

func TestIterShares(t *testing.T) {
	it, ok := Iter(NewList(ints(1, 2, 3)))
	require.True(t, ok)
	require.True(t, it.Iter.Next())

	same, ok := Iter(it)
	require.True(t, ok)
	require.Same(t, it, same)

	rest, ok := Elements(it)
	require.True(t, ok)
	require.Equal(t, ints(2, 3), rest)
	require.Empty(t, it.Drain())

	_, ok = Iter(IntValue(1))
	require.False(t, ok)
}
