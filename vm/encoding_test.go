package vm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodingRoundTrip(t *testing.T) {
	var code []byte
	code = appendInstr(code, PUSH_CONST, 300)
	code = appendInstr(code, GETITEM, 0)
	code = appendInstr(code, JFALSE, 0x01020304)
	code = appendInstr(code, RETURN, 0)
	require.Len(t, code, 3+1+5+1)

	var got []Instr
	for in, err := range Unpack(code) {
		require.NoError(t, err)
		got = append(got, in)
	}
	require.Equal(t, []Instr{
		{Offset: 0, Code: PUSH_CONST, Arg: 300, Size: 3},
		{Offset: 3, Code: GETITEM, Size: 1},
		{Offset: 4, Code: JFALSE, Arg: 0x01020304, Size: 5},
		{Offset: 9, Code: RETURN, Size: 1},
	}, got)
	require.Equal(t, 4, got[1].Next())
	require.Equal(t, "PUSH_CONST 300", got[0].String())
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeAt([]byte{byte(RETURN)}, 1)
	require.ErrorIs(t, err, ErrEndOfCode)

	_, err = DecodeAt([]byte{0xff}, 0)
	require.ErrorIs(t, err, ErrBadOpcode)

	_, err = DecodeAt([]byte{byte(LABEL), 0, 0, 0, 0}, 0)
	require.ErrorIs(t, err, ErrBadOpcode)

	_, err = DecodeAt([]byte{byte(JMP), 1, 2}, 0)
	require.ErrorIs(t, err, ErrTruncated)

	_, err = DecodeAt([]byte{byte(CALL), 0x80}, 0)
	require.ErrorIs(t, err, ErrTruncated)

	var last error
	for _, err := range Unpack([]byte{byte(POP), 0xfe, byte(POP)}) {
		last = err
	}
	require.ErrorIs(t, last, ErrBadOpcode)
}

func TestOpcodeTable(t *testing.T) {
	for op := Opcode(0); op < OpcodeMax; op++ {
		require.NotEmpty(t, op.String(), "opcode %d has no name", op)
	}
	require.Equal(t, ADD, INPLACE_ADD.Binary())
	require.Equal(t, BIT_XOR, INPLACE_XOR.Binary())
	require.Equal(t, GETITEM, GETITEM.Binary())
	require.True(t, INPLACE_OR.IsBinary())
	require.False(t, COMPARE.IsBinary())
	require.Equal(t, ArgJump, FOR_ITER.ArgKind())
}
