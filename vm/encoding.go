package vm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
)

var (
	ErrBadOpcode = errors.New("invalid opcode")
	ErrTruncated = errors.New("truncated instruction")
)

const jumpWidth = 4

// Instr is one decoded instruction. Offset is its position in the stream and
// Size its encoded length, so Offset+Size is the next instruction.
type Instr struct {
	Offset int
	Code   Opcode
	Arg    int
	Size   int
}

func (in Instr) Next() int {
	return in.Offset + in.Size
}

func (in Instr) String() string {
	if in.Code.ArgKind() == ArgNone {
		return in.Code.String()
	}
	return fmt.Sprintf("%s %d", in.Code, in.Arg)
}

// DecodeAt decodes the instruction starting at off. It does not check that off
// is an instruction boundary; callers that need that guarantee walk the stream
// with Unpack.
func DecodeAt(code []byte, off int) (Instr, error) {
	if off < 0 || off >= len(code) {
		return Instr{}, ErrEndOfCode
	}
	op := Opcode(code[off])
	if !op.Valid() {
		return Instr{}, fmt.Errorf("%w 0x%02x at offset %d", ErrBadOpcode, byte(op), off)
	}
	in := Instr{Offset: off, Code: op, Size: 1}
	switch op.ArgKind() {
	case ArgVarint:
		v, n := binary.Uvarint(code[off+1:])
		if n <= 0 {
			return Instr{}, fmt.Errorf("%w: %s at offset %d", ErrTruncated, op, off)
		}
		in.Arg = int(v)
		in.Size += n
	case ArgJump:
		if off+1+jumpWidth > len(code) {
			return Instr{}, fmt.Errorf("%w: %s at offset %d", ErrTruncated, op, off)
		}
		in.Arg = int(binary.LittleEndian.Uint32(code[off+1:]))
		in.Size += jumpWidth
	}
	return in, nil
}

// Unpack walks the stream from the first byte, yielding each instruction in
// order. Iteration stops after the first decoding error.
func Unpack(code []byte) iter.Seq2[Instr, error] {
	return func(yield func(Instr, error) bool) {
		off := 0
		for off < len(code) {
			in, err := DecodeAt(code, off)
			if err != nil {
				yield(Instr{Offset: off}, err)
				return
			}
			if !yield(in, nil) {
				return
			}
			off = in.Next()
		}
	}
}

// encodedSize is the number of bytes op takes with the given argument.
func encodedSize(op Opcode, arg int) int {
	switch op.ArgKind() {
	case ArgVarint:
		var buf [binary.MaxVarintLen64]byte
		return 1 + binary.PutUvarint(buf[:], uint64(arg))
	case ArgJump:
		return 1 + jumpWidth
	}
	return 1
}

func appendInstr(code []byte, op Opcode, arg int) []byte {
	code = append(code, byte(op))
	switch op.ArgKind() {
	case ArgVarint:
		code = binary.AppendUvarint(code, uint64(arg))
	case ArgJump:
		code = binary.LittleEndian.AppendUint32(code, uint32(arg))
	}
	return code
}
