package vm

import "fmt"

type Opcode byte

const (
	NOP Opcode = iota
	// PRE-STACK ... TOS1 TOS | ARG | POST-STACK
	POP         // A | | NIL
	DUP         // A | | A A
	SWAP        // A B | | B A
	DUP2        // A B | | A B A B
	ROT3        // A B C | | C A B
	PUSH_CONST  // | const idx | C
	GETVAL      // | name idx | V
	SETVAL      // V | name idx |
	GETATTR     // A | name idx | A.name
	SETATTR     // V A | name idx | (A.name = V)
	DELATTR     // A | name idx | (del A.name)
	LOAD_METHOD // A | name idx | M A, or NULL A.name
	GETITEM     // A K | | A[K]
	SETITEM     // V A K | | (A[K] = V)
	DELITEM     // A K | | (del A[K])

	NEGATE   // A | | -A
	POSITIVE // A | | +A
	INVERT   // A | | ~A
	NOT      // A | | not A
	GET_ITER // A | | iter(A)
	FOR_ITER // IT | jump | IT next, or pops IT and jumps when exhausted

	UNPACK_SEQUENCE // A | n | A[n-1] ... A[0]

	ADD          // A B | | A + B
	SUBTRACT     // A B | | A - B
	MULTIPLY     // A B | | A * B
	DIVIDE       // A B | | A / B
	FLOOR_DIVIDE // A B | | A // B
	MODULO       // A B | | A % B
	LSHIFT       // A B | | A << B
	RSHIFT       // A B | | A >> B
	BIT_AND      // A B | | A & B
	BIT_OR       // A B | | A | B
	BIT_XOR      // A B | | A ^ B

	INPLACE_ADD          // A B | | A += B
	INPLACE_SUBTRACT     // A B | | A -= B
	INPLACE_MULTIPLY     // A B | | A *= B
	INPLACE_DIVIDE       // A B | | A /= B
	INPLACE_FLOOR_DIVIDE // A B | | A //= B
	INPLACE_MODULO       // A B | | A %= B
	INPLACE_LSHIFT       // A B | | A <<= B
	INPLACE_RSHIFT       // A B | | A >>= B
	INPLACE_AND          // A B | | A &= B
	INPLACE_OR           // A B | | A |= B
	INPLACE_XOR          // A B | | A ^= B

	COMPARE // A B | comparison | A cmp B

	JMP    // | jump | Jumps unconditionally to Arg
	JFALSE // A | jump | Jumps to Arg if A is false

	RETURN // A | | Returns A up a stack frame

	BUILD_LIST  // A B C | 3 | [A B C]
	BUILD_TUPLE // A B C | 3 | (A B C)
	BUILD_DICT  // K1 V1 K2 V2 | 2 | {K1: V1, K2: V2}
	BUILD_SLICE // START STOP STEP | 3 | slice(START, STOP, STEP)
	LIST_APPEND // L ... V | depth | L ... (L.append(V))

	BUILD_TUPLE_UNPACK_WITH_CALL // FN T1 T2 | 2 | FN (T1... T2...)

	CALL        // FN A B | 2 | FN(A, B)
	CALL_KW     // FN A B ('b',) | 2 | FN(A, b=B)
	CALL_EX     // FN ARGS [KWARGS] | flags | FN(*ARGS, **KWARGS)
	CALL_METHOD // M SELF A B | 2 | M(SELF, A, B), or NULL FN A B -> FN(A, B)

	IMPORT      // | name idx | module
	IMPORT_FROM // M | name idx | M M.name

	// LABEL only exists during compilation and is never encoded.
	LABEL
	OpcodeMax
)

// ArgKind describes how an opcode's argument is laid out after the opcode byte.
type ArgKind uint8

const (
	ArgNone   ArgKind = iota
	ArgVarint         // unsigned LEB128
	ArgJump           // 4 byte little-endian absolute offset, so labels can be patched
)

// Comparison operators carried by COMPARE.
const (
	CmpLT = iota
	CmpLE
	CmpEQ
	CmpNE
	CmpGT
	CmpGE
	CmpIn
	CmpNotIn
	CmpMax
)

var CompareNames = [CmpMax]string{"<", "<=", "==", "!=", ">", ">=", "in", "not in"}

// CALL_EX flag bit set when a keyword mapping sits above the argument tuple.
const CallExHasKwargs = 0x01

type opInfo struct {
	name string
	arg  ArgKind
}

var opTable = [OpcodeMax]opInfo{
	NOP:         {"NOP", ArgNone},
	POP:         {"POP", ArgNone},
	DUP:         {"DUP", ArgNone},
	SWAP:        {"SWAP", ArgNone},
	DUP2:        {"DUP2", ArgNone},
	ROT3:        {"ROT3", ArgNone},
	PUSH_CONST:  {"PUSH_CONST", ArgVarint},
	GETVAL:      {"GETVAL", ArgVarint},
	SETVAL:      {"SETVAL", ArgVarint},
	GETATTR:     {"GETATTR", ArgVarint},
	SETATTR:     {"SETATTR", ArgVarint},
	DELATTR:     {"DELATTR", ArgVarint},
	LOAD_METHOD: {"LOAD_METHOD", ArgVarint},
	GETITEM:     {"GETITEM", ArgNone},
	SETITEM:     {"SETITEM", ArgNone},
	DELITEM:     {"DELITEM", ArgNone},

	NEGATE:   {"NEGATE", ArgNone},
	POSITIVE: {"POSITIVE", ArgNone},
	INVERT:   {"INVERT", ArgNone},
	NOT:      {"NOT", ArgNone},
	GET_ITER: {"GET_ITER", ArgNone},
	FOR_ITER: {"FOR_ITER", ArgJump},

	UNPACK_SEQUENCE: {"UNPACK_SEQUENCE", ArgVarint},

	ADD:          {"ADD", ArgNone},
	SUBTRACT:     {"SUBTRACT", ArgNone},
	MULTIPLY:     {"MULTIPLY", ArgNone},
	DIVIDE:       {"DIVIDE", ArgNone},
	FLOOR_DIVIDE: {"FLOOR_DIVIDE", ArgNone},
	MODULO:       {"MODULO", ArgNone},
	LSHIFT:       {"LSHIFT", ArgNone},
	RSHIFT:       {"RSHIFT", ArgNone},
	BIT_AND:      {"BIT_AND", ArgNone},
	BIT_OR:       {"BIT_OR", ArgNone},
	BIT_XOR:      {"BIT_XOR", ArgNone},

	INPLACE_ADD:          {"INPLACE_ADD", ArgNone},
	INPLACE_SUBTRACT:     {"INPLACE_SUBTRACT", ArgNone},
	INPLACE_MULTIPLY:     {"INPLACE_MULTIPLY", ArgNone},
	INPLACE_DIVIDE:       {"INPLACE_DIVIDE", ArgNone},
	INPLACE_FLOOR_DIVIDE: {"INPLACE_FLOOR_DIVIDE", ArgNone},
	INPLACE_MODULO:       {"INPLACE_MODULO", ArgNone},
	INPLACE_LSHIFT:       {"INPLACE_LSHIFT", ArgNone},
	INPLACE_RSHIFT:       {"INPLACE_RSHIFT", ArgNone},
	INPLACE_AND:          {"INPLACE_AND", ArgNone},
	INPLACE_OR:           {"INPLACE_OR", ArgNone},
	INPLACE_XOR:          {"INPLACE_XOR", ArgNone},

	COMPARE: {"COMPARE", ArgVarint},

	JMP:    {"JMP", ArgJump},
	JFALSE: {"JFALSE", ArgJump},

	RETURN: {"RETURN", ArgNone},

	BUILD_LIST:  {"BUILD_LIST", ArgVarint},
	BUILD_TUPLE: {"BUILD_TUPLE", ArgVarint},
	BUILD_DICT:  {"BUILD_DICT", ArgVarint},
	BUILD_SLICE: {"BUILD_SLICE", ArgVarint},
	LIST_APPEND: {"LIST_APPEND", ArgVarint},

	BUILD_TUPLE_UNPACK_WITH_CALL: {"BUILD_TUPLE_UNPACK_WITH_CALL", ArgVarint},

	CALL:        {"CALL", ArgVarint},
	CALL_KW:     {"CALL_KW", ArgVarint},
	CALL_EX:     {"CALL_EX", ArgVarint},
	CALL_METHOD: {"CALL_METHOD", ArgVarint},

	IMPORT:      {"IMPORT", ArgVarint},
	IMPORT_FROM: {"IMPORT_FROM", ArgVarint},

	LABEL: {"LABEL", ArgJump},
}

func (o Opcode) Valid() bool {
	return o < OpcodeMax && o != LABEL
}

func (o Opcode) ArgKind() ArgKind {
	if o >= OpcodeMax {
		return ArgNone
	}
	return opTable[o].arg
}

func (o Opcode) String() string {
	if o >= OpcodeMax {
		return fmt.Sprintf("UNKNOWN_%02X", byte(o))
	}
	return opTable[o].name
}

// Binary maps an in-place opcode to its plain counterpart. Plain opcodes map to
// themselves.
func (o Opcode) Binary() Opcode {
	if o >= INPLACE_ADD && o <= INPLACE_XOR {
		return ADD + (o - INPLACE_ADD)
	}
	return o
}

func (o Opcode) IsBinary() bool {
	return o >= ADD && o <= INPLACE_XOR
}
