package interp

import (
	"errors"

	"github.com/timewinder-dev/apirecord/vm"
)

// ErrNullSlot is returned for a stack slot that is empty or out of range.
var ErrNullSlot = errors.New("null stack slot")

// StackReader gives read-only access to a live frame's operand stack,
// indexed negatively from the top: At(-1) is the top of the stack.
type StackReader struct {
	frame *StackFrame
}

func NewStackReader(frame *StackFrame) StackReader {
	return StackReader{frame: frame}
}

func (r StackReader) At(i int) (vm.Value, error) {
	if i >= 0 {
		return nil, ErrNullSlot
	}
	idx := len(r.frame.Stack) + i
	if idx < 0 {
		return nil, ErrNullSlot
	}
	v := r.frame.Stack[idx]
	if v == nil {
		return nil, ErrNullSlot
	}
	return v, nil
}

// Len is the number of slots on the stack.
func (r StackReader) Len() int {
	return len(r.frame.Stack)
}
