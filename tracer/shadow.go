package tracer

import (
	"github.com/timewinder-dev/apirecord/interp"
	"github.com/timewinder-dev/apirecord/vm"
)

type nullValue struct{}

func (nullValue) AsBool() bool { return false }

func (nullValue) Cmp(other vm.Value) (int, bool) {
	_, ok := other.(nullValue)
	return 0, ok
}

// Null stands in for an empty stack slot, such as the missing method slot
// left by LOAD_METHOD for a plain attribute.
var Null vm.Value = nullValue{}

// shadowStack pops values off a frame's operand stack without touching it.
// Only its cursor moves; the instruction being inspected has not run yet.
type shadowStack struct {
	r      interp.StackReader
	cursor int
}

func newShadowStack(frame *interp.StackFrame) *shadowStack {
	return &shadowStack{r: interp.NewStackReader(frame)}
}

func (s *shadowStack) at(i int) vm.Value {
	v, err := s.r.At(i)
	if err != nil {
		return Null
	}
	return v
}

// Top reads the k-th value from the top, counting from 0, regardless of what
// has been popped.
func (s *shadowStack) Top(k int) vm.Value {
	return s.at(-(k + 1))
}

func (s *shadowStack) Pop() vm.Value {
	s.cursor++
	return s.at(-s.cursor)
}

// PopN pops n values and returns them in the order they were pushed.
func (s *shadowStack) PopN(n int) []vm.Value {
	out := make([]vm.Value, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = s.Pop()
	}
	return out
}
