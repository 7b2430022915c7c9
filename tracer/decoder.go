// Package tracer records calls and operators on values that belong to a
// target module, by inspecting the operand stack of a running thread.
package tracer

import (
	"errors"
	"fmt"

	"github.com/timewinder-dev/apirecord/vm"
)

// ErrMisaligned means a frame's PC does not fall on an instruction boundary.
var ErrMisaligned = errors.New("instruction pointer is not on an instruction boundary")

// decodeCurrent returns the instruction at pc. Instructions are variable
// width, so the stream is scanned from the start.
func decodeCurrent(fn *vm.Function, pc int) (vm.Instr, error) {
	for in, err := range vm.Unpack(fn.Code) {
		if err != nil {
			return vm.Instr{}, fmt.Errorf("decoding %s: %w", fn.QualifiedName(), err)
		}
		if in.Offset == pc {
			return in, nil
		}
		if in.Offset > pc {
			break
		}
	}
	return vm.Instr{}, fmt.Errorf("%w: %s at %d", ErrMisaligned, fn.QualifiedName(), pc)
}
