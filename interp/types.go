package interp

import (
	"fmt"

	"github.com/timewinder-dev/apirecord/vm"
)

type StepResult int

const (
	ContinueStep StepResult = iota
	ReturnStep
	EndStep
	CallStep
	ErrorStep
)

func (r StepResult) String() string {
	switch r {
	case ContinueStep:
		return "Continue"
	case ReturnStep:
		return "Return"
	case EndStep:
		return "End"
	case CallStep:
		return "Call"
	case ErrorStep:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// Importer resolves the module named by an IMPORT instruction.
type Importer interface {
	Import(name string) (*vm.Module, error)
}

// StackFrame is one activation of a function. PC is the byte offset of the
// instruction about to run; while a call made from this frame is in
// progress it stays on the call instruction.
type StackFrame struct {
	Fn        *vm.Function
	PC        int
	Stack     []vm.Value
	Variables map[string]vm.Value
	Back      *StackFrame

	// hooks that asked for instruction events in this frame
	tracers []Hook
}

// Hook receives execution events from a Thread. Events arrive synchronously
// in program order.
type Hook interface {
	// OnCall fires when a new frame is entered, before its first
	// instruction. Returning true enables OnInstruction for that frame.
	OnCall(frame *StackFrame) bool
	// OnInstruction fires before each instruction executes, with the
	// operands still on the stack.
	OnInstruction(frame *StackFrame)
	// OnReturn fires as a frame is discarded, whether it returned or is
	// being unwound by an error.
	OnReturn(frame *StackFrame)
}
