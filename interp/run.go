package interp

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/apirecord/vm"
)

// Thread is one execution context. Hooks subscribed to a thread see every
// frame it enters, in program order.
type Thread struct {
	Importer Importer
	hooks    []Hook
}

func NewThread(imp Importer) *Thread {
	return &Thread{Importer: imp}
}

// Subscribe attaches h to the thread. The returned function detaches it; a
// detached hook receives no further events, including in frames it had
// already asked to trace.
func (t *Thread) Subscribe(h Hook) func() {
	t.hooks = append(t.hooks, h)
	return func() {
		t.hooks = slices.DeleteFunc(t.hooks, func(x Hook) bool { return x == h })
	}
}

func (t *Thread) subscribed(h Hook) bool {
	return slices.Contains(t.hooks, h)
}

// Exec runs a program's top-level code as module mod.
func (t *Thread) Exec(prog *vm.Program, mod *vm.Module) error {
	prog.Bind(mod)
	_, err := t.RunToEnd(NewFrame(prog.Main, mod.Members))
	return err
}

// Call invokes any callable value with the thread's hooks active.
func (t *Thread) Call(fn vm.Value, args []vm.Value, kwargs []vm.Kwarg) (vm.Value, error) {
	f, ok := fn.(*vm.Function)
	if !ok {
		return CallNative(fn, args, kwargs)
	}
	frame, err := BuildCallFrame(f, args, kwargs)
	if err != nil {
		return nil, err
	}
	return t.RunToEnd(frame)
}

func (t *Thread) enter(frame *StackFrame) {
	frame.tracers = nil
	for _, h := range slices.Clone(t.hooks) {
		if h.OnCall(frame) {
			frame.tracers = append(frame.tracers, h)
		}
	}
}

func (t *Thread) instruction(frame *StackFrame) {
	for _, h := range frame.tracers {
		if t.subscribed(h) {
			h.OnInstruction(frame)
		}
	}
}

func (t *Thread) leave(frame *StackFrame) {
	for _, h := range slices.Clone(t.hooks) {
		h.OnReturn(frame)
	}
}

// RunToEnd executes start and everything it calls, returning start's result.
func (t *Thread) RunToEnd(start *StackFrame) (vm.Value, error) {
	t.enter(start)
	frame := start
	for {
		// running off the end of the code is not an instruction
		if frame.PC < len(frame.Fn.Code) {
			t.instruction(frame)
		}
		res, _, err := Step(t.Importer, frame)
		if err != nil {
			return nil, t.unwind(frame, start, err)
		}
		switch res {
		case ContinueStep:
			continue
		case ReturnStep, EndStep:
			val := vm.Value(vm.None)
			if res == ReturnStep {
				val = frame.Pop()
			}
			t.leave(frame)
			if frame == start {
				return val, nil
			}
			frame = frame.Back
			if err := resume(frame, val); err != nil {
				return nil, t.unwind(frame, start, err)
			}
		case CallStep:
			callee, err := t.dispatch(frame)
			if err != nil {
				return nil, t.unwind(frame, start, err)
			}
			if callee != nil {
				frame = callee
			}
		default:
			panic("unhandled intermediate step")
		}
	}
}

// dispatch performs the call at frame.PC. Native calls complete immediately
// and advance the caller; script calls return the new frame to run.
func (t *Thread) dispatch(frame *StackFrame) (*StackFrame, error) {
	call, err := PopCall(frame)
	if err != nil {
		return nil, err
	}
	fn, ok := call.Fn.(*vm.Function)
	if !ok {
		v, err := CallNative(call.Fn, call.Args, call.Kwargs)
		if err != nil {
			return nil, err
		}
		return nil, resume(frame, v)
	}
	callee, err := BuildCallFrame(fn, call.Args, call.Kwargs)
	if err != nil {
		return nil, err
	}
	callee.Back = frame
	log.Trace().Str("fn", fn.QualifiedName()).Int("depth", callee.Depth()).Msg("RunToEnd: pushed call frame")
	t.enter(callee)
	return callee, nil
}

// resume pushes a call's result and moves the caller past the call.
func resume(frame *StackFrame, v vm.Value) error {
	inst, err := vm.DecodeAt(frame.Fn.Code, frame.PC)
	if err != nil {
		return err
	}
	frame.Push(v)
	frame.PC = inst.Next()
	return nil
}

// unwind discards frames from frame up to and including start, annotating the
// error with the location it was raised at.
func (t *Thread) unwind(frame, start *StackFrame, err error) error {
	err = fmt.Errorf("%s: %w", frame.Location(), err)
	for f := frame; f != nil; f = f.Back {
		t.leave(f)
		if f == start {
			break
		}
	}
	return err
}
