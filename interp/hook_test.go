package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/apirecord/vm"
)

type recordingHook struct {
	calls   []string
	returns []string
	ops     []vm.Opcode
	only    string
	onInst  func(*StackFrame)
}

func (h *recordingHook) OnCall(frame *StackFrame) bool {
	h.calls = append(h.calls, frame.Fn.Name)
	return h.only == "" || frame.Fn.Name == h.only
}

func (h *recordingHook) OnInstruction(frame *StackFrame) {
	in, err := vm.DecodeAt(frame.Fn.Code, frame.PC)
	if err == nil {
		h.ops = append(h.ops, in.Code)
	}
	if h.onInst != nil {
		h.onInst(frame)
	}
}

func (h *recordingHook) OnReturn(frame *StackFrame) {
	h.returns = append(h.returns, frame.Fn.Name)
}

const hookCode = `
def leaf(x):
    return -x

def mid(x):
    return leaf(x) * 2

r = mid(3)
`

func TestHookEvents(t *testing.T) {
	prog, err := vm.CompileLiteral(hookCode)
	require.NoError(t, err)
	th := NewThread(NewLoader())
	h := &recordingHook{only: "leaf"}
	th.Subscribe(h)
	mod := vm.NewModule(vm.MainModule)
	require.NoError(t, th.Exec(prog, mod))
	require.Equal(t, vm.IntValue(-6), mod.Members["r"])

	require.Equal(t, []string{"<module>", "mid", "leaf"}, h.calls)
	require.Equal(t, []string{"leaf", "mid", "<module>"}, h.returns)
	require.Equal(t, []vm.Opcode{vm.GETVAL, vm.NEGATE, vm.RETURN}, h.ops)
}

func TestInstructionEventsStayInsideCode(t *testing.T) {
	prog, err := vm.CompileLiteral("x = 1\ny = x + 1\n")
	require.NoError(t, err)
	th := NewThread(NewLoader())
	var bad []int
	h := &recordingHook{onInst: func(frame *StackFrame) {
		if _, err := vm.DecodeAt(frame.Fn.Code, frame.PC); err != nil {
			bad = append(bad, frame.PC)
		}
	}}
	th.Subscribe(h)
	require.NoError(t, th.Exec(prog, vm.NewModule(vm.MainModule)))
	require.NotEmpty(t, h.ops)
	require.Empty(t, bad)
	require.NotContains(t, h.ops, vm.RETURN, "top-level code ends without a return")
}

func TestHookSeesOperands(t *testing.T) {
	prog, err := vm.CompileLiteral(hookCode)
	require.NoError(t, err)
	th := NewThread(NewLoader())
	var seen []vm.Value
	h := &recordingHook{only: "leaf"}
	h.onInst = func(frame *StackFrame) {
		in, _ := vm.DecodeAt(frame.Fn.Code, frame.PC)
		if in.Code == vm.NEGATE {
			v, err := NewStackReader(frame).At(-1)
			require.NoError(t, err)
			seen = append(seen, v)
		}
	}
	th.Subscribe(h)
	require.NoError(t, th.Exec(prog, vm.NewModule(vm.MainModule)))
	require.Equal(t, []vm.Value{vm.IntValue(3)}, seen)
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	prog, err := vm.CompileLiteral(hookCode)
	require.NoError(t, err)
	th := NewThread(NewLoader())
	h := &recordingHook{}
	var unsubscribe func()
	h.onInst = func(frame *StackFrame) {
		if len(h.ops) == 3 {
			unsubscribe()
		}
	}
	unsubscribe = th.Subscribe(h)
	require.NoError(t, th.Exec(prog, vm.NewModule(vm.MainModule)))
	require.Len(t, h.ops, 3)
	require.Equal(t, []string{"<module>"}, h.calls)
	require.Empty(t, h.returns)
}

func TestUnwindFiresReturns(t *testing.T) {
	prog, err := vm.CompileLiteral(`
def bad():
    return 1 + "x"

def caller():
    return bad()

caller()
`)
	require.NoError(t, err)
	th := NewThread(NewLoader())
	h := &recordingHook{}
	th.Subscribe(h)
	require.Error(t, th.Exec(prog, vm.NewModule(vm.MainModule)))
	require.Equal(t, []string{"bad", "caller", "<module>"}, h.returns)
}
