package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/apirecord/vm"
)

var code = `
def someArgs(x, y, z=3):
    return x + y + z
`

func TestBuildCallFrame(t *testing.T) {
	prg, err := vm.CompileLiteral(code)
	require.NoError(t, err)
	fn, ok := prg.Resolve("someArgs")
	require.True(t, ok)

	_, err = BuildCallFrame(fn, nil, nil)
	require.ErrorIs(t, err, vm.ErrUnbindable)
	_, err = BuildCallFrame(fn, []vm.Value{vm.IntValue(1)}, nil)
	require.Error(t, err)

	f, err := BuildCallFrame(fn, []vm.Value{vm.IntValue(1), vm.IntValue(2)}, nil)
	require.NoError(t, err)
	require.Equal(t, vm.IntValue(3), f.Variables["z"])

	f, err = BuildCallFrame(fn, nil, []vm.Kwarg{{Name: "y", Value: vm.IntValue(1)}, {Name: "x", Value: vm.IntValue(2)}})
	require.NoError(t, err)
	require.Equal(t, vm.IntValue(2), f.Variables["x"])
	require.Equal(t, vm.IntValue(1), f.Variables["y"])

	_, err = BuildCallFrame(fn, []vm.Value{vm.IntValue(1)}, []vm.Kwarg{{Name: "x", Value: vm.IntValue(2)}})
	require.Error(t, err)
}

func TestCallFromScript(t *testing.T) {
	mod := runLiteral(t, `
def someArgs(x, y, z=3):
    return x + y + z

def splat(*args, **kw):
    return (args, kw)

a = someArgs(1, 2)
b = someArgs(1, 2, 3)
c = someArgs(y=1, x=2)
d = splat(1, *[2, 3], k=4)
e = splat(*(1,), **{"j": 2})
`)
	require.Equal(t, vm.IntValue(6), mod.Members["a"])
	require.Equal(t, vm.IntValue(6), mod.Members["b"])
	require.Equal(t, vm.IntValue(6), mod.Members["c"])

	d := mod.Members["d"].(vm.TupleValue)
	require.Equal(t, vm.TupleValue{vm.IntValue(1), vm.IntValue(2), vm.IntValue(3)}, d[0])
	kw := d[1].(*vm.DictValue)
	v, ok := kw.Get(vm.StrValue("k"))
	require.True(t, ok)
	require.Equal(t, vm.IntValue(4), v)

	e := mod.Members["e"].(vm.TupleValue)
	require.Equal(t, vm.TupleValue{vm.IntValue(1)}, e[0])
	v, ok = e[1].(*vm.DictValue).Get(vm.StrValue("j"))
	require.True(t, ok)
	require.Equal(t, vm.IntValue(2), v)
}

func TestPopCallMethod(t *testing.T) {
	prg, err := vm.CompileLiteral(`x = [3, 1, 2]
x.append(0)
`)
	require.NoError(t, err)
	mod := vm.NewModule(vm.MainModule)
	prg.Bind(mod)
	frame := NewFrame(prg.Main, mod.Members)
	for {
		res, _, err := Step(nil, frame)
		require.NoError(t, err)
		if res == CallStep {
			break
		}
		require.Equal(t, ContinueStep, res)
	}
	call, err := PopCall(frame)
	require.NoError(t, err)
	require.IsType(t, &vm.Builtin{}, call.Fn)
	require.Equal(t, "list.append", call.Fn.(*vm.Builtin).Name)
	require.Len(t, call.Args, 2)
	require.Equal(t, vm.IntValue(0), call.Args[1])
}
