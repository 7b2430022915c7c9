package interp

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/apirecord/vm"
)

func runLiteral(t *testing.T, code string) *vm.Module {
	t.Helper()
	prog, err := vm.CompileLiteral(code)
	require.NoError(t, err)
	mod := vm.NewModule(vm.MainModule)
	require.NoError(t, NewThread(NewLoader()).Exec(prog, mod))
	return mod
}

func TestSmall(t *testing.T) {
	filepath.WalkDir("../testdata/small", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".star") {
			return nil
		}
		t.Run(filepath.Base(path), func(t *testing.T) {
			prog, err := vm.CompilePath(path, vm.MainModule)
			require.NoError(t, err)
			err = NewThread(NewLoader()).Exec(prog, vm.NewModule(vm.MainModule))
			require.NoError(t, err)
		})
		return nil
	})
}

func TestRuntimeErrorLocation(t *testing.T) {
	prog, err := vm.CompileLiteral(`
def inner(x):
    return x + "a"

def outer():
    return inner(1)

outer()
`)
	require.NoError(t, err)
	err = NewThread(NewLoader()).Exec(prog, vm.NewModule(vm.MainModule))
	require.ErrorIs(t, err, vm.ErrUnsupportedOp)
	require.Contains(t, err.Error(), "<literal>:3")
}

func TestScoping(t *testing.T) {
	mod := runLiteral(t, `
g = 1

def read():
    return g

def shadow():
    g = 2
    return g

a = read()
b = shadow()
c = g
`)
	require.Equal(t, vm.IntValue(1), mod.Members["a"])
	require.Equal(t, vm.IntValue(2), mod.Members["b"])
	require.Equal(t, vm.IntValue(1), mod.Members["c"])
}

func TestThreadCall(t *testing.T) {
	mod := runLiteral(t, `
def add3(a, b, c=10):
    return a + b + c
`)
	th := NewThread(NewLoader())
	v, err := th.Call(mod.Members["add3"], []vm.Value{vm.IntValue(1), vm.IntValue(2)}, nil)
	require.NoError(t, err)
	require.Equal(t, vm.IntValue(13), v)

	v, err = th.Call(vm.Universe["len"], []vm.Value{vm.StrValue("abcd")}, nil)
	require.NoError(t, err)
	require.Equal(t, vm.IntValue(4), v)

	v, err = th.Call(vm.ListType, []vm.Value{vm.TupleValue{vm.IntValue(1)}}, nil)
	require.NoError(t, err)
	require.Equal(t, []vm.Value{vm.IntValue(1)}, v.(*vm.ListValue).Items)
}

func TestFormatValue(t *testing.T) {
	var items []vm.Value
	for i := range 8 {
		items = append(items, vm.IntValue(i))
	}
	require.Equal(t, "[0, 1, 2, 3, 4, ... (3 more)]", FormatValue(vm.NewList(items)))
	require.Equal(t, "(1, 2)", FormatValue(vm.TupleValue{vm.IntValue(1), vm.IntValue(2)}))
}
