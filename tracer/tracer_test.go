package tracer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/apirecord/interp"
	"github.com/timewinder-dev/apirecord/record"
	"github.com/timewinder-dev/apirecord/stdlib"
	"github.com/timewinder-dev/apirecord/vm"
)

const setup = `load("array", np="*")
load("mylib", "double", "make", "countdown")
a = np.arange(10)
`

type run struct {
	mod     *vm.Module
	mem     *record.Memory
	session *Session
}

func (r run) get(name string) vm.Value {
	return r.mod.Members[name]
}

// traceIn runs setup untraced, then code under a session for target, both
// in the same module.
func traceIn(t *testing.T, target, code string) run {
	t.Helper()
	mod := vm.NewModule(vm.MainModule)
	th := interp.NewThread(stdlib.NewLoader("../testdata/modules"))
	prog, err := vm.CompileLiteral(setup)
	require.NoError(t, err)
	require.NoError(t, th.Exec(prog, mod))

	mem := record.NewMemory()
	s := NewSession(target, mem)
	s.Attach(th)
	defer s.Detach()
	prog, err = vm.CompileLiteral(code)
	require.NoError(t, err)
	require.NoError(t, th.Exec(prog, mod))
	require.NoError(t, s.Err())
	return run{mod: mod, mem: mem, session: s}
}

func rec(fn string, kv ...any) record.Record {
	r := record.Record{Function: fn}
	for i := 0; i < len(kv); i += 2 {
		r.Params = append(r.Params, record.Param{Name: kv[i].(string), Value: kv[i+1].(vm.Value)})
	}
	return r
}

func requireRecords(t *testing.T, got []record.Record, want ...record.Record) {
	t.Helper()
	names := func(rs []record.Record) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.String()
		}
		return out
	}
	require.Len(t, got, len(want), "got %v", names(got))
	for i := range want {
		require.Equal(t, want[i].Function, got[i].Function)
		require.Len(t, got[i].Params, len(want[i].Params), "record %s", got[i])
		for j, p := range want[i].Params {
			require.Equal(t, p.Name, got[i].Params[j].Name, "record %s", got[i])
			require.True(t, vm.Equal(p.Value, got[i].Params[j].Value),
				"record %s: param %s is %s, want %s", got[i], p.Name, vm.Repr(got[i].Params[j].Value), vm.Repr(p.Value))
		}
	}
}

func TestUnary(t *testing.T) {
	r := traceIn(t, "array", "+a\n-a\n~a\nnot a\n")
	a := r.get("a")
	requireRecords(t, r.mem.Records(),
		rec("operator.pos", "a", a),
		rec("operator.neg", "a", a),
		rec("operator.invert", "a", a),
		rec("operator.not_", "a", a),
	)
}

func TestBinaryEitherSide(t *testing.T) {
	r := traceIn(t, "array", "a + 10\n10 + 10\n10 + a\n")
	a := r.get("a")
	requireRecords(t, r.mem.Records(),
		rec("operator.add", "a", a, "b", vm.IntValue(10)),
		rec("operator.add", "a", vm.IntValue(10), "b", a),
	)
}

func TestInplace(t *testing.T) {
	r := traceIn(t, "array", "b = a\na += 10\n")
	requireRecords(t, r.mem.Records(),
		rec("operator.iadd", "a", r.get("b"), "b", vm.IntValue(10)),
	)
}

func TestBuiltinTypesNoCall(t *testing.T) {
	r := traceIn(t, "array", "10 + 10\n10.2332 + 213\n12323.234 - 2342.40\n[1] + [2]\n")
	require.Empty(t, r.mem.Records())
}

func TestSubscript(t *testing.T) {
	r := traceIn(t, "array", `l = [a]
a[0]
l[0]
m = [0]
a[0] = 1
m[0] = a
`)
	a := r.get("a")
	requireRecords(t, r.mem.Records(),
		rec("operator.getitem", "a", a, "b", vm.IntValue(0)),
		rec("operator.setitem", "a", a, "b", vm.IntValue(0), "c", vm.IntValue(1)),
	)
}

func TestAttributes(t *testing.T) {
	r := traceIn(t, "array", `a.shape
"abc".upper
a.shape = (10, 1)
`)
	a := r.get("a")
	requireRecords(t, r.mem.Records(),
		rec("builtins.getattr", "0", a, "1", vm.StrValue("shape")),
		rec("builtins.setattr", "0", a, "1", vm.StrValue("shape"), "2", vm.TupleValue{vm.IntValue(10), vm.IntValue(1)}),
	)
}

func TestTranspose(t *testing.T) {
	r := traceIn(t, "array", "a.T\n")
	requireRecords(t, r.mem.Records(), rec("builtins.getattr", "0", r.get("a"), "1", vm.StrValue("T")))
}

func TestCompare(t *testing.T) {
	r := traceIn(t, "array", `a == a
a < 2
3 in a
2 in [1, 2]
`)
	a := r.get("a")
	requireRecords(t, r.mem.Records(),
		rec("operator.eq", "a", a, "b", a),
		rec("operator.lt", "a", a, "b", vm.IntValue(2)),
		rec("operator.contains", "a", a, "b", vm.IntValue(3)),
	)
}

func TestUnpackAndIterate(t *testing.T) {
	r := traceIn(t, "array", `b = np.arange(2)
x, y = b
for _ in b:
    pass
`)
	b := r.get("b")
	requireRecords(t, r.mem.Records(),
		rec("array.arange", "0", vm.IntValue(2)),
		rec("builtins.iter", "0", b),
		rec("builtins.iter", "0", b),
	)
}

func TestTupleUnpackWithCall(t *testing.T) {
	r := traceIn(t, "array", `def f(*args):
    pass

f(*a, 10, *a)
`)
	a := r.get("a")
	requireRecords(t, r.mem.Records(),
		rec("builtins.iter", "0", a),
		rec("builtins.iter", "0", a),
	)
}

func TestModuleFunctions(t *testing.T) {
	r := traceIn(t, "array", `np.arange(10)
np.power(100, 10)
np.ravel([1, 2, 3])
np.ravel(a)
np.std(a)
`)
	a := r.get("a")
	requireRecords(t, r.mem.Records(),
		rec("array.arange", "0", vm.IntValue(10)),
		rec("array.power", "0", vm.IntValue(100), "1", vm.IntValue(10)),
		rec("array.ravel", "a", vm.NewList([]vm.Value{vm.IntValue(1), vm.IntValue(2), vm.IntValue(3)})),
		rec("array.ravel", "a", a),
		rec("array.std", "a", a),
	)
}

func TestArangeInFunction(t *testing.T) {
	r := traceIn(t, "array", `def fn():
    np.arange(10)

fn()
`)
	requireRecords(t, r.mem.Records(), rec("array.arange", "0", vm.IntValue(10)))
}

func TestKeywordCalls(t *testing.T) {
	r := traceIn(t, "array", `np.eye(10, order="F")
np.linspace(3, 4, endpoint=False)
np.concatenate((a, a), axis=0)
`)
	np, a := r.get("np"), r.get("a")
	requireRecords(t, r.mem.Records(),
		rec("builtins.getattr", "0", np, "1", vm.StrValue("eye")),
		rec("array.eye", "N", vm.IntValue(10), "order", vm.StrValue("F")),
		rec("builtins.getattr", "0", np, "1", vm.StrValue("linspace")),
		rec("array.linspace", "start", vm.IntValue(3), "stop", vm.IntValue(4), "endpoint", vm.BoolFalse),
		rec("builtins.getattr", "0", np, "1", vm.StrValue("concatenate")),
		rec("array.concatenate", "axis", vm.IntValue(0), "0", vm.TupleValue{a, a}),
	)
}

func TestNativeMethods(t *testing.T) {
	r := traceIn(t, "array", `a.reshape((5, 2))
a.sort(axis=0)
`)
	a := r.get("a")
	requireRecords(t, r.mem.Records(),
		rec("array.ndarray.reshape", "0", a, "1", vm.TupleValue{vm.IntValue(5), vm.IntValue(2)}),
		rec("builtins.getattr", "0", a, "1", vm.StrValue("sort")),
		rec("array.ndarray.sort", "axis", vm.IntValue(0), "0", a),
	)
}

func TestBoundMethodUnwrapped(t *testing.T) {
	r := traceIn(t, "array", `f = a.sum
f()
`)
	a := r.get("a")
	requireRecords(t, r.mem.Records(),
		rec("builtins.getattr", "0", a, "1", vm.StrValue("sum")),
		rec("array.ndarray.sum", "0", a),
	)
}

func TestTracesIntoOtherModules(t *testing.T) {
	r := traceIn(t, "array", "double(a)\n")
	a := r.get("a")
	requireRecords(t, r.mem.Records(), rec("operator.add", "a", a, "b", a))
}

func TestRecordedCallIsNotEntered(t *testing.T) {
	r := traceIn(t, "mylib", `make(3)
make(4)
`)
	requireRecords(t, r.mem.Records(),
		rec("mylib.make", "n", vm.IntValue(3)),
		rec("mylib.make", "n", vm.IntValue(4)),
	)
}

func TestRecursionStaysSuppressed(t *testing.T) {
	r := traceIn(t, "mylib", `countdown(3)
double(2)
for n in [5, 6, 7]:
    double(n)
`)
	requireRecords(t, r.mem.Records(),
		rec("mylib.countdown", "n", vm.IntValue(3)),
		rec("mylib.double", "x", vm.IntValue(2)),
		rec("mylib.double", "x", vm.IntValue(5)),
		rec("mylib.double", "x", vm.IntValue(6)),
		rec("mylib.double", "x", vm.IntValue(7)),
	)
	require.Contains(t, r.session.ignored, r.get("countdown").(*vm.Function))
	require.Contains(t, r.session.ignored, r.get("double").(*vm.Function))

	// Entering already ignored code leaves the caller's key behind. It is
	// cleared when the call site runs again, so the loop leaves one key.
	require.Len(t, r.session.recorded, 1)
	for key := range r.session.recorded {
		require.Equal(t, vm.MainModule+".<module>", key.Code.QualifiedName())
	}
}

func TestMisalignedAbortsSession(t *testing.T) {
	prog, err := vm.CompileLiteral("x = 1\nload(\"array\", \"arange\")\narange(3)\n")
	require.NoError(t, err)
	mem := record.NewMemory()
	s := NewSession("array", mem)
	th := interp.NewThread(stdlib.NewLoader())
	s.Attach(th)

	frame := interp.NewFrame(prog.Main, nil)
	frame.PC = len(prog.Main.Code) + 1
	s.OnInstruction(frame)
	require.ErrorIs(t, s.Err(), ErrMisaligned)

	// the program still runs, untraced
	mod := vm.NewModule(vm.MainModule)
	require.NoError(t, th.Exec(prog, mod))
	require.Equal(t, vm.IntValue(1), mod.Members["x"])
	require.Empty(t, mem.Records())
}

func TestEndToEnd(t *testing.T) {
	var buf bytes.Buffer
	sink := record.NewStream(&buf, record.JSONL, record.NewSerializer(0))
	prog, err := vm.CompileLiteral(`load("array", np="*")
x = np.arange(3)
y = x + 1
x.shape
`)
	require.NoError(t, err)
	th := interp.NewThread(stdlib.NewLoader())
	s := NewSession("array", sink)
	s.Attach(th)
	require.NoError(t, th.Exec(prog, vm.NewModule(vm.MainModule)))
	require.NoError(t, s.Err())
	require.NoError(t, sink.Flush())
	require.Equal(t, 3, s.Emitted())

	arr := `{"__tp":"array.ndarray","__v":{"shape":[3],"dtype":"int64"}}`
	require.Equal(t, []string{
		`{"function":"array.arange","params":{"0":3}}`,
		`{"function":"operator.add","params":{"a":` + arr + `,"b":1}}`,
		`{"function":"builtins.getattr","params":{"0":` + arr + `,"1":"shape"}}`,
	}, strings.Split(strings.TrimSpace(buf.String()), "\n"))
}

type failingSink struct{ record.Memory }

func (f *failingSink) Write(r record.Record) error {
	if r.Function == "operator.add" {
		return record.ErrTooDeep
	}
	return f.Memory.Write(r)
}

func TestSinkFailureIsIsolated(t *testing.T) {
	prog, err := vm.CompileLiteral(`load("array", np="*")
x = np.arange(3)
x + 1
-x
`)
	require.NoError(t, err)
	sink := &failingSink{}
	th := interp.NewThread(stdlib.NewLoader())
	s := NewSession("array", sink)
	s.Attach(th)
	require.NoError(t, th.Exec(prog, vm.NewModule(vm.MainModule)))
	require.NoError(t, s.Err())
	require.Equal(t, []string{"array.arange", "operator.neg"}, sink.Functions())
	require.Equal(t, 3, s.Emitted())
	require.Equal(t, 1, s.Failed())
}
