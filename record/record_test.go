package record

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/shamaton/msgpack/v2"
	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/apirecord/cas"
	"github.com/timewinder-dev/apirecord/stdlib"
	"github.com/timewinder-dev/apirecord/vm"
)

func ints(n int) []vm.Value {
	out := make([]vm.Value, n)
	for i := range out {
		out[i] = vm.IntValue(i)
	}
	return out
}

func TestNormalizeScalars(t *testing.T) {
	s := NewSerializer(0)
	for _, c := range []struct {
		in   vm.Value
		want any
	}{
		{vm.None, nil},
		{vm.BoolTrue, true},
		{vm.IntValue(-3), int64(-3)},
		{vm.FloatValue(1.5), 1.5},
		{vm.StrValue("hi"), "hi"},
	} {
		got, err := s.Normalize(c.in)
		require.NoError(t, err)
		require.Equal(t, c.want, got)
	}
}

func TestTruncation(t *testing.T) {
	s := NewSerializer(0)
	long := strings.Repeat("é", 60)
	got, err := s.Normalize(vm.StrValue(long))
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("é", 50), got)

	again, err := s.Normalize(vm.StrValue(got.(string)))
	require.NoError(t, err)
	require.Equal(t, got, again)

	got, err = s.Normalize(vm.NewList(ints(80)))
	require.NoError(t, err)
	require.Len(t, got, 50)
	require.Equal(t, int64(49), got.([]any)[49])

	d := vm.NewDict()
	for i := 0; i < 70; i++ {
		d.Set(vm.IntValue(i), vm.IntValue(i))
	}
	got, err = s.Normalize(d)
	require.NoError(t, err)
	obj := got.(Object)
	require.Len(t, obj, 50)
	require.Equal(t, "0", obj[0].Key)
}

func TestTupleTag(t *testing.T) {
	s := NewSerializer(0)
	got, err := s.Normalize(vm.TupleValue{vm.IntValue(10), vm.IntValue(1)})
	require.NoError(t, err)
	require.Equal(t, Object{
		{Key: "__tp", Value: "tuple"},
		{Key: "value", Value: []any{int64(10), int64(1)}},
	}, got)
}

func TestExtractors(t *testing.T) {
	s := NewSerializer(0)
	got, err := s.Normalize(stdlib.NewNDArray([]int{2, 3}, stdlib.Float64))
	require.NoError(t, err)
	require.Equal(t, Object{
		{Key: "__tp", Value: "array.ndarray"},
		{Key: "__v", Value: Object{
			{Key: "shape", Value: []any{int64(2), int64(3)}},
			{Key: "dtype", Value: "float64"},
		}},
	}, got)

	got, err = s.Normalize(vm.SliceValue{Start: vm.IntValue(1), Stop: vm.IntValue(4)})
	require.NoError(t, err)
	v, _ := got.(Object).Get("__v")
	require.Equal(t, []any{int64(1), int64(4), nil}, v)

	got, err = s.Normalize(vm.NewModule("mylib"))
	require.NoError(t, err)
	v, _ = got.(Object).Get("__v")
	require.Equal(t, "mylib", v)

	// no extractor: type tag only
	got, err = s.Normalize(vm.Universe["len"])
	require.NoError(t, err)
	require.Equal(t, Object{{Key: "__tp", Value: "builtins.builtin_function_or_method"}}, got)
}

func TestTooDeep(t *testing.T) {
	l := vm.NewList(nil)
	l.Items = append(l.Items, l)
	_, err := NewSerializer(0).Normalize(l)
	require.ErrorIs(t, err, ErrTooDeep)
}

func TestRecordParamsBounded(t *testing.T) {
	s := NewSerializer(3)
	var params []Param
	for i, v := range ints(5) {
		params = append(params, Param{Name: string(rune('a' + i)), Value: v})
	}
	obj, err := s.Record(Record{Function: "mylib.f", Params: params})
	require.NoError(t, err)
	p, _ := obj.Get("params")
	require.Len(t, p, 3)
	fn, _ := obj.Get("function")
	require.Equal(t, "myl", fn)

	obj, err = NewSerializer(0).Record(Record{Function: "mylib.f"})
	require.NoError(t, err)
	fn, _ = obj.Get("function")
	require.Equal(t, "mylib.f", fn)
}

func TestEncodeJSONKeepsOrder(t *testing.T) {
	obj, err := NewSerializer(0).Record(Record{
		Function: "operator.add",
		Params: []Param{
			{Name: "0", Value: vm.IntValue(1)},
			{Name: "1", Value: vm.TupleValue{vm.StrValue("x")}},
		},
	})
	require.NoError(t, err)
	b, err := EncodeJSON(obj)
	require.NoError(t, err)
	require.Equal(t, `{"function":"operator.add","params":{"0":1,"1":{"__tp":"tuple","value":["x"]}}}`+"\n", string(b))

	_, err = EncodeJSON(Object{{Key: "x", Value: math.NaN()}})
	require.Error(t, err)
}

func TestStreamIsolatesFailures(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf, JSONL, NewSerializer(0))
	require.NoError(t, s.Write(Record{Function: "a.f", Params: []Param{{Name: "0", Value: vm.IntValue(1)}}}))
	require.Error(t, s.Write(Record{Function: "a.g", Params: []Param{{Name: "0", Value: vm.FloatValue(math.Inf(1))}}}))
	require.NoError(t, s.Write(Record{Function: "a.h"}))
	require.NoError(t, s.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], `"a.f"`)
	require.Equal(t, `{"function":"a.h","params":{}}`, lines[1])
	require.Equal(t, 2, s.Count())
}

func TestStreamBinaryFormats(t *testing.T) {
	rec := Record{Function: "array.eye", Params: []Param{{Name: "N", Value: vm.IntValue(3)}}}

	var buf bytes.Buffer
	s := NewStream(&buf, Msgpack, NewSerializer(0))
	require.NoError(t, s.Write(rec))
	require.NoError(t, s.Flush())
	var m map[string]any
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &m))
	require.Equal(t, "array.eye", m["function"])

	buf.Reset()
	s = NewStream(&buf, CBOR, NewSerializer(0))
	require.NoError(t, s.Write(rec))
	require.NoError(t, s.Flush())
	m = nil
	require.NoError(t, cbor.Unmarshal(buf.Bytes(), &m))
	require.Equal(t, "array.eye", m["function"])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, JSONL, f)
	f, err = ParseFormat("CBOR")
	require.NoError(t, err)
	require.Equal(t, CBOR, f)
	_, err = ParseFormat("xml")
	require.Error(t, err)
}

func TestDedupe(t *testing.T) {
	mem := NewMemory()
	d := NewDedupe(mem, NewSerializer(0), cas.NewLRUCache(2))
	one := Record{Function: "a.f", Params: []Param{{Name: "0", Value: vm.IntValue(1)}}}
	two := Record{Function: "a.f", Params: []Param{{Name: "0", Value: vm.IntValue(2)}}}
	three := Record{Function: "a.g"}

	require.NoError(t, d.Write(one))
	require.NoError(t, d.Write(one))
	require.NoError(t, d.Write(two))
	require.NoError(t, d.Write(three))
	// one fell out of the window
	require.NoError(t, d.Write(one))
	require.Equal(t, []string{"a.f", "a.f", "a.g", "a.f"}, mem.Functions())
	require.Equal(t, 1, d.Dropped())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	s, err := OpenSQLite(path, NewSerializer(0))
	require.NoError(t, err)
	require.NotEmpty(t, s.Run())

	require.NoError(t, s.Write(Record{Function: "array.arange", Params: []Param{{Name: "0", Value: vm.IntValue(10)}}}))
	require.Error(t, s.Write(Record{Function: "bad", Params: []Param{{Name: "0", Value: vm.FloatValue(math.NaN())}}}))
	require.NoError(t, s.Write(Record{Function: "builtins.getattr"}))
	require.NoError(t, s.Flush())

	fns, err := s.Functions()
	require.NoError(t, err)
	require.Equal(t, []string{"array.arange", "builtins.getattr"}, fns)
	require.NoError(t, s.Close())
}
