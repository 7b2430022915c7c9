package runner

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timewinder-dev/apirecord/cas"
	_ "modernc.org/sqlite"
)

func TestParseSpec(t *testing.T) {
	s, err := parseSpec(strings.NewReader(`
[trace]
module = "array"
output = "out.cbor"
format = "cbor"
dedupe = true
dedupe_window = 10

[run]
entrypoint = "main"
imports = ["a", "b"]
`))
	require.NoError(t, err)
	require.Equal(t, "array", s.Trace.Module)
	require.Equal(t, "cbor", s.Trace.Format)
	require.True(t, s.Trace.Dedupe)
	require.Equal(t, 10, s.Trace.DedupeWindow)
	require.Equal(t, "main", s.Run.Entrypoint)
	require.Equal(t, "start", s.Run.Call)
	require.Equal(t, []string{"a", "b"}, s.Run.Imports)
}

func TestLoadSpecFromFile(t *testing.T) {
	s, err := LoadSpecFromFile("../testdata/specs/make.toml")
	require.NoError(t, err)
	dir, err := filepath.Abs("../testdata/specs")
	require.NoError(t, err)
	got, err := filepath.Abs(s.Run.Entrypoint)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "make.star"), got)
	require.Equal(t, filepath.Join("..", "testdata", "modules"), s.Run.Path[0])
	require.Equal(t, filepath.Join("..", "testdata", "specs", "make.jsonl"), s.Trace.Output)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvOutputFile:    "/tmp/x.jsonl",
		EnvImportModules: "a, b,,c",
		EnvRunModule:     "main",
		EnvRunCall:       "start",
		EnvTraceModule:   "array",
		EnvFormat:        "msgpack",
		EnvMaxLength:     "7",
	}
	s := &Spec{Trace: TraceSpec{Module: "other"}}
	require.NoError(t, s.ApplyEnv(func(k string) string { return env[k] }))
	require.Equal(t, "/tmp/x.jsonl", s.Trace.Output)
	require.Equal(t, []string{"a", "b", "c"}, s.Run.Imports)
	require.Equal(t, "main", s.Run.Entrypoint)
	require.Equal(t, "array", s.Trace.Module)
	require.Equal(t, "msgpack", s.Trace.Format)
	require.Equal(t, 7, s.Trace.MaxLength)
	require.NoError(t, s.Validate())

	env[EnvMaxLength] = "lots"
	require.Error(t, s.ApplyEnv(func(k string) string { return env[k] }))
}

func TestValidate(t *testing.T) {
	err := (&Spec{Trace: TraceSpec{Format: "xml"}}).Validate()
	require.Error(t, err)
	for _, want := range []string{"trace.module", "run.entrypoint", "trace.output", "xml"} {
		require.Contains(t, err.Error(), want)
	}
}

func loadMake(t *testing.T) (*Spec, string) {
	t.Helper()
	s, err := LoadSpecFromFile("../testdata/specs/make.toml")
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "make.jsonl")
	s.Trace.Output = out
	return s, out
}

func TestRun(t *testing.T) {
	s, out := loadMake(t)
	e, err := s.BuildExecutor()
	require.NoError(t, err)
	res, err := e.Run()
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.Equal(t, 4, res.Records)
	require.Zero(t, res.Failed)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, []string{
		`{"function":"mylib.make","params":{"n":3}}`,
		`{"function":"mylib.make","params":{"n":4}}`,
		`{"function":"mylib.double","params":{"x":2}}`,
		`{"function":"mylib.double","params":{"x":2}}`,
	}, strings.Split(strings.TrimSpace(string(data)), "\n"))

	sum, err := Summarize(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 4, sum.Records)
	require.Equal(t, []FunctionCount{
		{Function: "mylib.double", Calls: 2, Unique: 1},
		{Function: "mylib.make", Calls: 2, Unique: 2},
	}, sum.Functions)
	require.Contains(t, FormatSummary(sum), "mylib.double")
}

func TestRunDedupeAndSQLite(t *testing.T) {
	s, _ := loadMake(t)
	s.Trace.Dedupe = true
	s.Trace.SQLite = filepath.Join(t.TempDir(), "records.db")
	e, err := s.BuildExecutor()
	require.NoError(t, err)
	res, err := e.Run()
	require.NoError(t, err)
	require.Equal(t, 1, res.Dropped)
	require.Equal(t, cas.CacheStats{Size: 3, MaxSize: cas.DefaultWindow}, e.window.Stats())
	require.Contains(t, FormatResult(res), "Duplicates dropped")
	require.NoError(t, e.Close())

	db, err := sql.Open("sqlite", s.Trace.SQLite)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM records WHERE function = ?", "mylib.double").Scan(&n))
	require.Equal(t, 1, n)
	require.NoError(t, db.QueryRow("SELECT count(*) FROM records").Scan(&n))
	require.Equal(t, 3, n)
}

func TestRunSample(t *testing.T) {
	s, err := LoadSpecFromFile("../testdata/specs/sample.toml")
	require.NoError(t, err)
	s.Trace.Output = filepath.Join(t.TempDir(), "sample.jsonl")
	e, err := s.BuildExecutor()
	require.NoError(t, err)
	res, err := e.Run()
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.Greater(t, res.Records, 0)

	f, err := os.Open(s.Trace.Output)
	require.NoError(t, err)
	defer f.Close()
	sum, err := Summarize(f)
	require.NoError(t, err)
	require.Zero(t, sum.Invalid)
	require.Equal(t, res.Records, sum.Records)
	names := map[string]bool{}
	for _, fc := range sum.Functions {
		names[fc.Function] = true
	}
	for _, want := range []string{"array.arange", "operator.add", "operator.neg", "builtins.iter", "array.ndarray.reshape"} {
		require.True(t, names[want], want)
	}
}

func TestRunErrorIsWrapped(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "broken.star")
	require.NoError(t, os.WriteFile(entry, []byte("undefined_function()\n"), 0o644))
	s := &Spec{
		Trace: TraceSpec{Module: "array", Output: filepath.Join(dir, "out.jsonl")},
		Run:   RunSpec{Entrypoint: entry},
	}
	e, err := s.BuildExecutor()
	require.NoError(t, err)
	defer e.Close()
	_, err = e.Run()
	require.Error(t, err)
	require.Contains(t, err.Error(), "running "+entry)
}

func TestSummarizeSkipsInvalidLines(t *testing.T) {
	in := `{"function":"a.f","params":{"0":1}}
not json
{"function":"a.f","params":{"0":1}}

{"params":{}}
{"function":"a.g","params":{"x":[1,2]}}
`
	sum, err := Summarize(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 3, sum.Records)
	require.Equal(t, 2, sum.Invalid)
	require.Equal(t, []FunctionCount{
		{Function: "a.f", Calls: 2, Unique: 1},
		{Function: "a.g", Calls: 1, Unique: 1},
	}, sum.Functions)
	require.Contains(t, FormatSummary(sum), "Invalid lines")
}

func TestRunCallsFunction(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "calls.star")
	require.NoError(t, os.WriteFile(entry, []byte(`load("mylib", "double")

def main():
    double(1)
    double(2)
`), 0o644))
	s := &Spec{
		Trace: TraceSpec{Module: "mylib", Output: filepath.Join(dir, "out.jsonl")},
		Run:   RunSpec{Entrypoint: entry, Call: "main", Path: []string{"../testdata/modules"}},
	}
	e, err := s.BuildExecutor()
	require.NoError(t, err)
	res, err := e.Run()
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.Equal(t, 2, res.Records)

	data, err := os.ReadFile(s.Trace.Output)
	require.NoError(t, err)
	require.Equal(t, []string{
		`{"function":"mylib.double","params":{"x":1}}`,
		`{"function":"mylib.double","params":{"x":2}}`,
	}, strings.Split(strings.TrimSpace(string(data)), "\n"))

	s.Run.Call = "missing"
	e, err = s.BuildExecutor()
	require.NoError(t, err)
	defer e.Close()
	_, err = e.Run()
	require.ErrorIs(t, err, ErrNoCallable)
}
