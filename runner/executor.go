package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/apirecord/cas"
	"github.com/timewinder-dev/apirecord/interp"
	"github.com/timewinder-dev/apirecord/record"
	"github.com/timewinder-dev/apirecord/stdlib"
	"github.com/timewinder-dev/apirecord/tracer"
	"github.com/timewinder-dev/apirecord/vm"
)

// ErrSessionAborted is returned when the program ran to completion but its
// trace session stopped early.
var ErrSessionAborted = errors.New("trace session aborted")

var ErrNoCallable = errors.New("entry point defines no such function")

// An Executor is the context and entrypoint for running a traced program.
type Executor struct {
	Spec    *Spec
	Program *vm.Program
	Loader  *interp.Loader
	Sink    record.Sink
	Session *tracer.Session

	dedupe *record.Dedupe
	window *cas.LRUCache
}

type Result struct {
	Records  int
	Failed   int
	Dropped  int
	Duration time.Duration
}

// BuildExecutor compiles the entry point and opens the sinks.
func (s *Spec) BuildExecutor() (*Executor, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	path := s.Run.Path
	if isScript(s.Run.Entrypoint) {
		path = append([]string{filepath.Dir(s.Run.Entrypoint)}, path...)
	}
	e := &Executor{
		Spec:   s,
		Loader: stdlib.NewLoader(path...),
	}
	var err error
	if isScript(s.Run.Entrypoint) {
		e.Program, err = vm.CompilePath(s.Run.Entrypoint, vm.MainModule)
	} else {
		e.Program, err = e.Loader.Compile(s.Run.Entrypoint, vm.MainModule)
	}
	if err != nil {
		return nil, err
	}
	sink, err := s.openSink()
	if err != nil {
		return nil, err
	}
	if s.Trace.Dedupe {
		e.window = cas.NewLRUCache(s.Trace.DedupeWindow)
		e.dedupe = record.NewDedupe(sink, s.serializer(), e.window)
		sink = e.dedupe
	}
	e.Sink = sink
	e.Session = tracer.NewSession(s.Trace.Module, e.Sink)
	return e, nil
}

func (s *Spec) serializer() *record.Serializer {
	return record.NewSerializer(s.Trace.MaxLength)
}

func (s *Spec) openSink() (record.Sink, error) {
	var sinks record.Multi
	if s.Trace.Output != "" {
		format, err := record.ParseFormat(s.Trace.Format)
		if err != nil {
			return nil, err
		}
		f, err := os.Create(s.Trace.Output)
		if err != nil {
			return nil, fmt.Errorf("opening output: %w", err)
		}
		sinks = append(sinks, record.NewStream(f, format, s.serializer()))
	}
	if s.Trace.SQLite != "" {
		db, err := record.OpenSQLite(s.Trace.SQLite, s.serializer())
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, db)
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return sinks, nil
}

// Run imports the configured modules, then runs the entry point under trace.
// The sink is flushed before any error is returned.
func (e *Executor) Run() (*Result, error) {
	for _, m := range e.Spec.Run.Imports {
		_, err := e.Loader.Import(m)
		if err != nil {
			return nil, fmt.Errorf("importing %s: %w", m, err)
		}
	}

	th := interp.NewThread(e.Loader)
	e.Session.Attach(th)
	start := time.Now()
	log.Info().Str("entrypoint", e.Spec.Run.Entrypoint).Str("module", e.Spec.Trace.Module).Msg("tracing")
	runErr := e.exec(th)
	e.Session.Detach()
	flushErr := e.Sink.Flush()

	res := &Result{
		Records:  e.Session.Emitted(),
		Failed:   e.Session.Failed(),
		Duration: time.Since(start),
	}
	if e.dedupe != nil {
		res.Dropped = e.dedupe.Dropped()
		st := e.window.Stats()
		log.Debug().Int("size", st.Size).Int("max", st.MaxSize).Int("dropped", res.Dropped).Msg("dedupe window")
	}
	if runErr != nil {
		return res, fmt.Errorf("running %s: %w", e.Spec.Run.Entrypoint, runErr)
	}
	if flushErr != nil {
		return res, fmt.Errorf("flushing records: %w", flushErr)
	}
	if err := e.Session.Err(); err != nil {
		return res, fmt.Errorf("%w: %w", ErrSessionAborted, err)
	}
	return res, nil
}

func (e *Executor) exec(th *interp.Thread) error {
	mod := vm.NewModule(vm.MainModule)
	err := th.Exec(e.Program, mod)
	if err != nil || e.Spec.Run.Call == "" {
		return err
	}
	fn, ok := mod.Members[e.Spec.Run.Call]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoCallable, e.Spec.Run.Call)
	}
	_, err = th.Call(fn, nil, nil)
	return err
}

func (e *Executor) Close() error {
	return e.Sink.Close()
}
