// Package runner loads a trace spec, runs its entry point under a trace
// session and reads the records back.
package runner

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/timewinder-dev/apirecord/record"
)

// Environment variables that override a spec file.
const (
	EnvOutputFile    = "API_RECORD_OUTPUT_FILE"
	EnvImportModules = "API_RECORD_IMPORT_MODULES"
	EnvRunModule     = "API_RECORD_RUN_MODULE"
	EnvRunCall       = "API_RECORD_RUN_CALL"
	EnvTraceModule   = "API_RECORD_TRACE_MODULE"
	EnvFormat        = "API_RECORD_FORMAT"
	EnvMaxLength     = "API_RECORD_MAX_LENGTH"
)

type Spec struct {
	Trace TraceSpec `toml:"trace"`
	Run   RunSpec   `toml:"run"`
}

type TraceSpec struct {
	// Module is the prefix of the namespaces whose values are traced.
	Module       string `toml:"module,omitempty"`
	Output       string `toml:"output,omitempty"`
	Format       string `toml:"format,omitempty"`
	MaxLength    int    `toml:"max_length,omitempty"`
	Dedupe       bool   `toml:"dedupe,omitempty"`
	DedupeWindow int    `toml:"dedupe_window,omitempty"`
	SQLite       string `toml:"sqlite,omitempty"`
}

type RunSpec struct {
	// Entrypoint is a module name found on Path, or a .star file.
	Entrypoint string   `toml:"entrypoint,omitempty"`
	// Call names a function of the entry point to call, without arguments,
	// once its top-level code has run.
	Call       string   `toml:"call,omitempty"`
	Imports    []string `toml:"imports,omitempty"`
	Path       []string `toml:"path,omitempty"`
}

func parseSpec(f io.Reader) (*Spec, error) {
	var out Spec
	_, err := toml.NewDecoder(f).Decode(&out)
	return &out, err
}

// LoadSpecFromFile reads a spec. Relative paths are taken from the spec's
// directory, and a missing entry point defaults to the .star file named like
// the spec.
func LoadSpecFromFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	s, err := parseSpec(f)
	if err != nil {
		return nil, err
	}
	if s.Run.Entrypoint == "" {
		parts := strings.Split(fi.Name(), ".")
		parts = parts[:len(parts)-1]
		parts = append(parts, "star")
		s.Run.Entrypoint = strings.Join(parts, ".")
	}
	filedir := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Clean(filepath.Join(filedir, p))
	}
	if isScript(s.Run.Entrypoint) {
		s.Run.Entrypoint = resolve(s.Run.Entrypoint)
	}
	for i, p := range s.Run.Path {
		s.Run.Path[i] = resolve(p)
	}
	if len(s.Run.Path) == 0 {
		s.Run.Path = []string{filepath.Clean(filedir)}
	}
	s.Trace.Output = resolve(s.Trace.Output)
	s.Trace.SQLite = resolve(s.Trace.SQLite)
	return s, nil
}

// ApplyEnv overrides the spec with any of the API_RECORD_* variables that
// getenv returns as non-empty.
func (s *Spec) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvOutputFile); v != "" {
		s.Trace.Output = v
	}
	if v := getenv(EnvImportModules); v != "" {
		s.Run.Imports = nil
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				s.Run.Imports = append(s.Run.Imports, m)
			}
		}
	}
	if v := getenv(EnvRunCall); v != "" {
		s.Run.Call = v
	}
	if v := getenv(EnvRunModule); v != "" {
		s.Run.Entrypoint = v
	}
	if v := getenv(EnvTraceModule); v != "" {
		s.Trace.Module = v
	}
	if v := getenv(EnvFormat); v != "" {
		s.Trace.Format = v
	}
	if v := getenv(EnvMaxLength); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.New(EnvMaxLength + ": " + err.Error())
		}
		s.Trace.MaxLength = n
	}
	return nil
}

func (s *Spec) Validate() error {
	var errs []error
	if s.Trace.Module == "" {
		errs = append(errs, errors.New("trace.module is required"))
	}
	if s.Run.Entrypoint == "" {
		errs = append(errs, errors.New("run.entrypoint is required"))
	}
	if s.Trace.Output == "" && s.Trace.SQLite == "" {
		errs = append(errs, errors.New("one of trace.output or trace.sqlite is required"))
	}
	if _, err := record.ParseFormat(s.Trace.Format); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func isScript(entry string) bool {
	return strings.HasSuffix(entry, ".star")
}
