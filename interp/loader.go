package interp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/apirecord/vm"
)

var ErrModuleNotFound = errors.New("module not found")

// Loader resolves module names to native modules or to .star scripts on a
// search path. Script modules run their top-level code once, on a thread of
// their own with no hooks, and are cached.
type Loader struct {
	Path    []string
	natives map[string]*vm.Module
	modules map[string]*vm.Module
	loading map[string]bool
}

func NewLoader(path ...string) *Loader {
	l := &Loader{
		Path:    path,
		natives: make(map[string]*vm.Module),
		modules: make(map[string]*vm.Module),
		loading: make(map[string]bool),
	}
	l.Register(vm.OperatorModule)
	return l
}

// Register makes a native module importable under its name.
func (l *Loader) Register(m *vm.Module) {
	l.natives[m.Name] = m
}

// Find returns the script file for a dotted module name.
func (l *Loader) Find(name string) (string, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(name, ".", "/")) + ".star"
	for _, dir := range l.Path {
		p := filepath.Join(dir, rel)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrModuleNotFound, name)
}

// Compile compiles the script for name, giving its code the module name as.
func (l *Loader) Compile(name, as string) (*vm.Program, error) {
	path, err := l.Find(name)
	if err != nil {
		return nil, err
	}
	return vm.CompilePath(path, as)
}

func (l *Loader) Import(name string) (*vm.Module, error) {
	if m, ok := l.natives[name]; ok {
		return m, nil
	}
	if m, ok := l.modules[name]; ok {
		return m, nil
	}
	if l.loading[name] {
		return nil, fmt.Errorf("import cycle through %s", name)
	}
	prog, err := l.Compile(name, name)
	if err != nil {
		return nil, err
	}
	l.loading[name] = true
	defer delete(l.loading, name)

	log.Debug().Str("module", name).Str("file", prog.Filename).Msg("loading module")
	mod := vm.NewModule(name)
	if err := NewThread(l).Exec(prog, mod); err != nil {
		return nil, fmt.Errorf("initializing %s: %w", name, err)
	}
	l.modules[name] = mod
	return mod, nil
}
