package vm

import (
	"io"
	"strings"

	"go.starlark.net/syntax"
)

// MainModule is the module name given to the entry point script.
const MainModule = "__main__"

func parseOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
	}
}

func LoadFile(name string, module string, r io.Reader) (*Program, error) {
	f, err := parseOptions().Parse(name, r, 0)
	if err != nil {
		return nil, err
	}
	return Compile(f, module)
}

// CompileLiteral compiles source held in memory as the main module.
func CompileLiteral(code string) (*Program, error) {
	return LoadFile("<literal>", MainModule, strings.NewReader(code))
}
