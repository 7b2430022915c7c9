package vm

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

var ErrEndOfCode = errors.New("End of code block")

// Program is one compiled module: its top-level code and the functions it
// defines.
type Program struct {
	Name        string
	Filename    string
	Main        *Function
	Definitions map[string]*Function
}

func (p *Program) Resolve(name string) (*Function, bool) {
	f, ok := p.Definitions[name]
	return f, ok
}

// Bind attaches every function of the program to mod and publishes the
// definitions as module members.
func (p *Program) Bind(mod *Module) {
	p.Main.Globals = mod
	for name, f := range p.Definitions {
		f.Globals = mod
		mod.Members[name] = f
	}
}

func (p *Program) DebugPrint(w io.Writer) {
	fmt.Fprintf(w, "*** %s (%s)\n", p.Name, p.Filename)
	p.Main.DebugPrint(w)
	names := make([]string, 0, len(p.Definitions))
	for k := range p.Definitions {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "*** %s:\n", n)
		p.Definitions[n].DebugPrint(w)
	}
}

// Function is a code object. Code is the encoded instruction stream; Consts
// and Names are the tables that instruction arguments index into.
type Function struct {
	Name     string
	Module   string
	Filename string
	Code     []byte
	Consts   []Value
	Names    []string
	Params   []FunctionParam
	Lines    []LineEntry
	// Globals is the module the function was executed in. It is nil until the
	// program is run.
	Globals *Module
}

func (*Function) AsBool() bool { return true }

func (f *Function) Cmp(other Value) (int, bool) {
	return 0, other == Value(f)
}

func (f *Function) DebugPrint(w io.Writer) {
	if len(f.Params) != 0 {
		fmt.Fprintf(w, "Params: %s\n", FormatParams(f.Params))
	}
	for in, err := range Unpack(f.Code) {
		if err != nil {
			fmt.Fprintf(w, "  error: %s\n", err)
			return
		}
		fmt.Fprintf(w, "  %04d: %s\n", in.Offset, f.Describe(in))
	}
}

// Describe renders an instruction with its argument resolved against the
// function's tables.
func (f *Function) Describe(in Instr) string {
	switch in.Code {
	case PUSH_CONST:
		if in.Arg < len(f.Consts) {
			return fmt.Sprintf("%s %d (%s)", in.Code, in.Arg, Repr(f.Consts[in.Arg]))
		}
	case GETVAL, SETVAL, GETATTR, SETATTR, DELATTR, LOAD_METHOD, IMPORT, IMPORT_FROM:
		if in.Arg < len(f.Names) {
			return fmt.Sprintf("%s %d (%s)", in.Code, in.Arg, f.Names[in.Arg])
		}
	case COMPARE:
		if in.Arg < CmpMax {
			return fmt.Sprintf("%s %d (%s)", in.Code, in.Arg, CompareNames[in.Arg])
		}
	}
	if in.Code.ArgKind() == ArgNone {
		return in.Code.String()
	}
	return fmt.Sprintf("%s %d", in.Code, in.Arg)
}

// LineEntry marks the first instruction offset belonging to a source line.
type LineEntry struct {
	Offset int
	Line   int
}

// LineAt returns the source line for the instruction at offset, or 0.
func (f *Function) LineAt(offset int) int {
	line := 0
	for _, e := range f.Lines {
		if e.Offset > offset {
			break
		}
		line = e.Line
	}
	return line
}

func (f *Function) QualifiedName() string {
	return f.Module + "." + f.Name
}

type FunctionParam struct {
	Name        string
	Default     Value
	ArgList     bool
	ArgMap      bool
	KeywordOnly bool
}

func FormatParams(params []FunctionParam) string {
	out := "("
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		switch {
		case p.ArgList:
			out += "*" + p.Name
		case p.ArgMap:
			out += "**" + p.Name
		case p.Default != nil:
			out += p.Name + "=" + Repr(p.Default)
		default:
			out += p.Name
		}
	}
	return out + ")"
}
