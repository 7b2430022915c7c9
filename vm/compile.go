package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
	"go.starlark.net/syntax"
)

// Op is an instruction before layout. Jumps carry a Label that is resolved
// to a byte offset when the function is assembled.
type Op struct {
	Code  Opcode
	Arg   int
	Label string
	Line  int
}

func (o Op) String() string {
	switch {
	case o.Code == LABEL:
		return "LABEL " + o.Label
	case o.Code.ArgKind() == ArgJump:
		return fmt.Sprintf("%s %s", o.Code, o.Label)
	case o.Code.ArgKind() == ArgNone:
		return o.Code.String()
	}
	return fmt.Sprintf("%s %d", o.Code, o.Arg)
}

type loopLabels struct {
	cont    string
	brk     string
	forLoop bool
}

type compileContext struct {
	name       string
	module     string
	filename   string
	ops        []Op
	topLevel   bool
	subContext map[string]*compileContext
	params     []FunctionParam
	consts     []Value
	names      []string
	nameIdx    map[string]int
	loops      []loopLabels
	line       int
}

func newCompileContext(name, module, filename string) *compileContext {
	return &compileContext{
		name:       name,
		module:     module,
		filename:   filename,
		subContext: make(map[string]*compileContext),
		nameIdx:    make(map[string]int),
	}
}

func (cc *compileContext) DebugPrint(w io.Writer) {
	fmt.Fprintf(w, "%s params: %s\n", cc.name, FormatParams(cc.params))
	for _, o := range cc.ops {
		fmt.Fprintf(w, "\t%s\n", o)
	}
	for _, k := range sortedKeys(cc.subContext) {
		cc.subContext[k].DebugPrint(w)
	}
}

func (cc *compileContext) setLine(n syntax.Node) {
	start, _ := n.Span()
	if start.Line > 0 {
		cc.line = int(start.Line)
	}
}

func (cc *compileContext) emit(op Opcode) {
	cc.ops = append(cc.ops, Op{Code: op, Line: cc.line})
}

func (cc *compileContext) emitArg(op Opcode, arg int) {
	cc.ops = append(cc.ops, Op{Code: op, Arg: arg, Line: cc.line})
}

func (cc *compileContext) emitJump(op Opcode, label string) {
	cc.ops = append(cc.ops, Op{Code: op, Label: label, Line: cc.line})
}

func (cc *compileContext) emitName(op Opcode, name string) {
	cc.emitArg(op, cc.nameIndex(name))
}

func (cc *compileContext) emitConst(v Value) {
	cc.emitArg(PUSH_CONST, cc.constIndex(v))
}

func (cc *compileContext) newLabel() string {
	return uuid.NewString()
}

func (cc *compileContext) emitLabel(s string) {
	cc.ops = append(cc.ops, Op{Code: LABEL, Label: s})
}

func (cc *compileContext) nameIndex(name string) int {
	if i, ok := cc.nameIdx[name]; ok {
		return i
	}
	i := len(cc.names)
	cc.names = append(cc.names, name)
	cc.nameIdx[name] = i
	return i
}

func (cc *compileContext) constIndex(v Value) int {
	for i, c := range cc.consts {
		if sameConst(c, v) {
			return i
		}
	}
	cc.consts = append(cc.consts, v)
	return len(cc.consts) - 1
}

// sameConst requires matching Go types so that 1, 1.0 and True stay distinct.
func sameConst(a, b Value) bool {
	if fmt.Sprintf("%T", a) != fmt.Sprintf("%T", b) {
		return false
	}
	return Equal(a, b)
}

func CompilePath(path string, module string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadFile(path, module, f)
}

func Compile(file *syntax.File, module string) (*Program, error) {
	cc, err := buildCompileContextTree(file, module)
	if err != nil {
		return nil, err
	}
	return cc.intoProgram()
}

func (cc *compileContext) intoProgram() (*Program, error) {
	p := &Program{
		Name:        cc.module,
		Filename:    cc.filename,
		Definitions: make(map[string]*Function),
	}
	if !cc.topLevel {
		return nil, errors.New("Can't make a program out of a non-top-level context")
	}
	f, err := cc.intoFunction()
	if err != nil {
		return nil, err
	}
	p.Main = f
	for k, v := range cc.subContext {
		f, err := v.intoFunction()
		if err != nil {
			return nil, err
		}
		p.Definitions[k] = f
	}
	return p, nil
}

// intoFunction lays out the ops. Jump arguments have a fixed width, so label
// offsets are known after a single sizing pass.
func (cc *compileContext) intoFunction() (*Function, error) {
	f := &Function{
		Name:     cc.name,
		Module:   cc.module,
		Filename: cc.filename,
		Consts:   cc.consts,
		Names:    cc.names,
		Params:   cc.params,
	}
	offsets := make(map[string]int)
	off := 0
	for _, o := range cc.ops {
		if o.Code == LABEL {
			offsets[o.Label] = off
			continue
		}
		off += encodedSize(o.Code, o.Arg)
	}
	lastLine := 0
	for _, o := range cc.ops {
		if o.Code == LABEL {
			continue
		}
		arg := o.Arg
		if o.Code.ArgKind() == ArgJump {
			target, ok := offsets[o.Label]
			if !ok {
				return nil, fmt.Errorf("%s: jump to undefined label %s", cc.name, o.Label)
			}
			arg = target
		}
		if o.Line != 0 && o.Line != lastLine {
			f.Lines = append(f.Lines, LineEntry{Offset: len(f.Code), Line: o.Line})
			lastLine = o.Line
		}
		f.Code = appendInstr(f.Code, o.Code, arg)
	}
	return f, nil
}

func buildCompileContextTree(file *syntax.File, module string) (*compileContext, error) {
	cc := newCompileContext("<module>", module, file.Path)
	cc.topLevel = true
	err := cc.buildFromStatements(file.Stmts)
	if err != nil {
		return nil, err
	}
	return cc, nil
}

func (cc *compileContext) buildFromStatements(stmts []syntax.Stmt) error {
	for _, s := range stmts {
		err := cc.statement(s)
		if err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
