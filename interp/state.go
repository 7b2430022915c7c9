package interp

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/timewinder-dev/apirecord/vm"
)

// NewFrame creates the activation for fn. A nil variables map gives the frame
// its own locals.
func NewFrame(fn *vm.Function, variables map[string]vm.Value) *StackFrame {
	if variables == nil {
		variables = make(map[string]vm.Value)
	}
	return &StackFrame{
		Fn:        fn,
		Variables: variables,
	}
}

func (f *StackFrame) Pop() vm.Value {
	if len(f.Stack) == 0 {
		panic("Stack underrun")
	}
	v := f.Stack[len(f.Stack)-1]
	f.Stack = f.Stack[:len(f.Stack)-1]
	return v
}

// PopN removes the top n values and returns them in push order.
func (f *StackFrame) PopN(n int) []vm.Value {
	if n > len(f.Stack) {
		panic("Stack underrun")
	}
	out := make([]vm.Value, n)
	copy(out, f.Stack[len(f.Stack)-n:])
	f.Stack = f.Stack[:len(f.Stack)-n]
	return out
}

func (f *StackFrame) Push(v vm.Value) {
	f.Stack = append(f.Stack, v)
}

func (f *StackFrame) Peek() vm.Value {
	if len(f.Stack) == 0 {
		panic("Stack underrun")
	}
	return f.Stack[len(f.Stack)-1]
}

func (f *StackFrame) StoreVar(key string, value vm.Value) {
	if f.Variables == nil {
		f.Variables = make(map[string]vm.Value)
	}
	f.Variables[key] = value
}

func (f *StackFrame) Has(key string) bool {
	if f.Variables == nil {
		return false
	}
	_, ok := f.Variables[key]
	return ok
}

// Lookup resolves a name: locals, then the module globals, then the universe.
func (f *StackFrame) Lookup(name string) (vm.Value, error) {
	if v, ok := f.Variables[name]; ok {
		return v, nil
	}
	if f.Fn != nil && f.Fn.Globals != nil {
		if v, ok := f.Fn.Globals.Members[name]; ok {
			return v, nil
		}
	}
	if v, ok := vm.Universe[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("name '%s' is not defined", name)
}

// Depth counts the frames from this one to the root of the thread.
func (f *StackFrame) Depth() int {
	n := 0
	for x := f; x != nil; x = x.Back {
		n++
	}
	return n
}

// Location is "file:line" for the current instruction.
func (f *StackFrame) Location() string {
	if f.Fn == nil {
		return "<unknown>"
	}
	line := f.Fn.LineAt(f.PC)
	if line == 0 {
		return fmt.Sprintf("%s@%d", filepath.Base(f.Fn.Filename), f.PC)
	}
	return fmt.Sprintf("%s:%d", filepath.Base(f.Fn.Filename), line)
}

// FormatStack renders the operand stack bottom to top.
func (f *StackFrame) FormatStack() string {
	parts := make([]string, len(f.Stack))
	for i, v := range f.Stack {
		parts[i] = FormatValue(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// FormatValue formats a vm.Value for display, abbreviating long containers.
func FormatValue(v vm.Value) string {
	const limit = 5
	switch val := v.(type) {
	case *vm.ListValue:
		if len(val.Items) > limit {
			return fmt.Sprintf("[%s, ... (%d more)]", joinValues(val.Items[:limit]), len(val.Items)-limit)
		}
	case vm.TupleValue:
		if len(val) > limit {
			return fmt.Sprintf("(%s, ... (%d more))", joinValues(val[:limit]), len(val)-limit)
		}
	case *vm.DictValue:
		if val.Len() > limit {
			return fmt.Sprintf("{... %d entries}", val.Len())
		}
	}
	return vm.Repr(v)
}

func joinValues(vals []vm.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = FormatValue(v)
	}
	return strings.Join(parts, ", ")
}

// PrettyPrint shows the frame chain from f upwards with each frame's locals.
func (f *StackFrame) PrettyPrint() string {
	var result string
	for x, i := f, 0; x != nil; x, i = x.Back, i+1 {
		name := "<unknown>"
		if x.Fn != nil {
			name = x.Fn.QualifiedName()
		}
		result += fmt.Sprintf("Frame %d: %s at %s\n", i, name, x.Location())
		result += fmt.Sprintf("  Stack: %s\n", x.FormatStack())
		keys := make([]string, 0, len(x.Variables))
		for k, v := range x.Variables {
			switch v.(type) {
			case *vm.Function, *vm.Builtin, *vm.Module, *vm.Type:
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			result += fmt.Sprintf("  %s = %s\n", k, FormatValue(x.Variables[k]))
		}
	}
	return result
}
