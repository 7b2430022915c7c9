package interp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/apirecord/vm"
)

// stackView defers formatting the operand stack until a log line is written.
type stackView []vm.Value

func (s stackView) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = FormatValue(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Step executes the instruction at frame.PC. Calls are not performed here:
// Step returns CallStep with the instruction's argument and leaves the PC on
// the call so that the caller can build the callee's frame.
func Step(imp Importer, frame *StackFrame) (StepResult, int, error) {
	if frame == nil || frame.Fn == nil {
		log.Trace().Msg("Step: no frame, returning error")
		return ErrorStep, 0, errors.New("No stack frame")
	}
	inst, err := vm.DecodeAt(frame.Fn.Code, frame.PC)
	if err != nil {
		if errors.Is(err, vm.ErrEndOfCode) {
			log.Trace().Int("pc", frame.PC).Msg("Step: end of code")
			return EndStep, 0, nil
		}
		log.Trace().Err(err).Int("pc", frame.PC).Msg("Step: error decoding instruction")
		return ErrorStep, 0, err
	}

	log.Trace().
		Str("fn", frame.Fn.QualifiedName()).
		Str("opcode", frame.Fn.Describe(inst)).
		Int("pc", frame.PC).
		Int("stack_depth", len(frame.Stack)).
		Stringer("stack", stackView(frame.Stack)).
		Msg("Step: executing instruction")

	next := inst.Next()
	switch inst.Code {
	case vm.NOP:
	case vm.POP:
		frame.Pop()
	case vm.DUP:
		frame.Push(frame.Peek())
	case vm.SWAP:
		b := frame.Pop()
		a := frame.Pop()
		frame.Push(b)
		frame.Push(a)
	case vm.DUP2:
		b := frame.Pop()
		a := frame.Pop()
		frame.Push(a)
		frame.Push(b)
		frame.Push(a)
		frame.Push(b)
	case vm.ROT3:
		c := frame.Pop()
		b := frame.Pop()
		a := frame.Pop()
		frame.Push(c)
		frame.Push(a)
		frame.Push(b)
	case vm.PUSH_CONST:
		frame.Push(frame.Fn.Consts[inst.Arg])
	case vm.GETVAL:
		name := frame.Fn.Names[inst.Arg]
		v, err := frame.Lookup(name)
		if err != nil {
			return ErrorStep, 0, err
		}
		frame.Push(v)
	case vm.SETVAL:
		frame.StoreVar(frame.Fn.Names[inst.Arg], frame.Pop())
	case vm.GETATTR:
		obj := frame.Pop()
		v, err := vm.GetAttr(obj, frame.Fn.Names[inst.Arg])
		if err != nil {
			return ErrorStep, 0, err
		}
		frame.Push(v)
	case vm.SETATTR:
		obj := frame.Pop()
		val := frame.Pop()
		if err := vm.SetAttr(obj, frame.Fn.Names[inst.Arg], val); err != nil {
			return ErrorStep, 0, err
		}
	case vm.DELATTR:
		if err := vm.DelAttr(frame.Pop(), frame.Fn.Names[inst.Arg]); err != nil {
			return ErrorStep, 0, err
		}
	case vm.LOAD_METHOD:
		obj := frame.Pop()
		name := frame.Fn.Names[inst.Arg]
		if m, ok := vm.LookupMethod(obj, name); ok {
			frame.Push(m)
			frame.Push(obj)
			break
		}
		v, err := vm.GetAttr(obj, name)
		if err != nil {
			return ErrorStep, 0, err
		}
		// nil marks the absent method slot
		frame.Push(nil)
		frame.Push(v)
	case vm.GETITEM:
		key := frame.Pop()
		obj := frame.Pop()
		v, err := vm.GetItem(obj, key)
		if err != nil {
			return ErrorStep, 0, err
		}
		frame.Push(v)
	case vm.SETITEM:
		key := frame.Pop()
		obj := frame.Pop()
		val := frame.Pop()
		if err := vm.SetItem(obj, key, val); err != nil {
			return ErrorStep, 0, err
		}
	case vm.DELITEM:
		key := frame.Pop()
		obj := frame.Pop()
		if err := vm.DelItem(obj, key); err != nil {
			return ErrorStep, 0, err
		}
	case vm.NEGATE, vm.POSITIVE, vm.INVERT, vm.NOT:
		v, err := vm.UnaryOp(inst.Code, frame.Pop())
		if err != nil {
			return ErrorStep, 0, err
		}
		frame.Push(v)
	case vm.GET_ITER:
		a := frame.Pop()
		it, ok := vm.Iter(a)
		if !ok {
			return ErrorStep, 0, fmt.Errorf("'%s' object is not iterable", vm.TypeName(a))
		}
		frame.Push(it)
	case vm.FOR_ITER:
		it, ok := frame.Peek().(*vm.IteratorValue)
		if !ok {
			return ErrorStep, 0, fmt.Errorf("Error in compilation; FOR_ITER on %s", vm.TypeName(frame.Peek()))
		}
		if it.Iter.Next() {
			frame.Push(it.Iter.Value())
		} else {
			frame.Pop()
			next = inst.Arg
		}
	case vm.UNPACK_SEQUENCE:
		a := frame.Pop()
		items, ok := vm.Elements(a)
		if !ok {
			return ErrorStep, 0, fmt.Errorf("cannot unpack non-iterable %s object", vm.TypeName(a))
		}
		if len(items) != inst.Arg {
			return ErrorStep, 0, fmt.Errorf("expected %d values to unpack, got %d", inst.Arg, len(items))
		}
		for i := len(items) - 1; i >= 0; i-- {
			frame.Push(items[i])
		}
	case vm.COMPARE:
		b := frame.Pop()
		a := frame.Pop()
		v, err := vm.CompareOp(inst.Arg, a, b)
		if err != nil {
			return ErrorStep, 0, err
		}
		frame.Push(v)
	case vm.JMP:
		next = inst.Arg
	case vm.JFALSE:
		if !frame.Pop().AsBool() {
			next = inst.Arg
		}
	case vm.RETURN:
		log.Trace().Stringer("stack", stackView(frame.Stack)).Msg("  RETURN")
		return ReturnStep, 0, nil
	case vm.BUILD_LIST:
		frame.Push(vm.NewList(frame.PopN(inst.Arg)))
	case vm.BUILD_TUPLE:
		frame.Push(vm.TupleValue(frame.PopN(inst.Arg)))
	case vm.BUILD_DICT:
		kv := frame.PopN(2 * inst.Arg)
		d := vm.NewDict()
		for i := 0; i < len(kv); i += 2 {
			d.Set(kv[i], kv[i+1])
		}
		frame.Push(d)
	case vm.BUILD_SLICE:
		parts := frame.PopN(inst.Arg)
		s := vm.SliceValue{Start: parts[0], Stop: parts[1], Step: vm.None}
		if len(parts) == 3 {
			s.Step = parts[2]
		}
		frame.Push(s)
	case vm.LIST_APPEND:
		v := frame.Pop()
		idx := len(frame.Stack) - inst.Arg
		l, ok := frame.Stack[idx].(*vm.ListValue)
		if !ok {
			return ErrorStep, 0, fmt.Errorf("Error in compilation; LIST_APPEND target is %s", vm.TypeName(frame.Stack[idx]))
		}
		l.Items = append(l.Items, v)
	case vm.BUILD_TUPLE_UNPACK_WITH_CALL:
		var out vm.TupleValue
		for _, it := range frame.PopN(inst.Arg) {
			items, ok := vm.Elements(it)
			if !ok {
				return ErrorStep, 0, fmt.Errorf("argument after * must be an iterable, not %s", vm.TypeName(it))
			}
			out = append(out, items...)
		}
		frame.Push(out)
	case vm.CALL, vm.CALL_KW, vm.CALL_EX, vm.CALL_METHOD:
		log.Trace().Int("argc", inst.Arg).Int("pc", frame.PC).Msg("  " + inst.Code.String())
		return CallStep, inst.Arg, nil
	case vm.IMPORT:
		name := frame.Fn.Names[inst.Arg]
		if imp == nil {
			return ErrorStep, 0, fmt.Errorf("cannot load %q: no importer", name)
		}
		m, err := imp.Import(name)
		if err != nil {
			return ErrorStep, 0, fmt.Errorf("load %q: %w", name, err)
		}
		frame.Push(m)
	case vm.IMPORT_FROM:
		name := frame.Fn.Names[inst.Arg]
		m, ok := frame.Peek().(*vm.Module)
		if !ok {
			return ErrorStep, 0, fmt.Errorf("Error in compilation; IMPORT_FROM on %s", vm.TypeName(frame.Peek()))
		}
		v, ok := m.Members[name]
		if !ok {
			return ErrorStep, 0, fmt.Errorf("cannot import name '%s' from '%s'", name, m.Name)
		}
		frame.Push(v)
	default:
		if inst.Code.IsBinary() {
			b := frame.Pop()
			a := frame.Pop()
			v, err := vm.BinaryOp(inst.Code, a, b)
			if err != nil {
				return ErrorStep, 0, err
			}
			frame.Push(v)
			break
		}
		return ErrorStep, 0, fmt.Errorf("Unhandled opcode %s", inst.Code)
	}
	frame.PC = next
	return ContinueStep, 0, nil
}
