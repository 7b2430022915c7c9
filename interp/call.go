package interp

import (
	"fmt"

	"github.com/timewinder-dev/apirecord/vm"
)

// PendingCall is a call taken off the operand stack, ready to dispatch.
type PendingCall struct {
	Fn     vm.Value
	Args   []vm.Value
	Kwargs []vm.Kwarg
}

// PopCall removes the callable and its arguments for the call instruction at
// frame.PC.
func PopCall(frame *StackFrame) (PendingCall, error) {
	inst, err := vm.DecodeAt(frame.Fn.Code, frame.PC)
	if err != nil {
		return PendingCall{}, err
	}
	if len(frame.Stack) < inst.Arg+1 {
		return PendingCall{}, fmt.Errorf("Call stack is too short for %s", inst)
	}
	var c PendingCall
	switch inst.Code {
	case vm.CALL:
		c.Args = frame.PopN(inst.Arg)
		c.Fn = frame.Pop()
	case vm.CALL_KW:
		names, ok := frame.Pop().(vm.TupleValue)
		if !ok || len(names) > inst.Arg {
			return PendingCall{}, fmt.Errorf("Compiler error: CALL_KW without keyword names")
		}
		vals := frame.PopN(inst.Arg)
		npos := inst.Arg - len(names)
		c.Args = vals[:npos]
		for i, n := range names {
			c.Kwargs = append(c.Kwargs, vm.Kwarg{Name: string(n.(vm.StrValue)), Value: vals[npos+i]})
		}
		c.Fn = frame.Pop()
	case vm.CALL_EX:
		var kw vm.Value
		if inst.Arg&vm.CallExHasKwargs != 0 {
			kw = frame.Pop()
		}
		args := frame.Pop()
		c.Fn = frame.Pop()
		items, ok := vm.Elements(args)
		if !ok {
			return PendingCall{}, fmt.Errorf("argument after * must be an iterable, not %s", vm.TypeName(args))
		}
		c.Args = items
		if kw != nil {
			d, ok := kw.(*vm.DictValue)
			if !ok {
				return PendingCall{}, fmt.Errorf("argument after ** must be a mapping, not %s", vm.TypeName(kw))
			}
			for k, v := range d.Entries {
				name, ok := k.(vm.StrValue)
				if !ok {
					return PendingCall{}, fmt.Errorf("keywords must be strings, not %s", vm.TypeName(k))
				}
				c.Kwargs = append(c.Kwargs, vm.Kwarg{Name: string(name), Value: v})
			}
		}
	case vm.CALL_METHOD:
		c.Args = frame.PopN(inst.Arg)
		selfOrFn := frame.Pop()
		m := frame.Pop()
		if m == nil {
			c.Fn = selfOrFn
		} else {
			c.Fn = m
			c.Args = append([]vm.Value{selfOrFn}, c.Args...)
		}
	default:
		return PendingCall{}, fmt.Errorf("%s is not a call instruction", inst.Code)
	}
	return c, nil
}

// BuildCallFrame binds the arguments to fn's parameters in a fresh frame.
func BuildCallFrame(fn *vm.Function, args []vm.Value, kwargs []vm.Kwarg) (*StackFrame, error) {
	vals, err := vm.BindAll(fn.Params, args, kwargs)
	if err != nil {
		return nil, fmt.Errorf("%s(): %w", fn.Name, err)
	}
	frame := NewFrame(fn, nil)
	for i, p := range fn.Params {
		frame.StoreVar(p.Name, vals[i])
	}
	return frame, nil
}

// CallNative invokes anything callable that does not need a frame.
func CallNative(fn vm.Value, args []vm.Value, kwargs []vm.Kwarg) (vm.Value, error) {
	switch f := fn.(type) {
	case *vm.Builtin:
		return f.Call(args, kwargs)
	case *vm.BoundMethod:
		return f.Method.Call(append([]vm.Value{f.Receiver}, args...), kwargs)
	case *vm.Type:
		if f.New == nil {
			return nil, fmt.Errorf("cannot create '%s' instances", f.Name)
		}
		return f.New(args, kwargs)
	}
	return nil, fmt.Errorf("'%s' object is not callable", vm.TypeName(fn))
}
