package vm

// Type describes the class of a value. Calling a Type with a New function
// constructs a value of that type.
type Type struct {
	Module  string
	Name    string
	Methods map[string]*Builtin
	New     BuiltinFunc
	Params  []FunctionParam
}

func (*Type) AsBool() bool { return true }

func (t *Type) Cmp(other Value) (int, bool) {
	return 0, other == Value(t)
}

// Method returns a named method. Method names on builtin types carry the type
// name so that unbound methods resolve to "<module>.<type>.<method>".
func (t *Type) Method(name string) (*Builtin, bool) {
	if t == nil || t.Methods == nil {
		return nil, false
	}
	m, ok := t.Methods[name]
	return m, ok
}

// AddMethods registers native methods on the type, qualifying each name.
func (t *Type) AddMethods(methods map[string]*Builtin) {
	if t.Methods == nil {
		t.Methods = make(map[string]*Builtin)
	}
	for name, m := range methods {
		if m.Module == "" {
			m.Module = t.Module
		}
		m.Name = t.Name + "." + name
		t.Methods[name] = m
	}
}

type Kwarg struct {
	Name  string
	Value Value
}

type BuiltinFunc func(args []Value, kwargs []Kwarg) (Value, error)

// Builtin is a natively implemented callable. Params is nil when the callable
// does not expose its signature.
type Builtin struct {
	Module string
	Name   string
	Params []FunctionParam
	Fn     BuiltinFunc
}

func (*Builtin) AsBool() bool { return true }

func (b *Builtin) Cmp(other Value) (int, bool) {
	return 0, other == Value(b)
}

func (b *Builtin) Call(args []Value, kwargs []Kwarg) (Value, error) {
	return b.Fn(args, kwargs)
}

var (
	NoneType     = &Type{Module: "builtins", Name: "NoneType"}
	BoolType     = &Type{Module: "builtins", Name: "bool"}
	IntType      = &Type{Module: "builtins", Name: "int"}
	FloatType    = &Type{Module: "builtins", Name: "float"}
	StrType      = &Type{Module: "builtins", Name: "str"}
	ListType     = &Type{Module: "builtins", Name: "list"}
	TupleType    = &Type{Module: "builtins", Name: "tuple"}
	DictType     = &Type{Module: "builtins", Name: "dict"}
	SliceType    = &Type{Module: "builtins", Name: "slice"}
	FunctionType = &Type{Module: "builtins", Name: "function"}
	BuiltinType  = &Type{Module: "builtins", Name: "builtin_function_or_method"}
	ModuleType   = &Type{Module: "builtins", Name: "module"}
	TypeType     = &Type{Module: "builtins", Name: "type"}
	IteratorType = &Type{Module: "builtins", Name: "iterator"}
)

// TypeOf returns the type of any value. Unknown Go types yield nil.
func TypeOf(v Value) *Type {
	switch x := v.(type) {
	case Object:
		return x.Type()
	case NoneValue:
		return NoneType
	case BoolValue:
		return BoolType
	case IntValue:
		return IntType
	case FloatValue:
		return FloatType
	case StrValue:
		return StrType
	case *ListValue:
		return ListType
	case TupleValue:
		return TupleType
	case *DictValue:
		return DictType
	case SliceValue:
		return SliceType
	case *Function:
		return FunctionType
	case *Builtin, *BoundMethod:
		return BuiltinType
	case *Module:
		return ModuleType
	case *Type:
		return TypeType
	case *IteratorValue:
		return IteratorType
	}
	return nil
}
