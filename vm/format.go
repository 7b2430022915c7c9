package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Stringer lets native objects control how they print.
type Stringer interface {
	String() string
}

// Str formats a value the way print shows it.
func Str(v Value) string {
	if s, ok := v.(StrValue); ok {
		return string(s)
	}
	return Repr(v)
}

// Repr formats a value for display in disassembly and logs.
func Repr(v Value) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case NoneValue:
		return "None"
	case BoolValue:
		if val {
			return "True"
		}
		return "False"
	case IntValue:
		return strconv.Itoa(int(val))
	case FloatValue:
		s := strconv.FormatFloat(float64(val), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case StrValue:
		return strconv.Quote(string(val))
	case *ListValue:
		return "[" + joinRepr(val.Items) + "]"
	case TupleValue:
		if len(val) == 1 {
			return "(" + Repr(val[0]) + ",)"
		}
		return "(" + joinRepr(val) + ")"
	case *DictValue:
		var parts []string
		for k, x := range val.Entries {
			parts = append(parts, Repr(k)+": "+Repr(x))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case SliceValue:
		return fmt.Sprintf("slice(%s, %s, %s)", Repr(orNone(val.Start)), Repr(orNone(val.Stop)), Repr(orNone(val.Step)))
	case *Function:
		return fmt.Sprintf("<function %s>", val.QualifiedName())
	case *Builtin:
		return fmt.Sprintf("<built-in function %s>", val.Name)
	case *BoundMethod:
		return fmt.Sprintf("<built-in method %s of %s object>", val.Method.Name, TypeName(val.Receiver))
	case *Module:
		return fmt.Sprintf("<module '%s'>", val.Name)
	case *Type:
		return fmt.Sprintf("<class '%s'>", val.Name)
	case *IteratorValue:
		return "<iterator>"
	case Stringer:
		return val.String()
	}
	return fmt.Sprintf("<%s>", TypeName(v))
}

func joinRepr(items []Value) string {
	parts := make([]string, len(items))
	for i, x := range items {
		parts[i] = Repr(x)
	}
	return strings.Join(parts, ", ")
}

func orNone(v Value) Value {
	if v == nil {
		return None
	}
	return v
}
