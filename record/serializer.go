package record

import (
	"errors"
	"fmt"

	"github.com/timewinder-dev/apirecord/stdlib"
	"github.com/timewinder-dev/apirecord/vm"
)

// DefaultMaxLength bounds strings, lists, dicts and the parameter mapping.
const DefaultMaxLength = 50

const maxDepth = 32

var ErrTooDeep = errors.New("value nested too deeply")

// Extractor reduces a value of some type to a plain value stored under
// "__v". It is keyed by "<namespace>.<type name>".
type Extractor func(v vm.Value) vm.Value

// Serializer converts runtime values into size-bounded plain values.
type Serializer struct {
	MaxLength  int
	Extractors map[string]Extractor
}

func NewSerializer(maxLength int) *Serializer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Serializer{
		MaxLength:  maxLength,
		Extractors: DefaultExtractors(),
	}
}

func DefaultExtractors() map[string]Extractor {
	return map[string]Extractor{
		"builtins.module": func(v vm.Value) vm.Value {
			return vm.StrValue(v.(*vm.Module).Name)
		},
		"builtins.slice": func(v vm.Value) vm.Value {
			s := v.(vm.SliceValue)
			return vm.NewList([]vm.Value{noneIfNil(s.Start), noneIfNil(s.Stop), noneIfNil(s.Step)})
		},
		"array.ndarray": func(v vm.Value) vm.Value {
			a := v.(*stdlib.NDArray)
			shape := make([]vm.Value, 0, len(a.Shape()))
			for _, n := range a.Shape() {
				shape = append(shape, vm.IntValue(n))
			}
			d := vm.NewDict()
			d.Set(vm.StrValue("shape"), vm.NewList(shape))
			d.Set(vm.StrValue("dtype"), vm.StrValue(a.DType()))
			return d
		},
	}
}

func noneIfNil(v vm.Value) vm.Value {
	if v == nil {
		return vm.None
	}
	return v
}

// Record normalizes a whole record. The function name is truncated like any
// other string and the parameter mapping keeps at most MaxLength entries.
func (s *Serializer) Record(r Record) (Object, error) {
	params := make(Object, 0, min(len(r.Params), s.MaxLength))
	for _, p := range r.Params {
		if len(params) == s.MaxLength {
			break
		}
		v, err := s.normalize(p.Value, 1)
		if err != nil {
			return nil, fmt.Errorf("parameter %s of %s: %w", p.Name, r.Function, err)
		}
		params = append(params, Field{Key: s.truncate(p.Name), Value: v})
	}
	return Object{
		{Key: "function", Value: s.truncate(r.Function)},
		{Key: "params", Value: params},
	}, nil
}

// Normalize converts one value.
func (s *Serializer) Normalize(v vm.Value) (any, error) {
	return s.normalize(v, 0)
}

func (s *Serializer) normalize(v vm.Value, depth int) (any, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}
	switch x := v.(type) {
	case nil, vm.NoneValue:
		return nil, nil
	case vm.BoolValue:
		return bool(x), nil
	case vm.IntValue:
		return int64(x), nil
	case vm.FloatValue:
		return float64(x), nil
	case vm.StrValue:
		return s.truncate(string(x)), nil
	case *vm.ListValue:
		return s.sequence(x.Items, depth)
	case vm.TupleValue:
		items, err := s.sequence(x, depth)
		if err != nil {
			return nil, err
		}
		return Object{{Key: "__tp", Value: "tuple"}, {Key: "value", Value: items}}, nil
	case *vm.DictValue:
		out := Object{}
		var err error
		x.Entries(func(k, val vm.Value) bool {
			if len(out) == s.MaxLength {
				return false
			}
			var nv any
			nv, err = s.normalize(val, depth+1)
			if err != nil {
				return false
			}
			out = append(out, Field{Key: s.truncate(vm.Str(k)), Value: nv})
			return true
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return s.opaque(v, depth)
}

func (s *Serializer) sequence(items []vm.Value, depth int) ([]any, error) {
	n := min(len(items), s.MaxLength)
	out := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := s.normalize(items[i], depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *Serializer) opaque(v vm.Value, depth int) (any, error) {
	tag := typeTag(v)
	out := Object{{Key: "__tp", Value: tag}}
	ex, ok := s.Extractors[tag]
	if !ok {
		return out, nil
	}
	nv, err := s.normalize(ex(v), depth+1)
	if err != nil {
		return nil, err
	}
	return append(out, Field{Key: "__v", Value: nv}), nil
}

func (s *Serializer) truncate(str string) string {
	n := 0
	for i := range str {
		if n == s.MaxLength {
			return str[:i]
		}
		n++
	}
	return str
}

func typeTag(v vm.Value) string {
	if t := vm.TypeOf(v); t != nil {
		return t.Module + "." + t.Name
	}
	return fmt.Sprintf("%T", v)
}
