package record

// Field is one key of an Object.
type Field struct {
	Key   string
	Value any
}

// Object is a mapping that keeps its key order. Normalized values are nil,
// bool, int64, float64, string, []any and Object.
type Object []Field

func (o Object) Get(key string) (any, bool) {
	for _, f := range o {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Plain converts Objects, at any depth, into maps for encoders that have no
// notion of key order.
func Plain(v any) any {
	switch x := v.(type) {
	case Object:
		m := make(map[string]any, len(x))
		for _, f := range x {
			m[f.Key] = Plain(f.Value)
		}
		return m
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Plain(e)
		}
		return out
	}
	return v
}
