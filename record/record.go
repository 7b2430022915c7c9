// Package record turns captured calls into their wire form and writes them
// to a sink.
package record

import (
	"fmt"
	"strings"

	"github.com/timewinder-dev/apirecord/vm"
)

// Param is one bound argument, named by its parameter or by its position.
type Param struct {
	Name  string
	Value vm.Value
}

// Record is one captured call.
type Record struct {
	Function string
	Params   []Param
}

func (r Record) String() string {
	parts := make([]string, len(r.Params))
	for i, p := range r.Params {
		parts[i] = p.Name + "=" + vm.Repr(p.Value)
	}
	return fmt.Sprintf("%s(%s)", r.Function, strings.Join(parts, ", "))
}

// Sink receives records in capture order. A failed Write affects only that
// record.
type Sink interface {
	Write(rec Record) error
	Flush() error
	Close() error
}

// Format selects the encoding of a stream sink.
type Format string

const (
	JSONL   Format = "jsonl"
	Msgpack Format = "msgpack"
	CBOR    Format = "cbor"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", JSONL:
		return JSONL, nil
	case Msgpack, CBOR:
		return f, nil
	}
	return "", fmt.Errorf("unknown record format %q", s)
}
