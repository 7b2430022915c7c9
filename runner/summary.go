package runner

import (
	"bufio"
	"cmp"
	"io"
	"slices"

	"github.com/timewinder-dev/apirecord/cas"
	"github.com/valyala/fastjson"
)

const maxLine = 64 << 20

type FunctionCount struct {
	Function string
	Calls    int
	// Unique is the number of distinct parameter sets seen for the function.
	Unique int
}

type Summary struct {
	Records   int
	Invalid   int
	Functions []FunctionCount
}

// Summarize reads a JSON-lines record file and counts the calls per
// function, most called first. Lines that are not records are counted as
// invalid and skipped.
func Summarize(r io.Reader) (*Summary, error) {
	var p fastjson.Parser
	seen := cas.NewMemoryCAS()
	counts := make(map[string]*FunctionCount)
	out := &Summary{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	var key []byte
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		v, err := p.ParseBytes(line)
		if err != nil {
			out.Invalid++
			continue
		}
		fn := v.GetStringBytes("function")
		params := v.Get("params")
		if fn == nil || params == nil || params.Type() != fastjson.TypeObject {
			out.Invalid++
			continue
		}
		out.Records++
		c, ok := counts[string(fn)]
		if !ok {
			c = &FunctionCount{Function: string(fn)}
			counts[c.Function] = c
		}
		c.Calls++

		key = append(key[:0], fn...)
		key = append(key, 0)
		key = params.MarshalTo(key)
		if _, dup := seen.Put(key); !dup {
			c.Unique++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for _, c := range counts {
		out.Functions = append(out.Functions, *c)
	}
	slices.SortFunc(out.Functions, func(a, b FunctionCount) int {
		if n := cmp.Compare(b.Calls, a.Calls); n != 0 {
			return n
		}
		return cmp.Compare(a.Function, b.Function)
	})
	return out, nil
}
