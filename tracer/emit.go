package tracer

import (
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/apirecord/record"
	"github.com/timewinder-dev/apirecord/vm"
)

// unbind rewrites a native method bound to an instance into the type's
// method with the receiver as first argument. Module members stay as they
// are.
func unbind(fn vm.Value, args []vm.Value) (vm.Value, []vm.Value) {
	bm, ok := fn.(*vm.BoundMethod)
	if !ok {
		return fn, args
	}
	if _, ok := bm.Receiver.(*vm.Module); ok {
		return fn, args
	}
	return bm.Method, append([]vm.Value{bm.Receiver}, args...)
}

// bindParams names the arguments after the callable's parameters. Callables
// that hide their signature, or calls that do not fit it, get the keyword
// arguments followed by positional index keys.
func bindParams(fn vm.Value, args []vm.Value, kwargs []vm.Kwarg) []record.Param {
	if params, ok := vm.Signature(fn); ok {
		bound, err := vm.Bind(params, args, kwargs)
		if err == nil {
			out := make([]record.Param, len(bound))
			for i, b := range bound {
				out[i] = record.Param{Name: b.Name, Value: b.Value}
			}
			return out
		}
		log.Debug().Err(err).Msg("binding by position")
	}
	out := make([]record.Param, 0, len(kwargs)+len(args))
	for _, kw := range kwargs {
		out = append(out, record.Param{Name: kw.Name, Value: kw.Value})
	}
	for i, a := range args {
		out = append(out, record.Param{Name: strconv.Itoa(i), Value: a})
	}
	return out
}

// Build resolves a captured operation into a record.
func Build(fn vm.Value, args []vm.Value, kwargs []vm.Kwarg) (record.Record, error) {
	fn, args = unbind(fn, args)
	name, err := vm.QualifiedName(fn)
	if err != nil {
		return record.Record{}, err
	}
	return record.Record{Function: name, Params: bindParams(fn, args, kwargs)}, nil
}

func (s *Session) emit(c capture) {
	rec, err := Build(c.fn, c.args, c.kwargs)
	if err != nil {
		log.Warn().Err(err).Msg("dropping record")
		return
	}
	log.Debug().Str("record", rec.String()).Msg("captured")
	s.emitted++
	if err := s.sink.Write(rec); err != nil {
		s.failed++
		log.Warn().Err(err).Str("function", rec.Function).Msg("record not written")
	}
}
