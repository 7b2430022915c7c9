package tracer

import (
	"github.com/rs/zerolog/log"
	"github.com/timewinder-dev/apirecord/interp"
	"github.com/timewinder-dev/apirecord/record"
	"github.com/timewinder-dev/apirecord/vm"
)

// CallSite names one call instruction: the function holding it and its
// offset.
type CallSite struct {
	Code   *vm.Function
	Offset int
}

// Session traces one thread, sending a record to its sink for every
// operation on a value from the target module. A call that was recorded is
// not traced into: neither the callee's frame nor anything below it.
type Session struct {
	Filter
	sink record.Sink

	// call sites recorded whose callee has not been entered yet
	recorded map[CallSite]struct{}
	// code of suppressed callees, skipped wherever it runs
	ignored map[*vm.Function]struct{}

	top         *interp.StackFrame
	err         error
	unsubscribe func()

	emitted int
	failed  int
}

func NewSession(module string, sink record.Sink) *Session {
	return &Session{
		Filter:   Filter{Module: module},
		sink:     sink,
		recorded: make(map[CallSite]struct{}),
		ignored:  make(map[*vm.Function]struct{}),
	}
}

// Attach subscribes the session to th. A session follows one thread at a
// time.
func (s *Session) Attach(th *interp.Thread) {
	s.Detach()
	s.unsubscribe = th.Subscribe(s)
}

func (s *Session) Detach() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Err reports the fault that stopped the session early, if any.
func (s *Session) Err() error {
	return s.err
}

// Emitted is the number of records handed to the sink and Failed the number
// the sink rejected.
func (s *Session) Emitted() int { return s.emitted }
func (s *Session) Failed() int  { return s.failed }

func (s *Session) insideIgnored(frame *interp.StackFrame) bool {
	for f := frame; f != nil && f != s.top; f = f.Back {
		if _, ok := s.ignored[f.Fn]; ok {
			return true
		}
	}
	return false
}

func (s *Session) OnCall(frame *interp.StackFrame) bool {
	if s.top == nil {
		s.top = frame
	}
	if s.insideIgnored(frame) {
		return false
	}
	if frame.Back == nil {
		return true
	}
	key := CallSite{Code: frame.Back.Fn, Offset: frame.Back.PC}
	if _, ok := s.recorded[key]; !ok {
		return true
	}
	delete(s.recorded, key)
	s.ignored[frame.Fn] = struct{}{}
	log.Trace().Str("fn", frame.Fn.QualifiedName()).Msg("suppressing recorded call")
	return false
}

func (s *Session) OnInstruction(frame *interp.StackFrame) {
	if s.insideIgnored(frame) {
		return
	}
	in, err := decodeCurrent(frame.Fn, frame.PC)
	if err != nil {
		log.Error().Err(err).Msg("aborting trace session")
		s.err = err
		s.Detach()
		return
	}
	// a key left by a call that never entered a frame
	delete(s.recorded, CallSite{Code: frame.Fn, Offset: frame.PC})

	for _, c := range classify(frame.Fn, newShadowStack(frame), in) {
		if !s.ShouldTrace(c.gate...) {
			continue
		}
		s.emit(c)
		if c.call {
			s.recorded[CallSite{Code: frame.Fn, Offset: frame.PC}] = struct{}{}
		}
	}
}

func (s *Session) OnReturn(frame *interp.StackFrame) {
	if frame == s.top {
		s.top = nil
	}
}
