package record

import (
	"bufio"
	"io"
	"sync"
)

// Stream appends encoded records to a writer: one JSON object per line, or
// a concatenation of msgpack or CBOR items.
type Stream struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	ser    *Serializer
	encode func(any) ([]byte, error)
	count  int
}

// NewStream wraps w. If w is an io.Closer, Close closes it.
func NewStream(w io.Writer, format Format, ser *Serializer) *Stream {
	s := &Stream{
		w:      bufio.NewWriter(w),
		ser:    ser,
		encode: encoder(format),
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Write encodes the record fully before any byte reaches the writer, so a
// record that fails to encode leaves no trace in the output.
func (s *Stream) Write(rec Record) error {
	obj, err := s.ser.Record(rec)
	if err != nil {
		return err
	}
	buf, err := s.encode(obj)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(buf)
	if err != nil {
		return err
	}
	s.count++
	return nil
}

// Count is the number of records written.
func (s *Stream) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *Stream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}

func (s *Stream) Close() error {
	err := s.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
