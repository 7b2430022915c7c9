package record

import (
	"sync"

	"github.com/timewinder-dev/apirecord/cas"
)

// Dedupe drops records whose normalized form was seen recently and passes
// the rest to the next sink. Equality is decided on the canonical CBOR
// encoding, so two records are the same when they would serialize the same.
type Dedupe struct {
	mu      sync.Mutex
	next    Sink
	ser     *Serializer
	seen    cas.CAS
	dropped int
}

func NewDedupe(next Sink, ser *Serializer, seen cas.CAS) *Dedupe {
	return &Dedupe{next: next, ser: ser, seen: seen}
}

func (d *Dedupe) Write(rec Record) error {
	obj, err := d.ser.Record(rec)
	if err != nil {
		return err
	}
	key, err := EncodeCBOR(obj)
	if err != nil {
		return err
	}
	d.mu.Lock()
	_, dup := d.seen.Put(key)
	if dup {
		d.dropped++
	}
	d.mu.Unlock()
	if dup {
		return nil
	}
	return d.next.Write(rec)
}

// Dropped is the number of records not passed on.
func (d *Dedupe) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

func (d *Dedupe) Flush() error { return d.next.Flush() }
func (d *Dedupe) Close() error { return d.next.Close() }
