package record

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/shamaton/msgpack/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("record: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// EncodeJSON writes a normalized value as one line of JSON, keeping the key
// order of Objects.
func EncodeJSON(v any) ([]byte, error) {
	s := json.BorrowStream(nil)
	defer json.ReturnStream(s)
	writeJSON(s, v)
	if s.Error != nil {
		return nil, s.Error
	}
	s.WriteRaw("\n")
	return append([]byte(nil), s.Buffer()...), nil
}

func writeJSON(s *jsoniter.Stream, v any) {
	switch x := v.(type) {
	case Object:
		s.WriteObjectStart()
		for i, f := range x {
			if i > 0 {
				s.WriteMore()
			}
			s.WriteObjectField(f.Key)
			writeJSON(s, f.Value)
		}
		s.WriteObjectEnd()
	case []any:
		s.WriteArrayStart()
		for i, e := range x {
			if i > 0 {
				s.WriteMore()
			}
			writeJSON(s, e)
		}
		s.WriteArrayEnd()
	default:
		s.WriteVal(x)
	}
}

// EncodeMsgpack encodes a normalized value as a single msgpack item.
func EncodeMsgpack(v any) ([]byte, error) {
	return msgpack.Marshal(Plain(v))
}

// EncodeCBOR encodes a normalized value in canonical CBOR, so equal records
// always produce equal bytes.
func EncodeCBOR(v any) ([]byte, error) {
	return cborEncMode.Marshal(Plain(v))
}

func encoder(f Format) func(any) ([]byte, error) {
	switch f {
	case Msgpack:
		return EncodeMsgpack
	case CBOR:
		return EncodeCBOR
	}
	return EncodeJSON
}
