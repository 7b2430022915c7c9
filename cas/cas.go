// Package cas stores byte blobs by the farm hash of their content.
package cas

import (
	"github.com/dgryski/go-farm"
)

type Hash uint64

// Sum is the content hash of data.
func Sum(data []byte) Hash {
	return Hash(farm.Hash64(data))
}

type CAS interface {
	// Put stores data and reports whether it was already present.
	Put(data []byte) (Hash, bool)
	Has(hash Hash) bool
	Get(hash Hash) ([]byte, bool)
	Len() int
}
