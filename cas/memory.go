package cas

import (
	"sync"
)

// MemoryCAS is an unbounded store that also counts how often each blob was
// put.
type MemoryCAS struct {
	mu     sync.RWMutex
	data   map[Hash][]byte
	counts map[Hash]int
}

func NewMemoryCAS() *MemoryCAS {
	return &MemoryCAS{
		data:   make(map[Hash][]byte),
		counts: make(map[Hash]int),
	}
}

func (m *MemoryCAS) Has(hash Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[hash]
	return ok
}

func (m *MemoryCAS) Get(hash Hash) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[hash]
	return v, ok
}

func (m *MemoryCAS) Put(data []byte) (Hash, bool) {
	h := Sum(data)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[h]++
	if _, ok := m.data[h]; ok {
		return h, true
	}
	m.data[h] = append([]byte(nil), data...)
	return h, false
}

// Count is the number of times the blob with this hash was put.
func (m *MemoryCAS) Count(hash Hash) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counts[hash]
}

func (m *MemoryCAS) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
