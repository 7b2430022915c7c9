package cas

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultWindow is the LRUCache size used when none is given.
const DefaultWindow = 1000

// LRUCache is a bounded store that forgets the least recently used blob once
// it holds maxSize of them.
type LRUCache struct {
	cache   *lru.Cache[Hash, []byte]
	maxSize int
}

// NewLRUCache creates a cache holding at most maxSize blobs (0 or negative
// means DefaultWindow).
func NewLRUCache(maxSize int) *LRUCache {
	if maxSize <= 0 {
		maxSize = DefaultWindow
	}
	c, err := lru.New[Hash, []byte](maxSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &LRUCache{cache: c, maxSize: maxSize}
}

// Put marks the blob as most recently used.
func (l *LRUCache) Put(data []byte) (Hash, bool) {
	h := Sum(data)
	if _, ok := l.cache.Get(h); ok {
		return h, true
	}
	l.cache.Add(h, append([]byte(nil), data...))
	return h, false
}

// Has does not change the recency of the blob.
func (l *LRUCache) Has(hash Hash) bool {
	return l.cache.Contains(hash)
}

func (l *LRUCache) Get(hash Hash) ([]byte, bool) {
	return l.cache.Get(hash)
}

func (l *LRUCache) Len() int {
	return l.cache.Len()
}

// CacheStats returns cache statistics for monitoring
type CacheStats struct {
	Size    int
	MaxSize int
}

func (l *LRUCache) Stats() CacheStats {
	return CacheStats{
		Size:    l.cache.Len(),
		MaxSize: l.maxSize,
	}
}
