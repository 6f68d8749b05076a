package pong

import (
	"container/ring"

	"github.com/golang/groupcache/lru"
)

// bucket is one hop-distance slot: an ordered list of cached pongs plus
// a round-robin cursor, grounded on the teacher's peerContactsSet ring
// traversal (peer/peer_store.go).
type bucket struct {
	cursor *ring.Ring // nil when empty
	size   int
}

func (b *bucket) add(p *CachedPong) {
	r := ring.New(1)
	r.Value = p
	if b.cursor == nil {
		b.cursor = r
	} else {
		b.cursor.Link(r)
	}
	b.size++
	p.RefCount++
}

// next yields the next cached pong in round-robin order, or nil if the
// bucket is empty. Repeated calls cycle through every pong once before
// repeating, exactly as spec.md §4.2 requires of next_recent.
func (b *bucket) next() *CachedPong {
	if b.cursor == nil {
		return nil
	}
	b.cursor = b.cursor.Move(1)
	return b.cursor.Value.(*CachedPong)
}

// recentFIFO is the bounded, distinct-host recent-pong list kept per
// host class (spec.md §4.2 "Recent FIFO"): an lru.Cache gives the
// bounded-recency eviction, a ring gives the round-robin traversal
// cursor, and the lru eviction callback keeps both in sync.
type recentFIFO struct {
	cache  *lru.Cache
	cursor *ring.Ring
}

func newRecentFIFO(limit int) *recentFIFO {
	f := &recentFIFO{cache: lru.New(limit)}
	f.cache.OnEvicted = func(_ lru.Key, value interface{}) {
		node := value.(*ring.Ring)
		f.unlink(node)
	}
	return f
}

func (f *recentFIFO) unlink(node *ring.Ring) {
	if node.Len() == 1 {
		f.cursor = nil
		return
	}
	if f.cursor == node {
		f.cursor = node.Next()
	}
	node.Prev().Unlink(1)
}

// add records p under addr if not already present, and returns true if
// it was newly inserted (distinct pongs only, per spec.md §4.2).
func (f *recentFIFO) add(addr string, p *CachedPong) bool {
	if _, ok := f.cache.Get(addr); ok {
		return false
	}
	node := ring.New(1)
	node.Value = p
	if f.cursor == nil {
		f.cursor = node
	} else {
		f.cursor.Link(node)
	}
	f.cache.Add(addr, node)
	p.RefCount++
	return true
}

func (f *recentFIFO) next() *CachedPong {
	if f.cursor == nil {
		return nil
	}
	f.cursor = f.cursor.Move(1)
	return f.cursor.Value.(*CachedPong)
}

func (f *recentFIFO) len() int {
	return f.cache.Len()
}
