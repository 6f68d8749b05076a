package query

import (
	"time"

	"github.com/golang/groupcache/lru"

	"gnutella/servpeer"
)

// FirstHopGuard implements spec.md §4.3's first-hop re-query suppression:
// a Leaf re-sending the same query text within RequeryThreshold is
// dropped without re-recording its timestamp.
type FirstHopGuard struct {
	cache     *lru.Cache
	threshold time.Duration
}

type firstHopKey struct {
	peer  servpeer.Handle
	query string
}

// NewFirstHopGuard builds a guard bounded to size distinct (peer,
// query) pairs.
func NewFirstHopGuard(size int, threshold time.Duration) *FirstHopGuard {
	return &FirstHopGuard{cache: lru.New(size), threshold: threshold}
}

// Admit reports whether a query from peer with this text may proceed.
// On the first sighting, or once the threshold has elapsed, it records
// now and returns true; otherwise it returns false and leaves the
// recorded timestamp untouched.
func (g *FirstHopGuard) Admit(peer servpeer.Handle, queryText string, now time.Time) bool {
	k := firstHopKey{peer, queryText}
	if v, ok := g.cache.Get(k); ok {
		if now.Sub(v.(time.Time)) < g.threshold {
			return false
		}
	}
	g.cache.Add(k, now)
	return true
}

// DupWindows implements spec.md §4.3's multi-hop duplicate suppression:
// two sliding windows over "hops/ttl/query" keys, rotated periodically
// so a key ages out after at most two rotation periods — the same
// "tolerate 2 cleanup cycles" shape as the teacher's routing-table
// cleanup, generalised from node liveness to query keys.
type DupWindows struct {
	sizeHint int
	current  map[string]struct{}
	previous map[string]struct{}
}

// NewDupWindows builds an empty pair of windows.
func NewDupWindows(sizeHint int) *DupWindows {
	return &DupWindows{
		sizeHint: sizeHint,
		current:  make(map[string]struct{}, sizeHint),
		previous: make(map[string]struct{}),
	}
}

// Admit reports whether key is new (not present in either window); if
// so it is inserted into the current window.
func (d *DupWindows) Admit(key string) bool {
	if _, ok := d.current[key]; ok {
		return false
	}
	if _, ok := d.previous[key]; ok {
		return false
	}
	d.current[key] = struct{}{}
	return true
}

// Rotate ages the current window into previous and starts a fresh
// current window; call periodically (servent.Core's ~1 Hz tick).
func (d *DupWindows) Rotate() {
	d.previous = d.current
	d.current = make(map[string]struct{}, d.sizeHint)
}
