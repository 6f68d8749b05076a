package pong

import (
	"net"

	"gnutella/servpeer"
)

// CachedPong is one remembered "I am here" announcement (spec.md §3
// "Cached pong"). RefCount mirrors the quantified invariant in spec.md
// §8: it must equal the number of containers (hop bucket + recent
// FIFOs) currently holding the pong.
type CachedPong struct {
	RefCount   int
	Origin     servpeer.Handle
	LastSentTo servpeer.Handle
	IP         net.IP
	Port       uint16
	Files      uint32
	KB         uint32
	ReceivedAt int64 // unix seconds, set by the caller at insertion time
}

// IsUltra reports whether this pong advertises ultra status: its
// kilobyte count is at least 8 and is a power of two (spec.md §3, and
// the KB=8/KB=7/KB=16 boundary behaviours of spec.md §8).
func (p *CachedPong) IsUltra() bool {
	return p.KB >= 8 && p.KB&(p.KB-1) == 0
}
