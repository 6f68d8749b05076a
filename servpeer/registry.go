package servpeer

// Handle is a generational reference to a Peer: resolving a stale
// Handle (one whose Peer has since been torn down, possibly replaced
// by a new Peer reusing the same slot) yields nil rather than a
// dangling pointer. This replaces the teacher/original source's
// back-pointer-plus-refcount dance (spec.md §9 design note) without
// needing deferred reclamation.
type Handle struct {
	id  uint32
	gen uint32
}

// Valid reports whether h was ever issued by a Registry.
func (h Handle) Valid() bool { return h.gen != 0 }

// Registry owns the generation-tagged Peer slots. It is not
// goroutine-safe; per spec.md §5 it is only ever touched from the
// single cooperative event-loop goroutine.
type Registry struct {
	slots []*Peer
	gens  []uint32
	free  []uint32
}

// NewRegistry returns an empty peer registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers p and returns the Handle future lookups must use.
func (r *Registry) Add(p *Peer) Handle {
	var id uint32
	if n := len(r.free); n > 0 {
		id = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		id = uint32(len(r.slots))
		r.slots = append(r.slots, nil)
		r.gens = append(r.gens, 0)
	}
	r.gens[id]++
	r.slots[id] = p
	h := Handle{id: id, gen: r.gens[id]}
	p.Handle = h
	return h
}

// Get resolves h to its live Peer, or nil if h is stale or out of range.
func (r *Registry) Get(h Handle) *Peer {
	if int(h.id) >= len(r.slots) || r.gens[h.id] != h.gen {
		return nil
	}
	return r.slots[h.id]
}

// Remove tears down the Peer at h, if h is still live. The slot's
// generation is bumped so that any entry still holding h will resolve
// to nil on next lookup, and the slot is returned to the free list for
// reuse by a future Add.
func (r *Registry) Remove(h Handle) {
	if int(h.id) >= len(r.slots) || r.gens[h.id] != h.gen {
		return
	}
	r.slots[h.id] = nil
	r.gens[h.id]++
	r.free = append(r.free, h.id)
}

// Peers returns every currently live Peer, in slot order.
func (r *Registry) Peers() []*Peer {
	out := make([]*Peer, 0, len(r.slots))
	for _, p := range r.slots {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of live peers.
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.slots {
		if s != nil {
			n++
		}
	}
	return n
}
