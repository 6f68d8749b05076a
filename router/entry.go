package router

import (
	"time"

	"gnutella/servpeer"
)

// queryHitRouteSave is the distinguished pseudo-function used to key
// servent-id provenance records (spec.md §4.1 "Query Hit provenance").
// It can never collide with a real Gnutella function code: the highest
// one in use is Query Hit (0x81).
const queryHitRouteSave = 0xFF

// key indexes the auxiliary hash table: (MUID, function) for ordinary
// routing entries, or (servent-id, queryHitRouteSave) for provenance
// records.
type key struct {
	id       [16]byte
	function byte
}

// routeData is a weak reference to a Peer plus a count of entries that
// reference it (spec.md §3 "Routing entry"). Because Peer is addressed
// through a generational servpeer.Handle rather than a raw pointer,
// teardown never needs to null anything out here: Registry.Get(handle)
// already resolves to nil once the peer is gone. The refs counter is
// kept anyway, matching spec.md's explicit invariant that route-data
// persists "until every entry referencing it expires".
type routeData struct {
	self   bool
	handle servpeer.Handle
	refs   int
}

func (rd *routeData) resolve(reg *servpeer.Registry) *servpeer.Peer {
	if rd.self {
		return nil
	}
	return reg.Get(rd.handle)
}

// entry is one slot of a chunk: the provenance record for a single
// (MUID, function) or (servent-id, queryHitRouteSave) key.
type entry struct {
	used       bool
	key        key
	routes     []*routeData
	insertedAt time.Time
}

func (e *entry) findRoute(h servpeer.Handle) *routeData {
	for _, rd := range e.routes {
		if !rd.self && rd.handle == h {
			return rd
		}
	}
	return nil
}

func (e *entry) hasSelf() bool {
	for _, rd := range e.routes {
		if rd.self {
			return true
		}
	}
	return false
}

// liveRoutes returns the route-data entries whose Peer is still
// resolvable, in insertion order, oldest (first recorded) first.
func (e *entry) liveRoutes(reg *servpeer.Registry) []*servpeer.Peer {
	live := make([]*servpeer.Peer, 0, len(e.routes))
	for _, rd := range e.routes {
		if rd.self {
			continue
		}
		if p := reg.Get(rd.handle); p != nil {
			live = append(live, p)
		}
	}
	return live
}
