// Package router implements the Gnutella message router (spec.md §4.1):
// a bounded, time-cycled provenance table keyed by (MUID, function),
// plus the same table reused for Query-Hit-derived servent-id ->
// peer-list provenance that Push routing needs.
//
// Grounded on the teacher's routingTable.RoutingTable: an Addresses map
// indexing into node storage, with Cleanup/Kill lifecycle management.
// Here the node storage is a flat array of fixed-size chunks (spec.md
// explicitly wants round-robin chunks, not a trie), and peers are
// addressed through servpeer.Handle rather than raw pointers, so peer
// teardown needs no explicit back-pointer clearing: Registry.Get
// already returns nil once a handle's generation is stale.
package router

import (
	"net"
	"time"

	"gnutella/guid"
	"gnutella/hostiles"
	"gnutella/logger"
	"gnutella/servpeer"
	"gnutella/wire"
)

// Outcome classifies the result of admitting an incoming request.
type Outcome int

const (
	// OutcomeNew means this is the first sighting of (MUID, function):
	// the entry was inserted and the message should be processed/broadcast.
	OutcomeNew Outcome = iota
	// OutcomeDuplicateOtherPeer means a different peer already sent this
	// message; the sender's route was appended for later back-routing,
	// but the message must not be re-broadcast.
	OutcomeDuplicateOtherPeer
	// OutcomeDuplicateSamePeer means the same peer repeated a message it
	// already sent us: a severe duplicate that contributes to
	// misbehaviour scoring.
	OutcomeDuplicateSamePeer
)

// Router owns the provenance table, the generational peer registry it
// resolves handles against, and the banned-GUID/hostile filters Push
// routing consults.
type Router struct {
	cfg      *Config
	log      logger.DebugLogger
	registry *servpeer.Registry
	banned   *hostiles.BannedGUIDs
	hostile  *hostiles.Filter

	chunks      [][]entry
	index       map[key]*entry
	cursorChunk int
	cursorSlot  int
	lastWrap    time.Time
}

// NewRouter builds a Router with one pre-allocated chunk.
func NewRouter(cfg *Config, registry *servpeer.Registry, banned *hostiles.BannedGUIDs, hostile *hostiles.Filter, log logger.DebugLogger) *Router {
	if cfg == nil {
		cfg = NewConfig()
	}
	if log == nil {
		log = &logger.NullLogger{}
	}
	r := &Router{
		cfg:      cfg,
		log:      log,
		registry: registry,
		banned:   banned,
		hostile:  hostile,
		index:    make(map[key]*entry),
		lastWrap: time.Now(),
	}
	r.chunks = append(r.chunks, make([]entry, cfg.ChunkSize))
	return r
}

// EntryCount returns the number of live (MUID,function) entries.
func (r *Router) EntryCount() int { return len(r.index) }

// Capacity returns N*M, the hard ceiling on live entries (spec.md §8).
func (r *Router) Capacity() int { return r.cfg.ChunkSize * r.cfg.MaxChunks }

// nextSlot returns the chunk slot at the cursor, evicting whatever
// entry currently occupies it, then advances the cursor.
func (r *Router) nextSlot() *entry {
	e := &r.chunks[r.cursorChunk][r.cursorSlot]
	if e.used {
		delete(r.index, e.key)
	}
	r.advance()
	return e
}

func (r *Router) advance() {
	r.cursorSlot++
	if r.cursorSlot < r.cfg.ChunkSize {
		return
	}
	r.cursorSlot = 0
	r.cursorChunk++
	if r.cursorChunk < len(r.chunks) {
		return
	}
	// Cursor walked off the end of the last allocated chunk: wrap if
	// the chunk ceiling is reached, or enough time has passed since the
	// last wrap; otherwise grow.
	if len(r.chunks) >= r.cfg.MaxChunks || time.Since(r.lastWrap) >= r.cfg.MinWrapInterval {
		r.cursorChunk = 0
		r.lastWrap = time.Now()
		return
	}
	r.chunks = append(r.chunks, make([]entry, r.cfg.ChunkSize))
}

func (r *Router) insertRoute(k key, rd *routeData) *entry {
	e := r.nextSlot()
	e.used = true
	e.key = k
	e.routes = []*routeData{rd}
	e.insertedAt = time.Now()
	r.index[k] = e
	return e
}

// RecordSelf records a message this node originated, using the
// distinguished self sentinel in place of a peer route.
func (r *Router) RecordSelf(muid [16]byte, function byte) {
	r.insertRoute(key{id: muid, function: function}, &routeData{self: true, refs: 1})
}

// AdmitRequest enforces the TTL/hops failure semantics of spec.md §4.1
// "Failure semantics". sender may be nil for requests without an
// established Peer (e.g. self-originated).
func (r *Router) AdmitRequest(sender *servpeer.Peer, hops, ttl uint8) error {
	if ttl == 0 {
		if sender == nil || sender.Mode != servpeer.ModeLeaf {
			bump(KindTTLExceeded)
			return ErrTTLExceeded
		}
	}
	if hops == 255 {
		if sender != nil {
			sender.Counters.BadData++
		}
		bump(KindHopsExceeded)
		return ErrHopsExceeded
	}
	sum := uint16(hops) + uint16(ttl)
	if sum > uint16(r.cfg.HardTTLLimit) {
		if sender != nil {
			sender.Counters.BadData++
		}
		bump(KindHopsExceeded)
		return ErrHopsExceeded
	}
	return nil
}

// HandleRequest applies duplicate detection to an incoming broadcast
// request (spec.md §4.1 "Duplicate detection"). sender must already be
// registered in the Router's peer registry.
func (r *Router) HandleRequest(muid [16]byte, function byte, sender servpeer.Handle) Outcome {
	if p := r.registry.Get(sender); p != nil {
		p.Counters.Received++
	}
	k := key{id: muid, function: function}
	e := r.index[k]
	if e == nil {
		r.insertRoute(k, &routeData{handle: sender, refs: 1})
		return OutcomeNew
	}
	bump(KindDuplicate)
	if e.findRoute(sender) != nil {
		if p := r.registry.Get(sender); p != nil {
			p.Counters.Dups++
		}
		return OutcomeDuplicateSamePeer
	}
	e.routes = append(e.routes, &routeData{handle: sender, refs: 1})
	return OutcomeDuplicateOtherPeer
}

// ShouldDisconnectForDupFlood implements spec.md §9 design note (1)
// verbatim, including its "bug": anti-flood is disabled whenever
// connectedNodes does not exceed max(2, upConnections).
func (r *Router) ShouldDisconnectForDupFlood(p *servpeer.Peer, connectedNodes, upConnections int) bool {
	if connectedNodes <= max(2, upConnections) {
		return false
	}
	if p.Counters.Dups <= r.cfg.MinDupMsg {
		return false
	}
	return p.Counters.Dups*10000 > p.Counters.Received*r.cfg.MinDupRatioPerTenThousand
}

// BackRoute resolves the reply path for an incoming non-Query-Hit reply
// (spec.md §4.1 "Reply back-routing"). sender is penalised on a
// spurious (routeless) reply but not when the route has merely expired.
func (r *Router) BackRoute(muid [16]byte, replyFunction byte, replyHops uint8, sender servpeer.Handle) (peer *servpeer.Peer, replyTTL uint8, self bool, err error) {
	k := key{id: muid, function: wire.ReplyFunctionOf(replyFunction)}
	e := r.index[k]
	if e == nil {
		bump(KindNoRoute)
		if p := r.registry.Get(sender); p != nil {
			p.Counters.BadData++
		}
		return nil, 0, false, ErrNoRoute
	}
	if e.hasSelf() {
		return nil, 0, true, nil
	}
	live := e.liveRoutes(r.registry)
	if len(live) == 0 {
		bump(KindRouteLost)
		return nil, 0, false, ErrRouteLost
	}
	sum := uint16(replyHops) + 5
	if sum > uint16(r.cfg.HardTTLLimit) {
		sum = uint16(r.cfg.HardTTLLimit)
	}
	return live[0], uint8(sum), false, nil
}

// RecordQueryHitProvenance records (or revitalises) the servent-id ->
// peer route used by Push routing (spec.md §4.1 "Query Hit provenance").
func (r *Router) RecordQueryHitProvenance(serventID [16]byte, sender servpeer.Handle) {
	k := key{id: serventID, function: queryHitRouteSave}
	e := r.index[k]
	if e == nil {
		r.insertRoute(k, &routeData{handle: sender, refs: 1})
		return
	}
	if e.findRoute(sender) == nil {
		e.routes = append(e.routes, &routeData{handle: sender, refs: 1})
	}
	r.revitalise(e)
}

// revitalise relocates e to the cursor's current slot, extending its
// lifetime by at least MinWrapInterval before it can be overwritten.
func (r *Router) revitalise(e *entry) {
	newSlot := r.nextSlot()
	if newSlot == e {
		// Cursor wrapped exactly onto the entry being revitalised; it
		// already occupies the freshest slot.
		e.insertedAt = time.Now()
		return
	}
	*newSlot = entry{used: true, key: e.key, routes: e.routes, insertedAt: time.Now()}
	r.index[e.key] = newSlot
	e.used = false
	e.routes = nil
}

// RoutePush resolves the route(s) for an incoming Push targeting
// serventID (spec.md §4.1 "Push routing" and "Banning & hostile
// filtering"). selfID is this servent's own GUID; targetAddr, if
// non-nil, is the Push's carried target address checked against the
// hostiles set.
func (r *Router) RoutePush(serventID, selfID [16]byte, targetAddr net.IP) ([]*servpeer.Peer, bool, error) {
	if r.banned != nil && r.banned.Contains(guid.GUID(serventID)) {
		bump(KindBannedGUID)
		return nil, false, ErrBannedGUID
	}
	if targetAddr != nil && r.hostile != nil && r.hostile.IsHostile(targetAddr) {
		bump(KindHostileIP)
		return nil, false, ErrHostileIP
	}
	if serventID == selfID {
		return nil, true, nil
	}
	k := key{id: serventID, function: queryHitRouteSave}
	e := r.index[k]
	if e == nil {
		bump(KindNoRoute)
		return nil, false, ErrNoRoute
	}
	live := e.liveRoutes(r.registry)
	if len(live) == 0 {
		bump(KindRouteLost)
		return nil, false, ErrRouteLost
	}
	return live, false, nil
}

// Teardown is a documented no-op: because route-data addresses peers
// through a generational servpeer.Handle, Registry.Remove already makes
// every stale route resolve to nil on next lookup. Kept so callers have
// one obvious place to call on peer disconnect, matching spec.md's
// "Peer teardown" responsibility without needing back-pointers.
func (r *Router) Teardown(servpeer.Handle) {}
