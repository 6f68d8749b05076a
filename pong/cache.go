// Package pong implements LimeWire's ping/pong reduction scheme
// (spec.md §4.2): hop-indexed cached pongs, a recent-hosts FIFO per
// host class, and per-peer demultiplexing of fresh pongs back to
// pending pings.
//
// Grounded on the teacher's peer.PeerStore/peerContactsSet for the
// round-robin-over-ring traversal pattern, generalised from "peer
// contacts for an infohash" to "cached pongs at a hop distance" and
// "recently seen hosts of a given class".
package pong

import (
	"math/rand"
	"net"
	"strconv"
	"time"

	"gnutella/hostiles"
	"gnutella/logger"
	"gnutella/servpeer"
)

// HostClass partitions the recent FIFO the way spec.md §4.2 requires.
type HostClass int

const (
	ClassAny HostClass = iota
	ClassUltra
)

// randSource is the minimal randomness a Cache needs: the package-level
// math/rand functions in production (auto-seeded by the Go runtime
// since 1.20 — the teacher doesn't seed explicitly either, so neither
// do we), or a deterministic fake in tests.
type randSource interface {
	Float64() float64
	Intn(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) Intn(n int) int   { return rand.Intn(n) }

// Cache is the process-wide pong store (spec.md §9 "single core
// context" component). It is not goroutine-safe; per spec.md §5 it is
// only ever touched from the single cooperative event-loop goroutine.
type Cache struct {
	cfg *Config
	log logger.DebugLogger
	rng randSource

	buckets     [H + 1]bucket
	recentAny   *recentFIFO
	recentUltra *recentFIFO

	lastPurge time.Time
}

// NewCache builds an empty pong cache.
func NewCache(cfg *Config, log logger.DebugLogger) *Cache {
	if cfg == nil {
		cfg = NewConfig()
	}
	if log == nil {
		log = &logger.NullLogger{}
	}
	return &Cache{
		cfg:         cfg,
		log:         log,
		rng:         globalRand{},
		recentAny:   newRecentFIFO(cfg.RecentFIFOSize),
		recentUltra: newRecentFIFO(cfg.RecentFIFOSize),
		lastPurge:   time.Now(),
	}
}

// Lifespan returns L, the bulk-expiry interval for the servent's mode.
func (c *Cache) Lifespan(mode servpeer.Mode) time.Duration {
	if mode == servpeer.ModeLeaf {
		return c.cfg.LifespanLeaf
	}
	return c.cfg.LifespanUP
}

// MaybeExpire bulk-clears the cache if its lifespan has elapsed,
// returning true if it did (the caller should then re-ping the
// selected neighbour subset, per spec.md §4.2 "Lifespan").
func (c *Cache) MaybeExpire(now time.Time, mode servpeer.Mode) bool {
	if now.Sub(c.lastPurge) < c.Lifespan(mode) {
		return false
	}
	c.buckets = [H + 1]bucket{}
	c.recentAny = newRecentFIFO(c.cfg.RecentFIFOSize)
	c.recentUltra = newRecentFIFO(c.cfg.RecentFIFOSize)
	c.lastPurge = now
	return true
}

// clampHop implements "trimmed to H at insertion (min(received_hops, H))".
func clampHop(hops uint8) int {
	if int(hops) > H {
		return H
	}
	return int(hops)
}

// AdmitPong applies spec.md §4.2 "Pong admission": reachability
// validation, cache-acceptance probability, classification and
// insertion. It returns whether the pong was accepted and whether it
// classifies as ultra; it never panics on a malformed address.
func (c *Cache) AdmitPong(cp *CachedPong, hops uint8, sender *servpeer.Peer, filter *hostiles.Filter, selfAddr net.IP) (accepted, ultra bool) {
	if cp.IP == nil || !filter.IsValid(cp.IP, int(cp.Port)) {
		return false, false
	}
	if filter.IsHostile(cp.IP) {
		return false, false
	}
	if selfAddr != nil && cp.IP.Equal(selfAddr) {
		return false, false
	}
	ultra = cp.IsUltra()

	cacheIt := sender != nil && sender.Caps.PongCaching
	if !cacheIt {
		cacheIt = c.rng.Float64() < c.cfg.OldCacheRatio
	}
	if cacheIt {
		h := clampHop(hops)
		c.buckets[h].add(cp)
		class := c.recentAny
		if ultra {
			class = c.recentUltra
		}
		class.add(net.JoinHostPort(cp.IP.String(), strconv.Itoa(int(cp.Port))), cp)
	}
	return true, ultra
}

// FlushFor drains up to the peer's remaining demultiplexing budget from
// the hop buckets: a first pass that strictly honours per-hop need[],
// then a loose second pass that does not (spec.md §4.2 "Ping admission"
// and §9 design note 3 — the two passes must not be conflated).
func (c *Cache) FlushFor(p *servpeer.Peer) []*CachedPong {
	if p.Demux == nil {
		return nil
	}
	var out []*CachedPong
	budget := p.Demux.PongMissing

	for h := 0; h <= H && budget > 0; h++ {
		take := min(p.Demux.Need[h], c.buckets[h].size, budget)
		for i := 0; i < take; i++ {
			out = append(out, c.buckets[h].next())
		}
		p.Demux.Need[h] -= take
		budget -= take
	}
	for h := 0; h <= H && budget > 0; h++ {
		take := min(c.buckets[h].size, budget)
		for i := 0; i < take; i++ {
			out = append(out, c.buckets[h].next())
		}
		budget -= take
	}
	p.Demux.PongMissing = budget
	return out
}

// InstallDemux installs the per-peer demultiplexing vector for a newly
// accepted ping (spec.md §4.2 "Per-peer demultiplexing state").
func (c *Cache) InstallDemux(p *servpeer.Peer, pingMUID [16]byte) {
	p.Demux = &servpeer.PongDemux{
		PingMUID:    pingMUID,
		PongMissing: c.cfg.MaxPongs,
		Need:        partitionNeed(c.cfg.MaxPongs),
	}
}

// partitionNeed distributes total across hop distances 0..H as
// need[h] = floor(remaining/(H+1-h)). Flooring leaves the remainder to
// the last hops, so shares grow toward the high hops: a total of 10
// with H = 7 gives [1,1,1,1,1,1,2,2].
func partitionNeed(total int) []int {
	need := make([]int, H+1)
	remaining := total
	for h := 0; h <= H; h++ {
		need[h] = remaining / (H + 1 - h)
		remaining -= need[h]
	}
	return need
}
