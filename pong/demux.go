package pong

import "gnutella/servpeer"

// Forward describes one pong to unicast as part of demultiplexing.
type Forward struct {
	Peer *servpeer.Peer
	MUID [16]byte
	Hops uint8
	TTL  uint8
}

// Demultiplex distributes a freshly admitted pong back to every other
// neighbour with pending demux state matching its hop distance (spec.md
// §4.2 "Demultiplex"): same-peer suppression excludes the pong's
// origin, and leaves only accept ultra pongs via demultiplex.
func (c *Cache) Demultiplex(origin servpeer.Handle, hops, receivedTTL uint8, ultra bool, peers []*servpeer.Peer) []Forward {
	h := clampHop(hops)
	var out []Forward
	for _, p := range peers {
		if p == nil || p.Handle == origin {
			continue
		}
		if p.Mode == servpeer.ModeLeaf && !ultra {
			continue
		}
		if p.Demux == nil || p.Demux.PongMissing <= 0 {
			continue
		}
		if p.Demux.Need[h] <= 0 {
			continue
		}
		ttl := receivedTTL
		if ttl < 1 {
			ttl = 1
		}
		out = append(out, Forward{Peer: p, MUID: p.Demux.PingMUID, Hops: hops + 1, TTL: ttl})
		p.Demux.Need[h]--
		p.Demux.PongMissing--
	}
	return out
}

// ReservoirLeafRebroadcast implements spec.md §4.2's final rule and §9
// design note: with probability 1/3, an Ultrapeer additionally forwards
// an ultra pong to one leaf with no pending demultiplex state, chosen
// by classical reservoir sampling (leaf i kept with probability 1/i).
// It returns nil when not applicable or no eligible leaf exists.
func (c *Cache) ReservoirLeafRebroadcast(selfMode servpeer.Mode, ultra bool, leaves []*servpeer.Peer) *servpeer.Peer {
	if selfMode != servpeer.ModeUltrapeer || !ultra {
		return nil
	}
	if c.rng.Intn(3) != 0 {
		return nil
	}
	var chosen *servpeer.Peer
	kept := 0
	for _, leaf := range leaves {
		if leaf == nil || (leaf.Demux != nil && leaf.Demux.PongMissing > 0) {
			continue
		}
		kept++
		if c.rng.Intn(kept) == 0 {
			chosen = leaf
		}
	}
	return chosen
}
