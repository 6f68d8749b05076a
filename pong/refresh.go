package pong

import (
	"time"

	"gnutella/servpeer"
)

// SelectRefreshTargets picks approximately max(MinUPPing, UPPingRatio
// × |candidates|) candidates uniformly at random to ping on cache
// expiry (spec.md §4.2 "Neighbour refresh").
func (c *Cache) SelectRefreshTargets(candidates []*servpeer.Peer) []*servpeer.Peer {
	n := int(float64(len(candidates)) * c.cfg.UPPingRatio)
	if n < c.cfg.MinUPPing {
		n = c.cfg.MinUPPing
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	if n <= 0 {
		return nil
	}
	shuffled := append([]*servpeer.Peer(nil), candidates...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := c.rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}

// DueForLegacyPing reports whether a non-caching legacy peer may be
// pinged again: at most once per OLD_PING_PERIOD (spec.md §4.2
// "Neighbour refresh").
func (c *Cache) DueForLegacyPing(p *servpeer.Peer, now time.Time) bool {
	if p.Caps.PongCaching {
		return true
	}
	return now.Sub(p.LastPingedAt) >= c.cfg.OldPingPeriod
}
