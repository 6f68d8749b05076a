// Package throttle implements the per-client admission throttle
// referenced (but whose source was not retrieved) as d.clientThrottle
// in the teacher's dht.go: an LRU-bounded per-IP request counter reset
// once a minute, protecting the servent from spammy clients.
package throttle

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// ClientThrottle rate-limits incoming packets per source IP.
type ClientThrottle struct {
	mu             sync.Mutex
	cache          *lru.Cache
	perMinuteLimit int
	stop           chan struct{}
	ticker         *time.Ticker
}

type counter struct {
	count int
}

// NewThrottler builds a throttle tracking up to trackedClients distinct
// IPs, allowing perMinuteLimit packets per IP between resets; every
// IP's count is reset together once a minute.
func NewThrottler(perMinuteLimit int, trackedClients int64) *ClientThrottle {
	ct := &ClientThrottle{
		cache:          lru.New(int(trackedClients)),
		perMinuteLimit: perMinuteLimit,
		stop:           make(chan struct{}),
		ticker:         time.NewTicker(time.Minute),
	}
	go ct.resetLoop()
	return ct
}

func (c *ClientThrottle) resetLoop() {
	for {
		select {
		case <-c.ticker.C:
			c.mu.Lock()
			c.cache = lru.New(c.cache.MaxEntries)
			c.mu.Unlock()
		case <-c.stop:
			c.ticker.Stop()
			return
		}
	}
}

// CheckBlock returns true if the packet from ip should be accepted,
// false if ip has exceeded its per-minute allowance and the packet
// must be dropped.
func (c *ClientThrottle) CheckBlock(ip string) bool {
	if c.perMinuteLimit <= 0 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var cnt *counter
	if v, ok := c.cache.Get(ip); ok {
		cnt = v.(*counter)
	} else {
		cnt = &counter{}
		c.cache.Add(ip, cnt)
	}
	cnt.count++
	return cnt.count <= c.perMinuteLimit
}

// Stop releases the background reset goroutine.
func (c *ClientThrottle) Stop() { close(c.stop) }
