package pong

import (
	"flag"
	"time"
)

// H is the maximum hop distance a cached pong is bucketed at (spec.md
// §4.2 "Hop buckets"): pongs arriving at a greater hop count are
// trimmed to H.
const H = 7

// Config parameterises the pong cache (spec.md §4.2).
type Config struct {
	// MaxPongs is the per-peer demultiplexing budget, MAX_PONGS. Default value: 10.
	MaxPongs int
	// RecentFIFOSize is R, the bounded recent-hosts FIFO size per host class. Default value: 50.
	RecentFIFOSize int
	// OldCacheRatio is the acceptance probability for pongs from peers
	// that didn't advertise ping/pong caching support. Default value: 0.20.
	OldCacheRatio float64
	// LifespanUP is L for UP/legacy mode. Default value: 5s.
	LifespanUP time.Duration
	// LifespanLeaf is L for Leaf mode. Default value: 120s.
	LifespanLeaf time.Duration
	// MinUPPing is the floor on how many neighbours to refresh-ping. Default value: 3.
	MinUPPing int
	// UPPingRatio is the fraction of eligible neighbours to refresh-ping. Default value: 0.20.
	UPPingRatio float64
	// OldPingPeriod bounds how often a non-caching legacy peer is pinged. Default value: 45s.
	OldPingPeriod time.Duration
}

// NewConfig returns a Config filled with gtk-gnutella-derived defaults.
func NewConfig() *Config {
	return &Config{
		MaxPongs:        10,
		RecentFIFOSize:  50,
		OldCacheRatio:   0.20,
		LifespanUP:      5 * time.Second,
		LifespanLeaf:    120 * time.Second,
		MinUPPing:       3,
		UPPingRatio:     0.20,
		OldPingPeriod:   45 * time.Second,
	}
}

var DefaultConfig = NewConfig()

// RegisterFlags registers c's fields as command-line flags. If c is nil,
// DefaultConfig is used.
func RegisterFlags(c *Config) {
	if c == nil {
		c = DefaultConfig
	}
	flag.IntVar(&c.MaxPongs, "pongMaxPongs", c.MaxPongs,
		"Per-peer pong demultiplexing budget per accepted ping.")
	flag.IntVar(&c.RecentFIFOSize, "pongRecentFifoSize", c.RecentFIFOSize,
		"Size of the recent-hosts FIFO kept per host class.")
	flag.Float64Var(&c.OldCacheRatio, "pongOldCacheRatio", c.OldCacheRatio,
		"Probability of caching a pong from a peer without caching support.")
	flag.DurationVar(&c.LifespanUP, "pongLifespanUp", c.LifespanUP,
		"Pong cache lifespan in Ultrapeer/legacy mode.")
	flag.DurationVar(&c.LifespanLeaf, "pongLifespanLeaf", c.LifespanLeaf,
		"Pong cache lifespan in Leaf mode.")
}
