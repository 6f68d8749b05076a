package router

import (
	"flag"
	"time"
)

// Config parameterises the provenance table (spec.md §4.1 "Store").
// Defaults mirror the dependency order given in DESIGN.md's Open
// Question decisions: hard_ttl_limit=15, min_dup_msg=6, min_dup_ratio
// expressed in ten-thousandths.
type Config struct {
	// ChunkSize is N, the fixed entry count per chunk. Default value: 16384 (2^14).
	ChunkSize int
	// MaxChunks is M, the chunk ceiling before wrap is forced. Default value: 32.
	MaxChunks int
	// MinWrapInterval is T_min, the minimum time between cursor wraps
	// to chunk 0 before the ceiling is reached. Default value: 30 minutes.
	MinWrapInterval time.Duration
	// HardTTLLimit bounds hops+ttl for any accepted request, and is the
	// ceiling reply TTL adjustment uses. Default value: 15.
	HardTTLLimit uint8
	// MinDupMsg is the dups-received floor before anti-flood disconnect
	// is even considered. Default value: 6.
	MinDupMsg uint64
	// MinDupRatioPerTenThousand is min_dup_ratio expressed as parts per
	// 10000 (spec.md §9: "dups/received exceeds min_dup_ratio/10000").
	// Default value: 3000 (30%).
	MinDupRatioPerTenThousand uint64
}

// NewConfig returns a Config filled with gtk-gnutella-derived defaults.
func NewConfig() *Config {
	return &Config{
		ChunkSize:                 1 << 14,
		MaxChunks:                 32,
		MinWrapInterval:           30 * time.Minute,
		HardTTLLimit:              15,
		MinDupMsg:                 6,
		MinDupRatioPerTenThousand: 3000,
	}
}

var DefaultConfig = NewConfig()

// RegisterFlags registers c's fields as command-line flags. If c is nil,
// DefaultConfig is used.
func RegisterFlags(c *Config) {
	if c == nil {
		c = DefaultConfig
	}
	flag.IntVar(&c.ChunkSize, "routerChunkSize", c.ChunkSize,
		"Number of entries per router provenance chunk.")
	flag.IntVar(&c.MaxChunks, "routerMaxChunks", c.MaxChunks,
		"Maximum number of router provenance chunks before wrap is forced.")
	flag.DurationVar(&c.MinWrapInterval, "routerMinWrapInterval", c.MinWrapInterval,
		"Minimum time between router cursor wraps to chunk 0.")
}
