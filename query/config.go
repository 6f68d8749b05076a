// Package query implements query admission, compaction, duplicate
// suppression and forwarding discipline (spec.md §4.3).
package query

import (
	"flag"
	"time"
)

// Config bounds query admission (spec.md §4.3).
type Config struct {
	// MaxTTL is the broadcast TTL ceiling (max_ttl).
	MaxTTL uint8
	// HardTTLLimit bounds hops+ttl for any message (hard_ttl_limit).
	HardTTLLimit uint8
	// RequeryThreshold is the first-hop re-query suppression window.
	RequeryThreshold time.Duration
	// MinWordLength is the shortest word compaction preserves.
	MinWordLength int
	// SearchMaxItems bounds local matches fed to the hit builder.
	SearchMaxItems int
	// QSeenSize bounds the first-hop re-query LRU.
	QSeenSize int
	// DupWindowSize is the initial capacity hint for each duplicate window.
	DupWindowSize int
}

// NewConfig returns the gtk-gnutella-derived defaults.
func NewConfig() *Config {
	return &Config{
		MaxTTL:           7,
		HardTTLLimit:     15,
		RequeryThreshold: 30 * time.Second,
		MinWordLength:    1,
		SearchMaxItems:   255,
		QSeenSize:        2048,
		DupWindowSize:    4096,
	}
}

// DefaultConfig is used by RegisterFlags when cfg is nil.
var DefaultConfig = NewConfig()

// RegisterFlags binds cfg's fields (or DefaultConfig's, if cfg is nil)
// to command-line flags.
func RegisterFlags(cfg *Config, fs *flag.FlagSet) {
	if cfg == nil {
		cfg = DefaultConfig
	}
	fs.Var(durationValue{&cfg.RequeryThreshold}, "query-requery-threshold", "first-hop re-query suppression window")
	fs.IntVar(&cfg.MinWordLength, "query-min-word-length", cfg.MinWordLength, "shortest word compaction preserves")
	fs.IntVar(&cfg.SearchMaxItems, "query-search-max-items", cfg.SearchMaxItems, "maximum local matches fed to the hit builder")
	fs.IntVar(&cfg.QSeenSize, "query-qseen-size", cfg.QSeenSize, "first-hop re-query LRU size")
	fs.IntVar(&cfg.DupWindowSize, "query-dup-window-size", cfg.DupWindowSize, "duplicate-suppression window capacity hint")
}

// durationValue adapts *time.Duration to flag.Value.
type durationValue struct{ d *time.Duration }

func (v durationValue) String() string {
	if v.d == nil {
		return ""
	}
	return v.d.String()
}

func (v durationValue) Set(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*v.d = d
	return nil
}
