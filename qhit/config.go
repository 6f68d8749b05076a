// Package qhit assembles matched shared files into size-bounded Query
// Hit packets (spec.md §4.4), mirroring the teacher's arena.Arena
// Pop/Push typestate discipline for its own Open/Close builder
// lifecycle.
package qhit

import "flag"

// Config bounds a Builder's packet assembly (spec.md §4.4).
type Config struct {
	// SizeThreshold is the accumulated packet size, in octets, counting
	// the Gnutella header plus the payload so far, at or above which a
	// record append triggers a flush (QHIT_SIZE_THRESHOLD).
	SizeThreshold int
	// MaxResults is the per-packet record count ceiling (QHIT_MAX_RESULTS).
	MaxResults int
	// MaxAlt bounds per-record GGEP "ALT" locations (QHIT_MAX_ALT).
	MaxAlt int
	// MaxPushProxies bounds the trailer's GGEP "PUSH" entries (QHIT_MAX_PROXIES).
	MaxPushProxies int
}

// NewConfig returns the gtk-gnutella-derived defaults.
func NewConfig() *Config {
	return &Config{
		SizeThreshold:  2016,
		MaxResults:     255,
		MaxAlt:         15,
		MaxPushProxies: 5,
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
	fs.IntVar(&cfg.SizeThreshold, "qhit-size-threshold", cfg.SizeThreshold, "query hit packet size threshold before flush, in octets")
	fs.IntVar(&cfg.MaxResults, "qhit-max-results", cfg.MaxResults, "maximum records per query hit packet")
	fs.IntVar(&cfg.MaxAlt, "qhit-max-alt", cfg.MaxAlt, "maximum GGEP ALT locations per record")
	fs.IntVar(&cfg.MaxPushProxies, "qhit-max-push-proxies", cfg.MaxPushProxies, "maximum GGEP PUSH proxies in the trailer")
}

// maxPacketSize is the hard ceiling from spec.md §8's quantified
// invariant: "never exceeds min(max_size_for_this_search, 64 KiB − 1)".
const maxPacketSize = 65535
