// Package servent assembles the message-plane subsystems — router,
// pong cache, query-hit builder, query pipeline and vendor-message
// dispatch — into the single cooperative event loop a real Gnutella
// node runs (spec.md §5 CONCURRENCY: "single-threaded, no locking
// inside the core"). Grounded directly on the teacher's dht.go: its
// Config/NewConfig/RegisterFlags shape, its DHT struct's channel-based
// request queues, and its loop()'s ticker-driven select statement.
package servent

import (
	"flag"
	"time"

	"gnutella/pong"
	"gnutella/qhit"
	"gnutella/query"
	"gnutella/router"
	"gnutella/servpeer"
	"gnutella/vmsg"
)

// Config bundles this servent's own parameters alongside the
// subsystem configs each component already knows how to default and
// register flags for (mirrors the teacher's single flat Config, but
// the message plane has enough independently-tunable subsystems that
// nesting reads more honestly than flattening forty fields).
type Config struct {
	// Address to listen on. Empty picks an address automatically.
	Address string
	// Port is the UDP port for single-datagram traffic (pings, pongs,
	// out-of-band query hits). Zero picks a random port.
	Port int
	// UDPProto is "udp4" or "udp6", passed straight to net.ListenPacket.
	UDPProto string
	// Mode is whether this servent runs as a Leaf or an Ultrapeer.
	Mode servpeer.Mode
	// Firewalled is whether this servent believes itself unreachable for
	// inbound connections, gating local-reply suppression for queries
	// from equally firewalled peers (spec.md §4.3 item 9).
	Firewalled bool

	// CleanupPeriod is how often the pong cache's lifespan and the
	// query pipeline's multi-hop duplicate windows are aged.
	CleanupPeriod time.Duration

	// ClientPerMinuteLimit and ThrottlerTrackedClients parameterise the
	// per-source-IP admission throttle (spec.md §7 "Throttled").
	ClientPerMinuteLimit    int
	ThrottlerTrackedClients int64

	// RateLimit caps packets processed per second; -1 disables it,
	// matching the teacher's token-bucket convention exactly.
	RateLimit int64

	// GUIDStorePath is where the persisted servent GUID (spec.md §6
	// "Persisted state") is read from and written to.
	GUIDStorePath string

	Router *router.Config
	Pong   *pong.Config
	Qhit   *qhit.Config
	Query  *query.Config
	Vmsg   *vmsg.Config
}

// NewConfig returns a Config filled with gtk-gnutella-derived defaults
// for every field, including its nested subsystem configs.
func NewConfig() *Config {
	return &Config{
		Port:                    0,
		UDPProto:                "udp4",
		Mode:                    servpeer.ModeUltrapeer,
		Firewalled:              false,
		CleanupPeriod:           30 * time.Second,
		ClientPerMinuteLimit:    50,
		ThrottlerTrackedClients: 1000,
		RateLimit:               100,
		GUIDStorePath:           "servent.guid",
		Router:                  router.NewConfig(),
		Pong:                    pong.NewConfig(),
		Qhit:                    qhit.NewConfig(),
		Query:                   query.NewConfig(),
		Vmsg:                    vmsg.NewConfig(),
	}
}

var DefaultConfig = NewConfig()

// RegisterFlags registers c's own fields and the qhit, query and vmsg
// subsystem flags on fs; the router and pong subsystem flags are
// registered on flag.CommandLine whatever fs is. If c is nil,
// DefaultConfig is used.
func RegisterFlags(fs *flag.FlagSet, c *Config) {
	if c == nil {
		c = DefaultConfig
	}
	fs.StringVar(&c.Address, "address", c.Address, "Address to listen on; empty picks one automatically.")
	fs.IntVar(&c.Port, "port", c.Port, "UDP port for single-datagram traffic. Zero picks a random port.")
	fs.StringVar(&c.UDPProto, "udpProto", c.UDPProto, "udp4 or udp6.")
	fs.DurationVar(&c.CleanupPeriod, "cleanupPeriod", c.CleanupPeriod,
		"How often the pong cache lifespan and query duplicate windows are aged.")
	fs.IntVar(&c.ClientPerMinuteLimit, "clientPerMinuteLimit", c.ClientPerMinuteLimit,
		"Packets per minute allowed from a single source IP before throttling.")
	fs.Int64Var(&c.ThrottlerTrackedClients, "throttlerTrackedClients", c.ThrottlerTrackedClients,
		"Number of source IPs the client throttle remembers.")
	fs.Int64Var(&c.RateLimit, "rateLimit", c.RateLimit,
		"Maximum packets processed per second. Set to -1 to disable.")
	fs.StringVar(&c.GUIDStorePath, "guidStorePath", c.GUIDStorePath, "Path to the persisted servent GUID.")
	fs.BoolVar(&c.Firewalled, "firewalled", c.Firewalled, "Whether this servent believes itself unreachable for inbound connections.")

	router.RegisterFlags(c.Router)
	pong.RegisterFlags(c.Pong)
	qhit.RegisterFlags(c.Qhit, fs)
	query.RegisterFlags(c.Query, fs)
	vmsg.RegisterFlags(fs, c.Vmsg)
}
