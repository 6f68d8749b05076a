// Package servpeer models a Gnutella peer link: its transport, mode,
// advertised capabilities, counters and per-peer pong-demultiplexing
// state (spec.md §3 "Peer"), generalised from the teacher's
// remoteNode.RemoteNode (a DHT node's address/ID/pending-queries shape)
// to the richer per-peer state a Gnutella neighbour link carries.
package servpeer

import (
	"net"
	"time"

	"gnutella/logger"
)

// Mode is how a Peer participates in the overlay.
type Mode int

const (
	ModeLeaf Mode = iota
	ModeUltrapeer
	ModeLegacy
)

// Transport is the kind of link a Peer maintains.
type Transport int

const (
	TransportTCP Transport = iota
	TransportUDP
)

// Capabilities are advertised at handshake time.
type Capabilities struct {
	PongCaching            bool
	LeafGuidedDynamicQuery bool
	GGEPH                  bool
}

// Counters are the per-peer statistics spec.md §3 requires.
type Counters struct {
	PingsSent, PingsAccepted, PingsThrottled uint64
	PongsSent, PongsReceived                 uint64
	Received, Dups                           uint64
	BytesReceived, BytesDropped              uint64
	BadSize, BadData                         uint64
}

// DupRatio returns Dups/Received, or 0 if nothing has been received.
func (c Counters) DupRatio() float64 {
	if c.Received == 0 {
		return 0
	}
	return float64(c.Dups) / float64(c.Received)
}

// PongDemux is the per-peer demultiplexing vector of spec.md §4.2: the
// MUID of the ping we accepted from this peer, the remaining pong
// budget, and how that budget is partitioned across hop distances.
type PongDemux struct {
	PingMUID    [16]byte
	PongMissing int
	Need        []int // indexed by hop distance, length H+1
}

// Sender abstracts the outbound half of a Peer's transport (a TCP
// stream's send queue, or a UDP socket keyed by remote address) behind
// one interface, resolving the "TCP vs UDP peer" design decision
// recorded in DESIGN.md.
type Sender interface {
	Send(payload []byte) error
}

// Peer is a long-lived link to another servent.
type Peer struct {
	Handle    Handle
	Transport Transport
	Addr      net.Addr
	Mode      Mode
	Caps      Capabilities
	Counters  Counters

	Firewalled     bool
	UnderConnected bool

	// PingAcceptAt is the deadline before which further pings from this
	// peer are throttled (spec.md §4.2 "Ping admission").
	PingAcceptAt time.Time
	PingThrottle time.Duration

	// LastPingedAt is when we last sent this peer an outbound neighbour-
	// refresh ping, used to cap legacy (non-caching) peers to one ping
	// per OLD_PING_PERIOD (spec.md §4.2 "Neighbour refresh").
	LastPingedAt time.Time

	// Demux is non-nil while we're waiting on pongs to satisfy a ping
	// this peer sent us.
	Demux *PongDemux

	// HopsFlow, if set, is the vendor Hops-Flow threshold this peer
	// asked us to respect (spec.md §4.5): no query with Hops >= *HopsFlow
	// should be forwarded to it.
	HopsFlow *uint8

	// ConnectBackPort, if set, is the port this peer's vendor
	// Connect-Back message (spec.md §4.5 BEAR/7) asked us to dial back
	// on to confirm our own reachability. Actually opening that
	// connection is a transport concern outside the message plane.
	ConnectBackPort *uint16

	Sender Sender
	Log    logger.DebugLogger
}

// AcceptsQuery reports whether a query at the given hop count may be
// forwarded to this peer under its Hops-Flow request.
func (p *Peer) AcceptsQuery(hops uint8) bool {
	return p.HopsFlow == nil || hops < *p.HopsFlow
}
