package servent

import (
	"net"

	"gnutella/servpeer"
)

// Packet is one inbound datagram or framed TCP message, tagged with
// where it arrived from — the single shape the event loop's frame
// decoder consumes regardless of transport (spec.md §2: "socket → per-
// peer input buffer → frame decoder → router → ...").
type Packet struct {
	// Peer is the already-registered sender, or the zero Handle for a
	// UDP datagram from an address with no open link yet.
	Peer  servpeer.Handle
	Raddr net.Addr
	B     []byte
}
