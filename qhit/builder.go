package qhit

import (
	"encoding/binary"
	"errors"
	"net"

	"gnutella/wire"
)

var (
	// ErrNotOpen is returned by AddRecord/Close when called without a
	// matching Open — the typestate discipline spec.md §4.4's
	// "Invariant" requires (mirrors arena.Arena's Pop/Push pairing).
	ErrNotOpen = errors.New("qhit: builder not open")
	// ErrAlreadyOpen is returned by Open when a session is already active.
	ErrAlreadyOpen = errors.New("qhit: builder already open")
	// ErrOverflow is returned when a single record append would exceed
	// the hard 64 KiB packet ceiling; the partial packet is discarded.
	ErrOverflow = errors.New("qhit: record overflows maximum packet size")
)

// Session is the per-query state shared by every packet a Builder
// assembles while open: the header's MUID, our own advertised address
// and speed, the trailer metadata, and whether the recipient
// understands GGEP "H" SHA-1 digests.
type Session struct {
	MUID           [16]byte
	Port           uint16
	IP             net.IP
	Speed          uint32
	Vendor         VendorInfo
	ServentGUID    [16]byte
	RecipientGGEPH bool
}

// Builder assembles one or more size-bounded Query Hit packets from a
// stream of matched Records (spec.md §4.4). It follows the teacher's
// arena.Arena Pop/Push typestate: Open begins a session, AddRecord may
// be called any number of times (internally flushing a packet whenever
// the threshold is crossed), and Close flushes any remaining partial
// packet and ends the session.
type Builder struct {
	cfg     *Config
	onFlush func([]byte)

	open    bool
	session Session

	buf     []byte
	numRecs int
}

// NewBuilder constructs a Builder. onFlush is invoked with a complete,
// ready-to-send packet (including its 23-octet header) every time a
// packet closes, whether from the size/count threshold or from Close.
func NewBuilder(cfg *Config, onFlush func([]byte)) *Builder {
	if cfg == nil {
		cfg = DefaultConfig
	}
	return &Builder{cfg: cfg, onFlush: onFlush}
}

// Open begins a new query-hit session, resetting any stale state.
func (b *Builder) Open(s Session) error {
	if b.open {
		return ErrAlreadyOpen
	}
	b.open = true
	b.session = s
	b.startPacket()
	return nil
}

// startPacket writes the fixed prefix — num_recs placeholder, port,
// ip, speed — into a freshly reset payload buffer.
func (b *Builder) startPacket() {
	b.numRecs = 0
	b.buf = make([]byte, 0, b.cfg.SizeThreshold+256)
	b.buf = append(b.buf, 0) // num_recs placeholder, patched on flush
	var port [2]byte
	binary.LittleEndian.PutUint16(port[:], b.session.Port)
	b.buf = append(b.buf, port[:]...)
	ip4 := b.session.IP.To4()
	if ip4 == nil {
		ip4 = net.IPv4zero.To4()
	}
	b.buf = append(b.buf, ip4[3], ip4[2], ip4[1], ip4[0]) // BE32
	var speed [4]byte
	binary.LittleEndian.PutUint32(speed[:], b.session.Speed)
	b.buf = append(b.buf, speed[:]...)
}

// AddRecord appends one matched file to the current packet, flushing
// it first if it already holds QHIT_MAX_RESULTS records (so this
// record starts a fresh packet), and flushing again afterwards if the
// append crossed the size or count threshold (spec.md §4.4 "Flushing").
func (b *Builder) AddRecord(rec Record) error {
	if !b.open {
		return ErrNotOpen
	}
	if b.numRecs >= b.cfg.MaxResults {
		if err := b.flush(); err != nil {
			return err
		}
	}

	candidate := rec.encode(append([]byte(nil), b.buf...), b.cfg, b.session.RecipientGGEPH)
	if b.packetSize(len(candidate)) > maxPacketSize {
		// spec.md §4.4 "Invariant": an overflowing append discards the
		// whole partial packet, not just the offending record.
		b.startPacket()
		return ErrOverflow
	}
	b.buf = candidate
	b.numRecs++

	// The flush threshold counts the Gnutella header toward the budget
	// (original_source/src/core/qhit.c's found_size()/found_max_size()
	// measure from the start of the header), not just the payload.
	if wire.HeaderSize+len(b.buf) >= b.cfg.SizeThreshold || b.numRecs >= b.cfg.MaxResults {
		return b.flush()
	}
	return nil
}

// packetSize estimates the total wire size (header + payload so far +
// trailer + servent GUID) for a candidate payload length, used to
// enforce the 64 KiB − 1 hard ceiling before committing a record.
func (b *Builder) packetSize(payloadLen int) int {
	return wire.HeaderSize + payloadLen + trailerEstimate(b.session.Vendor, b.cfg.MaxPushProxies) + 16
}

// trailerEstimate returns the exact encoded length of the trailer,
// GGEP framing included, by encoding it.
func trailerEstimate(v VendorInfo, maxProxies int) int {
	n := len(v.encodeTrailer(maxProxies))
	return n
}

// flush closes the current packet: writes the true record count,
// appends the trailer and servent GUID, wraps it with the Gnutella
// header, and invokes onFlush. It then starts a fresh packet.
func (b *Builder) flush() error {
	if b.numRecs == 0 {
		return nil
	}
	b.buf[0] = byte(b.numRecs)
	b.buf = append(b.buf, b.session.Vendor.encodeTrailer(b.cfg.MaxPushProxies)...)
	b.buf = append(b.buf, b.session.ServentGUID[:]...)

	if len(b.buf) > maxPacketSize-wire.HeaderSize {
		b.startPacket()
		return ErrOverflow
	}

	packet := make([]byte, wire.HeaderSize+len(b.buf))
	h := wire.Header{
		MUID:     wire.MUID(b.session.MUID),
		Function: wire.FuncQueryHit,
		TTL:      1,
		Hops:     0,
		Length:   uint32(len(b.buf)),
	}
	h.Encode(packet)
	copy(packet[wire.HeaderSize:], b.buf)

	if b.onFlush != nil {
		b.onFlush(packet)
	}
	b.startPacket()
	return nil
}

// Close flushes any pending partial packet and ends the session.
func (b *Builder) Close() error {
	if !b.open {
		return ErrNotOpen
	}
	err := b.flush()
	b.open = false
	b.buf = nil
	return err
}
