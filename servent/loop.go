package servent

import (
	"expvar"
	"net"
	"strconv"
	"sync"
	"time"

	"gnutella/arena"
	"gnutella/logger"
	"gnutella/pong"
	"gnutella/router"
	"gnutella/servpeer"
	"gnutella/throttle"
	"gnutella/vmsg"
	"gnutella/wire"
)

var (
	totalRecv           = expvar.NewInt("totalRecv")
	totalDroppedPackets = expvar.NewInt("totalDroppedPackets")
)

// Servent runs the message-plane event loop: one goroutine reads raw
// datagrams off the UDP socket into arena-backed buffers, the loop
// goroutine itself decodes and dispatches every packet exactly as the
// teacher's dht.go loop() does for its own socketChan case, down to the
// ticker-driven token bucket for per-second rate limiting.
type Servent struct {
	// OnQueryHit is the hook for a flushed Query Hit packet and its
	// recipient (spec.md §6 "Exposed to external collaborators":
	// on_query_hit). Nothing in this package invokes it: the loop builds
	// no Query Hits of its own.
	OnQueryHit func(packet []byte, recipient *servpeer.Peer)
	// OnPushReceived is invoked when a Push targets this servent
	// itself (spec.md §6: on_push_received).
	OnPushReceived func(targetGUID [16]byte, targetIP net.IP, targetPort uint16)

	core      *Core
	throttler *throttle.ClientThrottle

	conn   *net.UDPConn
	stop   chan struct{}
	wg     sync.WaitGroup
	inbox  chan Packet
	tokens int64
}

// New builds a Servent from cfg (DefaultConfig if nil).
func New(cfg *Config, log logger.DebugLogger) (*Servent, error) {
	core, err := NewCore(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Servent{
		core:      core,
		throttler: throttle.NewThrottler(cfg.ClientPerMinuteLimit, cfg.ThrottlerTrackedClients),
		stop:      make(chan struct{}),
		inbox:     make(chan Packet, 64),
	}, nil
}

// Core exposes the assembled subsystem context, e.g. so callers can
// register peers in core.Registry before Start.
func (s *Servent) Core() *Core { return s.core }

// Start opens the UDP socket and launches the event loop in its own
// goroutine, mirroring the teacher's DHT.Start().
func (s *Servent) Start() error {
	addr := s.core.Config.Address + ":" + strconv.Itoa(s.core.Config.Port)
	pc, err := net.ListenPacket(s.core.Config.UDPProto, addr)
	if err != nil {
		return err
	}
	s.conn = pc.(*net.UDPConn)
	s.core.Config.Port = s.conn.LocalAddr().(*net.UDPAddr).Port

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return nil
}

// Stop shuts down the event loop and waits for it to exit.
func (s *Servent) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// Deliver feeds one already-framed packet (e.g. from a TCP neighbour
// link's own reader goroutine) into the event loop, the non-UDP
// counterpart to the socket-reading goroutine Start launches.
func (s *Servent) Deliver(pkt Packet) {
	select {
	case s.inbox <- pkt:
	case <-s.stop:
	}
}

func (s *Servent) readUDP(buffers arena.Arena) {
	for {
		b := buffers.Pop()
		n, addr, err := s.conn.ReadFromUDP(b)
		if err != nil {
			select {
			case <-s.stop:
				return
			default:
			}
			s.core.Log.Debugf("servent: udp read error: %v", err)
			buffers.Push(b)
			continue
		}
		pkt := Packet{Raddr: addr, B: append([]byte(nil), b[:n]...)}
		buffers.Push(b)
		select {
		case s.inbox <- pkt:
		case <-s.stop:
			return
		}
	}
}

func (s *Servent) loop() {
	defer func() {
		if s.conn != nil {
			s.conn.Close()
		}
		s.throttler.Stop()
	}()

	buffers := arena.NewArena(65536, 8)
	if s.conn != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.readUDP(buffers)
		}()
	}

	cleanupTicker := time.NewTicker(s.core.Config.CleanupPeriod)
	defer cleanupTicker.Stop()

	var fillTokenBucket *time.Ticker
	if s.core.Config.RateLimit >= 0 {
		fillTokenBucket = time.NewTicker(time.Second / 10)
		defer fillTokenBucket.Stop()
		s.tokens = s.core.Config.RateLimit
	}
	var fillChan <-chan time.Time
	if fillTokenBucket != nil {
		fillChan = fillTokenBucket.C
	}

	for {
		select {
		case <-s.stop:
			return

		case pkt := <-s.inbox:
			totalRecv.Add(1)
			if s.core.Config.RateLimit >= 0 {
				if s.tokens > 0 {
					s.handlePacket(pkt)
					s.tokens--
				} else {
					totalDroppedPackets.Add(1)
				}
			} else {
				s.handlePacket(pkt)
			}

		case <-fillChan:
			if s.tokens < s.core.Config.RateLimit {
				s.tokens += s.core.Config.RateLimit / 10
			}

		case <-cleanupTicker.C:
			s.core.Pongs.MaybeExpire(time.Now(), s.core.Config.Mode)
			s.core.Queries.Rotate()
		}
	}
}

// handlePacket decodes pkt's header and dispatches by function code,
// the frame-decoder-then-router step of spec.md §2's message flow.
func (s *Servent) handlePacket(pkt Packet) {
	if pkt.Raddr != nil {
		host, _, err := net.SplitHostPort(pkt.Raddr.String())
		if err == nil && !s.throttler.CheckBlock(host) {
			return
		}
	}

	h, err := wire.DecodeHeader(pkt.B)
	if err != nil {
		return
	}
	payload := pkt.B[wire.HeaderSize:]
	if len(payload) > int(h.Length) {
		payload = payload[:h.Length]
	}

	var sender *servpeer.Peer
	if pkt.Peer.Valid() {
		sender = s.core.Registry.Get(pkt.Peer)
	}

	switch h.Function {
	case wire.FuncPing:
		s.handlePing(h, sender)
	case wire.FuncPong:
		s.handlePong(h, payload, sender)
	case wire.FuncQuery:
		s.handleQuery(h, payload, sender)
	case wire.FuncPush:
		s.handlePush(payload)
	case wire.FuncVendor, wire.FuncVendorStd:
		s.handleVendor(h, payload, sender)
	case wire.FuncQueryHit:
		// The servent GUID is the last 16 octets of a Query Hit payload.
		if len(payload) >= 16 {
			var serventID [16]byte
			copy(serventID[:], payload[len(payload)-16:])
			s.core.Router.RecordQueryHitProvenance(serventID, pkt.Peer)
		}
	}
}

func (s *Servent) handlePing(h wire.Header, sender *servpeer.Peer) {
	action := pong.AdmitPing(sender, h.Hops, h.TTL, time.Now(), s.core.Config.Mode)
	if action == pong.ActionAccept && sender != nil {
		s.core.Pongs.InstallDemux(sender, h.MUID)
	}
}

func (s *Servent) handlePong(h wire.Header, payload []byte, sender *servpeer.Peer) {
	cp, err := pong.DecodePayload(payload)
	if err != nil {
		return
	}
	if sender != nil {
		cp.Origin = sender.Handle
	}
	cp.ReceivedAt = time.Now().Unix()
	accepted, ultra := s.core.Pongs.AdmitPong(cp, h.Hops, sender, s.core.Hostile, nil)
	if !accepted {
		return
	}
	for _, fwd := range s.core.Pongs.Demultiplex(cp.Origin, h.Hops, h.TTL, ultra, s.core.Registry.Peers()) {
		_ = fwd // wiring point for the bandwidth scheduler, out of scope here
	}
}

func (s *Servent) handleQuery(h wire.Header, payload []byte, sender *servpeer.Peer) {
	var senderHandle servpeer.Handle
	if sender != nil {
		senderHandle = sender.Handle
	}
	if err := s.core.Router.AdmitRequest(sender, h.Hops, h.TTL); err != nil {
		return
	}
	if outcome := s.core.Router.HandleRequest(h.MUID, h.Function, senderHandle); outcome != router.OutcomeNew {
		return
	}
	_, _, err := s.core.Queries.Accept(payload, h.Hops, h.TTL, sender, s.core.Config.Mode, h.MUID, s.core.Config.Firewalled, s.core.Hostile, time.Now())
	if err != nil {
		return
	}
	// Local library matching and broadcast/unicast forwarding are
	// handled by the shared-library and bandwidth-scheduler
	// collaborators (spec.md §6), outside the message plane proper.
}

func (s *Servent) handlePush(payload []byte) {
	p, err := wire.DecodePushPayload(payload)
	if err != nil {
		return
	}
	if p.ServentID == s.core.GUID {
		if s.OnPushReceived != nil {
			s.OnPushReceived(p.ServentID, p.IP, p.Port)
		}
		return
	}
	peers, self, err := s.core.Router.RoutePush(p.ServentID, s.core.GUID, p.IP)
	if err != nil || self {
		return
	}
	for _, peer := range peers {
		_ = peer // wiring point for the bandwidth scheduler, out of scope here
	}
}

func (s *Servent) handleVendor(h wire.Header, payload []byte, sender *servpeer.Peer) {
	frame, err := vmsg.DecodeFrame(payload)
	if err != nil {
		return
	}
	if err := s.core.Vmsg.Dispatch(sender, h.MUID, frame); err != nil {
		_ = err // unknown (vendor, selector, version): dropped, already counted
	}
}
