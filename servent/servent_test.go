package servent

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gnutella/pong"
	"gnutella/servpeer"
	"gnutella/vmsg"
	"gnutella/wire"
)

func newTestServent(t *testing.T) *Servent {
	t.Helper()
	cfg := NewConfig()
	cfg.GUIDStorePath = filepath.Join(t.TempDir(), "servent.guid")
	cfg.RateLimit = -1
	s, err := New(cfg, nil)
	require.NoError(t, err)
	return s
}

func TestNewCoreGeneratesAndPersistsGUID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servent.guid")
	cfg := NewConfig()
	cfg.GUIDStorePath = path

	c1, err := NewCore(cfg, nil)
	require.NoError(t, err)
	require.True(t, c1.GUID.Valid())

	c2, err := NewCore(cfg, nil)
	require.NoError(t, err)
	require.Equal(t, c1.GUID, c2.GUID, "a second Core over the same store must reload, not regenerate")
}

func TestPushProxyMapSetGetRemove(t *testing.T) {
	m := NewPushProxyMap()
	reg := servpeer.NewRegistry()
	peer := reg.Add(&servpeer.Peer{})

	var id [16]byte
	copy(id[:], "servent-id")

	_, ok := m.Get(id)
	require.False(t, ok)

	m.Set(id, peer)
	got, ok := m.Get(id)
	require.True(t, ok)
	require.Equal(t, peer, got)

	m.RemovePeer(peer)
	_, ok = m.Get(id)
	require.False(t, ok)
}

func TestHandleVendorDispatchesMessagesSupported(t *testing.T) {
	s := newTestServent(t)
	reg := s.core.Registry
	peer := &servpeer.Peer{Mode: servpeer.ModeUltrapeer}
	peer.Handle = reg.Add(peer)

	entries := []vmsg.MessagesSupportedEntry{
		{Vendor: vmsg.VendorBEAR, Selector: vmsg.SelQueryStatusRequest, Version: 1},
		{Vendor: vmsg.VendorBEAR, Selector: vmsg.SelQueryStatusResponse, Version: 1},
	}
	frame := vmsg.Frame{
		Vendor:   vmsg.VendorNull,
		Selector: vmsg.SelMessagesSupported,
		Version:  0,
		Payload:  vmsg.EncodeMessagesSupported(entries),
	}
	s.handleVendor(wire.Header{}, frame.Encode(), peer)
	require.True(t, peer.Caps.LeafGuidedDynamicQuery)
}

func TestHandleVendorHopsFlowSetsPeerField(t *testing.T) {
	s := newTestServent(t)
	peer := &servpeer.Peer{}
	frame := vmsg.Frame{Vendor: vmsg.VendorBEAR, Selector: vmsg.SelHopsFlow, Version: 1, Payload: vmsg.EncodeHopsFlow(2)}
	s.handleVendor(wire.Header{}, frame.Encode(), peer)
	require.NotNil(t, peer.HopsFlow)
	require.Equal(t, uint8(2), *peer.HopsFlow)
}

func TestHandleVendorConnectBackSetsPeerField(t *testing.T) {
	s := newTestServent(t)
	peer := &servpeer.Peer{}
	frame := vmsg.Frame{Vendor: vmsg.VendorBEAR, Selector: vmsg.SelConnectBack, Version: 1, Payload: vmsg.EncodeConnectBack(6346)}
	s.handleVendor(wire.Header{}, frame.Encode(), peer)
	require.NotNil(t, peer.ConnectBackPort)
	require.Equal(t, uint16(6346), *peer.ConnectBackPort)
}

func TestHandleVendorPushProxyRequestRecordsRequesterGUID(t *testing.T) {
	s := newTestServent(t)
	reg := s.core.Registry
	peer := &servpeer.Peer{Mode: servpeer.ModeUltrapeer}
	peer.Handle = reg.Add(peer)

	var requester [16]byte
	copy(requester[:], "requester-guid")
	frame := vmsg.Frame{Vendor: vmsg.VendorLIME, Selector: vmsg.SelPushProxyRequest, Version: 1}
	s.handleVendor(wire.Header{MUID: requester}, frame.Encode(), peer)

	got, ok := s.core.Proxies.Get(requester)
	require.True(t, ok)
	require.Equal(t, peer.Handle, got)
}

func TestHandleVendorPushProxyAckRecordsOurAddress(t *testing.T) {
	s := newTestServent(t)
	peer := &servpeer.Peer{}
	frame := vmsg.Frame{
		Vendor:   vmsg.VendorLIME,
		Selector: vmsg.SelPushProxyAck,
		Version:  2,
		Payload:  vmsg.EncodePushProxyAck([4]byte{203, 0, 113, 9}, 6346),
	}
	s.handleVendor(wire.Header{}, frame.Encode(), peer)

	require.Len(t, s.core.OurPushProxies, 1)
	require.Equal(t, uint16(6346), s.core.OurPushProxies[0].Port)
	require.True(t, net.IPv4(203, 0, 113, 9).Equal(s.core.OurPushProxies[0].IP))
}

func TestHandleVendorQueryStatusRequestRecordsRequester(t *testing.T) {
	s := newTestServent(t)
	reg := s.core.Registry
	peer := &servpeer.Peer{Mode: servpeer.ModeLeaf}
	peer.Handle = reg.Add(peer)

	var muid [16]byte
	copy(muid[:], "query-muid")
	frame := vmsg.Frame{Vendor: vmsg.VendorBEAR, Selector: vmsg.SelQueryStatusRequest, Version: 1}
	s.handleVendor(wire.Header{MUID: muid}, frame.Encode(), peer)

	got, ok := s.core.QueryStatus.Requester(muid)
	require.True(t, ok)
	require.Equal(t, peer.Handle, got)
}

func TestHandleVendorQueryStatusResponseRecordsKeptCount(t *testing.T) {
	s := newTestServent(t)
	peer := &servpeer.Peer{}

	var muid [16]byte
	copy(muid[:], "query-muid-2")
	frame := vmsg.Frame{
		Vendor:   vmsg.VendorBEAR,
		Selector: vmsg.SelQueryStatusResponse,
		Version:  1,
		Payload:  vmsg.EncodeQueryStatusResponse(5),
	}
	s.handleVendor(wire.Header{MUID: muid}, frame.Encode(), peer)

	got, ok := s.core.QueryStatus.Kept(muid)
	require.True(t, ok)
	require.Equal(t, uint16(5), got)
}

func TestHandlePingAcceptedInstallsDemux(t *testing.T) {
	s := newTestServent(t)
	peer := &servpeer.Peer{Mode: servpeer.ModeUltrapeer}
	peer.Handle = s.core.Registry.Add(peer)

	var muid [16]byte
	copy(muid[:], "ping-muid")
	s.handlePing(wire.Header{MUID: muid, Hops: 1, TTL: 3}, peer)
	require.NotNil(t, peer.Demux)
	require.Equal(t, muid, peer.Demux.PingMUID)
}

func TestHandlePushRoutesToRegisteredProxy(t *testing.T) {
	s := newTestServent(t)
	proxy := &servpeer.Peer{}
	proxy.Handle = s.core.Registry.Add(proxy)

	var servID [16]byte
	copy(servID[:], "target-servent")
	s.core.Router.RecordQueryHitProvenance(servID, proxy.Handle)

	payload := wire.PushPayload{ServentID: servID, FileIndex: 1, IP: net.ParseIP("203.0.113.1"), Port: 6346}.Encode()

	// handlePush doesn't return the routed peers directly; exercise the
	// underlying router call the same way handlePush does, to assert
	// the route it would use without needing a live socket.
	peers, self, err := s.core.Router.RoutePush(servID, s.core.GUID, payload[20:24])
	require.NoError(t, err)
	require.False(t, self)
	require.Len(t, peers, 1)
	require.Same(t, proxy, peers[0])

	s.handlePush(payload) // must not panic when no recipient wiring is attached
}

func TestHandlePushToSelfInvokesCallback(t *testing.T) {
	s := newTestServent(t)
	var gotGUID [16]byte
	var gotIP net.IP
	var gotPort uint16
	s.OnPushReceived = func(targetGUID [16]byte, targetIP net.IP, targetPort uint16) {
		gotGUID, gotIP, gotPort = targetGUID, targetIP, targetPort
	}
	payload := wire.PushPayload{ServentID: s.core.GUID, IP: net.ParseIP("198.51.100.2"), Port: 6347}.Encode()
	s.handlePush(payload)
	require.Equal(t, [16]byte(s.core.GUID), gotGUID)
	require.True(t, net.ParseIP("198.51.100.2").Equal(gotIP))
	require.Equal(t, uint16(6347), gotPort)
}

func TestHandlePongFeedsCache(t *testing.T) {
	s := newTestServent(t)
	peer := &servpeer.Peer{Mode: servpeer.ModeUltrapeer}
	peer.Handle = s.core.Registry.Add(peer)
	var muid [16]byte
	s.core.Pongs.InstallDemux(peer, muid)

	cp := &pong.CachedPong{IP: net.ParseIP("203.0.113.5").To4(), Port: 6346, KB: 16}
	payload := pong.EncodePayload(cp)
	s.handlePong(wire.Header{Hops: 1, TTL: 3}, payload, nil)
	require.Equal(t, 9, peer.Demux.PongMissing, "the cached pong should have been demultiplexed to the sole waiting peer")
}

func TestQueriesRotateWithNoEntriesDoesNotPanic(t *testing.T) {
	s := newTestServent(t)
	s.core.Config.CleanupPeriod = time.Millisecond
	// Rotate is idempotent with no entries; just confirm it doesn't panic
	// when invoked directly, as the loop's ticker case does.
	s.core.Queries.Rotate()
}
