package pong

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gnutella/hostiles"
	"gnutella/servpeer"
)

func TestUltraBoundary(t *testing.T) {
	require.True(t, (&CachedPong{KB: 8}).IsUltra())
	require.False(t, (&CachedPong{KB: 7}).IsUltra())
	require.True(t, (&CachedPong{KB: 16}).IsUltra())
}

func TestPartitionNeedSumsToTotal(t *testing.T) {
	need := partitionNeed(10)
	require.Len(t, need, H+1)
	sum := 0
	for _, n := range need {
		require.GreaterOrEqual(t, n, 0)
		sum += n
	}
	require.Equal(t, 10, sum)
}

// Scenario 2 from spec.md §8: pong demultiplex.
func TestPongDemultiplexScenario(t *testing.T) {
	c := NewCache(NewConfig(), nil)
	reg := servpeer.NewRegistry()

	p1 := &servpeer.Peer{Mode: servpeer.ModeUltrapeer}
	p1Handle := reg.Add(p1)
	var pingMUID [16]byte
	copy(pingMUID[:], "P")
	c.InstallDemux(p1, pingMUID)
	needBefore := append([]int(nil), p1.Demux.Need...)
	require.Equal(t, 10, p1.Demux.PongMissing)

	p2 := &servpeer.Peer{Mode: servpeer.ModeUltrapeer}
	p2Handle := reg.Add(p2)

	cp := &CachedPong{IP: net.ParseIP("203.0.113.5"), Port: 6346, KB: 16}
	filter := hostiles.NewFilter()
	accepted, ultra := c.AdmitPong(cp, 2, p2, filter, nil)
	require.True(t, accepted)
	require.True(t, ultra)

	forwards := c.Demultiplex(p2Handle, 2, 5, ultra, []*servpeer.Peer{p1})
	require.Len(t, forwards, 1)
	require.Equal(t, pingMUID, forwards[0].MUID)
	require.Equal(t, uint8(3), forwards[0].Hops)
	require.GreaterOrEqual(t, forwards[0].TTL, uint8(1))
	require.Equal(t, needBefore[2]-1, p1.Demux.Need[2])
	require.Equal(t, 9, p1.Demux.PongMissing)

	// Same-peer suppression: the pong's own origin never gets it back.
	forwards2 := c.Demultiplex(p2Handle, 2, 5, ultra, []*servpeer.Peer{p2})
	require.Empty(t, forwards2)
}

func TestLeavesOnlyAcceptUltraViaDemultiplex(t *testing.T) {
	c := NewCache(NewConfig(), nil)
	reg := servpeer.NewRegistry()
	leaf := &servpeer.Peer{Mode: servpeer.ModeLeaf}
	reg.Add(leaf)
	var pingMUID [16]byte
	c.InstallDemux(leaf, pingMUID)

	other := reg.Add(&servpeer.Peer{})
	forwards := c.Demultiplex(other, 1, 3, false, []*servpeer.Peer{leaf})
	require.Empty(t, forwards)

	forwards = c.Demultiplex(other, 1, 3, true, []*servpeer.Peer{leaf})
	require.Len(t, forwards, 1)
}

func TestFlushForRespectsNeedThenLoose(t *testing.T) {
	c := NewCache(NewConfig(), nil)
	p := &servpeer.Peer{}
	var muid [16]byte
	c.InstallDemux(p, muid)
	p.Demux.Need = []int{1, 0, 0, 0, 0, 0, 0, 0}
	p.Demux.PongMissing = 3

	// Three pongs at hop 0.
	for i := 0; i < 3; i++ {
		c.buckets[0].add(&CachedPong{IP: net.ParseIP("10.0.0.1"), Port: uint16(i)})
	}
	out := c.FlushFor(p)
	// First pass takes exactly 1 (need[0]=1); loose pass then drains
	// the remaining budget (2) from whatever is left in bucket 0.
	require.Len(t, out, 3)
	require.Equal(t, 0, p.Demux.PongMissing)
}

func TestAdmitPongRejectsHostileAndSelf(t *testing.T) {
	c := NewCache(NewConfig(), nil)
	filter := hostiles.NewFilter()
	require.NoError(t, filter.Ban("203.0.113.0/24"))

	hostile := &CachedPong{IP: net.ParseIP("203.0.113.9"), Port: 6346, KB: 8}
	accepted, _ := c.AdmitPong(hostile, 1, nil, filter, nil)
	require.False(t, accepted)

	self := &CachedPong{IP: net.ParseIP("198.51.100.1"), Port: 6346, KB: 8}
	accepted, _ = c.AdmitPong(self, 1, nil, filter, net.ParseIP("198.51.100.1"))
	require.False(t, accepted)
}

func TestMaybeExpireRespectsLifespan(t *testing.T) {
	cfg := NewConfig()
	cfg.LifespanUP = 10 * time.Millisecond
	c := NewCache(cfg, nil)
	now := time.Now()
	require.False(t, c.MaybeExpire(now, servpeer.ModeUltrapeer))
	require.True(t, c.MaybeExpire(now.Add(20*time.Millisecond), servpeer.ModeUltrapeer))
}

func TestSelfAdvertisedKB(t *testing.T) {
	require.Equal(t, uint32(8), SelfAdvertisedKB(0, servpeer.ModeUltrapeer))
	require.Equal(t, uint32(16), SelfAdvertisedKB(9, servpeer.ModeUltrapeer))
	require.Equal(t, uint32(8), SelfAdvertisedKB(8, servpeer.ModeUltrapeer))
	require.Equal(t, uint32(9), SelfAdvertisedKB(8, servpeer.ModeLeaf))
	require.Equal(t, uint32(7), SelfAdvertisedKB(7, servpeer.ModeLeaf))
}

func TestAdmitPingAliveAndCrawler(t *testing.T) {
	require.Equal(t, ActionAlive, AdmitPing(nil, 0, 1, time.Now(), servpeer.ModeUltrapeer))
	require.Equal(t, ActionCrawler, AdmitPing(nil, 0, 2, time.Now(), servpeer.ModeUltrapeer))
	require.Equal(t, ActionAck, AdmitPing(nil, 3, 0, time.Now(), servpeer.ModeUltrapeer))
}

func TestPongPayloadRoundTrip(t *testing.T) {
	cp := &CachedPong{IP: net.ParseIP("203.0.113.9").To4(), Port: 6346, Files: 42, KB: 1024}
	got, err := DecodePayload(EncodePayload(cp))
	require.NoError(t, err)
	require.Equal(t, cp.Port, got.Port)
	require.True(t, cp.IP.Equal(got.IP))
	require.Equal(t, cp.Files, got.Files)
	require.Equal(t, cp.KB, got.KB)
}

func TestDecodePayloadTooShort(t *testing.T) {
	_, err := DecodePayload([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrShortPongPayload)
}

func TestAdmitPingThrottle(t *testing.T) {
	p := &servpeer.Peer{PingThrottle: time.Minute}
	now := time.Now()
	require.Equal(t, ActionAccept, AdmitPing(p, 1, 3, now, servpeer.ModeUltrapeer))
	require.Equal(t, ActionThrottled, AdmitPing(p, 1, 3, now.Add(time.Second), servpeer.ModeUltrapeer))
	require.EqualValues(t, 1, p.Counters.PingsThrottled)
}
