package qhit

import (
	"encoding/binary"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gnutella/wire"
)

func newSession(muid byte) Session {
	var m, g [16]byte
	m[0] = muid
	g[0] = 0xAA
	return Session{
		MUID:           m,
		Port:           6346,
		IP:             net.ParseIP("198.51.100.7"),
		Speed:          100,
		Vendor:         VendorInfo{Code: [4]byte{'R', 'A', 'Z', 'A'}},
		ServentGUID:    g,
		RecipientGGEPH: true,
	}
}

func decodePackets(t *testing.T, packets [][]byte) {
	t.Helper()
	for _, pkt := range packets {
		require.GreaterOrEqual(t, len(pkt), wire.HeaderSize)
		h, err := wire.DecodeHeader(pkt)
		require.NoError(t, err)
		require.Equal(t, wire.FuncQueryHit, h.Function)
		require.Equal(t, byte(1), h.TTL)
		require.Equal(t, byte(0), h.Hops)
		require.EqualValues(t, len(pkt)-wire.HeaderSize, h.Length)
	}
}

// TestHitBuilderFlushesOnSizeThreshold exercises spec.md §8 scenario 3:
// records of a fixed encoded size packed against a size threshold split
// across exactly two packets, the second holding the remainder.
func TestHitBuilderFlushesOnSizeThreshold(t *testing.T) {
	cfg := NewConfig()
	cfg.SizeThreshold = 2016

	var packets [][]byte
	b := NewBuilder(cfg, func(p []byte) { packets = append(packets, append([]byte(nil), p...)) })
	require.NoError(t, b.Open(newSession(1)))

	// Each record encodes to exactly 80 bytes: 4 (index) + 4 (size) +
	// 70 (name) + 1 (NUL) + 0 (no extensions) + 1 (NUL).
	name := strings.Repeat("f", 70)
	const total = 40
	for i := 0; i < total; i++ {
		require.NoError(t, b.AddRecord(Record{Index: uint32(i), Size: 1234, Name: name}))
	}
	require.NoError(t, b.Close())

	require.Len(t, packets, 2)
	decodePackets(t, packets)

	firstCount := int(packets[0][wire.HeaderSize])
	secondCount := int(packets[1][wire.HeaderSize])
	require.Equal(t, 25, firstCount) // smallest k with 23+11+80k >= 2016
	require.Equal(t, total-firstCount, secondCount)
}

// TestExactlyMaxResultsFitsOnePacket covers the §8 boundary behaviour:
// a hit matching exactly QHIT_MAX_RESULTS records fits in one packet.
func TestExactlyMaxResultsFitsOnePacket(t *testing.T) {
	cfg := NewConfig()
	// Lift the size threshold so the record-count ceiling, not size,
	// closes the packet (255 eleven-byte records exceed the default 2016).
	cfg.SizeThreshold = maxPacketSize
	var packets [][]byte
	b := NewBuilder(cfg, func(p []byte) { packets = append(packets, append([]byte(nil), p...)) })
	require.NoError(t, b.Open(newSession(2)))

	for i := 0; i < cfg.MaxResults; i++ {
		require.NoError(t, b.AddRecord(Record{Index: uint32(i), Size: 10, Name: "f"}))
	}
	require.Len(t, packets, 1)
	require.EqualValues(t, cfg.MaxResults, packets[0][wire.HeaderSize])

	require.NoError(t, b.Close())
	require.Len(t, packets, 1) // nothing pending left to flush
}

// TestRecord256StartsNewPacket covers "adding the 256th record begins a
// new packet".
func TestRecord256StartsNewPacket(t *testing.T) {
	cfg := NewConfig()
	// As above: only the record-count ceiling may close the first packet.
	cfg.SizeThreshold = maxPacketSize
	var packets [][]byte
	b := NewBuilder(cfg, func(p []byte) { packets = append(packets, append([]byte(nil), p...)) })
	require.NoError(t, b.Open(newSession(3)))

	for i := 0; i < cfg.MaxResults+1; i++ {
		require.NoError(t, b.AddRecord(Record{Index: uint32(i), Size: 10, Name: "f"}))
	}
	require.NoError(t, b.Close())

	require.Len(t, packets, 2)
	require.EqualValues(t, cfg.MaxResults, packets[0][wire.HeaderSize])
	require.EqualValues(t, 1, packets[1][wire.HeaderSize])
}

// TestLargeFileSizeEncoding covers §8 scenario 5.
func TestLargeFileSizeEncoding(t *testing.T) {
	const size = uint64(1<<31) + 123456789
	rec := Record{Index: 1, Size: size, Name: "big.bin"}
	out := rec.encode(nil, NewConfig(), false)

	sizeField := binary.LittleEndian.Uint32(out[4:8])
	require.EqualValues(t, sizeOverflowSentinel, sizeField)

	nameEnd := 8 + len("big.bin")
	require.EqualValues(t, 0, out[nameEnd])

	ext := out[nameEnd+1:]
	exts, _, err := wire.DecodeGGEPBlock(ext[:len(ext)-1])
	require.NoError(t, err)
	require.Len(t, exts, 1)
	require.Equal(t, "LF", exts[0].ID)

	got, err := wire.DecodeLF(exts[0].Data)
	require.NoError(t, err)
	require.Equal(t, size, got)
}

func TestRecordEmitsGGEPHWhenSupported(t *testing.T) {
	var sha1 [20]byte
	sha1[0] = 0x01
	rec := Record{Index: 0, Size: 100, Name: "a", SHA1: &sha1}
	out := rec.encode(nil, NewConfig(), true)

	ext := out[8+len("a")+1 : len(out)-1]
	exts, _, err := wire.DecodeGGEPBlock(ext)
	require.NoError(t, err)
	require.Len(t, exts, 1)
	require.Equal(t, "H", exts[0].ID)
	require.Equal(t, byte(0x01), exts[0].Data[0])
	require.Equal(t, sha1[:], exts[0].Data[1:])
}

func TestRecordEmitsURNWhenGGEPHUnsupported(t *testing.T) {
	var sha1 [20]byte
	sha1[0] = 0xFF
	rec := Record{Index: 0, Size: 100, Name: "a", SHA1: &sha1}
	out := rec.encode(nil, NewConfig(), false)
	ext := out[8+len("a")+1 : len(out)-1]
	require.True(t, strings.HasPrefix(string(ext), "urn:sha1:"))
}

func TestBuilderOpenCloseTypestate(t *testing.T) {
	b := NewBuilder(NewConfig(), nil)
	require.ErrorIs(t, b.AddRecord(Record{}), ErrNotOpen)
	require.ErrorIs(t, b.Close(), ErrNotOpen)

	require.NoError(t, b.Open(newSession(9)))
	require.ErrorIs(t, b.Open(newSession(9)), ErrAlreadyOpen)
	require.NoError(t, b.Close())
}

func TestTrailerCarriesGGEPPresentAndGuid(t *testing.T) {
	var packets [][]byte
	b := NewBuilder(NewConfig(), func(p []byte) { packets = append(packets, append([]byte(nil), p...)) })
	s := newSession(4)
	s.Vendor.GTKGV = &GTKGVersion{Major: 1, Minor: 2, Patch: 3}
	require.NoError(t, b.Open(s))
	require.NoError(t, b.AddRecord(Record{Index: 0, Size: 1, Name: "x"}))
	require.NoError(t, b.Close())
	require.Len(t, packets, 1)

	pkt := packets[0]
	require.Equal(t, s.ServentGUID[:], pkt[len(pkt)-16:])

	trailer := s.Vendor.encodeTrailer(NewConfig().MaxPushProxies)
	require.Equal(t, s.Vendor.Code[:], trailer[:4])
	require.Equal(t, byte(2), trailer[4])
	require.NotZero(t, trailer[5]&openFlagGGEPPresent)
	require.NotZero(t, trailer[6]&openFlagGGEPPresent)

	exts, _, err := wire.DecodeGGEPBlock(trailer[7:])
	require.NoError(t, err)
	require.Len(t, exts, 1)
	require.Equal(t, "GTKGV1", exts[0].ID)
}
