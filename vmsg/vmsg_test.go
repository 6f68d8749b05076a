package vmsg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"gnutella/servpeer"
)

func TestFrameRoundTrip(t *testing.T) {
	f := Frame{Vendor: VendorBEAR, Selector: SelHopsFlow, Version: 1, Payload: []byte{3}}
	decoded, err := DecodeFrame(f.Encode())
	require.NoError(t, err)
	require.Equal(t, f, decoded)
}

func TestDecodeFrameTooShort(t *testing.T) {
	_, err := DecodeFrame([]byte{'B', 'E', 'A'})
	require.ErrorIs(t, err, ErrFrameTooShort)
}

func TestMessagesSupportedRoundTrip(t *testing.T) {
	entries := []MessagesSupportedEntry{
		{Vendor: VendorBEAR, Selector: SelHopsFlow, Version: 1},
		{Vendor: VendorBEAR, Selector: SelQueryStatusRequest, Version: 1},
		{Vendor: VendorBEAR, Selector: SelQueryStatusResponse, Version: 1},
		{Vendor: VendorLIME, Selector: SelPushProxyRequest, Version: 2},
	}
	payload := EncodeMessagesSupported(entries)
	got, err := DecodeMessagesSupported(payload)
	require.NoError(t, err)
	require.Equal(t, entries, got)
	require.True(t, SupportsLeafGuidedDynamicQuery(got))
}

func TestSupportsLeafGuidedDynamicQueryRequiresBoth(t *testing.T) {
	entries := []MessagesSupportedEntry{
		{Vendor: VendorBEAR, Selector: SelQueryStatusRequest, Version: 1},
	}
	require.False(t, SupportsLeafGuidedDynamicQuery(entries))
}

func TestHopsFlowRoundTrip(t *testing.T) {
	got, err := DecodeHopsFlow(EncodeHopsFlow(3))
	require.NoError(t, err)
	require.Equal(t, uint8(3), got)
}

func TestConnectBackRoundTrip(t *testing.T) {
	got, err := DecodeConnectBack(EncodeConnectBack(6346))
	require.NoError(t, err)
	require.Equal(t, uint16(6346), got)
}

func TestPushProxyAckRoundTrip(t *testing.T) {
	ip := [4]byte{203, 0, 113, 7}
	gotIP, gotPort, err := DecodePushProxyAck(EncodePushProxyAck(ip, 6346))
	require.NoError(t, err)
	require.Equal(t, ip, gotIP)
	require.Equal(t, uint16(6346), gotPort)
}

func TestQueryStatusResponseRoundTrip(t *testing.T) {
	got, err := DecodeQueryStatusResponse(EncodeQueryStatusResponse(QueryStatusStop))
	require.NoError(t, err)
	require.Equal(t, QueryStatusStop, got)
}

func TestDispatchPicksGreatestVersionNotExceedingMessage(t *testing.T) {
	d := NewDispatcher()
	reg := servpeer.NewRegistry()
	peer := &servpeer.Peer{Mode: servpeer.ModeUltrapeer}
	peer.Handle = reg.Add(peer)

	var called int
	var gotMUID [16]byte
	d.Register(VendorBEAR, SelHopsFlow, 1, func(sender *servpeer.Peer, muid [16]byte, frame Frame) error {
		called = 1
		return nil
	})
	d.Register(VendorBEAR, SelHopsFlow, 3, func(sender *servpeer.Peer, muid [16]byte, frame Frame) error {
		called = 3
		gotMUID = muid
		return nil
	})

	// A version-2 message must fall back to the version-1 handler, not
	// the version-3 one registered above it.
	var muid [16]byte
	copy(muid[:], "dispatch-muid")
	err := d.Dispatch(peer, muid, Frame{Vendor: VendorBEAR, Selector: SelHopsFlow, Version: 2})
	require.NoError(t, err)
	require.Equal(t, 1, called)

	err = d.Dispatch(peer, muid, Frame{Vendor: VendorBEAR, Selector: SelHopsFlow, Version: 3})
	require.NoError(t, err)
	require.Equal(t, 3, called)
	require.Equal(t, muid, gotMUID)
}

func TestDispatchUnknownWhenNoCoveringVersion(t *testing.T) {
	d := NewDispatcher()
	d.Register(VendorBEAR, SelHopsFlow, 5, func(sender *servpeer.Peer, muid [16]byte, frame Frame) error { return nil })

	var muid [16]byte
	err := d.Dispatch(nil, muid, Frame{Vendor: VendorBEAR, Selector: SelHopsFlow, Version: 1})
	require.ErrorIs(t, err, ErrUnknownMessage)

	err = d.Dispatch(nil, muid, Frame{Vendor: VendorLIME, Selector: SelPushProxyRequest, Version: 1})
	require.ErrorIs(t, err, ErrUnknownMessage)
}
