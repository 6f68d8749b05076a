package vmsg

// MessagesSupportedEntry is one (vendor, selector, version) triple
// advertised in a Messages-Supported message.
type MessagesSupportedEntry struct {
	Vendor   VendorCode
	Selector uint16
	Version  uint16
}

const messagesSupportedEntrySize = 4 + 2 + 2

// EncodeMessagesSupported builds the payload: LE16 count followed by
// that many (vendor, selector, version) triples (spec.md §4.5).
func EncodeMessagesSupported(entries []MessagesSupportedEntry) []byte {
	out := make([]byte, 2, 2+len(entries)*messagesSupportedEntrySize)
	out[0] = byte(len(entries))
	out[1] = byte(len(entries) >> 8)
	for _, e := range entries {
		out = append(out, e.Vendor[:]...)
		out = append(out, byte(e.Selector), byte(e.Selector>>8))
		out = append(out, byte(e.Version), byte(e.Version>>8))
	}
	return out
}

// DecodeMessagesSupported parses a Messages-Supported payload.
func DecodeMessagesSupported(payload []byte) ([]MessagesSupportedEntry, error) {
	if len(payload) < 2 {
		return nil, ErrPayloadTooShort
	}
	count := int(payload[0]) | int(payload[1])<<8
	want := 2 + count*messagesSupportedEntrySize
	if len(payload) < want {
		return nil, ErrPayloadTooShort
	}
	entries := make([]MessagesSupportedEntry, count)
	pos := 2
	for i := range entries {
		var e MessagesSupportedEntry
		copy(e.Vendor[:], payload[pos:pos+4])
		e.Selector = uint16(payload[pos+4]) | uint16(payload[pos+5])<<8
		e.Version = uint16(payload[pos+6]) | uint16(payload[pos+7])<<8
		entries[i] = e
		pos += messagesSupportedEntrySize
	}
	return entries, nil
}

// SupportsLeafGuidedDynamicQuery reports whether entries advertise both
// the Query-Status-Request and Query-Status-Response messages, the
// pairing gtk-gnutella treats as "this peer speaks leaf-guided dynamic
// querying" (original_source/src/vmsg.c handle_messages_supported()).
func SupportsLeafGuidedDynamicQuery(entries []MessagesSupportedEntry) bool {
	var req, resp bool
	for _, e := range entries {
		if e.Vendor != VendorBEAR {
			continue
		}
		switch e.Selector {
		case SelQueryStatusRequest:
			req = true
		case SelQueryStatusResponse:
			resp = true
		}
	}
	return req && resp
}

// EncodeHopsFlow builds a BEAR/4 Hops-Flow payload: a single byte
// capping the hop count the recipient should still accept queries at.
func EncodeHopsFlow(hops uint8) []byte { return []byte{hops} }

// DecodeHopsFlow parses a Hops-Flow payload.
func DecodeHopsFlow(payload []byte) (uint8, error) {
	if len(payload) < 1 {
		return 0, ErrPayloadTooShort
	}
	return payload[0], nil
}

// EncodeConnectBack builds a BEAR/7 TCP Connect-Back payload: the LE16
// port the recipient should dial back on.
func EncodeConnectBack(port uint16) []byte {
	return []byte{byte(port), byte(port >> 8)}
}

// DecodeConnectBack parses a Connect-Back payload.
func DecodeConnectBack(payload []byte) (uint16, error) {
	if len(payload) < 2 {
		return 0, ErrPayloadTooShort
	}
	return uint16(payload[0]) | uint16(payload[1])<<8, nil
}

// EncodePushProxyRequest builds a LIME/21 Push-Proxy Request payload,
// which carries no body; the requester's GUID travels in the Gnutella
// header's MUID field, not here.
func EncodePushProxyRequest() []byte { return nil }

// EncodePushProxyAck builds a LIME/22 Push-Proxy Acknowledgment
// payload: the proxy's BE32 IP followed by its LE16 port.
func EncodePushProxyAck(ip [4]byte, port uint16) []byte {
	out := make([]byte, 6)
	copy(out[0:4], ip[:])
	out[4] = byte(port)
	out[5] = byte(port >> 8)
	return out
}

// DecodePushProxyAck parses a Push-Proxy Acknowledgment payload.
func DecodePushProxyAck(payload []byte) (ip [4]byte, port uint16, err error) {
	if len(payload) < 6 {
		return ip, 0, ErrPayloadTooShort
	}
	copy(ip[:], payload[0:4])
	port = uint16(payload[4]) | uint16(payload[5])<<8
	return ip, port, nil
}

// EncodeQueryStatusRequest builds a BEAR/11 Query-Status Request
// payload, which carries no body; the query's MUID travels in the
// Gnutella header.
func EncodeQueryStatusRequest() []byte { return nil }

// EncodeQueryStatusResponse builds a BEAR/12 Query-Status Response
// payload: the LE16 count of results the searcher's filters have kept,
// with 0xFFFF meaning "stop forwarding this query entirely".
func EncodeQueryStatusResponse(kept uint16) []byte {
	return []byte{byte(kept), byte(kept >> 8)}
}

// DecodeQueryStatusResponse parses a Query-Status Response payload.
func DecodeQueryStatusResponse(payload []byte) (uint16, error) {
	if len(payload) < 2 {
		return 0, ErrPayloadTooShort
	}
	return uint16(payload[0]) | uint16(payload[1])<<8, nil
}

// QueryStatusStop is the sentinel Query-Status Response count meaning
// "discard this query, stop forwarding it further".
const QueryStatusStop uint16 = 0xFFFF
