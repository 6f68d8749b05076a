// Package wire implements the low-level Gnutella framing this module's
// subsystems all sit on top of: the fixed 23-octet message header,
// GGEP extension framing and COBS, and the Push message body.
package wire

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed length, in octets, of a Gnutella message header.
const HeaderSize = 23

// MUID is the 16-octet Message Unique IDentifier carried by every header.
type MUID [16]byte

// Function codes used by the core message plane.
const (
	FuncPing         byte = 0x00
	FuncPong         byte = 0x01
	FuncBye          byte = 0x02
	FuncQRP          byte = 0x30
	FuncVendor       byte = 0x31
	FuncVendorStd    byte = 0x32
	FuncPush         byte = 0x40
	FuncQuery        byte = 0x80
	FuncQueryHit     byte = 0x81
)

// Header is the decoded form of the 23-octet Gnutella message header.
type Header struct {
	MUID     MUID
	Function byte
	TTL      byte
	Hops     byte
	Length   uint32 // payload length, little-endian on the wire
}

var ErrShortHeader = errors.New("wire: buffer shorter than header size")

// DecodeHeader parses the first HeaderSize bytes of b into a Header.
func DecodeHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderSize {
		return h, ErrShortHeader
	}
	copy(h.MUID[:], b[0:16])
	h.Function = b[16]
	h.TTL = b[17]
	h.Hops = b[18]
	h.Length = binary.LittleEndian.Uint32(b[19:23])
	return h, nil
}

// Encode writes the header into buf, which must have length >= HeaderSize.
func (h Header) Encode(buf []byte) {
	copy(buf[0:16], h.MUID[:])
	buf[16] = h.Function
	buf[17] = h.TTL
	buf[18] = h.Hops
	binary.LittleEndian.PutUint32(buf[19:23], h.Length)
}

// IsRequest reports whether the function code follows the core's
// "even function = request, odd = reply" convention. This only holds
// for the Ping/Pong and Query/Query-Hit pairs the router cares about;
// callers must not apply it blindly to every function code.
func (h Header) IsRequest() bool { return h.Function&0x01 == 0 }

// ReplyFunctionOf returns the request function code a reply function
// corresponds to (e.g. FuncPong -> FuncPing).
func ReplyFunctionOf(reply byte) byte { return reply &^ 0x01 }
