package pong

import (
	"encoding/binary"
	"errors"
	"net"
)

// ErrShortPongPayload is returned when a Pong message body is shorter
// than its fixed fields.
var ErrShortPongPayload = errors.New("pong: payload shorter than its fixed fields")

// payloadSize is the fixed length of a Pong message body: a
// little-endian port, a big-endian IPv4 address, and little-endian
// files/KB counts. Vendor GGEP extensions may follow but are not
// needed by the cache admission logic and are ignored on decode.
const payloadSize = 2 + 4 + 4 + 4

// DecodePayload parses a Function 0x01 Pong message body into a
// CachedPong. ReceivedAt and Origin are left for the caller to fill in,
// since they depend on information the wire payload doesn't carry.
func DecodePayload(b []byte) (*CachedPong, error) {
	if len(b) < payloadSize {
		return nil, ErrShortPongPayload
	}
	cp := &CachedPong{
		Port:  binary.LittleEndian.Uint16(b[0:2]),
		IP:    net.IPv4(b[2], b[3], b[4], b[5]),
		Files: binary.LittleEndian.Uint32(b[6:10]),
		KB:    binary.LittleEndian.Uint32(b[10:14]),
	}
	return cp, nil
}

// EncodePayload serialises cp back to a Pong message body.
func EncodePayload(cp *CachedPong) []byte {
	out := make([]byte, payloadSize)
	binary.LittleEndian.PutUint16(out[0:2], cp.Port)
	if v4 := cp.IP.To4(); v4 != nil {
		copy(out[2:6], v4)
	}
	binary.LittleEndian.PutUint32(out[6:10], cp.Files)
	binary.LittleEndian.PutUint32(out[10:14], cp.KB)
	return out
}
