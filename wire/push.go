package wire

import (
	"encoding/binary"
	"net"
)

// PushPayloadSize is the fixed length of a Push message body: a
// 16-octet servent identifier, a little-endian file index, a
// big-endian IPv4 address and a little-endian port.
const PushPayloadSize = 16 + 4 + 4 + 2

// PushPayload is the decoded body of a Function 0x40 Push message.
type PushPayload struct {
	ServentID [16]byte
	FileIndex uint32
	IP        net.IP
	Port      uint16
}

// DecodePushPayload parses a Push message body.
func DecodePushPayload(b []byte) (PushPayload, error) {
	var p PushPayload
	if len(b) < PushPayloadSize {
		return p, ErrShortHeader
	}
	copy(p.ServentID[:], b[0:16])
	p.FileIndex = binary.LittleEndian.Uint32(b[16:20])
	p.IP = net.IPv4(b[20], b[21], b[22], b[23])
	p.Port = binary.LittleEndian.Uint16(b[24:26])
	return p, nil
}

// Encode serialises p back to wire bytes.
func (p PushPayload) Encode() []byte {
	out := make([]byte, PushPayloadSize)
	copy(out[0:16], p.ServentID[:])
	binary.LittleEndian.PutUint32(out[16:20], p.FileIndex)
	v4 := p.IP.To4()
	if v4 != nil {
		copy(out[20:24], v4)
	}
	binary.LittleEndian.PutUint16(out[24:26], p.Port)
	return out
}
