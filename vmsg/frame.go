// Package vmsg implements Gnutella vendor-specific messages (spec.md
// §4.5): wire framing, the six — well, seven — message kinds, and a
// dispatch table keyed by (vendor, selector, version).
package vmsg

import (
	"encoding/binary"
	"errors"
)

// VendorCode is the 4-byte ASCII vendor identifier introducing every
// vendor message (e.g. "BEAR", "LIME").
type VendorCode [4]byte

var (
	VendorNull = VendorCode{0, 0, 0, 0} // used only by Messages-Supported
	VendorBEAR = VendorCode{'B', 'E', 'A', 'R'}
	VendorLIME = VendorCode{'L', 'I', 'M', 'E'}
)

// Selectors within each vendor's namespace (spec.md §4.5 table).
const (
	SelMessagesSupported   uint16 = 0x0000
	SelHopsFlow            uint16 = 0x0004
	SelConnectBack         uint16 = 0x0007
	SelQueryStatusRequest  uint16 = 0x000B
	SelQueryStatusResponse uint16 = 0x000C
	SelPushProxyRequest    uint16 = 0x0015
	SelPushProxyAck        uint16 = 0x0016
)

// Frame is a decoded vendor message: [4-byte vendor | LE16 selector |
// LE16 version | payload].
type Frame struct {
	Vendor   VendorCode
	Selector uint16
	Version  uint16
	Payload  []byte
}

const frameHeaderSize = 4 + 2 + 2

var ErrFrameTooShort = errors.New("vmsg: frame shorter than its fixed header")

// DecodeFrame parses a vendor-message payload (the bytes following the
// Gnutella header) into a Frame.
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < frameHeaderSize {
		return Frame{}, ErrFrameTooShort
	}
	var f Frame
	copy(f.Vendor[:], b[0:4])
	f.Selector = binary.LittleEndian.Uint16(b[4:6])
	f.Version = binary.LittleEndian.Uint16(b[6:8])
	f.Payload = append([]byte(nil), b[8:]...)
	return f, nil
}

// Encode serialises f back to wire bytes.
func (f Frame) Encode() []byte {
	out := make([]byte, frameHeaderSize+len(f.Payload))
	copy(out[0:4], f.Vendor[:])
	binary.LittleEndian.PutUint16(out[4:6], f.Selector)
	binary.LittleEndian.PutUint16(out[6:8], f.Version)
	copy(out[8:], f.Payload)
	return out
}
