package query

import "net"

// Connection-speed field bit semantics (spec.md §4.3, item 9). Bit 15
// gates interpretation of the rest: when clear, the field is the
// legacy plain-integer connection speed and carries no flags.
const (
	speedBitMark             = 0x8000
	speedBitFirewalled       = 0x4000
	speedBitXMLOptOut        = 0x2000
	speedBitWantsOOBReply    = 0x1000
	speedBitUnderstandsGGEPH = 0x0800
)

// SpeedFlags is the decoded form of a Query's connection-speed field.
type SpeedFlags struct {
	Marked           bool
	Firewalled       bool
	XMLOptOut        bool
	WantsOOBReply    bool
	UnderstandsGGEPH bool
}

// ParseSpeed decodes the connection-speed field per spec.md §4.3 item 9.
func ParseSpeed(speed uint16) SpeedFlags {
	if speed&speedBitMark == 0 {
		return SpeedFlags{}
	}
	return SpeedFlags{
		Marked:           true,
		Firewalled:       speed&speedBitFirewalled != 0,
		XMLOptOut:        speed&speedBitXMLOptOut != 0,
		WantsOOBReply:    speed&speedBitWantsOOBReply != 0,
		UnderstandsGGEPH: speed&speedBitUnderstandsGGEPH != 0,
	}
}

// SuppressLocalReply reports whether a locally-generated reply must be
// withheld: both ends are firewalled, so neither could ever connect to
// the other to transfer the match.
func (f SpeedFlags) SuppressLocalReply(selfFirewalled bool) bool {
	return f.Marked && f.Firewalled && selfFirewalled
}

// ExtractOOBAddress recovers the out-of-band reply address a requester
// stashed in the query's MUID (spec.md §4.3 item 9: "extract the return
// address from the MUID"), following the Gnutella convention of the IP
// in the first four octets (network byte order) and the port in
// octets 13-14 (little-endian).
func ExtractOOBAddress(muid [16]byte) (net.IP, uint16) {
	ip := net.IPv4(muid[0], muid[1], muid[2], muid[3])
	port := uint16(muid[13]) | uint16(muid[14])<<8
	return ip, port
}
