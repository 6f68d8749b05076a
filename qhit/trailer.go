package qhit

import (
	"encoding/binary"

	"gnutella/wire"
)

// Open-flags block bits (spec.md §4.4 "Trailer"). Busy/Uploaded/GGEP
// each has a companion "valid" bit in flags_valid; the firewall status
// is carried as an extra bit in flags_valid with its value mirrored
// into the low bit of flags, since the spec calls out firewall as a
// bit "in flags_valid" distinct from the three listed flag bits — this
// is an Open Question decision recorded in DESIGN.md.
const (
	openFlagFirewalled      = 0x01
	openFlagBusy            = 0x04
	openFlagUploadedAlready = 0x08
	openFlagGGEPPresent     = 0x20
)

// GTKGVersion is the GGEP "GTKGV1" self-advertisement.
type GTKGVersion struct {
	Major, Minor, Patch byte
	RevChar             byte
	ReleaseDate         uint32
	StartTimestamp      uint32
}

func (v GTKGVersion) encode() []byte {
	out := make([]byte, 0, 12)
	out = append(out, v.Major, v.Minor, v.Patch, v.RevChar)
	var date, ts [4]byte
	binary.BigEndian.PutUint32(date[:], v.ReleaseDate)
	binary.BigEndian.PutUint32(ts[:], v.StartTimestamp)
	out = append(out, date[:]...)
	out = append(out, ts[:]...)
	return out
}

// VendorInfo is the per-session trailer metadata common to every
// packet a Builder assembles for one query.
type VendorInfo struct {
	Code [4]byte

	Busy            bool
	UploadedAlready bool
	Firewalled      bool

	GTKGV       *GTKGVersion
	PushProxies []AltLocation
	Hostname    string
	BrowseHost  bool
}

// encodeTrailer builds the 4-byte vendor code, the 3-byte open-flags
// block, and any optional GGEP extensions (spec.md §4.4 "Trailer").
func (v VendorInfo) encodeTrailer(maxProxies int) []byte {
	out := make([]byte, 0, 32)
	out = append(out, v.Code[:]...)

	var exts []wire.Extension
	if v.GTKGV != nil {
		exts = append(exts, wire.Extension{ID: "GTKGV1", Data: v.GTKGV.encode()})
	}
	if v.Firewalled && len(v.PushProxies) > 0 {
		n := len(v.PushProxies)
		if n > maxProxies {
			n = maxProxies
		}
		data := make([]byte, 0, n*6)
		for _, p := range v.PushProxies[:n] {
			ip4 := p.IP.To4()
			if ip4 == nil {
				continue
			}
			var port [2]byte
			binary.LittleEndian.PutUint16(port[:], p.Port)
			data = append(data, ip4...)
			data = append(data, port[:]...)
		}
		if len(data) > 0 {
			exts = append(exts, wire.Extension{ID: "PUSH", Data: data})
		}
	}
	if v.Hostname != "" {
		exts = append(exts, wire.Extension{ID: "HNAME", Data: []byte(v.Hostname)})
	}
	if v.BrowseHost {
		exts = append(exts, wire.Extension{ID: "BH"})
	}

	flagsValid := byte(openFlagBusy | openFlagUploadedAlready)
	flags := byte(0)
	if v.Busy {
		flags |= openFlagBusy
	}
	if v.UploadedAlready {
		flags |= openFlagUploadedAlready
	}
	if v.Firewalled {
		flagsValid |= openFlagFirewalled
		flags |= openFlagFirewalled
	}
	if len(exts) > 0 {
		flagsValid |= openFlagGGEPPresent
		flags |= openFlagGGEPPresent
	}

	out = append(out, 2, flagsValid, flags)
	if len(exts) > 0 {
		block, err := wire.EncodeGGEPBlock(exts)
		if err == nil {
			out = append(out, block...)
		}
	}
	return out
}
