package qhit

import (
	"encoding/base32"
	"encoding/binary"
	"net"

	"gnutella/wire"
)

// sizeOverflowSentinel is the legacy 32-bit size field value used in
// place of a true size ≥ 2^31 (spec.md §4.4).
const sizeOverflowSentinel = 0xFFFFFFFF

// AltLocation is one IPv4+port alternate source.
type AltLocation struct {
	IP   net.IP
	Port uint16
}

// Record is one matched shared file fed into a Builder.
type Record struct {
	Index uint32
	Size  uint64 // true size; may exceed 2^31
	Name  string
	SHA1  *[20]byte
	Alt   []AltLocation
}

// urnBase32 is the RFC 4648 base32 alphabet used for urn:sha1 tokens,
// unpadded (20 bytes encodes to exactly 32 characters).
var urnBase32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// encode appends this record's wire bytes — index, size, name, NUL,
// extensions, NUL — to dst and returns the result.
func (r Record) encode(dst []byte, cfg *Config, recipientGGEPH bool) []byte {
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], r.Index)
	dst = append(dst, idx[:]...)

	sizeField := uint32(r.Size)
	large := r.Size >= (uint64(1) << 31)
	if large {
		sizeField = sizeOverflowSentinel
	}
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], sizeField)
	dst = append(dst, sz[:]...)

	dst = append(dst, r.Name...)
	dst = append(dst, 0)

	dst = append(dst, r.extensionBytes(cfg, recipientGGEPH, large)...)
	dst = append(dst, 0)
	return dst
}

// extensionBytes builds the per-record extension blob: a GGEP "H" SHA-1
// digest if the recipient understands it, else a plain urn:sha1 ASCII
// token; a GGEP "LF" for oversized files; up to cfg.MaxAlt GGEP "ALT"
// locations (spec.md §4.4 "Per-record extension emission").
func (r Record) extensionBytes(cfg *Config, recipientGGEPH bool, large bool) []byte {
	var out []byte
	var exts []wire.Extension

	if r.SHA1 != nil {
		if recipientGGEPH {
			data := append([]byte{0x01}, r.SHA1[:]...)
			exts = append(exts, wire.Extension{ID: "H", Data: data, COBS: true})
		} else {
			out = append(out, "urn:sha1:"...)
			out = append(out, urnBase32.EncodeToString(r.SHA1[:])...)
		}
	}
	if large {
		exts = append(exts, wire.Extension{ID: "LF", Data: wire.EncodeLF(r.Size)})
	}
	if n := len(r.Alt); n > 0 {
		if n > cfg.MaxAlt {
			n = cfg.MaxAlt
		}
		data := make([]byte, 0, n*6)
		for _, a := range r.Alt[:n] {
			ip4 := a.IP.To4()
			if ip4 == nil {
				continue
			}
			var port [2]byte
			binary.LittleEndian.PutUint16(port[:], a.Port)
			data = append(data, ip4...)
			data = append(data, port[:]...)
		}
		if len(data) > 0 {
			exts = append(exts, wire.Extension{ID: "ALT", Data: data})
		}
	}

	if len(exts) > 0 {
		block, err := wire.EncodeGGEPBlock(exts)
		if err == nil {
			out = append(out, block...)
		}
	}
	return out
}
