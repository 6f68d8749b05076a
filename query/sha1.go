package query

import (
	"bytes"
	"encoding/base32"

	"gnutella/wire"
)

// urnPrefix is the ASCII token preceding a base32 SHA-1 digest.
const urnPrefix = "urn:sha1:"

// base32Current is the alphabet this implementation emits (matches
// qhit.urnBase32); base32Legacy is tolerated on receipt only, per
// spec.md §4.3 "both current and legacy alphabets tolerated when
// receiving; only current when emitting".
var (
	base32Current = base32.StdEncoding.WithPadding(base32.NoPadding)
	base32Legacy  = base32.HexEncoding.WithPadding(base32.NoPadding)
)

// ExtractSHA1URNs scans a query's trailing extension bytes (everything
// after the search text's NUL) for SHA-1 URNs: a plain-ASCII
// "urn:sha1:<base32>" token, and/or a GGEP "H" binary digest extension
// (spec.md §4.3 item 4).
func ExtractSHA1URNs(ext []byte) [][20]byte {
	var out [][20]byte

	if i := bytes.Index(ext, []byte(urnPrefix)); i >= 0 {
		rest := ext[i+len(urnPrefix):]
		if len(rest) >= 32 {
			token := rest[:32]
			if d, ok := decodeSHA1Base32(token); ok {
				out = append(out, d)
			}
		}
	}

	if j := bytes.IndexByte(ext, 0xC3); j >= 0 {
		if exts, _, err := wire.DecodeGGEPBlock(ext[j:]); err == nil {
			for _, e := range exts {
				if e.ID == "H" && len(e.Data) == 21 && e.Data[0] == 0x01 {
					var d [20]byte
					copy(d[:], e.Data[1:])
					out = append(out, d)
				}
			}
		}
	}
	return out
}

func decodeSHA1Base32(token []byte) ([20]byte, bool) {
	var out [20]byte
	if d, err := base32Current.DecodeString(string(token)); err == nil && len(d) == 20 {
		copy(out[:], d)
		return out, true
	}
	if d, err := base32Legacy.DecodeString(string(token)); err == nil && len(d) == 20 {
		copy(out[:], d)
		return out, true
	}
	return out, false
}
