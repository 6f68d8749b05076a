package wire

// COBS (Consistent Overhead Byte Stuffing) removes zero bytes from a
// byte stream at a cost of at most one byte per 254, as used by GGEP
// extensions that must not contain a NUL (the traditional Gnutella
// payload uses NUL as a field terminator).

// COBSEncode returns src with every zero byte eliminated.
func COBSEncode(src []byte) []byte {
	dst := make([]byte, 0, len(src)+len(src)/254+2)
	// codeIdx points at the not-yet-written length byte of the current block.
	codeIdx := 0
	dst = append(dst, 0) // placeholder
	code := byte(1)

	flush := func() {
		dst[codeIdx] = code
		code = 1
	}

	for _, b := range src {
		if b == 0 {
			flush()
			codeIdx = len(dst)
			dst = append(dst, 0)
			continue
		}
		dst = append(dst, b)
		code++
		if code == 0xFF {
			flush()
			codeIdx = len(dst)
			dst = append(dst, 0)
		}
	}
	flush()
	return dst
}

// COBSDecode reverses COBSEncode. It returns an error if src is malformed.
func COBSDecode(src []byte) ([]byte, error) {
	dst := make([]byte, 0, len(src))
	i := 0
	for i < len(src) {
		code := src[i]
		if code == 0 {
			return nil, errCobsZeroCode
		}
		i++
		n := int(code) - 1
		if i+n > len(src) {
			return nil, errCobsTruncated
		}
		dst = append(dst, src[i:i+n]...)
		i += n
		if code < 0xFF && i < len(src) {
			dst = append(dst, 0)
		}
	}
	return dst, nil
}

var (
	errCobsZeroCode  = errCobs("zero code byte in COBS stream")
	errCobsTruncated = errCobs("truncated COBS stream")
)

type errCobs string

func (e errCobs) Error() string { return "wire: " + string(e) }
