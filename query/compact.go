package query

import (
	"bytes"
	"unicode/utf8"
)

// utf8BOM is the 3-byte UTF-8 byte-order-mark prefix.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CompactInPlace mutates payload to collapse whitespace runs to a
// single space and drop words shorter than minWordLen, operating on
// the search text between the 2-byte speed field and its NUL
// terminator (spec.md §4.3.1). It never grows the buffer: trailing
// bytes (GGEP extensions) are shifted forward to follow the new,
// shorter NUL-terminated text, and the returned slice is payload
// re-sliced to the new total length.
//
// A leading UTF-8 BOM is stripped before compaction and the remainder
// is validated as UTF-8; a query with no BOM is not validated (legacy
// servents may send non-UTF-8 text) and is compacted byte-wise, which
// is safe because ' ' (0x20) never occurs as part of a UTF-8
// continuation or multi-byte lead byte.
func CompactInPlace(payload []byte, minWordLen int) ([]byte, error) {
	if len(payload) < 3 {
		return payload, nil
	}
	nul := bytes.IndexByte(payload[2:], 0)
	if nul < 0 {
		return nil, ErrNoNulTerminator
	}
	textStart := 2
	textEnd := 2 + nul // index of the NUL
	text := payload[textStart:textEnd]

	bomLen := 0
	if bytes.HasPrefix(text, utf8BOM) {
		bomLen = len(utf8BOM)
		if !utf8.Valid(text[bomLen:]) {
			return nil, ErrBadUTF8
		}
	}

	compacted := compactBytes(text[bomLen:], minWordLen)

	newTextEnd := textStart + len(compacted)
	copy(payload[textStart:newTextEnd], compacted)
	payload[newTextEnd] = 0

	tailStart := textEnd + 1 // one past the original NUL
	tail := payload[tailStart:]
	newTailStart := newTextEnd + 1
	n := copy(payload[newTailStart:], tail)

	return payload[:newTailStart+n], nil
}

// compactBytes is a direct port of gtk-gnutella's compact_query: reduce
// consecutive whitespace to one space, drop words shorter than
// minWordLen, trim leading/trailing space. Operates identically on
// ASCII and UTF-8 input since word length is counted in bytes, not
// code points, matching the original's "count a 3-wide char as 3".
func compactBytes(s []byte, minWordLen int) []byte {
	out := make([]byte, 0, len(s))
	skipSpace := true
	wordLen := 0
	for _, c := range s {
		if c == ' ' {
			if !skipSpace {
				if wordLen < minWordLen {
					out = out[:len(out)-wordLen]
				} else {
					out = append(out, ' ')
				}
				skipSpace = true
				wordLen = 0
			}
			continue
		}
		out = append(out, c)
		wordLen++
		skipSpace = false
	}
	if wordLen > 0 && wordLen < minWordLen {
		out = out[:len(out)-wordLen]
		skipSpace = true
	}
	if skipSpace && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out
}
