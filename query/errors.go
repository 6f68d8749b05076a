package query

import (
	"errors"
	"expvar"
)

// Kind classifies why a query was dropped (spec.md §7).
type Kind int

const (
	KindMalformed Kind = iota
	KindOverhead
	KindBadUTF8
	KindHopsExceeded
	KindFirstHopThrottled
	KindMultiHopDuplicate
	KindHostileIP
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindOverhead:
		return "overhead"
	case KindBadUTF8:
		return "bad_utf8"
	case KindHopsExceeded:
		return "hops_exceeded"
	case KindFirstHopThrottled:
		return "first_hop_throttled"
	case KindMultiHopDuplicate:
		return "multi_hop_duplicate"
	case KindHostileIP:
		return "hostile_ip"
	default:
		return "unknown"
	}
}

var (
	ErrNoNulTerminator  = errors.New("query: payload has no NUL terminator for the search text")
	ErrOverheadPrefix   = errors.New("query: well-known overhead prefix")
	ErrBadUTF8          = errors.New("query: invalid UTF-8 after BOM")
	ErrHopsExceeded     = errors.New("query: hops exceeds max_ttl")
	ErrFirstHopThrottle = errors.New("query: first-hop re-query suppressed")
	ErrMultiHopDup      = errors.New("query: multi-hop duplicate suppressed")
	ErrHostileOOB       = errors.New("query: out-of-band return address is hostile")
)

var counters = expvar.NewMap("query_drops")

func bump(k Kind) {
	counters.Add(k.String(), 1)
}
