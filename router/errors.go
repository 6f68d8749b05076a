package router

import (
	"errors"
	"expvar"
)

// Kind classifies why a message was dropped (spec.md §7). Kinds are not
// wire-visible; they only drive local counters and disconnect decisions.
type Kind int

const (
	KindMalformed Kind = iota
	KindOversized
	KindThrottled
	KindDuplicate
	KindNoRoute
	KindRouteLost
	KindTTLExceeded
	KindHopsExceeded
	KindHostileIP
	KindBannedGUID
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindOversized:
		return "oversized"
	case KindThrottled:
		return "throttled"
	case KindDuplicate:
		return "duplicate"
	case KindNoRoute:
		return "no_route"
	case KindRouteLost:
		return "route_lost"
	case KindTTLExceeded:
		return "ttl_exceeded"
	case KindHopsExceeded:
		return "hops_exceeded"
	case KindHostileIP:
		return "hostile_ip"
	case KindBannedGUID:
		return "banned_guid"
	default:
		return "unknown"
	}
}

var (
	ErrMalformed    = errors.New("router: malformed message")
	ErrOversized    = errors.New("router: oversized message")
	ErrThrottled    = errors.New("router: peer throttled")
	ErrDuplicate    = errors.New("router: duplicate message")
	ErrNoRoute      = errors.New("router: no route")
	ErrRouteLost    = errors.New("router: route lost")
	ErrTTLExceeded  = errors.New("router: ttl exceeded")
	ErrHopsExceeded = errors.New("router: hops exceeded")
	ErrHostileIP    = errors.New("router: hostile ip")
	ErrBannedGUID   = errors.New("router: banned guid")
	ErrUnknown      = errors.New("router: unknown message type")
)

// counters mirrors the teacher's expvar.NewInt-per-metric convention
// (routingTable.totalNodes/totalKilledNodes), one gauge per spec.md §7 kind.
var counters = expvar.NewMap("router_drops")

func bump(k Kind) {
	counters.Add(k.String(), 1)
}
