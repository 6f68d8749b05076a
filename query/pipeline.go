package query

import (
	"bytes"
	"net"
	"time"

	"gnutella/hostiles"
	"gnutella/servpeer"
)

// overheadPrefix is a well-known non-search payload some broken
// clients broadcast (spec.md §4.3 item 2).
var overheadPrefix = []byte("QTRAX2_CONNECTION")

// Parsed is the admitted, decoded form of an inbound Query.
type Parsed struct {
	Text             string
	SHA1             [][20]byte
	Speed            SpeedFlags
	TooShortLocal    bool // skip local matching but may still be forwarded
	SuppressLocalHit bool // both ends firewalled: withhold the local reply
	OOBReplyIP       net.IP
	OOBReplyPort     uint16
}

// Pipeline is the stateful query-admission machinery of spec.md §4.3:
// first-hop and multi-hop duplicate suppression, sharing one Config.
type Pipeline struct {
	cfg      *Config
	firstHop *FirstHopGuard
	multiHop *DupWindows
}

// NewPipeline builds a Pipeline from cfg (or DefaultConfig if nil).
func NewPipeline(cfg *Config) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig
	}
	return &Pipeline{
		cfg:      cfg,
		firstHop: NewFirstHopGuard(cfg.QSeenSize, cfg.RequeryThreshold),
		multiHop: NewDupWindows(cfg.DupWindowSize),
	}
}

// Rotate ages the multi-hop duplicate windows; call on the servent's
// periodic tick.
func (p *Pipeline) Rotate() { p.multiHop.Rotate() }

// Accept runs the full admission path of spec.md §4.3 over one Query
// payload (the bytes after the 23-octet header: 2-byte speed field,
// search text, NUL, optional GGEP extensions). On success it returns
// the possibly-compacted payload (which the caller must use in place
// of the original for any further forwarding) and the parsed query.
// selfMode is this servent's own Mode; compaction is never applied
// when it is a leaf, nor to a query arriving with TTL 0. muid is the encapsulating message's MUID,
// which a requester wanting an out-of-band reply (item 9) stashes its
// own return address in; selfFirewalled is whether this servent itself
// believes it is unreachable, and hostile vets that return address
// before it is trusted.
func (p *Pipeline) Accept(payload []byte, hops, ttl uint8, sender *servpeer.Peer, selfMode servpeer.Mode, muid [16]byte, selfFirewalled bool, hostile *hostiles.Filter, now time.Time) ([]byte, Parsed, error) {
	if len(payload) < 3 {
		bump(KindMalformed)
		return nil, Parsed{}, ErrNoNulTerminator
	}

	nul := bytes.IndexByte(payload[2:], 0)
	if nul < 0 {
		bump(KindMalformed)
		return nil, Parsed{}, ErrNoNulTerminator
	}
	text := payload[2 : 2+nul]
	if bytes.HasPrefix(text, overheadPrefix) {
		bump(KindOverhead)
		return nil, Parsed{}, ErrOverheadPrefix
	}

	if selfMode != servpeer.ModeLeaf && ttl > 0 {
		compacted, err := CompactInPlace(payload, p.cfg.MinWordLength)
		if err != nil {
			bump(KindBadUTF8)
			return nil, Parsed{}, err
		}
		payload = compacted
		nul = bytes.IndexByte(payload[2:], 0)
		text = payload[2 : 2+nul]
	}

	extStart := 2 + nul + 1
	var ext []byte
	if extStart < len(payload) {
		ext = payload[extStart:]
	}
	sha1 := ExtractSHA1URNs(ext)

	if hops > p.cfg.MaxTTL {
		bump(KindHopsExceeded)
		return nil, Parsed{}, ErrHopsExceeded
	}

	parsed := Parsed{
		Text:          string(text),
		SHA1:          sha1,
		TooShortLocal: TriviallyShort(len(text), hops),
	}

	if sender != nil && sender.Mode == servpeer.ModeLeaf {
		if !p.firstHop.Admit(sender.Handle, parsed.Text, now) {
			bump(KindFirstHopThrottled)
			return nil, Parsed{}, ErrFirstHopThrottle
		}
	}

	if sender != nil && sender.Mode != servpeer.ModeLeaf {
		key := dupKey(hops, ttl, parsed.Text)
		if !p.multiHop.Admit(key) {
			bump(KindMultiHopDuplicate)
			return nil, Parsed{}, ErrMultiHopDup
		}
	}

	var speed uint16
	if len(payload) >= 2 {
		speed = uint16(payload[0]) | uint16(payload[1])<<8
	}
	parsed.Speed = ParseSpeed(speed)
	parsed.SuppressLocalHit = parsed.Speed.SuppressLocalReply(selfFirewalled)

	if parsed.Speed.WantsOOBReply {
		ip, port := ExtractOOBAddress(muid)
		if hostile != nil && hostile.IsHostile(ip) {
			bump(KindHostileIP)
			return nil, Parsed{}, ErrHostileOOB
		}
		parsed.OOBReplyIP = ip
		parsed.OOBReplyPort = port
	}

	return payload, parsed, nil
}

func dupKey(hops, ttl uint8, text string) string {
	buf := make([]byte, 0, len(text)+8)
	buf = append(buf, hops, '/')
	buf = append(buf, ttl, '/')
	buf = append(buf, text...)
	return string(buf)
}

// TriviallyShort reports whether a query's text is too short to bother
// with local matching, per spec.md §4.3 item 6.
func TriviallyShort(textLen int, hops uint8) bool {
	return textLen <= 1 || (textLen < 5 && hops > 3)
}

// ForwardingDiscipline applies spec.md §4.3's "Forwarding discipline":
// hops is incremented, ttl decremented; if the resulting ttl is 0 the
// message stops unless the single remaining recipient is a leaf, in
// which case ttl is bumped to 1. A broadcast whose ttl exceeds maxTTL
// is trimmed down to maxTTL — intentionally capable of handing a
// larger hop budget than the original sender chose (spec.md §9 design
// note 2; preserved verbatim, not "fixed").
func ForwardingDiscipline(hops, ttl, maxTTL uint8, soleRecipientIsLeaf bool) (newHops, newTTL uint8, stop bool) {
	newHops = hops + 1
	newTTL = ttl
	if newTTL > 0 {
		newTTL--
	}
	if newTTL > maxTTL {
		newTTL = maxTTL
	}
	if newTTL == 0 {
		if soleRecipientIsLeaf {
			newTTL = 1
		} else {
			stop = true
		}
	}
	return
}
