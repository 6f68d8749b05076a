package pong

import (
	"time"

	"gnutella/servpeer"
)

// Action classifies how an incoming ping must be handled (spec.md §4.2
// "Ping admission").
type Action int

const (
	ActionAlive Action = iota
	ActionCrawler
	ActionAck
	ActionThrottled
	ActionAccept
)

// AdmitPing classifies an incoming ping and, for the throttle case,
// updates the sender's throttle deadline. sender may be nil only for
// the Alive/Crawler/Ack cases; a normal accepted ping always has a
// registered Peer.
func AdmitPing(sender *servpeer.Peer, hops, ttl uint8, now time.Time, selfMode servpeer.Mode) Action {
	if hops == 0 && ttl == 1 {
		return ActionAlive
	}
	if hops == 0 && ttl == 2 && selfMode != servpeer.ModeLeaf {
		return ActionCrawler
	}
	if ttl == 0 {
		return ActionAck
	}
	if sender != nil {
		if now.Before(sender.PingAcceptAt) {
			sender.Counters.PingsThrottled++
			return ActionThrottled
		}
		sender.PingAcceptAt = now.Add(sender.PingThrottle)
		sender.Counters.PingsAccepted++
	}
	return ActionAccept
}

// FirstAcceptedPing reports whether this is the first ping this node
// has accepted from sender — used to decide whether to reply with
// personal info even outside the Alive/Crawler cases (spec.md §4.2:
// "reply with personal info iff this is the first accepted ping ...").
func FirstAcceptedPing(sender *servpeer.Peer) bool {
	return sender.Counters.PingsAccepted == 1
}

// ShouldReplyWithSelf reports whether a normally-accepted ping should
// be answered with this servent's own info, per spec.md §4.2.
func ShouldReplyWithSelf(sender *servpeer.Peer) bool {
	return FirstAcceptedPing(sender) || sender.Firewalled || sender.UnderConnected
}

// SelfAdvertisedKB computes the KB count to advertise in a self pong
// (spec.md §4.2 "Alive ping" KB signalling): Ultrapeers round up to the
// next power of two (minimum 8, advertising ultra status); leaves and
// legacy servents force the value odd so it is never a power of two.
func SelfAdvertisedKB(kb uint32, mode servpeer.Mode) uint32 {
	if mode == servpeer.ModeUltrapeer {
		if kb < 8 {
			kb = 8
		}
		kb--
		kb |= kb >> 1
		kb |= kb >> 2
		kb |= kb >> 4
		kb |= kb >> 8
		kb |= kb >> 16
		kb++
		return kb
	}
	if kb%2 == 0 {
		kb++
	}
	return kb
}
