// Package hostiles implements the host-reachability half of the
// external Host cache contract (spec.md §6): IsHostile and IsValid.
// Range membership is backed by a CIDR trie instead of a linear scan
// list, grounded on github.com/libp2p/go-cidranger from the
// go-libp2p-kbucket example's dependency set.
package hostiles

import (
	"net"

	"github.com/libp2p/go-cidranger"
)

// Filter holds the banned IP ranges a servent refuses to talk to.
type Filter struct {
	ranger cidranger.Ranger
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{ranger: cidranger.NewPCTrieRanger()}
}

// Ban adds a CIDR range (e.g. "203.0.113.0/24") to the hostile set.
func (f *Filter) Ban(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return err
	}
	return f.ranger.Insert(cidranger.NewBasicRangerEntry(*network))
}

// IsHostile reports whether ip falls within a banned range.
func (f *Filter) IsHostile(ip net.IP) bool {
	if ip == nil {
		return false
	}
	ok, err := f.ranger.Contains(ip)
	return err == nil && ok
}

// IsValid reports whether the (ip, port) pair is a plausible routable
// Gnutella endpoint under f's own reachability rules. f currently has
// none beyond the package-level check, so it just delegates.
func (f *Filter) IsValid(ip net.IP, port int) bool {
	return IsValid(ip, port)
}

// IsValid reports whether the (ip, port) pair is a plausible routable
// Gnutella endpoint: not loopback, not unspecified, not multicast, not
// an IPv4 limited/directed broadcast address, and a non-zero port.
func IsValid(ip net.IP, port int) bool {
	if ip == nil || port <= 0 || port > 0xFFFF {
		return false
	}
	if ip.IsLoopback() || ip.IsUnspecified() || ip.IsMulticast() {
		return false
	}
	if v4 := ip.To4(); v4 != nil {
		if v4[3] == 0 || v4[3] == 255 {
			return false
		}
	}
	return true
}
