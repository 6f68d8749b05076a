package servent

import "gnutella/servpeer"

// PushProxyMap is the mapping from a servent identifier to the Peer
// currently proxying Push requests for it (spec.md §3 "Push-proxy
// map"). Keys are unique: registering a GUID already in the map
// replaces the prior proxy.
type PushProxyMap struct {
	m map[[16]byte]servpeer.Handle
}

// NewPushProxyMap returns an empty map.
func NewPushProxyMap() *PushProxyMap {
	return &PushProxyMap{m: make(map[[16]byte]servpeer.Handle)}
}

// Set records peer as the Push proxy for serventID.
func (m *PushProxyMap) Set(serventID [16]byte, peer servpeer.Handle) {
	m.m[serventID] = peer
}

// Get resolves the proxy Peer handle for serventID, if any.
func (m *PushProxyMap) Get(serventID [16]byte) (servpeer.Handle, bool) {
	h, ok := m.m[serventID]
	return h, ok
}

// Remove drops any proxy entry for serventID.
func (m *PushProxyMap) Remove(serventID [16]byte) {
	delete(m.m, serventID)
}

// RemovePeer drops every entry proxying through peer, called when that
// peer disconnects (spec.md §9: proxy entries, keyed by servent ID,
// only ever hold the proxying Peer's current Handle, which
// Registry.Remove already invalidates — this just keeps the map itself
// from growing unbounded with stale entries across long-running
// servents).
func (m *PushProxyMap) RemovePeer(peer servpeer.Handle) {
	for id, h := range m.m {
		if h == peer {
			delete(m.m, id)
		}
	}
}
