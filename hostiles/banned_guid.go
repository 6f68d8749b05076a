package hostiles

import "gnutella/guid"

// BannedGUIDs is the small set of servent identifiers for which Push
// routes must never be honoured (spec.md §3 "Banned-GUID set"):
// historically broken clients that reuse the same GUID across hosts.
type BannedGUIDs struct {
	set map[guid.GUID]struct{}
}

// NewBannedGUIDs returns a set seeded with the given GUIDs.
func NewBannedGUIDs(seed ...guid.GUID) *BannedGUIDs {
	b := &BannedGUIDs{set: make(map[guid.GUID]struct{}, len(seed))}
	for _, g := range seed {
		b.set[g] = struct{}{}
	}
	return b
}

func (b *BannedGUIDs) Add(g guid.GUID) { b.set[g] = struct{}{} }

func (b *BannedGUIDs) Contains(g guid.GUID) bool {
	_, ok := b.set[g]
	return ok
}

// Snapshot returns every banned GUID, for persistence via guid.Store.
func (b *BannedGUIDs) Snapshot() []guid.GUID {
	out := make([]guid.GUID, 0, len(b.set))
	for g := range b.set {
		out = append(out, g)
	}
	return out
}
