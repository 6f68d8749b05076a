package servent

import "gnutella/servpeer"

// QueryStatusTable records the leaf-guided dynamic query bookkeeping
// driven by the Query-Status-Request/Response vendor messages (spec.md
// §4.5): which peer asked us for a status update on a given query
// MUID, and the last kept-count a Leaf reported back for it. The
// dynamic-query throttling logic that acts on this state sits outside
// the message plane (spec.md §6); this table only keeps the two
// messages' payloads reachable once decoded.
type QueryStatusTable struct {
	requesters map[[16]byte]servpeer.Handle
	kept       map[[16]byte]uint16
}

// NewQueryStatusTable returns an empty table.
func NewQueryStatusTable() *QueryStatusTable {
	return &QueryStatusTable{
		requesters: make(map[[16]byte]servpeer.Handle),
		kept:       make(map[[16]byte]uint16),
	}
}

// RecordRequest notes that requester asked for a status update on muid.
func (t *QueryStatusTable) RecordRequest(muid [16]byte, requester servpeer.Handle) {
	t.requesters[muid] = requester
}

// Requester returns who last asked for muid's status, if anyone.
func (t *QueryStatusTable) Requester(muid [16]byte) (servpeer.Handle, bool) {
	h, ok := t.requesters[muid]
	return h, ok
}

// RecordResponse notes the kept-count a Leaf reported for muid; kept
// may be vmsg.QueryStatusStop, meaning the query should stop being
// forwarded further.
func (t *QueryStatusTable) RecordResponse(muid [16]byte, kept uint16) {
	t.kept[muid] = kept
}

// Kept returns the last reported kept-count for muid, if any.
func (t *QueryStatusTable) Kept(muid [16]byte) (uint16, bool) {
	kept, ok := t.kept[muid]
	return kept, ok
}
