package router

// ReasonSuccess is the zero-value v5 reason code shared by every ack type
// (PubAck, PubRec, PubRel, PubComp, SubAck, UnsubAck) when an operation
// needs no qualification. codes.go's ReasonCodeNormalDisconnect is the
// same byte value under DISCONNECT's naming; kept separate here because
// an ack log has nothing to do with disconnection.
const ReasonSuccess uint8 = 0x00

// AckKind distinguishes the control packets an AckLog commits, mirroring
// the original's `Ack` enum (ConnAck/SubAck/UnsubAck/PubAck/PubRec/PubRel/
// PubComp/PingResp). The AckLog deals in this abstract shape rather than a
// wire-encoded packet — turning one into the other is the transport's job.
type AckKind int

const (
	AckConnAck AckKind = iota
	AckSubAck
	AckUnsubAck
	AckPubAck
	AckPubRec
	AckPubRel
	AckPubComp
	AckPingResp
)

// Ack is one committed outgoing acknowledgement awaiting the driver to
// drain it onto the wire.
type Ack struct {
	Kind       AckKind
	Conn       ConnectionId
	PacketID   uint16
	ReasonCode uint8
}

// filterOffset pairs a filter index with the offset a publish landed at on
// that filter's log — the per-append contribution recorded by
// InsertPendingAcks.
type filterOffset struct {
	Filter FilterIdx
	Offset Offset
}

// pendingPuback is one queued PubAck awaiting release, together with the
// list of filters it must clear before release. A filter can appear more
// than once if two subscriptions route the same publish through the same
// filter index.
type pendingPuback struct {
	ack     Ack
	filters []FilterIdx
}

// deferredAck is the per-connection deferred-PubAck bookkeeping structure,
// grounded directly on the original's `DeferredAck`: one FIFO queue of
// pending PubAcks, a per-filter FIFO of
// the offsets those pubacks are waiting on, and a per-filter threshold —
// the latest offset known to have been persisted by every subscriber of
// that filter. Releasing walks the head of the puback queue, popping each
// filter's matched offset in lockstep, and stops at the first puback that
// isn't yet fully covered by its filters' thresholds.
type deferredAck struct {
	pubacks   []pendingPuback
	markers   map[FilterIdx][]Offset
	threshold map[FilterIdx]Offset
	hasThresh map[FilterIdx]bool
}

func newDeferredAck() *deferredAck {
	return &deferredAck{
		markers:   make(map[FilterIdx][]Offset),
		threshold: make(map[FilterIdx]Offset),
		hasThresh: make(map[FilterIdx]bool),
	}
}

func (d *deferredAck) insert(ack Ack, offsets []filterOffset) {
	filters := make([]FilterIdx, len(offsets))
	for i, fo := range offsets {
		filters[i] = fo.Filter
		d.markers[fo.Filter] = append(d.markers[fo.Filter], fo.Offset)
	}
	d.pubacks = append(d.pubacks, pendingPuback{ack: ack, filters: filters})
}

// updateThreshold records that filterIdx's slowest read marker has
// advanced to newThreshold and releases every now-eligible puback at the
// head of the queue, returning them in release order.
func (d *deferredAck) updateThreshold(filterIdx FilterIdx, newThreshold Offset) []Ack {
	d.threshold[filterIdx] = newThreshold
	d.hasThresh[filterIdx] = true
	return d.release()
}

func (d *deferredAck) release() []Ack {
	var released []Ack

	for len(d.pubacks) > 0 {
		head := d.pubacks[0]

		if !d.headReleasable(head) {
			break
		}

		for _, f := range head.filters {
			d.markers[f] = d.markers[f][1:]
		}
		d.pubacks = d.pubacks[1:]
		released = append(released, head.ack)
	}

	return released
}

func (d *deferredAck) headReleasable(head pendingPuback) bool {
	seen := make(map[FilterIdx]int, len(head.filters))
	for _, f := range head.filters {
		if !d.hasThresh[f] {
			return false
		}
		queue := d.markers[f]
		k := seen[f]
		seen[f]++
		if len(queue) <= k {
			return false
		}
		if d.threshold[f].Less(queue[k]) {
			return false
		}
	}
	return true
}

// AckLog holds one connection's pending acks, QoS-2 recorded publishes,
// and deferred-ack bookkeeping. Grounded on the original's `AckLog`.
type AckLog struct {
	instantAck bool

	committed []Ack
	recorded  []Publish
	deferred  *deferredAck
}

// NewAckLog creates an empty ack log. When instantAck is true, the
// deferred-ack machinery is bypassed entirely: InsertPendingAcks releases
// immediately on append (RouterConfig.InstantAck).
func NewAckLog(instantAck bool) *AckLog {
	return &AckLog{instantAck: instantAck, deferred: newDeferredAck()}
}

// ConnAck appends a ConnAck to the committed queue.
func (a *AckLog) ConnAck(id ConnectionId, packetID uint16, reason uint8) {
	a.committed = append(a.committed, Ack{Kind: AckConnAck, Conn: id, PacketID: packetID, ReasonCode: reason})
}

// SubAck appends a SubAck to the committed queue.
func (a *AckLog) SubAck(packetID uint16, reason uint8) {
	a.committed = append(a.committed, Ack{Kind: AckSubAck, PacketID: packetID, ReasonCode: reason})
}

// UnsubAck appends an UnsubAck to the committed queue.
func (a *AckLog) UnsubAck(packetID uint16, reason uint8) {
	a.committed = append(a.committed, Ack{Kind: AckUnsubAck, PacketID: packetID, ReasonCode: reason})
}

// PubAck appends a PubAck directly to the committed queue, bypassing the
// deferred-ack scheme.
func (a *AckLog) PubAck(packetID uint16, reason uint8) {
	a.committed = append(a.committed, Ack{Kind: AckPubAck, PacketID: packetID, ReasonCode: reason})
}

// PubRec records publish onto the QoS-2 recorded queue and appends the
// PubRec to the committed queue.
func (a *AckLog) PubRec(publish Publish, packetID uint16, reason uint8) {
	a.recorded = append(a.recorded, publish)
	a.committed = append(a.committed, Ack{Kind: AckPubRec, PacketID: packetID, ReasonCode: reason})
}

// PubRel appends a PubRel to the committed queue.
func (a *AckLog) PubRel(packetID uint16, reason uint8) {
	a.committed = append(a.committed, Ack{Kind: AckPubRel, PacketID: packetID, ReasonCode: reason})
}

// PubComp appends a PubComp to the committed queue and pops the oldest
// recorded publish, whose QoS-2 delivery is now complete.
func (a *AckLog) PubComp(packetID uint16, reason uint8) (Publish, bool) {
	a.committed = append(a.committed, Ack{Kind: AckPubComp, PacketID: packetID, ReasonCode: reason})
	if len(a.recorded) == 0 {
		return Publish{}, false
	}
	publish := a.recorded[0]
	a.recorded = a.recorded[1:]
	return publish, true
}

// PingResp appends a PingResp to the committed queue.
func (a *AckLog) PingResp() {
	a.committed = append(a.committed, Ack{Kind: AckPingResp})
}

// Drain returns and clears the committed queue, for the driver to write to
// the wire.
func (a *AckLog) Drain() []Ack {
	if len(a.committed) == 0 {
		return nil
	}
	drained := a.committed
	a.committed = nil
	return drained
}

// InsertPendingAcks enqueues a deferred-ack record for an inbound QoS-1
// publish (MQTT v5.0 §4.3.2) that fanned out to the filters named in
// offsets — the original leaves this unimplemented. When instantAck is
// set, or offsets is empty (the publish matched no subscriber), the PubAck
// releases immediately instead of being deferred.
func (a *AckLog) InsertPendingAcks(packetID uint16, offsets []filterOffset) {
	ack := Ack{Kind: AckPubAck, PacketID: packetID}

	if a.instantAck || len(offsets) == 0 {
		a.committed = append(a.committed, ack)
		return
	}

	a.deferred.insert(ack, offsets)
}

// UpdateThreshold records that filterIdx's slowest read marker has
// advanced to newThreshold and releases every now-eligible deferred PubAck
// into the committed queue, in the order they were inserted.
func (a *AckLog) UpdateThreshold(filterIdx FilterIdx, newThreshold Offset) {
	released := a.deferred.updateThreshold(filterIdx, newThreshold)
	a.committed = append(a.committed, released...)
}
