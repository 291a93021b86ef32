package router

// Offset identifies a slot in one filter's commit log: the segment it landed
// in and its position within that segment. Offsets are totally ordered
// lexicographically by (Segment, Position) and are unique per filter, not
// globally.
type Offset struct {
	Segment  SegmentId
	Position int
}

// Less reports whether o sorts strictly before other.
func (o Offset) Less(other Offset) bool {
	if o.Segment != other.Segment {
		return o.Segment < other.Segment
	}
	return o.Position < other.Position
}

// SegmentId identifies one segment of a commit log. Segment ids are
// allocated in increasing order and never reused, even after eviction.
type SegmentId uint64

// FilterIdx is a dense integer handle for a registered filter, assigned by
// the data log the first time the filter is seen. Stable for the lifetime
// of the process.
type FilterIdx int

// ConnectionId opaquely identifies one subscriber session. The data log
// never holds anything but this handle back to a connection.
type ConnectionId uint64

// Filter is an MQTT v5 topic-filter string: it may contain the wildcards
// '+' (single level) and '#' (trailing levels only).
type Filter string

// Topic is a concrete publish destination: a '/'-separated string with no
// wildcards.
type Topic string

// Publish is the application message that flows through the router: the
// decoded payload of an inbound PUBLISH, independent of wire encoding.
type Publish struct {
	Topic      Topic
	Payload    []byte
	QoS        QoS
	Retain     bool
	PacketID   uint16 // only meaningful when QoS >= AtLeastOnce
	Properties *Properties
}

// Size returns the publish's size in bytes: topic, payload, and a rough
// allowance for v5 properties. Used for the subscription meter's
// total_size accounting, not wire-exact framing.
func (p Publish) Size() int {
	n := len(p.Topic) + len(p.Payload)
	if p.Properties != nil {
		n += p.Properties.approxSize()
	}
	return n
}

// Clone returns a copy of p suitable for appending to another filter's log:
// the payload is copied into a new buffer and the Properties struct into a
// new value. The properties' CorrelationData, SubscriptionIdentifier,
// UserProperties map and pointer fields are not copied and stay shared
// with p.
func (p Publish) Clone() Publish {
	cp := p
	if p.Payload != nil {
		cp.Payload = append([]byte(nil), p.Payload...)
	}
	if p.Properties != nil {
		clonedProps := *p.Properties
		cp.Properties = &clonedProps
	}
	return cp
}

// DataRequest describes what a parked subscriber is waiting for: a read
// starting at Offset, for at most Max items.
type DataRequest struct {
	Filter FilterIdx
	From   Offset
	Max    int
}

// approxSize estimates the wire footprint of a Properties value well enough
// for meter accounting; it is not a substitute for the codec's own Size().
func (p *Properties) approxSize() int {
	n := len(p.ContentType) + len(p.ResponseTopic) + len(p.CorrelationData) + len(p.ReasonString)
	for k, v := range p.UserProperties {
		n += len(k) + len(v)
	}
	n += 4 * len(p.SubscriptionIdentifier)
	return n
}
