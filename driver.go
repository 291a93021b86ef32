package router

import (
	"github.com/google/uuid"

	"github.com/gonzalop/routerd/internal/packets"
	"github.com/rs/zerolog"
)

// FromWirePublish decodes a wire-level PUBLISH packet into the domain
// Publish value the router operates on, converting its v5 properties via
// toPublicProperties.
func FromWirePublish(pkt *packets.PublishPacket) Publish {
	return Publish{
		Topic:      Topic(pkt.Topic),
		Payload:    pkt.Payload,
		QoS:        QoS(pkt.QoS),
		Retain:     pkt.Retain,
		PacketID:   pkt.PacketID,
		Properties: toPublicProperties(pkt.Properties),
	}
}

// PublishInterceptor wraps the router's inbound-publish path, letting
// cross-cutting concerns (logging, metrics, tracing) observe every
// publish before it reaches the data log. Mirrors teacher's
// HandlerInterceptor/PublishInterceptor chain-of-wrappers shape.
type PublishInterceptor func(next PublishFunc) PublishFunc

// PublishFunc matches the signature of Router.Publish.
type PublishFunc func(conn ConnectionId, publish Publish) error

// applyPublishInterceptors wraps publish with every interceptor, outermost
// first, so interceptors[0] sees the publish before interceptors[1].
func applyPublishInterceptors(publish PublishFunc, interceptors []PublishInterceptor) PublishFunc {
	for i := len(interceptors) - 1; i >= 0; i-- {
		publish = interceptors[i](publish)
	}
	return publish
}

// connState is the driver's per-connection bookkeeping: its ack log and
// the filter requests it is currently parked on.
type connState struct {
	acks   *AckLog
	parked map[FilterIdx]*Notification
}

// Router is the reference implementation of the router driver contract: a
// single-goroutine, channel-free event loop that owns one DataLog and one
// AckLog per connection, and wires the commit log, waiter set, topic
// matcher, read markers, and ack log together into the publish/subscribe/
// read/ack lifecycle. It is not a production connection manager —
// transport, auth, and the connection event loop itself are external
// collaborators — but it is complete enough to drive every core operation
// end to end, grounded on teacher's `logic.go`/`logic_queue.go`
// single-goroutine ownership model.
type Router struct {
	config *RouterConfig
	log    zerolog.Logger

	data *DataLog
	acks map[ConnectionId]*connState

	publishInterceptors []PublishInterceptor
}

// NewRouter creates a router driven by cfg.
func NewRouter(cfg *RouterConfig, interceptors ...PublishInterceptor) *Router {
	return &Router{
		config:              cfg,
		log:                 cfg.Logger,
		data:                NewDataLog(cfg),
		acks:                make(map[ConnectionId]*connState),
		publishInterceptors: interceptors,
	}
}

// Connect registers id with the router, creating its ack log. Returns
// ErrTooManyConnections if the configured connection limit is already
// reached.
func (r *Router) Connect(id ConnectionId) (*AckLog, error) {
	if r.config.MaxConnections > 0 && len(r.acks) >= r.config.MaxConnections {
		return nil, &RouterError{Op: "connect", Conn: id, Err: ErrTooManyConnections}
	}
	state := &connState{
		acks:   NewAckLog(r.config.InstantAck),
		parked: make(map[FilterIdx]*Notification),
	}
	r.acks[id] = state
	return state.acks, nil
}

// Disconnect drops id's ack log, clears every waiter it parked, and removes
// id from every filter's read marker. Where that removal advances a filter's
// slowest offset, the new threshold is fed to every remaining ack log.
func (r *Router) Disconnect(id ConnectionId) []DataRequest {
	inflight := r.data.Clean(id)
	if state, ok := r.acks[id]; ok {
		for _, n := range state.parked {
			n.cancel(ErrConnectionClosed)
		}
	}
	delete(r.acks, id)

	for filterIdx, marker := range r.data.readMarkers {
		if !marker.Remove(id) {
			continue
		}
		slowest, _ := marker.Slowest()
		for _, state := range r.acks {
			state.acks.UpdateThreshold(filterIdx, slowest)
		}
	}
	return inflight
}

// Publish is the core inbound-publish path: match the topic against every
// registered filter, append to each matching filter's log, collect woken
// waiters, and — for QoS 1 — hand the resulting offsets to the publishing
// connection's ack log (a QoS 2 publish is recorded with a PubRec
// instead). Any registered PublishInterceptors wrap
// this path outermost-first.
func (r *Router) Publish(conn ConnectionId, publish Publish) error {
	do := r.publish
	if len(r.publishInterceptors) > 0 {
		do = applyPublishInterceptors(do, r.publishInterceptors)
	}
	return do(conn, publish)
}

func (r *Router) publish(conn ConnectionId, publish Publish) error {
	if err := validateTopic(publish.Topic); err != nil {
		return &RouterError{Op: "publish", Conn: conn, Err: err}
	}

	fanoutID := uuid.New().String()
	filterIdxs := r.data.Matches(Topic(publish.Topic))

	r.log.Debug().
		Str("fanout_id", fanoutID).
		Str("topic", string(publish.Topic)).
		Int("matched_filters", len(filterIdxs)).
		Msg("publish fan-out")

	var notifications []wakeNotification
	offsets := make([]filterOffset, 0, len(filterIdxs))
	for _, idx := range filterIdxs {
		off := r.data.Append(idx, publish, &notifications)
		offsets = append(offsets, filterOffset{Filter: idx, Offset: off})
	}

	if publish.Retain {
		if len(publish.Payload) == 0 {
			r.data.RemoveRetained(Topic(publish.Topic))
		} else if err := r.data.InsertRetained(Topic(publish.Topic), publish.Clone()); err != nil {
			return &RouterError{Op: "publish", Conn: conn, Err: err}
		}
	}

	r.wake(fanoutID, notifications)

	state, ok := r.acks[conn]
	if !ok {
		return nil
	}

	switch publish.QoS {
	case AtLeastOnce:
		state.acks.InsertPendingAcks(publish.PacketID, offsets)
	case ExactlyOnce:
		state.acks.PubRec(publish, publish.PacketID, ReasonSuccess)
	}
	return nil
}

// wake re-reads the woken filter for each notification and resolves the
// parked Notification a prior Read call handed back, so a driver that
// called Read, got Done, and is now blocked in Notification.Wait
// observes the new publishes without polling. fanoutID correlates these
// log lines back to the inbound publish that produced them; it is empty
// when wake is called outside a publish (e.g. Subscribe's retained-message
// replay).
func (r *Router) wake(fanoutID string, notifications []wakeNotification) {
	for _, n := range notifications {
		r.log.Trace().
			Str("fanout_id", fanoutID).
			Uint64("conn", uint64(n.Conn)).
			Int("filter_idx", int(n.FilterIdx)).
			Msg("waiter woken")

		state, ok := r.acks[n.Conn]
		if !ok {
			continue
		}
		notification, ok := state.parked[n.FilterIdx]
		if !ok {
			continue
		}
		delete(state.parked, n.FilterIdx)

		_, publishes := r.data.NativeReadv(n.FilterIdx, n.Request.From, n.Request.Max)
		notification.resolve(publishes)
	}
}

// Read services a subscriber's pull request for filterIdx starting at
// from: on a non-empty result it returns the position and publishes
// directly; on a Done result with nothing read it parks the connection and
// returns a Notification that resolves once a later publish wakes it.
func (r *Router) Read(conn ConnectionId, req DataRequest) (Position, []Publish, *Notification, error) {
	pos, publishes := r.data.NativeReadv(req.Filter, req.From, req.Max)
	if pos.Kind != PositionDone || len(publishes) > 0 {
		return pos, publishes, nil, nil
	}

	if err := r.data.Park(conn, req); err != nil {
		return pos, nil, nil, &RouterError{Op: "read", Conn: conn, Err: err}
	}

	notification := NewNotification()
	if state, ok := r.acks[conn]; ok {
		state.parked[req.Filter] = notification
	}
	return pos, nil, notification, nil
}

// Subscribe registers conn as a reader of filter starting at startCursor,
// pre-seeding its log with matching retained publishes. Returns a
// RouterError if filter violates MQTT v5.0 §4.7 wildcard grammar.
func (r *Router) Subscribe(conn ConnectionId, filter Filter, startCursor Offset) (FilterIdx, error) {
	if err := validateFilter(filter); err != nil {
		return 0, &RouterError{Op: "subscribe", Conn: conn, Filter: filter, Err: err}
	}

	idx, _ := r.data.NextNativeOffset(filter)

	var notifications []wakeNotification
	r.data.HandleRetainedMessages(filter, &notifications)
	r.wake("", notifications)

	r.data.RegisterSubscriber(idx, startCursor, conn)
	return idx, nil
}

// AdvanceMarker records that conn has persisted up through offset on
// filterIdx and feeds the filter's current slowest subscriber offset to
// every connected ack log as its threshold, releasing any deferred PubAck
// that filter was the last one blocking. The slowest offset is fed on every
// call, whether or not this update moved it. An ack log with no deferred
// record on filterIdx only records the threshold, so feeding every
// connection is simpler than tracking per-connection filter interest.
func (r *Router) AdvanceMarker(conn ConnectionId, filterIdx FilterIdx, offset Offset) {
	r.data.RegisterSubscriber(filterIdx, offset, conn)

	marker, ok := r.data.ReadMarker(filterIdx)
	if !ok {
		return
	}
	slowest, ok := marker.Slowest()
	if !ok {
		return
	}

	for _, state := range r.acks {
		state.acks.UpdateThreshold(filterIdx, slowest)
	}
}

// AckLogFor returns conn's ack log, if connected.
func (r *Router) AckLogFor(conn ConnectionId) (*AckLog, bool) {
	state, ok := r.acks[conn]
	if !ok {
		return nil, false
	}
	return state.acks, true
}
