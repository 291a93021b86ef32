// Package router implements the broker-side data plane of an MQTT v5.0
// router: the segmented per-filter commit log, the topic matcher, the
// waiter/notification mechanism for idle subscribers, per-filter read
// markers, and the deferred-PubAck scheme that correlates a publish's
// fan-out across filters against subscriber progress before releasing
// its acknowledgement.
//
// # Scope
//
// This package is the core the rest of a broker is built around: a
// connection's transport, authentication, and wire encoding are external
// collaborators. Router is a minimal, in-memory, single-goroutine
// reference implementation of the contract those collaborators must
// satisfy — sufficient to exercise every core component end to end, not
// a production connection manager.
//
// # Core components
//
//   - CommitLog is a generic, bounded, segmented append log: entries are
//     appended at monotonically increasing Offsets, and old segments are
//     evicted once the configured size/count bound is exceeded.
//   - WaiterSet holds connections that read a filter to empty and are
//     waiting for the next append to wake them.
//   - DataLog owns one filter entry (commit log + waiter set + meter) per
//     registered Filter, the topic→filters memoization cache, the
//     retained-publish table, and the read/write markers.
//   - ReadMarkerTracker computes the slowest subscriber's offset per
//     filter, the threshold a deferred PubAck waits on.
//   - AckLog holds one connection's committed acks, QoS-2 recorded
//     publishes, and deferred-ack bookkeeping; InsertPendingAcks defers a
//     QoS-1 PubAck until every filter the publish matched has advanced
//     past the offset it landed at.
//
// # Quick start
//
//	cfg := router.NewRouterConfig(router.WithMaxSegmentSize(1 << 20))
//	r := router.NewRouter(cfg)
//
//	acks, _ := r.Connect(connID)
//	idx, _ := r.Subscribe(connID, "sensors/+/temperature", router.Offset{})
//
//	r.Publish(publisherID, router.Publish{
//	    Topic: "sensors/kitchen/temperature",
//	    Payload: []byte("22.5"),
//	    QoS: router.AtLeastOnce,
//	})
//
//	pos, publishes, notification, _ := r.Read(connID, router.DataRequest{Filter: idx, Max: 16})
//	if notification != nil {
//	    publishes, _ = notification.Wait(context.Background())
//	}
//	_ = acks
//	_ = pos
package router
