package router

import "github.com/rs/zerolog"

// filterEntry bundles one filter's commit log, waiter set, and meter.
// Grounded directly on the original's `Data<T>`.
type filterEntry struct {
	filter  Filter
	log     *CommitLog[Publish]
	waiters *WaiterSet
	meter   SubscriptionMeter
}

func newFilterEntry(filter Filter, maxSegmentSize, maxSegmentCount int) *filterEntry {
	return &filterEntry{
		filter:  filter,
		log:     NewCommitLog[Publish](maxSegmentSize, maxSegmentCount, Publish.Size),
		waiters: NewWaiterSet(0),
	}
}

// append adds publish to the entry's log, updates the meter, and collects
// any waiters it wakes into notifications.
func (e *filterEntry) append(publish Publish, idx FilterIdx, notifications *[]wakeNotification) Offset {
	off := e.log.Append(publish)

	e.meter.Count++
	e.meter.AppendOffset = off
	e.meter.TotalSize += uint64(publish.Size())
	e.meter.HeadSegment, e.meter.TailSegment = e.log.HeadAndTail()

	if woken := e.waiters.Take(); woken != nil {
		for _, w := range woken {
			*notifications = append(*notifications, wakeNotification{Conn: w.id, Request: w.req, FilterIdx: idx})
		}
	}
	return off
}

// wakeNotification is handed to the driver when an append empties a
// filter's waiter set: the connection to wake, the request it was parked
// on, and which filter produced the wake.
type wakeNotification struct {
	Conn      ConnectionId
	Request   DataRequest
	FilterIdx FilterIdx
}

// DataLog owns every filter entry, the filter-index map, the retained-
// publish table, the topic→filters cache, and the read/write markers.
// Grounded on the original's `DataLog`/`Data<T>`.
type DataLog struct {
	config *RouterConfig
	log    zerolog.Logger

	entries       []*filterEntry // indexed by FilterIdx
	filterIndexes map[Filter]FilterIdx

	retained       map[Topic]Publish
	publishFilters map[Topic][]FilterIdx

	readMarkers  map[FilterIdx]*ReadMarkerTracker
	writeMarkers map[FilterIdx]map[ConnectionId]struct{}
}

// NewDataLog creates a data log from cfg, pre-warming it with
// cfg.InitializedFilters.
func NewDataLog(cfg *RouterConfig) *DataLog {
	d := &DataLog{
		config:         cfg,
		log:            cfg.Logger,
		filterIndexes:  make(map[Filter]FilterIdx),
		retained:       make(map[Topic]Publish),
		publishFilters: make(map[Topic][]FilterIdx),
		readMarkers:    make(map[FilterIdx]*ReadMarkerTracker),
		writeMarkers:   make(map[FilterIdx]map[ConnectionId]struct{}),
	}

	for _, f := range cfg.InitializedFilters {
		d.NextNativeOffset(f)
	}
	return d
}

// NextNativeOffset returns filter's index, creating its entry if absent.
// On creation it scans every cached topic→filters entry and appends the
// new index to every list whose topic matches the new filter, keeping the
// memoized Matches cache correct for filters registered after a topic was
// first published.
func (d *DataLog) NextNativeOffset(filter Filter) (FilterIdx, Offset) {
	if idx, ok := d.filterIndexes[filter]; ok {
		return idx, d.entries[idx].log.NextOffset()
	}

	entry := newFilterEntry(filter, d.config.MaxSegmentSize, d.config.MaxSegmentCount)
	idx := FilterIdx(len(d.entries))
	d.entries = append(d.entries, entry)
	d.filterIndexes[filter] = idx

	for topic, filters := range d.publishFilters {
		if matches(topic, filter) {
			d.publishFilters[topic] = append(filters, idx)
		}
	}

	filterEvent(d.log, zerolog.DebugLevel, filter, idx).Msg("filter created")
	return idx, entry.log.NextOffset()
}

// Matches returns the authoritative set of filter indexes whose logs
// should receive a publish on topic, populating the memoization cache on
// miss — even when the result is empty. Indexes are listed in ascending
// order.
func (d *DataLog) Matches(topic Topic) []FilterIdx {
	if cached, ok := d.publishFilters[topic]; ok {
		return cached
	}

	var result []FilterIdx
	for i, entry := range d.entries {
		if matches(topic, entry.filter) {
			result = append(result, FilterIdx(i))
		}
	}
	d.publishFilters[topic] = result
	return result
}

// NativeReadv delegates to filterIdx's commit log. Infallible for any
// FilterIdx previously returned by NextNativeOffset — calling it with any
// other index is a programmer error and panics.
func (d *DataLog) NativeReadv(filterIdx FilterIdx, offset Offset, maxLen int) (Position, []Publish) {
	entry := d.mustEntry(filterIdx)
	var out []Publish
	return entry.log.Readv(offset, maxLen, out)
}

// Shadow returns the last-appended publish on filter, if any (retained/
// sticky read).
func (d *DataLog) Shadow(filter Filter) (Publish, bool) {
	idx, ok := d.filterIndexes[filter]
	if !ok {
		return Publish{}, false
	}
	return d.entries[idx].log.Last()
}

// Park adds id to filterIdx's waiter set. Precondition: the previous read
// on this filter returned Done.
func (d *DataLog) Park(id ConnectionId, request DataRequest) error {
	entry := d.mustEntry(request.Filter)
	return entry.waiters.Register(id, request)
}

// Clean removes id from every filter's waiter set and returns the
// collected pending requests so the driver can free associated state.
func (d *DataLog) Clean(id ConnectionId) []DataRequest {
	var inflight []DataRequest
	for _, entry := range d.entries {
		inflight = append(inflight, entry.waiters.Remove(id)...)
	}
	return inflight
}

// InsertRetained sets topic's retained publish, last-writer-wins. Returns
// ErrRetainedQuotaExceeded if topic is new and the retained table is
// already at config.MaxRetainedTopics; overwriting an already-retained
// topic never counts against the quota.
func (d *DataLog) InsertRetained(topic Topic, publish Publish) error {
	if _, exists := d.retained[topic]; !exists {
		if d.config.MaxRetainedTopics > 0 && len(d.retained) >= d.config.MaxRetainedTopics {
			return ErrRetainedQuotaExceeded
		}
	}
	d.retained[topic] = publish
	return nil
}

// RemoveRetained deletes topic's retained publish.
func (d *DataLog) RemoveRetained(topic Topic) {
	delete(d.retained, topic)
}

// HandleRetainedMessages appends every retained publish whose topic
// matches filter into filter's log, for delivery to a newly subscribed
// connection through the ordinary read path, and collects any waiters
// those appends wake into notifications.
func (d *DataLog) HandleRetainedMessages(filter Filter, notifications *[]wakeNotification) {
	idx, ok := d.filterIndexes[filter]
	if !ok {
		return
	}
	entry := d.entries[idx]

	filterEvent(d.log, zerolog.TraceLevel, filter, idx).Msg("retain-msg")

	for topic, publish := range d.retained {
		if matches(topic, filter) {
			entry.append(publish.Clone(), idx, notifications)
		}
	}
}

// RegisterSubscriber records that subscriberID is reading filterIdx
// starting at startCursor, creating the filter's read-marker tracker on
// first use.
func (d *DataLog) RegisterSubscriber(filterIdx FilterIdx, startCursor Offset, subscriberID ConnectionId) bool {
	marker, ok := d.readMarkers[filterIdx]
	if !ok {
		marker = NewReadMarkerTracker()
		d.readMarkers[filterIdx] = marker
	}
	return marker.Update(subscriberID, startCursor)
}

// ReadMarker returns the read-marker tracker for filterIdx, if any
// subscriber has ever registered on it.
func (d *DataLog) ReadMarker(filterIdx FilterIdx) (*ReadMarkerTracker, bool) {
	m, ok := d.readMarkers[filterIdx]
	return m, ok
}

// Meter returns filter's subscription meter.
func (d *DataLog) Meter(filter Filter) (SubscriptionMeter, bool) {
	idx, ok := d.filterIndexes[filter]
	if !ok {
		return SubscriptionMeter{}, false
	}
	return d.entries[idx].meter, true
}

// Append appends publish to filterIdx's log and collects any waiters it
// wakes into notifications. This is the driver's fan-out primitive,
// called once per matching filter for an inbound publish.
func (d *DataLog) Append(filterIdx FilterIdx, publish Publish, notifications *[]wakeNotification) Offset {
	entry := d.entries[filterIdx]
	return entry.append(publish, filterIdx, notifications)
}

// FilterOf returns the filter string for idx.
func (d *DataLog) FilterOf(idx FilterIdx) Filter {
	return d.entries[idx].filter
}

func (d *DataLog) mustEntry(filterIdx FilterIdx) *filterEntry {
	if int(filterIdx) < 0 || int(filterIdx) >= len(d.entries) {
		panic("router: unregistered FilterIdx used against DataLog")
	}
	return d.entries[filterIdx]
}
