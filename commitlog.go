package router

import "container/list"

// PositionKind distinguishes a readv result that caught up from one that
// should be retried from a new offset.
type PositionKind int

const (
	// PositionDone means the caller is caught up: fewer than the requested
	// items were available.
	PositionDone PositionKind = iota
	// PositionNext means the caller should retry readv from the returned
	// offset — either because more items remain, or because the requested
	// offset fell in an evicted range and was jumped forward.
	PositionNext
)

// Position is the result of a readv call: a continuation offset and
// whether the caller is caught up or should retry.
type Position struct {
	Kind PositionKind
	At   Offset
}

// segment is one bounded, append-only run of a commit log. Grounded on the
// segment/offset vocabulary of liftbridge's commitlog.Segment and proglog's
// store/segment pair, simplified to the in-memory-only case this router
// covers (no mmap, no on-disk checkpointing — durability beyond eviction is
// out of scope).
type segment[T any] struct {
	id    SegmentId
	items []T
	bytes int
}

// CommitLog is an ordered, segmented, bounded in-memory store of items of
// type T. Every append returns the offset where the item landed; offsets
// remain strictly monotone across evictions because segment ids are never
// reused.
//
// sizeFn measures one item's contribution toward MaxSegmentSize; commit
// logs of differently-sized items (Publish vs. Ack) each supply their own.
type CommitLog[T any] struct {
	maxSegmentSize  int
	maxSegmentCount int
	sizeFn          func(T) int

	segments   *list.List // of *segment[T], oldest first
	nextSegID  SegmentId
	nextOffset Offset
}

// NewCommitLog creates an empty commit log bounded by maxSegmentSize bytes
// per segment and maxSegmentCount live segments.
func NewCommitLog[T any](maxSegmentSize, maxSegmentCount int, sizeFn func(T) int) *CommitLog[T] {
	return &CommitLog[T]{
		maxSegmentSize:  maxSegmentSize,
		maxSegmentCount: maxSegmentCount,
		sizeFn:          sizeFn,
		segments:        list.New(),
	}
}

// activeSegment returns the tail segment, creating segment 0 if the log is
// empty.
func (c *CommitLog[T]) activeSegment() *segment[T] {
	if c.segments.Len() == 0 {
		seg := &segment[T]{id: c.nextSegID}
		c.nextSegID++
		c.segments.PushBack(seg)
		return seg
	}
	return c.segments.Back().Value.(*segment[T])
}

// Append adds item to the active segment, sealing and rolling it if its
// size would exceed maxSegmentSize, then evicting the oldest segment if the
// live count now exceeds maxSegmentCount — unless only one segment exists,
// in which case eviction never happens regardless of size.
func (c *CommitLog[T]) Append(item T) Offset {
	active := c.activeSegment()
	itemSize := c.sizeFn(item)

	if len(active.items) > 0 && active.bytes+itemSize > c.maxSegmentSize {
		active = &segment[T]{id: c.nextSegID}
		c.nextSegID++
		c.segments.PushBack(active)
	}

	active.items = append(active.items, item)
	active.bytes += itemSize

	off := Offset{Segment: active.id, Position: len(active.items) - 1}
	c.nextOffset = Offset{Segment: active.id, Position: len(active.items)}

	c.evictIfNeeded()
	return off
}

// evictIfNeeded drops the oldest sealed segment once the live segment count
// exceeds maxSegmentCount, provided more than one segment exists.
func (c *CommitLog[T]) evictIfNeeded() {
	for c.segments.Len() > 1 && c.segments.Len() > c.maxSegmentCount {
		front := c.segments.Front()
		c.segments.Remove(front)
	}
}

// NextOffset returns the offset at which the next Append will land.
func (c *CommitLog[T]) NextOffset() Offset {
	if c.segments.Len() == 0 {
		return Offset{Segment: c.nextSegID, Position: 0}
	}
	return c.nextOffset
}

// Last returns the most recently appended item, for retained/shadow reads.
func (c *CommitLog[T]) Last() (T, bool) {
	var zero T
	if c.segments.Len() == 0 {
		return zero, false
	}
	back := c.segments.Back().Value.(*segment[T])
	if len(back.items) == 0 {
		return zero, false
	}
	return back.items[len(back.items)-1], true
}

// HeadAndTail returns the oldest and newest live segment ids, for metering.
func (c *CommitLog[T]) HeadAndTail() (SegmentId, SegmentId) {
	if c.segments.Len() == 0 {
		return c.nextSegID, c.nextSegID
	}
	head := c.segments.Front().Value.(*segment[T]).id
	tail := c.segments.Back().Value.(*segment[T]).id
	return head, tail
}

// findSegment returns the segment with the given id, if still live.
func (c *CommitLog[T]) findSegment(id SegmentId) (*list.Element, bool) {
	for e := c.segments.Front(); e != nil; e = e.Next() {
		if e.Value.(*segment[T]).id == id {
			return e, true
		}
	}
	return nil, false
}

// Readv appends up to maxLen items at or after offset to out, in order.
// If offset falls in an evicted range, it returns Next(firstLiveOffset)
// without pushing anything — the caller should retry from there. If offset
// equals NextOffset(), it returns Done(offset) with zero items pushed.
func (c *CommitLog[T]) Readv(offset Offset, maxLen int, out []T) (Position, []T) {
	if c.segments.Len() == 0 {
		return Position{Kind: PositionDone, At: c.NextOffset()}, out
	}

	head := c.segments.Front().Value.(*segment[T]).id
	if offset.Segment < head {
		jumped := Offset{Segment: head, Position: 0}
		return Position{Kind: PositionNext, At: jumped}, out
	}

	elem, ok := c.findSegment(offset.Segment)
	if !ok {
		// offset.Segment is ahead of every live segment (already consumed
		// past eviction) or not yet created; treat as caught up.
		return Position{Kind: PositionDone, At: c.NextOffset()}, out
	}

	pos := offset.Position
	remaining := maxLen
	cur := offset

	for elem != nil && remaining > 0 {
		seg := elem.Value.(*segment[T])
		for pos < len(seg.items) && remaining > 0 {
			out = append(out, seg.items[pos])
			pos++
			remaining--
		}
		if pos >= len(seg.items) {
			next := elem.Next()
			if next == nil {
				cur = Offset{Segment: seg.id, Position: pos}
				elem = nil
				break
			}
			elem = next
			pos = 0
			cur = Offset{Segment: elem.Value.(*segment[T]).id, Position: 0}
			continue
		}
		cur = Offset{Segment: seg.id, Position: pos}
	}

	if remaining == 0 {
		return Position{Kind: PositionNext, At: cur}, out
	}
	return Position{Kind: PositionDone, At: c.NextOffset()}, out
}
