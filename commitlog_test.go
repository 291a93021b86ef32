package router

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitLogAppendMonotoneOffsets(t *testing.T) {
	log := NewCommitLog[string](1024, 8, func(s string) int { return len(s) })

	o1 := log.Append("a")
	o2 := log.Append("b")
	o3 := log.Append("c")

	require.True(t, o1.Less(o2))
	require.True(t, o2.Less(o3))
}

func TestCommitLogEmptyLogCreatesSegmentZero(t *testing.T) {
	log := NewCommitLog[string](1024, 8, func(s string) int { return len(s) })
	off := log.Append("first")
	require.Equal(t, SegmentId(0), off.Segment)
	require.Equal(t, 0, off.Position)
}

func TestCommitLogSealsSegmentOnOverflow(t *testing.T) {
	log := NewCommitLog[string](5, 8, func(s string) int { return len(s) })

	o1 := log.Append("abcde") // fills segment 0 exactly
	o2 := log.Append("f")     // must roll to a new segment

	require.Equal(t, o1.Segment, SegmentId(0))
	require.NotEqual(t, o1.Segment, o2.Segment)
}

func TestCommitLogNeverEvictsSingleSegment(t *testing.T) {
	log := NewCommitLog[string](1, 1, func(s string) int { return len(s) })

	for i := 0; i < 100; i++ {
		log.Append("x")
	}

	head, tail := log.HeadAndTail()
	require.Equal(t, head, tail, "a single segment must never be evicted regardless of size")
}

func TestCommitLogEvictsOldestSegment(t *testing.T) {
	log := NewCommitLog[string](1, 2, func(s string) int { return len(s) })

	var offsets []Offset
	for i := 0; i < 5; i++ {
		offsets = append(offsets, log.Append("x"))
	}

	head, tail := log.HeadAndTail()
	require.Equal(t, SegmentId(3), head, "oldest segments should have been evicted")
	require.Equal(t, SegmentId(4), tail)

	var out []string
	pos, out := log.Readv(offsets[0], 10, out)
	require.Equal(t, PositionNext, pos.Kind, "reading an evicted offset must jump forward, not error")
	require.Empty(t, out, "jump-forward must push nothing")
	require.Equal(t, SegmentId(3), pos.At.Segment)
}

func TestCommitLogReadvDoneAtNextOffset(t *testing.T) {
	log := NewCommitLog[string](1024, 8, func(s string) int { return len(s) })
	log.Append("a")

	var out []string
	pos, out := log.Readv(log.NextOffset(), 10, out)
	require.Equal(t, PositionDone, pos.Kind)
	require.Empty(t, out)
}

func TestCommitLogReadvReturnsInOrder(t *testing.T) {
	log := NewCommitLog[string](1024, 8, func(s string) int { return len(s) })
	first := log.Append("a")
	log.Append("b")
	log.Append("c")

	var out []string
	pos, out := log.Readv(first, 2, out)
	require.Equal(t, PositionNext, pos.Kind)
	require.Equal(t, []string{"a", "b"}, out)

	pos, out = log.Readv(pos.At, 10, out)
	require.Equal(t, PositionDone, pos.Kind)
	require.Equal(t, []string{"a", "b", "c"}, out)
}

func TestCommitLogLast(t *testing.T) {
	log := NewCommitLog[string](1024, 8, func(s string) int { return len(s) })

	_, ok := log.Last()
	require.False(t, ok, "empty log has no last item")

	log.Append("a")
	log.Append("b")

	last, ok := log.Last()
	require.True(t, ok)
	require.Equal(t, "b", last)
}
