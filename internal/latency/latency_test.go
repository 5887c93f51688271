package latency

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wavemesh/wavemesh/internal/clock"
)

func TestLatencyAlignmentScenario(t *testing.T) {
	sp1 := uuid.New()
	sp2 := uuid.New()

	c := NewCompensator()
	c.AddSpeaker(SpeakerLatency{SpeakerID: sp1, Network: 5 * time.Millisecond, Processing: 7 * time.Millisecond, Hardware: 5 * time.Millisecond})
	c.AddSpeaker(SpeakerLatency{SpeakerID: sp2, Network: 10 * time.Millisecond, Processing: 10 * time.Millisecond, Hardware: 8 * time.Millisecond})

	d1, ok := c.DelayFor(sp1)
	require.True(t, ok)
	d2, ok := c.DelayFor(sp2)
	require.True(t, ok)

	assert.Equal(t, 11*time.Millisecond, d1)
	assert.Equal(t, time.Duration(0), d2)
	assert.Equal(t, 28*time.Millisecond, c.MaxLatency())
}

func TestCompensatorDelayForUnknownSpeaker(t *testing.T) {
	c := NewCompensator()
	_, ok := c.DelayFor(uuid.New())
	assert.False(t, ok)
}

func TestCompensatorRemoveRecalculatesMax(t *testing.T) {
	sp1, sp2 := uuid.New(), uuid.New()
	c := NewCompensator()
	c.AddSpeaker(SpeakerLatency{SpeakerID: sp1, Hardware: 50 * time.Millisecond})
	c.AddSpeaker(SpeakerLatency{SpeakerID: sp2, Hardware: 10 * time.Millisecond})
	assert.Equal(t, 50*time.Millisecond, c.MaxLatency())

	c.RemoveSpeaker(sp1)
	assert.Equal(t, 10*time.Millisecond, c.MaxLatency())
	assert.Equal(t, 1, c.SpeakerCount())
}

func TestQueuePopReadyGatesOnDeadline(t *testing.T) {
	q := NewQueue(uuid.New(), 10*time.Millisecond)
	origin := clock.Timestamp{Seconds: 100}
	q.Push(PresentationSlot{OriginTimestamp: origin})

	before := clock.Timestamp{Seconds: 100}
	_, ok := q.PopReady(before)
	assert.False(t, ok)

	after := clock.Timestamp{Seconds: 100, Nanos: 10_000_000}
	slot, ok := q.PopReady(after)
	assert.True(t, ok)
	assert.Equal(t, origin, slot.OriginTimestamp)
	assert.Equal(t, 0, q.Len())
}

func TestQueueOrdersByOriginTimestampOnPush(t *testing.T) {
	q := NewQueue(uuid.New(), 0)
	q.Push(PresentationSlot{OriginTimestamp: clock.Timestamp{Seconds: 5}})
	q.Push(PresentationSlot{OriginTimestamp: clock.Timestamp{Seconds: 2}})
	q.Push(PresentationSlot{OriginTimestamp: clock.Timestamp{Seconds: 3}})

	now := clock.Timestamp{Seconds: 10}
	var seen []uint64
	for {
		slot, ok := q.PopReady(now)
		if !ok {
			break
		}
		seen = append(seen, slot.OriginTimestamp.Seconds)
	}
	assert.Equal(t, []uint64{2, 3, 5}, seen)
}

func TestSchedulerDrainAcrossSpeakers(t *testing.T) {
	sp1, sp2 := uuid.New(), uuid.New()
	c := NewCompensator()
	c.AddSpeaker(SpeakerLatency{SpeakerID: sp1, Hardware: 10 * time.Millisecond})
	c.AddSpeaker(SpeakerLatency{SpeakerID: sp2, Hardware: 20 * time.Millisecond})

	s := NewScheduler()
	origin := clock.Timestamp{Seconds: 1}
	s.Push(sp1, PresentationSlot{OriginTimestamp: origin}, c)
	s.Push(sp2, PresentationSlot{OriginTimestamp: origin}, c)

	now := clock.Timestamp{Seconds: 1, Nanos: 25_000_000}
	out := s.Drain(now)
	assert.Len(t, out[sp1], 1)
	assert.Len(t, out[sp2], 1)
}
