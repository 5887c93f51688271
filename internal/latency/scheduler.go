package latency

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wavemesh/wavemesh/internal/audioblock"
	"github.com/wavemesh/wavemesh/internal/clock"
)

// PresentationSlot is one block waiting to be emitted at a speaker, once
// the speaker's compensating delay has elapsed since the block's origin
// timestamp.
type PresentationSlot struct {
	Block            audioblock.Block
	OriginTimestamp  clock.Timestamp
	PresentationTime clock.Timestamp
}

// Queue is a per-speaker FIFO of presentation slots, ordered by origin
// timestamp. Pop only releases the head slot once now has reached
// origin + the speaker's delay.
type Queue struct {
	speakerID uuid.UUID
	delay     time.Duration
	slots     []PresentationSlot
}

// NewQueue returns an empty Queue for one speaker with a fixed
// compensating delay.
func NewQueue(speakerID uuid.UUID, delay time.Duration) *Queue {
	return &Queue{speakerID: speakerID, delay: delay}
}

// SetDelay updates the compensating delay, e.g. after the compensator's
// snapshot changes between ticks.
func (q *Queue) SetDelay(delay time.Duration) { q.delay = delay }

// Push appends a slot and keeps the queue sorted by origin timestamp —
// later-pushed slots with earlier timestamps are permitted (out-of-order
// decode) but never reordered again once popped.
func (q *Queue) Push(slot PresentationSlot) {
	q.slots = append(q.slots, slot)
	sort.SliceStable(q.slots, func(i, j int) bool {
		return q.slots[i].OriginTimestamp.ToDuration() < q.slots[j].OriginTimestamp.ToDuration()
	})
}

// PopReady returns the head slot if now has reached
// origin_timestamp + delay, otherwise ok is false and nothing is
// removed.
func (q *Queue) PopReady(now clock.Timestamp) (PresentationSlot, bool) {
	if len(q.slots) == 0 {
		return PresentationSlot{}, false
	}

	head := q.slots[0]
	deadline := head.OriginTimestamp.ToDuration() + q.delay
	if now.ToDuration() < deadline {
		return PresentationSlot{}, false
	}

	q.slots = q.slots[1:]
	return head, true
}

// Len returns the number of queued slots.
func (q *Queue) Len() int { return len(q.slots) }

// Scheduler manages one Queue per speaker, reading delays from a
// Compensator snapshot taken once per tick.
type Scheduler struct {
	queues map[uuid.UUID]*Queue
}

// NewScheduler returns an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{queues: make(map[uuid.UUID]*Queue)}
}

// EnsureQueue returns the Queue for speakerID, creating it (with delay
// from compensator) if it doesn't exist yet, and refreshing its delay
// from compensator otherwise.
func (s *Scheduler) EnsureQueue(speakerID uuid.UUID, compensator *Compensator) *Queue {
	delay, _ := compensator.DelayFor(speakerID)
	q, ok := s.queues[speakerID]
	if !ok {
		q = NewQueue(speakerID, delay)
		s.queues[speakerID] = q
		return q
	}
	q.SetDelay(delay)
	return q
}

// Push enqueues a slot for speakerID.
func (s *Scheduler) Push(speakerID uuid.UUID, slot PresentationSlot, compensator *Compensator) {
	s.EnsureQueue(speakerID, compensator).Push(slot)
}

// Drain pops every ready slot across all speakers, keyed by speaker.
func (s *Scheduler) Drain(now clock.Timestamp) map[uuid.UUID][]PresentationSlot {
	out := make(map[uuid.UUID][]PresentationSlot)
	for id, q := range s.queues {
		for {
			slot, ok := q.PopReady(now)
			if !ok {
				break
			}
			out[id] = append(out[id], slot)
		}
	}
	return out
}
