// Package latency aligns per-speaker total latency (network +
// processing + hardware) across a mesh so that every speaker emits the
// same origin timestamp's audio within the clock's skew budget.
package latency

import (
	"time"

	"github.com/google/uuid"
)

// SpeakerLatency is the three latency components one speaker reports.
type SpeakerLatency struct {
	SpeakerID  uuid.UUID
	Network    time.Duration
	Processing time.Duration
	Hardware   time.Duration
}

// Total returns the sum of the three components.
func (l SpeakerLatency) Total() time.Duration {
	return l.Network + l.Processing + l.Hardware
}

// Compensator is a pure value: a snapshot of per-speaker totals and the
// maximum across the registered set. Per the scheduler/compensator
// design note, it is never mutated by the scheduler that reads it —
// only by whoever owns speaker registration.
type Compensator struct {
	latencies  map[uuid.UUID]SpeakerLatency
	maxLatency time.Duration
}

// NewCompensator returns an empty Compensator.
func NewCompensator() *Compensator {
	return &Compensator{latencies: make(map[uuid.UUID]SpeakerLatency)}
}

// AddSpeaker registers or replaces a speaker's latency and recomputes
// the maximum.
func (c *Compensator) AddSpeaker(l SpeakerLatency) {
	c.latencies[l.SpeakerID] = l
	c.recalculateMax()
}

// RemoveSpeaker drops a speaker and recomputes the maximum.
func (c *Compensator) RemoveSpeaker(id uuid.UUID) {
	delete(c.latencies, id)
	c.recalculateMax()
}

func (c *Compensator) recalculateMax() {
	var max time.Duration
	for _, l := range c.latencies {
		if t := l.Total(); t > max {
			max = t
		}
	}
	c.maxLatency = max
}

// DelayFor returns max_latency - total(id), saturating at zero, and
// false if id is not registered.
func (c *Compensator) DelayFor(id uuid.UUID) (time.Duration, bool) {
	l, ok := c.latencies[id]
	if !ok {
		return 0, false
	}
	delay := c.maxLatency - l.Total()
	if delay < 0 {
		delay = 0
	}
	return delay, true
}

// MaxLatency returns the maximum total latency across all registered
// speakers.
func (c *Compensator) MaxLatency() time.Duration { return c.maxLatency }

// SpeakerCount returns the number of registered speakers.
func (c *Compensator) SpeakerCount() int { return len(c.latencies) }
