package clock

import "time"

// LooseSyncTarget is the NTP skew budget this pipeline is tuned for.
const LooseSyncTarget = 10 * time.Millisecond

// convergenceFraction is how much of the observed reference distance
// each sync folds into the offset — NTP-style slow convergence rather
// than PTP's single-shot latch.
const convergenceFraction = 10

// NTPClock moves its offset gradually rather than latching it in one
// step: each sync adds 1/convergenceFraction of the absolute distance
// between the reference and the uncorrected local clock to the offset,
// whichever side of the local clock the reference lies on.
type NTPClock struct {
	offset   time.Duration
	lastSkew time.Duration
}

// NewNTPClock returns an NTPClock with zero offset.
func NewNTPClock() *NTPClock { return &NTPClock{} }

func (c *NTPClock) Now() Timestamp {
	local := time.Duration(time.Now().UnixNano())
	return timestampFromDuration(local+c.offset, SourceNTP)
}

// SyncTo folds 10% of the distance to reference into the offset.
func (c *NTPClock) SyncTo(reference Timestamp) {
	local := time.Duration(time.Now().UnixNano())
	refDuration := reference.ToDuration()

	distance := refDuration - local
	if distance < 0 {
		distance = -distance
	}
	step := distance / convergenceFraction

	c.offset += step
	c.lastSkew = distance
}

func (c *NTPClock) Skew() time.Duration { return c.lastSkew }

func (c *NTPClock) Source() Source { return SourceNTP }

// Reset zeroes the offset.
func (c *NTPClock) Reset() {
	c.offset = 0
	c.lastSkew = 0
}
