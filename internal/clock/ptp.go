package clock

import "time"

// TightSyncTarget is the PTP skew budget this pipeline is tuned for.
const TightSyncTarget = 100 * time.Microsecond

// PTPClock latches its offset to the full distance to the reference on
// every sync — PTP's hardware-timestamped exchange is assumed accurate
// enough that a single sync closes the gap.
type PTPClock struct {
	offset    time.Duration
	lastSkew  time.Duration
}

// NewPTPClock returns a PTPClock with zero offset.
func NewPTPClock() *PTPClock { return &PTPClock{} }

func (c *PTPClock) Now() Timestamp {
	local := time.Duration(time.Now().UnixNano())
	return timestampFromDuration(local+c.offset, SourcePTP)
}

// SyncTo latches the offset to max(0, reference-local).
func (c *PTPClock) SyncTo(reference Timestamp) {
	local := time.Duration(time.Now().UnixNano())
	refDuration := reference.ToDuration()

	offset := refDuration - local
	if offset < 0 {
		offset = 0
	}
	c.lastSkew = c.offset - offset
	if c.lastSkew < 0 {
		c.lastSkew = -c.lastSkew
	}
	c.offset = offset
}

func (c *PTPClock) Skew() time.Duration { return c.lastSkew }

func (c *PTPClock) Source() Source { return SourcePTP }

// Reset zeroes the offset, e.g. when the process-wide clock source
// switches away from and back to PTP.
func (c *PTPClock) Reset() {
	c.offset = 0
	c.lastSkew = 0
}
