package clock

import "time"

// SystemClock reads the host wall clock directly. Sync is a no-op: there
// is no external reference to converge toward.
type SystemClock struct{}

// NewSystemClock returns a SystemClock.
func NewSystemClock() *SystemClock { return &SystemClock{} }

func (c *SystemClock) Now() Timestamp {
	return timestampFromDuration(time.Duration(time.Now().UnixNano()), SourceSystem)
}

func (c *SystemClock) SyncTo(reference Timestamp) {}

func (c *SystemClock) Skew() time.Duration { return 0 }

func (c *SystemClock) Source() Source { return SourceSystem }
