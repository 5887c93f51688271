// Package clock implements the session's time sources: the host wall
// clock, and two synchronized variants (PTP-style and NTP-style) that
// converge an offset toward an external reference.
package clock

import "time"

// Source names the family of a ClockSync, for the process-wide
// selection knob.
type Source int

const (
	SourceSystem Source = iota
	SourcePTP
	SourceNTP
)

func (s Source) String() string {
	switch s {
	case SourceSystem:
		return "system"
	case SourcePTP:
		return "ptp"
	case SourceNTP:
		return "ntp"
	default:
		return "unknown"
	}
}

// Timestamp is a point in time tagged with the source that produced it.
type Timestamp struct {
	Seconds uint64
	Nanos   uint32
	Source  Source
}

// ToDuration returns the timestamp as a Duration since the Unix epoch.
func (t Timestamp) ToDuration() time.Duration {
	return time.Duration(t.Seconds)*time.Second + time.Duration(t.Nanos)
}

// SkewFrom returns the absolute difference between t and other.
func (t Timestamp) SkewFrom(other Timestamp) time.Duration {
	a, b := t.ToDuration(), other.ToDuration()
	if a > b {
		return a - b
	}
	return b - a
}

func timestampFromDuration(d time.Duration, source Source) Timestamp {
	if d < 0 {
		d = 0
	}
	return Timestamp{
		Seconds: uint64(d / time.Second),
		Nanos:   uint32(d % time.Second),
		Source:  source,
	}
}

// Sync is the contract shared by every clock variant: read the current
// time, fold in a reference observation, and report the last-measured
// skew against that reference.
type Sync interface {
	Now() Timestamp
	SyncTo(reference Timestamp)
	Skew() time.Duration
	Source() Source
}
