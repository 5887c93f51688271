// Package control implements the REST control plane: a chi router over
// a speaker registry, active layout, transport state, and calibration
// status, all held as a single snapshot the audio path reads at tick
// start and never mutates.
package control

import (
	"sync/atomic"
	"time"

	"github.com/wavemesh/wavemesh/internal/calibration"
	"github.com/wavemesh/wavemesh/internal/speaker"
)

// TransportState is the session-level playback state, distinct from the
// per-destination Sender/Receiver state machines in internal/transport.
type TransportState int

const (
	TransportStopped TransportState = iota
	TransportPlaying
	TransportPaused
)

func (s TransportState) String() string {
	switch s {
	case TransportPlaying:
		return "playing"
	case TransportPaused:
		return "paused"
	default:
		return "stopped"
	}
}

// CalibrationStatus reports the in-progress or most recent calibration
// run.
type CalibrationStatus struct {
	Running      bool
	Progress     float32
	Measurements int
	Solution     *calibration.Solution
}

// Snapshot is the immutable control-plane state the audio path reads
// once per tick.
type Snapshot struct {
	Speakers    []speaker.Descriptor
	Layout      *speaker.Layout
	Transport   TransportState
	Calibration CalibrationStatus
	StartedAt   time.Time
}

// Store holds the current Snapshot, swapped atomically between ticks.
type Store struct {
	value atomic.Pointer[Snapshot]
}

// NewStore returns a Store seeded with an empty, stopped snapshot.
func NewStore() *Store {
	s := &Store{}
	s.value.Store(&Snapshot{Transport: TransportStopped, StartedAt: time.Now()})
	return s
}

// Load returns the current snapshot. The audio path holds this
// reference for the duration of one tick; it is never mutated in place.
func (s *Store) Load() *Snapshot {
	return s.value.Load()
}

// Update applies fn to a copy of the current snapshot and swaps it in
// atomically. fn must not retain or mutate the snapshot it's given
// outside its own copy.
func (s *Store) Update(fn func(Snapshot) Snapshot) *Snapshot {
	current := *s.value.Load()
	next := fn(current)
	s.value.Store(&next)
	return &next
}
