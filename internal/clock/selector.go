package clock

// Selector holds the process-wide active clock source. Switching the
// active source resets the newly-selected clock's offset to zero, so a
// stale offset from a previous selection never leaks in.
type Selector struct {
	system *SystemClock
	ptp    *PTPClock
	ntp    *NTPClock
	active Source
}

// NewSelector returns a Selector defaulting to the system clock.
func NewSelector() *Selector {
	return &Selector{
		system: NewSystemClock(),
		ptp:    NewPTPClock(),
		ntp:    NewNTPClock(),
		active: SourceSystem,
	}
}

// Active returns the currently selected Sync.
func (s *Selector) Active() Sync {
	switch s.active {
	case SourcePTP:
		return s.ptp
	case SourceNTP:
		return s.ntp
	default:
		return s.system
	}
}

// Select switches the active source, resetting its offset.
func (s *Selector) Select(source Source) {
	switch source {
	case SourcePTP:
		s.ptp.Reset()
	case SourceNTP:
		s.ntp.Reset()
	}
	s.active = source
}
