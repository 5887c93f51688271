package transport

// wrapHalfWindow is the half-window IsTooOld uses to tell a late packet
// from a 16-bit sequence wraparound: a sequence more than this far
// behind the last popped one is treated as wrapped rather than late.
const wrapHalfWindow = 32768

// LossStats tracks packet arrival, loss, and recovery counts for one
// sender SSRC, over a wraparound-aware 16-bit sequence space.
type LossStats struct {
	TotalExpected        uint64
	TotalReceived        uint64
	TotalLost            uint64
	TotalRecovered       uint64
	ConsecutiveLosses    uint64
	MaxConsecutiveLosses uint64

	lastSequence uint16
	haveLast     bool
}

// NewLossStats returns a fresh, zeroed LossStats.
func NewLossStats() *LossStats {
	return &LossStats{}
}

// Update records the arrival of sequence. Gaps relative to the expected
// next sequence (modular arithmetic, so a wraparound never appears as a
// gap) count as loss.
func (s *LossStats) Update(sequence uint16) {
	if s.haveLast {
		expectedNext := s.lastSequence + 1
		gap := uint64(sequence - expectedNext)

		if gap > 0 {
			s.TotalLost += gap
			s.ConsecutiveLosses += gap
			if s.ConsecutiveLosses > s.MaxConsecutiveLosses {
				s.MaxConsecutiveLosses = s.ConsecutiveLosses
			}
		} else {
			s.ConsecutiveLosses = 0
		}
		s.TotalExpected += gap + 1
	} else {
		s.TotalExpected = 1
	}

	s.TotalReceived++
	s.lastSequence = sequence
	s.haveLast = true
}

// RecordRecovery notes that an FEC recovery filled one gap.
func (s *LossStats) RecordRecovery() {
	s.TotalRecovered++
	if s.ConsecutiveLosses > 0 {
		s.ConsecutiveLosses--
	}
}

// LossRate returns total lost over total expected, 0 if nothing has
// arrived yet.
func (s *LossStats) LossRate() float64 {
	if s.TotalExpected == 0 {
		return 0
	}
	return float64(s.TotalLost) / float64(s.TotalExpected)
}

// RecoveryRate returns total recovered over total lost, 0 if nothing has
// been lost.
func (s *LossStats) RecoveryRate() float64 {
	if s.TotalLost == 0 {
		return 0
	}
	return float64(s.TotalRecovered) / float64(s.TotalLost)
}

// IsTooOld reports whether sequence is in the past relative to the last
// popped sequence — the jitter buffer's late-drop rule. Distance is
// computed modulo 2^16: a sequence less than half the sequence space
// behind lastPopped is genuinely late; one more than half the space
// "behind" has actually wrapped around and is a legitimate future
// packet.
func IsTooOld(sequence, lastPopped uint16) bool {
	behind := lastPopped - sequence
	return behind != 0 && behind < wrapHalfWindow
}
