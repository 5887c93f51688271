package loudness

import (
	"math"

	"github.com/wavemesh/wavemesh/internal/audioblock"
)

// Limiter is the look-ahead headroom manager: it inspects an upcoming
// window of L samples for each output sample, and if the peak within
// that window would exceed the threshold, reduces gain ahead of the
// peak rather than clipping it. Gain recovers gradually towards unity
// otherwise. State (the smoothed gain) persists across calls.
type Limiter struct {
	thresholdDB float32
	lookahead   int
	gain        float32
}

// NewLimiter builds a Limiter with the given headroom (in dB below full
// scale) and lookahead, in milliseconds, at sampleRate. Lookahead is at
// least one sample.
func NewLimiter(headroomDB float32, lookaheadMS float32, sampleRate uint32) *Limiter {
	l := int(math.Round(float64(lookaheadMS) * float64(sampleRate) / 1000))
	if l < 1 {
		l = 1
	}
	return &Limiter{
		thresholdDB: -headroomDB,
		lookahead:   l,
		gain:        1,
	}
}

// Threshold returns the linear clipping threshold T.
func (l *Limiter) Threshold() float32 { return dbToLinear(l.thresholdDB) }

// Apply limits b in place. For sample i, ahead is the maximum absolute
// value over [i, min(i+L, N)); if ahead exceeds the threshold, gain is
// reduced to threshold/ahead; otherwise gain relaxes 1% of the way back
// to unity per sample.
func (l *Limiter) Apply(b audioblock.Block) {
	threshold := l.Threshold()

	for _, ch := range b.Channels {
		n := len(ch)
		for i := 0; i < n; i++ {
			end := i + l.lookahead
			if end > n {
				end = n
			}
			var ahead float32
			for _, s := range ch[i:end] {
				if a := float32(math.Abs(float64(s))); a > ahead {
					ahead = a
				}
			}

			if ahead > threshold {
				needed := threshold / ahead
				if needed < l.gain {
					l.gain = needed
				}
			} else {
				relaxed := 0.99*l.gain + 0.01
				if relaxed < 1 {
					l.gain = relaxed
				} else {
					l.gain = 1
				}
			}

			ch[i] = ch[i] * l.gain
		}
	}
}

// Reset returns the limiter's gain to unity.
func (l *Limiter) Reset() { l.gain = 1 }
