package transport

import "github.com/wavemesh/wavemesh/internal/audioblock"

// ConcealmentStrategy selects the substitute audio emitted on underrun.
type ConcealmentStrategy int

const (
	// ConcealSilence emits a zeroed block.
	ConcealSilence ConcealmentStrategy = iota
	// ConcealRepeat re-emits the last delivered block unchanged.
	ConcealRepeat
	// ConcealInterpolate re-emits the last block with a linear
	// fade-to-zero ramp applied across its frames.
	ConcealInterpolate
)

// Concealer manufactures a replacement block when the jitter buffer
// underruns at a pop deadline.
type Concealer struct {
	strategy ConcealmentStrategy
	last     *audioblock.Block
}

// NewConcealer returns a Concealer using the given strategy.
func NewConcealer(strategy ConcealmentStrategy) *Concealer {
	return &Concealer{strategy: strategy}
}

// Observe records the most recently delivered block, for Repeat and
// Interpolate.
func (c *Concealer) Observe(b audioblock.Block) {
	clone := b.Clone()
	c.last = &clone
}

// Conceal returns a substitute block of the given shape.
func (c *Concealer) Conceal(sampleRate uint32, numChannels, frames int) audioblock.Block {
	switch c.strategy {
	case ConcealRepeat:
		if c.last != nil {
			return c.last.Clone()
		}
	case ConcealInterpolate:
		if c.last != nil {
			out := c.last.Clone()
			for _, ch := range out.Channels {
				n := len(ch)
				for i := range ch {
					fade := float32(1) - float32(i)/float32(n)
					ch[i] *= fade
				}
			}
			return out
		}
	}
	return audioblock.Silence(sampleRate, numChannels, frames)
}
