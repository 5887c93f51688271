package loudness

import (
	"math"

	"github.com/wavemesh/wavemesh/internal/audioblock"
)

// Normalizer applies a per-block scalar gain to move measured loudness
// to a target. Gain is recomputed fresh for every block — the core
// spec defines no cross-block smoothing, though callers wanting smoother
// transitions may slew Gain's output themselves between calls.
type Normalizer struct {
	meter  *Meter
	target Target
}

// NewNormalizer returns a Normalizer measuring against target.
func NewNormalizer(target Target) *Normalizer {
	return &Normalizer{meter: NewMeter(), target: target}
}

// Gain measures b and returns the linear gain needed to reach the
// target loudness.
func (n *Normalizer) Gain(b audioblock.Block) float32 {
	measured := n.meter.Integrated(b)
	return dbToLinear(n.target.LUFS() - measured)
}

// Apply normalizes b in place to the target loudness. Blocks whose
// measured loudness is -Inf (silence) are left untouched — there is no
// finite gain that raises silence to a target level.
func (n *Normalizer) Apply(b audioblock.Block) {
	gain := n.Gain(b)
	if math.IsInf(float64(gain), 0) || math.IsNaN(float64(gain)) || gain == 0 {
		return
	}
	for _, ch := range b.Channels {
		for i := range ch {
			ch[i] *= gain
		}
	}
}

// TargetLUFS returns the configured target.
func (n *Normalizer) TargetLUFS() float32 { return n.target.LUFS() }
