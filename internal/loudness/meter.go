package loudness

import (
	"math"
	"sort"

	"github.com/wavemesh/wavemesh/internal/audioblock"
)

// Meter implements a simplified BS.1770 loudness measurement: per-channel
// mean square averaged across channels, converted to LUFS. It keeps a
// rolling history of per-block loudness for loudness-range reporting.
type Meter struct {
	history []float32
}

// NewMeter returns a fresh Meter with no history.
func NewMeter() *Meter {
	return &Meter{}
}

// Integrated measures the block's integrated loudness in LUFS.
// loudness_lufs = -0.691 + 10*log10(mean_square); silent blocks (mean
// square == 0) report negative infinity.
func (m *Meter) Integrated(b audioblock.Block) float32 {
	if len(b.Channels) == 0 || b.Frames() == 0 {
		return float32(math.Inf(-1))
	}

	var total float64
	for _, ch := range b.Channels {
		var ms float64
		for _, s := range ch {
			ms += float64(s) * float64(s)
		}
		total += ms / float64(len(ch))
	}
	meanSquare := total / float64(len(b.Channels))
	if meanSquare <= 0 {
		return float32(math.Inf(-1))
	}
	return float32(-0.691 + 10*math.Log10(meanSquare))
}

// ShortTerm measures short-term (3 second window) loudness. The core
// spec defines this with the same formula as Integrated, applied over
// whatever window the caller passes in (a 3-second accumulation is the
// caller's responsibility — the render tick owns block sizing).
func (m *Meter) ShortTerm(b audioblock.Block) float32 {
	return m.Integrated(b)
}

// Observe records a block's integrated loudness into the range history.
func (m *Meter) Observe(b audioblock.Block) {
	m.history = append(m.history, m.Integrated(b))
}

// Range returns the loudness range (LRA): the 95th minus the 5th
// percentile of observed block loudness. Requires at least 10 blocks of
// history; returns 0 otherwise.
func (m *Meter) Range() float32 {
	if len(m.history) < 10 {
		return 0
	}
	sorted := append([]float32(nil), m.history...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	n := len(sorted)
	idx95 := n * 95 / 100
	idx5 := n * 5 / 100
	if idx95 >= n {
		idx95 = n - 1
	}
	return sorted[idx95] - sorted[idx5]
}

// Reset clears the loudness-range history.
func (m *Meter) Reset() {
	m.history = nil
}

func dbToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

func linearToDB(linear float32) float32 {
	if linear <= 0 {
		return float32(math.Inf(-1))
	}
	return float32(20 * math.Log10(float64(linear)))
}
