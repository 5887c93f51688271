package loudness

import (
	"math"

	"github.com/wavemesh/wavemesh/internal/audioblock"
)

// DRC is a dynamic range compressor with a one-pole envelope follower:
// instantaneous attack (env tracks the rising input immediately) and an
// exponential release. Below threshold, gain is unity; above, gain
// follows the (1-ratio)/ratio power curve. Gain smoothing is itself
// asymmetric — instantaneous downward to catch transients, smoothed
// upward on release — independent of the envelope follower's own
// attack/release.
type DRC struct {
	ratio        float32
	thresholdDB  float32
	releaseCoeff float32
	makeupGainDB float32

	envelope float32
	gain     float32
}

// NewDRC builds a DRC from a preset at the given sample rate.
func NewDRC(preset DRCPreset, sampleRate uint32) *DRC {
	releaseSamples := int(float32(sampleRate) * preset.ReleaseMS / 1000)
	if releaseSamples < 1 {
		releaseSamples = 1
	}
	releaseCoeff := float32(1) / float32(releaseSamples)
	if releaseCoeff > 1 {
		releaseCoeff = 1
	}

	return &DRC{
		ratio:        preset.Ratio,
		thresholdDB:  preset.ThresholdDB,
		releaseCoeff: releaseCoeff,
		gain:         1,
	}
}

// SetMakeupGainDB sets a scalar makeup gain applied after smoothing.
func (d *DRC) SetMakeupGainDB(db float32) { d.makeupGainDB = db }

// Apply compresses b in place, carrying envelope/gain state across
// calls.
func (d *DRC) Apply(b audioblock.Block) {
	threshold := dbToLinear(d.thresholdDB)
	makeup := dbToLinear(d.makeupGainDB)

	for _, ch := range b.Channels {
		for i, s := range ch {
			abs := float32(math.Abs(float64(s)))

			if abs > d.envelope {
				d.envelope = abs
			} else {
				d.envelope = float32(math.Max(
					float64(d.envelope)+(float64(abs)-float64(d.envelope))*float64(d.releaseCoeff),
					0))
			}

			var targetGain float32 = 1
			if d.envelope > threshold {
				over := d.envelope / threshold
				targetGain = float32(math.Pow(float64(over), float64((1-d.ratio)/d.ratio)))
			}

			if targetGain < d.gain {
				d.gain = targetGain // instantaneous attack catches transients
			} else {
				d.gain = d.gain*(1-d.releaseCoeff) + targetGain*d.releaseCoeff
			}

			ch[i] = s * d.gain * makeup
		}
	}
}

// CurrentReductionDB reports the current gain reduction in dB.
func (d *DRC) CurrentReductionDB() float32 { return linearToDB(d.gain) }

// Reset returns the smoothed gain to unity.
func (d *DRC) Reset() { d.gain = 1 }
