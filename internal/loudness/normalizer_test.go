package loudness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wavemesh/wavemesh/internal/audioblock"
)

func TestNormalizerGainFullScaleToTelevision(t *testing.T) {
	n := NewNormalizer(Television)
	samples := make([]float32, 2048)
	for i := range samples {
		samples[i] = 1
	}
	b := blockOf(samples...)
	gain := n.Gain(b)
	assert.Less(t, gain, float32(1), "full-scale audio should be turned down to reach -23 LUFS")
}

func TestNormalizerApplyMovesLoudnessTowardTarget(t *testing.T) {
	n := NewNormalizer(Television)
	samples := make([]float32, 4096)
	for i := range samples {
		samples[i] = 0.9
	}
	b := blockOf(samples...)

	before := n.meter.Integrated(b)
	n.Apply(b)
	after := n.meter.Integrated(b)

	assert.Less(t, after, before)
	assert.InDelta(t, Television.LUFS(), after, 0.05)
}

func TestNormalizerApplyLeavesSilenceUntouched(t *testing.T) {
	n := NewNormalizer(StreamingMusic)
	b := audioblock.Silence(48000, 1, 256)
	n.Apply(b)
	for _, s := range b.Channels[0] {
		assert.Equal(t, float32(0), s)
	}
}

func TestNormalizerTargetLUFS(t *testing.T) {
	n := NewNormalizer(Custom(-10))
	assert.Equal(t, float32(-10), n.TargetLUFS())
}
