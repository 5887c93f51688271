package loudness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wavemesh/wavemesh/internal/audioblock"
)

func TestDRCBelowThresholdIsTransparent(t *testing.T) {
	d := NewDRC(DRCSpeech, 48000)
	samples := make([]float32, 256)
	for i := range samples {
		samples[i] = 0.01
	}
	b := blockOf(samples...)
	d.Apply(b)
	for _, s := range b.Channels[0] {
		assert.InDelta(t, 0.01, s, 1e-4)
	}
}

func TestDRCAboveThresholdReducesGain(t *testing.T) {
	d := NewDRC(DRCSpeech, 48000)
	samples := make([]float32, 2048)
	for i := range samples {
		samples[i] = 0.95
	}
	b := blockOf(samples...)
	before := b.Clone()
	d.Apply(b)

	// above the compressor's threshold, sustained output should end up
	// attenuated relative to input.
	last := len(b.Channels[0]) - 1
	assert.Less(t, b.Channels[0][last], before.Channels[0][last])
}

func TestDRCMakeupGain(t *testing.T) {
	d := NewDRC(DRCSpeech, 48000)
	d.SetMakeupGainDB(6)
	samples := make([]float32, 64)
	for i := range samples {
		samples[i] = 0.001
	}
	b := blockOf(samples...)
	d.Apply(b)
	assert.InDelta(t, 0.001*dbToLinear(6), b.Channels[0][0], 1e-5)
}

func TestDRCReset(t *testing.T) {
	d := NewDRC(DRCCinema, 48000)
	samples := make([]float32, 1024)
	for i := range samples {
		samples[i] = 0.9
	}
	d.Apply(blockOf(samples...))
	assert.NotEqual(t, float32(1), d.gain)
	d.Reset()
	assert.Equal(t, float32(1), d.gain)
}

func TestDRCStatePersistsAcrossBlocks(t *testing.T) {
	d := NewDRC(DRCMusic, 48000)
	loud := func() audioblock.Block {
		s := make([]float32, 512)
		for i := range s {
			s[i] = 0.9
		}
		return blockOf(s...)
	}
	d.Apply(loud())
	reductionAfterFirst := d.CurrentReductionDB()
	d.Apply(loud())
	reductionAfterSecond := d.CurrentReductionDB()

	// second block starts from an already-reduced gain, so its final
	// reduction should be at least as large in magnitude.
	assert.LessOrEqual(t, reductionAfterSecond, reductionAfterFirst+0.01)
}
