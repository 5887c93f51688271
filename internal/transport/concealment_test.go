package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wavemesh/wavemesh/internal/audioblock"
)

func TestConcealSilence(t *testing.T) {
	c := NewConcealer(ConcealSilence)
	b := c.Conceal(48000, 2, 480)
	assert.Len(t, b.Channels, 2)
	assert.Len(t, b.Channels[0], 480)
	for _, s := range b.Channels[0] {
		assert.Equal(t, float32(0), s)
	}
}

func TestConcealRepeatScenario(t *testing.T) {
	c := NewConcealer(ConcealRepeat)
	original := audioblock.Block{SampleRate: 48000, Channels: [][]float32{{1, 2}, {3, 4}}}
	c.Observe(original)

	got := c.Conceal(48000, 2, 2)
	assert.Equal(t, original.Channels, got.Channels)
}

func TestConcealRepeatWithoutHistoryFallsBackToSilence(t *testing.T) {
	c := NewConcealer(ConcealRepeat)
	got := c.Conceal(48000, 1, 4)
	for _, s := range got.Channels[0] {
		assert.Equal(t, float32(0), s)
	}
}

func TestConcealInterpolateFadesToZero(t *testing.T) {
	c := NewConcealer(ConcealInterpolate)
	c.Observe(audioblock.Block{SampleRate: 48000, Channels: [][]float32{{1, 1, 1, 1}}})

	got := c.Conceal(48000, 1, 4)
	ch := got.Channels[0]
	assert.Equal(t, float32(1), ch[0])
	for i := 1; i < len(ch); i++ {
		assert.Less(t, ch[i], ch[i-1])
	}
}
