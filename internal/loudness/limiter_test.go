package loudness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLimiterCeilingScenario(t *testing.T) {
	// 100 samples at 0.99 full scale, -3dB headroom: output must never
	// exceed T*(1+epsilon).
	l := NewLimiter(3, 5, 48000)
	samples := make([]float32, 100)
	for i := range samples {
		samples[i] = 0.99
	}
	b := blockOf(samples...)
	l.Apply(b)

	threshold := math.Pow(10, -3.0/20)
	ceiling := threshold * 1.01
	for _, s := range b.Channels[0] {
		assert.LessOrEqual(t, math.Abs(float64(s)), ceiling)
	}
}

func TestLimiterTransparentBelowThreshold(t *testing.T) {
	l := NewLimiter(6, 5, 48000)
	samples := make([]float32, 32)
	for i := range samples {
		samples[i] = 0.1
	}
	b := blockOf(samples...)
	l.Apply(b)
	for _, s := range b.Channels[0] {
		assert.InDelta(t, 0.1, s, 1e-4)
	}
}

func TestLimiterMinimumLookaheadOneSample(t *testing.T) {
	l := NewLimiter(6, 0, 48000)
	assert.Equal(t, 1, l.lookahead)
}

func TestLimiterReset(t *testing.T) {
	l := NewLimiter(3, 5, 48000)
	samples := make([]float32, 50)
	for i := range samples {
		samples[i] = 0.99
	}
	l.Apply(blockOf(samples...))
	assert.Less(t, l.gain, float32(1))
	l.Reset()
	assert.Equal(t, float32(1), l.gain)
}

func TestLimiterCeilingProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		headroomDB := rapid.Float32Range(0.5, 12).Draw(rt, "headroomDB")
		lookaheadMS := rapid.Float32Range(0, 20).Draw(rt, "lookaheadMS")
		n := rapid.IntRange(1, 200).Draw(rt, "n")

		l := NewLimiter(headroomDB, lookaheadMS, 48000)
		samples := make([]float32, n)
		for i := range samples {
			samples[i] = rapid.Float32Range(-1, 1).Draw(rt, "sample")
		}
		b := blockOf(samples...)
		l.Apply(b)

		threshold := float64(l.Threshold())
		ceiling := threshold * 1.01
		for _, s := range b.Channels[0] {
			if math.Abs(float64(s)) > ceiling+1e-6 {
				rt.Fatalf("sample %v exceeds ceiling %v", s, ceiling)
			}
		}
	})
}
