package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wavemesh/wavemesh/internal/audioblock"
)

func TestHRIRLookupNearestNeighbor(t *testing.T) {
	db := NewHRIRDatabase(ProfileFlat)
	db.Add(0, 0, 1.0, HRIRPair{Left: []float32{1}, Right: []float32{0.5}})
	db.Add(90, 0, 1.0, HRIRPair{Left: []float32{0.2}, Right: []float32{0.9}})

	pair, ok := db.Lookup(1, 0, 1.0)
	assert.True(t, ok)
	assert.Equal(t, float32(1), pair.Left[0])
}

func TestHRIRLookupIdenticalPositionsIdenticalOutput(t *testing.T) {
	db := NewHRIRDatabase(ProfileFlat)
	db.Add(30, 10, 1.2, HRIRPair{Left: []float32{0.3, 0.1}, Right: []float32{0.2, 0.05}})

	p1, _ := db.Lookup(30, 10, 1.2)
	p2, _ := db.Lookup(30, 10, 1.2)
	assert.Equal(t, p1, p2)
}

func TestBinauralRenderOutputsTwoChannels(t *testing.T) {
	db := NewHRIRDatabase(ProfileFlat)
	db.Add(0, 0, 1.0, HRIRPair{Left: []float32{1}, Right: []float32{1}})

	src := audioblock.Block{SampleRate: 48000, Channels: [][]float32{{0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}}}
	out := db.Render(src, 0, 0, 1.0)
	assert.Len(t, out.Channels, 2)
	assert.Equal(t, 3, out.Frames())
}

func TestBinauralRenderScalesDownOnClip(t *testing.T) {
	db := NewHRIRDatabase(ProfileFlat)
	db.Add(0, 0, 1.0, HRIRPair{Left: []float32{2.0}, Right: []float32{2.0}})

	src := audioblock.Block{SampleRate: 48000, Channels: [][]float32{{1.0}}}
	out := db.Render(src, 0, 0, 1.0)
	assert.LessOrEqual(t, out.Peak(), float32(1.0001))
}

func TestBinauralRenderEmptyDatabaseIsSilent(t *testing.T) {
	db := NewHRIRDatabase(ProfileFlat)
	src := audioblock.Block{SampleRate: 48000, Channels: [][]float32{{1, 1}}}
	out := db.Render(src, 10, 10, 1.0)
	assert.Zero(t, out.Peak())
}
