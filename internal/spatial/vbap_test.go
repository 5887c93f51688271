package spatial

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/wavemesh/wavemesh/internal/speaker"
)

func TestVBAPStereoFrontCentre(t *testing.T) {
	layout := speaker.Stereo()
	v := NewVBAP(layout)

	gains, ok := v.Render(r3.Vector{X: 0, Y: 1, Z: 0})
	assert.True(t, ok)
	assert.Len(t, gains, 2)

	sumSq := gains[0]*gains[0] + gains[1]*gains[1]
	assert.InDelta(t, 1.0, sumSq, 0.01)
}

func TestVBAP51HasTriplets(t *testing.T) {
	layout := speaker.Surround51()
	v := NewVBAP(layout)
	assert.Greater(t, v.TripletCount(), 0)
}

func TestVBAPDeterministicTripletOrder(t *testing.T) {
	layout := speaker.Surround714()
	v1 := NewVBAP(layout)
	v2 := NewVBAP(layout)
	assert.Equal(t, sortedTripletsForTest(v1), sortedTripletsForTest(v2))
}

func TestVBAPGainsNonNegativeWithinTriplet(t *testing.T) {
	layout := speaker.Surround714()
	v := NewVBAP(layout)

	for az := -180.0; az < 180; az += 15 {
		source := speaker.PositionFromSpherical(az, 0)
		gains, ok := v.Render(source)
		if !ok {
			continue
		}
		for _, g := range gains {
			assert.GreaterOrEqual(t, g, -1e-6)
		}
	}
}

func TestVBAPOutsideAnyTripletIsSilent(t *testing.T) {
	// Two speakers can't triangulate in 3D, so the stereo pair falls
	// back to 2D panning across its arc. A source due right (X: 1) is
	// well outside the front-left/front-right arc, so it lands in
	// neither a triplet nor the pair.
	layout := speaker.Stereo()
	v := NewVBAP(layout)
	assert.Equal(t, 0, v.TripletCount())

	gains, ok := v.Render(r3.Vector{X: 1, Y: 0, Z: 0})
	assert.False(t, ok)
	for _, g := range gains {
		assert.Zero(t, g)
	}
}

func TestVBAPStereoPairEnergyNormalization(t *testing.T) {
	layout := speaker.Stereo()
	v := NewVBAP(layout)
	assert.Greater(t, v.PairCount(), 0)

	for az := -29.0; az <= 29; az += 5 {
		source := speaker.PositionFromSpherical(az, 0)
		gains, ok := v.Render(source)
		if !assert.True(t, ok, "az=%v", az) {
			continue
		}
		var sumSq float64
		for _, g := range gains {
			sumSq += g * g
		}
		assert.InDelta(t, 1.0, sumSq, 0.01, "az=%v", az)
	}
}

func TestInverse3RoundTrip(t *testing.T) {
	m := mat3{{2, 0, 0}, {0, 3, 0}, {0, 0, 4}}
	inv, d := inverse3(m)
	assert.NotZero(t, d)
	assert.InDelta(t, 0.5, inv[0][0], 1e-9)
	assert.InDelta(t, 1.0/3, inv[1][1], 1e-9)
	assert.InDelta(t, 0.25, inv[2][2], 1e-9)
}

func TestDet3Degenerate(t *testing.T) {
	// Coplanar vectors through the origin -> zero determinant.
	m := mat3{{1, 2, 3}, {0, 0, 0}, {4, 5, 6}}
	assert.InDelta(t, 0, det3(m), 1e-9)
}

func TestVBAPRenderNeverMutatesState(t *testing.T) {
	layout := speaker.Surround51()
	v := NewVBAP(layout)
	before := v.TripletCount()
	for i := 0; i < 50; i++ {
		v.Render(speaker.PositionFromSpherical(float64(i)*7, 0))
	}
	assert.Equal(t, before, v.TripletCount())
}

func TestVBAPEnergyNormalizationAcrossDirections(t *testing.T) {
	layout := speaker.Surround51()
	v := NewVBAP(layout)

	for az := -170.0; az <= 170; az += 10 {
		source := speaker.PositionFromSpherical(az, 0)
		gains, ok := v.Render(source)
		if !ok {
			continue
		}
		var sumSq float64
		for _, g := range gains {
			sumSq += g * g
		}
		assert.InDelta(t, 1.0, sumSq, 0.02, "az=%v", az)
	}
}
