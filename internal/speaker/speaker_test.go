package speaker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/tzneal/coordconv"
)

func TestLayoutValidateRequiresSpeakers(t *testing.T) {
	assert.Error(t, Layout{Name: "empty"}.Validate())
}

func TestLayoutValidateRejectsDuplicateID(t *testing.T) {
	id := uuid.New()
	l := Layout{Speakers: []Descriptor{
		{ID: id, Role: RoleFrontLeft},
		{ID: id, Role: RoleFrontRight},
	}}
	assert.Error(t, l.Validate())
}

func TestLayoutValidateRejectsDuplicateRole(t *testing.T) {
	l := Layout{Speakers: []Descriptor{
		{ID: uuid.New(), Role: RoleFrontLeft},
		{ID: uuid.New(), Role: RoleFrontLeft},
	}}
	assert.Error(t, l.Validate())
}

func TestLayoutValidateAllowsMultipleCustom(t *testing.T) {
	l := Layout{Speakers: []Descriptor{
		{ID: uuid.New(), Role: RoleCustom},
		{ID: uuid.New(), Role: RoleCustom},
	}}
	assert.NoError(t, l.Validate())
}

func TestStereoLayoutValid(t *testing.T) {
	assert.NoError(t, Stereo().Validate())
	assert.NoError(t, Surround51().Validate())
	assert.NoError(t, Surround714().Validate())
}

func TestLatencyTotal(t *testing.T) {
	l := Latency{Network: 10_000_000, Processing: 5_000_000, Hardware: 2_000_000}
	assert.Equal(t, l.Network+l.Processing+l.Hardware, l.Total())
}

func TestToAzimuthElevationRoundTrip(t *testing.T) {
	p := positionFromSpherical(45, 20)
	az, el := ToAzimuthElevation(p)
	assert.InDelta(t, 45.0, az, 0.01)
	assert.InDelta(t, 20.0, el, 0.01)
}

func TestLocalPositionRejectsMismatchedZone(t *testing.T) {
	ref := ListenerReference{Zone: 17, Hemisphere: coordconv.HemisphereNorth}
	_, err := LocalPosition(ref, UTMPoint{Zone: 18, Hemisphere: coordconv.HemisphereNorth})
	assert.Error(t, err)
}

func TestLocalPositionFrontOfListener(t *testing.T) {
	ref := ListenerReference{Zone: 17, Hemisphere: coordconv.HemisphereNorth, Easting: 500000, Northing: 4000000}
	pos, err := LocalPosition(ref, UTMPoint{Zone: 17, Hemisphere: coordconv.HemisphereNorth, Easting: 500000, Northing: 4000010, HeightM: 0})
	assert.NoError(t, err)
	assert.NotZero(t, pos)
}
