// Venue placement support for large installs (stadiums, theaters) where
// speaker positions are surveyed in UTM rather than measured directly
// off the listening position.
package speaker

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/tzneal/coordconv"
)

// UTMPoint is a surveyed speaker location in UTM coordinates.
type UTMPoint struct {
	Zone       int
	Hemisphere coordconv.Hemisphere
	Easting    float64
	Northing   float64
	HeightM    float64 // height above the listening reference plane
}

// ListenerReference is the UTM coordinate of the listening position
// (mix point) that venue-surveyed speaker positions are expressed
// relative to.
type ListenerReference struct {
	Zone       int
	Hemisphere coordconv.Hemisphere
	Easting    float64
	Northing   float64
}

// LocalPosition converts a surveyed UTM speaker location into a
// listener-centered unit direction vector, suitable for Descriptor.Position.
// Distance is discarded (VBAP and HOA decode operate on direction only);
// only the bearing and elevation from the listening position matter.
func LocalPosition(ref ListenerReference, p UTMPoint) (r3.Vector, error) {
	if p.Zone != ref.Zone || p.Hemisphere != ref.Hemisphere {
		return r3.Vector{}, fmt.Errorf("speaker: venue point zone %d%v does not match reference zone %d%v",
			p.Zone, p.Hemisphere, ref.Zone, ref.Hemisphere)
	}

	dEast := p.Easting - ref.Easting
	dNorth := p.Northing - ref.Northing
	dHeight := p.HeightM

	ground := math.Hypot(dEast, dNorth)
	azimuthDeg := math.Atan2(dEast, dNorth) * 180 / math.Pi
	elevationDeg := 0.0
	if ground > 0 || dHeight != 0 {
		elevationDeg = math.Atan2(dHeight, ground) * 180 / math.Pi
	}

	return positionFromSpherical(azimuthDeg, elevationDeg), nil
}
