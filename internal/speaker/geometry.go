package speaker

import (
	"math"

	"github.com/golang/geo/r3"
)

// positionFromSpherical converts azimuth/elevation (degrees, 0 az = front,
// positive = clockwise when viewed from above) and unit radius into a
// listener-centered Cartesian position.
func positionFromSpherical(azimuthDeg, elevationDeg float64) r3.Vector {
	az := azimuthDeg * math.Pi / 180
	el := elevationDeg * math.Pi / 180
	return r3.Vector{
		X: math.Cos(el) * math.Sin(az),
		Y: math.Cos(el) * math.Cos(az),
		Z: math.Sin(el),
	}
}

// PositionFromSpherical is the exported form, for building custom
// positions outside this package.
func PositionFromSpherical(azimuthDeg, elevationDeg float64) r3.Vector {
	return positionFromSpherical(azimuthDeg, elevationDeg)
}

// ToAzimuthElevation recovers the (azimuth, elevation) degrees a unit
// position vector corresponds to; used by the render engine's binaural
// (HRIR) path and the HOA decoder.
func ToAzimuthElevation(p r3.Vector) (azimuthDeg, elevationDeg float64) {
	n := p.Normalize()
	azimuthDeg = math.Atan2(n.X, n.Y) * 180 / math.Pi
	elevationDeg = math.Asin(clamp(n.Z, -1, 1)) * 180 / math.Pi
	return azimuthDeg, elevationDeg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
