package spatial

import (
	"math"

	"github.com/wavemesh/wavemesh/internal/audioblock"
)

// HeadphoneProfile selects the FIR equalization curve applied after
// HRIR convolution.
type HeadphoneProfile int

const (
	ProfileFlat HeadphoneProfile = iota
	ProfileClosedBack
	ProfileOpenBack
	ProfileIEM
)

// hrirKey is the nearest-neighbor database key: rounded azimuth,
// elevation, and 10x distance.
type hrirKey struct {
	az, el, dist10 int
}

// HRIRPair is one direction's left/right impulse responses.
type HRIRPair struct {
	Left, Right []float32
}

// HRIRDatabase is an immutable-after-construction nearest-neighbor
// lookup table from (azimuth, elevation, distance) to an HRIRPair, plus
// a per-profile equalization FIR. Implementations MAY replace the
// nearest-neighbor selection with trilinear interpolation; the only
// required property is that identical positions yield identical
// outputs and nearby positions yield nearby outputs.
type HRIRDatabase struct {
	pairs   map[hrirKey]HRIRPair
	profile HeadphoneProfile
	eqFIR   map[HeadphoneProfile][]float32
}

// NewHRIRDatabase builds an empty database for the given profile;
// populate it with Add before use.
func NewHRIRDatabase(profile HeadphoneProfile) *HRIRDatabase {
	return &HRIRDatabase{
		pairs:   make(map[hrirKey]HRIRPair),
		profile: profile,
		eqFIR:   defaultProfileFilters(),
	}
}

// Add registers an HRIR pair measured at (azimuthDeg, elevationDeg,
// distanceM).
func (db *HRIRDatabase) Add(azimuthDeg, elevationDeg, distanceM float64, pair HRIRPair) {
	db.pairs[keyFor(azimuthDeg, elevationDeg, distanceM)] = pair
}

func keyFor(azimuthDeg, elevationDeg, distanceM float64) hrirKey {
	return hrirKey{
		az:     int(math.Round(azimuthDeg)),
		el:     int(math.Round(elevationDeg)),
		dist10: int(math.Round(10 * distanceM)),
	}
}

// Lookup returns the nearest HRIR pair to the requested direction. If
// the exact rounded key is absent, it scans for the closest registered
// key by Euclidean distance in (az, el, dist10) space — still
// nearest-neighbor, just tolerant of a sparsely populated database.
func (db *HRIRDatabase) Lookup(azimuthDeg, elevationDeg, distanceM float64) (HRIRPair, bool) {
	if len(db.pairs) == 0 {
		return HRIRPair{}, false
	}
	want := keyFor(azimuthDeg, elevationDeg, distanceM)
	if p, ok := db.pairs[want]; ok {
		return p, true
	}

	var best hrirKey
	bestDist := math.MaxFloat64
	for k := range db.pairs {
		d := sqDist(k, want)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}
	return db.pairs[best], true
}

func sqDist(a, b hrirKey) float64 {
	dAz := float64(a.az - b.az)
	dEl := float64(a.el - b.el)
	dDist := float64(a.dist10 - b.dist10)
	return dAz*dAz + dEl*dEl + dDist*dDist
}

// Render convolves a mono reduction of src with the HRIR pair nearest
// (azimuthDeg, elevationDeg, distanceM), applies the profile's FIR
// equalization to each ear, and normalizes if the result would clip.
// Output is always exactly two channels.
func (db *HRIRDatabase) Render(src audioblock.Block, azimuthDeg, elevationDeg, distanceM float64) audioblock.Block {
	mono := monoReduction(src)
	pair, ok := db.Lookup(azimuthDeg, elevationDeg, distanceM)
	if !ok {
		return audioblock.Silence(src.SampleRate, 2, src.Frames())
	}

	left := convolve(mono, pair.Left)
	right := convolve(mono, pair.Right)

	if fir, ok := db.eqFIR[db.profile]; ok && len(fir) > 0 {
		left = convolve(left, fir)
		right = convolve(right, fir)
	}

	frames := src.Frames()
	left = truncateOrPad(left, frames)
	right = truncateOrPad(right, frames)

	out := audioblock.Block{SampleRate: src.SampleRate, Channels: [][]float32{left, right}}
	if peak := out.Peak(); peak > 1.0 {
		scale := 1 / peak
		for _, ch := range out.Channels {
			for i := range ch {
				ch[i] *= scale
			}
		}
	}
	return out
}

func monoReduction(b audioblock.Block) []float32 {
	frames := b.Frames()
	mono := make([]float32, frames)
	if len(b.Channels) == 0 {
		return mono
	}
	inv := float32(1) / float32(len(b.Channels))
	for _, ch := range b.Channels {
		for i, s := range ch {
			mono[i] += s * inv
		}
	}
	return mono
}

func convolve(x, h []float32) []float32 {
	if len(h) == 0 {
		return append([]float32(nil), x...)
	}
	out := make([]float32, len(x)+len(h)-1)
	for i, xv := range x {
		if xv == 0 {
			continue
		}
		for j, hv := range h {
			out[i+j] += xv * hv
		}
	}
	return out
}

func truncateOrPad(x []float32, frames int) []float32 {
	if len(x) >= frames {
		return x[:frames]
	}
	out := make([]float32, frames)
	copy(out, x)
	return out
}

// defaultProfileFilters returns a short fixed equalization FIR per
// profile; calibration or a headphone profile file may replace these
// with a measured correction curve. Flat is the identity filter.
// ClosedBack is a gentle three-tap low-pass: unity at DC, about 1.1 dB
// down at Nyquist. OpenBack is unity at DC and lifts the top end by
// about 1 dB at Nyquist. IEM has the shortest, gentlest curve: IEMs sit closer
// to the eardrum and need the least correction.
func defaultProfileFilters() map[HeadphoneProfile][]float32 {
	return map[HeadphoneProfile][]float32{
		ProfileFlat:       {1.0},
		ProfileClosedBack: {0.92, 0.06, 0.02},
		ProfileOpenBack:   {1.08, -0.06, -0.02},
		ProfileIEM:        {0.97, 0.03},
	}
}
