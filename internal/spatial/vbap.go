// Package spatial implements the spatial mapping stage: channel-based
// up/downmix, object-based VBAP panning, scene-based HOA decoding, and
// binaural downmix to headphones.
//
// Purpose:	Convert a decoded AudioBlock plus its spatial metadata
//		(channel roles, an object position, or an ambisonic
//		order) into a block shaped for the target SpeakerLayout.
package spatial

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/wavemesh/wavemesh/internal/speaker"
)

const (
	vbapDetMin     = 1e-6
	vbapAreaMin    = 0.1
	vbapPairDetMin = 1e-6
)

// mat3 is a row-major 3x3 matrix, used for VBAP speaker-triplet bases.
type mat3 [3][3]float64

func det3(m mat3) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func inverse3(m mat3) (mat3, float64) {
	d := det3(m)
	if math.Abs(d) < vbapDetMin {
		return mat3{}, d
	}
	invDet := 1 / d
	var inv mat3
	inv[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) * invDet
	inv[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) * invDet
	inv[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) * invDet
	inv[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) * invDet
	inv[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) * invDet
	inv[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) * invDet
	inv[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) * invDet
	inv[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) * invDet
	inv[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) * invDet
	return inv, d
}

func (m mat3) mulVec(v r3.Vector) [3]float64 {
	return [3]float64{
		m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// triplet is one admissible speaker triangle with its precomputed
// inverse basis matrix.
type triplet struct {
	indices [3]int
	inverse mat3
}

// pair is one admissible speaker pair for 2D VBAP: a fallback for
// planar layouts (stereo, line arrays) where no non-degenerate triplet
// exists. e1/e2 are an orthonormal basis of the plane through the
// origin spanned by the two speaker directions; inverse is the
// precomputed 2x2 basis inverse in that plane.
type pair struct {
	indices [2]int
	e1, e2  r3.Vector
	inverse [2][2]float64
}

// VBAP renders object-position sources onto a speaker layout by Vector
// Base Amplitude Panning. Triplets (and, for planar layouts, pairs) are
// precomputed once at construction and are immutable afterwards; Render
// never mutates renderer state, so a *VBAP is safe to share read-only
// across render ticks.
type VBAP struct {
	layout   speaker.Layout
	triplets []triplet
	pairs    []pair
}

// NewVBAP precomputes every admissible speaker triplet for layout: three
// speakers whose position vectors are linearly independent (|det| ≥
// 1e-6) and whose enclosed triangle has non-degenerate area (cross
// product magnitude > 0.1). Triplets are stored in a deterministic
// (lexicographic index) order so that selection during Render is
// reproducible.
//
// It also precomputes every admissible speaker pair, used as a 2D
// panning fallback when a layout (e.g. stereo) has no speaker triplet
// at all.
func NewVBAP(layout speaker.Layout) *VBAP {
	v := &VBAP{layout: layout}
	n := len(layout.Speakers)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				t, ok := buildTriplet(layout.Speakers, i, j, k)
				if ok {
					v.triplets = append(v.triplets, t)
				}
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p, ok := buildPair(layout.Speakers, i, j)
			if ok {
				v.pairs = append(v.pairs, p)
			}
		}
	}
	return v
}

func buildTriplet(speakers []speaker.Descriptor, i, j, k int) (triplet, bool) {
	p1 := speakers[i].NormalizedPosition()
	p2 := speakers[j].NormalizedPosition()
	p3 := speakers[k].NormalizedPosition()

	m := mat3{
		{p1.X, p2.X, p3.X},
		{p1.Y, p2.Y, p3.Y},
		{p1.Z, p2.Z, p3.Z},
	}
	inv, d := inverse3(m)
	if math.Abs(d) < vbapDetMin {
		return triplet{}, false
	}

	area := p2.Sub(p1).Cross(p3.Sub(p1)).Norm()
	if area <= vbapAreaMin {
		return triplet{}, false
	}

	return triplet{indices: [3]int{i, j, k}, inverse: inv}, true
}

// buildPair precomputes the 2D (in-plane) basis for speakers i and j:
// the plane through the origin containing both speaker directions. It
// rejects pairs whose directions are collinear through the origin
// (no enclosed arc to pan across).
func buildPair(speakers []speaker.Descriptor, i, j int) (pair, bool) {
	p1 := speakers[i].NormalizedPosition()
	p2 := speakers[j].NormalizedPosition()

	e1 := p1
	proj := p2.Sub(e1.Mul(p2.Dot(e1)))
	if proj.Norm() < vbapAreaMin {
		return pair{}, false
	}
	e2 := proj.Normalize()

	m := [2][2]float64{
		{p1.Dot(e1), p2.Dot(e1)},
		{p1.Dot(e2), p2.Dot(e2)},
	}
	det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	if math.Abs(det) < vbapPairDetMin {
		return pair{}, false
	}
	invDet := 1 / det
	inv := [2][2]float64{
		{m[1][1] * invDet, -m[0][1] * invDet},
		{-m[1][0] * invDet, m[0][0] * invDet},
	}
	return pair{indices: [2]int{i, j}, e1: e1, e2: e2, inverse: inv}, true
}

// TripletCount returns the number of admissible speaker triplets found.
func (v *VBAP) TripletCount() int { return len(v.triplets) }

// PairCount returns the number of admissible speaker pairs found, used
// for the 2D panning fallback.
func (v *VBAP) PairCount() int { return len(v.pairs) }

// Render computes per-speaker gains for a source at the given (not
// necessarily normalized) direction. It first searches 3D speaker
// triplets; if the source falls inside none (or the layout has no
// triplet at all, e.g. stereo), it falls back to 2D panning across a
// speaker pair. Gains for speakers outside the selected triplet/pair
// are zero. If source falls inside neither any triplet nor any pair,
// the returned gains are all zero and ok is false; callers should treat
// this as a configuration error worth logging once, not every tick.
func (v *VBAP) Render(source r3.Vector) (gains []float64, ok bool) {
	gains = make([]float64, len(v.layout.Speakers))
	norm := source.Normalize()

	for _, t := range v.triplets {
		g := t.inverse.mulVec(norm)
		if g[0] < 0 || g[1] < 0 || g[2] < 0 {
			continue
		}
		energy := g[0]*g[0] + g[1]*g[1] + g[2]*g[2]
		if energy <= 0 {
			continue
		}
		scale := 1 / math.Sqrt(energy)
		for idx, speakerIdx := range t.indices {
			gains[speakerIdx] = g[idx] * scale
		}
		return gains, true
	}

	for _, p := range v.pairs {
		s2d := [2]float64{norm.Dot(p.e1), norm.Dot(p.e2)}
		g0 := p.inverse[0][0]*s2d[0] + p.inverse[0][1]*s2d[1]
		g1 := p.inverse[1][0]*s2d[0] + p.inverse[1][1]*s2d[1]
		if g0 < 0 || g1 < 0 {
			continue
		}
		energy := g0*g0 + g1*g1
		if energy <= 0 {
			continue
		}
		scale := 1 / math.Sqrt(energy)
		gains[p.indices[0]] = g0 * scale
		gains[p.indices[1]] = g1 * scale
		return gains, true
	}

	return gains, false
}

// sortedTripletsForTest exposes deterministic ordering for assertions in
// tests without leaking the internal slice.
func sortedTripletsForTest(v *VBAP) []string {
	out := make([]string, len(v.triplets))
	for i, t := range v.triplets {
		out[i] = fmt.Sprintf("%d-%d-%d", t.indices[0], t.indices[1], t.indices[2])
	}
	sort.Strings(out)
	return out
}
