package spatial

import (
	"math"

	"github.com/wavemesh/wavemesh/internal/audioblock"
	"github.com/wavemesh/wavemesh/internal/speaker"
)

// Order is an ambisonic order: 1 (4 channels, B-format), 2 (9 channels),
// or 3 (16 channels).
type Order int

const (
	Order1 Order = 1
	Order2 Order = 2
	Order3 Order = 3
)

// ChannelCount returns (order+1)^2, the ACN channel count for o.
func (o Order) ChannelCount() int {
	n := int(o) + 1
	return n * n
}

// DecodingMode weights ambisonic channels by degree before decoding.
type DecodingMode int

const (
	ModeBasic DecodingMode = iota
	ModeMaxRE
	ModeInPhase
)

// HOADecoder holds a precomputed decode matrix for a (layout, order,
// mode) triple. The matrix is built once at construction and never
// mutated, so a *HOADecoder is safe to share read-only across ticks.
type HOADecoder struct {
	order   Order
	mode    DecodingMode
	layout  speaker.Layout
	// decode[channel][speaker]
	decode [][]float64
}

// NewHOADecoder builds the decode matrix for layout at the given order
// and mode. It evaluates the ACN-ordered, SN3D-normalized real
// spherical harmonics at each speaker direction to build an encoding
// matrix, applies the mode's per-degree weights to its columns, then
// forms the decode matrix as the weighted transpose, normalized by
// 1/sqrt(speaker_count) for energy preservation across the layout.
func NewHOADecoder(layout speaker.Layout, order Order, mode DecodingMode) *HOADecoder {
	numChannels := order.ChannelCount()
	numSpeakers := len(layout.Speakers)

	encode := make([][]float64, numSpeakers) // encode[speaker][channel]
	for i, sp := range layout.Speakers {
		az, el := speaker.ToAzimuthElevation(sp.NormalizedPosition())
		encode[i] = realSphericalHarmonics(order, az*math.Pi/180, el*math.Pi/180)
	}

	weights := modeWeights(order, mode)
	for _, row := range encode {
		for c := range row {
			row[c] *= weights[c]
		}
	}

	decode := make([][]float64, numChannels)
	for c := 0; c < numChannels; c++ {
		decode[c] = make([]float64, numSpeakers)
		for s := 0; s < numSpeakers; s++ {
			decode[c][s] = encode[s][c]
		}
	}

	if numSpeakers > 0 {
		norm := 1 / math.Sqrt(float64(numSpeakers))
		for c := range decode {
			for s := range decode[c] {
				decode[c][s] *= norm
			}
		}
	}

	return &HOADecoder{order: order, mode: mode, layout: layout, decode: decode}
}

// Decode renders one ambisonic-encoded block (one channel per ACN
// index) to a speaker-shaped block: out[speaker][i] = Σ_channel
// decode[channel][speaker] * in[channel][i].
func (h *HOADecoder) Decode(in audioblock.Block) audioblock.Block {
	frames := in.Frames()
	out := audioblock.New(in.SampleRate, len(h.layout.Speakers), frames)

	numChannels := h.order.ChannelCount()
	for c := 0; c < numChannels && c < len(in.Channels); c++ {
		row := h.decode[c]
		src := in.Channels[c]
		for s, coeff := range row {
			if coeff == 0 {
				continue
			}
			dst := out.Channels[s]
			for i := 0; i < frames; i++ {
				dst[i] += float32(coeff) * src[i]
			}
		}
	}
	return out
}

func modeWeights(order Order, mode DecodingMode) []float64 {
	n := order.ChannelCount()
	weights := make([]float64, n)
	idx := 0
	for degree := 0; degree <= int(order); degree++ {
		w := 1.0
		switch mode {
		case ModeMaxRE:
			w = maxREWeight(degree, int(order))
		case ModeInPhase:
			w = inPhaseWeight(degree, int(order))
		}
		for m := -degree; m <= degree; m++ {
			weights[idx] = w
			idx++
		}
	}
	return weights
}

// maxREWeight returns the max-rE weighting for harmonic degree within
// an ambisonic decode of the given order: cos(degree * pi / (2*order+2)).
func maxREWeight(degree, order int) float64 {
	if order == 0 {
		return 1
	}
	return math.Cos(float64(degree) * math.Pi / (2*float64(order) + 2))
}

// inPhaseWeight returns the in-phase weighting, which falls off faster
// with degree than max-rE to suppress out-of-phase energy between
// opposing speakers.
func inPhaseWeight(degree, order int) float64 {
	if order == 0 {
		return 1
	}
	num := factorial(order) * factorial(order + 1)
	den := factorial(order - degree) * factorial(order + degree + 1)
	return float64(num) / float64(den)
}

func factorial(n int) int64 {
	if n <= 1 {
		return 1
	}
	var f int64 = 1
	for i := int64(2); i <= int64(n); i++ {
		f *= i
	}
	return f
}

// realSphericalHarmonics evaluates the ACN-ordered, SN3D-normalized
// real spherical harmonics up to the given order at (azimuth,
// elevation) in radians, using the standard closed-form AmbiX
// expressions. This replaces the placeholder degree-3 expression the
// spec flags as "almost certainly wrong for production use" with a
// faithful, full third-order derivation.
func realSphericalHarmonics(order Order, az, el float64) []float64 {
	sinAz, cosAz := math.Sin(az), math.Cos(az)
	sin2Az, cos2Az := math.Sin(2*az), math.Cos(2*az)
	sin3Az, cos3Az := math.Sin(3*az), math.Cos(3*az)
	sinEl, cosEl := math.Sin(el), math.Cos(el)

	out := make([]float64, order.ChannelCount())
	out[0] = 1 // ACN 0: W

	if order >= Order1 {
		out[1] = cosEl * sinAz // Y
		out[2] = sinEl         // Z
		out[3] = cosEl * cosAz // X
	}
	if order >= Order2 {
		sqrt3 := math.Sqrt(3)
		out[4] = (sqrt3 / 2) * cosEl * cosEl * sin2Az
		out[5] = (sqrt3 / 2) * math.Sin(2*el) * sinAz
		out[6] = 0.5 * (3*sinEl*sinEl - 1)
		out[7] = (sqrt3 / 2) * math.Sin(2*el) * cosAz
		out[8] = (sqrt3 / 2) * cosEl * cosEl * cos2Az
	}
	if order >= Order3 {
		sqrt58 := math.Sqrt(5.0 / 8.0)
		sqrt15 := math.Sqrt(15)
		sqrt38 := math.Sqrt(3.0 / 8.0)
		cosEl2 := cosEl * cosEl
		cosEl3 := cosEl2 * cosEl
		sinEl2 := sinEl * sinEl

		out[9] = sqrt58 * cosEl3 * sin3Az
		out[10] = (sqrt15 / 2) * sinEl * cosEl2 * sin2Az
		out[11] = sqrt38 * cosEl * (5*sinEl2 - 1) * sinAz
		out[12] = 0.5 * sinEl * (5*sinEl2 - 3)
		out[13] = sqrt38 * cosEl * (5*sinEl2 - 1) * cosAz
		out[14] = (sqrt15 / 2) * sinEl * cosEl2 * cos2Az
		out[15] = sqrt58 * cosEl3 * cos3Az
	}
	return out
}
