package calibration

import "math"

// BiquadCoefficients are normalized (a0 = 1) direct-form biquad
// coefficients.
type BiquadCoefficients struct {
	B0, B1, B2 float32
	A1, A2     float32
}

// BiquadFilter pairs coefficients with the gain they were designed for
// and the running state needed to apply them sample-by-sample.
type BiquadFilter struct {
	Coeffs BiquadCoefficients
	GainDB float32

	x1, x2, y1, y2 float32
}

// Apply filters one sample through the biquad (direct form I), updating
// state for the next call.
func (f *BiquadFilter) Apply(x float32) float32 {
	c := f.Coeffs
	y := c.B0*x + c.B1*f.x1 + c.B2*f.x2 - c.A1*f.y1 - c.A2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// ApplyBlock filters an entire channel buffer in place.
func (f *BiquadFilter) ApplyBlock(samples []float32) {
	for i, s := range samples {
		samples[i] = f.Apply(s)
	}
}

// Reset clears the filter's running state.
func (f *BiquadFilter) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

// DesignPEQ builds a parametric (peaking) EQ biquad: centerHz, gainDB,
// and Q (bandwidth), at sampleRate.
func DesignPEQ(centerHz, gainDB, q float32, sampleRate uint32) BiquadFilter {
	a := float32(math.Pow(10, float64(gainDB)/40))
	omega := 2 * math.Pi * float64(centerHz) / float64(sampleRate)
	alpha := float32(math.Sin(omega)) / (2 * q)
	cosw := float32(math.Cos(omega))

	b0 := 1 + alpha*a
	b1 := -2 * cosw
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosw
	a2 := 1 - alpha/a

	return BiquadFilter{
		Coeffs: BiquadCoefficients{B0: b0 / a0, B1: b1 / a0, B2: b2 / a0, A1: a1 / a0, A2: a2 / a0},
		GainDB: gainDB,
	}
}

// DesignLowShelf builds a low-shelf biquad with the given corner
// frequency and gain.
func DesignLowShelf(cornerHz, gainDB float32, sampleRate uint32) BiquadFilter {
	a := float32(math.Pow(10, float64(gainDB)/40))
	omega := 2 * math.Pi * float64(cornerHz) / float64(sampleRate)
	cosw := float32(math.Cos(omega))
	alpha := float32(math.Sin(omega)) / 2
	sqrtA := float32(math.Sqrt(float64(a)))

	b0 := a * ((a + 1) - (a-1)*cosw + 2*sqrtA*alpha)
	b1 := 2 * a * ((a - 1) - (a+1)*cosw)
	b2 := a * ((a + 1) - (a-1)*cosw - 2*sqrtA*alpha)
	a0 := (a + 1) + (a-1)*cosw + 2*sqrtA*alpha
	a1 := -2 * ((a - 1) + (a+1)*cosw)
	a2 := (a + 1) + (a-1)*cosw - 2*sqrtA*alpha

	return BiquadFilter{
		Coeffs: BiquadCoefficients{B0: b0 / a0, B1: b1 / a0, B2: b2 / a0, A1: a1 / a0, A2: a2 / a0},
		GainDB: gainDB,
	}
}

// DesignHighShelf builds a high-shelf biquad with the given corner
// frequency and gain.
func DesignHighShelf(cornerHz, gainDB float32, sampleRate uint32) BiquadFilter {
	a := float32(math.Pow(10, float64(gainDB)/40))
	omega := 2 * math.Pi * float64(cornerHz) / float64(sampleRate)
	cosw := float32(math.Cos(omega))
	alpha := float32(math.Sin(omega)) / 2
	sqrtA := float32(math.Sqrt(float64(a)))

	b0 := a * ((a + 1) + (a-1)*cosw + 2*sqrtA*alpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosw)
	b2 := a * ((a + 1) + (a-1)*cosw - 2*sqrtA*alpha)
	a0 := (a + 1) - (a-1)*cosw + 2*sqrtA*alpha
	a1 := 2 * ((a - 1) - (a+1)*cosw)
	a2 := (a + 1) - (a-1)*cosw - 2*sqrtA*alpha

	return BiquadFilter{
		Coeffs: BiquadCoefficients{B0: b0 / a0, B1: b1 / a0, B2: b2 / a0, A1: a1 / a0, A2: a2 / a0},
		GainDB: gainDB,
	}
}

// FIRFilter is a direct-form finite impulse response filter.
type FIRFilter struct {
	Taps []float32
}

// ImpulseFIR returns a passthrough (unit impulse) FIR of length taps.
func ImpulseFIR(length int) FIRFilter {
	taps := make([]float32, length)
	if length > 0 {
		taps[0] = 1
	}
	return FIRFilter{Taps: taps}
}

// Apply convolves signal with the filter's taps, returning a buffer of
// the same length (causal convolution truncated to the input length,
// zero-padded history).
func (f FIRFilter) Apply(signal []float32) []float32 {
	out := make([]float32, len(signal))
	for i := range signal {
		var acc float32
		for t, tap := range f.Taps {
			if i-t >= 0 {
				acc += tap * signal[i-t]
			}
		}
		out[i] = acc
	}
	return out
}
