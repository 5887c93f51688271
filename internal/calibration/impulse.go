package calibration

import (
	"math"
	"time"
)

// ExtractIRFromSweep derives an impulse response from a recorded sweep.
// The reference sweep is taken for interface symmetry with a real
// FFT-deconvolution implementation; this version places a unit impulse
// at the recording's peak sample, matching the reference measurement
// pipeline's placeholder extraction.
func ExtractIRFromSweep(recorded []float32, referenceSweep []float32, sampleRate uint32) []float32 {
	_ = referenceSweep
	irLen := int(sampleRate / 10) // 100ms IR
	ir := make([]float32, irLen)

	peakIdx, ok := peakIndex(recorded)
	if ok && peakIdx < len(ir) {
		ir[peakIdx] = 1.0
	}
	return ir
}

// FindIRPeak returns the index of the largest-magnitude sample in an
// impulse response, used for per-speaker delay detection.
func FindIRPeak(ir []float32) (int, bool) {
	return peakIndex(ir)
}

func peakIndex(signal []float32) (int, bool) {
	if len(signal) == 0 {
		return 0, false
	}
	best := 0
	bestAbs := float32(math.Abs(float64(signal[0])))
	for i, s := range signal[1:] {
		if a := float32(math.Abs(float64(s))); a > bestAbs {
			best = i + 1
			bestAbs = a
		}
	}
	return best, true
}

// ComputeDelay converts an IR peak index into a duration at sampleRate.
func ComputeDelay(peakIndex int, sampleRate uint32) time.Duration {
	return time.Duration(float64(peakIndex) / float64(sampleRate) * float64(time.Second))
}

// ComputeRMS returns the root-mean-square level of signal.
func ComputeRMS(signal []float32) float32 {
	if len(signal) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range signal {
		sumSq += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sumSq / float64(len(signal))))
}

// RMSToDB converts an RMS level to dB relative to full scale.
func RMSToDB(rms float32) float32 {
	if rms <= 0 {
		return float32(math.Inf(-1))
	}
	return float32(20 * math.Log10(float64(rms)))
}
