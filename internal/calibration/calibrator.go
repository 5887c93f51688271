package calibration

import (
	"fmt"
	"time"
)

// SweepType selects the stimulus a measurement uses.
type SweepType struct {
	Kind    string // "log-sweep" or "mls"
	StartHz uint32 // log-sweep only
	EndHz   uint32 // log-sweep only
	Length  uint32 // mls only
}

// LogSweep returns a log-sweep SweepType.
func LogSweep(startHz, endHz uint32) SweepType {
	return SweepType{Kind: "log-sweep", StartHz: startHz, EndHz: endHz}
}

// MLS returns an MLS SweepType.
func MLS(length uint32) SweepType {
	return SweepType{Kind: "mls", Length: length}
}

// MeasurementConfig parameterizes one speaker's measurement sweep.
type MeasurementConfig struct {
	SweepDuration time.Duration
	SampleRate    uint32
	Sweep         SweepType
}

// MeasurementResult is one speaker's recorded and analyzed impulse
// response.
type MeasurementResult struct {
	ImpulseResponse    []float32
	SampleRate         uint32
	PeakIndex          int
	HasPeak            bool
	MagnitudeResponse  []float32
}

// Solution is the calibration output consumed by the render pipeline:
// per-speaker delay and trim, plus a shared parametric EQ chain and an
// optional FIR correction filter.
type Solution struct {
	Delays  []time.Duration
	TrimsDB []float32
	PEQ     []BiquadFilter
	FIR     *FIRFilter
}

// Calibrator measures a speaker's acoustic response and solves a
// correction from it.
type Calibrator interface {
	Measure(cfg MeasurementConfig) (MeasurementResult, error)
	Solve(measurement MeasurementResult) (Solution, error)
}

// ReferenceCalibrator is the baseline Calibrator: it generates the
// configured stimulus, synthesizes a silent placeholder measurement
// (a real implementation plays the stimulus and records the response),
// and solves a no-op correction. It exists to exercise the Calibrator
// contract end-to-end before a hardware-driving implementation lands.
type ReferenceCalibrator struct{}

// Measure returns a zeroed impulse response sized to the sweep
// duration.
func (ReferenceCalibrator) Measure(cfg MeasurementConfig) (MeasurementResult, error) {
	frames := int(float64(cfg.SampleRate) * cfg.SweepDuration.Seconds())
	if frames < 0 {
		return MeasurementResult{}, fmt.Errorf("calibration: negative frame count")
	}
	return MeasurementResult{
		ImpulseResponse: make([]float32, frames),
		SampleRate:      cfg.SampleRate,
	}, nil
}

// Solve returns an empty (identity) correction.
func (ReferenceCalibrator) Solve(MeasurementResult) (Solution, error) {
	return Solution{}, nil
}
