package calibration

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLogSweepLength(t *testing.T) {
	sweep := GenerateLogSweep(48000, 1.0, 20, 20000)
	assert.Len(t, sweep, 48000)
	for _, s := range sweep {
		assert.LessOrEqual(t, math.Abs(float64(s)), 1.0001)
	}
}

func TestGenerateMLSIsBipolar(t *testing.T) {
	seq := GenerateMLS(127)
	assert.NotEmpty(t, seq)
	for _, s := range seq {
		assert.True(t, s == 1.0 || s == -1.0)
	}
}

func TestFindIRPeak(t *testing.T) {
	ir := []float32{0, 0.1, -0.9, 0.2}
	idx, ok := FindIRPeak(ir)
	require.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestFindIRPeakEmpty(t *testing.T) {
	_, ok := FindIRPeak(nil)
	assert.False(t, ok)
}

func TestComputeDelay(t *testing.T) {
	d := ComputeDelay(4800, 48000)
	assert.Equal(t, 100*time.Millisecond, d)
}

func TestComputeRMSAndDB(t *testing.T) {
	rms := ComputeRMS([]float32{1, -1, 1, -1})
	assert.InDelta(t, 1.0, rms, 1e-6)
	assert.InDelta(t, 0.0, RMSToDB(rms), 1e-4)
}

func TestRMSToDBSilence(t *testing.T) {
	assert.True(t, math.IsInf(float64(RMSToDB(0)), -1))
}

func TestBiquadPEQPassesDCRoughlyUnity(t *testing.T) {
	f := DesignPEQ(1000, 6, 1.0, 48000)
	// a long run of DC should settle near a fixed gain, not blow up or
	// decay to zero.
	var last float32
	for i := 0; i < 2000; i++ {
		last = f.Apply(1.0)
	}
	assert.Greater(t, last, float32(0))
	assert.Less(t, last, float32(10))
}

func TestBiquadResetClearsState(t *testing.T) {
	f := DesignLowShelf(200, 3, 48000)
	f.Apply(1.0)
	f.Apply(1.0)
	f.Reset()
	assert.Equal(t, float32(0), f.x1)
	assert.Equal(t, float32(0), f.y1)
}

func TestFIRImpulseIsPassthrough(t *testing.T) {
	fir := ImpulseFIR(4)
	in := []float32{1, 2, 3, 4, 5}
	out := fir.Apply(in)
	assert.Equal(t, in, out)
}

func TestReferenceCalibratorMeasureAndSolve(t *testing.T) {
	c := ReferenceCalibrator{}
	result, err := c.Measure(MeasurementConfig{SweepDuration: time.Second, SampleRate: 48000, Sweep: LogSweep(20, 20000)})
	require.NoError(t, err)
	assert.Len(t, result.ImpulseResponse, 48000)

	sol, err := c.Solve(result)
	require.NoError(t, err)
	assert.Empty(t, sol.Delays)
}
