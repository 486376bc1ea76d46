package mip

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

// gaussianSample returns n deterministic samples following a Gaussian
// distribution, spread over evenly spaced quantiles.
func gaussianSample(mean, width float64, n int) []float64 {
	normal := distuv.Normal{Mu: mean, Sigma: width}
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = normal.Quantile((float64(i) + 0.5) / float64(n))
	}
	return samples
}

func TestFindMPVRecoversPeak(t *testing.T) {
	samples := gaussianSample(500, 60, 4000)
	var pulses [NDetectors][]float64
	for d := range pulses {
		pulses[d] = samples
	}

	finder := NewFinder(PulseheightBins)
	fits, err := finder.FindMPV(pulses)
	require.NoError(t, err)

	for d, fit := range fits {
		require.False(t, fit.NoFit, "detector %d", d+1)
		assert.InEpsilon(t, 500.0, fit.MPV(), 0.05, "detector %d", d+1)
	}

	counts := Counts(samples, fits[0].MPV())
	var sum float64
	for _, c := range counts {
		sum += c
	}
	assert.InEpsilon(t, 1.0, sum/float64(len(counts)), 0.05)
}

func TestFindMPVLowMean(t *testing.T) {
	low := make([]float64, 200)
	for i := range low {
		low[i] = 50
	}
	var pulses [NDetectors][]float64
	for d := range pulses {
		pulses[d] = low
	}

	finder := NewFinder(PulseheightBins)
	_, err := finder.FindMPV(pulses)
	var calErr *ErrCalibration
	require.ErrorAs(t, err, &calErr)
	assert.Equal(t, 0, calErr.Detector)
	assert.Less(t, calErr.Mean, 100.0)
}

func TestFindMPVEmptyPopulation(t *testing.T) {
	finder := NewFinder(PulseheightBins)
	var pulses [NDetectors][]float64
	_, err := finder.FindMPV(pulses)
	var calErr *ErrCalibration
	require.ErrorAs(t, err, &calErr)
}

func TestFindMPVNarrowPopulationYieldsNullFit(t *testing.T) {
	// A population collapsed onto a single bin just above the pile-up
	// cut gives the derivative scan nothing to work with; that is a
	// null fit, not an error.
	narrow := make([]float64, 500)
	for i := range narrow {
		narrow[i] = 130
	}
	var pulses [NDetectors][]float64
	for d := range pulses {
		pulses[d] = narrow
	}

	finder := NewFinder(PulseheightBins)
	fits, err := finder.FindMPV(pulses)
	require.NoError(t, err)
	for d, fit := range fits {
		assert.True(t, fit.NoFit, "detector %d", d+1)
		assert.Equal(t, [3]float64{}, fit.Params)
		assert.Equal(t, -1.0, fit.Residual)
	}
}

func TestCounts(t *testing.T) {
	counts := Counts([]float64{500, 250, 0}, 500)
	assert.Equal(t, []float64{1, 0.5, 0}, counts)
}

func TestCountsNullFitDivision(t *testing.T) {
	// A zero MPV from a null fit is not hidden: positive measurements
	// become +Inf, zero measurements become NaN.
	counts := Counts([]float64{500, 0}, 0)
	assert.True(t, math.IsInf(counts[0], 1))
	assert.True(t, math.IsNaN(counts[1]))
}

func TestFitGaussianDirect(t *testing.T) {
	x, y := Histogram(gaussianSample(300, 40, 2000), 0, 5000, 10)

	// The amplitude seed must be of the order of the data: for counts
	// following amplitude*pdf, the peak occurrence times width*sqrt(2*pi)
	// recovers it. A far-off amplitude seed starves the minimizer and
	// collapses the width instead.
	var top float64
	for _, v := range y {
		if v > top {
			top = v
		}
	}
	seed := [3]float64{top * 50 * math.Sqrt(2*math.Pi), 320, 50}

	params, _, err := FitGaussian(x, y, seed)
	require.NoError(t, err)
	assert.InDelta(t, 300, params[1], 10)
	assert.InDelta(t, 40, math.Abs(params[2]), 10)
}
