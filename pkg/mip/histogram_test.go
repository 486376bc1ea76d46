package mip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogram(t *testing.T) {
	values := []float64{5, 15, 15, 25, 4999, 5000, -1}
	x, y := Histogram(values, 0, 50, 10)

	require.Len(t, x, 4)
	assert.Equal(t, []float64{5, 15, 25, 35}, x)
	// 4999, 5000 and -1 fall outside [0, 40].
	assert.Equal(t, []float64{1, 2, 1, 0}, y)
}

func TestHistogramFinalEdgeInclusive(t *testing.T) {
	_, y := Histogram([]float64{30}, 0, 40, 10)
	require.Len(t, y, 3)
	assert.Equal(t, 1.0, y[2])
}

func TestSmoothForward(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5, 6, 7}
	smoothed := smoothForward(y, 5)
	require.Len(t, smoothed, 2)
	assert.Equal(t, 3.0, smoothed[0])
	assert.Equal(t, 4.0, smoothed[1])

	assert.Nil(t, smoothForward([]float64{1, 2, 3}, 5))
}

func TestRebinPairsXOddPadding(t *testing.T) {
	x := []float64{5, 15, 25}
	rebinned := rebinPairsX(x)
	require.Len(t, rebinned, 2)
	assert.Equal(t, 10.0, rebinned[0])
	// The odd tail is padded with one center continuing the spacing.
	assert.Equal(t, 30.0, rebinned[1])
	// The input must not be modified by the padding.
	assert.Equal(t, []float64{5, 15, 25}, x)
}

func TestRebinPairsYOddPadding(t *testing.T) {
	y := []float64{2, 4, 6}
	rebinned := rebinPairsY(y)
	require.Len(t, rebinned, 2)
	assert.Equal(t, 3.0, rebinned[0])
	assert.Equal(t, 3.0, rebinned[1])
	assert.Equal(t, []float64{2, 4, 6}, y)
}

func TestDiff(t *testing.T) {
	assert.Equal(t, []float64{1, 2, -3}, diff([]float64{0, 1, 3, 0}))
	assert.Nil(t, diff([]float64{1}))
}

func TestZeroBelowCut(t *testing.T) {
	x := []float64{50, 100, 150, 200}
	d := []float64{1, 2, 3, 4}
	zeroBelowCut(x, d, 120)
	assert.Equal(t, []float64{0, 0, 3, 4}, d)
}

func TestConvolveSame(t *testing.T) {
	y := []float64{0, 0, 5, 0, 0}
	smoothed := convolveSame(y, derivativeKernel)
	require.Len(t, smoothed, len(y))
	for _, v := range smoothed {
		assert.InDelta(t, 1.0, v, 1e-12)
	}
}

func TestNextMinimum(t *testing.T) {
	y := []float64{3, 2, 1, 1, 2, 3}
	bin, found := nextMinimum(y, 0)
	require.True(t, found)
	assert.Equal(t, 3, bin)

	// Monotonically decreasing: the scan must stop at the boundary
	// instead of reading past the sequence.
	_, found = nextMinimum([]float64{3, 2, 1}, 0)
	assert.False(t, found)

	_, found = nextMinimum(y, len(y))
	assert.False(t, found)
	_, found = nextMinimum(y, -1)
	assert.False(t, found)
}

func TestNextMaximum(t *testing.T) {
	y := []float64{0, 1, 2, 2, 1}
	bin, found := nextMaximum(y, 0)
	require.True(t, found)
	assert.Equal(t, 3, bin)

	_, found = nextMaximum([]float64{0, 1, 2}, 0)
	assert.False(t, found)
}

func TestPeakWindowFlatInput(t *testing.T) {
	x, y := Histogram(nil, 0, 5000, 10)
	_, _, _, ok := peakWindow(x, y, 120)
	assert.False(t, ok)
}
