package calibration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/OpenCosmics/sapphire/pkg/storage"
)

// newTimingTable builds a processed-events table where detectors 1, 3
// and 4 lag the reference detector by fixed offsets, smeared with a
// 5 ns Gaussian spread.
func newTimingTable(t *testing.T, n int, offsets [storage.NDetectors]float64) storage.Table {
	t.Helper()
	store := storage.NewMemStore()
	table, err := store.CreateTable("events", n)
	require.NoError(t, err)
	require.NoError(t, table.AppendEmpty(n))

	jitter := distuv.Normal{Mu: 0, Sigma: 5}
	reference := make([]float64, n)
	for i := range reference {
		reference[i] = 30
	}
	require.NoError(t, table.WriteFloats("t2", reference))

	for _, d := range []int{0, 2, 3} {
		times := make([]float64, n)
		for i := range times {
			// Walk the quantiles in a detector-dependent order so the
			// columns are not simply shifted copies of each other.
			p := (float64((i*(d+3))%n) + 0.5) / float64(n)
			times[i] = reference[i] + offsets[d] + jitter.Quantile(p)
		}
		require.NoError(t, table.WriteFloats(columnName(d), times))
	}
	require.NoError(t, table.Flush())
	return table
}

func columnName(detector int) string {
	return []string{"t1", "t2", "t3", "t4"}[detector]
}

func TestDetectorTimingOffsets(t *testing.T) {
	want := [storage.NDetectors]float64{15, 0, -10, 5}
	table := newTimingTable(t, 2000, want)

	offsets, err := DetectorTimingOffsets(table)
	require.NoError(t, err)

	assert.Equal(t, 0.0, offsets[ReferenceDetector])
	for _, d := range []int{0, 2, 3} {
		assert.InDelta(t, want[d], offsets[d], 1.0, "detector %d", d+1)
	}
}

func TestOffsetsSkipNoDataEvents(t *testing.T) {
	want := [storage.NDetectors]float64{15, 0, -10, 5}
	table := newTimingTable(t, 2000, want)

	// Knock out half the events on detector 1; the surviving half must
	// still carry the offset.
	times, err := table.ReadFloats("t1", 0)
	require.NoError(t, err)
	for i := 0; i < len(times); i += 2 {
		times[i] = storage.NoDataTime
	}
	require.NoError(t, table.WriteFloats("t1", times))
	require.NoError(t, table.Flush())

	offsets, err := DetectorTimingOffsets(table)
	require.NoError(t, err)
	assert.InDelta(t, 15, offsets[0], 1.5)
}

func TestOffsetsWithoutUsableEvents(t *testing.T) {
	want := [storage.NDetectors]float64{15, 0, -10, 5}
	table := newTimingTable(t, 500, want)

	noData := make([]float64, 500)
	for i := range noData {
		noData[i] = storage.NoDataTime
	}
	require.NoError(t, table.WriteFloats("t4", noData))
	require.NoError(t, table.Flush())

	offsets, err := DetectorTimingOffsets(table)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(offsets[3]))
	assert.InDelta(t, -10, offsets[2], 1.0)
}
