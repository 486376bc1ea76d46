// Package calibration derives fixed inter-detector timing offsets from a
// finished results table.
package calibration

import (
	"fmt"
	"math"

	"github.com/OpenCosmics/sapphire/pkg/mip"
	"github.com/OpenCosmics/sapphire/pkg/storage"
)

// ReferenceDetector is detector 2 (index 1); its own offset is zero by
// convention.
const ReferenceDetector = 1

// Histogram window for the arrival-time differences, in nanoseconds.
const (
	windowStart = -100 + 1.25
	windowStop  = 100
	windowStep  = 2.5
)

// DetectorTimingOffsets estimates the fixed timing offset of each
// detector relative to the reference detector, from the arrival-time
// columns of a processed events table. For every non-reference detector
// the distribution of (t - t_ref), restricted to events where both times
// are present, is histogrammed and fitted with a Gaussian; the fitted
// mean is the offset. Detectors without usable events get a NaN offset.
func DetectorTimingOffsets(table storage.Table) ([storage.NDetectors]float64, error) {
	var offsets [storage.NDetectors]float64

	reference, err := table.ReadFloats(fmt.Sprintf("t%d", ReferenceDetector+1), 0)
	if err != nil {
		return offsets, err
	}

	for detector := 0; detector < storage.NDetectors; detector++ {
		if detector == ReferenceDetector {
			offsets[detector] = 0
			continue
		}
		times, err := table.ReadFloats(fmt.Sprintf("t%d", detector+1), 0)
		if err != nil {
			return offsets, err
		}

		var dt []float64
		for i := range times {
			if i >= len(reference) {
				break
			}
			if reference[i] >= 0 && times[i] >= 0 {
				dt = append(dt, times[i]-reference[i])
			}
		}
		if len(dt) == 0 {
			offsets[detector] = math.NaN()
			continue
		}

		x, y := mip.Histogram(dt, windowStart, windowStop, windowStep)
		params, _, err := mip.FitGaussian(x, y, [3]float64{float64(len(dt)), 0, 10})
		if err != nil {
			offsets[detector] = math.NaN()
			continue
		}
		offsets[detector] = params[1]
	}
	return offsets, nil
}
