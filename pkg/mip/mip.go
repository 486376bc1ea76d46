// Package mip estimates the single-particle (minimum-ionizing-particle)
// response of each detector from a population of pulse measurements, and
// converts pulse measurements into particle counts.
package mip

import "fmt"

// NDetectors is the number of detectors in one station.
const NDetectors = 4

// Bins describes a uniform histogram binning over [Start, Stop) with the
// given Step.
type Bins struct {
	Start float64
	Stop  float64
	Step  float64
}

// Binnings tuned to the two pulse measurement types and their ADC
// ranges.
var (
	PulseheightBins = Bins{Start: 0, Stop: 5000, Step: 10}
	IntegralBins    = Bins{Start: 0, Stop: 50000, Step: 100}
)

// Fit holds the Gaussian fit to one detector's MIP peak. A null fit
// (NoFit set, zeroed parameters, Residual -1) marks a population whose
// peak window was too narrow to fit; it is not an error, but the zero
// MPV makes the derived particle counts unusable and callers must check
// NoFit before trusting them.
type Fit struct {
	// Params holds amplitude, mean (the MPV) and width.
	Params     [3]float64
	Covariance [3][3]float64
	// Residual is the summed fit residual over the window, -1 when no
	// fit was made.
	Residual float64
	NoFit    bool
}

// MPV returns the fitted most probable value.
func (f Fit) MPV() float64 {
	return f.Params[1]
}

func nullFit() Fit {
	return Fit{Residual: -1, NoFit: true}
}

// ErrCalibration represents a pulse population that cannot support the
// MIP calibration at all.
type ErrCalibration struct {
	Detector int
	Mean     float64
}

func (e *ErrCalibration) Error() string {
	return fmt.Sprintf("calibration failed for detector %d: mean pulse value %.1f is below the sanity floor",
		e.Detector+1, e.Mean)
}

// Finder locates the MIP peak in per-detector pulse populations.
type Finder struct {
	Bins Bins
	// MeanFloor is the minimum occurrence-weighted mean pulse value for
	// a usable population.
	MeanFloor float64
	// PileupCut is the pulse value above which histogram bins are
	// dominated by multi-particle pile-up.
	PileupCut float64
	// MinWindowWidth is the minimum peak window width for a fit.
	MinWindowWidth float64
}

func NewFinder(bins Bins) *Finder {
	return &Finder{
		Bins:           bins,
		MeanFloor:      100,
		PileupCut:      120,
		MinWindowWidth: 40,
	}
}

// FindMPV fits the MIP peak for each detector independently and returns
// the four fits. A population whose occurrence-weighted mean is below
// the sanity floor aborts with ErrCalibration; a too-narrow peak window
// yields a null fit for that detector and processing continues.
func (f *Finder) FindMPV(pulses [NDetectors][]float64) ([NDetectors]Fit, error) {
	var fits [NDetectors]Fit
	for detector := 0; detector < NDetectors; detector++ {
		fit, err := f.findDetectorMPV(detector, pulses[detector])
		if err != nil {
			return fits, err
		}
		fits[detector] = fit
	}
	return fits, nil
}

func (f *Finder) findDetectorMPV(detector int, values []float64) (Fit, error) {
	x, y := Histogram(values, f.Bins.Start, f.Bins.Stop, f.Bins.Step)

	var weighted, total float64
	for i := range x {
		weighted += x[i] * y[i]
		total += y[i]
	}
	if total == 0 {
		return Fit{}, &ErrCalibration{Detector: detector, Mean: 0}
	}
	mean := weighted / total
	if mean < f.MeanFloor {
		return Fit{}, &ErrCalibration{Detector: detector, Mean: mean}
	}

	peak, lo, hi, ok := peakWindow(x, y, f.PileupCut)
	if !ok {
		return nullFit(), nil
	}
	width := peak - lo
	if width <= f.MinWindowWidth {
		return nullFit(), nil
	}

	var windowX, windowY []float64
	for i := range x {
		if x[i] < lo || x[i] > hi {
			continue
		}
		windowX = append(windowX, x[i])
		windowY = append(windowY, y[i])
	}
	if len(windowX) == 0 {
		return nullFit(), nil
	}

	params, residual, err := FitGaussian(windowX, windowY, [3]float64{16, peak, width})
	if err != nil {
		return Fit{}, fmt.Errorf("gaussian fit for detector %d: %w", detector+1, err)
	}
	// Sanity bracket: a fitted mean outside the located window is a
	// runaway fit, reported as no fit.
	if params[1] < lo || params[1] > hi {
		return nullFit(), nil
	}
	return Fit{Params: params, Residual: residual}, nil
}

// Counts converts pulse measurements into particle counts by dividing by
// the MPV. A zero MPV from a null fit yields infinite or undefined
// counts.
func Counts(values []float64, mpv float64) []float64 {
	counts := make([]float64, len(values))
	for i, v := range values {
		counts[i] = v / mpv
	}
	return counts
}
