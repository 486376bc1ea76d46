// Package timing reconstructs sub-sample particle arrival times from
// thresholded waveform traces.
package timing

import "math"

const (
	// DefaultThreshold is the signal margin above baseline, in ADC units.
	DefaultThreshold = 20
	// DefaultSamplePeriod is the ADC sample period in seconds.
	DefaultSamplePeriod = 2.5e-9
)

// Reconstructor turns one waveform into an arrival time in seconds.
// NaN means the signal never crossed the threshold.
//
// SignalThreshold reports the margin above baseline the strategy uses
// to detect a crossing; callers deciding whether a detector saw a
// signal at all must use this value, not a separate constant.
type Reconstructor interface {
	ReconstructTime(trace []int, baseline int) float64
	SignalThreshold() int
}

// NearestSample reports the time of the first sample at or above
// baseline + Threshold.
type NearestSample struct {
	Threshold    int
	SamplePeriod float64
}

func NewNearestSample() NearestSample {
	return NearestSample{Threshold: DefaultThreshold, SamplePeriod: DefaultSamplePeriod}
}

func (r NearestSample) SignalThreshold() int {
	return r.Threshold
}

func (r NearestSample) ReconstructTime(trace []int, baseline int) float64 {
	threshold := baseline + r.Threshold
	for i, sample := range trace {
		if sample >= threshold {
			return float64(i) * r.SamplePeriod
		}
	}
	return math.NaN()
}

// LinearInterpolation refines the crossing time by interpolating between
// the last sample below threshold and the first sample at or above it.
//
// Degenerate traces are reported as NaN rather than as infinite or
// negative times: a crossing at the very first sample has no preceding
// sample to interpolate from, and equal adjacent samples leave the
// crossing fraction undefined. Callers must treat such events as having
// no usable arrival time.
type LinearInterpolation struct {
	Threshold    int
	SamplePeriod float64
}

func NewLinearInterpolation() LinearInterpolation {
	return LinearInterpolation{Threshold: DefaultThreshold, SamplePeriod: DefaultSamplePeriod}
}

func (r LinearInterpolation) SignalThreshold() int {
	return r.Threshold
}

func (r LinearInterpolation) ReconstructTime(trace []int, baseline int) float64 {
	threshold := baseline + r.Threshold
	for i, sample := range trace {
		if sample < threshold {
			continue
		}
		if i == 0 {
			return math.NaN()
		}
		y0, y1 := trace[i-1], trace[i]
		if y1 == y0 {
			return math.NaN()
		}
		fraction := float64(threshold-y0) / float64(y1-y0)
		return (float64(i-1) + fraction) * r.SamplePeriod
	}
	return math.NaN()
}
