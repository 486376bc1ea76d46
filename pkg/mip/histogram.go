package mip

// The peak-window heuristic works on plain (x, y) sequences so each step
// can be tested on its own: histogram, forward smoothing, pair rebinning,
// discrete derivative, kernel smoothing and the extremum scans.

// BinEdges returns uniform bin edges covering [start, stop) with the
// given step, the last edge being the largest start+k*step below stop.
func BinEdges(start, stop, step float64) []float64 {
	var edges []float64
	for edge := start; edge < stop; edge += step {
		edges = append(edges, edge)
	}
	return edges
}

// Histogram bins values into [start, stop) with the given step and
// returns the bin centers and occurrences. Values on the final edge are
// counted in the last bin.
func Histogram(values []float64, start, stop, step float64) (x, y []float64) {
	edges := BinEdges(start, stop, step)
	nbins := len(edges) - 1
	if nbins < 1 {
		return nil, nil
	}
	x = make([]float64, nbins)
	y = make([]float64, nbins)
	for i := 0; i < nbins; i++ {
		x[i] = (edges[i] + edges[i+1]) / 2
	}
	for _, v := range values {
		if v < edges[0] || v > edges[nbins] {
			continue
		}
		idx := int((v - edges[0]) / step)
		if idx >= nbins {
			idx = nbins - 1
		}
		y[idx]++
	}
	return x, y
}

// smoothForward replaces each point with the mean of the n points
// starting at it. The result is n points shorter than the input.
func smoothForward(y []float64, n int) []float64 {
	if len(y) <= n {
		return nil
	}
	smoothed := make([]float64, len(y)-n)
	for i := range smoothed {
		var sum float64
		for j := i; j < i+n; j++ {
			sum += y[j]
		}
		smoothed[i] = sum / float64(n)
	}
	return smoothed
}

// zeroFirstBinAbove zeroes the first smoothed bin whose x lies above the
// cut. Occurrences above the cut are dominated by multi-particle pile-up
// and must not bias the derivative scan.
func zeroFirstBinAbove(x, smoothed []float64, cut float64) {
	if len(smoothed) == 0 {
		return
	}
	i := 0
	for ; i < len(smoothed); i++ {
		if x[i] > cut {
			break
		}
	}
	if i == len(smoothed) {
		i = len(smoothed) - 1
	}
	smoothed[i] = 0
}

// rebinPairsX rebins bin centers by averaging adjacent pairs. An odd
// sequence is padded with one extra center continuing the spacing.
func rebinPairsX(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	step := x[1] - x[0]
	padded := x
	if len(padded)%2 == 1 {
		padded = append(append([]float64{}, x...), x[len(x)-1]+step)
	}
	rebinned := make([]float64, len(padded)/2)
	for i := range rebinned {
		rebinned[i] = (padded[2*i] + padded[2*i+1]) / 2
	}
	return rebinned
}

// rebinPairsY rebins occurrences by averaging adjacent pairs, padding an
// odd sequence with a trailing zero bin.
func rebinPairsY(y []float64) []float64 {
	padded := y
	if len(padded)%2 == 1 {
		padded = append(append([]float64{}, y...), 0)
	}
	rebinned := make([]float64, len(padded)/2)
	for i := range rebinned {
		rebinned[i] = (padded[2*i] + padded[2*i+1]) / 2
	}
	return rebinned
}

// diff returns the first difference of y.
func diff(y []float64) []float64 {
	if len(y) < 2 {
		return nil
	}
	d := make([]float64, len(y)-1)
	for i := range d {
		d[i] = y[i+1] - y[i]
	}
	return d
}

// zeroBelowCut zeroes derivative values for rebinned x at or below the
// cut, for the same pile-up reason as zeroFirstBinAbove.
func zeroBelowCut(x, d []float64, cut float64) {
	for i := 0; i < len(d) && i < len(x); i++ {
		if x[i] > cut {
			break
		}
		d[i] = 0
	}
}

// convolveSame convolves y with the kernel, cropped to the input length
// with the kernel centered.
func convolveSame(y, kernel []float64) []float64 {
	n, m := len(y), len(kernel)
	if n == 0 || m == 0 {
		return nil
	}
	full := make([]float64, n+m-1)
	for i, v := range y {
		for j, k := range kernel {
			full[i+j] += v * k
		}
	}
	start := (m - 1) / 2
	return full[start : start+n]
}

// nextMinimum scans y from start for the first local minimum: the last
// bin of a non-increasing run followed by an increase. It reports
// failure instead of reading past the sequence.
func nextMinimum(y []float64, start int) (int, bool) {
	if start < 0 || start >= len(y) {
		return 0, false
	}
	minimum := y[start]
	for i := start; i < len(y); i++ {
		if y[i] < minimum {
			minimum = y[i]
		} else if y[i] > minimum {
			return i - 1, true
		}
	}
	return 0, false
}

// nextMaximum is the mirror of nextMinimum.
func nextMaximum(y []float64, start int) (int, bool) {
	if start < 0 || start >= len(y) {
		return 0, false
	}
	maximum := y[start]
	for i := start; i < len(y); i++ {
		if y[i] > maximum {
			maximum = y[i]
		} else if y[i] < maximum {
			return i - 1, true
		}
	}
	return 0, false
}

var derivativeKernel = []float64{0.2, 0.2, 0.2, 0.2, 0.2}

// peakWindow locates the approximate single-particle peak in a
// histogram. It smooths the occurrences, rebins by two, takes the
// smoothed derivative and scans it for a minimum, a maximum and a second
// minimum: the rising edge, the crest region and the falling edge of the
// peak. The returned window bounds and seed peak carry a bias of twice
// the original bin width, compensating the rebinning.
func peakWindow(x, y []float64, pileupCut float64) (peak, lo, hi float64, ok bool) {
	if len(x) < 2 || len(x) != len(y) {
		return 0, 0, 0, false
	}
	bias := (x[1] - x[0]) * 2

	xRebinned := rebinPairsX(x)
	smoothed := smoothForward(y, 5)
	if len(smoothed) == 0 {
		return 0, 0, 0, false
	}
	zeroFirstBinAbove(x, smoothed, pileupCut)

	derivative := diff(rebinPairsY(smoothed))
	zeroBelowCut(xRebinned, derivative, pileupCut)
	derivative = convolveSame(derivative, derivativeKernel)

	binMinimum, found := nextMinimum(derivative, 0)
	if !found {
		return 0, 0, 0, false
	}
	binMaximum, found := nextMaximum(derivative, binMinimum)
	if !found {
		return 0, 0, 0, false
	}
	binMinimum, found = nextMinimum(derivative, binMaximum)
	if !found {
		return 0, 0, 0, false
	}

	maxX := xRebinned[binMaximum]
	minX := xRebinned[binMinimum]
	return (maxX+minX)/2 + bias, maxX + bias, minX + bias, true
}
