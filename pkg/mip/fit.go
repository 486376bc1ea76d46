package mip

import (
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// gaussian evaluates amplitude * GaussianPDF(x; mean, width). The width
// enters through its magnitude so the minimizer can wander through
// negative values without breaking the model.
func gaussian(x, amplitude, mean, width float64) float64 {
	if width == 0 {
		return 0
	}
	normal := distuv.Normal{Mu: mean, Sigma: math.Abs(width)}
	return amplitude * normal.Prob(x)
}

// FitGaussian fits y = amplitude * pdf(x; mean, width) to the (x, y)
// points by nonlinear least squares (Nelder-Mead on the summed squared
// residuals), starting from p0 = (amplitude, mean, width). It returns
// the fitted parameters and the residual sum over the points.
//
// Nelder-Mead scales its initial simplex from p0, so the amplitude seed
// must be of the order of the data (roughly peak occurrence times
// width*sqrt(2*pi)); seeding it orders of magnitude low can collapse
// the fit onto a near-zero width. Callers fitting a located peak window
// must validate the fitted mean against the window.
func FitGaussian(x, y []float64, p0 [3]float64) ([3]float64, float64, error) {
	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			var sum float64
			for i := range x {
				r := y[i] - gaussian(x[i], p[0], p[1], p[2])
				sum += r * r
			}
			return sum
		},
	}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 500},
	}
	result, err := optimize.Minimize(problem, p0[:], settings, &optimize.NelderMead{})
	if err != nil {
		return p0, 0, err
	}

	var params [3]float64
	copy(params[:], result.X)

	var residual float64
	for i := range x {
		residual += y[i] - gaussian(x[i], params[0], params[1], params[2])
	}
	return params, residual, nil
}
