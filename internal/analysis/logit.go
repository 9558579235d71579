package analysis

import "math"

const (
	logitMaxIterations   = 20
	logitConvergenceTol  = 1e-6
	logitSingularDetTol  = 1e-10
	logLikelihoodEpsilon = 1e-10
)

// LogitFit holds the fitted 2-parameter model logit(p) = beta0 + beta1*x.
type LogitFit struct {
	Beta0         float64
	Beta1         float64
	LogLikelihood float64
	Iterations    int
}

// FitUnivariateLogit fits y ~ x by Newton-Raphson. Iterates up to 20 times,
// stopping early when both parameter updates drop below 1e-6 or the Hessian
// determinant is near-singular. A Hessian singular at iteration 0 (zero
// variance in x) leaves beta0 = beta1 = 0; the degenerate fit is returned
// as-is so AIC ranking can deprioritize it.
func FitUnivariateLogit(x, y []float64) LogitFit {
	fit := LogitFit{}
	n := len(x)
	if n == 0 || len(y) != n {
		return fit
	}

	for iter := 0; iter < logitMaxIterations; iter++ {
		var grad0, grad1 float64
		var h00, h01, h11 float64
		for i := 0; i < n; i++ {
			p := sigmoid(fit.Beta0 + fit.Beta1*x[i])
			residual := y[i] - p
			weight := p * (1 - p)
			grad0 += residual
			grad1 += x[i] * residual
			h00 += weight
			h01 += weight * x[i]
			h11 += weight * x[i] * x[i]
		}

		det := h00*h11 - h01*h01
		if math.Abs(det) < logitSingularDetTol {
			break
		}
		delta0 := (h11*grad0 - h01*grad1) / det
		delta1 := (h00*grad1 - h01*grad0) / det
		fit.Beta0 += delta0
		fit.Beta1 += delta1
		fit.Iterations = iter + 1
		if math.Abs(delta0) < logitConvergenceTol && math.Abs(delta1) < logitConvergenceTol {
			break
		}
	}

	for i := 0; i < n; i++ {
		p := sigmoid(fit.Beta0 + fit.Beta1*x[i])
		fit.LogLikelihood += y[i]*math.Log(p+logLikelihoodEpsilon) +
			(1-y[i])*math.Log(1-p+logLikelihoodEpsilon)
	}
	return fit
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
