package analysis

import (
	"math"
	"testing"
)

func TestFitUnivariateLogitRecoversSignal(t *testing.T) {
	t.Parallel()

	x := make([]float64, 100)
	y := make([]float64, 100)
	for i := 0; i < 100; i++ {
		if i < 50 {
			x[i] = 1
			if i < 40 {
				y[i] = 1
			}
		} else if i < 60 {
			y[i] = 1
		}
	}

	fit := FitUnivariateLogit(x, y)
	if fit.Beta1 <= 0 {
		t.Fatalf("expected positive slope for positive association, got %f", fit.Beta1)
	}
	if fit.LogLikelihood >= 0 {
		t.Fatalf("log-likelihood must be negative, got %f", fit.LogLikelihood)
	}
	if fit.Iterations == 0 {
		t.Fatal("expected at least one Newton-Raphson iteration")
	}
}

func TestFitUnivariateLogitPerfectSeparation(t *testing.T) {
	t.Parallel()

	x := make([]float64, 40)
	y := make([]float64, 40)
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			x[i] = 1
			y[i] = 1
		}
	}

	fit := FitUnivariateLogit(x, y)
	if math.IsNaN(fit.Beta1) || math.IsInf(fit.Beta1, 0) {
		t.Fatalf("separated data must saturate, not blow up: beta1=%f", fit.Beta1)
	}
	aic := 2*2 - 2*fit.LogLikelihood
	if math.IsNaN(aic) || math.IsInf(aic, 0) {
		t.Fatalf("AIC must stay numeric, got %f", aic)
	}
}

func TestFitUnivariateLogitZeroVariance(t *testing.T) {
	t.Parallel()

	x := make([]float64, 20)
	y := make([]float64, 20)
	for i := 0; i < 10; i++ {
		y[i] = 1
	}

	// Singular Hessian at iteration 0 leaves the degenerate fit untouched.
	fit := FitUnivariateLogit(x, y)
	if fit.Beta0 != 0 || fit.Beta1 != 0 {
		t.Fatalf("expected zero parameters, got beta0=%f beta1=%f", fit.Beta0, fit.Beta1)
	}
	if fit.Iterations != 0 {
		t.Fatalf("expected no completed iterations, got %d", fit.Iterations)
	}
	if odds := math.Exp(fit.Beta1); odds != 1 {
		t.Fatalf("degenerate fit should give odds ratio 1, got %f", odds)
	}
	if fit.LogLikelihood >= 0 {
		t.Fatalf("log-likelihood must still be computed, got %f", fit.LogLikelihood)
	}
}
