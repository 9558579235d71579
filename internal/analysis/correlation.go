package analysis

import (
	"log/slog"
	"math"
	"sort"
	"strconv"

	"github.com/tradeforge/insight-mining-service/internal/domain"
)

// Correlation returns the Pearson coefficient of two aligned sequences.
// Empty input, length mismatch, or a near-zero denominator return 0.
func Correlation(x, y []float64) float64 {
	n := len(x)
	if n == 0 || len(y) != n {
		return 0
	}
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	fn := float64(n)
	variance := (fn*sumX2 - sumX*sumX) * (fn*sumY2 - sumY*sumY)
	if variance <= 0 {
		return 0
	}
	denominator := math.Sqrt(variance)
	if denominator < 1e-10 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denominator
}

// TStatistic converts a correlation into a t value for n samples. Returns 0
// for tiny samples, negligible correlation, or |r| at the saturation edge.
func TStatistic(r float64, n int) float64 {
	if n <= 2 || math.Abs(r) <= 0.001 {
		return 0
	}
	if 1-r*r <= 0.001 {
		return 0
	}
	return r * math.Sqrt(float64(n-2)/(1-r*r))
}

// PredictiveStrength labels a (correlation, t-stat) pair. A |t| below 1.96
// fails the significance floor regardless of correlation magnitude; above it
// the label comes from a weighted blend of the two scores.
func PredictiveStrength(r, t float64) string {
	absT := math.Abs(t)
	if absT < 1.96 {
		return domain.StrengthVeryWeak
	}

	absR := math.Abs(r)
	var corrScore float64
	switch {
	case absR >= 0.50:
		corrScore = 6
	case absR >= 0.30:
		corrScore = 5
	case absR >= 0.20:
		corrScore = 4
	case absR >= 0.10:
		corrScore = 3
	case absR >= 0.05:
		corrScore = 2
	case absR >= 0.02:
		corrScore = 1
	}

	var tScore float64
	switch {
	case absT >= 3.29:
		tScore = 6
	case absT >= 2.58:
		tScore = 5
	case absT >= 1.96:
		tScore = 4
	}

	combined := 0.9*corrScore + 0.1*tScore
	switch {
	case combined >= 5.5:
		return domain.StrengthVeryStrong
	case combined >= 4.5:
		return domain.StrengthStrong
	case combined >= 3.5:
		return domain.StrengthModerateStrong
	case combined >= 2.5:
		return domain.StrengthModerate
	case combined >= 1.5:
		return domain.StrengthWeakModerate
	case combined >= 0.5:
		return domain.StrengthWeak
	default:
		return domain.StrengthVeryWeak
	}
}

type tippingBucket struct {
	value     float64
	count     int
	converted int
}

// TippingPoint finds the predictor value at which conversion rate jumps most
// sharply. Rows are bucketed by floor(value); buckets need at least 10 users
// and a conversion rate strictly above 10% to qualify. Nil when fewer than
// two buckets qualify or no forward increase exists.
func TippingPoint(x, y []float64) *string {
	if len(x) == 0 || len(x) != len(y) {
		return nil
	}
	byValue := map[float64]*tippingBucket{}
	for i := range x {
		key := math.Floor(x[i])
		bucket, ok := byValue[key]
		if !ok {
			bucket = &tippingBucket{value: key}
			byValue[key] = bucket
		}
		bucket.count++
		if y[i] > 0 {
			bucket.converted++
		}
	}

	qualifying := make([]*tippingBucket, 0, len(byValue))
	for _, bucket := range byValue {
		if bucket.count >= 10 && float64(bucket.converted)/float64(bucket.count) > 0.10 {
			qualifying = append(qualifying, bucket)
		}
	}
	if len(qualifying) < 2 {
		return nil
	}
	sort.Slice(qualifying, func(i, j int) bool { return qualifying[i].value < qualifying[j].value })

	bestIndex := -1
	bestJump := 0.0
	for i := 1; i < len(qualifying); i++ {
		previous := float64(qualifying[i-1].converted) / float64(qualifying[i-1].count)
		current := float64(qualifying[i].converted) / float64(qualifying[i].count)
		if current-previous > bestJump {
			bestJump = current - previous
			bestIndex = i
		}
	}
	if bestIndex < 0 {
		return nil
	}
	rounded := math.Round(qualifying[bestIndex].value*10) / 10
	formatted := strconv.FormatFloat(rounded, 'f', 1, 64)
	return &formatted
}

// AnalyzeDrivers measures each allow-listed predictor's association with the
// outcome field across the given rows, ordered by descending |correlation|.
// Predictors absent or non-numeric in the sample row are skipped with a
// warning; the batch never fails on a single variable.
func AnalyzeDrivers(rows []domain.FeatureRow, outcome string, variables []string, logger *slog.Logger) []domain.DriverResult {
	if logger == nil {
		logger = slog.Default()
	}
	results := []domain.DriverResult{}
	if len(rows) == 0 {
		return results
	}

	y := make([]float64, len(rows))
	for i, row := range rows {
		y[i] = row.Number(outcome)
	}

	sample := rows[0]
	for _, variable := range variables {
		if !sample.HasNumeric(variable) {
			logger.Warn("predictor missing or non-numeric, excluded from driver analysis",
				"variable", variable, "outcome", outcome)
			continue
		}
		x := make([]float64, len(rows))
		for i, row := range rows {
			x[i] = row.Number(variable)
		}
		r := Correlation(x, y)
		t := TStatistic(r, len(rows))
		results = append(results, domain.DriverResult{
			VariableName:           variable,
			CorrelationCoefficient: r,
			TStat:                  t,
			TippingPoint:           TippingPoint(x, y),
			PredictiveStrength:     PredictiveStrength(r, t),
			Outcome:                outcome,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].CorrelationCoefficient) > math.Abs(results[j].CorrelationCoefficient)
	})
	return results
}
