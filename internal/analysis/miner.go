package analysis

import (
	"math"
	"sort"

	"github.com/tradeforge/insight-mining-service/internal/domain"
)

// DefaultMaxCandidates caps the exposure candidate pool. C(n,3) grows fast:
// 200 candidates is already ~1.3M combinations.
const DefaultMaxCandidates = 200

const logitParameterCount = 2

// MineExposurePatterns evaluates every unordered 3-combination of the
// candidate exposure values against the binary outcome carried by the
// records. Combinations are enumerated by index, never materialized as a
// list. Only combinations with at least one fully-exposed user and at least
// one conversion inside that group survive; survivors are ranked by
// ascending AIC with ties kept in enumeration order.
func MineExposurePatterns(records []domain.UserExposureRecord, candidates []string, maxCandidates int) []domain.CombinationResult {
	results := []domain.CombinationResult{}
	if len(records) == 0 || len(candidates) < 3 {
		return results
	}
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	y := make([]float64, len(records))
	totalConverted := 0
	for i, record := range records {
		if record.Converted {
			y[i] = 1
			totalConverted++
		}
	}
	overallRate := float64(totalConverted) / float64(len(records))

	x := make([]float64, len(records))
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			for k := j + 1; k < len(candidates); k++ {
				a, b, c := candidates[i], candidates[j], candidates[k]

				exposed := 0
				convertedInGroup := 0
				totalConversions := 0.0
				for idx, record := range records {
					if record.ExposedTo(a) && record.ExposedTo(b) && record.ExposedTo(c) {
						x[idx] = 1
						exposed++
						if record.Converted {
							convertedInGroup++
							totalConversions += record.OutcomeMagnitude
						}
					} else {
						x[idx] = 0
					}
				}
				if exposed == 0 || convertedInGroup == 0 {
					continue
				}

				fit := FitUnivariateLogit(x, y)
				groupRate := float64(convertedInGroup) / float64(exposed)
				lift := 0.0
				if overallRate > 0 {
					lift = groupRate / overallRate
				}
				recall := 0.0
				if totalConverted > 0 {
					recall = float64(convertedInGroup) / float64(totalConverted)
				}

				results = append(results, domain.CombinationResult{
					Combination:           [3]string{a, b, c},
					LogLikelihood:         fit.LogLikelihood,
					AIC:                   2*logitParameterCount - 2*fit.LogLikelihood,
					OddsRatio:             math.Exp(fit.Beta1),
					Precision:             groupRate,
					Recall:                recall,
					Lift:                  lift,
					UsersWithExposure:     exposed,
					ConversionRateInGroup: groupRate,
					OverallConversionRate: overallRate,
					TotalConversions:      totalConversions,
				})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].AIC < results[j].AIC })
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
