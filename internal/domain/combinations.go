package domain

import "time"

// CombinationResult is the fitted model summary for one unordered
// 3-combination of exposure values. Ranked by ascending AIC, rank 1 best.
type CombinationResult struct {
	Combination           [3]string `json:"combination"`
	Rank                  int       `json:"rank"`
	LogLikelihood         float64   `json:"log_likelihood"`
	AIC                   float64   `json:"aic"`
	OddsRatio             float64   `json:"odds_ratio"`
	Precision             float64   `json:"precision"`
	Recall                float64   `json:"recall"`
	Lift                  float64   `json:"lift"`
	UsersWithExposure     int       `json:"users_with_exposure"`
	ConversionRateInGroup float64   `json:"conversion_rate_in_group"`
	OverallConversionRate float64   `json:"overall_conversion_rate"`
	TotalConversions      float64   `json:"total_conversions"`
	Outcome               string    `json:"outcome"`
	RunID                 string    `json:"run_id"`
	ComputedAt            time.Time `json:"computed_at"`
}
