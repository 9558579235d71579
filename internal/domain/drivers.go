package domain

import "time"

// Predictive-strength vocabulary, ordered weakest to strongest.
const (
	StrengthVeryWeak       = "Very Weak"
	StrengthWeak           = "Weak"
	StrengthWeakModerate   = "Weak - Moderate"
	StrengthModerate       = "Moderate"
	StrengthModerateStrong = "Moderate - Strong"
	StrengthStrong         = "Strong"
	StrengthVeryStrong     = "Very Strong"
)

// DriverResult is one predictor variable's measured association with an
// outcome. A run's results fully supersede the previous run's for the same
// outcome (delete-then-insert at the sink).
type DriverResult struct {
	VariableName           string    `json:"variable_name"`
	CorrelationCoefficient float64   `json:"correlation_coefficient"`
	TStat                  float64   `json:"t_stat"`
	TippingPoint           *string   `json:"tipping_point"`
	PredictiveStrength     string    `json:"predictive_strength"`
	Outcome                string    `json:"outcome"`
	RunID                  string    `json:"run_id"`
	ComputedAt             time.Time `json:"computed_at"`
}
