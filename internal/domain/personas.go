package domain

import "time"

// Persona segments, mutually exclusive, first-match priority in this order.
const (
	PersonaPremium           = "premium"
	PersonaCore              = "core"
	PersonaActivationTargets = "activationTargets"
	PersonaNonActivated      = "nonActivated"
	PersonaUnclassified      = "unclassified"
)

type SegmentStat struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type PersonaSummary struct {
	TotalUsers   int                       `json:"total_users"`
	Segments     map[string]SegmentStat    `json:"segments"`
	Unclassified int                       `json:"unclassified"`
	Breakdowns   map[string]map[string]int `json:"breakdowns"`
	GeneratedAt  time.Time                 `json:"generated_at"`
}
