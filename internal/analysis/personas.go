package analysis

import (
	"math"

	"github.com/tradeforge/insight-mining-service/internal/domain"
)

// ClassifyPersona assigns a row to exactly one segment, first match wins:
// premium, core, activationTargets, nonActivated, otherwise unclassified.
func ClassifyPersona(row domain.FeatureRow) string {
	subscriptions := row.Number(domain.FieldTotalSubscriptions)
	copies := row.Number(domain.FieldTotalCopies)
	deposits := row.Number(domain.FieldTotalDeposits)
	bankLinked := row.Number(domain.FieldLinkedBankAccount) > 0
	pdpViews := row.Number(domain.FieldRegularPDPViews) + row.Number(domain.FieldPremiumPDPViews)
	creatorViews := row.Number(domain.FieldRegularCreatorViews) + row.Number(domain.FieldPremiumCreatorViews)

	switch {
	case subscriptions >= 1:
		return domain.PersonaPremium
	case copies >= 1:
		return domain.PersonaCore
	case deposits == 0 && (creatorViews >= 3 || pdpViews >= 3):
		return domain.PersonaActivationTargets
	case !bankLinked && deposits == 0 && pdpViews < 3 && creatorViews < 3:
		return domain.PersonaNonActivated
	default:
		return domain.PersonaUnclassified
	}
}

// SummarizePersonas classifies every row and reports per-segment counts and
// percentage of total, plus frequency breakdowns over the given categorical
// fields (empty strings skipped). Unclassified rows count toward the total
// but carry no persona percentage.
func SummarizePersonas(rows []domain.FeatureRow, breakdownFields []string) domain.PersonaSummary {
	summary := domain.PersonaSummary{
		TotalUsers: len(rows),
		Segments:   map[string]domain.SegmentStat{},
		Breakdowns: map[string]map[string]int{},
	}
	counts := map[string]int{}
	for _, row := range rows {
		counts[ClassifyPersona(row)]++
		for _, field := range breakdownFields {
			value := row.Text(field)
			if value == "" {
				continue
			}
			if summary.Breakdowns[field] == nil {
				summary.Breakdowns[field] = map[string]int{}
			}
			summary.Breakdowns[field][value]++
		}
	}

	for _, segment := range []string{
		domain.PersonaPremium,
		domain.PersonaCore,
		domain.PersonaActivationTargets,
		domain.PersonaNonActivated,
	} {
		stat := domain.SegmentStat{Count: counts[segment]}
		if summary.TotalUsers > 0 {
			stat.Percentage = math.Round(float64(stat.Count)/float64(summary.TotalUsers)*1000) / 10
		}
		summary.Segments[segment] = stat
	}
	summary.Unclassified = counts[domain.PersonaUnclassified]
	return summary
}
