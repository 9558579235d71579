package analysis

import (
	"testing"

	"github.com/tradeforge/insight-mining-service/internal/domain"
)

func featureRow(userID string, fields map[string]float64, text map[string]string) domain.FeatureRow {
	row := domain.FeatureRow{UserID: userID, Fields: map[string]domain.FieldValue{}}
	for name, value := range fields {
		row.Fields[name] = domain.NumberField(value)
	}
	for name, value := range text {
		row.Fields[name] = domain.TextField(value)
	}
	return row
}

func TestClassifyPersonaSubscriptionTakesPriority(t *testing.T) {
	t.Parallel()

	row := featureRow("u1", map[string]float64{
		domain.FieldTotalSubscriptions: 2,
		domain.FieldTotalCopies:        5,
	}, nil)
	if got := ClassifyPersona(row); got != domain.PersonaPremium {
		t.Fatalf("expected premium over core, got %q", got)
	}
}

func TestClassifyPersonaSegments(t *testing.T) {
	t.Parallel()

	core := featureRow("u2", map[string]float64{domain.FieldTotalCopies: 1}, nil)
	if got := ClassifyPersona(core); got != domain.PersonaCore {
		t.Fatalf("expected core, got %q", got)
	}

	activation := featureRow("u3", map[string]float64{
		domain.FieldTotalDeposits:     0,
		domain.FieldRegularPDPViews:   2,
		domain.FieldPremiumPDPViews:   2,
		domain.FieldLinkedBankAccount: 1,
	}, nil)
	if got := ClassifyPersona(activation); got != domain.PersonaActivationTargets {
		t.Fatalf("expected activationTargets, got %q", got)
	}

	dormant := featureRow("u4", map[string]float64{
		domain.FieldTotalDeposits:     0,
		domain.FieldLinkedBankAccount: 0,
	}, nil)
	if got := ClassifyPersona(dormant); got != domain.PersonaNonActivated {
		t.Fatalf("expected nonActivated, got %q", got)
	}

	// Deposited but never copied or subscribed: outside every named segment.
	funded := featureRow("u5", map[string]float64{
		domain.FieldTotalDeposits:     500,
		domain.FieldLinkedBankAccount: 1,
	}, nil)
	if got := ClassifyPersona(funded); got != domain.PersonaUnclassified {
		t.Fatalf("expected unclassified, got %q", got)
	}
}

func TestSummarizePersonas(t *testing.T) {
	t.Parallel()

	rows := []domain.FeatureRow{
		featureRow("u1", map[string]float64{domain.FieldTotalSubscriptions: 1}, map[string]string{domain.FieldIncomeBracket: "100k-250k"}),
		featureRow("u2", map[string]float64{domain.FieldTotalCopies: 3}, map[string]string{domain.FieldIncomeBracket: "100k-250k"}),
		featureRow("u3", map[string]float64{domain.FieldTotalDeposits: 0, domain.FieldRegularCreatorViews: 4}, map[string]string{domain.FieldIncomeBracket: "<50k"}),
		featureRow("u4", map[string]float64{domain.FieldTotalDeposits: 900, domain.FieldLinkedBankAccount: 1}, nil),
	}

	summary := SummarizePersonas(rows, []string{domain.FieldIncomeBracket, domain.FieldNetWorthBracket})
	if summary.TotalUsers != 4 {
		t.Fatalf("expected 4 users, got %d", summary.TotalUsers)
	}
	if summary.Segments[domain.PersonaPremium].Count != 1 {
		t.Fatalf("expected 1 premium, got %d", summary.Segments[domain.PersonaPremium].Count)
	}
	if summary.Segments[domain.PersonaPremium].Percentage != 25 {
		t.Fatalf("expected 25%%, got %f", summary.Segments[domain.PersonaPremium].Percentage)
	}
	if summary.Unclassified != 1 {
		t.Fatalf("expected 1 unclassified, got %d", summary.Unclassified)
	}
	if summary.Breakdowns[domain.FieldIncomeBracket]["100k-250k"] != 2 {
		t.Fatalf("unexpected income breakdown: %v", summary.Breakdowns[domain.FieldIncomeBracket])
	}
	if _, ok := summary.Breakdowns[domain.FieldNetWorthBracket]; ok {
		t.Fatal("empty categorical field must not appear in breakdowns")
	}
}
