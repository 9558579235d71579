package domain

// FieldValue is one cell of a feature row: either a finite number or a
// categorical string. Missing or non-numeric fields coerce to zero so that
// downstream arithmetic never sees nulls.
type FieldValue struct {
	Number  float64
	Text    string
	Numeric bool
}

func NumberField(v float64) FieldValue {
	return FieldValue{Number: v, Numeric: true}
}

func TextField(v string) FieldValue {
	return FieldValue{Text: v}
}

// FeatureRow is a read-only per-user snapshot materialized once per analysis
// run. Every row in a run exposes the same field-name set.
type FeatureRow struct {
	UserID string                `json:"user_id"`
	Fields map[string]FieldValue `json:"fields"`
}

func (r FeatureRow) Number(name string) float64 {
	value, ok := r.Fields[name]
	if !ok || !value.Numeric {
		return 0
	}
	return value.Number
}

func (r FeatureRow) Text(name string) string {
	value, ok := r.Fields[name]
	if !ok {
		return ""
	}
	return value.Text
}

func (r FeatureRow) HasNumeric(name string) bool {
	value, ok := r.Fields[name]
	return ok && value.Numeric
}

// UserExposureRecord pairs one user's exposure set with the binary outcome
// under analysis. Built once per run and immutable during scoring.
type UserExposureRecord struct {
	UserID           string              `json:"user_id"`
	Exposures        map[string]struct{} `json:"-"`
	Converted        bool                `json:"converted"`
	OutcomeMagnitude float64             `json:"outcome_magnitude"`
}

func (u UserExposureRecord) ExposedTo(value string) bool {
	_, ok := u.Exposures[value]
	return ok
}

// Canonical feature-row field names populated by the event ingestion adapter.
const (
	FieldTotalSubscriptions  = "total_subscriptions"
	FieldTotalCopies         = "total_copies"
	FieldTotalDeposits       = "total_deposits"
	FieldLinkedBankAccount   = "linked_bank_account"
	FieldRegularPDPViews     = "regular_pdp_views"
	FieldPremiumPDPViews     = "premium_pdp_views"
	FieldRegularCreatorViews = "regular_creator_views"
	FieldPremiumCreatorViews = "premium_creator_views"
	FieldTotalSessions       = "total_sessions"
	FieldIncomeBracket       = "income_bracket"
	FieldNetWorthBracket     = "net_worth_bracket"
)

// Outcome field names an analysis run can target.
const (
	OutcomeDeposited  = "did_deposit"
	OutcomeCopied     = "did_copy"
	OutcomeSubscribed = "did_subscribe"
)
