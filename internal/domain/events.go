package domain

const (
	CanonicalEventClassDomain        = "domain"
	CanonicalEventClassAnalyticsOnly = "analytics_only"
)

const (
	EventUserRegistered       = "user.registered"
	EventDepositCompleted     = "deposit.completed"
	EventCopyExecuted         = "copy.executed"
	EventSubscriptionStarted  = "subscription.started"
	EventSubscriptionCanceled = "subscription.canceled"
	EventBankLinked           = "bank.linked"
	EventPDPViewed            = "pdp.viewed"
	EventCreatorViewed        = "creator.viewed"
	EventPortfolioViewed      = "portfolio.viewed"
)

var canonicalEvents = map[string]struct{}{
	EventUserRegistered:       {},
	EventDepositCompleted:     {},
	EventCopyExecuted:         {},
	EventSubscriptionStarted:  {},
	EventSubscriptionCanceled: {},
	EventBankLinked:           {},
	EventPDPViewed:            {},
	EventCreatorViewed:        {},
	EventPortfolioViewed:      {},
}

func IsCanonicalAnalyticsInputEvent(eventType string) bool {
	_, ok := canonicalEvents[eventType]
	return ok
}

func CanonicalEventClass(eventType string) string {
	switch eventType {
	case EventPDPViewed, EventCreatorViewed, EventPortfolioViewed:
		return CanonicalEventClassAnalyticsOnly
	default:
		return CanonicalEventClassDomain
	}
}

func CanonicalPartitionKeyPath(eventType string) string {
	switch eventType {
	case EventDepositCompleted:
		return "data.deposit_id"
	case EventCopyExecuted:
		return "data.copy_id"
	case EventSubscriptionStarted, EventSubscriptionCanceled:
		return "data.subscription_id"
	case EventUserRegistered, EventBankLinked, EventPDPViewed, EventCreatorViewed, EventPortfolioViewed:
		return "data.user_id"
	default:
		return ""
	}
}
