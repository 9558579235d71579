package contracts

import (
	"encoding/json"
	"time"
)

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	EventClass       string          `json:"event_class,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    string          `json:"schema_version"`
	Data             json.RawMessage `json:"data"`
}

type UserRegisteredPayload struct {
	UserID          string `json:"user_id"`
	IncomeBracket   string `json:"income_bracket,omitempty"`
	NetWorthBracket string `json:"net_worth_bracket,omitempty"`
	CreatedAt       string `json:"created_at"`
}

type DepositCompletedPayload struct {
	DepositID  string  `json:"deposit_id"`
	UserID     string  `json:"user_id"`
	Amount     float64 `json:"amount"`
	OccurredAt string  `json:"occurred_at"`
}

type CopyExecutedPayload struct {
	CopyID      string  `json:"copy_id"`
	UserID      string  `json:"user_id"`
	PortfolioID string  `json:"portfolio_id"`
	Amount      float64 `json:"amount"`
	OccurredAt  string  `json:"occurred_at"`
}

type SubscriptionPayload struct {
	SubscriptionID string `json:"subscription_id"`
	UserID         string `json:"user_id"`
	Plan           string `json:"plan,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

type BankLinkedPayload struct {
	UserID     string `json:"user_id"`
	Provider   string `json:"provider,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

type ViewPayload struct {
	UserID     string `json:"user_id"`
	ItemID     string `json:"item_id"`
	Premium    bool   `json:"premium,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

type DLQRecord struct {
	OriginalEvent EventEnvelope `json:"original_event"`
	ErrorSummary  string        `json:"error_summary"`
	RetryCount    int           `json:"retry_count"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastErrorAt   time.Time     `json:"last_error_at"`
	SourceTopic   string        `json:"source_topic,omitempty"`
	TraceID       string        `json:"trace_id,omitempty"`
}
