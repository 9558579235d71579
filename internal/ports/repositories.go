package ports

import (
	"context"
	"time"

	"github.com/tradeforge/insight-mining-service/internal/domain"
)

// FeatureStore materializes the per-user feature snapshot an analysis run
// reads. Writes come from the event ingestion adapter only.
type FeatureStore interface {
	UpsertNumeric(ctx context.Context, userID, field string, delta float64) error
	SetNumeric(ctx context.Context, userID, field string, value float64) error
	SetText(ctx context.Context, userID, field, value string) error
	ListFeatureRows(ctx context.Context) ([]domain.FeatureRow, error)
}

// ExposureStore tracks which exposure values each user encountered and
// whether the tracked outcome occurred for them.
type ExposureStore interface {
	RecordExposure(ctx context.Context, userID, value string) error
	RecordConversion(ctx context.Context, userID string, magnitude float64) error
	ListUserExposures(ctx context.Context) ([]domain.UserExposureRecord, error)
	// ListCandidateExposures returns exposure values with at least minUsers
	// distinct users, capped to maxValues, in discovery order.
	ListCandidateExposures(ctx context.Context, minUsers, maxValues int) ([]string, error)
}

// DriverResultSink persists ranked driver rows with delete-then-insert
// semantics per outcome.
type DriverResultSink interface {
	ReplaceForOutcome(ctx context.Context, outcome string, rows []domain.DriverResult) error
	ListByOutcome(ctx context.Context, outcome string) ([]domain.DriverResult, error)
}

type CombinationResultSink interface {
	ReplaceForOutcome(ctx context.Context, outcome string, rows []domain.CombinationResult) error
	ListByOutcome(ctx context.Context, outcome string) ([]domain.CombinationResult, error)
}

type SyncRunRepository interface {
	Create(ctx context.Context, run domain.SyncRun) error
	Update(ctx context.Context, run domain.SyncRun) error
	GetByID(ctx context.Context, runID string) (domain.SyncRun, error)
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}
