package unit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tradeforge/insight-mining-service/internal/adapters/memory"
	"github.com/tradeforge/insight-mining-service/internal/application"
	"github.com/tradeforge/insight-mining-service/internal/contracts"
	"github.com/tradeforge/insight-mining-service/internal/domain"
)

func newService() *application.Service {
	repos := memory.NewRepositories()
	return application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:         "Insight-Mining-Service",
			MinUsersPerExposure: 1,
			IdempotencyTTL:      7 * 24 * time.Hour,
			EventDedupTTL:       7 * 24 * time.Hour,
		},
		Features:     repos.Features,
		Exposures:    repos.Exposures,
		Drivers:      repos.Drivers,
		Combinations: repos.Combinations,
		SyncRuns:     repos.SyncRuns,
		Idempotency:  repos.Idempotency,
		EventDedup:   repos.EventDedup,
		Cache:        memory.NewCache(),
	})
}

func analyst(key string) application.Actor {
	return application.Actor{
		SubjectID:      "analyst-1",
		Role:           "analyst",
		RequestID:      "req-1",
		IdempotencyKey: key,
	}
}

func envelope(id, eventType, partitionKey string, data map[string]interface{}) contracts.EventEnvelope {
	blob, _ := json.Marshal(data)
	return contracts.EventEnvelope{
		EventID:          id,
		EventType:        eventType,
		OccurredAt:       time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC),
		PartitionKeyPath: domain.CanonicalPartitionKeyPath(eventType),
		PartitionKey:     partitionKey,
		SourceService:    "M39-Payments-Service",
		TraceID:          "trace-1",
		SchemaVersion:    "1.0",
		Data:             blob,
	}
}

func seedDeposit(t *testing.T, svc *application.Service, eventID, userID, depositID string, amount float64) {
	t.Helper()
	err := svc.HandleCanonicalEvent(context.Background(), envelope(eventID, domain.EventDepositCompleted, depositID, map[string]interface{}{
		"deposit_id":  depositID,
		"user_id":     userID,
		"amount":      amount,
		"occurred_at": "2026-02-26T00:00:00Z",
	}))
	if err != nil {
		t.Fatalf("seed deposit %s: %v", eventID, err)
	}
}

func TestRunDriverAnalysisIdempotentReplay(t *testing.T) {
	t.Parallel()

	svc := newService()
	seedDeposit(t, svc, "evt-d1", "user-1", "dep-1", 100)
	seedDeposit(t, svc, "evt-d2", "user-2", "dep-2", 50)

	actor := analyst("drivers:did_deposit:day-1")
	input := application.DriverAnalysisInput{Outcome: domain.OutcomeDeposited}
	first, err := svc.RunDriverAnalysis(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("first driver run: %v", err)
	}
	second, err := svc.RunDriverAnalysis(context.Background(), actor, input)
	if err != nil {
		t.Fatalf("second driver run: %v", err)
	}
	if first.RunID != second.RunID {
		t.Fatalf("expected replay to return run %s, got %s", first.RunID, second.RunID)
	}
}

func TestRunDriverAnalysisIdempotencyConflict(t *testing.T) {
	t.Parallel()

	svc := newService()
	actor := analyst("drivers:shared-key")
	if _, err := svc.RunDriverAnalysis(context.Background(), actor, application.DriverAnalysisInput{Outcome: domain.OutcomeDeposited}); err != nil {
		t.Fatalf("first driver run: %v", err)
	}
	_, err := svc.RunDriverAnalysis(context.Background(), actor, application.DriverAnalysisInput{Outcome: domain.OutcomeCopied})
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestRunDriverAnalysisForbiddenForViewer(t *testing.T) {
	t.Parallel()

	svc := newService()
	_, err := svc.RunDriverAnalysis(context.Background(), application.Actor{
		SubjectID:      "viewer-1",
		Role:           "viewer",
		IdempotencyKey: "drivers:viewer",
	}, application.DriverAnalysisInput{Outcome: domain.OutcomeDeposited})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRunDriverAnalysisRequiresIdempotencyKey(t *testing.T) {
	t.Parallel()

	svc := newService()
	_, err := svc.RunDriverAnalysis(context.Background(), application.Actor{
		SubjectID: "analyst-1",
		Role:      "analyst",
	}, application.DriverAnalysisInput{Outcome: domain.OutcomeDeposited})
	if !errors.Is(err, domain.ErrIdempotencyRequired) {
		t.Fatalf("expected ErrIdempotencyRequired, got %v", err)
	}
}

func TestHandleCanonicalEventDedup(t *testing.T) {
	t.Parallel()

	svc := newService()
	event := envelope("evt-dup", domain.EventDepositCompleted, "dep-1", map[string]interface{}{
		"deposit_id":  "dep-1",
		"user_id":     "user-1",
		"amount":      75.5,
		"occurred_at": "2026-02-26T00:00:00Z",
	})
	if err := svc.HandleCanonicalEvent(context.Background(), event); err != nil {
		t.Fatalf("first handle event: %v", err)
	}
	if err := svc.HandleCanonicalEvent(context.Background(), event); err != nil {
		t.Fatalf("duplicate handle should no-op, got: %v", err)
	}

	summary, err := svc.GetPersonaSummary(context.Background(), analyst(""))
	if err != nil {
		t.Fatalf("persona summary: %v", err)
	}
	if summary.TotalUsers != 1 {
		t.Fatalf("expected one user after duplicate delivery, got %d", summary.TotalUsers)
	}
}

func TestHandleCanonicalEventRejectsPartitionKeyMismatch(t *testing.T) {
	t.Parallel()

	svc := newService()
	event := envelope("evt-bad", domain.EventDepositCompleted, "dep-wrong", map[string]interface{}{
		"deposit_id":  "dep-1",
		"user_id":     "user-1",
		"amount":      10.0,
		"occurred_at": "2026-02-26T00:00:00Z",
	})
	if err := svc.HandleCanonicalEvent(context.Background(), event); !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope, got %v", err)
	}
}

func TestPatternMiningEndToEnd(t *testing.T) {
	t.Parallel()

	svc := newService()
	ctx := context.Background()

	// Two users browse the same three portfolios; only the first copies.
	for i, userID := range []string{"user-1", "user-2"} {
		for j, portfolio := range []string{"pf-alpha", "pf-beta", "pf-gamma"} {
			event := envelope(fmt.Sprintf("evt-view-%d-%d", i, j), domain.EventPortfolioViewed, userID, map[string]interface{}{
				"user_id":     userID,
				"item_id":     portfolio,
				"occurred_at": "2026-02-26T00:00:00Z",
			})
			if err := svc.HandleCanonicalEvent(ctx, event); err != nil {
				t.Fatalf("seed view: %v", err)
			}
		}
	}
	copyEvent := envelope("evt-copy-1", domain.EventCopyExecuted, "copy-1", map[string]interface{}{
		"copy_id":      "copy-1",
		"user_id":      "user-1",
		"portfolio_id": "pf-alpha",
		"amount":       250.0,
		"occurred_at":  "2026-02-26T00:00:00Z",
	})
	if err := svc.HandleCanonicalEvent(ctx, copyEvent); err != nil {
		t.Fatalf("seed copy: %v", err)
	}

	result, err := svc.RunPatternMining(ctx, analyst("patterns:did_copy:day-1"), application.PatternMiningInput{Outcome: domain.OutcomeCopied})
	if err != nil {
		t.Fatalf("run pattern mining: %v", err)
	}
	if result.Candidates != 3 {
		t.Fatalf("expected 3 candidate exposures, got %d", result.Candidates)
	}
	if len(result.Combinations) != 1 {
		t.Fatalf("expected a single combination, got %d", len(result.Combinations))
	}
	combo := result.Combinations[0]
	if combo.Rank != 1 {
		t.Fatalf("expected rank 1, got %d", combo.Rank)
	}
	if combo.UsersWithExposure != 2 {
		t.Fatalf("expected 2 exposed users, got %d", combo.UsersWithExposure)
	}
	if combo.ConversionRateInGroup != 0.5 {
		t.Fatalf("expected 0.5 in-group conversion rate, got %v", combo.ConversionRateInGroup)
	}

	run, err := svc.GetSyncRun(ctx, analyst(""), result.RunID)
	if err != nil {
		t.Fatalf("get sync run: %v", err)
	}
	if run.Status != domain.SyncRunStatusCompleted {
		t.Fatalf("expected completed run, got %s", run.Status)
	}

	listed, err := svc.GetPatternResults(ctx, analyst(""), domain.OutcomeCopied)
	if err != nil {
		t.Fatalf("get pattern results: %v", err)
	}
	if len(listed) != 1 || listed[0].RunID != result.RunID {
		t.Fatalf("expected persisted combination from run %s", result.RunID)
	}
}

func TestGetPersonaSummarySegments(t *testing.T) {
	t.Parallel()

	svc := newService()
	ctx := context.Background()

	subEvent := envelope("evt-sub-1", domain.EventSubscriptionStarted, "sub-1", map[string]interface{}{
		"subscription_id": "sub-1",
		"user_id":         "user-premium",
		"plan":            "pro",
		"occurred_at":     "2026-02-26T00:00:00Z",
	})
	if err := svc.HandleCanonicalEvent(ctx, subEvent); err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	seedDeposit(t, svc, "evt-d9", "user-depositor", "dep-9", 20)

	summary, err := svc.GetPersonaSummary(ctx, analyst(""))
	if err != nil {
		t.Fatalf("persona summary: %v", err)
	}
	if summary.TotalUsers != 2 {
		t.Fatalf("expected 2 users, got %d", summary.TotalUsers)
	}
	if summary.Segments[domain.PersonaPremium].Count != 1 {
		t.Fatalf("expected one premium user, got %+v", summary.Segments)
	}
}

func TestGetDriverResultsRejectsUnknownOutcome(t *testing.T) {
	t.Parallel()

	svc := newService()
	_, err := svc.GetDriverResults(context.Background(), analyst(""), "did_churn")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
