package unit

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	eventsadapter "github.com/tradeforge/insight-mining-service/internal/adapters/events"
	"github.com/tradeforge/insight-mining-service/internal/contracts"
	"github.com/tradeforge/insight-mining-service/internal/domain"
)

func TestWorkerRoutesFailedDomainEventsToDLQ(t *testing.T) {
	t.Parallel()

	svc := newService()
	consumer := eventsadapter.NewMemoryConsumer()
	dlq := eventsadapter.NewLoggingDLQPublisher()

	good := envelope("evt-ok", domain.EventDepositCompleted, "dep-1", map[string]interface{}{
		"deposit_id":  "dep-1",
		"user_id":     "user-1",
		"amount":      40.0,
		"occurred_at": "2026-02-26T00:00:00Z",
	})
	bad := envelope("evt-bad", domain.EventDepositCompleted, "dep-mismatch", map[string]interface{}{
		"deposit_id":  "dep-2",
		"user_id":     "user-2",
		"amount":      10.0,
		"occurred_at": "2026-02-26T00:00:00Z",
	})
	brokenView := envelope("evt-view-bad", domain.EventPDPViewed, "user-3", map[string]interface{}{
		"user_id": "user-3",
	})
	brokenView.Data = json.RawMessage(`{"user_id"`)
	consumer.Seed([]contracts.EventEnvelope{good, bad, brokenView})

	worker := eventsadapter.NewWorker(slog.Default(), consumer, dlq, svc, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("worker run: %v", err)
	}

	records := dlq.Records()
	if len(records) != 1 {
		t.Fatalf("expected one DLQ record, got %d", len(records))
	}
	if records[0].OriginalEvent.EventID != "evt-bad" {
		t.Fatalf("expected evt-bad in DLQ, got %s", records[0].OriginalEvent.EventID)
	}

	summary, err := svc.GetPersonaSummary(ctx, analyst(""))
	if err != nil {
		t.Fatalf("persona summary: %v", err)
	}
	if summary.TotalUsers != 1 {
		t.Fatalf("expected only the valid deposit applied, got %d users", summary.TotalUsers)
	}
}
