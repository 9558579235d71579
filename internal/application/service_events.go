package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tradeforge/insight-mining-service/internal/contracts"
	"github.com/tradeforge/insight-mining-service/internal/domain"
)

// HandleCanonicalEvent folds one behavioral/billing event into the feature
// store and exposure records. Duplicate event ids are dropped silently.
func (s *Service) HandleCanonicalEvent(ctx context.Context, envelope contracts.EventEnvelope) error {
	if err := validateEnvelope(envelope); err != nil {
		return err
	}
	if !domain.IsCanonicalAnalyticsInputEvent(envelope.EventType) {
		return domain.ErrUnsupportedEventType
	}
	expectedClass := domain.CanonicalEventClass(envelope.EventType)
	if strings.TrimSpace(envelope.EventClass) != "" && envelope.EventClass != expectedClass {
		return domain.ErrUnsupportedEventClass
	}
	if err := validatePartitionKeyInvariant(envelope, domain.CanonicalPartitionKeyPath(envelope.EventType)); err != nil {
		return err
	}

	now := s.nowFn()
	duplicate, err := s.eventDedup.IsDuplicate(ctx, envelope.EventID, now)
	if err != nil {
		return err
	}
	if duplicate {
		return nil
	}

	if err := s.applyEventToFeatureStore(ctx, envelope); err != nil {
		return err
	}
	return s.eventDedup.MarkProcessed(ctx, envelope.EventID, envelope.EventType, now.Add(s.cfg.EventDedupTTL))
}

func (s *Service) applyEventToFeatureStore(ctx context.Context, envelope contracts.EventEnvelope) error {
	switch envelope.EventType {
	case domain.EventUserRegistered:
		var payload contracts.UserRegisteredPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode user payload", domain.ErrInvalidEnvelope)
		}
		if payload.IncomeBracket != "" {
			if err := s.features.SetText(ctx, payload.UserID, domain.FieldIncomeBracket, payload.IncomeBracket); err != nil {
				return err
			}
		}
		if payload.NetWorthBracket != "" {
			if err := s.features.SetText(ctx, payload.UserID, domain.FieldNetWorthBracket, payload.NetWorthBracket); err != nil {
				return err
			}
		}
		return s.features.SetNumeric(ctx, payload.UserID, domain.FieldTotalSessions, 0)
	case domain.EventDepositCompleted:
		var payload contracts.DepositCompletedPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode deposit payload", domain.ErrInvalidEnvelope)
		}
		if err := s.features.UpsertNumeric(ctx, payload.UserID, domain.FieldTotalDeposits, payload.Amount); err != nil {
			return err
		}
		return s.features.SetNumeric(ctx, payload.UserID, domain.OutcomeDeposited, 1)
	case domain.EventCopyExecuted:
		var payload contracts.CopyExecutedPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode copy payload", domain.ErrInvalidEnvelope)
		}
		if err := s.features.UpsertNumeric(ctx, payload.UserID, domain.FieldTotalCopies, 1); err != nil {
			return err
		}
		if err := s.features.SetNumeric(ctx, payload.UserID, domain.OutcomeCopied, 1); err != nil {
			return err
		}
		return s.exposures.RecordConversion(ctx, payload.UserID, 1)
	case domain.EventSubscriptionStarted:
		var payload contracts.SubscriptionPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode subscription payload", domain.ErrInvalidEnvelope)
		}
		if err := s.features.UpsertNumeric(ctx, payload.UserID, domain.FieldTotalSubscriptions, 1); err != nil {
			return err
		}
		return s.features.SetNumeric(ctx, payload.UserID, domain.OutcomeSubscribed, 1)
	case domain.EventSubscriptionCanceled:
		var payload contracts.SubscriptionPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode subscription payload", domain.ErrInvalidEnvelope)
		}
		return s.features.UpsertNumeric(ctx, payload.UserID, domain.FieldTotalSubscriptions, -1)
	case domain.EventBankLinked:
		var payload contracts.BankLinkedPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode bank payload", domain.ErrInvalidEnvelope)
		}
		return s.features.SetNumeric(ctx, payload.UserID, domain.FieldLinkedBankAccount, 1)
	case domain.EventPDPViewed:
		var payload contracts.ViewPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode view payload", domain.ErrInvalidEnvelope)
		}
		field := domain.FieldRegularPDPViews
		if payload.Premium {
			field = domain.FieldPremiumPDPViews
		}
		return s.features.UpsertNumeric(ctx, payload.UserID, field, 1)
	case domain.EventCreatorViewed:
		var payload contracts.ViewPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode view payload", domain.ErrInvalidEnvelope)
		}
		field := domain.FieldRegularCreatorViews
		if payload.Premium {
			field = domain.FieldPremiumCreatorViews
		}
		return s.features.UpsertNumeric(ctx, payload.UserID, field, 1)
	case domain.EventPortfolioViewed:
		var payload contracts.ViewPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("%w: decode view payload", domain.ErrInvalidEnvelope)
		}
		return s.exposures.RecordExposure(ctx, payload.UserID, payload.ItemID)
	default:
		return domain.ErrUnsupportedEventType
	}
}

func validateEnvelope(event contracts.EventEnvelope) error {
	if strings.TrimSpace(event.EventID) == "" {
		return domain.ErrInvalidEnvelope
	}
	if strings.TrimSpace(event.EventType) == "" {
		return domain.ErrInvalidEnvelope
	}
	if event.OccurredAt.IsZero() {
		return domain.ErrInvalidEnvelope
	}
	if strings.TrimSpace(event.SourceService) == "" {
		return domain.ErrInvalidEnvelope
	}
	if strings.TrimSpace(event.SchemaVersion) == "" {
		return domain.ErrInvalidEnvelope
	}
	if len(event.Data) == 0 {
		return domain.ErrInvalidEnvelope
	}
	return nil
}

func validatePartitionKeyInvariant(event contracts.EventEnvelope, expectedPath string) error {
	if event.PartitionKeyPath != expectedPath || expectedPath == "" {
		return domain.ErrInvalidEnvelope
	}
	field := strings.TrimPrefix(event.PartitionKeyPath, "data.")
	var payload map[string]interface{}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return domain.ErrInvalidEnvelope
	}
	value, ok := payload[field]
	if !ok || fmt.Sprint(value) != event.PartitionKey {
		return domain.ErrInvalidEnvelope
	}
	return nil
}
