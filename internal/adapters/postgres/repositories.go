package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/tradeforge/insight-mining-service/internal/domain"
	"github.com/tradeforge/insight-mining-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Features     *FeatureStore
	Exposures    *ExposureStore
	Drivers      *DriverResultSink
	Combinations *CombinationResultSink
	SyncRuns     *SyncRunRepository
	Idempotency  *IdempotencyRepository
	EventDedup   *EventDedupRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Features:     &FeatureStore{db: db},
		Exposures:    &ExposureStore{db: db},
		Drivers:      &DriverResultSink{db: db},
		Combinations: &CombinationResultSink{db: db},
		SyncRuns:     &SyncRunRepository{db: db},
		Idempotency:  &IdempotencyRepository{db: db},
		EventDedup:   &EventDedupRepository{db: db},
	}
}

type FeatureStore struct {
	db *gorm.DB
}

func (s *FeatureStore) UpsertNumeric(ctx context.Context, userID, field string, delta float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec featureFieldModel
		err := tx.Where("user_id = ? AND field = ?", userID, field).Take(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&featureFieldModel{
				UserID:       userID,
				Field:        field,
				NumericValue: delta,
				IsNumeric:    true,
				UpdatedAt:    time.Now().UTC(),
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&featureFieldModel{}).
			Where("user_id = ? AND field = ?", userID, field).
			Updates(map[string]any{
				"numeric_value": gorm.Expr("numeric_value + ?", delta),
				"is_numeric":    true,
				"updated_at":    time.Now().UTC(),
			}).Error
	})
}

func (s *FeatureStore) SetNumeric(ctx context.Context, userID, field string, value float64) error {
	return s.setField(ctx, featureFieldModel{
		UserID:       userID,
		Field:        field,
		NumericValue: value,
		IsNumeric:    true,
		UpdatedAt:    time.Now().UTC(),
	})
}

func (s *FeatureStore) SetText(ctx context.Context, userID, field, value string) error {
	return s.setField(ctx, featureFieldModel{
		UserID:    userID,
		Field:     field,
		TextValue: value,
		UpdatedAt: time.Now().UTC(),
	})
}

func (s *FeatureStore) setField(ctx context.Context, rec featureFieldModel) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&featureFieldModel{}).
			Where("user_id = ? AND field = ?", rec.UserID, rec.Field).
			Updates(map[string]any{
				"numeric_value": rec.NumericValue,
				"text_value":    rec.TextValue,
				"is_numeric":    rec.IsNumeric,
				"updated_at":    rec.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.Create(&rec).Error
		}
		return nil
	})
}

// ListFeatureRows materializes the run snapshot. Every returned row exposes
// the union of field names seen across all users; untouched numeric fields
// default to zero so the analyzers never see missing values.
func (s *FeatureStore) ListFeatureRows(ctx context.Context) ([]domain.FeatureRow, error) {
	var records []featureFieldModel
	if err := s.db.WithContext(ctx).Order("user_id, field").Find(&records).Error; err != nil {
		return nil, err
	}
	fieldOrder := []string{}
	fieldSeen := map[string]struct{}{}
	byUser := map[string]map[string]domain.FieldValue{}
	userOrder := []string{}
	for _, rec := range records {
		if _, ok := fieldSeen[rec.Field]; !ok {
			fieldSeen[rec.Field] = struct{}{}
			fieldOrder = append(fieldOrder, rec.Field)
		}
		row, ok := byUser[rec.UserID]
		if !ok {
			row = map[string]domain.FieldValue{}
			byUser[rec.UserID] = row
			userOrder = append(userOrder, rec.UserID)
		}
		if rec.IsNumeric {
			row[rec.Field] = domain.NumberField(rec.NumericValue)
		} else {
			row[rec.Field] = domain.TextField(rec.TextValue)
		}
	}

	out := make([]domain.FeatureRow, 0, len(byUser))
	for _, userID := range userOrder {
		fields := make(map[string]domain.FieldValue, len(fieldOrder))
		for _, field := range fieldOrder {
			if value, ok := byUser[userID][field]; ok {
				fields[field] = value
			} else {
				fields[field] = domain.NumberField(0)
			}
		}
		out = append(out, domain.FeatureRow{UserID: userID, Fields: fields})
	}
	return out, nil
}

type ExposureStore struct {
	db *gorm.DB
}

func (s *ExposureStore) RecordExposure(ctx context.Context, userID, value string) error {
	if value == "" {
		return nil
	}
	err := s.db.WithContext(ctx).Create(&exposureValueModel{
		UserID:    userID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (s *ExposureStore) RecordConversion(ctx context.Context, userID string, magnitude float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&conversionModel{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				"converted":  true,
				"magnitude":  gorm.Expr("magnitude + ?", magnitude),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.Create(&conversionModel{
				UserID:    userID,
				Converted: true,
				Magnitude: magnitude,
				UpdatedAt: time.Now().UTC(),
			}).Error
		}
		return nil
	})
}

func (s *ExposureStore) ListUserExposures(ctx context.Context) ([]domain.UserExposureRecord, error) {
	var exposures []exposureValueModel
	if err := s.db.WithContext(ctx).Order("id").Find(&exposures).Error; err != nil {
		return nil, err
	}
	var conversions []conversionModel
	if err := s.db.WithContext(ctx).Find(&conversions).Error; err != nil {
		return nil, err
	}

	converted := map[string]conversionModel{}
	for _, rec := range conversions {
		converted[rec.UserID] = rec
	}

	byUser := map[string]*domain.UserExposureRecord{}
	order := []string{}
	for _, rec := range exposures {
		record, ok := byUser[rec.UserID]
		if !ok {
			record = &domain.UserExposureRecord{UserID: rec.UserID, Exposures: map[string]struct{}{}}
			byUser[rec.UserID] = record
			order = append(order, rec.UserID)
		}
		record.Exposures[rec.Value] = struct{}{}
	}
	for userID, rec := range converted {
		record, ok := byUser[userID]
		if !ok {
			record = &domain.UserExposureRecord{UserID: userID, Exposures: map[string]struct{}{}}
			byUser[userID] = record
			order = append(order, userID)
		}
		record.Converted = rec.Converted
		record.OutcomeMagnitude = rec.Magnitude
	}

	out := make([]domain.UserExposureRecord, 0, len(order))
	for _, userID := range order {
		out = append(out, *byUser[userID])
	}
	return out, nil
}

func (s *ExposureStore) ListCandidateExposures(ctx context.Context, minUsers, maxValues int) ([]string, error) {
	values := []string{}
	err := s.db.WithContext(ctx).Raw(`
		SELECT value FROM user_exposure_values
		GROUP BY value
		HAVING COUNT(DISTINCT user_id) >= ?
		ORDER BY MIN(id)
		LIMIT ?`, minUsers, maxValues).Scan(&values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}

type DriverResultSink struct {
	db *gorm.DB
}

func (s *DriverResultSink) ReplaceForOutcome(ctx context.Context, outcome string, rows []domain.DriverResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("outcome = ?", outcome).Delete(&driverResultModel{}).Error; err != nil {
			return err
		}
		for _, row := range rows {
			rec := driverResultModel{
				Outcome:                outcome,
				VariableName:           row.VariableName,
				CorrelationCoefficient: row.CorrelationCoefficient,
				TStat:                  row.TStat,
				TippingPoint:           row.TippingPoint,
				PredictiveStrength:     row.PredictiveStrength,
				RunID:                  row.RunID,
				ComputedAt:             row.ComputedAt,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *DriverResultSink) ListByOutcome(ctx context.Context, outcome string) ([]domain.DriverResult, error) {
	var records []driverResultModel
	if err := s.db.WithContext(ctx).Where("outcome = ?", outcome).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DriverResult, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.DriverResult{
			VariableName:           rec.VariableName,
			CorrelationCoefficient: rec.CorrelationCoefficient,
			TStat:                  rec.TStat,
			TippingPoint:           rec.TippingPoint,
			PredictiveStrength:     rec.PredictiveStrength,
			Outcome:                rec.Outcome,
			RunID:                  rec.RunID,
			ComputedAt:             rec.ComputedAt,
		})
	}
	return out, nil
}

type CombinationResultSink struct {
	db *gorm.DB
}

func (s *CombinationResultSink) ReplaceForOutcome(ctx context.Context, outcome string, rows []domain.CombinationResult) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("outcome = ?", outcome).Delete(&combinationResultModel{}).Error; err != nil {
			return err
		}
		for _, row := range rows {
			rec := combinationResultModel{
				Outcome:               outcome,
				Exposure1:             row.Combination[0],
				Exposure2:             row.Combination[1],
				Exposure3:             row.Combination[2],
				Rank:                  row.Rank,
				LogLikelihood:         row.LogLikelihood,
				AIC:                   row.AIC,
				OddsRatio:             row.OddsRatio,
				Precision:             row.Precision,
				Recall:                row.Recall,
				Lift:                  row.Lift,
				UsersWithExposure:     row.UsersWithExposure,
				ConversionRateInGroup: row.ConversionRateInGroup,
				OverallConversionRate: row.OverallConversionRate,
				TotalConversions:      row.TotalConversions,
				RunID:                 row.RunID,
				ComputedAt:            row.ComputedAt,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *CombinationResultSink) ListByOutcome(ctx context.Context, outcome string) ([]domain.CombinationResult, error) {
	var records []combinationResultModel
	if err := s.db.WithContext(ctx).Where("outcome = ?", outcome).Order("rank").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CombinationResult, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.CombinationResult{
			Combination:           [3]string{rec.Exposure1, rec.Exposure2, rec.Exposure3},
			Rank:                  rec.Rank,
			LogLikelihood:         rec.LogLikelihood,
			AIC:                   rec.AIC,
			OddsRatio:             rec.OddsRatio,
			Precision:             rec.Precision,
			Recall:                rec.Recall,
			Lift:                  rec.Lift,
			UsersWithExposure:     rec.UsersWithExposure,
			ConversionRateInGroup: rec.ConversionRateInGroup,
			OverallConversionRate: rec.OverallConversionRate,
			TotalConversions:      rec.TotalConversions,
			Outcome:               rec.Outcome,
			RunID:                 rec.RunID,
			ComputedAt:            rec.ComputedAt,
		})
	}
	return out, nil
}

type SyncRunRepository struct {
	db *gorm.DB
}

func (r *SyncRunRepository) Create(ctx context.Context, run domain.SyncRun) error {
	return r.db.WithContext(ctx).Create(&syncRunModel{
		RunID:        run.RunID,
		AnalysisType: run.AnalysisType,
		Outcome:      run.Outcome,
		Status:       string(run.Status),
		RowsRead:     run.RowsRead,
		RowsWritten:  run.RowsWritten,
		Error:        run.Error,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	}).Error
}

func (r *SyncRunRepository) Update(ctx context.Context, run domain.SyncRun) error {
	res := r.db.WithContext(ctx).Model(&syncRunModel{}).
		Where("run_id = ?", run.RunID).
		Updates(map[string]any{
			"status":       string(run.Status),
			"rows_read":    run.RowsRead,
			"rows_written": run.RowsWritten,
			"error":        run.Error,
			"finished_at":  run.FinishedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SyncRunRepository) GetByID(ctx context.Context, runID string) (domain.SyncRun, error) {
	var rec syncRunModel
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SyncRun{}, domain.ErrNotFound
		}
		return domain.SyncRun{}, err
	}
	return domain.SyncRun{
		RunID:        rec.RunID,
		AnalysisType: rec.AnalysisType,
		Outcome:      rec.Outcome,
		Status:       domain.SyncRunStatus(rec.Status),
		RowsRead:     rec.RowsRead,
		RowsWritten:  rec.RowsWritten,
		Error:        rec.Error,
		StartedAt:    rec.StartedAt,
		FinishedAt:   rec.FinishedAt,
	}, nil
}

type IdempotencyRepository struct {
	db *gorm.DB
}

func (r *IdempotencyRepository) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	var rec idempotencyModel
	err := r.db.WithContext(ctx).Where("key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if now.After(rec.ExpiresAt) || rec.ResponseBody == nil {
		return nil, nil
	}
	record := ports.IdempotencyRecord{
		Key:          rec.Key,
		RequestHash:  rec.RequestHash,
		ResponseBody: rec.ResponseBody,
		ExpiresAt:    rec.ExpiresAt,
	}
	if rec.ResponseCode != nil {
		record.ResponseCode = *rec.ResponseCode
	}
	return &record, nil
}

func (r *IdempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	err := r.db.WithContext(ctx).Create(&idempotencyModel{
		Key:         key,
		RequestHash: requestHash,
		ExpiresAt:   expiresAt,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	return r.db.WithContext(ctx).Model(&idempotencyModel{}).
		Where("key = ?", key).
		Updates(map[string]any{
			"response_code": responseCode,
			"response_body": responseBody,
		}).Error
}

type EventDedupRepository struct {
	db *gorm.DB
}

func (r *EventDedupRepository) IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error) {
	var rec processedEventModel
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return now.Before(rec.ExpiresAt), nil
}

func (r *EventDedupRepository) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	err := r.db.WithContext(ctx).Create(&processedEventModel{
		EventID:   eventID,
		EventType: eventType,
		ExpiresAt: expiresAt,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}
