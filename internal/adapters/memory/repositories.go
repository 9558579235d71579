package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tradeforge/insight-mining-service/internal/domain"
	"github.com/tradeforge/insight-mining-service/internal/ports"
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

func NewRepositories() *Repositories {
	return &Repositories{
		Features: &FeatureStore{
			rows:       map[string]map[string]domain.FieldValue{},
			fieldOrder: []string{},
			fieldSeen:  map[string]struct{}{},
		},
		Exposures: &ExposureStore{
			byUser:         map[string]*exposureRecord{},
			usersByValue:   map[string]map[string]struct{}{},
			valueDiscovery: []string{},
		},
		Drivers:      &DriverResultSink{byOutcome: map[string][]domain.DriverResult{}},
		Combinations: &CombinationResultSink{byOutcome: map[string][]domain.CombinationResult{}},
		SyncRuns:     &SyncRunRepository{runs: map[string]domain.SyncRun{}},
		Idempotency:  &IdempotencyRepository{records: map[string]ports.IdempotencyRecord{}},
		EventDedup:   &EventDedupRepository{records: map[string]dedupRecord{}},
	}
}

type FeatureStore struct {
	mu         sync.RWMutex
	rows       map[string]map[string]domain.FieldValue
	fieldOrder []string
	fieldSeen  map[string]struct{}
}

func (s *FeatureStore) trackField(field string) {
	if _, ok := s.fieldSeen[field]; !ok {
		s.fieldSeen[field] = struct{}{}
		s.fieldOrder = append(s.fieldOrder, field)
	}
}

func (s *FeatureStore) row(userID string) map[string]domain.FieldValue {
	row, ok := s.rows[userID]
	if !ok {
		row = map[string]domain.FieldValue{}
		s.rows[userID] = row
	}
	return row
}

func (s *FeatureStore) UpsertNumeric(_ context.Context, userID, field string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackField(field)
	row := s.row(userID)
	current := row[field]
	row[field] = domain.NumberField(current.Number + delta)
	return nil
}

func (s *FeatureStore) SetNumeric(_ context.Context, userID, field string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackField(field)
	s.row(userID)[field] = domain.NumberField(value)
	return nil
}

func (s *FeatureStore) SetText(_ context.Context, userID, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackField(field)
	s.row(userID)[field] = domain.TextField(value)
	return nil
}

// ListFeatureRows materializes one snapshot per user. Every row carries the
// full field-name set; fields a user never touched default to numeric zero.
func (s *FeatureStore) ListFeatureRows(_ context.Context) ([]domain.FeatureRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.FeatureRow, 0, len(s.rows))
	for userID, stored := range s.rows {
		fields := make(map[string]domain.FieldValue, len(s.fieldOrder))
		for _, field := range s.fieldOrder {
			if value, ok := stored[field]; ok {
				fields[field] = value
			} else {
				fields[field] = domain.NumberField(0)
			}
		}
		out = append(out, domain.FeatureRow{UserID: userID, Fields: fields})
	}
	return out, nil
}

type exposureRecord struct {
	exposures map[string]struct{}
	converted bool
	magnitude float64
}

type ExposureStore struct {
	mu             sync.RWMutex
	byUser         map[string]*exposureRecord
	usersByValue   map[string]map[string]struct{}
	valueDiscovery []string
}

func (s *ExposureStore) record(userID string) *exposureRecord {
	record, ok := s.byUser[userID]
	if !ok {
		record = &exposureRecord{exposures: map[string]struct{}{}}
		s.byUser[userID] = record
	}
	return record
}

func (s *ExposureStore) RecordExposure(_ context.Context, userID, value string) error {
	if value == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(userID).exposures[value] = struct{}{}
	users, ok := s.usersByValue[value]
	if !ok {
		users = map[string]struct{}{}
		s.usersByValue[value] = users
		s.valueDiscovery = append(s.valueDiscovery, value)
	}
	users[userID] = struct{}{}
	return nil
}

func (s *ExposureStore) RecordConversion(_ context.Context, userID string, magnitude float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.record(userID)
	record.converted = true
	record.magnitude += magnitude
	return nil
}

func (s *ExposureStore) ListUserExposures(_ context.Context) ([]domain.UserExposureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.UserExposureRecord, 0, len(s.byUser))
	for userID, record := range s.byUser {
		exposures := make(map[string]struct{}, len(record.exposures))
		for value := range record.exposures {
			exposures[value] = struct{}{}
		}
		out = append(out, domain.UserExposureRecord{
			UserID:           userID,
			Exposures:        exposures,
			Converted:        record.converted,
			OutcomeMagnitude: record.magnitude,
		})
	}
	return out, nil
}

func (s *ExposureStore) ListCandidateExposures(_ context.Context, minUsers, maxValues int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []string{}
	for _, value := range s.valueDiscovery {
		if len(s.usersByValue[value]) < minUsers {
			continue
		}
		out = append(out, value)
		if maxValues > 0 && len(out) >= maxValues {
			break
		}
	}
	return out, nil
}

type DriverResultSink struct {
	mu        sync.RWMutex
	byOutcome map[string][]domain.DriverResult
}

func (s *DriverResultSink) ReplaceForOutcome(_ context.Context, outcome string, rows []domain.DriverResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byOutcome[outcome] = append([]domain.DriverResult{}, rows...)
	return nil
}

func (s *DriverResultSink) ListByOutcome(_ context.Context, outcome string) ([]domain.DriverResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DriverResult{}, s.byOutcome[outcome]...), nil
}

type CombinationResultSink struct {
	mu        sync.RWMutex
	byOutcome map[string][]domain.CombinationResult
}

func (s *CombinationResultSink) ReplaceForOutcome(_ context.Context, outcome string, rows []domain.CombinationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byOutcome[outcome] = append([]domain.CombinationResult{}, rows...)
	return nil
}

func (s *CombinationResultSink) ListByOutcome(_ context.Context, outcome string) ([]domain.CombinationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CombinationResult{}, s.byOutcome[outcome]...), nil
}

type SyncRunRepository struct {
	mu   sync.RWMutex
	runs map[string]domain.SyncRun
}

func (r *SyncRunRepository) Create(_ context.Context, run domain.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.RunID] = run
	return nil
}

func (r *SyncRunRepository) Update(_ context.Context, run domain.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.RunID]; !ok {
		return domain.ErrNotFound
	}
	r.runs[run.RunID] = run
	return nil
}

func (r *SyncRunRepository) GetByID(_ context.Context, runID string) (domain.SyncRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[runID]
	if !ok {
		return domain.SyncRun{}, domain.ErrNotFound
	}
	return run, nil
}

type IdempotencyRepository struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
}

func (r *IdempotencyRepository) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[key]
	if !ok || now.After(record.ExpiresAt) {
		return nil, nil
	}
	if record.ResponseBody == nil {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

func (r *IdempotencyRepository) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[key] = ports.IdempotencyRecord{Key: key, RequestHash: requestHash, ExpiresAt: expiresAt}
	return nil
}

func (r *IdempotencyRepository) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.records[key]
	record.Key = key
	record.ResponseCode = responseCode
	record.ResponseBody = responseBody
	r.records[key] = record
	return nil
}

type dedupRecord struct {
	eventType string
	expiresAt time.Time
}

type EventDedupRepository struct {
	mu      sync.Mutex
	records map[string]dedupRecord
}

func (r *EventDedupRepository) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[eventID]
	if !ok {
		return false, nil
	}
	return now.Before(record.expiresAt), nil
}

func (r *EventDedupRepository) MarkProcessed(_ context.Context, eventID, eventType string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[eventID] = dedupRecord{eventType: eventType, expiresAt: expiresAt}
	return nil
}
