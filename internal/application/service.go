package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/tradeforge/insight-mining-service/internal/analysis"
	"github.com/tradeforge/insight-mining-service/internal/domain"
)

func (s *Service) RunDriverAnalysis(ctx context.Context, actor Actor, input DriverAnalysisInput) (DriverAnalysisResult, error) {
	if err := requireAnalyst(actor); err != nil {
		return DriverAnalysisResult{}, err
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return DriverAnalysisResult{}, domain.ErrIdempotencyRequired
	}
	outcome := strings.TrimSpace(input.Outcome)
	if !validOutcome(outcome) {
		return DriverAnalysisResult{}, domain.ErrInvalidInput
	}
	variables := input.Variables
	if len(variables) == 0 {
		variables = s.cfg.DriverVariables[outcome]
	}
	if len(variables) == 0 {
		return DriverAnalysisResult{}, domain.ErrInvalidInput
	}

	var cached DriverAnalysisResult
	replayed, err := s.replayIdempotent(ctx, actor.IdempotencyKey, input, &cached)
	if err != nil {
		return DriverAnalysisResult{}, err
	}
	if replayed {
		return cached, nil
	}

	now := s.nowFn()
	run := domain.SyncRun{
		RunID:        uuid.NewString(),
		AnalysisType: domain.AnalysisTypeDrivers,
		Outcome:      outcome,
		Status:       domain.SyncRunStatusRunning,
		StartedAt:    now,
	}
	if err := s.syncRuns.Create(ctx, run); err != nil {
		return DriverAnalysisResult{}, err
	}

	rows, err := s.features.ListFeatureRows(ctx)
	if err != nil {
		return DriverAnalysisResult{}, s.failRun(ctx, run, err)
	}
	results := analysis.AnalyzeDrivers(rows, outcome, variables, s.logger)
	computedAt := s.nowFn()
	for i := range results {
		results[i].RunID = run.RunID
		results[i].ComputedAt = computedAt
	}
	if err := s.drivers.ReplaceForOutcome(ctx, outcome, results); err != nil {
		return DriverAnalysisResult{}, s.failRun(ctx, run, err)
	}
	if err := s.completeRun(ctx, run, len(rows), len(results)); err != nil {
		return DriverAnalysisResult{}, err
	}
	s.cacheResults(ctx, driverCacheKey(outcome), results)

	result := DriverAnalysisResult{RunID: run.RunID, Outcome: outcome, Drivers: results}
	if err := s.completeIdempotent(ctx, actor.IdempotencyKey, result); err != nil {
		return DriverAnalysisResult{}, err
	}
	return result, nil
}

func (s *Service) GetDriverResults(ctx context.Context, actor Actor, outcome string) ([]domain.DriverResult, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return nil, domain.ErrUnauthorized
	}
	outcome = strings.TrimSpace(outcome)
	if !validOutcome(outcome) {
		return nil, domain.ErrInvalidInput
	}
	var cached []domain.DriverResult
	if s.readCache(ctx, driverCacheKey(outcome), &cached) {
		return cached, nil
	}
	return s.drivers.ListByOutcome(ctx, outcome)
}

func (s *Service) RunPatternMining(ctx context.Context, actor Actor, input PatternMiningInput) (PatternMiningResult, error) {
	if err := requireAnalyst(actor); err != nil {
		return PatternMiningResult{}, err
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return PatternMiningResult{}, domain.ErrIdempotencyRequired
	}
	outcome := strings.TrimSpace(input.Outcome)
	if !validOutcome(outcome) {
		return PatternMiningResult{}, domain.ErrInvalidInput
	}
	minUsers := input.MinUsersPerExposure
	if minUsers <= 0 {
		minUsers = s.cfg.MinUsersPerExposure
	}
	maxCandidates := input.MaxCandidates
	if maxCandidates <= 0 || maxCandidates > s.cfg.MaxCandidateExposures {
		maxCandidates = s.cfg.MaxCandidateExposures
	}

	var cached PatternMiningResult
	replayed, err := s.replayIdempotent(ctx, actor.IdempotencyKey, input, &cached)
	if err != nil {
		return PatternMiningResult{}, err
	}
	if replayed {
		return cached, nil
	}

	run := domain.SyncRun{
		RunID:        uuid.NewString(),
		AnalysisType: domain.AnalysisTypePatterns,
		Outcome:      outcome,
		Status:       domain.SyncRunStatusRunning,
		StartedAt:    s.nowFn(),
	}
	if err := s.syncRuns.Create(ctx, run); err != nil {
		return PatternMiningResult{}, err
	}

	records, err := s.exposures.ListUserExposures(ctx)
	if err != nil {
		return PatternMiningResult{}, s.failRun(ctx, run, err)
	}
	candidates, err := s.exposures.ListCandidateExposures(ctx, minUsers, maxCandidates)
	if err != nil {
		return PatternMiningResult{}, s.failRun(ctx, run, err)
	}

	results := analysis.MineExposurePatterns(records, candidates, maxCandidates)
	computedAt := s.nowFn()
	for i := range results {
		results[i].Outcome = outcome
		results[i].RunID = run.RunID
		results[i].ComputedAt = computedAt
	}
	if err := s.combinations.ReplaceForOutcome(ctx, outcome, results); err != nil {
		return PatternMiningResult{}, s.failRun(ctx, run, err)
	}
	if err := s.completeRun(ctx, run, len(records), len(results)); err != nil {
		return PatternMiningResult{}, err
	}
	s.cacheResults(ctx, patternCacheKey(outcome), results)

	result := PatternMiningResult{
		RunID:        run.RunID,
		Outcome:      outcome,
		Candidates:   len(candidates),
		Combinations: results,
	}
	if err := s.completeIdempotent(ctx, actor.IdempotencyKey, result); err != nil {
		return PatternMiningResult{}, err
	}
	return result, nil
}

func (s *Service) GetPatternResults(ctx context.Context, actor Actor, outcome string) ([]domain.CombinationResult, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return nil, domain.ErrUnauthorized
	}
	outcome = strings.TrimSpace(outcome)
	if !validOutcome(outcome) {
		return nil, domain.ErrInvalidInput
	}
	var cached []domain.CombinationResult
	if s.readCache(ctx, patternCacheKey(outcome), &cached) {
		return cached, nil
	}
	return s.combinations.ListByOutcome(ctx, outcome)
}

func (s *Service) GetPersonaSummary(ctx context.Context, actor Actor) (domain.PersonaSummary, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.PersonaSummary{}, domain.ErrUnauthorized
	}
	var cached domain.PersonaSummary
	if s.readCache(ctx, personaCacheKey, &cached) {
		return cached, nil
	}

	rows, err := s.features.ListFeatureRows(ctx)
	if err != nil {
		return domain.PersonaSummary{}, err
	}
	summary := analysis.SummarizePersonas(rows, s.cfg.BreakdownFields)
	summary.GeneratedAt = s.nowFn()
	s.cacheResults(ctx, personaCacheKey, summary)
	return summary, nil
}

func (s *Service) GetSyncRun(ctx context.Context, actor Actor, runID string) (domain.SyncRun, error) {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.SyncRun{}, domain.ErrUnauthorized
	}
	return s.syncRuns.GetByID(ctx, strings.TrimSpace(runID))
}

func requireAnalyst(actor Actor) error {
	if strings.TrimSpace(actor.SubjectID) == "" {
		return domain.ErrUnauthorized
	}
	role := normalizeRole(actor.Role)
	if role != "admin" && role != "analyst" {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) failRun(ctx context.Context, run domain.SyncRun, cause error) error {
	finished := s.nowFn()
	run.Status = domain.SyncRunStatusFailed
	run.Error = cause.Error()
	run.FinishedAt = &finished
	if err := s.syncRuns.Update(ctx, run); err != nil {
		s.logger.ErrorContext(ctx, "sync run update failed", "run_id", run.RunID, "error", err)
	}
	return cause
}

func (s *Service) completeRun(ctx context.Context, run domain.SyncRun, rowsRead, rowsWritten int) error {
	finished := s.nowFn()
	run.Status = domain.SyncRunStatusCompleted
	run.RowsRead = rowsRead
	run.RowsWritten = rowsWritten
	run.FinishedAt = &finished
	return s.syncRuns.Update(ctx, run)
}

// replayIdempotent returns true and fills out when the key was already
// completed with an identical payload.
func (s *Service) replayIdempotent(ctx context.Context, key string, payload, out interface{}) (bool, error) {
	now := s.nowFn()
	requestHash := hashPayload(payload)
	existing, err := s.idempotency.Get(ctx, key, now)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.RequestHash != requestHash {
			return false, domain.ErrIdempotencyConflict
		}
		if err := json.Unmarshal(existing.ResponseBody, out); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, s.idempotency.Reserve(ctx, key, requestHash, now.Add(s.cfg.IdempotencyTTL))
}

func (s *Service) completeIdempotent(ctx context.Context, key string, result interface{}) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.idempotency.Complete(ctx, key, 200, encoded, s.nowFn())
}

func (s *Service) cacheResults(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(encoded), s.cfg.ResultCacheTTL); err != nil {
		s.logger.WarnContext(ctx, "result cache write failed", "key", key, "error", err)
	}
}

func (s *Service) readCache(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

func driverCacheKey(outcome string) string  { return "insights:drivers:" + outcome }
func patternCacheKey(outcome string) string { return "insights:patterns:" + outcome }

const personaCacheKey = "insights:personas:summary"

func hashPayload(value interface{}) string {
	blob, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}
