package application

import (
	"log/slog"
	"time"

	"github.com/tradeforge/insight-mining-service/internal/domain"
	"github.com/tradeforge/insight-mining-service/internal/ports"
)

type Config struct {
	ServiceName string

	// Per-outcome predictor allow-lists. Injected configuration, never
	// computed from the data.
	DriverVariables map[string][]string
	BreakdownFields []string

	MinUsersPerExposure   int
	MaxCandidateExposures int

	ResultCacheTTL time.Duration
	IdempotencyTTL time.Duration
	EventDedupTTL  time.Duration
}

type Actor struct {
	SubjectID      string
	Role           string
	RequestID      string
	IdempotencyKey string
}

type DriverAnalysisInput struct {
	Outcome   string
	Variables []string
}

type PatternMiningInput struct {
	Outcome             string
	MinUsersPerExposure int
	MaxCandidates       int
}

type DriverAnalysisResult struct {
	RunID   string                `json:"run_id"`
	Outcome string                `json:"outcome"`
	Drivers []domain.DriverResult `json:"drivers"`
}

type PatternMiningResult struct {
	RunID        string                     `json:"run_id"`
	Outcome      string                     `json:"outcome"`
	Candidates   int                        `json:"candidates"`
	Combinations []domain.CombinationResult `json:"combinations"`
}

type Service struct {
	cfg    Config
	logger *slog.Logger

	features     ports.FeatureStore
	exposures    ports.ExposureStore
	drivers      ports.DriverResultSink
	combinations ports.CombinationResultSink
	syncRuns     ports.SyncRunRepository
	idempotency  ports.IdempotencyRepository
	eventDedup   ports.EventDedupRepository
	cache        ports.Cache

	nowFn func() time.Time
}

type Dependencies struct {
	Config Config
	Logger *slog.Logger

	Features     ports.FeatureStore
	Exposures    ports.ExposureStore
	Drivers      ports.DriverResultSink
	Combinations ports.CombinationResultSink
	SyncRuns     ports.SyncRunRepository
	Idempotency  ports.IdempotencyRepository
	EventDedup   ports.EventDedupRepository
	Cache        ports.Cache
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "Insight-Mining-Service"
	}
	if cfg.DriverVariables == nil {
		cfg.DriverVariables = DefaultDriverVariables()
	}
	if len(cfg.BreakdownFields) == 0 {
		cfg.BreakdownFields = []string{domain.FieldIncomeBracket, domain.FieldNetWorthBracket}
	}
	if cfg.MinUsersPerExposure <= 0 {
		cfg.MinUsersPerExposure = 5
	}
	if cfg.MaxCandidateExposures <= 0 {
		cfg.MaxCandidateExposures = 200
	}
	if cfg.ResultCacheTTL <= 0 {
		cfg.ResultCacheTTL = 10 * time.Minute
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:          cfg,
		logger:       logger,
		features:     deps.Features,
		exposures:    deps.Exposures,
		drivers:      deps.Drivers,
		combinations: deps.Combinations,
		syncRuns:     deps.SyncRuns,
		idempotency:  deps.Idempotency,
		eventDedup:   deps.EventDedup,
		cache:        deps.Cache,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// DefaultDriverVariables is the engagement allow-list applied when the
// config file names none for an outcome.
func DefaultDriverVariables() map[string][]string {
	shared := []string{
		domain.FieldTotalSessions,
		domain.FieldRegularPDPViews,
		domain.FieldPremiumPDPViews,
		domain.FieldRegularCreatorViews,
		domain.FieldPremiumCreatorViews,
		domain.FieldLinkedBankAccount,
	}
	return map[string][]string{
		domain.OutcomeDeposited:  append([]string{domain.FieldTotalCopies}, shared...),
		domain.OutcomeCopied:     append([]string{domain.FieldTotalDeposits}, shared...),
		domain.OutcomeSubscribed: append([]string{domain.FieldTotalCopies, domain.FieldTotalDeposits}, shared...),
	}
}

func normalizeRole(raw string) string {
	switch raw {
	case "admin", "analyst":
		return raw
	default:
		return "viewer"
	}
}

func validOutcome(outcome string) bool {
	switch outcome {
	case domain.OutcomeDeposited, domain.OutcomeCopied, domain.OutcomeSubscribed:
		return true
	default:
		return false
	}
}
