package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmcallister/riskgate/internal/lockout"
	"github.com/jmcallister/riskgate/internal/metrics"
	"github.com/jmcallister/riskgate/internal/models"
	pkglogger "github.com/jmcallister/riskgate/pkg/logger"
)

// RiskAnalyzer is the engine contract the service depends on.
type RiskAnalyzer interface {
	Analyze(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error)
}

// HistoryAppender is the slice of the history store the service writes to.
type HistoryAppender interface {
	Append(userID string, record *models.LoginRecord)
}

// RecordArchiver persists committed records to durable storage. The engine
// itself never reads from it on the hot path.
type RecordArchiver interface {
	ArchiveRecord(ctx context.Context, record *models.LoginRecord) error
}

// RiskServiceConfig holds service-level tuning.
type RiskServiceConfig struct {
	// FailureThreshold mirrors the engine's excessive-failures policy and
	// drives the lockout status endpoint.
	FailureThreshold int
}

// RiskService orchestrates one login attempt end to end: validate and score,
// remember the last verdict per user, and commit resolved outcomes back into
// history so they inform future analyses.
type RiskService struct {
	engine   RiskAnalyzer
	history  HistoryAppender
	counter  lockout.Counter
	archiver RecordArchiver // may be nil when archival is disabled
	config   RiskServiceConfig
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger

	mu          sync.RWMutex
	lastResults map[string]*models.RiskAnalysisResult
}

// NewRiskService creates a RiskService. archiver may be nil.
func NewRiskService(
	engine RiskAnalyzer,
	history HistoryAppender,
	counter lockout.Counter,
	archiver RecordArchiver,
	config RiskServiceConfig,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *RiskService {
	return &RiskService{
		engine:      engine,
		history:     history,
		counter:     counter,
		archiver:    archiver,
		config:      config,
		logger:      logger,
		audit:       audit,
		lastResults: make(map[string]*models.RiskAnalysisResult),
	}
}

// Analyze scores a live login attempt and retains the verdict as the user's
// last computed analysis.
func (s *RiskService) Analyze(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error) {
	start := time.Now()

	result, err := s.engine.Analyze(ctx, attempt)
	if err != nil {
		metrics.RejectedInputsTotal.Inc()
		return nil, err
	}

	s.mu.Lock()
	s.lastResults[attempt.UserID] = result
	s.mu.Unlock()

	metrics.AnalysesTotal.WithLabelValues(string(result.Action)).Inc()
	for _, factor := range result.Factors {
		metrics.FactorsFiredTotal.WithLabelValues(factor.Name).Inc()
	}
	metrics.AnalysisDuration.Observe(time.Since(start).Seconds())

	s.audit.LogRiskDecision(pkglogger.RiskDecisionEvent{
		UserID:    attempt.UserID,
		IPAddress: attempt.IPAddress,
		UserAgent: attempt.UserAgent,
		Score:     result.Score,
		Action:    string(result.Action),
		Factors:   factorNames(result.Factors),
	})

	return result, nil
}

// RecordOutcome commits a resolved login attempt as a history record,
// regardless of whether the login succeeded. Failed and blocked attempts
// still inform future analyses.
func (s *RiskService) RecordOutcome(ctx context.Context, attempt *models.LoginAttempt, success bool) (*models.LoginRecord, error) {
	if attempt == nil || attempt.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", models.ErrInvalidInput)
	}
	if attempt.Timestamp.IsZero() {
		return nil, fmt.Errorf("%w: zero timestamp", models.ErrInvalidInput)
	}

	record := attempt.Record(uuid.New().String(), success)
	s.history.Append(attempt.UserID, record)

	identity := attempt.Identity
	if identity == "" {
		identity = attempt.UserID
	}
	if success {
		if err := s.counter.Reset(ctx, identity); err != nil {
			s.logger.Error("failed to reset failure window",
				slog.String("identity", identity),
				slog.Any("error", err))
		}
	} else {
		if _, err := s.counter.RecordFailure(ctx, identity); err != nil {
			s.logger.Error("failed to record failure",
				slog.String("identity", identity),
				slog.Any("error", err))
		}
	}

	if s.archiver != nil {
		if err := s.archiver.ArchiveRecord(ctx, record); err != nil {
			// The in-memory store already holds the record; archival is
			// write-behind and must not fail the commit.
			s.logger.Error("failed to archive login record",
				slog.String("user_id", attempt.UserID),
				slog.Any("error", err))
		}
	}

	outcome := "failure"
	if success {
		outcome = "success"
	}
	metrics.OutcomesRecordedTotal.WithLabelValues(outcome).Inc()

	s.audit.LogOutcome(pkglogger.OutcomeEvent{
		UserID:    attempt.UserID,
		Identity:  identity,
		IPAddress: attempt.IPAddress,
		Success:   success,
	})

	return record, nil
}

// LastResult returns the most recent analysis for the user, or ErrNoAnalysis.
func (s *RiskService) LastResult(userID string) (*models.RiskAnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.lastResults[userID]
	if !ok {
		return nil, models.ErrNoAnalysis
	}
	return result, nil
}

// LockoutStatus reports the identity's live failure window against the
// configured threshold.
func (s *RiskService) LockoutStatus(ctx context.Context, identity string) (*models.FailedAttemptStats, bool, error) {
	count, err := s.counter.FailureCount(ctx, identity)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read failure count: %w", err)
	}

	stats := &models.FailedAttemptStats{Identity: identity, Count: count}
	return stats, count > s.config.FailureThreshold, nil
}

func factorNames(factors []models.RiskFactor) []string {
	names := make([]string, len(factors))
	for i, f := range factors {
		names[i] = f.Name
	}
	return names
}
