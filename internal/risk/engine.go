// Package risk implements the adaptive authentication risk engine: a
// deterministic, explainable, rule-based scorer that turns a login attempt
// plus the user's history into a bounded score and a recommended action.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jmcallister/riskgate/internal/models"
)

// HistorySource supplies point-in-time history snapshots. Satisfied by
// *history.Store.
type HistorySource interface {
	Snapshot(userID string) []*models.LoginRecord
}

// FailureReader exposes the failed-attempt counter to the engine. Satisfied
// by the lockout counters.
type FailureReader interface {
	FailureCount(ctx context.Context, identity string) (int, error)
}

// Engine evaluates login attempts. It holds no mutable state of its own;
// all shared state lives in the injected store and counter, so a single
// Engine is safe for concurrent use.
type Engine struct {
	history  HistorySource
	failures FailureReader
	config   Config
	logger   *slog.Logger
}

// NewEngine creates an Engine. The config must already be validated.
func NewEngine(history HistorySource, failures FailureReader, config Config, logger *slog.Logger) *Engine {
	return &Engine{
		history:  history,
		failures: failures,
		config:   config,
		logger:   logger,
	}
}

// Analyze scores a single login attempt against the user's history snapshot.
// It rejects malformed input with models.ErrInvalidInput and otherwise always
// produces a result; an analyzer that cannot evaluate simply contributes no
// factor.
func (e *Engine) Analyze(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error) {
	if err := e.validate(attempt); err != nil {
		return nil, err
	}

	in := analyzerInput{
		history: e.history.Snapshot(attempt.UserID),
		attempt: attempt,
	}

	identity := attempt.Identity
	if identity == "" {
		identity = attempt.UserID
	}
	failureCount, err := e.failures.FailureCount(ctx, identity)
	if err != nil {
		// Counter trouble must not abort the independent analyzers; the
		// factor just doesn't fire this round.
		e.logger.Error("failed to read failure count",
			slog.String("identity", identity),
			slog.Any("error", err))
		failureCount = 0
	}
	in.failureCount = failureCount

	factors := make([]models.RiskFactor, 0, len(analyzers))
	total := 0
	for _, analyze := range analyzers {
		if factor := analyze(e.config, in); factor != nil {
			factors = append(factors, *factor)
			total += factor.Weight
		}
	}

	score := total
	if score > 100 {
		score = 100
	}

	result := &models.RiskAnalysisResult{
		Score:   score,
		Factors: factors,
		Action:  e.decide(score, attempt.MFAEnrolled),
	}

	e.logger.Debug("risk analysis complete",
		slog.String("user_id", attempt.UserID),
		slog.Int("score", result.Score),
		slog.Int("factors", len(result.Factors)),
		slog.String("action", string(result.Action)))

	return result, nil
}

// decide maps a score to an action through the ordered thresholds, then
// applies the MFA enrollment floor: enrollment is a user commitment the
// engine must never silently weaken, whatever the score says.
func (e *Engine) decide(score int, mfaEnrolled bool) models.RiskAction {
	action := models.ActionAllow
	switch {
	case score >= e.config.BlockThreshold:
		action = models.ActionBlock
	case score >= e.config.MFAThreshold:
		action = models.ActionRequireMFA
	}

	if mfaEnrolled && action == models.ActionAllow {
		action = models.ActionRequireMFA
	}
	return action
}

// validate rejects attempts the engine refuses to score. A rejected attempt
// never produces a degraded result; callers fall back to their fail-closed
// default.
func (e *Engine) validate(attempt *models.LoginAttempt) error {
	if attempt == nil {
		return fmt.Errorf("%w: nil attempt", models.ErrInvalidInput)
	}
	if attempt.UserID == "" {
		return fmt.Errorf("%w: empty user id", models.ErrInvalidInput)
	}
	if attempt.DeviceID == "" {
		return fmt.Errorf("%w: empty device id", models.ErrInvalidInput)
	}
	if attempt.Timestamp.IsZero() {
		return fmt.Errorf("%w: zero timestamp", models.ErrInvalidInput)
	}
	if attempt.Timestamp.After(time.Now().Add(e.config.ClockSkewTolerance)) {
		return fmt.Errorf("%w: timestamp beyond clock skew tolerance", models.ErrInvalidInput)
	}
	if loc := attempt.Location; loc != nil {
		if math.IsNaN(loc.Latitude) || math.IsNaN(loc.Longitude) ||
			math.Abs(loc.Latitude) > 90 || math.Abs(loc.Longitude) > 180 {
			return fmt.Errorf("%w: malformed coordinates (%.4f, %.4f)",
				models.ErrInvalidInput, loc.Latitude, loc.Longitude)
		}
	}
	return nil
}
