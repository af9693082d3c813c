package logger

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// RiskDecisionEvent records one scored login attempt for the audit trail.
type RiskDecisionEvent struct {
	UserID    string
	IPAddress string
	UserAgent string
	Score     int
	Action    string
	Factors   []string
}

// OutcomeEvent records a committed login outcome.
type OutcomeEvent struct {
	UserID    string
	Identity  string
	IPAddress string
	Success   bool
}

// AuditLogger provides structured audit logging for risk decisions
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogRiskDecision logs the verdict for a scored login attempt. Block and
// RequireMfa decisions log at warn so they surface in alert pipelines.
func (al *AuditLogger) LogRiskDecision(event RiskDecisionEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "risk_decision"),
		slog.String("user_id", event.UserID),
		slog.Int("score", event.Score),
		slog.String("action", event.Action),
		slog.String("factors", strings.Join(event.Factors, ",")),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	level := slog.LevelInfo
	if event.Action != "Allow" {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// LogOutcome logs a committed login outcome.
func (al *AuditLogger) LogOutcome(event OutcomeEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "login_outcome"),
		slog.String("user_id", event.UserID),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Identity != "" {
		attrs = append(attrs, slog.String("identity", SanitizedIdentity(event.Identity)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}

	if event.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}
