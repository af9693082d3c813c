package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jmcallister/riskgate/internal/models"
	pkghttp "github.com/jmcallister/riskgate/pkg/http"
)

// RiskServiceInterface defines the interface for risk scoring business logic
type RiskServiceInterface interface {
	Analyze(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error)
	RecordOutcome(ctx context.Context, attempt *models.LoginAttempt, success bool) (*models.LoginRecord, error)
	LastResult(userID string) (*models.RiskAnalysisResult, error)
	LockoutStatus(ctx context.Context, identity string) (*models.FailedAttemptStats, bool, error)
}

// RiskHandler handles risk analysis HTTP requests
type RiskHandler struct {
	service  RiskServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewRiskHandler creates a new RiskHandler
func NewRiskHandler(service RiskServiceInterface, ipConfig *pkghttp.IPConfig) *RiskHandler {
	return &RiskHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// Request DTOs

// LocationPayload carries pre-resolved coordinates for an attempt. Callers
// resolve geo-IP upstream; an absent payload means resolution failed.
type LocationPayload struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Country   string  `json:"country" validate:"max=64"`
	City      string  `json:"city" validate:"max=128"`
}

// AnalyzeRequest represents the request body for risk analysis
type AnalyzeRequest struct {
	UserID      string           `json:"user_id" validate:"required,max=255"`
	Identity    string           `json:"identity" validate:"max=255"`
	DeviceID    string           `json:"device_id" validate:"required,max=255"`
	IPAddress   string           `json:"ip_address" validate:"omitempty,ip"`
	UserAgent   string           `json:"user_agent" validate:"max=512"`
	Timestamp   time.Time        `json:"timestamp" validate:"required"`
	Location    *LocationPayload `json:"location"`
	MFAEnrolled bool             `json:"mfa_enrolled"`
}

// OutcomeRequest represents the request body for committing a resolved login
type OutcomeRequest struct {
	UserID    string           `json:"user_id" validate:"required,max=255"`
	Identity  string           `json:"identity" validate:"max=255"`
	DeviceID  string           `json:"device_id" validate:"required,max=255"`
	IPAddress string           `json:"ip_address" validate:"omitempty,ip"`
	UserAgent string           `json:"user_agent" validate:"max=512"`
	Timestamp time.Time        `json:"timestamp" validate:"required"`
	Location  *LocationPayload `json:"location"`
	Success   *bool            `json:"success" validate:"required"`
}

// OutcomeResponse represents the response for a committed login record
type OutcomeResponse struct {
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	Success    bool      `json:"success"`
	RecordedAt time.Time `json:"recorded_at"`
}

// LockoutStatusResponse represents the response for lockout status
type LockoutStatusResponse struct {
	Identity       string `json:"identity"`
	FailedAttempts int    `json:"failed_attempts"`
	Locked         bool   `json:"locked"`
}

// Analyze scores a login attempt
// @Summary Score a login attempt
// @Accept json
// @Param request body AnalyzeRequest true "Analyze request"
// @Produce json
// @Success 200 {object} models.RiskAnalysisResult
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/risk/analyze [post]
func (h *RiskHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	attempt := &models.LoginAttempt{
		UserID:      strings.TrimSpace(req.UserID),
		Identity:    normalizeIdentity(req.Identity),
		Timestamp:   req.Timestamp,
		IPAddress:   req.IPAddress,
		Location:    req.Location.toModel(),
		DeviceID:    strings.TrimSpace(req.DeviceID),
		UserAgent:   req.UserAgent,
		MFAEnrolled: req.MFAEnrolled,
	}
	if attempt.IPAddress == "" {
		attempt.IPAddress = pkghttp.ExtractClientIP(r, h.ipConfig)
	}
	if attempt.UserAgent == "" {
		attempt.UserAgent = r.Header.Get("User-Agent")
	}

	result, err := h.service.Analyze(r.Context(), attempt)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			pkghttp.WriteBadRequest(w, "Invalid login attempt")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// RecordOutcome commits a resolved login attempt into history
// @Summary Record a resolved login outcome
// @Accept json
// @Param request body OutcomeRequest true "Outcome request"
// @Produce json
// @Success 201 {object} OutcomeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/risk/outcomes [post]
func (h *RiskHandler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	var req OutcomeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	attempt := &models.LoginAttempt{
		UserID:    strings.TrimSpace(req.UserID),
		Identity:  normalizeIdentity(req.Identity),
		Timestamp: req.Timestamp,
		IPAddress: req.IPAddress,
		Location:  req.Location.toModel(),
		DeviceID:  strings.TrimSpace(req.DeviceID),
		UserAgent: req.UserAgent,
	}
	if attempt.IPAddress == "" {
		attempt.IPAddress = pkghttp.ExtractClientIP(r, h.ipConfig)
	}

	record, err := h.service.RecordOutcome(r.Context(), attempt, *req.Success)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			pkghttp.WriteBadRequest(w, "Invalid login outcome")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(OutcomeResponse{
		RecordID:   record.ID,
		UserID:     record.UserID,
		Success:    record.Success,
		RecordedAt: record.Timestamp,
	})
}

// LastAnalysis returns the most recent analysis for a user
// @Summary Get the last risk analysis for a user
// @Produce json
// @Success 200 {object} models.RiskAnalysisResult
// @Failure 404 {object} ErrorResponse
// @Router /v1/risk/users/{id}/last [get]
func (h *RiskHandler) LastAnalysis(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		pkghttp.WriteBadRequest(w, "Missing user id")
		return
	}

	result, err := h.service.LastResult(userID)
	if err != nil {
		if errors.Is(err, models.ErrNoAnalysis) {
			pkghttp.WriteNotFound(w, "No analysis recorded for user")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// LockoutStatus reports the failure window for an identity
// @Summary Get lockout status for an identity
// @Produce json
// @Success 200 {object} LockoutStatusResponse
// @Failure 500 {object} ErrorResponse
// @Router /v1/risk/identities/{identity}/lockout [get]
func (h *RiskHandler) LockoutStatus(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "identity")
	if identity == "" {
		pkghttp.WriteBadRequest(w, "Missing identity")
		return
	}
	identity = normalizeIdentity(identity)

	stats, locked, err := h.service.LockoutStatus(r.Context(), identity)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(LockoutStatusResponse{
		Identity:       stats.Identity,
		FailedAttempts: stats.Count,
		Locked:         locked,
	})
}

// normalizeIdentity lowercases and trims an identity so the failure window
// for "Alice@Example.com" and "alice@example.com " is the same window.
func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

func (p *LocationPayload) toModel() *models.GeoLocation {
	if p == nil {
		return nil
	}
	return &models.GeoLocation{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Country:   p.Country,
		City:      p.City,
	}
}
