package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcallister/riskgate/internal/handlers"
	"github.com/jmcallister/riskgate/internal/models"
)

func analyzeRequestFixture() handlers.AnalyzeRequest {
	return handlers.AnalyzeRequest{
		UserID:    "user-1",
		Identity:  "Alice@Example.com",
		DeviceID:  "device-1",
		IPAddress: "203.0.113.10",
		UserAgent: "Mozilla/5.0",
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestAnalyze_Success(t *testing.T) {
	mockService := &handlers.MockRiskService{
		AnalyzeFunc: func(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error) {
			return &models.RiskAnalysisResult{
				Score: 35,
				Factors: []models.RiskFactor{
					{Name: "new_device", Description: "Login from unrecognized device", Weight: 20},
					{Name: "new_location", Description: "Login from unfamiliar location", Weight: 15},
				},
				Action: models.ActionRequireMFA,
			}, nil
		},
	}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/v1/risk/analyze", analyzeRequestFixture())

	w := httptest.NewRecorder()
	handler.Analyze(w, req)

	var resp models.RiskAnalysisResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 35, resp.Score)
	assert.Len(t, resp.Factors, 2)
	assert.Equal(t, models.ActionRequireMFA, resp.Action)
}

func TestAnalyze_NormalizesIdentityAndPassesLocation(t *testing.T) {
	var captured *models.LoginAttempt
	mockService := &handlers.MockRiskService{
		AnalyzeFunc: func(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error) {
			captured = attempt
			return &models.RiskAnalysisResult{Factors: []models.RiskFactor{}, Action: models.ActionAllow}, nil
		},
	}

	body := analyzeRequestFixture()
	body.Location = &handlers.LocationPayload{Latitude: 51.5074, Longitude: -0.1278, Country: "GB", City: "London"}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/v1/risk/analyze", body)

	w := httptest.NewRecorder()
	handler.Analyze(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "alice@example.com", captured.Identity)
	require.NotNil(t, captured.Location)
	assert.Equal(t, 51.5074, captured.Location.Latitude)
	assert.Equal(t, "GB", captured.Location.Country)
}

func TestAnalyze_FallsBackToRemoteAddr(t *testing.T) {
	var captured *models.LoginAttempt
	mockService := &handlers.MockRiskService{
		AnalyzeFunc: func(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error) {
			captured = attempt
			return &models.RiskAnalysisResult{Factors: []models.RiskFactor{}, Action: models.ActionAllow}, nil
		},
	}

	body := analyzeRequestFixture()
	body.IPAddress = ""
	body.UserAgent = ""

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/v1/risk/analyze", body)
	req.Header.Set("User-Agent", "curl/8.0")

	w := httptest.NewRecorder()
	handler.Analyze(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	// httptest.NewRequest fills RemoteAddr with 192.0.2.1:1234
	assert.Equal(t, "192.0.2.1", captured.IPAddress)
	assert.Equal(t, "curl/8.0", captured.UserAgent)
}

func TestAnalyze_InvalidBody(t *testing.T) {
	handler := handlers.NewRiskHandler(&handlers.MockRiskService{}, nil)
	req := httptest.NewRequest("POST", "/v1/risk/analyze", strings.NewReader("{not json"))

	w := httptest.NewRecorder()
	handler.Analyze(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestAnalyze_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*handlers.AnalyzeRequest)
	}{
		{"missing user id", func(r *handlers.AnalyzeRequest) { r.UserID = "" }},
		{"missing device id", func(r *handlers.AnalyzeRequest) { r.DeviceID = "" }},
		{"missing timestamp", func(r *handlers.AnalyzeRequest) { r.Timestamp = time.Time{} }},
		{"malformed ip", func(r *handlers.AnalyzeRequest) { r.IPAddress = "not-an-ip" }},
		{"latitude out of range", func(r *handlers.AnalyzeRequest) {
			r.Location = &handlers.LocationPayload{Latitude: 91, Longitude: 0}
		}},
		{"longitude out of range", func(r *handlers.AnalyzeRequest) {
			r.Location = &handlers.LocationPayload{Latitude: 0, Longitude: -181}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := analyzeRequestFixture()
			tt.mutate(&body)

			handler := handlers.NewRiskHandler(&handlers.MockRiskService{}, nil)
			req := handlers.NewTestRequest(t, "POST", "/v1/risk/analyze", body)

			w := httptest.NewRecorder()
			handler.Analyze(w, req)

			handlers.AssertErrorResponse(t, w, 400, "bad_request")
		})
	}
}

func TestAnalyze_EngineRejectsInput(t *testing.T) {
	mockService := &handlers.MockRiskService{
		AnalyzeFunc: func(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error) {
			return nil, models.ErrInvalidInput
		},
	}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/v1/risk/analyze", analyzeRequestFixture())

	w := httptest.NewRecorder()
	handler.Analyze(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestAnalyze_ServiceError(t *testing.T) {
	mockService := &handlers.MockRiskService{
		AnalyzeFunc: func(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error) {
			return nil, models.ErrInternalServer
		},
	}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/v1/risk/analyze", analyzeRequestFixture())

	w := httptest.NewRecorder()
	handler.Analyze(w, req)

	handlers.AssertErrorResponse(t, w, 500, "internal_error")
}

func outcomeRequestFixture(success bool) handlers.OutcomeRequest {
	return handlers.OutcomeRequest{
		UserID:    "user-1",
		Identity:  "alice@example.com",
		DeviceID:  "device-1",
		IPAddress: "203.0.113.10",
		Timestamp: time.Date(2026, 3, 14, 9, 30, 5, 0, time.UTC),
		Success:   &success,
	}
}

func TestRecordOutcome_Success(t *testing.T) {
	var capturedSuccess bool
	mockService := &handlers.MockRiskService{
		RecordOutcomeFunc: func(ctx context.Context, attempt *models.LoginAttempt, success bool) (*models.LoginRecord, error) {
			capturedSuccess = success
			return attempt.Record("rec-123", success), nil
		},
	}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/v1/risk/outcomes", outcomeRequestFixture(true))

	w := httptest.NewRecorder()
	handler.RecordOutcome(w, req)

	var resp handlers.OutcomeResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.True(t, capturedSuccess)
	assert.Equal(t, "rec-123", resp.RecordID)
	assert.Equal(t, "user-1", resp.UserID)
	assert.True(t, resp.Success)
}

func TestRecordOutcome_FailureOutcome(t *testing.T) {
	mockService := &handlers.MockRiskService{
		RecordOutcomeFunc: func(ctx context.Context, attempt *models.LoginAttempt, success bool) (*models.LoginRecord, error) {
			return attempt.Record("rec-456", success), nil
		},
	}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/v1/risk/outcomes", outcomeRequestFixture(false))

	w := httptest.NewRecorder()
	handler.RecordOutcome(w, req)

	var resp handlers.OutcomeResponse
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.False(t, resp.Success)
}

func TestRecordOutcome_MissingSuccessField(t *testing.T) {
	body := outcomeRequestFixture(true)
	body.Success = nil

	handler := handlers.NewRiskHandler(&handlers.MockRiskService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/v1/risk/outcomes", body)

	w := httptest.NewRecorder()
	handler.RecordOutcome(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestRecordOutcome_ServiceError(t *testing.T) {
	mockService := &handlers.MockRiskService{
		RecordOutcomeFunc: func(ctx context.Context, attempt *models.LoginAttempt, success bool) (*models.LoginRecord, error) {
			return nil, models.ErrInternalServer
		},
	}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.NewTestRequest(t, "POST", "/v1/risk/outcomes", outcomeRequestFixture(true))

	w := httptest.NewRecorder()
	handler.RecordOutcome(w, req)

	handlers.AssertErrorResponse(t, w, 500, "internal_error")
}

func TestLastAnalysis_Found(t *testing.T) {
	mockService := &handlers.MockRiskService{
		LastResultFunc: func(userID string) (*models.RiskAnalysisResult, error) {
			assert.Equal(t, "user-1", userID)
			return &models.RiskAnalysisResult{
				Score:   70,
				Factors: []models.RiskFactor{{Name: "impossible_travel", Weight: 30}},
				Action:  models.ActionBlock,
			}, nil
		},
	}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.WithURLParam(
		httptest.NewRequest("GET", "/v1/risk/users/user-1/last", nil), "id", "user-1")

	w := httptest.NewRecorder()
	handler.LastAnalysis(w, req)

	var resp models.RiskAnalysisResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 70, resp.Score)
	assert.Equal(t, models.ActionBlock, resp.Action)
}

func TestLastAnalysis_NotFound(t *testing.T) {
	mockService := &handlers.MockRiskService{
		LastResultFunc: func(userID string) (*models.RiskAnalysisResult, error) {
			return nil, models.ErrNoAnalysis
		},
	}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.WithURLParam(
		httptest.NewRequest("GET", "/v1/risk/users/ghost/last", nil), "id", "ghost")

	w := httptest.NewRecorder()
	handler.LastAnalysis(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
}

func TestLockoutStatus_Locked(t *testing.T) {
	mockService := &handlers.MockRiskService{
		LockoutStatusFunc: func(ctx context.Context, identity string) (*models.FailedAttemptStats, bool, error) {
			assert.Equal(t, "alice@example.com", identity)
			return &models.FailedAttemptStats{Identity: identity, Count: 7}, true, nil
		},
	}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.WithURLParam(
		httptest.NewRequest("GET", "/v1/risk/identities/Alice@Example.com/lockout", nil),
		"identity", "Alice@Example.com")

	w := httptest.NewRecorder()
	handler.LockoutStatus(w, req)

	var resp handlers.LockoutStatusResponse
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "alice@example.com", resp.Identity)
	assert.Equal(t, 7, resp.FailedAttempts)
	assert.True(t, resp.Locked)
}

func TestLockoutStatus_CounterError(t *testing.T) {
	mockService := &handlers.MockRiskService{
		LockoutStatusFunc: func(ctx context.Context, identity string) (*models.FailedAttemptStats, bool, error) {
			return nil, false, models.ErrInternalServer
		},
	}

	handler := handlers.NewRiskHandler(mockService, nil)
	req := handlers.WithURLParam(
		httptest.NewRequest("GET", "/v1/risk/identities/alice/lockout", nil),
		"identity", "alice")

	w := httptest.NewRecorder()
	handler.LockoutStatus(w, req)

	handlers.AssertErrorResponse(t, w, 500, "internal_error")
}
