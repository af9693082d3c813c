package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/jmcallister/riskgate/internal/models"
	pkghttp "github.com/jmcallister/riskgate/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithURLParam injects a chi route parameter so handlers can be exercised
// without mounting a full router
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockRiskService implements RiskServiceInterface for testing
type MockRiskService struct {
	AnalyzeFunc       func(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error)
	RecordOutcomeFunc func(ctx context.Context, attempt *models.LoginAttempt, success bool) (*models.LoginRecord, error)
	LastResultFunc    func(userID string) (*models.RiskAnalysisResult, error)
	LockoutStatusFunc func(ctx context.Context, identity string) (*models.FailedAttemptStats, bool, error)
}

func (m *MockRiskService) Analyze(ctx context.Context, attempt *models.LoginAttempt) (*models.RiskAnalysisResult, error) {
	if m.AnalyzeFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.AnalyzeFunc(ctx, attempt)
}

func (m *MockRiskService) RecordOutcome(ctx context.Context, attempt *models.LoginAttempt, success bool) (*models.LoginRecord, error) {
	if m.RecordOutcomeFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RecordOutcomeFunc(ctx, attempt, success)
}

func (m *MockRiskService) LastResult(userID string) (*models.RiskAnalysisResult, error) {
	if m.LastResultFunc == nil {
		return nil, models.ErrNoAnalysis
	}
	return m.LastResultFunc(userID)
}

func (m *MockRiskService) LockoutStatus(ctx context.Context, identity string) (*models.FailedAttemptStats, bool, error) {
	if m.LockoutStatusFunc == nil {
		return nil, false, models.ErrInternalServer
	}
	return m.LockoutStatusFunc(ctx, identity)
}
