package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"Mansoor88-6/interaction-insights/internal/auth"
	"Mansoor88-6/interaction-insights/internal/database"
	"Mansoor88-6/interaction-insights/internal/handler"
	"Mansoor88-6/interaction-insights/internal/ingest"
	"Mansoor88-6/interaction-insights/internal/insight"
	"Mansoor88-6/interaction-insights/internal/models"
	"Mansoor88-6/interaction-insights/internal/repository"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type noopAnalyzer struct{}

func (noopAnalyzer) Analyze(ctx context.Context, records []models.TrackingRecord) (*models.AnalysisResult, error) {
	return &models.AnalysisResult{
		Optimizations: []models.UIOptimization{{Area: "Nav", Issue: "i", Suggestion: "s", Priority: models.PriorityHigh}},
	}, nil
}

func (noopAnalyzer) Summarize(ctx context.Context, insights []models.Insight) (string, error) {
	return "summary", nil
}

type testServer struct {
	*httptest.Server
	integrations *repository.IntegrationRepository
}

func newTestServer(t *testing.T, verifier *auth.Verifier, opts Options) *testServer {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	integrations := repository.NewIntegrationRepository(db.DB)
	records := repository.NewTrackingRepository(db.DB)
	analytics := repository.NewAnalyticsRepository(db.DB)

	resolver := ingest.NewResolver(integrations, time.Minute, logger)
	t.Cleanup(resolver.Stop)
	processor := ingest.NewProcessor(resolver, records, 4, logger)
	service := insight.NewService(records, analytics, noopAnalyzer{}, noopAnalyzer{}, logger)

	r := New(Handlers{
		Track:        handler.NewTrackHandler(processor, nil, 1<<20, 5*time.Second, logger),
		Insights:     handler.NewInsightHandler(service, logger),
		Integrations: handler.NewIntegrationHandler(integrations, resolver, logger),
		Health:       handler.NewHealthHandler(db, logger),
	}, verifier, opts, logger)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, integrations: integrations}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRouter_TrackAndGenerateEndToEnd(t *testing.T) {
	srv := newTestServer(t, nil, Options{CORSAllowedOrigins: []string{"*"}})

	resp := srv.do(t, http.MethodPost, "/api/integrations", `{"uid":"u1","url":"https://shop.example"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	integration := readJSON[models.Integration](t, resp)

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	resp = srv.do(t, http.MethodPost, "/api/track", `[
		{"type":"click","timestamp":`+ts+`,"url":"https://shop.example/","element":{"tagName":"A"},"position":{"x":1,"y":2}},
		{"type":"click","timestamp":`+ts+`,"url":"https://elsewhere.example/","element":{"tagName":"A"},"position":{"x":1,"y":2}}
	]`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ledger := readJSON[models.IngestResponse](t, resp)
	assert.Equal(t, 1, ledger.Processed)
	assert.Equal(t, 1, ledger.Failed)
	assert.False(t, ledger.Success)

	resp = srv.do(t, http.MethodPost, "/api/generate-insights",
		`{"integrationId":"`+integration.ID+`","dateRange":"30d","uid":"u1"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	gen := readJSON[models.GenerateInsightsResponse](t, resp)
	assert.Equal(t, 1, gen.Count)

	resp = srv.do(t, http.MethodPost, "/api/generate-summary", `{"integrationId":"`+integration.ID+`","uid":"u1"}`, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/insights/latest?integrationId="+integration.ID+"&uid=u1", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := readJSON[models.AnalyticsSnapshot](t, resp)
	assert.Equal(t, "summary", snap.Summary)
	assert.Len(t, snap.Insights, 1)
}

func TestRouter_DisabledIntegrationStopsIngestion(t *testing.T) {
	srv := newTestServer(t, nil, Options{CORSAllowedOrigins: []string{"*"}})

	resp := srv.do(t, http.MethodPost, "/api/integrations", `{"uid":"u1","url":"https://shop.example"}`, "")
	integration := readJSON[models.Integration](t, resp)
	event := `{"type":"scroll","timestamp":1700000000000,"url":"https://shop.example/","scrollY":10}`

	resp = srv.do(t, http.MethodPost, "/api/track", event, "")
	assert.Equal(t, 1, readJSON[models.IngestResponse](t, resp).Processed)

	resp = srv.do(t, http.MethodPatch, "/api/integrations/"+integration.ID+"/status", `{"uid":"u1","status":false}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/track", event, "")
	ledger := readJSON[models.IngestResponse](t, resp)
	assert.Equal(t, 0, ledger.Processed)
	require.Len(t, ledger.Errors, 1)
	assert.Contains(t, ledger.Errors[0].Error, "no active integration")
}

func TestRouter_TokenRequiredOnDashboardRoutes(t *testing.T) {
	verifier := auth.NewVerifier("s3cret", "")
	srv := newTestServer(t, verifier, Options{CORSAllowedOrigins: []string{"*"}})

	resp := srv.do(t, http.MethodGet, "/api/integrations?uid=u1", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := verifier.Issue("u1", time.Hour)
	require.NoError(t, err)

	resp = srv.do(t, http.MethodGet, "/api/integrations?uid=u1", "", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/integrations?uid=u2", "", token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/track", `[]`, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "ingestion stays public")
}

func TestRouter_TrackRateLimit(t *testing.T) {
	srv := newTestServer(t, nil, Options{CORSAllowedOrigins: []string{"*"}, TrackRateLimit: 2, RateLimitWindow: time.Minute})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, srv.do(t, http.MethodPost, "/api/track", `[]`, "").StatusCode)
	}
	assert.Equal(t, http.StatusTooManyRequests, srv.do(t, http.MethodPost, "/api/track", `[]`, "").StatusCode)
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil, Options{CORSAllowedOrigins: []string{"*"}})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/track", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, nil, Options{CORSAllowedOrigins: []string{"*"}})

	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health", "", "").StatusCode)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, "/health/ready", "", "").StatusCode)

	srv.do(t, http.MethodPost, "/api/track", `[]`, "")
	resp := srv.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body strings.Builder
	_, err := io.Copy(&body, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `endpoint="/api/track"`)
}
