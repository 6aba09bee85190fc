// services/planner-svc/internal/handlers/handlers_test.go

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit/pkg/audit"
	"transit/pkg/config"
	"transit/pkg/logger"
	"transit/pkg/passhash"
	"transit/pkg/ratelimit"
	"transit/services/planner-svc/internal/engine"
	"transit/services/planner-svc/internal/service"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

// ============================================================
// FIXTURES
// ============================================================

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "planner-svc"
	cfg.App.Version = "test"
	cfg.Planner.SolveTimeout = 5 * time.Second
	cfg.Report.DefaultFormat = "json"
	cfg.Report.CompanyName = "Transit Planner"
	cfg.Report.IncludeRawData = true
	cfg.Report.MaxTracksInPDF = 30
	return cfg
}

func newTestHandler(cfg *config.Config, opts *Options) (http.Handler, *service.PlannerService) {
	svc := service.NewPlannerService("test", nil, nil, engine.Options{})
	h := New(svc, cfg, opts)
	return h.Routes(), svc
}

func networkBody() string {
	return `{
		"name": "downtown",
		"stations": [
			{"id": 1, "name": "A", "occupancy": 5},
			{"id": 2, "name": "B", "occupancy": 5},
			{"id": 3, "name": "C", "occupancy": 5}
		],
		"tracks": [
			{"id": 1, "from": 1, "to": 2, "capacity": 10, "cost": 1},
			{"id": 2, "from": 2, "to": 3, "capacity": 10, "cost": 1}
		]
	}`
}

func createNetwork(t *testing.T, router http.Handler) string {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/networks", strings.NewReader(networkBody()))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out service.CreateNetworkOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.NetworkID)
	return out.NetworkID
}

func doJSON(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	router.ServeHTTP(rec, req)
	return rec
}

// ============================================================
// NETWORKS
// ============================================================

func TestCreateNetwork(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	rec := doJSON(router, http.MethodPost, "/v1/networks", networkBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	var out service.CreateNetworkOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 3, out.StationCount)
	assert.Equal(t, 2, out.TrackCount)
}

func TestCreateNetwork_InvalidBody(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	rec := doJSON(router, http.MethodPost, "/v1/networks", `{"stations": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_ARGUMENT", body.Code)
}

func TestCreateNetwork_StationLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Planner.MaxStations = 2
	router, _ := newTestHandler(cfg, nil)

	rec := doJSON(router, http.MethodPost, "/v1/networks", networkBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_NETWORK", body.Code)
}

func TestCreateNetwork_DanglingTrack(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	body := `{
		"stations": [{"id": 1, "occupancy": 5}],
		"tracks": [{"id": 1, "from": 1, "to": 99, "capacity": 10, "cost": 1}]
	}`
	rec := doJSON(router, http.MethodPost, "/v1/networks", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var eb errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eb))
	assert.Equal(t, "DANGLING_TRACK", eb.Code)
}

func TestGetNetwork(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)
	id := createNetwork(t, router)

	rec := doJSON(router, http.MethodGet, "/v1/networks/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view networkView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, id, view.NetworkID)
	assert.Equal(t, "downtown", view.Name)
	assert.Len(t, view.Stations, 3)
	assert.Len(t, view.Tracks, 2)
}

func TestDeleteNetwork(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)
	id := createNetwork(t, router)

	rec := doJSON(router, http.MethodDelete, "/v1/networks/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(router, http.MethodGet, "/v1/networks/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================================
// PLAN QUERIES
// ============================================================

func TestMaxFlow(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)
	id := createNetwork(t, router)

	rec := doJSON(router, http.MethodGet, "/v1/networks/"+id+"/maxflow?from=1&to=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out service.FlowOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, int64(5), out.MaxFlow)
}

func TestMaxFlow_MissingParam(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)
	id := createNetwork(t, router)

	rec := doJSON(router, http.MethodGet, "/v1/networks/"+id+"/maxflow?from=1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var eb errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eb))
	assert.Equal(t, "to", eb.Field)
}

func TestMaxFlow_UnknownNetwork(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	rec := doJSON(router, http.MethodGet, "/v1/networks/missing/maxflow?from=1&to=3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBestNetwork(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)
	id := createNetwork(t, router)

	rec := doJSON(router, http.MethodGet, "/v1/networks/"+id+"/best-network", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out service.BestNetworkOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.ElementsMatch(t, []int64{1, 2}, out.TrackIDs)
	assert.Equal(t, int64(2), out.TotalCost)
}

func TestHistory_Disabled(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)
	id := createNetwork(t, router)

	rec := doJSON(router, http.MethodGet, "/v1/networks/"+id+"/history", "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

// ============================================================
// REPORTS
// ============================================================

func TestReport_JSON(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)
	id := createNetwork(t, router)

	rec := doJSON(router, http.MethodGet, "/v1/networks/"+id+"/report?format=json&from=1&to=3&selection=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".json")

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Contains(t, doc, "network")
	assert.Contains(t, doc, "flow")
	assert.Contains(t, doc, "selection")
}

func TestReport_CSV(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)
	id := createNetwork(t, router)

	rec := doJSON(router, http.MethodGet, "/v1/networks/"+id+"/report?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Network Info")
}

func TestReport_DefaultFormat(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)
	id := createNetwork(t, router)

	rec := doJSON(router, http.MethodGet, "/v1/networks/"+id+"/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestReport_UnknownFormat(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)
	id := createNetwork(t, router)

	rec := doJSON(router, http.MethodGet, "/v1/networks/"+id+"/report?format=docx", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================
// PASSENGERS AND SCHEDULING
// ============================================================

func TestPassengers(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	for _, name := range []string{"Albert", "alice", "Bob"} {
		rec := doJSON(router, http.MethodPost, "/v1/passengers", `{"name": "`+name+`"}`)
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := doJSON(router, http.MethodGet, "/v1/passengers?prefix=al", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out searchPassengersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, []string{"Alice", "Albert"}, out.Names)
	assert.Equal(t, 2, out.Count)
}

func TestAddPassenger_EmptyName(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	rec := doJSON(router, http.MethodPost, "/v1/passengers", `{"name": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScheduleCheckers(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	body := `{"shifts": [
		{"start": 0, "end": 10},
		{"start": 5, "end": 12},
		{"start": 10, "end": 20}
	]}`
	rec := doJSON(router, http.MethodPost, "/v1/checkers/schedule", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var out service.ScheduleOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 3, out.Offered)
	assert.Equal(t, 2, out.Hired)
}

func TestScheduleCheckers_InvalidShift(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	rec := doJSON(router, http.MethodPost, "/v1/checkers/schedule", `{"shifts": [{"start": 10, "end": 5}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================
// MIDDLEWARE
// ============================================================

func TestHealth(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	rec := doJSON(router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	limiter := ratelimit.NewMemoryLimiter(&ratelimit.Config{
		Requests: 2,
		Window:   time.Minute,
		Strategy: "sliding_window",
	})
	defer limiter.Close()

	router, _ := newTestHandler(cfg, &Options{
		RateLimiter:  limiter,
		KeyExtractor: ratelimit.IPKeyExtractor,
	})

	for i := 0; i < 2; i++ {
		rec := doJSON(router, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuth_ProtectedRoutes(t *testing.T) {
	hash, err := passhash.HashPassword("opening-times")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTL = time.Minute
	cfg.Auth.RefreshTokenTTL = time.Hour
	cfg.Auth.Issuer = "transit-planner"
	cfg.Auth.AdminUsername = "ops"
	cfg.Auth.AdminPasswordHash = hash

	router, _ := newTestHandler(cfg, nil)

	// Без токена запись запрещена
	rec := doJSON(router, http.MethodPost, "/v1/networks", networkBody())
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Неверный пароль
	rec = doJSON(router, http.MethodPost, "/v1/auth/token", `{"username": "ops", "password": "wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Выдача токена
	rec = doJSON(router, http.MethodPost, "/v1/auth/token", `{"username": "ops", "password": "opening-times"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	require.NotEmpty(t, token.AccessToken)
	require.NotEmpty(t, token.RefreshToken)
	assert.Equal(t, "Bearer", token.TokenType)

	// С токеном запись разрешена
	req := httptest.NewRequest(http.MethodPost, "/v1/networks", bytes.NewReader([]byte(networkBody())))
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	// Чтение остаётся открытым
	rec = doJSON(router, http.MethodGet, "/v1/passengers?prefix=a", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Обновление по refresh-токену
	rec = doJSON(router, http.MethodPost, "/v1/auth/token", `{"refresh_token": "`+token.RefreshToken+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var refreshed tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshed))
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestAuth_Disabled(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	rec := doJSON(router, http.MethodPost, "/v1/auth/token", `{"username": "ops", "password": "x"}`)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.CORS.Enabled = true
	cfg.HTTP.CORS.AllowedOrigins = []string{"*"}
	cfg.HTTP.CORS.AllowedMethods = []string{"GET", "POST", "DELETE"}
	cfg.HTTP.CORS.MaxAge = 300

	router, _ := newTestHandler(cfg, nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/networks", nil)
	req.Header.Set("Origin", "http://example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
}

// recordingAuditor накапливает записи аудита в памяти
type recordingAuditor struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (r *recordingAuditor) Log(_ context.Context, entry *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingAuditor) Close() error { return nil }

func (r *recordingAuditor) all() []*audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*audit.Entry(nil), r.entries...)
}

func TestAuditTrail(t *testing.T) {
	rec := &recordingAuditor{}
	router, _ := newTestHandler(testConfig(), &Options{Auditor: rec})

	networkID := createNetwork(t, router)
	doJSON(router, http.MethodGet, "/v1/networks/"+networkID+"/maxflow?from=1&to=3", "")
	doJSON(router, http.MethodDelete, "/v1/networks/"+networkID, "")
	doJSON(router, http.MethodGet, "/v1/networks/"+networkID, "")

	entries := rec.all()
	require.Len(t, entries, 3, "plain reads should not be audited")

	assert.Equal(t, audit.ActionCreate, entries[0].Action)
	assert.Equal(t, audit.OutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, "network", entries[0].Resource)

	assert.Equal(t, audit.ActionSolve, entries[1].Action)
	assert.Equal(t, networkID, entries[1].ResourceID)

	assert.Equal(t, audit.ActionDelete, entries[2].Action)
	assert.Equal(t, audit.OutcomeSuccess, entries[2].Outcome)
}

func TestAuditTrail_FailureOutcome(t *testing.T) {
	rec := &recordingAuditor{}
	router, _ := newTestHandler(testConfig(), &Options{Auditor: rec})

	doJSON(router, http.MethodDelete, "/v1/networks/no-such-network", "")

	entries := rec.all()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionDelete, entries[0].Action)
	assert.Equal(t, audit.OutcomeFailure, entries[0].Outcome)
}

func TestSwaggerSpec(t *testing.T) {
	router, _ := newTestHandler(testConfig(), nil)

	rec := doJSON(router, http.MethodGet, "/swagger/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	info, ok := doc["info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Transit Planner API", info["title"])

	rec = doJSON(router, http.MethodGet, "/swagger/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}
