package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/itrading/internal/api/handlers"
	"github.com/wonny/itrading/internal/brain"
	"github.com/wonny/itrading/internal/calendar"
	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/enrichment"
	"github.com/wonny/itrading/internal/external/mock"
	"github.com/wonny/itrading/internal/recorder"
	"github.com/wonny/itrading/internal/selection"
	"github.com/wonny/itrading/pkg/logger"
)

func newTestRouter(t *testing.T) (http.Handler, *handlers.StreamHub) {
	t.Helper()
	log := logger.NewNop()

	store, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "api.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	orch := brain.NewOrchestrator(
		mock.NewSource(log),
		selection.NewPipeline(selection.DefaultConfig(), log),
		enrichment.NewEnricher(enrichment.NewRuleAnnotator(log), enrichment.DefaultFinalWeights(), log),
		store,
		selection.Options{Advanced: true, AutoAdjust: true, Mode: contracts.ModeNormal},
		"test-hash",
		log,
	)
	hub := handlers.NewStreamHub(log)
	orch.SetBroadcaster(hub)

	return NewRouter(Handlers{
		Health:    handlers.NewHealthHandler(store, log),
		Selection: handlers.NewSelectionHandler(orch, log),
		Calendar:  handlers.NewCalendarHandler(calendar.Default(), log),
		Stream:    hub,
	}, log), hub
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"driver":"sqlite"`)
}

func TestHealth_WithoutStoreHealth(t *testing.T) {
	h := handlers.NewHealthHandler(recorder.Noop{}, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"store"`)
}

func TestSelectionRunThenLatest(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/selection/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/selection/run", `{"mode":"bull_market","max_stocks":3,"auto_adjust":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var run contracts.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "api", run.Trigger)
	assert.Equal(t, "test-hash", run.ConfigHash)
	assert.Equal(t, contracts.ModeBull, run.Stats.MarketMode)
	assert.LessOrEqual(t, len(run.Selection), 3)

	rec = do(t, router, http.MethodGet, "/api/selection/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var latest contracts.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, run.RunID, latest.RunID)

	rec = do(t, router, http.MethodGet, "/api/selection/runs/"+run.RunID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/selection/runs/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelectionRun_EmptyBodyUsesDefaults(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/selection/run", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var run contracts.RunRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.True(t, run.Stats.Advanced)
}

func TestSelectionRun_BadRequests(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"mode":`},
		{"unknown mode", `{"mode":"sideways"}`},
		{"negative max", `{"max_stocks":-1}`},
		{"bad date", `{"date":"2025-13-40"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/api/selection/run", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetProfile(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/profiles/bull_market", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var p selection.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	want, _ := selection.DefaultProfileSet().Resolve(contracts.ModeBull)
	assert.Equal(t, want, p)

	rec = do(t, router, http.MethodGet, "/api/profiles/crash", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCalendarDay(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/calendar/2025-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var day handlers.CalendarDay
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &day))
	assert.Equal(t, "20250101", day.Date)
	assert.True(t, day.IsHoliday)
	assert.False(t, day.IsTradingDay)
	assert.Equal(t, "20241231", day.LastTradingDay)
	assert.Equal(t, "20250102", day.NextTradingDay)

	rec = do(t, router, http.MethodGet, "/api/calendar/today", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session"`)

	rec = do(t, router, http.MethodGet, "/api/calendar/notadate", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStream_BroadcastsCompletedRun(t *testing.T) {
	router, hub := newTestRouter(t)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/selection"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(server.URL+"/api/selection/run", "application/json", bytes.NewBufferString(`{"skip_enrich":true}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg struct {
		Type    string              `json:"type"`
		Payload handlers.RunSummary `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "selection_run", msg.Type)
	assert.Equal(t, "mock", msg.Payload.Source)
	assert.Equal(t, "api", msg.Payload.Trigger)
}

type fakePinger struct{ err error }

func (fakePinger) Enabled() bool { return true }
func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func TestHealth_CacheDown(t *testing.T) {
	h := handlers.NewHealthHandler(recorder.Noop{}, logger.NewNop()).
		WithCache(fakePinger{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
