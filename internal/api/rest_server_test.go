package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/annel0/frozen-forest/internal/config"
	"github.com/annel0/frozen-forest/internal/game"
	"github.com/annel0/frozen-forest/internal/network"
	"github.com/annel0/frozen-forest/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingPersister struct {
	mu    sync.Mutex
	saved []*protocol.Snapshot
}

func (p *countingPersister) Persist(_ context.Context, snap *protocol.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, snap)
	return nil
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*RestServer, *game.Runner, *countingPersister) {
	t.Helper()
	persister := &countingPersister{}
	runner := game.NewRunner(game.New(config.Default(), game.Options{}), game.RunnerOptions{Persister: persister})
	rs := NewRestServer(Config{
		Runner:   runner,
		Hub:      network.NewHub(runner),
		Registry: prometheus.NewRegistry(),
	})
	return rs, runner, persister
}

func doRequest(rs *RestServer, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	rs.Router().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func TestHealth(t *testing.T) {
	rs, _, _ := newTestServer(t)
	w := doRequest(rs, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Trace-Id"))
}

func TestTilesEndpoint(t *testing.T) {
	rs, runner, _ := newTestServer(t)

	var all struct {
		Total int                  `json:"total"`
		Tiles []protocol.TileState `json:"tiles"`
	}
	w := doRequest(rs, http.MethodGet, "/api/world/tiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &all)
	assert.Equal(t, 121, all.Total)

	var open struct {
		Total int `json:"total"`
	}
	w = doRequest(rs, http.MethodGet, "/api/world/tiles?state=open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &open)
	assert.Equal(t, runner.Snapshot().OpenTiles(), open.Total)

	w = doRequest(rs, http.MethodGet, "/api/world/tiles?state=foggy", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTileEndpoint(t *testing.T) {
	rs, _, _ := newTestServer(t)

	var tile TileResponse
	w := doRequest(rs, http.MethodGet, "/api/world/tiles/0/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &tile)
	assert.Equal(t, "open", tile.State)
	assert.NotEmpty(t, tile.Decorations)

	w = doRequest(rs, http.MethodGet, "/api/world/tiles/5/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &tile)
	assert.Equal(t, "closed", tile.State)

	w = doRequest(rs, http.MethodGet, "/api/world/tiles/99/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(rs, http.MethodGet, "/api/world/tiles/a/0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlayerEndpoint(t *testing.T) {
	rs, _, _ := newTestServer(t)

	var player PlayerResponse
	w := doRequest(rs, http.MethodGet, "/api/player", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &player)
	assert.Equal(t, 10.0, player.Health)
	assert.Equal(t, 1.0, player.HealthFraction)
}

func TestSelectSlot(t *testing.T) {
	rs, _, _ := newTestServer(t)

	w := doRequest(rs, http.MethodPost, "/api/inventory/select", map[string]int{"slot": 1})
	require.Equal(t, http.StatusOK, w.Code)

	var inv struct {
		Selected int `json:"selected"`
		Slots    []struct {
			Attack string `json:"attack"`
		} `json:"slots"`
	}
	w = doRequest(rs, http.MethodGet, "/api/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &inv)
	assert.Equal(t, 1, inv.Selected)
	require.Len(t, inv.Slots, 5)
	assert.Equal(t, "fireball", inv.Slots[1].Attack)

	w = doRequest(rs, http.MethodPost, "/api/inventory/select", map[string]int{"slot": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(rs, http.MethodPost, "/api/inventory/select", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInputMovesPlayer(t *testing.T) {
	rs, runner, _ := newTestServer(t)

	w := doRequest(rs, http.MethodPost, "/api/input", map[string]interface{}{"pressed": []string{"KeyD"}})
	require.Equal(t, http.StatusAccepted, w.Code)

	for i := 0; i < 10; i++ {
		runner.Tick(context.Background(), 1.0/60)
	}

	var player PlayerResponse
	w = doRequest(rs, http.MethodGet, "/api/player", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &player)
	assert.Greater(t, player.X, 0.0)

	w = doRequest(rs, http.MethodPost, "/api/input", "not a frame")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminSave(t *testing.T) {
	rs, _, persister := newTestServer(t)

	w := doRequest(rs, http.MethodPost, "/api/admin/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, persister.saved, 1)
}

func TestStatsAndMetrics(t *testing.T) {
	rs, _, _ := newTestServer(t)

	var stats map[string]interface{}
	w := doRequest(rs, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &stats)
	assert.EqualValues(t, 121, stats["tiles_open"].(float64)+stats["tiles_closed"].(float64))
	assert.EqualValues(t, 0, stats["ws_clients"])
	physics, ok := stats["physics"].(map[string]interface{})
	require.True(t, ok)
	assert.Greater(t, physics["bodies"].(float64), 0.0)

	w = doRequest(rs, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rest_api_http_request_duration_seconds")
}

func TestCORSPreflight(t *testing.T) {
	rs, _, _ := newTestServer(t)
	w := doRequest(rs, http.MethodOptions, "/api/input", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
