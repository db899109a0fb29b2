package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fsmviz/application/services"
	"fsmviz/domain/core/layout"
	"fsmviz/infrastructure/config"
	redisrepo "fsmviz/infrastructure/persistence/redis"
	"fsmviz/pkg/observability"
)

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zap.NewNop()
	metrics := observability.NewMetrics("test")
	graphs := services.NewGraphService(redisrepo.NewFromClient(client), logger, metrics)

	var sessions *services.SessionService
	if cfg.ReadOnly {
		sessions = services.NewReadOnlySessionService(graphs, logger)
	} else {
		sessions = services.NewSessionService(graphs, logger)
	}

	router := NewRouter(cfg, graphs, sessions, layout.New(), metrics, logger)
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

func defaultTestConfig() *config.Config {
	return &config.Config{
		ServerAddress:    ":0",
		Environment:      "development",
		LayoutIterations: 100,
		CanvasMargin:     40,
		LogLevel:         "info",
		EnableMetrics:    true,
		EnableCORS:       true,
	}
}

func importBody() []byte {
	return []byte(`{
		"graphs": [{
			"graph_id": "fsm1",
			"scope": "top",
			"enum_name": "state_t",
			"state_var": "state",
			"next_state_var": "state_next",
			"reset_state": "IDLE",
			"states": ["IDLE", "RUN", "DONE"],
			"transitions": [
				{"from": "IDLE", "to": "RUN", "cond": "start"},
				{"from": "RUN", "to": "DONE", "cond": ""}
			]
		}]
	}`)
}

func doJSON(t *testing.T, method, url string, body []byte) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func importGraph(t *testing.T, srv *httptest.Server) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/graphs", importBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_Metrics(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_ImportAndGet(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())
	importGraph(t, srv)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/graphs/fsm1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "fsm1", data["graph_id"])
	assert.Equal(t, "IDLE", data["reset_state"])
	meta := data["metadata"].(map[string]interface{})
	assert.EqualValues(t, 3, meta["num_states"])
	assert.EqualValues(t, 2, meta["num_transitions"])
}

func TestRouter_Import_RejectsBadPayload(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/graphs", []byte(`{"graphs": []}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/graphs", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_GetUnknownGraph(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/graphs/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	errInfo := body["error"].(map[string]interface{})
	assert.Equal(t, "GRAPH_NOT_FOUND", errInfo["code"])
}

func TestRouter_EditEndpoints(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())
	importGraph(t, srv)
	base := srv.URL + "/api/v1/graphs/fsm1"

	// add a state
	resp, body := doJSON(t, http.MethodPost, base+"/states", []byte(`{"name": "ERROR"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 4, data["metadata"].(map[string]interface{})["num_states"])

	// duplicate is a conflict
	resp, body = doJSON(t, http.MethodPost, base+"/states", []byte(`{"name": "ERROR"}`))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_STATE", body["error"].(map[string]interface{})["code"])

	// add a transition and capture its identity
	resp, body = doJSON(t, http.MethodPost, base+"/transitions",
		[]byte(`{"from": "DONE", "to": "ERROR", "cond": "fault"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	transitions := body["data"].(map[string]interface{})["transitions"].([]interface{})
	added := transitions[len(transitions)-1].(map[string]interface{})
	id := added["id"].(string)
	require.NotEmpty(t, id)

	// change its guard
	resp, body = doJSON(t, http.MethodPut, base+"/transitions/"+id+"/condition",
		[]byte(`{"cond": "  fault   && retry "}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	transitions = body["data"].(map[string]interface{})["transitions"].([]interface{})
	assert.Equal(t, "fault && retry", transitions[len(transitions)-1].(map[string]interface{})["cond"])

	// remove it again
	resp, _ = doJSON(t, http.MethodDelete, base+"/transitions/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// stale identity now 404s
	resp, _ = doJSON(t, http.MethodDelete, base+"/transitions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// move the reset state
	resp, body = doJSON(t, http.MethodPut, base+"/reset-state", []byte(`{"name": "ERROR"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ERROR", body["data"].(map[string]interface{})["reset_state"])

	// removing a state cascades
	resp, body = doJSON(t, http.MethodDelete, base+"/states/RUN", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data = body["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["metadata"].(map[string]interface{})["num_states"])
}

func TestRouter_LayoutEndpoint(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())
	importGraph(t, srv)

	for _, mode := range []string{"force", "circle"} {
		url := fmt.Sprintf("%s/api/v1/graphs/fsm1/layout?width=800&height=600&mode=%s", srv.URL, mode)
		resp, body := doJSON(t, http.MethodGet, url, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, mode)

		positions := body["data"].(map[string]interface{})["positions"].(map[string]interface{})
		require.Len(t, positions, 3, mode)
		for state, raw := range positions {
			p := raw.(map[string]interface{})
			x := p["x"].(float64)
			y := p["y"].(float64)
			assert.GreaterOrEqual(t, x, 40.0, "%s/%s", mode, state)
			assert.LessOrEqual(t, x, 760.0, "%s/%s", mode, state)
			assert.GreaterOrEqual(t, y, 40.0, "%s/%s", mode, state)
			assert.LessOrEqual(t, y, 560.0, "%s/%s", mode, state)
		}
	}
}

func TestRouter_ViewEndpoint(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())
	importGraph(t, srv)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/graphs/fsm1/view", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	nodes := data["nodes"].([]interface{})
	edges := data["edges"].([]interface{})
	require.Len(t, nodes, 3)
	require.Len(t, edges, 2)

	first := nodes[0].(map[string]interface{})
	assert.Equal(t, "IDLE", first["id"])
	assert.Equal(t, true, first["is_reset"])

	// the unconditional edge has no label
	second := edges[1].(map[string]interface{})
	assert.Equal(t, "", second["label"])
}

func TestRouter_SessionGestures(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())
	importGraph(t, srv)
	base := srv.URL + "/api/v1/graphs/fsm1/session"

	resp, body := doJSON(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle", body["data"].(map[string]interface{})["mode"])

	resp, body = doJSON(t, http.MethodPost, base+"/gestures",
		[]byte(`{"gesture": "click_state", "state": "RUN"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "node_selected", data["mode"])
	assert.Equal(t, "RUN", data["selected_state"])

	// connect RUN -> IDLE with a guard
	resp, _ = doJSON(t, http.MethodPost, base+"/gestures", []byte(`{"gesture": "begin_connect"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = doJSON(t, http.MethodPost, base+"/gestures",
		[]byte(`{"gesture": "click_state", "state": "IDLE"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "awaiting_condition", body["data"].(map[string]interface{})["mode"])

	resp, body = doJSON(t, http.MethodPost, base+"/gestures",
		[]byte(`{"gesture": "provide_condition", "cond": "abort"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle", body["data"].(map[string]interface{})["mode"])

	// the transition was committed to the graph
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/graphs/fsm1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	meta := body["data"].(map[string]interface{})["metadata"].(map[string]interface{})
	assert.EqualValues(t, 3, meta["num_transitions"])

	// a rejected gesture reports the error plus the surviving session
	resp, _ = doJSON(t, http.MethodPost, base+"/gestures", []byte(`{"gesture": "begin_add_state"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = doJSON(t, http.MethodPost, base+"/gestures",
		[]byte(`{"gesture": "confirm_add_state", "name": "RUN"}`))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	payload := body["data"].(map[string]interface{})
	assert.Equal(t, "adding_state", payload["session"].(map[string]interface{})["mode"])
	assert.Equal(t, "DUPLICATE_STATE", payload["error"].(map[string]interface{})["code"])

	// unknown gestures are rejected
	resp, _ = doJSON(t, http.MethodPost, base+"/gestures", []byte(`{"gesture": "wiggle"}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// reset drops the session
	resp, _ = doJSON(t, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = doJSON(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "idle", body["data"].(map[string]interface{})["mode"])
}

func TestRouter_ExportEndpoints(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())
	importGraph(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/graphs/fsm1/export/dot")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "graphviz")

	resp2, err := http.Get(srv.URL + "/api/v1/graphs/fsm1/export/svg?width=800&height=600")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Contains(t, resp2.Header.Get("Content-Type"), "svg")
}

func TestRouter_DeleteGraph(t *testing.T) {
	srv := newTestServer(t, defaultTestConfig())
	importGraph(t, srv)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/graphs/fsm1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/api/v1/graphs/fsm1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_ReadOnlyMode(t *testing.T) {
	roCfg := defaultTestConfig()
	roCfg.ReadOnly = true
	roSrv := newTestServer(t, roCfg)

	resp, body := doJSON(t, http.MethodPost, roSrv.URL+"/api/v1/graphs", importBody())
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "READ_ONLY", body["error"].(map[string]interface{})["code"])

	resp, _ = doJSON(t, http.MethodPost, roSrv.URL+"/api/v1/graphs/fsm1/states", []byte(`{"name": "X"}`))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// reads stay available
	resp, _ = doJSON(t, http.MethodGet, roSrv.URL+"/api/v1/graphs", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.RateLimitPerMinute = 5
	srv := newTestServer(t, cfg)

	var limited bool
	for i := 0; i < 10; i++ {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst beyond the bucket must be limited")
}
