package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gridhmm/internal/db"
	"github.com/banshee-data/gridhmm/internal/grid"
	"github.com/banshee-data/gridhmm/internal/metrics"
)

const testMap = "..#.\n.#..\n....\n#..#\n"

func setupTestServer(t *testing.T) (*Server, *metrics.Collectors) {
	t.Helper()
	dbInst, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbInst.Close() })

	world, err := grid.Parse(strings.NewReader(testMap))
	require.NoError(t, err)
	m := metrics.New()
	return NewServer(db.NewRunStore(dbInst), world, m), m
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeRun(t *testing.T, w *httptest.ResponseRecorder) db.Run {
	t.Helper()
	var run db.Run
	require.NoError(t, json.NewDecoder(w.Body).Decode(&run))
	return run
}

func TestHealth(t *testing.T) {
	server, _ := setupTestServer(t)
	w := do(t, server.Router(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestCreateRun_DefaultMap(t *testing.T) {
	server, m := setupTestServer(t)
	h := server.Router()

	w := do(t, h, http.MethodPost, "/api/runs", `{"name":"api","path_length":12,"seed":42}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	run := decodeRun(t, w)
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, "api", run.Name)
	assert.Equal(t, 12, run.PathLength)
	assert.Equal(t, int64(42), run.Seed)
	assert.Equal(t, 4, run.Width)
	assert.NotEmpty(t, run.Result)

	n, err := testutil.GatherAndCount(m.Registry(), "gridhmm_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w = do(t, h, http.MethodGet, "/api/runs/"+run.RunID, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeRun(t, w)
	assert.Equal(t, run.RunID, got.RunID)
	assert.Equal(t, run.ViterbiAccuracy, got.ViterbiAccuracy)
}

func TestCreateRun_Deterministic(t *testing.T) {
	server, _ := setupTestServer(t)
	h := server.Router()

	body := `{"path_length":20,"seed":7,"map":"rgb#\nyy#b\nrgbr\n"}`
	a := decodeRun(t, do(t, h, http.MethodPost, "/api/runs", body))
	b := decodeRun(t, do(t, h, http.MethodPost, "/api/runs", body))
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, a.Map, b.Map)
	assert.Equal(t, a.FilterAccuracy, b.FilterAccuracy)
	assert.Equal(t, a.SmoothAccuracy, b.SmoothAccuracy)
	assert.Equal(t, a.ViterbiProbability, b.ViterbiProbability)
	assert.Equal(t, 3, a.Height)
}

func TestCreateRun_DefaultPathLength(t *testing.T) {
	server, _ := setupTestServer(t)
	w := do(t, server.Router(), http.MethodPost, "/api/runs", `{"seed":1}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, defaultPathLength, decodeRun(t, w).PathLength)
}

func TestCreateRun_BadRequests(t *testing.T) {
	server, m := setupTestServer(t)
	h := server.Router()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"seed":`},
		{"unknown field", `{"seed":1,"colour":"red"}`},
		{"zero length", `{"path_length":0}`},
		{"negative length", `{"path_length":-3}`},
		{"too long", `{"path_length":1000000}`},
		{"bad glyph", `{"map":"rgx\n"}`},
		{"ragged map", `{"map":"rg\nr\n"}`},
		{"all walls", `{"map":"##\n##\n"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/runs", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var body map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}

	n, err := testutil.GatherAndCount(m.Registry(), "gridhmm_failures_total")
	require.NoError(t, err)
	assert.Greater(t, n, 0)
}

func TestCreateRun_OversizedMap(t *testing.T) {
	server, _ := setupTestServer(t)

	row := strings.Repeat("r", 65) + "\n"
	body, err := json.Marshal(RunRequest{Map: strings.Repeat(row, 65), Seed: 1})
	require.NoError(t, err)

	w := do(t, server.Router(), http.MethodPost, "/api/runs", string(body))
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "more than")
}

func TestCreateRun_NoMapConfigured(t *testing.T) {
	dbInst, err := db.OpenAndMigrate(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer dbInst.Close()

	server := NewServer(db.NewRunStore(dbInst), nil, nil)
	w := do(t, server.Router(), http.MethodPost, "/api/runs", `{"seed":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListRuns(t *testing.T) {
	server, _ := setupTestServer(t)
	h := server.Router()

	w := do(t, h, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/runs", `{"path_length":5}`).Code)
	}

	w = do(t, h, http.MethodGet, "/api/runs?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []db.Run
	require.NoError(t, json.NewDecoder(w.Body).Decode(&runs))
	require.Len(t, runs, 2)
	for _, r := range runs {
		assert.Empty(t, r.Result, "list should omit the full result")
	}

	for _, bad := range []string{"0", "-1", "abc"} {
		w = do(t, h, http.MethodGet, "/api/runs?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", bad)
	}
}

func TestGetAndDeleteRun_NotFound(t *testing.T) {
	server, _ := setupTestServer(t)
	h := server.Router()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/runs/missing", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/runs/missing/chart", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/runs/missing", "").Code)
}

func TestDeleteRun(t *testing.T) {
	server, _ := setupTestServer(t)
	h := server.Router()

	run := decodeRun(t, do(t, h, http.MethodPost, "/api/runs", `{"path_length":4}`))
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/runs/"+run.RunID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/runs/"+run.RunID, "").Code)
}

func TestRunChart(t *testing.T) {
	server, _ := setupTestServer(t)
	h := server.Router()

	run := decodeRun(t, do(t, h, http.MethodPost, "/api/runs", `{"path_length":6,"seed":3}`))
	w := do(t, h, http.MethodGet, "/api/runs/"+run.RunID+"/chart", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("echarts")))
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)
	h := server.Router()
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/runs", `{"path_length":3}`).Code)

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gridhmm_runs_total")
}

func TestStatusCodeColor(t *testing.T) {
	assert.Contains(t, statusCodeColor(201), colorBoldGreen)
	assert.Contains(t, statusCodeColor(302), colorYellow)
	assert.Contains(t, statusCodeColor(404), colorBoldRed)
	assert.Equal(t, "100", statusCodeColor(100))
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	server, _ := setupTestServer(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
