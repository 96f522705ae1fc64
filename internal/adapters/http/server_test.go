package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/todosoa"
	"github.com/aretw0/todosoa/internal/logging"
	"github.com/aretw0/todosoa/pkg/adapters/memory"
	"github.com/aretw0/todosoa/pkg/view"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*todosoa.App, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	app, err := todosoa.New(context.Background(),
		todosoa.WithBackend(memory.New()),
		todosoa.WithMetrics(reg),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app, reg
}

func TestGetHealth(t *testing.T) {
	app, reg := newTestApp(t)
	handler := NewHandler(app, reg, logging.NewNop())

	req, _ := http.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	app, reg := newTestApp(t)
	handler := NewHandler(app, reg, logging.NewNop())

	req, _ := http.NewRequest("GET", "/info", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "todosoa-admin", resp["app"])
	assert.Equal(t, todosoa.Version, resp["version"])
}

func TestGetView(t *testing.T) {
	app, reg := newTestApp(t)
	handler := NewHandler(app, reg, logging.NewNop())
	require.NoError(t, app.Add(context.Background(), "Buy milk"))

	req, _ := http.NewRequest("GET", "/view", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var snap view.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "Buy milk", snap.Rows[0].Title)
	assert.True(t, snap.FrameVisible)
}

func TestGetMetrics(t *testing.T) {
	app, reg := newTestApp(t)
	handler := NewHandler(app, reg, logging.NewNop())
	require.NoError(t, app.Add(context.Background(), "Buy milk"))

	req, _ := http.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "todosoa_requests_total")
}

func TestSubscribeEvents(t *testing.T) {
	app, reg := newTestApp(t)
	srv := httptest.NewServer(NewHandler(app, reg, logging.NewNop()))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events", nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	lines := bufio.NewScanner(res.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	require.NoError(t, app.Add(context.Background(), "Buy milk"))

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	require.NotEmpty(t, data)

	var change view.Change
	require.NoError(t, json.Unmarshal([]byte(data), &change))
	assert.NotEmpty(t, change.Kind)
	assert.NotZero(t, change.Version)
}
