package api

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SystemStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/system/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"running": true, "pid": 4242}`))
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})

	status, err := client.SystemStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Running)
	require.NotNil(t, status.PID)
	assert.Equal(t, 4242, *status.PID)
}

func TestClient_LatestMeasurements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/measurements/latest", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"temperature": 21.3, "humidity": 87.5, "co2": 812, "fan_speed": 40}`))
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})

	m, err := client.LatestMeasurements(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 21.3, m.Temperature)
	assert.Equal(t, 87.5, m.Humidity)
	assert.Equal(t, 812.0, m.CO2)
	assert.Equal(t, 40.0, m.FanSpeed)
}

func TestClient_Settings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"environment": {
				"current_phase": "growing",
				"phases": {
					"growing": {"temp_setpoint": 21, "rh_setpoint": 90, "co2_setpoint": 800}
				}
			},
			"humidifier": {"burst_min_s": 1.5, "burst_max_s": 10},
			"pid": {"kp": -10, "ki": -0.1, "kd": 0}
		}`))
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})

	settings, err := client.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "growing", settings.Environment.CurrentPhase)
	assert.Equal(t, 21.0, settings.Environment.Phases["growing"].TempSetpoint)
	assert.Equal(t, 800, settings.Environment.Phases["growing"].CO2Setpoint)
	assert.Equal(t, 1.5, settings.Humidifier.BurstMinS)
	assert.Equal(t, -10.0, settings.PID.Kp)
}

func TestClient_ReadsAreCached(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"running": false}`))
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, CacheTTL: time.Minute})

	for range 3 {
		_, err := client.SystemStatus(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), hits.Load(), "repeated reads within TTL should hit the cache")
}

func TestClient_WritesInvalidateCache(t *testing.T) {
	var statusHits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/system/status" {
			statusHits.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"running": true}`))
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, CacheTTL: time.Minute})

	_, err := client.SystemStatus(context.Background())
	require.NoError(t, err)
	_, err = client.SystemStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), statusHits.Load())

	// A system control action must invalidate the cached status
	require.NoError(t, client.SystemControl(context.Background(), "stop"))

	_, err = client.SystemStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), statusHits.Load(), "write should have evicted the cached status")
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "controller offline", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})

	_, err := client.SystemStatus(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Contains(t, statusErr.Error(), "503")
}

func TestClient_OpenLogStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/logs/stream", r.URL.Path)
		require.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		_, _ = w.Write([]byte("data: hello\n\n"))
		flusher.Flush()
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})

	body, err := client.OpenLogStream(context.Background())
	require.NoError(t, err)
	defer body.Close()

	line, err := bufio.NewReader(body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: hello\n", line)
}

func TestClient_OpenLogStreamOutlivesRequestTimeout(t *testing.T) {
	// Emit frames for well past the client's request timeout. The stream
	// must keep delivering; only connection setup is bounded by Timeout.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for i := range 20 {
			fmt.Fprintf(w, "data: line %d\n\n", i)
			flusher.Flush()
			time.Sleep(30 * time.Millisecond)
		}
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Timeout: 100 * time.Millisecond})

	start := time.Now()
	body, err := client.OpenLogStream(context.Background())
	require.NoError(t, err)
	defer body.Close()

	var lines int
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "data: ") {
			lines++
		}
		if lines >= 10 && time.Since(start) > 3*100*time.Millisecond {
			break
		}
	}
	require.NoError(t, scanner.Err(), "stream read must not be cut off by the request timeout")
	assert.GreaterOrEqual(t, lines, 10, "expected frames from past the timeout window")
	assert.Greater(t, time.Since(start), 100*time.Millisecond)
}

func TestClient_OpenLogStreamRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})

	_, err := client.OpenLogStream(context.Background())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}
