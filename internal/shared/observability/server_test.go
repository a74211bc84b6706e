package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerHealth(t *testing.T) {
	srv := NewServer("127.0.0.1:0", func(context.Context) HealthStatus {
		return HealthStatus{Status: "degraded", Components: map[string]string{"tree": "empty"}}
	})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var got HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "empty", got.Components["tree"])
}

func TestServerMetrics(t *testing.T) {
	DiagnosticsTotal.WithLabelValues("unrecognized").Inc()

	srv := NewServer("127.0.0.1:0", nil)
	require.NoError(t, srv.Start())
	defer srv.Stop(context.Background())

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `duml_diagnostics_total{kind="unrecognized"}`)
}

func TestInitTracingWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "duml", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
