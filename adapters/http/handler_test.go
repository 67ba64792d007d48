package http_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	apihttp "github.com/artpar/lifeguard/adapters/http"
	"github.com/artpar/lifeguard/core/executor"
	"github.com/artpar/lifeguard/core/executor/executortest"
	"github.com/artpar/lifeguard/core/value"
)

func healthyDB() *executortest.Recorder {
	return &executortest.Recorder{
		Rows: func(string, []any) ([]executor.Row, error) {
			return []executor.Row{executor.NewRow([]string{"?column?"}, []value.Value{value.Int(1)})}, nil
		},
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	healthHandler := apihttp.NewHealthHandler(nil)

	req := httptest.NewRequest("GET", "/health/live", nil)
	rec := httptest.NewRecorder()
	healthHandler.Liveness(rec, req)

	resp := rec.Result()
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("status = %s, want ok", body["status"])
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	db := healthyDB()
	healthHandler := apihttp.NewHealthHandler(db)

	req := httptest.NewRequest("GET", "/health/ready", nil)
	rec := httptest.NewRecorder()
	healthHandler.Readiness(rec, req)

	resp := rec.Result()
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := db.Last().SQL; got != "SELECT 1" {
		t.Errorf("probe = %q, want SELECT 1", got)
	}
}

func TestHealthHandler_ReadinessUnhealthy(t *testing.T) {
	db := &executortest.Recorder{Err: errors.New("connection refused")}
	healthHandler := apihttp.NewHealthHandler(db)

	req := httptest.NewRequest("GET", "/health/ready", nil)
	rec := httptest.NewRecorder()
	healthHandler.Readiness(rec, req)

	resp := rec.Result()
	if resp.StatusCode != 503 {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	var body map[string]string
	json.NewDecoder(resp.Body).Decode(&body)
	if body["status"] != "unhealthy" {
		t.Errorf("status = %s, want unhealthy", body["status"])
	}
}

func TestHealthHandler_NilDB(t *testing.T) {
	healthHandler := apihttp.NewHealthHandler(nil)

	req := httptest.NewRequest("GET", "/health/ready", nil)
	rec := httptest.NewRecorder()
	healthHandler.Readiness(rec, req)

	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestVersion(t *testing.T) {
	req := httptest.NewRequest("GET", "/version", nil)
	rec := httptest.NewRecorder()
	apihttp.Version("1.2.3")(rec, req)

	var body apihttp.VersionResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Version != "1.2.3" {
		t.Errorf("version = %s, want 1.2.3", body.Version)
	}
	if body.Service != "lifeguard" {
		t.Errorf("service = %s, want lifeguard", body.Service)
	}
}

func TestNewRouter_BasicEndpoints(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "lifeguard_pool_size 2\n")
	})
	router := apihttp.NewRouter(apihttp.NewHealthHandler(healthyDB()), zerolog.Nop(), apihttp.RouterConfig{
		MetricsHandler: metricsHandler,
		MetricsPath:    "/prom",
	})

	tests := []struct {
		path   string
		status int
	}{
		{"/health", 200},
		{"/health/live", 200},
		{"/health/ready", 200},
		{"/version", 200},
		{"/prom", 200},
		{"/metrics", 404},
		{"/unknown", 404},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("GET %s status = %d, want %d", tt.path, rec.Code, tt.status)
			}
		})
	}

	req := httptest.NewRequest("GET", "/prom", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "lifeguard_pool_size") {
		t.Errorf("metrics body = %q, want lifeguard_pool_size", rec.Body.String())
	}
}

func TestNewRouter_NoMetrics(t *testing.T) {
	router := apihttp.NewRouter(apihttp.NewHealthHandler(nil), zerolog.Nop(), apihttp.RouterConfig{})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestNewRouter_RecoversPanics(t *testing.T) {
	router := apihttp.NewRouter(apihttp.NewHealthHandler(nil), zerolog.Nop(), apihttp.RouterConfig{})
	router.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("boom") })

	req := httptest.NewRequest("GET", "/boom", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != 500 {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
