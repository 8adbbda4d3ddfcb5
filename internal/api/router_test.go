// Drillwise - Adaptive Recommendations for Skills Training
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/drillwise

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/drillwise/internal/recommend"
)

type fakeEngine struct {
	trendingCount int
}

func (f *fakeEngine) Stats() recommend.Stats {
	return recommend.Stats{Served: 12, RequestCount: 4, ModelTrained: true}
}

func (f *fakeEngine) Trending(count int) []recommend.TrendingItem {
	f.trendingCount = count
	return []recommend.TrendingItem{
		{ItemID: "drill-1", Popularity: 3.5, Ratings: 7, AverageRating: 4.2},
		{ItemID: "drill-2", Popularity: 2.0, Ratings: 3, AverageRating: 3.9},
	}
}

func (f *fakeEngine) GetStatus() recommend.TrainingStatus {
	return recommend.TrainingStatus{ModelVersion: 3, RatingCount: 42}
}

func (f *fakeEngine) BreakerStates() map[string]string {
	return map[string]string{
		recommend.AlgorithmCollaborative: "closed",
		recommend.AlgorithmContent:       "closed",
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func serve(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s body: %v", target, err)
		}
	}
	return rec, env
}

func newTestHandler(engine Engine, cfg RouterConfig) http.Handler {
	if cfg.MetricsHandler == nil {
		cfg.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		})
	}
	return NewRouter(engine, cfg, zerolog.Nop()).Handler()
}

func TestRouter_Routes(t *testing.T) {
	h := newTestHandler(&fakeEngine{}, RouterConfig{})

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{name: "healthz", method: http.MethodGet, target: "/healthz", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusOK},
		{name: "stats", method: http.MethodGet, target: "/api/v1/stats", wantStatus: http.StatusOK},
		{name: "trending", method: http.MethodGet, target: "/api/v1/trending", wantStatus: http.StatusOK},
		{name: "training", method: http.MethodGet, target: "/api/v1/training", wantStatus: http.StatusOK},
		{name: "breakers", method: http.MethodGet, target: "/api/v1/breakers", wantStatus: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, target: "/api/v1/nope", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPost, target: "/api/v1/stats", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := serve(t, h, tt.method, tt.target)
			if rec.Code != tt.wantStatus {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.target, rec.Code, tt.wantStatus)
			}
			if rec.Header().Get("X-Request-Id") == "" {
				t.Error("missing X-Request-Id header")
			}
		})
	}
}

func TestRouter_Stats(t *testing.T) {
	h := newTestHandler(&fakeEngine{}, RouterConfig{})

	rec, env := serve(t, h, http.MethodGet, "/api/v1/stats")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("status = %d, success = %v", rec.Code, env.Success)
	}
	var st recommend.Stats
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if st.Served != 12 || st.RequestCount != 4 || !st.ModelTrained {
		t.Errorf("stats = %+v", st)
	}
	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Error("meta.request_id not set")
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestRouter_Trending(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "engine default", query: "", wantStatus: http.StatusOK, wantCount: 0},
		{name: "explicit count", query: "?count=5", wantStatus: http.StatusOK, wantCount: 5},
		{name: "zero", query: "?count=0", wantStatus: http.StatusBadRequest},
		{name: "not a number", query: "?count=abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{trendingCount: -1}
			h := newTestHandler(engine, RouterConfig{})

			rec, env := serve(t, h, http.MethodGet, "/api/v1/trending"+tt.query)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if env.Error == nil || env.Error.Code != ErrCodeBadRequest {
					t.Errorf("error = %+v, want %s", env.Error, ErrCodeBadRequest)
				}
				return
			}
			if engine.trendingCount != tt.wantCount {
				t.Errorf("engine asked for %d items, want %d", engine.trendingCount, tt.wantCount)
			}
			var items []recommend.TrendingItem
			if err := json.Unmarshal(env.Data, &items); err != nil {
				t.Fatalf("decode trending: %v", err)
			}
			if len(items) != 2 || items[0].ItemID != "drill-1" {
				t.Errorf("items = %+v", items)
			}
		})
	}
}

func TestRouter_Healthz(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]HealthCheck
		wantStatus int
		wantState  string
	}{
		{name: "no checks", wantStatus: http.StatusOK, wantState: "healthy"},
		{
			name:       "all passing",
			checks:     map[string]HealthCheck{"feed": func() bool { return true }, "store": func() bool { return true }},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name:       "feed down",
			checks:     map[string]HealthCheck{"feed": func() bool { return false }, "store": func() bool { return true }},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeEngine{}, RouterConfig{Checks: tt.checks})

			rec, env := serve(t, h, http.MethodGet, "/healthz")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var hs HealthStatus
			if err := json.Unmarshal(env.Data, &hs); err != nil {
				t.Fatalf("decode health: %v", err)
			}
			if hs.Status != tt.wantState {
				t.Errorf("status = %q, want %q", hs.Status, tt.wantState)
			}
			if !hs.ModelTrained {
				t.Error("model_trained = false")
			}
			if len(hs.Components) != len(tt.checks) {
				t.Errorf("components = %v", hs.Components)
			}
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	h := newTestHandler(&fakeEngine{}, RouterConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	for i := 0; i < 2; i++ {
		if rec, _ := serve(t, h, http.MethodGet, "/api/v1/stats"); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, rec.Code)
		}
	}
	rec, env := serve(t, h, http.MethodGet, "/api/v1/stats")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("error = %+v", env.Error)
	}

	// /healthz is outside the limited group.
	if rec, _ := serve(t, h, http.MethodGet, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}
}

func TestRouter_CORS(t *testing.T) {
	h := newTestHandler(&fakeEngine{}, RouterConfig{CORSOrigins: []string{"https://dash.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRequestIDWithLogging_PreservesIncomingID(t *testing.T) {
	h := newTestHandler(&fakeEngine{}, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/breakers", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Errorf("X-Request-Id = %q, want req-123", got)
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Meta == nil || env.Meta.RequestID != "req-123" {
		t.Errorf("meta = %+v, want request_id req-123", env.Meta)
	}
}
