package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MorseWayne/cherry_market/internal/api"
	"github.com/MorseWayne/cherry_market/internal/config"
	"github.com/MorseWayne/cherry_market/internal/domain"
	"github.com/MorseWayne/cherry_market/internal/service"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Version: "test-1", RequestTimeout: time.Second},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"https://shop.example.com"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
		},
	}
}

// setupTestRouter 只访问不触达服务层的路由，处理器的服务依赖留空
func setupTestRouter(checks map[string]HealthCheck) (http.Handler, service.JWTService) {
	jwtService := service.NewJWTService(config.JWTConfig{
		Secret:          "router-test",
		Issuer:          "router-test",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}, nil)
	deps := &Dependencies{
		UserHandler:          api.NewUserHandler(nil, nil),
		ProductHandler:       api.NewProductHandler(nil, nil),
		LikeHandler:          api.NewLikeHandler(nil, nil),
		CategoryHandler:      api.NewCategoryHandler(nil, nil),
		ImageCallbackHandler: api.NewImageCallbackHandler(nil, nil),
		JWTService:           jwtService,
		HealthChecks:         checks,
	}
	return New().Setup(testConfig(), deps, nil), jwtService
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Healthz(t *testing.T) {
	healthy, _ := setupTestRouter(map[string]HealthCheck{
		"mysql": func(context.Context) error { return nil },
	})
	w := serve(healthy, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Code      int    `json:"code"`
		RequestID string `json:"request_id"`
		Data      struct {
			Status  string            `json:"status"`
			Version string            `json:"version"`
			Checks  map[string]string `json:"checks"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Data.Status != "ok" || body.Data.Version != "test-1" || body.Data.Checks["mysql"] != "up" {
		t.Errorf("body = %+v", body)
	}
	if body.RequestID == "" || body.RequestID != w.Header().Get("X-Request-ID") {
		t.Errorf("request_id = %q, header %q", body.RequestID, w.Header().Get("X-Request-ID"))
	}

	degraded, _ := setupTestRouter(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("refused") },
	})
	if w := serve(degraded, httptest.NewRequest(http.MethodGet, "/healthz", nil)); w.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d, want 503", w.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := setupTestRouter(nil)
	serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "market_http_requests_total") {
		t.Error("metrics output missing http request counter")
	}
}

func TestRouter_AuthRequired(t *testing.T) {
	h, _ := setupTestRouter(nil)

	tests := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/products"},
		{http.MethodPut, "/api/v1/products/1"},
		{http.MethodDelete, "/api/v1/products/1"},
		{http.MethodPost, "/api/v1/products/1/likes"},
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodGet, "/api/v1/users/me/likes"},
		{http.MethodPost, "/api/v1/internal/images/callback"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(h, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestRouter_InternalRequiresAdmin(t *testing.T) {
	h, jwtService := setupTestRouter(nil)
	pair, err := jwtService.GenerateTokenPair(&domain.User{ID: 1, Email: "u@example.com", Role: domain.UserRoleUser})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/internal/images/callback", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	if w := serve(h, req); w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRouter_CORSAndNotFound(t *testing.T) {
	h, _ := setupTestRouter(nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	w := serve(h, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	if got := serve(h, req).Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}

	if w := serve(h, httptest.NewRequest(http.MethodGet, "/nope", nil)); w.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", w.Code)
	}
}

func TestAllowedOrigin(t *testing.T) {
	tests := []struct {
		allowed []string
		origin  string
		want    string
	}{
		{[]string{"*"}, "https://a.com", "*"},
		{[]string{"https://a.com"}, "https://A.com", "https://A.com"},
		{[]string{"https://a.com"}, "https://b.com", ""},
		{[]string{"https://a.com"}, "", ""},
	}
	for _, tt := range tests {
		if got := allowedOrigin(tt.allowed, tt.origin); got != tt.want {
			t.Errorf("allowedOrigin(%v, %q) = %q, want %q", tt.allowed, tt.origin, got, tt.want)
		}
	}
}
