package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apphttp "propensia_dashboard/internal/http"
	"propensia_dashboard/internal/web"
	"propensia_dashboard/platform/logger"

	"github.com/gin-gonic/gin"
)

type testHTTPConfig struct{}

func (testHTTPConfig) GetHTTPAddr() string       { return ":0" }
func (testHTTPConfig) GetCORSAllowAll() bool     { return false }
func (testHTTPConfig) GetCORSOrigins() []string  { return []string{"http://localhost:8080"} }
func (testHTTPConfig) GetCORSAllowCreds() bool   { return false }
func (testHTTPConfig) GetDashboardPageSize() int { return 10 }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type pingModule struct{ registered bool }

func (m *pingModule) Name() string { return "ping" }

func (m *pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.registered = ctx.DraftingRateLimiter != nil
	ctx.Engine.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func newTestApp(t *testing.T, health apphttp.HealthChecker, modules ...apphttp.Module) *apphttp.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	renderer, err := web.NewRenderer(logger.Discard())
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return &apphttp.App{
		Config:   testHTTPConfig{},
		Logger:   logger.Discard(),
		Health:   health,
		Renderer: renderer,
		Modules:  modules,
	}
}

func serve(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestRouterRegistersModulesAndSecurityHeaders(t *testing.T) {
	module := &pingModule{}
	engine := New(newTestApp(t, nil, module))

	rec := serve(engine, "/ping")
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("unexpected module response %d %q", rec.Code, rec.Body.String())
	}
	if !module.registered {
		t.Fatalf("expected router context with drafting rate limiter")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a request id")
	}
}

func TestHealthReportsCRMState(t *testing.T) {
	healthy := New(newTestApp(t, pingFunc(func(context.Context) error { return nil })))
	if rec := serve(healthy, "/api/health"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health %d %s", rec.Code, rec.Body.String())
	}

	down := New(newTestApp(t, pingFunc(func(context.Context) error { return errors.New("login failed") })))
	if rec := serve(down, "/api/health"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestStaticAssetsAndNotFoundPage(t *testing.T) {
	engine := New(newTestApp(t, nil))

	if rec := serve(engine, "/static/approve.js"); rec.Code != http.StatusOK {
		t.Fatalf("expected static asset, got %d", rec.Code)
	}

	rec := serve(engine, "/nope")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "does not exist") {
		t.Fatalf("expected html 404 page, got %d", rec.Code)
	}
}
