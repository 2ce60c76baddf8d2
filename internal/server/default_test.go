package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/configuration"
	"github.com/iota-uz/legaldesk/pkg/eventbus"
)

func newServer(t *testing.T, env string) http.Handler {
	t.Helper()
	logger := logrus.New()
	conf := &configuration.Configuration{
		GoAppEnvironment: env,
		AllowedOrigins:   "http://localhost:3000",
		RealIPHeader:     "X-Real-IP",
		RequestIDHeader:  "X-Request-ID",
		UserIDHeader:     "X-User-ID",
		RateLimit:        configuration.RateLimitOptions{Enabled: true, GlobalRPS: 100, Storage: "memory"},
		OpsGuard:         configuration.OpsGuardOptions{Enabled: true, Token: "secret"},
		Prometheus:       configuration.PrometheusOptions{Path: "/debug/prometheus"},
	}
	app := application.New(&application.ApplicationOptions{EventBus: eventbus.NewEventPublisher(logger), Logger: logger})
	srv, err := Default(&DefaultOptions{Logger: logger, Configuration: conf, Application: app})
	require.NoError(t, err)
	return srv.Handler()
}

func TestDefault_Health(t *testing.T) {
	h := newServer(t, "development")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDefault_HealthGuardedInProduction(t *testing.T) {
	h := newServer(t, configuration.Production)
	req := httptest.NewRequest(http.MethodGet, HealthPath, nil)
	req.RemoteAddr = "203.0.113.9:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDefault_UnknownRouteIsJSON(t *testing.T) {
	h := newServer(t, "development")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")
	require.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
}
