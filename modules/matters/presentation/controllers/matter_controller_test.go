package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legaldesk/modules/matters/domain/matter"
	"github.com/iota-uz/legaldesk/modules/matters/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/configuration"
	"github.com/iota-uz/legaldesk/pkg/eventbus"
	"github.com/iota-uz/legaldesk/pkg/listmanager"
	"github.com/iota-uz/legaldesk/pkg/metrics"
	"github.com/iota-uz/legaldesk/pkg/middleware"
)

type staticSource []matter.Matter

func (s staticSource) Matters(context.Context) ([]matter.Matter, error) {
	return s, nil
}

func date(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func fixtures() staticSource {
	return staticSource{
		{ID: "1", Number: "M-001", Title: "Lease review", ClientName: "Acme Corp", Status: matter.StatusOpen, OpenedAt: date("2025-01-06")},
		{ID: "2", Number: "M-002", Title: "Merger", ClientName: "Beta LLC", Status: matter.StatusClosed, OpenedAt: date("2024-11-01")},
		{ID: "3", Number: "M-003", Title: "Trademark", ClientName: "Acme, Inc.", Status: matter.StatusOpen},
		{ID: "4", Number: "M-004", Title: "Employment dispute", ClientName: "Gamma", Status: matter.StatusPending, OpenedAt: date("2024-12-15")},
	}
}

func newRouter(t *testing.T) (*mux.Router, *metrics.Collectors) {
	t.Helper()
	conf := &configuration.Configuration{UserIDHeader: "X-User-ID", PageSize: 2, MaxPageSize: 50}
	logger := logrus.New()
	app := application.New(&application.ApplicationOptions{EventBus: eventbus.NewEventPublisher(logger), Logger: logger})
	collectors := metrics.NewCollectors(nil)
	svc := services.NewMatterService(fixtures(), services.MatterServiceOptions{Logger: logger})
	t.Cleanup(svc.Close)
	app.RegisterServices(collectors, svc)

	r := mux.NewRouter()
	r.Use(middleware.RequestParams(conf))
	NewMatterController(app, conf).Register(r)
	return r, collectors
}

func get(t *testing.T, h http.Handler, path string, query url.Values) (int, listmanager.Page[matter.Matter]) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path+"?"+query.Encode(), nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body struct {
		Data listmanager.Page[matter.Matter] `json:"data"`
	}
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body.Data
}

func ids(items []matter.Matter) []string {
	out := make([]string, 0, len(items))
	for _, m := range items {
		out = append(out, m.ID)
	}
	return out
}

func TestMatterController_SearchIgnoresCaseAndTrailingSpace(t *testing.T) {
	h, _ := newRouter(t)
	for _, q := range []string{"Acme", "acme "} {
		code, page := get(t, h, "/matters/api/matters", url.Values{"q": {q}})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, []string{"1", "3"}, ids(page.Items), q)
		require.Equal(t, 2, page.TotalItems)
	}
}

func TestMatterController_FilterSortPaginate(t *testing.T) {
	h, collectors := newRouter(t)

	_, page := get(t, h, "/matters/api/matters", url.Values{"category.status": {"open,pending"}, "sort": {"opened"}, "dir": {"desc"}})
	require.Equal(t, []string{"1", "4"}, ids(page.Items))
	require.Equal(t, 3, page.TotalItems)
	require.Equal(t, 2, page.TotalPages)

	_, page = get(t, h, "/matters/api/matters", url.Values{"category.status": {"open,pending"}, "sort": {"opened"}, "dir": {"desc"}, "page": {"2"}})
	require.Equal(t, []string{"3"}, ids(page.Items))

	_, page = get(t, h, "/matters/api/matters", url.Values{"page": {"9"}})
	require.Empty(t, page.Items)
	require.Equal(t, 4, page.TotalItems)

	require.InDelta(t, 3, testutil.ToFloat64(collectors.ListRequests.WithLabelValues("matters")), 0)
}

func TestMatterController_FuzzySearch(t *testing.T) {
	h, collectors := newRouter(t)
	code, page := get(t, h, "/matters/api/matters:search", url.Values{"q": {"emp dispute"}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, []string{"4"}, ids(page.Items))
	require.InDelta(t, 1, testutil.ToFloat64(collectors.ListRequests.WithLabelValues("matters_search")), 0)
}

func TestMatterController_RequiresUser(t *testing.T) {
	h, _ := newRouter(t)
	for _, path := range []string{"/matters/api/matters", "/matters/api/matters:search"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}
