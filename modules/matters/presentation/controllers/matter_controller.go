package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/iota-uz/legaldesk/modules/matters/domain/matter"
	"github.com/iota-uz/legaldesk/modules/matters/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/backend"
	"github.com/iota-uz/legaldesk/pkg/composables"
	"github.com/iota-uz/legaldesk/pkg/configuration"
	"github.com/iota-uz/legaldesk/pkg/httpapi"
	"github.com/iota-uz/legaldesk/pkg/listmanager"
	"github.com/iota-uz/legaldesk/pkg/metrics"
	"github.com/iota-uz/legaldesk/pkg/middleware"
)

type MatterController struct {
	conf     *configuration.Configuration
	service  *services.MatterService
	metrics  *metrics.Collectors
	list     *listmanager.Manager[matter.Matter]
	search   *listmanager.Manager[matter.Matter]
	basePath string
}

func NewMatterController(app application.Application, conf *configuration.Configuration) application.Controller {
	return &MatterController{
		conf:     conf,
		service:  app.Service(services.MatterService{}).(*services.MatterService),
		metrics:  app.Service(metrics.Collectors{}).(*metrics.Collectors),
		list:     newMatterManager(false),
		search:   newMatterManager(true),
		basePath: "/matters/api/matters",
	}
}

func newMatterManager(fuzzy bool) *listmanager.Manager[matter.Matter] {
	return listmanager.New(listmanager.Config[matter.Matter]{
		SearchFields: []func(matter.Matter) string{
			func(m matter.Matter) string { return m.Number },
			func(m matter.Matter) string { return m.Title },
			func(m matter.Matter) string { return m.ClientName },
			func(m matter.Matter) string { return m.Attorney },
		},
		Fuzzy: fuzzy,
		Categories: map[string]func(matter.Matter) string{
			"status":   func(m matter.Matter) string { return string(m.Status) },
			"practice": func(m matter.Matter) string { return m.PracticeArea },
			"client":   func(m matter.Matter) string { return m.ClientName },
			"attorney": func(m matter.Matter) string { return m.Attorney },
		},
		DateField: matter.Matter.Opened,
		SortFields: map[string]listmanager.Field[matter.Matter]{
			"number": listmanager.TextField(func(m matter.Matter) string { return m.Number }),
			"title":  listmanager.TextField(func(m matter.Matter) string { return m.Title }),
			"client": listmanager.TextField(func(m matter.Matter) string { return m.ClientName }),
			"status": listmanager.TextField(func(m matter.Matter) string { return string(m.Status) }),
			"opened": listmanager.DateField(matter.Matter.Opened),
			"budget": listmanager.NumberField(matter.Matter.BudgetValue),
		},
	})
}

func (c *MatterController) Key() string {
	return c.basePath
}

func (c *MatterController) Register(r *mux.Router) {
	// Subrouter paths must start with a slash, so ":search" lives on the parent.
	r.Handle(c.basePath+":search", middleware.RequireUser()(http.HandlerFunc(c.Search))).Methods(http.MethodGet)

	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireUser())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
}

func (c *MatterController) List(w http.ResponseWriter, r *http.Request) {
	c.serve(w, r, c.list, "matters")
}

func (c *MatterController) Search(w http.ResponseWriter, r *http.Request) {
	c.serve(w, r, c.search, "matters_search")
}

func (c *MatterController) serve(w http.ResponseWriter, r *http.Request, m *listmanager.Manager[matter.Matter], resource string) {
	all, err := c.service.All(r.Context())
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to load matters")
		_ = httpapi.WriteError(w, http.StatusBadGateway, "BACKEND_ERROR", backendMessage(err), nil)
		return
	}
	st := listmanager.ParseQuery(r.URL.Query(), listmanager.QueryOptions{
		DefaultPageSize: c.conf.PageSize,
		MaxPageSize:     c.conf.MaxPageSize,
	})
	c.metrics.ListRequests.WithLabelValues(resource).Inc()
	_ = httpapi.WriteData(w, http.StatusOK, m.View(all, st))
}

func backendMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "matters are unavailable"
}
