package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/iota-uz/legaldesk/modules/finance/domain/invoice"
	"github.com/iota-uz/legaldesk/modules/finance/presentation/controllers/dtos"
	"github.com/iota-uz/legaldesk/modules/finance/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/backend"
	"github.com/iota-uz/legaldesk/pkg/composables"
	"github.com/iota-uz/legaldesk/pkg/constants"
	"github.com/iota-uz/legaldesk/pkg/httpapi"
	"github.com/iota-uz/legaldesk/pkg/middleware"
)

type InvoiceController struct {
	app      application.Application
	service  *services.InvoiceService
	basePath string
}

func NewInvoiceController(app application.Application) application.Controller {
	return &InvoiceController{
		app:      app,
		service:  app.Service(services.InvoiceService{}).(*services.InvoiceService),
		basePath: "/finance/api/invoices",
	}
}

func (c *InvoiceController) Key() string {
	return c.basePath
}

func (c *InvoiceController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireUser())
	router.HandleFunc("/preview", c.Preview).Methods(http.MethodPost)
	router.HandleFunc("", c.Save).Methods(http.MethodPost)
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (invoice.Draft, bool) {
	var dto dtos.InvoiceDraftDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed JSON body", nil)
		return invoice.Draft{}, false
	}
	if err := constants.Validate.Struct(dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return invoice.Draft{}, false
	}
	draft, err := dto.ToDraft()
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return invoice.Draft{}, false
	}
	return draft, true
}

func (c *InvoiceController) Preview(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	_ = httpapi.WriteData(w, http.StatusOK, c.service.Preview(r.Context(), draft))
}

func (c *InvoiceController) Save(w http.ResponseWriter, r *http.Request) {
	draft, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	saved, err := c.service.Save(r.Context(), draft)
	var saveErr *invoice.SaveError
	var apiErr *backend.APIError
	switch {
	case err == nil:
		_ = httpapi.WriteData(w, http.StatusCreated, saved)
	case errors.As(err, &saveErr):
		_ = httpapi.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code":    "VALIDATION_ERRORS",
			"message": saveErr.Error(),
			"errors":  saveErr.Messages,
		})
	case errors.As(err, &apiErr):
		composables.UseLogger(r.Context()).WithError(err).Warn("invoice save failed")
		_ = httpapi.WriteError(w, http.StatusBadGateway, "BACKEND_ERROR", apiErr.Message, map[string]string{
			"endpoint": apiErr.Endpoint,
		})
	default:
		composables.UseLogger(r.Context()).WithError(err).Error("invoice save failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "unexpected error", nil)
	}
}
