package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/iota-uz/legaldesk/modules/dashboard/domain/layout"
	"github.com/iota-uz/legaldesk/modules/dashboard/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/composables"
	"github.com/iota-uz/legaldesk/pkg/httpapi"
	"github.com/iota-uz/legaldesk/pkg/middleware"
)

const maxPatchBytes = 64 << 10

type LayoutController struct {
	service  *services.LayoutService
	basePath string
}

type saveLayoutDTO struct {
	Widgets []layout.Widget `json:"widgets"`
}

func NewLayoutController(app application.Application) application.Controller {
	return &LayoutController{
		service:  app.Service(services.LayoutService{}).(*services.LayoutService),
		basePath: "/dashboard/api/layout",
	}
}

func (c *LayoutController) Key() string {
	return c.basePath
}

func (c *LayoutController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireUser())
	router.HandleFunc("", c.Get).Methods(http.MethodGet)
	router.HandleFunc("", c.Save).Methods(http.MethodPut)
	router.HandleFunc("", c.Patch).Methods(http.MethodPatch)
	router.HandleFunc("", c.Reset).Methods(http.MethodDelete)
}

func (c *LayoutController) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := composables.UseUserID(r.Context())
	l, err := c.service.Load(r.Context(), userID)
	c.respond(w, r, l, err)
}

func (c *LayoutController) Save(w http.ResponseWriter, r *http.Request) {
	var dto saveLayoutDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed JSON body", nil)
		return
	}
	userID, _ := composables.UseUserID(r.Context())
	l, err := c.service.Save(r.Context(), userID, dto.Widgets)
	c.respond(w, r, l, err)
}

// Patch takes a JSON Patch against {"widgets": [...]} and answers with the
// saved layout plus an undo patch.
func (c *LayoutController) Patch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPatchBytes))
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "unreadable patch body", nil)
		return
	}
	userID, _ := composables.UseUserID(r.Context())
	res, err := c.service.Patch(r.Context(), userID, body)
	if errors.Is(err, layout.ErrInvalidPatch) {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_PATCH", err.Error(), nil)
		return
	}
	if err != nil {
		c.respond(w, r, layout.Layout{}, err)
		return
	}
	_ = httpapi.WriteData(w, http.StatusOK, res)
}

func (c *LayoutController) Reset(w http.ResponseWriter, r *http.Request) {
	userID, _ := composables.UseUserID(r.Context())
	l, err := c.service.Reset(r.Context(), userID)
	c.respond(w, r, l, err)
}

func (c *LayoutController) respond(w http.ResponseWriter, r *http.Request, l layout.Layout, err error) {
	switch {
	case err == nil:
		_ = httpapi.WriteData(w, http.StatusOK, l)
	case errors.Is(err, layout.ErrInvalidLayout):
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "INVALID_LAYOUT", err.Error(), nil)
	default:
		composables.UseLogger(r.Context()).WithError(err).Error("layout store failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "layout store unavailable", nil)
	}
}
