package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/iota-uz/legaldesk/modules/hrm/domain/leave"
	"github.com/iota-uz/legaldesk/modules/hrm/presentation/controllers/dtos"
	"github.com/iota-uz/legaldesk/modules/hrm/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/backend"
	"github.com/iota-uz/legaldesk/pkg/composables"
	"github.com/iota-uz/legaldesk/pkg/constants"
	"github.com/iota-uz/legaldesk/pkg/httpapi"
	"github.com/iota-uz/legaldesk/pkg/middleware"
)

type LeaveController struct {
	app          application.Application
	leaveService *services.LeaveService
	basePath     string
}

func NewLeaveController(app application.Application) application.Controller {
	return &LeaveController{
		app:          app,
		leaveService: app.Service(services.LeaveService{}).(*services.LeaveService),
		basePath:     "/hrm/api/leaves",
	}
}

func (c *LeaveController) Key() string {
	return c.basePath
}

func (c *LeaveController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireUser())
	router.HandleFunc("/calculate", c.Calculate).Methods(http.MethodPost)
	router.HandleFunc("", c.Submit).Methods(http.MethodPost)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (leave.Request, bool) {
	var dto dtos.LeaveRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed JSON body", nil)
		return leave.Request{}, false
	}
	if err := constants.Validate.Struct(dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return leave.Request{}, false
	}
	req, err := dto.ToRequest()
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return leave.Request{}, false
	}
	return req, true
}

func (c *LeaveController) Calculate(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	userID, _ := composables.UseUserID(r.Context())
	calc, err := c.leaveService.Calculate(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteData(w, http.StatusOK, calc)
}

func (c *LeaveController) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	userID, _ := composables.UseUserID(r.Context())
	id, calc, err := c.leaveService.Submit(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	_ = httpapi.WriteData(w, http.StatusCreated, dtos.SubmittedLeaveDTO{ID: id, Calculation: calc})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, leave.ErrEndBeforeStart),
		errors.Is(err, leave.ErrPeriodTooLong),
		errors.Is(err, leave.ErrNoWorkingDays):
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_PERIOD", err.Error(), nil)
	case errors.Is(err, leave.ErrExceedsBalance):
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", err.Error(), nil)
	case errors.As(err, &apiErr):
		composables.UseLogger(r.Context()).WithError(err).Warn("leave backend call failed")
		_ = httpapi.WriteError(w, http.StatusBadGateway, "BACKEND_ERROR", apiErr.Message, map[string]string{
			"endpoint": apiErr.Endpoint,
		})
	default:
		composables.UseLogger(r.Context()).WithError(err).Error("leave request failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "unexpected error", nil)
	}
}
