package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
	"github.com/iota-uz/legaldesk/modules/crm/infrastructure/spreadsheet"
	"github.com/iota-uz/legaldesk/modules/crm/presentation/controllers/dtos"
	"github.com/iota-uz/legaldesk/modules/crm/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/backend"
	"github.com/iota-uz/legaldesk/pkg/composables"
	"github.com/iota-uz/legaldesk/pkg/configuration"
	"github.com/iota-uz/legaldesk/pkg/constants"
	"github.com/iota-uz/legaldesk/pkg/httpapi"
	"github.com/iota-uz/legaldesk/pkg/listmanager"
	"github.com/iota-uz/legaldesk/pkg/metrics"
	"github.com/iota-uz/legaldesk/pkg/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type BulkUploadController struct {
	app      application.Application
	conf     *configuration.Configuration
	service  *services.BulkUploadService
	metrics  *metrics.Collectors
	contacts *listmanager.Manager[dtos.ContactRow]
	basePath string
}

func NewBulkUploadController(app application.Application, conf *configuration.Configuration) application.Controller {
	return &BulkUploadController{
		app:      app,
		conf:     conf,
		service:  app.Service(services.BulkUploadService{}).(*services.BulkUploadService),
		metrics:  app.Service(metrics.Collectors{}).(*metrics.Collectors),
		contacts: newContactRowManager(),
		basePath: "/crm/api/bulk-upload",
	}
}

func newContactRowManager() *listmanager.Manager[dtos.ContactRow] {
	return listmanager.New(listmanager.Config[dtos.ContactRow]{
		SearchFields: []func(dtos.ContactRow) string{
			func(c dtos.ContactRow) string { return c.Name },
			func(c dtos.ContactRow) string { return c.Email },
			func(c dtos.ContactRow) string { return c.Phone },
			func(c dtos.ContactRow) string { return c.ClientName },
		},
		Categories: map[string]func(dtos.ContactRow) string{
			"group":  func(c dtos.ContactRow) string { return c.GroupName },
			"client": func(c dtos.ContactRow) string { return c.ClientName },
			"status": func(c dtos.ContactRow) string {
				if len(c.Errors) > 0 {
					return "error"
				}
				return "ok"
			},
		},
		SortFields: map[string]listmanager.Field[dtos.ContactRow]{
			"row":    listmanager.NumberField(func(c dtos.ContactRow) (float64, bool) { return float64(c.RowNumber), true }),
			"name":   listmanager.TextField(func(c dtos.ContactRow) string { return c.Name }),
			"email":  listmanager.TextField(func(c dtos.ContactRow) string { return c.Email }),
			"client": listmanager.TextField(func(c dtos.ContactRow) string { return c.ClientName }),
		},
	})
}

func (c *BulkUploadController) Key() string {
	return c.basePath
}

func (c *BulkUploadController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireUser())

	router.HandleFunc("/preview", c.Preview).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Cancel).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/confirm", c.Confirm).Methods(http.MethodPost)
	router.HandleFunc("/{id}/corrected", c.Corrected).Methods(http.MethodGet)

	router.HandleFunc("/{id}/contacts", c.ListContacts).Methods(http.MethodGet)
	router.HandleFunc("/{id}/contacts/{idx:[0-9]+}", c.UpdateContact).Methods(http.MethodPut)
	router.HandleFunc("/{id}/contacts/{idx:[0-9]+}", c.RemoveContact).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/contacts/{idx:[0-9]+}/revert", c.RevertContact).Methods(http.MethodPost)

	router.HandleFunc("/{id}/clients/{idx:[0-9]+}", c.UpdateClient).Methods(http.MethodPut)
	router.HandleFunc("/{id}/clients/{idx:[0-9]+}", c.RemoveClient).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/clients/{idx:[0-9]+}/revert", c.RevertClient).Methods(http.MethodPost)
	router.HandleFunc("/{id}/clients/{idx:[0-9]+}/secondary-contacts", c.AddSecondaryContact).Methods(http.MethodPost)
	router.HandleFunc("/{id}/clients/{idx:[0-9]+}/secondary-contacts/{contactID}", c.RemoveSecondaryContact).Methods(http.MethodDelete)
}

func owner(r *http.Request) string {
	id, _ := composables.UseUserID(r.Context())
	return id
}

func index(r *http.Request) int {
	n, _ := strconv.Atoi(mux.Vars(r)["idx"])
	return n
}

func (c *BulkUploadController) Preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.conf.MaxUploadSize)
	if err := r.ParseMultipartForm(c.conf.MaxUploadMemory); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_FILE", "expected a multipart upload", nil)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_FILE", "missing file field", nil)
		return
	}
	defer file.Close()

	mt, err := mimetype.DetectReader(file)
	if err != nil || !isWorkbook(mt) {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_FILE", "expected an .xlsx workbook", nil)
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		c.writeError(w, r, errors.Wrap(err, "rewind upload"))
		return
	}

	v, err := c.service.Preview(r.Context(), owner(r), file)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	_ = httpapi.WriteData(w, http.StatusCreated, v)
}

// isWorkbook accepts xlsx and plain zip containers; excelize rejects zips
// that are not workbooks.
func isWorkbook(mt *mimetype.MIME) bool {
	for ; mt != nil; mt = mt.Parent() {
		if mt.Is(xlsxContentType) || mt.Is("application/zip") {
			return true
		}
	}
	return false
}

func (c *BulkUploadController) Get(w http.ResponseWriter, r *http.Request) {
	v, err := c.service.Get(r.Context(), owner(r), mux.Vars(r)["id"])
	c.respond(w, r, v, err)
}

func (c *BulkUploadController) ListContacts(w http.ResponseWriter, r *http.Request) {
	v, err := c.service.Get(r.Context(), owner(r), mux.Vars(r)["id"])
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	rows := make([]dtos.ContactRow, 0, len(v.Batch.Contacts))
	for i, ct := range v.Batch.Contacts {
		rows = append(rows, dtos.ContactRow{Index: i, Contact: ct, Errors: v.Batch.ErrorsForRow(ct.RowNumber)})
	}
	st := listmanager.ParseQuery(r.URL.Query(), listmanager.QueryOptions{
		DefaultPageSize: c.conf.PageSize,
		MaxPageSize:     c.conf.MaxPageSize,
	})
	c.metrics.ListRequests.WithLabelValues("bulk_upload_contacts").Inc()
	_ = httpapi.WriteData(w, http.StatusOK, c.contacts.View(rows, st))
}

func (c *BulkUploadController) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var dto dtos.ContactEditDTO
	if !decode(w, r, &dto) {
		return
	}
	v, err := c.service.UpdateContact(r.Context(), owner(r), mux.Vars(r)["id"], index(r), dto.ToEdit())
	c.respond(w, r, v, err)
}

func (c *BulkUploadController) RevertContact(w http.ResponseWriter, r *http.Request) {
	v, err := c.service.RevertContact(r.Context(), owner(r), mux.Vars(r)["id"], index(r))
	c.respond(w, r, v, err)
}

func (c *BulkUploadController) RemoveContact(w http.ResponseWriter, r *http.Request) {
	v, err := c.service.RemoveContact(r.Context(), owner(r), mux.Vars(r)["id"], index(r))
	c.respond(w, r, v, err)
}

func (c *BulkUploadController) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var dto dtos.ClientEditDTO
	if !decode(w, r, &dto) {
		return
	}
	v, err := c.service.UpdateClient(r.Context(), owner(r), mux.Vars(r)["id"], index(r), dto.ToEdit())
	c.respond(w, r, v, err)
}

func (c *BulkUploadController) RevertClient(w http.ResponseWriter, r *http.Request) {
	v, err := c.service.RevertClient(r.Context(), owner(r), mux.Vars(r)["id"], index(r))
	c.respond(w, r, v, err)
}

func (c *BulkUploadController) RemoveClient(w http.ResponseWriter, r *http.Request) {
	v, err := c.service.RemoveClient(r.Context(), owner(r), mux.Vars(r)["id"], index(r))
	c.respond(w, r, v, err)
}

func (c *BulkUploadController) AddSecondaryContact(w http.ResponseWriter, r *http.Request) {
	var dto dtos.SecondaryContactDTO
	if !decode(w, r, &dto) {
		return
	}
	if err := constants.Validate.Struct(dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	v, err := c.service.AddSecondaryContact(r.Context(), owner(r), mux.Vars(r)["id"], index(r), dto.ContactID)
	c.respond(w, r, v, err)
}

func (c *BulkUploadController) RemoveSecondaryContact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	v, err := c.service.RemoveSecondaryContact(r.Context(), owner(r), vars["id"], index(r), vars["contactID"])
	c.respond(w, r, v, err)
}

func (c *BulkUploadController) Confirm(w http.ResponseWriter, r *http.Request) {
	res, err := c.service.Confirm(r.Context(), owner(r), mux.Vars(r)["id"])
	c.respond(w, r, res, err)
}

func (c *BulkUploadController) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := c.service.Cancel(r.Context(), owner(r), mux.Vars(r)["id"]); err != nil {
		c.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *BulkUploadController) Corrected(w http.ResponseWriter, r *http.Request) {
	data, err := c.service.Corrected(r.Context(), owner(r), mux.Vars(r)["id"])
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	name := fmt.Sprintf("bulk-upload-corrected-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed JSON body", nil)
		return false
	}
	return true
}

func (c *BulkUploadController) respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	_ = httpapi.WriteData(w, http.StatusOK, data)
}

func (c *BulkUploadController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, services.ErrBatchNotFound), errors.Is(err, bulkupload.ErrIndexOutOfRange):
		_ = httpapi.WriteError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, services.ErrBatchOwner):
		_ = httpapi.WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, bulkupload.ErrHasErrors):
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_ERRORS", err.Error(), nil)
	case errors.Is(err, bulkupload.ErrInvalidState),
		errors.Is(err, bulkupload.ErrNotEditing),
		errors.Is(err, bulkupload.ErrDuplicateClient):
		_ = httpapi.WriteError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
	case errors.Is(err, spreadsheet.ErrInvalidWorkbook),
		errors.Is(err, spreadsheet.ErrMissingColumn),
		errors.Is(err, spreadsheet.ErrEmpty),
		errors.Is(err, spreadsheet.ErrNoSheet),
		errors.Is(err, spreadsheet.ErrTooManyRows):
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_FILE", err.Error(), nil)
	case errors.As(err, &apiErr):
		composables.UseLogger(r.Context()).WithError(err).Warn("bulk upload: backend call failed")
		_ = httpapi.WriteError(w, http.StatusBadGateway, "BACKEND_ERROR", apiErr.Message, map[string]string{
			"endpoint": apiErr.Endpoint,
		})
	default:
		composables.UseLogger(r.Context()).WithError(err).Error("bulk upload request failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "unexpected error", nil)
	}
}
