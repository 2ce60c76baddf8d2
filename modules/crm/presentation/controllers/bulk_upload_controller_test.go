package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
	"github.com/iota-uz/legaldesk/modules/crm/infrastructure/spreadsheet"
	"github.com/iota-uz/legaldesk/modules/crm/services"
	"github.com/iota-uz/legaldesk/pkg/application"
	"github.com/iota-uz/legaldesk/pkg/configuration"
	"github.com/iota-uz/legaldesk/pkg/eventbus"
	"github.com/iota-uz/legaldesk/pkg/metrics"
	"github.com/iota-uz/legaldesk/pkg/middleware"
)

type okCommitter struct{ calls int }

func (c *okCommitter) Commit(context.Context, bulkupload.PreviewBatch) (bulkupload.CommitResult, error) {
	c.calls++
	return bulkupload.CommitResult{ContactsCreated: 1}, nil
}

func newRouter(t *testing.T, committer bulkupload.Committer) *mux.Router {
	t.Helper()
	conf := &configuration.Configuration{
		UserIDHeader:    "X-User-ID",
		RealIPHeader:    "X-Real-IP",
		PageSize:        10,
		MaxPageSize:     50,
		MaxUploadSize:   1 << 20,
		MaxUploadMemory: 1 << 20,
	}
	logger := logrus.New()
	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	collectors := metrics.NewCollectors(nil)
	app.RegisterServices(
		collectors,
		services.NewBulkUploadService(committer, app.EventPublisher(), collectors, services.BulkUploadOptions{TTL: time.Hour}),
	)
	r := mux.NewRouter()
	r.Use(middleware.RequestParams(conf))
	NewBulkUploadController(app, conf).Register(r)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, path, user string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, h http.Handler, user string) services.BatchView {
	t.Helper()
	b := bulkupload.PreviewBatch{
		Groups:  []bulkupload.Group{{Name: "Law"}},
		Clients: []bulkupload.Client{{ID: 1, GroupName: "Law", Name: "Acme", Industry: "Legal"}},
		Contacts: []bulkupload.Contact{
			{RowNumber: 2, GroupName: "Law", ClientName: "Acme", Name: "Alice", Email: "alice@acme.com"},
			{RowNumber: 3, GroupName: "Law", ClientName: "Acme", Name: "Bob", Email: "bob@"},
		},
	}
	data, err := spreadsheet.WriteCorrected(b)
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "contacts.xlsx")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/crm/api/bulk-upload/preview", user, buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var v services.BatchView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestBulkUploadController_Flow(t *testing.T) {
	committer := &okCommitter{}
	h := newRouter(t, committer)
	v := upload(t, h, "u1")
	require.Len(t, v.Batch.Errors, 1)
	base := "/crm/api/bulk-upload/" + v.ID

	rec := do(t, h, http.MethodPost, base+"/confirm", "u1", nil, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Zero(t, committer.calls)

	rec = do(t, h, http.MethodGet, base+"/contacts?category.status=error", "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"totalItems":1`)
	require.Contains(t, rec.Body.String(), `"name":"Bob"`)

	rec = do(t, h, http.MethodPut, base+"/contacts/1", "u1", []byte(`{"name":"Bob","email":"bob@acme.com"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"canConfirm":true`)

	rec = do(t, h, http.MethodGet, base+"/corrected", "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	rec = do(t, h, http.MethodPost, base+"/confirm", "u1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, committer.calls)

	rec = do(t, h, http.MethodGet, base, "u1", nil, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkUploadController_Guards(t *testing.T) {
	h := newRouter(t, &okCommitter{})
	v := upload(t, h, "u1")
	base := "/crm/api/bulk-upload/" + v.ID

	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, base, "", nil, "").Code)
	require.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, base, "u2", nil, "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, base+"/contacts/9", "u1", nil, "").Code)
	require.Equal(t, http.StatusBadRequest,
		do(t, h, http.MethodPost, base+"/clients/0/secondary-contacts", "u1", []byte(`{}`), "application/json").Code)

	rec := do(t, h, http.MethodPost, base+"/clients/0/secondary-contacts", "u1", []byte(`{"contactId":"c7"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"secondaryContacts":"c7"`)

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, base, "u1", nil, "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, base, "u1", nil, "").Code)
}

func TestBulkUploadController_RejectsBadFile(t *testing.T) {
	h := newRouter(t, &okCommitter{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "contacts.xlsx")
	require.NoError(t, err)
	_, _ = part.Write([]byte("plain text"))
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/crm/api/bulk-upload/preview", "u1", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_FILE")
	require.Contains(t, rec.Body.String(), "expected an .xlsx workbook")
}
