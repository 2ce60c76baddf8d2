package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
	"github.com/iota-uz/legaldesk/pkg/backend"
)

func TestCommitter_SkipsPlaceholderRows(t *testing.T) {
	var got commitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, commitEndpoint, r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"groupsCreated":1,"clientsCreated":1,"contactsCreated":1}}`))
	}))
	defer srv.Close()

	c := NewCommitter(backend.NewClient(backend.Options{BaseURL: srv.URL}))
	res, err := c.Commit(context.Background(), bulkupload.PreviewBatch{
		Groups:  []bulkupload.Group{{Name: "Law"}},
		Clients: []bulkupload.Client{{ID: 1, GroupName: "Law", Name: "Acme", Industry: "Legal"}},
		Contacts: []bulkupload.Contact{
			{RowNumber: 2, GroupName: "Law", ClientName: "Acme", Name: "Alice"},
			{RowNumber: 3, GroupName: "Law", ClientName: "Acme"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, bulkupload.CommitResult{GroupsCreated: 1, ClientsCreated: 1, ContactsCreated: 1}, res)
	require.Len(t, got.Contacts, 1)
	require.Equal(t, "Alice", got.Contacts[0].Name)
}

func TestCommitter_BackendRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success":false,"message":"duplicate client"}`))
	}))
	defer srv.Close()

	c := NewCommitter(backend.NewClient(backend.Options{BaseURL: srv.URL}))
	_, err := c.Commit(context.Background(), bulkupload.PreviewBatch{})
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "duplicate client", apiErr.Message)
}
