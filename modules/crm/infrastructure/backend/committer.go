package backend

import (
	"context"

	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
	"github.com/iota-uz/legaldesk/pkg/backend"
)

const commitEndpoint = "/crm/bulk-upload/commit"

type commitRequest struct {
	Groups   []bulkupload.Group   `json:"groups"`
	Clients  []bulkupload.Client  `json:"clients"`
	Contacts []bulkupload.Contact `json:"contacts"`
}

// Committer creates the groups, clients and contacts of a confirmed batch
// through the backend API.
type Committer struct {
	client *backend.Client
}

func NewCommitter(client *backend.Client) *Committer {
	return &Committer{client: client}
}

func (c *Committer) Commit(ctx context.Context, batch bulkupload.PreviewBatch) (bulkupload.CommitResult, error) {
	// Placeholder rows only carry their client and are not created.
	contacts := make([]bulkupload.Contact, 0, len(batch.Contacts))
	for _, ct := range batch.Contacts {
		if !ct.IsEmpty() {
			contacts = append(contacts, ct)
		}
	}
	return backend.Post[bulkupload.CommitResult](ctx, c.client, commitEndpoint, commitRequest{
		Groups:   batch.Groups,
		Clients:  batch.Clients,
		Contacts: contacts,
	})
}
