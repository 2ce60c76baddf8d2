package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/iota-uz/legaldesk/modules/finance/domain/invoice"
	"github.com/iota-uz/legaldesk/pkg/backend"
)

const invoicesEndpoint = "/invoices"

// Preview is the draft's live calculation plus whatever blocks saving.
type Preview struct {
	Summary    invoice.Summary `json:"summary"`
	Formatted  Formatted       `json:"formatted"`
	SaveErrors []string        `json:"saveErrors"`
	CanSave    bool            `json:"canSave"`
}

type Formatted struct {
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

type SavedInvoice struct {
	ID     string `json:"id"`
	Number string `json:"number"`
}

type InvoiceService struct {
	client *backend.Client
}

func NewInvoiceService(client *backend.Client) *InvoiceService {
	return &InvoiceService{client: client}
}

func (s *InvoiceService) Preview(_ context.Context, draft invoice.Draft) *Preview {
	sum := draft.Calculate()
	p := &Preview{
		Summary: sum,
		Formatted: Formatted{
			Subtotal: invoice.Format(sum.Subtotal, sum.Currency),
			Discount: invoice.Format(sum.Discount, sum.Currency),
			Total:    invoice.Format(sum.Total, sum.Currency),
		},
		SaveErrors: []string{},
		CanSave:    true,
	}
	var saveErr *invoice.SaveError
	if err := draft.ValidateForSave(); errors.As(err, &saveErr) {
		p.SaveErrors = saveErr.Messages
		p.CanSave = false
	}
	return p
}

// Save sends the draft to the backend. A draft that fails ValidateForSave
// is rejected without a round trip.
func (s *InvoiceService) Save(ctx context.Context, draft invoice.Draft) (SavedInvoice, error) {
	if err := draft.ValidateForSave(); err != nil {
		return SavedInvoice{}, err
	}
	return backend.Post[SavedInvoice](ctx, s.client, invoicesEndpoint, draft)
}
