package dtos

import (
	"github.com/shopspring/decimal"

	"github.com/iota-uz/legaldesk/modules/finance/domain/invoice"
)

type LineDTO struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind" validate:"omitempty,oneof=timesheet expense"`
	Description string          `json:"description" validate:"max=1000"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"omitempty,len=3,alpha"`
}

type DiscountDTO struct {
	Type  string          `json:"type" validate:"omitempty,oneof=percentage fixed"`
	Value decimal.Decimal `json:"value"`
}

type InvoiceDraftDTO struct {
	Currency      string                     `json:"currency" validate:"required,len=3,alpha"`
	Lines         []LineDTO                  `json:"lines" validate:"dive"`
	ExchangeRates map[string]decimal.Decimal `json:"exchangeRates"`
	Discount      DiscountDTO                `json:"discount"`
}

func (d InvoiceDraftDTO) ToDraft() (invoice.Draft, error) {
	rates, err := invoice.NormalizeRates(d.ExchangeRates)
	if err != nil {
		return invoice.Draft{}, err
	}
	lines := make([]invoice.Line, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, invoice.Line{
			ID:          l.ID,
			Kind:        invoice.LineKind(l.Kind),
			Description: l.Description,
			Amount:      l.Amount,
			Currency:    l.Currency,
		})
	}
	return invoice.Draft{
		Currency:      d.Currency,
		Lines:         lines,
		ExchangeRates: rates,
		Discount: invoice.Discount{
			Type:  invoice.DiscountType(d.Discount.Type),
			Value: d.Discount.Value,
		},
	}, nil
}
