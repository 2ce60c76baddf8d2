package invoice

import (
	"github.com/shopspring/decimal"
)

const (
	WarningPercentageRange = "Discount percentage should be between 0 and 100"
	WarningFixedNegative   = "Fixed discount cannot be negative"
	WarningFixedExceeds    = "Fixed discount exceeds the subtotal"
)

// CurrencyBreakdown sums the lines billed in one currency.
type CurrencyBreakdown struct {
	Currency  string          `json:"currency"`
	Lines     int             `json:"lines"`
	Original  decimal.Decimal `json:"original"`
	Rate      decimal.Decimal `json:"rate"`
	HasRate   bool            `json:"hasRate"`
	Converted decimal.Decimal `json:"converted"`
}

type Summary struct {
	Currency  string              `json:"currency"`
	Breakdown []CurrencyBreakdown `json:"breakdown"`
	Subtotal  decimal.Decimal     `json:"subtotal"`
	Discount  decimal.Decimal     `json:"discount"`
	Total     decimal.Decimal     `json:"total"`
	// Warnings do not block saving.
	Warnings []string `json:"warnings"`
}

// Calculate computes the live preview. Lines in the invoice currency count
// as is, other lines are multiplied by their rate, and a line whose rate is
// still missing counts with its unconverted amount.
func (d Draft) Calculate() Summary {
	inv := d.currency()
	s := Summary{Currency: inv, Warnings: []string{}}

	byCurrency := map[string]*CurrencyBreakdown{}
	order := []string{}
	for _, l := range d.Lines {
		code := d.lineCurrency(l)
		b, ok := byCurrency[code]
		if !ok {
			b = &CurrencyBreakdown{Currency: code}
			if code == inv {
				b.Rate, b.HasRate = decimal.NewFromInt(1), true
			} else {
				b.Rate, b.HasRate = d.rate(code)
			}
			byCurrency[code] = b
			order = append(order, code)
		}
		b.Lines++
		b.Original = b.Original.Add(l.Amount)
	}

	subtotal := decimal.Zero
	for _, code := range order {
		b := byCurrency[code]
		if b.HasRate {
			b.Converted = b.Original.Mul(b.Rate)
		} else {
			b.Converted = b.Original
		}
		subtotal = subtotal.Add(b.Converted)
		s.Breakdown = append(s.Breakdown, *b)
	}

	places := fraction(inv)
	s.Subtotal = subtotal.Round(places)
	s.Discount = d.discountAmount(s.Subtotal, &s.Warnings).Round(places)
	s.Total = s.Subtotal.Sub(s.Discount)
	return s
}

func (d Draft) discountAmount(subtotal decimal.Decimal, warnings *[]string) decimal.Decimal {
	v := d.Discount.Value
	switch d.Discount.Type {
	case DiscountPercentage:
		if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
			*warnings = append(*warnings, WarningPercentageRange)
		}
		return subtotal.Mul(v).Div(decimal.NewFromInt(100))
	case DiscountFixed:
		if v.IsNegative() {
			*warnings = append(*warnings, WarningFixedNegative)
		} else if v.GreaterThan(subtotal) {
			*warnings = append(*warnings, WarningFixedExceeds)
		}
		return v
	default:
		return decimal.Zero
	}
}
