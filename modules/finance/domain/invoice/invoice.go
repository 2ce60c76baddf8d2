package invoice

import (
	"maps"
	"slices"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrConflictingRates = errors.New("conflicting exchange rates")

type LineKind string

const (
	LineTimesheet LineKind = "timesheet"
	LineExpense   LineKind = "expense"
)

// Line is a timesheet entry or expense billed on the invoice, in its own
// currency. An empty currency means the invoice currency.
type Line struct {
	ID          string          `json:"id"`
	Kind        LineKind        `json:"kind"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
}

type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Draft is an invoice being prepared. ExchangeRates maps a source currency
// to the number of invoice currency units per source unit.
type Draft struct {
	Currency      string                     `json:"currency"`
	Lines         []Line                     `json:"lines"`
	ExchangeRates map[string]decimal.Decimal `json:"exchangeRates"`
	Discount      Discount                   `json:"discount"`
}

// NormalizeCode upper-cases and trims a currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (d Draft) currency() string {
	return NormalizeCode(d.Currency)
}

func (d Draft) lineCurrency(l Line) string {
	if c := NormalizeCode(l.Currency); c != "" {
		return c
	}
	return d.currency()
}

// NormalizeRates re-keys rates by normalized currency code. Keys naming the
// same currency must carry equal rates.
func NormalizeRates(rates map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(rates))
	for _, k := range slices.Sorted(maps.Keys(rates)) {
		code, v := NormalizeCode(k), rates[k]
		if prev, ok := out[code]; ok && !prev.Equal(v) {
			return nil, errors.Wrapf(ErrConflictingRates, "%s is given as %s and %s", code, prev, v)
		}
		out[code] = v
	}
	return out, nil
}

func (d Draft) rate(code string) (decimal.Decimal, bool) {
	if v, ok := d.ExchangeRates[code]; ok {
		return v, true
	}
	for _, k := range slices.Sorted(maps.Keys(d.ExchangeRates)) {
		if NormalizeCode(k) == code {
			return d.ExchangeRates[k], true
		}
	}
	return decimal.Zero, false
}

// ForeignCurrencies lists, sorted, the line currencies that differ from
// the invoice currency.
func (d Draft) ForeignCurrencies() []string {
	inv := d.currency()
	var out []string
	for _, l := range d.Lines {
		c := d.lineCurrency(l)
		if c != inv && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}

// fraction is the number of minor unit digits of code, 2 when unknown.
func fraction(code string) int32 {
	if c := money.GetCurrency(code); c != nil {
		return int32(c.Fraction)
	}
	return 2
}

// Format renders amount in code the way go-money displays it.
func Format(amount decimal.Decimal, code string) string {
	code = NormalizeCode(code)
	if money.GetCurrency(code) == nil {
		return amount.StringFixed(2) + " " + code
	}
	f := fraction(code)
	minor := amount.Shift(f).Round(0).IntPart()
	return money.New(minor, code).Display()
}
