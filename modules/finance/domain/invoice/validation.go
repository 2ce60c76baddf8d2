package invoice

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var maxExchangeRate = decimal.NewFromInt(10000)

// SaveError lists every reason a draft cannot be saved.
type SaveError struct {
	Messages []string
}

func (e *SaveError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ValidateForSave returns a *SaveError when the draft cannot be saved: an
// unknown currency code, a foreign currency without a rate, or a rate that
// is not in (0, 10000]. Discount bounds only produce warnings.
func (d Draft) ValidateForSave() error {
	var msgs []string

	inv := d.currency()
	if money.GetCurrency(inv) == nil {
		msgs = append(msgs, fmt.Sprintf("Unknown invoice currency %q", d.Currency))
	}

	var unknown, missing, invalid []string
	for _, code := range d.ForeignCurrencies() {
		if money.GetCurrency(code) == nil {
			unknown = append(unknown, code)
			continue
		}
		rate, ok := d.rate(code)
		switch {
		case !ok:
			missing = append(missing, code)
		case !rate.IsPositive() || rate.GreaterThan(maxExchangeRate):
			invalid = append(invalid, code)
		}
	}
	for _, code := range unknown {
		msgs = append(msgs, fmt.Sprintf("Unknown currency %s", code))
	}
	if len(missing) > 0 {
		msgs = append(msgs, "Missing exchange rates for: "+strings.Join(missing, ", "))
	}
	for _, code := range invalid {
		msgs = append(msgs, "Invalid exchange rate for "+code)
	}

	if len(msgs) == 0 {
		return nil
	}
	return &SaveError{Messages: slices.Clip(msgs)}
}
