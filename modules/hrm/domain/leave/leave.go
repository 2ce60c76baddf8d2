package leave

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const DateLayout = "2006-01-02"

// MaxPeriodDays bounds the calendar span of a single request.
const MaxPeriodDays = 366

var (
	ErrEndBeforeStart = errors.New("end date is before start date")
	ErrNoWorkingDays  = errors.New("the selected period has no working days")
	ErrExceedsBalance = errors.New("requested days exceed the remaining balance")
	ErrPeriodTooLong  = errors.Errorf("period is longer than %d days", MaxPeriodDays)
)

type Type string

const (
	TypeAnnual Type = "annual"
	TypeSick   Type = "sick"
	TypeUnpaid Type = "unpaid"
)

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CheckPeriod rejects reversed periods and periods spanning more than
// MaxPeriodDays calendar days.
func CheckPeriod(start, end time.Time) error {
	start, end = day(start), day(end)
	if end.Before(start) {
		return ErrEndBeforeStart
	}
	if end.After(start.AddDate(0, 0, MaxPeriodDays-1)) {
		return ErrPeriodTooLong
	}
	return nil
}

// WorkingDays counts Monday to Friday between start and end inclusive,
// skipping holidays. Times of day are ignored.
func WorkingDays(start, end time.Time, holidays []time.Time) (int, error) {
	if err := CheckPeriod(start, end); err != nil {
		return 0, err
	}
	start, end = day(start), day(end)
	off := make(map[time.Time]struct{}, len(holidays))
	for _, h := range holidays {
		off[day(h)] = struct{}{}
	}
	n := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if _, ok := off[d]; ok {
			continue
		}
		n++
	}
	return n, nil
}

type Balance struct {
	Type      Type    `json:"type"`
	Allocated float64 `json:"allocated"`
	Used      float64 `json:"used"`
	Pending   float64 `json:"pending"`
}

func (b Balance) Remaining() float64 {
	return b.Allocated - b.Used - b.Pending
}

// Unlimited reports whether requests of this type are not bounded by a
// balance.
func (b Balance) Unlimited() bool {
	return b.Type == TypeUnpaid
}

type Request struct {
	Type      Type      `json:"type"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason"`
}

type Calculation struct {
	TotalDays      int     `json:"totalDays"`
	Remaining      float64 `json:"remaining"`
	RemainingAfter float64 `json:"remainingAfter"`
	Exceeds        bool    `json:"exceeds"`
}

// Calculate works out the request's working days against the balance. It
// fails only when the period itself is invalid.
func Calculate(req Request, bal Balance, holidays []time.Time) (Calculation, error) {
	days, err := WorkingDays(req.StartDate, req.EndDate, holidays)
	if err != nil {
		return Calculation{}, err
	}
	c := Calculation{TotalDays: days, Remaining: bal.Remaining()}
	c.RemainingAfter = c.Remaining - float64(days)
	c.Exceeds = !bal.Unlimited() && c.RemainingAfter < 0
	return c, nil
}

// Validate rejects a request that cannot be submitted.
func Validate(req Request, bal Balance, holidays []time.Time) (Calculation, error) {
	c, err := Calculate(req, bal, holidays)
	if err != nil {
		return c, err
	}
	if c.TotalDays == 0 {
		return c, ErrNoWorkingDays
	}
	if c.Exceeds {
		return c, errors.Wrap(ErrExceedsBalance, fmt.Sprintf("%d requested, %g remaining", c.TotalDays, c.Remaining))
	}
	return c, nil
}

// ParseDate reads a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid date %q", s)
	}
	return t, nil
}
