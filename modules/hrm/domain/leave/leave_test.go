package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestWorkingDays(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		holidays   []string
		want       int
	}{
		{"monday to friday", "2025-01-06", "2025-01-10", nil, 5},
		{"across a weekend", "2025-01-09", "2025-01-14", nil, 4},
		{"weekend only", "2025-01-11", "2025-01-12", nil, 0},
		{"single day", "2025-01-08", "2025-01-08", nil, 1},
		{"with holiday", "2025-01-06", "2025-01-10", []string{"2025-01-07", "2025-01-11"}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var holidays []time.Time
			for _, h := range tc.holidays {
				holidays = append(holidays, date(t, h))
			}
			got, err := WorkingDays(date(t, tc.start), date(t, tc.end), holidays)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestWorkingDays_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2025, 1, 6, 17, 30, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	got, err := WorkingDays(start, end, nil)
	require.NoError(t, err)
	require.Equal(t, 5, got)
}

func TestWorkingDays_EndBeforeStart(t *testing.T) {
	_, err := WorkingDays(date(t, "2025-01-10"), date(t, "2025-01-06"), nil)
	require.ErrorIs(t, err, ErrEndBeforeStart)
}

func TestWorkingDays_RejectsOverlongPeriod(t *testing.T) {
	_, err := WorkingDays(date(t, "0001-01-01"), date(t, "9999-12-31"), nil)
	require.ErrorIs(t, err, ErrPeriodTooLong)

	n, err := WorkingDays(date(t, "2024-01-01"), date(t, "2024-12-31"), nil)
	require.NoError(t, err)
	require.Equal(t, 262, n)

	_, err = WorkingDays(date(t, "2024-01-01"), date(t, "2025-01-01"), nil)
	require.ErrorIs(t, err, ErrPeriodTooLong)
}

func TestValidate(t *testing.T) {
	req := Request{Type: TypeAnnual, StartDate: date(t, "2025-01-06"), EndDate: date(t, "2025-01-10")}
	bal := Balance{Type: TypeAnnual, Allocated: 20, Used: 12, Pending: 2}

	c, err := Validate(req, bal, nil)
	require.NoError(t, err)
	require.Equal(t, Calculation{TotalDays: 5, Remaining: 6, RemainingAfter: 1}, c)

	bal.Used = 15
	c, err = Validate(req, bal, nil)
	require.ErrorIs(t, err, ErrExceedsBalance)
	require.True(t, c.Exceeds)

	bal.Type = TypeUnpaid
	_, err = Validate(Request{Type: TypeUnpaid, StartDate: req.StartDate, EndDate: req.EndDate}, bal, nil)
	require.NoError(t, err)

	weekend := Request{Type: TypeAnnual, StartDate: date(t, "2025-01-11"), EndDate: date(t, "2025-01-12")}
	_, err = Validate(weekend, Balance{Type: TypeAnnual, Allocated: 10}, nil)
	require.ErrorIs(t, err, ErrNoWorkingDays)
}
