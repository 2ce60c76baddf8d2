package matter

import "time"

type Status string

const (
	StatusOpen    Status = "open"
	StatusPending Status = "pending"
	StatusClosed  Status = "closed"
)

// Matter is the list projection of a case file as returned by the backend.
type Matter struct {
	ID           string     `json:"id"`
	Number       string     `json:"number"`
	Title        string     `json:"title"`
	ClientName   string     `json:"client_name"`
	Status       Status     `json:"status"`
	PracticeArea string     `json:"practice_area"`
	Attorney     string     `json:"responsible_attorney"`
	OpenedAt     *time.Time `json:"opened_at,omitempty"`
	Budget       *float64   `json:"budget,omitempty"`
}

func (m Matter) Opened() (time.Time, bool) {
	if m.OpenedAt == nil {
		return time.Time{}, false
	}
	return *m.OpenedAt, true
}

func (m Matter) BudgetValue() (float64, bool) {
	if m.Budget == nil {
		return 0, false
	}
	return *m.Budget, true
}
