package services

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/iota-uz/legaldesk/modules/hrm/domain/leave"
	"github.com/iota-uz/legaldesk/pkg/backend"
	"github.com/iota-uz/legaldesk/pkg/eventbus"
)

const (
	balancesEndpoint = "/leaves/balances"
	holidaysEndpoint = "/holidays"
	leavesEndpoint   = "/leaves"
)

// Directory is where balances and holidays come from and where requests go.
type Directory interface {
	Balances(ctx context.Context, userID string) ([]leave.Balance, error)
	Holidays(ctx context.Context, from, to time.Time) ([]time.Time, error)
	Submit(ctx context.Context, userID string, req leave.Request, days int) (string, error)
}

type LeaveService struct {
	directory Directory
	publisher eventbus.EventBus
}

func NewLeaveService(directory Directory, publisher eventbus.EventBus) *LeaveService {
	return &LeaveService{
		directory: directory,
		publisher: publisher,
	}
}

func (s *LeaveService) balance(ctx context.Context, userID string, t leave.Type) (leave.Balance, error) {
	balances, err := s.directory.Balances(ctx, userID)
	if err != nil {
		return leave.Balance{}, err
	}
	for _, b := range balances {
		if b.Type == t {
			return b, nil
		}
	}
	return leave.Balance{Type: t}, nil
}

func (s *LeaveService) inputs(ctx context.Context, userID string, req leave.Request) (leave.Balance, []time.Time, error) {
	if err := leave.CheckPeriod(req.StartDate, req.EndDate); err != nil {
		return leave.Balance{}, nil, err
	}
	bal, err := s.balance(ctx, userID, req.Type)
	if err != nil {
		return leave.Balance{}, nil, err
	}
	holidays, err := s.directory.Holidays(ctx, req.StartDate, req.EndDate)
	if err != nil {
		return leave.Balance{}, nil, err
	}
	return bal, holidays, nil
}

// Calculate previews a request without submitting it.
func (s *LeaveService) Calculate(ctx context.Context, userID string, req leave.Request) (leave.Calculation, error) {
	bal, holidays, err := s.inputs(ctx, userID, req)
	if err != nil {
		return leave.Calculation{}, err
	}
	return leave.Calculate(req, bal, holidays)
}

// Submit validates the request against the current balance and sends it
// to the backend.
func (s *LeaveService) Submit(ctx context.Context, userID string, req leave.Request) (string, leave.Calculation, error) {
	bal, holidays, err := s.inputs(ctx, userID, req)
	if err != nil {
		return "", leave.Calculation{}, err
	}
	calc, err := leave.Validate(req, bal, holidays)
	if err != nil {
		return "", calc, err
	}
	id, err := s.directory.Submit(ctx, userID, req, calc.TotalDays)
	if err != nil {
		return "", calc, err
	}
	s.publisher.Publish(&leave.RequestedEvent{UserID: userID, RequestID: id, Request: req, Days: calc.TotalDays})
	return id, calc, nil
}

// BackendDirectory reads balances and holidays from the backend API.
type BackendDirectory struct {
	client *backend.Client
}

func NewBackendDirectory(client *backend.Client) *BackendDirectory {
	return &BackendDirectory{client: client}
}

func (d *BackendDirectory) Balances(ctx context.Context, userID string) ([]leave.Balance, error) {
	return backend.Get[[]leave.Balance](ctx, d.client, balancesEndpoint, url.Values{"user_id": {userID}})
}

func (d *BackendDirectory) Holidays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	raw, err := backend.Get[[]string](ctx, d.client, holidaysEndpoint, url.Values{
		"from": {from.Format(leave.DateLayout)},
		"to":   {to.Format(leave.DateLayout)},
	})
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		t, err := leave.ParseDate(s)
		if err != nil {
			return nil, errors.Wrap(err, "holidays")
		}
		out = append(out, t)
	}
	return out, nil
}

type submitRequest struct {
	UserID    string     `json:"user_id"`
	Type      leave.Type `json:"type"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	TotalDays int        `json:"total_days"`
	Reason    string     `json:"reason,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}

func (d *BackendDirectory) Submit(ctx context.Context, userID string, req leave.Request, days int) (string, error) {
	res, err := backend.Post[submitResponse](ctx, d.client, leavesEndpoint, submitRequest{
		UserID:    userID,
		Type:      req.Type,
		StartDate: req.StartDate.Format(leave.DateLayout),
		EndDate:   req.EndDate.Format(leave.DateLayout),
		TotalDays: days,
		Reason:    req.Reason,
	})
	if err != nil {
		return "", err
	}
	return res.ID, nil
}
