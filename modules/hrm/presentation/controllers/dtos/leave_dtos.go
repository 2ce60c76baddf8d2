package dtos

import (
	"github.com/iota-uz/legaldesk/modules/hrm/domain/leave"
)

type LeaveRequestDTO struct {
	Type      string `json:"type" validate:"required,oneof=annual sick unpaid"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"max=1000"`
}

func (d LeaveRequestDTO) ToRequest() (leave.Request, error) {
	start, err := leave.ParseDate(d.StartDate)
	if err != nil {
		return leave.Request{}, err
	}
	end, err := leave.ParseDate(d.EndDate)
	if err != nil {
		return leave.Request{}, err
	}
	return leave.Request{
		Type:      leave.Type(d.Type),
		StartDate: start,
		EndDate:   end,
		Reason:    d.Reason,
	}, nil
}

type SubmittedLeaveDTO struct {
	ID string `json:"id"`
	leave.Calculation
}
