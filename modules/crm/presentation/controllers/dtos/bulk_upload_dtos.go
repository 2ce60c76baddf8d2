package dtos

import (
	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
)

type ContactEditDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (d ContactEditDTO) ToEdit() bulkupload.ContactEdit {
	return bulkupload.ContactEdit{Name: d.Name, Email: d.Email, Phone: d.Phone}
}

type ClientEditDTO struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Website  string `json:"website"`
}

func (d ClientEditDTO) ToEdit() bulkupload.ClientEdit {
	return bulkupload.ClientEdit{Name: d.Name, Industry: d.Industry, Website: d.Website}
}

type SecondaryContactDTO struct {
	ContactID string `json:"contactId" validate:"required,max=64"`
}

// ContactRow is a contact as listed in the preview table.
type ContactRow struct {
	Index int `json:"index"`
	bulkupload.Contact
	Errors []bulkupload.RowError `json:"errors,omitempty"`
}
