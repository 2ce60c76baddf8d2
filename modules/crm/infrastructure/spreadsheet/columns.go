package spreadsheet

import (
	"strings"

	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
)

const (
	ContactsSheet = "Contacts"
	IssuesSheet   = "Issues"

	ColGroup             = "Group"
	ColClient            = "Client"
	ColIndustry          = "Industry"
	ColWebsite           = "Website"
	ColContactName       = "Contact Name"
	ColContactEmail      = "Contact Email"
	ColContactPhone      = "Contact Phone"
	ColSecondaryContacts = "Secondary Contacts"
)

// Columns is the layout written by WriteCorrected.
var Columns = []string{
	ColGroup,
	ColClient,
	ColIndustry,
	ColWebsite,
	ColContactName,
	ColContactEmail,
	ColContactPhone,
	ColSecondaryContacts,
}

var requiredColumns = []string{ColGroup, ColClient}

var aliases = map[string]string{
	"group name":  ColGroup,
	"client name": ColClient,
	"name":        ColContactName,
	"email":       ColContactEmail,
	"phone":       ColContactPhone,
}

// fieldColumns maps validation fields to the column that holds the value.
var fieldColumns = map[string]string{
	bulkupload.FieldContactName:  ColContactName,
	bulkupload.FieldContactEmail: ColContactEmail,
	bulkupload.FieldContactPhone: ColContactPhone,
	bulkupload.FieldClientName:   ColClient,
	bulkupload.FieldIndustry:     ColIndustry,
	bulkupload.FieldWebsite:      ColWebsite,
	ColGroup:                     ColGroup,
}

func canonicalColumn(header string) (string, bool) {
	h := strings.ToLower(strings.Join(strings.Fields(header), " "))
	for _, c := range Columns {
		if strings.ToLower(c) == h {
			return c, true
		}
	}
	c, ok := aliases[h]
	return c, ok
}
