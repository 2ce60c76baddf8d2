package bulkupload

import (
	"slices"
	"strings"
)

const secondaryContactSeparator = ","

// JoinIDs renders ids the way the backend expects the secondary contacts
// column.
func JoinIDs(ids []string) string {
	return strings.Join(ids, secondaryContactSeparator)
}

// AddSecondaryContact attaches id unless it is already attached.
func (c *Client) AddSecondaryContact(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || slices.Contains(c.SecondaryContactIDs, id) {
		return false
	}
	c.SecondaryContactIDs = append(c.SecondaryContactIDs, id)
	c.SecondaryContacts = JoinIDs(c.SecondaryContactIDs)
	return true
}

func (c *Client) RemoveSecondaryContact(id string) bool {
	id = strings.TrimSpace(id)
	before := len(c.SecondaryContactIDs)
	c.SecondaryContactIDs = slices.DeleteFunc(c.SecondaryContactIDs, func(v string) bool { return v == id })
	c.SecondaryContacts = JoinIDs(c.SecondaryContactIDs)
	return len(c.SecondaryContactIDs) != before
}
