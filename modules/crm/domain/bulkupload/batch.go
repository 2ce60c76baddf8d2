package bulkupload

import (
	"slices"
	"strings"
)

type Group struct {
	Name string `json:"name"`
}

// Client is keyed by (GroupName, Name). ID is assigned at parse time and
// never changes, so edits can be traced back to the uploaded values.
type Client struct {
	ID                  int      `json:"id"`
	GroupName           string   `json:"groupName"`
	Name                string   `json:"name"`
	Industry            string   `json:"industry"`
	Website             string   `json:"website"`
	SecondaryContactIDs []string `json:"secondaryContactIds"`
	SecondaryContacts   string   `json:"secondaryContacts"`
}

func (c Client) Key() ClientKey {
	return ClientKey{GroupName: c.GroupName, ClientName: c.Name}
}

// Contact is one spreadsheet row. A contact with no name, email or phone is
// a placeholder row that only carries its client.
type Contact struct {
	RowNumber  int    `json:"rowNumber"`
	GroupName  string `json:"groupName"`
	ClientName string `json:"clientName"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

func (c Contact) Key() ClientKey {
	return ClientKey{GroupName: c.GroupName, ClientName: c.ClientName}
}

func (c Contact) IsEmpty() bool {
	return strings.TrimSpace(c.Name) == "" &&
		strings.TrimSpace(c.Email) == "" &&
		strings.TrimSpace(c.Phone) == ""
}

type ClientKey struct {
	GroupName  string `json:"groupName"`
	ClientName string `json:"clientName"`
}

type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type RowWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// PreviewBatch is the editable result of parsing an upload. Contact row
// numbers are unique and, once reconciled, every error and warning points
// at an existing contact row.
type PreviewBatch struct {
	Groups   []Group      `json:"groups"`
	Clients  []Client     `json:"clients"`
	Contacts []Contact    `json:"contacts"`
	Errors   []RowError   `json:"errors"`
	Warnings []RowWarning `json:"warnings"`
}

// Clone returns a deep copy.
func (b PreviewBatch) Clone() PreviewBatch {
	out := PreviewBatch{
		Groups:   slices.Clone(b.Groups),
		Clients:  slices.Clone(b.Clients),
		Contacts: slices.Clone(b.Contacts),
		Errors:   slices.Clone(b.Errors),
		Warnings: slices.Clone(b.Warnings),
	}
	for i := range out.Clients {
		out.Clients[i].SecondaryContactIDs = slices.Clone(out.Clients[i].SecondaryContactIDs)
	}
	return out
}

func (b PreviewBatch) rowSet() map[int]struct{} {
	rows := make(map[int]struct{}, len(b.Contacts))
	for _, c := range b.Contacts {
		rows[c.RowNumber] = struct{}{}
	}
	return rows
}

// FirstRowFor returns the smallest row number among the client's contacts.
func (b PreviewBatch) FirstRowFor(key ClientKey) (int, bool) {
	first, found := 0, false
	for _, c := range b.Contacts {
		if c.Key() != key {
			continue
		}
		if !found || c.RowNumber < first {
			first, found = c.RowNumber, true
		}
	}
	return first, found
}

func (b PreviewBatch) ContactIndexByRow(row int) int {
	return slices.IndexFunc(b.Contacts, func(c Contact) bool { return c.RowNumber == row })
}

func (b PreviewBatch) ClientIndexByID(id int) int {
	return slices.IndexFunc(b.Clients, func(c Client) bool { return c.ID == id })
}

func (b PreviewBatch) ClientIndexByKey(key ClientKey) int {
	return slices.IndexFunc(b.Clients, func(c Client) bool { return c.Key() == key })
}

// ErrorsForRow returns the errors attributed to row.
func (b PreviewBatch) ErrorsForRow(row int) []RowError {
	var out []RowError
	for _, e := range b.Errors {
		if e.Row == row {
			out = append(out, e)
		}
	}
	return out
}

// dropRowFields removes the errors on row whose field is in fields.
func (b *PreviewBatch) dropRowFields(row int, fields []string) {
	b.Errors = slices.DeleteFunc(b.Errors, func(e RowError) bool {
		return e.Row == row && slices.Contains(fields, e.Field)
	})
}

// dropFields removes every error whose field is in fields and whose row is in rows.
func (b *PreviewBatch) dropFields(rows map[int]struct{}, fields []string) {
	b.Errors = slices.DeleteFunc(b.Errors, func(e RowError) bool {
		_, ok := rows[e.Row]
		return ok && slices.Contains(fields, e.Field)
	})
}

// pruneGroup drops the named group once no client belongs to it.
func (b *PreviewBatch) pruneGroup(name string) {
	if slices.ContainsFunc(b.Clients, func(c Client) bool { return c.GroupName == name }) {
		return
	}
	b.Groups = slices.DeleteFunc(b.Groups, func(g Group) bool { return g.Name == name })
}

func (b *PreviewBatch) dropRow(row int) {
	b.Errors = slices.DeleteFunc(b.Errors, func(e RowError) bool { return e.Row == row })
	b.Warnings = slices.DeleteFunc(b.Warnings, func(w RowWarning) bool { return w.Row == row })
}

// ReconcileOrphans drops errors and warnings whose row no longer exists and
// returns how many were removed.
func (b *PreviewBatch) ReconcileOrphans() int {
	rows := b.rowSet()
	before := len(b.Errors) + len(b.Warnings)
	b.Errors = slices.DeleteFunc(b.Errors, func(e RowError) bool {
		_, ok := rows[e.Row]
		return !ok
	})
	b.Warnings = slices.DeleteFunc(b.Warnings, func(w RowWarning) bool {
		_, ok := rows[w.Row]
		return !ok
	})
	return before - len(b.Errors) - len(b.Warnings)
}

// CanConfirm reconciles orphans and reports whether no errors remain.
func (b *PreviewBatch) CanConfirm() bool {
	b.ReconcileOrphans()
	return len(b.Errors) == 0
}

// SortLedger orders errors and warnings by row, keeping field order stable.
func (b *PreviewBatch) SortLedger() {
	slices.SortStableFunc(b.Errors, func(x, y RowError) int { return x.Row - y.Row })
	slices.SortStableFunc(b.Warnings, func(x, y RowWarning) int { return x.Row - y.Row })
}
