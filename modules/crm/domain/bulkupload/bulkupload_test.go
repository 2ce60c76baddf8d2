package bulkupload

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBatch() PreviewBatch {
	b := PreviewBatch{
		Groups: []Group{{Name: "Law"}},
		Clients: []Client{
			{ID: 1, GroupName: "Law", Name: "Acme Corp", Industry: "Legal", Website: "acme.com"},
			{ID: 2, GroupName: "Law", Name: "Beta", Industry: ""},
		},
		Contacts: []Contact{
			{RowNumber: 2, GroupName: "Law", ClientName: "Acme Corp", Name: "Alice", Email: "alice@acme.com"},
			{RowNumber: 3, GroupName: "Law", ClientName: "Acme Corp", Name: "Bob", Email: "bad-email"},
			{RowNumber: 4, GroupName: "Law", ClientName: "Beta", Name: "Carol", Email: "carol@beta.io"},
			{RowNumber: 5, GroupName: "Law", ClientName: "Beta"},
		},
	}
	Validate(&b)
	return b
}

func fields(errs []RowError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateContactRow(t *testing.T) {
	cases := []struct {
		name    string
		contact Contact
		fields  []string
	}{
		{"empty row is valid", Contact{RowNumber: 2}, []string{}},
		{"invalid email", Contact{RowNumber: 2, Name: "Bob", Email: "bob@"}, []string{FieldContactEmail}},
		{"email without name", Contact{RowNumber: 2, Email: "bob@example.com"}, []string{FieldContactName}},
		{"phone without name", Contact{RowNumber: 2, Phone: "+1 555 123 4567"}, []string{FieldContactName}},
		{"bad phone characters", Contact{RowNumber: 2, Name: "Bob", Phone: "555-CALL-NOW"}, []string{FieldContactPhone}},
		{"short phone", Contact{RowNumber: 2, Name: "Bob", Phone: "12 34"}, []string{FieldContactPhone}},
		{"formatted phone", Contact{RowNumber: 2, Name: "Bob", Phone: "+1 (555) 123-4567"}, []string{}},
		{"long name", Contact{RowNumber: 2, Name: strings.Repeat("a", 256)}, []string{FieldContactName}},
		{"valid", Contact{RowNumber: 2, Name: "Bob", Email: "bob.smith+law@example.co.uk"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidateContactRow(tc.contact)
			assert.Equal(t, tc.fields, fields(errs))
			for _, e := range errs {
				assert.Equal(t, 2, e.Row)
				assert.NotEmpty(t, e.Message)
			}
		})
	}
}

func TestValidateClientRow(t *testing.T) {
	valid := Client{Name: "Acme", Industry: "Legal", Website: "acme.com"}
	require.Empty(t, ValidateClientRow(valid, 7))

	missing := Client{Name: "", Industry: ""}
	errs := ValidateClientRow(missing, 7)
	require.Equal(t, []string{FieldClientName, FieldIndustry}, fields(errs))
	require.Equal(t, 7, errs[0].Row)

	require.Nil(t, ValidateClientRow(missing, 0), "client without contacts has nowhere to attribute errors")

	bad := valid
	bad.Website = "not a url"
	require.Equal(t, []string{FieldWebsite}, fields(ValidateClientRow(bad, 3)))

	long := valid
	long.Website = "example.com/" + strings.Repeat("a", 500)
	require.Equal(t, []string{FieldWebsite}, fields(ValidateClientRow(long, 3)))
}

func TestNormalizeWebsite(t *testing.T) {
	assert.Equal(t, "https://acme.com", NormalizeWebsite(" acme.com "))
	assert.Equal(t, "http://acme.com", NormalizeWebsite("http://acme.com"))
	assert.Empty(t, NormalizeWebsite(""))
}

func TestValidate_AttributesClientErrorsToFirstRow(t *testing.T) {
	b := sampleBatch()
	require.Equal(t, []RowError{
		{Row: 3, Field: FieldContactEmail, Message: "Invalid email format"},
		{Row: 4, Field: FieldIndustry, Message: "Industry is required"},
	}, b.Errors)
	require.False(t, b.CanConfirm())
}

func TestDetectWarnings(t *testing.T) {
	b := PreviewBatch{Contacts: []Contact{
		{RowNumber: 2, Email: "a@x.com"},
		{RowNumber: 3, Email: "b@x.com"},
		{RowNumber: 4, Email: " A@X.com"},
	}}
	warnings := DetectWarnings(&b)
	require.Len(t, warnings, 1)
	require.Equal(t, 4, warnings[0].Row)
	require.Contains(t, warnings[0].Message, "row 2")
}

func TestReconcileOrphans(t *testing.T) {
	b := sampleBatch()
	b.Warnings = []RowWarning{{Row: 9, Message: "stale"}, {Row: 2, Message: "kept"}}
	b.Errors = append(b.Errors, RowError{Row: 42, Field: FieldContactName, Message: "stale"})

	require.Equal(t, 2, b.ReconcileOrphans())
	require.Equal(t, []RowWarning{{Row: 2, Message: "kept"}}, b.Warnings)
	for _, e := range b.Errors {
		require.NotEqual(t, 42, e.Row)
	}
}

func TestWorkflow_RemoveClientCascades(t *testing.T) {
	w := NewWorkflow(sampleBatch())
	require.NoError(t, w.RemoveClient(1))

	b := w.Batch()
	require.Len(t, b.Clients, 1)
	rows := map[int]bool{}
	for _, c := range b.Contacts {
		require.NotEqual(t, ClientKey{GroupName: "Law", ClientName: "Beta"}, c.Key())
		rows[c.RowNumber] = true
	}
	for _, e := range b.Errors {
		require.True(t, rows[e.Row], "error on removed row %d", e.Row)
	}
	for _, warn := range b.Warnings {
		require.True(t, rows[warn.Row], "warning on removed row %d", warn.Row)
	}
}

func TestWorkflow_RemoveLastClientDropsGroup(t *testing.T) {
	b := PreviewBatch{
		Groups: []Group{{Name: "G1"}, {Name: "G2"}},
		Clients: []Client{
			{ID: 1, GroupName: "G1", Name: "Acme", Industry: "Legal"},
			{ID: 2, GroupName: "G2", Name: "Beta", Industry: "Finance"},
		},
		Contacts: []Contact{
			{RowNumber: 2, GroupName: "G1", ClientName: "Acme", Name: "Alice"},
			{RowNumber: 3, GroupName: "G2", ClientName: "Beta", Name: "Carol"},
		},
	}
	w := NewWorkflow(b)
	require.NoError(t, w.RemoveClient(1))
	require.Equal(t, []Group{{Name: "G1"}}, w.Batch().Groups)

	res, err := w.Confirm(context.Background(), &countingCommitter{})
	require.NoError(t, err)
	require.Equal(t, CommitResult{GroupsCreated: 1, ClientsCreated: 1, ContactsCreated: 1}, res)
}

func TestWorkflow_RemoveClientKeepsSharedGroup(t *testing.T) {
	w := NewWorkflow(sampleBatch())
	require.NoError(t, w.RemoveClient(1))
	require.Equal(t, []Group{{Name: "Law"}}, w.Batch().Groups)
}

func TestWorkflow_RemoveContact(t *testing.T) {
	w := NewWorkflow(sampleBatch())

	require.NoError(t, w.RemoveContact(1))
	b := w.Batch()
	require.Empty(t, b.ErrorsForRow(3))

	// Beta's first row goes away, so its client error moves to row 5.
	require.NoError(t, w.RemoveContact(1))
	b = w.Batch()
	require.Empty(t, b.ErrorsForRow(4))
	require.Equal(t, []string{FieldIndustry}, fields(b.ErrorsForRow(5)))

	require.ErrorIs(t, w.RemoveContact(10), ErrIndexOutOfRange)
}

func TestWorkflow_SaveAndCancelContact(t *testing.T) {
	w := NewWorkflow(sampleBatch())

	_, err := w.SaveContact(ContactEdit{})
	require.ErrorIs(t, err, ErrNotEditing)

	require.NoError(t, w.BeginEditContact(1))
	require.Equal(t, StateEditing, w.State())
	require.ErrorIs(t, w.RemoveContact(0), ErrInvalidState)

	errs, err := w.SaveContact(ContactEdit{Name: "Bob", Email: "bob@acme.com"})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Equal(t, StateReviewing, w.State())
	require.Empty(t, w.Batch().ErrorsForRow(3))

	// Cancel goes back to the uploaded values, not the last save.
	require.NoError(t, w.BeginEditContact(1))
	require.NoError(t, w.CancelEdit())
	b := w.Batch()
	require.Equal(t, "bad-email", b.Contacts[1].Email)
	require.Equal(t, []string{FieldContactEmail}, fields(b.ErrorsForRow(3)))
}

func TestWorkflow_EmptyContactSaveHasNoErrors(t *testing.T) {
	w := NewWorkflow(sampleBatch())
	require.NoError(t, w.BeginEditContact(1))
	errs, err := w.SaveContact(ContactEdit{})
	require.NoError(t, err)
	require.Empty(t, errs)

	require.NoError(t, w.BeginEditContact(1))
	errs, err = w.SaveContact(ContactEdit{Name: "Bob", Email: "nope"})
	require.NoError(t, err)
	require.Equal(t, []string{FieldContactEmail}, fields(errs))
}

func TestWorkflow_SaveClientRenameCascades(t *testing.T) {
	w := NewWorkflow(sampleBatch())

	require.NoError(t, w.BeginEditClient(0))
	_, err := w.SaveClient(ClientEdit{Name: "Beta", Industry: "Legal"})
	require.ErrorIs(t, err, ErrDuplicateClient)
	require.Equal(t, StateEditing, w.State())

	errs, err := w.SaveClient(ClientEdit{Name: "Acme LLP", Industry: "Legal", Website: "acme.law"})
	require.NoError(t, err)
	require.Empty(t, errs)

	b := w.Batch()
	require.Equal(t, "Acme LLP", b.Contacts[0].ClientName)
	require.Equal(t, "Acme LLP", b.Contacts[1].ClientName)
	require.Equal(t, "Beta", b.Contacts[2].ClientName)

	require.NoError(t, w.BeginEditClient(1))
	errs, err = w.SaveClient(ClientEdit{Name: "Beta", Industry: "Finance"})
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Empty(t, w.Batch().ErrorsForRow(4))

	require.NoError(t, w.BeginEditClient(0))
	require.NoError(t, w.CancelEdit())
	b = w.Batch()
	require.Equal(t, "Acme Corp", b.Clients[0].Name)
	require.Equal(t, "Acme Corp", b.Contacts[0].ClientName)
}

type countingCommitter struct {
	calls int
	err   error
}

func (c *countingCommitter) Commit(_ context.Context, b PreviewBatch) (CommitResult, error) {
	c.calls++
	if c.err != nil {
		return CommitResult{}, c.err
	}
	return CommitResult{GroupsCreated: len(b.Groups), ClientsCreated: len(b.Clients), ContactsCreated: len(b.Contacts)}, nil
}

func TestWorkflow_Confirm(t *testing.T) {
	ctx := context.Background()
	w := NewWorkflow(sampleBatch())
	committer := &countingCommitter{}

	_, err := w.Confirm(ctx, committer)
	require.ErrorIs(t, err, ErrHasErrors)
	require.Zero(t, committer.calls)
	require.Equal(t, StateReviewing, w.State())

	require.NoError(t, w.RemoveContact(1))
	require.NoError(t, w.BeginEditClient(1))
	_, err = w.SaveClient(ClientEdit{Name: "Beta", Industry: "Finance"})
	require.NoError(t, err)
	require.True(t, w.CanConfirm())

	committer.err = errors.New("backend unavailable")
	_, err = w.Confirm(ctx, committer)
	require.Error(t, err)
	require.Equal(t, StateFailed, w.State())
	require.EqualError(t, w.LastError(), "backend unavailable")

	committer.err = nil
	res, err := w.Confirm(ctx, committer)
	require.NoError(t, err)
	require.Equal(t, CommitResult{GroupsCreated: 1, ClientsCreated: 2, ContactsCreated: 3}, res)
	require.Equal(t, StateCommitted, w.State())
	require.Equal(t, 2, committer.calls)

	_, err = w.Confirm(ctx, committer)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestWorkflow_SecondaryContacts(t *testing.T) {
	w := NewWorkflow(sampleBatch())

	added, err := w.AddSecondaryContact(0, "c1")
	require.NoError(t, err)
	require.True(t, added)
	added, _ = w.AddSecondaryContact(0, "c2")
	require.True(t, added)
	added, _ = w.AddSecondaryContact(0, "c1")
	require.False(t, added)
	require.Equal(t, "c1,c2", w.Batch().Clients[0].SecondaryContacts)

	removed, err := w.RemoveSecondaryContact(0, "c1")
	require.NoError(t, err)
	require.True(t, removed)
	client := w.Batch().Clients[0]
	require.Equal(t, []string{"c2"}, client.SecondaryContactIDs)
	require.Equal(t, "c2", client.SecondaryContacts)
}

func TestPreviewBatch_CloneIsDeep(t *testing.T) {
	b := sampleBatch()
	b.Clients[0].SecondaryContactIDs = []string{"x"}
	c := b.Clone()
	c.Clients[0].SecondaryContactIDs[0] = "y"
	c.Contacts[0].Name = "changed"
	require.Equal(t, "x", b.Clients[0].SecondaryContactIDs[0])
	require.Equal(t, "Alice", b.Contacts[0].Name)
}
