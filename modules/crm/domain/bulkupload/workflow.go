package bulkupload

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type State string

const (
	StateReviewing  State = "reviewing"
	StateEditing    State = "editing"
	StateConfirming State = "confirming"
	StateCommitted  State = "committed"
	StateFailed     State = "failed"
)

var (
	ErrHasErrors       = errors.New("batch has validation errors")
	ErrInvalidState    = errors.New("operation not allowed in current state")
	ErrNotEditing      = errors.New("no row is being edited")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrDuplicateClient = errors.New("a client with this name already exists in the group")
)

type CommitResult struct {
	GroupsCreated   int `json:"groupsCreated"`
	ClientsCreated  int `json:"clientsCreated"`
	ContactsCreated int `json:"contactsCreated"`
}

// Committer creates the records of a confirmed batch.
type Committer interface {
	Commit(ctx context.Context, batch PreviewBatch) (CommitResult, error)
}

type CommitterFunc func(ctx context.Context, batch PreviewBatch) (CommitResult, error)

func (f CommitterFunc) Commit(ctx context.Context, batch PreviewBatch) (CommitResult, error) {
	return f(ctx, batch)
}

type ContactEdit struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ClientEdit struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Website  string `json:"website"`
}

type editKind int

const (
	editContact editKind = iota + 1
	editClient
)

type editCursor struct {
	kind     editKind
	row      int
	clientID int
}

// Workflow guards a PreviewBatch through review, edits and confirmation.
// It is safe for concurrent use.
type Workflow struct {
	mu      sync.Mutex
	batch   PreviewBatch
	initial PreviewBatch
	state   State
	cursor  *editCursor
	lastErr error
}

func NewWorkflow(batch PreviewBatch) *Workflow {
	b := batch.Clone()
	b.ReconcileOrphans()
	b.SortLedger()
	return &Workflow{
		batch:   b,
		initial: b.Clone(),
		state:   StateReviewing,
	}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Batch returns a copy of the current batch.
func (w *Workflow) Batch() PreviewBatch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.batch.Clone()
}

// LastError is the commit error that moved the workflow to StateFailed.
func (w *Workflow) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Workflow) CanConfirm() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.batch.CanConfirm()
}

func (w *Workflow) reviewable() bool {
	return w.state == StateReviewing || w.state == StateFailed
}

func (w *Workflow) BeginEditContact(idx int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.reviewable() {
		return ErrInvalidState
	}
	if idx < 0 || idx >= len(w.batch.Contacts) {
		return ErrIndexOutOfRange
	}
	w.cursor = &editCursor{kind: editContact, row: w.batch.Contacts[idx].RowNumber}
	w.state = StateEditing
	return nil
}

func (w *Workflow) BeginEditClient(idx int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.reviewable() {
		return ErrInvalidState
	}
	if idx < 0 || idx >= len(w.batch.Clients) {
		return ErrIndexOutOfRange
	}
	w.cursor = &editCursor{kind: editClient, clientID: w.batch.Clients[idx].ID}
	w.state = StateEditing
	return nil
}

// SaveContact applies edit to the contact being edited and replaces that
// row's contact errors with a fresh validation.
func (w *Workflow) SaveContact(edit ContactEdit) ([]RowError, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateEditing || w.cursor == nil || w.cursor.kind != editContact {
		return nil, ErrNotEditing
	}
	i := w.batch.ContactIndexByRow(w.cursor.row)
	if i < 0 {
		return nil, ErrIndexOutOfRange
	}
	c := &w.batch.Contacts[i]
	c.Name = strings.TrimSpace(edit.Name)
	c.Email = strings.TrimSpace(edit.Email)
	c.Phone = strings.TrimSpace(edit.Phone)
	errs := w.revalidateContact(*c)
	w.finishEdit()
	return errs, nil
}

// SaveClient applies edit to the client being edited. A rename moves the
// client's contacts to the new key.
func (w *Workflow) SaveClient(edit ClientEdit) ([]RowError, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateEditing || w.cursor == nil || w.cursor.kind != editClient {
		return nil, ErrNotEditing
	}
	i := w.batch.ClientIndexByID(w.cursor.clientID)
	if i < 0 {
		return nil, ErrIndexOutOfRange
	}
	next := w.batch.Clients[i]
	next.Name = strings.TrimSpace(edit.Name)
	next.Industry = strings.TrimSpace(edit.Industry)
	next.Website = strings.TrimSpace(edit.Website)
	if err := w.replaceClient(i, next); err != nil {
		return nil, err
	}
	errs := w.revalidateClient(next.Key())
	w.finishEdit()
	return errs, nil
}

// CancelEdit restores the edited row from the snapshot taken when the batch
// was opened, discarding earlier saves of that row too.
func (w *Workflow) CancelEdit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateEditing || w.cursor == nil {
		return ErrNotEditing
	}
	defer w.finishEdit()

	switch w.cursor.kind {
	case editContact:
		i := w.batch.ContactIndexByRow(w.cursor.row)
		j := w.initial.ContactIndexByRow(w.cursor.row)
		if i < 0 || j < 0 {
			return nil
		}
		orig := w.initial.Contacts[j]
		c := &w.batch.Contacts[i]
		c.Name, c.Email, c.Phone = orig.Name, orig.Email, orig.Phone
		w.revalidateContact(*c)
	case editClient:
		i := w.batch.ClientIndexByID(w.cursor.clientID)
		j := w.initial.ClientIndexByID(w.cursor.clientID)
		if i < 0 || j < 0 {
			return nil
		}
		orig := w.initial.Clients[j]
		next := w.batch.Clients[i]
		next.Name, next.Industry, next.Website = orig.Name, orig.Industry, orig.Website
		if err := w.replaceClient(i, next); err != nil {
			return err
		}
		w.revalidateClient(next.Key())
	}
	return nil
}

// LeaveEdit returns to review keeping the row as it currently is.
func (w *Workflow) LeaveEdit() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateEditing {
		w.finishEdit()
	}
}

func (w *Workflow) finishEdit() {
	w.cursor = nil
	w.state = StateReviewing
}

func (w *Workflow) replaceClient(i int, next Client) error {
	prev := w.batch.Clients[i].Key()
	key := next.Key()
	if key != prev {
		if j := w.batch.ClientIndexByKey(key); j >= 0 && j != i {
			return ErrDuplicateClient
		}
		for k := range w.batch.Contacts {
			if w.batch.Contacts[k].Key() == prev {
				w.batch.Contacts[k].ClientName = next.Name
			}
		}
	}
	w.batch.Clients[i] = next
	return nil
}

func (w *Workflow) revalidateContact(c Contact) []RowError {
	w.batch.dropRowFields(c.RowNumber, ContactFields)
	errs := ValidateContactRow(c)
	w.batch.Errors = append(w.batch.Errors, errs...)
	w.batch.SortLedger()
	return errs
}

// revalidateClient drops the client errors on every row of key and
// attributes a fresh validation to its current first row.
func (w *Workflow) revalidateClient(key ClientKey) []RowError {
	rows := make(map[int]struct{})
	for _, c := range w.batch.Contacts {
		if c.Key() == key {
			rows[c.RowNumber] = struct{}{}
		}
	}
	w.batch.dropFields(rows, ClientFields)
	i := w.batch.ClientIndexByKey(key)
	if i < 0 {
		return nil
	}
	first, _ := w.batch.FirstRowFor(key)
	errs := ValidateClientRow(w.batch.Clients[i], first)
	w.batch.Errors = append(w.batch.Errors, errs...)
	w.batch.SortLedger()
	return errs
}

// RemoveContact deletes the contact at idx along with its errors and
// warnings.
func (w *Workflow) RemoveContact(idx int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.reviewable() {
		return ErrInvalidState
	}
	if idx < 0 || idx >= len(w.batch.Contacts) {
		return ErrIndexOutOfRange
	}
	removed := w.batch.Contacts[idx]
	w.batch.Contacts = append(w.batch.Contacts[:idx], w.batch.Contacts[idx+1:]...)
	w.batch.dropRow(removed.RowNumber)
	w.batch.ReconcileOrphans()
	w.revalidateClient(removed.Key())
	return nil
}

// RemoveClient deletes the client at idx and every contact under its key.
func (w *Workflow) RemoveClient(idx int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.reviewable() {
		return ErrInvalidState
	}
	if idx < 0 || idx >= len(w.batch.Clients) {
		return ErrIndexOutOfRange
	}
	key := w.batch.Clients[idx].Key()
	w.batch.Clients = append(w.batch.Clients[:idx], w.batch.Clients[idx+1:]...)
	kept := w.batch.Contacts[:0]
	for _, c := range w.batch.Contacts {
		if c.Key() == key {
			w.batch.dropRow(c.RowNumber)
			continue
		}
		kept = append(kept, c)
	}
	w.batch.Contacts = kept
	w.batch.pruneGroup(key.GroupName)
	w.batch.ReconcileOrphans()
	return nil
}

func (w *Workflow) AddSecondaryContact(clientIdx int, id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.reviewable() {
		return false, ErrInvalidState
	}
	if clientIdx < 0 || clientIdx >= len(w.batch.Clients) {
		return false, ErrIndexOutOfRange
	}
	return w.batch.Clients[clientIdx].AddSecondaryContact(id), nil
}

func (w *Workflow) RemoveSecondaryContact(clientIdx int, id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.reviewable() {
		return false, ErrInvalidState
	}
	if clientIdx < 0 || clientIdx >= len(w.batch.Clients) {
		return false, ErrIndexOutOfRange
	}
	return w.batch.Clients[clientIdx].RemoveSecondaryContact(id), nil
}

// Confirm hands the batch to committer. While errors remain it returns
// ErrHasErrors without calling committer. A failed commit can be retried.
func (w *Workflow) Confirm(ctx context.Context, committer Committer) (CommitResult, error) {
	w.mu.Lock()
	if !w.reviewable() {
		w.mu.Unlock()
		return CommitResult{}, ErrInvalidState
	}
	if !w.batch.CanConfirm() {
		w.mu.Unlock()
		return CommitResult{}, ErrHasErrors
	}
	w.state = StateConfirming
	batch := w.batch.Clone()
	w.mu.Unlock()

	res, err := committer.Commit(ctx, batch)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = StateFailed
		w.lastErr = err
		return CommitResult{}, errors.Wrap(err, "commit batch")
	}
	w.state = StateCommitted
	w.lastErr = nil
	return res, nil
}
