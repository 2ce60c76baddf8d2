package services

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"

	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
	"github.com/iota-uz/legaldesk/modules/crm/infrastructure/spreadsheet"
	"github.com/iota-uz/legaldesk/pkg/eventbus"
	"github.com/iota-uz/legaldesk/pkg/metrics"
)

var (
	ErrBatchNotFound = errors.New("bulk upload batch not found")
	ErrBatchOwner    = errors.New("bulk upload batch belongs to another user")
)

const (
	outcomePreviewed = "previewed"
	outcomeCommitted = "committed"
	outcomeFailed    = "failed"
	outcomeDiscarded = "discarded"
	outcomeExpired   = "expired"
)

type BulkUploadOptions struct {
	MaxOpenBatches int
	TTL            time.Duration
	MaxRows        int
}

// BatchView is what callers see of an open batch.
type BatchView struct {
	ID         string                  `json:"id"`
	State      bulkupload.State        `json:"state"`
	CanConfirm bool                    `json:"canConfirm"`
	Batch      bulkupload.PreviewBatch `json:"batch"`
}

type session struct {
	id       string
	owner    string
	workflow *bulkupload.Workflow
	closed   atomic.Bool
}

// BulkUploadService keeps one Workflow per open upload dialog. Batches that
// are neither confirmed nor cancelled expire after the configured TTL.
type BulkUploadService struct {
	sessions  *expirable.LRU[string, *session]
	committer bulkupload.Committer
	publisher eventbus.EventBus
	metrics   *metrics.Collectors
	maxRows   int
}

func NewBulkUploadService(
	committer bulkupload.Committer,
	publisher eventbus.EventBus,
	collectors *metrics.Collectors,
	opts BulkUploadOptions,
) *BulkUploadService {
	s := &BulkUploadService{
		committer: committer,
		publisher: publisher,
		metrics:   collectors,
		maxRows:   opts.MaxRows,
	}
	size := opts.MaxOpenBatches
	if size <= 0 {
		size = 256
	}
	s.sessions = expirable.NewLRU[string, *session](size, s.onEvict, opts.TTL)
	return s
}

func (s *BulkUploadService) onEvict(_ string, sess *session) {
	if sess.closed.Load() {
		return
	}
	s.metrics.BulkBatches.WithLabelValues(outcomeExpired).Inc()
	s.publisher.Publish(&bulkupload.BatchDiscardedEvent{
		BatchID: sess.id,
		OwnerID: sess.owner,
		Reason:  outcomeExpired,
	})
}

func (s *BulkUploadService) session(owner, id string) (*session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrBatchNotFound
	}
	if sess.owner != owner {
		return nil, ErrBatchOwner
	}
	return sess, nil
}

func (s *BulkUploadService) close(sess *session) {
	sess.closed.Store(true)
	s.sessions.Remove(sess.id)
}

func view(sess *session) *BatchView {
	return &BatchView{
		ID:         sess.id,
		State:      sess.workflow.State(),
		CanConfirm: sess.workflow.CanConfirm(),
		Batch:      sess.workflow.Batch(),
	}
}

// Preview parses an uploaded workbook and opens a batch for owner.
func (s *BulkUploadService) Preview(ctx context.Context, owner string, r io.Reader) (*BatchView, error) {
	batch, err := spreadsheet.Parse(r, spreadsheet.Options{MaxRows: s.maxRows})
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, owner, batch), nil
}

// Open starts a batch from an already parsed preview.
func (s *BulkUploadService) Open(_ context.Context, owner string, batch bulkupload.PreviewBatch) *BatchView {
	sess := &session{
		id:       uuid.NewString(),
		owner:    owner,
		workflow: bulkupload.NewWorkflow(batch),
	}
	s.sessions.Add(sess.id, sess)
	s.metrics.BulkBatches.WithLabelValues(outcomePreviewed).Inc()
	v := view(sess)
	s.publisher.Publish(&bulkupload.BatchPreviewedEvent{
		BatchID: sess.id,
		OwnerID: owner,
		Rows:    len(v.Batch.Contacts),
		Errors:  len(v.Batch.Errors),
	})
	return v
}

func (s *BulkUploadService) Get(_ context.Context, owner, id string) (*BatchView, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	return view(sess), nil
}

func (s *BulkUploadService) UpdateContact(_ context.Context, owner, id string, idx int, edit bulkupload.ContactEdit) (*BatchView, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	if err := sess.workflow.BeginEditContact(idx); err != nil {
		return nil, err
	}
	if err := saveOrLeave(sess.workflow, func() error {
		_, err := sess.workflow.SaveContact(edit)
		return err
	}); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// RevertContact puts the contact back to its uploaded values.
func (s *BulkUploadService) RevertContact(_ context.Context, owner, id string, idx int) (*BatchView, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	if err := sess.workflow.BeginEditContact(idx); err != nil {
		return nil, err
	}
	if err := sess.workflow.CancelEdit(); err != nil {
		return nil, err
	}
	return view(sess), nil
}

func (s *BulkUploadService) UpdateClient(_ context.Context, owner, id string, idx int, edit bulkupload.ClientEdit) (*BatchView, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	if err := sess.workflow.BeginEditClient(idx); err != nil {
		return nil, err
	}
	if err := saveOrLeave(sess.workflow, func() error {
		_, err := sess.workflow.SaveClient(edit)
		return err
	}); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// saveOrLeave runs save and, when it fails, returns the workflow to review
// so the batch does not stay stuck in edit mode.
func saveOrLeave(w *bulkupload.Workflow, save func() error) error {
	if err := save(); err != nil {
		w.LeaveEdit()
		return err
	}
	return nil
}

func (s *BulkUploadService) RevertClient(_ context.Context, owner, id string, idx int) (*BatchView, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	if err := sess.workflow.BeginEditClient(idx); err != nil {
		return nil, err
	}
	if err := sess.workflow.CancelEdit(); err != nil {
		return nil, err
	}
	return view(sess), nil
}

func (s *BulkUploadService) RemoveContact(_ context.Context, owner, id string, idx int) (*BatchView, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	if err := sess.workflow.RemoveContact(idx); err != nil {
		return nil, err
	}
	return view(sess), nil
}

func (s *BulkUploadService) RemoveClient(_ context.Context, owner, id string, idx int) (*BatchView, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	if err := sess.workflow.RemoveClient(idx); err != nil {
		return nil, err
	}
	return view(sess), nil
}

func (s *BulkUploadService) AddSecondaryContact(_ context.Context, owner, id string, clientIdx int, contactID string) (*BatchView, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	if _, err := sess.workflow.AddSecondaryContact(clientIdx, contactID); err != nil {
		return nil, err
	}
	return view(sess), nil
}

func (s *BulkUploadService) RemoveSecondaryContact(_ context.Context, owner, id string, clientIdx int, contactID string) (*BatchView, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	if _, err := sess.workflow.RemoveSecondaryContact(clientIdx, contactID); err != nil {
		return nil, err
	}
	return view(sess), nil
}

// Confirm commits the batch and closes it. A batch with errors is rejected
// without contacting the backend; a failed commit leaves the batch open.
func (s *BulkUploadService) Confirm(ctx context.Context, owner, id string) (bulkupload.CommitResult, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return bulkupload.CommitResult{}, err
	}
	res, err := sess.workflow.Confirm(ctx, s.committer)
	switch {
	case errors.Is(err, bulkupload.ErrHasErrors):
		s.metrics.BulkRowsRejected.Inc()
		return res, err
	case errors.Is(err, bulkupload.ErrInvalidState):
		return res, err
	case err != nil:
		s.metrics.BulkBatches.WithLabelValues(outcomeFailed).Inc()
		return res, err
	}
	s.close(sess)
	s.metrics.BulkBatches.WithLabelValues(outcomeCommitted).Inc()
	s.publisher.Publish(&bulkupload.BatchCommittedEvent{BatchID: id, OwnerID: owner, Result: res})
	return res, nil
}

// Cancel discards the batch, as closing the dialog does.
func (s *BulkUploadService) Cancel(_ context.Context, owner, id string) error {
	sess, err := s.session(owner, id)
	if err != nil {
		return err
	}
	s.close(sess)
	s.metrics.BulkBatches.WithLabelValues(outcomeDiscarded).Inc()
	s.publisher.Publish(&bulkupload.BatchDiscardedEvent{BatchID: id, OwnerID: owner, Reason: "cancelled"})
	return nil
}

// Corrected renders the current batch as a workbook.
func (s *BulkUploadService) Corrected(_ context.Context, owner, id string) ([]byte, error) {
	sess, err := s.session(owner, id)
	if err != nil {
		return nil, err
	}
	return spreadsheet.WriteCorrected(sess.workflow.Batch())
}

// OpenBatches reports how many batches are open.
func (s *BulkUploadService) OpenBatches() int {
	return s.sessions.Len()
}
