package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/legaldesk/modules/matters/domain/matter"
	"github.com/iota-uz/legaldesk/pkg/backend"
	"github.com/iota-uz/legaldesk/pkg/debounce"
)

const mattersEndpoint = "/matters"

// Source loads the full matter list.
type Source interface {
	Matters(ctx context.Context) ([]matter.Matter, error)
}

type BackendSource struct {
	client *backend.Client
}

func NewBackendSource(client *backend.Client) *BackendSource {
	return &BackendSource{client: client}
}

func (s *BackendSource) Matters(ctx context.Context) ([]matter.Matter, error) {
	return backend.Get[[]matter.Matter](ctx, s.client, mattersEndpoint, nil)
}

type MatterServiceOptions struct {
	// RefreshInterval is the maximum age of the cached list.
	RefreshInterval time.Duration
	// RefreshDelay coalesces bursts of Invalidate calls into one refetch.
	RefreshDelay time.Duration
	Logger       *logrus.Logger
}

// MatterService keeps an in-memory copy of the backend matter list. A
// failed refetch keeps serving the previous copy.
type MatterService struct {
	source   Source
	interval time.Duration
	logger   *logrus.Logger
	now      func() time.Time

	mu        sync.RWMutex
	matters   []matter.Matter
	fetchedAt time.Time
	loaded    bool

	refresher *debounce.Debouncer[struct{}, []matter.Matter]
}

func NewMatterService(source Source, opts MatterServiceOptions) *MatterService {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &MatterService{
		source:   source,
		interval: opts.RefreshInterval,
		logger:   logger,
		now:      time.Now,
	}
	s.refresher = debounce.New(opts.RefreshDelay,
		func(ctx context.Context, _ struct{}) ([]matter.Matter, error) {
			return s.source.Matters(ctx)
		},
		func(_ struct{}, list []matter.Matter, err error) {
			if err != nil {
				s.logger.WithError(err).Warn("background matter refresh failed")
				return
			}
			s.store(list)
		},
	)
	return s
}

func (s *MatterService) store(list []matter.Matter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matters = list
	s.fetchedAt = s.now()
	s.loaded = true
}

func (s *MatterService) fresh() ([]matter.Matter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil, false
	}
	stale := s.interval > 0 && s.now().Sub(s.fetchedAt) >= s.interval
	return s.matters, !stale
}

// All returns the cached matters, refetching when the copy is missing or
// older than the refresh interval.
func (s *MatterService) All(ctx context.Context) ([]matter.Matter, error) {
	cached, ok := s.fresh()
	if ok {
		return slices.Clone(cached), nil
	}
	list, err := s.source.Matters(ctx)
	if err != nil {
		if cached != nil {
			s.logger.WithError(err).Warn("serving stale matters")
			return slices.Clone(cached), nil
		}
		return nil, errors.Wrap(err, "load matters")
	}
	s.store(list)
	return slices.Clone(list), nil
}

// Invalidate schedules a background refetch.
func (s *MatterService) Invalidate() {
	s.refresher.Trigger(struct{}{})
}

func (s *MatterService) Close() {
	s.refresher.Stop()
}
