package services

import (
	"context"
	"encoding/json"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/pkg/errors"
	"github.com/wI2L/jsondiff"

	"github.com/iota-uz/legaldesk/modules/dashboard/domain/layout"
)

type LayoutService struct {
	store layout.Store
	now   func() time.Time
}

// PatchResult carries the saved layout and the JSON Patch that reverts it.
type PatchResult struct {
	Layout layout.Layout   `json:"layout"`
	Undo   json.RawMessage `json:"undo"`
}

type widgetsDoc struct {
	Widgets []layout.Widget `json:"widgets"`
}

func NewLayoutService(store layout.Store) *LayoutService {
	return &LayoutService{store: store, now: time.Now}
}

// Load returns the user's saved layout or the default one.
func (s *LayoutService) Load(ctx context.Context, userID string) (layout.Layout, error) {
	l, err := s.store.Load(ctx, userID)
	if errors.Is(err, layout.ErrNotFound) {
		return layout.Default(userID), nil
	}
	if err != nil {
		return layout.Layout{}, err
	}
	return l, nil
}

func (s *LayoutService) Save(ctx context.Context, userID string, widgets []layout.Widget) (layout.Layout, error) {
	if widgets == nil {
		widgets = []layout.Widget{}
	}
	l := layout.Layout{UserID: userID, Widgets: widgets, UpdatedAt: s.now().UTC()}
	if err := l.Validate(); err != nil {
		return layout.Layout{}, err
	}
	if err := s.store.Save(ctx, l); err != nil {
		return layout.Layout{}, err
	}
	return l, nil
}

// Patch applies an RFC 6902 patch to the {"widgets": [...]} document of the
// current layout and saves the result.
func (s *LayoutService) Patch(ctx context.Context, userID string, patch []byte) (PatchResult, error) {
	current, err := s.Load(ctx, userID)
	if err != nil {
		return PatchResult{}, err
	}
	if current.Widgets == nil {
		current.Widgets = []layout.Widget{}
	}
	before, err := json.Marshal(widgetsDoc{Widgets: current.Widgets})
	if err != nil {
		return PatchResult{}, errors.Wrap(err, "encode layout")
	}
	ops, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return PatchResult{}, errors.Wrap(layout.ErrInvalidPatch, err.Error())
	}
	after, err := ops.Apply(before)
	if err != nil {
		return PatchResult{}, errors.Wrap(layout.ErrInvalidPatch, err.Error())
	}
	var doc widgetsDoc
	if err := json.Unmarshal(after, &doc); err != nil {
		return PatchResult{}, errors.Wrap(layout.ErrInvalidPatch, err.Error())
	}
	saved, err := s.Save(ctx, userID, doc.Widgets)
	if err != nil {
		return PatchResult{}, err
	}

	normalized, err := json.Marshal(widgetsDoc{Widgets: saved.Widgets})
	if err != nil {
		return PatchResult{}, errors.Wrap(err, "encode layout")
	}
	reverse, err := jsondiff.CompareJSON(normalized, before)
	if err != nil {
		return PatchResult{}, errors.Wrap(err, "diff layout")
	}
	undo := json.RawMessage("[]")
	if len(reverse) > 0 {
		if undo, err = json.Marshal(reverse); err != nil {
			return PatchResult{}, errors.Wrap(err, "encode undo patch")
		}
	}
	return PatchResult{Layout: saved, Undo: undo}, nil
}

// Reset drops the saved layout so Load falls back to the default.
func (s *LayoutService) Reset(ctx context.Context, userID string) (layout.Layout, error) {
	if err := s.store.Delete(ctx, userID); err != nil {
		return layout.Layout{}, err
	}
	return layout.Default(userID), nil
}
