package persistence

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/iota-uz/legaldesk/modules/dashboard/domain/layout"
)

// FileStore keeps one JSON document per user under dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create layout dir")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(userID string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(userID))+".json")
}

func (s *FileStore) Load(_ context.Context, userID string) (layout.Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path(userID))
	if errors.Is(err, os.ErrNotExist) {
		return layout.Layout{}, layout.ErrNotFound
	}
	if err != nil {
		return layout.Layout{}, errors.Wrap(err, "read layout")
	}
	var l layout.Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return layout.Layout{}, errors.Wrap(err, "decode layout")
	}
	return l, nil
}

// Save writes through a temp file so readers never see a partial document.
func (s *FileStore) Save(_ context.Context, l layout.Layout) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode layout")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, "layout-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp layout")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write layout")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "write layout")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path(l.UserID)), "replace layout")
}

func (s *FileStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(userID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "delete layout")
	}
	return nil
}
