// Package file persists the recent search list as JSON documents on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"holdermap/internal/storage"
)

// document is the on-disk layout: the same {state, version} envelope the
// browser-side persisted store uses, so files can be seeded from a browser export.
type document struct {
	State struct {
		RecentSearches []string `json:"recentSearches"`
	} `json:"state"`
	Version int `json:"version"`
}

// RecentSearchStore stores one JSON file per key in a directory.
type RecentSearchStore struct {
	mu  sync.Mutex
	dir string
}

// NewRecentSearchStore creates a store rooted at dir, creating it if needed.
func NewRecentSearchStore(dir string) (*RecentSearchStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &RecentSearchStore{dir: dir}, nil
}

func (s *RecentSearchStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", storage.ErrInvalidInput
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Load returns the list stored under key.
func (s *RecentSearchStore) Load(_ context.Context, key string) ([]string, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	if doc.State.RecentSearches == nil {
		return []string{}, nil
	}
	return doc.State.RecentSearches, nil
}

// Save replaces the list stored under key. The file is written to a
// temporary name and renamed into place.
func (s *RecentSearchStore) Save(_ context.Context, key string, addresses []string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	var doc document
	doc.State.RecentSearches = addresses
	if doc.State.RecentSearches == nil {
		doc.State.RecentSearches = []string{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode recent searches: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename %s: %w", p, err)
	}
	return nil
}

var _ storage.RecentSearchStore = (*RecentSearchStore)(nil)
