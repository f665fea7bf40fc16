package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// FileStore keeps the mirror as a single JSON array file, rewritten wholesale
// on every save
type FileStore struct {
	mu     sync.Mutex
	path   string
	events []json.RawMessage
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the file. A missing file is an empty mirror.
func (s *FileStore) Load(ctx context.Context) ([]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.events = nil
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror file: %w", err)
	}

	var events []json.RawMessage
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to decode mirror file: %w", err)
	}
	s.events = events

	out := make([]json.RawMessage, len(events))
	copy(out, events)
	return out, nil
}

func (s *FileStore) Append(ctx context.Context, events []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := append(s.events[:len(s.events):len(s.events)], events...)
	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to encode mirror: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create mirror directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write mirror file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace mirror file: %w", err)
	}

	s.events = all
	return nil
}

func (s *FileStore) Close() error { return nil }
