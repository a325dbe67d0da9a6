// Package prompt persists the user's custom coaching prompt. The prompt is
// plain configuration read at render time; nothing else in the pipeline
// depends on it.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

type record struct {
	Prompt *string `json:"prompt"`
}

// Store is a file-backed custom prompt. Safe for concurrent use.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Get returns the stored prompt, or "" when none is set.
func (s *Store) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read custom prompt: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", fmt.Errorf("decode custom prompt: %w", err)
	}
	if rec.Prompt == nil {
		return "", nil
	}
	return *rec.Prompt, nil
}

// Set stores a new prompt, replacing any previous one.
func (s *Store) Set(prompt string) error {
	return s.write(record{Prompt: &prompt})
}

// Clear removes the stored prompt.
func (s *Store) Clear() error {
	return s.write(record{})
}

func (s *Store) write(rec record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode custom prompt: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write custom prompt: %w", err)
	}
	return nil
}
