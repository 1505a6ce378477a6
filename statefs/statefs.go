// Package statefs provides the in-memory virtual filesystem that backs the
// agent's file tools. Paths are opaque string keys with no directory
// hierarchy; content is plain text. Nothing here ever touches the host
// filesystem, which is what lets concurrent sub-agents share one store
// without clobbering real files.
package statefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when a path has no entry in the store.
	ErrNotFound = errors.New("file not found")
	// ErrNoMatch is returned by Edit when old_string does not occur.
	ErrNoMatch = errors.New("old_string not found in file")
	// ErrAmbiguous is returned by Edit when old_string occurs more than
	// once and replace_all was not set.
	ErrAmbiguous = errors.New("old_string occurs multiple times")
)

const (
	// DefaultReadLimit is the number of lines Read returns when no limit
	// is given.
	DefaultReadLimit = 2000
	// maxLineChars bounds individual line length in Read output.
	maxLineChars = 2000
)

// Store is a path-keyed text content store. All operations are atomic under
// an internal mutex; conflicting writes to the same path serialize.
type Store struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{files: make(map[string]string)}
}

// FromMap creates a store seeded with the given files.
func FromMap(files map[string]string) *Store {
	s := NewStore()
	for path, content := range files {
		s.files[path] = content
	}
	return s
}

// List returns all known paths, sorted.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for path := range s.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Get returns the raw content of a path, or ErrNotFound.
func (s *Store) Get(path string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.files[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return content, nil
}

// Read returns the content of path as 1-based numbered lines, restricted to
// the window [offset, offset+limit). offset and limit must be non-negative;
// limit 0 means DefaultReadLimit. An offset past the end of the file yields
// an empty result, not an error.
func (s *Store) Read(path string, offset, limit int) (string, error) {
	if offset < 0 || limit < 0 {
		return "", fmt.Errorf("offset and limit must be non-negative (got %d, %d)", offset, limit)
	}
	if limit == 0 {
		limit = DefaultReadLimit
	}

	s.mu.RLock()
	content, ok := s.files[path]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if content == "" {
		return "", nil
	}

	lines := strings.Split(content, "\n")
	if offset >= len(lines) {
		return "", nil
	}
	end := offset + limit
	if end > len(lines) {
		end = len(lines)
	}

	var sb strings.Builder
	for i := offset; i < end; i++ {
		line := lines[i]
		if len(line) > maxLineChars {
			line = line[:maxLineChars]
		}
		if i > offset {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d\t%s", i+1, line)
	}
	return sb.String(), nil
}

// Write inserts or fully overwrites the entry for path. It never fails;
// the last successful write for a path wins.
func (s *Store) Write(path, content string) {
	s.mu.Lock()
	s.files[path] = content
	s.mu.Unlock()
}

// Edit replaces oldStr with newStr in the file at path and returns the
// number of replacements made. Unless replaceAll is set, oldStr must occur
// exactly once; zero occurrences is ErrNoMatch and more than one is
// ErrAmbiguous. On any error the file is left unchanged.
func (s *Store) Edit(path, oldStr, newStr string, replaceAll bool) (int, error) {
	if oldStr == "" {
		return 0, fmt.Errorf("old_string must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	content, ok := s.files[path]
	if !ok {
		return 0, fmt.Errorf("%s: %w", path, ErrNotFound)
	}

	count := strings.Count(content, oldStr)
	switch {
	case count == 0:
		return 0, fmt.Errorf("%s: %w", path, ErrNoMatch)
	case count > 1 && !replaceAll:
		return 0, fmt.Errorf("%s: %w (%d occurrences); provide more context or set replace_all", path, ErrAmbiguous, count)
	}

	if replaceAll {
		s.files[path] = strings.ReplaceAll(content, oldStr, newStr)
		return count, nil
	}
	s.files[path] = strings.Replace(content, oldStr, newStr, 1)
	return 1, nil
}

// Delete removes the entry for path, if present.
func (s *Store) Delete(path string) {
	s.mu.Lock()
	delete(s.files, path)
	s.mu.Unlock()
}

// Len returns the number of stored files.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Snapshot returns a copy of the full path → content table.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.files))
	for path, content := range s.files {
		out[path] = content
	}
	return out
}

// MarshalJSON serializes the store as a plain path → content object.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}
