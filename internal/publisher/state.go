package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// stateData is the on-disk JSON structure for published digests.
type stateData struct {
	Digests map[string]string `json:"digests"`
}

// State remembers the digest of the last fragment published per source so
// unchanged output is not rewritten after a restart.
type State struct {
	mu    sync.RWMutex
	path  string
	data  stateData
	dirty bool
}

// NewState loads the state file at path. A missing file starts empty; a
// corrupt one is an error.
func NewState(path string) (*State, error) {
	s := &State{
		path: path,
		data: stateData{Digests: make(map[string]string)},
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read state %s: %w", path, err)
	default:
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("decode state %s: %w", path, err)
		}
	}
	if s.data.Digests == nil {
		s.data.Digests = make(map[string]string)
	}

	return s, nil
}

// Get returns the last published digest for a source.
func (s *State) Get(source string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data.Digests[source]
	return v, ok
}

// Set records the digest just published for a source.
func (s *State) Set(source, digest string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.Digests[source] == digest {
		return
	}
	s.data.Digests[source] = digest
	s.dirty = true
}

// Delete forgets the digest of a source.
func (s *State) Delete(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data.Digests[source]; !ok {
		return
	}
	delete(s.data.Digests, source)
	s.dirty = true
}

// Save writes the state to disk atomically. Clean state is not rewritten.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := writeAtomic(s.path, raw); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// writeAtomic writes to a temp file first, then renames over path.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
