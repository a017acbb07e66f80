package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrCorruptState marks a state document that exists but cannot be parsed.
// This is fatal at startup: silently discarding the mapping would re-mirror
// every post and orphan every destination message.
var ErrCorruptState = errors.New("corrupt state document")

// Store holds the MirrorState in memory and persists it to a single JSON
// file. All mutation goes through Update, which applies the change and saves
// under one mutex so a save always reflects a fully-applied mutation.
type Store struct {
	mu    sync.Mutex
	path  string
	state *MirrorState
}

// NewStore loads the document at path, or starts from an empty skeleton if
// no document exists yet. A document that exists but fails to parse returns
// an error wrapping ErrCorruptState.
func NewStore(path string) (*Store, error) {
	st := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			st.state = NewMirrorState()
			return st, nil
		}
		return nil, fmt.Errorf("reading state document %s: %w", path, err)
	}

	var loaded MirrorState
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptState, path, err)
	}
	loaded.normalize()
	st.state = &loaded
	return st, nil
}

// Update applies fn to the state and persists the result, all under the
// store mutex. If fn returns an error nothing is saved; fn must either fully
// apply its mutation or return early without mutating.
func (s *Store) Update(fn func(*MirrorState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.state); err != nil {
		return err
	}
	return s.saveLocked()
}

// saveLocked writes the document atomically: marshal to a temp file in the
// same directory, then rename over the target. A crash mid-write leaves the
// previous document intact.
func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".mirror_state-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing state document: %w", err)
	}
	return nil
}

// Single returns the destination message id mapped for a single post.
func (s *Store) Single(key SourceKey) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.state.Singles[key.String()]
	return id, ok
}

// Album returns the album record mapped for a group key. The returned record
// is a copy; mutating it does not touch the store.
func (s *Store) Album(key SourceKey) (AlbumRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.state.Albums[key.String()]
	if !ok {
		return AlbumRecord{}, false
	}
	ids := make([]int, len(rec.TargetMessageIDs))
	copy(ids, rec.TargetMessageIDs)
	return AlbumRecord{TargetMessageIDs: ids, CaptionMessageID: rec.CaptionMessageID}, true
}

// History returns a copy of the persisted dedup history, oldest first.
func (s *Store) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.state.History))
	copy(out, s.state.History)
	return out
}

// Stats reports document sizes for the status command.
func (s *Store) Stats() (singles, albums, history int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Singles), len(s.state.Albums), len(s.state.History)
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return s.path
}
