// Package media manages the scratch directory holding downloaded media
// between fetch and send, and cleans it up so the disk never fills with
// already-forwarded files.
package media

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tinyland-inc/mirrorclaw/pkg/logger"
)

// Store is a flat scratch directory of downloaded media files.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// NewFilePath returns a unique path inside the workdir for a download. The
// extension (with leading dot) may be empty.
func (s *Store) NewFilePath(ext string) string {
	return filepath.Join(s.dir, uuid.New().String()+ext)
}

// Remove deletes one downloaded file after a successful send. Best-effort:
// failures are logged and never propagate.
func (s *Store) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.WarnCF("media", "Failed to remove media file",
			map[string]any{"path": path, "error": err.Error()})
		return
	}
	logger.DebugCF("media", "Removed media file", map[string]any{"path": path})
}

// Sweep deletes every regular file in the workdir and returns how many were
// removed. Subdirectories are left alone.
func (s *Store) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logger.WarnCF("media", "Workdir sweep failed",
			map[string]any{"dir": s.dir, "error": err.Error()})
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			logger.WarnCF("media", "Failed to sweep file",
				map[string]any{"path": path, "error": err.Error()})
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.InfoCF("media", "Workdir swept", map[string]any{"removed": removed})
	}
	return removed
}
