// Package index maintains the durable catalog of archived specs: a single
// JSON file at the archive root. Every mutation rewrites the whole file; this
// trades scalability for simplicity and is fine for index sizes in the
// hundreds. Reads always go back to disk so separate process invocations see
// the latest persisted state.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/steveyegge/specstash/internal/lockfile"
	"github.com/steveyegge/specstash/internal/types"
)

const (
	// IndexFileName is the catalog file at the archive root.
	IndexFileName = "archive-index.json"
	// LockFileName guards index mutations with a best-effort advisory flock.
	LockFileName = ".archive-index.lock"
)

// Manager persists and queries the archive index for one archive root.
// It holds no cached state; each call re-reads the index file.
type Manager struct {
	root string
}

// NewManager returns a Manager for the given archive root. The root need not
// exist yet; it is created on the first mutation.
func NewManager(archiveRoot string) *Manager {
	return &Manager{root: archiveRoot}
}

// IndexPath returns the path of the index file under the archive root.
func (m *Manager) IndexPath() string {
	return filepath.Join(m.root, IndexFileName)
}

func (m *Manager) lockPath() string {
	return filepath.Join(m.root, LockFileName)
}

// load reads the index from disk. A missing file yields an empty index.
func (m *Manager) load() (*types.ArchiveIndex, error) {
	data, err := os.ReadFile(m.IndexPath()) // #nosec G304 - path under configured archive root
	if os.IsNotExist(err) {
		return &types.ArchiveIndex{Version: types.MetadataVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archive index: %w", err)
	}

	var idx types.ArchiveIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse archive index: %w", err)
	}
	return &idx, nil
}

// save writes the index durably: temp file in the same directory, fsync,
// then rename over the old file.
func (m *Manager) save(idx *types.ArchiveIndex) error {
	idx.Version = types.MetadataVersion
	idx.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive index: %w", err)
	}

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("create archive root: %w", err)
	}

	tmp, err := os.CreateTemp(m.root, IndexFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmpPath, m.IndexPath()); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace archive index: %w", err)
	}
	return nil
}

// withLock runs fn under the advisory index lock. Lock acquisition failures
// are not fatal; the lock is best-effort (see package lockfile).
func (m *Manager) withLock(fn func() error) error {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("create archive root: %w", err)
	}
	lock, err := lockfile.Acquire(m.lockPath())
	if err == nil {
		defer func() { _ = lock.Release() }()
	}
	return fn()
}

// AddEntry appends the metadata's index entry and rewrites the index file.
func (m *Manager) AddEntry(meta types.ArchiveMetadata) error {
	return m.withLock(func() error {
		idx, err := m.load()
		if err != nil {
			return err
		}
		idx.Archives = append(idx.Archives, types.EntryFromMetadata(meta))
		return m.save(idx)
	})
}

// RemoveEntry filters out the entry matching archivePath. Returns whether an
// entry was present.
func (m *Manager) RemoveEntry(archivePath string) (bool, error) {
	removed := false
	err := m.withLock(func() error {
		idx, err := m.load()
		if err != nil {
			return err
		}
		kept := idx.Archives[:0]
		for _, entry := range idx.Archives {
			if entry.ArchivePath == archivePath {
				removed = true
				continue
			}
			kept = append(kept, entry)
		}
		if !removed {
			return nil
		}
		idx.Archives = kept
		return m.save(idx)
	})
	return removed, err
}

// AllArchives returns every index entry, freshly read from disk.
func (m *Manager) AllArchives() ([]types.IndexEntry, error) {
	idx, err := m.load()
	if err != nil {
		return nil, err
	}
	return idx.Archives, nil
}

// Search returns entries whose spec name contains term, case-insensitively.
func (m *Manager) Search(term string) ([]types.IndexEntry, error) {
	idx, err := m.load()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	var matches []types.IndexEntry
	for _, entry := range idx.Archives {
		if strings.Contains(strings.ToLower(entry.SpecName), needle) {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}

// Stats summarizes the index: entry count, oldest/newest archival date, and
// total tasks archived.
func (m *Manager) Stats() (types.ArchiveStats, error) {
	idx, err := m.load()
	if err != nil {
		return types.ArchiveStats{}, err
	}

	stats := types.ArchiveStats{Count: len(idx.Archives)}
	for _, entry := range idx.Archives {
		stats.TotalTasksArchived += entry.TotalTasks
		archival := entry.ArchivalDate
		if stats.OldestArchival == nil || archival.Before(*stats.OldestArchival) {
			t := archival
			stats.OldestArchival = &t
		}
		if stats.NewestArchival == nil || archival.After(*stats.NewestArchival) {
			t := archival
			stats.NewestArchival = &t
		}
	}
	return stats, nil
}
