package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/steveyegge/specstash/internal/types"
)

// ReadMetadataFile reads the hidden metadata file inside an archive
// directory. Used for repair and for reconstructing index entries after a
// partial removal.
func ReadMetadataFile(archivePath string) (types.ArchiveMetadata, error) {
	metaPath := filepath.Join(archivePath, types.MetadataFileName)
	data, err := os.ReadFile(metaPath) // #nosec G304 - path under configured archive root
	if err != nil {
		return types.ArchiveMetadata{}, fmt.Errorf("read archive metadata: %w", err)
	}
	var meta types.ArchiveMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return types.ArchiveMetadata{}, fmt.Errorf("parse archive metadata %s: %w", metaPath, err)
	}
	return meta, nil
}

// ValidateAndRepair reconciles the index with the filesystem:
//   - entries whose archive path no longer exists are dropped;
//   - archive directories on disk with valid metadata but no index entry are
//     reconstructed into the index.
//
// Only provably-invalid entries are removed. Directories without a readable
// metadata file are reported but left alone.
func (m *Manager) ValidateAndRepair() (types.RepairResult, error) {
	result := types.RepairResult{IsValid: true}

	err := m.withLock(func() error {
		idx, err := m.load()
		if err != nil {
			return err
		}

		indexed := make(map[string]bool, len(idx.Archives))
		kept := idx.Archives[:0]
		dirty := false
		for _, entry := range idx.Archives {
			info, err := os.Stat(entry.ArchivePath)
			if err != nil || !info.IsDir() {
				result.IsValid = false
				dirty = true
				result.Issues = append(result.Issues,
					fmt.Sprintf("dropped entry for missing archive: %s", entry.ArchivePath))
				continue
			}
			indexed[entry.ArchivePath] = true
			kept = append(kept, entry)
		}
		idx.Archives = kept

		// Adopt orphaned archives: directories with valid metadata that the
		// index doesn't know about (e.g. a process died between copy and
		// index registration, or the index file was lost).
		entries, err := os.ReadDir(m.root)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("scan archive root: %w", err)
		}
		for _, dirEntry := range entries {
			if !dirEntry.IsDir() {
				continue
			}
			archivePath := filepath.Join(m.root, dirEntry.Name())
			if indexed[archivePath] {
				continue
			}
			meta, err := ReadMetadataFile(archivePath)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					result.Issues = append(result.Issues,
						fmt.Sprintf("unreadable metadata in %s: %v", archivePath, err))
				}
				continue
			}
			// Trust the on-disk location over whatever the metadata recorded.
			meta.ArchivePath = archivePath
			idx.Archives = append(idx.Archives, types.EntryFromMetadata(meta))
			result.IsValid = false
			dirty = true
			result.Issues = append(result.Issues,
				fmt.Sprintf("reconstructed entry for unindexed archive: %s", archivePath))
		}

		if dirty {
			if err := m.save(idx); err != nil {
				return err
			}
			result.Repaired = true
		}
		return nil
	})
	if err != nil {
		return types.RepairResult{}, err
	}
	return result, nil
}
