package archive

import (
	"fmt"
	"os"

	"github.com/steveyegge/specstash/internal/index"
	"github.com/steveyegge/specstash/internal/types"
)

// RemoveArchivedSpec removes an archived spec: index entry first, then the
// filesystem directory. If the directory delete fails after the entry was
// already removed, the entry is reconstructed from the archive's own
// metadata file so the index and filesystem never end up inconsistent.
func (e *Engine) RemoveArchivedSpec(archivePath string) error {
	// Snapshot the metadata up front; it is the only source for
	// reconstruction once the index entry is gone.
	meta, metaErr := index.ReadMetadataFile(archivePath)

	removed, err := e.idx.RemoveEntry(archivePath)
	if err != nil {
		return fmt.Errorf("remove index entry: %w", err)
	}

	if err := e.removeTree(archivePath); err != nil {
		if _, statErr := os.Stat(archivePath); statErr == nil && removed {
			// Directory survived the failed delete; put the entry back.
			if metaErr == nil {
				meta.ArchivePath = archivePath
				if addErr := e.idx.AddEntry(meta); addErr != nil {
					return types.NewArchiveError(types.CleanupFailed, archivePath, err,
						fmt.Sprintf("archive delete failed and index entry could not be restored: %v", addErr))
				}
			}
		}
		return types.NewArchiveError(types.CleanupFailed, archivePath, err)
	}
	return nil
}
