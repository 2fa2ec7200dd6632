package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/steveyegge/specstash/internal/types"
)

// verifyIntegrity checks a freshly copied archive against the original:
// recursive file counts must match (the archive's own metadata file is
// excluded), and every mandatory spec file must exist in the archive. Any
// mismatch is a fatal integrity failure that triggers rollback.
func verifyIntegrity(specPath, archivePath string) error {
	srcCount, err := countFiles(specPath, "")
	if err != nil {
		return fmt.Errorf("count original files: %w", err)
	}
	dstCount, err := countFiles(archivePath, types.MetadataFileName)
	if err != nil {
		return fmt.Errorf("count archived files: %w", err)
	}
	if srcCount != dstCount {
		return fmt.Errorf("file count mismatch: original has %d, archive has %d", srcCount, dstCount)
	}

	for _, name := range types.RequiredSpecFiles {
		fi, err := os.Stat(filepath.Join(archivePath, name))
		if err != nil || !fi.Mode().IsRegular() {
			return fmt.Errorf("required file missing from archive: %s", name)
		}
	}
	return nil
}

// countFiles counts regular files under root, excluding one top-level file
// name when exclude is non-empty.
func countFiles(root, exclude string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if exclude != "" && path == filepath.Join(root, exclude) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			count++
		}
		return nil
	})
	return count, err
}
