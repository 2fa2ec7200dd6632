package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/steveyegge/specstash/internal/types"
)

// copyTree recursively copies every file and subdirectory from src into dst.
// dst must already exist. Each file copy preserves the source's permission
// bits and access/modification timestamps.
func (e *Engine) copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relative path: %w", err)
		}
		if rel == "." {
			return nil
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		if d.IsDir() {
			if err := os.Mkdir(target, info.Mode().Perm()); err != nil {
				return fmt.Errorf("create dir %s: %w", target, err)
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			// Symlinks and other specials don't occur in authored spec
			// directories; skip rather than guess at semantics.
			return nil
		}

		if err := e.copyFile(path, target, info); err != nil {
			return err
		}
		return preserveAttributes(path, target)
	})
}

// copyFileContents streams src into dst. It is the default for the engine's
// copyFile hook.
func (e *Engine) copyFileContents(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src) // #nosec G304 - path under caller-supplied spec dir
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm()) // #nosec G304 - path under archive root
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

// preserveAttributes re-stats src after the streamed copy and applies its
// permission bits and access/modification timestamps to dst.
func preserveAttributes(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("re-stat %s: %w", src, err)
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod %s: %w", dst, err)
	}
	atime := accessTime(info)
	if err := os.Chtimes(dst, atime, info.ModTime()); err != nil {
		return fmt.Errorf("chtimes %s: %w", dst, err)
	}
	return nil
}

// writeMetadataFile writes the hidden archive metadata file inside the
// archive directory. Written once; the file is immutable afterward.
func writeMetadataFile(archivePath string, meta types.ArchiveMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal archive metadata: %w", err)
	}
	metaPath := filepath.Join(archivePath, types.MetadataFileName)
	if err := os.WriteFile(metaPath, data, 0o644); err != nil { // #nosec G306 - metadata is not sensitive
		return fmt.Errorf("write archive metadata: %w", err)
	}
	return nil
}
