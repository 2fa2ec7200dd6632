package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/specstash/internal/completion"
	"github.com/steveyegge/specstash/internal/index"
	"github.com/steveyegge/specstash/internal/types"
)

// makeSpec creates a spec directory with the three required files and ages
// every file past the quiet period.
func makeSpec(t *testing.T, baseDir, name, tasks string) string {
	t.Helper()
	specPath := filepath.Join(baseDir, name)
	require.NoError(t, os.MkdirAll(specPath, 0o755))
	files := map[string]string{
		"requirements.md": "# Requirements\n\nDo the thing.\n",
		"design.md":       "# Design\n\nLike so.\n",
		"tasks.md":        tasks,
	}
	for file, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(specPath, file), []byte(content), 0o644))
	}
	ageSpec(t, specPath)
	return specPath
}

// ageSpec pushes every file's timestamps an hour into the past so the
// quiet-period check passes.
func ageSpec(t *testing.T, specPath string) {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	entries, err := os.ReadDir(specPath)
	require.NoError(t, err)
	for _, entry := range entries {
		require.NoError(t, os.Chtimes(filepath.Join(specPath, entry.Name()), past, past))
	}
}

func newTestEngine(t *testing.T) (*Engine, string, string) {
	t.Helper()
	tmp := t.TempDir()
	specsDir := filepath.Join(tmp, "specs")
	archiveDir := filepath.Join(tmp, "archive")
	require.NoError(t, os.MkdirAll(specsDir, 0o755))
	return NewEngine(Config{ArchiveRoot: archiveDir}), specsDir, archiveDir
}

func TestArchiveSpecSuccess(t *testing.T) {
	engine, specsDir, archiveDir := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "alpha", "- [x] 1. a\n- [x] 2. b\n- [x] 3. c\n")

	before, err := completion.CheckSpecCompletion(specPath)
	require.NoError(t, err)
	require.True(t, before.IsComplete)

	result := engine.ArchiveSpec(specPath)
	require.True(t, result.Success, "archive failed: %v", result.Err)
	assert.Equal(t, types.StateComplete, result.State)
	assert.Equal(t, specPath, result.OriginalPath)

	// Original removed.
	_, err = os.Stat(specPath)
	assert.True(t, os.IsNotExist(err), "original must be deleted")

	// Archive directory named <date>_alpha.
	wantPrefix := time.Now().UTC().Format("2006-01-02") + "_alpha"
	assert.Equal(t, wantPrefix, filepath.Base(result.ArchivePath))
	assert.Equal(t, archiveDir, filepath.Dir(result.ArchivePath))

	// Copied files present.
	for _, name := range types.RequiredSpecFiles {
		_, err := os.Stat(filepath.Join(result.ArchivePath, name))
		require.NoError(t, err)
	}

	// Metadata round-trips the pre-archival counts.
	meta, err := index.ReadMetadataFile(result.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, "alpha", meta.SpecName)
	assert.Equal(t, before.TotalTasks, meta.TotalTasks)
	assert.Equal(t, before.CompletedTasks, meta.CompletedTasks)
	assert.Equal(t, types.MetadataVersion, meta.Version)

	// Indexed.
	entries, err := engine.GetArchivedSpecs()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, result.ArchivePath, entries[0].ArchivePath)
}

func TestArchiveSpecDoesNotRequireCompletion(t *testing.T) {
	// Completion detection and archival are deliberately decoupled: safety
	// validation checks file presence, not checklist state.
	engine, specsDir, _ := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "beta", "- [x] a\n- [x] b\n- [ ] c\n")

	result := engine.ArchiveSpec(specPath)
	require.True(t, result.Success, "incomplete spec must still archive: %v", result.Err)

	meta, err := index.ReadMetadataFile(result.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.TotalTasks)
	assert.Equal(t, 2, meta.CompletedTasks)
}

func TestArchiveSpecMissingRequiredFile(t *testing.T) {
	engine, specsDir, archiveDir := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "gamma", "- [x] a\n")
	require.NoError(t, os.Remove(filepath.Join(specPath, "design.md")))

	result := engine.ArchiveSpec(specPath)
	require.False(t, result.Success)
	assert.Equal(t, types.StateFailedRollback, result.State)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.ValidationFailed, result.Err.Kind)
	assert.Contains(t, strings.Join(result.Err.Issues, "\n"), "missing required file: design.md")

	// Original untouched, no archive directory created. The archive root
	// itself must not appear either; a failed validation has no filesystem
	// side effects at all.
	_, err := os.Stat(filepath.Join(specPath, "requirements.md"))
	require.NoError(t, err)
	_, err = os.Stat(archiveDir)
	assert.True(t, os.IsNotExist(err), "validation must not create the archive root")
	assertNoIndexEntries(t, engine)
}

func TestValidateArchivalSafetyReportsAllIssues(t *testing.T) {
	engine, specsDir, _ := newTestEngine(t)
	specPath := filepath.Join(specsDir, "hollow")
	require.NoError(t, os.MkdirAll(specPath, 0o755))

	check, err := engine.ValidateArchivalSafety(specPath)
	require.NoError(t, err)
	assert.False(t, check.IsSafe)
	assert.False(t, check.CanProceed)
	assert.Len(t, check.Issues, 3, "one issue per missing required file: %v", check.Issues)
}

func TestQuietPeriodBlocksFreshEdits(t *testing.T) {
	engine, specsDir, archiveDir := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "busy", "- [x] a\n")
	// Touch tasks.md back to "just edited".
	now := time.Now()
	require.NoError(t, os.Chtimes(filepath.Join(specPath, "tasks.md"), now, now))

	result := engine.ArchiveSpec(specPath)
	require.False(t, result.Success)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.ValidationFailed, result.Err.Kind)
	assert.Contains(t, strings.Join(result.Err.Issues, "\n"), "quiet period")

	_, err := os.Stat(filepath.Join(specPath, "tasks.md"))
	require.NoError(t, err, "original must be untouched")
	assertNoArchiveDirs(t, archiveDir)
}

func TestQuietPeriodConfigurable(t *testing.T) {
	tmp := t.TempDir()
	engine := NewEngine(Config{
		ArchiveRoot: filepath.Join(tmp, "archive"),
		QuietPeriod: time.Nanosecond,
	})
	specPath := makeSpec(t, tmp, "quick", "- [x] a\n")
	now := time.Now().Add(-time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(specPath, "tasks.md"), now, now))

	result := engine.ArchiveSpec(specPath)
	assert.True(t, result.Success, "tiny quiet period must allow fresh specs: %v", result.Err)
}

func TestSameDayArchivesGetDistinctPaths(t *testing.T) {
	engine, specsDir, _ := newTestEngine(t)

	var paths []string
	for i := 0; i < 3; i++ {
		specPath := makeSpec(t, specsDir, "alpha", fmt.Sprintf("- [x] run %d\n", i))
		result := engine.ArchiveSpec(specPath)
		require.True(t, result.Success, "attempt %d: %v", i, result.Err)
		paths = append(paths, result.ArchivePath)
	}

	seen := map[string]bool{}
	for _, p := range paths {
		assert.False(t, seen[p], "duplicate archive path %s", p)
		seen[p] = true
		assert.True(t, strings.HasSuffix(p, "_alpha"))
	}

	entries, err := engine.GetArchivedSpecs()
	require.NoError(t, err)
	assert.Len(t, entries, 3, "every attempt must be indexed")
}

func TestMidCopyFailureRollsBack(t *testing.T) {
	engine, specsDir, archiveDir := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "fragile", "- [x] a\n- [x] b\n")

	boom := errors.New("disk on fire")
	engine.copyFile = func(src, dst string, info os.FileInfo) error {
		if filepath.Base(src) == "design.md" {
			return boom
		}
		return engine.copyFileContents(src, dst, info)
	}

	result := engine.ArchiveSpec(specPath)
	require.False(t, result.Success)
	assert.Equal(t, types.StateFailedRollback, result.State)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.CopyFailed, result.Err.Kind)
	assert.ErrorIs(t, result.Err, boom)
	assert.Empty(t, result.ArchivePath, "failed result must not advertise a path")

	// Original file set and contents unchanged.
	for _, name := range types.RequiredSpecFiles {
		data, err := os.ReadFile(filepath.Join(specPath, name))
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}

	// Partial archive cleaned up, nothing indexed.
	assertNoArchiveDirs(t, archiveDir)
	assertNoIndexEntries(t, engine)
}

func TestIntegrityFailureRollsBack(t *testing.T) {
	engine, specsDir, archiveDir := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "shifty", "- [x] a\n")

	// Copies succeed but a stray file sneaks into the archive, so the
	// post-copy verification must catch the count mismatch.
	engine.copyFile = func(src, dst string, info os.FileInfo) error {
		if err := engine.copyFileContents(src, dst, info); err != nil {
			return err
		}
		if filepath.Base(src) == "requirements.md" {
			return os.WriteFile(filepath.Join(filepath.Dir(dst), "stray.tmp"), []byte("x"), 0o644)
		}
		return nil
	}

	result := engine.ArchiveSpec(specPath)
	require.False(t, result.Success)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.IntegrityFailed, result.Err.Kind)
	assert.Equal(t, types.StateFailedRollback, result.State)

	_, err := os.Stat(filepath.Join(specPath, "requirements.md"))
	require.NoError(t, err, "original must survive integrity rollback")
	assertNoArchiveDirs(t, archiveDir)
	assertNoIndexEntries(t, engine)
}

func TestArchivePreservesSubdirectoriesAndTimestamps(t *testing.T) {
	engine, specsDir, _ := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "nested", "- [x] a\n")
	subDir := filepath.Join(specPath, "notes")
	require.NoError(t, os.MkdirAll(subDir, 0o755))
	extraPath := filepath.Join(subDir, "scratch.md")
	require.NoError(t, os.WriteFile(extraPath, []byte("scribbles\n"), 0o600))
	ageSpec(t, specPath)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(extraPath, past, past))
	origInfo, err := os.Stat(extraPath)
	require.NoError(t, err)

	result := engine.ArchiveSpec(specPath)
	require.True(t, result.Success, "archive failed: %v", result.Err)

	copied := filepath.Join(result.ArchivePath, "notes", "scratch.md")
	info, err := os.Stat(copied)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "permission bits preserved")
	assert.WithinDuration(t, origInfo.ModTime(), info.ModTime(), time.Second, "mtime preserved")

	data, err := os.ReadFile(copied)
	require.NoError(t, err)
	assert.Equal(t, "scribbles\n", string(data))
}

func TestDeleteFailureIsPartialSuccess(t *testing.T) {
	engine, specsDir, _ := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "sticky", "- [x] a\n- [x] b\n")

	locked := errors.New("text file busy")
	engine.removeTree = func(path string) error { return locked }

	result := engine.ArchiveSpec(specPath)
	require.False(t, result.Success)
	assert.Equal(t, types.StateFailedPartial, result.State)
	require.NotNil(t, result.Err)
	assert.Equal(t, types.CleanupFailed, result.Err.Kind)
	assert.ErrorIs(t, result.Err, locked)

	// The archive is durable: directory, metadata, and index entry all
	// survive. Only the original's deletion is outstanding.
	require.NotEmpty(t, result.ArchivePath, "partial success must advertise the archive path")
	meta, err := index.ReadMetadataFile(result.ArchivePath)
	require.NoError(t, err)
	assert.Equal(t, "sticky", meta.SpecName)

	entries, err := engine.GetArchivedSpecs()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, result.ArchivePath, entries[0].ArchivePath)

	// Original left in place for a retry; no rollback of the good archive.
	_, err = os.Stat(filepath.Join(specPath, "tasks.md"))
	require.NoError(t, err, "original must survive a failed delete")
}

func TestRemoveArchivedSpec(t *testing.T) {
	engine, specsDir, _ := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "doomed", "- [x] a\n")
	result := engine.ArchiveSpec(specPath)
	require.True(t, result.Success)

	require.NoError(t, engine.RemoveArchivedSpec(result.ArchivePath))

	_, err := os.Stat(result.ArchivePath)
	assert.True(t, os.IsNotExist(err))
	assertNoIndexEntries(t, engine)
}

func TestRemoveArchivedSpecAlreadyDeletedExternally(t *testing.T) {
	engine, specsDir, _ := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "vanished", "- [x] a\n")
	result := engine.ArchiveSpec(specPath)
	require.True(t, result.Success)

	// Someone deleted the directory behind our back. The index must still
	// end up consistent: entry absent, never dangling.
	require.NoError(t, os.RemoveAll(result.ArchivePath))
	require.NoError(t, engine.RemoveArchivedSpec(result.ArchivePath))
	assertNoIndexEntries(t, engine)
}

func TestRemoveArchivedSpecRestoresEntryOnFailedDelete(t *testing.T) {
	engine, specsDir, _ := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "stubborn", "- [x] a\n")
	result := engine.ArchiveSpec(specPath)
	require.True(t, result.Success)

	locked := errors.New("directory busy")
	engine.removeTree = func(path string) error { return locked }

	err := engine.RemoveArchivedSpec(result.ArchivePath)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.CleanupFailed))
	assert.ErrorIs(t, err, locked)

	// Directory survived the failed delete, so the index entry must have
	// been reconstructed from the archive's metadata file.
	_, statErr := os.Stat(result.ArchivePath)
	require.NoError(t, statErr)
	entries, qErr := engine.GetArchivedSpecs()
	require.NoError(t, qErr)
	require.Len(t, entries, 1)
	assert.Equal(t, result.ArchivePath, entries[0].ArchivePath)
	assert.Equal(t, "stubborn", entries[0].SpecName)
}

func TestEngineQueryOperations(t *testing.T) {
	engine, specsDir, _ := newTestEngine(t)
	for _, name := range []string{"auth-login", "auth-logout", "billing"} {
		specPath := makeSpec(t, specsDir, name, "- [x] a\n- [x] b\n")
		result := engine.ArchiveSpec(specPath)
		require.True(t, result.Success, "%s: %v", name, result.Err)
	}

	all, err := engine.GetArchivedSpecs()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	matches, err := engine.SearchArchivedSpecs("auth")
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	stats, err := engine.GetArchiveStats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 6, stats.TotalTasksArchived)
}

func TestValidateAndRepairThroughEngine(t *testing.T) {
	engine, specsDir, _ := newTestEngine(t)
	specPath := makeSpec(t, specsDir, "flaky", "- [x] a\n")
	result := engine.ArchiveSpec(specPath)
	require.True(t, result.Success)

	// Simulate external deletion; the entry is now provably invalid.
	require.NoError(t, os.RemoveAll(result.ArchivePath))

	repair, err := engine.ValidateAndRepairArchiveIndex()
	require.NoError(t, err)
	assert.False(t, repair.IsValid)
	assert.True(t, repair.Repaired)
	assertNoIndexEntries(t, engine)
}

// assertNoArchiveDirs checks the archive root contains no archive
// directories (the index and lock files may exist).
func assertNoArchiveDirs(t *testing.T, archiveDir string) {
	t.Helper()
	entries, err := os.ReadDir(archiveDir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, entry.IsDir(), "unexpected archive dir %s", entry.Name())
	}
}

func assertNoIndexEntries(t *testing.T, engine *Engine) {
	t.Helper()
	entries, err := engine.GetArchivedSpecs()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
