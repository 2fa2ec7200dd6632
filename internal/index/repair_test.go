package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/specstash/internal/types"
)

// makeArchiveDir creates an on-disk archive directory with a metadata file.
func makeArchiveDir(t *testing.T, root, dirName string, meta types.ArchiveMetadata) string {
	t.Helper()
	archivePath := filepath.Join(root, dirName)
	require.NoError(t, os.MkdirAll(archivePath, 0o755))
	data, err := json.MarshalIndent(meta, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(archivePath, types.MetadataFileName), data, 0o644))
	return archivePath
}

func TestRepairDropsEntriesForMissingArchives(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	now := time.Now().UTC()

	kept := makeArchiveDir(t, root, "2026-08-23_kept", testMeta("kept", filepath.Join(root, "2026-08-23_kept"), now, 1, 1))
	require.NoError(t, m.AddEntry(testMeta("kept", kept, now, 1, 1)))
	require.NoError(t, m.AddEntry(testMeta("ghost", filepath.Join(root, "2026-08-23_ghost"), now, 2, 2)))

	result, err := m.ValidateAndRepair()
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.True(t, result.Repaired)
	require.NotEmpty(t, result.Issues)

	entries, err := m.AllArchives()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].SpecName)
}

func TestRepairReconstructsUnindexedArchives(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	now := time.Now().UTC().Truncate(time.Second)

	orphanPath := filepath.Join(root, "2026-08-23_orphan")
	makeArchiveDir(t, root, "2026-08-23_orphan", testMeta("orphan", orphanPath, now, 7, 7))

	result, err := m.ValidateAndRepair()
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.True(t, result.Repaired)

	entries, err := m.AllArchives()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "orphan", entries[0].SpecName)
	assert.Equal(t, orphanPath, entries[0].ArchivePath)
	assert.Equal(t, 7, entries[0].TotalTasks)
}

func TestRepairLeavesDirectoriesWithoutMetadataAlone(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "random-dir"), 0o755))

	result, err := m.ValidateAndRepair()
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.False(t, result.Repaired)

	entries, err := m.AllArchives()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRepairConsistentIndexIsNoOp(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root)
	now := time.Now().UTC()

	archivePath := makeArchiveDir(t, root, "2026-08-23_fine", testMeta("fine", filepath.Join(root, "2026-08-23_fine"), now, 1, 1))
	require.NoError(t, m.AddEntry(testMeta("fine", archivePath, now, 1, 1)))

	result, err := m.ValidateAndRepair()
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.False(t, result.Repaired)
	assert.Empty(t, result.Issues)
}

func TestRepairPostcondition(t *testing.T) {
	// After repair: every entry's path exists on disk, and every on-disk
	// archive with valid metadata has an entry.
	root := t.TempDir()
	m := NewManager(root)
	now := time.Now().UTC()

	a := makeArchiveDir(t, root, "a", testMeta("a", filepath.Join(root, "a"), now, 1, 1))
	makeArchiveDir(t, root, "b", testMeta("b", filepath.Join(root, "b"), now, 1, 1))
	require.NoError(t, m.AddEntry(testMeta("a", a, now, 1, 1)))
	require.NoError(t, m.AddEntry(testMeta("gone", filepath.Join(root, "gone"), now, 1, 1)))

	_, err := m.ValidateAndRepair()
	require.NoError(t, err)

	entries, err := m.AllArchives()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		info, err := os.Stat(entry.ArchivePath)
		require.NoError(t, err, "entry %s must resolve on disk", entry.SpecName)
		assert.True(t, info.IsDir())
	}
}
