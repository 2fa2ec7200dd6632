// Package archive implements the archival engine: it moves a completed spec
// directory into the archive root via validate -> copy -> verify -> index ->
// delete, rolling back partial archives on failure. The original spec is
// deleted only after the copied archive is proven intact and indexed.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/steveyegge/specstash/internal/completion"
	"github.com/steveyegge/specstash/internal/index"
	"github.com/steveyegge/specstash/internal/types"
)

// DefaultQuietPeriod is how long tasks.md must have been unmodified before a
// spec is considered safe to archive. Guards against archiving mid-edit.
const DefaultQuietPeriod = 5 * time.Minute

// deleteRetries and deleteRetryInterval shape the retry policy for the
// post-verification delete step. Transient locks (editors, AV scanners) get a
// couple of chances before the attempt is declared CleanupFailed.
const (
	deleteRetries       = 2
	deleteRetryInterval = 100 * time.Millisecond
)

// Config configures an Engine. ArchiveRoot is required; the engine takes it
// as explicit configuration, not ambient state, so multiple engines can run
// against different roots (e.g. tests on temp directories).
type Config struct {
	ArchiveRoot string
	// QuietPeriod overrides DefaultQuietPeriod when > 0.
	QuietPeriod time.Duration
}

// Engine orchestrates spec archival against one archive root. It holds no
// state beyond its configuration; all shared state lives on disk.
type Engine struct {
	archiveRoot string
	quietPeriod time.Duration
	idx         *index.Manager

	// now, copyFile, and removeTree are swappable for tests (clock control,
	// simulated mid-copy failures, simulated delete failures).
	now        func() time.Time
	copyFile   func(src, dst string, info os.FileInfo) error
	removeTree func(path string) error
}

// NewEngine returns an Engine for cfg.ArchiveRoot.
func NewEngine(cfg Config) *Engine {
	quiet := cfg.QuietPeriod
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	e := &Engine{
		archiveRoot: cfg.ArchiveRoot,
		quietPeriod: quiet,
		idx:         index.NewManager(cfg.ArchiveRoot),
		now:         time.Now,
	}
	e.copyFile = e.copyFileContents
	e.removeTree = removeAllWithRetry
	return e
}

// ArchiveRoot returns the configured archive root.
func (e *Engine) ArchiveRoot() string { return e.archiveRoot }

// Index exposes the engine's index manager for query-only callers.
func (e *Engine) Index() *index.Manager { return e.idx }

// ArchiveSpec archives the spec directory at specPath. Failures never
// propagate as faults: the result carries a tagged error so a batch driver
// can continue with the next spec.
//
// Failure anywhere before the final delete rolls the partial archive back
// and leaves the original untouched. Failure of the delete itself is the one
// partial-success case: the archive is already valid and durable, so the
// engine deliberately prefers "duplicate, recoverable" over rolling back a
// proven-good archive, and reports CleanupFailed instead.
func (e *Engine) ArchiveSpec(specPath string) types.ArchivalResult {
	result := types.ArchivalResult{
		OriginalPath: specPath,
		Timestamp:    e.now().UTC(),
		State:        types.StatePending,
	}

	result.State = types.StateValidating
	archivePath, err := e.candidateArchivePath(specPath)
	if err != nil {
		return e.failRolledBack(result, "", types.NewArchiveError(types.ConfigurationError, specPath, err))
	}

	check, kind := e.validateSafety(specPath, archivePath)
	if !check.CanProceed {
		return e.failRolledBack(result, "", &types.ArchiveError{
			Kind:     kind,
			SpecPath: specPath,
			Issues:   check.Issues,
		})
	}

	// Extract spec info from the original before anything is copied or
	// deleted; the metadata must reflect the pre-archival state.
	info, err := e.specInfo(specPath)
	if err != nil {
		return e.failRolledBack(result, "", types.NewArchiveError(types.ValidationFailed, specPath, err))
	}

	result.State = types.StateCopying
	if err := os.MkdirAll(e.archiveRoot, 0o755); err != nil {
		return e.failRolledBack(result, "", types.NewArchiveError(types.ConfigurationError, specPath, err))
	}
	if err := os.Mkdir(archivePath, 0o755); err != nil {
		return e.failRolledBack(result, "", types.NewArchiveError(types.CopyFailed, specPath, err))
	}
	result.ArchivePath = archivePath

	if err := e.copyTree(specPath, archivePath); err != nil {
		return e.failRolledBack(result, archivePath, types.NewArchiveError(types.CopyFailed, specPath, err))
	}

	meta := types.ArchiveMetadata{
		SpecName:       info.name,
		OriginalPath:   specPath,
		ArchivePath:    archivePath,
		CompletionDate: info.completionDate,
		ArchivalDate:   result.Timestamp,
		TotalTasks:     info.counts.Total,
		CompletedTasks: info.counts.Completed,
		Version:        types.MetadataVersion,
	}
	if err := writeMetadataFile(archivePath, meta); err != nil {
		return e.failRolledBack(result, archivePath, types.NewArchiveError(types.CopyFailed, specPath, err))
	}

	result.State = types.StateVerifying
	if err := verifyIntegrity(specPath, archivePath); err != nil {
		return e.failRolledBack(result, archivePath, types.NewArchiveError(types.IntegrityFailed, specPath, err))
	}

	result.State = types.StateIndexing
	if err := e.idx.AddEntry(meta); err != nil {
		return e.failRolledBack(result, archivePath, types.NewArchiveError(types.ConfigurationError, specPath, err))
	}

	result.State = types.StateCleaningUp
	if err := e.removeTree(specPath); err != nil {
		// The archive is valid and indexed; only the delete needs retrying.
		result.State = types.StateFailedPartial
		result.Err = types.NewArchiveError(types.CleanupFailed, specPath, err)
		return result
	}

	result.State = types.StateComplete
	result.Success = true
	return result
}

// failRolledBack finalizes a failed attempt: best-effort removal of the
// partial archive (when one was created), original left untouched.
func (e *Engine) failRolledBack(result types.ArchivalResult, archivePath string, archiveErr *types.ArchiveError) types.ArchivalResult {
	if archivePath != "" {
		_ = os.RemoveAll(archivePath)
	}
	result.ArchivePath = ""
	result.State = types.StateFailedRollback
	result.Err = archiveErr
	return result
}

// specInfo captures name, completion date, and task counts from the original
// spec location.
type specDetails struct {
	name           string
	completionDate time.Time
	counts         types.TaskCounts
}

func (e *Engine) specInfo(specPath string) (specDetails, error) {
	tasksPath := filepath.Join(specPath, completion.TasksFileName)
	tasksInfo, err := os.Stat(tasksPath)
	if err != nil {
		return specDetails{}, fmt.Errorf("stat %s: %w", tasksPath, err)
	}
	data, err := os.ReadFile(tasksPath) // #nosec G304 - path under caller-supplied spec dir
	if err != nil {
		return specDetails{}, fmt.Errorf("read %s: %w", tasksPath, err)
	}
	return specDetails{
		name:           filepath.Base(specPath),
		completionDate: tasksInfo.ModTime().UTC(),
		counts:         completion.ParseTaskCounts(string(data)),
	}, nil
}

// removeAllWithRetry recursively deletes path, retrying transient failures a
// few times before giving up.
func removeAllWithRetry(path string) error {
	op := func() error {
		return os.RemoveAll(path)
	}
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(deleteRetryInterval), deleteRetries)
	return backoff.Retry(op, bo)
}

// GetArchivedSpecs returns every archived spec known to the index.
func (e *Engine) GetArchivedSpecs() ([]types.IndexEntry, error) {
	return e.idx.AllArchives()
}

// SearchArchivedSpecs returns archived specs whose name contains term,
// case-insensitively.
func (e *Engine) SearchArchivedSpecs(term string) ([]types.IndexEntry, error) {
	return e.idx.Search(term)
}

// GetArchiveStats summarizes the archive index.
func (e *Engine) GetArchiveStats() (types.ArchiveStats, error) {
	return e.idx.Stats()
}

// ValidateAndRepairArchiveIndex reconciles the index with the filesystem.
func (e *Engine) ValidateAndRepairArchiveIndex() (types.RepairResult, error) {
	return e.idx.ValidateAndRepair()
}
