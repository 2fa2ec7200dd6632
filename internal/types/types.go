// Package types defines the shared data model for spec archival: completion
// status, safety checks, archive metadata, and the durable index schema.
package types

import "time"

// MetadataVersion is written into every archive metadata file and index.
// Bump only with a migration path for existing archives.
const MetadataVersion = "1"

// MetadataFileName is the hidden metadata file written inside each archive
// directory. It is excluded from integrity file counts.
const MetadataFileName = ".archive-metadata.json"

// RequiredSpecFiles are the three documents every archivable spec must have.
var RequiredSpecFiles = []string{"requirements.md", "design.md", "tasks.md"}

// CompletionStatus reports the checklist state of a spec's tasks.md.
type CompletionStatus struct {
	IsComplete     bool      `json:"is_complete"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	LastModified   time.Time `json:"last_modified"`
}

// TaskCounts holds raw checklist counts parsed from tasks.md content.
type TaskCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// FormatCheck is the advisory result of validating tasks.md structure.
// It never gates completion or archival.
type FormatCheck struct {
	IsValid bool     `json:"is_valid"`
	Issues  []string `json:"issues,omitempty"`
}

// SafetyCheck is the result of pre-flight archival validation. Transient,
// computed per attempt.
type SafetyCheck struct {
	IsSafe     bool     `json:"is_safe"`
	Issues     []string `json:"issues,omitempty"`
	CanProceed bool     `json:"can_proceed"`
}

// ArchiveMetadata is written once inside the archive directory and is
// immutable afterward. Field names match the on-disk schema.
type ArchiveMetadata struct {
	SpecName       string    `json:"specName"`
	OriginalPath   string    `json:"originalPath"`
	ArchivePath    string    `json:"archivePath"`
	CompletionDate time.Time `json:"completionDate"`
	ArchivalDate   time.Time `json:"archivalDate"`
	TotalTasks     int       `json:"totalTasks"`
	CompletedTasks int       `json:"completedTasks"`
	Version        string    `json:"version"`
}

// IndexEntry is the subset of ArchiveMetadata kept in the index so queries
// don't have to open each archive's metadata file.
type IndexEntry struct {
	SpecName       string    `json:"specName"`
	ArchivePath    string    `json:"archivePath"`
	CompletionDate time.Time `json:"completionDate"`
	ArchivalDate   time.Time `json:"archivalDate"`
	TotalTasks     int       `json:"totalTasks"`
	CompletedTasks int       `json:"completedTasks"`
}

// EntryFromMetadata projects full archive metadata down to its index entry.
func EntryFromMetadata(m ArchiveMetadata) IndexEntry {
	return IndexEntry{
		SpecName:       m.SpecName,
		ArchivePath:    m.ArchivePath,
		CompletionDate: m.CompletionDate,
		ArchivalDate:   m.ArchivalDate,
		TotalTasks:     m.TotalTasks,
		CompletedTasks: m.CompletedTasks,
	}
}

// ArchiveIndex is the single durable catalog file at the archive root.
type ArchiveIndex struct {
	Version     string       `json:"version"`
	LastUpdated time.Time    `json:"lastUpdated"`
	Archives    []IndexEntry `json:"archives"`
}

// ArchiveStats summarizes the index for reporting.
type ArchiveStats struct {
	Count              int        `json:"count"`
	OldestArchival     *time.Time `json:"oldest_archival,omitempty"`
	NewestArchival     *time.Time `json:"newest_archival,omitempty"`
	TotalTasksArchived int        `json:"total_tasks_archived"`
}

// RepairResult reports the outcome of index validation and repair.
type RepairResult struct {
	IsValid  bool     `json:"is_valid"`
	Repaired bool     `json:"repaired"`
	Issues   []string `json:"issues,omitempty"`
}

// ArchiveState tracks the phase an archival attempt reached. Failures before
// CLEANING_UP roll back to FAILED_ROLLED_BACK; a failure during CLEANING_UP
// leaves a valid, indexed archive behind (FAILED_PARTIAL).
type ArchiveState string

const (
	StatePending        ArchiveState = "PENDING"
	StateValidating     ArchiveState = "VALIDATING"
	StateCopying        ArchiveState = "COPYING"
	StateVerifying      ArchiveState = "VERIFYING"
	StateIndexing       ArchiveState = "INDEXING"
	StateCleaningUp     ArchiveState = "CLEANING_UP"
	StateComplete       ArchiveState = "COMPLETE"
	StateFailedRollback ArchiveState = "FAILED_ROLLED_BACK"
	StateFailedPartial  ArchiveState = "FAILED_PARTIAL"
)

// ArchivalResult is the value returned from ArchiveSpec. Failures are carried
// here rather than surfaced as faults, so batch drivers can continue.
type ArchivalResult struct {
	Success      bool          `json:"success"`
	OriginalPath string        `json:"original_path"`
	ArchivePath  string        `json:"archive_path,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
	State        ArchiveState  `json:"state"`
	Err          *ArchiveError `json:"error,omitempty"`
}
