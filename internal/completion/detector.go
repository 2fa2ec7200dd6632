// Package completion parses spec task checklists and reports completion.
// A spec's tasks.md is a markdown document whose checklist lines follow the
// grammar "- [ ] ..." (pending) or "- [x] ..." (done, case-insensitive).
// Everything else in the file is ignored for counting.
package completion

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/steveyegge/specstash/internal/types"
)

// TasksFileName is the checklist document inside each spec directory.
const TasksFileName = "tasks.md"

// checklistItem matches a checklist line after leading-whitespace trim:
// "- [ ]" or "- [x]"/"- [X]", optionally followed by a numeric prefix and
// title text. Nesting depth is irrelevant; indented items still count, and
// trailing whitespace after the marker or title is tolerated.
var checklistItem = regexp.MustCompile(`^- \[([ xX])\](\s+\S.*)?\s*$`)

// ParseTaskCounts counts checklist items anywhere in the document.
// Non-matching lines are ignored, so prose, headings, and code blocks are
// all safe to interleave with the checklist.
func ParseTaskCounts(content string) types.TaskCounts {
	var counts types.TaskCounts

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimLeft(scanner.Text(), " \t")
		m := checklistItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		counts.Total++
		if m[1] == "x" || m[1] == "X" {
			counts.Completed++
		}
	}

	return counts
}

// IsTasksFileComplete reports whether every checklist item is done.
// A file with zero checklist items is never complete; that guards against
// archiving malformed or unstarted specs.
func IsTasksFileComplete(content string) bool {
	counts := ParseTaskCounts(content)
	return counts.Total > 0 && counts.Completed == counts.Total
}

// looksLikeChecklistAttempt flags lines that were probably meant to be
// checklist items but don't parse, e.g. "- []" or "- [y]".
var looksLikeChecklistAttempt = regexp.MustCompile(`^- \[[^\]]*\]`)

// ValidateTasksFormat runs advisory structural checks on tasks.md content.
// Issues reported here never gate completion or archival.
func ValidateTasksFormat(content string) types.FormatCheck {
	check := types.FormatCheck{IsValid: true}

	counts := ParseTaskCounts(content)
	if counts.Total == 0 {
		check.IsValid = false
		check.Issues = append(check.Issues, "no checklist lines found")
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimLeft(scanner.Text(), " \t")
		if checklistItem.MatchString(line) {
			continue
		}
		if looksLikeChecklistAttempt.MatchString(line) {
			check.IsValid = false
			check.Issues = append(check.Issues,
				fmt.Sprintf("line %d: malformed checklist marker: %q", lineNo, scanner.Text()))
		}
	}

	return check
}

// CheckSpecCompletion reads a spec's tasks.md and reports its completion
// status. It fails only when the file cannot be read; zero tasks and
// all-incomplete are ordinary statuses, not errors.
func CheckSpecCompletion(specPath string) (types.CompletionStatus, error) {
	tasksPath := filepath.Join(specPath, TasksFileName)

	info, err := os.Stat(tasksPath)
	if err != nil {
		return types.CompletionStatus{}, fmt.Errorf("stat %s: %w", tasksPath, err)
	}

	data, err := os.ReadFile(tasksPath) // #nosec G304 - path derived from caller-supplied spec dir
	if err != nil {
		return types.CompletionStatus{}, fmt.Errorf("read %s: %w", tasksPath, err)
	}

	counts := ParseTaskCounts(string(data))
	return types.CompletionStatus{
		IsComplete:     counts.Total > 0 && counts.Completed == counts.Total,
		TotalTasks:     counts.Total,
		CompletedTasks: counts.Completed,
		LastModified:   info.ModTime(),
	}, nil
}

// AllCompletedSpecs enumerates the sub-directories of baseDir and returns the
// paths of those whose checklist is complete, sorted by name. Directories
// without a readable tasks.md are skipped, not reported as errors.
func AllCompletedSpecs(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("read specs dir %s: %w", baseDir, err)
	}

	var completed []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		specPath := filepath.Join(baseDir, entry.Name())
		status, err := CheckSpecCompletion(specPath)
		if err != nil {
			continue
		}
		if status.IsComplete {
			completed = append(completed, specPath)
		}
	}

	sort.Strings(completed)
	return completed, nil
}
