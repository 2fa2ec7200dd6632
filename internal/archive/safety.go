package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/specstash/internal/completion"
	"github.com/steveyegge/specstash/internal/types"
)

// candidateArchivePath computes an unused destination for the spec's archive:
// <root>/<YYYY-MM-DD>_<name>, then <date>_<HH-MM-SS>_<name> on collision,
// then <date>_<HH-MM-SS>_<N>_<name> for increasing N.
func (e *Engine) candidateArchivePath(specPath string) (string, error) {
	name := filepath.Base(filepath.Clean(specPath))
	now := e.now().UTC()
	date := now.Format("2006-01-02")
	clock := now.Format("15-04-05")

	candidates := func(n int) string {
		switch {
		case n == 0:
			return filepath.Join(e.archiveRoot, fmt.Sprintf("%s_%s", date, name))
		case n == 1:
			return filepath.Join(e.archiveRoot, fmt.Sprintf("%s_%s_%s", date, clock, name))
		default:
			return filepath.Join(e.archiveRoot, fmt.Sprintf("%s_%s_%d_%s", date, clock, n-1, name))
		}
	}

	for n := 0; ; n++ {
		candidate := candidates(n)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("probe archive path %s: %w", candidate, err)
		}
	}
}

// ValidateArchivalSafety runs the pre-flight checks for archiving specPath
// and reports every issue found. It performs no filesystem mutations beyond
// the writability probe (a temp file created and immediately deleted).
func (e *Engine) ValidateArchivalSafety(specPath string) (types.SafetyCheck, error) {
	archivePath, err := e.candidateArchivePath(specPath)
	if err != nil {
		return types.SafetyCheck{}, err
	}
	check, _ := e.validateSafety(specPath, archivePath)
	return check, nil
}

// validateSafety is the internal form: it validates against a pre-computed
// destination and classifies the failure (ValidationFailed vs
// ConfigurationError for an unusable archive root).
func (e *Engine) validateSafety(specPath, archivePath string) (types.SafetyCheck, types.ErrorKind) {
	check := types.SafetyCheck{}
	kind := types.ValidationFailed

	info, err := os.Stat(specPath)
	switch {
	case err != nil:
		check.Issues = append(check.Issues, fmt.Sprintf("spec path not accessible: %v", err))
	case !info.IsDir():
		check.Issues = append(check.Issues, fmt.Sprintf("spec path is not a directory: %s", specPath))
	default:
		for _, name := range types.RequiredSpecFiles {
			fi, err := os.Stat(filepath.Join(specPath, name))
			if err != nil || !fi.Mode().IsRegular() {
				check.Issues = append(check.Issues, fmt.Sprintf("missing required file: %s", name))
			}
		}
	}

	if _, err := os.Stat(archivePath); err == nil {
		check.Issues = append(check.Issues, fmt.Sprintf("archive destination already exists: %s", archivePath))
	}

	if err := e.probeArchiveRootWritable(); err != nil {
		check.Issues = append(check.Issues, fmt.Sprintf("archive root not writable: %v", err))
		kind = types.ConfigurationError
	}

	// Recent tasks.md writes suggest someone is still editing; refuse until
	// the file has been quiet for the configured period.
	tasksPath := filepath.Join(specPath, completion.TasksFileName)
	if fi, err := os.Stat(tasksPath); err == nil {
		if age := e.now().Sub(fi.ModTime()); age < e.quietPeriod {
			check.Issues = append(check.Issues,
				fmt.Sprintf("tasks.md modified %s ago (quiet period %s)", age.Round(time.Second), e.quietPeriod))
		}
	}

	check.IsSafe = len(check.Issues) == 0
	check.CanProceed = check.IsSafe
	return check, kind
}

// probeArchiveRootWritable creates and deletes a temp file under the archive
// root. An absent root is fine and is not created here; validation must not
// mutate the filesystem, and the copy step creates the root when archiving
// actually proceeds.
func (e *Engine) probeArchiveRootWritable() error {
	if _, err := os.Stat(e.archiveRoot); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	f, err := os.CreateTemp(e.archiveRoot, ".write-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Remove(name)
}
