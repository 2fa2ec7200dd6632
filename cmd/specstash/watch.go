package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/steveyegge/specstash/internal/completion"
)

var watchAuto bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the specs root and report specs that become complete",
	Long: `Watches tasks.md files under the specs root. When one changes, its spec's
completion is re-checked and newly complete specs are reported. With --auto,
complete specs are archived (sequentially) once their quiet period elapses.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := specsRoot()
		if _, err := os.Stat(baseDir); err != nil {
			return fmt.Errorf("specs root not accessible: %w", err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		defer func() { _ = watcher.Close() }()

		// fsnotify is not recursive: watch the root for new spec dirs and
		// each existing spec dir for tasks.md writes.
		if err := watcher.Add(baseDir); err != nil {
			return fmt.Errorf("watching %s: %w", baseDir, err)
		}
		entries, err := os.ReadDir(baseDir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				specPath := filepath.Join(baseDir, entry.Name())
				if filepath.Clean(specPath) == filepath.Clean(archiveRoot()) {
					continue
				}
				if err := watcher.Add(specPath); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: cannot watch %s: %v\n", specPath, err)
				}
			}
		}

		fmt.Fprintf(os.Stderr, "Watching %s for completed specs... (Press Ctrl+C to exit)\n", baseDir)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		// Debounce per spec; editors fire bursts of writes.
		const debounceDelay = 500 * time.Millisecond
		timers := make(map[string]*time.Timer)
		checks := make(chan string)

		for {
			select {
			case <-sigChan:
				fmt.Fprintf(os.Stderr, "\nStopped watching.\n")
				return nil

			case specPath := <-checks:
				reportCompletion(specPath)

			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && filepath.Dir(event.Name) == baseDir {
						_ = watcher.Add(event.Name)
					}
				}
				if event.Has(fsnotify.Write) && filepath.Base(event.Name) == completion.TasksFileName {
					specPath := filepath.Dir(event.Name)
					if t, ok := timers[specPath]; ok {
						t.Stop()
					}
					timers[specPath] = time.AfterFunc(debounceDelay, func() {
						checks <- specPath
					})
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			}
		}
	},
}

// reportCompletion re-checks one spec after a tasks.md write and, with
// --auto, archives it once complete. Archival still runs the full safety
// validation, so a just-edited spec is refused until its quiet period passes.
func reportCompletion(specPath string) {
	name := filepath.Base(specPath)
	status, err := completion.CheckSpecCompletion(specPath)
	if err != nil {
		verbosef("recheck %s: %v\n", name, err)
		return
	}
	if !status.IsComplete {
		verbosef("%s: %d/%d tasks\n", name, status.CompletedTasks, status.TotalTasks)
		return
	}

	fmt.Printf("%s %s is complete (%d/%d tasks)\n",
		passStyle.Render(iconPass), name, status.CompletedTasks, status.TotalTasks)

	if watchAuto {
		result := newEngine().ArchiveSpec(specPath)
		reportResult(name, result)
	}
}

func init() {
	watchCmd.Flags().BoolVar(&watchAuto, "auto", false, "Archive specs automatically once complete and quiet")
	rootCmd.AddCommand(watchCmd)
}
