package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/specstash/internal/completion"
	"github.com/steveyegge/specstash/internal/types"
)

var archiveAll bool

var archiveCmd = &cobra.Command{
	Use:   "archive [spec-name]",
	Short: "Archive a spec directory (or all completed specs with --all)",
	Long: `Archives a spec: validates it, copies it into the archive root, verifies
the copy, registers it in the archive index, and only then deletes the
original. A failed attempt is rolled back and the original left untouched.

Archiving a single named spec does not require its checklist to be complete;
completion filtering applies only to --all. Specs are processed strictly
sequentially; the index has no cross-process write protection beyond an
advisory lock.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if archiveAll == (len(args) == 1) {
			return fmt.Errorf("specify either a spec name or --all")
		}

		engine := newEngine()

		if len(args) == 1 {
			result := engine.ArchiveSpec(filepath.Join(specsRoot(), args[0]))
			reportResult(args[0], result)
			if !result.Success {
				os.Exit(1)
			}
			return nil
		}

		entries, err := os.ReadDir(specsRoot())
		if err != nil {
			return fmt.Errorf("read specs dir %s: %w", specsRoot(), err)
		}

		attempted, failures := 0, 0
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			specPath := filepath.Join(specsRoot(), name)
			if filepath.Clean(specPath) == filepath.Clean(archiveRoot()) {
				continue
			}

			status, err := completion.CheckSpecCompletion(specPath)
			if err != nil {
				fmt.Printf("%s skipped %s: %v\n", warnStyle.Render(iconWarn), name, err)
				continue
			}
			if !status.IsComplete {
				if !quietFlag {
					fmt.Printf("%s skipped %s (incomplete: %d/%d tasks)\n",
						mutedStyle.Render(iconSkip), name, status.CompletedTasks, status.TotalTasks)
				}
				continue
			}

			attempted++
			result := engine.ArchiveSpec(specPath)
			reportResult(name, result)
			if !result.Success {
				failures++
			}
		}

		if attempted == 0 {
			fmt.Println(mutedStyle.Render("No completed specs to archive."))
			return nil
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d specs failed to archive", failures, attempted)
		}
		return nil
	},
}

// reportResult prints the per-spec outcome: archived, skipped-invalid, or
// error. Cleanup failures get a louder message because the archive is
// already durable and only the original's deletion needs attention.
func reportResult(name string, result types.ArchivalResult) {
	if jsonOutput {
		_ = printJSON(result)
		return
	}

	if result.Success {
		fmt.Printf("%s archived %s -> %s\n", passStyle.Render(iconPass), name, result.ArchivePath)
		return
	}

	switch {
	case result.Err == nil:
		fmt.Printf("%s %s: unknown failure\n", failStyle.Render(iconFail), name)
	case result.Err.Kind == types.ValidationFailed:
		fmt.Printf("%s skipped %s (unsafe to archive)\n", warnStyle.Render(iconWarn), name)
		for _, issue := range result.Err.Issues {
			fmt.Printf("    %s\n", mutedStyle.Render(issue))
		}
	case result.Err.Kind == types.CleanupFailed:
		fmt.Printf("%s %s: archive created and indexed at %s, but the original could not be deleted: %v\n",
			warnStyle.Render(iconWarn), name, result.ArchivePath, result.Err.Err)
		fmt.Printf("    %s\n", mutedStyle.Render("retry the delete or remove the original manually; do not delete the archive"))
	default:
		fmt.Printf("%s %s: %v\n", failStyle.Render(iconFail), name, result.Err)
	}
}

func init() {
	archiveCmd.Flags().BoolVar(&archiveAll, "all", false, "Archive every spec whose checklist is complete")
	rootCmd.AddCommand(archiveCmd)
}
