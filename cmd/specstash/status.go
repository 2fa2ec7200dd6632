package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/steveyegge/specstash/internal/completion"
	"github.com/steveyegge/specstash/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status [spec-name]",
	Short: "Show task completion status for specs",
	Long: `Without arguments, lists every spec under the specs root with its task
counts. With a spec name, shows that spec's status plus advisory format
checks on its tasks.md.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return runStatusOne(filepath.Join(specsRoot(), args[0]))
		}
		return runStatusAll(specsRoot())
	},
}

func runStatusOne(specPath string) error {
	status, err := completion.CheckSpecCompletion(specPath)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(status)
	}

	printSpecStatus(filepath.Base(specPath), status)

	data, err := os.ReadFile(filepath.Join(specPath, completion.TasksFileName)) // #nosec G304 - spec path from specs root
	if err != nil {
		return err
	}
	check := completion.ValidateTasksFormat(string(data))
	for _, issue := range check.Issues {
		fmt.Printf("  %s %s\n", warnStyle.Render(iconWarn), issue)
	}
	return nil
}

func runStatusAll(baseDir string) error {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return fmt.Errorf("read specs dir %s: %w", baseDir, err)
	}

	type specStatus struct {
		Name   string                 `json:"name"`
		Status types.CompletionStatus `json:"status"`
	}
	var all []specStatus
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		specPath := filepath.Join(baseDir, entry.Name())
		if filepath.Clean(specPath) == filepath.Clean(archiveRoot()) {
			continue
		}
		status, err := completion.CheckSpecCompletion(specPath)
		if err != nil {
			verbosef("skipping %s: %v\n", entry.Name(), err)
			continue
		}
		all = append(all, specStatus{Name: entry.Name(), Status: status})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	if jsonOutput {
		return printJSON(all)
	}

	if len(all) == 0 {
		fmt.Println(mutedStyle.Render("No specs found."))
		return nil
	}
	fmt.Println(headerStyle.Render("Specs:"))
	for _, s := range all {
		printSpecStatus(s.Name, s.Status)
	}
	return nil
}

func printSpecStatus(name string, status types.CompletionStatus) {
	icon := mutedStyle.Render(iconSkip)
	note := "in progress"
	switch {
	case status.IsComplete:
		icon = passStyle.Render(iconPass)
		note = "complete"
	case status.TotalTasks == 0:
		icon = warnStyle.Render(iconWarn)
		note = "no tasks"
	}
	fmt.Printf("%s %-30s %d/%d %s\n", icon, name, status.CompletedTasks, status.TotalTasks, mutedStyle.Render(note))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
