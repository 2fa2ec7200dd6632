package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/steveyegge/specstash/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived specs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := newEngine().GetArchivedSpecs()
		if err != nil {
			return err
		}
		return printEntries(entries)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search archived specs by name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := newEngine().SearchArchivedSpecs(args[0])
		if err != nil {
			return err
		}
		return printEntries(entries)
	},
}

func printEntries(entries []types.IndexEntry) error {
	if jsonOutput {
		if entries == nil {
			entries = []types.IndexEntry{}
		}
		return printJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println(mutedStyle.Render("No archived specs."))
		return nil
	}
	fmt.Println(headerStyle.Render("Archived specs:"))
	for _, entry := range entries {
		fmt.Printf("%s %-30s %s %s\n",
			accentStyle.Render("•"),
			entry.SpecName,
			entry.ArchivalDate.Local().Format("2006-01-02 15:04"),
			mutedStyle.Render(fmt.Sprintf("%d/%d tasks  %s", entry.CompletedTasks, entry.TotalTasks, entry.ArchivePath)))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
}
