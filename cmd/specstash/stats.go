package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newEngine().GetArchiveStats()
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(stats)
		}

		fmt.Println(headerStyle.Render("Archive stats:"))
		fmt.Printf("  archived specs: %d\n", stats.Count)
		fmt.Printf("  tasks archived: %d\n", stats.TotalTasksArchived)
		if stats.OldestArchival != nil {
			fmt.Printf("  oldest:         %s\n", stats.OldestArchival.Local().Format("2006-01-02 15:04"))
		}
		if stats.NewestArchival != nil {
			fmt.Printf("  newest:         %s\n", stats.NewestArchival.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
