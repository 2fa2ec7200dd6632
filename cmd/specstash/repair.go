package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Validate and repair the archive index",
	Long: `Reconciles the archive index with the filesystem: entries whose archive
directory no longer exists are dropped, and archives found on disk with
valid metadata but no index entry are adopted back into the index.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := newEngine().ValidateAndRepairArchiveIndex()
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}

		if result.IsValid {
			fmt.Printf("%s index is consistent\n", passStyle.Render(iconPass))
			return nil
		}
		for _, issue := range result.Issues {
			fmt.Printf("%s %s\n", warnStyle.Render(iconWarn), issue)
		}
		if result.Repaired {
			fmt.Printf("%s index repaired\n", passStyle.Render(iconPass))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(repairCmd)
}
