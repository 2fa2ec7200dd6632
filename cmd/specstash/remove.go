package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeForce bool

var removeCmd = &cobra.Command{
	Use:   "remove <archive-path>",
	Short: "Remove an archived spec (index entry and files)",
	Long: `Deletes an archived spec: the index entry is removed first, then the
archive directory. If the directory delete fails, the index entry is
reconstructed from the archive's metadata so index and filesystem stay
consistent. Requires --force; this permanently deletes the archive.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !removeForce {
			return fmt.Errorf("refusing to delete %s without --force", args[0])
		}
		if err := newEngine().RemoveArchivedSpec(args[0]); err != nil {
			return err
		}
		fmt.Printf("%s removed %s\n", passStyle.Render(iconPass), args[0])
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeForce, "force", false, "Confirm permanent deletion")
	rootCmd.AddCommand(removeCmd)
}
