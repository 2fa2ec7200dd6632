package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/specstash/internal/configfile"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize specstash in the current directory",
	Long: `Creates .specstash/metadata.json recording the specs and archive roots.
Existing configuration is left untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stashDir := filepath.Join(".", configfile.Dir)
		if cfg, err := configfile.Load(stashDir); err != nil {
			return err
		} else if cfg != nil {
			fmt.Printf("Already initialized: %s\n", configfile.ConfigPath(stashDir))
			return nil
		}

		cfg := configfile.DefaultConfig()
		if specsRootFlag != "" {
			cfg.SpecsRoot = specsRootFlag
		}
		if archiveRootFlag != "" {
			cfg.ArchiveRoot = archiveRootFlag
		}
		if err := cfg.Save(stashDir); err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.SpecsRoot, 0o755); err != nil {
			return fmt.Errorf("creating specs root: %w", err)
		}

		fmt.Printf("%s Initialized specstash\n", passStyle.Render(iconPass))
		fmt.Printf("  specs root:   %s\n", cfg.SpecsRoot)
		fmt.Printf("  archive root: %s\n", cfg.ArchiveRoot)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
