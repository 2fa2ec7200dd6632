// Command specstash archives completed spec directories (requirements.md,
// design.md, tasks.md) into a durable, queryable archive.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/specstash/internal/archive"
	"github.com/steveyegge/specstash/internal/config"
	"github.com/steveyegge/specstash/internal/configfile"
)

var (
	specsRootFlag   string
	archiveRootFlag string
	jsonOutput      bool
	verboseFlag     bool
	quietFlag       bool
)

var rootCmd = &cobra.Command{
	Use:   "specstash",
	Short: "specstash - archive completed spec directories",
	Long: `Moves finished unit-of-work specs (requirements.md, design.md, tasks.md)
from the active specs directory into a durable archive with an index for
search and statistics. Originals are deleted only after the copy is verified.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("specstash version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help() // Help() always returns nil for cobra commands
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
		}
		applyProjectConfig()
		applyFlagOverrides(cmd)
	},
}

// applyProjectConfig feeds .specstash/metadata.json values in at default
// precedence, so environment variables, config.yaml, and flags all still
// override them.
func applyProjectConfig() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	stashDir := configfile.FindStashDir(cwd)
	if stashDir == "" {
		return
	}
	cfg, err := configfile.Load(stashDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	if cfg == nil {
		return
	}

	projectRoot := filepath.Dir(stashDir)
	if cfg.SpecsRoot != "" {
		config.SetDefault("specs-root", absFrom(projectRoot, cfg.SpecsRoot))
	}
	if cfg.ArchiveRoot != "" {
		config.SetDefault("archive-root", absFrom(projectRoot, cfg.ArchiveRoot))
	}
	if qp := cfg.QuietPeriod(); qp > 0 {
		config.SetDefault("quiet-period", qp)
	}

	// config.yaml from the same stash dir wins over metadata.json but stays
	// below environment variables and flags. Viper only discovers .specstash
	// relative to the working directory, so an ancestor stash dir needs this
	// direct read.
	local := config.LoadLocalConfig(stashDir)
	if local.SpecsRoot != "" {
		config.SetDefault("specs-root", absFrom(projectRoot, local.SpecsRoot))
	}
	if local.ArchiveRoot != "" {
		config.SetDefault("archive-root", absFrom(projectRoot, local.ArchiveRoot))
	}
	if d := local.QuietPeriodDuration(); d > 0 {
		config.SetDefault("quiet-period", d)
	}
}

func applyFlagOverrides(cmd *cobra.Command) {
	if cmd.Flags().Changed("specs-root") {
		config.Set("specs-root", specsRootFlag)
	}
	if cmd.Flags().Changed("archive-root") {
		config.Set("archive-root", archiveRootFlag)
	}
	if cmd.Flags().Changed("json") {
		config.Set("json", jsonOutput)
	}
	jsonOutput = config.GetBool("json")
}

func absFrom(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func specsRoot() string {
	return config.GetString("specs-root")
}

func archiveRoot() string {
	return config.GetString("archive-root")
}

func quietPeriod() time.Duration {
	return config.GetDuration("quiet-period")
}

func newEngine() *archive.Engine {
	return archive.NewEngine(archive.Config{
		ArchiveRoot: archiveRoot(),
		QuietPeriod: quietPeriod(),
	})
}

func verbosef(format string, a ...interface{}) {
	if verboseFlag && !quietFlag {
		fmt.Fprintf(os.Stderr, format, a...)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&specsRootFlag, "specs-root", "", "Directory containing active specs (default: from config, else \"specs\")")
	rootCmd.PersistentFlags().StringVar(&archiveRootFlag, "archive-root", "", "Directory receiving archived specs (default: from config, else \"specs/archive\")")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
