package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml fields that sometimes need to be
// read directly from the file rather than through the viper singleton. Viper
// only discovers .specstash/config.yaml relative to the working directory;
// a stash dir found in an ancestor is read through here instead.
type LocalConfig struct {
	SpecsRoot   string `yaml:"specs-root"`
	ArchiveRoot string `yaml:"archive-root"`
	QuietPeriod string `yaml:"quiet-period"`
}

// LoadLocalConfig reads and parses config.yaml directly from the given
// .specstash directory. Returns an empty LocalConfig (not nil) if the file
// doesn't exist or can't be parsed.
func LoadLocalConfig(stashDir string) *LocalConfig {
	data, err := os.ReadFile(filepath.Join(stashDir, "config.yaml")) // #nosec G304 - config path from stash dir
	if err != nil {
		return &LocalConfig{}
	}

	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}

// QuietPeriodDuration parses the quiet-period field; zero when absent or
// unparseable.
func (c *LocalConfig) QuietPeriodDuration() time.Duration {
	if c == nil || c.QuietPeriod == "" {
		return 0
	}
	d, err := time.ParseDuration(c.QuietPeriod)
	if err != nil {
		return 0
	}
	return d
}
