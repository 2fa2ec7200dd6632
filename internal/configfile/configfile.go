// Package configfile reads and writes the project's specstash metadata file,
// .specstash/metadata.json. It records where specs live and where archives
// go, so commands can run from anywhere in the project.
package configfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Dir is the project-local directory holding specstash state.
const Dir = ".specstash"

// ConfigFileName is the project config file inside Dir.
const ConfigFileName = "metadata.json"

type Config struct {
	SpecsRoot   string `json:"specs_root"`
	ArchiveRoot string `json:"archive_root"`

	// QuietPeriodMinutes overrides the default 5-minute quiet period on
	// tasks.md before archival. 0 means use the default.
	QuietPeriodMinutes int `json:"quiet_period_minutes,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		SpecsRoot:   "specs",
		ArchiveRoot: filepath.Join("specs", "archive"),
	}
}

func ConfigPath(stashDir string) string {
	return filepath.Join(stashDir, ConfigFileName)
}

// Load reads the config from stashDir. Returns (nil, nil) if no config file
// exists yet.
func Load(stashDir string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(stashDir)) // #nosec G304 - controlled path from config
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Save(stashDir string) error {
	if err := os.MkdirAll(stashDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", stashDir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(stashDir), data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// QuietPeriod returns the configured quiet period, or zero if unset (callers
// fall back to the engine default).
func (c *Config) QuietPeriod() time.Duration {
	if c.QuietPeriodMinutes <= 0 {
		return 0
	}
	return time.Duration(c.QuietPeriodMinutes) * time.Minute
}

// FindStashDir walks up from dir looking for a .specstash directory.
// Returns the empty string when none is found.
func FindStashDir(dir string) string {
	for d := dir; ; d = filepath.Dir(d) {
		candidate := filepath.Join(d, Dir)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		if d == filepath.Dir(d) {
			return ""
		}
	}
}
