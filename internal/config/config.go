// Package config wires runtime configuration through a viper singleton:
// defaults, an optional .specstash/config.yaml, and SPECSTASH_* environment
// variables. Flag overrides are applied by the CLI layer.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var v *viper.Viper

// Initialize sets up the viper instance with defaults, environment binding,
// and the optional project config file. Safe to call more than once; each
// call rebuilds the instance (used by tests for isolation).
func Initialize() error {
	v = viper.New()

	v.SetDefault("specs-root", "specs")
	v.SetDefault("archive-root", "specs/archive")
	v.SetDefault("quiet-period", 5*time.Minute)
	v.SetDefault("json", false)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)

	v.SetEnvPrefix("SPECSTASH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".specstash")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config file: %w", err)
		}
	}
	return nil
}

// Set overrides a key at runtime (flag binding). Explicit sets take
// precedence over every other source.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// SetDefault installs a value at default precedence, below environment
// variables, config.yaml, and explicit sets. Used to feed project metadata
// into the chain.
func SetDefault(key string, value interface{}) {
	if v != nil {
		v.SetDefault(key, value)
	}
}

func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}
