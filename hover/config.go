package hover

import (
	"github.com/hovertable/hovertable/hover/internal/config"
)

// Config is the top-level hovertable configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// ProbeConfig tunes the hover sweep over a chart.
type ProbeConfig = config.ProbeConfig

// ParseConfig tunes tooltip parsing.
type ParseConfig = config.ParseConfig

// JournalConfig locates the SQLite run journal.
type JournalConfig = config.JournalConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	return config.Default()
}
