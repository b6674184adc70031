// Package config handles hovertable configuration from YAML files.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level hovertable configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Probe   ProbeConfig   `yaml:"probe"`
	Parse   ParseConfig   `yaml:"parse"`
	Journal JournalConfig `yaml:"journal"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote           string        `yaml:"remote"`
	Stealth          string        `yaml:"stealth"` // headless | headful
	XvfbDisplay      string        `yaml:"xvfb_display"`
	ResourceBlocking []string      `yaml:"resource_blocking"`
	PageTimeout      time.Duration `yaml:"page_timeout"`
}

// ProbeConfig tunes the hover sweep over a chart.
type ProbeConfig struct {
	HoverDelay  time.Duration `yaml:"hover_delay"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	// CoarseOnly skips the percent-by-percent detailed pass and captures
	// only at the coarse hit positions. Faster, fewer tooltips.
	CoarseOnly bool `yaml:"coarse_only"`
	MinTextLen int  `yaml:"min_text_len"`
	MaxTextLen int  `yaml:"max_text_len"`
}

// ParseConfig tunes tooltip parsing.
type ParseConfig struct {
	FallbackYear    int      `yaml:"fallback_year"`
	ExcludedDomains []string `yaml:"excluded_domains"`
}

// JournalConfig locates the SQLite run journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a Config with all defaults applied, for running
// without a config file.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.PageTimeout <= 0 {
		c.Browser.PageTimeout = 60 * time.Second
	}
	if c.Probe.HoverDelay <= 0 {
		c.Probe.HoverDelay = 400 * time.Millisecond
	}
	if c.Probe.SettleDelay <= 0 {
		c.Probe.SettleDelay = 150 * time.Millisecond
	}
	if c.Probe.MinTextLen <= 0 {
		c.Probe.MinTextLen = 10
	}
	if c.Probe.MaxTextLen <= 0 {
		c.Probe.MaxTextLen = 800
	}
	if c.Parse.FallbackYear <= 0 {
		c.Parse.FallbackYear = 2026
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "hovertable.db"
	}
}
