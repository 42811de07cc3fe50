// Package config loads loremutt configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all loremutt configuration. Command-line flags override
// values loaded here.
type Config struct {
	// Reader overrides the auto-detected mail reader binary.
	Reader string `toml:"reader"`
	// Repos are fallback repositories searched for the commit after the
	// current directory. ~ expands to the home directory.
	Repos []string `toml:"repos"`
	// BaseURL is the public-inbox archive to query.
	BaseURL string `toml:"base_url"`
	// Dedup controls whether fetched mailboxes are deduplicated.
	Dedup bool `toml:"dedup"`
	// KeepTmp retains the per-invocation temp directory for debugging.
	KeepTmp bool `toml:"keep_tmp"`
}

func defaults() Config {
	return Config{
		Repos:   []string{"~/linux", "~/git/linux", "~/src/linux", "~/kernel/linux"},
		BaseURL: "https://lore.kernel.org",
		Dedup:   true,
	}
}

// Load reads config from path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// ConfigDir returns the loremutt config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "loremutt")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "loremutt")
}

// DataDir returns the loremutt data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "loremutt")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "loremutt")
}
