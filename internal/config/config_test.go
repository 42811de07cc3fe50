package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BaseURL != "https://lore.kernel.org" {
		t.Errorf("default base_url = %q", cfg.BaseURL)
	}
	if !cfg.Dedup {
		t.Error("dedup should default to true")
	}
	if len(cfg.Repos) == 0 || cfg.Repos[0] != "~/linux" {
		t.Errorf("default repos = %v", cfg.Repos)
	}
	if cfg.Reader != "" {
		t.Errorf("default reader = %q; want auto-detect", cfg.Reader)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := `
reader = "mutt"
repos = ["/srv/linux"]
base_url = "https://lore.example.org"
dedup = false
keep_tmp = true
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Reader != "mutt" {
		t.Errorf("reader = %q", cfg.Reader)
	}
	if len(cfg.Repos) != 1 || cfg.Repos[0] != "/srv/linux" {
		t.Errorf("repos = %v", cfg.Repos)
	}
	if cfg.BaseURL != "https://lore.example.org" {
		t.Errorf("base_url = %q", cfg.BaseURL)
	}
	if cfg.Dedup {
		t.Error("dedup = true; want false from file")
	}
	if !cfg.KeepTmp {
		t.Error("keep_tmp = false; want true from file")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error for missing file: %v", err)
	}
	if cfg.BaseURL == "" {
		t.Error("missing file should yield defaults")
	}
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("reader = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("Load() accepted malformed TOML")
	}
}

func TestDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgc")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdgd")
	if got := ConfigDir(); got != filepath.Join("/tmp/xdgc", "loremutt") {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := DataDir(); got != filepath.Join("/tmp/xdgd", "loremutt") {
		t.Errorf("DataDir() = %q", got)
	}
}
