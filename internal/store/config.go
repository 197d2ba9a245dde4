package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type GlobalConfig struct {
	// Dir is the default store directory when neither --dir nor NEXDO_DIR is set.
	Dir string `yaml:"dir,omitempty"`

	// Format is the default CLI output format ("json" or "edn").
	Format string `yaml:"format,omitempty"`

	// User is the default acting user id.
	User string `yaml:"user,omitempty"`

	TUI *TUIConfig `yaml:"tui,omitempty"`
}

type TUIConfig struct {
	// Profile is the appearance profile id ("default", "neon", "mono").
	Profile string `yaml:"profile,omitempty"`
	// Glyphs selects the glyph set ("unicode", "ascii").
	Glyphs string `yaml:"glyphs,omitempty"`
	// SwapBias is the fraction of a row's height the pointer must travel before two siblings swap.
	SwapBias float64 `yaml:"swapBias,omitempty"`
	// TickSeconds is the refresh interval for live tracking timers.
	TickSeconds int `yaml:"tickSeconds,omitempty"`
}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.nexdo).
	if v := strings.TrimSpace(os.Getenv("NEXDO_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".nexdo"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func LoadConfig() (*GlobalConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &GlobalConfig{}, nil
		}
		return nil, err
	}
	var cfg GlobalConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}

func SaveConfig(cfg *GlobalConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	// Keep the previous config around as config.yaml.bak.
	if prev, err := os.ReadFile(path); err == nil && len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.yaml.bak.*.tmp", path+".bak", prev, 0o644)
	}
	return atomicWriteFile(dir, "config.yaml.*.tmp", path, b, 0o600)
}

// SwapBias returns the configured two-sibling swap bias, or 0.5.
func (c *GlobalConfig) SwapBias() float64 {
	if c == nil || c.TUI == nil || c.TUI.SwapBias <= 0 || c.TUI.SwapBias > 1 {
		return 0.5
	}
	return c.TUI.SwapBias
}
