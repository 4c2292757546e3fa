package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.demotaperc, $XDG_CONFIG_HOME/demotape/config.toml
func Load() (*Config, error) {
	cfg := fresh()

	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := fresh()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// fresh returns an empty config with default-true booleans pre-set, so a
// file that omits them does not silently flip them off.
func fresh() *Config {
	return &Config{Browse: Browse{ResetOnOpen: true}}
}

// DefaultPath returns the path `demotape init` writes to.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "demotape", "config.toml")
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	var paths []string

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".demotaperc"))
	}
	paths = append(paths, filepath.Join(xdg.ConfigHome, "demotape", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DEMOTAPE_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}

	if v := os.Getenv("DEMOTAPE_PLAYER_SCOPE"); v != "" {
		cfg.Player.Scope = v
	}

	if v := os.Getenv("DEMOTAPE_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}
	if v := os.Getenv("DEMOTAPE_TUI_REFRESH_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.TUI.RefreshInterval = i
		}
	}

	if v := os.Getenv("DEMOTAPE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DEMOTAPE_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
