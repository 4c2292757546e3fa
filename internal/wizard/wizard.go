// Package wizard is the interactive first-run setup. It asks for the few
// settings that matter and writes a commented config file.
package wizard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"

	"github.com/demotape/demotape/internal/config"
)

// Run walks the user through initial setup and writes the config to path.
// It refuses to overwrite an existing file.
func Run(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	cfg := config.Default()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Description("Where the discovery server is running").
				Validate(validateURL).
				Value(&cfg.Server.URL),

			huh.NewSelect[string]().
				Title("Shuffle scope").
				Description("What \"next\" picks from").
				Options(
					huh.NewOption("Any track in the catalog", "track"),
					huh.NewOption("A different collection each skip", "collection"),
				).
				Value(&cfg.Player.Scope),

			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
					huh.NewOption("Auto", "auto"),
				).
				Value(&cfg.TUI.Theme),

			huh.NewConfirm().
				Title("Reset the browser to the category list each time it opens?").
				Value(&cfg.Browse.ResetOnOpen),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	return Write(cfg, path)
}

// Write persists a config file with the standard header.
func Write(cfg *config.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintln(f, "# Demotape Configuration")
	_, _ = fmt.Fprintln(f, "")

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func validateURL(s string) error {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return fmt.Errorf("must start with http:// or https://")
	}
	return nil
}
