package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Player.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("player: %w", err))
	}
	if err := c.Browse.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("browse: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks Server for errors.
func (c *Server) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be http or https, got %q", c.URL)
	}
	return nil
}

// Validate checks Player for errors.
func (c *Player) Validate() error {
	switch c.Scope {
	case "", "track", "collection":
		// valid
	default:
		return fmt.Errorf("invalid scope: %s (must be track or collection)", c.Scope)
	}
	if c.StartupRetryInterval < 0 {
		return errors.New("startup_retry_interval must be non-negative")
	}
	if c.StartupRetryMax < 0 {
		return errors.New("startup_retry_max must be non-negative")
	}
	if c.ErrorSkipDelay < 0 {
		return errors.New("error_skip_delay must be non-negative")
	}
	return nil
}

// Validate checks Browse for errors.
func (c *Browse) Validate() error {
	if c.PageSize < 0 || c.PageSize > 200 {
		return errors.New("page_size must be between 0 and 200")
	}
	if c.SearchDebounceMS < 0 {
		return errors.New("search_debounce_ms must be non-negative")
	}
	return nil
}

// Validate checks TUI for errors.
func (c *TUI) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	if c.StatusPollInterval < 0 {
		return errors.New("status_poll_interval must be non-negative")
	}
	return nil
}

// Validate checks Log for errors.
func (c *Log) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
