package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Server: Server{
			URL: "http://localhost:8000",
		},
		Player: Player{
			Scope:                "track",
			StartupRetryInterval: 3,
			StartupRetryMax:      0,
			ErrorSkipDelay:       2,
		},
		Browse: Browse{
			ResetOnOpen:      true,
			PageSize:         50,
			SearchDebounceMS: 300,
		},
		TUI: TUI{
			Theme:              "auto",
			RefreshInterval:    1000,
			StatusPollInterval: 5000,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}

	if c.Player.Scope == "" {
		c.Player.Scope = d.Player.Scope
	}
	if c.Player.StartupRetryInterval == 0 {
		c.Player.StartupRetryInterval = d.Player.StartupRetryInterval
	}
	if c.Player.ErrorSkipDelay == 0 {
		c.Player.ErrorSkipDelay = d.Player.ErrorSkipDelay
	}

	if c.Browse.PageSize == 0 {
		c.Browse.PageSize = d.Browse.PageSize
	}
	if c.Browse.SearchDebounceMS == 0 {
		c.Browse.SearchDebounceMS = d.Browse.SearchDebounceMS
	}

	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}
	if c.TUI.StatusPollInterval == 0 {
		c.TUI.StatusPollInterval = d.TUI.StatusPollInterval
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
