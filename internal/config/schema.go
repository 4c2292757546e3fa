package config

// Config is the root configuration structure.
type Config struct {
	Server Server `toml:"server"`
	Player Player `toml:"player"`
	Browse Browse `toml:"browse"`
	TUI    TUI    `toml:"tui"`
	Log    Log    `toml:"log"`
}

// Server holds connection settings for the discovery server.
type Server struct {
	URL string `toml:"url"`
}

// Player holds playback behavior settings.
type Player struct {
	// Scope is the default next-track scope: "track" or "collection".
	Scope string `toml:"scope"`
	// StartupRetryInterval is the delay in seconds between retries when
	// the server has no current track yet (crawl still filling).
	StartupRetryInterval int `toml:"startup_retry_interval"`
	// StartupRetryMax caps startup retries; 0 means retry forever.
	StartupRetryMax int `toml:"startup_retry_max"`
	// ErrorSkipDelay is the delay in seconds before auto-skipping an
	// unplayable track.
	ErrorSkipDelay int `toml:"error_skip_delay"`
}

// Browse holds catalog navigation settings.
type Browse struct {
	// ResetOnOpen controls whether opening the browse panel returns to
	// the category list or resumes where the user left off.
	ResetOnOpen bool `toml:"reset_on_open"`
	// PageSize is the collections listing limit per request.
	PageSize int `toml:"page_size"`
	// SearchDebounceMS is the pause in typing that triggers a search.
	SearchDebounceMS int `toml:"search_debounce_ms"`
}

// TUI holds terminal UI settings.
type TUI struct {
	Theme              string `toml:"theme"`
	RefreshInterval    int    `toml:"refresh_interval"`
	StatusPollInterval int    `toml:"status_poll_interval"`
}

// Log holds logging settings.
type Log struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
