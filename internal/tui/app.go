// Package tui is the interactive terminal front end. It is a thin view:
// all playback and navigation state lives in the controller and the
// navigator, and the model re-reads it whenever either pokes its change
// channel.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/demotape/demotape/internal/api"
	"github.com/demotape/demotape/internal/browse"
	"github.com/demotape/demotape/internal/config"
	"github.com/demotape/demotape/internal/core"
	"github.com/demotape/demotape/internal/media"
	"github.com/demotape/demotape/internal/notify"
	"github.com/demotape/demotape/internal/player"
	"github.com/demotape/demotape/internal/status"
	"github.com/demotape/demotape/internal/tui/components"
	"github.com/demotape/demotape/internal/tui/styles"
)

// App wires the client, the playback controller, the browse navigator and
// the status poller together for the TUI.
type App struct {
	cfg *config.Config

	controller *player.Controller
	navigator  *browse.Navigator
	poller     *status.Poller
	sink       *notify.Sink

	refreshRate time.Duration
	cancel      context.CancelFunc
}

// NewApp builds the component graph from config.
func NewApp(cfg *config.Config, client *api.Client) *App {
	sink := notify.NewSink()

	controller := player.New(client, media.NewStream(), sink, player.Options{
		Scope: core.Scope(cfg.Player.Scope),
		Retry: player.RetryPolicy{
			Interval:    time.Duration(cfg.Player.StartupRetryInterval) * time.Second,
			MaxAttempts: cfg.Player.StartupRetryMax,
		},
		ErrorSkipDelay: time.Duration(cfg.Player.ErrorSkipDelay) * time.Second,
	})

	navigator := browse.New(client, controller, browse.Options{
		ResetOnOpen:    cfg.Browse.ResetOnOpen,
		PageSize:       cfg.Browse.PageSize,
		SearchDebounce: time.Duration(cfg.Browse.SearchDebounceMS) * time.Millisecond,
	})

	// Upvotes flipped in the player show up in the browse listing too.
	controller.SetUpvoteMirror(navigator.ApplyUpvote)

	poller := status.New(client, time.Duration(cfg.TUI.StatusPollInterval)*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go poller.Run(ctx)

	return &App{
		cfg:         cfg,
		controller:  controller,
		navigator:   navigator,
		poller:      poller,
		sink:        sink,
		refreshRate: time.Duration(cfg.TUI.RefreshInterval) * time.Millisecond,
		cancel:      cancel,
	}
}

// Close stops the background components.
func (a *App) Close() error {
	a.cancel()
	a.navigator.Close()
	return a.controller.Close()
}

// Model is the main TUI model.
type Model struct {
	app *App
	sub *player.Subscription

	width  int
	height int

	nowPlaying *components.NowPlaying
	browser    *components.Browser
	statusBar  *components.StatusBar

	browseCursor  int
	searchInput   textinput.Model
	searchFocused bool

	showHelp bool
	quitting bool
}

// NewModel creates the TUI model.
func NewModel(app *App) Model {
	ti := textinput.New()
	ti.Placeholder = "Search collections..."
	ti.CharLimit = 100
	ti.Width = 40

	return Model{
		app:         app,
		sub:         app.controller.Subscribe(),
		nowPlaying:  components.NewNowPlaying(),
		browser:     components.NewBrowser(),
		statusBar:   components.NewStatusBar(),
		searchInput: ti,
	}
}

// Messages
type tickMsg time.Time
type playerChangedMsg player.Change
type browseChangedMsg struct{}
type statusChangedMsg struct{}

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitPlayer() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		select {
		case ch, ok := <-sub.Changes:
			if !ok {
				return nil
			}
			return playerChangedMsg(ch)
		case <-sub.Done:
			return nil
		}
	}
}

func (m Model) waitBrowse() tea.Cmd {
	ch := m.app.navigator.Changed()
	return func() tea.Msg {
		<-ch
		return browseChangedMsg{}
	}
}

func (m Model) waitStatus() tea.Cmd {
	ch := m.app.poller.Changed()
	return func() tea.Msg {
		<-ch
		return statusChangedMsg{}
	}
}

func (m Model) loadCurrent() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m.app.controller.LoadCurrent(ctx)
		return nil
	}
}

// async runs a controller or navigator action off the update loop. Errors
// surface through the notice sink, so the result is discarded here.
func async(fn func(ctx context.Context)) tea.Cmd {
	return func() tea.Msg {
		fn(context.Background())
		return nil
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		m.waitPlayer(),
		m.waitBrowse(),
		m.waitStatus(),
		m.loadCurrent(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		// Progress and notice expiry are re-read in View.
		return m, m.tick()

	case playerChangedMsg:
		return m, m.waitPlayer()

	case browseChangedMsg:
		m.browseCursor = clamp(m.browseCursor, components.ItemCount(m.app.navigator.Listing()))
		return m, m.waitBrowse()

	case statusChangedMsg:
		return m, m.waitStatus()
	}

	if m.searchFocused {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.searchFocused {
		return m.handleSearchKeyPress(msg)
	}

	if m.app.navigator.IsOpen() {
		return m.handleBrowseKeyPress(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case " ":
		return m, async(func(ctx context.Context) {
			_ = m.app.controller.TogglePlayback(ctx)
		})

	case "n":
		return m, async(func(ctx context.Context) {
			_ = m.app.controller.Next(ctx)
		})

	case "p":
		// No history to step back to: ignore rather than error.
		if !m.app.controller.HasPrev() {
			return m, nil
		}
		return m, async(func(ctx context.Context) {
			_ = m.app.controller.Prev(ctx)
		})

	case "u":
		return m, async(func(ctx context.Context) {
			_ = m.app.controller.ToggleUpvote(ctx)
		})

	case "s":
		if m.app.controller.Scope() == core.ScopeTrack {
			m.app.controller.SetScope(core.ScopeCollection)
		} else {
			m.app.controller.SetScope(core.ScopeTrack)
		}
		return m, nil

	case "left":
		m.app.controller.Seek(m.app.controller.Progress().Fraction - 5)
		return m, nil

	case "right":
		m.app.controller.Seek(m.app.controller.Progress().Fraction + 5)
		return m, nil

	case "b", "enter":
		m.browseCursor = 0
		return m, async(m.app.navigator.Open)
	}

	return m, nil
}

func (m Model) handleBrowseKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	nav := m.app.navigator
	listing := nav.Listing()
	count := components.ItemCount(listing)

	switch msg.String() {
	case "q", "esc", "b":
		nav.ClosePanel()
		return m, nil

	case "?":
		m.showHelp = true
		return m, nil

	case "j", "down":
		m.browseCursor = clamp(m.browseCursor+1, count)
		return m, nil

	case "k", "up":
		m.browseCursor = clamp(m.browseCursor-1, count)
		return m, nil

	case "h", "left", "backspace":
		m.browseCursor = 0
		m.searchInput.SetValue("")
		return m, async(nav.Back)

	case "/":
		if top := nav.Top(); top != nil && top.Kind == browse.FrameCategory {
			m.searchFocused = true
			m.searchInput.SetValue(nav.Query())
			m.searchInput.Focus()
			return m, textinput.Blink
		}
		return m, nil

	case "r":
		return m, async(nav.Reload)

	case "u":
		if listing.Detail != nil && m.browseCursor < len(listing.Detail.Tracks) {
			trackID := listing.Detail.Tracks[m.browseCursor].ID
			return m, async(func(ctx context.Context) {
				upvoted, err := nav.ToggleUpvote(ctx, trackID)
				if err != nil {
					m.app.sink.Notify("Couldn't update saved tracks")
					return
				}
				m.app.controller.ApplyUpvote(trackID, upvoted)
			})
		}
		return m, nil

	case "enter":
		return m.selectBrowseItem(listing)
	}

	return m, nil
}

// selectBrowseItem descends into the highlighted item, or plays it when it
// is a track.
func (m Model) selectBrowseItem(listing browse.Listing) (tea.Model, tea.Cmd) {
	nav := m.app.navigator
	cursor := m.browseCursor

	switch {
	case listing.Detail != nil:
		if cursor >= len(listing.Detail.Tracks) {
			return m, nil
		}
		return m, async(func(ctx context.Context) {
			_ = nav.SelectTrack(ctx, cursor)
		})

	case listing.Collections != nil:
		if cursor >= len(listing.Collections) {
			return m, nil
		}
		coll := listing.Collections[cursor]
		m.browseCursor = 0
		m.searchInput.SetValue("")
		return m, async(func(ctx context.Context) {
			nav.PushCollection(ctx, coll.ID, coll.Name)
		})

	default:
		if cursor >= len(listing.Categories) {
			return m, nil
		}
		cat := listing.Categories[cursor]
		m.browseCursor = 0
		return m, async(func(ctx context.Context) {
			nav.PushCategory(ctx, cat.Name)
		})
	}
}

func (m Model) handleSearchKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.searchFocused = false
		m.searchInput.Blur()
		return m, nil

	case "down", "up":
		// Leave the input, keep the query.
		m.searchFocused = false
		m.searchInput.Blur()
		return m.handleBrowseKeyPress(msg)
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	// The navigator debounces; every edit just reschedules.
	if v := m.searchInput.Value(); v != before {
		m.browseCursor = 0
		m.app.navigator.Search(v)
	}
	return m, cmd
}

func clamp(cursor, count int) int {
	if cursor >= count {
		cursor = count - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	barHeight := 1
	bodyHeight := m.height - barHeight - 2

	var body string
	if m.app.navigator.IsOpen() {
		searchView := ""
		if top := m.app.navigator.Top(); top != nil && top.Kind == browse.FrameCategory {
			if m.searchFocused {
				searchView = m.searchInput.View()
			} else if q := m.app.navigator.Query(); q != "" {
				searchView = styles.Dim.Render("search: ") + q
			} else {
				searchView = styles.Dim.Render("/ to search")
			}
		}
		body = m.browser.Render(
			m.app.navigator.Stack(),
			m.app.navigator.Listing(),
			searchView,
			m.searchFocused,
			m.browseCursor,
			m.width-2,
			bodyHeight,
		)
	} else {
		body = m.nowPlaying.Render(
			m.app.controller.Snapshot(),
			m.app.controller.State(),
			m.app.controller.Progress(),
			m.app.controller.Scope(),
			m.width-2,
			bodyHeight,
			true,
		)
	}

	bar := m.statusBar.Render(
		m.app.poller.Status(),
		m.app.sink.Active(),
		m.keyHint(),
		m.width,
	)

	return lipgloss.JoinVertical(lipgloss.Left, body, bar)
}

func (m Model) keyHint() string {
	if m.app.navigator.IsOpen() {
		return "j/k:move  enter:open  h:back  /:search  u:save  esc:close"
	}
	hint := "space:play/pause  n:next  u:save  b:browse  s:scope  ?:help  q:quit"
	if m.app.controller.HasPrev() {
		hint = "space:play/pause  n:next  p:prev  u:save  b:browse  s:scope  ?:help  q:quit"
	}
	return hint
}

func (m Model) renderHelp() string {
	title := "demotape - Keyboard Shortcuts"
	divider := styles.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Playback
  ────────
  Space        Play/Pause
  n            Next track
  p            Previous track (when history exists)
  u            Save/unsave track
  s            Toggle shuffle scope (track/collection)
  ←/→          Seek 5%

  Browse
  ──────
  b, Enter     Open the catalog browser
  j/↓ k/↑      Move
  Enter        Open category/collection, play track
  h/←          Back
  /            Search collections
  r            Retry a failed load
  Esc          Close

  q, Ctrl+C    Quit  ·  ?  Toggle help
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

// Run starts the TUI.
func Run(cfg *config.Config, client *api.Client) error {
	styles.SetTheme(cfg.TUI.Theme)

	app := NewApp(cfg, client)
	defer app.Close()

	p := tea.NewProgram(NewModel(app), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
