package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/demotape/demotape/internal/core"
	"github.com/demotape/demotape/internal/player"
	"github.com/demotape/demotape/internal/tui/styles"
)

// NowPlaying displays the current track, its collection context and
// playback progress.
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component.
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Render renders the now playing panel.
func (n *NowPlaying) Render(snap *core.Snapshot, state player.State, progress player.Progress, scope core.Scope, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if !snap.HasTrack() {
		content = n.renderEmpty(state)
	} else {
		content = n.renderTrack(snap, state, progress, width-4)
	}

	footer := n.renderFooter(state, scope)

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
		"",
		footer,
	))
}

func (n *NowPlaying) renderEmpty(state player.State) string {
	if state == player.StateLoading {
		return styles.Muted.Render("Loading...")
	}
	return styles.Muted.Render("Waiting for the catalog to fill...")
}

func (n *NowPlaying) renderTrack(snap *core.Snapshot, state player.State, progress player.Progress, width int) string {
	track := snap.Track

	icon := styles.StatusIcon(state == player.StatePlaying)
	name := track.DisplayTitle()
	if track.Upvoted {
		name += " " + styles.Selected.Render("★")
	}
	title := icon + " " + styles.Title.Render(name)

	var lines []string
	lines = append(lines, title)

	if snap.Collection != nil {
		coll := styles.Subtitle.Render(snap.Collection.Name)
		if snap.CategoryName != "" {
			coll += styles.Dim.Render(" · " + snap.CategoryName)
		}
		lines = append(lines, "  "+coll)
	}

	meta := strings.ToUpper(string(track.Format))
	if track.FileSize > 0 {
		meta += " · " + humanize.Bytes(uint64(track.FileSize))
	}
	if track.PlayCount > 0 {
		meta += fmt.Sprintf(" · played %d×", track.PlayCount)
	}
	lines = append(lines, "  "+styles.Dim.Render(meta))
	lines = append(lines, "")
	lines = append(lines, n.renderProgress(state, progress, width))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (n *NowPlaying) renderProgress(state player.State, progress player.Progress, width int) string {
	if state == player.StateLoading {
		return styles.Muted.Render("Loading...")
	}
	if state == player.StateErrored {
		return styles.ErrorText.Render("Playback failed")
	}

	barWidth := width - 14
	if barWidth < 10 {
		barWidth = 10
	}
	bar := styles.ProgressBar(progress.Fraction, barWidth)
	return fmt.Sprintf("%s %s %s",
		FormatDuration(progress.Elapsed), bar, FormatDuration(progress.Total))
}

func (n *NowPlaying) renderFooter(state player.State, scope core.Scope) string {
	label := "shuffle: any track"
	if scope == core.ScopeCollection {
		label = "shuffle: new collection"
	}
	return styles.Dim.Render(label)
}

// FormatDuration renders a duration as m:ss.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
