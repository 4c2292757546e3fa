package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/demotape/demotape/internal/browse"
	"github.com/demotape/demotape/internal/tui/styles"
)

// Browser renders the catalog navigation panel: categories at the root,
// collections inside a category, tracks inside a collection.
type Browser struct{}

// NewBrowser creates a new Browser component.
func NewBrowser() *Browser {
	return &Browser{}
}

// ItemCount returns how many selectable rows the listing has.
func ItemCount(listing browse.Listing) int {
	switch {
	case listing.Detail != nil:
		return len(listing.Detail.Tracks)
	case listing.Collections != nil:
		return len(listing.Collections)
	default:
		return len(listing.Categories)
	}
}

// Render renders the browse panel.
func (b *Browser) Render(stack []browse.Frame, listing browse.Listing, searchView string, searchActive bool, cursor, width, height int) string {
	title := styles.PanelTitle("Browse", true)
	crumb := b.breadcrumb(stack)

	var lines []string
	lines = append(lines, title)
	lines = append(lines, crumb)

	if searchView != "" {
		lines = append(lines, searchView)
	}
	lines = append(lines, "")

	bodyHeight := height - len(lines) - 3
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	lines = append(lines, b.renderBody(listing, cursor, width-4, bodyHeight)...)

	panel := styles.Panel(searchActive).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (b *Browser) breadcrumb(stack []browse.Frame) string {
	parts := []string{"Categories"}
	for _, f := range stack {
		parts = append(parts, f.Name)
	}
	return styles.Subtitle.Render(strings.Join(parts, " › "))
}

func (b *Browser) renderBody(listing browse.Listing, cursor, width, height int) []string {
	switch listing.State {
	case browse.ContentLoading:
		return []string{styles.Muted.Render("Loading...")}
	case browse.ContentFailed:
		return []string{styles.ErrorText.Render("Couldn't load. Press r to retry.")}
	case browse.ContentEmpty:
		return []string{styles.Muted.Render("Nothing here")}
	}

	rows := b.rows(listing, width)
	return window(rows, cursor, height)
}

func (b *Browser) rows(listing browse.Listing, width int) []string {
	var rows []string
	switch {
	case listing.Detail != nil:
		for _, t := range listing.Detail.Tracks {
			star := " "
			if t.Upvoted {
				star = styles.Selected.Render("★")
			}
			meta := strings.ToUpper(string(t.Format))
			if t.FileSize > 0 {
				meta += " " + humanize.Bytes(uint64(t.FileSize))
			}
			rows = append(rows, fmt.Sprintf("%s %s  %s",
				star, t.DisplayTitle(), styles.Dim.Render(meta)))
		}
	case listing.Collections != nil:
		for _, c := range listing.Collections {
			rows = append(rows, fmt.Sprintf("%s  %s",
				c.Name, styles.Dim.Render(fmt.Sprintf("%d tracks", c.TrackCount))))
		}
	default:
		for _, c := range listing.Categories {
			rows = append(rows, fmt.Sprintf("%s  %s", c.Name,
				styles.Dim.Render(fmt.Sprintf("%d collections · %d tracks",
					c.CollectionCount, c.TrackCount))))
		}
	}
	return rows
}

// window slices rows to a viewport around the cursor and marks the
// selected row.
func window(rows []string, cursor, height int) []string {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}

	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := start + height
	if end > len(rows) {
		end = len(rows)
	}

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		if i == cursor {
			out = append(out, styles.Selected.Render("> ")+rows[i])
		} else {
			out = append(out, "  "+rows[i])
		}
	}
	if end < len(rows) {
		out = append(out, styles.Dim.Render(fmt.Sprintf("  ...%d more", len(rows)-end)))
	}
	return out
}
