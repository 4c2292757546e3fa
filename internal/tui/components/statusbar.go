package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/demotape/demotape/internal/core"
	"github.com/demotape/demotape/internal/notify"
	"github.com/demotape/demotape/internal/tui/styles"
)

// StatusBar renders the bottom line: active notices win over the key hint,
// with catalog readiness on the right.
type StatusBar struct{}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// Render renders the status bar.
func (s *StatusBar) Render(status *core.Status, notices []notify.Notice, hint string, width int) string {
	left := styles.Dim.Render(hint)
	if len(notices) > 0 {
		// Newest notice wins.
		left = styles.ErrorText.Render(notices[len(notices)-1].Text)
	}

	right := s.renderCrawl(status)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Render(left + styles.Repeat(" ", gap) + right)
}

func (s *StatusBar) renderCrawl(status *core.Status) string {
	if status == nil {
		return styles.Dim.Render("connecting...")
	}

	counts := styles.Dim.Render(fmt.Sprintf("%d collections · %d tracks",
		status.TotalCollections, status.TotalTracks))

	switch status.CrawlStatus {
	case core.CrawlRunning:
		return styles.Paused.Render("crawling ") + counts
	case core.CrawlComplete:
		return counts
	default:
		// Unknown labels are shown as reported.
		return styles.Dim.Render(status.CrawlStatus+" ") + counts
	}
}
