package cli

import (
	"github.com/spf13/cobra"

	"github.com/demotape/demotape/internal/tui"
)

var uiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"play"},
	Short:   "Launch the interactive player",
	Long: `Launch the interactive terminal player.

Keyboard shortcuts:
  Space        Play/Pause
  n            Next track
  p            Previous track
  u            Save/unsave track
  s            Toggle shuffle scope
  b, Enter     Browse the catalog
  ?            Help
  q, Ctrl+C    Quit`,
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	return tui.Run(cfg, newClient())
}
