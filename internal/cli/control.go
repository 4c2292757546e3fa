package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/demotape/demotape/internal/core"
)

var nextScope string

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the server's current track",
	Long:  `Show the track the server considers current, without advancing.`,
	RunE:  runCurrent,
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Advance to a fresh random track",
	Long: `Ask the server for a fresh random track and print it.

With --scope collection the server skips to a different collection.`,
	RunE: runNext,
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Step back through playback history",
	RunE:  runPrev,
}

var removeUpvote bool

var upvoteCmd = &cobra.Command{
	Use:   "upvote <track-id>",
	Short: "Save a track (or unsave with --remove)",
	Long: `Save a track on the server. Saving an already-saved track is a no-op.

Examples:
  demotape upvote 42
  demotape upvote 42 --remove`,
	Args: cobra.ExactArgs(1),
	RunE: runUpvote,
}

func init() {
	nextCmd.Flags().StringVar(&nextScope, "scope", "", `selection scope: "track" or "collection" (default from config)`)
	upvoteCmd.Flags().BoolVar(&removeUpvote, "remove", false, "remove the upvote instead")

	rootCmd.AddCommand(currentCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(upvoteCmd)
}

func runCurrent(cmd *cobra.Command, args []string) error {
	snap, err := newClient().Current(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get current track: %w", err)
	}
	return printSnapshot(snap)
}

func runNext(cmd *cobra.Command, args []string) error {
	scope := core.Scope(cfg.Player.Scope)
	if nextScope != "" {
		scope = core.Scope(nextScope)
	}
	if !scope.Valid() {
		return fmt.Errorf("invalid scope %q", scope)
	}

	snap, err := newClient().Next(context.Background(), scope)
	if err != nil {
		return fmt.Errorf("failed to advance: %w", err)
	}
	return printSnapshot(snap)
}

func runPrev(cmd *cobra.Command, args []string) error {
	snap, err := newClient().Prev(context.Background())
	if err != nil {
		return fmt.Errorf("failed to go back: %w", err)
	}
	return printSnapshot(snap)
}

func runUpvote(cmd *cobra.Command, args []string) error {
	trackID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid track id: %s", args[0])
	}

	client := newClient()
	ctx := context.Background()

	var result interface{}
	if removeUpvote {
		result, err = client.RemoveUpvote(ctx, trackID)
	} else {
		result, err = client.Upvote(ctx, trackID)
	}
	if err != nil {
		return fmt.Errorf("failed to update upvote: %w", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	if removeUpvote {
		fmt.Printf("Removed upvote for track %d\n", trackID)
	} else {
		fmt.Printf("★ Saved track %d\n", trackID)
	}
	return nil
}

func printSnapshot(snap *core.Snapshot) error {
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(snap)
	}

	if !snap.HasTrack() {
		fmt.Println("No track yet (catalog still filling)")
		return nil
	}

	star := ""
	if snap.Track.Upvoted {
		star = " ★"
	}
	fmt.Printf("♪ %s%s\n", snap.Track.DisplayTitle(), star)
	if snap.Collection != nil {
		line := snap.Collection.Name
		if snap.CategoryName != "" {
			line += " · " + snap.CategoryName
		}
		fmt.Printf("  %s\n", line)
	}
	fmt.Printf("  %s · track %d\n", snap.Track.Format, snap.Track.ID)
	return nil
}
