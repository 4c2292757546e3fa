package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/demotape/demotape/internal/api"
)

var (
	collCategory string
	collSearch   string
	collLimit    int
	collOffset   int
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List catalog categories",
	RunE:  runCategories,
}

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections, optionally filtered",
	Long: `List collections across the catalog.

Examples:
  demotape collections --category DEMOS
  demotape collections --category DEMOS --search farbrausch
  demotape collections --limit 20 --offset 40`,
	RunE: runCollections,
}

var tracksCmd = &cobra.Command{
	Use:   "tracks <collection-id>",
	Short: "List the tracks in a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runTracks,
}

func init() {
	collectionsCmd.Flags().StringVar(&collCategory, "category", "", "filter by category name")
	collectionsCmd.Flags().StringVarP(&collSearch, "search", "s", "", "filter by name substring")
	collectionsCmd.Flags().IntVar(&collLimit, "limit", 50, "maximum results")
	collectionsCmd.Flags().IntVar(&collOffset, "offset", 0, "skip this many results")

	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(tracksCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	cats, err := newClient().Categories(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(cats)
	}

	t := NewTable("NAME", "COLLECTIONS", "TRACKS")
	for _, c := range cats {
		t.Row(c.Name, strconv.Itoa(c.CollectionCount), strconv.Itoa(c.TrackCount))
	}
	t.Flush()
	return nil
}

func runCollections(cmd *cobra.Command, args []string) error {
	colls, err := newClient().Collections(context.Background(), api.CollectionsQuery{
		Category: collCategory,
		Search:   collSearch,
		Limit:    collLimit,
		Offset:   collOffset,
	})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(colls)
	}

	t := NewTable("ID", "NAME", "TRACKS")
	for _, c := range colls {
		t.Row(strconv.Itoa(c.ID), TruncateString(c.Name, 60), strconv.Itoa(c.TrackCount))
	}
	t.Flush()
	return nil
}

func runTracks(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid collection id: %s", args[0])
	}

	client := newClient()
	detail, err := client.Collection(context.Background(), id)
	if err != nil {
		if api.IsNotFoundError(err) {
			return fmt.Errorf("collection %d not found", id)
		}
		return fmt.Errorf("failed to get collection: %w", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(detail)
	}

	fmt.Printf("%s · %s\n", detail.Name, detail.CategoryName)
	if detail.HasArt() {
		fmt.Printf("art: %s\n", client.ArtURL(detail.ID))
	}
	fmt.Println()
	t := NewTable("ID", "TITLE", "FORMAT", "SIZE", "SAVED")
	for _, tr := range detail.Tracks {
		saved := ""
		if tr.Upvoted {
			saved = "★"
		}
		t.Row(strconv.Itoa(tr.ID), TruncateString(tr.DisplayTitle(), 50),
			string(tr.Format), humanize.Bytes(uint64(tr.FileSize)), saved)
	}
	t.Flush()
	return nil
}
