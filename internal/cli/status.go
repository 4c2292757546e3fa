package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/demotape/demotape/internal/core"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show crawl progress and catalog counts",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := newClient().Status(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(st)
	}

	icon := StatusIcon(st.CrawlStatus == core.CrawlComplete)
	fmt.Printf("%s crawl: %s\n", icon, st.CrawlStatus)
	fmt.Printf("  categories:  %d\n", st.TotalCategories)
	fmt.Printf("  collections: %d\n", st.TotalCollections)
	fmt.Printf("  tracks:      %d\n", st.TotalTracks)
	fmt.Printf("  saved:       %d\n", st.UpvotedCount)
	fmt.Printf("  cache:       %s downloads, %s converted\n",
		humanize.Bytes(uint64(st.DownloadCacheMB*1024*1024)),
		humanize.Bytes(uint64(st.ConvertedCacheMB*1024*1024)))
	return nil
}
