package core

// Crawl status values the server reports. Anything else is shown verbatim.
const (
	CrawlIdle     = "idle"
	CrawlRunning  = "running"
	CrawlComplete = "complete"
)

// Status is the server's catalog-readiness report.
type Status struct {
	CrawlStatus      string  `json:"crawl_status"`
	TotalCategories  int     `json:"total_categories"`
	TotalCollections int     `json:"total_collections"`
	TotalTracks      int     `json:"total_tracks"`
	DownloadCacheMB  float64 `json:"download_cache_mb"`
	ConvertedCacheMB float64 `json:"converted_cache_mb"`
	UpvotedCount     int     `json:"upvoted_count"`
}

// Crawling returns true while the server is still filling the catalog.
func (s *Status) Crawling() bool {
	return s != nil && s.CrawlStatus == CrawlRunning
}
