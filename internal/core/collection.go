package core

// Collection represents an album or release pack within a category.
// Immutable once fetched for the session.
type Collection struct {
	ID         int    `json:"id"`
	CategoryID int    `json:"category_id"`
	Name       string `json:"name"`
	RemotePath string `json:"remote_path"`
	ArtURL     string `json:"art_url"`
	TrackCount int    `json:"track_count"`
}

// HasArt returns true if the server knows cover art for this collection.
func (c *Collection) HasArt() bool {
	return c != nil && c.ArtURL != ""
}

// CollectionDetail is a collection plus its full track listing.
type CollectionDetail struct {
	Collection
	Tracks       []Track `json:"tracks"`
	CategoryName string  `json:"category_name"`
}

// Category is the top level of the browse hierarchy.
type Category struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	CollectionCount int    `json:"collection_count"`
	TrackCount      int    `json:"track_count"`
}
