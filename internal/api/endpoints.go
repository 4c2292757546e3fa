package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/demotape/demotape/internal/core"
)

// Current fetches the server's notion of the current track. No side effect
// on playback history.
func (c *Client) Current(ctx context.Context) (*core.Snapshot, error) {
	var snap core.Snapshot
	if err := c.Get(ctx, "/api/player/current", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Next advances playback under the given scope and returns the new snapshot.
func (c *Client) Next(ctx context.Context, scope core.Scope) (*core.Snapshot, error) {
	path := BuildURL("/api/player/next", map[string]string{"scope": string(scope)})
	var snap core.Snapshot
	if err := c.Post(ctx, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Prev steps back through playback history.
func (c *Client) Prev(ctx context.Context) (*core.Snapshot, error) {
	var snap core.Snapshot
	if err := c.Post(ctx, "/api/player/prev", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Categories lists the top level of the catalog.
func (c *Client) Categories(ctx context.Context) ([]core.Category, error) {
	var cats []core.Category
	if err := c.Get(ctx, "/api/categories", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// CollectionsQuery holds the filters for a collections listing.
type CollectionsQuery struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

// Collections lists collections, optionally filtered by category and a
// server-side name search.
func (c *Client) Collections(ctx context.Context, q CollectionsQuery) ([]core.Collection, error) {
	params := map[string]string{}
	if q.Category != "" {
		params["category"] = q.Category
	}
	if q.Search != "" {
		params["q"] = q.Search
	}
	if q.Limit > 0 {
		params["limit"] = strconv.Itoa(q.Limit)
	}
	if q.Offset > 0 {
		params["offset"] = strconv.Itoa(q.Offset)
	}

	var colls []core.Collection
	if err := c.Get(ctx, BuildURL("/api/collections", params), &colls); err != nil {
		return nil, err
	}
	return colls, nil
}

// Collection fetches a collection with its full track listing.
func (c *Client) Collection(ctx context.Context, id int) (*core.CollectionDetail, error) {
	var detail core.CollectionDetail
	if err := c.Get(ctx, fmt.Sprintf("/api/collections/%d", id), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpvoteResult is the server's response to an upvote toggle.
type UpvoteResult struct {
	Status  string `json:"status"`
	TrackID int    `json:"track_id"`
	SavedTo string `json:"saved_to"`
}

// Upvote marks a track as saved. "already_upvoted" counts as success.
func (c *Client) Upvote(ctx context.Context, trackID int) (*UpvoteResult, error) {
	var res UpvoteResult
	if err := c.Post(ctx, fmt.Sprintf("/api/upvote/%d", trackID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RemoveUpvote clears a track's saved flag. "not_upvoted" counts as success.
func (c *Client) RemoveUpvote(ctx context.Context, trackID int) (*UpvoteResult, error) {
	var res UpvoteResult
	if err := c.Delete(ctx, fmt.Sprintf("/api/upvote/%d", trackID), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Status fetches the crawl-progress report.
func (c *Client) Status(ctx context.Context) (*core.Status, error) {
	var st core.Status
	if err := c.Get(ctx, "/api/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// StreamURL returns the audio stream URL for a track. The caller hands this
// to the media element; audio bytes are never parsed here.
func (c *Client) StreamURL(trackID int) string {
	return fmt.Sprintf("%s/api/player/stream/%d", c.baseURL, trackID)
}

// ArtURL returns the cover art URL for a collection (may 404 server-side).
func (c *Client) ArtURL(collectionID int) string {
	return fmt.Sprintf("%s/api/art/%d", c.baseURL, collectionID)
}
