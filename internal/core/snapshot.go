package core

// Scope selects the universe the server draws from when picking the next
// track: "track" shuffles everything, "collection" skips to a different
// collection.
type Scope string

const (
	ScopeTrack      Scope = "track"
	ScopeCollection Scope = "collection"
)

// Valid reports whether the scope is one the server accepts.
func (s Scope) Valid() bool {
	return s == ScopeTrack || s == ScopeCollection
}

// Snapshot is the authoritative playback payload returned by the server on
// every transition. All displayed now-playing state derives from it.
type Snapshot struct {
	Track           *Track      `json:"track"`
	Collection      *Collection `json:"collection"`
	CategoryName    string      `json:"category_name"`
	HistoryPosition int         `json:"history_position"`
	HasPrev         bool        `json:"has_prev"`
}

// HasTrack returns true if the server has a current track.
func (s *Snapshot) HasTrack() bool {
	return s != nil && s.Track != nil
}
