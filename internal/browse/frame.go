package browse

import "github.com/demotape/demotape/internal/core"

// FrameKind tags a navigation stack frame.
type FrameKind int

const (
	// FrameCategory shows the collections inside one category.
	FrameCategory FrameKind = iota
	// FrameCollection shows the tracks inside one collection.
	FrameCollection
)

// String returns the frame kind name.
func (k FrameKind) String() string {
	switch k {
	case FrameCategory:
		return "category"
	case FrameCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Frame is one level of the navigation stack. An empty stack means the
// category list (the root).
type Frame struct {
	Kind FrameKind
	ID   int // collection frames only
	Name string
}

// ContentState distinguishes what the current frame shows. Empty results
// and failures render differently from loading, so the user can tell them
// apart.
type ContentState int

const (
	ContentLoading ContentState = iota
	ContentLoaded
	ContentEmpty
	ContentFailed
)

// String returns the content state name.
func (s ContentState) String() string {
	switch s {
	case ContentLoading:
		return "loading"
	case ContentLoaded:
		return "loaded"
	case ContentEmpty:
		return "empty"
	case ContentFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Listing is the content of the currently displayed frame. Exactly one of
// the item slices is populated, matching the frame kind (categories at the
// root).
type Listing struct {
	State       ContentState
	Categories  []core.Category
	Collections []core.Collection
	Detail      *core.CollectionDetail
}
