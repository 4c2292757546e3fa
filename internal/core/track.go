package core

// Format identifies the audio format of a track as reported by the server.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatOGG  Format = "ogg"
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
	FormatMOD  Format = "mod"
	FormatXM   Format = "xm"
	FormatIT   Format = "it"
	FormatS3M  Format = "s3m"
	FormatSTM  Format = "stm"
	FormatMTM  Format = "mtm"
	FormatMED  Format = "med"
	Format669  Format = "669"
	FormatFAR  Format = "far"
	FormatULT  Format = "ult"
	FormatSID  Format = "sid"
)

// IsTracker returns true for tracker-module formats (mod, xm, it, ...).
// The server transcodes these before streaming.
func (f Format) IsTracker() bool {
	switch f {
	case FormatMOD, FormatXM, FormatIT, FormatS3M, FormatSTM,
		FormatMTM, FormatMED, Format669, FormatFAR, FormatULT:
		return true
	}
	return false
}

// StreamsDirectly returns true if the server streams the original file
// bytes without transcoding.
func (f Format) StreamsDirectly() bool {
	return f == FormatMP3 || f == FormatOGG
}

// Track represents a playable audio track in the catalog.
type Track struct {
	ID           int    `json:"id"`
	CollectionID int    `json:"collection_id"`
	Filename     string `json:"filename"`
	Title        string `json:"title"`
	Format       Format `json:"format"`
	SourceType   string `json:"source_type"`
	FileSize     int64  `json:"file_size"`
	Upvoted      bool   `json:"upvoted"`
	PlayCount    int    `json:"play_count"`
}

// DisplayTitle returns the title, falling back to the filename.
func (t *Track) DisplayTitle() string {
	if t == nil {
		return ""
	}
	if t.Title != "" {
		return t.Title
	}
	return t.Filename
}
