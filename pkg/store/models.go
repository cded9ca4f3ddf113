package store

import "time"

// Video is the metadata record for one imported media file. Bulk read
// operations return Video only; the raw payload stays in StoredVideo so a
// grid of hundreds of entries never loads the binaries.
type Video struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Duration   float64   `json:"duration"` // seconds
	Size       int64     `json:"size"`     // bytes
	MimeType   string    `json:"type"`
	CreatedAt  time.Time `json:"createdAt"`
	LastPlayed time.Time `json:"lastPlayed"` // zero when never played
	Progress   float64   `json:"progress"`   // 0-100
	Position   float64   `json:"currentTime"`
	Completed  bool      `json:"completed"`
	Favorited  bool      `json:"favorited"`
	Vaulted    bool      `json:"isVaulted"`
	Thumbnail  []byte    `json:"-"` // JPEG bytes, may be nil
}

// StoredVideo is the full storage record: metadata plus the raw video bytes.
// Only single-video fetches for playback carry Data.
type StoredVideo struct {
	Video
	Data []byte
}

// FileHandle references the original file on the user's filesystem, keyed by
// the video id it belongs to. When present the file can be re-read from disk
// instead of relying on the embedded binary.
type FileHandle struct {
	ID   string
	Path string
}

// Playlist is a named, user-ordered collection of video ids. The order of
// VideoIDs is the playback sequence. Ids may dangle after a video delete;
// readers filter them out rather than failing.
type Playlist struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videoIds"`
	CreatedAt   time.Time `json:"createdAt"`
}
