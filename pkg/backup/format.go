// Package backup serializes the library to a portable JSON document and
// restores it. Exports carry every video's metadata and thumbnail plus every
// playlist; raw video binaries and file handles are not round-trippable, so
// restored videos are metadata-only until the user re-imports the files.
package backup

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// FormatVersion is the current export document version. Documents carry it
// explicitly so future format changes can be migrated instead of guessed.
const FormatVersion = 1

var (
	// ErrUnsupportedVersion indicates the document's format version is not
	// one this build can restore.
	ErrUnsupportedVersion = errors.New("backup: unsupported export format version")

	// ErrMalformedDocument indicates the document failed validation and
	// nothing was restored.
	ErrMalformedDocument = errors.New("backup: malformed export document")
)

// thumbnailPrefix is the data-URL prefix for exported thumbnails.
const thumbnailPrefix = "data:image/jpeg;base64,"

// Document is the top-level export envelope.
type Document struct {
	FormatVersion int              `json:"formatVersion"`
	ExportedAt    string           `json:"exportedAt"` // RFC 3339
	Videos        []VideoRecord    `json:"videos"`
	Playlists     []PlaylistRecord `json:"playlists"`
}

// VideoRecord is one video's exported metadata. Timestamps are RFC 3339
// strings and the thumbnail is a base64 data URL so the document is plain
// text end to end.
type VideoRecord struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Duration   float64 `json:"duration"`
	Size       int64   `json:"size"`
	MimeType   string  `json:"type"`
	CreatedAt  string  `json:"createdAt"`
	LastPlayed string  `json:"lastPlayed,omitempty"` // absent when never played
	Progress   float64 `json:"progress,omitempty"`
	Position   float64 `json:"currentTime,omitempty"`
	Completed  bool    `json:"completed,omitempty"`
	Favorited  bool    `json:"favorited,omitempty"`
	Vaulted    bool    `json:"isVaulted,omitempty"`
	Thumbnail  string  `json:"thumbnail,omitempty"`
}

// PlaylistRecord is one playlist's exported form. VideoIDs keeps the
// playback order.
type PlaylistRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	VideoIDs    []string `json:"videoIds"`
	CreatedAt   string   `json:"createdAt"`
}

// EncodeDocument writes the document as indented JSON.
func EncodeDocument(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("backup: failed to encode document: %w", err)
	}
	return nil
}

// DecodeDocument parses a document from JSON. It does not validate beyond
// JSON shape; callers run Validate before acting on the result.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return &doc, nil
}

// Validate checks the whole document before any restore touches the store:
// the version must be supported, every record needs an id and parseable
// timestamps, and every thumbnail must decode.
func (d *Document) Validate() error {
	if d.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: got %d, want %d",
			ErrUnsupportedVersion, d.FormatVersion, FormatVersion)
	}
	for i, v := range d.Videos {
		if v.ID == "" {
			return fmt.Errorf("%w: video %d has no id", ErrMalformedDocument, i)
		}
		if _, err := parseTimestamp(v.CreatedAt); err != nil {
			return fmt.Errorf("%w: video %q createdAt: %v", ErrMalformedDocument, v.ID, err)
		}
		if v.LastPlayed != "" {
			if _, err := parseTimestamp(v.LastPlayed); err != nil {
				return fmt.Errorf("%w: video %q lastPlayed: %v", ErrMalformedDocument, v.ID, err)
			}
		}
		if v.Thumbnail != "" {
			if _, err := decodeThumbnail(v.Thumbnail); err != nil {
				return fmt.Errorf("%w: video %q thumbnail: %v", ErrMalformedDocument, v.ID, err)
			}
		}
	}
	for i, p := range d.Playlists {
		if p.ID == "" {
			return fmt.Errorf("%w: playlist %d has no id", ErrMalformedDocument, i)
		}
		if _, err := parseTimestamp(p.CreatedAt); err != nil {
			return fmt.Errorf("%w: playlist %q createdAt: %v", ErrMalformedDocument, p.ID, err)
		}
	}
	return nil
}

func encodeThumbnail(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return thumbnailPrefix + base64.StdEncoding.EncodeToString(data)
}

func decodeThumbnail(dataURL string) ([]byte, error) {
	// Accept any image mime type, not only JPEG exports.
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, errors.New("not a data URL")
	}
	_, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return nil, errors.New("missing base64 marker")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %v", err)
	}
	return data, nil
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
