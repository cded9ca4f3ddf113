package backup

import (
	"fmt"
	"time"

	"github.com/waizdev/playgate/pkg/store"
)

// Export reads every video (vaulted included, without raw binaries) and
// every playlist into a portable document.
func Export(s *store.Store) (*Document, error) {
	videos, err := s.GetAllVideos(true)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read videos: %w", err)
	}
	playlists, err := s.GetAllPlaylists()
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read playlists: %w", err)
	}

	doc := &Document{
		FormatVersion: FormatVersion,
		ExportedAt:    formatTimestamp(time.Now()),
		Videos:        make([]VideoRecord, 0, len(videos)),
		Playlists:     make([]PlaylistRecord, 0, len(playlists)),
	}
	for _, v := range videos {
		rec := VideoRecord{
			ID:        v.ID,
			Name:      v.Name,
			Duration:  v.Duration,
			Size:      v.Size,
			MimeType:  v.MimeType,
			CreatedAt: formatTimestamp(v.CreatedAt),
			Progress:  v.Progress,
			Position:  v.Position,
			Completed: v.Completed,
			Favorited: v.Favorited,
			Vaulted:   v.Vaulted,
			Thumbnail: encodeThumbnail(v.Thumbnail),
		}
		if !v.LastPlayed.IsZero() {
			rec.LastPlayed = formatTimestamp(v.LastPlayed)
		}
		doc.Videos = append(doc.Videos, rec)
	}
	for _, p := range playlists {
		ids := p.VideoIDs
		if ids == nil {
			ids = []string{}
		}
		doc.Playlists = append(doc.Playlists, PlaylistRecord{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			VideoIDs:    ids,
			CreatedAt:   formatTimestamp(p.CreatedAt),
		})
	}
	return doc, nil
}

// Import validates the document in full, then replaces the video and
// playlist collections with its contents. File handles are left alone.
// Restored videos carry no raw binary; playback needs a surviving handle or
// a re-import of the original file.
//
// Validation runs before the wipe, so a corrupt document leaves existing
// data untouched.
func Import(s *store.Store, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	if err := s.ClearLibrary(); err != nil {
		return fmt.Errorf("backup: failed to clear library: %w", err)
	}

	for _, rec := range doc.Videos {
		createdAt, _ := parseTimestamp(rec.CreatedAt)
		v := &store.StoredVideo{
			Video: store.Video{
				ID:        rec.ID,
				Name:      rec.Name,
				Duration:  rec.Duration,
				Size:      rec.Size,
				MimeType:  rec.MimeType,
				CreatedAt: createdAt,
				Progress:  rec.Progress,
				Position:  rec.Position,
				Completed: rec.Completed,
				Favorited: rec.Favorited,
				Vaulted:   rec.Vaulted,
			},
		}
		if rec.LastPlayed != "" {
			v.LastPlayed, _ = parseTimestamp(rec.LastPlayed)
		}
		if rec.Thumbnail != "" {
			v.Thumbnail, _ = decodeThumbnail(rec.Thumbnail)
		}
		if err := s.PutVideo(v); err != nil {
			return fmt.Errorf("backup: failed to restore video %q: %w", rec.ID, err)
		}
	}

	for _, rec := range doc.Playlists {
		createdAt, _ := parseTimestamp(rec.CreatedAt)
		p := &store.Playlist{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			VideoIDs:    rec.VideoIDs,
			CreatedAt:   createdAt,
		}
		if err := s.PutPlaylist(p); err != nil {
			return fmt.Errorf("backup: failed to restore playlist %q: %w", rec.ID, err)
		}
	}
	return nil
}
