package library

import (
	"fmt"

	"github.com/waizdev/playgate/pkg/store"
)

// CreatePlaylist creates an empty playlist with a time-based id.
func (l *Library) CreatePlaylist(name, description string) (*store.Playlist, error) {
	now := l.now()
	p := &store.Playlist{
		ID:          fmt.Sprintf("playlist-%d", now.UnixMilli()),
		Name:        name,
		Description: description,
		VideoIDs:    []string{},
		CreatedAt:   now,
	}
	if err := l.store.PutPlaylist(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddToPlaylist appends a video id to the end of the playback sequence.
// Adding an id that is already present is a no-op, so membership never
// duplicates.
func (l *Library) AddToPlaylist(playlistID, videoID string) error {
	p, err := l.store.GetPlaylist(playlistID)
	if err != nil {
		return err
	}
	for _, id := range p.VideoIDs {
		if id == videoID {
			return nil
		}
	}
	p.VideoIDs = append(p.VideoIDs, videoID)
	return l.store.PutPlaylist(p)
}

// RemoveFromPlaylist removes a video id from the sequence. Removing an id
// that is not present is a no-op.
func (l *Library) RemoveFromPlaylist(playlistID, videoID string) error {
	p, err := l.store.GetPlaylist(playlistID)
	if err != nil {
		return err
	}
	trimmed := removeID(p.VideoIDs, videoID)
	if len(trimmed) == len(p.VideoIDs) {
		return nil
	}
	p.VideoIDs = trimmed
	return l.store.PutPlaylist(p)
}

// Reorder replaces the playback sequence wholesale. The new sequence is
// accepted as given; it is the caller's job to pass a permutation of the
// current membership.
func (l *Library) Reorder(playlistID string, videoIDs []string) error {
	p, err := l.store.GetPlaylist(playlistID)
	if err != nil {
		return err
	}
	p.VideoIDs = videoIDs
	return l.store.PutPlaylist(p)
}

// PlaylistVideos resolves a playlist's membership to video records in
// playback order. Dangling ids left behind by non-atomic deletes are
// silently dropped.
func (l *Library) PlaylistVideos(playlistID string) ([]*store.Video, error) {
	p, err := l.store.GetPlaylist(playlistID)
	if err != nil {
		return nil, err
	}
	return l.store.GetVideosByIds(p.VideoIDs)
}
