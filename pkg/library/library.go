// Package library implements the access layer over the persistent store:
// media import, cross-record cleanup on delete, playlist membership, and
// playback bookkeeping. It enforces the rules the store itself does not.
package library

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/waizdev/playgate/pkg/store"
)

// CompletionThreshold is the watched percentage at which a video counts as
// completed.
const CompletionThreshold = 99.0

// ErrMediaDecode indicates a selected file is not decodable media. A batch
// import skips the file and continues.
var ErrMediaDecode = errors.New("library: file is not decodable media")

// MediaProber extracts playback metadata from a media file. Probing is the
// responsibility of an external media pipeline; implementations wrap it and
// report ErrMediaDecode for files that are not playable.
type MediaProber interface {
	// ProbeDuration returns the media duration in seconds.
	ProbeDuration(path string) (float64, error)
	// CaptureThumbnail samples a representative frame as an image.
	CaptureThumbnail(path string) ([]byte, error)
}

// Library wires the store and the media prober together.
type Library struct {
	store  *store.Store
	prober MediaProber
	log    *slog.Logger
	now    func() time.Time
}

// New constructs the access layer. logger may be nil, in which case the
// default slog logger is used.
func New(s *store.Store, prober MediaProber, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		store:  s,
		prober: prober,
		log:    logger,
		now:    time.Now,
	}
}

// VideoID derives the deterministic record id from the file's name and
// last-modified time. Re-importing the same unmodified file collides on the
// same id instead of duplicating.
func VideoID(name string, modTime time.Time) string {
	return fmt.Sprintf("%s-%d", name, modTime.UnixMilli())
}

// Import brings one media file into the library: probes duration, captures a
// thumbnail, and writes the record (with the raw binary) as a single logical
// unit. When keepHandle is true, a handle to the original file is stored so
// the file can be re-read from disk later without the embedded copy.
//
// Importing an already-imported, unmodified file overwrites the existing
// record; re-import is idempotent, not additive.
func (l *Library) Import(path string, keepHandle bool) (*store.Video, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("library: failed to stat file: %w", err)
	}

	duration, err := l.prober.ProbeDuration(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaDecode, err)
	}
	thumbnail, err := l.prober.CaptureThumbnail(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMediaDecode, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("library: failed to read file: %w", err)
	}

	name := filepath.Base(path)
	record := &store.StoredVideo{
		Video: store.Video{
			ID:        VideoID(name, info.ModTime()),
			Name:      name,
			Duration:  duration,
			Size:      info.Size(),
			MimeType:  mimeTypeFor(path),
			CreatedAt: l.now(),
			Thumbnail: thumbnail,
		},
		Data: data,
	}

	if err := l.store.PutVideo(record); err != nil {
		return nil, err
	}
	if keepHandle {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if err := l.store.PutFileHandle(&store.FileHandle{ID: record.ID, Path: abs}); err != nil {
			return nil, err
		}
	}
	return &record.Video, nil
}

// ImportBatch imports files sequentially. A file that fails to decode is
// skipped and reported in the returned error map; the rest of the batch
// continues. Storage failures abort the batch.
func (l *Library) ImportBatch(paths []string, keepHandle bool) ([]*store.Video, map[string]error, error) {
	var imported []*store.Video
	failed := make(map[string]error)
	for _, path := range paths {
		v, err := l.Import(path, keepHandle)
		if err != nil {
			if errors.Is(err, ErrMediaDecode) {
				l.log.Warn("skipping undecodable file", "path", path, "error", err)
				failed[path] = err
				continue
			}
			return imported, failed, err
		}
		imported = append(imported, v)
	}
	return imported, failed, nil
}

// Delete removes a video along with its handle, first stripping the id from
// every playlist. The cascade is best effort: a playlist that fails to
// update is logged and skipped, never blocking the delete itself, because
// playlist reads already tolerate dangling ids.
func (l *Library) Delete(id string) error {
	playlists, err := l.store.GetAllPlaylists()
	if err != nil {
		return err
	}
	for _, p := range playlists {
		trimmed := removeID(p.VideoIDs, id)
		if len(trimmed) == len(p.VideoIDs) {
			continue
		}
		p.VideoIDs = trimmed
		if err := l.store.PutPlaylist(p); err != nil {
			l.log.Warn("failed to remove video from playlist",
				"playlist", p.ID, "video", id, "error", err)
		}
	}
	return l.store.DeleteVideo(id)
}

// ToggleVault flips the vault flag. Callers re-query with the matching
// includeVaulted value to see the video move between views.
func (l *Library) ToggleVault(id string, vaulted bool) error {
	return l.store.SetVaulted(id, vaulted)
}

// ToggleFavorite flips the favorite flag.
func (l *Library) ToggleFavorite(id string, favorited bool) error {
	return l.store.SetFavorited(id, favorited)
}

// RecordProgress stores the current playback offset and watched percentage,
// clamping the percentage to 0-100 and marking completion past the
// threshold.
func (l *Library) RecordProgress(id string, position, progress float64) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return l.store.UpdateProgress(id, position, progress, progress >= CompletionThreshold)
}

// Rename updates a video's display name.
func (l *Library) Rename(id, name string) error {
	return l.store.RenameVideo(id, name)
}

// RefreshThumbnail recaptures the thumbnail from the original file via its
// handle. Fails when the video has no handle to re-read from.
func (l *Library) RefreshThumbnail(id string) error {
	handle, err := l.store.GetFileHandle(id)
	if err != nil {
		return err
	}
	if handle == nil {
		return fmt.Errorf("library: video %s has no file handle to refresh from", id)
	}
	thumbnail, err := l.prober.CaptureThumbnail(handle.Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMediaDecode, err)
	}
	return l.store.UpdateThumbnail(id, thumbnail)
}

func removeID(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// mimeTypeFor maps common video extensions. Unknown extensions fall back to
// the generic video type so playback hinting still works.
func mimeTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mkv":
		return "video/x-matroska"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	default:
		return "video/mp4"
	}
}
