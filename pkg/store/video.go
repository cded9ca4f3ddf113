package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// videoColumns are the metadata columns fetched by bulk reads. The data
// column is deliberately absent: payloads can be hundreds of megabytes and
// listing the library must not load them.
const videoColumns = `id, name, duration, size, mime_type, created_at,
	last_played, progress, position, completed, favorited, is_vaulted, thumbnail`

// PutVideo upserts the full storage record by id. Re-importing the same
// unmodified file produces the same id and overwrites in place.
func (s *Store) PutVideo(v *StoredVideo) error {
	_, err := s.db.Exec(`
		INSERT INTO videos (id, name, duration, size, mime_type, created_at,
			last_played, progress, position, completed, favorited, is_vaulted, thumbnail, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			duration = excluded.duration,
			size = excluded.size,
			mime_type = excluded.mime_type,
			created_at = excluded.created_at,
			last_played = excluded.last_played,
			progress = excluded.progress,
			position = excluded.position,
			completed = excluded.completed,
			favorited = excluded.favorited,
			is_vaulted = excluded.is_vaulted,
			thumbnail = excluded.thumbnail,
			data = excluded.data
	`, v.ID, v.Name, v.Duration, v.Size, v.MimeType, v.CreatedAt,
		lastPlayedMillis(v.LastPlayed), v.Progress, v.Position,
		v.Completed, v.Favorited, v.Vaulted, v.Thumbnail, v.Data)
	if err != nil {
		return fmt.Errorf("store: failed to save video: %w", err)
	}
	return nil
}

// GetAllVideos returns every video's metadata, newest first. When
// includeVaulted is false, vaulted records are excluded; this is the single
// query that separates the library view from the vault view.
func (s *Store) GetAllVideos(includeVaulted bool) ([]*Video, error) {
	query := "SELECT " + videoColumns + " FROM videos"
	if !includeVaulted {
		query += " WHERE is_vaulted = 0"
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating videos: %w", err)
	}
	return videos, nil
}

// GetVideosByIds returns the matching metadata records re-ordered to follow
// the input sequence exactly. Ids with no match are silently dropped; the
// caller's sequence is typically playlist membership, where order is the
// playback order and dangling ids are tolerated.
func (s *Store) GetVideosByIds(ids []string) ([]*Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := ""
	args := make([]any, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if placeholders != "" {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, id)
	}

	rows, err := s.db.Query(
		"SELECT "+videoColumns+" FROM videos WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("store: failed to query videos: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*Video, len(ids))
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		byID[v.ID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating videos: %w", err)
	}

	ordered := make([]*Video, 0, len(ids))
	returned := make(map[string]bool, len(byID))
	for _, id := range ids {
		if v, ok := byID[id]; ok && !returned[id] {
			ordered = append(ordered, v)
			returned[id] = true
		}
	}
	return ordered, nil
}

// GetVideo returns the full record including the raw payload, plus the
// file handle path when one exists ("" otherwise). Returns ErrVideoNotFound
// when no record exists.
func (s *Store) GetVideo(id string) (*StoredVideo, string, error) {
	row := s.db.QueryRow(
		"SELECT "+videoColumns+", data FROM videos WHERE id = ?", id)

	var v StoredVideo
	var lastPlayed int64
	err := row.Scan(&v.ID, &v.Name, &v.Duration, &v.Size, &v.MimeType,
		&v.CreatedAt, &lastPlayed, &v.Progress, &v.Position,
		&v.Completed, &v.Favorited, &v.Vaulted, &v.Thumbnail, &v.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrVideoNotFound
		}
		return nil, "", fmt.Errorf("store: failed to read video: %w", err)
	}
	v.LastPlayed = millisToTime(lastPlayed)

	handle, err := s.GetFileHandle(id)
	if err != nil {
		return nil, "", err
	}
	path := ""
	if handle != nil {
		path = handle.Path
	}
	return &v, path, nil
}

// UpdateProgress records playback state: current offset, percentage watched,
// completion, and the last-played timestamp. Read-modify-write under one
// transaction.
func (s *Store) UpdateProgress(id string, position, progress float64, completed bool) error {
	return s.updateVideo(id, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE videos SET position = ?, progress = ?, completed = ?, last_played = ?
			WHERE id = ?
		`, position, progress, completed, time.Now().UnixMilli(), id)
		return err
	})
}

// UpdateThumbnail replaces the stored thumbnail image.
func (s *Store) UpdateThumbnail(id string, thumbnail []byte) error {
	return s.updateVideo(id, func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE videos SET thumbnail = ? WHERE id = ?", thumbnail, id)
		return err
	})
}

// RenameVideo updates the display name.
func (s *Store) RenameVideo(id, name string) error {
	return s.updateVideo(id, func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE videos SET name = ? WHERE id = ?", name, id)
		return err
	})
}

// SetVaulted flips the vault flag, moving the video between the library and
// vault views on the next partitioned read.
func (s *Store) SetVaulted(id string, vaulted bool) error {
	return s.updateVideo(id, func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE videos SET is_vaulted = ? WHERE id = ?", vaulted, id)
		return err
	})
}

// SetFavorited flips the favorite flag.
func (s *Store) SetFavorited(id string, favorited bool) error {
	return s.updateVideo(id, func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE videos SET favorited = ? WHERE id = ?", favorited, id)
		return err
	})
}

// updateVideo runs a field update inside a transaction after confirming the
// record exists, failing with ErrVideoNotFound otherwise.
func (s *Store) updateVideo(id string, update func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow("SELECT 1 FROM videos WHERE id = ?", id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("store: failed to read video: %w", err)
	}

	if err := update(tx); err != nil {
		return fmt.Errorf("store: failed to update video: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: failed to commit update: %w", err)
	}
	return nil
}

// DeleteVideo removes the video and its file handle in one transaction.
// Removing the id from playlists is the access layer's responsibility; the
// store has no cross-collection integrity engine.
func (s *Store) DeleteVideo(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM videos WHERE id = ?", id); err != nil {
		return fmt.Errorf("store: failed to delete video: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM file_handles WHERE id = ?", id); err != nil {
		return fmt.Errorf("store: failed to delete file handle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: failed to commit delete: %w", err)
	}
	return nil
}

// PutFileHandle upserts the filesystem reference for a video id.
func (s *Store) PutFileHandle(h *FileHandle) error {
	_, err := s.db.Exec(`
		INSERT INTO file_handles (id, path) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET path = excluded.path
	`, h.ID, h.Path)
	if err != nil {
		return fmt.Errorf("store: failed to save file handle: %w", err)
	}
	return nil
}

// GetFileHandle returns the handle for a video id, or nil when none exists.
func (s *Store) GetFileHandle(id string) (*FileHandle, error) {
	var h FileHandle
	err := s.db.QueryRow("SELECT id, path FROM file_handles WHERE id = ?", id).
		Scan(&h.ID, &h.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: failed to read file handle: %w", err)
	}
	return &h, nil
}

// scanVideo scans one metadata row (no data column).
func scanVideo(rows *sql.Rows) (*Video, error) {
	var v Video
	var lastPlayed int64
	err := rows.Scan(&v.ID, &v.Name, &v.Duration, &v.Size, &v.MimeType,
		&v.CreatedAt, &lastPlayed, &v.Progress, &v.Position,
		&v.Completed, &v.Favorited, &v.Vaulted, &v.Thumbnail)
	if err != nil {
		return nil, fmt.Errorf("store: failed to scan video: %w", err)
	}
	v.LastPlayed = millisToTime(lastPlayed)
	return &v, nil
}

func lastPlayedMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
