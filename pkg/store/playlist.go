package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PutPlaylist upserts a playlist by id. The membership sequence is stored as
// a JSON array so its user-controlled ordering survives round-trips intact.
func (s *Store) PutPlaylist(p *Playlist) error {
	ids := p.VideoIDs
	if ids == nil {
		ids = []string{}
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("store: failed to marshal playlist membership: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO playlists (id, name, description, video_ids, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			video_ids = excluded.video_ids,
			created_at = excluded.created_at
	`, p.ID, p.Name, p.Description, string(idsJSON), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: failed to save playlist: %w", err)
	}
	return nil
}

// GetPlaylist returns one playlist, or ErrPlaylistNotFound.
func (s *Store) GetPlaylist(id string) (*Playlist, error) {
	row := s.db.QueryRow(
		"SELECT id, name, description, video_ids, created_at FROM playlists WHERE id = ?", id)
	p, err := scanPlaylist(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("store: failed to read playlist: %w", err)
	}
	return p, nil
}

// GetAllPlaylists returns every playlist, newest first.
func (s *Store) GetAllPlaylists() ([]*Playlist, error) {
	rows, err := s.db.Query(
		"SELECT id, name, description, video_ids, created_at FROM playlists ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("store: failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("store: failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: error iterating playlists: %w", err)
	}
	return playlists, nil
}

// DeletePlaylist removes a playlist. Deleting a missing id is a no-op.
func (s *Store) DeletePlaylist(id string) error {
	if _, err := s.db.Exec("DELETE FROM playlists WHERE id = ?", id); err != nil {
		return fmt.Errorf("store: failed to delete playlist: %w", err)
	}
	return nil
}

func scanPlaylist(scan func(dest ...any) error) (*Playlist, error) {
	var p Playlist
	var idsJSON string
	if err := scan(&p.ID, &p.Name, &p.Description, &idsJSON, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(idsJSON), &p.VideoIDs); err != nil {
		return nil, fmt.Errorf("corrupt membership list: %w", err)
	}
	if p.VideoIDs == nil {
		p.VideoIDs = []string{}
	}
	return &p, nil
}
