package store

import (
	"database/sql"
	"fmt"
)

// Schema version constants
const (
	// SchemaVersion1 is the original three-table layout.
	SchemaVersion1 = 1
	// SchemaVersion2 adds the vault flag and its partial index.
	SchemaVersion2 = 2
	// SchemaVersion3 adds playback progress tracking columns.
	SchemaVersion3 = 3
	// SchemaVersion4 adds the favorited flag.
	SchemaVersion4 = 4
	// CurrentSchemaVersion is the version new databases are created at.
	CurrentSchemaVersion = SchemaVersion4
)

// getSchemaVersion returns the schema version recorded in the database.
// Returns 0 for a freshly created database.
func getSchemaVersion(db *sql.DB) (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: failed to check schema_version table: %w", err)
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("store: failed to get schema version: %w", err)
	}

	return version, nil
}

// migrateSchema brings the database up to CurrentSchemaVersion, applying
// each migration in order. Migrations are idempotent: an interrupted run
// can be retried safely.
func migrateSchema(db *sql.DB) error {
	version, err := getSchemaVersion(db)
	if err != nil {
		return err
	}

	if version < SchemaVersion1 {
		if err := migrateToV1(db); err != nil {
			return fmt.Errorf("store: migration to v1 failed: %w", err)
		}
	}

	if version < SchemaVersion2 {
		if err := migrateToV2(db); err != nil {
			return fmt.Errorf("store: migration to v2 failed: %w", err)
		}
	}

	if version < SchemaVersion3 {
		if err := migrateToV3(db); err != nil {
			return fmt.Errorf("store: migration to v3 failed: %w", err)
		}
	}

	if version < SchemaVersion4 {
		if err := migrateToV4(db); err != nil {
			return fmt.Errorf("store: migration to v4 failed: %w", err)
		}
	}

	return nil
}

// migrateToV1 creates the base tables: videos, file_handles, playlists.
// Playlist membership is stored as a JSON array to keep the user-controlled
// ordering intact without a join table.
func migrateToV1(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			duration REAL NOT NULL DEFAULT 0,
			size INTEGER NOT NULL DEFAULT 0,
			mime_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			last_played INTEGER NOT NULL DEFAULT 0,
			thumbnail BLOB,
			data BLOB
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create videos table: %w", err)
	}

	// No foreign key to videos: handle lifecycle is enforced by the access
	// layer, and a dangling handle is harmless.
	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS file_handles (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create file_handles table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			video_ids TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create playlists table: %w", err)
	}

	_, err = tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			migrated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	_, err = tx.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", SchemaVersion1)
	if err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// migrateToV2 adds the vault flag plus an index so the library/vault
// partition query never scans the full table.
func migrateToV2(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	columns, err := getTableColumns(tx, "videos")
	if err != nil {
		return fmt.Errorf("failed to get videos columns: %w", err)
	}

	if !columns["is_vaulted"] {
		_, err = tx.Exec("ALTER TABLE videos ADD COLUMN is_vaulted INTEGER NOT NULL DEFAULT 0")
		if err != nil {
			return fmt.Errorf("failed to add is_vaulted column: %w", err)
		}

		_, err = tx.Exec("CREATE INDEX idx_videos_vaulted ON videos(is_vaulted)")
		if err != nil {
			return fmt.Errorf("failed to create idx_videos_vaulted: %w", err)
		}
	}

	_, err = tx.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", SchemaVersion2)
	if err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// migrateToV3 adds resume-playback columns. Existing videos start unwatched.
func migrateToV3(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	columns, err := getTableColumns(tx, "videos")
	if err != nil {
		return fmt.Errorf("failed to get videos columns: %w", err)
	}

	if !columns["progress"] {
		_, err = tx.Exec("ALTER TABLE videos ADD COLUMN progress REAL NOT NULL DEFAULT 0")
		if err != nil {
			return fmt.Errorf("failed to add progress column: %w", err)
		}
	}
	if !columns["position"] {
		_, err = tx.Exec("ALTER TABLE videos ADD COLUMN position REAL NOT NULL DEFAULT 0")
		if err != nil {
			return fmt.Errorf("failed to add position column: %w", err)
		}
	}
	if !columns["completed"] {
		_, err = tx.Exec("ALTER TABLE videos ADD COLUMN completed INTEGER NOT NULL DEFAULT 0")
		if err != nil {
			return fmt.Errorf("failed to add completed column: %w", err)
		}
	}

	_, err = tx.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", SchemaVersion3)
	if err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// migrateToV4 adds the favorited flag. Existing videos start unfavorited.
func migrateToV4(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	columns, err := getTableColumns(tx, "videos")
	if err != nil {
		return fmt.Errorf("failed to get videos columns: %w", err)
	}

	if !columns["favorited"] {
		_, err = tx.Exec("ALTER TABLE videos ADD COLUMN favorited INTEGER NOT NULL DEFAULT 0")
		if err != nil {
			return fmt.Errorf("failed to add favorited column: %w", err)
		}
	}

	_, err = tx.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", SchemaVersion4)
	if err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// getTableColumns returns a map of column names for a table.
func getTableColumns(tx *sql.Tx, tableName string) (map[string]bool, error) {
	rows, err := tx.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns[name] = true
	}

	return columns, rows.Err()
}
