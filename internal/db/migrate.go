package db

import (
	"fmt"
	"log"
)

// migrations are applied in order; each entry runs once and is recorded in
// schema_migrations by index.
var migrations = []string{
	// 001: users authenticated through Plex OAuth
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		plex_user_id VARCHAR(255) UNIQUE NOT NULL,
		plex_username VARCHAR(255) NOT NULL,
		plex_email VARCHAR(255),
		plex_token TEXT NOT NULL,
		plex_thumb_url VARCHAR(512),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_login TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	// 002: per-user key-value preference store
	`CREATE TABLE IF NOT EXISTS user_preferences (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		key VARCHAR(255) NOT NULL,
		value TEXT NOT NULL,
		UNIQUE (user_id, key)
	)`,

	// 003: scan locations; (user_id, path) unique per spec
	`CREATE TABLE IF NOT EXISTS scan_locations (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		path VARCHAR(1024) NOT NULL,
		label VARCHAR(255) NOT NULL,
		media_type VARCHAR(20) NOT NULL DEFAULT 'tv',
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		last_scanned TIMESTAMPTZ,
		file_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, path)
	)`,

	// 004: shows
	`CREATE TABLE IF NOT EXISTS shows (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(512) NOT NULL,
		media_type VARCHAR(20) NOT NULL DEFAULT 'tv',
		plex_rating_key VARCHAR(255),
		is_anime BOOLEAN NOT NULL DEFAULT FALSE,
		anime_source VARCHAR(50),
		thumb_url VARCHAR(512),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shows_user_title ON shows(user_id, title)`,
	`CREATE INDEX IF NOT EXISTS idx_shows_user_rating_key ON shows(user_id, plex_rating_key)`,

	// 005: seasons, unique number within a show
	`CREATE TABLE IF NOT EXISTS seasons (
		id UUID PRIMARY KEY,
		show_id UUID NOT NULL REFERENCES shows(id) ON DELETE CASCADE,
		season_number INTEGER NOT NULL,
		UNIQUE (show_id, season_number)
	)`,

	// 006: media files, path unique per user
	`CREATE TABLE IF NOT EXISTS media_files (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		show_id UUID REFERENCES shows(id) ON DELETE SET NULL,
		season_id UUID REFERENCES seasons(id) ON DELETE SET NULL,
		file_path VARCHAR(1024) NOT NULL,
		filename VARCHAR(512) NOT NULL,
		episode_number INTEGER,
		file_size BIGINT NOT NULL DEFAULT 0,
		container_format VARCHAR(50),
		duration_ms BIGINT,
		last_scanned TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_modified TIMESTAMPTZ NOT NULL,
		has_issues BOOLEAN NOT NULL DEFAULT FALSE,
		issue_details TEXT,
		UNIQUE (user_id, file_path)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_media_files_show ON media_files(show_id)`,
	`CREATE INDEX IF NOT EXISTS idx_media_files_issues ON media_files(user_id, has_issues)`,

	// 007: audio tracks, fully replaced on re-analysis
	`CREATE TABLE IF NOT EXISTS audio_tracks (
		id UUID PRIMARY KEY,
		media_file_id UUID NOT NULL REFERENCES media_files(id) ON DELETE CASCADE,
		track_index INTEGER NOT NULL,
		language VARCHAR(50),
		language_raw VARCHAR(100),
		codec VARCHAR(50),
		channels INTEGER,
		channel_layout VARCHAR(50),
		bitrate BIGINT,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		is_forced BOOLEAN NOT NULL DEFAULT FALSE,
		title VARCHAR(255),
		UNIQUE (media_file_id, track_index)
	)`,
}

// Migrate applies pending migrations inside a transaction each.
func Migrate(database *DB) error {
	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := database.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, i+1); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", i+1, err)
		}
		log.Printf("db: applied migration %d", i+1)
	}
	return nil
}
