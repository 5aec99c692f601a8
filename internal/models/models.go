package models

import (
	"time"

	"github.com/google/uuid"
)

// ──────────────────── Enums ────────────────────

type MediaType string

const (
	MediaTypeTV    MediaType = "tv"
	MediaTypeMovie MediaType = "movie"
	MediaTypeAnime MediaType = "anime"
)

// Valid reports whether the value is one of the known media types.
func (t MediaType) Valid() bool {
	switch t {
	case MediaTypeTV, MediaTypeMovie, MediaTypeAnime:
		return true
	}
	return false
}

// AnimeSource records where a show's anime classification came from.
// A manual override is never downgraded by later scans.
type AnimeSource string

const (
	AnimeSourcePlexGenre AnimeSource = "plex_genre"
	AnimeSourceFolder    AnimeSource = "folder"
	AnimeSourceManual    AnimeSource = "manual"
)

// ──────────────────── User ────────────────────

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	PlexUserID   string    `json:"plex_user_id" db:"plex_user_id"`
	PlexUsername string    `json:"plex_username" db:"plex_username"`
	PlexEmail    *string   `json:"plex_email,omitempty" db:"plex_email"`
	// PlexToken is stored encrypted (enc:: prefix); decrypted by auth.TokenCipher.
	PlexToken    string    `json:"-" db:"plex_token"`
	PlexThumbURL *string   `json:"plex_thumb_url,omitempty" db:"plex_thumb_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	LastLogin    time.Time `json:"last_login" db:"last_login"`
}

// ──────────────────── ScanLocation ────────────────────

type ScanLocation struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"-" db:"user_id"`
	Path        string     `json:"path" db:"path"`
	Label       string     `json:"label" db:"label"`
	MediaType   MediaType  `json:"media_type" db:"media_type"`
	Enabled     bool       `json:"enabled" db:"enabled"`
	LastScanned *time.Time `json:"last_scanned,omitempty" db:"last_scanned"`
	FileCount   int        `json:"file_count" db:"file_count"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// ──────────────────── Show / Season ────────────────────

type Show struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	UserID        uuid.UUID    `json:"-" db:"user_id"`
	Title         string       `json:"title" db:"title"`
	MediaType     MediaType    `json:"media_type" db:"media_type"`
	PlexRatingKey *string      `json:"plex_rating_key,omitempty" db:"plex_rating_key"`
	IsAnime       bool         `json:"is_anime" db:"is_anime"`
	AnimeSource   *AnimeSource `json:"anime_source,omitempty" db:"anime_source"`
	ThumbURL      *string      `json:"thumb_url,omitempty" db:"thumb_url"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" db:"updated_at"`
}

type Season struct {
	ID           uuid.UUID `json:"id" db:"id"`
	ShowID       uuid.UUID `json:"show_id" db:"show_id"`
	SeasonNumber int       `json:"season_number" db:"season_number"`
}

// ──────────────────── MediaFile / AudioTrack ────────────────────

type MediaFile struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"-" db:"user_id"`
	ShowID          *uuid.UUID `json:"show_id,omitempty" db:"show_id"`
	SeasonID        *uuid.UUID `json:"season_id,omitempty" db:"season_id"`
	FilePath        string     `json:"file_path" db:"file_path"`
	Filename        string     `json:"filename" db:"filename"`
	EpisodeNumber   *int       `json:"episode_number,omitempty" db:"episode_number"`
	FileSize        int64      `json:"file_size" db:"file_size"`
	ContainerFormat *string    `json:"container_format,omitempty" db:"container_format"`
	DurationMS      *int64     `json:"duration_ms,omitempty" db:"duration_ms"`
	LastScanned     time.Time  `json:"last_scanned" db:"last_scanned"`
	LastModified    time.Time  `json:"last_modified" db:"last_modified"`
	HasIssues       bool       `json:"has_issues" db:"has_issues"`
	IssueDetails    *string    `json:"issue_details,omitempty" db:"issue_details"`
	// Aggregated (not in DB)
	AudioTracks []AudioTrack `json:"audio_tracks,omitempty" db:"-"`
}

type AudioTrack struct {
	ID            uuid.UUID `json:"id" db:"id"`
	MediaFileID   uuid.UUID `json:"-" db:"media_file_id"`
	TrackIndex    int       `json:"track_index" db:"track_index"`
	Language      *string   `json:"language,omitempty" db:"language"`
	LanguageRaw   *string   `json:"language_raw,omitempty" db:"language_raw"`
	Codec         *string   `json:"codec,omitempty" db:"codec"`
	Channels      *int      `json:"channels,omitempty" db:"channels"`
	ChannelLayout *string   `json:"channel_layout,omitempty" db:"channel_layout"`
	Bitrate       *int64    `json:"bitrate,omitempty" db:"bitrate"`
	IsDefault     bool      `json:"is_default" db:"is_default"`
	IsForced      bool      `json:"is_forced" db:"is_forced"`
	Title         *string   `json:"title,omitempty" db:"title"`
}
