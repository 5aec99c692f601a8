package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/models"
)

type MediaRepository struct {
	q Querier
}

func NewMediaRepository(q Querier) *MediaRepository {
	return &MediaRepository{q: q}
}

const mediaColumns = `id, user_id, show_id, season_id, file_path, filename, episode_number,
	file_size, container_format, duration_ms, last_scanned, last_modified, has_issues, issue_details`

func scanMediaFile(row interface{ Scan(dest ...interface{}) error }) (*models.MediaFile, error) {
	f := &models.MediaFile{}
	err := row.Scan(&f.ID, &f.UserID, &f.ShowID, &f.SeasonID, &f.FilePath, &f.Filename,
		&f.EpisodeNumber, &f.FileSize, &f.ContainerFormat, &f.DurationMS,
		&f.LastScanned, &f.LastModified, &f.HasIssues, &f.IssueDetails)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *MediaRepository) GetByID(userID, id uuid.UUID) (*models.MediaFile, error) {
	row := r.q.QueryRow(`SELECT `+mediaColumns+` FROM media_files WHERE id = $1 AND user_id = $2`, id, userID)
	return scanMediaFile(row)
}

func (r *MediaRepository) GetByPath(userID uuid.UUID, path string) (*models.MediaFile, error) {
	row := r.q.QueryRow(`SELECT `+mediaColumns+` FROM media_files WHERE user_id = $1 AND file_path = $2`, userID, path)
	return scanMediaFile(row)
}

func (r *MediaRepository) Create(f *models.MediaFile) error {
	query := `INSERT INTO media_files (id, user_id, show_id, season_id, file_path, filename,
		episode_number, file_size, container_format, duration_ms, last_scanned, last_modified,
		has_issues, issue_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(query, f.ID, f.UserID, f.ShowID, f.SeasonID, f.FilePath, f.Filename,
		f.EpisodeNumber, f.FileSize, f.ContainerFormat, f.DurationMS, f.LastScanned,
		f.LastModified, f.HasIssues, f.IssueDetails)
	return err
}

func (r *MediaRepository) Update(f *models.MediaFile) error {
	query := `UPDATE media_files SET show_id = $2, season_id = $3, filename = $4,
		episode_number = $5, file_size = $6, container_format = $7, duration_ms = $8,
		last_scanned = $9, last_modified = $10, has_issues = $11, issue_details = $12
		WHERE id = $1`
	_, err := r.q.Exec(query, f.ID, f.ShowID, f.SeasonID, f.Filename, f.EpisodeNumber,
		f.FileSize, f.ContainerFormat, f.DurationMS, f.LastScanned, f.LastModified,
		f.HasIssues, f.IssueDetails)
	return err
}

// CountUnder counts persisted files whose path falls under the given
// location prefix, for location statistics after a sweep.
func (r *MediaRepository) CountUnder(userID uuid.UUID, pathPrefix string) (int, error) {
	var n int
	err := r.q.QueryRow(`SELECT COUNT(*) FROM media_files WHERE user_id = $1 AND file_path LIKE $2`,
		userID, pathPrefix+"%").Scan(&n)
	return n, err
}

// ──────────────────── Audio tracks ────────────────────

// DeleteTracks drops every audio track for a file ahead of a full re-insert.
// Tracks are never patched individually.
func (r *MediaRepository) DeleteTracks(mediaFileID uuid.UUID) error {
	_, err := r.q.Exec(`DELETE FROM audio_tracks WHERE media_file_id = $1`, mediaFileID)
	return err
}

func (r *MediaRepository) CreateTrack(t *models.AudioTrack) error {
	query := `INSERT INTO audio_tracks (id, media_file_id, track_index, language, language_raw,
		codec, channels, channel_layout, bitrate, is_default, is_forced, title)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(query, t.ID, t.MediaFileID, t.TrackIndex, t.Language, t.LanguageRaw,
		t.Codec, t.Channels, t.ChannelLayout, t.Bitrate, t.IsDefault, t.IsForced, t.Title)
	return err
}

func (r *MediaRepository) ListTracks(mediaFileID uuid.UUID) ([]models.AudioTrack, error) {
	rows, err := r.q.Query(`SELECT id, media_file_id, track_index, language, language_raw,
		codec, channels, channel_layout, bitrate, is_default, is_forced, title
		FROM audio_tracks WHERE media_file_id = $1 ORDER BY track_index`, mediaFileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []models.AudioTrack
	for rows.Next() {
		var t models.AudioTrack
		err := rows.Scan(&t.ID, &t.MediaFileID, &t.TrackIndex, &t.Language, &t.LanguageRaw,
			&t.Codec, &t.Channels, &t.ChannelLayout, &t.Bitrate, &t.IsDefault, &t.IsForced, &t.Title)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// ──────────────────── Listing / stats ────────────────────

type FileFilter struct {
	ShowID    *uuid.UUID
	SeasonID  *uuid.UUID
	HasIssues *bool
	Page      int
	PageSize  int
}

func (r *MediaRepository) ListFiltered(userID uuid.UUID, f FileFilter) ([]*models.MediaFile, int, error) {
	where := `user_id = $1`
	args := []interface{}{userID}

	if f.ShowID != nil {
		args = append(args, *f.ShowID)
		where += ` AND show_id = $` + itoa(len(args))
	}
	if f.SeasonID != nil {
		args = append(args, *f.SeasonID)
		where += ` AND season_id = $` + itoa(len(args))
	}
	if f.HasIssues != nil {
		args = append(args, *f.HasIssues)
		where += ` AND has_issues = $` + itoa(len(args))
	}

	var total int
	if err := r.q.QueryRow(`SELECT COUNT(*) FROM media_files WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	query := `SELECT ` + mediaColumns + ` FROM media_files WHERE ` + where +
		` ORDER BY file_path LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var files []*models.MediaFile
	for rows.Next() {
		file, err := scanMediaFile(rows)
		if err != nil {
			return nil, 0, err
		}
		files = append(files, file)
	}
	return files, total, rows.Err()
}

type DashboardStats struct {
	TotalShows          int `json:"total_shows"`
	TotalEpisodes       int `json:"total_episodes"`
	TotalFilesWithIssue int `json:"total_files_with_issues"`
	AnimeCount          int `json:"anime_count"`
	NonAnimeCount       int `json:"non_anime_count"`
}

func (r *MediaRepository) Stats(userID uuid.UUID) (*DashboardStats, error) {
	stats := &DashboardStats{}
	err := r.q.QueryRow(`SELECT
		(SELECT COUNT(*) FROM shows WHERE user_id = $1),
		(SELECT COUNT(*) FROM media_files WHERE user_id = $1 AND season_id IS NOT NULL),
		(SELECT COUNT(*) FROM media_files WHERE user_id = $1 AND has_issues),
		(SELECT COUNT(*) FROM shows WHERE user_id = $1 AND is_anime)`,
		userID,
	).Scan(&stats.TotalShows, &stats.TotalEpisodes, &stats.TotalFilesWithIssue, &stats.AnimeCount)
	if err != nil {
		return nil, err
	}
	stats.NonAnimeCount = stats.TotalShows - stats.AnimeCount
	return stats, nil
}
