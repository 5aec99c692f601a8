package repository

import (
	"database/sql"
	"strconv"

	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/models"
)

type ShowRepository struct {
	q Querier
}

func NewShowRepository(q Querier) *ShowRepository {
	return &ShowRepository{q: q}
}

const showColumns = `id, user_id, title, media_type, plex_rating_key, is_anime, anime_source, thumb_url, created_at, updated_at`

func scanShow(row interface{ Scan(dest ...interface{}) error }) (*models.Show, error) {
	s := &models.Show{}
	var animeSource sql.NullString
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.MediaType, &s.PlexRatingKey,
		&s.IsAnime, &animeSource, &s.ThumbURL, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if animeSource.Valid {
		src := models.AnimeSource(animeSource.String)
		s.AnimeSource = &src
	}
	return s, nil
}

func (r *ShowRepository) GetByID(userID, id uuid.UUID) (*models.Show, error) {
	row := r.q.QueryRow(`SELECT `+showColumns+` FROM shows WHERE id = $1 AND user_id = $2`, id, userID)
	return scanShow(row)
}

func (r *ShowRepository) GetByRatingKey(userID uuid.UUID, ratingKey string) (*models.Show, error) {
	row := r.q.QueryRow(`SELECT `+showColumns+` FROM shows WHERE user_id = $1 AND plex_rating_key = $2`, userID, ratingKey)
	return scanShow(row)
}

func (r *ShowRepository) GetByTitle(userID uuid.UUID, title string) (*models.Show, error) {
	row := r.q.QueryRow(`SELECT `+showColumns+` FROM shows WHERE user_id = $1 AND title = $2`, userID, title)
	return scanShow(row)
}

func (r *ShowRepository) Create(s *models.Show) error {
	query := `INSERT INTO shows (id, user_id, title, media_type, plex_rating_key, is_anime, anime_source, thumb_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`
	return r.q.QueryRow(query, s.ID, s.UserID, s.Title, s.MediaType,
		s.PlexRatingKey, s.IsAnime, animeSourceValue(s.AnimeSource), s.ThumbURL,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *ShowRepository) Update(s *models.Show) error {
	_, err := r.q.Exec(`UPDATE shows SET title = $2, media_type = $3, plex_rating_key = $4,
		is_anime = $5, anime_source = $6, thumb_url = $7, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		s.ID, s.Title, s.MediaType, s.PlexRatingKey, s.IsAnime,
		animeSourceValue(s.AnimeSource), s.ThumbURL)
	return err
}

func animeSourceValue(src *models.AnimeSource) interface{} {
	if src == nil {
		return nil
	}
	return string(*src)
}

// ──────────────────── Seasons ────────────────────

func (r *ShowRepository) GetSeason(showID uuid.UUID, number int) (*models.Season, error) {
	season := &models.Season{}
	err := r.q.QueryRow(`SELECT id, show_id, season_number FROM seasons
		WHERE show_id = $1 AND season_number = $2`, showID, number,
	).Scan(&season.ID, &season.ShowID, &season.SeasonNumber)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return season, nil
}

func (r *ShowRepository) CreateSeason(season *models.Season) error {
	_, err := r.q.Exec(`INSERT INTO seasons (id, show_id, season_number) VALUES ($1, $2, $3)`,
		season.ID, season.ShowID, season.SeasonNumber)
	return err
}

func (r *ShowRepository) ListSeasons(showID uuid.UUID) ([]*models.Season, error) {
	rows, err := r.q.Query(`SELECT id, show_id, season_number FROM seasons
		WHERE show_id = $1 ORDER BY season_number`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seasons []*models.Season
	for rows.Next() {
		season := &models.Season{}
		if err := rows.Scan(&season.ID, &season.ShowID, &season.SeasonNumber); err != nil {
			return nil, err
		}
		seasons = append(seasons, season)
	}
	return seasons, rows.Err()
}

// ──────────────────── Listing / stats ────────────────────

type ShowFilter struct {
	IsAnime   *bool
	HasIssues *bool
	Search    string
	Page      int
	PageSize  int
}

type ShowWithCounts struct {
	models.Show
	SeasonCount  int `json:"season_count"`
	EpisodeCount int `json:"episode_count"`
	IssueCount   int `json:"issue_count"`
}

// ListFiltered returns a page of shows plus the unpaginated total.
func (r *ShowRepository) ListFiltered(userID uuid.UUID, f ShowFilter) ([]*ShowWithCounts, int, error) {
	where := `s.user_id = $1`
	args := []interface{}{userID}

	if f.IsAnime != nil {
		args = append(args, *f.IsAnime)
		where += ` AND s.is_anime = $` + itoa(len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += ` AND s.title ILIKE $` + itoa(len(args))
	}
	if f.HasIssues != nil {
		args = append(args, *f.HasIssues)
		where += ` AND EXISTS (SELECT 1 FROM media_files mf WHERE mf.show_id = s.id AND mf.has_issues = $` + itoa(len(args)) + `)`
	}

	var total int
	if err := r.q.QueryRow(`SELECT COUNT(*) FROM shows s WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)
	query := `SELECT ` + prefixedShowColumns + `,
		(SELECT COUNT(*) FROM seasons se WHERE se.show_id = s.id),
		(SELECT COUNT(*) FROM media_files mf WHERE mf.show_id = s.id),
		(SELECT COUNT(*) FROM media_files mf WHERE mf.show_id = s.id AND mf.has_issues)
		FROM shows s WHERE ` + where + `
		ORDER BY s.title LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := r.q.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var shows []*ShowWithCounts
	for rows.Next() {
		sc := &ShowWithCounts{}
		var animeSource sql.NullString
		err := rows.Scan(&sc.ID, &sc.UserID, &sc.Title, &sc.MediaType, &sc.PlexRatingKey,
			&sc.IsAnime, &animeSource, &sc.ThumbURL, &sc.CreatedAt, &sc.UpdatedAt,
			&sc.SeasonCount, &sc.EpisodeCount, &sc.IssueCount)
		if err != nil {
			return nil, 0, err
		}
		if animeSource.Valid {
			src := models.AnimeSource(animeSource.String)
			sc.AnimeSource = &src
		}
		shows = append(shows, sc)
	}
	return shows, total, rows.Err()
}

const prefixedShowColumns = `s.id, s.user_id, s.title, s.media_type, s.plex_rating_key, s.is_anime, s.anime_source, s.thumb_url, s.created_at, s.updated_at`

func itoa(n int) string { return strconv.Itoa(n) }
