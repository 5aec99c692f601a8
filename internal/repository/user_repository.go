package repository

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/models"
)

type UserRepository struct {
	q Querier
}

func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{q: q}
}

const userColumns = `id, plex_user_id, plex_username, plex_email, plex_token, plex_thumb_url, created_at, last_login`

func scanUser(row interface{ Scan(dest ...interface{}) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.PlexUserID, &u.PlexUsername, &u.PlexEmail,
		&u.PlexToken, &u.PlexThumbURL, &u.CreatedAt, &u.LastLogin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	row := r.q.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByPlexUserID(plexUserID string) (*models.User, error) {
	row := r.q.QueryRow(`SELECT `+userColumns+` FROM users WHERE plex_user_id = $1`, plexUserID)
	return scanUser(row)
}

func (r *UserRepository) Create(u *models.User) error {
	query := `INSERT INTO users (id, plex_user_id, plex_username, plex_email, plex_token, plex_thumb_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, last_login`
	return r.q.QueryRow(query, u.ID, u.PlexUserID, u.PlexUsername, u.PlexEmail,
		u.PlexToken, u.PlexThumbURL).Scan(&u.CreatedAt, &u.LastLogin)
}

// UpdateLogin refreshes the profile fields and token on a successful login.
func (r *UserRepository) UpdateLogin(u *models.User) error {
	query := `UPDATE users SET plex_username = $2, plex_email = $3, plex_token = $4,
		plex_thumb_url = $5, last_login = CURRENT_TIMESTAMP WHERE id = $1
		RETURNING last_login`
	return r.q.QueryRow(query, u.ID, u.PlexUsername, u.PlexEmail, u.PlexToken,
		u.PlexThumbURL).Scan(&u.LastLogin)
}

func (r *UserRepository) List() ([]*models.User, error) {
	rows, err := r.q.Query(`SELECT ` + userColumns + ` FROM users ORDER BY plex_username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
