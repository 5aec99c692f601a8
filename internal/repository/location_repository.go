package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/models"
)

type LocationRepository struct {
	q Querier
}

func NewLocationRepository(q Querier) *LocationRepository {
	return &LocationRepository{q: q}
}

const locationColumns = `id, user_id, path, label, media_type, enabled, last_scanned, file_count, created_at`

func scanLocation(row interface{ Scan(dest ...interface{}) error }) (*models.ScanLocation, error) {
	loc := &models.ScanLocation{}
	err := row.Scan(&loc.ID, &loc.UserID, &loc.Path, &loc.Label, &loc.MediaType,
		&loc.Enabled, &loc.LastScanned, &loc.FileCount, &loc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func (r *LocationRepository) GetByID(userID, id uuid.UUID) (*models.ScanLocation, error) {
	row := r.q.QueryRow(`SELECT `+locationColumns+` FROM scan_locations WHERE id = $1 AND user_id = $2`, id, userID)
	return scanLocation(row)
}

func (r *LocationRepository) GetByPath(userID uuid.UUID, path string) (*models.ScanLocation, error) {
	row := r.q.QueryRow(`SELECT `+locationColumns+` FROM scan_locations WHERE user_id = $1 AND path = $2`, userID, path)
	return scanLocation(row)
}

func (r *LocationRepository) ListByUser(userID uuid.UUID) ([]*models.ScanLocation, error) {
	rows, err := r.q.Query(`SELECT `+locationColumns+` FROM scan_locations WHERE user_id = $1 ORDER BY label`, userID)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

// ListEnabled returns every enabled location across all users, for the
// watcher and the scheduler.
func (r *LocationRepository) ListEnabled() ([]*models.ScanLocation, error) {
	rows, err := r.q.Query(`SELECT ` + locationColumns + ` FROM scan_locations WHERE enabled = TRUE ORDER BY user_id, label`)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

func (r *LocationRepository) ListEnabledByUser(userID uuid.UUID) ([]*models.ScanLocation, error) {
	rows, err := r.q.Query(`SELECT `+locationColumns+` FROM scan_locations WHERE user_id = $1 AND enabled = TRUE ORDER BY label`, userID)
	if err != nil {
		return nil, err
	}
	return collectLocations(rows)
}

func collectLocations(rows *sql.Rows) ([]*models.ScanLocation, error) {
	defer rows.Close()
	var locations []*models.ScanLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

func (r *LocationRepository) Create(loc *models.ScanLocation) error {
	query := `INSERT INTO scan_locations (id, user_id, path, label, media_type, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	return r.q.QueryRow(query, loc.ID, loc.UserID, loc.Path, loc.Label,
		loc.MediaType, loc.Enabled).Scan(&loc.CreatedAt)
}

func (r *LocationRepository) Update(loc *models.ScanLocation) error {
	_, err := r.q.Exec(`UPDATE scan_locations SET label = $3, media_type = $4, enabled = $5
		WHERE id = $1 AND user_id = $2`,
		loc.ID, loc.UserID, loc.Label, loc.MediaType, loc.Enabled)
	return err
}

// UpdateStats records the completion of a sweep over this location.
func (r *LocationRepository) UpdateStats(id uuid.UUID, scannedAt time.Time, fileCount int) error {
	_, err := r.q.Exec(`UPDATE scan_locations SET last_scanned = $2, file_count = $3 WHERE id = $1`,
		id, scannedAt, fileCount)
	return err
}

func (r *LocationRepository) Delete(userID, id uuid.UUID) (bool, error) {
	res, err := r.q.Exec(`DELETE FROM scan_locations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
