package scanner

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/models"
	"github.com/trackhound/trackhound/internal/repository"
)

// Store is the transactional persistence surface the scanner writes
// through. One Store is one open transaction; the runner commits every
// batch and opens a fresh one.
type Store interface {
	GetShowByRatingKey(userID uuid.UUID, ratingKey string) (*models.Show, error)
	GetShowByTitle(userID uuid.UUID, title string) (*models.Show, error)
	CreateShow(show *models.Show) error
	UpdateShow(show *models.Show) error

	GetSeason(showID uuid.UUID, number int) (*models.Season, error)
	CreateSeason(season *models.Season) error

	GetFileByPath(userID uuid.UUID, path string) (*models.MediaFile, error)
	CreateFile(file *models.MediaFile) error
	UpdateFile(file *models.MediaFile) error
	DeleteTracks(mediaFileID uuid.UUID) error
	CreateTrack(track *models.AudioTrack) error
	CountFilesUnder(userID uuid.UUID, pathPrefix string) (int, error)

	UpdateLocationStats(id uuid.UUID, scannedAt time.Time, fileCount int) error

	Commit() error
	Rollback() error
}

type sqlStore struct {
	tx        *sql.Tx
	shows     *repository.ShowRepository
	media     *repository.MediaRepository
	locations *repository.LocationRepository
}

// NewSQLStore begins a transaction and binds the repositories to it.
func NewSQLStore(db *sql.DB) (Store, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	return &sqlStore{
		tx:        tx,
		shows:     repository.NewShowRepository(tx),
		media:     repository.NewMediaRepository(tx),
		locations: repository.NewLocationRepository(tx),
	}, nil
}

func (s *sqlStore) GetShowByRatingKey(userID uuid.UUID, ratingKey string) (*models.Show, error) {
	return s.shows.GetByRatingKey(userID, ratingKey)
}

func (s *sqlStore) GetShowByTitle(userID uuid.UUID, title string) (*models.Show, error) {
	return s.shows.GetByTitle(userID, title)
}

func (s *sqlStore) CreateShow(show *models.Show) error { return s.shows.Create(show) }
func (s *sqlStore) UpdateShow(show *models.Show) error { return s.shows.Update(show) }

func (s *sqlStore) GetSeason(showID uuid.UUID, number int) (*models.Season, error) {
	return s.shows.GetSeason(showID, number)
}

func (s *sqlStore) CreateSeason(season *models.Season) error { return s.shows.CreateSeason(season) }

func (s *sqlStore) GetFileByPath(userID uuid.UUID, path string) (*models.MediaFile, error) {
	return s.media.GetByPath(userID, path)
}

func (s *sqlStore) CreateFile(file *models.MediaFile) error { return s.media.Create(file) }
func (s *sqlStore) UpdateFile(file *models.MediaFile) error { return s.media.Update(file) }

func (s *sqlStore) DeleteTracks(mediaFileID uuid.UUID) error {
	return s.media.DeleteTracks(mediaFileID)
}

func (s *sqlStore) CreateTrack(track *models.AudioTrack) error { return s.media.CreateTrack(track) }

func (s *sqlStore) CountFilesUnder(userID uuid.UUID, pathPrefix string) (int, error) {
	return s.media.CountUnder(userID, pathPrefix)
}

func (s *sqlStore) UpdateLocationStats(id uuid.UUID, scannedAt time.Time, fileCount int) error {
	return s.locations.UpdateStats(id, scannedAt, fileCount)
}

func (s *sqlStore) Commit() error   { return s.tx.Commit() }
func (s *sqlStore) Rollback() error { return s.tx.Rollback() }
