package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackhound/trackhound/internal/preferences"
)

func newSettingsRepo(t *testing.T) (*SettingsRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSettingsRepository(db), mock
}

func TestSettingsGetMissingKey(t *testing.T) {
	repo, mock := newSettingsRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT value FROM user_preferences`).
		WithArgs(userID, PrefAudioPreferences).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	value, err := repo.Get(userID, PrefAudioPreferences)
	require.NoError(t, err)
	assert.Equal(t, "", value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsSetUpserts(t *testing.T) {
	repo, mock := newSettingsRepo(t)
	userID := uuid.New()

	mock.ExpectExec(`INSERT INTO user_preferences`).
		WithArgs(sqlmock.AnyArg(), userID, PrefFileExtensions, `[".mkv"]`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Set(userID, PrefFileExtensions, `[".mkv"]`))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAudioPreferencesFallsBackToDefaults(t *testing.T) {
	repo, mock := newSettingsRepo(t)
	userID := uuid.New()

	// Unset key.
	mock.ExpectQuery(`SELECT value FROM user_preferences`).
		WithArgs(userID, PrefAudioPreferences).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	prefs, err := repo.AudioPreferences(userID)
	require.NoError(t, err)
	assert.Equal(t, preferences.DefaultAudioPreferences(), prefs)

	// Corrupt stored JSON also falls back rather than failing the scan.
	mock.ExpectQuery(`SELECT value FROM user_preferences`).
		WithArgs(userID, PrefAudioPreferences).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("{not json"))

	prefs, err = repo.AudioPreferences(userID)
	require.NoError(t, err)
	assert.Equal(t, preferences.DefaultAudioPreferences(), prefs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAudioPreferencesParsesStoredValue(t *testing.T) {
	repo, mock := newSettingsRepo(t)
	userID := uuid.New()

	stored := `{"require_english_non_anime":false,"preferred_codecs":["truehd"]}`
	mock.ExpectQuery(`SELECT value FROM user_preferences`).
		WithArgs(userID, PrefAudioPreferences).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(stored))

	prefs, err := repo.AudioPreferences(userID)
	require.NoError(t, err)
	assert.False(t, prefs.RequireEnglishNonAnime)
	assert.Equal(t, []string{"truehd"}, prefs.PreferredCodecs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnimeDetectionRoundTrip(t *testing.T) {
	repo, mock := newSettingsRepo(t)
	userID := uuid.New()

	stored := `{"use_plex_genres":false,"anime_folder_keywords":["donghua"]}`
	mock.ExpectQuery(`SELECT value FROM user_preferences`).
		WithArgs(userID, PrefAnimeDetection).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(stored))

	settings, err := repo.AnimeDetection(userID)
	require.NoError(t, err)
	assert.False(t, settings.UsePlexGenres)
	assert.Equal(t, []string{"donghua"}, settings.AnimeFolderKeywords)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileExtensionsDefaults(t *testing.T) {
	repo, mock := newSettingsRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT value FROM user_preferences`).
		WithArgs(userID, PrefFileExtensions).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	exts, err := repo.FileExtensions(userID)
	require.NoError(t, err)
	assert.Equal(t, defaultFileExtensions, exts)

	// An empty stored array is treated as unset.
	mock.ExpectQuery(`SELECT value FROM user_preferences`).
		WithArgs(userID, PrefFileExtensions).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("[]"))

	exts, err = repo.FileExtensions(userID)
	require.NoError(t, err)
	assert.Equal(t, defaultFileExtensions, exts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFileExtensionsStoredList(t *testing.T) {
	repo, mock := newSettingsRepo(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT value FROM user_preferences`).
		WithArgs(userID, PrefFileExtensions).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[".mkv",".webm"]`))

	exts, err := repo.FileExtensions(userID)
	require.NoError(t, err)
	assert.Equal(t, []string{".mkv", ".webm"}, exts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAll(t *testing.T) {
	repo, mock := newSettingsRepo(t)
	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM user_preferences`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteAll(userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
