package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackhound/trackhound/internal/ffmpeg"
	"github.com/trackhound/trackhound/internal/models"
	"github.com/trackhound/trackhound/internal/preferences"
	"github.com/trackhound/trackhound/internal/repository"
)

// fakeStore keeps everything in maps and counts writes so tests can assert
// the incremental-skip contract.
type fakeStore struct {
	shows   map[uuid.UUID]*models.Show
	seasons map[uuid.UUID]*models.Season
	files   map[string]*models.MediaFile
	tracks  map[uuid.UUID][]*models.AudioTrack
	writes  int
	commits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		shows:   make(map[uuid.UUID]*models.Show),
		seasons: make(map[uuid.UUID]*models.Season),
		files:   make(map[string]*models.MediaFile),
		tracks:  make(map[uuid.UUID][]*models.AudioTrack),
	}
}

func (f *fakeStore) GetShowByRatingKey(userID uuid.UUID, ratingKey string) (*models.Show, error) {
	for _, s := range f.shows {
		if s.UserID == userID && s.PlexRatingKey != nil && *s.PlexRatingKey == ratingKey {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetShowByTitle(userID uuid.UUID, title string) (*models.Show, error) {
	for _, s := range f.shows {
		if s.UserID == userID && s.Title == title {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateShow(show *models.Show) error {
	f.writes++
	f.shows[show.ID] = show
	return nil
}

func (f *fakeStore) UpdateShow(show *models.Show) error {
	f.writes++
	f.shows[show.ID] = show
	return nil
}

func (f *fakeStore) GetSeason(showID uuid.UUID, number int) (*models.Season, error) {
	for _, s := range f.seasons {
		if s.ShowID == showID && s.SeasonNumber == number {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateSeason(season *models.Season) error {
	f.writes++
	f.seasons[season.ID] = season
	return nil
}

func (f *fakeStore) GetFileByPath(userID uuid.UUID, path string) (*models.MediaFile, error) {
	if file, ok := f.files[path]; ok && file.UserID == userID {
		return file, nil
	}
	return nil, nil
}

func (f *fakeStore) CreateFile(file *models.MediaFile) error {
	f.writes++
	f.files[file.FilePath] = file
	return nil
}

func (f *fakeStore) UpdateFile(file *models.MediaFile) error {
	f.writes++
	f.files[file.FilePath] = file
	return nil
}

func (f *fakeStore) DeleteTracks(mediaFileID uuid.UUID) error {
	f.writes++
	delete(f.tracks, mediaFileID)
	return nil
}

func (f *fakeStore) CreateTrack(track *models.AudioTrack) error {
	f.writes++
	f.tracks[track.MediaFileID] = append(f.tracks[track.MediaFileID], track)
	return nil
}

func (f *fakeStore) CountFilesUnder(userID uuid.UUID, pathPrefix string) (int, error) {
	count := 0
	for path, file := range f.files {
		if file.UserID == userID && len(path) >= len(pathPrefix) && path[:len(pathPrefix)] == pathPrefix {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) UpdateLocationStats(id uuid.UUID, scannedAt time.Time, fileCount int) error {
	f.writes++
	return nil
}

func (f *fakeStore) Commit() error {
	f.commits++
	return nil
}

func (f *fakeStore) Rollback() error { return nil }

// testScanner probes with a missing ffprobe binary, so analysis falls back
// to extension guessing with zero audio tracks. Deterministic for tests.
func testScanner(userID uuid.UUID) *Scanner {
	return NewScanner(
		userID,
		ffmpeg.NewAnalyzer(filepath.Join(os.TempDir(), "no-such-ffprobe")),
		ffmpeg.NewRemuxer(filepath.Join(os.TempDir(), "no-such-mkvpropedit")),
		nil,
		preferences.DefaultAudioPreferences(),
		repository.DefaultAnimeDetection(),
	)
}

func writeMediaFile(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("fake media"), 0o644))
	return path
}

func tvLocation(userID uuid.UUID, root string) *models.ScanLocation {
	return &models.ScanLocation{
		ID:        uuid.New(),
		UserID:    userID,
		Path:      root,
		Label:     "TV",
		MediaType: models.MediaTypeTV,
		Enabled:   true,
	}
}

func TestProcessFileCreatesCatalogRows(t *testing.T) {
	userID := uuid.New()
	root := t.TempDir()
	path := writeMediaFile(t, root, "Attack on Titan/Season 01/S01E05.mkv")

	store := newFakeStore()
	sc := testScanner(userID)

	file, err := sc.ProcessFile(context.Background(), store, tvLocation(userID, root), path)
	require.NoError(t, err)

	require.Len(t, store.shows, 1)
	for _, show := range store.shows {
		assert.Equal(t, "Attack on Titan", show.Title)
		assert.False(t, show.IsAnime)
	}
	require.Len(t, store.seasons, 1)
	for _, season := range store.seasons {
		assert.Equal(t, 1, season.SeasonNumber)
	}

	require.NotNil(t, file.EpisodeNumber)
	assert.Equal(t, 5, *file.EpisodeNumber)
	require.NotNil(t, file.ContainerFormat)
	assert.Equal(t, "Matroska", *file.ContainerFormat)

	// ffprobe is unavailable, so the file has no audio tracks and the
	// engine flags it.
	assert.True(t, file.HasIssues)
	require.NotNil(t, file.IssueDetails)
	assert.Contains(t, *file.IssueDetails, "No audio tracks")
}

func TestProcessFileUnchangedIsSkipped(t *testing.T) {
	userID := uuid.New()
	root := t.TempDir()
	path := writeMediaFile(t, root, "Show/Season 01/S01E01.mkv")

	store := newFakeStore()
	sc := testScanner(userID)
	loc := tvLocation(userID, root)

	first, err := sc.ProcessFile(context.Background(), store, loc, path)
	require.NoError(t, err)
	require.Positive(t, store.writes)

	store.writes = 0
	second, err := sc.ProcessFile(context.Background(), store, loc, path)
	require.NoError(t, err)

	assert.Zero(t, store.writes, "unchanged file must not write")
	assert.Same(t, first, second)
}

func TestProcessFileModifiedReplacesTracks(t *testing.T) {
	userID := uuid.New()
	root := t.TempDir()
	path := writeMediaFile(t, root, "Show/Season 01/S01E01.mkv")

	store := newFakeStore()
	sc := testScanner(userID)
	loc := tvLocation(userID, root)

	file, err := sc.ProcessFile(context.Background(), store, loc, path)
	require.NoError(t, err)

	// Simulate a stale track row from the previous analysis.
	lang := "fr"
	store.tracks[file.ID] = []*models.AudioTrack{{
		ID:          uuid.New(),
		MediaFileID: file.ID,
		TrackIndex:  0,
		Language:    &lang,
	}}

	// Advance mtime so the incremental skip does not apply.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	_, err = sc.ProcessFile(context.Background(), store, loc, path)
	require.NoError(t, err)

	// The stale track is gone; the fresh probe found none.
	assert.Empty(t, store.tracks[file.ID])
}

func TestProcessFileMovieHasNoSeason(t *testing.T) {
	userID := uuid.New()
	root := t.TempDir()
	path := writeMediaFile(t, root, "Inception (2010)/Inception.mkv")

	store := newFakeStore()
	sc := testScanner(userID)
	loc := tvLocation(userID, root)
	loc.MediaType = models.MediaTypeMovie

	file, err := sc.ProcessFile(context.Background(), store, loc, path)
	require.NoError(t, err)

	assert.Nil(t, file.SeasonID)
	assert.Empty(t, store.seasons)
	for _, show := range store.shows {
		assert.Equal(t, "Inception (2010)", show.Title)
	}
}

func TestProcessFileAnimeLocation(t *testing.T) {
	userID := uuid.New()
	root := t.TempDir()
	path := writeMediaFile(t, root, "Frieren/Season 01/S01E01.mkv")

	store := newFakeStore()
	sc := testScanner(userID)
	loc := tvLocation(userID, root)
	loc.MediaType = models.MediaTypeAnime

	_, err := sc.ProcessFile(context.Background(), store, loc, path)
	require.NoError(t, err)

	for _, show := range store.shows {
		assert.True(t, show.IsAnime)
		assert.Equal(t, models.MediaTypeAnime, show.MediaType)
	}
}

func TestProcessFileReusesShowAcrossFiles(t *testing.T) {
	userID := uuid.New()
	root := t.TempDir()
	first := writeMediaFile(t, root, "Show/Season 01/S01E01.mkv")
	second := writeMediaFile(t, root, "Show/Season 01/S01E02.mkv")

	store := newFakeStore()
	sc := testScanner(userID)
	loc := tvLocation(userID, root)

	_, err := sc.ProcessFile(context.Background(), store, loc, first)
	require.NoError(t, err)
	_, err = sc.ProcessFile(context.Background(), store, loc, second)
	require.NoError(t, err)

	assert.Len(t, store.shows, 1)
	assert.Len(t, store.seasons, 1)
	assert.Len(t, store.files, 2)
}

func TestProcessFileMissingFile(t *testing.T) {
	userID := uuid.New()
	root := t.TempDir()

	store := newFakeStore()
	sc := testScanner(userID)

	_, err := sc.ProcessFile(context.Background(), store, tvLocation(userID, root),
		filepath.Join(root, "gone.mkv"))
	assert.Error(t, err)
}
