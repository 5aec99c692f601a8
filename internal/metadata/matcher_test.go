package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	shows   []PlexShow
	err     error
	fetches int
}

func (f *fakeProvider) FetchShows(ctx context.Context) ([]PlexShow, error) {
	f.fetches++
	return f.shows, f.err
}

func catalog() []PlexShow {
	return []PlexShow{
		{
			RatingKey: "100",
			Title:     "Attack on Titan",
			Genres:    []string{"Anime", "Action"},
			IsAnime:   true,
			EpisodePaths: []string{
				`/data/Anime/Attack on Titan/Season 01/S01E05.mkv`,
			},
		},
		{
			RatingKey:     "200",
			Title:         "My Hero Academia (2016)",
			OriginalTitle: "Boku no Hero Academia",
			IsAnime:       true,
		},
		{
			RatingKey: "300",
			Title:     "The Office: An American Workplace",
		},
	}
}

func TestFindShowByRatingKey(t *testing.T) {
	m := NewMatcher(&fakeProvider{shows: catalog()})
	ctx := context.Background()

	show := m.FindShowByRatingKey(ctx, "100")
	require.NotNil(t, show)
	assert.Equal(t, "Attack on Titan", show.Title)

	assert.Nil(t, m.FindShowByRatingKey(ctx, "999"))
	assert.Nil(t, m.FindShowByRatingKey(ctx, ""))
}

func TestFindShowByFileExactPath(t *testing.T) {
	m := NewMatcher(&fakeProvider{shows: catalog()})

	// Case and slash direction are normalized.
	show := m.FindShowByFile(context.Background(), `\data\anime\attack on titan\season 01\s01e05.MKV`)
	require.NotNil(t, show)
	assert.Equal(t, "100", show.RatingKey)
}

func TestFindShowByFileDifferentMountRoot(t *testing.T) {
	m := NewMatcher(&fakeProvider{shows: catalog()})

	// Same filename and parent folder, different root.
	show := m.FindShowByFile(context.Background(), "/mnt/media/Attack on Titan/Season 01/S01E05.mkv")
	require.NotNil(t, show)
	assert.Equal(t, "100", show.RatingKey)

	assert.Nil(t, m.FindShowByFile(context.Background(), "/mnt/media/Other/Season 01/S09E99.mkv"))
}

func TestFindShowTitleVariants(t *testing.T) {
	m := NewMatcher(&fakeProvider{shows: catalog()})
	ctx := context.Background()

	// Year suffix stripped.
	show := m.FindShow(ctx, "My Hero Academia")
	require.NotNil(t, show)
	assert.Equal(t, "200", show.RatingKey)

	// Original title matches too.
	show = m.FindShow(ctx, "Boku no Hero Academia")
	require.NotNil(t, show)
	assert.Equal(t, "200", show.RatingKey)

	// Subtitle truncation at ":".
	show = m.FindShow(ctx, "The Office")
	require.NotNil(t, show)
	assert.Equal(t, "300", show.RatingKey)
}

func TestFindShowFuzzy(t *testing.T) {
	m := NewMatcher(&fakeProvider{shows: catalog()})
	ctx := context.Background()

	// Small drift still lands above the threshold.
	show := m.FindShow(ctx, "attack on titan!")
	require.NotNil(t, show)
	assert.Equal(t, "100", show.RatingKey)

	// Nothing close enough.
	assert.Nil(t, m.FindShow(ctx, "completely unrelated series"))
	assert.Nil(t, m.FindShow(ctx, ""))
}

func TestFindShowByPathOrTitle(t *testing.T) {
	m := NewMatcher(&fakeProvider{shows: catalog()})
	ctx := context.Background()

	// Path miss, folder name hit.
	show := m.FindShowByPathOrTitle(ctx, "/library/My Hero Academia (2016)/Season 01/ep1.mkv", "wrong hint")
	require.NotNil(t, show)
	assert.Equal(t, "200", show.RatingKey)

	// Path and folder miss, hint hit.
	show = m.FindShowByPathOrTitle(ctx, "/library/Unknown Folder/ep1.mkv", "Attack on Titan")
	require.NotNil(t, show)
	assert.Equal(t, "100", show.RatingKey)
}

func TestCatalogFetchedOnce(t *testing.T) {
	provider := &fakeProvider{shows: catalog()}
	m := NewMatcher(provider)
	ctx := context.Background()

	m.FindShow(ctx, "Attack on Titan")
	m.FindShow(ctx, "The Office")
	m.FindShowByFile(ctx, "/x/y.mkv")
	assert.Equal(t, 1, provider.fetches)
}

func TestProviderFailureDegradesToNoMatch(t *testing.T) {
	provider := &fakeProvider{err: errors.New("server unreachable")}
	m := NewMatcher(provider)
	ctx := context.Background()

	assert.Nil(t, m.FindShow(ctx, "Attack on Titan"))
	assert.Nil(t, m.FindShowByFile(ctx, "/x/y.mkv"))
	// Failure is remembered; no per-lookup retries.
	assert.Equal(t, 1, provider.fetches)
}

func TestTitleSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, titleSimilarity("Attack on Titan", "attack on titan"))
	assert.Less(t, titleSimilarity("Attack on Titan", "Breaking Bad"), fuzzyThreshold)

	// A close variant scores higher than an unrelated title.
	near := titleSimilarity("Attack on Titan", "Attack on Titans")
	far := titleSimilarity("Attack on Titan", "Breaking Bad")
	assert.Greater(t, near, far)
}
