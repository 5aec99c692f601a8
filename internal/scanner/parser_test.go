package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEpisodePathSeasonFolder(t *testing.T) {
	parsed := ParseEpisodePath("Attack on Titan/Season 01/S01E05 - Title.mkv")
	assert.Equal(t, "Attack on Titan", parsed.Title)
	assert.Equal(t, 1, parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 5, *parsed.Episode)
}

func TestParseEpisodePathMarkerInFolder(t *testing.T) {
	parsed := ParseEpisodePath("Breaking Bad/S02E03.mkv")
	assert.Equal(t, "Breaking Bad", parsed.Title)
	assert.Equal(t, 2, parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 3, *parsed.Episode)
}

func TestParseEpisodePathDashMarker(t *testing.T) {
	parsed := ParseEpisodePath("Cowboy Bebop - S01E13.mkv")
	assert.Equal(t, "Cowboy Bebop", parsed.Title)
	assert.Equal(t, 1, parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 13, *parsed.Episode)
}

func TestParseEpisodePathMultiEpisodeFile(t *testing.T) {
	// Double-episode files record the first episode of the span.
	parsed := ParseEpisodePath("Show/Season 01/S01E05-E06.mkv")
	assert.Equal(t, "Show", parsed.Title)
	assert.Equal(t, 1, parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 5, *parsed.Episode)
}

func TestParseEpisodePathFallback(t *testing.T) {
	parsed := ParseEpisodePath("Some Documentary/part one.mkv")
	assert.Equal(t, "Some Documentary", parsed.Title)
	assert.Equal(t, 1, parsed.Season)
	assert.Nil(t, parsed.Episode)
}

func TestParseEpisodePathBareFile(t *testing.T) {
	parsed := ParseEpisodePath("oneoff special.mkv")
	assert.Equal(t, "oneoff special", parsed.Title)
	assert.Equal(t, 1, parsed.Season)
	assert.Nil(t, parsed.Episode)
}

func TestParseEpisodePathDotsAndCase(t *testing.T) {
	parsed := ParseEpisodePath("The.Wire/season 3/the.wire.s03e11.mkv")
	assert.Equal(t, "The Wire", parsed.Title)
	assert.Equal(t, 3, parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 11, *parsed.Episode)
}

func TestParseEpisodePathPatternOrder(t *testing.T) {
	// A season folder wins over the episode marker inside the filename.
	parsed := ParseEpisodePath("Show/Season 02/Show S05E09.mkv")
	assert.Equal(t, "Show", parsed.Title)
	assert.Equal(t, 2, parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 9, *parsed.Episode)
}

func TestParseMoviePathParentFolder(t *testing.T) {
	// The parent folder names the movie; no year stripping here.
	parsed := ParseMoviePath("Inception (2010)/Inception.mkv")
	assert.Equal(t, "Inception (2010)", parsed.Title)
	assert.Nil(t, parsed.Episode)
}

func TestParseMoviePathBareFile(t *testing.T) {
	parsed := ParseMoviePath("The.Matrix.1999.mkv")
	assert.Equal(t, "The Matrix 1999", parsed.Title)
}

func TestParseMoviePathNestedFolder(t *testing.T) {
	parsed := ParseMoviePath("Inception (2010)/extras/behind the scenes.mkv")
	assert.Equal(t, "extras", parsed.Title)
}

func TestParseBackslashPaths(t *testing.T) {
	parsed := ParseEpisodePath(`Attack on Titan\Season 01\S01E05.mkv`)
	assert.Equal(t, "Attack on Titan", parsed.Title)
	assert.Equal(t, 1, parsed.Season)
	require.NotNil(t, parsed.Episode)
	assert.Equal(t, 5, *parsed.Episode)
}
