package preferences

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Code
	}
	return out
}

func TestEvaluateNoTracks(t *testing.T) {
	engine := NewEngine(DefaultAudioPreferences())

	for _, isAnime := range []bool{false, true} {
		issues := engine.Evaluate(nil, isAnime)
		require.Len(t, issues, 1)
		assert.Equal(t, CodeNoAudio, issues[0].Code)
		assert.Equal(t, SeverityError, issues[0].Severity)
	}
}

func TestEvaluateMissingEnglish(t *testing.T) {
	engine := NewEngine(DefaultAudioPreferences())

	issues := engine.Evaluate([]Track{
		{Language: "ja", IsDefault: true},
	}, false)
	assert.Contains(t, codes(issues), CodeMissingEnglish)

	issues = engine.Evaluate([]Track{
		{Language: "en", IsDefault: true},
	}, false)
	assert.NotContains(t, codes(issues), CodeMissingEnglish)
}

func TestEvaluateAnimeRules(t *testing.T) {
	engine := NewEngine(DefaultAudioPreferences())

	// Japanese-only anime: dual audio missing, japanese present.
	issues := engine.Evaluate([]Track{
		{Language: "ja", IsDefault: true},
	}, true)
	assert.NotContains(t, codes(issues), CodeMissingJapanese)
	assert.Contains(t, codes(issues), CodeMissingDualAudio)

	// English-only anime: both japanese and dual audio fire.
	issues = engine.Evaluate([]Track{
		{Language: "en", IsDefault: true},
	}, true)
	assert.Contains(t, codes(issues), CodeMissingJapanese)
	assert.Contains(t, codes(issues), CodeMissingDualAudio)

	// Dual audio: neither fires.
	issues = engine.Evaluate([]Track{
		{Language: "ja", IsDefault: true},
		{Language: "en"},
	}, true)
	assert.NotContains(t, codes(issues), CodeMissingJapanese)
	assert.NotContains(t, codes(issues), CodeMissingDualAudio)
}

func TestEvaluateWrongDefault(t *testing.T) {
	engine := NewEngine(DefaultAudioPreferences())

	// Default is japanese but english exists on a non-anime file.
	issues := engine.Evaluate([]Track{
		{Language: "ja", IsDefault: true},
		{Language: "en"},
	}, false)
	assert.Contains(t, codes(issues), CodeWrongDefault)
	assert.NotContains(t, codes(issues), CodeMissingEnglish)

	// English default is fine.
	issues = engine.Evaluate([]Track{
		{Language: "en", IsDefault: true},
		{Language: "ja"},
	}, false)
	assert.NotContains(t, codes(issues), CodeWrongDefault)

	// No english track at all: WRONG_DEFAULT does not fire, MISSING_ENGLISH does.
	issues = engine.Evaluate([]Track{
		{Language: "fr", IsDefault: true},
	}, false)
	assert.NotContains(t, codes(issues), CodeWrongDefault)
	assert.Contains(t, codes(issues), CodeMissingEnglish)
}

func TestEvaluateWrongDefaultAnime(t *testing.T) {
	engine := NewEngine(DefaultAudioPreferences())

	issues := engine.Evaluate([]Track{
		{Language: "fr", IsDefault: true},
		{Language: "ja"},
		{Language: "en"},
	}, true)
	assert.Contains(t, codes(issues), CodeWrongDefaultAnime)

	for _, lang := range []string{"en", "ja"} {
		issues = engine.Evaluate([]Track{
			{Language: lang, IsDefault: true},
			{Language: "ja"},
			{Language: "en"},
		}, true)
		assert.NotContains(t, codes(issues), CodeWrongDefaultAnime, "default %s", lang)
	}
}

func TestEvaluateNoDefaultTrack(t *testing.T) {
	engine := NewEngine(DefaultAudioPreferences())

	// Without a default track the default-language checks stay silent.
	issues := engine.Evaluate([]Track{
		{Language: "ja"},
		{Language: "en"},
	}, false)
	assert.NotContains(t, codes(issues), CodeWrongDefault)
}

func TestEvaluatePreferredCodecs(t *testing.T) {
	prefs := DefaultAudioPreferences()
	prefs.PreferredCodecs = []string{"truehd", "dts"}
	engine := NewEngine(prefs)

	issues := engine.Evaluate([]Track{
		{Language: "en", IsDefault: true, Codec: "aac"},
	}, false)
	assert.Contains(t, codes(issues), CodeNoPreferredCodec)

	// Case-insensitive codec comparison.
	issues = engine.Evaluate([]Track{
		{Language: "en", IsDefault: true, Codec: "TrueHD"},
	}, false)
	assert.NotContains(t, codes(issues), CodeNoPreferredCodec)
}

func TestEvaluateDisabledChecks(t *testing.T) {
	engine := NewEngine(AudioPreferences{})

	issues := engine.Evaluate([]Track{
		{Language: "fr", IsDefault: true},
	}, true)
	assert.Empty(t, issues)
}

func TestSummarize(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityError, Code: CodeMissingEnglish, Message: "no English audio track"},
		{Severity: SeverityWarning, Code: CodeWrongDefault, Message: "default track is not English"},
	}
	assert.Equal(t, "no English audio track; default track is not English", Summarize(issues))
	assert.Equal(t, "", Summarize(nil))
}
