// Package preferences evaluates a file's audio tracks against the owning
// user's audio preference rules and produces coded issues.
package preferences

import (
	"fmt"
	"sort"
	"strings"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue codes are the stable contract surface; messages are for humans.
const (
	CodeNoAudio           = "NO_AUDIO"
	CodeMissingEnglish    = "MISSING_ENGLISH"
	CodeMissingJapanese   = "MISSING_JAPANESE"
	CodeMissingDualAudio  = "MISSING_DUAL_AUDIO"
	CodeWrongDefaultAnime = "WRONG_DEFAULT_ANIME"
	CodeWrongDefault      = "WRONG_DEFAULT"
	CodeNoPreferredCodec  = "NO_PREFERRED_CODEC"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// AudioPreferences is the immutable rule configuration, resolved per user
// from the settings store before a scan starts.
type AudioPreferences struct {
	RequireEnglishNonAnime        bool     `json:"require_english_non_anime"`
	RequireJapaneseAnime          bool     `json:"require_japanese_anime"`
	RequireDualAudioAnime         bool     `json:"require_dual_audio_anime"`
	CheckDefaultTrack             bool     `json:"check_default_track"`
	PreferredCodecs               []string `json:"preferred_codecs"`
	AutoFixEnglishDefaultNonAnime bool     `json:"auto_fix_english_default_non_anime"`
}

func DefaultAudioPreferences() AudioPreferences {
	return AudioPreferences{
		RequireEnglishNonAnime: true,
		RequireJapaneseAnime:   true,
		RequireDualAudioAnime:  true,
		CheckDefaultTrack:      true,
	}
}

// Track carries the facts the engine cares about: normalized language
// (empty when unknown), the default flag, and the codec name.
type Track struct {
	Language  string
	IsDefault bool
	Codec     string
}

type Engine struct {
	prefs AudioPreferences
}

func NewEngine(prefs AudioPreferences) *Engine {
	return &Engine{prefs: prefs}
}

// Evaluate applies every enabled rule to the track set. A file with no audio
// tracks short-circuits to a single NO_AUDIO error.
func (e *Engine) Evaluate(tracks []Track, isAnime bool) []Issue {
	if len(tracks) == 0 {
		return []Issue{{
			Severity: SeverityError,
			Code:     CodeNoAudio,
			Message:  "No audio tracks found",
		}}
	}

	var issues []Issue

	languages := make(map[string]bool)
	defaultLanguage := ""
	hasDefault := false
	for _, t := range tracks {
		if lang := strings.ToLower(t.Language); lang != "" {
			languages[lang] = true
		}
		if t.IsDefault {
			hasDefault = true
			defaultLanguage = strings.ToLower(t.Language)
		}
	}

	if !isAnime && e.prefs.RequireEnglishNonAnime && !languages["en"] {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeMissingEnglish,
			Message:  "Missing English audio track",
		})
	}

	if isAnime && e.prefs.RequireJapaneseAnime && !languages["ja"] {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     CodeMissingJapanese,
			Message:  "Missing Japanese audio track (anime)",
		})
	}

	if isAnime && e.prefs.RequireDualAudioAnime && !(languages["en"] && languages["ja"]) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeMissingDualAudio,
			Message:  "Missing dual audio (English + Japanese) for anime",
		})
	}

	if e.prefs.CheckDefaultTrack && hasDefault {
		if isAnime {
			if defaultLanguage != "en" && defaultLanguage != "ja" {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Code:     CodeWrongDefaultAnime,
					Message:  fmt.Sprintf("Default audio is %q, expected English or Japanese", defaultLanguage),
				})
			}
		} else if defaultLanguage != "en" && languages["en"] {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Code:     CodeWrongDefault,
				Message:  fmt.Sprintf("Default audio is %q, expected English", defaultLanguage),
			})
		}
	}

	if len(e.prefs.PreferredCodecs) > 0 {
		codecs := make(map[string]bool)
		for _, t := range tracks {
			if c := strings.ToLower(t.Codec); c != "" {
				codecs[c] = true
			}
		}
		found := false
		for _, preferred := range e.prefs.PreferredCodecs {
			if codecs[strings.ToLower(preferred)] {
				found = true
				break
			}
		}
		if len(codecs) > 0 && !found {
			present := make([]string, 0, len(codecs))
			for c := range codecs {
				present = append(present, c)
			}
			sort.Strings(present)
			issues = append(issues, Issue{
				Severity: SeverityInfo,
				Code:     CodeNoPreferredCodec,
				Message:  fmt.Sprintf("No preferred audio codec found (has: %s)", strings.Join(present, ", ")),
			})
		}
	}

	return issues
}

// Summarize joins issue messages for persistence on the media file row.
func Summarize(issues []Issue) string {
	if len(issues) == 0 {
		return ""
	}
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.Message
	}
	return strings.Join(msgs, "; ")
}
