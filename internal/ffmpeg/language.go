package ffmpeg

import (
	"fmt"
	"strings"
)

// languageMap folds ISO 639-2 codes and full language names down to
// ISO 639-1. "und" maps to empty (unknown).
var languageMap = map[string]string{
	// ISO 639-2 → ISO 639-1
	"eng": "en",
	"jpn": "ja",
	"ger": "de",
	"deu": "de",
	"fre": "fr",
	"fra": "fr",
	"spa": "es",
	"ita": "it",
	"por": "pt",
	"rus": "ru",
	"chi": "zh",
	"zho": "zh",
	"kor": "ko",
	"ara": "ar",
	"hin": "hi",
	"pol": "pl",
	"dut": "nl",
	"nld": "nl",
	"swe": "sv",
	"nor": "no",
	"dan": "da",
	"fin": "fi",
	"tur": "tr",
	"heb": "he",
	"tha": "th",
	"vie": "vi",
	"ind": "id",
	"msa": "ms",
	"fil": "tl",
	"und": "",
	// Full names
	"english":    "en",
	"japanese":   "ja",
	"german":     "de",
	"french":     "fr",
	"spanish":    "es",
	"italian":    "it",
	"portuguese": "pt",
	"russian":    "ru",
	"chinese":    "zh",
	"korean":     "ko",
	"arabic":     "ar",
	"hindi":      "hi",
}

// NormalizeLanguage folds a raw language tag to ISO 639-1. Unrecognized
// 2-letter codes pass through unchanged; "und" and empty return "".
func NormalizeLanguage(raw string) string {
	code := strings.ToLower(strings.TrimSpace(raw))
	if code == "" {
		return ""
	}
	if len(code) == 2 && code != "un" {
		return code
	}
	if mapped, ok := languageMap[code]; ok {
		return mapped
	}
	// Might still be a regioned ISO 639-1 tag like "en-US"
	if len(code) >= 2 {
		return code[:2]
	}
	return ""
}

// LanguageFromTitle infers a language when tags are absent but the track
// title names one ("Commentary (English)", "Japanese 5.1").
func LanguageFromTitle(title string) string {
	lower := strings.ToLower(title)
	for name, code := range languageMap {
		// Only full names are meaningful here; 3-letter codes inside a
		// title are too ambiguous.
		if len(name) < 4 || code == "" {
			continue
		}
		if strings.Contains(lower, name) {
			return code
		}
	}
	return ""
}

// ChannelLayout maps a channel count to a conventional label unless the
// container already provides an explicit layout string.
func ChannelLayout(channels int, explicit string) string {
	if explicit != "" {
		return explicit
	}
	switch channels {
	case 1:
		return "1.0"
	case 2:
		return "2.0"
	case 3:
		return "2.1"
	case 6:
		return "5.1"
	case 7:
		return "6.1"
	case 8:
		return "7.1"
	}
	return fmt.Sprintf("%dch", channels)
}
