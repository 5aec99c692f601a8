package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/trackhound/trackhound/internal/preferences"
)

// Preference keys.
const (
	PrefAudioPreferences = "audio_preferences"
	PrefAnimeDetection   = "anime_detection"
	PrefFileExtensions   = "file_extensions"
)

var defaultFileExtensions = []string{".mkv", ".mp4", ".avi", ".m4v", ".mov", ".wmv"}

// AnimeDetectionSettings controls how folder names feed anime classification.
type AnimeDetectionSettings struct {
	UsePlexGenres       bool     `json:"use_plex_genres"`
	AnimeFolderKeywords []string `json:"anime_folder_keywords"`
}

func DefaultAnimeDetection() AnimeDetectionSettings {
	return AnimeDetectionSettings{
		UsePlexGenres:       true,
		AnimeFolderKeywords: []string{"anime", "animation"},
	}
}

type SettingsRepository struct {
	q Querier
}

func NewSettingsRepository(q Querier) *SettingsRepository {
	return &SettingsRepository{q: q}
}

// Get retrieves a raw preference value. Returns empty string if not set.
func (r *SettingsRepository) Get(userID uuid.UUID, key string) (string, error) {
	var value string
	err := r.q.QueryRow(`SELECT value FROM user_preferences WHERE user_id = $1 AND key = $2`,
		userID, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Set upserts a preference key-value pair for a user.
func (r *SettingsRepository) Set(userID uuid.UUID, key, value string) error {
	query := `INSERT INTO user_preferences (id, user_id, key, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key) DO UPDATE SET value = $4`
	_, err := r.q.Exec(query, uuid.New(), userID, key, value)
	return err
}

// DeleteAll resets a user's settings to defaults.
func (r *SettingsRepository) DeleteAll(userID uuid.UUID) error {
	_, err := r.q.Exec(`DELETE FROM user_preferences WHERE user_id = $1`, userID)
	return err
}

// AudioPreferences resolves the user's audio rules, falling back to defaults
// when unset or unparseable.
func (r *SettingsRepository) AudioPreferences(userID uuid.UUID) (preferences.AudioPreferences, error) {
	raw, err := r.Get(userID, PrefAudioPreferences)
	if err != nil {
		return preferences.DefaultAudioPreferences(), err
	}
	if raw == "" {
		return preferences.DefaultAudioPreferences(), nil
	}
	var prefs preferences.AudioPreferences
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return preferences.DefaultAudioPreferences(), nil
	}
	return prefs, nil
}

func (r *SettingsRepository) SetAudioPreferences(userID uuid.UUID, prefs preferences.AudioPreferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return r.Set(userID, PrefAudioPreferences, string(data))
}

func (r *SettingsRepository) AnimeDetection(userID uuid.UUID) (AnimeDetectionSettings, error) {
	raw, err := r.Get(userID, PrefAnimeDetection)
	if err != nil {
		return DefaultAnimeDetection(), err
	}
	if raw == "" {
		return DefaultAnimeDetection(), nil
	}
	var settings AnimeDetectionSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return DefaultAnimeDetection(), nil
	}
	return settings, nil
}

func (r *SettingsRepository) SetAnimeDetection(userID uuid.UUID, settings AnimeDetectionSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	return r.Set(userID, PrefAnimeDetection, string(data))
}

// FileExtensions returns the user's scannable extensions. The stored value is
// a JSON array; cast tolerates older payloads that stored bare strings.
func (r *SettingsRepository) FileExtensions(userID uuid.UUID) ([]string, error) {
	raw, err := r.Get(userID, PrefFileExtensions)
	if err != nil {
		return defaultFileExtensions, err
	}
	if raw == "" {
		return defaultFileExtensions, nil
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return defaultFileExtensions, nil
	}
	exts, err := cast.ToStringSliceE(decoded)
	if err != nil || len(exts) == 0 {
		return defaultFileExtensions, nil
	}
	return exts, nil
}

func (r *SettingsRepository) SetFileExtensions(userID uuid.UUID, extensions []string) error {
	data, err := json.Marshal(extensions)
	if err != nil {
		return err
	}
	return r.Set(userID, PrefFileExtensions, string(data))
}
