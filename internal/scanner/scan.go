package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trackhound/trackhound/internal/ffmpeg"
	"github.com/trackhound/trackhound/internal/metadata"
	"github.com/trackhound/trackhound/internal/models"
	"github.com/trackhound/trackhound/internal/preferences"
	"github.com/trackhound/trackhound/internal/repository"
)

// Scanner reconciles one file at a time into the catalog. All persistence
// goes through the Store the caller passes in, so the runner controls
// transaction boundaries.
type Scanner struct {
	userID    uuid.UUID
	analyzer  *ffmpeg.Analyzer
	remuxer   *ffmpeg.Remuxer
	matcher   *metadata.Matcher
	engine    *preferences.Engine
	prefs     preferences.AudioPreferences
	detection repository.AnimeDetectionSettings
}

// NewScanner builds a scanner for one user's scan. matcher may be nil when
// no media server is linked; identity resolution then falls back to
// path-derived metadata.
func NewScanner(userID uuid.UUID, analyzer *ffmpeg.Analyzer, remuxer *ffmpeg.Remuxer,
	matcher *metadata.Matcher, prefs preferences.AudioPreferences,
	detection repository.AnimeDetectionSettings,
) *Scanner {
	return &Scanner{
		userID:    userID,
		analyzer:  analyzer,
		remuxer:   remuxer,
		matcher:   matcher,
		engine:    preferences.NewEngine(prefs),
		prefs:     prefs,
		detection: detection,
	}
}

// ProcessFile runs the full per-file pipeline: incremental skip, probe,
// path inference, identity resolution, show/season upsert, track replace,
// optional default-track auto-fix, and issue evaluation. Errors bubble to
// the runner, which records them and moves on.
func (s *Scanner) ProcessFile(ctx context.Context, store Store, loc *models.ScanLocation, filePath string) (*models.MediaFile, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filePath, err)
	}
	mtime := stat.ModTime().UTC()

	existing, err := store.GetFileByPath(s.userID, filePath)
	if err != nil {
		return nil, err
	}
	if existing != nil && !mtime.After(existing.LastModified) {
		// Unchanged since last scan. No writes.
		return existing, nil
	}

	info := s.analyzer.Analyze(filePath)

	relPath := relativeTo(filePath, loc.Path)
	var parsed ParsedFile
	if loc.MediaType == models.MediaTypeMovie {
		parsed = ParseMoviePath(relPath)
	} else {
		parsed = ParseEpisodePath(relPath)
	}

	ident := s.resolveIdentity(ctx, loc, filePath, parsed.Title)

	show, err := s.resolveShow(store, parsed.Title, ident)
	if err != nil {
		return nil, err
	}

	var seasonID *uuid.UUID
	if loc.MediaType != models.MediaTypeMovie {
		season, err := s.resolveSeason(store, show.ID, parsed.Season)
		if err != nil {
			return nil, err
		}
		seasonID = &season.ID
	}

	file, err := s.upsertFile(store, existing, show, seasonID, filePath, parsed, stat.Size(), mtime, info)
	if err != nil {
		return nil, err
	}

	if s.shouldAutoFix(show, info) {
		if s.remuxer.SetDefaultTrackByLanguage(filePath, info.AudioTracks, "en") {
			// Re-probe so issue evaluation sees the rewritten flags.
			info = s.analyzer.Analyze(filePath)
		}
	}

	if err := s.replaceTracks(store, file, info); err != nil {
		return nil, err
	}

	issues := s.engine.Evaluate(engineTracks(info.AudioTracks), show.IsAnime)
	file.HasIssues = len(issues) > 0
	if file.HasIssues {
		details := preferences.Summarize(issues)
		file.IssueDetails = &details
	} else {
		file.IssueDetails = nil
	}
	if err := store.UpdateFile(file); err != nil {
		return nil, err
	}

	return file, nil
}

// identity is the outcome of matching a file against the media server.
type identity struct {
	title       string
	ratingKey   *string
	thumbURL    *string
	isAnime     bool
	animeSource *models.AnimeSource
}

// resolveIdentity combines the location's declared kind, folder keywords,
// and the server match. Server genre evidence may upgrade a tv file to
// anime; nothing here ever downgrades.
func (s *Scanner) resolveIdentity(ctx context.Context, loc *models.ScanLocation, filePath, titleHint string) identity {
	ident := identity{title: titleHint}

	if loc.MediaType == models.MediaTypeAnime {
		ident.isAnime = true
	} else if s.matchesAnimeKeyword(filePath) {
		ident.isAnime = true
		src := models.AnimeSourceFolder
		ident.animeSource = &src
	}

	if s.matcher == nil {
		return ident
	}

	match := s.matcher.FindShowByPathOrTitle(ctx, filePath, titleHint)
	if match == nil {
		return ident
	}

	ident.title = match.Title
	ident.ratingKey = &match.RatingKey
	if match.ThumbURL != "" {
		thumb := match.ThumbURL
		ident.thumbURL = &thumb
	}
	if match.IsAnime && s.detection.UsePlexGenres {
		ident.isAnime = true
		src := models.AnimeSourcePlexGenre
		ident.animeSource = &src
	}
	return ident
}

func (s *Scanner) matchesAnimeKeyword(filePath string) bool {
	lower := strings.ToLower(filePath)
	for _, kw := range s.detection.AnimeFolderKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// resolveShow finds or creates the Show row. Lookup order: server rating
// key, resolved title, then the raw path-derived title so a renamed match
// adopts the existing row instead of duplicating it.
func (s *Scanner) resolveShow(store Store, rawTitle string, ident identity) (*models.Show, error) {
	var show *models.Show
	var err error

	if ident.ratingKey != nil {
		show, err = store.GetShowByRatingKey(s.userID, *ident.ratingKey)
		if err != nil {
			return nil, err
		}
	}
	if show == nil {
		show, err = store.GetShowByTitle(s.userID, ident.title)
		if err != nil {
			return nil, err
		}
	}
	if show == nil && rawTitle != ident.title {
		show, err = store.GetShowByTitle(s.userID, rawTitle)
		if err != nil {
			return nil, err
		}
	}

	if show == nil {
		show = &models.Show{
			ID:            uuid.New(),
			UserID:        s.userID,
			Title:         ident.title,
			MediaType:     mediaTypeFor(ident.isAnime),
			PlexRatingKey: ident.ratingKey,
			IsAnime:       ident.isAnime,
			AnimeSource:   ident.animeSource,
			ThumbURL:      ident.thumbURL,
		}
		if err := store.CreateShow(show); err != nil {
			return nil, err
		}
		return show, nil
	}

	// Adopt stronger evidence onto the existing row. A manual anime
	// override is never touched.
	changed := false
	if ident.ratingKey != nil && (show.PlexRatingKey == nil || *show.PlexRatingKey != *ident.ratingKey) {
		show.PlexRatingKey = ident.ratingKey
		changed = true
	}
	if ident.title != "" && show.Title != ident.title && ident.ratingKey != nil {
		show.Title = ident.title
		changed = true
	}
	if ident.thumbURL != nil && (show.ThumbURL == nil || *show.ThumbURL != *ident.thumbURL) {
		show.ThumbURL = ident.thumbURL
		changed = true
	}
	manual := show.AnimeSource != nil && *show.AnimeSource == models.AnimeSourceManual
	if ident.isAnime && !show.IsAnime && !manual {
		show.IsAnime = true
		show.MediaType = models.MediaTypeAnime
		show.AnimeSource = ident.animeSource
		changed = true
	}
	if changed {
		if err := store.UpdateShow(show); err != nil {
			return nil, err
		}
	}
	return show, nil
}

func mediaTypeFor(isAnime bool) models.MediaType {
	if isAnime {
		return models.MediaTypeAnime
	}
	return models.MediaTypeTV
}

func (s *Scanner) resolveSeason(store Store, showID uuid.UUID, number int) (*models.Season, error) {
	season, err := store.GetSeason(showID, number)
	if err != nil {
		return nil, err
	}
	if season != nil {
		return season, nil
	}
	season = &models.Season{ID: uuid.New(), ShowID: showID, SeasonNumber: number}
	if err := store.CreateSeason(season); err != nil {
		return nil, err
	}
	return season, nil
}

func (s *Scanner) upsertFile(store Store, existing *models.MediaFile, show *models.Show,
	seasonID *uuid.UUID, filePath string, parsed ParsedFile, size int64, mtime time.Time,
	info *ffmpeg.MediaInfo,
) (*models.MediaFile, error) {
	file := existing
	if file == nil {
		file = &models.MediaFile{
			ID:       uuid.New(),
			UserID:   s.userID,
			FilePath: filePath,
		}
	}

	file.ShowID = &show.ID
	file.SeasonID = seasonID
	file.Filename = filepath.Base(filePath)
	file.EpisodeNumber = parsed.Episode
	file.FileSize = size
	file.LastModified = mtime
	file.LastScanned = time.Now().UTC()
	if info.Container != "" {
		container := info.Container
		file.ContainerFormat = &container
	}
	if info.DurationMS > 0 {
		duration := info.DurationMS
		file.DurationMS = &duration
	}

	if existing == nil {
		if err := store.CreateFile(file); err != nil {
			return nil, err
		}
	} else {
		if err := store.UpdateFile(file); err != nil {
			return nil, err
		}
	}
	return file, nil
}

// replaceTracks drops every prior track row and inserts the fresh probe
// output. Tracks are never patched individually.
func (s *Scanner) replaceTracks(store Store, file *models.MediaFile, info *ffmpeg.MediaInfo) error {
	if err := store.DeleteTracks(file.ID); err != nil {
		return err
	}
	for _, t := range info.AudioTracks {
		track := &models.AudioTrack{
			ID:          uuid.New(),
			MediaFileID: file.ID,
			TrackIndex:  t.Index,
			IsDefault:   t.IsDefault,
			IsForced:    t.IsForced,
		}
		if t.Language != "" {
			lang := t.Language
			track.Language = &lang
		}
		if t.LanguageRaw != "" {
			raw := t.LanguageRaw
			track.LanguageRaw = &raw
		}
		if t.Codec != "" {
			codec := t.Codec
			track.Codec = &codec
		}
		if t.Channels > 0 {
			ch := t.Channels
			track.Channels = &ch
		}
		if t.ChannelLayout != "" {
			layout := t.ChannelLayout
			track.ChannelLayout = &layout
		}
		if t.Bitrate > 0 {
			br := t.Bitrate
			track.Bitrate = &br
		}
		if t.Title != "" {
			title := t.Title
			track.Title = &title
		}
		if err := store.CreateTrack(track); err != nil {
			return err
		}
	}
	return nil
}

// shouldAutoFix gates the default-track rewrite: enabled, non-anime, MKV
// only, an English track present, and the current default not English.
func (s *Scanner) shouldAutoFix(show *models.Show, info *ffmpeg.MediaInfo) bool {
	if !s.prefs.AutoFixEnglishDefaultNonAnime || show.IsAnime {
		return false
	}
	hasEnglish := false
	defaultIsEnglish := false
	for _, t := range info.AudioTracks {
		if t.Language == "en" {
			hasEnglish = true
			if t.IsDefault {
				defaultIsEnglish = true
			}
		}
	}
	return hasEnglish && !defaultIsEnglish
}

func engineTracks(tracks []ffmpeg.AudioTrack) []preferences.Track {
	out := make([]preferences.Track, len(tracks))
	for i, t := range tracks {
		out[i] = preferences.Track{
			Language:  t.Language,
			IsDefault: t.IsDefault,
			Codec:     t.Codec,
		}
	}
	return out
}

func relativeTo(filePath, base string) string {
	rel, err := filepath.Rel(base, filePath)
	if err != nil {
		return filePath
	}
	return filepath.ToSlash(rel)
}
