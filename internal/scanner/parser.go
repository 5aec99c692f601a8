// Package scanner discovers media files and reconciles them into the
// catalog: show and season resolution, audio analysis, preference checks.
package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ParsedFile is what path inference yields for one file. Episode is nil
// when no episode marker was found. Movies set only Title.
type ParsedFile struct {
	Title   string
	Season  int
	Episode *int
}

// Episode marker patterns, tried in order against the path relative to the
// scan location. First match wins.
var episodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^([^/]+)/season[\s._]*(\d{1,2})/.*?e(\d{1,3})`), // Show/Season 01/...E05
	regexp.MustCompile(`(?i)^([^/]+)/s(\d{1,2})[\s._]*e(\d{1,3})`),         // Show/S01E05
	regexp.MustCompile(`(?i)^([^/]+?)\s+-\s+s(\d{1,2})[\s._]*e(\d{1,3})`),  // Show - S01E05
}

// ParseEpisodePath infers {show title, season, episode} from a file path
// relative to its scan location. Deterministic and side-effect free.
func ParseEpisodePath(relPath string) ParsedFile {
	rel := strings.ReplaceAll(relPath, "\\", "/")
	rel = strings.TrimPrefix(rel, "/")

	for _, pattern := range episodePatterns {
		m := pattern.FindStringSubmatch(rel)
		if m == nil {
			continue
		}
		season, _ := strconv.Atoi(m[2])
		episode, _ := strconv.Atoi(m[3])
		return ParsedFile{
			Title:   cleanTitle(m[1]),
			Season:  season,
			Episode: &episode,
		}
	}

	// No marker matched. The top-level folder names the show; season 1,
	// unknown episode.
	title := rel
	if idx := strings.Index(rel, "/"); idx > 0 {
		title = rel[:idx]
	} else {
		title = stripExtension(rel)
	}
	return ParsedFile{Title: cleanTitle(title), Season: 1}
}

// ParseMoviePath infers a movie title: the parent folder, or the filename
// stem when the file sits directly under the location root.
func ParseMoviePath(relPath string) ParsedFile {
	rel := strings.ReplaceAll(relPath, "\\", "/")
	rel = strings.TrimPrefix(rel, "/")

	dir := filepath.Dir(rel)
	if dir == "." || dir == "/" {
		return ParsedFile{Title: cleanTitle(stripExtension(filepath.Base(rel)))}
	}
	// Nested movie folders keep the immediate parent as the title.
	return ParsedFile{Title: cleanTitle(filepath.Base(dir))}
}

func stripExtension(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func cleanTitle(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ".", " "))
}
