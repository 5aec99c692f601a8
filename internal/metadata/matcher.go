package metadata

import (
	"context"
	"log"
	"path/filepath"
	"regexp"
	"strings"
)

const fuzzyThreshold = 0.75

var (
	yearSuffixRe  = regexp.MustCompile(`\s*[(\[]\d{4}[)\]]\s*$`)
	punctuationRe = regexp.MustCompile(`[^\w\s]`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// Matcher resolves local files and inferred titles against the Plex
// catalog. The catalog is fetched lazily on first lookup and indexed three
// ways: by episode file path, by title variant, and by rating key. A failed
// fetch is remembered so a scan does not hammer an unreachable server.
type Matcher struct {
	provider CatalogProvider

	loaded     bool
	loadFailed bool
	shows      []PlexShow
	byPath     map[string]*PlexShow
	byTitle    map[string]*PlexShow
	byKey      map[string]*PlexShow
}

func NewMatcher(provider CatalogProvider) *Matcher {
	return &Matcher{provider: provider}
}

func (m *Matcher) ensureLoaded(ctx context.Context) bool {
	if m.loaded {
		return true
	}
	if m.loadFailed {
		return false
	}

	shows, err := m.provider.FetchShows(ctx)
	if err != nil {
		log.Printf("[matcher] catalog fetch failed, continuing without server matches: %v", err)
		m.loadFailed = true
		return false
	}

	m.shows = shows
	m.byPath = make(map[string]*PlexShow)
	m.byTitle = make(map[string]*PlexShow)
	m.byKey = make(map[string]*PlexShow)

	for i := range m.shows {
		show := &m.shows[i]
		m.byKey[show.RatingKey] = show
		for _, p := range show.EpisodePaths {
			m.byPath[normalizePath(p)] = show
		}
		for _, v := range titleVariants(show.Title) {
			if _, taken := m.byTitle[v]; !taken {
				m.byTitle[v] = show
			}
		}
		if show.OriginalTitle != "" && show.OriginalTitle != show.Title {
			for _, v := range titleVariants(show.OriginalTitle) {
				if _, taken := m.byTitle[v]; !taken {
					m.byTitle[v] = show
				}
			}
		}
	}

	m.loaded = true
	log.Printf("[matcher] indexed %d shows, %d episode paths", len(m.shows), len(m.byPath))
	return true
}

// FindShowByRatingKey looks up a show by its server identifier.
func (m *Matcher) FindShowByRatingKey(ctx context.Context, ratingKey string) *PlexShow {
	if ratingKey == "" || !m.ensureLoaded(ctx) {
		return nil
	}
	return m.byKey[ratingKey]
}

// FindShowByFile matches a local file against the catalog's episode paths.
// An exact normalized-path hit wins; otherwise any catalog path with the
// same filename and the same parent directory name counts. Path layouts
// differ between the scanner host and the server, so only the tail of the
// path is trusted.
func (m *Matcher) FindShowByFile(ctx context.Context, filePath string) *PlexShow {
	if !m.ensureLoaded(ctx) {
		return nil
	}

	norm := normalizePath(filePath)
	if show, ok := m.byPath[norm]; ok {
		return show
	}

	base := filepath.Base(norm)
	parent := filepath.Base(filepath.Dir(norm))
	for p, show := range m.byPath {
		if filepath.Base(p) == base && filepath.Base(filepath.Dir(p)) == parent {
			return show
		}
	}
	return nil
}

// FindShow matches a title against the catalog: exact variant lookup first,
// then a punctuation-stripped pass, then fuzzy similarity over every show.
// Fuzzy matches must score strictly above the threshold.
func (m *Matcher) FindShow(ctx context.Context, title string) *PlexShow {
	if title == "" || !m.ensureLoaded(ctx) {
		return nil
	}

	for _, v := range titleVariants(title) {
		if show, ok := m.byTitle[v]; ok {
			return show
		}
	}

	stripped := stripPunctuation(strings.ToLower(title))
	if show, ok := m.byTitle[stripped]; ok {
		return show
	}

	var best *PlexShow
	bestScore := fuzzyThreshold
	for i := range m.shows {
		score := titleSimilarity(title, m.shows[i].Title)
		if orig := m.shows[i].OriginalTitle; orig != "" {
			if s := titleSimilarity(title, orig); s > score {
				score = s
			}
		}
		if score > bestScore {
			bestScore = score
			best = &m.shows[i]
		}
	}
	return best
}

// FindShowByPathOrTitle tries the file path first, then the file's show
// folder name, then the parsed title hint.
func (m *Matcher) FindShowByPathOrTitle(ctx context.Context, filePath, titleHint string) *PlexShow {
	if show := m.FindShowByFile(ctx, filePath); show != nil {
		return show
	}

	folder := showFolderName(filePath)
	if folder != "" && folder != titleHint {
		if show := m.FindShow(ctx, folder); show != nil {
			return show
		}
	}
	return m.FindShow(ctx, titleHint)
}

func normalizePath(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
}

// showFolderName returns the grandparent directory name when the parent
// looks like a season folder, otherwise the parent itself.
func showFolderName(filePath string) string {
	dir := filepath.Dir(strings.ReplaceAll(filePath, "\\", "/"))
	parent := filepath.Base(dir)
	if strings.HasPrefix(strings.ToLower(parent), "season") || strings.EqualFold(parent, "specials") {
		parent = filepath.Base(filepath.Dir(dir))
	}
	if parent == "." || parent == "/" {
		return ""
	}
	return parent
}

func stripPunctuation(s string) string {
	s = punctuationRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// titleVariants generates the lookup keys a title is indexed under:
// lowercased, year suffix stripped, leading article stripped, punctuation
// stripped, and truncations at ":" and " - " subtitle separators.
func titleVariants(title string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	base := strings.ToLower(strings.TrimSpace(title))
	add(base)

	noYear := yearSuffixRe.ReplaceAllString(base, "")
	add(noYear)

	for _, v := range []string{base, noYear} {
		if strings.HasPrefix(v, "the ") {
			add(strings.TrimPrefix(v, "the "))
		}
		add(stripPunctuation(v))
		if idx := strings.Index(v, ":"); idx > 0 {
			add(v[:idx])
		}
		if idx := strings.Index(v, " - "); idx > 0 {
			add(v[:idx])
		}
	}
	return out
}

// titleSimilarity blends word-set and character-set Jaccard overlap. Word
// overlap dominates; the character term tolerates small spelling drift.
func titleSimilarity(a, b string) float64 {
	na := stripPunctuation(strings.ToLower(a))
	nb := stripPunctuation(strings.ToLower(b))
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	wordScore := jaccard(wordSet(na), wordSet(nb))
	charScore := jaccard(charSet(na), charSet(nb))
	return wordScore*0.7 + charScore*0.3
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

func charSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, r := range s {
		if r != ' ' {
			set[string(r)] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
