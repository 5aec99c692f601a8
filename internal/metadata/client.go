// Package metadata talks to a Plex Media Server and matches local files
// against the shows it reports.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/trackhound/trackhound/internal/config"
)

// PlexShow is the subset of a Plex library item the scanner cares about.
type PlexShow struct {
	RatingKey     string   `json:"rating_key"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	Year          int      `json:"year,omitempty"`
	Genres        []string `json:"genres"`
	ThumbURL      string   `json:"thumb_url,omitempty"`
	IsAnime       bool     `json:"is_anime"`
	EpisodePaths  []string `json:"-"`
}

// CatalogProvider yields the server's show catalog. The matcher depends on
// this rather than the concrete client so tests can inject fixtures.
type CatalogProvider interface {
	FetchShows(ctx context.Context) ([]PlexShow, error)
}

type Client struct {
	serverURL  string
	token      string
	clientID   string
	product    string
	version    string
	httpClient *http.Client
	limiter    *rate.Limiter
	animeGenre map[string]bool
}

func NewClient(cfg *config.Config, token string) *Client {
	return &Client{
		serverURL: strings.TrimRight(cfg.PlexServerURL, "/"),
		token:     token,
		clientID:  cfg.PlexClientID,
		product:   cfg.PlexProduct,
		version:   cfg.PlexVersion,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.PlexRateLimit), 1),
		animeGenre: map[string]bool{
			"anime":     true,
			"animation": true,
			"アニメ":       true,
		},
	}
}

// Plex XML-ish JSON envelope. Only the fields we read are declared.
type plexContainer struct {
	MediaContainer struct {
		Directory []plexDirectory `json:"Directory"`
		Metadata  []plexMetadata  `json:"Metadata"`
	} `json:"MediaContainer"`
}

type plexDirectory struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

type plexMetadata struct {
	RatingKey     string      `json:"ratingKey"`
	Title         string      `json:"title"`
	OriginalTitle string      `json:"originalTitle"`
	Year          int         `json:"year"`
	Thumb         string      `json:"thumb"`
	Genre         []plexTag   `json:"Genre"`
	Media         []plexMedia `json:"Media"`
}

type plexTag struct {
	Tag string `json:"tag"`
}

type plexMedia struct {
	Part []plexPart `json:"Part"`
}

type plexPart struct {
	File string `json:"file"`
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u, err := url.Parse(c.serverURL + path)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", c.clientID)
	req.Header.Set("X-Plex-Product", c.product)
	req.Header.Set("X-Plex-Version", c.version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plex request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("plex request %s: status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse plex response %s: %w", path, err)
	}
	return nil
}

// FetchShows walks every show and movie library section and returns the
// full catalog. Episode file paths are fetched per show so the matcher can
// index by path.
func (c *Client) FetchShows(ctx context.Context) ([]PlexShow, error) {
	var sections plexContainer
	if err := c.get(ctx, "/library/sections", &sections); err != nil {
		return nil, err
	}

	var shows []PlexShow
	for _, dir := range sections.MediaContainer.Directory {
		if dir.Type != "show" && dir.Type != "movie" {
			continue
		}

		var items plexContainer
		if err := c.get(ctx, "/library/sections/"+dir.Key+"/all", &items); err != nil {
			return nil, fmt.Errorf("section %q: %w", dir.Title, err)
		}

		for _, item := range items.MediaContainer.Metadata {
			show := PlexShow{
				RatingKey:     item.RatingKey,
				Title:         item.Title,
				OriginalTitle: item.OriginalTitle,
				Year:          item.Year,
				ThumbURL:      item.Thumb,
			}
			for _, g := range item.Genre {
				show.Genres = append(show.Genres, g.Tag)
				if c.animeGenre[strings.ToLower(g.Tag)] {
					show.IsAnime = true
				}
			}

			if dir.Type == "show" {
				paths, err := c.episodePaths(ctx, item.RatingKey)
				if err != nil {
					return nil, fmt.Errorf("show %q: %w", item.Title, err)
				}
				show.EpisodePaths = paths
			} else {
				for _, m := range item.Media {
					for _, p := range m.Part {
						show.EpisodePaths = append(show.EpisodePaths, p.File)
					}
				}
			}

			shows = append(shows, show)
		}
	}

	return shows, nil
}

func (c *Client) episodePaths(ctx context.Context, ratingKey string) ([]string, error) {
	var leaves plexContainer
	if err := c.get(ctx, "/library/metadata/"+ratingKey+"/allLeaves", &leaves); err != nil {
		return nil, err
	}

	var paths []string
	for _, ep := range leaves.MediaContainer.Metadata {
		for _, m := range ep.Media {
			for _, p := range m.Part {
				if p.File != "" {
					paths = append(paths, p.File)
				}
			}
		}
	}
	return paths, nil
}
