package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/trackhound/trackhound/internal/config"
)

const plexTVURL = "https://plex.tv"

// PlexAuth drives the plex.tv PIN sign-in flow.
type PlexAuth struct {
	clientID   string
	product    string
	version    string
	httpClient *http.Client
}

func NewPlexAuth(cfg *config.Config) *PlexAuth {
	return &PlexAuth{
		clientID: cfg.PlexClientID,
		product:  cfg.PlexProduct,
		version:  cfg.PlexVersion,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type PlexPin struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
}

// AuthURL is where the browser sends the user to approve the PIN.
func (p *PlexAuth) AuthURL(pin PlexPin, forwardURL string) string {
	q := url.Values{}
	q.Set("clientID", p.clientID)
	q.Set("code", pin.Code)
	q.Set("context[device][product]", p.product)
	if forwardURL != "" {
		q.Set("forwardUrl", forwardURL)
	}
	return "https://app.plex.tv/auth#?" + q.Encode()
}

func (p *PlexAuth) headers(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Plex-Client-Identifier", p.clientID)
	req.Header.Set("X-Plex-Product", p.product)
	req.Header.Set("X-Plex-Version", p.version)
}

// CreatePin requests a new sign-in PIN from plex.tv.
func (p *PlexAuth) CreatePin(ctx context.Context) (*PlexPin, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", plexTVURL+"/api/v2/pins?strong=true", nil)
	if err != nil {
		return nil, err
	}
	p.headers(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create pin: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("create pin: status %d", resp.StatusCode)
	}

	var pin PlexPin
	if err := json.NewDecoder(resp.Body).Decode(&pin); err != nil {
		return nil, fmt.Errorf("parse pin response: %w", err)
	}
	return &pin, nil
}

// CheckPin polls a PIN once. Returns the auth token when the user has
// approved, or empty string while still pending.
func (p *PlexAuth) CheckPin(ctx context.Context, pinID int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", plexTVURL+"/api/v2/pins/"+strconv.Itoa(pinID), nil)
	if err != nil {
		return "", err
	}
	p.headers(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("check pin: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("check pin: status %d", resp.StatusCode)
	}

	var result struct {
		AuthToken string `json:"authToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("parse pin response: %w", err)
	}
	return result.AuthToken, nil
}

type PlexAccount struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Thumb    string `json:"thumb"`
}

// FetchAccount loads the signed-in user's plex.tv profile.
func (p *PlexAuth) FetchAccount(ctx context.Context, token string) (*PlexAccount, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", plexTVURL+"/api/v2/user", nil)
	if err != nil {
		return nil, err
	}
	p.headers(req)
	req.Header.Set("X-Plex-Token", token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch account: status %d", resp.StatusCode)
	}

	var account PlexAccount
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("parse account response: %w", err)
	}
	return &account, nil
}
