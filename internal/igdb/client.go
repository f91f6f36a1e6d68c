// Package igdb imports the game catalog from the IGDB v4 API.
package igdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTokenURL = "https://id.twitch.tv/oauth2/token"
	defaultGamesURL = "https://api.igdb.com/v4/games"

	// PageSize is the IGDB maximum per request.
	PageSize = 500
)

// Config holds the Twitch application credentials IGDB authenticates with.
// TokenURL and GamesURL exist for tests and default to the live endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	GamesURL     string
	HTTPClient   *http.Client
}

// Client is an authenticated IGDB API client. Access tokens are fetched via
// the Twitch client-credentials flow and cached until shortly before expiry.
type Client struct {
	http         *http.Client
	clientID     string
	clientSecret string
	tokenURL     string
	gamesURL     string

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("igdb: client id and secret are required")
	}
	c := &Client{
		http:         cfg.HTTPClient,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		gamesURL:     cfg.GamesURL,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.tokenURL == "" {
		c.tokenURL = defaultTokenURL
	}
	if c.gamesURL == "" {
		c.gamesURL = defaultGamesURL
	}
	return c, nil
}

// Game is the subset of IGDB's game fields the catalog imports.
type Game struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Summary          string  `json:"summary"`
	Storyline        string  `json:"storyline"`
	Rating           float64 `json:"rating"`
	AggregatedRating float64 `json:"aggregated_rating"`
	FirstReleaseDate int64   `json:"first_release_date"`
	Cover            struct {
		URL string `json:"url"`
	} `json:"cover"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Videos []struct {
		VideoID string `json:"video_id"`
	} `json:"videos"`
	Screenshots []struct {
		URL string `json:"url"`
	} `json:"screenshots"`
}

const gameFields = "name, summary, storyline, rating, aggregated_rating, " +
	"first_release_date, cover.url, genres.name, videos.video_id, screenshots.url"

// Games fetches one page of games ordered by id, so repeated syncs walk the
// catalog in a stable order.
func (c *Client) Games(ctx context.Context, limit, offset int) ([]Game, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("fields %s; where cover != null; sort id asc; limit %d; offset %d;",
		gameFields, limit, offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gamesURL, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("igdb: build games request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("igdb: games request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("igdb: games request returned %d: %s", resp.StatusCode, msg)
	}

	var games []Game
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("igdb: decode games response: %w", err)
	}
	return games, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.expiry) {
		return c.token, nil
	}

	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"grant_type":    {"client_credentials"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("igdb: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("igdb: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("igdb: token request returned %d: %s", resp.StatusCode, msg)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("igdb: decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("igdb: token response carried no access token")
	}

	c.token = tok.AccessToken
	// Refresh a minute early so in-flight requests never race expiry.
	c.expiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}
