// Package liveclient reads the spectator client's local telemetry API on
// 127.0.0.1:2999. The endpoint serves a self-signed certificate.
package liveclient

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://127.0.0.1:2999"
	requestTimeout = 2 * time.Second
)

// GameStats is the /liveclientdata/gamestats payload.
type GameStats struct {
	GameMode  string  `json:"gameMode"`
	GameTime  float64 `json:"gameTime"`
	ErrorCode string  `json:"errorCode"`
}

// Advancing reports whether the game clock has moved past the loading
// screen.
func (s GameStats) Advancing() bool {
	return s.ErrorCode == "" && s.GameTime > 1
}

// Player is one entry of /liveclientdata/playerlist.
type Player struct {
	RiotID          string `json:"riotId"`
	RiotIDGameName  string `json:"riotIdGameName"`
	SummonerName    string `json:"summonerName"`
	ChampionName    string `json:"championName"`
	Team            string `json:"team"`
	Position        string `json:"position"`
	IsBot           bool   `json:"isBot"`
	RawChampionName string `json:"rawChampionName"`
}

// Client polls the live client API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a Client for baseURL, or the default local endpoint when it is
// empty.
func New(baseURL string) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

// GameStats fetches the current game clock.
func (c *Client) GameStats(ctx context.Context) (GameStats, error) {
	var stats GameStats
	if err := c.get(ctx, "/liveclientdata/gamestats", &stats); err != nil {
		return GameStats{}, err
	}
	return stats, nil
}

// PlayerList fetches the participants as the client sees them.
func (c *Client) PlayerList(ctx context.Context) ([]Player, error) {
	var players []Player
	if err := c.get(ctx, "/liveclientdata/playerlist", &players); err != nil {
		return nil, err
	}
	return players, nil
}

// GameReady reports whether the game clock is advancing. Connection
// failures are normal while the client loads and count as not ready.
func (c *Client) GameReady(ctx context.Context) (bool, error) {
	stats, err := c.GameStats(ctx)
	if err != nil {
		return false, err
	}
	return stats.Advancing(), nil
}

// TelemetryReady reports whether the player list is populated and returns
// it.
func (c *Client) TelemetryReady(ctx context.Context) ([]Player, bool, error) {
	players, err := c.PlayerList(ctx)
	if err != nil {
		return nil, false, err
	}
	return players, len(players) > 0, nil
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("live client %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
