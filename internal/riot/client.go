package riot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/lookout/internal/roster"
)

// MatchFinder is the lookup surface the scheduler depends on.
type MatchFinder interface {
	FindActiveMatch(ctx context.Context, id roster.Identity) (Lookup, error)
}

var _ MatchFinder = (*Client)(nil)

const (
	defaultPlatformURL = "https://%s.api.riotgames.com"
	defaultRegionalURL = "https://%s.api.riotgames.com"
	defaultUserAgent   = "lookout/0.1"
	requestTimeout     = 10 * time.Second
)

// Options configures a Client. PlatformURL and RegionalURL may contain a
// single %s that is replaced by the platform or routing value; without it
// they are used as-is.
type Options struct {
	APIKey      string
	HTTPClient  *http.Client
	PlatformURL string
	RegionalURL string
	UserAgent   string
}

// Client talks to the Riot Games HTTPS API.
type Client struct {
	apiKey      string
	http        *http.Client
	platformURL string
	regionalURL string
	userAgent   string
}

// NewClient builds a Client. The API key is required.
func NewClient(opts Options) (*Client, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, fmt.Errorf("api key is empty")
	}
	c := &Client{
		apiKey:      key,
		http:        opts.HTTPClient,
		platformURL: opts.PlatformURL,
		regionalURL: opts.RegionalURL,
		userAgent:   opts.UserAgent,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: requestTimeout}
	}
	if c.platformURL == "" {
		c.platformURL = defaultPlatformURL
	}
	if c.regionalURL == "" {
		c.regionalURL = defaultRegionalURL
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	return c, nil
}

// FindActiveMatch resolves the identity's account reference when it is not
// cached yet and then asks for its live game. A nil Lookup.Match means the
// identity is not in a game.
func (c *Client) FindActiveMatch(ctx context.Context, id roster.Identity) (Lookup, error) {
	lookup := Lookup{AccountRef: id.AccountRef}
	if lookup.AccountRef == "" {
		ref, err := c.ResolveAccount(ctx, id)
		if err != nil {
			return Lookup{}, err
		}
		lookup.AccountRef = ref
		lookup.Resolved = true
	}

	match, err := c.ActiveMatch(ctx, id.Region, lookup.AccountRef)
	if err != nil {
		return lookup, err
	}
	lookup.Match = match
	return lookup, nil
}

// ResolveAccount turns a Riot ID into its PUUID.
func (c *Client) ResolveAccount(ctx context.Context, id roster.Identity) (string, error) {
	name, tag := id.GameName(), id.TagLine()
	if name == "" || tag == "" {
		return "", fmt.Errorf("%w: %q is not gameName#tagLine", ErrUnknownIdentity, id.RiotID)
	}
	path := "/riot/account/v1/accounts/by-riot-id/" + url.PathEscape(name) + "/" + url.PathEscape(tag)

	var payload account
	err := c.get(ctx, baseFor(c.regionalURL, RoutingFor(id.Region)), path, &payload)
	if errors.Is(err, errNotFound) {
		return "", fmt.Errorf("%w: %s", ErrUnknownIdentity, id.RiotID)
	}
	if err != nil {
		return "", err
	}
	if payload.PUUID == "" {
		return "", fmt.Errorf("%w: %s resolved without puuid", ErrUnknownIdentity, id.RiotID)
	}
	return payload.PUUID, nil
}

// ActiveMatch returns the live game of the account, or nil when it is not
// in one.
func (c *Client) ActiveMatch(ctx context.Context, region, puuid string) (*Match, error) {
	path := "/lol/spectator/v5/active-games/by-summoner/" + url.PathEscape(puuid)

	var payload activeGame
	err := c.get(ctx, baseFor(c.platformURL, region), path, &payload)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if payload.GameID == 0 {
		return nil, ErrMalformed
	}
	match := payload.match(region)
	return &match, nil
}

// VerifyKey performs a cheap authenticated request so a bad key surfaces
// before the first cycle.
func (c *Client) VerifyKey(ctx context.Context, region string) error {
	return c.get(ctx, baseFor(c.platformURL, region), "/lol/platform/v3/champion-rotations", nil)
}

var errNotFound = errors.New("not found")

func (c *Client) get(ctx context.Context, base, path string, dest any) error {
	reqURL := strings.TrimRight(base, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Riot-Token", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: execute request: %w", ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: api %s returned status %d", ErrCredentialExpired, path, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return fmt.Errorf("%w: api %s returned status %d", ErrTransient, path, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("api %s returned status %d", path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrMalformed, err)
	}
	return nil
}

func baseFor(template, value string) string {
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, strings.ToLower(value))
	}
	return template
}
