package sleeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sleeperrecap/internal/logging"
	"sleeperrecap/internal/services"
	"sleeperrecap/internal/services/llm"
)

// DefaultBaseURL is the public Sleeper API root.
const DefaultBaseURL = "https://api.sleeper.app/v1"

const defaultTimeout = 30 * time.Second

// Client talks to the Sleeper API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     llm.RetryPolicy
	pacer      *llm.Pacer
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client (useful for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the default backoff policy.
func WithRetryPolicy(policy llm.RetryPolicy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithPacer spaces consecutive requests.
func WithPacer(pacer *llm.Pacer) Option {
	return func(c *Client) {
		c.pacer = pacer
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "sleeper")
		}
	}
}

// New constructs a Sleeper client. An empty baseURL selects the public API.
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		policy:     llm.DefaultRetryPolicy(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// League fetches league metadata.
func (c *Client) League(ctx context.Context, leagueID string) (League, error) {
	var league League
	if err := c.get(ctx, "league/"+leagueID, &league); err != nil {
		return League{}, err
	}
	return league, nil
}

// Users fetches the league members.
func (c *Client) Users(ctx context.Context, leagueID string) ([]User, error) {
	var users []User
	if err := c.get(ctx, "league/"+leagueID+"/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Rosters fetches every roster in the league.
func (c *Client) Rosters(ctx context.Context, leagueID string) ([]Roster, error) {
	var rosters []Roster
	if err := c.get(ctx, "league/"+leagueID+"/rosters", &rosters); err != nil {
		return nil, err
	}
	return rosters, nil
}

// Matchups fetches one week's matchup entries. A week the API does not know
// about yields an empty slice rather than an error.
func (c *Client) Matchups(ctx context.Context, leagueID string, week int) ([]Matchup, error) {
	var matchups []Matchup
	err := c.get(ctx, "league/"+leagueID+"/matchups/"+strconv.Itoa(week), &matchups)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return []Matchup{}, nil
		}
		return nil, err
	}
	return matchups, nil
}

// Players fetches the full NFL players database keyed by player id.
func (c *Client) Players(ctx context.Context) (map[string]Player, error) {
	players := make(map[string]Player)
	if err := c.get(ctx, "players/nfl", &players); err != nil {
		return nil, err
	}
	for id, player := range players {
		if player.PlayerID == "" {
			player.PlayerID = id
			players[id] = player
		}
	}
	return players, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	return c.policy.Do(ctx, "sleeper "+path, func(ctx context.Context) error {
		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}
		return c.fetch(ctx, path, endpoint, out)
	})
}

func (c *Client) fetch(ctx context.Context, path, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "sleeper", "get "+path, "Sleeper request failed", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("sleeper response",
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "sleeper", "get "+path, "Sleeper resource not found", nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		statusErr := &llm.StatusError{Provider: "sleeper", StatusCode: resp.StatusCode, Body: string(body)}
		if retryAfter, ok := llm.ParseRetryAfter(resp.Header.Get("Retry-After")); ok {
			statusErr.RetryAfter = retryAfter
		}
		if !retryableStatus(resp.StatusCode) {
			return services.Wrap(services.ErrDataUnavailable, "sleeper", "get "+path, "Sleeper rejected the request", statusErr)
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, "sleeper", "decode "+path, "Sleeper returned malformed JSON", err)
	}
	return nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
