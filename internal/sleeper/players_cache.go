package sleeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"sleeperrecap/internal/fileutil"
	"sleeperrecap/internal/logging"
)

// DefaultPlayersTTL is how long a downloaded players database stays fresh.
const DefaultPlayersTTL = 7 * 24 * time.Hour

// PlayersFileName is the cache file written under the cache directory.
const PlayersFileName = "players_nfl.json"

// refreshRetry is how often a waiting process polls the refresh lock.
const refreshRetry = 100 * time.Millisecond

type playersFile struct {
	FetchedAt time.Time         `json:"fetched_at"`
	Players   map[string]Player `json:"players"`
}

// PlayerSource fetches the players database from the network.
type PlayerSource interface {
	Players(ctx context.Context) (map[string]Player, error)
}

// PlayerCache serves the players database from disk while it is fresh and
// refreshes it from the source otherwise. An empty path disables the disk
// layer; results are still memoized for the life of the cache.
type PlayerCache struct {
	path   string
	ttl    time.Duration
	source PlayerSource
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	players map[string]Player
}

// NewPlayerCache creates a cache backed by path.
func NewPlayerCache(path string, ttl time.Duration, source PlayerSource, logger *slog.Logger) *PlayerCache {
	if logger == nil {
		logger = logging.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultPlayersTTL
	}
	return &PlayerCache{
		path:   path,
		ttl:    ttl,
		source: source,
		logger: logging.NewComponentLogger(logger, "player-cache"),
		now:    time.Now,
	}
}

// Players returns the players database, downloading it when the cached copy
// is missing, stale, or unreadable. A failed refresh falls back to a stale
// copy when one exists.
func (c *PlayerCache) Players(ctx context.Context) (map[string]Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.players != nil {
		return c.players, nil
	}

	cached, err := c.load()
	if err != nil {
		logging.WarnWithContext(c.logger, "failed to read players cache", "player_cache_load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the cache file if this persists"),
			logging.String(logging.FieldImpact, "players database will be downloaded again"))
	}
	if cached != nil && c.now().Sub(cached.FetchedAt) < c.ttl {
		c.logger.Debug("players cache hit",
			logging.Int("player_count", len(cached.Players)),
			logging.Duration("age", c.now().Sub(cached.FetchedAt)))
		c.players = cached.Players
		return c.players, nil
	}

	if c.source == nil {
		return nil, errors.New("players cache: no source configured")
	}

	unlock, err := c.lockRefresh(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()
	// Another process may have refreshed the file while we waited.
	if again, err := c.load(); err == nil && again != nil && c.now().Sub(again.FetchedAt) < c.ttl {
		c.logger.Debug("players cache refreshed by another run", logging.Int("player_count", len(again.Players)))
		c.players = again.Players
		return c.players, nil
	}

	players, err := c.source.Players(ctx)
	if err != nil {
		if cached != nil && len(cached.Players) > 0 {
			logging.WarnWithContext(c.logger, "players refresh failed; using stale cache", "player_cache_stale",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check Sleeper API availability"),
				logging.String(logging.FieldImpact, "recently added players may show as placeholders"))
			c.players = cached.Players
			return c.players, nil
		}
		return nil, err
	}

	if err := c.save(playersFile{FetchedAt: c.now().UTC(), Players: players}); err != nil {
		logging.WarnWithContext(c.logger, "failed to persist players cache", "player_cache_save_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check cache_dir permissions"),
			logging.String(logging.FieldImpact, "next run downloads the players database again"))
	}
	c.logger.Info("players database refreshed", logging.Int("player_count", len(players)))
	c.players = players
	return c.players, nil
}

// lockRefresh serializes downloads across processes sharing the cache file.
func (c *PlayerCache) lockRefresh(ctx context.Context) (func(), error) {
	if c.path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return nil, fmt.Errorf("create players cache dir: %w", err)
	}
	lock := flock.New(c.path + ".lock")
	ok, err := lock.TryLockContext(ctx, refreshRetry)
	if err != nil {
		return nil, fmt.Errorf("lock players cache: %w", err)
	}
	if !ok {
		return nil, errors.New("lock players cache: not acquired")
	}
	return func() { _ = lock.Unlock() }, nil
}

func (c *PlayerCache) load() (*playersFile, error) {
	if c.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read players cache: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var file playersFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse players cache: %w", err)
	}
	return &file, nil
}

// save writes the cache atomically.
func (c *PlayerCache) save(file playersFile) error {
	if c.path == "" {
		return nil
	}
	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal players cache: %w", err)
	}
	if err := fileutil.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write players cache: %w", err)
	}
	return nil
}
