package sleeper

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

type stubSource struct {
	calls   int
	players map[string]Player
	err     error
}

func (s *stubSource) Players(context.Context) (map[string]Player, error) {
	s.calls++
	return s.players, s.err
}

func TestPlayerCacheDownloadsThenServesFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), PlayersFileName)
	source := &stubSource{players: map[string]Player{"1": {PlayerID: "1", FullName: "Josh Allen"}}}

	first := NewPlayerCache(path, time.Hour, source, nil)
	if _, err := first.Players(context.Background()); err != nil {
		t.Fatalf("Players returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected cache file: %v", err)
	}

	second := NewPlayerCache(path, time.Hour, source, nil)
	players, err := second.Players(context.Background())
	if err != nil {
		t.Fatalf("Players returned error: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one download, got %d", source.calls)
	}
	if players["1"].Name() != "Josh Allen" {
		t.Fatalf("unexpected cached players: %#v", players)
	}
}

func TestPlayerCacheRefreshesWhenStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), PlayersFileName)
	source := &stubSource{players: map[string]Player{"1": {PlayerID: "1"}}}

	cache := NewPlayerCache(path, time.Hour, source, nil)
	if _, err := cache.Players(context.Background()); err != nil {
		t.Fatalf("Players returned error: %v", err)
	}

	later := NewPlayerCache(path, time.Hour, source, nil)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := later.Players(context.Background()); err != nil {
		t.Fatalf("Players returned error: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected stale cache to refresh, got %d downloads", source.calls)
	}
}

func TestPlayerCacheFallsBackToStaleCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), PlayersFileName)
	source := &stubSource{players: map[string]Player{"1": {PlayerID: "1"}}}
	if _, err := NewPlayerCache(path, time.Hour, source, nil).Players(context.Background()); err != nil {
		t.Fatalf("Players returned error: %v", err)
	}

	source.err = errors.New("offline")
	source.players = nil
	later := NewPlayerCache(path, time.Hour, source, nil)
	later.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	players, err := later.Players(context.Background())
	if err != nil {
		t.Fatalf("expected stale fallback, got %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("expected stale players, got %#v", players)
	}
}

func TestPlayerCacheWaitsForAnotherRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), PlayersFileName)
	held := flock.New(path + ".lock")
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}

	// The other holder writes a fresh copy, then releases the lock.
	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(150 * time.Millisecond)
		data, _ := json.Marshal(playersFile{
			FetchedAt: time.Now().UTC(),
			Players:   map[string]Player{"1": {PlayerID: "1", FullName: "Josh Allen"}},
		})
		_ = os.WriteFile(path, data, 0o644)
		_ = held.Unlock()
	}()

	source := &stubSource{players: map[string]Player{"2": {PlayerID: "2"}}}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	players, err := NewPlayerCache(path, time.Hour, source, nil).Players(ctx)
	<-done
	if err != nil {
		t.Fatalf("Players returned error: %v", err)
	}
	if source.calls != 0 {
		t.Fatalf("expected the other run's download to be reused, got %d downloads", source.calls)
	}
	if players["1"].Name() != "Josh Allen" {
		t.Fatalf("unexpected players: %#v", players)
	}
}

func TestPlayerCacheGivesUpWhenLockIsHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), PlayersFileName)
	held := flock.New(path + ".lock")
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock = %v, %v", ok, err)
	}
	defer held.Unlock()

	source := &stubSource{players: map[string]Player{"1": {PlayerID: "1"}}}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := NewPlayerCache(path, time.Hour, source, nil).Players(ctx); err == nil {
		t.Fatal("expected an error while another run holds the lock")
	}
	if source.calls != 0 {
		t.Fatalf("expected no download, got %d", source.calls)
	}
}
